package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/arthur-debert/phazr/pkg/errors"
	"github.com/arthur-debert/phazr/pkg/types"
	"gopkg.in/yaml.v3"
	"resty.dev/v3"
)

// RequestSpec is the request an http_request operation describes in its
// command, written as JSON or YAML.
type RequestSpec struct {
	URL     string            `yaml:"url"`
	Method  string            `yaml:"method"`
	Headers map[string]string `yaml:"headers"`
	Body    interface{}       `yaml:"body"`

	// Data is an alias for Body.
	Data interface{} `yaml:"data"`
}

// ParseRequestSpec decodes an http_request command. A bare URL is accepted
// as a GET request.
func ParseRequestSpec(command string) (RequestSpec, error) {
	trimmed := strings.TrimSpace(command)
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		return RequestSpec{URL: trimmed, Method: http.MethodGet}, nil
	}

	var spec RequestSpec
	if err := yaml.Unmarshal([]byte(trimmed), &spec); err != nil {
		return spec, errors.Wrap(err, errors.ErrInvalidInput, "invalid http_request command")
	}
	if spec.URL == "" {
		return spec, errors.New(errors.ErrInvalidInput, "http_request command has no url")
	}
	if spec.Method == "" {
		spec.Method = http.MethodGet
	}
	spec.Method = strings.ToUpper(spec.Method)
	if spec.Body == nil {
		spec.Body = spec.Data
	}
	return spec, nil
}

// HTTPRequestHandler performs the described request. Any 2xx response is a
// success; the status code is recorded in the result metadata.
type HTTPRequestHandler struct {
	Client *resty.Client
}

// NewHTTPRequestHandler creates an http_request handler.
func NewHTTPRequestHandler(client *resty.Client) *HTTPRequestHandler {
	if client == nil {
		client = resty.New()
	}
	return &HTTPRequestHandler{Client: client}
}

func (h *HTTPRequestHandler) Execute(ctx context.Context, op types.Operation, _ types.Environment) types.ExecutionResult {
	spec, err := ParseRequestSpec(op.Command)
	if err != nil {
		return failed(op, "", err)
	}

	req := h.Client.R().SetContext(ctx).SetHeaders(spec.Headers)
	if spec.Body != nil {
		req.SetBody(spec.Body)
	}

	resp, err := req.Execute(spec.Method, spec.URL)
	if err != nil {
		if ctx.Err() != nil {
			return failed(op, "", errors.Wrap(ctx.Err(), errors.ErrCancelled, "request aborted"))
		}
		return failed(op, "", errors.Wrapf(err, errors.ErrOperationFailed, "%s %s", spec.Method, spec.URL))
	}

	body := resp.String()
	result := succeeded(op, body)
	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		result = failed(op, body, errors.Newf(errors.ErrOperationFailed, "%s %s returned %s", spec.Method, spec.URL, resp.Status()).
			WithDetail("status_code", resp.StatusCode()))
	}
	result.Metadata = map[string]interface{}{
		"status_code": resp.StatusCode(),
		"method":      spec.Method,
		"url":         spec.URL,
	}
	return result
}
