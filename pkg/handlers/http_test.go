package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/arthur-debert/phazr/pkg/errors"
	"github.com/arthur-debert/phazr/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRequestSpec(t *testing.T) {
	tests := []struct {
		name    string
		command string
		want    RequestSpec
		wantErr bool
	}{
		{
			name:    "bare url",
			command: "https://example.com/health",
			want:    RequestSpec{URL: "https://example.com/health", Method: "GET"},
		},
		{
			name:    "json",
			command: `{"url": "http://x/api", "method": "post", "headers": {"X-Token": "t"}}`,
			want:    RequestSpec{URL: "http://x/api", Method: "POST", Headers: map[string]string{"X-Token": "t"}},
		},
		{
			name:    "yaml with data alias",
			command: "url: http://x/api\nmethod: PUT\ndata: hello\n",
			want:    RequestSpec{URL: "http://x/api", Method: "PUT", Body: "hello", Data: "hello"},
		},
		{
			name:    "missing url",
			command: `{"method": "GET"}`,
			wantErr: true,
		},
		{
			name:    "garbage",
			command: "{not valid",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRequestSpec(tt.command)
			if tt.wantErr {
				assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHTTPRequestHandler(t *testing.T) {
	var gotMethod, gotHeader string
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotHeader = r.Header.Get("X-Deploy")
		if r.Body != nil {
			data, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(data, &gotBody)
		}
		if r.URL.Path == "/broken" {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("down"))
			return
		}
		_, _ = w.Write([]byte("accepted"))
	}))
	defer server.Close()

	h := NewHTTPRequestHandler(nil)

	t.Run("2xx succeeds", func(t *testing.T) {
		op := types.Operation{
			Type:    types.OperationHTTPRequest,
			Command: `{"url": "` + server.URL + `/hooks", "method": "POST", "headers": {"X-Deploy": "42"}, "body": {"phase": "migrate"}}`,
		}
		res := h.Execute(context.Background(), op, types.Environment{})

		require.True(t, res.Success, res.ErrorMessage())
		assert.Equal(t, "accepted", res.Output)
		assert.Equal(t, http.StatusOK, res.Metadata["status_code"])
		assert.Equal(t, http.MethodPost, gotMethod)
		assert.Equal(t, "42", gotHeader)
		assert.Equal(t, "migrate", gotBody["phase"])
	})

	t.Run("non-2xx fails", func(t *testing.T) {
		res := h.Execute(context.Background(), types.Operation{Command: server.URL + "/broken"}, types.Environment{})

		assert.False(t, res.Success)
		assert.Equal(t, "down", res.Output)
		assert.Equal(t, http.StatusServiceUnavailable, res.Metadata["status_code"])
		assert.True(t, errors.IsErrorCode(res.Error, errors.ErrOperationFailed))
	})

	t.Run("invalid command", func(t *testing.T) {
		res := h.Execute(context.Background(), types.Operation{Command: "method: GET"}, types.Environment{})
		assert.False(t, res.Success)
		assert.True(t, errors.IsErrorCode(res.Error, errors.ErrInvalidInput))
	})
}
