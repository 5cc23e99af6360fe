// pkg/errors/errors_test.go
// TEST TYPE: Unit Test
// DEPENDENCIES: None
// PURPOSE: Test error creation, wrapping, and utility functions

package errors_test

import (
	stderrors "errors"
	"testing"

	"github.com/arthur-debert/phazr/pkg/errors"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    errors.ErrorCode
		message string
		wantStr string
	}{
		{
			name:    "not_found_error",
			code:    errors.ErrNotFound,
			message: "phase not found",
			wantStr: "[NOT_FOUND] phase not found",
		},
		{
			name:    "cycle_error",
			code:    errors.ErrDependencyCycle,
			message: "a → b → a",
			wantStr: "[DEPENDENCY_CYCLE] a → b → a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := errors.New(tt.code, tt.message)

			if err.Code != tt.code {
				t.Errorf("New() code = %v, want %v", err.Code, tt.code)
			}

			if err.Details == nil {
				t.Error("New() details should be initialized")
			}

			if got := err.Error(); got != tt.wantStr {
				t.Errorf("Error() = %q, want %q", got, tt.wantStr)
			}
		})
	}
}

func TestNewf(t *testing.T) {
	err := errors.Newf(errors.ErrUnknownDependency, "phase %q depends on unknown phase %q", "deploy", "build")

	want := `phase "deploy" depends on unknown phase "build"`
	if err.Message != want {
		t.Errorf("Newf() message = %q, want %q", err.Message, want)
	}
}

func TestWrap(t *testing.T) {
	baseErr := stderrors.New("base error")

	t.Run("wrap_non_nil_error", func(t *testing.T) {
		err := errors.Wrap(baseErr, errors.ErrInternal, "internal error")

		if err.Wrapped != baseErr {
			t.Error("Wrap() should preserve wrapped error")
		}

		wantStr := "[INTERNAL] internal error: base error"
		if got := err.Error(); got != wantStr {
			t.Errorf("Error() = %q, want %q", got, wantStr)
		}
	})

	t.Run("wrap_nil_error_returns_nil", func(t *testing.T) {
		if err := errors.Wrap(nil, errors.ErrInternal, "internal error"); err != nil {
			t.Error("Wrap(nil) should return nil")
		}
		if err := errors.Wrapf(nil, errors.ErrInternal, "internal %s", "error"); err != nil {
			t.Error("Wrapf(nil) should return nil")
		}
	})
}

func TestWithDetails(t *testing.T) {
	err := errors.New(errors.ErrUndefinedGroup, "group missing").
		WithDetail("phase", "deploy").
		WithDetails(map[string]interface{}{"group": "apps", "version": "v1"})

	if err.Details["phase"] != "deploy" {
		t.Errorf("WithDetail() phase = %v, want deploy", err.Details["phase"])
	}
	if err.Details["group"] != "apps" || err.Details["version"] != "v1" {
		t.Errorf("WithDetails() = %v", err.Details)
	}
	if got := errors.GetErrorDetails(err); got["phase"] != "deploy" {
		t.Errorf("GetErrorDetails() = %v", got)
	}
	if errors.GetErrorDetails(stderrors.New("plain")) != nil {
		t.Error("GetErrorDetails() of a plain error should be nil")
	}
}

func TestIs(t *testing.T) {
	err1 := errors.New(errors.ErrNotFound, "error 1")
	err2 := errors.New(errors.ErrNotFound, "error 2")
	err3 := errors.New(errors.ErrInternal, "error 3")

	if !err1.Is(err2) {
		t.Error("Is() should return true for same code")
	}
	if err1.Is(err3) {
		t.Error("Is() should return false for different codes")
	}
	if !stderrors.Is(err1, err2) {
		t.Error("errors.Is() should work with Error")
	}
}

func TestIsErrorCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     errors.ErrorCode
		expected bool
	}{
		{"matching_code", errors.New(errors.ErrNotFound, "x"), errors.ErrNotFound, true},
		{"different_code", errors.New(errors.ErrNotFound, "x"), errors.ErrInternal, false},
		{"wrapped_error", errors.Wrap(stderrors.New("base"), errors.ErrConfigLoad, "denied"), errors.ErrConfigLoad, true},
		{"standard_error", stderrors.New("standard error"), errors.ErrNotFound, false},
		{"nil_error", nil, errors.ErrNotFound, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.IsErrorCode(tt.err, tt.code); got != tt.expected {
				t.Errorf("IsErrorCode() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetErrorCode(t *testing.T) {
	if got := errors.GetErrorCode(errors.New(errors.ErrPhaseNotFound, "x")); got != errors.ErrPhaseNotFound {
		t.Errorf("GetErrorCode() = %v", got)
	}
	if got := errors.GetErrorCode(stderrors.New("x")); got != errors.ErrUnknown {
		t.Errorf("GetErrorCode() = %v, want UNKNOWN", got)
	}
	if got := errors.GetErrorCode(nil); got != errors.ErrUnknown {
		t.Errorf("GetErrorCode(nil) = %v, want UNKNOWN", got)
	}
}

func TestIsConfigurationError(t *testing.T) {
	tests := []struct {
		code errors.ErrorCode
		want bool
	}{
		{errors.ErrDependencyCycle, true},
		{errors.ErrUnknownDependency, true},
		{errors.ErrUndefinedGroup, true},
		{errors.ErrUnknownOperationType, true},
		{errors.ErrPrecondition, false},
		{errors.ErrOperationFailed, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			err := errors.Wrap(errors.New(tt.code, "inner"), tt.code, "outer")
			if got := errors.IsConfigurationError(err); got != tt.want {
				t.Errorf("IsConfigurationError(%s) = %v, want %v", tt.code, got, tt.want)
			}
		})
	}
}

func TestErrorChaining(t *testing.T) {
	rootCause := stderrors.New("root cause")
	parseErr := errors.Wrap(rootCause, errors.ErrConfigParse, "cannot parse file")
	loadErr := errors.Wrap(parseErr, errors.ErrConfigLoad, "failed to load config")

	if !errors.IsErrorCode(loadErr, errors.ErrConfigLoad) {
		t.Error("Top level should have ErrConfigLoad code")
	}

	var inner *errors.Error
	if stderrors.As(loadErr.Unwrap(), &inner) && inner.Code != errors.ErrConfigParse {
		t.Errorf("Middle error code = %v, want CONFIG_PARSE", inner.Code)
	}

	if !stderrors.Is(loadErr, rootCause) {
		t.Error("Should find root cause with errors.Is")
	}
}
