package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeConfig, "bar width %v outside (0,1]", 1.5)

	if err.Code != ErrCodeConfig {
		t.Errorf("Code = %q, want %q", err.Code, ErrCodeConfig)
	}
	if err.Message != "bar width 1.5 outside (0,1]" {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Cause != nil {
		t.Errorf("Cause = %v, want nil", err.Cause)
	}
}

func TestErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "without cause",
			err:  New(ErrCodeSchema, "missing column size"),
			want: "SCHEMA_ERROR: missing column size",
		},
		{
			name: "with cause",
			err:  Wrap(ErrCodeInputMissing, fmt.Errorf("no such file"), "open nodes.csv"),
			want: "INPUT_MISSING: open nodes.csv: no such file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrapUnwrap(t *testing.T) {
	cause := fmt.Errorf("underlying")
	err := Wrap(ErrCodeComputation, cause, "zero denominator")

	if !stderrors.Is(err, cause) {
		t.Error("wrapped error should match cause via errors.Is")
	}
}

func TestIs(t *testing.T) {
	err := New(ErrCodeConfig, "palette exhausted")

	if !Is(err, ErrCodeConfig) {
		t.Error("Is should match the error's own code")
	}
	if Is(err, ErrCodeSchema) {
		t.Error("Is should not match a different code")
	}
	if Is(fmt.Errorf("plain"), ErrCodeConfig) {
		t.Error("Is should not match plain errors")
	}

	// Code is found through wrapping layers.
	wrapped := fmt.Errorf("context: %w", err)
	if !Is(wrapped, ErrCodeConfig) {
		t.Error("Is should unwrap to find the code")
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(New(ErrCodeNotFound, "chart missing")); got != ErrCodeNotFound {
		t.Errorf("GetCode = %q, want %q", got, ErrCodeNotFound)
	}
	if got := GetCode(fmt.Errorf("plain")); got != "" {
		t.Errorf("GetCode(plain) = %q, want empty", got)
	}
}

func TestUserMessage(t *testing.T) {
	if got := UserMessage(New(ErrCodeConfig, "invalid stat")); got != "invalid stat" {
		t.Errorf("UserMessage = %q", got)
	}
	if got := UserMessage(fmt.Errorf("plain failure")); got != "plain failure" {
		t.Errorf("UserMessage(plain) = %q", got)
	}
}
