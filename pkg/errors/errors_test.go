package errors

import (
	"errors"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidInput, "test message: %s", "value")

	if err.Code != ErrCodeInvalidInput {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidInput)
	}

	if err.Message != "test message: value" {
		t.Errorf("Message = %v, want %v", err.Message, "test message: value")
	}

	expected := "INVALID_INPUT: test message: value"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestInvalid(t *testing.T) {
	err := Invalid(ErrCodeMalformedEdge, "A=B", "invalid edge format: %s", "A=B")

	if err.Subject != "A=B" {
		t.Errorf("Subject = %q, want %q", err.Subject, "A=B")
	}
	if GetSubject(err) != "A=B" {
		t.Errorf("GetSubject() = %q, want %q", GetSubject(err), "A=B")
	}
	if GetSubject(errors.New("plain")) != "" {
		t.Error("GetSubject() on plain error should be empty")
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeInternal, cause, "failed to render")

	if err.Code != ErrCodeInternal {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInternal)
	}

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}

	unwrapped := errors.Unwrap(err)
	if unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}

	expected := "INTERNAL_ERROR: failed to render: underlying error"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{
			name:     "matching code",
			err:      New(ErrCodeDuplicateNode, "test"),
			code:     ErrCodeDuplicateNode,
			expected: true,
		},
		{
			name:     "non-matching code",
			err:      New(ErrCodeDuplicateNode, "test"),
			code:     ErrCodeInvalidWeight,
			expected: false,
		},
		{
			name:     "wrapped error",
			err:      Wrap(ErrCodeInternal, New(ErrCodeInvalidInput, "inner"), "outer"),
			code:     ErrCodeInternal,
			expected: true,
		},
		{
			name:     "fmt wrapped",
			err:      fmtWrap(New(ErrCodeMalformedEdge, "inner")),
			code:     ErrCodeMalformedEdge,
			expected: true,
		},
		{
			name:     "non-Error type",
			err:      errors.New("plain error"),
			code:     ErrCodeInvalidInput,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			code:     ErrCodeInvalidInput,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Code
	}{
		{
			name:     "Error type",
			err:      New(ErrCodeUnknownNodeRef, "test"),
			expected: ErrCodeUnknownNodeRef,
		},
		{
			name:     "plain error",
			err:      errors.New("plain"),
			expected: "",
		},
		{
			name:     "nil",
			err:      nil,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.expected {
				t.Errorf("GetCode() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "Error type",
			err:      New(ErrCodeEmptyNodeList, "friendly message"),
			expected: "friendly message",
		},
		{
			name:     "plain error",
			err:      errors.New("plain error"),
			expected: "plain error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.expected {
				t.Errorf("UserMessage() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestClassification(t *testing.T) {
	validation := []Code{
		ErrCodeEmptyNodeList, ErrCodeDuplicateNode, ErrCodeMalformedEdge,
		ErrCodeUnknownNodeRef, ErrCodeInvalidWeight, ErrCodeInvalidStartNode,
		ErrCodeStepOutOfRange,
	}
	for _, code := range validation {
		if !IsValidation(New(code, "x")) {
			t.Errorf("IsValidation(%s) = false, want true", code)
		}
		if IsNotFound(New(code, "x")) {
			t.Errorf("IsNotFound(%s) = true, want false", code)
		}
	}

	if !IsNotFound(New(ErrCodeSessionNotFound, "x")) {
		t.Error("IsNotFound(SESSION_NOT_FOUND) = false, want true")
	}
	if IsValidation(New(ErrCodeInternal, "x")) {
		t.Error("IsValidation(INTERNAL_ERROR) = true, want false")
	}
	if IsValidation(errors.New("plain")) {
		t.Error("IsValidation(plain) = true, want false")
	}
}

func fmtWrap(err error) error {
	return &wrapper{err: err}
}

type wrapper struct{ err error }

func (w *wrapper) Error() string { return "context: " + w.err.Error() }
func (w *wrapper) Unwrap() error { return w.err }
