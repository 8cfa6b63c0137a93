package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestStorageErrorUnwraps(t *testing.T) {
	err := fmt.Errorf("delete task: %w", Storage("delete", "abc", ErrNotOwned))

	if !IsStorage(err) {
		t.Fatalf("expected storage error to be detected through wrapping")
	}
	if !stderrors.Is(err, ErrNotOwned) {
		t.Fatalf("expected ErrNotOwned to be reachable")
	}
	if IsValidation(err) {
		t.Fatalf("storage error must not classify as validation")
	}
	if got := err.Error(); got != "delete task: storage delete abc: task not found for identity" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestValidationErrorMessage(t *testing.T) {
	tests := []struct {
		err  ValidationError
		want string
	}{
		{ValidationError{Field: "title", Reason: "required"}, "invalid title: required"},
		{ValidationError{Reason: "bad payload"}, "invalid input: bad payload"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}
