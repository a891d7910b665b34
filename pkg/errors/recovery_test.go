package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestRecover_WithPanic(t *testing.T) {
	project := func() (err error) {
		defer Recover(&err, "PCA.Transform")
		panic("projection failed")
	}

	err := project()
	if err == nil {
		t.Fatal("Expected error from recovered panic, got nil")
	}

	var panicErr *PanicError
	if !errors.As(err, &panicErr) {
		t.Fatalf("Expected PanicError, got %T", err)
	}
	if panicErr.Operation != "PCA.Transform" {
		t.Errorf("Expected operation 'PCA.Transform', got '%s'", panicErr.Operation)
	}
	if panicErr.StackTrace == "" {
		t.Error("Expected non-empty stack trace")
	}
	if panicErr.Error() != "panic in PCA.Transform: projection failed" {
		t.Errorf("unexpected message: %s", panicErr.Error())
	}
}

func TestRecover_WithoutPanic(t *testing.T) {
	fn := func() (err error) {
		defer Recover(&err, "PCA.Transform")
		return nil
	}

	if err := fn(); err != nil {
		t.Fatalf("Expected no error when no panic occurs, got: %v", err)
	}
}

func TestRecover_WithExistingError(t *testing.T) {
	originalErr := fmt.Errorf("original error")

	fn := func() (err error) {
		defer Recover(&err, "ReadFrame")
		err = originalErr
		panic("panic after error")
	}

	err := fn()
	if err == nil {
		t.Fatal("Expected error from recovered panic with existing error, got nil")
	}
	if !strings.Contains(err.Error(), "panic in ReadFrame") {
		t.Errorf("Error message should contain panic info: %s", err)
	}
	if !errors.Is(err, originalErr) {
		t.Error("Should be able to identify original error with errors.Is")
	}
}

func TestSafeExecute(t *testing.T) {
	fnErr := fmt.Errorf("function error")

	tests := []struct {
		name      string
		fn        func() error
		wantErr   error
		wantPanic bool
	}{
		{name: "success", fn: func() error { return nil }},
		{name: "function error", fn: func() error { return fnErr }, wantErr: fnErr},
		{
			name: "gonum dimension panic",
			fn: func() error {
				var c mat.Dense
				c.Mul(mat.NewDense(2, 3, nil), mat.NewDense(2, 3, nil))
				return nil
			},
			wantPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := SafeExecute("matrix product", tt.fn)
			if tt.wantPanic {
				var panicErr *PanicError
				if !errors.As(err, &panicErr) {
					t.Fatalf("Expected PanicError, got %v", err)
				}
				if panicErr.PanicValue != mat.ErrShape {
					t.Errorf("Expected mat.ErrShape panic value, got %v", panicErr.PanicValue)
				}
				if !errors.Is(err, mat.ErrShape) {
					t.Error("recovered gonum panic should unwrap to mat.ErrShape")
				}
				return
			}
			if err != tt.wantErr {
				t.Fatalf("SafeExecute() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPanicError_String(t *testing.T) {
	panicErr := NewPanicError("LinearSVC.Fit", "bad value")

	if panicErr.Unwrap() != nil {
		t.Error("PanicError should not wrap another error")
	}
	detailed := panicErr.String()
	if !strings.Contains(detailed, "Stack trace:") {
		t.Errorf("String() should include stack trace: %s", detailed)
	}
}

func BenchmarkSafeExecute_NoPanic(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = SafeExecute("noop", func() error { return nil })
	}
}
