package errors

import (
	"fmt"
	"runtime/debug"
)

// PanicError は recover したパニックを表すエラー。
// gonum は形状の不一致などでパニックするため、境界で error に変換する。
type PanicError struct {
	// PanicValue は panic() に渡された値
	PanicValue interface{}
	// StackTrace は recover 時点のスタック
	StackTrace string
	// Operation は recover した処理名
	Operation string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in %s: %v", e.Operation, e.PanicValue)
}

// Unwrap returns the panic value when it is itself an error, so
// errors.Is(err, mat.ErrShape) matches a recovered gonum panic.
func (e *PanicError) Unwrap() error {
	if err, ok := e.PanicValue.(error); ok {
		return err
	}
	return nil
}

// String includes the stack trace.
func (e *PanicError) String() string {
	return fmt.Sprintf("panic in %s: %v\nStack trace:\n%s", e.Operation, e.PanicValue, e.StackTrace)
}

// NewPanicError captures the current stack for a recovered value.
func NewPanicError(operation string, panicValue interface{}) *PanicError {
	return &PanicError{
		PanicValue: panicValue,
		StackTrace: string(debug.Stack()),
		Operation:  operation,
	}
}

// Recover converts a panic into *err. Use it with defer on a named error
// result:
//
//	func (p *PCA) Transform(X mat.Matrix) (_ mat.Matrix, err error) {
//	    defer errors.Recover(&err, "PCA.Transform")
//	    ...
//	}
//
// An error already set in *err is kept and wrapped with the panic message.
func Recover(err *error, operation string) {
	r := recover()
	if r == nil {
		return
	}
	if *err != nil {
		*err = Wrapf(*err, "panic in %s: %v", operation, r)
		return
	}
	*err = NewPanicError(operation, r)
}

// SafeExecute runs fn and returns its error, or a *PanicError if it panics.
func SafeExecute(operation string, fn func() error) (err error) {
	defer Recover(&err, operation)
	return fn()
}
