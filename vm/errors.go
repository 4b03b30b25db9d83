package vm

import "fmt"

// RuntimeError terminates the worker that raised it.
type RuntimeError struct {
	Message string
}

func (e RuntimeError) Error() string {
	return fmt.Sprintf("runtime error: %s", e.Message)
}

func runtimeFail(format string, args ...any) {
	panic(RuntimeError{Message: fmt.Sprintf(format, args...)})
}
