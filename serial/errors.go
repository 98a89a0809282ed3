package serial

import "fmt"

// PanicError is delivered to a task's Future when the task panics.
// The queue recovers the panic and keeps draining.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return "serial: task panicked: " + fmt.Sprint(e.Value)
}

// Unwrap returns the panic value when it is an error (e.g. panic(err)).
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
