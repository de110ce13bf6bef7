package notify

import "fmt"

// PanicError wraps a panic raised inside a channel.
type PanicError struct {
	Value interface{}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("channel panic: %v", e.Value)
}
