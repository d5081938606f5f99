package executor

import (
	"errors"
	"fmt"
)

// ErrorKind enumerates the ways a command can fail.
type ErrorKind int

const (
	// UnknownCommand means the first token is not a recognised operation.
	UnknownCommand ErrorKind = iota + 1
	// ArgumentCount means the operation received the wrong number of tokens.
	ArgumentCount
	// KeyNotFound means GET named a key that was never stored.
	KeyNotFound
)

// Sentinel errors matched by CommandError.Is, one per ErrorKind.
var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrArgumentCount  = errors.New("wrong argument count")
	ErrKeyNotFound    = errors.New("key not found")
)

// String returns the kind name used in logs and tool output.
func (k ErrorKind) String() string {
	switch k {
	case UnknownCommand:
		return "unknown_command"
	case ArgumentCount:
		return "argument_count"
	case KeyNotFound:
		return "key_not_found"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// CommandError is the error returned by Execute. Detail carries the
// operation, the expected command shape, or the key, depending on Kind.
type CommandError struct {
	Kind   ErrorKind
	Detail string
}

func (e *CommandError) Error() string {
	switch e.Kind {
	case UnknownCommand:
		return "Unknown command: " + e.Detail
	case ArgumentCount:
		return e.Detail
	case KeyNotFound:
		return "Key not found: " + e.Detail
	}
	return e.Kind.String() + ": " + e.Detail
}

// Is matches the sentinel for e.Kind.
func (e *CommandError) Is(target error) bool {
	switch e.Kind {
	case UnknownCommand:
		return target == ErrUnknownCommand
	case ArgumentCount:
		return target == ErrArgumentCount
	case KeyNotFound:
		return target == ErrKeyNotFound
	}
	return false
}

// KindOf returns the ErrorKind carried by err, or 0 when err is not a
// CommandError.
func KindOf(err error) ErrorKind {
	var ce *CommandError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return 0
}

const (
	storeUsage = "STORE command requires exactly 2 arguments: STORE [key] [value]"
	getUsage   = "GET command requires exactly 1 argument: GET [key]"
)
