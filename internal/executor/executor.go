// Package executor interprets MiniDB command lines against a Store.
//
// The command language has two operations:
//
//	STORE <key> <value>   store a value; a repeated key collects a list
//	GET <key>             read the current value
//
// Operation names are case-insensitive. Keys and values are bare words or
// double-quoted strings.
package executor

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/go-ports/minidb/internal/models"
	"github.com/go-ports/minidb/internal/store"
	"github.com/go-ports/minidb/internal/tokenizer"
)

// Op identifies the operation a Result came from.
type Op int

const (
	// OpNone marks the empty Result of a blank command line.
	OpNone Op = iota
	// OpStore marks a STORE result.
	OpStore
	// OpGet marks a GET result.
	OpGet
)

func (o Op) String() string {
	switch o {
	case OpStore:
		return "STORE"
	case OpGet:
		return "GET"
	}
	return ""
}

// Result is the outcome of a successful Execute.
type Result struct {
	Op  Op
	Key string
	// Value is the value under Key after the command ran.
	Value models.Value
	// Appended is set when STORE hit an existing key and produced a list.
	Appended bool
}

// Empty reports whether r is the no-op result of a blank command line.
func (r Result) Empty() bool { return r.Op == OpNone }

// Message renders r for display. STORE yields a confirmation line, GET yields
// the value itself, and the empty result yields "".
func (r Result) Message() string {
	switch r.Op {
	case OpStore:
		if r.Appended {
			return fmt.Sprintf("Appended to %s: %s", r.Key, r.Value)
		}
		return fmt.Sprintf("Stored: %s = %s", r.Key, r.Value)
	case OpGet:
		return r.Value.String()
	}
	return ""
}

// Executor runs commands against the Store it owns.
// Calls are serialised; each runs to completion before the next starts.
type Executor struct {
	mu    sync.Mutex
	store store.Store
}

// New returns an Executor that owns s. Closing the Executor closes s.
func New(s store.Store) *Executor {
	return &Executor{store: s}
}

// Close releases the underlying Store.
func (e *Executor) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Close()
}

// Execute tokenizes command and applies it.
// A blank command yields an empty Result and no error. Command failures are
// *CommandError values; the Store is never modified when one is returned.
func (e *Executor) Execute(command string) (Result, error) {
	tokens := tokenizer.Tokenize(strings.TrimSpace(command))
	if len(tokens) == 0 {
		return Result{}, nil
	}

	op := strings.ToUpper(tokens[0])

	e.mu.Lock()
	defer e.mu.Unlock()

	switch op {
	case "STORE":
		return e.handleStore(tokens)
	case "GET":
		return e.handleGet(tokens)
	}
	slog.Debug("execute: unknown command", "op", op)
	return Result{}, &CommandError{Kind: UnknownCommand, Detail: op}
}

// Entries returns a snapshot of every entry in insertion order.
func (e *Executor) Entries() ([]models.Entry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Entries()
}

// Len returns the number of keys in the Store.
func (e *Executor) Len() (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Len()
}

func (e *Executor) handleStore(tokens []string) (Result, error) {
	if len(tokens) != 3 {
		return Result{}, &CommandError{Kind: ArgumentCount, Detail: storeUsage}
	}
	key := tokens[1]
	value := models.Coerce(tokens[2])

	current, exists, err := e.store.Get(key)
	if err != nil {
		return Result{}, fmt.Errorf("executor.Execute STORE: %w", err)
	}

	next := models.ScalarValue(value)
	if exists {
		next = current.Append(value)
	}
	if err := e.store.Put(key, next); err != nil {
		return Result{}, fmt.Errorf("executor.Execute STORE: %w", err)
	}

	slog.Debug("execute", "op", "STORE", "key", key, "appended", exists, "len", next.Len())
	return Result{Op: OpStore, Key: key, Value: next, Appended: exists}, nil
}

func (e *Executor) handleGet(tokens []string) (Result, error) {
	if len(tokens) != 2 {
		return Result{}, &CommandError{Kind: ArgumentCount, Detail: getUsage}
	}
	key := tokens[1]

	v, ok, err := e.store.Get(key)
	if err != nil {
		return Result{}, fmt.Errorf("executor.Execute GET: %w", err)
	}
	if !ok {
		return Result{}, &CommandError{Kind: KeyNotFound, Detail: key}
	}

	slog.Debug("execute", "op", "GET", "key", key)
	return Result{Op: OpGet, Key: key, Value: v}, nil
}
