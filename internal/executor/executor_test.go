package executor_test

import (
	"errors"
	"math"
	"sync"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/go-ports/minidb/internal/executor"
	"github.com/go-ports/minidb/internal/models"
	"github.com/go-ports/minidb/internal/store"
)

// newExecutor returns an Executor over a fresh store for backend and
// registers cleanup on c.
func newExecutor(c *qt.C, backend string) *executor.Executor {
	c.TB.Helper()
	s, err := store.Open(backend)
	c.Assert(err, qt.IsNil)
	ex := executor.New(s)
	c.TB.Cleanup(func() { _ = ex.Close() })
	return ex
}

// mustExec runs cmd and fails the test on error.
func mustExec(c *qt.C, ex *executor.Executor, cmd string) executor.Result {
	c.TB.Helper()
	res, err := ex.Execute(cmd)
	c.Assert(err, qt.IsNil, qt.Commentf("command %q", cmd))
	return res
}

var backends = []string{store.BackendMemory, store.BackendSQLite}

func num(f float64) models.Scalar { return models.NumberScalar(f) }

func str(s string) models.Scalar { return models.StringScalar(s) }

func scalar(s models.Scalar) models.Value { return models.ScalarValue(s) }

// ---------------------------------------------------------------------------
// STORE / GET
// ---------------------------------------------------------------------------

func TestExecute_StoreThenGet(t *testing.T) {
	c := qt.New(t)

	cases := []struct {
		name    string
		command string
		key     string
		want    models.Value
		message string
	}{
		{"number is coerced", "STORE age 25", "age", scalar(num(25)), "Stored: age = 25"},
		{"fraction is coerced", "STORE score 95.5", "score", scalar(num(95.5)), "Stored: score = 95.5"},
		{"word stays a string", "STORE y abc", "y", scalar(str("abc")), "Stored: y = abc"},
		{"quoted value", `STORE city "New York"`, "city", scalar(str("New York")), "Stored: city = New York"},
		{"quoted number is still a number", `STORE n "42"`, "n", scalar(num(42)), "Stored: n = 42"},
		{"quoted key", `STORE "full name" Ada`, "full name", scalar(str("Ada")), "Stored: full name = Ada"},
		{"lowercase operation", "store x 1", "x", scalar(num(1)), "Stored: x = 1"},
		{"mixed case operation", "StOrE x -2.5", "x", scalar(num(-2.5)), "Stored: x = -2.5"},
		{"surrounding whitespace trimmed", "  \tSTORE x v \n", "x", scalar(str("v")), "Stored: x = v"},
	}

	for _, backend := range backends {
		for _, tt := range cases {
			c.Run(backend+"/"+tt.name, func(c *qt.C) {
				ex := newExecutor(c, backend)

				res := mustExec(c, ex, tt.command)
				c.Assert(res.Op, qt.Equals, executor.OpStore)
				c.Assert(res.Key, qt.Equals, tt.key)
				c.Assert(res.Appended, qt.IsFalse)
				c.Assert(res.Message(), qt.Equals, tt.message)

				get := mustExec(c, ex, `GET "`+tt.key+`"`)
				c.Assert(get.Op, qt.Equals, executor.OpGet)
				c.Assert(get.Value, qt.DeepEquals, tt.want)
			})
		}
	}
}

func TestExecute_RepeatedStoreBuildsList(t *testing.T) {
	c := qt.New(t)

	for _, backend := range backends {
		c.Run(backend, func(c *qt.C) {
			ex := newExecutor(c, backend)

			mustExec(c, ex, `STORE n "John Doe"`)

			res := mustExec(c, ex, `STORE n "Jane Smith"`)
			c.Assert(res.Appended, qt.IsTrue)
			c.Assert(res.Message(), qt.Equals, `Appended to n: ["John Doe","Jane Smith"]`)

			got := mustExec(c, ex, "GET n")
			c.Assert(got.Value, qt.DeepEquals, models.ListValue(str("John Doe"), str("Jane Smith")))

			res = mustExec(c, ex, `STORE n "Bob Wilson"`)
			c.Assert(res.Message(), qt.Equals, `Appended to n: ["John Doe","Jane Smith","Bob Wilson"]`)

			got = mustExec(c, ex, "GET n")
			c.Assert(got.Value, qt.DeepEquals,
				models.ListValue(str("John Doe"), str("Jane Smith"), str("Bob Wilson")))
		})
	}
}

func TestExecute_ListKeepsCoercionAndDuplicates(t *testing.T) {
	c := qt.New(t)

	for _, backend := range backends {
		c.Run(backend, func(c *qt.C) {
			ex := newExecutor(c, backend)

			mustExec(c, ex, "STORE x 25")
			res := mustExec(c, ex, "STORE x twenty")
			c.Assert(res.Message(), qt.Equals, `Appended to x: [25,"twenty"]`)
			res = mustExec(c, ex, "STORE x 25")
			c.Assert(res.Message(), qt.Equals, `Appended to x: [25,"twenty",25]`)

			got := mustExec(c, ex, "GET x")
			c.Assert(got.Value, qt.DeepEquals, models.ListValue(num(25), str("twenty"), num(25)))
			c.Assert(got.Message(), qt.Equals, `[25,"twenty",25]`)
		})
	}
}

func TestExecute_GetIsIdempotent(t *testing.T) {
	c := qt.New(t)

	for _, backend := range backends {
		c.Run(backend, func(c *qt.C) {
			ex := newExecutor(c, backend)
			mustExec(c, ex, "STORE k 1")
			mustExec(c, ex, "STORE k 2")

			first := mustExec(c, ex, "GET k")
			for range 3 {
				again := mustExec(c, ex, "GET k")
				c.Assert(again, qt.DeepEquals, first)
			}
			entries, err := ex.Entries()
			c.Assert(err, qt.IsNil)
			c.Assert(entries, qt.HasLen, 1)
			c.Assert(entries[0].Value.Len(), qt.Equals, 2)
		})
	}
}

func TestExecute_KeysAreCaseSensitive(t *testing.T) {
	c := qt.New(t)
	ex := newExecutor(c, store.BackendMemory)

	mustExec(c, ex, "STORE Name Ada")
	_, err := ex.Execute("GET name")
	c.Assert(err, qt.ErrorIs, executor.ErrKeyNotFound)
}

func TestExecute_InvalidUTF8KeysStayDistinct(t *testing.T) {
	c := qt.New(t)

	for _, backend := range backends {
		c.Run(backend, func(c *qt.C) {
			ex := newExecutor(c, backend)

			res := mustExec(c, ex, "STORE \xff a")
			c.Assert(res.Key, qt.Equals, "\xff")

			_, err := ex.Execute("GET \xfe")
			c.Assert(err, qt.ErrorIs, executor.ErrKeyNotFound)
			c.Assert(err.Error(), qt.Equals, "Key not found: \xfe")

			res = mustExec(c, ex, "GET \xff")
			c.Assert(res.Value, qt.DeepEquals, scalar(str("a")))

			mustExec(c, ex, "STORE \xfe \x80")
			res = mustExec(c, ex, "GET \xfe")
			c.Assert(res.Value, qt.DeepEquals, scalar(str("\x80")))
		})
	}
}

func TestExecute_NegativeZeroMatchesAcrossBackends(t *testing.T) {
	c := qt.New(t)

	for _, backend := range backends {
		c.Run(backend, func(c *qt.C) {
			ex := newExecutor(c, backend)

			mustExec(c, ex, "STORE z -0")
			res := mustExec(c, ex, "GET z")
			s, ok := res.Value.Scalar()
			c.Assert(ok, qt.IsTrue)
			f, ok := s.Number()
			c.Assert(ok, qt.IsTrue)
			c.Assert(math.Signbit(f), qt.IsFalse)
			c.Assert(res.Message(), qt.Equals, "0")
		})
	}
}

func TestExecutor_Len(t *testing.T) {
	c := qt.New(t)

	for _, backend := range backends {
		c.Run(backend, func(c *qt.C) {
			ex := newExecutor(c, backend)

			n, err := ex.Len()
			c.Assert(err, qt.IsNil)
			c.Assert(n, qt.Equals, 0)

			mustExec(c, ex, "STORE a 1")
			mustExec(c, ex, "STORE a 2")
			mustExec(c, ex, "STORE b x")
			_, _ = ex.Execute("GET missing")

			n, err = ex.Len()
			c.Assert(err, qt.IsNil)
			c.Assert(n, qt.Equals, 2)
		})
	}
}

func TestExecute_EmptyInput(t *testing.T) {
	c := qt.New(t)

	for _, in := range []string{"", "   ", "\t\n", `""`} {
		c.Run("input "+in, func(c *qt.C) {
			ex := newExecutor(c, store.BackendMemory)
			res, err := ex.Execute(in)
			c.Assert(err, qt.IsNil)
			c.Assert(res.Empty(), qt.IsTrue)
			c.Assert(res.Message(), qt.Equals, "")
		})
	}
}

// ---------------------------------------------------------------------------
// Failures
// ---------------------------------------------------------------------------

func TestExecute_FailurePath(t *testing.T) {
	c := qt.New(t)

	cases := []struct {
		name     string
		command  string
		sentinel error
		kind     executor.ErrorKind
		message  string
	}{
		{
			"unknown operation", "INVALID command",
			executor.ErrUnknownCommand, executor.UnknownCommand, "Unknown command: INVALID",
		},
		{
			"unknown operation is upper-cased", "delete k",
			executor.ErrUnknownCommand, executor.UnknownCommand, "Unknown command: DELETE",
		},
		{
			"store with extra value", "STORE a 1 2",
			executor.ErrArgumentCount, executor.ArgumentCount,
			"STORE command requires exactly 2 arguments: STORE [key] [value]",
		},
		{
			"store without value", "STORE a",
			executor.ErrArgumentCount, executor.ArgumentCount,
			"STORE command requires exactly 2 arguments: STORE [key] [value]",
		},
		{
			"unquoted spaces split the value", "STORE name John Doe",
			executor.ErrArgumentCount, executor.ArgumentCount,
			"STORE command requires exactly 2 arguments: STORE [key] [value]",
		},
		{
			"get without key", "GET",
			executor.ErrArgumentCount, executor.ArgumentCount,
			"GET command requires exactly 1 argument: GET [key]",
		},
		{
			"get with two keys", "GET a b",
			executor.ErrArgumentCount, executor.ArgumentCount,
			"GET command requires exactly 1 argument: GET [key]",
		},
		{
			"get missing key", "GET nonexistent",
			executor.ErrKeyNotFound, executor.KeyNotFound, "Key not found: nonexistent",
		},
	}

	for _, backend := range backends {
		for _, tt := range cases {
			c.Run(backend+"/"+tt.name, func(c *qt.C) {
				ex := newExecutor(c, backend)

				res, err := ex.Execute(tt.command)
				c.Assert(err, qt.ErrorIs, tt.sentinel)
				c.Assert(err.Error(), qt.Equals, tt.message)
				c.Assert(executor.KindOf(err), qt.Equals, tt.kind)
				c.Assert(res.Empty(), qt.IsTrue)

				var ce *executor.CommandError
				c.Assert(errors.As(err, &ce), qt.IsTrue)
				c.Assert(ce.Kind, qt.Equals, tt.kind)
			})
		}
	}
}

func TestExecute_FailureDoesNotMutate(t *testing.T) {
	c := qt.New(t)

	for _, backend := range backends {
		c.Run(backend, func(c *qt.C) {
			ex := newExecutor(c, backend)
			mustExec(c, ex, "STORE a 1")

			_, err := ex.Execute("STORE a 2 3")
			c.Assert(err, qt.ErrorIs, executor.ErrArgumentCount)
			_, err = ex.Execute("STORE b")
			c.Assert(err, qt.ErrorIs, executor.ErrArgumentCount)

			got := mustExec(c, ex, "GET a")
			c.Assert(got.Value, qt.DeepEquals, scalar(num(1)))

			entries, err := ex.Entries()
			c.Assert(err, qt.IsNil)
			c.Assert(entries, qt.HasLen, 1)
		})
	}
}

func TestExecutors_DoNotShareStores(t *testing.T) {
	c := qt.New(t)

	a := newExecutor(c, store.BackendMemory)
	b := newExecutor(c, store.BackendMemory)

	mustExec(c, a, "STORE k v")
	_, err := b.Execute("GET k")
	c.Assert(err, qt.ErrorIs, executor.ErrKeyNotFound)
}

func TestExecute_ConcurrentStoresAreSerialised(t *testing.T) {
	c := qt.New(t)
	ex := newExecutor(c, store.BackendMemory)

	const n = 50
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = ex.Execute("STORE k 1")
		}()
	}
	wg.Wait()

	got := mustExec(c, ex, "GET k")
	c.Assert(got.Value.Len(), qt.Equals, n)
}

func TestKindOf_NonCommandError(t *testing.T) {
	c := qt.New(t)

	c.Assert(executor.KindOf(errors.New("boom")), qt.Equals, executor.ErrorKind(0))
	c.Assert(executor.KindOf(nil), qt.Equals, executor.ErrorKind(0))
}

func TestErrorKind_String(t *testing.T) {
	c := qt.New(t)

	c.Assert(executor.UnknownCommand.String(), qt.Equals, "unknown_command")
	c.Assert(executor.ArgumentCount.String(), qt.Equals, "argument_count")
	c.Assert(executor.KeyNotFound.String(), qt.Equals, "key_not_found")
	c.Assert(executor.ErrorKind(9).String(), qt.Equals, "ErrorKind(9)")
}
