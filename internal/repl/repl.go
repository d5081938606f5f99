// Package repl implements the interactive MiniDB session.
package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/go-ports/minidb/internal/executor"
	"github.com/go-ports/minidb/internal/render"
)

// Session meta-commands. They are matched exactly, outside the command grammar.
const (
	cmdExit = "exit"
	cmdShow = "show"
)

const maxLineBytes = 1 << 20

// Options configures a REPL.
type Options struct {
	Prompt     string
	Banner     bool
	ShowFormat string // render.FormatJSON or render.FormatYAML
}

// REPL reads command lines from an input stream and runs them through an
// Executor until `exit` or end of input.
type REPL struct {
	ex        *executor.Executor
	input     *bufio.Scanner
	output    io.Writer
	errOutput io.Writer
	opts      Options

	// pending delivers the result of a read that is still in flight.
	pending chan readResult
}

type readResult struct {
	line string
	ok   bool
	err  error
}

// New returns a REPL over ex. Results go to output; errors go to errOutput.
func New(ex *executor.Executor, input io.Reader, output, errOutput io.Writer, opts Options) *REPL {
	sc := bufio.NewScanner(input)
	sc.Buffer(make([]byte, 0, 4096), maxLineBytes)
	if opts.ShowFormat == "" {
		opts.ShowFormat = render.FormatJSON
	}
	return &REPL{
		ex:        ex,
		input:     sc,
		output:    output,
		errOutput: errOutput,
		opts:      opts,
	}
}

// Run starts the loop. It returns nil on `exit`, on end of input, and when
// ctx is cancelled, including while waiting for input; a line that arrives
// after cancellation is discarded. It returns an error only if reading the
// input fails.
func (r *REPL) Run(ctx context.Context) error {
	if r.opts.Banner {
		r.printBanner()
	}
	slog.Debug("repl: session started", "show_format", r.opts.ShowFormat)
	defer func() {
		n, _ := r.ex.Len()
		slog.Debug("repl: session ended", "keys", n)
	}()

	for {
		if ctx.Err() != nil {
			return nil
		}

		fmt.Fprint(r.output, r.opts.Prompt)
		res, err := r.readLine(ctx)
		if err != nil {
			fmt.Fprintln(r.output)
			return nil
		}
		if !res.ok {
			if res.err != nil {
				return fmt.Errorf("repl: read input: %w", res.err)
			}
			fmt.Fprintln(r.output)
			return nil
		}
		if ctx.Err() != nil {
			fmt.Fprintln(r.output)
			return nil
		}

		line := strings.TrimSpace(res.line)
		switch line {
		case "":
			continue
		case cmdExit:
			fmt.Fprintln(r.output, "Goodbye!")
			return nil
		case cmdShow:
			r.show()
			continue
		}

		r.ExecuteLine(line)
	}
}

// readLine waits for the next input line or for ctx to be done. A read left
// in flight by cancellation is picked up by the next call.
func (r *REPL) readLine(ctx context.Context) (readResult, error) {
	if r.pending == nil {
		ch := make(chan readResult, 1)
		go func() {
			ok := r.input.Scan()
			ch <- readResult{line: r.input.Text(), ok: ok, err: r.input.Err()}
		}()
		r.pending = ch
	}

	select {
	case <-ctx.Done():
		return readResult{}, ctx.Err()
	case res := <-r.pending:
		r.pending = nil
		return res, nil
	}
}

// ExecuteLine runs one command line and prints its result or error.
// It reports whether the command succeeded.
func (r *REPL) ExecuteLine(line string) bool {
	res, err := r.ex.Execute(line)
	if err != nil {
		r.printError(err)
		return false
	}
	if !res.Empty() {
		fmt.Fprintln(r.output, res.Message())
	}
	return true
}

func (r *REPL) show() {
	entries, err := r.ex.Entries()
	if err != nil {
		r.printError(err)
		return
	}
	text, err := render.Entries(entries, r.opts.ShowFormat)
	if err != nil {
		r.printError(err)
		return
	}
	if strings.Contains(text, "\n") {
		fmt.Fprintf(r.output, "Database contents:\n%s\n", text)
		return
	}
	fmt.Fprintf(r.output, "Database contents: %s\n", text)
}

func (r *REPL) printBanner() {
	fmt.Fprintln(r.output, "MiniDB Interactive Mode")
	fmt.Fprintln(r.output, "Commands: STORE [key] [value], GET [key]")
	fmt.Fprintln(r.output, `Type "exit" to quit, "show" to display all data`)
	fmt.Fprintln(r.output)
}

func (r *REPL) printError(err error) {
	if kind := executor.KindOf(err); kind == 0 {
		slog.Warn("repl: command failed", "err", err)
	}
	fmt.Fprintln(r.errOutput, "Error:", err)
}
