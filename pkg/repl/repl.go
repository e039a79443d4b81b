// Package repl is an interactive prompt for directive expressions. Each
// line runs as one directive against the current note, through the same
// engine pipeline notes use, so cache hits, staleness, and mutations
// behave exactly as they do inside a document.
package repl

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/peterh/liner"

	"github.com/thymelang/thyme/pkg/engine"
	terrors "github.com/thymelang/thyme/pkg/errors"
	"github.com/thymelang/thyme/pkg/note"
	"github.com/thymelang/thyme/pkg/object"
)

const PROMPT = ">> "
const CONTINUATION_PROMPT = ".. "

const LOGO = `
▀█▀ █░█ █▄█ █▀▄▀█ █▀▀
░█░ █▀█ ░█░ █░▀░█ ██▄ `

// Start runs the prompt until EOF or an exit command. The store is the
// collection directives see; a scratch in-memory store works fine.
func Start(eng *engine.Engine, store note.Store, out io.Writer, version string) {
	line := liner.NewLiner()
	defer line.Close()

	// Ctrl+C aborts the current line, not the process.
	line.SetCtrlCAborts(true)

	completions := completionWords(eng)
	line.SetCompleter(func(input string) []string {
		return filterCompletions(input, completions)
	})

	historyFile := filepath.Join(os.TempDir(), ".thyme_history")
	if f, err := os.Open(historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(historyFile); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	fmt.Fprintf(out, "%s", LOGO)
	fmt.Fprintln(out, "v", version)
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Each line runs as one directive. Type 'exit' or Ctrl+D to quit.")
	fmt.Fprintln(out, "Use Tab for completion, ↑↓ for history, ':help' for commands.")
	fmt.Fprintln(out, "")

	ctx := context.Background()
	var current *note.Note
	var lastInput string
	var inputBuffer strings.Builder

	for {
		prompt := PROMPT
		if inputBuffer.Len() > 0 {
			prompt = CONTINUATION_PROMPT
		}
		input, err := line.Prompt(prompt)
		if err != nil {
			if err == liner.ErrPromptAborted {
				if inputBuffer.Len() > 0 {
					fmt.Fprintln(out, "^C (cleared)")
				} else {
					fmt.Fprintln(out, "^C")
				}
				inputBuffer.Reset()
				continue
			}
			if err == io.EOF {
				fmt.Fprintln(out, "\nGoodbye!")
				return
			}
			fmt.Fprintf(out, "Error reading input: %v\n", err)
			continue
		}

		trimmed := strings.TrimSpace(input)
		if inputBuffer.Len() == 0 && (trimmed == "exit" || trimmed == "quit") {
			fmt.Fprintln(out, "Goodbye!")
			return
		}

		if inputBuffer.Len() == 0 && strings.HasPrefix(trimmed, ":") {
			current, lastInput = handleCommand(ctx, trimmed, eng, store, current, lastInput, out)
			continue
		}

		if inputBuffer.Len() == 0 && trimmed == "" {
			continue
		}

		if inputBuffer.Len() > 0 {
			inputBuffer.WriteString("\n")
		}
		inputBuffer.WriteString(input)

		full := inputBuffer.String()
		if needsMoreInput(full) {
			continue
		}

		line.AppendHistory(full)
		lastInput = full
		runDirective(ctx, eng, current, full, out)
		inputBuffer.Reset()
	}
}

func runDirective(ctx context.Context, eng *engine.Engine, current *note.Note, source string, out io.Writer) {
	res := eng.Execute(ctx, current, source, 0)
	printResult(res.Value, res.Err, out)
}

func printResult(val object.Object, err *terrors.Error, out io.Writer) {
	if err != nil {
		fmt.Fprintln(out, err.PrettyString())
		return
	}
	if val == nil || val == object.UNDEFINED {
		fmt.Fprintln(out, "OK")
		return
	}
	fmt.Fprintln(out, val.Inspect())
}

// handleCommand handles meta-commands that start with ':'. It returns
// the possibly updated current note and last input.
func handleCommand(ctx context.Context, cmd string, eng *engine.Engine, store note.Store, current *note.Note, lastInput string, out io.Writer) (*note.Note, string) {
	name, arg, _ := strings.Cut(cmd, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case ":help", ":h", ":?":
		fmt.Fprintln(out, "Commands:")
		fmt.Fprintln(out, "  :help, :h, :?     Show this help")
		fmt.Fprintln(out, "  :note <path>      Run the following lines inside the note at <path>")
		fmt.Fprintln(out, "  :note             Detach from the current note")
		fmt.Fprintln(out, "  :notes            List the notes in the collection")
		fmt.Fprintln(out, "  :retry            Re-run the last directive, ignoring its cached outcome")
		fmt.Fprintln(out, "  exit, quit        Exit")

	case ":note":
		if arg == "" {
			if current != nil {
				fmt.Fprintf(out, "Detached from %s\n", current.Path)
			}
			return nil, lastInput
		}
		n, ok := store.ByPath(note.NormalizePath(arg))
		if !ok {
			fmt.Fprintf(out, "No note at %q\n", arg)
			return current, lastInput
		}
		fmt.Fprintf(out, "Now inside %s\n", n.Path)
		return n, lastInput

	case ":notes":
		all := store.All()
		paths := make([]string, 0, len(all))
		for _, n := range all {
			paths = append(paths, n.Path)
		}
		sort.Strings(paths)
		for _, p := range paths {
			fmt.Fprintln(out, " ", p)
		}
		if len(paths) == 0 {
			fmt.Fprintln(out, "  (empty collection)")
		}

	case ":retry":
		if lastInput == "" {
			fmt.Fprintln(out, "Nothing to retry")
			return current, lastInput
		}
		res := eng.Retry(ctx, current, lastInput, 0)
		printResult(res.Value, res.Err, out)

	default:
		fmt.Fprintf(out, "Unknown command: %s (type :help for commands)\n", name)
	}
	return current, lastInput
}

// completionWords collects builtin names plus the literal keywords.
func completionWords(eng *engine.Engine) []string {
	words := append([]string{}, eng.Builtins()...)
	words = append(words, "true", "false", "and", "or", "not")
	sort.Strings(words)
	return words
}

func filterCompletions(input string, words []string) []string {
	// Complete the trailing identifier, keeping the prefix intact.
	start := len(input)
	for start > 0 {
		ch := input[start-1]
		if ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || ch >= '0' && ch <= '9' || ch == '_' {
			start--
			continue
		}
		break
	}
	partial := input[start:]
	if partial == "" {
		return nil
	}
	prefix := input[:start]
	var out []string
	for _, w := range words {
		if strings.HasPrefix(w, partial) {
			out = append(out, prefix+w)
		}
	}
	return out
}

// needsMoreInput reports whether the buffered input has unclosed
// brackets or an unterminated string, meaning the next line continues
// it.
func needsMoreInput(input string) bool {
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(input); i++ {
		ch := input[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		}
	}
	return depth > 0 || inString
}
