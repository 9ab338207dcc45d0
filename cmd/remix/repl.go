package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/chazu/remix/compiler"
	"github.com/chazu/remix/vm"
)

const (
	historyFile = ".remix_history"
	promptMain  = "==> "
	promptCont  = "... "
)

// session accumulates global statements. Every accepted line recompiles and
// reruns the whole session, so a line that fails leaves the state untouched.
type session struct {
	lines []string
	unit  *compiler.Unit
	res   *vm.Result
}

func (s *session) source(extra ...string) string {
	return strings.Join(append(append([]string(nil), s.lines...), extra...), "\n")
}

// eval adds input to the session and returns the resulting global bindings.
func (s *session) eval(input string) ([]string, error) {
	unit, err := compiler.Compile(s.source(input))
	if err != nil {
		return nil, err
	}
	res, err := vm.NewInterpreter().RunProgram(unit.Program)
	if err != nil {
		return nil, err
	}
	s.lines = append(s.lines, input)
	s.unit, s.res = unit, res
	return formatFrame(unit.Syntax.Global, res.Globals), nil
}

func (s *session) reset() {
	s.lines, s.unit, s.res = nil, nil, nil
}

func (s *session) dump() string {
	if s.unit == nil {
		return ""
	}
	return dumpProgram(s.unit.Program)
}

// incomplete reports whether input ends inside a func body, so the REPL
// keeps reading until the matching return.
func incomplete(input string) bool {
	depth := 0
	for _, tok := range compiler.NewLexer(input).Tokenize() {
		switch {
		case tok.Is("func"):
			depth++
		case tok.Is("return"):
			depth--
		}
	}
	return depth > 0
}

func runREPL() {
	fmt.Println("Remix REPL (:help for commands, Ctrl-D to quit)")

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	s := &session{}
	for {
		input, ok := readInput(ln)
		if !ok {
			fmt.Println()
			return
		}
		trimmed := strings.TrimSpace(input)
		if trimmed == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(input, "\n", " "))

		if strings.HasPrefix(trimmed, ":") {
			if handleREPLCommand(s, trimmed) {
				return
			}
			continue
		}

		lines, err := s.eval(input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}
		for _, line := range lines {
			fmt.Println(line)
		}
	}
}

func readInput(ln *liner.State) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			// Ctrl-C drops the pending input.
			return "", true
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
		if !incomplete(b.String()) {
			return b.String(), true
		}
	}
}

// handleREPLCommand runs a colon command and reports whether to quit.
func handleREPLCommand(s *session, cmd string) bool {
	switch cmd {
	case ":help", ":h", ":?":
		fmt.Println("REPL Commands:")
		fmt.Println("  :help, :h, :?     Show this help")
		fmt.Println("  :dump             Disassemble the session program")
		fmt.Println("  :source           Show the session source")
		fmt.Println("  :reset            Discard every binding")
		fmt.Println("  :quit, :q         Exit REPL")
	case ":dump":
		fmt.Print(s.dump())
	case ":source":
		if src := s.source(); src != "" {
			fmt.Println(src)
		}
	case ":reset":
		s.reset()
	case ":quit", ":q":
		return true
	default:
		fmt.Printf("Unknown command: %s (type :help for commands)\n", cmd)
	}
	return false
}
