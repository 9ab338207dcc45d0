// Remix CLI - compiles and runs reversible programs
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/chazu/remix/cache"
	"github.com/chazu/remix/compiler"
	"github.com/chazu/remix/manifest"
	"github.com/chazu/remix/server"
	"github.com/chazu/remix/syntax"
	"github.com/chazu/remix/vm"
)

var log = commonlog.GetLogger("remix.cmd")

func main() {
	verbosity := flag.Int("v", -1, "Log verbosity (0 = errors only, 2 = info, 3 = debug)")
	logPath := flag.String("log", "", "Write logs to this file instead of stderr")
	interactive := flag.Bool("i", false, "Start interactive REPL")
	dump := flag.Bool("S", false, "Print disassembled bytecode before running")
	output := flag.String("o", "", "Write the compiled program image to this file")
	image := flag.String("image", "", "Run a compiled program image instead of source")
	noCache := flag.Bool("no-cache", false, "Bypass the build cache")
	noRun := flag.Bool("c", false, "Compile only, do not run")
	lspMode := flag.Bool("lsp", false, "Start language server on stdio")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: remix [options] [file]\n\n")
		fmt.Fprintf(os.Stderr, "Compiles and runs a program. Without a file, the entry named in remix.toml is used.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  remix prog.rx              # Compile and run prog.rx\n")
		fmt.Fprintf(os.Stderr, "  remix -S prog.rx           # Show bytecode, then run\n")
		fmt.Fprintf(os.Stderr, "  remix -c -o prog.rxi prog.rx  # Build an image without running\n")
		fmt.Fprintf(os.Stderr, "  remix -image prog.rxi      # Run a built image\n")
		fmt.Fprintf(os.Stderr, "  remix -i                   # Start REPL\n")
		fmt.Fprintf(os.Stderr, "  remix -lsp                 # Start language server\n")
	}
	flag.Parse()

	m, err := loadManifest()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	level := m.Run.Verbosity
	if *verbosity >= 0 {
		level = *verbosity
	}
	var path *string
	if *logPath != "" {
		path = logPath
	}
	commonlog.Configure(level, path)

	if *lspMode {
		if err := server.NewLSP().Run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if *interactive {
		runREPL()
		return
	}

	if *image != "" {
		if err := runImage(*image, *dump || m.Run.Dump); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	source := m.EntryPath()
	if flag.NArg() > 0 {
		source = flag.Arg(0)
	}
	if source == "" {
		flag.Usage()
		os.Exit(2)
	}

	out := *output
	if out == "" {
		out = m.ImagePath()
	}
	opts := buildOptions{
		cachePath: m.CachePath(),
		noCache:   *noCache,
		dump:      *dump || m.Run.Dump,
		output:    out,
		run:       !*noRun,
	}
	if err := build(source, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadManifest finds remix.toml in the working directory or a parent, and
// falls back to defaults.
func loadManifest() (*manifest.Manifest, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	m, err := manifest.FindAndLoad(wd)
	if err != nil {
		return nil, err
	}
	if m == nil {
		m = manifest.Default(wd)
	}
	return m, nil
}

type buildOptions struct {
	cachePath string
	noCache   bool
	dump      bool
	output    string
	run       bool
}

func build(path string, opts buildOptions) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	unit, err := compileSource(string(data), opts)
	if err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}

	if opts.dump {
		fmt.Print(dumpProgram(unit.Program))
	}

	if opts.output != "" {
		img, err := vm.MarshalProgram(unit.Program)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(opts.output), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(opts.output, img, 0o644); err != nil {
			return err
		}
		log.Infof("wrote image %s (%d bytes)", opts.output, len(img))
	}

	if !opts.run {
		return nil
	}
	res, err := vm.NewInterpreter().RunProgram(unit.Program)
	printResult(unit.Syntax, res)
	return err
}

func compileSource(source string, opts buildOptions) (*compiler.Unit, error) {
	if opts.noCache || opts.cachePath == "" {
		return compiler.Compile(source)
	}
	c, err := cache.Open(opts.cachePath)
	if err != nil {
		log.Warningf("build cache unavailable: %s", err.Error())
		return compiler.Compile(source)
	}
	defer c.Close()
	unit, _, err := c.Compile(source)
	return unit, err
}

func runImage(path string, dump bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	p, err := vm.UnmarshalProgram(data)
	if err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	if dump {
		fmt.Print(dumpProgram(p))
	}
	res, err := vm.NewInterpreter().RunProgram(p)
	printResult(nil, res)
	return err
}

func dumpProgram(p *vm.Program) string {
	var sb strings.Builder
	if p.Global != nil {
		sb.WriteString(vm.DisassembleFunction(p.Global))
	}
	for _, fn := range p.Functions {
		sb.WriteString(vm.DisassembleFunction(fn))
	}
	return sb.String()
}

// printResult prints the final state of the global and entry-point frames.
// Without a lowered module the registers have no names.
func printResult(mod *syntax.Module, res *vm.Result) {
	if res == nil {
		return
	}
	var global, entry *syntax.Function
	if mod != nil {
		global, entry = mod.Global, mod.Main()
	}
	if len(res.Globals) > 0 {
		for _, line := range formatFrame(global, res.Globals) {
			fmt.Println(line)
		}
	}
	if res.Main != nil {
		name := "main"
		if entry != nil {
			name = entry.Name
		}
		fmt.Printf("%s:\n", name)
		for _, line := range formatFrame(entry, res.Main) {
			fmt.Printf("  %s\n", line)
		}
	}
}

// formatFrame renders the named bindings of fn, sorted by name, or every
// register when fn is nil.
func formatFrame(fn *syntax.Function, locals []vm.Value) []string {
	if fn == nil {
		out := make([]string, len(locals))
		for i, v := range locals {
			out[i] = fmt.Sprintf("r%d = %s", i, v)
		}
		return out
	}
	names := make([]string, 0, len(fn.Bindings))
	for name := range fn.Bindings {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]string, 0, len(names))
	for _, name := range names {
		r := fn.Bindings[name]
		if r < 0 || r >= len(locals) {
			continue
		}
		out = append(out, fmt.Sprintf("%s = %s", name, locals[r]))
	}
	return out
}
