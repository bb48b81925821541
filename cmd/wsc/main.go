package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/peterh/liner"

	"github.com/jeroldhaas/websharper/core"
	"github.com/jeroldhaas/websharper/js"
)

const (
	appName     = "wsc"
	historyFile = ".wsc_history"
	promptMain  = "==> "
	promptCont  = "... "
)

var banner = fmt.Sprintf("wsc %s REPL\nCtrl+C cancels input, Ctrl+D exits. Type :quit to exit.", core.Version)

func red(s string) string   { return "\x1b[31m" + s + "\x1b[0m" }
func green(s string) string { return "\x1b[32m" + s + "\x1b[0m" }
func blue(s string) string  { return "\x1b[94m" + s + "\x1b[0m" }

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cmd := os.Args[1]
	switch cmd {
	case "compile":
		os.Exit(cmdCompile(os.Args[2:]))
	case "repl":
		os.Exit(cmdRepl(os.Args[2:]))
	case "version":
		fmt.Println(core.Version)
	case "-h", "--help", "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "%s: unknown command %q\n", appName, cmd)
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Printf(`wsc %s (built %s)

Usage:
  %s compile [flags] <file>    Compile an expression file to JavaScript.
  %s repl [flags]              Start the REPL.
  %s version                   Print the compiled version.

Compile and REPL flags:
  -no-opt          Skip optimization.
  -compact         Use compact output names.
  -global <name>   Name of the global object (default "window").
  -runtime <name>  Name of the runtime support object (default "Runtime").
  -o <file>        Write output to file (compile only; default stdout).

`, core.Version, core.BuildDate, appName, appName, appName)
}

type pipeline struct {
	opts     core.Options
	optimize bool
}

func newFlags(name string) (*flag.FlagSet, *pipeline, *bool, *bool) {
	p := &pipeline{optimize: true}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	noOpt := fs.Bool("no-opt", false, "skip optimization")
	compact := fs.Bool("compact", false, "compact output names")
	fs.StringVar(&p.opts.Global, "global", "", "global object name")
	fs.StringVar(&p.opts.Runtime, "runtime", "", "runtime object name")
	fs.Usage = usage
	return fs, p, noOpt, compact
}

func (p *pipeline) run(e core.Expr) (string, error) {
	if p.optimize {
		e = core.Optimize(e)
	}
	prog, err := core.ToProgram(p.opts, e)
	if err != nil {
		return "", err
	}
	return js.WriteProgram(prog), nil
}

func cmdCompile(args []string) int {
	fs, p, noOpt, compact := newFlags("compile")
	out := fs.String("o", "", "output file")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	p.optimize = !*noOpt
	if *compact {
		p.opts.Naming = core.Compact
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s compile [flags] <file>\n", appName)
		return 2
	}

	src, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: cannot read %s: %v\n", appName, fs.Arg(0), err)
		return 1
	}

	e, err := readExpr(string(src))
	if err != nil {
		fmt.Fprintln(os.Stderr, red(err.Error()))
		return 1
	}

	code, err := p.run(e)
	if err != nil {
		fmt.Fprintln(os.Stderr, red(err.Error()))
		return 1
	}

	if *out == "" {
		fmt.Println(code)
		return 0
	}
	if err := os.WriteFile(*out, []byte(code+"\n"), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "%s: cannot write %s: %v\n", appName, *out, err)
		return 1
	}
	return 0
}

func cmdRepl(args []string) int {
	fs, p, noOpt, compact := newFlags("repl")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	p.optimize = !*noOpt
	if *compact {
		p.opts.Naming = core.Compact
	}

	fmt.Println(banner)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	showIR := false

	for {
		code, ok := readByParseProbe(ln, promptMain, promptCont)
		if !ok {
			fmt.Println()
			break
		}

		if strings.HasPrefix(strings.TrimSpace(code), ":") {
			switch strings.TrimSpace(strings.ToLower(code)) {
			case ":quit":
				return 0
			case ":opt":
				p.optimize = !p.optimize
				fmt.Printf("optimize: %v\n", p.optimize)
			case ":compact":
				if p.opts.Naming == core.Compact {
					p.opts.Naming = core.Readable
				} else {
					p.opts.Naming = core.Compact
				}
				fmt.Printf("compact names: %v\n", p.opts.Naming == core.Compact)
			case ":ir":
				showIR = !showIR
				fmt.Printf("show ir: %v\n", showIR)
			default:
				fmt.Printf("unknown command. Type :quit to exit.\n")
			}
			continue
		}

		if strings.TrimSpace(code) == "" {
			continue
		}

		e, err := readExpr(code)
		if err != nil {
			fmt.Fprintln(os.Stderr, red(err.Error()))
			continue
		}

		if showIR {
			shown := e
			if p.optimize {
				shown = core.Optimize(shown)
			}
			fmt.Println(green(core.Format(shown)))
		}

		out, err := p.run(e)
		if err != nil {
			fmt.Fprintln(os.Stderr, red(err.Error()))
			continue
		}
		fmt.Println(blue(out))
		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))
	}

	return 0
}

func readByParseProbe(ln *liner.State, prompt, cont string) (string, bool) {
	var b strings.Builder

	for {
		var line string
		var err error
		if b.Len() == 0 {
			line, err = ln.Prompt(prompt)
		} else {
			line, err = ln.Prompt(cont)
		}
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			return "", true
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if _, perr := readExpr(src); perr == nil {
			return src, true
		} else if isIncomplete(perr) {
			continue
		}
		return src, true
	}
}
