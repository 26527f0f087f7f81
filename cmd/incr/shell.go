package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/peterh/liner"
)

var (
	colorBlue  = lipgloss.Color("#3B82F6")
	colorGreen = lipgloss.Color("#10B981")
	colorRed   = lipgloss.Color("#EF4444")
	colorGray  = lipgloss.Color("#6B7280")
)

type styles struct {
	plain  bool
	prompt lipgloss.Style
	result lipgloss.Style
	error  lipgloss.Style
	muted  lipgloss.Style
	header lipgloss.Style
	ok     lipgloss.Style
}

func newStyles(plain bool) *styles {
	if plain {
		s := lipgloss.NewStyle()
		return &styles{plain: true, prompt: s, result: s, error: s, muted: s, header: s, ok: s}
	}
	return &styles{
		prompt: lipgloss.NewStyle().Foreground(colorBlue).Bold(true),
		result: lipgloss.NewStyle().Foreground(colorGreen),
		error:  lipgloss.NewStyle().Foreground(colorRed).Bold(true),
		muted:  lipgloss.NewStyle().Foreground(colorGray),
		header: lipgloss.NewStyle().Foreground(colorBlue).Bold(true),
		ok:     lipgloss.NewStyle().Foreground(colorGreen).Bold(true),
	}
}

func stdoutIsTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

const shellHelp = `Type scripts to evaluate them. Shell commands:
  :classes        list classes
  :objects        list objects and their classes
  :heritage CLASS show the heritage of a class
  :vtable CLASS   show the resolution tables of a class
  :load FILE      apply a definitions file
  :help           show this help
  :quit           leave the shell`

// lineReader yields input lines with a prompt; io.EOF ends the session.
type lineReader interface {
	ReadLine(prompt string) (string, error)
	Close() error
}

type linerReader struct {
	state   *liner.State
	history string
}

func newLinerReader() *linerReader {
	st := liner.NewLiner()
	st.SetCtrlCAborts(true)
	r := &linerReader{state: st}
	if home, err := os.UserHomeDir(); err == nil {
		r.history = filepath.Join(home, ".incr_history")
		if f, err := os.Open(r.history); err == nil {
			_, _ = st.ReadHistory(f)
			f.Close()
		}
	}
	return r
}

func (r *linerReader) ReadLine(prompt string) (string, error) {
	line, err := r.state.Prompt(prompt)
	if errors.Is(err, liner.ErrPromptAborted) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(line) != "" {
		r.state.AppendHistory(line)
	}
	return line, nil
}

func (r *linerReader) Close() error {
	if r.history != "" {
		if f, err := os.Create(r.history); err == nil {
			_, _ = r.state.WriteHistory(f)
			f.Close()
		}
	}
	return r.state.Close()
}

type plainReader struct {
	scanner *bufio.Scanner
}

func (r *plainReader) ReadLine(string) (string, error) {
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return r.scanner.Text(), nil
}

func (r *plainReader) Close() error { return nil }

func runShell(e *env, _ *cliOptions, st *styles) error {
	var in lineReader
	interactive := isatty.IsTerminal(os.Stdin.Fd())
	if interactive {
		in = newLinerReader()
		fmt.Fprintln(stdout, st.header.Render("incr "+version)+" "+st.muted.Render("(:help for commands)"))
	} else {
		in = &plainReader{scanner: bufio.NewScanner(os.Stdin)}
	}
	defer in.Close()

	sh := &shell{env: e, styles: st, out: stdout}
	if !interactive {
		sh.prompt, sh.cont = "", ""
	} else {
		sh.prompt, sh.cont = "% ", "> "
	}
	return sh.run(in)
}

// shell evaluates scripts and shell commands read line by line.
type shell struct {
	env    *env
	styles *styles
	out    io.Writer
	prompt string
	cont   string
}

func (sh *shell) run(in lineReader) error {
	var buf strings.Builder
	for {
		prompt := sh.prompt
		if buf.Len() > 0 {
			prompt = sh.cont
		}
		if prompt != "" {
			prompt = sh.styles.prompt.Render(prompt)
		}
		line, err := in.ReadLine(prompt)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if buf.Len() == 0 && strings.HasPrefix(strings.TrimSpace(line), ":") {
			if quit := sh.command(strings.TrimSpace(line)); quit {
				return nil
			}
			continue
		}
		buf.WriteString(line)
		buf.WriteByte('\n')
		script := buf.String()
		if !complete(script) {
			continue
		}
		buf.Reset()
		if strings.TrimSpace(script) == "" {
			continue
		}
		sh.eval(script)
	}
}

func (sh *shell) eval(script string) {
	res, err := sh.env.in.Eval(script)
	if err != nil {
		log.Debugf("eval failed: %s", err)
		fmt.Fprintln(sh.out, sh.styles.error.Render("error: ")+err.Error())
		return
	}
	if res != "" {
		fmt.Fprintln(sh.out, sh.styles.result.Render(res))
	}
}

// command runs a ":" shell command and reports whether to quit.
func (sh *shell) command(line string) bool {
	fields := strings.Fields(line)
	arg := ""
	if len(fields) > 1 {
		arg = fields[1]
	}
	needArg := func() bool {
		if arg == "" {
			fmt.Fprintf(sh.out, "usage: %s NAME\n", fields[0])
			return false
		}
		return true
	}
	rt := sh.env.rt
	switch fields[0] {
	case ":quit", ":q", ":exit":
		return true
	case ":help":
		fmt.Fprintln(sh.out, shellHelp)
	case ":classes":
		if s := classList(rt); s != "" {
			fmt.Fprintln(sh.out, s)
		}
	case ":objects":
		if s := objectList(rt); s != "" {
			fmt.Fprintln(sh.out, s)
		}
	case ":heritage", ":vtable":
		if !needArg() {
			return false
		}
		c, err := rt.FindClass(arg, true)
		if err != nil {
			fmt.Fprintln(sh.out, sh.styles.error.Render("error: ")+err.Error())
			return false
		}
		if fields[0] == ":heritage" {
			printHeritage(sh.out, c, sh.styles)
		} else {
			fmt.Fprintln(sh.out, vtableView(c, sh.styles))
		}
	case ":load":
		if !needArg() {
			return false
		}
		n, err := sh.env.load(arg)
		if err != nil {
			fmt.Fprintln(sh.out, sh.styles.error.Render("error: ")+err.Error())
			return false
		}
		fmt.Fprintln(sh.out, sh.styles.muted.Render(fmt.Sprintf("%d classes applied", n)))
	default:
		fmt.Fprintf(sh.out, "unknown shell command %q, try :help\n", fields[0])
	}
	return false
}

// complete reports whether braces and brackets in script are balanced,
// ignoring backslash-escaped characters.
func complete(script string) bool {
	depth := 0
	for i := 0; i < len(script); i++ {
		switch script[i] {
		case '\\':
			i++
		case '{', '[':
			depth++
		case '}', ']':
			depth--
		}
	}
	return depth <= 0
}
