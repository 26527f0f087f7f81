// incr CLI - checks, inspects and runs class definitions
package main

import (
	"fmt"
	"os"

	"github.com/docopt/docopt-go"
	"github.com/tliron/commonlog"
)

const version = "0.1.0"

var log = commonlog.GetLogger("incr.cli")

const usage = `incr

Usage:
  incr check [options] DEFS...
  incr heritage [options] CLASS [DEFS...]
  incr vtable [options] CLASS [DEFS...]
  incr export [options] [--save] [DEFS...]
  incr shell [options] [DEFS...]
  incr -h | --help
  incr --version

Arguments:
  DEFS   YAML class definition files, applied after those named in incr.toml.
  CLASS  Class to inspect. Unknown classes are autoloaded from the store.

Options:
  -C, --config=DIR  Directory to start the incr.toml search from [default: .].
  --no-store        Do not open the class store.
  --no-color        Disable styled output.
  -v, --verbose     Log debug messages.
  --save            Write the exported classes to the class store.
  -h, --help        Display this help.
  --version         Print the incr version.
`

type cliOptions struct {
	configDir string
	defs      []string
	class     string
	noStore   bool
	noColor   bool
	verbose   bool
	save      bool
}

func parseOptions(argv []string) (string, *cliOptions, error) {
	opts, err := docopt.ParseArgs(usage, argv, version)
	if err != nil {
		return "", nil, err
	}
	o := &cliOptions{}
	o.configDir, _ = opts.String("--config")
	o.class, _ = opts.String("CLASS")
	o.defs, _ = opts["DEFS"].([]string)
	o.noStore, _ = opts.Bool("--no-store")
	o.noColor, _ = opts.Bool("--no-color")
	o.verbose, _ = opts.Bool("--verbose")
	o.save, _ = opts.Bool("--save")

	for _, cmd := range []string{"check", "heritage", "vtable", "export", "shell"} {
		if on, _ := opts.Bool(cmd); on {
			return cmd, o, nil
		}
	}
	return "", nil, fmt.Errorf("no command given")
}

func main() {
	cmd, opts, err := parseOptions(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	st := newStyles(opts.noColor || !stdoutIsTerminal())

	var run func(*env, *cliOptions, *styles) error
	switch cmd {
	case "check":
		run = runCheck
	case "heritage":
		run = runHeritage
	case "vtable":
		run = runVTable
	case "export":
		run = runExport
	case "shell":
		run = runShell
	}

	e, err := setup(opts, cmd == "shell" || opts.save)
	if err != nil {
		fmt.Fprintln(os.Stderr, st.error.Render("Error: "+err.Error()))
		os.Exit(1)
	}
	err = run(e, opts, st)
	e.close()
	if err != nil {
		fmt.Fprintln(os.Stderr, st.error.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}
