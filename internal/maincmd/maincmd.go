// Package maincmd wires the command line to the compiler and machine
// packages: Run interprets a single source file, Repl interprets stdin one
// line at a time against a persistent VM. Flag parsing and exit-code
// plumbing follow the mainer.Parser / mainer.Stdio / mainer.ExitCode
// convention used throughout this codebase's driver layer.
package maincmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/mna/mainer"

	"github.com/ember-lang/ember/lang/compiler"
	"github.com/ember-lang/ember/lang/machine"
)

const binName = "ember"

var (
	shortUsage = fmt.Sprintf(`
usage: %s [<option>...] <command> [<path>]
Run '%[1]s --help' for details.
`, binName)

	longUsage = fmt.Sprintf(`usage: %s [<option>...] <command> [<path>]
       %[1]s -h|--help
       %[1]s -v|--version

Compiler and virtual machine for the Ember scripting language.

The <command> can be one of:
       run <path>                 Compile and run the script at <path>.
       repl                       Read and interpret source one line at a
                                  time from standard input.

Valid flag options are:
       -h --help                  Show this help and exit.
       -v --version               Print version and exit.

Exit codes: 0 ok, 64 usage error, 65 compile error, 70 runtime error,
74 i/o error.
`, binName)

	// errUsage and errIO are sentinels Run/Repl wrap their errors around so
	// Main can recover the exit code the failure maps to without duplicating
	// exit-code knowledge in every command function.
	errUsage = errors.New("usage error")
	errIO    = errors.New("i/o error")
)

// Cmd is the flag-decorated command the mainer.Parser populates from argv.
type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help    bool `flag:"h,help"`
	Version bool `flag:"v,version"`

	args  []string
	flags map[string]bool
	cmdFn func(context.Context, mainer.Stdio, []string) error
}

func (c *Cmd) SetArgs(args []string) {
	c.args = args
}

func (c *Cmd) SetFlags(flags map[string]bool) {
	c.flags = flags
}

func (c *Cmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}

	if len(c.args) == 0 {
		return errors.New("no command specified")
	}

	cmdName := c.args[0]
	commands := buildCmds(c)
	c.cmdFn = commands[cmdName]
	if c.cmdFn == nil {
		return fmt.Errorf("unknown command: %s", cmdName)
	}

	switch cmdName {
	case "run":
		if len(c.args[1:]) != 1 {
			return fmt.Errorf("run: exactly one file path is required")
		}
	case "repl":
		if len(c.args[1:]) != 0 {
			return fmt.Errorf("repl: no arguments expected")
		}
	}
	return nil
}

// Main implements mainer's entry point contract: parse flags, dispatch to
// the requested command, and translate the result into the driver exit
// code convention (0 ok, 64 usage error, 65 compile error, 70 runtime
// error, 74 i/o error).
func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{
		EnvVars:   false,
		EnvPrefix: binName + "_",
	}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return mainer.ExitCode(64)
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return mainer.Success
	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return mainer.Success
	}

	ctx := mainer.CancelOnSignal(context.Background(), os.Interrupt)
	err := c.cmdFn(ctx, stdio, c.args[1:])
	return exitCodeFor(err)
}

func exitCodeFor(err error) mainer.ExitCode {
	var rtErr *machine.RuntimeError
	switch {
	case err == nil:
		return mainer.Success
	case errors.As(err, &rtErr):
		return mainer.ExitCode(70)
	case isCompileErrors(err):
		return mainer.ExitCode(65)
	case errors.Is(err, errUsage):
		return mainer.ExitCode(64)
	case errors.Is(err, errIO):
		return mainer.ExitCode(74)
	default:
		return mainer.Failure
	}
}

// isCompileErrors reports whether err is the multi-diagnostic value Compile
// returns.
func isCompileErrors(err error) bool {
	_, ok := compiler.Diagnostics(err)
	return ok
}

// valid commands are those that take a context.Context, a mainer.Stdio and
// a slice of strings as input, and return an error as output.
func buildCmds(v interface{}) map[string]func(context.Context, mainer.Stdio, []string) error {
	cmds := make(map[string]func(context.Context, mainer.Stdio, []string) error)

	vv := reflect.ValueOf(v)
	vt := vv.Type()
	for i := 0; i < vt.NumMethod(); i++ {
		m := vt.Method(i)
		mt := m.Type

		// must take 4 parameters (including receiver) and return 1
		if mt.NumIn() != 4 || mt.NumOut() != 1 {
			continue
		}
		if rt := mt.Out(0); rt.Kind() != reflect.Interface || rt.Name() != "error" {
			continue
		}
		if p0 := mt.In(0); p0.Kind() != reflect.Ptr || p0.Elem().Name() != "Cmd" {
			continue
		}
		if p1 := mt.In(1); p1.Kind() != reflect.Interface || p1.Name() != "Context" {
			continue
		}
		if p2 := mt.In(2); p2.Kind() != reflect.Struct || p2.Name() != "Stdio" {
			continue
		}
		if p3 := mt.In(3); p3.Kind() != reflect.Slice || p3.Elem().Name() != "string" {
			continue
		}
		cmds[strings.ToLower(m.Name)] = vv.Method(i).Interface().(func(context.Context, mainer.Stdio, []string) error)
	}
	return cmds
}
