package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/ember-lang/ember/lang/compiler"
	"github.com/ember-lang/ember/lang/machine"
)

// Run reads the single file named in args, compiles it, and runs it to
// completion on a fresh VM.
func (c *Cmd) Run(ctx context.Context, stdio mainer.Stdio, args []string) error {
	if len(args) != 1 {
		err := fmt.Errorf("%w: run requires exactly one file path", errUsage)
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}

	src, err := os.ReadFile(args[0])
	if err != nil {
		wrapped := fmt.Errorf("%w: %s", errIO, err)
		fmt.Fprintln(stdio.Stderr, wrapped)
		return wrapped
	}

	vm := machine.New()
	vm.Stdout = stdio.Stdout
	vm.Stderr = stdio.Stderr
	return interpret(ctx, vm, stdio, string(src))
}

// interpret compiles source against vm and, if compilation succeeds, runs
// the result. Compile errors are printed here, one diagnostic per line;
// runtime errors are printed by the VM itself as they unwind.
func interpret(ctx context.Context, vm *machine.VM, stdio mainer.Stdio, src string) error {
	fn, err := compiler.Compile(vm, src)
	if err != nil {
		printCompileErrors(stdio, err)
		return err
	}
	return vm.Run(ctx, fn)
}

func printCompileErrors(stdio mainer.Stdio, err error) {
	if diags, ok := compiler.Diagnostics(err); ok {
		for _, d := range diags {
			fmt.Fprintln(stdio.Stderr, d)
		}
		return
	}
	fmt.Fprintln(stdio.Stderr, err)
}
