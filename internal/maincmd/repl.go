package maincmd

import (
	"bufio"
	"context"
	"fmt"

	"github.com/mna/mainer"

	"github.com/ember-lang/ember/lang/machine"
)

// Repl reads source one line at a time from stdio.Stdin and interprets
// each against a single persistent VM, so variable and function
// declarations from earlier lines remain visible to later ones. A
// compile or runtime error on one line is reported and the session
// continues; only a failure reading stdin itself ends the session with
// an error.
func (c *Cmd) Repl(ctx context.Context, stdio mainer.Stdio, args []string) error {
	vm := machine.New()
	vm.Stdout = stdio.Stdout
	vm.Stderr = stdio.Stderr

	in := bufio.NewScanner(stdio.Stdin)
	fmt.Fprint(stdio.Stdout, "> ")
	for in.Scan() {
		_ = interpret(ctx, vm, stdio, in.Text())
		fmt.Fprint(stdio.Stdout, "> ")
	}
	if err := in.Err(); err != nil {
		wrapped := fmt.Errorf("%w: %s", errIO, err)
		fmt.Fprintln(stdio.Stderr, wrapped)
		return wrapped
	}
	return nil
}
