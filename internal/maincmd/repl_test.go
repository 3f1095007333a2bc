package maincmd_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/mna/mainer"
	"github.com/stretchr/testify/assert"

	"github.com/ember-lang/ember/internal/maincmd"
)

// TestReplPersistsState checks that a var declared on one line of a REPL
// session remains visible to later lines, and that a compile error on one
// line does not end the session.
func TestReplPersistsState(t *testing.T) {
	in := strings.NewReader("var x = 1;\nprint x + 1;\n)));\nprint x;\n")
	var out, errOut bytes.Buffer
	stdio := mainer.Stdio{Stdin: in, Stdout: &out, Stderr: &errOut}

	c := &maincmd.Cmd{}
	err := c.Repl(context.Background(), stdio, nil)
	assert.NoError(t, err)
	assert.Contains(t, out.String(), "2\n")
	assert.Contains(t, out.String(), "1\n")
	assert.NotEmpty(t, errOut.String())
}
