package maincmd_test

import (
	"bytes"
	"context"
	"flag"
	"path/filepath"
	"testing"

	"github.com/mna/mainer"

	"github.com/ember-lang/ember/internal/filetest"
	"github.com/ember-lang/ember/internal/maincmd"
)

var testUpdateRunTests = flag.Bool("test.update-run-tests", false, "If set, replace expected run test results with actual results.")

// TestRun drives every source file in testdata/in through Cmd.Run and
// diffs its stdout and stderr against the golden files in testdata/out,
// covering the end-to-end scenarios: arithmetic precedence, string
// interning equality, shared-upvalue closures, for-loop accumulation,
// ADD's string coercion, and a runtime error's unwound stack trace.
func TestRun(t *testing.T) {
	ctx := context.Background()
	srcDir, resultDir := filepath.Join("testdata", "in"), filepath.Join("testdata", "out")

	for _, fi := range filetest.SourceFiles(t, srcDir, ".ember") {
		fi := fi
		t.Run(fi.Name(), func(t *testing.T) {
			var buf, ebuf bytes.Buffer
			stdio := mainer.Stdio{Stdout: &buf, Stderr: &ebuf}

			c := &maincmd.Cmd{}
			// error is ignored, we just want it (and its message) reflected in ebuf
			_ = c.Run(ctx, stdio, []string{filepath.Join(srcDir, fi.Name())})

			filetest.DiffOutput(t, fi, buf.String(), resultDir, testUpdateRunTests)
			filetest.DiffErrors(t, fi, ebuf.String(), resultDir, testUpdateRunTests)
		})
	}
}
