package machine_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/ember-lang/ember/lang/compiler"
	"github.com/ember-lang/ember/lang/machine"
)

func mustCompile(t *testing.T, vm *machine.VM, src string) *machine.ObjFunction {
	t.Helper()
	fn, err := compiler.Compile(vm, src)
	if err != nil {
		t.Fatalf("compile %q: %v", src, err)
	}
	return fn
}

func runSource(t *testing.T, vm *machine.VM, src string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	vm.Stdout = &out
	vm.Stderr = &errOut
	fn := mustCompile(t, vm, src)
	err = vm.Run(context.Background(), fn)
	return out.String(), errOut.String(), err
}

func TestDispatchDeterminism(t *testing.T) {
	const src = `
fun fib(n) {
  if (n < 2) return n;
  return fib(n - 1) + fib(n - 2);
}
print fib(10);
`
	vm1 := machine.New()
	out1, _, err := runSource(t, vm1, src)
	if err != nil {
		t.Fatalf("run 1: %v", err)
	}
	vm2 := machine.New()
	out2, _, err := runSource(t, vm2, src)
	if err != nil {
		t.Fatalf("run 2: %v", err)
	}
	if out1 != out2 {
		t.Fatalf("nondeterministic output: %q vs %q", out1, out2)
	}
	if out1 != "55\n" {
		t.Fatalf("fib(10) = %q, want 55", out1)
	}
}

func TestUpvalueSharingAcrossSiblingClosures(t *testing.T) {
	const src = `
fun mk() {
  var i = 0;
  fun get() { return i; }
  fun inc() { i = i + 1; }
  inc();
  inc();
  print get();
}
mk();
`
	vm := machine.New()
	out, stderr, err := runSource(t, vm, src)
	if err != nil {
		t.Fatalf("run: %v, stderr: %s", err, stderr)
	}
	if out != "2\n" {
		t.Fatalf("shared upvalue result = %q, want %q", out, "2\n")
	}
}

func TestUpvalueSharingSurvivesClosing(t *testing.T) {
	// get/inc escape mk through bump, a closure capturing both that is stored
	// in the global pair, so the stack frame that declared i is long gone by
	// the time they are called:
	// this exercises closeUpvalues, not just the open-upvalue path above.
	const src = `
var pair;
fun mk() {
  var i = 0;
  fun get() { return i; }
  fun inc() { i = i + 1; }
  fun bump() { inc(); return get(); }
  pair = bump;
}
mk();
print pair();
print pair();
print pair();
`
	vm := machine.New()
	out, stderr, err := runSource(t, vm, src)
	if err != nil {
		t.Fatalf("run: %v, stderr: %s", err, stderr)
	}
	if out != "1\n2\n3\n" {
		t.Fatalf("closed upvalue sequence = %q, want %q", out, "1\n2\n3\n")
	}
}

func TestGCSoundnessUnderStress(t *testing.T) {
	const src = `
var keep = "kept-alive";
fun churn() {
  var i = 0;
  while (i < 500) {
    var garbage = "throwaway-" + i;
    i = i + 1;
  }
}
churn();
print keep;
`
	vm := machine.New()
	machine.SetStressGC(vm, true)
	out, stderr, err := runSource(t, vm, src)
	if err != nil {
		t.Fatalf("run: %v, stderr: %s", err, stderr)
	}
	if out != "kept-alive\n" {
		t.Fatalf("reachable string not intact after GC churn: %q", out)
	}
	if machine.BytesAllocated(vm) <= 0 {
		t.Fatalf("bytesAllocated should still account for the surviving string, got %d", machine.BytesAllocated(vm))
	}
}

func TestRuntimeErrorTraceFormat(t *testing.T) {
	const src = `
fun a() { b(); }
fun b() { undefined; }
a();
`
	vm := machine.New()
	_, stderr, err := runSource(t, vm, src)
	if err == nil {
		t.Fatalf("expected a runtime error")
	}
	rtErr, ok := err.(*machine.RuntimeError)
	if !ok {
		t.Fatalf("err = %T, want *RuntimeError", err)
	}
	wantTrace := []string{"[line 3] in b()", "[line 2] in a()", "[line 4] in script"}
	if len(rtErr.Trace) != len(wantTrace) {
		t.Fatalf("trace = %v, want %v", rtErr.Trace, wantTrace)
	}
	for i, line := range wantTrace {
		if rtErr.Trace[i] != line {
			t.Fatalf("trace[%d] = %q, want %q", i, rtErr.Trace[i], line)
		}
	}
	if stderr == "" {
		t.Fatalf("trace should also have been written to stderr")
	}
}
