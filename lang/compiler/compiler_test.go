package compiler

import (
	"strings"
	"testing"

	"github.com/ember-lang/ember/lang/bytecode"
	"github.com/ember-lang/ember/lang/machine"
)

func TestPrattPrecedenceEmitsMultiplyBeforeAdd(t *testing.T) {
	vm := machine.New()
	fn, err := Compile(vm, "1 + 2 * 3;")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	ops := opcodesOf(fn.Chunk)
	want := []bytecode.Opcode{
		bytecode.CONSTANT, bytecode.CONSTANT, bytecode.CONSTANT,
		bytecode.MULTIPLY, bytecode.ADD, bytecode.POP,
		bytecode.NIL, bytecode.RETURN,
	}
	assertOpcodes(t, ops, want)
}

func TestScopeCleanupEmitsOnePopPerLocal(t *testing.T) {
	vm := machine.New()
	fn, err := Compile(vm, "{ var a = 1; var b = 2; var c = 3; }")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	ops := opcodesOf(fn.Chunk)
	count := 0
	for _, op := range ops {
		if op == bytecode.POP {
			count++
		}
	}
	// one POP per local declared in the block, plus none for the implicit
	// return (which is a bare NIL/RETURN pair, no POP).
	if count != 3 {
		t.Fatalf("POP count = %d, want 3 (ops: %v)", count, ops)
	}
}

func TestScopeCleanupClosesCapturedLocals(t *testing.T) {
	vm := machine.New()
	fn, err := Compile(vm, "{ var a = 1; fun f() { return a; } }")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	ops := opcodesOf(fn.Chunk)
	found := false
	for _, op := range ops {
		if op == bytecode.CLOSE_UPVALUE {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected CLOSE_UPVALUE for a captured local, ops: %v", ops)
	}
}

func TestCompileErrorFormat(t *testing.T) {
	vm := machine.New()
	_, err := Compile(vm, "var ;")
	if err == nil {
		t.Fatalf("expected a compile error")
	}
	if !strings.Contains(err.Error(), "Expect variable name") {
		t.Fatalf("error = %q, want it to mention the missing variable name", err.Error())
	}
}

func TestCompileAccumulatesMultipleErrors(t *testing.T) {
	vm := machine.New()
	_, err := Compile(vm, "var ; var ;")
	diags, ok := Diagnostics(err)
	if !ok {
		t.Fatalf("Diagnostics did not recognize Compile's error: %T", err)
	}
	if got := len(diags); got < 2 {
		t.Fatalf("got %d accumulated errors, want at least 2", got)
	}
}

func TestJumpOffsetsStayWithinChunkAndBelow64K(t *testing.T) {
	vm := machine.New()
	fn, err := Compile(vm, `
var s = 0;
for (var i = 0; i < 100; i = i + 1) {
  if (i < 50) {
    s = s + i;
  } else {
    s = s - i;
  }
}
`)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	code := fn.Chunk.Code
	for ip := 0; ip < len(code); {
		op := bytecode.Opcode(code[ip])
		switch op {
		case bytecode.JUMP, bytecode.JUMP_IF_FALSE:
			off := int(code[ip+1])<<8 | int(code[ip+2])
			if off > 0xffff {
				t.Fatalf("jump offset %d exceeds 65535", off)
			}
			target := ip + 3 + off
			if target < 0 || target > len(code) {
				t.Fatalf("jump target %d out of chunk bounds [0,%d]", target, len(code))
			}
			ip += 3
		case bytecode.LOOP:
			off := int(code[ip+1])<<8 | int(code[ip+2])
			if off > 0xffff {
				t.Fatalf("loop offset %d exceeds 65535", off)
			}
			target := ip + 3 - off
			if target < 0 || target > len(code) {
				t.Fatalf("loop target %d out of chunk bounds [0,%d]", target, len(code))
			}
			ip += 3
		default:
			ip += operandWidth(op) + 1
		}
	}
}

// opcodesOf decodes a chunk's code into its opcode sequence, skipping over
// operand bytes (including CLOSURE's per-upvalue descriptor pairs, whose
// count comes from the captured function's own UpvalueCount), for tests
// that only care about instruction shape.
func opcodesOf(chunk *machine.Chunk) []bytecode.Opcode {
	code := chunk.Code
	var ops []bytecode.Opcode
	for ip := 0; ip < len(code); {
		op := bytecode.Opcode(code[ip])
		ops = append(ops, op)
		switch op {
		case bytecode.CLOSURE:
			fnIdx := code[ip+1]
			captured := chunk.Constants[fnIdx].AsObj().(*machine.ObjFunction)
			ip += 2 + 2*captured.UpvalueCount
		case bytecode.JUMP, bytecode.JUMP_IF_FALSE, bytecode.LOOP:
			ip += 3
		default:
			ip += operandWidth(op) + 1
		}
	}
	return ops
}

func operandWidth(op bytecode.Opcode) int {
	switch op {
	case bytecode.CONSTANT, bytecode.GET_LOCAL, bytecode.SET_LOCAL,
		bytecode.GET_GLOBAL, bytecode.DEFINE_GLOBAL, bytecode.SET_GLOBAL,
		bytecode.GET_UPVALUE, bytecode.SET_UPVALUE, bytecode.CALL:
		return 1
	default:
		return 0
	}
}

func assertOpcodes(t *testing.T, got, want []bytecode.Opcode) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("opcodes = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("opcodes = %v, want %v", got, want)
		}
	}
}
