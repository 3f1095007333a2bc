package machine

import "github.com/ember-lang/ember/lang/bytecode"

// A Chunk is the bytecode container for a single compiled function: a flat
// byte-code vector, a parallel line-number vector of the same length (one
// entry per byte-code byte, for runtime error reporting), and the function's
// constant pool. WriteByte and AddConstant simply append, so the vectors
// grow by Go's amortized slice growth; no explicit capacity policy (such as
// starting at 8 and doubling) is applied.
type Chunk struct {
	Code      []byte
	Lines     []int
	Constants []Value
}

// WriteByte appends a single byte-code byte, recording the source line it
// was compiled from.
func (c *Chunk) WriteByte(b byte, line int) {
	c.Code = append(c.Code, b)
	c.Lines = append(c.Lines, line)
}

// WriteOp appends an opcode byte.
func (c *Chunk) WriteOp(op bytecode.Opcode, line int) {
	c.WriteByte(byte(op), line)
}

// AddConstant appends value to the constant pool and returns its index. The
// one-byte CONSTANT operand form limits a chunk to 256 distinct constants;
// callers (the compiler's makeConstant) are responsible for enforcing that
// bound and reporting a compile error instead of truncating silently.
func (c *Chunk) AddConstant(value Value) int {
	c.Constants = append(c.Constants, value)
	return len(c.Constants) - 1
}
