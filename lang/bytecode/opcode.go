// Package bytecode defines the instruction set emitted by the compiler and
// executed by the machine package. It is kept free of the machine package's
// Value and object types so that both the compiler and the machine can
// depend on it without a cycle; the Chunk container that holds compiled
// instructions lives in the machine package alongside Value, since a
// Chunk's constant pool is a []Value.
package bytecode

import "fmt"

// Opcode identifies a single bytecode instruction. Most opcodes take no
// operand; CONSTANT, GET_LOCAL, SET_LOCAL, the global and upvalue opcodes,
// and CALL take a one-byte operand; JUMP, JUMP_IF_FALSE, and LOOP take a
// two-byte big-endian operand; CLOSURE takes a one-byte operand followed by
// two bytes per upvalue it captures.
type Opcode uint8

// "x ADD y" is a "stack picture": the operand stack before and after the
// instruction runs.
//
//nolint:revive
const (
	CONSTANT Opcode = iota //            - CONSTANT<idx>   v
	NIL                    //            - NIL             nil
	TRUE                   //            - TRUE            true
	FALSE                  //            - FALSE           false
	POP                    //            v POP             -

	GET_LOCAL  //     - GET_LOCAL<slot>    frame.slots[slot]
	SET_LOCAL  //     v SET_LOCAL<slot>    v          (writes slot)
	GET_GLOBAL //     - GET_GLOBAL<name>   globals[name]
	DEFINE_GLOBAL //  v DEFINE_GLOBAL<name> -         (globals[name]=v)
	SET_GLOBAL    //  v SET_GLOBAL<name>    v         (writes globals[name])
	GET_UPVALUE   //  - GET_UPVALUE<idx>    *upvalue[idx].location
	SET_UPVALUE   //  v SET_UPVALUE<idx>    v         (writes *upvalue[idx].location)

	EQUAL   // a b EQUAL   bool
	GREATER // a b GREATER bool
	LESS    // a b LESS    bool

	ADD      // a b ADD      a+b
	SUBTRACT // a b SUBTRACT a-b
	MULTIPLY // a b MULTIPLY a*b
	DIVIDE   // a b DIVIDE   a/b

	NOT    //   v NOT    !v
	NEGATE //   v NEGATE  -v

	PRINT // v PRINT -

	JUMP           //    - JUMP<off>           -              (ip += off)
	JUMP_IF_FALSE  // cond JUMP_IF_FALSE<off>   cond           (ip += off if falsey, does not pop)
	LOOP           //    - LOOP<off>           -              (ip -= off)

	CALL // fn arg1..argN CALL<argCount> result

	CLOSURE      // - CLOSURE<fnIdx>{,(isLocal,idx)}* closure
	CLOSE_UPVALUE // v CLOSE_UPVALUE -

	RETURN // v RETURN -

	opcodeCount
)

var opcodeNames = [...]string{
	CONSTANT:      "OP_CONSTANT",
	NIL:           "OP_NIL",
	TRUE:          "OP_TRUE",
	FALSE:         "OP_FALSE",
	POP:           "OP_POP",
	GET_LOCAL:     "OP_GET_LOCAL",
	SET_LOCAL:     "OP_SET_LOCAL",
	GET_GLOBAL:    "OP_GET_GLOBAL",
	DEFINE_GLOBAL: "OP_DEFINE_GLOBAL",
	SET_GLOBAL:    "OP_SET_GLOBAL",
	GET_UPVALUE:   "OP_GET_UPVALUE",
	SET_UPVALUE:   "OP_SET_UPVALUE",
	EQUAL:         "OP_EQUAL",
	GREATER:       "OP_GREATER",
	LESS:          "OP_LESS",
	ADD:           "OP_ADD",
	SUBTRACT:      "OP_SUBTRACT",
	MULTIPLY:      "OP_MULTIPLY",
	DIVIDE:        "OP_DIVIDE",
	NOT:           "OP_NOT",
	NEGATE:        "OP_NEGATE",
	PRINT:         "OP_PRINT",
	JUMP:          "OP_JUMP",
	JUMP_IF_FALSE: "OP_JUMP_IF_FALSE",
	LOOP:          "OP_LOOP",
	CALL:          "OP_CALL",
	CLOSURE:       "OP_CLOSURE",
	CLOSE_UPVALUE: "OP_CLOSE_UPVALUE",
	RETURN:        "OP_RETURN",
}

func (op Opcode) String() string {
	if op < opcodeCount {
		if name := opcodeNames[op]; name != "" {
			return name
		}
	}
	return fmt.Sprintf("illegal opcode (%d)", byte(op))
}
