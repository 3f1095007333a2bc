package machine

import "fmt"

// ObjType discriminates the heap object variants.
type ObjType uint8

const (
	ObjStringType ObjType = iota
	ObjFunctionType
	ObjClosureType
	ObjUpvalueType
	ObjNativeType
)

// Obj is implemented by every heap-allocated object. Every object begins
// with a Header carrying its type tag, GC mark bit, and the next-in-heap
// link that roots the entire allocated universe in the VM's object list.
type Obj interface {
	String() string
	Type() ObjType
	header() *Header
}

// Header is embedded by every Obj implementation.
type Header struct {
	typ    ObjType
	marked bool
	next   Obj
}

func (h *Header) header() *Header { return h }
func (h *Header) Type() ObjType   { return h.typ }

// ObjString is an immutable, length-known, FNV-1a-hashed byte string. Every
// ObjString with the same content is the same object after interning (see
// Table.FindString / VM.newString), so string identity implies string
// equality.
type ObjString struct {
	Header
	Chars string
	Hash  uint32
}

func (s *ObjString) String() string { return s.Chars }

// hashString is the FNV-1a hash used throughout: offset basis 2166136261
// and prime 16777619, taken from the reference implementation.
func hashString(s string) uint32 {
	var hash uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		hash ^= uint32(s[i])
		hash *= 16777619
	}
	return hash
}

// ObjFunction is a compiled function: its arity, how many upvalues its
// closures must capture, the chunk of bytecode implementing its body, and
// an optional name (nil for the implicit top-level script function).
type ObjFunction struct {
	Header
	Arity        int
	UpvalueCount int
	Chunk        *Chunk
	Name         *ObjString
}

func (f *ObjFunction) String() string {
	if f.Name == nil {
		return "<script>"
	}
	return fmt.Sprintf("<fn %s>", f.Name.Chars)
}

// ObjClosure binds an ObjFunction to the upvalues it captured at creation
// time. Closure.Upvalues has exactly Function.UpvalueCount elements.
type ObjClosure struct {
	Header
	Function *ObjFunction
	Upvalues []*ObjUpvalue
}

func (c *ObjClosure) String() string { return c.Function.String() }

// ObjUpvalue indirects a captured variable. While Open is true, Slot names
// the live operand-stack index the variable occupies; the VM mediates every
// read and write through that index rather than a raw pointer, since the
// reference implementation's approach (a pointer into the stack array)
// has no safe direct analogue over a Go slice that might be reindexed.
// Closing an upvalue (via CLOSE_UPVALUE or a call return) copies the slot's
// current value into Closed and flips Open to false; from then on reads and
// writes go through Closed regardless of whether the variable's frame still
// exists.
type ObjUpvalue struct {
	Header
	Open   bool
	Slot   int
	Closed Value
	Next   *ObjUpvalue // link in the VM's open-upvalue list
}

func (u *ObjUpvalue) String() string { return "upvalue" }

// NativeFn is the signature of a built-in function: it receives its
// arguments and returns a result or a runtime error.
type NativeFn func(args []Value) (Value, error)

// ObjNative wraps a Go function so it can be called like any other Value.
type ObjNative struct {
	Header
	Name string
	Fn   NativeFn
}

func (n *ObjNative) String() string { return fmt.Sprintf("<native fn %s>", n.Name) }
