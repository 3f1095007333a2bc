package machine

// gcHeapGrowFactor mirrors the reference collector: after a collection,
// the next one is triggered once live bytes double.
const gcHeapGrowFactor = 2

// objectSize is a rough per-variant byte cost used only to drive the
// bytesAllocated/nextGC heuristic; Go's own allocator and GC do the real
// memory management, this bookkeeping exists so the trigger policy and the
// mark-sweep cycle are faithfully observable and testable in isolation.
func objectSize(o Obj) int {
	switch v := o.(type) {
	case *ObjString:
		return 24 + len(v.Chars)
	case *ObjFunction:
		return 40
	case *ObjClosure:
		return 24 + 8*len(v.Upvalues)
	case *ObjUpvalue:
		return 32
	case *ObjNative:
		return 24
	default:
		return 16
	}
}

// newObject accounts obj's estimated size against bytesAllocated, possibly
// collects, and then links obj at the head of the heap list, the way the
// reference allocator's reallocate() prepends every fresh allocation.
// Collecting before linking keeps the fresh, not yet referenced object out
// of that collection's sweep.
func (vm *VM) newObject(o Obj) {
	vm.bytesAllocated += objectSize(o)
	if vm.stress || vm.bytesAllocated > vm.nextGC {
		vm.collectGarbage()
	}

	h := o.header()
	h.next = vm.heap
	vm.heap = o
}

// newString interns s, allocating a fresh ObjString only if content s is
// not already present in the intern table.
func (vm *VM) newString(s string) *ObjString {
	hash := hashString(s)
	if interned := vm.strings.FindString(s, hash); interned != nil {
		return interned
	}
	str := &ObjString{Chars: s, Hash: hash}
	str.typ = ObjStringType
	vm.newObject(str)
	// newObject runs any collection before linking str, and the intern-table
	// insert below allocates no managed object, so str cannot be swept
	// before it is interned even though nothing has pushed it onto the
	// operand stack.
	vm.strings.Set(str, Nil)
	return str
}

// NewFunction allocates a fresh, empty function object for the compiler to
// populate with arity, upvalue count, name, and chunk as it compiles a
// function body.
func (vm *VM) NewFunction() *ObjFunction { return vm.newFunction() }

func (vm *VM) newFunction() *ObjFunction {
	fn := &ObjFunction{Chunk: &Chunk{}}
	fn.typ = ObjFunctionType
	vm.newObject(fn)
	return fn
}

func (vm *VM) newClosure(fn *ObjFunction) *ObjClosure {
	cl := &ObjClosure{Function: fn, Upvalues: make([]*ObjUpvalue, fn.UpvalueCount)}
	cl.typ = ObjClosureType
	vm.newObject(cl)
	return cl
}

func (vm *VM) newUpvalue(slot int) *ObjUpvalue {
	uv := &ObjUpvalue{Open: true, Slot: slot}
	uv.typ = ObjUpvalueType
	vm.newObject(uv)
	return uv
}

func (vm *VM) newNative(name string, fn NativeFn) *ObjNative {
	n := &ObjNative{Name: name, Fn: fn}
	n.typ = ObjNativeType
	vm.newObject(n)
	return n
}

// AddConstant adds value to chunk's constant pool, keeping value on the
// operand stack for the duration of the append and popping it afterward.
// Chunk.AddConstant is a plain slice append and never starts a collection
// itself.
func (vm *VM) AddConstant(chunk *Chunk, value Value) int {
	vm.push(value)
	idx := chunk.AddConstant(value)
	vm.pop()
	return idx
}

// markObject sets obj's mark bit and enqueues it on the gray worklist for
// traceReferences to blacken. Safe to call with a nil interface; a nil
// typed pointer (such as a nil *ObjString) stored in obj is not, so callers
// holding a possibly nil field check it first.
func (vm *VM) markObject(obj Obj) {
	if obj == nil {
		return
	}
	h := obj.header()
	if h.marked {
		return
	}
	h.marked = true
	vm.grayStack = append(vm.grayStack, obj)
}

// MarkObject is markObject exported for use by a compiler-supplied
// CompilerRoots callback, which lives in a different package and so
// cannot reach the unexported method.
func (vm *VM) MarkObject(obj Obj) { vm.markObject(obj) }

func (vm *VM) markValue(v Value) {
	if v.IsObj() {
		vm.markObject(v.AsObj())
	}
}

// traceReferences drains the gray worklist, blackening each object by
// marking whatever it refers to, until the worklist is empty.
func (vm *VM) traceReferences() {
	for len(vm.grayStack) > 0 {
		obj := vm.grayStack[len(vm.grayStack)-1]
		vm.grayStack = vm.grayStack[:len(vm.grayStack)-1]
		vm.blacken(obj)
	}
}

func (vm *VM) blacken(obj Obj) {
	switch o := obj.(type) {
	case *ObjClosure:
		vm.markObject(o.Function)
		for _, uv := range o.Upvalues {
			// a closure still being filled in by CLOSURE has nil slots
			if uv != nil {
				vm.markObject(uv)
			}
		}
	case *ObjFunction:
		if o.Name != nil {
			vm.markObject(o.Name)
		}
		for _, c := range o.Chunk.Constants {
			vm.markValue(c)
		}
	case *ObjUpvalue:
		vm.markValue(o.Closed)
	case *ObjString, *ObjNative:
		// no outgoing references
	}
}

// markRoots marks every GC root: the live operand stack, every active
// frame's closure, the open-upvalue list, the globals table, and whatever
// the compiler reports through CompilerRoots while compilation is active.
func (vm *VM) markRoots() {
	for i := 0; i < vm.sp; i++ {
		vm.markValue(vm.stack[i])
	}
	for i := 0; i < vm.frameCount; i++ {
		vm.markObject(vm.frames[i].closure)
	}
	for uv := vm.openUpvalues; uv != nil; uv = uv.Next {
		vm.markObject(uv)
	}
	vm.globals.Each(func(name *ObjString, v Value) {
		vm.markObject(name)
		vm.markValue(v)
	})
	if vm.CompilerRoots != nil {
		vm.CompilerRoots(vm.MarkObject)
	}
}

// collectGarbage runs one full mark-sweep cycle: mark every root, trace
// the gray worklist to closure, prune the intern table of now-unreachable
// strings, sweep the heap list freeing whatever stayed white, then reset
// nextGC relative to the bytes that survived.
func (vm *VM) collectGarbage() {
	vm.markRoots()
	vm.traceReferences()
	vm.strings.removeWhiteStrings()
	vm.sweep()
	vm.nextGC = vm.bytesAllocated * gcHeapGrowFactor
}

// sweep walks the heap list, freeing every unmarked object and clearing
// the mark bit of every survivor so the next cycle starts white again.
func (vm *VM) sweep() {
	var prev Obj
	obj := vm.heap
	for obj != nil {
		h := obj.header()
		if h.marked {
			h.marked = false
			prev = obj
			obj = h.next
			continue
		}
		unreached := obj
		obj = h.next
		if prev == nil {
			vm.heap = obj
		} else {
			prev.header().next = obj
		}
		vm.bytesAllocated -= objectSize(unreached)
	}
}
