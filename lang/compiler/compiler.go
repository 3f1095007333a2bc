// Package compiler fuses scanning, Pratt parsing, name resolution, and
// bytecode emission into one traversal: there is no intermediate AST. The
// compiler drives a scanner.Scanner token by token, consulting the rules
// table in rules.go to decide how each token combines into an expression,
// resolving every identifier to a local slot, an upvalue, or a global
// constant as it goes, and writing opcodes straight into the chunk of the
// function currently being compiled.
package compiler

import (
	"fmt"
	"strconv"

	"github.com/ember-lang/ember/lang/bytecode"
	"github.com/ember-lang/ember/lang/machine"
	langscanner "github.com/ember-lang/ember/lang/scanner"
	"github.com/ember-lang/ember/lang/token"
)

type functionType uint8

const (
	typeFunction functionType = iota
	typeScript
)

// local is one entry in a compiler frame's locals array. depth -1 means
// "declared but not yet initialized", the window between declareVariable
// and markInitialized during which the variable's own initializer cannot
// refer to it.
type local struct {
	name       string
	depth      int
	isCaptured bool
}

// upvalueDesc records, for one upvalue slot of the function being
// compiled, whether it captures a local of the immediately enclosing
// frame (isLocal) or one of that frame's own upvalues, and the index into
// whichever array that is.
type upvalueDesc struct {
	index   byte
	isLocal bool
}

// frame is one compiler activation: one per function body (and one for
// the implicit top-level script) currently being compiled, chained to the
// frame compiling its lexically enclosing function.
type frame struct {
	enclosing *frame
	function  *machine.ObjFunction
	typ       functionType

	locals     []local
	upvalues   []upvalueDesc
	scopeDepth int
}

// Compiler holds all state for one call to Compile: the token stream, the
// parser's error-recovery state, and the chain of active compiler frames.
type Compiler struct {
	vm      *machine.VM
	scanner *langscanner.Scanner

	previous langscanner.Token
	current  langscanner.Token

	hadError  bool
	panicMode bool
	errs      Errors

	frame *frame
}

// Compile compiles source to a top-level function ready for (*machine.VM).Run.
// Compilation always runs to EOF so every diagnostic in the source is
// reported, but returns a nil function and a non-nil error (recoverable as
// individual diagnostics via Diagnostics) if any diagnostic was raised.
//
// Compile installs itself as vm's CompilerRoots for the duration, so that a
// collection triggered by a string allocation mid-compile still sees every
// function under construction.
func Compile(vm *machine.VM, source string) (*machine.ObjFunction, error) {
	c := &Compiler{vm: vm, scanner: langscanner.New(source)}
	c.pushFrame(typeScript, "")

	vm.CompilerRoots = c.markCompilerRoots
	defer func() { vm.CompilerRoots = nil }()

	c.advance()
	for !c.match(token.EOF) {
		c.declaration()
	}
	fn, _ := c.endFrame()

	if c.hadError {
		return nil, c.errs.Err()
	}
	return fn, nil
}

// markCompilerRoots marks the function under construction in every active
// frame, so the GC can trace constants already installed in an
// in-progress chunk.
func (c *Compiler) markCompilerRoots(mark func(machine.Obj)) {
	for f := c.frame; f != nil; f = f.enclosing {
		mark(f.function)
	}
}

func (c *Compiler) pushFrame(typ functionType, name string) {
	f := &frame{enclosing: c.frame, typ: typ, function: c.vm.NewFunction()}
	// Slot 0 is reserved for the closure being called; it has no name a
	// user identifier can ever resolve to.
	f.locals = append(f.locals, local{name: "", depth: 0})
	// The frame is installed before the name is allocated, so a collection
	// triggered by that allocation reaches the new function through
	// markCompilerRoots.
	c.frame = f
	if name != "" {
		f.function.Name = c.vm.NewString(name)
	}
}

// endFrame emits the implicit "return nil" every function falls through
// to, then pops the frame, returning the finished function and the
// upvalue descriptors the enclosing CLOSURE instruction must encode.
func (c *Compiler) endFrame() (*machine.ObjFunction, []upvalueDesc) {
	c.emitReturn()
	fn := c.frame.function
	upvalues := c.frame.upvalues
	c.frame = c.frame.enclosing
	return fn, upvalues
}

// --- token stream -----------------------------------------------------

func (c *Compiler) advance() {
	c.previous = c.current
	for {
		c.current = c.scanner.Scan()
		if c.current.Type != token.ILLEGAL {
			break
		}
		c.errorAtCurrent(c.current.Lexeme)
	}
}

func (c *Compiler) check(tt token.Token) bool { return c.current.Type == tt }

func (c *Compiler) match(tt token.Token) bool {
	if !c.check(tt) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) consume(tt token.Token, msg string) {
	if c.current.Type == tt {
		c.advance()
		return
	}
	c.errorAtCurrent(msg)
}

// --- error reporting ---------------------------------------------------

func (c *Compiler) errorAt(tok langscanner.Token, msg string) {
	if c.panicMode {
		return
	}
	c.panicMode = true
	c.hadError = true

	where := ""
	switch tok.Type {
	case token.EOF:
		where = " at end"
	case token.ILLEGAL:
		// the scanner already describes the problem in msg
	default:
		where = fmt.Sprintf(" at '%s'", tok.Lexeme)
	}
	addError(&c.errs, fmt.Sprintf("[line %d] Error%s: %s", tok.Line, where, msg))
}

func (c *Compiler) errorAtCurrent(msg string) { c.errorAt(c.current, msg) }
func (c *Compiler) error(msg string)          { c.errorAt(c.previous, msg) }

// synchronize discards tokens until a likely statement boundary, so one
// malformed statement produces one diagnostic instead of a cascade.
func (c *Compiler) synchronize() {
	c.panicMode = false
	for c.current.Type != token.EOF {
		if c.previous.Type == token.SEMICOLON {
			return
		}
		switch c.current.Type {
		case token.CLASS, token.FUN, token.VAR, token.FOR, token.IF, token.WHILE, token.PRINT, token.RETURN:
			return
		}
		c.advance()
	}
}

// --- emission -----------------------------------------------------------

func (c *Compiler) chunk() *machine.Chunk { return c.frame.function.Chunk }

func (c *Compiler) emitByte(b byte) { c.chunk().WriteByte(b, c.previous.Line) }

func (c *Compiler) emitOp(op bytecode.Opcode) { c.chunk().WriteOp(op, c.previous.Line) }

func (c *Compiler) emitOpByte(op bytecode.Opcode, operand byte) {
	c.emitOp(op)
	c.emitByte(operand)
}

func (c *Compiler) emitReturn() {
	c.emitOp(bytecode.NIL)
	c.emitOp(bytecode.RETURN)
}

// emitJump writes op followed by a two-byte placeholder and returns the
// offset of the placeholder's first byte, to be resolved by patchJump.
func (c *Compiler) emitJump(op bytecode.Opcode) int {
	c.emitOp(op)
	c.emitByte(0xff)
	c.emitByte(0xff)
	return len(c.chunk().Code) - 2
}

func (c *Compiler) patchJump(offset int) {
	jump := len(c.chunk().Code) - offset - 2
	if jump > 0xffff {
		c.error("Too much code to jump over.")
		return
	}
	c.chunk().Code[offset] = byte(jump >> 8)
	c.chunk().Code[offset+1] = byte(jump & 0xff)
}

func (c *Compiler) emitLoop(loopStart int) {
	c.emitOp(bytecode.LOOP)
	offset := len(c.chunk().Code) - loopStart + 2
	if offset > 0xffff {
		c.error("Loop body too large.")
		return
	}
	c.emitByte(byte(offset >> 8))
	c.emitByte(byte(offset & 0xff))
}

// makeConstant adds value to the current chunk's constant pool through
// vm.AddConstant (which keeps it on the operand stack while it is
// appended) and returns its one-byte index.
func (c *Compiler) makeConstant(value machine.Value) byte {
	idx := c.vm.AddConstant(c.chunk(), value)
	if idx > 255 {
		c.error("Too many constants in one chunk.")
		return 0
	}
	return byte(idx)
}

func (c *Compiler) emitConstant(value machine.Value) {
	c.emitOpByte(bytecode.CONSTANT, c.makeConstant(value))
}

func (c *Compiler) identifierConstant(name string) byte {
	return c.makeConstant(machine.ObjValue(c.vm.NewString(name)))
}

// --- scopes and variables -----------------------------------------------

func (c *Compiler) beginScope() { c.frame.scopeDepth++ }

func (c *Compiler) endScope() {
	c.frame.scopeDepth--
	locals := c.frame.locals
	for len(locals) > 0 && locals[len(locals)-1].depth > c.frame.scopeDepth {
		if locals[len(locals)-1].isCaptured {
			c.emitOp(bytecode.CLOSE_UPVALUE)
		} else {
			c.emitOp(bytecode.POP)
		}
		locals = locals[:len(locals)-1]
	}
	c.frame.locals = locals
}

func (c *Compiler) declareVariable(name string) {
	if c.frame.scopeDepth == 0 {
		return
	}
	for i := len(c.frame.locals) - 1; i >= 0; i-- {
		l := c.frame.locals[i]
		if l.depth != -1 && l.depth < c.frame.scopeDepth {
			break
		}
		if l.name == name {
			c.error("Already a variable with this name in this scope.")
		}
	}
	c.addLocal(name)
}

func (c *Compiler) addLocal(name string) {
	if len(c.frame.locals) >= 256 {
		c.error("Too many local variables in function.")
		return
	}
	c.frame.locals = append(c.frame.locals, local{name: name, depth: -1})
}

func (c *Compiler) markInitialized() {
	if c.frame.scopeDepth == 0 {
		return
	}
	c.frame.locals[len(c.frame.locals)-1].depth = c.frame.scopeDepth
}

// parseVariable consumes an identifier, declares it, and for a global
// returns the constant-pool index defineVariable must install it under
// (0, unused, for a local).
func (c *Compiler) parseVariable(errMsg string) byte {
	c.consume(token.IDENT, errMsg)
	name := c.previous.Lexeme
	c.declareVariable(name)
	if c.frame.scopeDepth > 0 {
		return 0
	}
	return c.identifierConstant(name)
}

func (c *Compiler) defineVariable(global byte) {
	if c.frame.scopeDepth > 0 {
		c.markInitialized()
		return
	}
	c.emitOpByte(bytecode.DEFINE_GLOBAL, global)
}

// resolveLocal returns the slot index of name in f, or -1 if it is not a
// local of f.
func (c *Compiler) resolveLocal(f *frame, name string) int {
	for i := len(f.locals) - 1; i >= 0; i-- {
		if f.locals[i].name == name {
			if f.locals[i].depth == -1 {
				c.error("Can't read local variable in its own initializer.")
			}
			return i
		}
	}
	return -1
}

// resolveUpvalue resolves name as a capture of some enclosing frame,
// recursively: a local of the immediately enclosing frame becomes a
// direct upvalue (and that local is marked captured); a capture further
// out becomes an upvalue-of-an-upvalue chain. Returns -1 if name is not
// resolvable in any enclosing frame (i.e. it is global).
func (c *Compiler) resolveUpvalue(f *frame, name string) int {
	if f.enclosing == nil {
		return -1
	}
	if idx := c.resolveLocal(f.enclosing, name); idx != -1 {
		f.enclosing.locals[idx].isCaptured = true
		return c.addUpvalue(f, byte(idx), true)
	}
	if idx := c.resolveUpvalue(f.enclosing, name); idx != -1 {
		return c.addUpvalue(f, byte(idx), false)
	}
	return -1
}

func (c *Compiler) addUpvalue(f *frame, index byte, isLocal bool) int {
	for i, uv := range f.upvalues {
		if uv.index == index && uv.isLocal == isLocal {
			return i
		}
	}
	if len(f.upvalues) >= 256 {
		c.error("Too many closure variables in function.")
		return 0
	}
	f.upvalues = append(f.upvalues, upvalueDesc{index: index, isLocal: isLocal})
	f.function.UpvalueCount = len(f.upvalues)
	return len(f.upvalues) - 1
}

func (c *Compiler) namedVariable(name string, canAssign bool) {
	var getOp, setOp bytecode.Opcode
	var arg int
	if arg = c.resolveLocal(c.frame, name); arg != -1 {
		getOp, setOp = bytecode.GET_LOCAL, bytecode.SET_LOCAL
	} else if arg = c.resolveUpvalue(c.frame, name); arg != -1 {
		getOp, setOp = bytecode.GET_UPVALUE, bytecode.SET_UPVALUE
	} else {
		arg = int(c.identifierConstant(name))
		getOp, setOp = bytecode.GET_GLOBAL, bytecode.SET_GLOBAL
	}

	if canAssign && c.match(token.EQUAL) {
		c.expression()
		c.emitOpByte(setOp, byte(arg))
	} else {
		c.emitOpByte(getOp, byte(arg))
	}
}

// --- expressions ---------------------------------------------------------

func (c *Compiler) expression() { c.parsePrecedence(precAssignment) }

// parsePrecedence is the Pratt engine: it consumes one prefix expression,
// then repeatedly consumes infix operators whose precedence is at least
// p, left-associating by looping rather than recursing for same-precedence
// operators.
func (c *Compiler) parsePrecedence(p precedence) {
	c.advance()
	rule := getRule(c.previous.Type)
	if rule.prefix == nil {
		c.error("Expect expression.")
		return
	}
	canAssign := p <= precAssignment
	rule.prefix(c, canAssign)

	for getRule(c.current.Type).precedence >= p {
		c.advance()
		infix := getRule(c.previous.Type).infix
		infix(c, canAssign)
	}

	if canAssign && c.check(token.EQUAL) {
		c.error("Invalid assignment target.")
	}
}

func (c *Compiler) number(canAssign bool) {
	v, _ := strconv.ParseFloat(c.previous.Lexeme, 64)
	c.emitConstant(machine.Number(v))
}

func (c *Compiler) string(canAssign bool) {
	lexeme := c.previous.Lexeme
	c.emitConstant(machine.ObjValue(c.vm.NewString(lexeme[1 : len(lexeme)-1])))
}

func (c *Compiler) literal(canAssign bool) {
	switch c.previous.Type {
	case token.FALSE:
		c.emitOp(bytecode.FALSE)
	case token.NIL:
		c.emitOp(bytecode.NIL)
	case token.TRUE:
		c.emitOp(bytecode.TRUE)
	}
}

func (c *Compiler) grouping(canAssign bool) {
	c.expression()
	c.consume(token.RIGHT_PAREN, "Expect ')' after expression.")
}

func (c *Compiler) unary(canAssign bool) {
	opType := c.previous.Type
	c.parsePrecedence(precUnary)
	switch opType {
	case token.MINUS:
		c.emitOp(bytecode.NEGATE)
	case token.BANG:
		c.emitOp(bytecode.NOT)
	}
}

func (c *Compiler) binary(canAssign bool) {
	opType := c.previous.Type
	rule := getRule(opType)
	c.parsePrecedence(rule.precedence + 1)
	switch opType {
	case token.PLUS:
		c.emitOp(bytecode.ADD)
	case token.MINUS:
		c.emitOp(bytecode.SUBTRACT)
	case token.STAR:
		c.emitOp(bytecode.MULTIPLY)
	case token.SLASH:
		c.emitOp(bytecode.DIVIDE)
	case token.EQUAL_EQUAL:
		c.emitOp(bytecode.EQUAL)
	case token.BANG_EQUAL:
		c.emitOp(bytecode.EQUAL)
		c.emitOp(bytecode.NOT)
	case token.GREATER:
		c.emitOp(bytecode.GREATER)
	case token.GREATER_EQUAL:
		c.emitOp(bytecode.LESS)
		c.emitOp(bytecode.NOT)
	case token.LESS:
		c.emitOp(bytecode.LESS)
	case token.LESS_EQUAL:
		c.emitOp(bytecode.GREATER)
		c.emitOp(bytecode.NOT)
	}
}

func (c *Compiler) and(canAssign bool) {
	endJump := c.emitJump(bytecode.JUMP_IF_FALSE)
	c.emitOp(bytecode.POP)
	c.parsePrecedence(precAnd)
	c.patchJump(endJump)
}

func (c *Compiler) or(canAssign bool) {
	elseJump := c.emitJump(bytecode.JUMP_IF_FALSE)
	endJump := c.emitJump(bytecode.JUMP)
	c.patchJump(elseJump)
	c.emitOp(bytecode.POP)
	c.parsePrecedence(precOr)
	c.patchJump(endJump)
}

func (c *Compiler) variable(canAssign bool) {
	c.namedVariable(c.previous.Lexeme, canAssign)
}

func (c *Compiler) call(canAssign bool) {
	argCount := c.argumentList()
	c.emitOpByte(bytecode.CALL, argCount)
}

func (c *Compiler) argumentList() byte {
	var count int
	if !c.check(token.RIGHT_PAREN) {
		for {
			c.expression()
			if count == 255 {
				c.error("Can't have more than 255 arguments.")
			}
			count++
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RIGHT_PAREN, "Expect ')' after arguments.")
	return byte(count)
}

// --- statements -----------------------------------------------------------

func (c *Compiler) declaration() {
	switch {
	case c.match(token.VAR):
		c.varDeclaration()
	case c.match(token.FUN):
		c.funDeclaration()
	default:
		c.statement()
	}
	if c.panicMode {
		c.synchronize()
	}
}

func (c *Compiler) varDeclaration() {
	global := c.parseVariable("Expect variable name.")
	if c.match(token.EQUAL) {
		c.expression()
	} else {
		c.emitOp(bytecode.NIL)
	}
	c.consume(token.SEMICOLON, "Expect ';' after variable declaration.")
	c.defineVariable(global)
}

// funDeclaration marks the function's own name initialized before
// compiling its body, so the body can call the function recursively by
// name.
func (c *Compiler) funDeclaration() {
	global := c.parseVariable("Expect function name.")
	c.markInitialized()
	c.function(typeFunction)
	c.defineVariable(global)
}

func (c *Compiler) function(typ functionType) {
	name := c.previous.Lexeme
	c.pushFrame(typ, name)
	c.beginScope()

	c.consume(token.LEFT_PAREN, "Expect '(' after function name.")
	if !c.check(token.RIGHT_PAREN) {
		for {
			c.frame.function.Arity++
			if c.frame.function.Arity > 255 {
				c.errorAtCurrent("Can't have more than 255 parameters.")
			}
			paramConstant := c.parseVariable("Expect parameter name.")
			c.defineVariable(paramConstant)
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RIGHT_PAREN, "Expect ')' after parameters.")
	c.consume(token.LEFT_BRACE, "Expect '{' before function body.")
	c.block()

	fn, upvalues := c.endFrame()
	c.emitOpByte(bytecode.CLOSURE, c.makeConstant(machine.ObjValue(fn)))
	for _, uv := range upvalues {
		c.emitByte(boolByte(uv.isLocal))
		c.emitByte(uv.index)
	}
}

func (c *Compiler) block() {
	for !c.check(token.RIGHT_BRACE) && !c.check(token.EOF) {
		c.declaration()
	}
	c.consume(token.RIGHT_BRACE, "Expect '}' after block.")
}

func (c *Compiler) statement() {
	switch {
	case c.match(token.PRINT):
		c.printStatement()
	case c.match(token.IF):
		c.ifStatement()
	case c.match(token.RETURN):
		c.returnStatement()
	case c.match(token.WHILE):
		c.whileStatement()
	case c.match(token.FOR):
		c.forStatement()
	case c.match(token.LEFT_BRACE):
		c.beginScope()
		c.block()
		c.endScope()
	default:
		c.expressionStatement()
	}
}

func (c *Compiler) printStatement() {
	c.expression()
	c.consume(token.SEMICOLON, "Expect ';' after value.")
	c.emitOp(bytecode.PRINT)
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.consume(token.SEMICOLON, "Expect ';' after expression.")
	c.emitOp(bytecode.POP)
}

func (c *Compiler) returnStatement() {
	if c.frame.typ == typeScript {
		c.error("Can't return from top-level code.")
	}
	if c.match(token.SEMICOLON) {
		c.emitReturn()
		return
	}
	c.expression()
	c.consume(token.SEMICOLON, "Expect ';' after return value.")
	c.emitOp(bytecode.RETURN)
}

func (c *Compiler) ifStatement() {
	c.consume(token.LEFT_PAREN, "Expect '(' after 'if'.")
	c.expression()
	c.consume(token.RIGHT_PAREN, "Expect ')' after condition.")

	thenJump := c.emitJump(bytecode.JUMP_IF_FALSE)
	c.emitOp(bytecode.POP)
	c.statement()

	elseJump := c.emitJump(bytecode.JUMP)
	c.patchJump(thenJump)
	c.emitOp(bytecode.POP)
	if c.match(token.ELSE) {
		c.statement()
	}
	c.patchJump(elseJump)
}

func (c *Compiler) whileStatement() {
	loopStart := len(c.chunk().Code)
	c.consume(token.LEFT_PAREN, "Expect '(' after 'while'.")
	c.expression()
	c.consume(token.RIGHT_PAREN, "Expect ')' after condition.")

	exitJump := c.emitJump(bytecode.JUMP_IF_FALSE)
	c.emitOp(bytecode.POP)
	c.statement()
	c.emitLoop(loopStart)

	c.patchJump(exitJump)
	c.emitOp(bytecode.POP)
}

func (c *Compiler) forStatement() {
	c.beginScope()
	c.consume(token.LEFT_PAREN, "Expect '(' after 'for'.")
	switch {
	case c.match(token.SEMICOLON):
		// no initializer
	case c.match(token.VAR):
		c.varDeclaration()
	default:
		c.expressionStatement()
	}

	loopStart := len(c.chunk().Code)
	exitJump := -1
	if !c.match(token.SEMICOLON) {
		c.expression()
		c.consume(token.SEMICOLON, "Expect ';' after loop condition.")
		exitJump = c.emitJump(bytecode.JUMP_IF_FALSE)
		c.emitOp(bytecode.POP)
	}

	if !c.match(token.RIGHT_PAREN) {
		bodyJump := c.emitJump(bytecode.JUMP)
		incrStart := len(c.chunk().Code)
		c.expression()
		c.emitOp(bytecode.POP)
		c.consume(token.RIGHT_PAREN, "Expect ')' after for clauses.")

		c.emitLoop(loopStart)
		loopStart = incrStart
		c.patchJump(bodyJump)
	}

	c.statement()
	c.emitLoop(loopStart)

	if exitJump != -1 {
		c.patchJump(exitJump)
		c.emitOp(bytecode.POP)
	}
	c.endScope()
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
