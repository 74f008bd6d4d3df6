// Package bytecode compiles an analyzed AST into a stack-based instruction
// stream: one fixed-width OpCode per stack effect, a deduplicated constant
// pool, and a per-function table so closures can be materialized without
// re-compiling their body.
//
// Instruction format: 32 bits, [8-bit opcode][8-bit A][16-bit B]. B carries
// a slot/constant/jump-target index; A carries a small flag or count (argc,
// a boolean). Jump targets are absolute instruction indices into the owning
// Chunk's Code, not relative offsets — simpler to patch correctly and just
// as cheap to execute.
package bytecode

// OpCode is one instruction's operation.
type OpCode byte

const (
	// Stack manipulation.
	Pop OpCode = iota
	Dup
	Swap

	// Constants and literals.
	LoadConst
	LoadNull
	LoadUndefined
	LoadTrue
	LoadFalse
	LoadThis

	// Variable access. LoadGlobal/StoreGlobal's B is a constant-pool index
	// naming the variable; the VM resolves it against the running
	// environment chain (GetBindingValue/SetMutableBinding), so no separate
	// global-slot table is needed. LoadClosureVar/StoreClosureVar index the
	// running Frame's upvalue list.
	LoadLocal
	StoreLocal
	LoadGlobal
	StoreGlobal
	LoadClosureVar
	StoreClosureVar
	LoadProperty  // [obj, key] -> [value]; key covers both obj.prop and obj[expr]
	StoreProperty // [obj, key, value] -> []
	DeleteProperty

	// Arithmetic.
	Add
	Sub
	Mul
	Div
	Mod
	Pow
	Neg
	Pos

	// Comparison.
	Eq
	Ne
	StrictEq
	StrictNe
	Lt
	Le
	Gt
	Ge

	// Logical. And/Or/NullishCoalesce are short-circuiting and never reach
	// the VM as simple pop-pop-push ops; see compileLogicalExpression.
	// Not is the only one the VM executes directly.
	Not

	// Bitwise.
	BitAnd
	BitOr
	BitXor
	BitNot
	Shl
	Shr
	UShr

	// Increment/decrement. Inc/Dec replace the top of the stack with its
	// numeric value plus/minus one; PostInc/PostDec leave the pre-update
	// numeric value on the stack. The compiler lowers ++/-- to Dup/Add/store
	// sequences instead and never emits these four.
	Inc
	Dec
	PostInc
	PostDec

	// Type operators.
	TypeOf
	InstanceOf
	In
	Void

	// Control flow. Jump targets are patched in once known (forward) or
	// known immediately (backward, loop heads).
	Jump
	JumpIfTrue
	JumpIfFalse
	JumpIfNull
	JumpIfUndefined

	// Functions.
	Call // A = argc; stack [callee, ...args, this] -> [result]
	New  // A = argc; stack [callee, ...args] -> [instance]
	Return
	Yield
	YieldDelegate
	Await

	// Construction. B indexes Program.Functions / Program.Classes.
	NewObject // A = property count; stack [...(key,value) pairs] -> [object]
	NewArray  // B = element count; stack [...elements] -> [array]
	NewFunction
	NewClass // stack [superclassOrUndefined] -> [constructor]

	// Exceptions. PushHandler's B indexes the owning Chunk's TryInfo table.
	PushHandler
	PopHandler
	Throw

	// Special.
	Spread
	LoadThisFunction
	LoadNewTarget

	// Iteration helpers for for-in/for-of; not named in the illustrative
	// instruction groups but needed to drive enumeration without re-running
	// analyzer logic inside the VM. ForInStart/GetIterator turn [obj] into
	// [cursor]; ForInNext/IteratorNext pop a cursor and push [value, done],
	// where done is true once iteration is exhausted.
	ForInStart
	ForInNext
	GetIterator
	IteratorNext

	// Halt stops the VM's fetch loop; emitted once at the end of a
	// top-level program's compiled Chunk.
	Halt

	opCodeCount
)

var opCodeNames = [opCodeCount]string{
	Pop: "Pop", Dup: "Dup", Swap: "Swap",
	LoadConst: "LoadConst", LoadNull: "LoadNull", LoadUndefined: "LoadUndefined",
	LoadTrue: "LoadTrue", LoadFalse: "LoadFalse", LoadThis: "LoadThis",
	LoadLocal: "LoadLocal", StoreLocal: "StoreLocal",
	LoadGlobal: "LoadGlobal", StoreGlobal: "StoreGlobal",
	LoadClosureVar: "LoadClosureVar", StoreClosureVar: "StoreClosureVar",
	LoadProperty: "LoadProperty", StoreProperty: "StoreProperty", DeleteProperty: "DeleteProperty",
	Add: "Add", Sub: "Sub", Mul: "Mul", Div: "Div", Mod: "Mod", Pow: "Pow", Neg: "Neg", Pos: "Pos",
	Eq: "Eq", Ne: "Ne", StrictEq: "StrictEq", StrictNe: "StrictNe",
	Lt: "Lt", Le: "Le", Gt: "Gt", Ge: "Ge",
	Not: "Not",
	BitAnd: "BitAnd", BitOr: "BitOr", BitXor: "BitXor", BitNot: "BitNot",
	Shl: "Shl", Shr: "Shr", UShr: "UShr",
	Inc: "Inc", Dec: "Dec", PostInc: "PostInc", PostDec: "PostDec",
	TypeOf: "TypeOf", InstanceOf: "InstanceOf", In: "In", Void: "Void",
	Jump: "Jump", JumpIfTrue: "JumpIfTrue", JumpIfFalse: "JumpIfFalse",
	JumpIfNull: "JumpIfNull", JumpIfUndefined: "JumpIfUndefined",
	Call: "Call", New: "New", Return: "Return",
	Yield: "Yield", YieldDelegate: "YieldDelegate", Await: "Await",
	NewObject: "NewObject", NewArray: "NewArray", NewFunction: "NewFunction", NewClass: "NewClass",
	PushHandler: "PushHandler", PopHandler: "PopHandler", Throw: "Throw",
	Spread: "Spread", LoadThisFunction: "LoadThisFunction", LoadNewTarget: "LoadNewTarget",
	ForInStart: "ForInStart", ForInNext: "ForInNext",
	GetIterator: "GetIterator", IteratorNext: "IteratorNext",
	Halt: "Halt",
}

func (op OpCode) String() string {
	if int(op) < len(opCodeNames) && opCodeNames[op] != "" {
		return opCodeNames[op]
	}
	return "UNKNOWN"
}

// Instruction is one encoded [opcode][A][B] word.
type Instruction uint32

func MakeInstruction(op OpCode, a byte, b uint16) Instruction {
	return Instruction(uint32(op) | uint32(a)<<8 | uint32(b)<<16)
}

func MakeSimple(op OpCode) Instruction { return Instruction(op) }

func (i Instruction) OpCode() OpCode { return OpCode(i & 0xFF) }
func (i Instruction) A() byte        { return byte((i >> 8) & 0xFF) }
func (i Instruction) B() uint16      { return uint16((i >> 16) & 0xFFFF) }

func (i Instruction) withB(b uint16) Instruction {
	return MakeInstruction(i.OpCode(), i.A(), b)
}

func (i Instruction) String() string { return i.OpCode().String() }

// stackEffect is the net operand-stack delta for instructions whose effect
// doesn't depend on their operand; Call/New/NewObject/NewArray are variadic
// in argc/propc/elemc and are accounted for directly by the compiler as it
// emits them (see Compiler.emitAB).
var stackEffect = map[OpCode]int{
	Pop: -1, Dup: 1, Swap: 0,
	LoadConst: 1, LoadNull: 1, LoadUndefined: 1, LoadTrue: 1, LoadFalse: 1, LoadThis: 1,
	LoadLocal: 1, StoreLocal: -1, LoadGlobal: 1, StoreGlobal: -1,
	LoadClosureVar: 1, StoreClosureVar: -1,
	LoadProperty: -1, StoreProperty: -3, DeleteProperty: -1,
	Add: -1, Sub: -1, Mul: -1, Div: -1, Mod: -1, Pow: -1, Neg: 0, Pos: 0,
	Eq: -1, Ne: -1, StrictEq: -1, StrictNe: -1, Lt: -1, Le: -1, Gt: -1, Ge: -1,
	Not: 0, BitAnd: -1, BitOr: -1, BitXor: -1, BitNot: 0, Shl: -1, Shr: -1, UShr: -1,
	Inc: 0, Dec: 0, PostInc: 0, PostDec: 0,
	TypeOf: 0, InstanceOf: -1, In: -1, Void: 0,
	Jump: 0, JumpIfTrue: -1, JumpIfFalse: -1, JumpIfNull: -1, JumpIfUndefined: -1,
	Return: -1,
	Yield: 0, YieldDelegate: 0, Await: 0,
	NewFunction: 1, NewClass: 0,
	PushHandler: 0, PopHandler: 0, Throw: -1,
	Spread: 0, LoadThisFunction: 1, LoadNewTarget: 1,
	ForInStart: 0, ForInNext: 1, GetIterator: 0, IteratorNext: 1,
	Halt: 0,
}
