package bytecode

// UpvalueDef tells a closure where to find one captured variable when it is
// instantiated: directly off the enclosing frame's locals (IsLocal) or by
// forwarding the enclosing closure's own upvalue at Index (chained capture
// through an intermediate function that doesn't itself reference the name).
type UpvalueDef struct {
	Index   int
	IsLocal bool
	Name    string // for diagnostics only
}

// FunctionInfo is one compiled function body, addressed by its index into
// Program.Functions. object.FunctionData.BytecodeRef holds this index, which
// is how a heap-allocated function object finds the code the VM should run
// for it without embedding the Chunk directly in every allocated closure.
type FunctionInfo struct {
	Name        string
	ParamCount  int
	HasRest     bool
	IsArrow     bool
	IsGenerator bool
	IsAsync     bool
	Upvalues    []UpvalueDef
	Chunk       *Chunk
}

// MethodInfo is one class member compiled into the class's method table.
type MethodInfo struct {
	Name        string
	FuncIndex   int
	Kind        string // "method", "get", "set"
	Static      bool
}

// FieldInfo is one static field initializer or static block (Static is
// always true); instance field initializers are compiled into the
// constructor instead (see compileConstructor).
type FieldInfo struct {
	Name      string
	Static    bool
	FuncIndex int // initializer compiled as a zero-arg function
}

// ClassInfo is one compiled class, addressed by its index into
// Program.Classes; NewClass(idx) consumes one and builds the constructor +
// prototype object pair at runtime.
type ClassInfo struct {
	Name        string
	CtorIndex   int // explicit or synthesized constructor; always a valid index
	Methods     []MethodInfo
	Fields      []FieldInfo
	HasSuper    bool
}

// Program is a compilation unit's full output: every function body
// (Functions[0] is the top-level script body) plus every class compiled
// anywhere within it.
type Program struct {
	Functions []FunctionInfo
	Classes   []ClassInfo
}
