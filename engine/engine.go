// Package engine implements spec.md §6's embedder API: the single
// entry point that wires the lexer, parser, semantic analyzer, bytecode
// compiler, and virtual machine into the one pipeline an embedder drives
// (`source -> Lexer -> Token[] -> Parser -> AST -> SemanticAnalyzer ->
// AST' -> Compiler -> Bytecode -> VM -> Value`). Grounded on the shape
// CWBudde-go-dws/cmd/dwscript/cmd/run.go wires its own pipeline in, since
// the teacher's own pkg/dwscript embedder package wasn't present in the
// retrieved pack.
package engine

import (
	"io"

	"github.com/ecmago/engine/internal/ast"
	"github.com/ecmago/engine/internal/bytecode"
	"github.com/ecmago/engine/internal/cache"
	"github.com/ecmago/engine/internal/environment"
	"github.com/ecmago/engine/internal/errors"
	"github.com/ecmago/engine/internal/lexer"
	"github.com/ecmago/engine/internal/parser"
	"github.com/ecmago/engine/internal/semantic"
	"github.com/ecmago/engine/internal/token"
	"github.com/ecmago/engine/internal/value"
	"github.com/ecmago/engine/internal/vm"
)

// NativeFn is the host-provided handler contract from spec.md §6: it
// receives `this`, the argument vector, and the owning Engine (so a native
// can allocate objects or call back into script functions), and returns
// either a value or a thrown JS value in the Err branch.
type NativeFn func(this value.Value, args []value.Value, eng *Engine) (value.Value, error)

// Engine is one isolated instance of the execution engine: its own heap,
// global object, and (optionally) a persistent bytecode cache. Two Engine
// values never share state, per spec.md §5's "global mutable state" design
// note.
type Engine struct {
	vm     *vm.VM
	cache  *cache.Cache
	config *Config
	stdout io.Writer
}

// New creates an Engine, with Object/console natives installed (see
// prelude.go). With no options it behaves like a bare vm.New() plus that
// prelude: default resource bounds, no cache, no strict default.
func New(opts ...Option) *Engine {
	eng := &Engine{vm: vm.New(), config: DefaultConfig(), stdout: defaultStdout()}
	for _, opt := range opts {
		opt(eng)
	}
	eng.vm.MaxStack = eng.config.MaxStack
	eng.vm.MaxFrames = eng.config.MaxFrames
	eng.installPrelude()
	return eng
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithConfig applies every field of cfg to the engine being constructed.
func WithConfig(cfg *Config) Option {
	return func(e *Engine) {
		if cfg == nil {
			return
		}
		e.config = cfg
	}
}

// WithCache opens (or creates) a SQLite-backed bytecode cache at path and
// attaches it to the engine; Compile consults it before re-running the
// parser/compiler pipeline. See SPEC_FULL.md §2.1.
func WithCache(path string) Option {
	return func(e *Engine) {
		c, err := cache.Open(path, false)
		if err != nil {
			// A cache that fails to open degrades to "no cache" rather than
			// failing engine construction — it's a pure performance layer.
			return
		}
		e.cache = c
	}
}

// Global returns the heap handle backing globalThis, for embedders that
// need to inspect or enumerate global properties directly.
func (e *Engine) Global() int { return e.vm.GlobalObject() }

// DefineNative installs a native function as a global binding, the
// spec.md §6 "Engine::define_native" operation. arity only informs the
// function's `.length` property; NativeFn call sites decide for themselves
// how many of args to read.
func (e *Engine) DefineNative(name string, arity int, fn NativeFn) {
	wrapped := func(this value.Value, args []value.Value) (value.Value, error) {
		return fn(this, args, e)
	}
	handle := e.nativeHandle(name, arity, wrapped)
	_ = e.vm.Heap().Set(e.vm.GlobalObject(), name, value.Ref(value.FunctionRef, handle))
}

// SetInterrupt requests that the currently running (or next) Execute call
// abort at its next backward jump or call, per spec.md §5.
func (e *Engine) SetInterrupt() { e.vm.Interrupt() }

// CallFunction invokes a script function value from host code, the
// embedder-side half of the NativeFn contract (a native wanting to call
// back into a callback argument).
func (e *Engine) CallFunction(fn value.Value, this value.Value, args []value.Value) (value.Value, error) {
	return e.vm.CallFunction(fn, this, args)
}

// Diagnostics is everything a failed Compile can report: lex, parse, and
// semantic errors/warnings, all normalized into errors.CompilerError so a
// single formatter (the CLI's --color output, or an embedder's own
// reporting) handles every stage uniformly.
type Diagnostics = errors.CompilerErrorList

// Tokens runs only the lexer, for the CLI's `tokens` subcommand and for tools
// that want a token stream without paying for parsing.
func (e *Engine) Tokens(source string) ([]token.Token, Diagnostics) {
	l := lexer.New(source)
	toks := l.Tokens()
	return toks, lexErrorsToDiagnostics(l.Errors(), source, "")
}

// Parse runs the lexer and parser (but not semantic analysis or
// compilation), for the CLI's `ast` subcommand and for tools that only need the
// tree (e.g. a future formatter).
func (e *Engine) Parse(source, file string) (*ast.Program, Diagnostics) {
	l := lexer.New(source)
	p := parser.New(l)
	prog := p.ParseProgram()

	var diags Diagnostics
	diags = append(diags, lexErrorsToDiagnostics(p.LexerErrors(), source, file)...)
	diags = append(diags, parseErrorsToDiagnostics(p.Errors(), source, file)...)
	return prog, diags
}

// Compile runs the full front end (lex, parse, semantic analysis) and the
// bytecode compiler, consulting the cache first if one is attached.
// Blocking semantic errors and parse errors prevent compilation; semantic
// warnings are returned alongside a successful Program per spec.md §7.
func (e *Engine) Compile(source, file string) (*bytecode.Program, Diagnostics, error) {
	strict := e.config.StrictDefault

	if e.cache != nil {
		digest := cache.Digest(source, strict)
		if prog, ok, err := e.cache.Get(digest); err == nil && ok {
			return prog, nil, nil
		}
	}

	l := lexer.New(source)
	p := parser.New(l)
	astProg := p.ParseProgram()

	var diags Diagnostics
	diags = append(diags, lexErrorsToDiagnostics(p.LexerErrors(), source, file)...)
	diags = append(diags, parseErrorsToDiagnostics(p.Errors(), source, file)...)
	if diags.HasBlocking() {
		return nil, diags, diags
	}

	result := semantic.Analyze(astProg)
	diags = append(diags, semanticToDiagnostics(result.Errors, source, file)...)
	diags = append(diags, semanticWarningsToDiagnostics(result.Warnings, source, file)...)
	if diags.HasBlocking() {
		return nil, diags, diags
	}

	prog, err := bytecode.CompileProgram(astProg)
	if err != nil {
		pos := token.Position{}
		if ce, ok := err.(*bytecode.CompileError); ok {
			pos = token.Position{Line: ce.Line}
		}
		diags = append(diags, errors.NewCompilerError(errors.StageCompile, pos, err.Error(), source, file))
		return nil, diags, diags
	}

	if e.cache != nil {
		_ = e.cache.Put(cache.Digest(source, strict), strict, prog)
	}
	return prog, diags, nil
}

// Execute runs a compiled Program to completion.
func (e *Engine) Execute(prog *bytecode.Program) (value.Value, error) {
	return e.vm.Run(prog)
}

// Eval compiles and immediately executes source, the convenience method
// most embedders and the CLI's -e flag use.
func (e *Engine) Eval(source string) (value.Value, error) {
	prog, diags, err := e.Compile(source, "<eval>")
	if err != nil {
		return value.Value{}, err
	}
	_ = diags
	return e.Execute(prog)
}

// GlobalEnvironment exposes the raw global environment, for embedders that
// need to declare/assign top-level `let`/`const` bindings directly rather
// than through a compiled program (e.g. a REPL seeding loop-carried state).
func (e *Engine) GlobalEnvironment() *environment.Environment { return e.vm.Global() }
