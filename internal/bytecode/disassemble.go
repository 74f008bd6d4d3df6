package bytecode

import (
	"fmt"
	"strings"
)

// Disassemble renders every compiled function's instruction stream in a
// human-readable form, for the ecmago CLI's `bytecode` subcommand and for
// debugging the compiler itself.
func (p *Program) Disassemble() string {
	var sb strings.Builder
	for i := range p.Functions {
		fn := &p.Functions[i]
		name := fn.Name
		if name == "" {
			name = "<script>"
		}
		fmt.Fprintf(&sb, "== function #%d %s (params=%d locals=%d maxstack=%d) ==\n",
			i, name, fn.ParamCount, fn.Chunk.LocalCount, fn.Chunk.MaxStack)
		disassembleChunk(&sb, fn.Chunk)
		sb.WriteString("\n")
	}
	for i := range p.Classes {
		cls := &p.Classes[i]
		fmt.Fprintf(&sb, "== class #%d %s (ctor=#%d methods=%d fields=%d) ==\n",
			i, cls.Name, cls.CtorIndex, len(cls.Methods), len(cls.Fields))
	}
	return sb.String()
}

func disassembleChunk(sb *strings.Builder, c *Chunk) {
	for pc, instr := range c.Code {
		op := instr.OpCode()
		fmt.Fprintf(sb, "%04d %-16s", pc, op)
		switch op {
		case LoadConst:
			idx := instr.B()
			if int(idx) < len(c.Constants) {
				fmt.Fprintf(sb, "%d ; %s", idx, c.Constants[idx].String())
			} else {
				fmt.Fprintf(sb, "%d", idx)
			}
		case Jump, JumpIfTrue, JumpIfFalse, JumpIfNull, JumpIfUndefined:
			fmt.Fprintf(sb, "-> %04d", instr.B())
		case LoadLocal, StoreLocal, LoadClosureVar, StoreClosureVar:
			fmt.Fprintf(sb, "slot %d", instr.B())
		case LoadGlobal, StoreGlobal:
			idx := instr.B()
			if int(idx) < len(c.Constants) {
				fmt.Fprintf(sb, "%s", c.Constants[idx].String())
			}
		case Call, New:
			fmt.Fprintf(sb, "argc=%d", instr.A())
		case NewObject:
			fmt.Fprintf(sb, "props=%d", instr.A())
		case NewArray:
			fmt.Fprintf(sb, "elems=%d", instr.B())
		case NewFunction, NewClass:
			fmt.Fprintf(sb, "#%d", instr.B())
		case PushHandler:
			if info, ok := c.TryInfoAt(pc); ok {
				fmt.Fprintf(sb, "catch=%d finally=%d", info.CatchTarget, info.FinallyTarget)
			}
		}
		sb.WriteString("\n")
	}
}
