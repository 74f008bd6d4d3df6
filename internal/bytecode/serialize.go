package bytecode

import (
	"encoding/json"
	"fmt"

	"github.com/ecmago/engine/internal/value"
)

// The types below give Program a lossless JSON encoding so internal/cache
// can persist a compiled unit across runs without either package depending
// on the other's internals: value.Value's fields are private (by design,
// see internal/value), so a compact DTO is the only way to round-trip a
// constant pool through a column gorm understands.

type valueDTO struct {
	Kind value.Kind `json:"kind"`
	Num  float64    `json:"num,omitempty"`
	Str  string      `json:"str,omitempty"`
}

func encodeValue(v value.Value) (valueDTO, error) {
	switch v.Kind() {
	case value.Undefined, value.Null:
		return valueDTO{Kind: v.Kind()}, nil
	case value.Boolean:
		n := 0.0
		if v.AsBool() {
			n = 1
		}
		return valueDTO{Kind: value.Boolean, Num: n}, nil
	case value.Number:
		return valueDTO{Kind: value.Number, Num: v.AsFloat()}, nil
	case value.String:
		return valueDTO{Kind: value.String, Str: v.AsString()}, nil
	case value.BigInt:
		return valueDTO{Kind: value.BigInt, Str: v.AsBigInt().String()}, nil
	default:
		return valueDTO{}, fmt.Errorf("bytecode: %v is not a valid constant-pool entry", v.Kind())
	}
}

func decodeValue(d valueDTO) (value.Value, error) {
	switch d.Kind {
	case value.Undefined:
		return value.Undef(), nil
	case value.Null:
		return value.Nul(), nil
	case value.Boolean:
		return value.Bool(d.Num != 0), nil
	case value.Number:
		return value.Num(d.Num), nil
	case value.String:
		return value.Str(d.Str), nil
	case value.BigInt:
		return value.BigIntFromString(d.Str)
	default:
		return value.Value{}, fmt.Errorf("bytecode: unknown constant-pool kind %d", d.Kind)
	}
}

type chunkDTO struct {
	Code       []Instruction   `json:"code"`
	Constants  []valueDTO      `json:"constants"`
	LocalCount int             `json:"localCount"`
	MaxStack   int             `json:"maxStack"`
	Lines      []lineRun       `json:"lines"`
	TryInfos   map[int]TryInfo `json:"tryInfos,omitempty"`
}

func encodeChunk(c *Chunk) (chunkDTO, error) {
	dto := chunkDTO{
		Code:       c.Code,
		LocalCount: c.LocalCount,
		MaxStack:   c.MaxStack,
		Lines:      c.lines,
		TryInfos:   c.tryInfos,
	}
	for _, v := range c.Constants {
		cv, err := encodeValue(v)
		if err != nil {
			return chunkDTO{}, err
		}
		dto.Constants = append(dto.Constants, cv)
	}
	return dto, nil
}

func decodeChunk(dto chunkDTO) (*Chunk, error) {
	c := &Chunk{
		Code:       dto.Code,
		LocalCount: dto.LocalCount,
		MaxStack:   dto.MaxStack,
		lines:      dto.Lines,
		tryInfos:   dto.TryInfos,
	}
	if c.tryInfos == nil {
		c.tryInfos = make(map[int]TryInfo)
	}
	for _, cv := range dto.Constants {
		v, err := decodeValue(cv)
		if err != nil {
			return nil, err
		}
		c.Constants = append(c.Constants, v)
	}
	return c, nil
}

type functionInfoDTO struct {
	Name        string       `json:"name"`
	ParamCount  int          `json:"paramCount"`
	HasRest     bool         `json:"hasRest,omitempty"`
	IsArrow     bool         `json:"isArrow,omitempty"`
	IsGenerator bool         `json:"isGenerator,omitempty"`
	IsAsync     bool         `json:"isAsync,omitempty"`
	Upvalues    []UpvalueDef `json:"upvalues,omitempty"`
	Chunk       chunkDTO     `json:"chunk"`
}

type classInfoDTO struct {
	Name      string       `json:"name"`
	CtorIndex int          `json:"ctorIndex"`
	Methods   []MethodInfo `json:"methods,omitempty"`
	Fields    []FieldInfo  `json:"fields,omitempty"`
	HasSuper  bool         `json:"hasSuper,omitempty"`
}

type programDTO struct {
	Functions []functionInfoDTO `json:"functions"`
	Classes   []classInfoDTO    `json:"classes,omitempty"`
}

// Encode serializes p into a self-contained JSON document suitable for
// storage in a gorm.io/datatypes.JSON column (internal/cache's bytecode
// cache) or on disk per spec.md §6's "on-the-wire bytecode" sketch.
func (p *Program) Encode() ([]byte, error) {
	dto := programDTO{}
	for _, fn := range p.Functions {
		chunk, err := encodeChunk(fn.Chunk)
		if err != nil {
			return nil, err
		}
		dto.Functions = append(dto.Functions, functionInfoDTO{
			Name: fn.Name, ParamCount: fn.ParamCount, HasRest: fn.HasRest,
			IsArrow: fn.IsArrow, IsGenerator: fn.IsGenerator, IsAsync: fn.IsAsync,
			Upvalues: fn.Upvalues, Chunk: chunk,
		})
	}
	for _, cls := range p.Classes {
		dto.Classes = append(dto.Classes, classInfoDTO{
			Name: cls.Name, CtorIndex: cls.CtorIndex, Methods: cls.Methods,
			Fields: cls.Fields, HasSuper: cls.HasSuper,
		})
	}
	return json.Marshal(dto)
}

// Decode reverses Encode, reconstructing a Program ready for vm.VM.Run.
func Decode(data []byte) (*Program, error) {
	var dto programDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return nil, fmt.Errorf("bytecode: decode program: %w", err)
	}
	p := &Program{}
	for _, fn := range dto.Functions {
		chunk, err := decodeChunk(fn.Chunk)
		if err != nil {
			return nil, err
		}
		p.Functions = append(p.Functions, FunctionInfo{
			Name: fn.Name, ParamCount: fn.ParamCount, HasRest: fn.HasRest,
			IsArrow: fn.IsArrow, IsGenerator: fn.IsGenerator, IsAsync: fn.IsAsync,
			Upvalues: fn.Upvalues, Chunk: chunk,
		})
	}
	for _, cls := range dto.Classes {
		p.Classes = append(p.Classes, ClassInfo{
			Name: cls.Name, CtorIndex: cls.CtorIndex, Methods: cls.Methods,
			Fields: cls.Fields, HasSuper: cls.HasSuper,
		})
	}
	return p, nil
}
