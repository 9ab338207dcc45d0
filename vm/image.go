package vm

import (
	"fmt"
	"math/big"

	"github.com/fxamacker/cbor/v2"
)

// ---------------------------------------------------------------------------
// Program images: CBOR encoding of compiled programs
// ---------------------------------------------------------------------------

// ImageMagic identifies a remix program image.
const ImageMagic = "RMXI"

// ImageVersion is the current image format version.
const ImageVersion = 1

// cborEncMode uses canonical mode so equal programs encode to equal bytes.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("vm: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

const (
	imageFraction uint8 = 1
	imageArray    uint8 = 2
	imageString   uint8 = 3
)

type imageValue struct {
	Kind  uint8        `cbor:"1,keyasint"`
	Rat   string       `cbor:"2,keyasint,omitempty"`
	Str   string       `cbor:"3,keyasint,omitempty"`
	Items []imageValue `cbor:"4,keyasint,omitempty"`
}

type imageInstruction struct {
	_   struct{} `cbor:",toarray"`
	Op  uint8
	Arg int
}

type imageFunction struct {
	Name      string             `cbor:"1,keyasint"`
	Code      []imageInstruction `cbor:"2,keyasint"`
	Consts    []imageValue       `cbor:"3,keyasint"`
	NumLocals int                `cbor:"4,keyasint"`
}

type imageFile struct {
	Magic     string          `cbor:"1,keyasint"`
	Version   int             `cbor:"2,keyasint"`
	Functions []imageFunction `cbor:"3,keyasint"`
	Global    *imageFunction  `cbor:"4,keyasint,omitempty"`
	Main      int             `cbor:"5,keyasint"`
}

// MarshalProgram serializes a program to CBOR bytes.
func MarshalProgram(p *Program) ([]byte, error) {
	img := imageFile{
		Magic:     ImageMagic,
		Version:   ImageVersion,
		Functions: make([]imageFunction, len(p.Functions)),
		Main:      p.Main,
	}
	for i, fn := range p.Functions {
		f, err := encodeFunction(fn)
		if err != nil {
			return nil, err
		}
		img.Functions[i] = f
	}
	if p.Global != nil {
		g, err := encodeFunction(p.Global)
		if err != nil {
			return nil, err
		}
		img.Global = &g
	}
	return cborEncMode.Marshal(&img)
}

// UnmarshalProgram deserializes a program from CBOR bytes.
func UnmarshalProgram(data []byte) (*Program, error) {
	var img imageFile
	if err := cbor.Unmarshal(data, &img); err != nil {
		return nil, fmt.Errorf("vm: unmarshal image: %w", err)
	}
	if img.Magic != ImageMagic {
		return nil, fmt.Errorf("vm: not a program image (magic %q)", img.Magic)
	}
	if img.Version != ImageVersion {
		return nil, fmt.Errorf("vm: unsupported image version %d", img.Version)
	}

	p := &Program{Main: img.Main, Functions: make([]*Function, len(img.Functions))}
	for i := range img.Functions {
		fn, err := decodeFunction(&img.Functions[i])
		if err != nil {
			return nil, err
		}
		p.Functions[i] = fn
	}
	if img.Global != nil {
		g, err := decodeFunction(img.Global)
		if err != nil {
			return nil, err
		}
		p.Global = g
	}
	return p, nil
}

func encodeFunction(fn *Function) (imageFunction, error) {
	out := imageFunction{
		Name:      fn.Name,
		Code:      make([]imageInstruction, len(fn.Code)),
		Consts:    make([]imageValue, len(fn.Consts)),
		NumLocals: fn.NumLocals,
	}
	for i, ins := range fn.Code {
		out.Code[i] = imageInstruction{Op: uint8(ins.Op), Arg: ins.Arg}
	}
	for i, c := range fn.Consts {
		v, err := encodeValue(c)
		if err != nil {
			return out, fmt.Errorf("vm: function %s const %d: %w", fn.Name, i, err)
		}
		out.Consts[i] = v
	}
	return out, nil
}

func decodeFunction(in *imageFunction) (*Function, error) {
	if in.NumLocals < 0 {
		return nil, fmt.Errorf("vm: function %s: negative local count %d", in.Name, in.NumLocals)
	}
	fn := &Function{
		Name:      in.Name,
		Code:      make([]Instruction, len(in.Code)),
		Consts:    make([]Value, len(in.Consts)),
		NumLocals: in.NumLocals,
	}
	for i, ins := range in.Code {
		op := Opcode(ins.Op)
		if !op.Known() {
			return nil, fmt.Errorf("vm: function %s: unknown opcode 0x%02X at %d", in.Name, ins.Op, i)
		}
		fn.Code[i] = Instruction{Op: op, Arg: ins.Arg}
	}
	for i := range in.Consts {
		v, err := decodeValue(&in.Consts[i])
		if err != nil {
			return nil, fmt.Errorf("vm: function %s const %d: %w", in.Name, i, err)
		}
		fn.Consts[i] = v
	}
	return fn, nil
}

func encodeValue(v Value) (imageValue, error) {
	switch x := v.(type) {
	case Fraction:
		return imageValue{Kind: imageFraction, Rat: x.r().RatString()}, nil
	case String:
		return imageValue{Kind: imageString, Str: string(x)}, nil
	case *Array:
		items := make([]imageValue, len(x.Items))
		for i, item := range x.Items {
			enc, err := encodeValue(item)
			if err != nil {
				return imageValue{}, err
			}
			items[i] = enc
		}
		return imageValue{Kind: imageArray, Items: items}, nil
	}
	return imageValue{}, fmt.Errorf("cannot encode %s", KindName(v))
}

func decodeValue(in *imageValue) (Value, error) {
	switch in.Kind {
	case imageFraction:
		r, ok := new(big.Rat).SetString(in.Rat)
		if !ok {
			return nil, fmt.Errorf("bad fraction %q", in.Rat)
		}
		return Fraction{rat: r}, nil
	case imageString:
		return String(in.Str), nil
	case imageArray:
		items := make([]Value, len(in.Items))
		for i := range in.Items {
			v, err := decodeValue(&in.Items[i])
			if err != nil {
				return nil, err
			}
			items[i] = v
		}
		return &Array{Items: items}, nil
	}
	return nil, fmt.Errorf("unknown value kind %d", in.Kind)
}
