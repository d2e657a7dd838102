package insts

import (
	"encoding/binary"

	"github.com/sarchlab/aarch64run/bitmatch"
)

// topClass is the outcome of the ARMv8 main encoding table lookup (ARM
// ARM C4.1), keyed on bits [28:25] of the code word.
type topClass uint8

const (
	classReserved topClass = iota
	classDPImmediate
	classBranchExcSys
	classLoadStore
	classDPRegister
)

var topClassMatcher = bitmatch.New[topClass]()

func init() {
	// Patterns pin bits 28-25 (char indices 3-6, MSB-first) and leave
	// every other bit a wildcard.
	topClassMatcher.Bind("xxx1000xxxxxxxxxxxxxxxxxxxxxxxxx", func(uint32) topClass { return classDPImmediate })
	topClassMatcher.Bind("xxx1001xxxxxxxxxxxxxxxxxxxxxxxxx", func(uint32) topClass { return classDPImmediate })
	topClassMatcher.Bind("xxx1010xxxxxxxxxxxxxxxxxxxxxxxxx", func(uint32) topClass { return classBranchExcSys })
	topClassMatcher.Bind("xxx1011xxxxxxxxxxxxxxxxxxxxxxxxx", func(uint32) topClass { return classBranchExcSys })
	topClassMatcher.Bind("xxx0100xxxxxxxxxxxxxxxxxxxxxxxxx", func(uint32) topClass { return classLoadStore })
	topClassMatcher.Bind("xxx0110xxxxxxxxxxxxxxxxxxxxxxxxx", func(uint32) topClass { return classLoadStore })
	topClassMatcher.Bind("xxx1100xxxxxxxxxxxxxxxxxxxxxxxxx", func(uint32) topClass { return classLoadStore })
	topClassMatcher.Bind("xxx1110xxxxxxxxxxxxxxxxxxxxxxxxx", func(uint32) topClass { return classLoadStore })
	topClassMatcher.Bind("xxx0101xxxxxxxxxxxxxxxxxxxxxxxxx", func(uint32) topClass { return classDPRegister })
	topClassMatcher.Bind("xxx0111xxxxxxxxxxxxxxxxxxxxxxxxx", func(uint32) topClass { return classDPRegister })
	topClassMatcher.Bind("xxx1101xxxxxxxxxxxxxxxxxxxxxxxxx", func(uint32) topClass { return classDPRegister })
	topClassMatcher.Bind("xxx1111xxxxxxxxxxxxxxxxxxxxxxxxx", func(uint32) topClass { return classDPRegister })
}

// Decoder turns 32-bit AArch64 code words into Instruction values. It is
// stateless: all of its pattern tables are package-level and built once
// at init time, so a Decoder is safe to share across goroutines (not
// that the single-threaded executor needs to).
type Decoder struct{}

// NewDecoder returns a ready-to-use Decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode reads a little-endian 32-bit word from bytes and resolves it to
// an Instruction, or returns *UnknownInstruction / *ReservedEncoding.
// It never panics on malformed input.
func (d *Decoder) Decode(bytes [4]byte, ip uint64) (Instruction, error) {
	word := binary.LittleEndian.Uint32(bytes[:])
	return d.DecodeWord(word, ip)
}

// DecodeWord is Decode without the byte-order step, useful for tests
// that already have a word.
func (d *Decoder) DecodeWord(word uint32, ip uint64) (Instruction, error) {
	class, ok := topClassMatcher.Handle(word)
	if !ok {
		return nil, &UnknownInstruction{Word: word, Ip: ip}
	}
	switch class {
	case classDPImmediate:
		return decodeDPImm(word, ip)
	case classBranchExcSys:
		return decodeBranch(word, ip)
	case classLoadStore:
		return decodeLoadStore(word, ip)
	case classDPRegister:
		return decodeDPReg(word, ip)
	}
	return nil, &UnknownInstruction{Word: word, Ip: ip}
}
