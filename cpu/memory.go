package cpu

import "encoding/binary"

// Memory is the contract the CPU executes against. It is deliberately the
// only collaborator the core engine depends on for storage: program loading,
// backing-store allocation, and any peripheral DMA all happen through these
// three methods.
//
// Implementations are not required to bounds-check ReadByte/WriteByte; the
// CPU checks every word and byte address against MAXVAL and Len() before
// calling them (wordAddrOK/byteAddrOK in memops.go) and traps ILL on an
// out-of-range access. ByteMemory below does no checking of its own: an
// out-of-range address panics like any slice index.
type Memory interface {
	Len() int
	ReadByte(addr uint32) byte
	WriteByte(addr uint32, b byte)
}

// ByteMemory is a flat, fixed-size byte-addressable backing store.
type ByteMemory []byte

// NewByteMemory allocates a zeroed memory of the given size.
func NewByteMemory(size int) ByteMemory {
	return make(ByteMemory, size)
}

func (m ByteMemory) Len() int { return len(m) }

func (m ByteMemory) ReadByte(addr uint32) byte {
	return m[addr]
}

func (m ByteMemory) WriteByte(addr uint32, b byte) {
	m[addr] = b
}

// readWord reads 4 consecutive big-endian bytes starting at addr. Callers
// must have already validated addr+3 against the memory's length.
func readWord(mem Memory, addr uint32) uint32 {
	var buf [4]byte
	for i := range buf {
		buf[i] = mem.ReadByte(addr + uint32(i))
	}
	return binary.BigEndian.Uint32(buf[:])
}

// writeWord writes the low 32 bits of value as 4 big-endian bytes starting
// at addr. Callers must have already validated addr+3 against the memory's
// length.
func writeWord(mem Memory, addr uint32, value uint32) {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], value)
	for i, b := range buf {
		mem.WriteByte(addr+uint32(i), b)
	}
}
