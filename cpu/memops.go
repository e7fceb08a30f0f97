package cpu

// wordAddrOK validates a word-granularity address per spec.md §4.1: traps
// ILL if addr+3 exceeds MAXVAL, if addr is negative, or — since the Go
// implementation knows the concrete backing length, unlike the Python
// prototype's bare list — if the access would run off the end of memory.
func (c *CPU) wordAddrOK(addr int64) bool {
	if addr < 0 || addr+3 > maxVal {
		c.trapLocked(TrapILL)
		return false
	}
	if addr+3 >= int64(c.mem.Len()) {
		c.trapLocked(TrapILL)
		return false
	}
	return true
}

// loadw reads 4 consecutive big-endian bytes at addr into register r.
func (c *CPU) loadw(r uint32, addr int64) {
	if !c.wordAddrOK(addr) {
		return
	}
	c.reg.set(r, int64(readWord(c.mem, uint32(addr))))
}

func (c *CPU) loadwr(r1, r2 uint32) {
	c.loadw(r1, c.reg.get(r2))
}

func (c *CPU) loadwi(r uint32, val int64) {
	c.reg.set(r, val)
}

// savew writes the low 32 bits of register r as 4 big-endian bytes at addr.
func (c *CPU) savew(r uint32, addr int64) {
	if !c.wordAddrOK(addr) {
		return
	}
	writeWord(c.mem, uint32(addr), uint32(c.reg.get(r)))
}

func (c *CPU) savewr(r1, r2 uint32) {
	c.savew(r1, c.reg.get(r2))
}

func (c *CPU) savewi(val int64, addr int64) {
	c.reg.set(RegRESVD, val)
	c.savew(RegRESVD, addr)
}

// byteAddrOK validates a byte-granularity address. spec.md §4.1 notes the
// source performs no such check ("best-effort"), but explicitly allows
// implementations to add one; since Go will otherwise panic on an
// out-of-range slice index, this implementation does.
func (c *CPU) byteAddrOK(addr int64) bool {
	if addr < 0 || addr >= int64(c.mem.Len()) {
		c.trapLocked(TrapILL)
		return false
	}
	return true
}

func (c *CPU) loadb(r uint32, addr int64) {
	if !c.byteAddrOK(addr) {
		return
	}
	c.reg.set(r, int64(c.mem.ReadByte(uint32(addr))))
}

func (c *CPU) loadbr(r1, r2 uint32) {
	c.loadb(r1, c.reg.get(r2))
}

func (c *CPU) loadbi(r uint32, val int64) {
	c.reg.set(r, val&0xff)
}

func (c *CPU) saveb(r uint32, addr int64) {
	if !c.byteAddrOK(addr) {
		return
	}
	c.mem.WriteByte(uint32(addr), byte(c.reg.get(r)))
}

func (c *CPU) savebr(r1, r2 uint32) {
	c.saveb(r1, c.reg.get(r2))
}

func (c *CPU) savebi(val int64, addr int64) {
	c.reg.set(RegRESVD, val&0xff)
	c.saveb(RegRESVD, addr)
}
