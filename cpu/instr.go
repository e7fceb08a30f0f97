package cpu

// OperandKind enumerates the four operand shapes a decoded instruction slot
// can carry, per spec.md §4.5.
type OperandKind int

const (
	KindNone OperandKind = iota
	KindReg
	KindImmed
	KindAddr
)

// Opcode values, fixed per spec.md §6's opcode table.
type Opcode uint32

const (
	OpNop Opcode = iota
	OpSavew
	OpSavewr
	OpSavewi
	OpLoadw
	OpLoadwr
	OpLoadwi
	OpSaveb
	OpSavebr
	OpSavebi
	OpLoadb
	OpLoadbr
	OpLoadbi
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpAddi
	OpSubi
	OpMuli
	OpDivi
	OpJmp
	OpJmpeq
	OpJmpne
	OpJmplt
	OpJmpgt
	OpJmple
	OpJmpge
	OpJmpeqi
	OpJmpnei
	OpJmplti
	OpJmpgti
	OpJmplei
	OpJmpgei
	OpHalt
	OpIntr
	OpRet
	OpEni
	OpDsi
	OpWait
	OpSwap
	OpCopy
	OpAnd
	OpOr
	OpXor
	OpAndi
	OpOri
	OpXori
	OpNot
	OpShl
	OpShr
	OpShli
	OpShri
	opcodeTableLen
)

type instrEntry struct {
	kinds [3]OperandKind
}

// instrTable is the fixed 0x35-entry opcode -> operand-kind-triple table,
// transcribed from original_source/pyarch/cpu.py's INSTRS list. The actual
// dispatch (which function runs, and in what operand order) lives in
// decodeAndDispatchLocked's switch below rather than as function values in
// this table, per spec.md's REDESIGN FLAGS note preferring a tagged-enum
// total switch over the source's function-pointer table.
var instrTable = [opcodeTableLen]instrEntry{
	OpNop:    {[3]OperandKind{KindNone, KindNone, KindNone}},
	OpSavew:  {[3]OperandKind{KindReg, KindAddr, KindNone}},
	OpSavewr: {[3]OperandKind{KindReg, KindReg, KindNone}},
	OpSavewi: {[3]OperandKind{KindImmed, KindAddr, KindNone}},
	OpLoadw:  {[3]OperandKind{KindReg, KindAddr, KindNone}},
	OpLoadwr: {[3]OperandKind{KindReg, KindReg, KindNone}},
	OpLoadwi: {[3]OperandKind{KindReg, KindImmed, KindNone}},
	OpSaveb:  {[3]OperandKind{KindReg, KindAddr, KindNone}},
	OpSavebr: {[3]OperandKind{KindReg, KindReg, KindNone}},
	OpSavebi: {[3]OperandKind{KindImmed, KindAddr, KindNone}},
	OpLoadb:  {[3]OperandKind{KindReg, KindAddr, KindNone}},
	OpLoadbr: {[3]OperandKind{KindReg, KindReg, KindNone}},
	OpLoadbi: {[3]OperandKind{KindReg, KindImmed, KindNone}},
	OpAdd:    {[3]OperandKind{KindReg, KindReg, KindReg}},
	OpSub:    {[3]OperandKind{KindReg, KindReg, KindReg}},
	OpMul:    {[3]OperandKind{KindReg, KindReg, KindReg}},
	OpDiv:    {[3]OperandKind{KindReg, KindReg, KindReg}},
	OpAddi:   {[3]OperandKind{KindReg, KindImmed, KindReg}},
	OpSubi:   {[3]OperandKind{KindReg, KindImmed, KindReg}},
	OpMuli:   {[3]OperandKind{KindReg, KindImmed, KindReg}},
	OpDivi:   {[3]OperandKind{KindReg, KindImmed, KindReg}},
	OpJmp:    {[3]OperandKind{KindAddr, KindNone, KindNone}},
	OpJmpeq:  {[3]OperandKind{KindReg, KindReg, KindAddr}},
	OpJmpne:  {[3]OperandKind{KindReg, KindReg, KindAddr}},
	OpJmplt:  {[3]OperandKind{KindReg, KindReg, KindAddr}},
	OpJmpgt:  {[3]OperandKind{KindReg, KindReg, KindAddr}},
	OpJmple:  {[3]OperandKind{KindReg, KindReg, KindAddr}},
	OpJmpge:  {[3]OperandKind{KindReg, KindReg, KindAddr}},
	OpJmpeqi: {[3]OperandKind{KindReg, KindImmed, KindAddr}},
	OpJmpnei: {[3]OperandKind{KindReg, KindImmed, KindAddr}},
	OpJmplti: {[3]OperandKind{KindReg, KindImmed, KindAddr}},
	OpJmpgti: {[3]OperandKind{KindReg, KindImmed, KindAddr}},
	OpJmplei: {[3]OperandKind{KindReg, KindImmed, KindAddr}},
	OpJmpgei: {[3]OperandKind{KindReg, KindImmed, KindAddr}},
	OpHalt:   {[3]OperandKind{KindNone, KindNone, KindNone}},
	OpIntr:   {[3]OperandKind{KindNone, KindNone, KindNone}},
	OpRet:    {[3]OperandKind{KindNone, KindNone, KindNone}},
	OpEni:    {[3]OperandKind{KindNone, KindNone, KindNone}},
	OpDsi:    {[3]OperandKind{KindNone, KindNone, KindNone}},
	OpWait:   {[3]OperandKind{KindNone, KindNone, KindNone}},
	OpSwap:   {[3]OperandKind{KindReg, KindReg, KindNone}},
	OpCopy:   {[3]OperandKind{KindReg, KindReg, KindNone}},
	OpAnd:    {[3]OperandKind{KindReg, KindReg, KindReg}},
	OpOr:     {[3]OperandKind{KindReg, KindReg, KindReg}},
	OpXor:    {[3]OperandKind{KindReg, KindReg, KindReg}},
	OpAndi:   {[3]OperandKind{KindReg, KindImmed, KindReg}},
	OpOri:    {[3]OperandKind{KindReg, KindImmed, KindReg}},
	OpXori:   {[3]OperandKind{KindReg, KindImmed, KindReg}},
	OpNot:    {[3]OperandKind{KindReg, KindReg, KindNone}},
	OpShl:    {[3]OperandKind{KindReg, KindReg, KindReg}},
	OpShr:    {[3]OperandKind{KindReg, KindReg, KindReg}},
	OpShli:   {[3]OperandKind{KindReg, KindImmed, KindReg}},
	OpShri:   {[3]OperandKind{KindReg, KindImmed, KindReg}},
}

// fetchWord reads the word at PC directly (bypassing RESVD, which the
// decoder reserves strictly for immediate materialization per spec.md
// §4.5), then advances PC by 4. It reuses wordAddrOK's bounds check (the
// same one loadw/savew run their addresses through) rather than indexing
// memory directly: without it, a zero-padded image with no trailing halt
// decodes its padding as an endless run of nop, PC keeps climbing past
// Len(), and the next ReadByte panics instead of trapping. ok is false iff
// a trap was raised, in which case the caller must not continue decoding.
func (c *CPU) fetchWord() (word uint32, ok bool) {
	addr := int64(uint32(c.reg.get(RegPC)))
	if !c.wordAddrOK(addr) {
		return 0, false
	}
	w := readWord(c.mem, uint32(addr))
	c.reg.set(RegPC, c.reg.get(RegPC)+4)
	return w, true
}

// decodeAndDispatchLocked runs one atomic fetch-decode-dispatch transaction
// under the already-held CPU lock (spec.md §4.5/§4.6). It returns true iff
// the dispatched instruction was halt, so Step can run finalizeHalt outside
// the lock.
func (c *CPU) decodeAndDispatchLocked() bool {
	opcode, ok := c.fetchWord()
	if !ok {
		return false
	}
	op1w, ok := c.fetchWord()
	if !ok {
		return false
	}
	op2w, ok := c.fetchWord()
	if !ok {
		return false
	}
	op3w, ok := c.fetchWord()
	if !ok {
		return false
	}
	op1, op2, op3 := int64(int32(op1w)), int64(int32(op2w)), int64(int32(op3w))

	if opcode >= uint32(opcodeTableLen) {
		c.trapLocked(TrapILL)
		return false
	}

	entry := instrTable[opcode]
	operands := [3]int64{op1, op2, op3}
	// IMMED operands are full-width unsigned words (0xFFFFFFFE loads as
	// 4294967294); REG and ADDR operands stay sign-extended, so an ADDR word
	// of 0xFFFFFFFF is the negative address -1.
	rawWords := [3]uint32{op1w, op2w, op3w}
	for i, kind := range entry.kinds {
		if kind == KindImmed {
			operands[i] = int64(rawWords[i])
		}
	}
	for i, kind := range entry.kinds {
		if kind == KindReg && (operands[i] < 0 || operands[i] > MaxUserRegister) {
			c.trapLocked(TrapILL)
			return false
		}
	}

	r := func(i int) uint32 { return uint32(operands[i]) }

	switch Opcode(opcode) {
	case OpNop:
		c.nop()
	case OpSavew:
		c.savew(r(0), operands[1])
	case OpSavewr:
		c.savewr(r(0), r(1))
	case OpSavewi:
		c.savewi(operands[0], operands[1])
	case OpLoadw:
		c.loadw(r(0), operands[1])
	case OpLoadwr:
		c.loadwr(r(0), r(1))
	case OpLoadwi:
		c.loadwi(r(0), operands[1])
	case OpSaveb:
		c.saveb(r(0), operands[1])
	case OpSavebr:
		c.savebr(r(0), r(1))
	case OpSavebi:
		c.savebi(operands[0], operands[1])
	case OpLoadb:
		c.loadb(r(0), operands[1])
	case OpLoadbr:
		c.loadbr(r(0), r(1))
	case OpLoadbi:
		c.loadbi(r(0), operands[1])
	case OpAdd:
		c.add(r(0), r(1), r(2))
	case OpSub:
		c.sub(r(0), r(1), r(2))
	case OpMul:
		c.mul(r(0), r(1), r(2))
	case OpDiv:
		c.div(r(0), r(1), r(2))
	case OpAddi:
		c.addi(r(0), operands[1], r(2))
	case OpSubi:
		c.subi(r(0), operands[1], r(2))
	case OpMuli:
		c.muli(r(0), operands[1], r(2))
	case OpDivi:
		c.divi(r(0), operands[1], r(2))
	case OpJmp:
		c.jmp(operands[0])
	case OpJmpeq:
		c.jmpeq(r(0), r(1), operands[2])
	case OpJmpne:
		c.jmpne(r(0), r(1), operands[2])
	case OpJmplt:
		c.jmplt(r(0), r(1), operands[2])
	case OpJmpgt:
		c.jmpgt(r(0), r(1), operands[2])
	case OpJmple:
		c.jmple(r(0), r(1), operands[2])
	case OpJmpge:
		c.jmpge(r(0), r(1), operands[2])
	case OpJmpeqi:
		c.jmpeqi(r(0), operands[1], operands[2])
	case OpJmpnei:
		c.jmpnei(r(0), operands[1], operands[2])
	case OpJmplti:
		c.jmplti(r(0), operands[1], operands[2])
	case OpJmpgti:
		c.jmpgti(r(0), operands[1], operands[2])
	case OpJmplei:
		c.jmplei(r(0), operands[1], operands[2])
	case OpJmpgei:
		c.jmpgei(r(0), operands[1], operands[2])
	case OpHalt:
		c.halted.Store(true)
		return true
	case OpIntr:
		c.intrLocked()
	case OpRet:
		c.retLocked()
	case OpEni:
		c.eniLocked()
	case OpDsi:
		c.dsiLocked()
	case OpWait:
		c.Wait()
	case OpSwap:
		c.swap(r(0), r(1))
	case OpCopy:
		c.copy(r(0), r(1))
	case OpAnd:
		c.and(r(0), r(1), r(2))
	case OpOr:
		c.or(r(0), r(1), r(2))
	case OpXor:
		c.xor(r(0), r(1), r(2))
	case OpAndi:
		c.andi(r(0), operands[1], r(2))
	case OpOri:
		c.ori(r(0), operands[1], r(2))
	case OpXori:
		c.xori(r(0), operands[1], r(2))
	case OpNot:
		c.not(r(0), r(1))
	case OpShl:
		c.shl(r(0), r(1), r(2))
	case OpShr:
		c.shr(r(0), r(1), r(2))
	case OpShli:
		c.shli(r(0), operands[1], r(2))
	case OpShri:
		c.shri(r(0), operands[1], r(2))
	}

	return false
}
