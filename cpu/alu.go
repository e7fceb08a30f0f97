package cpu

import "math/big"

// maxVal and minVal are the wraparound boundaries used to reduce
// add/mul/sub results, per spec.md §3/§4.2. Note maxVal is used as a
// modulus (not 2^32), which produces the documented anomaly where
// maxVal+1 reduces to 1 and maxVal itself reduces to 0 — preserved
// verbatim from original_source/pyarch/cpu.py rather than "fixed" into a
// conventional two's-complement wrap (see DESIGN.md Open Question #1).
const (
	maxVal int64 = (1 << 32) - 1
	minVal int64 = -(1 << 32)
)

// floorMod reproduces Python's `%` operator: the result always has the
// same sign as m (floors toward negative infinity), unlike Go's `%`, which
// truncates toward zero and takes the sign of a. This is the load-bearing
// piece of Open Questions #1 and #2: add/mul reduce against the positive
// modulus maxVal, sub reduces against the negative modulus minVal, and
// both need Python's floor semantics to match the documented anomalies
// exactly.
func floorMod(a, m int64) int64 {
	r := a % m
	if r != 0 && (r < 0) != (m < 0) {
		r += m
	}
	return r
}

// floorDiv reproduces Python's `//` operator (floor division), used by the
// div opcode's "floor-toward-negative-infinity" semantics (spec.md §4.2).
func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// reduceAdd applies the add/mul overflow rule: raw is reduced mod maxVal,
// carry is set iff the raw (pre-reduction) result exceeded maxVal.
func reduceAdd(raw int64) (result int64, carry bool) {
	return floorMod(raw, maxVal), raw > maxVal
}

// reduceAddBig is reduceAdd's counterpart for a raw value too wide for
// int64 (mul's product of two near-MAXVAL operands). maxVal is positive, so
// math/big's Mod (Euclidean: 0 <= r < |m|) agrees with floorMod here and the
// reduced result always fits back into int64.
func reduceAddBig(raw *big.Int) (result int64, carry bool) {
	m := big.NewInt(maxVal)
	r := new(big.Int).Mod(raw, m)
	return r.Int64(), raw.Cmp(m) > 0
}

// reduceSub applies the sub overflow rule: raw is reduced mod minVal
// (a negative modulus — see floorMod), carry is set iff raw fell below
// minVal.
func reduceSub(raw int64) (result int64, carry bool) {
	return floorMod(raw, minVal), raw < minVal
}

func (c *CPU) setCarry(v bool) {
	if v {
		c.reg.set(RegCARRY, 1)
	} else {
		c.reg.set(RegCARRY, 0)
	}
}

// add implements r3 <- r1 + r2, CARRY <- raw > MAXVAL.
func (c *CPU) add(r1, r2, r3 uint32) {
	raw := c.reg.get(r1) + c.reg.get(r2)
	result, carry := reduceAdd(raw)
	c.reg.set(r3, result)
	c.setCarry(carry)
}

// addi implements r2 <- r1 + imm via the scratch register, same as the
// register form.
func (c *CPU) addi(r1 uint32, imm int64, r2 uint32) {
	c.reg.set(RegRESVD, imm)
	c.add(r1, RegRESVD, r2)
}

// sub implements r3 <- r1 - r2, CARRY <- raw < MINVAL. The reduction below
// MINVAL deliberately reproduces the quirky behavior documented in
// DESIGN.md Open Question #2: any positive raw difference is shifted
// down by 2^32, not just ones that actually overflow 32 bits.
func (c *CPU) sub(r1, r2, r3 uint32) {
	raw := c.reg.get(r1) - c.reg.get(r2)
	result, carry := reduceSub(raw)
	c.reg.set(r3, result)
	c.setCarry(carry)
}

func (c *CPU) subi(r1 uint32, imm int64, r2 uint32) {
	c.reg.set(RegRESVD, imm)
	c.sub(r1, RegRESVD, r2)
}

// mul implements r3 <- r1 * r2 under the same reduction rule as add. The
// plain int64 product of two legal register values (each up to MAXVAL,
// ~2^32) can reach ~2^64 and silently wrap an int64 (max ~2^63) before
// reduction ever sees it, so the raw product is computed with math/big
// rather than a bare `*`, per spec.md §4.2's "computed in wide integer
// before reduction."
func (c *CPU) mul(r1, r2, r3 uint32) {
	raw := new(big.Int).Mul(big.NewInt(c.reg.get(r1)), big.NewInt(c.reg.get(r2)))
	result, carry := reduceAddBig(raw)
	c.reg.set(r3, result)
	c.setCarry(carry)
}

func (c *CPU) muli(r1 uint32, imm int64, r2 uint32) {
	c.reg.set(RegRESVD, imm)
	c.mul(r1, RegRESVD, r2)
}

// div implements r3 <- r1 / r2 with floor-toward-negative-infinity
// semantics. Division by zero traps DIV and leaves r3 untouched. CARRY is
// always cleared on success, per spec.md §4.2.
func (c *CPU) div(r1, r2, r3 uint32) {
	divisor := c.reg.get(r2)
	if divisor == 0 {
		c.trapLocked(TrapDIV)
		return
	}

	c.reg.set(r3, floorDiv(c.reg.get(r1), divisor))
	c.setCarry(false)
}

func (c *CPU) divi(r1 uint32, imm int64, r2 uint32) {
	c.reg.set(RegRESVD, imm)
	c.div(r1, RegRESVD, r2)
}

// Logical and shift ops never touch CARRY (spec.md §4.2).

func (c *CPU) and(r1, r2, r3 uint32) {
	c.reg.set(r3, c.reg.get(r1)&c.reg.get(r2))
}

func (c *CPU) andi(r1 uint32, imm int64, r2 uint32) {
	c.reg.set(r2, c.reg.get(r1)&imm)
}

func (c *CPU) or(r1, r2, r3 uint32) {
	c.reg.set(r3, c.reg.get(r1)|c.reg.get(r2))
}

func (c *CPU) ori(r1 uint32, imm int64, r2 uint32) {
	c.reg.set(r2, c.reg.get(r1)|imm)
}

func (c *CPU) xor(r1, r2, r3 uint32) {
	c.reg.set(r3, c.reg.get(r1)^c.reg.get(r2))
}

func (c *CPU) xori(r1 uint32, imm int64, r2 uint32) {
	c.reg.set(r2, c.reg.get(r1)^imm)
}

// not implements r2 <- bitwise-complement(r1). Go's ^x on a signed integer
// is exactly -(x+1), which is what Python's arbitrary-precision ~x computes
// too, so this needs no special-casing.
func (c *CPU) not(r1, r2 uint32) {
	c.reg.set(r2, ^c.reg.get(r1))
}

// shiftAmount clamps a shift count to [0, 63]. Neither spec.md nor
// original_source/pyarch/cpu.py defines behavior for a negative or
// oversized shift count (Python's << would simply raise on a negative
// count); clamping avoids a Go runtime panic on a negative/huge shift
// while leaving ordinary programs unaffected.
func shiftAmount(v int64) uint {
	if v < 0 {
		return 0
	}
	if v > 63 {
		return 63
	}
	return uint(v)
}

func (c *CPU) shl(r1, r2, r3 uint32) {
	c.reg.set(r3, c.reg.get(r1)<<shiftAmount(c.reg.get(r2)))
}

func (c *CPU) shli(r1 uint32, imm int64, r2 uint32) {
	c.reg.set(r2, c.reg.get(r1)<<shiftAmount(imm))
}

func (c *CPU) shr(r1, r2, r3 uint32) {
	c.reg.set(r3, c.reg.get(r1)>>shiftAmount(c.reg.get(r2)))
}

func (c *CPU) shri(r1 uint32, imm int64, r2 uint32) {
	c.reg.set(r2, c.reg.get(r1)>>shiftAmount(imm))
}
