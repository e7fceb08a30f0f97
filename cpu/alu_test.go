package cpu

import (
	"math/big"
	"testing"
)

func TestFloorMod(t *testing.T) {
	cases := []struct{ a, m, want int64 }{
		{7, 3, 1},
		{-7, 3, 2},
		{7, -3, -2},
		{-7, -3, -1},
		{0, 5, 0},
	}
	for _, c := range cases {
		got := floorMod(c.a, c.m)
		assert(t, got == c.want, "floorMod(%d, %d) = %d, want %d", c.a, c.m, got, c.want)
	}
}

func TestFloorDiv(t *testing.T) {
	cases := []struct{ a, b, want int64 }{
		{7, 2, 3},
		{-7, 2, -4},
		{7, -2, -4},
		{-7, -2, 3},
	}
	for _, c := range cases {
		got := floorDiv(c.a, c.b)
		assert(t, got == c.want, "floorDiv(%d, %d) = %d, want %d", c.a, c.b, got, c.want)
	}
}

// reduceAdd's mod-against-MAXVAL anomaly: MAXVAL reduces to 0, MAXVAL+1 to
// 1, not 0, because the modulus is MAXVAL rather than 2^32. See DESIGN.md
// Open Question #1.
func TestReduceAddAnomaly(t *testing.T) {
	cases := []struct {
		raw        int64
		wantResult int64
		wantCarry  bool
	}{
		{0, 0, false},
		{maxVal, 0, false},
		{maxVal + 1, 1, true},
		{maxVal + 2, 2, true},
	}
	for _, c := range cases {
		result, carry := reduceAdd(c.raw)
		assert(t, result == c.wantResult, "reduceAdd(%d) result = %d, want %d", c.raw, result, c.wantResult)
		assert(t, carry == c.wantCarry, "reduceAdd(%d) carry = %v, want %v", c.raw, carry, c.wantCarry)
	}
}

// reduceSub's mod-against-MINVAL quirk: any positive raw difference is
// shifted down by 2^32, not just ones that overflow 32 bits. See DESIGN.md
// Open Question #2.
func TestReduceSubQuirk(t *testing.T) {
	cases := []struct {
		raw        int64
		wantResult int64
		wantCarry  bool
	}{
		{0, 0, false},
		{5, minVal + 5, false},
		{minVal, 0, false},
		{minVal - 1, -1, true},
	}
	for _, c := range cases {
		result, carry := reduceSub(c.raw)
		assert(t, result == c.wantResult, "reduceSub(%d) result = %d, want %d", c.raw, result, c.wantResult)
		assert(t, carry == c.wantCarry, "reduceSub(%d) carry = %v, want %v", c.raw, carry, c.wantCarry)
	}
}

func TestArithmeticOpsRoundTrip(t *testing.T) {
	t.Run("add", func(t *testing.T) {
		c := newTestCPU(t, nil)
		c.reg.set(1, 5)
		c.reg.set(2, 9)
		c.add(1, 2, 8)
		assert(t, c.Register(8) == 14, "add: R8 = %d, want 14", c.Register(8))
		assert(t, c.Register(RegCARRY) == 0, "add: CARRY = %d, want 0", c.Register(RegCARRY))
	})

	t.Run("addi", func(t *testing.T) {
		c := newTestCPU(t, nil)
		c.reg.set(1, 5)
		c.addi(1, 9, 8)
		assert(t, c.Register(8) == 14, "addi: R8 = %d, want 14", c.Register(8))
	})

	t.Run("sub", func(t *testing.T) {
		c := newTestCPU(t, nil)
		c.reg.set(1, 9)
		c.reg.set(2, 5)
		c.sub(1, 2, 8)
		assert(t, c.Register(8) == minVal+4, "sub: R8 = %d, want %d", c.Register(8), minVal+4)
	})

	t.Run("mul", func(t *testing.T) {
		c := newTestCPU(t, nil)
		c.reg.set(1, 6)
		c.reg.set(2, 7)
		c.mul(1, 2, 8)
		assert(t, c.Register(8) == 42, "mul: R8 = %d, want 42", c.Register(8))
	})

	// Both operands are legal register values (well under MAXVAL) but their
	// plain product, ~1.225e19, overflows int64 (max ~9.223e18) before
	// reduction; mul must compute the raw product wide enough to reduce it
	// correctly instead of silently wrapping.
	t.Run("mul near MAXVAL overflows int64 product", func(t *testing.T) {
		c := newTestCPU(t, nil)
		const big1 = 3_500_000_000
		const big2 = 3_500_000_000
		c.reg.set(1, big1)
		c.reg.set(2, big2)
		c.mul(1, 2, 8)

		want, wantCarry := reduceAddBig(new(big.Int).Mul(big.NewInt(big1), big.NewInt(big2)))
		assert(t, c.Register(8) == want, "mul: R8 = %d, want %d", c.Register(8), want)
		assert(t, (c.Register(RegCARRY) != 0) == wantCarry, "mul: CARRY = %d, want carry=%v", c.Register(RegCARRY), wantCarry)
	})

	t.Run("div floor semantics", func(t *testing.T) {
		c := newTestCPU(t, nil)
		c.reg.set(1, -7)
		c.reg.set(2, 2)
		c.div(1, 2, 8)
		assert(t, c.Register(8) == -4, "div: R8 = %d, want -4", c.Register(8))
		assert(t, c.Register(RegCARRY) == 0, "div: CARRY = %d, want 0", c.Register(RegCARRY))
	})

	t.Run("and or xor not", func(t *testing.T) {
		c := newTestCPU(t, nil)
		c.reg.set(1, 0b1100)
		c.reg.set(2, 0b1010)
		c.and(1, 2, 3)
		assert(t, c.Register(3) == 0b1000, "and: R3 = %#b, want %#b", c.Register(3), 0b1000)
		c.or(1, 2, 3)
		assert(t, c.Register(3) == 0b1110, "or: R3 = %#b, want %#b", c.Register(3), 0b1110)
		c.xor(1, 2, 3)
		assert(t, c.Register(3) == 0b0110, "xor: R3 = %#b, want %#b", c.Register(3), 0b0110)
		c.not(1, 3)
		assert(t, c.Register(3) == ^int64(0b1100), "not: R3 = %d, want %d", c.Register(3), ^int64(0b1100))
	})

	t.Run("shl shr", func(t *testing.T) {
		c := newTestCPU(t, nil)
		c.reg.set(1, 1)
		c.reg.set(2, 4)
		c.shl(1, 2, 3)
		assert(t, c.Register(3) == 16, "shl: R3 = %d, want 16", c.Register(3))
		c.reg.set(1, 16)
		c.shr(1, 2, 3)
		assert(t, c.Register(3) == 1, "shr: R3 = %d, want 1", c.Register(3))
	})
}

func TestDivByZeroLeavesDestUntouched(t *testing.T) {
	c := newTestCPU(t, nil)
	c.reg.set(1, 10)
	c.reg.set(2, 0)
	c.reg.set(3, 99)
	c.div(1, 2, 3)
	assert(t, c.Register(3) == 99, "div by zero must leave dest untouched, got %d", c.Register(3))
	assert(t, c.Register(RegTRAP) == 1, "expected TRAP = 1 after div by zero")
	assert(t, c.Register(RegPC) == TrapDIV, "expected PC = DIV vector")
}
