/*
 * SEL32 - Floating point instructions.
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

package cpu

import (
	"math/bits"

	"github.com/rcornwell/SEL32/emu/memory"
)

/*
   Floating point numbers are base 16, excess 64 exponent.

      +--+--------------------+-------------------------------------+
      |S |     exponent       |            fraction                 |
      +--+--------------------+-------------------------------------+
       0  1                  7 8                                  31/63

   Single precision is held in one register, double in a pair.
*/

const (
	MSIGNL  uint64 = 0x8000000000000000 // Sign bit
	EMASKL  uint64 = 0x7f00000000000000 // Exponent
	MMASKL  uint64 = 0x00ffffffffffffff // Fraction
	SMASKL  uint64 = 0xffffffff00000000 // Single precision part
	guardHi uint64 = 0x0f00000000000000 // High digit with guard digit
	carryHi uint64 = 0xf000000000000000 // Carry out of fraction
)

// Unpacked float, fraction carries a guard digit.
type hexFloat struct {
	neg  bool
	exp  int
	frac uint64
}

func unpackFloat(v uint64) hexFloat {
	return hexFloat{
		neg:  (v & MSIGNL) != 0,
		exp:  int((v & EMASKL) >> 56),
		frac: (v & MMASKL) << 4,
	}
}

// Normalize fraction, returns false on exponent overflow.
func (h *hexFloat) normalize() bool {
	if h.frac == 0 {
		*h = hexFloat{}
		return true
	}
	for (h.frac & carryHi) != 0 {
		h.frac >>= 4
		h.exp++
	}
	for (h.frac & guardHi) == 0 {
		h.frac <<= 4
		h.exp--
	}
	if h.exp < 0 {
		*h = hexFloat{}
		return true
	}
	return h.exp <= 0x7f
}

// Pack float, dropping guard digit.
func (h hexFloat) pack() uint64 {
	v := (h.frac >> 4) & MMASKL
	if v == 0 {
		return 0
	}
	v |= (uint64(h.exp) << 56) & EMASKL
	if h.neg {
		v |= MSIGNL
	}
	return v
}

// Add two floats.
func floatAdd(a, b hexFloat) (hexFloat, bool) {
	if a.exp < b.exp {
		a, b = b, a
	}
	diff := a.exp - b.exp
	if diff > 15 {
		b.frac = 0
	} else {
		b.frac >>= uint(diff * 4)
	}
	r := hexFloat{neg: a.neg, exp: a.exp}
	switch {
	case a.neg == b.neg:
		r.frac = a.frac + b.frac
	case a.frac >= b.frac:
		r.frac = a.frac - b.frac
	default:
		r.frac = b.frac - a.frac
		r.neg = b.neg
	}
	ok := r.normalize()
	return r, ok
}

func floatMul(a, b hexFloat) (hexFloat, bool) {
	if a.frac == 0 || b.frac == 0 {
		return hexFloat{}, true
	}
	hi, lo := bits.Mul64(a.frac>>4, b.frac>>4)
	r := hexFloat{
		neg:  a.neg != b.neg,
		exp:  a.exp + b.exp - 64,
		frac: hi<<12 | lo>>52,
	}
	ok := r.normalize()
	return r, ok
}

// Divide, divisor must be normalized and nonzero.
func floatDiv(a, b hexFloat) (hexFloat, bool) {
	a.normalize()
	if a.frac == 0 {
		return hexFloat{}, true
	}
	f1 := a.frac >> 4
	q, _ := bits.Div64(f1>>4, f1<<60, b.frac>>4)
	r := hexFloat{
		neg:  a.neg != b.neg,
		exp:  a.exp - b.exp + 64,
		frac: q,
	}
	ok := r.normalize()
	return r, ok
}

// ADF, SUF, MPF, DVF.
func (c *CPU) opFloat(s *step) result {
	if !c.model.Float {
		return trap(TrapUnsupported, s.word)
	}
	ea, sz, f := c.effAddr(s)
	if f != memory.FaultNone {
		return faultResult(f, ea)
	}

	var a, b uint64
	var r1 uint8
	switch sz {
	case sizeWord:
		v, f := c.acc.ReadWord(ea, memory.Virtual)
		if f != memory.FaultNone {
			return faultResult(f, ea)
		}
		a = uint64(c.regs[s.reg]) << 32
		b = uint64(v) << 32
	case sizeDouble:
		v, p, r, ok := c.loadDouble(s, ea)
		if !ok {
			return r
		}
		r1 = p
		a = c.getPair(s.reg, r1)
		b = v
	default:
		return trap(TrapAddrSpec, ea)
	}

	fa := unpackFloat(a)
	fb := unpackFloat(b)
	var res hexFloat
	var ok bool
	switch s.opcode {
	case OpADF:
		res, ok = floatAdd(fa, fb)
	case OpSUF:
		if fb.frac != 0 {
			fb.neg = !fb.neg
		}
		res, ok = floatAdd(fa, fb)
	case OpMPF:
		res, ok = floatMul(fa, fb)
	case OpDVF:
		fb.normalize()
		if fb.frac == 0 {
			return trap(TrapDivide, s.word)
		}
		res, ok = floatDiv(fa, fb)
	}

	v := res.pack()
	if sz == sizeWord {
		v &= SMASKL
		c.regs[s.reg] = uint32(v >> 32)
	} else {
		c.setPair(s.reg, r1, v)
	}
	c.psd.CC = ccOf64(v)
	if !ok {
		c.psd.CC |= CC1
	}
	return c.arith(!ok, s)
}
