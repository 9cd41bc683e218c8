/*
 * SEL32 - Decimal conversion and byte string instructions.
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

import "github.com/rcornwell/SEL32/emu/memory"

/*
   Packed decimal is one doubleword, fifteen digits followed by a sign
   nibble. Signs A, C, E and F are plus, B and D are minus. CVD
   generates C or D.
*/

const (
	maxDecimal int64 = 999999999999999 // Largest packed value
	signPlus   uint64 = 0xc
	signMinus  uint64 = 0xd
)

// Convert packed decimal to binary.
func packedToBinary(v uint64) (int64, bool) {
	var n int64
	for i := 60; i > 0; i -= 4 {
		d := (v >> uint(i)) & 0xf
		if d > 9 {
			return 0, false
		}
		n = n*10 + int64(d)
	}
	switch v & 0xf {
	case 0xa, 0xc, 0xe, 0xf:
		return n, true
	case 0xb, 0xd:
		return -n, true
	}
	return 0, false
}

// Convert binary to packed decimal.
func binaryToPacked(n int64) (uint64, bool) {
	sign := signPlus
	if n < 0 {
		sign = signMinus
		n = -n
	}
	if n > maxDecimal || n < 0 {
		return 0, false
	}
	v := sign
	for i := 4; i < 64; i += 4 {
		v |= uint64(n%10) << uint(i)
		n /= 10
	}
	return v, true
}

// CVB, CVD. R2 holds address of packed doubleword, R1 the binary pair.
func (c *CPU) opDecimal(s *step) result {
	if !c.model.Decimal {
		return trap(TrapUnsupported, s.word)
	}
	r1, ok := c.pair(s.reg)
	if !ok {
		return trap(TrapInvalidReg, s.word)
	}
	addr := c.regs[s.r2] & c.addrMask()
	if (addr & 7) != 0 {
		return trap(TrapAddrSpec, addr)
	}
	c.lastEA = addr

	switch s.aug {
	case 0: // CVB
		v, f := c.acc.ReadDouble(addr, memory.Virtual)
		if f != memory.FaultNone {
			return faultResult(f, addr)
		}
		n, good := packedToBinary(v)
		if !good {
			c.psd.CC = CC1
			return next()
		}
		c.setPair(s.reg, r1, uint64(n))
		c.psd.CC = ccOf64(uint64(n))
	case 1: // CVD
		n := int64(c.getPair(s.reg, r1))
		v, good := binaryToPacked(n)
		if !good {
			c.psd.CC = CC1
			return next()
		}
		if f := c.acc.WriteDouble(addr, v, memory.Virtual); f != memory.FaultNone {
			return faultResult(f, addr)
		}
		c.psd.CC = ccOf64(uint64(n))
	default:
		return trap(TrapUndefined, s.word)
	}
	return next()
}

// MOVB, CMPB. R1 holds destination, R1+1 count and R2 source. Registers
// are updated after each byte so a fault can be restarted.
func (c *CPU) opString(s *step) result {
	if !c.model.String {
		return trap(TrapUnsupported, s.word)
	}
	r1, ok := c.pair(s.reg)
	if !ok || s.r2 == s.reg || s.r2 == r1 {
		return trap(TrapInvalidReg, s.word)
	}
	if s.aug > 1 {
		return trap(TrapUndefined, s.word)
	}
	mask := c.addrMask()

	for c.regs[r1] != 0 {
		dst := c.regs[s.reg] & mask
		src := c.regs[s.r2] & mask
		b, f := c.acc.ReadByte(src, memory.Virtual)
		if f != memory.FaultNone {
			return faultResult(f, src)
		}
		if s.aug == 0 {
			if f := c.acc.WriteByte(dst, b, memory.Virtual); f != memory.FaultNone {
				return faultResult(f, dst)
			}
		} else {
			d, f := c.acc.ReadByte(dst, memory.Virtual)
			if f != memory.FaultNone {
				return faultResult(f, dst)
			}
			if d != b {
				c.psd.CC = CC3
				if d > b {
					c.psd.CC = CC2
				}
				return next()
			}
		}
		c.regs[s.reg] = (dst + 1) & mask
		c.regs[s.r2] = (src + 1) & mask
		c.regs[r1]--
	}
	if s.aug == 1 {
		c.psd.CC = CC4
	}
	return next()
}
