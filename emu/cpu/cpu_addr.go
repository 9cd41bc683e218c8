/*
 * SEL32 - Effective address and operand access.
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
	"github.com/rcornwell/SEL32/emu/memory"
)

// Return mask for current addressing mode.
func (c *CPU) addrMask() uint32 {
	switch {
	case c.psd.RealExt && c.model.RealExt:
		return realExtMask
	case c.psd.Ext:
		return extMask
	}
	return basicMask
}

// Operand size selected by F bit and low address bits.
func opSize(f bool, field uint32) uint8 {
	if f {
		return sizeByte
	}
	switch field & 3 {
	case 0:
		return sizeWord
	case 2:
		return sizeDouble
	}
	return sizeHalf
}

// Compute effective address of memory reference instruction.
func (c *CPU) effAddr(s *step) (uint32, uint8, memory.Fault) {
	addr := s.field
	sz := opSize(s.f, addr)

	if s.indirect {
		ptr, f := c.acc.ReadWord(addr&c.addrMask()&^3, memory.Virtual)
		if f != memory.FaultNone {
			c.lastEA = addr
			return addr, sz, f
		}
		low := addr & 3
		if c.psd.RealExt && c.model.RealExt && (ptr&extPointer) != 0 {
			addr = ptr & realExtMask
		} else {
			addr = ptr & fieldMask
		}
		addr = (addr &^ 3) | low
	}

	if s.x != 0 {
		addr += c.regs[s.x] << sz
	}
	addr &= c.addrMask()

	switch sz {
	case sizeHalf:
		addr &^= 1
	case sizeWord:
		addr &^= 3
	case sizeDouble:
		addr &^= 7
	}
	c.lastEA = addr
	return addr, sz, memory.FaultNone
}

// Read operand, bytes are zero extended and halfwords sign extended.
func (c *CPU) readOperand(addr uint32, sz uint8) (uint32, memory.Fault) {
	switch sz {
	case sizeByte:
		return c.acc.ReadByte(addr, memory.Virtual)
	case sizeHalf:
		v, f := c.acc.ReadHalf(addr, memory.Virtual)
		return uint32(int32(int16(v))), f
	}
	return c.acc.ReadWord(addr, memory.Virtual)
}

// Write operand of size.
func (c *CPU) writeOperand(addr uint32, sz uint8, v uint32) memory.Fault {
	switch sz {
	case sizeByte:
		return c.acc.WriteByte(addr, v, memory.Virtual)
	case sizeHalf:
		return c.acc.WriteHalf(addr, v, memory.Virtual)
	}
	return c.acc.WriteWord(addr, v, memory.Virtual)
}

// Condition code for result.
func ccOf(v uint32) uint8 {
	switch {
	case v == 0:
		return CC4
	case (v & MSIGN) != 0:
		return CC3
	}
	return CC2
}

// Condition code for double result.
func ccOf64(v uint64) uint8 {
	switch {
	case v == 0:
		return CC4
	case int64(v) < 0:
		return CC3
	}
	return CC2
}

// Condition code for signed compare.
func ccCompare(a, b int64) uint8 {
	switch {
	case a > b:
		return CC2
	case a < b:
		return CC3
	}
	return CC4
}

// Set CC from result, keeps carry.
func (c *CPU) setCC(v uint32) {
	c.psd.CC = ccOf(v)
}

// Add with carry in, sets condition codes and carry.
func (c *CPU) add(a, b, carry uint32) (uint32, bool) {
	sum := uint64(a) + uint64(b) + uint64(carry)
	r := uint32(sum)
	ovf := ((a ^ r) & (b ^ r) & MSIGN) != 0
	c.psd.Carry = (sum >> 32) != 0
	c.psd.CC = ccOf(r)
	if ovf {
		c.psd.CC |= CC1
	}
	return r, ovf
}

// Subtract b from a.
func (c *CPU) sub(a, b uint32) (uint32, bool) {
	return c.add(a, ^b, 1)
}

// Add two doubles.
func (c *CPU) add64(a, b uint64) (uint64, bool) {
	r := a + b
	ovf := ((a ^ r) & (b ^ r) & (1 << 63)) != 0
	c.psd.Carry = r < a
	c.psd.CC = ccOf64(r)
	if ovf {
		c.psd.CC |= CC1
	}
	return r, ovf
}

// Subtract double b from a. Carry is set when no borrow.
func (c *CPU) sub64(a, b uint64) (uint64, bool) {
	r := a - b
	ovf := ((a ^ b) & (a ^ r) & (1 << 63)) != 0
	c.psd.Carry = a >= b
	c.psd.CC = ccOf64(r)
	if ovf {
		c.psd.CC |= CC1
	}
	return r, ovf
}

// Result of arithmetic that may overflow.
func (c *CPU) arith(ovf bool, s *step) result {
	if ovf && c.psd.AExp {
		return trap(TrapOverflow, s.word)
	}
	return next()
}

// Return second register of pair.
func (c *CPU) pair(r uint8) (uint8, bool) {
	if (r&1) != 0 && !c.model.OddPairs {
		return 0, false
	}
	return (r + 1) & 7, true
}

// Get register pair as double.
func (c *CPU) getPair(r, r1 uint8) uint64 {
	return uint64(c.regs[r])<<32 | uint64(c.regs[r1])
}

// Set register pair.
func (c *CPU) setPair(r, r1 uint8, v uint64) {
	c.regs[r] = uint32(v >> 32)
	c.regs[r1] = uint32(v)
}
