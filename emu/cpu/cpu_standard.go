/*
 * SEL32 - Standard instructions.
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
	"math"
	"math/bits"

	"github.com/rcornwell/SEL32/emu/memory"
)

// Conditions tested by BCT and BCF.
var condTable = [8]uint8{0, CC1, CC2, CC3, CC4, CC2 | CC4, CC3 | CC4, CC1 | CC2 | CC3 | CC4}

// Test branch condition, selector zero is always true.
func (c *CPU) condition(sel uint8) bool {
	if sel == 0 {
		return true
	}
	return (c.psd.CC & condTable[sel&7]) != 0
}

// Multiply register by value into pair.
func (c *CPU) multiply(r, r1 uint8, v int64) result {
	p := int64(int32(c.regs[r1])) * v
	c.setPair(r, r1, uint64(p))
	c.psd.CC = ccOf64(uint64(p))
	return next()
}

// Divide pair by value, remainder to even register, quotient to odd.
func (c *CPU) divide(s *step, r, r1 uint8, d int64) result {
	if d == 0 {
		return trap(TrapDivide, s.word)
	}
	n := int64(c.getPair(r, r1))
	q := n / d
	if q > math.MaxInt32 || q < math.MinInt32 {
		return trap(TrapDivide, s.word)
	}
	c.regs[r] = uint32(n % d)
	c.regs[r1] = uint32(q)
	c.setCC(uint32(q))
	return next()
}

// HALT, WAIT, NOP, RPSW, BEI, UEI, EAE, DAE, RDEA.
func (c *CPU) opMisc(s *step) result {
	switch s.aug {
	case 0, 1, 4, 5:
		if r, ok := c.privileged(s); !ok {
			return r
		}
	}

	switch s.aug {
	case 0: // HALT
		return result{kind: resHalt}
	case 1: // WAIT
		return result{kind: resWait}
	case 2: // NOP
	case 3: // RPSW
		r1, ok := c.pair(s.reg)
		if !ok {
			return trap(TrapInvalidReg, s.word)
		}
		p := c.psd
		p.PC = c.iPC + 4
		c.regs[s.reg], c.regs[r1] = p.Pack()
	case 4: // BEI
		c.psd.Blocked = true
	case 5: // UEI
		c.psd.Blocked = false
	case 6: // EAE
		c.psd.AExp = true
	case 7: // DAE
		c.psd.AExp = false
	case 8: // RDEA
		c.regs[s.reg] = c.lastEA
	default:
		return trap(TrapUndefined, s.word)
	}
	return next()
}

// TRR, TRC, TRN, XCR, ORR, ANR, EOR, ZR.
func (c *CPU) opRegMov(s *step) result {
	src := c.regs[s.r2]
	ovf := false
	switch s.aug {
	case 0: // TRR
		c.regs[s.reg] = src
	case 1: // TRC
		c.regs[s.reg] = ^src
	case 2: // TRN
		ovf = src == MSIGN
		c.regs[s.reg] = -src
	case 3: // XCR
		c.regs[s.r2] = c.regs[s.reg]
		c.regs[s.reg] = src
	case 4: // ORR
		c.regs[s.reg] |= src
	case 5: // ANR
		c.regs[s.reg] &= src
	case 6: // EOR
		c.regs[s.reg] ^= src
	case 7: // ZR
		c.regs[s.reg] = 0
	default:
		return trap(TrapUndefined, s.word)
	}
	c.setCC(c.regs[s.reg])
	if ovf {
		c.psd.CC |= CC1
	}
	return c.arith(ovf, s)
}

// ADR, SUR, MPR, DVR, CAR, ADRD, SURD, ADCR.
func (c *CPU) opRegAri(s *step) result {
	var ovf bool
	switch s.aug {
	case 0: // ADR
		c.regs[s.reg], ovf = c.add(c.regs[s.reg], c.regs[s.r2], 0)
	case 1: // SUR
		c.regs[s.reg], ovf = c.sub(c.regs[s.reg], c.regs[s.r2])
	case 2: // MPR
		r1, ok := c.pair(s.reg)
		if !ok {
			return trap(TrapInvalidReg, s.word)
		}
		return c.multiply(s.reg, r1, int64(int32(c.regs[s.r2])))
	case 3: // DVR
		r1, ok := c.pair(s.reg)
		if !ok {
			return trap(TrapInvalidReg, s.word)
		}
		return c.divide(s, s.reg, r1, int64(int32(c.regs[s.r2])))
	case 4: // CAR
		c.psd.CC = ccCompare(int64(int32(c.regs[s.reg])), int64(int32(c.regs[s.r2])))
	case 5, 6: // ADRD, SURD
		r1, ok1 := c.pair(s.reg)
		r2, ok2 := c.pair(s.r2)
		if !ok1 || !ok2 {
			return trap(TrapInvalidReg, s.word)
		}
		a := c.getPair(s.reg, r1)
		b := c.getPair(s.r2, r2)
		var v uint64
		if s.aug == 5 {
			v, ovf = c.add64(a, b)
		} else {
			v, ovf = c.sub64(a, b)
		}
		c.setPair(s.reg, r1, v)
	case 7: // ADCR
		var carry uint32
		if c.psd.Carry {
			carry = 1
		}
		c.regs[s.reg], ovf = c.add(c.regs[s.reg], c.regs[s.r2], carry)
	default:
		return trap(TrapUndefined, s.word)
	}
	return c.arith(ovf, s)
}

// Shift count from address and index register.
func (c *CPU) shiftCount(s *step) uint32 {
	n := s.field
	if s.x != 0 {
		n += c.regs[s.x]
	}
	return n & 0x3f
}

// SLA, SRA, SLL, SRL, SLC, SRC.
func (c *CPU) opShift(s *step) result {
	n := c.shiftCount(s)
	v := c.regs[s.reg]
	var r uint32
	ovf := false
	switch s.opcode {
	case OpSLA:
		r = uint32(int32(v) << n)
		if n >= 32 {
			ovf = v != 0
		} else {
			ovf = int32(r)>>n != int32(v)
		}
	case OpSRA:
		r = uint32(int32(v) >> n)
	case OpSLL:
		r = v << n
	case OpSRL:
		r = v >> n
	case OpSLC:
		r = bits.RotateLeft32(v, int(n))
	case OpSRC:
		r = bits.RotateLeft32(v, -int(n))
	}
	c.regs[s.reg] = r
	c.setCC(r)
	if ovf {
		c.psd.CC |= CC1
	}
	return c.arith(ovf, s)
}

// SLLD, SRLD.
func (c *CPU) opShiftD(s *step) result {
	r1, ok := c.pair(s.reg)
	if !ok {
		return trap(TrapInvalidReg, s.word)
	}
	n := c.shiftCount(s)
	v := c.getPair(s.reg, r1)
	if s.opcode == OpSLLD {
		v <<= n
	} else {
		v >>= n
	}
	c.setPair(s.reg, r1, v)
	c.psd.CC = ccOf64(v)
	return next()
}

// LI, ADI, SUI, MPI, DVI, CI, ANI, ORI, EOI, SVC, EXR.
func (c *CPU) opImm(s *step) result {
	imm := uint32(int32(int16(s.word)))
	var ovf bool
	switch s.aug {
	case 0: // LI
		c.regs[s.reg] = imm
		c.setCC(imm)
	case 1: // ADI
		c.regs[s.reg], ovf = c.add(c.regs[s.reg], imm, 0)
	case 2: // SUI
		c.regs[s.reg], ovf = c.sub(c.regs[s.reg], imm)
	case 3: // MPI
		r1, ok := c.pair(s.reg)
		if !ok {
			return trap(TrapInvalidReg, s.word)
		}
		return c.multiply(s.reg, r1, int64(int32(imm)))
	case 4: // DVI
		r1, ok := c.pair(s.reg)
		if !ok {
			return trap(TrapInvalidReg, s.word)
		}
		return c.divide(s, s.reg, r1, int64(int32(imm)))
	case 5: // CI
		c.psd.CC = ccCompare(int64(int32(c.regs[s.reg])), int64(int32(imm)))
	case 6: // ANI
		c.regs[s.reg] &= imm
		c.setCC(c.regs[s.reg])
	case 7: // ORI
		c.regs[s.reg] |= imm
		c.setCC(c.regs[s.reg])
	case 8: // EOI
		c.regs[s.reg] ^= imm
		c.setCC(c.regs[s.reg])
	case 9: // SVC
		return trap(TrapSVC, s.word&0xffff)
	case 10: // EXR
		if s.depth+1 > c.execLimit {
			return trap(TrapExecLimit, s.word)
		}
		return c.executeOne(c.regs[s.reg], s.depth+1)
	default:
		return trap(TrapUndefined, s.word)
	}
	return c.arith(ovf, s)
}

// Load double operand into pair.
func (c *CPU) loadDouble(s *step, ea uint32) (uint64, uint8, result, bool) {
	r1, ok := c.pair(s.reg)
	if !ok {
		return 0, 0, trap(TrapInvalidReg, s.word), false
	}
	v, f := c.acc.ReadDouble(ea, memory.Virtual)
	if f != memory.FaultNone {
		return 0, 0, faultResult(f, ea), false
	}
	return v, r1, result{}, true
}

// L, LN.
func (c *CPU) opL(s *step) result {
	ea, sz, f := c.effAddr(s)
	if f != memory.FaultNone {
		return faultResult(f, ea)
	}
	if sz == sizeDouble {
		v, r1, r, ok := c.loadDouble(s, ea)
		if !ok {
			return r
		}
		ovf := false
		if s.opcode == OpLN {
			ovf = v == 1<<63
			v = -v
		}
		c.setPair(s.reg, r1, v)
		c.psd.CC = ccOf64(v)
		if ovf {
			c.psd.CC |= CC1
		}
		return c.arith(ovf, s)
	}

	v, f := c.readOperand(ea, sz)
	if f != memory.FaultNone {
		return faultResult(f, ea)
	}
	ovf := false
	if s.opcode == OpLN {
		ovf = v == MSIGN
		v = -v
	}
	c.regs[s.reg] = v
	c.setCC(v)
	if ovf {
		c.psd.CC |= CC1
	}
	return c.arith(ovf, s)
}

// LEA.
func (c *CPU) opLEA(s *step) result {
	ea, _, f := c.effAddr(s)
	if f != memory.FaultNone {
		return faultResult(f, ea)
	}
	c.regs[s.reg] = ea
	return next()
}

// ST.
func (c *CPU) opST(s *step) result {
	ea, sz, f := c.effAddr(s)
	if f != memory.FaultNone {
		return faultResult(f, ea)
	}
	if sz == sizeDouble {
		r1, ok := c.pair(s.reg)
		if !ok {
			return trap(TrapInvalidReg, s.word)
		}
		f = c.acc.WriteDouble(ea, c.getPair(s.reg, r1), memory.Virtual)
	} else {
		f = c.writeOperand(ea, sz, c.regs[s.reg])
	}
	if f != memory.FaultNone {
		return faultResult(f, ea)
	}
	return next()
}

// ADM, SUM.
func (c *CPU) opADM(s *step) result {
	ea, sz, f := c.effAddr(s)
	if f != memory.FaultNone {
		return faultResult(f, ea)
	}
	var ovf bool
	if sz == sizeDouble {
		v, r1, r, ok := c.loadDouble(s, ea)
		if !ok {
			return r
		}
		a := c.getPair(s.reg, r1)
		if s.opcode == OpADM {
			a, ovf = c.add64(a, v)
		} else {
			a, ovf = c.sub64(a, v)
		}
		c.setPair(s.reg, r1, a)
		return c.arith(ovf, s)
	}

	v, f := c.readOperand(ea, sz)
	if f != memory.FaultNone {
		return faultResult(f, ea)
	}
	if s.opcode == OpADM {
		c.regs[s.reg], ovf = c.add(c.regs[s.reg], v, 0)
	} else {
		c.regs[s.reg], ovf = c.sub(c.regs[s.reg], v)
	}
	return c.arith(ovf, s)
}

// Read non double operand for multiply and divide.
func (c *CPU) readSingle(s *step) (uint32, uint8, result, bool) {
	r1, ok := c.pair(s.reg)
	if !ok {
		return 0, 0, trap(TrapInvalidReg, s.word), false
	}
	ea, sz, f := c.effAddr(s)
	if f != memory.FaultNone {
		return 0, 0, faultResult(f, ea), false
	}
	if sz == sizeDouble {
		return 0, 0, trap(TrapAddrSpec, ea), false
	}
	v, f := c.readOperand(ea, sz)
	if f != memory.FaultNone {
		return 0, 0, faultResult(f, ea), false
	}
	return v, r1, result{}, true
}

// MPM.
func (c *CPU) opMPM(s *step) result {
	v, r1, r, ok := c.readSingle(s)
	if !ok {
		return r
	}
	return c.multiply(s.reg, r1, int64(int32(v)))
}

// DVM.
func (c *CPU) opDVM(s *step) result {
	v, r1, r, ok := c.readSingle(s)
	if !ok {
		return r
	}
	return c.divide(s, s.reg, r1, int64(int32(v)))
}

// CAM.
func (c *CPU) opCAM(s *step) result {
	ea, sz, f := c.effAddr(s)
	if f != memory.FaultNone {
		return faultResult(f, ea)
	}
	if sz == sizeDouble {
		v, r1, r, ok := c.loadDouble(s, ea)
		if !ok {
			return r
		}
		c.psd.CC = ccCompare(int64(c.getPair(s.reg, r1)), int64(v))
		return next()
	}
	v, f := c.readOperand(ea, sz)
	if f != memory.FaultNone {
		return faultResult(f, ea)
	}
	c.psd.CC = ccCompare(int64(int32(c.regs[s.reg])), int64(int32(v)))
	return next()
}

func logical(op uint8, a, b uint64) uint64 {
	switch op {
	case OpANM:
		return a & b
	case OpORM:
		return a | b
	}
	return a ^ b
}

// ANM, ORM, EOM.
func (c *CPU) opLogM(s *step) result {
	ea, sz, f := c.effAddr(s)
	if f != memory.FaultNone {
		return faultResult(f, ea)
	}
	if sz == sizeDouble {
		v, r1, r, ok := c.loadDouble(s, ea)
		if !ok {
			return r
		}
		v = logical(s.opcode, c.getPair(s.reg, r1), v)
		c.setPair(s.reg, r1, v)
		c.psd.CC = ccOf64(v)
		return next()
	}
	v, f := c.readOperand(ea, sz)
	if f != memory.FaultNone {
		return faultResult(f, ea)
	}
	c.regs[s.reg] = uint32(logical(s.opcode, uint64(c.regs[s.reg]), uint64(v)))
	c.setCC(c.regs[s.reg])
	return next()
}

// ARM, add register to memory.
func (c *CPU) opARM(s *step) result {
	ea, sz, f := c.effAddr(s)
	if f != memory.FaultNone {
		return faultResult(f, ea)
	}
	var ovf bool
	if sz == sizeDouble {
		v, r1, r, ok := c.loadDouble(s, ea)
		if !ok {
			return r
		}
		v, ovf = c.add64(v, c.getPair(s.reg, r1))
		f = c.acc.WriteDouble(ea, v, memory.Virtual)
	} else {
		var v uint32
		v, f = c.readOperand(ea, sz)
		if f != memory.FaultNone {
			return faultResult(f, ea)
		}
		v, ovf = c.add(v, c.regs[s.reg], 0)
		f = c.writeOperand(ea, sz, v)
	}
	if f != memory.FaultNone {
		return faultResult(f, ea)
	}
	return c.arith(ovf, s)
}

// ZM.
func (c *CPU) opZM(s *step) result {
	ea, sz, f := c.effAddr(s)
	if f != memory.FaultNone {
		return faultResult(f, ea)
	}
	if sz == sizeDouble {
		f = c.acc.WriteDouble(ea, 0, memory.Virtual)
	} else {
		f = c.writeOperand(ea, sz, 0)
	}
	if f != memory.FaultNone {
		return faultResult(f, ea)
	}
	return next()
}

// BU, BCT, BCF.
func (c *CPU) opBranch(s *step) result {
	ea, _, f := c.effAddr(s)
	if f != memory.FaultNone {
		return faultResult(f, ea)
	}
	take := true
	switch s.opcode {
	case OpBCT:
		take = c.condition(s.reg)
	case OpBCF:
		take = !c.condition(s.reg)
	}
	if take {
		return branch(ea)
	}
	return next()
}

// BL, branch and link.
func (c *CPU) opBL(s *step) result {
	ea, _, f := c.effAddr(s)
	if f != memory.FaultNone {
		return faultResult(f, ea)
	}
	p := c.psd
	p.PC = c.iPC + 4
	c.regs[s.reg], _ = p.Pack()
	return branch(ea)
}

// BIR, increment register and branch if not zero.
func (c *CPU) opBIR(s *step) result {
	ea, _, f := c.effAddr(s)
	if f != memory.FaultNone {
		return faultResult(f, ea)
	}
	c.regs[s.reg]++
	if c.regs[s.reg] != 0 {
		return branch(ea)
	}
	return next()
}

// EXM, execute memory.
func (c *CPU) opEXM(s *step) result {
	ea, _, f := c.effAddr(s)
	if f != memory.FaultNone {
		return faultResult(f, ea)
	}
	if s.depth+1 > c.execLimit {
		return trap(TrapExecLimit, s.word)
	}
	word, f := c.acc.ReadWord(ea&^3, memory.Virtual)
	if f != memory.FaultNone {
		return faultResult(f, ea)
	}
	return c.executeOne(word, s.depth+1)
}

// MTW, add signed R field to memory word.
func (c *CPU) opMTW(s *step) result {
	ea, _, f := c.effAddr(s)
	if f != memory.FaultNone {
		return faultResult(f, ea)
	}
	ea &^= 3
	v, f := c.acc.ReadWord(ea, memory.Virtual)
	if f != memory.FaultNone {
		return faultResult(f, ea)
	}
	inc := uint32(int32(uint32(s.reg)<<29) >> 29)
	v, ovf := c.add(v, inc, 0)
	if f := c.acc.WriteWord(ea, v, memory.Virtual); f != memory.FaultNone {
		return faultResult(f, ea)
	}
	c.mtwZero = v == 0
	return c.arith(ovf, s)
}
