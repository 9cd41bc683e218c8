/*
 * SEL32 - Privileged system instructions.
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
	syschannel "github.com/rcornwell/SEL32/emu/sys_channel"
	"github.com/rcornwell/SEL32/util/debug"
)

// Read a PSD from doubleword at effective address.
func (c *CPU) readPSD(s *step) (PSD, result, bool) {
	ea, _, f := c.effAddr(s)
	if f != memory.FaultNone {
		return PSD{}, faultResult(f, ea), false
	}
	ea &^= 7
	v, f := c.acc.ReadDouble(ea, memory.Virtual)
	if f != memory.FaultNone {
		return PSD{}, faultResult(f, ea), false
	}
	return UnpackPSD(uint32(v>>32), uint32(v)), result{}, true
}

// Release the interrupt level being serviced.
func (c *CPU) releaseActive() {
	if num, ok := c.irq.HighestActive(); ok {
		c.irq.Release(num, true)
		debug.Debugf("CPU", c.debugMsk, debugIRQ, "release %s", c.irq.Name(num))
	}
}

// BRI, branch and return from interrupt.
func (c *CPU) opBRI(s *step) result {
	if r, ok := c.privileged(s); !ok {
		return r
	}
	p, r, ok := c.readPSD(s)
	if !ok {
		return r
	}
	c.releaseActive()
	c.setPSD(p)
	return result{kind: resPSD}
}

// LPSD, load PSD with optional release.
func (c *CPU) opLPSD(s *step) result {
	if r, ok := c.privileged(s); !ok {
		return r
	}
	p, r, ok := c.readPSD(s)
	if !ok {
		return r
	}
	if (s.reg & 4) != 0 {
		c.releaseActive()
	}
	c.setPSD(p)
	return result{kind: resPSD}
}

// XPSD, exchange PSD.
func (c *CPU) opXPSD(s *step) result {
	if r, ok := c.privileged(s); !ok {
		return r
	}
	ea, _, f := c.effAddr(s)
	if f != memory.FaultNone {
		return faultResult(f, ea)
	}
	ea &^= 7
	n, f := c.acc.ReadDouble(ea+8, memory.Virtual)
	if f != memory.FaultNone {
		return faultResult(f, ea+8)
	}
	old := c.psd
	old.PC = (c.iPC + 4) & c.addrMask()
	w1, w2 := old.Pack()
	if f := c.acc.WriteDouble(ea, uint64(w1)<<32|uint64(w2), memory.Virtual); f != memory.FaultNone {
		return faultResult(f, ea)
	}
	c.setPSD(UnpackPSD(uint32(n>>32), uint32(n)))
	return result{kind: resPSD}
}

// LMAP, load map halfwords from memory.
func (c *CPU) opLMAP(s *step) result {
	if r, ok := c.privileged(s); !ok {
		return r
	}
	if !c.model.Map {
		return trap(TrapNonexistent, s.word)
	}
	ea, _, f := c.effAddr(s)
	if f != memory.FaultNone {
		return faultResult(f, ea)
	}
	ea &^= 1
	count := int(c.regs[s.reg])
	if count > memory.MapSize {
		count = memory.MapSize
	}

	// Read all entries before changing the map.
	entries := make([]uint16, count)
	for i := range entries {
		v, f := c.acc.ReadHalf(ea+uint32(i*2), memory.Physical)
		if f != memory.FaultNone {
			return faultResult(f, ea+uint32(i*2))
		}
		entries[i] = uint16(v)
	}
	c.acc.ClearMap()
	copy(c.acc.Map[:], entries)
	return next()
}

// Effective address without operand alignment.
func (c *CPU) byteAddr(s *step) (uint32, memory.Fault) {
	b := *s
	b.f = true
	ea, _, f := c.effAddr(&b)
	return ea, f
}

// SRBP, set register block pointer.
func (c *CPU) opSRBP(s *step) result {
	if r, ok := c.privileged(s); !ok {
		return r
	}
	ea, f := c.byteAddr(s)
	if f != memory.FaultNone {
		return faultResult(f, ea)
	}
	p := c.psd
	p.RB = uint8(ea & 0xf)
	c.setPSD(p)
	return next()
}

// AI, DAI, EI, DI, RI, RLI, RLD.
func (c *CPU) opINT(s *step) result {
	if r, ok := c.privileged(s); !ok {
		return r
	}
	ea, f := c.byteAddr(s)
	if f != memory.FaultNone {
		return faultResult(f, ea)
	}
	level := int(ea & 0xff)
	good := true
	switch s.reg {
	case 0:
		good = c.irq.Arm(level)
	case 1:
		good = c.irq.Disarm(level)
	case 2:
		good = c.irq.Enable(level)
	case 3:
		good = c.irq.Disable(level)
	case 4:
		good = c.irq.Request(level)
	case 5, 6:
		c.irq.Release(level, s.reg == 5)
	default:
		return trap(TrapUndefined, s.word)
	}
	c.psd.CC = 0
	if !good {
		c.psd.CC = CC4
	}
	return next()
}

// Map channel condition to condition codes.
var ioCC = [4]uint8{
	syschannel.CCOK:     0,
	syschannel.CCStored: CC2,
	syschannel.CCBusy:   CC3,
	syschannel.CCNoDev:  CC4,
}

// SIO, TIO, TSD, HIO, AIO, RSCHNL.
func (c *CPU) opIO(s *step) result {
	if r, ok := c.privileged(s); !ok {
		return r
	}
	if (s.reg & 1) != 0 {
		return trap(TrapInvalidReg, s.word)
	}
	if c.io == nil {
		c.psd.CC = CC4
		return next()
	}
	c.stats.IOInstr++
	r1 := s.reg + 1
	dev := uint16(s.word & 0x7ff)
	var cc uint8
	var st syschannel.Status

	switch s.aug {
	case 0:
		cc, st = c.io.StartIO(dev, c.regs[s.reg]&0xffffff)
	case 1:
		cc, st = c.io.TestIO(dev)
	case 2:
		var w uint32
		cc, w = c.io.TestDevice(dev)
		c.regs[r1] = w
	case 3:
		cc, st = c.io.HaltIO(dev)
	case 4:
		cc, st = c.io.AcknowledgeIO(dev)
	case 5:
		c.io.ResetChannel(int(dev>>8) & 7)
		cc = syschannel.CCOK
	default:
		return trap(TrapUndefined, s.word)
	}

	if cc == syschannel.CCStored && s.aug != 2 {
		c.regs[s.reg] = st.LocCounter
		c.regs[r1] = st.Word()
	}
	c.psd.CC = ioCC[cc&3]
	debug.Debugf("CPU", c.debugMsk, debugIO, "io %x dev %03x cc %d status %08x",
		s.aug, dev, cc, c.regs[r1])
	return next()
}
