/*
 * SEL32 - CPU I/O instruction tests.
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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	D "github.com/rcornwell/SEL32/emu/device"
	"github.com/rcornwell/SEL32/emu/event"
	"github.com/rcornwell/SEL32/emu/irq"
	"github.com/rcornwell/SEL32/emu/memory"
	syschannel "github.com/rcornwell/SEL32/emu/sys_channel"
	testdev "github.com/rcornwell/SEL32/emu/test_dev"
)

const (
	ioDev  uint16 = 0x00f
	ioProg uint32 = 0x300
	ioICB  uint32 = 0x700
	ioPC   uint32 = 0x900
)

type ioFixture struct {
	*fixture
	ch  *syschannel.Subsystem
	dev *testdev.TestDev
}

func ioSetup(t *testing.T) *ioFixture {
	t.Helper()
	mem := memory.New(64)
	events := event.New()
	ch := syschannel.New(mem, nil)
	require.NoError(t, ch.AddChannel(0))
	dev := testdev.New(ch, events, ioDev)
	require.NoError(t, ch.AddDevice(dev, ioDev, testdev.Commands))
	irqs, err := irq.New(0, ch, nil)
	require.NoError(t, err)

	f := &fixture{mem: mem, events: events, irq: irqs}
	f.cpu = New(mem, events, irqs, ch, nil)
	for code := TrapOverflow; code <= TrapDivide; code++ {
		mem.SetMemory(TrapVectorBase+uint32(code)*4, trapICB)
	}
	mem.SetMemory(trapICB+icbNewPSW1, psw1Priv|trapPC)

	// I/O interrupt goes to ioPC.
	lvl := irq.Level(irq.GroupIO, 0)
	irqs.Arm(lvl)
	irqs.Enable(lvl)
	mem.SetMemory(irq.VectorBase+uint32(irq.GroupIO)*irq.GroupSpacing, ioICB)
	mem.SetMemory(ioICB+icbNewPSW1, psw1Priv|ioPC)
	return &ioFixture{fixture: f, ch: ch, dev: dev}
}

// Place CCW in memory.
func (f *ioFixture) ccw(loc uint32, cmd uint8, addr uint32, flags uint8, count uint16) {
	f.mem.SetMemory(loc, uint32(cmd)<<24|addr)
	f.mem.SetMemory(loc+4, uint32(flags)<<24|uint32(count))
}

func ioInst(r, aug uint8, dev uint16) uint32 {
	return uint32(OpIO)<<24 | uint32(r&7)<<23 | uint32(aug&0xf)<<19 | uint32(dev&0x7ff)
}

// SIO, wait for interrupt, then TIO to collect status.
func TestCycleSIO(t *testing.T) {
	f := ioSetup(t)
	copy(f.dev.Data[:], []uint8{1, 2, 3, 4})
	f.dev.Max = 4
	f.ccw(ioProg, D.CmdRead, 0x600, syschannel.FlagICE, 4)
	f.mem.SetMemory(ioPC, ioInst(4, 1, ioDev))

	f.testInst(
		im(OpImm, 2, 0, int(ioProg)),
		ioInst(2, 0, ioDev),
		rr(OpMisc, 0, 0, 1),
	)

	require.True(t, f.cpu.Halted())
	assert.Equal(t, ioPC+8, f.cpu.psd.PC)
	assert.Equal(t, uint32(0x01020304), f.mem.GetMemory(0x600))
	assert.Equal(t, uint32(ioDev), f.mem.GetMemory(ioICB+icbInfo))
	assert.Equal(t, CC2, f.cpu.psd.CC)
	assert.Equal(t, ioProg+8, f.cpu.regs[4])
	assert.Equal(t, uint32(D.CStatusChnEnd|D.CStatusDevEnd)<<24, f.cpu.regs[5])
	assert.Equal(t, uint64(2), f.cpu.Stats().IOInstr)
	assert.NotZero(t, f.cpu.Stats().WaitCycles)
}

// Condition codes for missing device and busy.
func TestCycleSIOConditions(t *testing.T) {
	f := ioSetup(t)
	f.cpu.regs[2] = ioProg
	f.dev.Max = 16
	f.ccw(ioProg, D.CmdRead, 0x600, 0, 16)

	r := f.cpu.executeOne(ioInst(2, 0, 0x07f), 0)
	assert.Equal(t, resNext, r.kind)
	assert.Equal(t, CC4, f.cpu.psd.CC)

	f.cpu.executeOne(ioInst(2, 0, ioDev), 0)
	assert.Equal(t, uint8(0), f.cpu.psd.CC)
	f.cpu.executeOne(ioInst(2, 0, ioDev), 0)
	assert.Equal(t, CC3, f.cpu.psd.CC)

	// Odd register traps.
	r = f.cpu.executeOne(ioInst(3, 0, ioDev), 0)
	assert.Equal(t, resTrap, r.kind)
	assert.Equal(t, TrapInvalidReg, r.trap)

	// Halt stores status.
	f.cpu.executeOne(ioInst(2, 3, ioDev), 0)
	assert.Equal(t, CC2, f.cpu.psd.CC)
	assert.NotZero(t, f.cpu.regs[3]&(uint32(syschannel.ChanHalted)<<16))
	for f.events.AnyEvent() {
		f.events.Advance(1)
	}
	f.cpu.executeOne(ioInst(2, 1, ioDev), 0)
	assert.Equal(t, uint8(0), f.cpu.psd.CC)
}

// Test device gives device status.
func TestCycleTSD(t *testing.T) {
	f := ioSetup(t)
	f.cpu.regs[3] = 0xffffffff
	r := f.cpu.executeOne(ioInst(2, 2, ioDev), 0)
	assert.Equal(t, resNext, r.kind)
	assert.Equal(t, uint8(0), f.cpu.psd.CC)
	assert.NotEqual(t, uint32(0xffffffff), f.cpu.regs[3])
}
