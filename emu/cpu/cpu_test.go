/*
 * SEL32 - CPU instruction tests.
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

	"github.com/rcornwell/SEL32/emu/event"
	"github.com/rcornwell/SEL32/emu/irq"
	"github.com/rcornwell/SEL32/emu/memory"
)

const (
	indBit   uint32 = 0x00100000
	fBit     uint32 = 0x00080000
	trapICB  uint32 = 0x680
	trapPC   uint32 = 0x800
	startPC  uint32 = 0x400
	maxSteps        = 1000
)

type fixture struct {
	mem    *memory.Memory
	events *event.Queue
	irq    *irq.Manager
	cpu    *CPU
}

func setup(t *testing.T) *fixture {
	t.Helper()
	mem := memory.New(64)
	events := event.New()
	irqs, err := irq.New(0, nil, nil)
	if err != nil {
		t.Fatalf("Unable to create interrupts: %v", err)
	}
	f := &fixture{mem: mem, events: events, irq: irqs}
	f.cpu = New(mem, events, irqs, nil, nil)

	// All traps go to a HALT at trapPC.
	for code := TrapOverflow; code <= TrapDivide; code++ {
		mem.SetMemory(TrapVectorBase+uint32(code)*4, trapICB)
	}
	mem.SetMemory(trapICB+icbNewPSW1, psw1Priv|trapPC)
	return f
}

// Memory reference instruction.
func mr(op, r uint8, addr uint32) uint32 {
	return uint32(op)<<24 | uint32(r&7)<<23 | addr
}

// Memory reference with index register.
func mrx(op, r, x uint8, addr uint32) uint32 {
	return mr(op, r, addr) | uint32(x&3)<<21
}

// Register to register instruction.
func rr(op, r1, r2, aug uint8) uint32 {
	return uint32(op)<<24 | uint32(r1&7)<<23 | uint32(r2&7)<<20 | uint32(aug&0xf)<<16
}

// Immediate instruction.
func im(op, r, aug uint8, imm int) uint32 {
	return uint32(op)<<24 | uint32(r&7)<<23 | uint32(aug&0xf)<<19 | uint32(imm)&0xffff
}

// Load program at startPC and run until HALT.
func (f *fixture) testInst(prog ...uint32) {
	for i, w := range prog {
		f.mem.SetMemory(startPC+uint32(i*4), w)
	}
	f.cpu.psd.PC = startPC
	for range maxSteps {
		f.cpu.Step()
		f.events.Advance(1)
		if f.cpu.Halted() {
			break
		}
	}
}

// True if last trap was taken.
func (f *fixture) trapped() bool {
	return f.cpu.psd.PC == trapPC+4
}

// Test add overflow sets CC1 without trap.
func TestCycleADROverflow(t *testing.T) {
	f := setup(t)
	f.cpu.regs[1] = 0x7fffffff
	f.cpu.regs[2] = 1
	f.testInst(rr(OpRegAri, 1, 2, 0))
	if f.cpu.regs[1] != 0x80000000 {
		t.Errorf("ADR register 1 was incorrect got: %08x wanted: %08x", f.cpu.regs[1], 0x80000000)
	}
	if f.cpu.psd.CC != CC1|CC3 {
		t.Errorf("ADR CC incorrect got: %x wanted: %x", f.cpu.psd.CC, CC1|CC3)
	}
	if f.trapped() {
		t.Errorf("ADR trapped with arithmetic exceptions off")
	}
}

// Test subtract overflow.
func TestCycleSUROverflow(t *testing.T) {
	f := setup(t)
	f.cpu.regs[3] = 0x80000000
	f.cpu.regs[4] = 1
	f.testInst(rr(OpRegAri, 3, 4, 1))
	if f.cpu.regs[3] != 0x7fffffff {
		t.Errorf("SUR register 3 was incorrect got: %08x wanted: %08x", f.cpu.regs[3], 0x7fffffff)
	}
	if f.cpu.psd.CC != CC1|CC2 {
		t.Errorf("SUR CC incorrect got: %x wanted: %x", f.cpu.psd.CC, CC1|CC2)
	}
}

// Test overflow traps when enabled.
func TestCycleOverflowTrap(t *testing.T) {
	f := setup(t)
	f.cpu.regs[1] = 0x7fffffff
	f.cpu.regs[2] = 1
	f.testInst(rr(OpMisc, 0, 0, 6), rr(OpRegAri, 1, 2, 0))
	if !f.trapped() {
		t.Fatalf("ADR did not trap PC got: %06x", f.cpu.psd.PC)
	}
	old := f.mem.GetMemory(trapICB + icbOldPSW1)
	if old&psw1PC != startPC+4 {
		t.Errorf("ADR trap old PC got: %06x wanted: %06x", old&psw1PC, startPC+4)
	}
	if f.cpu.Stats().Traps != 1 {
		t.Errorf("Trap count got: %d wanted: %d", f.cpu.Stats().Traps, 1)
	}
}

// Double subtract at the 64 bit limits, register and memory forms.
func TestCycleDoubleSubtract(t *testing.T) {
	tests := []struct {
		name   string
		a, b   uint64
		wanted uint64
		cc     uint8
	}{
		{"neg one less min", 0xffffffffffffffff, 0x8000000000000000, 0x7fffffffffffffff, CC2},
		{"zero less min", 0, 0x8000000000000000, 0x8000000000000000, CC1 | CC3},
		{"min less one", 0x8000000000000000, 1, 0x7fffffffffffffff, CC1 | CC2},
		{"min less min", 0x8000000000000000, 0x8000000000000000, 0, CC4},
	}
	for _, test := range tests {
		for _, mem := range []bool{false, true} {
			f := setup(t)
			f.cpu.regs[2] = uint32(test.a >> 32)
			f.cpu.regs[3] = uint32(test.a)
			inst := rr(OpRegAri, 2, 4, 6)
			name := "SURD"
			if mem {
				f.mem.SetMemory(0x1010, uint32(test.b>>32))
				f.mem.SetMemory(0x1014, uint32(test.b))
				inst = mr(OpSUM, 2, 0x1012)
				name = "SUMD"
			} else {
				f.cpu.regs[4] = uint32(test.b >> 32)
				f.cpu.regs[5] = uint32(test.b)
			}
			// Arithmetic exceptions enabled, overflow must trap.
			f.testInst(rr(OpMisc, 0, 0, 6), inst)
			got := uint64(f.cpu.regs[2])<<32 | uint64(f.cpu.regs[3])
			if got != test.wanted {
				t.Errorf("%s %s result got: %016x wanted: %016x", name, test.name, got, test.wanted)
			}
			ovf := (test.cc & CC1) != 0
			if f.trapped() != ovf {
				t.Errorf("%s %s trapped got: %v wanted: %v", name, test.name, f.trapped(), ovf)
			}
			cc := f.cpu.psd.CC
			if f.trapped() {
				old := UnpackPSD(f.mem.GetMemory(trapICB+icbOldPSW1), f.mem.GetMemory(trapICB+icbOldPSW2))
				cc = old.CC
			}
			if cc != test.cc {
				t.Errorf("%s %s CC got: %x wanted: %x", name, test.name, cc, test.cc)
			}
		}
	}
}

// Test load of bytes, halfwords and words.
func TestCycleLoad(t *testing.T) {
	f := setup(t)
	f.mem.SetMemory(0x1000, 0x80f01234)
	f.testInst(
		mr(OpL, 1, 0x1000),
		mr(OpL, 2, 0x1001),
		mr(OpL, 3, 0x1003),
		mr(OpL, 4, 0x1001)|fBit,
	)
	tests := []struct {
		reg    int
		wanted uint32
	}{
		{1, 0x80f01234},
		{2, 0xffff80f0},
		{3, 0x00001234},
		{4, 0x000000f0},
	}
	for _, test := range tests {
		if f.cpu.regs[test.reg] != test.wanted {
			t.Errorf("L register %d was incorrect got: %08x wanted: %08x", test.reg, f.cpu.regs[test.reg], test.wanted)
		}
	}
	if f.cpu.psd.CC != CC2 {
		t.Errorf("L CC incorrect got: %x wanted: %x", f.cpu.psd.CC, CC2)
	}
}

// Test load negative and store double.
func TestCycleLNStoreDouble(t *testing.T) {
	f := setup(t)
	f.mem.SetMemory(0x1000, 5)
	f.cpu.regs[2] = 0x01234567
	f.cpu.regs[3] = 0x89abcdef
	f.testInst(mr(OpLN, 1, 0x1000), mr(OpST, 2, 0x1012))
	if f.cpu.regs[1] != 0xfffffffb {
		t.Errorf("LN register 1 was incorrect got: %08x wanted: %08x", f.cpu.regs[1], 0xfffffffb)
	}
	if v := f.mem.GetMemory(0x1010); v != 0x01234567 {
		t.Errorf("STD high word got: %08x wanted: %08x", v, 0x01234567)
	}
	if v := f.mem.GetMemory(0x1014); v != 0x89abcdef {
		t.Errorf("STD low word got: %08x wanted: %08x", v, 0x89abcdef)
	}
}

// Effective address is repeatable.
func TestEffAddrIdempotent(t *testing.T) {
	f := setup(t)
	f.mem.SetMemory(0x1000, 0x2000)
	f.cpu.regs[1] = 2

	tests := []struct {
		word   uint32
		wanted uint32
	}{
		{mrx(OpL, 3, 1, 0x1000), 0x1008},
		{mrx(OpL, 3, 1, 0x1000) | indBit, 0x2008},
		{mrx(OpL, 3, 1, 0x1001) | indBit, 0x2004},
		{mrx(OpL, 3, 1, 0x1000) | fBit, 0x1002},
	}
	for _, test := range tests {
		s := decode(test.word, 0)
		a1, _, f1 := f.cpu.effAddr(&s)
		a2, _, f2 := f.cpu.effAddr(&s)
		if f1 != memory.FaultNone || f2 != memory.FaultNone {
			t.Errorf("EA %08x faulted", test.word)
		}
		if a1 != a2 || a1 != test.wanted {
			t.Errorf("EA %08x got: %06x %06x wanted: %06x", test.word, a1, a2, test.wanted)
		}
		if f.cpu.lastEA != test.wanted {
			t.Errorf("EA %08x last got: %06x wanted: %06x", test.word, f.cpu.lastEA, test.wanted)
		}
	}
}

// Privileged instruction in user state traps.
func TestCyclePrivilege(t *testing.T) {
	f := setup(t)
	f.cpu.SetPSD(PSD{PC: startPC})
	f.testInst(rr(OpMisc, 0, 0, 0))
	if !f.trapped() {
		t.Fatalf("HALT did not trap PC got: %06x", f.cpu.psd.PC)
	}
	if v := f.mem.GetMemory(trapICB + icbOldPSW1); v != startPC {
		t.Errorf("Privilege old PSW1 got: %08x wanted: %08x", v, startPC)
	}
	f.cpu.psd.Priv = false
	r := f.cpu.executeOne(rr(OpIO, 0, 0, 0), 0)
	if r.kind != resTrap || r.trap != TrapPrivilege {
		t.Errorf("SIO user state got: %v %v", r.kind, r.trap)
	}
}

// Odd register pair depends on model.
func TestOddPair(t *testing.T) {
	f := setup(t)
	f.cpu.regs[2] = 3
	r := f.cpu.executeOne(rr(OpRegAri, 1, 3, 2), 0)
	if r.kind != resTrap || r.trap != TrapInvalidReg {
		t.Errorf("MPR odd pair got: %v %v", r.kind, r.trap)
	}

	if err := f.cpu.SetModel("V9"); err != nil {
		t.Fatalf("SetModel failed: %v", err)
	}
	f.cpu.regs[2] = 3
	f.cpu.regs[3] = 5
	r = f.cpu.executeOne(rr(OpRegAri, 1, 3, 2), 0)
	if r.kind != resNext {
		t.Errorf("MPR odd pair on V9 got: %v", r.kind)
	}
	if f.cpu.regs[1] != 0 || f.cpu.regs[2] != 15 {
		t.Errorf("MPR got: %08x %08x wanted: %08x %08x", f.cpu.regs[1], f.cpu.regs[2], 0, 15)
	}
}

// Test multiply and divide.
func TestCycleMultiplyDivide(t *testing.T) {
	f := setup(t)
	f.cpu.regs[3] = 0xfffffffe // -2
	f.cpu.regs[4] = 0x40000000
	f.cpu.regs[7] = 7
	f.testInst(rr(OpRegAri, 2, 4, 2))
	if f.cpu.regs[2] != 0xffffffff || f.cpu.regs[3] != 0x80000000 {
		t.Errorf("MPR got: %08x %08x wanted: %08x %08x", f.cpu.regs[2], f.cpu.regs[3], 0xffffffff, 0x80000000)
	}

	f.cpu.regs[2] = 0
	f.cpu.regs[3] = 100
	r := f.cpu.executeOne(rr(OpRegAri, 2, 7, 3), 0)
	if r.kind != resNext || f.cpu.regs[2] != 2 || f.cpu.regs[3] != 14 {
		t.Errorf("DVR got: %08x %08x wanted: %08x %08x", f.cpu.regs[2], f.cpu.regs[3], 2, 14)
	}

	r = f.cpu.executeOne(im(OpImm, 2, 4, 0), 0)
	if r.kind != resTrap || r.trap != TrapDivide {
		t.Errorf("DVI by zero got: %v %v", r.kind, r.trap)
	}

	// Quotient too large.
	f.cpu.regs[2] = 0x00000001
	f.cpu.regs[3] = 0
	r = f.cpu.executeOne(im(OpImm, 2, 4, 1), 0)
	if r.kind != resTrap || r.trap != TrapDivide {
		t.Errorf("DVI overflow got: %v %v", r.kind, r.trap)
	}
}

// Test shifts.
func TestCycleShift(t *testing.T) {
	f := setup(t)
	f.cpu.regs[1] = 0x40000001
	f.cpu.regs[2] = 0x80000001
	f.cpu.regs[3] = 0x80000000
	f.cpu.regs[4] = 0x00000001
	f.cpu.regs[5] = 0x00000001
	f.testInst(
		mr(OpSLA, 1, 1),
		mr(OpSRC, 2, 4),
		mr(OpSRA, 3, 4),
		mr(OpSLLD, 4, 4),
	)
	if f.cpu.regs[1] != 0x80000002 {
		t.Errorf("SLA got: %08x wanted: %08x", f.cpu.regs[1], 0x80000002)
	}
	if f.cpu.regs[2] != 0x18000000 {
		t.Errorf("SRC got: %08x wanted: %08x", f.cpu.regs[2], 0x18000000)
	}
	if f.cpu.regs[3] != 0xf8000000 {
		t.Errorf("SRA got: %08x wanted: %08x", f.cpu.regs[3], 0xf8000000)
	}
	if f.cpu.regs[4] != 0x10 || f.cpu.regs[5] != 0x10 {
		t.Errorf("SLLD got: %08x %08x wanted: %08x %08x", f.cpu.regs[4], f.cpu.regs[5], 0x10, 0x10)
	}

	f.cpu.regs[1] = 0x40000000
	f.cpu.psd.AExp = true
	r := f.cpu.executeOne(mr(OpSLA, 1, 1), 0)
	if r.kind != resTrap || r.trap != TrapOverflow {
		t.Errorf("SLA overflow got: %v %v", r.kind, r.trap)
	}
}

// Test immediate instructions.
func TestCycleImmediate(t *testing.T) {
	f := setup(t)
	f.testInst(
		im(OpImm, 1, 0, -5),
		im(OpImm, 1, 1, 10),
		im(OpImm, 2, 0, 0x0ff0),
		im(OpImm, 2, 6, 0x00ff),
		im(OpImm, 2, 5, 0x00f0),
	)
	if f.cpu.regs[1] != 5 {
		t.Errorf("LI/ADI got: %08x wanted: %08x", f.cpu.regs[1], 5)
	}
	if f.cpu.regs[2] != 0xf0 {
		t.Errorf("ANI got: %08x wanted: %08x", f.cpu.regs[2], 0xf0)
	}
	if f.cpu.psd.CC != CC4 {
		t.Errorf("CI CC got: %x wanted: %x", f.cpu.psd.CC, CC4)
	}
}

// Test branches.
func TestCycleBranch(t *testing.T) {
	f := setup(t)
	f.cpu.regs[1] = 5
	f.cpu.regs[2] = 0xfffffffe
	f.testInst(
		im(OpImm, 1, 5, 5),  // 400 CI 1,5
		mr(OpBCF, 4, 0x440), // 404 BCF equal, not taken
		mr(OpBCT, 4, 0x410), // 408 BCT equal, taken
		rr(OpMisc, 0, 0, 0), // 40c HALT
		mr(OpBIR, 2, 0x410), // 410 loop twice
		mr(OpBL, 3, 0x420),  // 414
		rr(OpMisc, 0, 0, 0), // 418 HALT
		rr(OpMisc, 0, 0, 0), // 41c
		mr(OpBU, 0, 0x418),  // 420
	)
	if f.cpu.regs[2] != 0 {
		t.Errorf("BIR got: %08x wanted: %08x", f.cpu.regs[2], 0)
	}
	if f.cpu.regs[3]&psw1PC != 0x418 {
		t.Errorf("BL return got: %06x wanted: %06x", f.cpu.regs[3]&psw1PC, 0x418)
	}
	if f.cpu.psd.PC != 0x41c {
		t.Errorf("Branch ended at got: %06x wanted: %06x", f.cpu.psd.PC, 0x41c)
	}
}

// Execute nesting is limited.
func TestCycleExecLimit(t *testing.T) {
	f := setup(t)
	f.mem.SetMemory(0x1000, mr(OpEXM, 0, 0x1000))
	f.testInst(mr(OpEXM, 0, 0x1000))
	if !f.trapped() {
		t.Fatalf("EXM did not trap PC got: %06x", f.cpu.psd.PC)
	}
	if v := f.mem.GetMemory(trapICB + icbInfo); v != mr(OpEXM, 0, 0x1000) {
		t.Errorf("EXM trap info got: %08x wanted: %08x", v, mr(OpEXM, 0, 0x1000))
	}

	// A single execute is allowed.
	f = setup(t)
	f.mem.SetMemory(0x1000, im(OpImm, 1, 0, 7))
	f.testInst(mr(OpEXM, 0, 0x1000))
	if f.cpu.regs[1] != 7 {
		t.Errorf("EXM LI got: %08x wanted: %08x", f.cpu.regs[1], 7)
	}
}

// Stack overflow leaves memory untouched.
func TestCycleStack(t *testing.T) {
	f := setup(t)
	f.mem.SetMemory(0x1000, 0x2000)
	f.mem.SetMemory(0x1004, 1<<16)
	f.mem.SetMemory(0x2004, 0xdeadbeef)
	f.cpu.regs[1] = 0x11111111
	f.cpu.regs[6] = 0x66666666

	r := f.cpu.executeOne(mr(OpPSHM, 6, 0x1000), 0)
	if r.kind != resTrap || r.trap != TrapStack {
		t.Errorf("PSHM overflow got: %v %v", r.kind, r.trap)
	}
	if v := f.mem.GetMemory(0x2004); v != 0xdeadbeef {
		t.Errorf("PSHM overflow changed memory got: %08x", v)
	}
	if v := f.mem.GetMemory(0x1000); v != 0x2000 {
		t.Errorf("PSHM overflow changed pointer got: %08x", v)
	}

	r = f.cpu.executeOne(mr(OpPUSH, 1, 0x1000), 0)
	if r.kind != resNext {
		t.Fatalf("PUSH failed got: %v %v", r.kind, r.trap)
	}
	if v := f.mem.GetMemory(0x2004); v != 0x11111111 {
		t.Errorf("PUSH value got: %08x wanted: %08x", v, 0x11111111)
	}
	if v := f.mem.GetMemory(0x1004); v != 1 {
		t.Errorf("PUSH counts got: %08x wanted: %08x", v, 1)
	}

	r = f.cpu.executeOne(mr(OpPULL, 2, 0x1000), 0)
	if r.kind != resNext || f.cpu.regs[2] != 0x11111111 {
		t.Errorf("PULL got: %08x wanted: %08x", f.cpu.regs[2], 0x11111111)
	}
	r = f.cpu.executeOne(mr(OpPULL, 2, 0x1000), 0)
	if r.kind != resTrap || r.trap != TrapStack {
		t.Errorf("PULL underflow got: %v %v", r.kind, r.trap)
	}
}

// Register block past configured ones uses a phantom block.
func TestPhantomBlock(t *testing.T) {
	f := setup(t)
	f.cpu.SetPSD(PSD{Priv: true, RB: 6})
	if !f.cpu.PhantomBlock() {
		t.Fatalf("Block 6 of %d not phantom", f.cpu.Blocks())
	}
	f.cpu.SetReg(1, 0x55)
	if f.events.Len() != 1 {
		t.Errorf("Register block check not scheduled got: %d", f.events.Len())
	}
	f.events.Advance(RBCheckInterval)
	if f.events.Len() != 1 {
		t.Errorf("Register block check not rescheduled got: %d", f.events.Len())
	}

	if err := f.cpu.SetBlocks(8); err != nil {
		t.Fatalf("SetBlocks failed: %v", err)
	}
	if f.cpu.PhantomBlock() {
		t.Errorf("Block 6 still phantom")
	}
	if f.cpu.Reg(1) != 0x55 {
		t.Errorf("Phantom contents lost got: %08x wanted: %08x", f.cpu.Reg(1), 0x55)
	}
	f.events.Advance(RBCheckInterval)
	if f.events.Len() != 0 {
		t.Errorf("Register block check still scheduled got: %d", f.events.Len())
	}
}

// Reset drops the pending register block check, a later phantom block
// schedules a new one.
func TestPhantomBlockAfterReset(t *testing.T) {
	f := setup(t)
	f.cpu.SetPSD(PSD{Priv: true, RB: 6})
	if f.events.Len() != 1 {
		t.Fatalf("Register block check not scheduled got: %d", f.events.Len())
	}

	// Queue cleared first, as a machine reset does.
	f.events.Reset()
	f.cpu.Reset()
	f.cpu.SetPSD(PSD{Priv: true, RB: 6})
	if !f.cpu.PhantomBlock() {
		t.Fatalf("Block 6 of %d not phantom", f.cpu.Blocks())
	}
	if f.events.Len() != 1 {
		t.Errorf("Register block check after reset got: %d wanted: %d", f.events.Len(), 1)
	}

	// Reset with the check still queued removes it.
	f.cpu.Reset()
	if f.events.Len() != 0 {
		t.Errorf("Register block check survived reset got: %d", f.events.Len())
	}
	f.cpu.SetPSD(PSD{Priv: true, RB: 7})
	if f.events.Len() != 1 {
		t.Errorf("Register block check not rescheduled got: %d wanted: %d", f.events.Len(), 1)
	}
}

// PSD packs and unpacks.
func TestPSDRoundTrip(t *testing.T) {
	p := PSD{
		Priv: true, CC: CC1 | CC4, Ext: true, Carry: true, AExp: true, PC: 0x12344,
		Key: 5, Mapped: true, RealExt: true, Blocked: true, InhExt: true, InhIO: true,
		InhCnt: true, RB: 9, MapIndex: 0x42,
	}
	w1, w2 := p.Pack()
	if q := UnpackPSD(w1, w2); q != p {
		t.Errorf("PSD round trip got: %s wanted: %s", q, p)
	}
	w1, w2 = 0xfe0ffffc, 0xfc00ffff
	q := UnpackPSD(w1, w2)
	r1, r2 := q.Pack()
	if r1 != w1 || r2 != w2 {
		t.Errorf("PSD words got: %08x %08x wanted: %08x %08x", r1, r2, w1, w2)
	}
}

// Exchange interrupt and return with BRI.
func TestInterruptExchange(t *testing.T) {
	f := setup(t)
	lvl := irq.Level(irq.GroupCounter, 0)
	f.mem.SetMemory(0x140, 0x700)
	f.mem.SetMemory(0x708, psw1Priv|0x900)
	f.mem.SetMemory(0x900, mr(OpBRI, 0, 0x700))
	f.mem.SetMemory(startPC, rr(OpMisc, 0, 0, 2))
	f.irq.Arm(lvl)
	f.irq.Enable(lvl)
	f.irq.Request(lvl)
	f.cpu.psd.PC = startPC

	f.cpu.Step()
	if f.cpu.psd.PC != 0x900 {
		t.Fatalf("Interrupt not taken PC got: %06x wanted: %06x", f.cpu.psd.PC, 0x900)
	}
	if v := f.mem.GetMemory(0x700); v != psw1Priv|startPC {
		t.Errorf("Interrupt old PSW1 got: %08x wanted: %08x", v, psw1Priv|startPC)
	}
	if a, ok := f.irq.HighestActive(); !ok || a != lvl {
		t.Errorf("Interrupt not active got: %x %v", a, ok)
	}

	f.cpu.Step()
	if f.cpu.psd.PC != startPC {
		t.Errorf("BRI PC got: %06x wanted: %06x", f.cpu.psd.PC, startPC)
	}
	if _, ok := f.irq.HighestActive(); ok {
		t.Errorf("BRI did not release level")
	}
	if !f.irq.Armed(lvl) {
		t.Errorf("BRI did not re-arm level")
	}
	f.cpu.Step()
	if f.cpu.psd.PC != startPC+4 {
		t.Errorf("NOP PC got: %06x wanted: %06x", f.cpu.psd.PC, startPC+4)
	}
}

// Count pulse MTW to zero requests counter overflow.
func TestMicroOpCounter(t *testing.T) {
	f := setup(t)
	pulse := irq.Level(irq.GroupPulse, 0)
	counter := irq.Level(irq.GroupCounter, 0)
	f.mem.SetMemory(0x180, mr(OpMTW, 1, 0x1000))
	f.mem.SetMemory(0x1000, 0xfffffffe)
	f.mem.SetMemory(0x140, 0x700)
	f.mem.SetMemory(0x708, psw1Priv|0x900)
	for _, lvl := range []int{pulse, counter} {
		f.irq.Arm(lvl)
		f.irq.Enable(lvl)
	}
	f.mem.SetMemory(startPC, rr(OpMisc, 0, 0, 2))
	f.cpu.psd.PC = startPC

	f.irq.Request(pulse)
	f.cpu.Step()
	if v := f.mem.GetMemory(0x1000); v != 0xffffffff {
		t.Errorf("MTW got: %08x wanted: %08x", v, 0xffffffff)
	}
	if f.cpu.psd.PC != startPC {
		t.Errorf("Micro-op changed PC got: %06x", f.cpu.psd.PC)
	}

	f.irq.Request(pulse)
	f.cpu.Step()
	if v := f.mem.GetMemory(0x1000); v != 0 {
		t.Errorf("MTW got: %08x wanted: %08x", v, 0)
	}
	f.cpu.Step()
	if f.cpu.psd.PC != 0x900 {
		t.Errorf("Counter overflow not taken PC got: %06x", f.cpu.psd.PC)
	}
	st := f.cpu.Stats()
	if st.MicroOps != 2 || st.Interrupts != 1 {
		t.Errorf("Interrupt counts got: %d %d wanted: %d %d", st.MicroOps, st.Interrupts, 2, 1)
	}
}

// Interrupt control instructions.
func TestCycleINT(t *testing.T) {
	f := setup(t)
	lvl := irq.Level(irq.GroupCounter, 3)
	f.testInst(mr(OpINT, 0, uint32(lvl)), mr(OpINT, 2, uint32(lvl)))
	if !f.irq.Armed(lvl) {
		t.Errorf("AI did not arm level %x", lvl)
	}
	r := f.cpu.executeOne(mr(OpINT, 0, 0xff), 0)
	if r.kind != resNext || f.cpu.psd.CC != CC4 {
		t.Errorf("AI bad level CC got: %x wanted: %x", f.cpu.psd.CC, CC4)
	}
}

// Floating point add.
func TestCycleFloat(t *testing.T) {
	f := setup(t)
	f.mem.SetMemory(0x1000, 0x41100000)
	f.mem.SetMemory(0x1004, 0xc1300000)
	f.cpu.regs[1] = 0x41100000
	f.cpu.regs[2] = 0x41100000
	f.cpu.regs[3] = 0x42100000
	f.testInst(mr(OpADF, 1, 0x1000), mr(OpMPF, 2, 0x1004), mr(OpDVF, 3, 0x1000))
	if f.cpu.regs[1] != 0x41200000 {
		t.Errorf("ADF got: %08x wanted: %08x", f.cpu.regs[1], 0x41200000)
	}
	if f.cpu.regs[2] != 0xc1300000 {
		t.Errorf("MPF got: %08x wanted: %08x", f.cpu.regs[2], 0xc1300000)
	}
	if f.cpu.regs[3] != 0x42100000 {
		t.Errorf("DVF got: %08x wanted: %08x", f.cpu.regs[3], 0x42100000)
	}

	f.mem.SetMemory(0x1008, 0)
	r := f.cpu.executeOne(mr(OpDVF, 1, 0x1008), 0)
	if r.kind != resTrap || r.trap != TrapDivide {
		t.Errorf("DVF by zero got: %v %v", r.kind, r.trap)
	}

	if err := f.cpu.SetModel("32/27"); err != nil {
		t.Fatalf("SetModel failed: %v", err)
	}
	r = f.cpu.executeOne(mr(OpADF, 1, 0x1000), 0)
	if r.kind != resTrap || r.trap != TrapUnsupported {
		t.Errorf("ADF on 32/27 got: %v %v", r.kind, r.trap)
	}
}

// Decimal conversion round trip.
func TestCycleDecimal(t *testing.T) {
	f := setup(t)
	f.cpu.regs[2] = 0xffffffff
	f.cpu.regs[3] = uint32(0xffffffff - 1233) // -1234
	f.cpu.regs[4] = 0x1000
	f.testInst(rr(OpDec, 2, 4, 1), rr(OpDec, 6, 4, 0))
	if v := f.mem.GetMemory(0x1004); v != 0x0001234d {
		t.Errorf("CVD got: %08x wanted: %08x", v, 0x0001234d)
	}
	if f.cpu.regs[6] != 0xffffffff || f.cpu.regs[7] != f.cpu.regs[3] {
		t.Errorf("CVB got: %08x %08x wanted: %08x %08x", f.cpu.regs[6], f.cpu.regs[7], 0xffffffff, f.cpu.regs[3])
	}
	if f.cpu.psd.CC != CC3 {
		t.Errorf("CVB CC got: %x wanted: %x", f.cpu.psd.CC, CC3)
	}

	f.mem.SetMemory(0x1004, 0x0001234a)
	f.mem.SetMemory(0x1000, 0x000000f0)
	f.cpu.executeOne(rr(OpDec, 6, 4, 0), 0)
	if f.cpu.psd.CC != CC1 {
		t.Errorf("CVB bad digit CC got: %x wanted: %x", f.cpu.psd.CC, CC1)
	}
}

// Byte string move and compare.
func TestCycleString(t *testing.T) {
	f := setup(t)
	r := f.cpu.executeOne(rr(OpStr, 2, 4, 0), 0)
	if r.kind != resTrap || r.trap != TrapUnsupported {
		t.Errorf("MOVB on 32/87 got: %v %v", r.kind, r.trap)
	}

	if err := f.cpu.SetModel("V6"); err != nil {
		t.Fatalf("SetModel failed: %v", err)
	}
	f.mem.SetMemory(0x1000, 0x41424344)
	f.cpu.regs[2] = 0x2000
	f.cpu.regs[3] = 4
	f.cpu.regs[4] = 0x1000
	f.testInst(rr(OpStr, 2, 4, 0))
	if v := f.mem.GetMemory(0x2000); v != 0x41424344 {
		t.Errorf("MOVB got: %08x wanted: %08x", v, 0x41424344)
	}
	if f.cpu.regs[3] != 0 || f.cpu.regs[2] != 0x2004 {
		t.Errorf("MOVB registers got: %08x %08x", f.cpu.regs[2], f.cpu.regs[3])
	}

	f.mem.SetMemory(0x2000, 0x41424544)
	f.cpu.regs[2] = 0x2000
	f.cpu.regs[3] = 4
	f.cpu.regs[4] = 0x1000
	f.cpu.executeOne(rr(OpStr, 2, 4, 1), 0)
	if f.cpu.psd.CC != CC2 {
		t.Errorf("CMPB CC got: %x wanted: %x", f.cpu.psd.CC, CC2)
	}
	if f.cpu.regs[3] != 2 || f.cpu.regs[2] != 0x2002 {
		t.Errorf("CMPB registers got: %08x %08x", f.cpu.regs[2], f.cpu.regs[3])
	}
}

// Load map and map capability.
func TestCycleLMAP(t *testing.T) {
	f := setup(t)
	f.mem.SetMemory(0x1000, 0x80054006)
	f.cpu.regs[1] = 2
	f.testInst(mr(OpLMAP, 1, 0x1000))
	if f.cpu.acc.Map[0] != 0x8005 || f.cpu.acc.Map[1] != 0x4006 {
		t.Errorf("LMAP got: %04x %04x wanted: %04x %04x", f.cpu.acc.Map[0], f.cpu.acc.Map[1], 0x8005, 0x4006)
	}

	if err := f.cpu.SetModel("32/27"); err != nil {
		t.Fatalf("SetModel failed: %v", err)
	}
	r := f.cpu.executeOne(mr(OpLMAP, 1, 0x1000), 0)
	if r.kind != resTrap || r.trap != TrapNonexistent {
		t.Errorf("LMAP on 32/27 got: %v %v", r.kind, r.trap)
	}
}

// Nonexistent memory requests machine check.
func TestNonexistentMemory(t *testing.T) {
	f := setup(t)
	f.mem.SetMemory(0x100, 0x700)
	f.mem.SetMemory(0x708, psw1Priv|0x900)
	f.testInst(mr(OpL, 1, 0x18000))
	if f.cpu.psd.PC != 0x904 {
		t.Errorf("Machine check not taken PC got: %06x", f.cpu.psd.PC)
	}
	if v := f.mem.GetMemory(0x700); v&psw1PC != startPC {
		t.Errorf("Machine check old PC got: %06x wanted: %06x", v&psw1PC, startPC)
	}
}

// Missing trap vector halts.
func TestTrapNoVector(t *testing.T) {
	f := setup(t)
	f.mem.SetMemory(TrapVectorBase+uint32(TrapUndefined)*4, 0)
	f.testInst(0xfc000000)
	if !f.cpu.Halted() || f.cpu.psd.PC != startPC {
		t.Errorf("Undefined with no vector got: halted %v PC %06x", f.cpu.Halted(), f.cpu.psd.PC)
	}
}

// Trap taken while mapped stores its context block on a write locked page.
func TestTrapMappedWriteLock(t *testing.T) {
	f := setup(t)
	f.cpu.acc.Map[0] = memory.MapValid | memory.MapWriteLock
	f.cpu.SetPSD(PSD{Priv: true, Mapped: true, AExp: true})
	f.cpu.regs[1] = 0x7fffffff
	f.cpu.regs[2] = 1
	f.testInst(rr(OpRegAri, 1, 2, 0))
	if !f.trapped() {
		t.Fatalf("ADR did not trap PC got: %06x", f.cpu.psd.PC)
	}
	old := UnpackPSD(f.mem.GetMemory(trapICB+icbOldPSW1), f.mem.GetMemory(trapICB+icbOldPSW2))
	if !old.Mapped {
		t.Errorf("Old PSD not mapped")
	}
	if old.PC != startPC {
		t.Errorf("Old PC got: %06x wanted: %06x", old.PC, startPC)
	}
	if f.cpu.Stats().Traps != 1 {
		t.Errorf("Trap count got: %d wanted: %d", f.cpu.Stats().Traps, 1)
	}
}
