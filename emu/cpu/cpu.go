/*
 * SEL32 - CPU instruction cycle.
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
	"errors"
	"fmt"
	"log/slog"

	"github.com/rcornwell/SEL32/emu/event"
	"github.com/rcornwell/SEL32/emu/irq"
	"github.com/rcornwell/SEL32/emu/memory"
	"github.com/rcornwell/SEL32/util/debug"
)

/*
   The SEL 32 is a 32 bit word machine with 8 general registers in each
   register block. Memory is byte addressed, big-endian. Instructions are
   one word.

   The status of the processor is held in a 64 bit processor status
   doubleword, which holds the program counter, condition codes, protect
   key, mapping state and interrupt inhibits.

    Memory reference format:

      +------------------+--------+-----+--+--+-------------------------+
      |      opcode      |   R    |  X  |I |F |        address          |
      +------------------+--------+-----+--+--+-------------------------+
       0                5 6      8 9  10 11 12 13                     31

       F and the low two address bits select byte, half, word or
       double operands.

    Register format:

      +------------------+--------+--------+-----------+----------------+
      |      opcode      |   R1   |   R2   |    aug    |                |
      +------------------+--------+--------+-----------+----------------+
       0                5 6      8 9     11 12       15

    Immediate format:

      +------------------+--------+-----------+-------------------------+
      |      opcode      |   R    |    aug    |      immediate          |
      +------------------+--------+-----------+-------------------------+
       0                5 6      8 9        12 16                      31

    I/O format:

      +------------------+--------+-----------+-------+-----------------+
      |      opcode      |   R    |    aug    |       |  device address |
      +------------------+--------+-----------+-------+-----------------+
       0                5 6      8 9        12        21              31
*/

var errVector = errors.New("trap vector not set")

// Create a CPU attached to memory, events, interrupts and channels.
func New(mem *memory.Memory, events *event.Queue, irqs *irq.Manager, io IO, log *slog.Logger) *CPU {
	if log == nil {
		log = slog.Default()
	}
	c := &CPU{
		mem:       mem,
		acc:       memory.NewAccessor(mem),
		events:    events,
		irq:       irqs,
		io:        io,
		log:       log,
		phantom:   map[uint8]*[8]uint32{},
		execLimit: DefaultExecLimit,
	}
	c.createTable()
	c.model, _ = LookupModel(DefaultModel)
	_ = c.SetBlocks(c.model.Blocks)
	c.Reset()
	return c
}

// Select processor model.
func (c *CPU) SetModel(name string) error {
	m, err := LookupModel(name)
	if err != nil {
		return fmt.Errorf("%w: %s", err, name)
	}
	c.model = m
	if !m.RealExt {
		c.psd.RealExt = false
	}
	c.syncPSD()
	return c.SetBlocks(m.Blocks)
}

// Return current model.
func (c *CPU) Model() Model {
	return c.model
}

// Set maximum execute nesting.
func (c *CPU) SetExecLimit(n int) error {
	if n < 1 {
		return fmt.Errorf("execute limit must be positive: %d", n)
	}
	c.execLimit = n
	return nil
}

// Return maximum execute nesting.
func (c *CPU) ExecLimit() int {
	return c.execLimit
}

// Enable a debug option.
func (c *CPU) Debug(opt string) error {
	m, err := debug.Mask(debugOption, opt)
	if err != nil {
		return err
	}
	c.debugMsk |= m
	return nil
}

// Largest memory in bytes the model can address.
func (c *CPU) MaxMemory() uint32 {
	return 1 << c.model.AddrBits
}

// Reset CPU to privileged state at location zero.
func (c *CPU) Reset() {
	for _, blk := range c.blocks {
		*blk = [8]uint32{}
	}
	clear(c.phantom)
	if c.events != nil {
		c.events.CancelEvent(c, 0)
	}
	c.rbCheck = false
	c.acc.ClearMap()
	c.psd = PSD{Priv: true}
	c.iPC = 0
	c.lastEA = 0
	c.mtwZero = false
	c.halted = false
	c.wait = false
	c.syncPSD()
}

// Return true if CPU executed HALT.
func (c *CPU) Halted() bool {
	return c.halted
}

// Return true if CPU waiting for interrupt.
func (c *CPU) Waiting() bool {
	return c.wait
}

// Return current PSD.
func (c *CPU) PSD() PSD {
	return c.psd
}

// Load new PSD, clears halt and wait.
func (c *CPU) SetPSD(p PSD) {
	c.halted = false
	c.wait = false
	c.setPSD(p)
}

// Load PSD from memory, used at end of IPL.
func (c *CPU) LoadPSD(addr uint32) error {
	w, f := c.mem.ReadDouble(addr)
	if f != memory.FaultNone {
		return fmt.Errorf("unable to load PSD from %06x: %s", addr, f)
	}
	c.SetPSD(UnpackPSD(uint32(w>>32), uint32(w)))
	return nil
}

// Return register of current block.
func (c *CPU) Reg(n int) uint32 {
	return c.regs[n&7]
}

// Set register of current block.
func (c *CPU) SetReg(n int, v uint32) {
	c.regs[n&7] = v
}

// Return execution counters.
func (c *CPU) Stats() Stats {
	return c.stats
}

// Install new PSD.
func (c *CPU) setPSD(p PSD) {
	if !c.model.RealExt {
		p.RealExt = false
	}
	c.psd = p
	c.syncPSD()
}

// Make memory access and registers follow PSD.
func (c *CPU) syncPSD() {
	c.acc.Mapped = c.psd.Mapped && c.model.Map
	c.acc.Key = c.psd.Key
	c.selectBlock()
}

// Interrupt inhibits of current PSD.
func (c *CPU) inhibit() irq.Inhibit {
	return irq.Inhibit{
		Blocked:  c.psd.Blocked,
		IO:       c.psd.InhIO,
		External: c.psd.InhExt,
		Counter:  c.psd.InhCnt,
	}
}

// Execute one instruction or take an interrupt.
func (c *CPU) Step() {
	if c.halted {
		return
	}

	if c.takeInterrupt() {
		return
	}

	if c.wait {
		c.stats.WaitCycles++
		return
	}

	c.iPC = c.psd.PC
	word, f := c.acc.ReadWord(c.iPC, memory.Virtual)
	if f != memory.FaultNone {
		c.apply(faultResult(f, c.iPC))
		return
	}
	c.stats.Instructions++
	debug.Debugf("CPU", c.debugMsk, debugInst, "%06x %08x %s", c.iPC, word, c.psd)
	c.apply(c.executeOne(word, 0))
}

// Split instruction into fields.
func decode(word uint32, depth int) step {
	s := step{
		word:     word,
		opcode:   uint8(word>>24) & 0xfc,
		reg:      uint8(word>>23) & 7,
		x:        uint8(word>>21) & 3,
		indirect: (word & 0x00100000) != 0,
		f:        (word & 0x00080000) != 0,
		field:    word & fieldMask,
		depth:    depth,
	}
	switch {
	case s.opcode < OpImm:
		s.r2 = uint8(word>>20) & 7
		s.aug = uint8(word>>16) & 0xf
	case s.opcode == OpImm || s.opcode == OpIO:
		s.aug = uint8(word>>19) & 0xf
	case s.opcode == OpDec || s.opcode == OpStr:
		s.r2 = uint8(word>>20) & 7
		s.aug = uint8(word>>16) & 0xf
	}
	return s
}

// Execute one instruction word. Used for normal execution, execute
// instructions and micro-op interrupts.
func (c *CPU) executeOne(word uint32, depth int) result {
	s := decode(word, depth)
	return c.table[s.opcode>>2](&s)
}

// Update state from result of instruction.
func (c *CPU) apply(r result) {
	mask := c.addrMask()
	switch r.kind {
	case resNext:
		c.psd.PC = (c.iPC + 4) & mask
	case resBranch:
		c.psd.PC = r.target & mask &^ 3
	case resTrap:
		c.psd.PC = c.iPC
		c.deliverTrap(r.trap, r.info)
	case resWait:
		c.psd.PC = (c.iPC + 4) & mask
		c.wait = true
	case resHalt:
		c.psd.PC = (c.iPC + 4) & mask
		c.halted = true
		c.log.Info("CPU halted", "pc", fmt.Sprintf("%06x", c.iPC))
	case resMachineCheck:
		c.psd.PC = c.iPC
		c.machineCheck(irq.MCNonexistent, r.info)
	case resPSD:
	}
}

// Check for and take an interrupt.
func (c *CPU) takeInterrupt() bool {
	num, ok := c.irq.Pending(c.inhibit())
	if !ok {
		return false
	}
	vector, kind := c.irq.Accept(num)
	c.wait = false
	debug.Debugf("CPU", c.debugMsk, debugIRQ, "interrupt %s vector %03x", c.irq.Name(num), vector)

	if kind == irq.MicroOp {
		c.microOp(num, vector)
		return true
	}

	c.stats.Interrupts++
	var info uint32
	if num == irq.Level(irq.GroupIO, 0) && c.io != nil {
		if dev, ok := c.io.PendingDevice(); ok {
			info = uint32(dev)
		}
	}
	if err := c.exchange(vector, c.psd.PC, info); err != nil {
		c.halted = true
		c.log.Error("Unable to take interrupt", "level", c.irq.Name(num), "error", err)
	}
	return true
}

// Execute the instruction at a micro-op vector in machine context.
func (c *CPU) microOp(num int, vector uint32) {
	c.stats.MicroOps++
	c.irq.Release(num, true)
	word, f := c.mem.ReadWord(vector)
	if f != memory.FaultNone {
		c.machineCheck(irq.MCNonexistent, vector)
		return
	}

	saved := c.psd
	savedPC := c.iPC
	c.psd.Priv = true
	c.psd.Mapped = false
	c.psd.AExp = false
	c.syncPSD()
	c.iPC = vector
	c.mtwZero = false
	r := c.executeOne(word, 0)
	zero := c.mtwZero && (word>>24)&0xfc == uint32(OpMTW)
	c.psd = saved
	c.iPC = savedPC
	c.syncPSD()

	switch r.kind {
	case resTrap:
		c.log.Warn("Trap in micro-op interrupt", "level", c.irq.Name(num), "trap", r.trap.String())
	case resMachineCheck:
		c.machineCheck(irq.MCNonexistent, r.info)
	}

	if zero && (num>>4) == irq.GroupPulse {
		c.irq.Request(irq.Level(irq.GroupCounter, num&0xf))
	}
}

// Swap PSD through interrupt context block.
func (c *CPU) exchange(vector uint32, oldPC uint32, info uint32) error {
	icb, f := c.mem.ReadWord(vector)
	if f != memory.FaultNone {
		return fmt.Errorf("vector %03x: %s", vector, f)
	}
	if icb == 0 {
		return fmt.Errorf("%w: %03x", errVector, vector)
	}
	icb &= realExtMask &^ 3

	old := c.psd
	old.PC = oldPC
	w1, w2 := old.Pack()

	// Context block goes through the map, protection is not checked.
	for _, w := range []struct{ off, v uint32 }{
		{icbOldPSW1, w1}, {icbOldPSW2, w2}, {icbInfo, info},
	} {
		if f := c.acc.WriteWord(icb+w.off, w.v, memory.VirtualNoTrap); f != memory.FaultNone {
			return fmt.Errorf("context block %06x: %s", icb, f)
		}
	}
	n1, f1 := c.acc.ReadWord(icb+icbNewPSW1, memory.VirtualNoTrap)
	n2, f2 := c.acc.ReadWord(icb+icbNewPSW2, memory.VirtualNoTrap)
	if f1 != memory.FaultNone {
		return fmt.Errorf("context block %06x: %s", icb, f1)
	}
	if f2 != memory.FaultNone {
		return fmt.Errorf("context block %06x: %s", icb, f2)
	}
	c.setPSD(UnpackPSD(n1, n2))
	return nil
}

// Take a trap.
func (c *CPU) deliverTrap(code TrapCode, info uint32) {
	c.stats.Traps++
	vector := TrapVectorBase + uint32(code)*4
	oldPC := c.iPC
	if code == TrapSVC {
		oldPC = (c.iPC + 4) & c.addrMask()
	}
	debug.Debugf("CPU", c.debugMsk, debugTrap, "trap %s at %06x info %08x", code, c.iPC, info)
	err := c.exchange(vector, oldPC, info)
	switch {
	case err == nil:
	case errors.Is(err, errVector):
		c.halted = true
		c.log.Error("Trap with no handler", "trap", code.String(), "pc", fmt.Sprintf("%06x", c.iPC))
	default:
		c.log.Warn("Trap delivery failed", "trap", code.String(), "error", err)
		c.machineCheck(irq.MCNonexistent, vector)
	}
}

// Post a machine check, halt if it can't be taken.
func (c *CPU) machineCheck(bit int, addr uint32) {
	if !c.irq.Request(irq.Level(irq.GroupMC, bit)) {
		c.halted = true
		c.log.Error("Machine check with no handler", "level", c.irq.Name(irq.Level(irq.GroupMC, bit)),
			"address", fmt.Sprintf("%06x", addr))
	}
}

// Build opcode table.
func (c *CPU) createTable() {
	for i := range c.table {
		c.table[i] = c.opUnk
	}
	ops := map[uint8]func(*step) result{
		OpMisc:   c.opMisc,
		OpRegMov: c.opRegMov,
		OpRegAri: c.opRegAri,
		OpSLA:    c.opShift,
		OpSRA:    c.opShift,
		OpSLL:    c.opShift,
		OpSRL:    c.opShift,
		OpSLC:    c.opShift,
		OpSRC:    c.opShift,
		OpSLLD:   c.opShiftD,
		OpSRLD:   c.opShiftD,
		OpImm:    c.opImm,
		OpDec:    c.opDecimal,
		OpStr:    c.opString,
		OpL:      c.opL,
		OpLN:     c.opL,
		OpLEA:    c.opLEA,
		OpST:     c.opST,
		OpADM:    c.opADM,
		OpSUM:    c.opADM,
		OpMPM:    c.opMPM,
		OpDVM:    c.opDVM,
		OpCAM:    c.opCAM,
		OpANM:    c.opLogM,
		OpORM:    c.opLogM,
		OpEOM:    c.opLogM,
		OpARM:    c.opARM,
		OpZM:     c.opZM,
		OpBU:     c.opBranch,
		OpBCT:    c.opBranch,
		OpBCF:    c.opBranch,
		OpBL:     c.opBL,
		OpBIR:    c.opBIR,
		OpBRI:    c.opBRI,
		OpLPSD:   c.opLPSD,
		OpXPSD:   c.opXPSD,
		OpEXM:    c.opEXM,
		OpMTW:    c.opMTW,
		OpPUSH:   c.opPUSH,
		OpPULL:   c.opPULL,
		OpPSHM:   c.opPSHM,
		OpPLLM:   c.opPLLM,
		OpPLST:   c.opPLST,
		OpLMAP:   c.opLMAP,
		OpSRBP:   c.opSRBP,
		OpINT:    c.opINT,
		OpADF:    c.opFloat,
		OpSUF:    c.opFloat,
		OpMPF:    c.opFloat,
		OpDVF:    c.opFloat,
		OpIO:     c.opIO,
	}
	for op, fn := range ops {
		c.table[op>>2] = fn
	}
}

// Handle an unknown instruction.
func (c *CPU) opUnk(s *step) result {
	return trap(TrapUndefined, s.word)
}

func next() result {
	return result{kind: resNext}
}

func branch(target uint32) result {
	return result{kind: resBranch, target: target}
}

func trap(code TrapCode, info uint32) result {
	return result{kind: resTrap, trap: code, info: info}
}

// Convert memory fault into result.
func faultResult(f memory.Fault, addr uint32) result {
	switch f {
	case memory.FaultNonexistent:
		return result{kind: resMachineCheck, info: addr}
	case memory.FaultProtect:
		return trap(TrapProtect, addr)
	case memory.FaultMap:
		return trap(TrapMapFault, addr)
	case memory.FaultAlign:
		return trap(TrapAddrSpec, addr)
	}
	return next()
}

// Privileged instruction check.
func (c *CPU) privileged(s *step) (result, bool) {
	if !c.psd.Priv {
		return trap(TrapPrivilege, s.word), false
	}
	return result{}, true
}
