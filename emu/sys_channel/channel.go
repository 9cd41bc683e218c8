/*
 * SEL32 - Channel subsystem.
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

package syschannel

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	D "github.com/rcornwell/SEL32/emu/device"
	"github.com/rcornwell/SEL32/emu/memory"
	"github.com/rcornwell/SEL32/util/debug"
)

var (
	ErrNoChannel = errors.New("channel not configured")
	ErrNoDevice  = errors.New("no device at address")
	ErrDuplicate = errors.New("device address in use")
)

// Longest run of zero count data chained CCWs before giving up.
const maxZeroChain = 256

// Longest run of command chained CCWs which end as they start.
const maxChainRun = 256

// Subsystem holds all channels of one machine.
type Subsystem struct {
	mem      *memory.Memory
	log      *slog.Logger
	chans    [MaxChan]*chanDev
	pending  int    // Control blocks with interrupt pending
	loading  uint16 // Device being booted
	debugMsk int
}

// Create a channel subsystem with no channels.
func New(mem *memory.Memory, log *slog.Logger) *Subsystem {
	if log == nil {
		log = slog.Default()
	}
	return &Subsystem{mem: mem, log: log, loading: D.NoDev}
}

// Enable a debug option.
func (s *Subsystem) Debug(opt string) error {
	m, err := debug.Mask(debugOption, opt)
	if err != nil {
		return err
	}
	s.debugMsk |= m
	return nil
}

// Add a channel.
func (s *Subsystem) AddChannel(ch int) error {
	if ch < 0 || ch >= MaxChan {
		return fmt.Errorf("%w: invalid channel number %d", ErrNoChannel, ch)
	}
	if s.chans[ch] == nil {
		s.chans[ch] = &chanDev{}
	}
	return nil
}

// Remove a channel and its devices.
func (s *Subsystem) DelChannel(ch int) {
	if ch < 0 || ch >= MaxChan || s.chans[ch] == nil {
		return
	}
	s.ResetChannel(ch)
	s.chans[ch] = nil
}

// Return list of configured channels.
func (s *Subsystem) Channels() []int {
	var list []int
	for ch, cUnit := range s.chans {
		if cUnit != nil {
			list = append(list, ch)
		}
	}
	return list
}

// Add a device to a channel. A nil command list accepts all commands.
func (s *Subsystem) AddDevice(dev D.Device, devNum uint16, cmds []uint8) error {
	devNum &= D.AddrMask
	cUnit := s.chans[D.ChanNum(devNum)]
	if cUnit == nil {
		return fmt.Errorf("%w: device %03x", ErrNoChannel, devNum)
	}
	idx := uint8(D.Controller(devNum))
	if cUnit.devTab[idx] != nil {
		return fmt.Errorf("%w: %03x", ErrDuplicate, devNum)
	}
	cUnit.devTab[idx] = dev
	cUnit.cmdTab[idx] = cmds
	return nil
}

// Return device at address.
func (s *Subsystem) GetDevice(devNum uint16) (D.Device, error) {
	_, _, dev := s.findDev(devNum)
	if dev == nil {
		return nil, fmt.Errorf("%w: %03x", ErrNoDevice, devNum)
	}
	return dev, nil
}

// Remove device from channel.
func (s *Subsystem) DelDevice(devNum uint16) {
	cUnit, ctl, dev := s.findDev(devNum)
	if dev == nil {
		return
	}
	s.clearCtl(cUnit, ctl)
	idx := uint8(D.Controller(devNum))
	cUnit.devTab[idx] = nil
	cUnit.cmdTab[idx] = nil
}

// Find control block for device.
func (s *Subsystem) findCtl(devNum uint16) (*chanDev, *chanCtl) {
	devNum &= D.AddrMask
	cUnit := s.chans[D.ChanNum(devNum)]
	if cUnit == nil {
		return nil, nil
	}
	return cUnit, &cUnit.ctls[D.Slot(devNum)]
}

// Find control block and device for address.
func (s *Subsystem) findDev(devNum uint16) (*chanDev, *chanCtl, D.Device) {
	cUnit, ctl := s.findCtl(devNum)
	if cUnit == nil {
		return nil, nil, nil
	}
	dev := cUnit.devTab[uint8(D.Controller(devNum))]
	if dev == nil {
		return nil, nil, nil
	}
	return cUnit, ctl, dev
}

// Set or clear interrupt pending for control block.
func (s *Subsystem) setPending(cUnit *chanDev, ctl *chanCtl, pending bool) {
	if ctl.irqPending == pending {
		return
	}
	ctl.irqPending = pending
	if pending {
		cUnit.pending++
		s.pending++
		debug.DebugDevf(ctl.devNum, s.debugMsk, debugIRQ, "interrupt pending status %02x flags %02x",
			ctl.status, ctl.chanFlags)
	} else {
		cUnit.pending--
		s.pending--
	}
}

// Return current status of control block.
func (ctl *chanCtl) state() Status {
	return Status{LocCounter: ctl.loc, Status: ctl.status, Flags: ctl.chanFlags, Count: ctl.count}
}

// Collect stored status, the block is left idle.
func (s *Subsystem) collect(cUnit *chanDev, ctl *chanCtl) Status {
	st := ctl.state()
	if !ctl.active {
		ctl.stored = false
		ctl.status = 0
		ctl.chanFlags = 0
	}
	s.setPending(cUnit, ctl, false)
	return st
}

// Return control block to idle.
func (s *Subsystem) clearCtl(cUnit *chanDev, ctl *chanCtl) {
	s.setPending(cUnit, ctl, false)
	*ctl = chanCtl{}
}

// Process SIO instruction. The location counter gives the first CCW.
func (s *Subsystem) StartIO(devNum uint16, loc uint32) (uint8, Status) {
	cUnit, ctl, dev := s.findDev(devNum)
	if dev == nil {
		return CCNoDev, Status{}
	}

	// If channel is active, return busy without change
	if ctl.active {
		return CCBusy, Status{}
	}

	unit := D.Unit(devNum)
	status := dev.StartIO(unit)
	if (status & D.CStatusBusy) != 0 {
		return CCBusy, Status{}
	}
	if (status & errorStatus) != 0 {
		return CCStored, Status{Status: status}
	}

	// Any stale status for this block is discarded.
	s.clearCtl(cUnit, ctl)
	ctl.dev = dev
	ctl.devNum = devNum & D.AddrMask
	ctl.unit = unit
	ctl.cmds = cUnit.cmdTab[uint8(D.Controller(devNum))]
	ctl.loc = loc & addrMask
	ctl.active = true

	debug.DebugDevf(ctl.devNum, s.debugMsk, debugCmd, "SIO location %06x", ctl.loc)
	if !s.fetchNextCommand(cUnit, ctl, true) {
		return CCStored, s.collect(cUnit, ctl)
	}
	return CCOK, Status{}
}

// Handle TIO instruction.
func (s *Subsystem) TestIO(devNum uint16) (uint8, Status) {
	cUnit, ctl, dev := s.findDev(devNum)
	if dev == nil {
		return CCNoDev, Status{}
	}

	if ctl.active {
		return CCBusy, ctl.state()
	}

	if ctl.stored || ctl.irqPending {
		return CCStored, s.collect(cUnit, ctl)
	}

	status := dev.TestIO(D.Unit(devNum))
	if (status & D.CStatusBusy) != 0 {
		return CCBusy, Status{Status: status}
	}
	if (status & errorStatus) != 0 {
		return CCStored, Status{Status: status}
	}
	return CCOK, Status{}
}

// Handle TSD instruction, returns status and sense in one word.
func (s *Subsystem) TestDevice(devNum uint16) (uint8, uint32) {
	_, ctl, dev := s.findDev(devNum)
	if dev == nil {
		return CCNoDev, 0
	}
	status, sense := dev.TestDevice(D.Unit(devNum))
	word := uint32(status)<<24 | uint32(sense)
	switch {
	case ctl.active || (status&D.CStatusBusy) != 0:
		return CCBusy, word
	case (status & errorStatus) != 0:
		return CCStored, word
	}
	return CCOK, word
}

// Handle HIO instruction.
func (s *Subsystem) HaltIO(devNum uint16) (uint8, Status) {
	cUnit, ctl, dev := s.findDev(devNum)
	if dev == nil {
		return CCNoDev, Status{}
	}
	dev.HaltIO(D.Unit(devNum))
	if !ctl.active {
		return CCOK, Status{}
	}
	debug.DebugDevf(ctl.devNum, s.debugMsk, debugCmd, "HIO")
	ctl.chanFlags |= ChanHalted
	ctl.status |= D.CStatusChnEnd | D.CStatusDevEnd
	s.unusualEnd(cUnit, ctl, false)
	return CCStored, s.collect(cUnit, ctl)
}

// Handle AIO instruction, collect pending status.
func (s *Subsystem) AcknowledgeIO(devNum uint16) (uint8, Status) {
	cUnit, ctl, dev := s.findDev(devNum)
	if dev == nil {
		return CCNoDev, Status{}
	}
	if !ctl.stored && !ctl.irqPending {
		return CCOK, Status{}
	}
	st := s.collect(cUnit, ctl)
	dev.Acknowledge(D.Unit(devNum))
	debug.DebugDevf(ctl.devNum, s.debugMsk, debugIRQ, "AIO status %08x", st.Word())
	return CCStored, st
}

// Return true if any interrupt pending.
func (s *Subsystem) IRQPending() bool {
	return s.pending != 0
}

// Return highest priority device with interrupt pending.
func (s *Subsystem) PendingDevice() (uint16, bool) {
	if s.pending == 0 {
		return D.NoDev, false
	}
	for _, cUnit := range s.chans {
		if cUnit == nil || cUnit.pending == 0 {
			continue
		}
		for i := range cUnit.ctls {
			if cUnit.ctls[i].irqPending {
				return cUnit.ctls[i].devNum, true
			}
		}
	}
	return D.NoDev, false
}

// Reset one channel.
func (s *Subsystem) ResetChannel(ch int) {
	if ch < 0 || ch >= MaxChan {
		return
	}
	cUnit := s.chans[ch]
	if cUnit == nil {
		return
	}
	for i := range cUnit.ctls {
		s.clearCtl(cUnit, &cUnit.ctls[i])
	}
	for _, dev := range cUnit.devTab {
		if dev != nil {
			_ = dev.InitDev()
		}
	}
	if s.loading != D.NoDev && D.ChanNum(s.loading) == ch {
		s.loading = D.NoDev
	}
}

// Reset all channels.
func (s *Subsystem) Reset() {
	for ch := range s.chans {
		s.ResetChannel(ch)
	}
	s.loading = D.NoDev
}

// Start boot from device, reads 24 bytes to location zero.
func (s *Subsystem) Boot(devNum uint16) error {
	_, _, dev := s.findDev(devNum)
	if dev == nil {
		return fmt.Errorf("%w: %03x", ErrNoDevice, devNum)
	}
	s.Reset()
	s.mem.SetMemory(0, uint32(D.CmdRead)<<24)
	s.mem.SetMemory(4, uint32(FlagSLI)<<24|24)
	cc, st := s.StartIO(devNum, 0)
	if cc != CCOK {
		return fmt.Errorf("boot device %03x did not start, status %08x", devNum, st.Word())
	}
	s.log.Info("Boot started", "dev", fmt.Sprintf("%03x", devNum))
	s.loading = devNum
	return nil
}

// Return true while boot in progress.
func (s *Subsystem) Loading() bool {
	return s.loading != D.NoDev
}

// Check if boot has finished, error if it failed.
func (s *Subsystem) LoadDone() (bool, error) {
	if s.loading == D.NoDev {
		return false, nil
	}
	cUnit, ctl := s.findCtl(s.loading)
	if ctl.active {
		return false, nil
	}
	devNum := s.loading
	s.loading = D.NoDev
	st := s.collect(cUnit, ctl)
	if (st.Status&errorStatus) != 0 || (st.Flags&^ChanLength) != 0 {
		return true, fmt.Errorf("boot from %03x failed, status %08x", devNum, st.Word())
	}
	return true, nil
}

// Information about one control block.
type BlockInfo struct {
	DevNum  uint16
	Active  bool
	Pending bool
	Cmd     uint8
	Status  Status
}

// Return information on devices of a channel.
func (s *Subsystem) Blocks(ch int) []BlockInfo {
	if ch < 0 || ch >= MaxChan || s.chans[ch] == nil {
		return nil
	}
	cUnit := s.chans[ch]
	var list []BlockInfo
	for i := range cUnit.ctls {
		ctl := &cUnit.ctls[i]
		if cUnit.devTab[i] == nil && ctl.dev == nil {
			continue
		}
		devNum := ctl.devNum
		if ctl.dev == nil {
			devNum = uint16(ch)<<8 | uint16(i)
		}
		list = append(list, BlockInfo{
			DevNum:  devNum,
			Active:  ctl.active,
			Pending: ctl.irqPending,
			Cmd:     ctl.cmd,
			Status:  ctl.state(),
		})
	}
	return list
}

// Fetch next CCW and start command if not data chaining.
// Return false if the channel program ended.
func (s *Subsystem) fetchNextCommand(cUnit *chanDev, ctl *chanCtl, first bool) bool {
	dataChain := !first && (ctl.flags&FlagDC) != 0

	var word1, word2 uint32
	var cmd uint8
	for {
		// Abort if ccw not on double word boundary
		if (ctl.loc & 0x7) != 0 {
			return s.programCheck(cUnit, ctl, first)
		}

		var f1, f2 memory.Fault
		word1, f1 = s.mem.ReadWord(ctl.loc)
		word2, f2 = s.mem.ReadWord(ctl.loc + 4)
		if f1 != memory.FaultNone || f2 != memory.FaultNone {
			ctl.chanFlags |= ChanMemErr
			return s.programCheck(cUnit, ctl, first)
		}

		if (word2 & rsvMask) != 0 {
			return s.programCheck(cUnit, ctl, first)
		}

		// TIC can't follow TIC nor be first in chain
		cmd = uint8(word1 >> 24)
		if (cmd & 0xf) != D.CmdTIC {
			break
		}
		if first || ctl.lastTIC {
			return s.programCheck(cUnit, ctl, first)
		}
		debug.DebugDevf(ctl.devNum, s.debugMsk, debugCmd, "TIC %06x", word1&addrMask)
		ctl.lastTIC = true
		ctl.loc = word1 & addrMask
	}

	ctl.lastTIC = false
	debug.DebugDevf(ctl.devNum, s.debugMsk, debugCmd, "CCW %06x %08x %08x", ctl.loc, word1, word2)
	ctl.loc = (ctl.loc + 8) & addrMask
	ctl.addr = word1 & addrMask
	ctl.count = uint16(word2 & countMask)
	ctl.flags = uint8(word2 >> 24)

	// Data chaining keeps current command running.
	if dataChain {
		return true
	}

	if ctl.cmds != nil && !slices.Contains(ctl.cmds, cmd) {
		return s.programCheck(cUnit, ctl, first)
	}

	ctl.cmd = cmd
	status := ctl.dev.StartCmd(ctl.unit, cmd)
	if (status & (D.CStatusBusy | errorStatus)) != 0 {
		ctl.status |= status
		s.unusualEnd(cUnit, ctl, !first)
		return false
	}

	// Check if immediate channel end
	if (status & D.CStatusChnEnd) != 0 {
		s.chanEnd(cUnit, ctl, status)
		return true
	}
	ctl.chainRun = 0
	return true
}

// Channel program error.
func (s *Subsystem) programCheck(cUnit *chanDev, ctl *chanCtl, first bool) bool {
	debug.DebugDevf(ctl.devNum, s.debugMsk, debugCmd, "program check location %06x", ctl.loc)
	ctl.chanFlags |= ChanProgChk
	s.unusualEnd(cUnit, ctl, !first)
	return false
}

// Continue command chain with the next CCW.
func (s *Subsystem) chainNext(cUnit *chanDev, ctl *chanCtl) {
	ctl.chainRun++
	if ctl.chainRun > maxChainRun {
		s.programCheck(cUnit, ctl, false)
		return
	}
	s.fetchNextCommand(cUnit, ctl, false)
}

// End of command by device.
func (s *Subsystem) chanEnd(cUnit *chanDev, ctl *chanCtl, status uint8) {
	ctl.status |= status | D.CStatusChnEnd

	// If count not zero and not suppressing length, report error
	if ctl.count != 0 && (ctl.flags&FlagSLI) == 0 {
		ctl.chanFlags |= ChanLength
		s.unusualEnd(cUnit, ctl, false)
		return
	}

	if (ctl.flags&FlagCC) != 0 && (status&errorStatus) == 0 && ctl.chanFlags == 0 {
		if (status & D.CStatusSMS) != 0 {
			ctl.loc = (ctl.loc + 8) & addrMask
		}
		ctl.status = 0
		if (status & D.CStatusDevEnd) == 0 {
			ctl.chainHold = true
			return
		}
		s.chainNext(cUnit, ctl)
		return
	}

	debug.DebugDevf(ctl.devNum, s.debugMsk, debugCmd, "channel end status %02x flags %02x",
		ctl.status, ctl.chanFlags)
	ctl.active = false
	ctl.stored = true
	if (ctl.flags&FlagICE) != 0 || ((status&errorStatus) != 0 && (ctl.flags&FlagIUE) != 0) {
		s.setPending(cUnit, ctl, true)
	}
}

// Terminate channel program.
func (s *Subsystem) unusualEnd(cUnit *chanDev, ctl *chanCtl, irq bool) {
	debug.DebugDevf(ctl.devNum, s.debugMsk, debugCmd, "unusual end status %02x flags %02x",
		ctl.status, ctl.chanFlags)
	ctl.status |= D.CStatusChnEnd
	ctl.active = false
	ctl.chainHold = false
	ctl.stored = true
	if irq || (ctl.flags&FlagIUE) != 0 {
		s.setPending(cUnit, ctl, true)
	}
}

// Signal end of transfer by device.
func (s *Subsystem) ChanEnd(devNum uint16, status uint8) {
	cUnit, ctl := s.findCtl(devNum)
	if ctl == nil || !ctl.active || ctl.chainHold {
		return
	}
	s.chanEnd(cUnit, ctl, status)
}

// Signal device terminated transfer with error.
func (s *Subsystem) ChanUnusualEnd(devNum uint16, status uint8) {
	cUnit, ctl := s.findCtl(devNum)
	if ctl == nil || !ctl.active {
		return
	}
	ctl.status |= status
	s.unusualEnd(cUnit, ctl, false)
}

// Set channel error flag, returns Sequence if the transfer was ended.
func (s *Subsystem) SetChannelFlag(devNum uint16, flag uint8) D.Result {
	cUnit, ctl := s.findCtl(devNum)
	if ctl == nil || !ctl.active {
		return D.Inactive
	}

	switch {
	case flag == ChanLength && (ctl.flags&FlagSLI) != 0:
		return D.Success
	case (flag&^(ChanDataErr|ChanAddrErr)) == 0 && (ctl.flags&FlagHTE) == 0:
		ctl.chanFlags |= flag
		return D.Success
	}
	ctl.chanFlags |= flag
	s.unusualEnd(cUnit, ctl, false)
	return D.Sequence
}

// A device wishes to inform the CPU it needs some service.
func (s *Subsystem) SetDevAttn(devNum uint16, status uint8) {
	cUnit, ctl, dev := s.findDev(devNum)
	if dev == nil {
		return
	}

	if ctl.active {
		// Command chain waiting for device end.
		if ctl.chainHold && (status&D.CStatusDevEnd) != 0 {
			ctl.chainHold = false
			if (status & errorStatus) != 0 {
				ctl.status |= status
				s.unusualEnd(cUnit, ctl, true)
				return
			}
			if (status & D.CStatusSMS) != 0 {
				ctl.loc = (ctl.loc + 8) & addrMask
			}
			ctl.chainRun = 0
			s.chainNext(cUnit, ctl)
			return
		}
		ctl.status |= status & D.CStatusAttn
		return
	}

	ctl.dev = dev
	ctl.devNum = devNum & D.AddrMask
	ctl.unit = D.Unit(devNum)
	ctl.status |= status
	ctl.stored = true
	s.setPending(cUnit, ctl, true)
}

// Get block ready for data transfer.
func (s *Subsystem) transferCtl(devNum uint16) (*chanDev, *chanCtl, D.Result) {
	cUnit, ctl := s.findCtl(devNum)
	if ctl == nil || !ctl.active || ctl.chainHold {
		return nil, nil, D.Inactive
	}
	for n := 0; ctl.count == 0; n++ {
		if (ctl.flags & FlagDC) == 0 {
			return nil, nil, D.ZeroCount
		}
		if n >= maxZeroChain {
			s.programCheck(cUnit, ctl, false)
			return nil, nil, D.Sequence
		}
		if !s.fetchNextCommand(cUnit, ctl, false) {
			return nil, nil, D.Sequence
		}
	}
	return cUnit, ctl, D.Success
}

// Update address and count after transfer.
func (s *Subsystem) advance(cUnit *chanDev, ctl *chanCtl, n uint16, reverse bool) {
	if reverse {
		ctl.addr = (ctl.addr - uint32(n)) & addrMask
	} else {
		ctl.addr = (ctl.addr + uint32(n)) & addrMask
	}
	ctl.count -= n
	if ctl.count != 0 {
		return
	}
	if (ctl.flags & FlagZCI) != 0 {
		s.setPending(cUnit, ctl, true)
	}
	if (ctl.flags & FlagDC) != 0 {
		s.fetchNextCommand(cUnit, ctl, false)
	}
}

// Memory error during transfer.
func (s *Subsystem) memError(cUnit *chanDev, ctl *chanCtl) D.Result {
	ctl.chanFlags |= ChanMemErr
	s.unusualEnd(cUnit, ctl, false)
	return D.NonexistentMemory
}

// Read a byte from memory for device.
func (s *Subsystem) ChanReadByte(devNum uint16) (uint8, D.Result) {
	cUnit, ctl, r := s.transferCtl(devNum)
	if r != D.Success {
		return 0, r
	}
	var data uint32
	if (ctl.flags & FlagSkip) == 0 {
		var f memory.Fault
		data, f = s.mem.ReadByte(ctl.addr)
		if f != memory.FaultNone {
			return 0, s.memError(cUnit, ctl)
		}
	}
	debug.DebugDevf(ctl.devNum, s.debugMsk, debugData, "read %06x %02x", ctl.addr, data)
	s.advance(cUnit, ctl, 1, false)
	return uint8(data), D.Success
}

func (s *Subsystem) writeByte(devNum uint16, data uint8, reverse bool) D.Result {
	cUnit, ctl, r := s.transferCtl(devNum)
	if r != D.Success {
		return r
	}
	if (ctl.flags & FlagSkip) == 0 {
		if f := s.mem.WriteByte(ctl.addr, uint32(data)); f != memory.FaultNone {
			return s.memError(cUnit, ctl)
		}
	}
	debug.DebugDevf(ctl.devNum, s.debugMsk, debugData, "write %06x %02x", ctl.addr, data)
	s.advance(cUnit, ctl, 1, reverse)
	return D.Success
}

// Write a byte from device into memory.
func (s *Subsystem) ChanWriteByte(devNum uint16, data uint8) D.Result {
	return s.writeByte(devNum, data, false)
}

// Write a byte into memory with decreasing address.
func (s *Subsystem) ChanWriteByteReverse(devNum uint16, data uint8) D.Result {
	return s.writeByte(devNum, data, true)
}

// Read a word for device. Unaligned or short transfers go a byte at a time.
func (s *Subsystem) ChanReadWord(devNum uint16) (uint32, D.Result) {
	cUnit, ctl, r := s.transferCtl(devNum)
	if r != D.Success {
		return 0, r
	}
	if (ctl.addr&3) != 0 || ctl.count < 4 || (ctl.flags&FlagSkip) != 0 {
		var word uint32
		for i := range 4 {
			b, r := s.ChanReadByte(devNum)
			if r != D.Success {
				return word << (8 * (4 - i)), r
			}
			word = word<<8 | uint32(b)
		}
		return word, D.Success
	}
	word, f := s.mem.ReadWord(ctl.addr)
	if f != memory.FaultNone {
		return 0, s.memError(cUnit, ctl)
	}
	debug.DebugDevf(ctl.devNum, s.debugMsk, debugData, "read %06x %08x", ctl.addr, word)
	s.advance(cUnit, ctl, 4, false)
	return word, D.Success
}

// Write a word from device. Unaligned or short transfers go a byte at a time.
func (s *Subsystem) ChanWriteWord(devNum uint16, data uint32) D.Result {
	cUnit, ctl, r := s.transferCtl(devNum)
	if r != D.Success {
		return r
	}
	if (ctl.addr&3) != 0 || ctl.count < 4 || (ctl.flags&FlagSkip) != 0 {
		for i := range 4 {
			if r := s.ChanWriteByte(devNum, uint8(data>>(24-8*i))); r != D.Success {
				return r
			}
		}
		return D.Success
	}
	if f := s.mem.WriteWord(ctl.addr, data); f != memory.FaultNone {
		return s.memError(cUnit, ctl)
	}
	debug.DebugDevf(ctl.devNum, s.debugMsk, debugData, "write %06x %08x", ctl.addr, data)
	s.advance(cUnit, ctl, 4, false)
	return D.Success
}
