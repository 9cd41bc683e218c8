/*
 * SEL32 - Channel definitions.
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
	D "github.com/rcornwell/SEL32/emu/device"
)

// Holds individual control block information.
type chanCtl struct {
	dev        D.Device // Device running channel program
	devNum     uint16   // Device address
	unit       uint8    // Unit on controller
	cmds       []uint8  // Commands device accepts, nil for all
	loc        uint32   // Location counter, address of next CCW
	cmd        uint8    // Current command
	flags      uint8    // Current CCW flags
	addr       uint32   // Data address
	count      uint16   // Remaining count
	status     uint8    // Device status
	chanFlags  uint8    // Channel status flags
	active     bool     // Channel program running
	stored     bool     // Status waiting to be collected
	irqPending bool     // Interrupt requested
	lastTIC    bool     // Previous CCW was a TIC
	chainHold  bool     // Command chain waiting on device end
	chainRun   int      // Chained commands ended at start
}

// Holds channel information.
type chanDev struct {
	devTab  [256]D.Device // Devices by controller address
	cmdTab  [256][]uint8  // Command allow list by controller address
	ctls    [256]chanCtl  // Control blocks by slot
	pending int           // Number of blocks with interrupt pending
}

// Status returned to CPU for a device.
type Status struct {
	LocCounter uint32 // Location counter
	Status     uint8  // Device status
	Flags      uint8  // Channel flags
	Count      uint16 // Residual count
}

// Return status word.
func (s Status) Word() uint32 {
	return uint32(s.Status)<<24 | uint32(s.Flags)<<16 | uint32(s.Count)
}

const (
	MaxChan  = 8   // Number of channels
	NumSlots = 256 // Control blocks per channel

	addrMask  uint32 = 0x00ffffff // Mask for data address
	countMask uint32 = 0x0000ffff // Mask for data count
	rsvMask   uint32 = 0x00ff0000 // Reserved bits of CCW word 2

	// CCW flags
	FlagDC   uint8 = 0x80 // Data chain
	FlagZCI  uint8 = 0x40 // Interrupt on zero count
	FlagCC   uint8 = 0x20 // Command chain
	FlagICE  uint8 = 0x10 // Interrupt on channel end
	FlagHTE  uint8 = 0x08 // Halt on transmission error
	FlagIUE  uint8 = 0x04 // Interrupt on unusual end
	FlagSLI  uint8 = 0x02 // Suppress length indication
	FlagSkip uint8 = 0x01 // Suppress memory access

	// Channel status flags
	ChanLength  uint8 = 0x80 // Incorrect length
	ChanProgChk uint8 = 0x40 // Program check
	ChanDataErr uint8 = 0x20 // Data error
	ChanAddrErr uint8 = 0x10 // Address error
	ChanMemErr  uint8 = 0x08 // Nonexistent memory
	ChanProtect uint8 = 0x04 // Protection check
	ChanChain   uint8 = 0x02 // Chaining check
	ChanHalted  uint8 = 0x01 // Halted by HIO

	// Condition codes returned to CPU
	CCOK     uint8 = 0 // Accepted
	CCStored uint8 = 1 // Status stored
	CCBusy   uint8 = 2 // Busy
	CCNoDev  uint8 = 3 // No device

	// Device status that ends a chain
	errorStatus uint8 = D.CStatusAttn | D.CStatusCheck | D.CStatusExpt
)

// Debug options.
const (
	debugCmd = 1 << iota
	debugData
	debugDetail
	debugIRQ
)

var debugOption = map[string]int{
	"CMD":    debugCmd,
	"DATA":   debugData,
	"DETAIL": debugDetail,
	"IRQ":    debugIRQ,
}
