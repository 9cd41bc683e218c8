/*
 * SEL32 - Device and channel interface definitions.
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

package device

// Interface for devices to handle commands. Unit is the unit number
// on a multi-unit controller, zero otherwise. Each returns a status byte.
type Device interface {
	StartIO(unit uint8) uint8
	StartCmd(unit, cmd uint8) uint8
	TestIO(unit uint8) uint8
	TestDevice(unit uint8) (status uint8, sense uint8)
	HaltIO(unit uint8) uint8
	Acknowledge(unit uint8) uint8
	InitDev() uint8
}

// Result of a channel data transfer.
type Result uint8

const (
	Success           Result = iota // Transfer done
	ZeroCount                       // Count exhausted, no more data
	Inactive                        // Channel program not running
	NonexistentMemory               // Transfer address past end of memory
	Sequence                        // Transfer ended by channel
)

func (r Result) String() string {
	switch r {
	case Success:
		return "success"
	case ZeroCount:
		return "zero count"
	case Inactive:
		return "inactive"
	case NonexistentMemory:
		return "nonexistent memory"
	case Sequence:
		return "sequence"
	}
	return "unknown"
}

// Channel operations available to devices.
type Channel interface {
	ChanReadByte(devNum uint16) (uint8, Result)
	ChanWriteByte(devNum uint16, data uint8) Result
	ChanWriteByteReverse(devNum uint16, data uint8) Result
	ChanReadWord(devNum uint16) (uint32, Result)
	ChanWriteWord(devNum uint16, data uint32) Result
	ChanEnd(devNum uint16, status uint8)
	ChanUnusualEnd(devNum uint16, status uint8)
	SetChannelFlag(devNum uint16, flag uint8) Result
	SetDevAttn(devNum uint16, status uint8)
}

const (
	NoDev uint16 = 0xffff // Code for no device

	AddrMask  uint16 = 0x07ff // Valid device address bits
	MultiUnit uint16 = 0x0080 // Device address has unit number

	// Common channel status bits
	CStatusAttn   uint8 = 0x80 // Unit attention
	CStatusSMS    uint8 = 0x40 // Status modifier
	CStatusCtlEnd uint8 = 0x20 // Control unit end
	CStatusBusy   uint8 = 0x10 // Unit Busy
	CStatusChnEnd uint8 = 0x08 // Channel end
	CStatusDevEnd uint8 = 0x04 // Device end
	CStatusCheck  uint8 = 0x02 // Unit check
	CStatusExpt   uint8 = 0x01 // Unit exception

	// Command types
	CmdWrite uint8 = 0x1 // Write command
	CmdRead  uint8 = 0x2 // Read command
	CmdCTL   uint8 = 0x3 // Control command
	CmdSense uint8 = 0x4 // Sense channel command
	CmdTIC   uint8 = 0x8 // Transfer in channel
	CmdRDBWD uint8 = 0xc // Read backward

	// Basic sense information
	SenseCMDREJ  uint8 = 0x80 // Command reject
	SenseINTVENT uint8 = 0x40 // Unit intervention required
	SenseBUSCHK  uint8 = 0x20 // Parity error on bus
	SenseEQUCHK  uint8 = 0x10 // Equipment check
	SenseDATCHK  uint8 = 0x08 // Data Check
	SenseUNITSPC uint8 = 0x04 // Specific to unit
	SenseCTLCHK  uint8 = 0x02 // Timeout on device
	SenseOVRRUN  uint8 = 0x02 // Data Overrun
	SenseOPRCHK  uint8 = 0x01 // Invalid operation to device
)

// Channel number of device address.
func ChanNum(devNum uint16) int {
	return int(devNum>>8) & 0x7
}

// Control block slot of device address.
func Slot(devNum uint16) uint8 {
	return uint8(devNum & 0xff)
}

// Address a controller is registered under.
func Controller(devNum uint16) uint16 {
	devNum &= AddrMask
	if (devNum & MultiUnit) != 0 {
		return devNum &^ 0xf
	}
	return devNum
}

// Unit number on multi-unit controller.
func Unit(devNum uint16) uint8 {
	if (devNum & MultiUnit) != 0 {
		return uint8(devNum & 0xf)
	}
	return 0
}
