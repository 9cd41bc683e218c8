/*
 * SEL32 - Test device for channel and CPU tests.
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

package testdev

import (
	D "github.com/rcornwell/SEL32/emu/device"
	"github.com/rcornwell/SEL32/emu/event"
	"github.com/rcornwell/SEL32/util/debug"
)

const (
	debugCmd  = 1 << iota // Commands issued
	debugData             // Data transfered
)

var debugOption = map[string]int{
	"CMD":  debugCmd,
	"DATA": debugData,
}

// Commands accepted by test device.
var Commands = []uint8{0x01, 0x02, 0x03, 0x04, 0x0b, 0x0c, 0x13, 0x41, 0x42}

type TestDev struct {
	Addr     uint16     // Current device address
	Data     [256]uint8 // Data to read/write
	count    int        // Pointer to input/output
	Max      int        // Maximum size of data
	Sense    uint8      // Current sense byte
	Delay    int        // Ticks between transfers
	Sms      bool       // Return SMS at end of command
	Acks     int        // Number of acknowledged interrupts
	Starts   int        // Number of commands started
	halt     bool       // Halt I/O requested
	busy     bool       // Device is busy
	debugMsk int        // Debug trace mask
	ch       D.Channel
	events   *event.Queue
}

//  /*
//   *  Commands.
//   *
//   *            01234567
//   *  Write     00000001
//   *  Read      00000010
//   *  Nop       00000011
//   *  One Byte  00001011    Read one byte of option.
//   *  End       00010011    Immediate channel end, device end later.
//   *  Sense     00000100    Return one byte of sense data.
//   *  Read Bk   00001100
//   *  Write Wd  01000001    Write using word transfers.
//   *  Read Wd   01000010    Read using word transfers.
//   */

// Create test device at address.
func New(ch D.Channel, events *event.Queue, devNum uint16) *TestDev {
	return &TestDev{Addr: devNum, ch: ch, events: events, Delay: 10}
}

// Enable a debug option.
func (d *TestDev) Debug(opt string) error {
	m, err := debug.Mask(debugOption, opt)
	if err != nil {
		return err
	}
	d.debugMsk |= m
	return nil
}

// Return number of bytes transferred by last command.
func (d *TestDev) Count() int {
	return d.count
}

// Return true if device is busy.
func (d *TestDev) Busy() bool {
	return d.busy
}

// Handle start of CCW chain.
func (d *TestDev) StartIO(_ uint8) uint8 {
	if d.busy {
		return D.CStatusBusy
	}
	return 0
}

// Handle start of new command.
func (d *TestDev) StartCmd(_ uint8, cmd uint8) uint8 {
	var r uint8
	if d.busy {
		return D.CStatusBusy
	}
	d.halt = false
	d.Starts++
	debug.DebugDevf(d.Addr, d.debugMsk, debugCmd, "start cmd %02x", cmd)
	switch cmd & 7 {
	case 1, 2: // Write and read
		d.Sense = 0
		d.count = 0
		d.busy = true
	case 3: // Nop or control
		d.Sense = 0
		d.count = 0
		switch cmd {
		case 0x03: // Nop
			r = D.CStatusChnEnd | D.CStatusDevEnd
			if d.Sms {
				r |= D.CStatusSMS
			}
		case 0x0b: // Grab a data byte
			d.busy = true
		case 0x13: // Issue channel end
			d.busy = true
			d.events.AddEvent(d, d.callback, d.Delay, int(cmd))
			return D.CStatusChnEnd
		default:
			d.Sense = D.SenseCMDREJ
		}
	case 4: // Sense
		switch cmd {
		case 0x0c: // Read backward
			d.Sense = 0
			d.count = 0
			d.busy = true
		case 0x4: // Sense
			d.events.AddEvent(d, d.callback, d.Delay, int(cmd))
			d.busy = true
			return 0
		default:
			d.Sense = D.SenseCMDREJ
		}
	default:
		d.Sense = D.SenseCMDREJ
	}

	if d.Sense != 0 {
		r = D.CStatusChnEnd | D.CStatusDevEnd | D.CStatusCheck
	} else if (r & D.CStatusChnEnd) == 0 {
		d.events.AddEvent(d, d.callback, d.Delay, int(cmd))
	}
	return r
}

// Handle TIO instruction.
func (d *TestDev) TestIO(_ uint8) uint8 {
	if d.busy {
		return D.CStatusBusy
	}
	return 0
}

// Handle TSD instruction.
func (d *TestDev) TestDevice(_ uint8) (uint8, uint8) {
	var status uint8
	if d.busy {
		status |= D.CStatusBusy
	}
	if d.Sense != 0 {
		status |= D.CStatusCheck
	}
	return status, d.Sense
}

// Handle HIO instruction.
func (d *TestDev) HaltIO(_ uint8) uint8 {
	d.halt = true
	if d.busy {
		d.events.CancelEvent(d, 0x01)
		d.events.CancelEvent(d, 0x02)
		d.events.CancelEvent(d, 0x0c)
		d.events.CancelEvent(d, 0x41)
		d.events.CancelEvent(d, 0x42)
		d.busy = false
	}
	return 0
}

// Handle AIO instruction.
func (d *TestDev) Acknowledge(_ uint8) uint8 {
	d.Acks++
	return 0
}

// Initialize a device.
func (d *TestDev) InitDev() uint8 {
	for _, cmd := range Commands {
		d.events.CancelEvent(d, int(cmd))
	}
	d.busy = false
	d.count = 0
	d.Sense = 0
	d.Sms = false
	d.halt = false
	d.Acks = 0
	d.Starts = 0
	return 0
}

// Finish command.
func (d *TestDev) end() {
	r := D.CStatusChnEnd | D.CStatusDevEnd
	if d.Sms {
		r |= D.CStatusSMS
	}
	d.busy = false
	d.Sms = false
	d.ch.ChanEnd(d.Addr, r)
}

// Handle channel operations.
func (d *TestDev) callback(cmd int) {
	if d.halt {
		d.busy = false
		d.halt = false
		d.ch.ChanEnd(d.Addr, D.CStatusChnEnd|D.CStatusDevEnd)
		return
	}

	switch cmd {
	case 0x01: // Write
		if d.count >= d.Max {
			d.end()
			return
		}
		v, r := d.ch.ChanReadByte(d.Addr)
		if r != D.Success {
			d.end()
			return
		}
		d.Data[d.count] = v
		debug.DebugDevf(d.Addr, d.debugMsk, debugData, "write %02x", v)
		d.count++
		d.events.AddEvent(d, d.callback, d.Delay, cmd)
	case 0x41: // Write words
		if d.count+4 > d.Max {
			d.end()
			return
		}
		v, r := d.ch.ChanReadWord(d.Addr)
		if r != D.Success {
			d.end()
			return
		}
		for i := range 4 {
			d.Data[d.count] = uint8(v >> (24 - 8*i))
			d.count++
		}
		d.events.AddEvent(d, d.callback, d.Delay, cmd)
	case 0x02, 0x0c: // Read and Read backwards
		if d.count >= d.Max {
			d.end()
			return
		}
		var r D.Result
		if cmd == 0x0c {
			r = d.ch.ChanWriteByteReverse(d.Addr, d.Data[d.count])
		} else {
			r = d.ch.ChanWriteByte(d.Addr, d.Data[d.count])
		}
		if r != D.Success {
			d.end()
			return
		}
		d.count++
		d.events.AddEvent(d, d.callback, d.Delay, cmd)
	case 0x42: // Read words
		if d.count+4 > d.Max {
			d.end()
			return
		}
		var v uint32
		for i := range 4 {
			v = v<<8 | uint32(d.Data[d.count+i])
		}
		if d.ch.ChanWriteWord(d.Addr, v) != D.Success {
			d.end()
			return
		}
		d.count += 4
		d.events.AddEvent(d, d.callback, d.Delay, cmd)
	case 0x0b:
		d.Data[0], _ = d.ch.ChanReadByte(d.Addr)
		d.ch.ChanEnd(d.Addr, D.CStatusChnEnd)
		d.events.AddEvent(d, d.callback, d.Delay, 0x13)
	case 0x04:
		status := D.CStatusChnEnd | D.CStatusDevEnd
		if d.ch.ChanWriteByte(d.Addr, d.Sense) != D.Success {
			status |= D.CStatusExpt
		}
		d.busy = false
		d.ch.ChanEnd(d.Addr, status)
	case 0x13: // Return device end
		d.busy = false
		d.ch.SetDevAttn(d.Addr, D.CStatusDevEnd)
	}
}
