/*
 * SEL32 - Messages sent to the emulation loop.
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

package master

type Msg int

const (
	Start     Msg = 1 + iota // Start CPU running
	Stop                     // Stop CPU
	IPLdevice                // Boot from DevNum
	TimeClock                // Interval timer pulse
	DeviceEnd                // Post device end to DevNum
	Reset                    // System reset
	Call                     // Run Fn inside emulation loop
	Shutdown                 // Leave emulation loop
)

// Packet sent to emulation loop.
type Packet struct {
	Msg    Msg
	DevNum uint16
	Fn     func()        // Function for Call
	Done   chan struct{} // Closed when Call completes
}
