/*
 * SEL32 - Interval timer pulse source.
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

package timer

import (
	"log/slog"
	"sync"
	"time"

	"github.com/rcornwell/SEL32/emu/master"
)

// Interval between count pulses, 60 per second.
const Interval = time.Second / 60

// Wait this long for the pulse task to exit.
const shutdownWait = time.Second

// Timer is the real time source of the count pulse interrupt. Each
// pulse is a TimeClock packet to the core.
type Timer struct {
	wg     sync.WaitGroup
	core   chan master.Packet
	enable chan bool     // Pulses on or off.
	done   chan struct{} // Closed to end pulse task.
}

// Create pulse source for core channel. Pulses are off until Start.
func NewTimer(core chan master.Packet) *Timer {
	t := &Timer{
		core:   core,
		enable: make(chan bool, 1),
		done:   make(chan struct{}),
	}
	t.wg.Add(1)
	go t.run()
	return t
}

// Begin sending count pulses.
func (t *Timer) Start() {
	t.enable <- true
}

// Hold count pulses, CPU stopped.
func (t *Timer) Stop() {
	t.enable <- false
}

// End pulse task.
func (t *Timer) Shutdown() {
	close(t.done)
	finished := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(shutdownWait):
		slog.Warn("Timed out waiting for count pulse task")
	}
}

// Send one pulse, false if shut down while core was not listening.
func (t *Timer) pulse() bool {
	select {
	case t.core <- master.Packet{Msg: master.TimeClock}:
		return true
	case <-t.done:
		return false
	}
}

// Pulse task.
func (t *Timer) run() {
	defer t.wg.Done()
	ticker := time.NewTicker(Interval)
	defer ticker.Stop()
	on := false

	for {
		select {
		case <-ticker.C:
			if on && !t.pulse() {
				return
			}
		case on = <-t.enable:
			if on {
				ticker.Reset(Interval)
			}
		case <-t.done:
			return
		}
	}
}
