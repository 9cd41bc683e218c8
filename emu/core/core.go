/*
 * SEL32 - Emulation loop.
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

package core

import (
	"log/slog"
	"sync"
	"time"

	"github.com/rcornwell/SEL32/emu/master"
)

type Core struct {
	wg      sync.WaitGroup
	done    chan struct{} // Signal to shutdown simulator.
	running bool          // Indicate when simulator should run or not.
	Master  chan master.Packet
	machine *Machine
}

// Create emulation loop for machine.
func NewCore(machine *Machine, master chan master.Packet) *Core {
	return &Core{
		Master:  master,
		done:    make(chan struct{}),
		machine: machine,
	}
}

// Return machine being run.
func (core *Core) Machine() *Machine {
	return core.machine
}

// Run emulation until stopped.
func (core *Core) Start() {
	core.wg.Add(1)
	defer core.wg.Done()
	for {
		switch {
		case core.running:
			core.running = core.machine.Cycle()
			if !core.running {
				slog.Info("CPU halted", "psd", core.machine.CPU.PSD().String())
			}
		case core.machine.Events.AnyEvent():
			core.machine.Events.Advance(1)
		default:
			// Nothing to do, wait for a message.
			select {
			case <-core.done:
				return
			case packet := <-core.Master:
				if !core.processPacket(packet) {
					return
				}
			}
			continue
		}
		select {
		case <-core.done:
			return
		case packet := <-core.Master:
			if !core.processPacket(packet) {
				return
			}
		default:
		}
	}
}

// Stop a running server.
func (core *Core) Stop() {
	slog.Info("Shutting down CPU")
	close(core.done)
	done := make(chan struct{})
	go func() {
		core.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return
	case <-time.After(time.Second):
		slog.Warn("Timed out waiting for CPU to finish.")
		return
	}
}

// Start CPU.
func (core *Core) SendStart() {
	core.Master <- master.Packet{Msg: master.Start}
}

// Stop CPU.
func (core *Core) SendStop() {
	core.Master <- master.Packet{Msg: master.Stop}
}

// IPL CPU.
func (core *Core) SendIPL(devNum uint16) {
	core.Master <- master.Packet{DevNum: devNum, Msg: master.IPLdevice}
}

// Reset system.
func (core *Core) SendReset() {
	core.Master <- master.Packet{Msg: master.Reset}
}

// Tell channel to post Device End for device.
func (core *Core) SendDeviceEnd(devNum uint16) {
	core.Master <- master.Packet{DevNum: devNum, Msg: master.DeviceEnd}
}

// Run function inside emulation loop and wait for it to finish.
func (core *Core) Call(fn func()) {
	done := make(chan struct{})
	core.Master <- master.Packet{Msg: master.Call, Fn: fn, Done: done}
	<-done
}

// Return true if CPU is running. Only valid inside Call.
func (core *Core) Running() bool {
	return core.running
}

// Process a packet sent to system simulation. Returns false on shutdown.
func (core *Core) processPacket(packet master.Packet) bool {
	switch packet.Msg {
	case master.TimeClock:
		core.machine.TimeClock()
	case master.IPLdevice:
		err := core.machine.IPL(packet.DevNum)
		if err != nil {
			slog.Error(err.Error())
		} else {
			core.running = true
		}
	case master.DeviceEnd:
		core.machine.DeviceEnd(packet.DevNum)
	case master.Reset:
		core.running = false
		core.machine.Reset()
	case master.Call:
		packet.Fn()
		close(packet.Done)
	case master.Start:
		core.machine.Continue()
		core.running = true
	case master.Stop:
		core.running = false
	case master.Shutdown:
		return false
	}
	return true
}
