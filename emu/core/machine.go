/*
 * SEL32 - System aggregate and run cycle.
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
	"fmt"
	"log/slog"

	"github.com/rcornwell/SEL32/emu/cpu"
	D "github.com/rcornwell/SEL32/emu/device"
	"github.com/rcornwell/SEL32/emu/event"
	"github.com/rcornwell/SEL32/emu/irq"
	"github.com/rcornwell/SEL32/emu/memory"
	syschannel "github.com/rcornwell/SEL32/emu/sys_channel"
)

// Default memory size in K.
const DefaultMemory = 128

// One complete system. Nothing is shared between machines.
type Machine struct {
	Mem    *memory.Memory
	Events *event.Queue
	Chan   *syschannel.Subsystem
	IRQ    *irq.Manager
	CPU    *cpu.CPU
	log    *slog.Logger
}

// Create a machine with default memory, no channels and no external groups.
func NewMachine(log *slog.Logger) *Machine {
	if log == nil {
		log = slog.Default()
	}
	m := &Machine{
		Mem:    memory.New(DefaultMemory),
		Events: event.New(),
		log:    log,
	}
	m.Chan = syschannel.New(m.Mem, log)
	// Only fails for a bad external group count.
	m.IRQ, _ = irq.New(0, m.Chan, log)
	m.CPU = cpu.New(m.Mem, m.Events, m.IRQ, m.Chan, log)
	return m
}

// Run one CPU step and advance time by one tick. Returns false when
// the CPU has halted or a boot failed.
func (m *Machine) Cycle() bool {
	if m.Chan.Loading() {
		m.Events.Advance(1)
		done, err := m.Chan.LoadDone()
		if !done {
			return true
		}
		if err != nil {
			m.log.Error(err.Error())
			return false
		}
		if err := m.CPU.LoadPSD(0); err != nil {
			m.log.Error(err.Error())
			return false
		}
		m.log.Info("Boot complete", "psd", m.CPU.PSD().String())
		return true
	}
	m.CPU.Step()
	m.Events.Advance(1)
	return !m.CPU.Halted()
}

// Resume after a halt at the following instruction.
func (m *Machine) Continue() {
	if m.CPU.Halted() {
		m.CPU.SetPSD(m.CPU.PSD())
	}
}

// Reset the whole system.
func (m *Machine) Reset() {
	m.Events.Reset()
	m.IRQ.Reset()
	m.Chan.Reset()
	m.CPU.Reset()
}

// Reset and start boot from device.
func (m *Machine) IPL(devNum uint16) error {
	m.Reset()
	if err := m.Chan.Boot(devNum); err != nil {
		return fmt.Errorf("ipl %03x: %w", devNum, err)
	}
	return nil
}

// Post an interval timer pulse.
func (m *Machine) TimeClock() {
	m.IRQ.Request(irq.Level(irq.GroupPulse, 0))
}

// Post device end attention for device.
func (m *Machine) DeviceEnd(devNum uint16) {
	m.Chan.SetDevAttn(devNum, D.CStatusDevEnd)
}
