/*
 * SEL32 - Configuration lines for a machine.
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
	"errors"
	"fmt"
	"strconv"
	"strings"

	config "github.com/rcornwell/SEL32/config/configparser"
	"github.com/rcornwell/SEL32/config/debugconfig"
	D "github.com/rcornwell/SEL32/emu/device"
	testdev "github.com/rcornwell/SEL32/emu/test_dev"
	"github.com/rcornwell/SEL32/util/debug"
)

// Device does not take debug options.
var errNoDebug = errors.New("device has no debug options")

// Register all configuration lines which build this machine.
func (m *Machine) Configure(p *config.Parser) {
	p.RegisterOptions("CPU", m.createCPU)
	p.RegisterOption("MEMORY", m.createMemory)
	p.RegisterOption("CHANNEL", m.createChannel)
	p.RegisterOption("EXTGROUPS", m.createGroups)
	p.RegisterModel("TESTDEV", m.createTestDev)
	debugconfig.Register(p, m)
	debug.Register(p)
}

// Value of NAME=n option.
func optionInt(opt config.Option) (int, error) {
	if opt.EqualOpt == "" || len(opt.Value) != 0 {
		return 0, fmt.Errorf("option %s requires a single value", opt.Name)
	}
	n, err := strconv.Atoi(opt.EqualOpt)
	if err != nil {
		return 0, fmt.Errorf("option %s invalid number: %s", opt.Name, opt.EqualOpt)
	}
	return n, nil
}

// CPU <model> [BLOCKS=n] [EXECLIMIT=n].
func (m *Machine) createCPU(_ uint16, model string, options []config.Option) error {
	if err := m.CPU.SetModel(model); err != nil {
		return err
	}
	if err := m.checkMemory(uint64(m.Mem.Size())); err != nil {
		return err
	}
	for _, opt := range options {
		n, err := optionInt(opt)
		if err != nil {
			return err
		}
		switch strings.ToUpper(opt.Name) {
		case "BLOCKS":
			err = m.CPU.SetBlocks(n)
		case "EXECLIMIT":
			err = m.CPU.SetExecLimit(n)
		default:
			err = fmt.Errorf("cpu invalid option: %s", opt.Name)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// MEMORY <size>[K|M].
func (m *Machine) createMemory(_ uint16, value string, _ []config.Option) error {
	k, err := config.ParseSize(value)
	if err != nil {
		return err
	}
	if err := m.checkMemory(uint64(k) * 1024); err != nil {
		return err
	}
	m.Mem.SetSize(k)
	m.log.Debug("Memory set", "size", m.Mem.Size())
	return nil
}

// Memory must fit the address range of the CPU model.
func (m *Machine) checkMemory(size uint64) error {
	if size > uint64(m.CPU.MaxMemory()) {
		return fmt.Errorf("memory %dK larger than cpu %s addresses: %dK",
			size/1024, m.CPU.Model().Name, m.CPU.MaxMemory()/1024)
	}
	return nil
}

// CHANNEL <n>.
func (m *Machine) createChannel(_ uint16, value string, _ []config.Option) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("channel number invalid: %s", value)
	}
	return m.Chan.AddChannel(n)
}

// EXTGROUPS <n>.
func (m *Machine) createGroups(_ uint16, value string, _ []config.Option) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("external groups invalid: %s", value)
	}
	return m.IRQ.SetExternalGroups(n)
}

// TESTDEV <addr> [MAX=n] [DELAY=n].
func (m *Machine) createTestDev(devNum uint16, _ string, options []config.Option) error {
	dev := testdev.New(m.Chan, m.Events, devNum)
	for _, opt := range options {
		n, err := optionInt(opt)
		if err != nil {
			return err
		}
		switch strings.ToUpper(opt.Name) {
		case "MAX":
			if n < 0 || n > len(dev.Data) {
				return fmt.Errorf("testdev max must be 0 to %d: %d", len(dev.Data), n)
			}
			dev.Max = n
		case "DELAY":
			if n < 1 {
				return fmt.Errorf("testdev delay must be positive: %d", n)
			}
			dev.Delay = n
		default:
			return fmt.Errorf("testdev invalid option: %s", opt.Name)
		}
	}
	return m.Chan.AddDevice(dev, devNum, testdev.Commands)
}

// Enable CPU debug option.
func (m *Machine) DebugCPU(opt string) error {
	return m.CPU.Debug(opt)
}

// Enable channel debug option.
func (m *Machine) DebugChannel(opt string) error {
	return m.Chan.Debug(opt)
}

// Enable debug option on a device.
func (m *Machine) DebugDevice(devNum uint16, opt string) error {
	dev, err := m.Chan.GetDevice(devNum)
	if err != nil {
		return err
	}
	d, ok := dev.(interface{ Debug(string) error })
	if !ok {
		return fmt.Errorf("%w: %03x", errNoDebug, devNum&D.AddrMask)
	}
	return d.Debug(opt)
}
