/*
 * SEL32 - Console view of system parts.
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

package parser

import (
	"errors"
	"fmt"
	"strings"

	command "github.com/rcornwell/SEL32/command/command"
	core "github.com/rcornwell/SEL32/emu/core"
	syschannel "github.com/rcornwell/SEL32/emu/sys_channel"
	"github.com/rcornwell/SEL32/util/translate"
)

// Numeric argument following a show subject.
const numberOpt = "number"

// Return command interface for named part of system.
func getSubject(name string, m *core.Machine) (command.Command, error) {
	switch name {
	case "cpu":
		return &cpuCmd{m: m}, nil
	case "irq":
		return &irqCmd{m: m}, nil
	case "channel":
		return &channelCmd{m: m}, nil
	case "stats":
		return &statsCmd{m: m}, nil
	}
	return nil, errors.New("unknown subject: " + name)
}

var subjectNames = []string{"channel", "cpu", "irq", "stats"}

// Return value of option or false if not given.
func findOption(options []*command.CmdOption, name string) (uint32, bool) {
	for _, opt := range options {
		if opt.Name == name {
			return opt.Value, true
		}
	}
	return 0, false
}

type cpuCmd struct {
	m *core.Machine
}

func (c *cpuCmd) Options() []command.Options {
	return []command.Options{
		{Name: "blocks", OptionType: command.OptionNumber, OptionValid: command.ValidSet},
		{Name: "extgroups", OptionType: command.OptionNumber, OptionValid: command.ValidSet},
		{Name: "execlimit", OptionType: command.OptionNumber, OptionValid: command.ValidSet},
		{Name: "regs", OptionType: command.OptionSwitch, OptionValid: command.ValidShow},
		{Name: "psd", OptionType: command.OptionSwitch, OptionValid: command.ValidShow},
	}
}

func (c *cpuCmd) Set(options []*command.CmdOption) error {
	for _, opt := range options {
		var err error
		switch opt.Name {
		case "blocks":
			err = c.m.CPU.SetBlocks(int(opt.Value))
		case "extgroups":
			err = c.m.IRQ.SetExternalGroups(int(opt.Value))
		case "execlimit":
			err = c.m.CPU.SetExecLimit(int(opt.Value))
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *cpuCmd) Show(options []*command.CmdOption) (string, error) {
	cpu := c.m.CPU
	_, regs := findOption(options, "regs")
	_, psd := findOption(options, "psd")
	all := !regs && !psd
	var str strings.Builder
	if all {
		model := cpu.Model()
		state := "stopped"
		switch {
		case cpu.Halted():
			state = "halted"
		case cpu.Waiting():
			state = "wait"
		}
		fmt.Fprintf(&str, "CPU %s memory %dK blocks %d execlimit %d %s\n",
			model.Name, c.m.Mem.Size()/1024, cpu.Blocks(), cpu.ExecLimit(), state)
	}
	if all || psd {
		w1, w2 := cpu.PSD().Pack()
		fmt.Fprintf(&str, "PSD %08x %08x %s\n", w1, w2, cpu.PSD().String())
	}
	if all || regs {
		for i := range 8 {
			fmt.Fprintf(&str, "R%d=%08x", i, cpu.Reg(i))
			if i == 3 || i == 7 {
				str.WriteString("\n")
			} else {
				str.WriteString(" ")
			}
		}
	}
	return strings.TrimSuffix(str.String(), "\n"), nil
}

type irqCmd struct {
	m *core.Machine
}

func (c *irqCmd) Options() []command.Options {
	return nil
}

func (c *irqCmd) Set(_ []*command.CmdOption) error {
	return errors.New("irq has no settable options")
}

func (c *irqCmd) Show(_ []*command.CmdOption) (string, error) {
	var str strings.Builder
	str.WriteString("Group        Kind      Armed Enabl Reqst Activ")
	for _, g := range c.m.IRQ.Groups() {
		fmt.Fprintf(&str, "\n%-12s %-9s %04x  %04x  %04x  %04x",
			g.Name, g.Kind, g.Armed, g.Enabled, g.Requested, g.Active)
	}
	return str.String(), nil
}

type channelCmd struct {
	m *core.Machine
}

func (c *channelCmd) Options() []command.Options {
	return nil
}

func (c *channelCmd) Set(_ []*command.CmdOption) error {
	return errors.New("channel has no settable options")
}

func (c *channelCmd) Show(options []*command.CmdOption) (string, error) {
	n, ok := findOption(options, numberOpt)
	if !ok {
		return fmt.Sprintf("Channels: %v", c.m.Chan.Channels()), nil
	}
	if n >= syschannel.MaxChan {
		return "", fmt.Errorf("channel number must be 0 to %d: %d", syschannel.MaxChan-1, n)
	}
	blocks := c.m.Chan.Blocks(int(n))
	if blocks == nil {
		return "", fmt.Errorf("%w: %d", syschannel.ErrNoChannel, n)
	}
	var str strings.Builder
	fmt.Fprintf(&str, "Channel %d", n)
	for _, b := range blocks {
		state := "idle"
		if b.Active {
			state = "active"
		}
		fmt.Fprintf(&str, "\n%03x %-6s cmd %02x loc %06x status %08x",
			b.DevNum, state, b.Cmd, b.Status.LocCounter, b.Status.Word())
		if b.Pending {
			str.WriteString(" pending")
		}
	}
	return str.String(), nil
}

type statsCmd struct {
	m *core.Machine
}

func (c *statsCmd) Options() []command.Options {
	return nil
}

func (c *statsCmd) Set(_ []*command.CmdOption) error {
	return errors.New("stats has no settable options")
}

func (c *statsCmd) Show(_ []*command.CmdOption) (string, error) {
	st := c.m.CPU.Stats()
	return translate.From("Instructions: %d\nTraps: %d\nInterrupts: %d\nMicro-ops: %d\nI/O: %d\nWait cycles: %d\nTime: %d",
		st.Instructions, st.Traps, st.Interrupts, st.MicroOps, st.IOInstr, st.WaitCycles, c.m.Events.Now()), nil
}
