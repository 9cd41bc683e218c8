/*
 * SEL32 - Console commands.
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
	"log/slog"

	command "github.com/rcornwell/SEL32/command/command"
	core "github.com/rcornwell/SEL32/emu/core"
	D "github.com/rcornwell/SEL32/emu/device"
)

var cmdList = []cmd{
	{Name: "set", Min: 3, Process: set, Complete: setComplete},
	{Name: "quit", Min: 4, Process: quit},
	{Name: "stop", Min: 3, Process: stop},
	{Name: "continue", Min: 1, Process: start},
	{Name: "start", Min: 3, Process: start},
	{Name: "show", Min: 2, Process: show, Complete: showComplete},
	{Name: "examine", Min: 2, Process: examine},
	{Name: "deposit", Min: 2, Process: deposit},
	{Name: "disassemble", Min: 2, Process: disassembleCmd},
	{Name: "ipl", Min: 1, Process: ipl},
	{Name: "reset", Min: 5, Process: reset},
}

// Handle set commands.
func set(line *cmdLine, core *core.Core) (bool, error) {
	slog.Debug("Command Set")
	subject, err := getSubject(line.getWord(), core.Machine())
	if err != nil {
		return false, err
	}

	optlist, err := line.getOptions(subject, command.ValidSet)
	if err != nil {
		return false, err
	}
	if len(optlist) == 0 {
		return false, errors.New("no options give to set command")
	}
	core.Call(func() {
		err = subject.Set(optlist)
	})
	return false, err
}

// Set command completion.
func setComplete(line *cmdLine) []string {
	return line.scanSubject(command.ValidSet)
}

// Handle commands that quit simulation.
func quit(_ *cmdLine, _ *core.Core) (bool, error) {
	slog.Debug("Command Quit")
	return true, nil
}

// Stop the CPU.
func stop(_ *cmdLine, core *core.Core) (bool, error) {
	slog.Debug("Command Stop")
	core.SendStop()
	return false, nil
}

// Start the CPU, continue after halt.
func start(_ *cmdLine, core *core.Core) (bool, error) {
	slog.Debug("Command Start")
	core.SendStart()
	return false, nil
}

// Process the show command.
func show(line *cmdLine, core *core.Core) (bool, error) {
	slog.Debug("Command Show")
	subject, err := getSubject(line.getWord(), core.Machine())
	if err != nil {
		return false, err
	}

	optlist := []*command.CmdOption{}
	if n, err := line.getNumber(); err == nil {
		optlist = append(optlist, &command.CmdOption{Name: numberOpt, Value: n})
	}
	opts, err := line.getOptions(subject, command.ValidShow)
	if err != nil {
		return false, err
	}
	optlist = append(optlist, opts...)

	var out string
	core.Call(func() {
		out, err = subject.Show(optlist)
	})
	if err != nil {
		return false, err
	}
	line.println(out)
	return false, nil
}

// Show command completion.
func showComplete(line *cmdLine) []string {
	return line.scanSubject(command.ValidShow)
}

// IPL the simulator.
func ipl(line *cmdLine, core *core.Core) (bool, error) {
	slog.Debug("Command IPL")
	devNum, err := line.getHex()
	if err != nil {
		return false, errors.New("device must be number")
	}
	if devNum > uint32(D.AddrMask) {
		return false, errors.New("device number too large")
	}
	core.SendIPL(uint16(devNum))
	return false, nil
}

// Reset the system.
func reset(_ *cmdLine, core *core.Core) (bool, error) {
	slog.Debug("Command Reset")
	core.SendReset()
	return false, nil
}
