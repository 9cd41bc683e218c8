/*
 * SEL32 - Debug options configuration.
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

package debugconfig

import (
	"errors"
	"strings"

	config "github.com/rcornwell/SEL32/config/configparser"
	dev "github.com/rcornwell/SEL32/emu/device"
)

// Components which accept debug options.
type Debugger interface {
	DebugCPU(opt string) error
	DebugChannel(opt string) error
	DebugDevice(devNum uint16, opt string) error
}

// Register DEBUG line for system.
func Register(p *config.Parser, sys Debugger) {
	p.RegisterOptions("DEBUG", func(devNum uint16, device string, options []config.Option) error {
		return setDebug(sys, devNum, device, options)
	})
}

// Apply each option name and comma value to set.
func apply(options []config.Option, set func(string) error) error {
	for _, opt := range options {
		if opt.EqualOpt != "" {
			return errors.New("debug option can't have equals: " + opt.Name)
		}
		err := set(strings.ToUpper(opt.Name))
		if err != nil {
			return err
		}
		for _, value := range opt.Value {
			err = set(strings.ToUpper(*value))
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// Process one debug line.
func setDebug(sys Debugger, devNum uint16, device string, options []config.Option) error {
	if len(options) == 0 {
		return errors.New("debug requires options: " + device)
	}
	switch strings.ToUpper(device) {
	case "CHANNEL":
		return apply(options, sys.DebugChannel)

	case "CPU":
		return apply(options, sys.DebugCPU)

	default:
		if devNum == dev.NoDev {
			return errors.New("debug option invalid: " + device)
		}
		return apply(options, func(opt string) error {
			return sys.DebugDevice(devNum, opt)
		})
	}
}
