/*
 * SEL32 - Examine and deposit commands.
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
	"log/slog"
	"strconv"
	"strings"

	core "github.com/rcornwell/SEL32/emu/core"
	"github.com/rcornwell/SEL32/emu/disassemble"
	"github.com/rcornwell/SEL32/emu/memory"
	"github.com/rcornwell/SEL32/util/hex"
)

// Most words shown by one examine.
const maxExamine = 4096

// Parse register name r0 to r7.
func parseRegister(text string) (int, bool) {
	if len(text) != 2 || text[0] != 'r' {
		return 0, false
	}
	n, err := strconv.Atoi(text[1:])
	if err != nil || n < 0 || n > 7 {
		return 0, false
	}
	return n, true
}

// Parse address range: addr, addr-addr or addr count.
func (line *cmdLine) getRange() (uint32, uint32, error) {
	low, err := line.getHex()
	if err != nil {
		return 0, 0, errors.New("address must be hexadecimal number")
	}
	low &^= 3
	high := low
	if line.peek() == '-' {
		line.pos++
		high, err = line.getHex()
		if err != nil {
			return 0, 0, errors.New("end of range must be hexadecimal number")
		}
	} else if count, err := line.getNumber(); err == nil && count > 0 {
		high = low + (count-1)*4
	}
	if high < low {
		return 0, 0, errors.New("end of range before start")
	}
	if (high-low)/4 >= maxExamine {
		return 0, 0, fmt.Errorf("range too large, limit %d words", maxExamine)
	}
	return low, high, nil
}

// Examine memory or a register.
func examine(line *cmdLine, core *core.Core) (bool, error) {
	slog.Debug("Command Examine")
	m := core.Machine()
	line.skipSpace()
	pos := line.pos
	if reg, ok := parseRegister(line.getToken()); ok {
		var v uint32
		core.Call(func() { v = m.CPU.Reg(reg) })
		line.println(fmt.Sprintf("R%d=%08x", reg, v))
		return false, nil
	}
	line.pos = pos

	low, high, err := line.getRange()
	if err != nil {
		return false, err
	}
	var out strings.Builder
	core.Call(func() {
		err = dumpMemory(&out, m.Mem, low, high)
	})
	line.println(strings.TrimSuffix(out.String(), "\n"))
	return false, err
}

// Print words four per line.
func dumpMemory(out *strings.Builder, mem *memory.Memory, low, high uint32) error {
	words := []uint32{}
	start := low
	for addr := low; addr <= high; addr += 4 {
		if !mem.CheckAddr(addr) {
			return fmt.Errorf("address %06x: %s", addr, memory.FaultNonexistent)
		}
		if addr != low && (addr&0xf) == 0 {
			dumpLine(out, start, words)
			words = words[:0]
			start = addr
		}
		words = append(words, mem.GetMemory(addr))
	}
	dumpLine(out, start, words)
	return nil
}

// Print one line of memory.
func dumpLine(out *strings.Builder, addr uint32, words []uint32) {
	hex.FormatAddr(out, addr)
	out.WriteByte(' ')
	hex.FormatWord(out, words)
	out.WriteByte('\n')
}

// Show memory as instructions.
func disassembleCmd(line *cmdLine, core *core.Core) (bool, error) {
	slog.Debug("Command Disassemble")
	m := core.Machine()
	low, high, err := line.getRange()
	if err != nil {
		return false, err
	}
	var out strings.Builder
	core.Call(func() {
		for addr := low; addr <= high; addr += 4 {
			if !m.Mem.CheckAddr(addr) {
				err = fmt.Errorf("address %06x: %s", addr, memory.FaultNonexistent)
				return
			}
			word := m.Mem.GetMemory(addr)
			hex.FormatAddr(&out, addr)
			out.WriteByte(' ')
			hex.FormatWord(&out, []uint32{word})
			out.WriteString("  " + disassemble.Disassemble(word) + "\n")
		}
	})
	line.println(strings.TrimSuffix(out.String(), "\n"))
	return false, err
}

// Deposit value into memory or a register.
func deposit(line *cmdLine, core *core.Core) (bool, error) {
	slog.Debug("Command Deposit")
	m := core.Machine()
	line.skipSpace()
	pos := line.pos
	reg, isReg := parseRegister(line.getToken())
	var addr uint32
	if !isReg {
		line.pos = pos
		var err error
		addr, err = line.getHex()
		if err != nil {
			return false, errors.New("deposit requires address or register")
		}
	}
	value, err := line.getHex()
	if err != nil {
		return false, errors.New("deposit value must be hexadecimal number")
	}
	line.skipSpace()
	if !line.isEOL() {
		return false, errors.New("extra text after deposit value")
	}

	core.Call(func() {
		if isReg {
			m.CPU.SetReg(reg, value)
			return
		}
		if !m.Mem.CheckAddr(addr) {
			err = fmt.Errorf("address %06x: %s", addr, memory.FaultNonexistent)
			return
		}
		m.Mem.SetMemory(addr&^3, value)
	})
	return false, err
}
