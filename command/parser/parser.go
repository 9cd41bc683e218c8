/*
 * SEL32 - Command line parser.
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
	"io"
	"strings"
	"unicode"

	command "github.com/rcornwell/SEL32/command/command"
	core "github.com/rcornwell/SEL32/emu/core"
)

type cmd struct {
	Name     string // Command name.
	Min      int    // Minimum match size.
	Process  func(*cmdLine, *core.Core) (bool, error)
	Complete func(*cmdLine) []string
}

type cmdLine struct {
	line string    // Current command.
	pos  int       // Position in line.
	out  io.Writer // Where to print results.
}

var errNotNumber = errors.New("not a number")

// Execute the command line given, output is written to out.
func ProcessCommand(commandLine string, core *core.Core, out io.Writer) (bool, error) {
	line := cmdLine{line: commandLine, out: out}
	command := line.getWord()
	if command == "" {
		if !line.isEOL() {
			return false, errors.New("invalid command: " + commandLine)
		}
		return false, nil
	}

	match := matchList(command)
	if len(match) == 0 {
		return false, errors.New("command not found: " + command)
	}

	if len(match) > 1 {
		return false, errors.New("unique command not found: " + command)
	}

	return match[0].Process(&line, core)
}

// Check if command matches at least to minimum length.
func matchCommand(match cmd, command string) bool {
	if len(command) > len(match.Name) {
		return false
	}
	return strings.HasPrefix(match.Name, command) && len(command) >= match.Min
}

// Check if command matches one of the commands.
func matchList(command string) []cmd {
	var match []cmd
	for _, m := range cmdList {
		if m.Name == command {
			return []cmd{m}
		}
		if matchCommand(m, command) {
			match = append(match, m)
		}
	}
	return match
}

// Match list of options.
func matchOption(option string, optList []command.Options, cmdType int) command.Options {
	for _, opt := range optList {
		if (opt.OptionValid & cmdType) == 0 {
			continue
		}
		if opt.Name == option {
			return opt
		}
	}
	return command.Options{OptionType: -1}
}

// Print to command output.
func (line *cmdLine) println(text string) {
	if line.out != nil {
		fmt.Fprintln(line.out, text)
	}
}

// Skip forward over line until none whitespace character found.
func (line *cmdLine) skipSpace() {
	for line.pos < len(line.line) && unicode.IsSpace(rune(line.line[line.pos])) {
		line.pos++
	}
}

// Check if at end of line.
func (line *cmdLine) isEOL() bool {
	return line.pos >= len(line.line) || line.line[line.pos] == '#'
}

// Return current character without advancing. 0 if EOL.
func (line *cmdLine) peek() byte {
	if line.isEOL() {
		return 0
	}
	return line.line[line.pos]
}

// Return current character and advance to next.
func (line *cmdLine) getCurrent() byte {
	by := line.peek()
	if by != 0 {
		line.pos++
	}
	return by
}

// Check current character ends a token.
func (line *cmdLine) atSeparator() bool {
	by := line.peek()
	return by == 0 || unicode.IsSpace(rune(by))
}

// Get a word: a letter followed by letters or digits. Stops at space or =.
func (line *cmdLine) getWord() string {
	line.skipSpace()
	start := line.pos
	if !unicode.IsLetter(rune(line.peek())) {
		return ""
	}
	for by := line.peek(); unicode.IsLetter(rune(by)) || unicode.IsDigit(rune(by)); by = line.peek() {
		line.pos++
	}
	return strings.ToLower(line.line[start:line.pos])
}

// Get characters up to next space.
func (line *cmdLine) getToken() string {
	line.skipSpace()
	start := line.pos
	for !line.atSeparator() {
		line.pos++
	}
	return strings.ToLower(line.line[start:line.pos])
}

// Parse a decimal number.
func (line *cmdLine) getNumber() (uint32, error) {
	return line.getBase(10)
}

// Parse hex number.
func (line *cmdLine) getHex() (uint32, error) {
	return line.getBase(16)
}

// Parse number in base, position is restored if not a number.
func (line *cmdLine) getBase(base uint32) (uint32, error) {
	line.skipSpace()
	pos := line.pos
	if line.atSeparator() {
		return 0, errNotNumber
	}
	value := uint32(0)
	for !line.atSeparator() && line.peek() != '-' {
		digit, ok := digitValue(line.getCurrent())
		if !ok || digit >= base {
			line.pos = pos
			return 0, errNotNumber
		}
		value = value*base + digit
	}
	return value, nil
}

const hexDigits = "0123456789abcdef"

// Value of one hex digit.
func digitValue(by byte) (uint32, bool) {
	digit := strings.IndexByte(hexDigits, byte(unicode.ToLower(rune(by))))
	if digit == -1 {
		return 0, false
	}
	return uint32(digit), true
}

// Get an option.
func (line *cmdLine) getOption(opts []command.Options, cmdType int) (*command.CmdOption, error) {
	line.skipSpace()
	if line.isEOL() {
		return nil, nil
	}

	// Get a word, stoping at equal or space.
	name := line.getWord()
	if name == "" {
		return nil, errors.New("invalid option: " + line.line[line.pos:])
	}
	opt := command.CmdOption{Name: name}

	match := matchOption(name, opts, cmdType)
	switch match.OptionType {
	case -1:
		return nil, errors.New("unknown option: " + name)
	case command.OptionSwitch:
		if !line.atSeparator() {
			return nil, errors.New("switch option can't have arguments: " + name)
		}
	case command.OptionNumber:
		if line.getCurrent() != '=' {
			return nil, errors.New("number options must be followed by number: " + name)
		}
		num, err := line.getNumber()
		if err != nil {
			return nil, errors.New("number options must be followed by number: " + name)
		}
		opt.Value = num
	case command.OptionHex:
		if line.getCurrent() != '=' {
			return nil, errors.New("hex options must be followed by hexadecimal number: " + name)
		}
		num, err := line.getHex()
		if err != nil {
			return nil, errors.New("hex options must be followed by hexadecimal number: " + name)
		}
		opt.Value = num
	default:
		return nil, errors.New("invalid option type: " + name)
	}
	return &opt, nil
}

// Scan options and return a list of options.
func (line *cmdLine) getOptions(subject command.Command, cmdType int) ([]*command.CmdOption, error) {
	optlist := []*command.CmdOption{}
	opts := subject.Options()
	for {
		opt, err := line.getOption(opts, cmdType)
		if err != nil {
			return optlist, err
		}
		if opt == nil {
			break
		}
		optlist = append(optlist, opt)
	}
	return optlist, nil
}
