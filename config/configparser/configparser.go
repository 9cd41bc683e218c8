/*
 * SEL32 - Configuration file parser.
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

package configparser

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode"

	D "github.com/rcornwell/SEL32/emu/device"
)

/* Configuration file format:
 *
 * '#' indicates comment, rest of line is ignored.
 * <line> := <model> <whitespace> <first> *(<whitespace> <option>)
 * <model> := <letter> *(<letter> | <number>)
 * <first> := <hexaddress> | <value> | <quoteopt>
 * <option> := <name> ['=' <quoteopt>] *(',' <name>)
 * <quoteopt> := <value> | '"' *<any> '"'
 * <value> := *(<letter> | <number> | '/' | '-' | '.')
 */

const (
	TypeModel   = 1 + iota // Device, requires address.
	TypeOption             // Takes a single value.
	TypeOptions            // Takes a value and list of options.
	TypeSwitch             // No value, sets a flag.
	TypeFile               // Takes a file name.
)

// ErrUnknown is returned when a line names an unregistered model.
var ErrUnknown = errors.New("no type registered")

// List of options to pass to create routine.
type Option struct {
	Name     string    // Name of option.
	EqualOpt string    // Value of string after =.
	Value    []*string // Values after commas.
}

// Creator is called for each configuration line.
type Creator func(devNum uint16, value string, options []Option) error

type modelDef struct {
	create Creator
	ty     int
}

// Parser holds registered line types.
type Parser struct {
	models     map[string]modelDef
	lineNumber int
}

// Current line being parsed.
type optionLine struct {
	line string
	pos  int
}

// Create a parser with no types registered.
func New() *Parser {
	return &Parser{models: map[string]modelDef{}}
}

// Register a line type.
func (p *Parser) Register(mod string, ty int, fn Creator) {
	p.models[strings.ToUpper(mod)] = modelDef{create: fn, ty: ty}
}

// Register a device model.
func (p *Parser) RegisterModel(mod string, fn Creator) {
	p.Register(mod, TypeModel, fn)
}

// Register option with one value.
func (p *Parser) RegisterOption(mod string, fn Creator) {
	p.Register(mod, TypeOption, fn)
}

// Register option with value and options.
func (p *Parser) RegisterOptions(mod string, fn Creator) {
	p.Register(mod, TypeOptions, fn)
}

// Register a switch.
func (p *Parser) RegisterSwitch(mod string, fn Creator) {
	p.Register(mod, TypeSwitch, fn)
}

// Register a file name option.
func (p *Parser) RegisterFile(mod string, fn Creator) {
	p.Register(mod, TypeFile, fn)
}

// Return list of registered names.
func (p *Parser) Names() []string {
	names := make([]string, 0, len(p.models))
	for name := range p.models {
		names = append(names, name)
	}
	return names
}

// Load in a configuration file.
func (p *Parser) LoadConfigFile(name string) error {
	file, err := os.Open(name)
	if err != nil {
		return err
	}
	defer file.Close()
	return p.Load(file)
}

// Process configuration from reader.
func (p *Parser) Load(r io.Reader) error {
	p.lineNumber = 0
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		p.lineNumber++
		if err := p.ParseLine(scanner.Text()); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// Parse one line of configuration.
func (p *Parser) ParseLine(text string) error {
	line := &optionLine{line: text}
	name := line.getName()
	if name == "" {
		if !line.isEOL() {
			return fmt.Errorf("invalid model name, line: %d", p.lineNumber)
		}
		return nil
	}
	model, ok := p.models[strings.ToUpper(name)]
	if !ok {
		return fmt.Errorf("%w: %s, line: %d", ErrUnknown, name, p.lineNumber)
	}

	switch model.ty {
	case TypeSwitch:
		line.skipSpace()
		if !line.isEOL() {
			return fmt.Errorf("switch %s followed by options, line: %d", name, p.lineNumber)
		}
		return model.create(0, "", nil)

	case TypeFile:
		line.skipSpace()
		file, ok := line.getQuoted()
		line.skipSpace()
		if !ok || file == "" || !line.isEOL() {
			return fmt.Errorf("%s requires a file name, line: %d", name, p.lineNumber)
		}
		return model.create(D.NoDev, file, nil)
	}

	line.skipSpace()
	value, ok := line.getQuoted()
	if !ok || value == "" {
		return fmt.Errorf("%s not followed by value, line: %d", name, p.lineNumber)
	}
	devNum, isAddr := parseAddress(value)

	options, err := line.parseOptions()
	if err != nil {
		return fmt.Errorf("%w, line: %d", err, p.lineNumber)
	}

	switch model.ty {
	case TypeModel:
		if !isAddr {
			return fmt.Errorf("device %s requires device address, line: %d", name, p.lineNumber)
		}
		return model.create(devNum, "", options)
	case TypeOption:
		if len(options) != 0 {
			return fmt.Errorf("option %s takes only one value, line: %d", name, p.lineNumber)
		}
	}
	return model.create(devNum, value, options)
}

// Hex device addresses are limited to 11 bits.
func parseAddress(value string) (uint16, bool) {
	v, err := strconv.ParseUint(value, 16, 16)
	if err != nil || uint16(v) > D.AddrMask {
		return D.NoDev, false
	}
	return uint16(v), true
}

// Parse a size with optional K or M suffix, returned in K.
func ParseSize(value string) (int, error) {
	mult := 1
	v := strings.ToUpper(value)
	switch {
	case strings.HasSuffix(v, "K"):
		v = v[:len(v)-1]
	case strings.HasSuffix(v, "M"):
		v = v[:len(v)-1]
		mult = 1024
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid size: %s", value)
	}
	return n * mult, nil
}

// Skip forward over white space.
func (line *optionLine) skipSpace() {
	for line.pos < len(line.line) && unicode.IsSpace(rune(line.line[line.pos])) {
		line.pos++
	}
}

// Check if at end of line or comment.
func (line *optionLine) isEOL() bool {
	return line.pos >= len(line.line) || line.line[line.pos] == '#'
}

// Return current character or 0.
func (line *optionLine) peek() byte {
	if line.isEOL() {
		return 0
	}
	return line.line[line.pos]
}

// Get a name: letter followed by letters or digits.
func (line *optionLine) getName() string {
	line.skipSpace()
	start := line.pos
	if !unicode.IsLetter(rune(line.peek())) {
		return ""
	}
	for by := line.peek(); unicode.IsLetter(rune(by)) || unicode.IsDigit(rune(by)); by = line.peek() {
		line.pos++
	}
	return line.line[start:line.pos]
}

// Get a value which is either quoted or up to space, comma or comment.
func (line *optionLine) getQuoted() (string, bool) {
	if line.peek() != '"' {
		start := line.pos
		for by := line.peek(); by != 0 && by != ',' && !unicode.IsSpace(rune(by)); by = line.peek() {
			line.pos++
		}
		return line.line[start:line.pos], true
	}

	// Quoted string, "" is a single quote.
	var value strings.Builder
	line.pos++
	for line.pos < len(line.line) {
		by := line.line[line.pos]
		line.pos++
		if by == '"' {
			if line.pos < len(line.line) && line.line[line.pos] == '"' {
				line.pos++
			} else {
				return value.String(), true
			}
		}
		value.WriteByte(by)
	}
	return value.String(), false
}

// Parse one option.
func (line *optionLine) parseOption() (*Option, error) {
	line.skipSpace()
	if line.isEOL() {
		return nil, nil
	}
	name := line.getName()
	if name == "" {
		return nil, fmt.Errorf("invalid option at position %d", line.pos)
	}
	option := &Option{Name: name}

	if line.peek() == '=' {
		line.pos++
		v, ok := line.getQuoted()
		if !ok {
			return nil, fmt.Errorf("invalid quoted string at position %d", line.pos)
		}
		option.EqualOpt = v
	}

	line.skipSpace()
	for line.peek() == ',' {
		line.pos++
		line.skipSpace()
		v := line.getName()
		if v == "" {
			return nil, fmt.Errorf("invalid option value at position %d", line.pos)
		}
		option.Value = append(option.Value, &v)
		line.skipSpace()
	}
	return option, nil
}

// Collect all options for line.
func (line *optionLine) parseOptions() ([]Option, error) {
	options := []Option{}
	for {
		option, err := line.parseOption()
		if err != nil {
			return nil, err
		}
		if option == nil {
			return options, nil
		}
		options = append(options, *option)
	}
}
