/*
 * SEL32 - Command completion.
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
	"slices"
	"strings"

	command "github.com/rcornwell/SEL32/command/command"
)

// Called to complete a command line, during line editing.
func CompleteCmd(commandLine string) []string {
	line := cmdLine{line: commandLine}
	name := line.getWord()

	// We have a command, let it try and complete it.
	if !line.isEOL() {
		match := matchList(name)
		if len(match) != 1 {
			return nil
		}

		if match[0].Complete != nil {
			return match[0].Complete(&line)
		}
		return nil
	}

	// Try and match one command.
	var matches []string
	for _, m := range cmdList {
		if strings.HasPrefix(m.Name, name) {
			matches = append(matches, m.Name)
		}
	}
	slices.Sort(matches)
	return matches
}

// Complete subject name then its options.
func (line *cmdLine) scanSubject(cmdType int) []string {
	line.skipSpace()
	leading := line.line[:line.pos]
	name := line.getWord()
	if line.isEOL() {
		var matches []string
		for _, s := range subjectNames {
			if strings.HasPrefix(s, name) {
				matches = append(matches, leading+s+" ")
			}
		}
		return matches
	}

	subject, err := getSubject(name, nil)
	if err != nil {
		return nil
	}
	return line.scanOpts(subject, cmdType)
}

// Complete last option on line.
func (line *cmdLine) scanOpts(subject command.Command, cmdType int) []string {
	line.skipSpace()
	last := line.pos
	for !line.isEOL() {
		line.getToken()
		line.skipSpace()
		if !line.isEOL() {
			last = line.pos
		}
	}
	leading := line.line[:last]
	word := strings.ToLower(line.line[last:])

	var matches []string
	for _, opt := range subject.Options() {
		if (opt.OptionValid & cmdType) == 0 {
			continue
		}
		if strings.HasPrefix(opt.Name, word) {
			suffix := " "
			if opt.OptionType != command.OptionSwitch {
				suffix = "="
			}
			matches = append(matches, leading+opt.Name+suffix)
		}
	}
	slices.Sort(matches)
	return matches
}
