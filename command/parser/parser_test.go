/*
 * SEL32 - Console command tests.
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
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	config "github.com/rcornwell/SEL32/config/configparser"
	core "github.com/rcornwell/SEL32/emu/core"
	"github.com/rcornwell/SEL32/emu/master"
)

type consoleTest struct {
	core *core.Core
	out  bytes.Buffer
}

func setup(t *testing.T) *consoleTest {
	t.Helper()
	m := core.NewMachine(nil)
	p := config.New()
	m.Configure(p)
	require.NoError(t, p.Load(strings.NewReader("MEMORY 64K\nCHANNEL 0\nTESTDEV 00f\n")))
	c := core.NewCore(m, make(chan master.Packet))
	go c.Start()
	t.Cleanup(c.Stop)
	return &consoleTest{core: c}
}

// Run command and return output.
func (ct *consoleTest) run(t *testing.T, line string) string {
	t.Helper()
	ct.out.Reset()
	quit, err := ProcessCommand(line, ct.core, &ct.out)
	require.NoError(t, err, line)
	assert.False(t, quit)
	return strings.TrimSpace(ct.out.String())
}

func TestDepositExamine(t *testing.T) {
	ct := setup(t)
	ct.run(t, "deposit 100 12345678")
	ct.run(t, "dep 104 9abcdef0")
	assert.Equal(t, "000100: 12345678", ct.run(t, "examine 100"))
	assert.Equal(t, "000100: 12345678 9ABCDEF0", ct.run(t, "ex 100 2"))
	assert.Equal(t, "000100: 12345678 9ABCDEF0 00000000 00000000\n000110: 00000000",
		ct.run(t, "examine 100-110"))

	ct.run(t, "deposit 108 80000400")
	ct.run(t, "deposit 10c fc000001")
	assert.Equal(t, "000108: 80000400  BU    400\n00010C: FC000001  DATA  FC000001",
		ct.run(t, "disassemble 108-10c"))

	ct.run(t, "deposit r3 ff")
	assert.Equal(t, "R3=000000ff", ct.run(t, "examine r3"))
}

func TestExamineErrors(t *testing.T) {
	ct := setup(t)
	tests := []string{
		"examine",
		"examine 200-100",
		"examine 20000",
		"deposit 100",
		"deposit 100 xyz",
		"deposit 20000 1",
		"deposit r9 1",
	}
	for _, line := range tests {
		_, err := ProcessCommand(line, ct.core, &ct.out)
		assert.Error(t, err, line)
	}
}

func TestSetCPU(t *testing.T) {
	ct := setup(t)
	ct.run(t, "set cpu blocks=8 execlimit=3 extgroups=2")
	m := ct.core.Machine()
	var blocks, limit, groups int
	ct.core.Call(func() {
		blocks = m.CPU.Blocks()
		limit = m.CPU.ExecLimit()
		groups = m.IRQ.NumExternal()
	})
	assert.Equal(t, 8, blocks)
	assert.Equal(t, 3, limit)
	assert.Equal(t, 2, groups)

	_, err := ProcessCommand("set cpu speed=4", ct.core, nil)
	assert.Error(t, err)
	_, err = ProcessCommand("set cpu blocks=99", ct.core, nil)
	assert.Error(t, err)
	_, err = ProcessCommand("set cpu", ct.core, nil)
	assert.Error(t, err)
	_, err = ProcessCommand("set irq", ct.core, nil)
	assert.Error(t, err)
}

func TestShow(t *testing.T) {
	ct := setup(t)
	assert.Contains(t, ct.run(t, "show cpu"), "CPU 32/87 memory 64K")
	assert.Contains(t, ct.run(t, "show cpu regs"), "R0=00000000")
	assert.NotContains(t, ct.run(t, "show cpu regs"), "PSD")
	assert.Contains(t, ct.run(t, "show irq"), "Group")
	assert.Contains(t, ct.run(t, "show channel"), "[0]")
	assert.Contains(t, ct.run(t, "show channel 0"), "00f idle")
	assert.Contains(t, ct.run(t, "show stats"), "Instructions: 0")

	_, err := ProcessCommand("show channel 3", ct.core, nil)
	assert.Error(t, err)
	_, err = ProcessCommand("show memory", ct.core, nil)
	assert.Error(t, err)
}

func TestCommands(t *testing.T) {
	ct := setup(t)
	quit, err := ProcessCommand("quit", ct.core, nil)
	require.NoError(t, err)
	assert.True(t, quit)

	_, err = ProcessCommand("bogus", ct.core, nil)
	assert.Error(t, err)
	_, err = ProcessCommand("s", ct.core, nil)
	assert.Error(t, err)
	_, err = ProcessCommand("ipl", ct.core, nil)
	assert.Error(t, err)
	_, err = ProcessCommand("ipl fff", ct.core, nil)
	assert.Error(t, err)

	quit, err = ProcessCommand("  # comment", ct.core, nil)
	assert.NoError(t, err)
	assert.False(t, quit)

	ct.run(t, "reset")
	ct.run(t, "stop")
}

func TestComplete(t *testing.T) {
	assert.Equal(t, []string{"show"}, CompleteCmd("sh"))
	assert.Equal(t, []string{"set", "show", "start", "stop"}, CompleteCmd("s"))
	assert.Equal(t, []string{"show channel ", "show cpu "}, CompleteCmd("show c"))
	assert.Equal(t, []string{"set cpu blocks="}, CompleteCmd("set cpu bl"))
	assert.Equal(t, []string{"show cpu psd ", "show cpu regs "}, CompleteCmd("show cpu "))
	assert.Nil(t, CompleteCmd("bogus x"))
}
