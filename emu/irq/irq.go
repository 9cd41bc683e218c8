/*
 * SEL32 - Interrupt priority chain.
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

package irq

import (
	"fmt"
	"log/slog"
	"math/bits"
)

/*
   Interrupts are arranged as a chain of groups. Each group holds up to
   16 levels, with level 0 of group 0 the highest priority. A level
   number is group<<4 | bit.

   Each level has four states:
      armed      Level may be requested.
      enabled    Requested level may be granted.
      requested  Level is waiting for service.
      active     Level is being serviced.

   Exchange levels swap PSDs through an interrupt context block. Micro-op
   levels execute the instruction at their vector and return at once.
*/

type Kind uint8

const (
	Exchange Kind = iota // Swap PSD through context block
	MicroOp              // Execute instruction at vector
)

func (k Kind) String() string {
	if k == MicroOp {
		return "micro-op"
	}
	return "exchange"
}

// Fixed group numbers.
const (
	GroupMC       = 0 // Machine check
	GroupCounter  = 1 // Counter overflow
	GroupPulse    = 2 // Count pulse
	GroupIO       = 3 // I/O channels
	GroupExternal = 4 // First external group

	MaxExternal = 8 // Most external groups

	VectorBase   uint32 = 0x100 // Vector of first level
	GroupSpacing uint32 = 0x40  // Vector space per group
)

// Machine check levels.
const (
	MCNonexistent = 0 // Nonexistent memory
	MCPower       = 1 // Power fail or operator
	MCRegBlock    = 2 // Register block fault
	MCChannel     = 3 // Channel fault
)

// Inhibit state from the current PSD.
type Inhibit struct {
	Blocked  bool // All maskable interrupts
	IO       bool // I/O group
	External bool // External groups
	Counter  bool // Counter groups
}

// Source of I/O interrupt requests.
type IOPoller interface {
	IRQPending() bool
}

// Group holds the state of one group of levels.
type Group struct {
	Name      string
	Kind      Kind
	Width     int
	Armed     uint16
	Enabled   uint16
	Requested uint16
	Active    uint16
}

type Manager struct {
	groups []*Group
	io     IOPoller
	log    *slog.Logger
}

// Return level number for group and bit.
func Level(group, bit int) int {
	return group<<4 | bit
}

// Create interrupt chain with number of external groups.
func New(numExternal int, io IOPoller, log *slog.Logger) (*Manager, error) {
	if log == nil {
		log = slog.Default()
	}
	m := &Manager{io: io, log: log}
	m.groups = []*Group{
		{Name: "machine-check", Kind: Exchange, Width: 4},
		{Name: "counter-overflow", Kind: Exchange, Width: 16},
		{Name: "count-pulse", Kind: MicroOp, Width: 16},
		{Name: "io", Kind: Exchange, Width: 1},
	}
	if err := m.SetExternalGroups(numExternal); err != nil {
		return nil, err
	}
	m.Reset()
	return m, nil
}

// Set the I/O request source.
func (m *Manager) SetPoller(io IOPoller) {
	m.io = io
}

// Change number of external groups. Existing groups keep their state.
func (m *Manager) SetExternalGroups(n int) error {
	if n < 0 || n > MaxExternal {
		return fmt.Errorf("external groups must be 0 to %d: %d", MaxExternal, n)
	}
	cur := len(m.groups) - GroupExternal
	if n == cur {
		return nil
	}
	if n < cur {
		m.groups = m.groups[:GroupExternal+n]
	} else {
		for i := cur; i < n; i++ {
			m.groups = append(m.groups, &Group{Name: fmt.Sprintf("external-%d", i), Kind: Exchange, Width: 16})
		}
	}
	m.log.Debug("Interrupt chain rebuilt", "external", n)
	return nil
}

// Return number of external groups.
func (m *Manager) NumExternal() int {
	return len(m.groups) - GroupExternal
}

// Return copy of group states.
func (m *Manager) Groups() []Group {
	list := make([]Group, len(m.groups))
	for i, g := range m.groups {
		list[i] = *g
	}
	return list
}

// Return name of level.
func (m *Manager) Name(num int) string {
	g, _, ok := m.level(num)
	if !ok {
		return fmt.Sprintf("invalid-%02x", num)
	}
	return fmt.Sprintf("%s.%d", g.Name, num&0xf)
}

func (m *Manager) level(num int) (*Group, uint16, bool) {
	idx := num >> 4
	bit := num & 0xf
	if num < 0 || idx >= len(m.groups) || bit >= m.groups[idx].Width {
		return nil, 0, false
	}
	return m.groups[idx], 1 << bit, true
}

// Arm a level.
func (m *Manager) Arm(num int) bool {
	g, mask, ok := m.level(num)
	if ok {
		g.Armed |= mask
	}
	return ok
}

// Disarm a level, any request is dropped.
func (m *Manager) Disarm(num int) bool {
	g, mask, ok := m.level(num)
	if ok {
		g.Armed &^= mask
		g.Requested &^= mask
	}
	return ok
}

// Enable a level.
func (m *Manager) Enable(num int) bool {
	g, mask, ok := m.level(num)
	if ok {
		g.Enabled |= mask
	}
	return ok
}

// Disable a level.
func (m *Manager) Disable(num int) bool {
	g, mask, ok := m.level(num)
	if ok {
		g.Enabled &^= mask
	}
	return ok
}

// Request a level, ignored unless armed.
func (m *Manager) Request(num int) bool {
	g, mask, ok := m.level(num)
	if !ok || (g.Armed&mask) == 0 {
		return false
	}
	g.Requested |= mask
	return true
}

// Return true if level is armed.
func (m *Manager) Armed(num int) bool {
	g, mask, ok := m.level(num)
	return ok && (g.Armed&mask) != 0
}

func (m *Manager) inhibited(idx int, inh Inhibit) bool {
	switch {
	case idx == GroupMC:
		return false
	case inh.Blocked:
		return true
	case idx == GroupCounter || idx == GroupPulse:
		return inh.Counter
	case idx == GroupIO:
		return inh.IO
	}
	return inh.External
}

// Return highest priority level ready to be granted. A level is only
// granted if it is higher priority than any active level.
func (m *Manager) Pending(inh Inhibit) (int, bool) {
	if m.io != nil {
		io := m.groups[GroupIO]
		if m.io.IRQPending() {
			m.Request(Level(GroupIO, 0))
		} else {
			io.Requested &^= 1
		}
	}

	active, hasActive := m.HighestActive()
	for idx, g := range m.groups {
		ready := g.Armed & g.Enabled & g.Requested
		if ready == 0 || m.inhibited(idx, inh) {
			continue
		}
		num := Level(idx, bits.TrailingZeros16(ready))
		if hasActive && num >= active {
			return 0, false
		}
		return num, true
	}
	return 0, false
}

// Grant a level, returns its vector location and kind.
func (m *Manager) Accept(num int) (uint32, Kind) {
	g, mask, ok := m.level(num)
	if !ok {
		return 0, Exchange
	}
	g.Armed &^= mask
	g.Active |= mask
	vector := VectorBase + uint32(num>>4)*GroupSpacing + uint32(num&0xf)*4
	return vector, g.Kind
}

// Finish servicing a level.
func (m *Manager) Release(num int, rearm bool) {
	g, mask, ok := m.level(num)
	if !ok {
		return
	}
	g.Requested &^= mask
	g.Active &^= mask
	if rearm {
		g.Armed |= mask
	}
}

// Return the highest priority active level.
func (m *Manager) HighestActive() (int, bool) {
	for idx, g := range m.groups {
		if g.Active != 0 {
			return Level(idx, bits.TrailingZeros16(g.Active)), true
		}
	}
	return 0, false
}

// Clear all levels, machine check comes back armed and enabled.
func (m *Manager) Reset() {
	for _, g := range m.groups {
		g.Armed = 0
		g.Enabled = 0
		g.Requested = 0
		g.Active = 0
	}
	mc := m.groups[GroupMC]
	mc.Armed = uint16(1<<mc.Width) - 1
	mc.Enabled = mc.Armed
}
