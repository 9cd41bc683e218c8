/*
 * SEL32 - Virtual memory access.
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

package memory

// Mode selects how an address is treated.
type Mode uint8

const (
	Physical      Mode = iota // No translation, no checks
	Virtual                   // Translate when mapped, check protection
	VirtualNoTrap             // Translate, skip protection checks
)

// Accessor binds memory to the current key and map of the processor.
type Accessor struct {
	Mem    *Memory
	Map    [MapSize]uint16
	Mapped bool  // Map in effect
	Key    uint8 // Current write key, 0 is master key
}

// Create accessor for memory.
func NewAccessor(mem *Memory) *Accessor {
	return &Accessor{Mem: mem}
}

// Invalidate all map entries.
func (a *Accessor) ClearMap() {
	clear(a.Map[:])
}

// Translate a logical address to physical.
func (a *Accessor) Translate(addr uint32, mode Mode, write bool) (uint32, Fault) {
	addr &= AMASK
	phys := addr
	if mode != Physical && a.Mapped {
		page := addr >> PageShift
		if page >= MapSize {
			return addr, FaultMap
		}
		entry := a.Map[page]
		if (entry & MapValid) == 0 {
			return addr, FaultMap
		}
		if write && mode == Virtual && (entry&MapWriteLock) != 0 {
			return addr, FaultProtect
		}
		phys = uint32(entry&MapPage)<<PageShift | (addr & PageMask)
	}

	if phys >= a.Mem.size {
		return phys, FaultNonexistent
	}

	// Key zero on either side disables the check.
	if write && mode == Virtual && a.Key != 0 {
		k := a.Mem.keys[phys>>KeyShift]
		if k != 0 && k != a.Key {
			return phys, FaultProtect
		}
	}
	return phys, FaultNone
}

// Read a word.
func (a *Accessor) ReadWord(addr uint32, mode Mode) (uint32, Fault) {
	if (addr & 3) != 0 {
		return 0, FaultAlign
	}
	phys, f := a.Translate(addr, mode, false)
	if f != FaultNone {
		return 0, f
	}
	return a.Mem.ReadWord(phys)
}

// Read a halfword.
func (a *Accessor) ReadHalf(addr uint32, mode Mode) (uint32, Fault) {
	if (addr & 1) != 0 {
		return 0, FaultAlign
	}
	phys, f := a.Translate(addr, mode, false)
	if f != FaultNone {
		return 0, f
	}
	return a.Mem.ReadHalf(phys)
}

// Read a byte.
func (a *Accessor) ReadByte(addr uint32, mode Mode) (uint32, Fault) {
	phys, f := a.Translate(addr, mode, false)
	if f != FaultNone {
		return 0, f
	}
	return a.Mem.ReadByte(phys)
}

// Read a doubleword.
func (a *Accessor) ReadDouble(addr uint32, mode Mode) (uint64, Fault) {
	if (addr & 7) != 0 {
		return 0, FaultAlign
	}
	phys, f := a.Translate(addr, mode, false)
	if f != FaultNone {
		return 0, f
	}
	return a.Mem.ReadDouble(phys)
}

// Write a word.
func (a *Accessor) WriteWord(addr, data uint32, mode Mode) Fault {
	if (addr & 3) != 0 {
		return FaultAlign
	}
	phys, f := a.Translate(addr, mode, true)
	if f != FaultNone {
		return f
	}
	return a.Mem.WriteWord(phys, data)
}

// Write a halfword.
func (a *Accessor) WriteHalf(addr, data uint32, mode Mode) Fault {
	if (addr & 1) != 0 {
		return FaultAlign
	}
	phys, f := a.Translate(addr, mode, true)
	if f != FaultNone {
		return f
	}
	return a.Mem.WriteHalf(phys, data)
}

// Write a byte.
func (a *Accessor) WriteByte(addr, data uint32, mode Mode) Fault {
	phys, f := a.Translate(addr, mode, true)
	if f != FaultNone {
		return f
	}
	return a.Mem.WriteByte(phys, data)
}

// Write a doubleword.
func (a *Accessor) WriteDouble(addr uint32, data uint64, mode Mode) Fault {
	if (addr & 7) != 0 {
		return FaultAlign
	}
	phys, f := a.Translate(addr, mode, true)
	if f != FaultNone {
		return f
	}
	return a.Mem.WriteDouble(phys, data)
}
