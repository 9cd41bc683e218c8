/*
 * SEL32 - Main memory and memory map.
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

const (
	MaxSize   uint32 = 4 * 1024 * 1024 // Largest memory supported
	AMASK     uint32 = 0x003fffff      // Mask physical address bits
	KeyShift         = 11              // Protection key per 2K
	PageShift        = 13              // Map page is 8K
	PageMask  uint32 = 0x1fff          // Offset within map page
	MapSize          = 512             // Number of map entries

	MapValid     uint16 = 0x8000 // Map entry valid
	MapWriteLock uint16 = 0x4000 // Page is write locked
	MapPage      uint16 = 0x01ff // Physical page number
)

// Fault is returned from every memory access.
type Fault uint8

const (
	FaultNone        Fault = iota // Access good
	FaultNonexistent              // Address beyond end of memory
	FaultProtect                  // Write protect or key violation
	FaultMap                      // Map entry not valid
	FaultAlign                    // Address not on operand boundary
)

func (f Fault) String() string {
	switch f {
	case FaultNone:
		return "none"
	case FaultNonexistent:
		return "nonexistent memory"
	case FaultProtect:
		return "protection"
	case FaultMap:
		return "map fault"
	case FaultAlign:
		return "address specification"
	}
	return "unknown"
}

// Memory holds physical storage as big endian words.
type Memory struct {
	words []uint32
	keys  []uint8
	size  uint32
}

// Create memory of k kilobytes.
func New(k int) *Memory {
	m := &Memory{}
	m.SetSize(k)
	return m
}

// Set size in K, existing contents are kept.
func (m *Memory) SetSize(k int) {
	if k < 0 {
		k = 0
	}
	size := uint32(k) * 1024
	if size > MaxSize {
		size = MaxSize
	}
	words := make([]uint32, size>>2)
	copy(words, m.words)
	keys := make([]uint8, (size+(1<<KeyShift)-1)>>KeyShift)
	copy(keys, m.keys)
	m.words = words
	m.keys = keys
	m.size = size
}

// Return size of memory in bytes.
func (m *Memory) Size() uint32 {
	return m.size
}

// Clear all of memory and keys.
func (m *Memory) Clear() {
	clear(m.words)
	clear(m.keys)
}

// Check if address in range.
func (m *Memory) CheckAddr(addr uint32) bool {
	return addr < m.size
}

// Get memory value without range check.
func (m *Memory) GetMemory(addr uint32) uint32 {
	return m.words[addr>>2]
}

// Set memory to a value, without range check.
func (m *Memory) SetMemory(addr, data uint32) {
	m.words[addr>>2] = data
}

// Set memory under mask, without range check.
func (m *Memory) SetMemoryMask(addr, data, mask uint32) {
	addr >>= 2
	m.words[addr] &= ^mask
	m.words[addr] |= data & mask
}

// Read a word from physical memory.
func (m *Memory) ReadWord(addr uint32) (uint32, Fault) {
	if (addr & 3) != 0 {
		return 0, FaultAlign
	}
	if addr >= m.size {
		return 0, FaultNonexistent
	}
	return m.words[addr>>2], FaultNone
}

// Read a halfword, returned in the low 16 bits.
func (m *Memory) ReadHalf(addr uint32) (uint32, Fault) {
	if (addr & 1) != 0 {
		return 0, FaultAlign
	}
	if addr >= m.size {
		return 0, FaultNonexistent
	}
	w := m.words[addr>>2]
	if (addr & 2) == 0 {
		w >>= 16
	}
	return w & 0xffff, FaultNone
}

// Read a byte.
func (m *Memory) ReadByte(addr uint32) (uint32, Fault) {
	if addr >= m.size {
		return 0, FaultNonexistent
	}
	w := m.words[addr>>2]
	return (w >> (8 * (3 - (addr & 3)))) & 0xff, FaultNone
}

// Read a doubleword.
func (m *Memory) ReadDouble(addr uint32) (uint64, Fault) {
	if (addr & 7) != 0 {
		return 0, FaultAlign
	}
	if (addr + 4) >= m.size {
		return 0, FaultNonexistent
	}
	return uint64(m.words[addr>>2])<<32 | uint64(m.words[(addr>>2)+1]), FaultNone
}

// Write a word.
func (m *Memory) WriteWord(addr, data uint32) Fault {
	if (addr & 3) != 0 {
		return FaultAlign
	}
	if addr >= m.size {
		return FaultNonexistent
	}
	m.words[addr>>2] = data
	return FaultNone
}

// Write the low 16 bits of data.
func (m *Memory) WriteHalf(addr, data uint32) Fault {
	if (addr & 1) != 0 {
		return FaultAlign
	}
	if addr >= m.size {
		return FaultNonexistent
	}
	if (addr & 2) == 0 {
		m.SetMemoryMask(addr, data<<16, 0xffff0000)
	} else {
		m.SetMemoryMask(addr, data, 0x0000ffff)
	}
	return FaultNone
}

// Write the low 8 bits of data.
func (m *Memory) WriteByte(addr, data uint32) Fault {
	if addr >= m.size {
		return FaultNonexistent
	}
	off := 8 * (3 - (addr & 3))
	m.SetMemoryMask(addr, (data&0xff)<<off, 0xff<<off)
	return FaultNone
}

// Write a doubleword.
func (m *Memory) WriteDouble(addr uint32, data uint64) Fault {
	if (addr & 7) != 0 {
		return FaultAlign
	}
	if (addr + 4) >= m.size {
		return FaultNonexistent
	}
	m.words[addr>>2] = uint32(data >> 32)
	m.words[(addr>>2)+1] = uint32(data)
	return FaultNone
}

// Return protection key of page holding addr.
func (m *Memory) GetKey(addr uint32) uint8 {
	if addr >= m.size {
		return 0
	}
	return m.keys[addr>>KeyShift]
}

// Set protection key of page holding addr.
func (m *Memory) SetKey(addr uint32, key uint8) {
	if addr < m.size {
		m.keys[addr>>KeyShift] = key & 0xf
	}
}
