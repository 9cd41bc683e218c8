/*
 * SEL32 - Memory test cases.
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

import (
	"testing"
)

// Set size in K.
func TestSetSize(t *testing.T) {
	m := New(0)
	for _, k := range []int{0, 1, 16, 128, 4096, 8192} {
		m.SetSize(k)
		expect := uint32(k * 1024)
		if expect > MaxSize {
			expect = MaxSize
		}
		if m.Size() != expect {
			t.Errorf("Memory size not correct got: %d expected: %d", m.Size(), expect)
		}
	}
}

// Resizing keeps contents.
func TestResizeKeeps(t *testing.T) {
	m := New(4)
	m.SetMemory(0x100, 0x12345678)
	m.SetSize(64)
	if v := m.GetMemory(0x100); v != 0x12345678 {
		t.Errorf("Resize lost contents got: %08x expected: %08x", v, 0x12345678)
	}
}

// Check partial word access.
func TestByteHalf(t *testing.T) {
	m := New(4)
	m.SetMemory(0x10, 0x01020304)
	for i := range uint32(4) {
		v, f := m.ReadByte(0x10 + i)
		if f != FaultNone || v != i+1 {
			t.Errorf("ReadByte %d got: %02x expected: %02x", i, v, i+1)
		}
	}
	v, _ := m.ReadHalf(0x10)
	if v != 0x0102 {
		t.Errorf("ReadHalf left got: %04x expected: %04x", v, 0x0102)
	}
	v, _ = m.ReadHalf(0x12)
	if v != 0x0304 {
		t.Errorf("ReadHalf right got: %04x expected: %04x", v, 0x0304)
	}
	_ = m.WriteByte(0x11, 0xff)
	_ = m.WriteHalf(0x12, 0xaabb)
	if w := m.GetMemory(0x10); w != 0x01ffaabb {
		t.Errorf("Partial write got: %08x expected: %08x", w, 0x01ffaabb)
	}
	_, f := m.ReadHalf(0x11)
	if f != FaultAlign {
		t.Errorf("ReadHalf odd address got: %v expected: %v", f, FaultAlign)
	}
	_, f = m.ReadWord(0x12)
	if f != FaultAlign {
		t.Errorf("ReadWord unaligned got: %v expected: %v", f, FaultAlign)
	}
}

// Access beyond end of memory.
func TestNonexistent(t *testing.T) {
	m := New(4)
	_, f := m.ReadWord(4096)
	if f != FaultNonexistent {
		t.Errorf("ReadWord past end got: %v expected: %v", f, FaultNonexistent)
	}
	if f = m.WriteByte(5000, 1); f != FaultNonexistent {
		t.Errorf("WriteByte past end got: %v expected: %v", f, FaultNonexistent)
	}
	_, f = m.ReadDouble(4096 - 8)
	if f != FaultNone {
		t.Errorf("ReadDouble last double got: %v expected: %v", f, FaultNone)
	}
}

// Check double words.
func TestDouble(t *testing.T) {
	m := New(4)
	if f := m.WriteDouble(0x20, 0x0102030405060708); f != FaultNone {
		t.Errorf("WriteDouble failed: %v", f)
	}
	if m.GetMemory(0x20) != 0x01020304 || m.GetMemory(0x24) != 0x05060708 {
		t.Errorf("WriteDouble wrong words %08x %08x", m.GetMemory(0x20), m.GetMemory(0x24))
	}
	v, _ := m.ReadDouble(0x20)
	if v != 0x0102030405060708 {
		t.Errorf("ReadDouble got: %016x", v)
	}
}

// Map translation and write locks.
func TestAccessorMap(t *testing.T) {
	m := New(64)
	a := NewAccessor(m)
	m.SetMemory(0x2000+0x10, 0xdeadbeef)
	a.Map[0] = MapValid | 1
	a.Mapped = true

	v, f := a.ReadWord(0x10, Virtual)
	if f != FaultNone || v != 0xdeadbeef {
		t.Errorf("Mapped read got: %08x %v expected: %08x", v, f, 0xdeadbeef)
	}
	v, _ = a.ReadWord(0x10, Physical)
	if v != 0 {
		t.Errorf("Physical read got: %08x expected: 0", v)
	}
	_, f = a.ReadWord(0x2010, Virtual)
	if f != FaultMap {
		t.Errorf("Invalid map entry got: %v expected: %v", f, FaultMap)
	}

	a.Map[0] |= MapWriteLock
	if f = a.WriteWord(0x10, 1, Virtual); f != FaultProtect {
		t.Errorf("Write locked page got: %v expected: %v", f, FaultProtect)
	}
	if f = a.WriteWord(0x10, 1, VirtualNoTrap); f != FaultNone {
		t.Errorf("Write locked page without trap got: %v expected: %v", f, FaultNone)
	}
	if m.GetMemory(0x2010) != 1 {
		t.Errorf("Write through map went to wrong location")
	}
}

// Protection keys.
func TestAccessorKey(t *testing.T) {
	m := New(64)
	a := NewAccessor(m)
	m.SetKey(0x800, 3)

	a.Key = 2
	if f := a.WriteWord(0x800, 1, Virtual); f != FaultProtect {
		t.Errorf("Key mismatch got: %v expected: %v", f, FaultProtect)
	}
	if _, f := a.ReadWord(0x800, Virtual); f != FaultNone {
		t.Errorf("Read with key mismatch got: %v expected: %v", f, FaultNone)
	}
	a.Key = 3
	if f := a.WriteWord(0x800, 1, Virtual); f != FaultNone {
		t.Errorf("Key match got: %v expected: %v", f, FaultNone)
	}
	a.Key = 0
	if f := a.WriteWord(0x800, 2, Virtual); f != FaultNone {
		t.Errorf("Master key got: %v expected: %v", f, FaultNone)
	}
	a.Key = 2
	if f := a.WriteWord(0x0, 2, Virtual); f != FaultNone {
		t.Errorf("Unprotected page got: %v expected: %v", f, FaultNone)
	}
}
