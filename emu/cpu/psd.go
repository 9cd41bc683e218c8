/*
 * SEL32 - Processor status doubleword.
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

package cpu

import "fmt"

/*
   PSW1:
      +--+--+--+--+--+--+--+--+-----------------------------+
      |PR|C1|C2|C3|C4|EX|CY|AE|        program counter      |
      +--+--+--+--+--+--+--+--+-----------------------------+
       0  1  2  3  4  5  6  7  8                          31

   PSW2:
      +-----------+--+--+-----+--+--+--+--+--------+--------+
      |    key    |MP|RX|     |BL|IE|II|IC|   RB   | index  |
      +-----------+--+--+-----+--+--+--+--+--------+--------+
       0         3 4  5        16 17 18 19 20    23 24    31
*/

// PSD is the unpacked processor status doubleword.
type PSD struct {
	Priv     bool   // Privileged state
	CC       uint8  // Condition codes, CC1 in bit 3
	Ext      bool   // Extended addressing
	Carry    bool   // Carry out of last add
	AExp     bool   // Arithmetic exception trap enable
	PC       uint32 // Program counter
	Key      uint8  // Protect key
	Mapped   bool   // Map enabled
	RealExt  bool   // Real extended addressing
	Blocked  bool   // Interrupts blocked
	InhExt   bool   // External groups inhibited
	InhIO    bool   // I/O group inhibited
	InhCnt   bool   // Counter groups inhibited
	RB       uint8  // Register block
	MapIndex uint8  // Map index
}

func flag(b bool, mask uint32) uint32 {
	if b {
		return mask
	}
	return 0
}

// Pack PSD into two words.
func (p PSD) Pack() (uint32, uint32) {
	w1 := flag(p.Priv, psw1Priv) |
		(uint32(p.CC&0xf) << ccShift) |
		flag(p.Ext, psw1Ext) |
		flag(p.Carry, psw1Carry) |
		flag(p.AExp, psw1AExp) |
		(p.PC & psw1PC)
	w2 := (uint32(p.Key&0xf) << 28) |
		flag(p.Mapped, psw2Mapped) |
		flag(p.RealExt, psw2RealExt) |
		flag(p.Blocked, psw2Blocked) |
		flag(p.InhExt, psw2InhExt) |
		flag(p.InhIO, psw2InhIO) |
		flag(p.InhCnt, psw2InhCnt) |
		(uint32(p.RB&0xf) << 8) |
		uint32(p.MapIndex)
	return w1, w2
}

// Unpack PSD from two words.
func UnpackPSD(w1, w2 uint32) PSD {
	return PSD{
		Priv:     (w1 & psw1Priv) != 0,
		CC:       uint8((w1 & psw1CC) >> ccShift),
		Ext:      (w1 & psw1Ext) != 0,
		Carry:    (w1 & psw1Carry) != 0,
		AExp:     (w1 & psw1AExp) != 0,
		PC:       w1 & psw1PC,
		Key:      uint8(w2 >> 28),
		Mapped:   (w2 & psw2Mapped) != 0,
		RealExt:  (w2 & psw2RealExt) != 0,
		Blocked:  (w2 & psw2Blocked) != 0,
		InhExt:   (w2 & psw2InhExt) != 0,
		InhIO:    (w2 & psw2InhIO) != 0,
		InhCnt:   (w2 & psw2InhCnt) != 0,
		RB:       uint8((w2 & psw2RB) >> 8),
		MapIndex: uint8(w2 & psw2Index),
	}
}

func (p PSD) String() string {
	w1, w2 := p.Pack()
	return fmt.Sprintf("%08x %08x", w1, w2)
}
