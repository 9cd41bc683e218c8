/*
 * SEL32 - Register blocks.
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

// Maximum register blocks.
const MaxBlocks = 16

// Set number of register blocks. Contents of a phantom block move into
// the new real block.
func (c *CPU) SetBlocks(n int) error {
	if n < 1 || n > MaxBlocks {
		return fmt.Errorf("register blocks must be 1 to %d: %d", MaxBlocks, n)
	}
	for len(c.blocks) < n {
		rb := uint8(len(c.blocks))
		blk, ok := c.phantom[rb]
		if ok {
			delete(c.phantom, rb)
		} else {
			blk = new([8]uint32)
		}
		c.blocks = append(c.blocks, blk)
	}
	c.blocks = c.blocks[:n]
	c.selectBlock()
	return nil
}

// Return number of register blocks.
func (c *CPU) Blocks() int {
	return len(c.blocks)
}

// Point registers at block selected by PSD.
func (c *CPU) selectBlock() {
	rb := c.psd.RB & 0xf
	if int(rb) < len(c.blocks) {
		c.regs = c.blocks[rb]
		return
	}

	blk, ok := c.phantom[rb]
	if !ok {
		blk = new([8]uint32)
		c.phantom[rb] = blk
		c.log.Warn("Register block not configured, using phantom block",
			"rb", rb, "blocks", len(c.blocks))
	}
	c.regs = blk
	c.scheduleRBCheck()
}

func (c *CPU) scheduleRBCheck() {
	if c.rbCheck || c.events == nil {
		return
	}
	c.rbCheck = true
	c.events.AddEvent(c, c.rbCorrect, RBCheckInterval, 0)
}

// Check register block pointer until it becomes valid.
func (c *CPU) rbCorrect(_ int) {
	c.rbCheck = false
	if int(c.psd.RB&0xf) < len(c.blocks) {
		return
	}
	c.log.Warn("Register block pointer still invalid", "rb", c.psd.RB, "blocks", len(c.blocks))
	c.scheduleRBCheck()
}

// Return true if a phantom block is in use.
func (c *CPU) PhantomBlock() bool {
	return int(c.psd.RB&0xf) >= len(c.blocks)
}
