/*
 * SEL32 - Stack instructions.
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

import "github.com/rcornwell/SEL32/emu/memory"

/*
   Stack descriptor:

     word 0:  address of top of stack, grows upward.
     word 1:  words remaining (high half), words used (low half).
*/

type stack struct {
	desc      uint32 // Address of descriptor
	sp        uint32 // Stack pointer
	remaining uint32
	used      uint32
}

// Read stack descriptor at effective address.
func (c *CPU) readStack(s *step) (*stack, result, bool) {
	ea, _, f := c.effAddr(s)
	if f != memory.FaultNone {
		return nil, faultResult(f, ea), false
	}
	ea &^= 3
	sp, f := c.acc.ReadWord(ea, memory.Virtual)
	if f != memory.FaultNone {
		return nil, faultResult(f, ea), false
	}
	cnt, f := c.acc.ReadWord(ea+4, memory.Virtual)
	if f != memory.FaultNone {
		return nil, faultResult(f, ea+4), false
	}
	return &stack{desc: ea, sp: sp &^ 3, remaining: cnt >> 16, used: cnt & 0xffff}, result{}, true
}

// Write descriptor back.
func (c *CPU) writeStack(st *stack) result {
	if f := c.acc.WriteWord(st.desc, st.sp, memory.Virtual); f != memory.FaultNone {
		return faultResult(f, st.desc)
	}
	cnt := (st.remaining&0xffff)<<16 | (st.used & 0xffff)
	if f := c.acc.WriteWord(st.desc+4, cnt, memory.Virtual); f != memory.FaultNone {
		return faultResult(f, st.desc+4)
	}
	return next()
}

// Push words, room is checked before anything is stored.
func (c *CPU) push(s *step, words []uint32) result {
	st, r, ok := c.readStack(s)
	if !ok {
		return r
	}
	n := uint32(len(words))
	if st.remaining < n {
		return trap(TrapStack, st.desc)
	}
	for _, w := range words {
		st.sp += 4
		if f := c.acc.WriteWord(st.sp, w, memory.Virtual); f != memory.FaultNone {
			return faultResult(f, st.sp)
		}
	}
	st.remaining -= n
	st.used += n
	return c.writeStack(st)
}

// Pull words, last pushed first.
func (c *CPU) pull(s *step, n uint32) ([]uint32, result, bool) {
	st, r, ok := c.readStack(s)
	if !ok {
		return nil, r, false
	}
	if st.used < n {
		return nil, trap(TrapStack, st.desc), false
	}
	words := make([]uint32, n)
	for i := range words {
		w, f := c.acc.ReadWord(st.sp, memory.Virtual)
		if f != memory.FaultNone {
			return nil, faultResult(f, st.sp), false
		}
		words[i] = w
		st.sp -= 4
	}
	st.remaining += n
	st.used -= n
	r = c.writeStack(st)
	return words, r, r.kind == resNext
}

// PUSH.
func (c *CPU) opPUSH(s *step) result {
	return c.push(s, []uint32{c.regs[s.reg]})
}

// PULL.
func (c *CPU) opPULL(s *step) result {
	w, r, ok := c.pull(s, 1)
	if !ok {
		return r
	}
	c.regs[s.reg] = w[0]
	c.setCC(w[0])
	return next()
}

// PSHM, push R through 7.
func (c *CPU) opPSHM(s *step) result {
	return c.push(s, c.regs[s.reg:])
}

// PLLM, pull 7 down through R.
func (c *CPU) opPLLM(s *step) result {
	w, r, ok := c.pull(s, uint32(8-s.reg))
	if !ok {
		return r
	}
	for i, v := range w {
		c.regs[7-i] = v
	}
	return next()
}

// PLST, pull status and return from interrupt.
func (c *CPU) opPLST(s *step) result {
	if r, ok := c.privileged(s); !ok {
		return r
	}
	w, r, ok := c.pull(s, 2)
	if !ok {
		return r
	}
	c.releaseActive()
	c.setPSD(UnpackPSD(w[1], w[0]))
	return result{kind: resPSD}
}
