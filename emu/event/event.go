/*
 * SEL32 - Event scheduler.
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

package event

import (
	"container/heap"
)

type Callback = func(iarg int)

// Token identifies a scheduled event. Zero is never a valid token.
type Token uint64

type Event struct {
	when  uint64   // Tick event is due
	seq   uint64   // Insertion order for events due on same tick
	owner any      // Owner of the event, must be comparable
	cb    Callback // Function to callback
	iarg  int      // Integer argument
	index int      // Position in heap
}

type eventHeap []*Event

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].when == h[j].when {
		return h[i].seq < h[j].seq
	}
	return h[i].when < h[j].when
}

func (h eventHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *eventHeap) Push(x any) {
	ev := x.(*Event)
	ev.index = len(*h)
	*h = append(*h, ev)
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	ev := old[n-1]
	old[n-1] = nil
	ev.index = -1
	*h = old[:n-1]
	return ev
}

// Queue is a virtual time event list.
type Queue struct {
	now    uint64
	seq    uint64
	events eventHeap
	tokens map[Token]*Event
}

// Create empty event queue.
func New() *Queue {
	return &Queue{tokens: map[Token]*Event{}}
}

// Add an event delay ticks in the future. A delay of zero runs
// the callback before returning.
func (q *Queue) AddEvent(owner any, cb Callback, delay int, iarg int) Token {
	if delay <= 0 {
		cb(iarg)
		return 0
	}

	q.seq++
	ev := &Event{when: q.now + uint64(delay), seq: q.seq, owner: owner, cb: cb, iarg: iarg}
	heap.Push(&q.events, ev)
	q.tokens[Token(ev.seq)] = ev
	return Token(ev.seq)
}

// Cancel one event by token.
func (q *Queue) Cancel(token Token) bool {
	ev, ok := q.tokens[token]
	if !ok {
		return false
	}
	delete(q.tokens, token)
	heap.Remove(&q.events, ev.index)
	return true
}

// Cancel all events for owner with matching argument.
func (q *Queue) CancelEvent(owner any, iarg int) {
	for token, ev := range q.tokens {
		if ev.owner == owner && ev.iarg == iarg {
			delete(q.tokens, token)
			heap.Remove(&q.events, ev.index)
		}
	}
}

// Advance time by t ticks, running every event that comes due.
func (q *Queue) Advance(t int) {
	target := q.now
	if t > 0 {
		target += uint64(t)
	}
	for len(q.events) > 0 && q.events[0].when <= target {
		ev := heap.Pop(&q.events).(*Event)
		delete(q.tokens, Token(ev.seq))
		q.now = ev.when
		ev.cb(ev.iarg)
	}
	q.now = target
}

// Return true if any events pending.
func (q *Queue) AnyEvent() bool {
	return len(q.events) != 0
}

// Number of pending events.
func (q *Queue) Len() int {
	return len(q.events)
}

// Current virtual time.
func (q *Queue) Now() uint64 {
	return q.now
}

// Remove all events.
func (q *Queue) Reset() {
	q.events = nil
	clear(q.tokens)
}
