/*
 * SEL32 - CPU models.
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

import (
	"errors"
	"strings"
)

var ErrUnknownModel = errors.New("unknown CPU model")

// Model describes what a processor model can do.
type Model struct {
	Name     string
	AddrBits int  // Physical address bits
	RealExt  bool // Real extended addressing
	Blocks   int  // Register blocks
	Map      bool // Memory map
	Float    bool // Floating point
	Decimal  bool // Decimal conversion
	String   bool // Byte string instructions
	OddPairs bool // Register pairs may start on odd register
}

var models = []Model{
	{Name: "32/27", AddrBits: 20, Blocks: 2},
	{Name: "32/67", AddrBits: 20, Blocks: 2, Map: true, Float: true},
	{Name: "32/87", AddrBits: 20, Blocks: 4, Map: true, Float: true, Decimal: true},
	{Name: "32/97", AddrBits: 20, Blocks: 8, Map: true, Float: true, Decimal: true, String: true},
	{Name: "V6", AddrBits: 22, RealExt: true, Blocks: 8, Map: true, Float: true, Decimal: true, String: true},
	{Name: "V9", AddrBits: 22, RealExt: true, Blocks: 16, Map: true, Float: true, Decimal: true, String: true,
		OddPairs: true},
}

// DefaultModel is used until a CPU line is configured.
const DefaultModel = "32/87"

// Find model by name.
func LookupModel(name string) (Model, error) {
	for _, m := range models {
		if strings.EqualFold(m.Name, name) {
			return m, nil
		}
	}
	return Model{}, ErrUnknownModel
}

// Return names of all models.
func ModelNames() []string {
	names := make([]string, len(models))
	for i, m := range models {
		names[i] = m.Name
	}
	return names
}
