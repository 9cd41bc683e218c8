/*
 * SEL32 - Instruction disassembler.
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

package disassemble

import (
	"fmt"
	"strings"

	op "github.com/rcornwell/SEL32/emu/cpu"
)

const (
	tyAug   = 1 + iota // Name by augment, no operands
	tyRR               // R1,R2 name by augment
	tyShift            // R,count
	tyImm              // R,immediate name by augment
	tyMem              // R,address with operand size suffix
	tyBranch           // Address only
	tyRegAddr          // R,address no size
	tyCond             // Condition,address
	tyInt              // Level, name by R field
	tyIO               // R,device name by augment
	tyFloat            // R,address word or double
)

type opcode struct {
	opName []string // Opcode strings, indexed by augment when more than one.
	opType int      // Opcode type.
}

var opMap = map[uint8]opcode{
	op.OpMisc:   {[]string{"HALT", "WAIT", "NOP", "RPSW", "BEI", "UEI", "EAE", "DAE", "RDEA"}, tyAug},
	op.OpRegMov: {[]string{"TRR", "TRC", "TRN", "XCR", "ORR", "ANR", "EOR", "ZR"}, tyRR},
	op.OpRegAri: {[]string{"ADR", "SUR", "MPR", "DVR", "CAR", "ADRD", "SURD", "ADCR"}, tyRR},
	op.OpSLA:    {[]string{"SLA"}, tyShift},
	op.OpSRA:    {[]string{"SRA"}, tyShift},
	op.OpSLL:    {[]string{"SLL"}, tyShift},
	op.OpSRL:    {[]string{"SRL"}, tyShift},
	op.OpSLC:    {[]string{"SLC"}, tyShift},
	op.OpSRC:    {[]string{"SRC"}, tyShift},
	op.OpSLLD:   {[]string{"SLLD"}, tyShift},
	op.OpSRLD:   {[]string{"SRLD"}, tyShift},
	op.OpImm:    {[]string{"LI", "ADI", "SUI", "MPI", "DVI", "CI", "ANI", "ORI", "EOI", "SVC", "EXR"}, tyImm},
	op.OpDec:    {[]string{"CVB", "CVD"}, tyRR},
	op.OpStr:    {[]string{"MOVB", "CMPB"}, tyRR},
	op.OpL:      {[]string{"L"}, tyMem},
	op.OpLN:     {[]string{"LN"}, tyMem},
	op.OpLEA:    {[]string{"LEA"}, tyRegAddr},
	op.OpST:     {[]string{"ST"}, tyMem},
	op.OpADM:    {[]string{"ADM"}, tyMem},
	op.OpSUM:    {[]string{"SUM"}, tyMem},
	op.OpMPM:    {[]string{"MPM"}, tyMem},
	op.OpDVM:    {[]string{"DVM"}, tyMem},
	op.OpCAM:    {[]string{"CAM"}, tyMem},
	op.OpANM:    {[]string{"ANM"}, tyMem},
	op.OpORM:    {[]string{"ORM"}, tyMem},
	op.OpEOM:    {[]string{"EOM"}, tyMem},
	op.OpARM:    {[]string{"ARM"}, tyMem},
	op.OpZM:     {[]string{"ZM"}, tyMem},
	op.OpBU:     {[]string{"BU"}, tyBranch},
	op.OpBCT:    {[]string{"BCT"}, tyCond},
	op.OpBCF:    {[]string{"BCF"}, tyCond},
	op.OpBL:     {[]string{"BL"}, tyRegAddr},
	op.OpBIR:    {[]string{"BIR"}, tyRegAddr},
	op.OpBRI:    {[]string{"BRI"}, tyBranch},
	op.OpLPSD:   {[]string{"LPSD"}, tyRegAddr},
	op.OpXPSD:   {[]string{"XPSD"}, tyBranch},
	op.OpEXM:    {[]string{"EXM"}, tyBranch},
	op.OpMTW:    {[]string{"MTW"}, tyRegAddr},
	op.OpPUSH:   {[]string{"PUSH"}, tyRegAddr},
	op.OpPULL:   {[]string{"PULL"}, tyRegAddr},
	op.OpPSHM:   {[]string{"PSHM"}, tyRegAddr},
	op.OpPLLM:   {[]string{"PLLM"}, tyRegAddr},
	op.OpPLST:   {[]string{"PLST"}, tyBranch},
	op.OpLMAP:   {[]string{"LMAP"}, tyRegAddr},
	op.OpSRBP:   {[]string{"SRBP"}, tyBranch},
	op.OpINT:    {[]string{"AI", "DAI", "EI", "DI", "RI", "RLI", "RLD"}, tyInt},
	op.OpADF:    {[]string{"ADF"}, tyFloat},
	op.OpSUF:    {[]string{"SUF"}, tyFloat},
	op.OpMPF:    {[]string{"MPF"}, tyFloat},
	op.OpDVF:    {[]string{"DVF"}, tyFloat},
	op.OpIO:     {[]string{"SIO", "TIO", "TSD", "HIO", "AIO", "RSCHNL"}, tyIO},
}

// Size suffix by F bit and low address bits.
func sizeSuffix(word uint32) string {
	if (word & 0x00080000) != 0 {
		return "B"
	}
	switch word & 3 {
	case 0:
		return "W"
	case 2:
		return "D"
	}
	return "H"
}

// Address field as aligned by operand size.
func operandMask(word uint32) uint32 {
	switch sizeSuffix(word) {
	case "B":
		return 0x7ffff
	case "H":
		return 0x7fffe
	case "D":
		return 0x7fff8
	}
	return 0x7fffc
}

// Format address field with indirect and index.
func address(word uint32, mask uint32) string {
	var str strings.Builder
	if (word & 0x00100000) != 0 {
		str.WriteByte('*')
	}
	fmt.Fprintf(&str, "%X", word&mask)
	if x := (word >> 21) & 3; x != 0 {
		fmt.Fprintf(&str, ",X%d", x)
	}
	return str.String()
}

// Return name from list, by augment if more than one.
func name(def opcode, aug uint32) (string, bool) {
	if len(def.opName) == 1 {
		return def.opName[0], true
	}
	if int(aug) >= len(def.opName) {
		return "", false
	}
	return def.opName[aug], true
}

// Disassemble one instruction word.
func Disassemble(word uint32) string {
	opc := uint8(word>>24) & 0xfc
	def, ok := opMap[opc]
	if !ok {
		return fmt.Sprintf("DATA  %08X", word)
	}
	reg := (word >> 23) & 7
	r2 := (word >> 20) & 7
	aug := (word >> 16) & 0xf
	if def.opType == tyImm || def.opType == tyIO {
		aug = (word >> 19) & 0xf
	}
	if def.opType == tyInt {
		aug = reg
	}
	opName, ok := name(def, aug)
	if !ok {
		return fmt.Sprintf("DATA  %08X", word)
	}

	var operands string
	switch def.opType {
	case tyAug:
		if aug == 3 {
			operands = fmt.Sprintf("R%d", reg)
		}
	case tyRR:
		operands = fmt.Sprintf("R%d,R%d", reg, r2)
	case tyShift:
		operands = fmt.Sprintf("R%d,%d", reg, word&0x3f)
		if x := (word >> 21) & 3; x != 0 {
			operands += fmt.Sprintf(",X%d", x)
		}
	case tyImm:
		if aug == 9 {
			operands = fmt.Sprintf("%X", word&0xffff)
		} else {
			operands = fmt.Sprintf("R%d,%X", reg, word&0xffff)
		}
	case tyMem:
		opName += sizeSuffix(word)
		operands = fmt.Sprintf("R%d,%s", reg, address(word, operandMask(word)))
	case tyFloat:
		opName += sizeSuffix(word)
		operands = fmt.Sprintf("R%d,%s", reg, address(word, operandMask(word)))
	case tyBranch:
		operands = address(word, 0x7ffff)
	case tyRegAddr:
		operands = fmt.Sprintf("R%d,%s", reg, address(word, 0x7ffff))
	case tyCond:
		operands = fmt.Sprintf("%d,%s", reg, address(word, 0x7ffff))
	case tyInt:
		operands = fmt.Sprintf("%X", word&0xff)
	case tyIO:
		operands = fmt.Sprintf("R%d,%03X", reg, word&0x7ff)
	}
	if operands == "" {
		return opName
	}
	return fmt.Sprintf("%-6s%s", opName, operands)
}
