/*
 * SEL32 - CPU definitions.
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
	"log/slog"

	"github.com/rcornwell/SEL32/emu/event"
	"github.com/rcornwell/SEL32/emu/irq"
	"github.com/rcornwell/SEL32/emu/memory"
	syschannel "github.com/rcornwell/SEL32/emu/sys_channel"
)

// Decoded instruction.
type step struct {
	word     uint32 // Instruction word
	opcode   uint8  // Opcode, low two bits clear
	reg      uint8  // R or R1
	r2       uint8  // R2 of register format
	x        uint8  // Index register
	aug      uint8  // Augment code
	indirect bool   // Indirect bit
	f        bool   // F bit, byte operand
	field    uint32 // Address field
	depth    int    // Execute nesting
}

// Outcome of executing one instruction.
type resultKind uint8

const (
	resNext         resultKind = iota // Advance to next instruction
	resBranch                         // Go to target
	resTrap                           // Take trap
	resWait                           // Advance and wait for interrupt
	resHalt                           // Advance and stop
	resMachineCheck                   // Nonexistent memory
	resPSD                            // New PSD already loaded
)

type result struct {
	kind   resultKind
	target uint32   // Branch target
	trap   TrapCode // Trap to take
	info   uint32   // Fault address or trap data
}

type TrapCode uint8

const (
	TrapOverflow    TrapCode = 1 + iota // Arithmetic overflow
	TrapUndefined                       // Undefined instruction
	TrapPrivilege                       // Privilege violation
	TrapNonexistent                     // Instruction not on model
	TrapInvalidReg                      // Odd register pair
	TrapUnsupported                     // Option not installed
	TrapProtect                         // Write protect violation
	TrapMapFault                        // Map entry invalid
	TrapAddrSpec                        // Alignment error
	TrapExecLimit                       // Execute nesting too deep
	TrapStack                           // Stack overflow or underflow
	TrapSVC                             // Supervisor call
	TrapDivide                          // Divide check
)

var trapNames = map[TrapCode]string{
	TrapOverflow:    "overflow",
	TrapUndefined:   "undefined instruction",
	TrapPrivilege:   "privilege violation",
	TrapNonexistent: "nonexistent instruction",
	TrapInvalidReg:  "invalid register",
	TrapUnsupported: "unsupported option",
	TrapProtect:     "protect violation",
	TrapMapFault:    "map fault",
	TrapAddrSpec:    "address specification",
	TrapExecLimit:   "execute limit",
	TrapStack:       "stack",
	TrapSVC:         "supervisor call",
	TrapDivide:      "divide check",
}

func (t TrapCode) String() string {
	if n, ok := trapNames[t]; ok {
		return n
	}
	return "unknown"
}

// Channel operations used by I/O instructions.
type IO interface {
	StartIO(devNum uint16, loc uint32) (uint8, syschannel.Status)
	TestIO(devNum uint16) (uint8, syschannel.Status)
	TestDevice(devNum uint16) (uint8, uint32)
	HaltIO(devNum uint16) (uint8, syschannel.Status)
	AcknowledgeIO(devNum uint16) (uint8, syschannel.Status)
	ResetChannel(ch int)
	PendingDevice() (uint16, bool)
}

// Execution counters.
type Stats struct {
	Instructions uint64 // Instructions executed
	Traps        uint64 // Traps taken
	Interrupts   uint64 // Exchange interrupts taken
	MicroOps     uint64 // Micro-op interrupts executed
	IOInstr      uint64 // I/O instructions
	WaitCycles   uint64 // Cycles spent waiting
}

type CPU struct {
	mem       *memory.Memory
	acc       *memory.Accessor
	events    *event.Queue
	irq       *irq.Manager
	io        IO
	log       *slog.Logger
	model     Model
	psd       PSD                   // Current PSD
	iPC       uint32                // Address of current instruction
	regs      *[8]uint32            // Current register block
	blocks    []*[8]uint32          // Configured register blocks
	phantom   map[uint8]*[8]uint32  // Blocks past configured number
	rbCheck   bool                  // Register block check scheduled
	execLimit int                   // Maximum execute nesting
	lastEA    uint32                // Last effective address
	mtwZero   bool                  // Last MTW result was zero
	halted    bool                  // CPU executed HALT
	wait      bool                  // Waiting for interrupt
	table     [64]func(*step) result // Opcode table
	stats     Stats
	debugMsk  int
}

const (
	// PSW1 fields
	psw1Priv  uint32 = 0x80000000 // Privileged state
	psw1CC    uint32 = 0x78000000 // Condition codes
	psw1Ext   uint32 = 0x04000000 // Extended addressing
	psw1Carry uint32 = 0x02000000 // Carry out
	psw1AExp  uint32 = 0x01000000 // Arithmetic exception enable
	psw1PC    uint32 = 0x00fffffc // Program counter
	ccShift          = 27

	// PSW2 fields
	psw2Key     uint32 = 0xf0000000 // Protect key
	psw2Mapped  uint32 = 0x08000000 // Map enabled
	psw2RealExt uint32 = 0x04000000 // Real extended addressing
	psw2Blocked uint32 = 0x00008000 // Interrupts blocked
	psw2InhExt  uint32 = 0x00004000 // External groups inhibited
	psw2InhIO   uint32 = 0x00002000 // I/O group inhibited
	psw2InhCnt  uint32 = 0x00001000 // Counter groups inhibited
	psw2RB      uint32 = 0x00000f00 // Register block
	psw2Index   uint32 = 0x000000ff // Map index

	// Condition code bits
	CC1 uint8 = 0x8 // Overflow
	CC2 uint8 = 0x4 // Greater than zero
	CC3 uint8 = 0x2 // Less than zero
	CC4 uint8 = 0x1 // Equal zero

	// Address widths
	basicMask   uint32 = 0x0001ffff // 17 bit addressing
	extMask     uint32 = 0x000fffff // 20 bit addressing
	realExtMask uint32 = 0x003fffff // 22 bit addressing
	fieldMask   uint32 = 0x0007ffff // Address field of instruction
	extPointer  uint32 = 0x80000000 // Extended indirect pointer

	MSIGN uint32 = 0x80000000 // Minus sign
	FMASK uint32 = 0xffffffff // Full word mask

	TrapVectorBase  uint32 = 0x80 // Trap vectors
	DefaultExecLimit       = 4    // Execute nesting
	RBCheckInterval        = 1000 // Ticks between register block checks

	// Interrupt context block offsets
	icbOldPSW1 uint32 = 0
	icbOldPSW2 uint32 = 4
	icbNewPSW1 uint32 = 8
	icbNewPSW2 uint32 = 12
	icbInfo    uint32 = 16

	// Operand sizes, as shift counts
	sizeByte   uint8 = 0
	sizeHalf   uint8 = 1
	sizeWord   uint8 = 2
	sizeDouble uint8 = 3
)

// Opcode definitions.
const (
	OpMisc   uint8 = 0x00 // HALT WAIT NOP RPSW BEI UEI EAE DAE RDEA
	OpRegMov uint8 = 0x08 // TRR TRC TRN XCR ORR ANR EOR ZR
	OpRegAri uint8 = 0x0c // ADR SUR MPR DVR CAR ADRD SURD ADCR
	OpSLA    uint8 = 0x10
	OpSRA    uint8 = 0x14
	OpSLL    uint8 = 0x18
	OpSRL    uint8 = 0x1c
	OpSLC    uint8 = 0x20
	OpSRC    uint8 = 0x24
	OpSLLD   uint8 = 0x28
	OpSRLD   uint8 = 0x2c
	OpImm    uint8 = 0x30 // LI ADI SUI MPI DVI CI ANI ORI EOI SVC EXR
	OpDec    uint8 = 0x38 // CVB CVD
	OpStr    uint8 = 0x3c // MOVB CMPB
	OpL      uint8 = 0x40
	OpLN     uint8 = 0x44
	OpLEA    uint8 = 0x48
	OpST     uint8 = 0x4c
	OpADM    uint8 = 0x50
	OpSUM    uint8 = 0x54
	OpMPM    uint8 = 0x58
	OpDVM    uint8 = 0x5c
	OpCAM    uint8 = 0x60
	OpANM    uint8 = 0x64
	OpORM    uint8 = 0x68
	OpEOM    uint8 = 0x6c
	OpARM    uint8 = 0x70
	OpZM     uint8 = 0x74
	OpBU     uint8 = 0x80
	OpBCT    uint8 = 0x84
	OpBCF    uint8 = 0x88
	OpBL     uint8 = 0x8c
	OpBIR    uint8 = 0x90
	OpBRI    uint8 = 0x94
	OpLPSD   uint8 = 0x98
	OpXPSD   uint8 = 0x9c
	OpEXM    uint8 = 0xa0
	OpMTW    uint8 = 0xa4
	OpPUSH   uint8 = 0xb0
	OpPULL   uint8 = 0xb4
	OpPSHM   uint8 = 0xb8
	OpPLLM   uint8 = 0xbc
	OpPLST   uint8 = 0xc0
	OpLMAP   uint8 = 0xc4
	OpSRBP   uint8 = 0xc8
	OpINT    uint8 = 0xd0 // AI DAI EI DI RI RLI RLD
	OpADF    uint8 = 0xe0
	OpSUF    uint8 = 0xe4
	OpMPF    uint8 = 0xe8
	OpDVF    uint8 = 0xec
	OpIO     uint8 = 0xf8 // SIO TIO TSD HIO AIO RSCHNL
)

// Debug options.
const (
	debugInst = 1 << iota
	debugTrap
	debugIRQ
	debugIO
)

var debugOption = map[string]int{
	"INST": debugInst,
	"TRAP": debugTrap,
	"IRQ":  debugIRQ,
	"IO":   debugIO,
}
