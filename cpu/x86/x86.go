// Package x86 implements the IA-32 fetch-decode-execute engine: opcode
// dispatch with speculative decode and rollback, ModRM operand resolution,
// masked modular arithmetic, and the software-interrupt gate into the
// syscall layer.
package x86

import (
	"log/slog"
	"strings"

	"github.com/pkg/errors"

	"github.com/WooZoo86/PyVM/cpu"
	"github.com/WooZoo86/PyVM/models"
)

// InterruptFn services a software interrupt vector. Only vector 0x80 is
// expected to succeed; anything else is a fatal decode condition.
type InterruptFn func(vector byte) error

type CPU struct {
	*cpu.Regs
	*cpu.Mem

	// EIP is an offset into Mem, in range before every fetch.
	EIP uint32

	mode16  bool
	opcodes [256][]dispatch

	interrupt InterruptFn
	log       *slog.Logger
	tracer    *Tracer

	running bool
	exited  bool
	retcode int32
}

func New(mem *cpu.Mem, conf *models.Config, log *slog.Logger) *CPU {
	conf = conf.Init()
	if log == nil {
		log = models.NewLogger(conf.Verbose)
	}
	c := &CPU{
		Regs:   cpu.NewRegs(),
		Mem:    mem,
		mode16: conf.Mode16,
		log:    log,
	}
	if conf.TraceExec {
		tlog := log
		if !conf.Verbose {
			tlog = models.NewLogger(true)
		}
		c.tracer = NewTracer(tlog, conf.Color)
	}
	c.initOpcodes()
	return c
}

// SetInterrupt wires the INT gate; without it any software interrupt is
// fatal.
func (c *CPU) SetInterrupt(fn InterruptFn) {
	c.interrupt = fn
}

// opSize is the operand width for the non-byte instruction forms, fixed
// for the whole run at construction.
func (c *CPU) opSize() int {
	if c.mode16 {
		return 2
	}
	return 4
}

// imm reads a little-endian immediate at EIP and advances past it.
func (c *CPU) imm(size int) (uint32, error) {
	v, err := c.Mem.ReadUint(c.EIP, size)
	if err != nil {
		return 0, errors.Wrap(err, "immediate fetch failed")
	}
	c.EIP += uint32(size)
	return v, nil
}

// simm reads a sign-extended immediate at EIP.
func (c *CPU) simm(size int) (int32, error) {
	v, err := c.imm(size)
	if err != nil {
		return 0, err
	}
	return signExtend(v, size), nil
}

func signExtend(v uint32, size int) int32 {
	switch size {
	case 1:
		return int32(int8(v))
	case 2:
		return int32(int16(v))
	}
	return int32(v)
}

func sizeMask(size int) uint32 {
	return uint32(uint64(1)<<(uint(size)*8) - 1)
}

// Step fetches the opcode byte at EIP and offers it to the registered
// dispatchers in priority order. A dispatcher that matches leaves EIP
// advanced past the whole instruction; one that does not must leave EIP
// exactly where it found it. No dispatcher accepting the byte is a fatal
// decode failure.
func (c *CPU) Step() error {
	opAddr := c.EIP
	op, err := c.Mem.ReadUint(opAddr, 1)
	if err != nil {
		return errors.Wrap(err, "instruction fetch failed")
	}
	c.EIP = opAddr + 1
	for _, d := range c.opcodes[op] {
		matched, err := d.fn(byte(op))
		if err != nil {
			return err
		}
		if matched {
			return nil
		}
	}
	c.EIP = opAddr
	if cands := c.opcodes[op]; len(cands) > 0 {
		names := make([]string, len(cands))
		for i, d := range cands {
			names[i] = d.name
		}
		return errors.Errorf("invalid opcode %#02x at eip=%#x (no %s form matched)",
			op, opAddr, strings.Join(names, "/"))
	}
	return errors.Errorf("invalid opcode %#02x at eip=%#x", op, opAddr)
}

// Run executes from entry until the guest exits, a decode failure occurs,
// or Stop is called. A guest-initiated exit is reported as
// models.ExitStatus.
func (c *CPU) Run(entry uint32) error {
	c.EIP = entry
	c.running = true
	for c.running {
		if err := c.Step(); err != nil {
			return err
		}
	}
	if c.exited {
		return models.ExitStatus(c.retcode)
	}
	return nil
}

// Stop halts the run loop at the next instruction boundary, recording the
// guest exit code.
func (c *CPU) Stop(code int32) {
	c.running = false
	c.exited = true
	c.retcode = code
}

func (c *CPU) debug(format string, args ...interface{}) {
	if c.tracer != nil {
		c.tracer.Ins(c.EIP, format, args...)
	}
}
