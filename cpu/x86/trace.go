package x86

import (
	"fmt"
	"log/slog"

	"github.com/mgutz/ansi"
)

var insColor = ansi.ColorCode("cyan")

// Tracer emits one line per executed instruction, in the mnemonic(operand)
// shorthand the rest of the engine formats.
type Tracer struct {
	log   *slog.Logger
	color bool
}

func NewTracer(log *slog.Logger, color bool) *Tracer {
	return &Tracer{log: log, color: color}
}

func (t *Tracer) Ins(eip uint32, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if t.color {
		msg = insColor + msg + ansi.Reset
	}
	t.log.Debug(msg, "eip", fmt.Sprintf("%#08x", eip))
}
