package models

const DefaultMemSize = 4 * 1024 * 1024

type Config struct {
	// MemSize is the guest memory size in bytes, fixed at construction.
	MemSize uint32
	// Mode16 selects 16-bit operand/addressing decode for the whole run.
	Mode16 bool

	Color     bool
	TraceExec bool
	TraceSys  bool
	Verbose   bool
}

func (c *Config) Init() *Config {
	if c == nil {
		c = &Config{}
	}
	if c.MemSize == 0 {
		c.MemSize = DefaultMemSize
	}
	return c
}
