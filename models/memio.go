package models

// MemIO is the minimal memory surface needed to stream structs in and out
// of guest memory.
type MemIO interface {
	MemRead(addr, size uint32) ([]byte, error)
	MemWrite(addr uint32, p []byte) error
}

// MemReadWriter is an io.ReadWriter cursor over guest memory; reads and
// writes share one position and advance it together.
type MemReadWriter struct {
	M    MemIO
	Addr uint32
}

func (m *MemReadWriter) Read(p []byte) (int, error) {
	data, err := m.M.MemRead(m.Addr, uint32(len(p)))
	if err != nil {
		return 0, err
	}
	copy(p, data)
	m.Addr += uint32(len(p))
	return len(p), nil
}

func (m *MemReadWriter) Write(p []byte) (int, error) {
	if err := m.M.MemWrite(m.Addr, p); err != nil {
		return 0, err
	}
	m.Addr += uint32(len(p))
	return len(p), nil
}
