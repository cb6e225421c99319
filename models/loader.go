package models

type Segment struct {
	Addr uint64
	Data []byte
}

type Loader interface {
	Arch() string
	Bits() int
	OS() string
	Entry() uint64
	Segments() ([]Segment, error)
	Symbolicate(addr uint64) (string, error)
}
