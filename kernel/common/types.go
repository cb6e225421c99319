package common

import (
	"github.com/pkg/errors"

	"github.com/WooZoo86/PyVM/models"
)

type (
	// Buf is a guest-memory pointer argument; struct traffic goes through
	// the little-endian struc stream.
	Buf struct {
		K    *KernelBase
		Addr uint32
	}
	// Obuf marks a buffer the handler writes into guest memory.
	Obuf struct{ Buf }
)

func NewBuf(k Kernel, addr uint32) Buf {
	return Buf{K: k.Kernel(), Addr: addr}
}

func NewObuf(k Kernel, addr uint32) Obuf {
	return Obuf{NewBuf(k, addr)}
}

func (b Buf) Struc() *models.StrucStream {
	return b.K.VM.StrucAt(b.Addr)
}

func (b Buf) Pack(i interface{}) error {
	return errors.Wrap(b.Struc().Pack(i), "struc.Pack() failed")
}

func (b Buf) Unpack(i interface{}) error {
	return errors.Wrap(b.Struc().Unpack(i), "struc.Unpack() failed")
}

// ReadStringZ reads a null-terminated guest string, for pathname
// arguments.
func (b Buf) ReadStringZ() (string, error) {
	var out []byte
	addr := b.Addr
	for {
		p, err := b.K.VM.MemRead(addr, 1)
		if err != nil {
			return "", errors.Wrap(err, "string read failed")
		}
		if p[0] == 0 {
			return string(out), nil
		}
		out = append(out, p[0])
		addr++
	}
}
