package posix

import (
	"io"
	"os"

	"github.com/WooZoo86/PyVM/kernel/common"
)

// Open flag bits, from the asm-generic fcntl layout the guest compiles
// against. Hoisted here so handlers never rebuild them per call.
const (
	O_ACCMODE   = 0o3
	O_RDONLY    = 0o0
	O_WRONLY    = 0o1
	O_RDWR      = 0o2
	O_CREAT     = 0o100
	O_EXCL      = 0o200
	O_TRUNC     = 0o1000
	O_APPEND    = 0o2000
	O_LARGEFILE = 0o100000
)

func (k *PosixKernel) Read(args []uint32) uint32 {
	fd, addr, count := int32(args[0]), args[1], args[2]
	f, err := k.Files.Get(fd)
	if err != nil {
		return common.MaxRet
	}
	tmp := make([]byte, count)
	n, err := f.Read(tmp)
	if err != nil && err != io.EOF {
		k.Log.Debug("sys_read failed", "fd", fd, "count", count, "err", err)
		return common.MaxRet
	}
	if err := k.VM.MemWrite(addr, tmp[:n]); err != nil {
		return common.MaxRet
	}
	return uint32(n)
}

func (k *PosixKernel) Write(args []uint32) uint32 {
	fd, addr, count := int32(args[0]), args[1], args[2]
	f, err := k.Files.Get(fd)
	if err != nil {
		return common.MaxRet
	}
	buf, err := k.VM.MemRead(addr, count)
	if err != nil {
		return common.MaxRet
	}
	n, err := f.Write(buf)
	if err != nil {
		k.Log.Debug("sys_write failed", "fd", fd, "count", count, "err", err)
		return common.MaxRet
	}
	return uint32(n)
}

func (k *PosixKernel) Open(args []uint32) uint32 {
	path, err := common.NewBuf(k, args[0]).ReadStringZ()
	if err != nil {
		return common.MaxRet
	}
	flags := args[1]

	var hostFlags int
	switch flags & O_ACCMODE {
	case O_RDONLY:
		hostFlags = os.O_RDONLY
	case O_WRONLY:
		if flags&O_TRUNC != 0 {
			hostFlags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
		} else {
			hostFlags = os.O_WRONLY | os.O_CREATE | os.O_EXCL
		}
	case O_RDWR:
		hostFlags = os.O_RDWR
	default:
		k.Log.Debug("sys_open: unsupported flags", "path", path, "flags", flags)
		return common.MaxRet
	}
	f, err := os.OpenFile(path, hostFlags, os.FileMode(args[2])&0o777)
	if err != nil {
		k.Log.Debug("sys_open failed", "path", path, "err", err)
		return common.MaxRet
	}
	fd := k.Files.Alloc(f)
	k.Log.Debug("sys_open", "path", path, "fd", fd)
	return uint32(fd)
}

func (k *PosixKernel) Close(args []uint32) uint32 {
	fd := int32(args[0])
	if err := k.Files.Close(fd); err != nil {
		k.Log.Debug("sys_close failed", "fd", fd, "err", err)
		return common.MaxRet
	}
	return 0
}

func (k *PosixKernel) Unlink(args []uint32) uint32 {
	path, err := common.NewBuf(k, args[0]).ReadStringZ()
	if err != nil {
		return common.MaxRet
	}
	if err := os.Remove(path); err != nil {
		k.Log.Debug("sys_unlink failed", "path", path, "err", err)
		return common.MaxRet
	}
	return 0
}

func (k *PosixKernel) Readlink(args []uint32) uint32 {
	path, err := common.NewBuf(k, args[0]).ReadStringZ()
	if err != nil {
		return common.MaxRet
	}
	bufAddr, bufsiz := args[1], args[2]
	name, err := os.Readlink(path)
	if err != nil {
		return common.MaxRet
	}
	if uint32(len(name)) > bufsiz {
		name = name[:bufsiz]
	}
	if err := k.VM.MemWrite(bufAddr, []byte(name)); err != nil {
		return common.MaxRet
	}
	return 0
}

// Llseek combines the 32-bit offset halves into a 64-bit seek and stores
// the result at the guest-provided address.
func (k *PosixKernel) Llseek(args []uint32) uint32 {
	fd, hi, lo, resultAddr, whence := int32(args[0]), args[1], args[2], args[3], int(args[4])
	f, err := k.Files.Get(fd)
	if err != nil {
		return common.MaxRet
	}
	offset := int64(uint64(hi)<<32 | uint64(lo))
	ret, err := f.Seek(offset, whence)
	if err != nil {
		k.Log.Debug("sys_llseek failed", "fd", fd, "offset", offset, "err", err)
		return common.MaxRet
	}
	if err := common.NewObuf(k, resultAddr).Pack(&loffResult{uint32(ret)}); err != nil {
		return common.MaxRet
	}
	return 0
}

type loffResult struct {
	Low uint32
}

// Iovec32 is the guest {base,len} scatter/gather pair.
type Iovec32 struct {
	Base uint32
	Len  uint32
}

// Writev walks the guest iovec array in order, skipping zero-length
// entries, and reports the total byte count written.
func (k *PosixKernel) Writev(args []uint32) uint32 {
	fd, iovAddr, iovcnt := int32(args[0]), args[1], int32(args[2])
	f, err := k.Files.Get(fd)
	if err != nil {
		return common.MaxRet
	}
	st := common.NewBuf(k, iovAddr).Struc()
	var total uint32
	for i := int32(0); i < iovcnt; i++ {
		var vec Iovec32
		if err := st.Unpack(&vec); err != nil {
			return common.MaxRet
		}
		if vec.Len == 0 {
			continue
		}
		buf, err := k.VM.MemRead(vec.Base, vec.Len)
		if err != nil {
			return common.MaxRet
		}
		n, err := f.Write(buf)
		if err != nil {
			k.Log.Debug("sys_writev failed", "fd", fd, "err", err)
			return common.MaxRet
		}
		total += uint32(n)
	}
	return total
}
