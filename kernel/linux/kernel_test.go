package linux

import (
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/WooZoo86/PyVM/cpu"
	"github.com/WooZoo86/PyVM/kernel/common"
	"github.com/WooZoo86/PyVM/models"
)

// testVM is a minimal guest: a register file and flat memory, with exits
// recorded instead of halting anything.
type testVM struct {
	regs *cpu.Regs
	mem  *cpu.Mem

	exited   bool
	exitCode int32
}

func newTestVM(size uint32) *testVM {
	return &testVM{regs: cpu.NewRegs(), mem: cpu.NewMem(size)}
}

func (vm *testVM) RegRead(reg, size int) uint32 { return vm.regs.Get(reg, size) }

func (vm *testVM) RegWrite(reg, size int, val uint32) { vm.regs.Set(reg, size, val) }

func (vm *testVM) MemRead(a, s uint32) ([]byte, error) { return vm.mem.Read(a, s) }

func (vm *testVM) MemWrite(a uint32, p []byte) error { return vm.mem.Write(a, p) }

func (vm *testVM) MemSet(a uint32, v byte, s uint32) error { return vm.mem.Memset(a, v, s) }

func (vm *testVM) MemLen() uint32 { return vm.mem.Len() }

func (vm *testVM) Brk() uint32 { return vm.mem.Brk() }

func (vm *testVM) SetBrk(addr uint32) uint32 { return vm.mem.SetBrk(addr) }

func (vm *testVM) CodeEnd() uint32 { return vm.mem.CodeEnd() }

func (vm *testVM) StrucAt(addr uint32) *models.StrucStream {
	return &models.StrucStream{
		Stream: &models.MemReadWriter{M: vm, Addr: addr},
		Order:  binary.LittleEndian,
	}
}

func (vm *testVM) Exit(code int32) {
	vm.exited = true
	vm.exitCode = code
}

func testKernel(t *testing.T) (*LinuxKernel, *testVM) {
	t.Helper()
	vm := newTestVM(0x10000)
	vm.mem.SetCodeEnd(0x1000)
	return NewKernel(vm, models.NewLogger(false)), vm
}

// syscall loads the guest registers and fires the interrupt, returning
// the accumulator.
func syscall(t *testing.T, k *LinuxKernel, vm *testVM, num uint32, args ...uint32) uint32 {
	t.Helper()
	vm.regs.Set(cpu.EAX, 4, num)
	for i, arg := range args {
		vm.regs.Set(common.ArgRegs[i], 4, arg)
	}
	if err := k.Interrupt(0x80); err != nil {
		t.Fatal(err)
	}
	return vm.regs.Get(cpu.EAX, 4)
}

func writeString(t *testing.T, vm *testVM, addr uint32, s string) {
	t.Helper()
	if err := vm.mem.Write(addr, append([]byte(s), 0)); err != nil {
		t.Fatal(err)
	}
}

func TestInterruptBadVector(t *testing.T) {
	k, _ := testKernel(t)
	if err := k.Interrupt(0x21); err == nil {
		t.Fatal("non-syscall vector accepted")
	}
}

func TestInterruptUnknownSyscall(t *testing.T) {
	k, vm := testKernel(t)
	vm.regs.Set(cpu.EAX, 4, 0x1000)
	if err := k.Interrupt(0x80); err == nil {
		t.Fatal("unknown syscall number accepted")
	}
}

func TestExit(t *testing.T) {
	k, vm := testKernel(t)
	vm.mem.SetBrk(0x4000)
	vm.regs.Set(cpu.EAX, 4, 0x01)
	vm.regs.Set(cpu.EBX, 4, 42)
	if err := k.Interrupt(0x80); err != nil {
		t.Fatal(err)
	}
	if !vm.exited || vm.exitCode != 42 {
		t.Fatalf("exited=%v code=%d", vm.exited, vm.exitCode)
	}
	if vm.Brk() != vm.CodeEnd() {
		t.Fatalf("brk not retracted: %#x", vm.Brk())
	}
	// NoRet: the accumulator keeps the syscall number
	if v := vm.regs.Get(cpu.EAX, 4); v != 0x01 {
		t.Fatalf("eax clobbered: %#x", v)
	}
}

func TestWrite(t *testing.T) {
	k, vm := testKernel(t)
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	if err := k.Files.Replace(1, w); err != nil {
		t.Fatal(err)
	}
	if err := vm.mem.Write(0x2000, []byte("hi")); err != nil {
		t.Fatal(err)
	}
	if ret := syscall(t, k, vm, 0x04, 1, 0x2000, 2); ret != 2 {
		t.Fatalf("write returned %d", ret)
	}
	w.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != "hi" {
		t.Fatalf("wrote %q", out)
	}
}

func TestWriteBadFd(t *testing.T) {
	k, vm := testKernel(t)
	if ret := syscall(t, k, vm, 0x04, 99, 0x2000, 1); ret != common.MaxRet {
		t.Fatalf("write to bad fd returned %d", ret)
	}
}

func TestOpenReadClose(t *testing.T) {
	k, vm := testKernel(t)
	path := filepath.Join(t.TempDir(), "input")
	if err := os.WriteFile(path, []byte("content"), 0o644); err != nil {
		t.Fatal(err)
	}
	writeString(t, vm, 0x2000, path)

	fd := syscall(t, k, vm, 0x05, 0x2000, 0, 0)
	if fd != 3 {
		t.Fatalf("open returned %d", fd)
	}
	if ret := syscall(t, k, vm, 0x03, fd, 0x3000, 7); ret != 7 {
		t.Fatalf("read returned %d", ret)
	}
	buf, err := vm.mem.Read(0x3000, 7)
	if err != nil {
		t.Fatal(err)
	}
	if string(buf) != "content" {
		t.Fatalf("read %q", buf)
	}
	if ret := syscall(t, k, vm, 0x06, fd); ret != 0 {
		t.Fatalf("close returned %d", ret)
	}
	// the slot is free again: reopening lands on the same descriptor
	if fd2 := syscall(t, k, vm, 0x05, 0x2000, 0, 0); fd2 != fd {
		t.Fatalf("reopen returned %d, want %d", fd2, fd)
	}
}

func TestCloseStdioKeepsStream(t *testing.T) {
	k, vm := testKernel(t)
	if ret := syscall(t, k, vm, 0x06, 1); ret != 0 {
		t.Fatalf("close(1) returned %d", ret)
	}
	// still usable afterwards
	if _, err := k.Files.Get(1); err != nil {
		t.Fatal(err)
	}
	if ret := syscall(t, k, vm, 0x06, 99); ret != common.MaxRet {
		t.Fatalf("close(99) returned %d", ret)
	}
}

func TestBrk(t *testing.T) {
	k, vm := testKernel(t)
	if ret := syscall(t, k, vm, 0x2d, 0); ret != 0x1000 {
		t.Fatalf("brk query returned %#x", ret)
	}
	if ret := syscall(t, k, vm, 0x2d, 0x8000); ret != 0x8000 {
		t.Fatalf("brk move returned %#x", ret)
	}
	// below the image: current break comes back unchanged
	if ret := syscall(t, k, vm, 0x2d, 0x10); ret != 0x8000 {
		t.Fatalf("brk below image returned %#x", ret)
	}
}

func TestMmapAnonymous(t *testing.T) {
	k, vm := testKernel(t)
	old := vm.Brk()
	addr := syscall(t, k, vm, 0xc0, 0, 0x100, uint32(PROT_READ|PROT_WRITE), uint32(MAP_PRIVATE|MAP_ANONYMOUS), 0)
	if addr != old {
		t.Fatalf("mmap returned %#x, want %#x", addr, old)
	}
	if vm.Brk() != old+0x100 {
		t.Fatalf("brk after mmap = %#x", vm.Brk())
	}
	if ret := syscall(t, k, vm, 0x5b, addr, 0x100); ret != 0 {
		t.Fatalf("munmap returned %d", ret)
	}
	if vm.Brk() != old {
		t.Fatalf("brk after munmap = %#x", vm.Brk())
	}
}

func TestMmapFileBacked(t *testing.T) {
	k, vm := testKernel(t)
	if ret := syscall(t, k, vm, 0xc0, 0, 0x100, 0, uint32(MAP_PRIVATE), 3); ret != common.MaxRet {
		t.Fatalf("file-backed mmap returned %#x", ret)
	}
}

func TestWritev(t *testing.T) {
	k, vm := testKernel(t)
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	if err := k.Files.Replace(1, w); err != nil {
		t.Fatal(err)
	}
	if err := vm.mem.Write(0x2000, []byte("hello ")); err != nil {
		t.Fatal(err)
	}
	if err := vm.mem.Write(0x2100, []byte("world")); err != nil {
		t.Fatal(err)
	}
	// three iovecs, the middle one empty
	iov := make([]byte, 0, 24)
	for _, word := range []uint32{0x2000, 6, 0x2090, 0, 0x2100, 5} {
		iov = binary.LittleEndian.AppendUint32(iov, word)
	}
	if err := vm.mem.Write(0x4000, iov); err != nil {
		t.Fatal(err)
	}
	if ret := syscall(t, k, vm, 0x92, 1, 0x4000, 3); ret != 11 {
		t.Fatalf("writev returned %d", ret)
	}
	w.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != "hello world" {
		t.Fatalf("wrote %q", out)
	}
}

func TestNewuname(t *testing.T) {
	k, vm := testKernel(t)
	if ret := syscall(t, k, vm, 0x7a, 0x2000); ret != 0 {
		t.Fatalf("uname returned %d", ret)
	}
	readField := func(i int) string {
		buf, err := vm.mem.Read(uint32(0x2000+i*utsFieldLen), utsFieldLen)
		if err != nil {
			t.Fatal(err)
		}
		for n, b := range buf {
			if b == 0 {
				return string(buf[:n])
			}
		}
		return string(buf)
	}
	if got := readField(0); got != "PyVM_Linux" {
		t.Fatalf("sysname %q", got)
	}
	if got := readField(4); got != "PyVM - Intel IA-32 on Go" {
		t.Fatalf("machine %q", got)
	}
}

func TestSetThreadArea(t *testing.T) {
	k, vm := testKernel(t)
	desc := make([]byte, 0, 16)
	for _, word := range []uint32{freeEntry, 0x1234, 0xFFF, 0x51} {
		desc = binary.LittleEndian.AppendUint32(desc, word)
	}
	if err := vm.mem.Write(0x2000, desc); err != nil {
		t.Fatal(err)
	}
	if ret := syscall(t, k, vm, 0xf3, 0x2000); ret != 0 {
		t.Fatalf("set_thread_area returned %d", ret)
	}
	sel, err := vm.mem.Read(0x2000, 4)
	if err != nil {
		t.Fatal(err)
	}
	if got := binary.LittleEndian.Uint32(sel); got != 1 {
		t.Fatalf("selector %d", got)
	}
	if !k.Gdt.Present(1) {
		t.Fatal("descriptor not marked present")
	}

	// the next allocation scans past the occupied slot
	if err := vm.mem.Write(0x2000, desc); err != nil {
		t.Fatal(err)
	}
	if ret := syscall(t, k, vm, 0xf3, 0x2000); ret != 0 {
		t.Fatalf("second set_thread_area returned %d", ret)
	}
	sel, _ = vm.mem.Read(0x2000, 4)
	if got := binary.LittleEndian.Uint32(sel); got != 2 {
		t.Fatalf("second selector %d", got)
	}
}

func TestSetThreadAreaExplicitEntry(t *testing.T) {
	k, vm := testKernel(t)
	desc := make([]byte, 0, 16)
	for _, word := range []uint32{7, 0x1234, 0xFFF, 0x51} {
		desc = binary.LittleEndian.AppendUint32(desc, word)
	}
	if err := vm.mem.Write(0x2000, desc); err != nil {
		t.Fatal(err)
	}
	if ret := syscall(t, k, vm, 0xf3, 0x2000); ret != 0 {
		t.Fatalf("set_thread_area returned %d", ret)
	}
	// explicit entries are not allocated; selector 0 comes back
	sel, _ := vm.mem.Read(0x2000, 4)
	if got := binary.LittleEndian.Uint32(sel); got != 0 {
		t.Fatalf("selector %d", got)
	}
}

func TestSetTidAddress(t *testing.T) {
	k, vm := testKernel(t)
	if err := vm.mem.Write(0x2000, []byte{0x39, 0x05, 0x00, 0x00}); err != nil {
		t.Fatal(err)
	}
	if ret := syscall(t, k, vm, 0x102, 0x2000); ret != 0x539 {
		t.Fatalf("set_tid_address returned %#x", ret)
	}
}

func TestIoctlWinsize(t *testing.T) {
	k, vm := testKernel(t)
	if ret := syscall(t, k, vm, 0x36, 1, TIOCGWINSZ, 0x2000); ret != 0 {
		t.Fatalf("ioctl returned %d", ret)
	}
	buf, err := vm.mem.Read(0x2000, 4)
	if err != nil {
		t.Fatal(err)
	}
	if row := binary.LittleEndian.Uint16(buf); row != 256 {
		t.Fatalf("rows %d", row)
	}
	if ret := syscall(t, k, vm, 0x36, 1, 0x5401, 0x2000); ret != common.MaxRet {
		t.Fatalf("unsupported ioctl returned %d", ret)
	}
}

func TestSignalStubs(t *testing.T) {
	k, vm := testKernel(t)
	if ret := syscall(t, k, vm, 0xae); ret != common.MaxRet {
		t.Fatalf("sigaction returned %d", ret)
	}
	if ret := syscall(t, k, vm, 0xaf); ret != 0 {
		t.Fatalf("rt_sigprocmask returned %d", ret)
	}
}

func TestClockGettime(t *testing.T) {
	k, vm := testKernel(t)
	if ret := syscall(t, k, vm, 0x109, 0, 0x2000); ret != 0 {
		t.Fatalf("clock_gettime returned %d", ret)
	}
	buf, err := vm.mem.Read(0x2000, 8)
	if err != nil {
		t.Fatal(err)
	}
	if sec := binary.LittleEndian.Uint32(buf); sec == 0 {
		t.Fatal("zero seconds")
	}
}

func TestReadlink(t *testing.T) {
	k, vm := testKernel(t)
	dir := t.TempDir()
	link := filepath.Join(dir, "link")
	if err := os.Symlink("target-file", link); err != nil {
		t.Fatal(err)
	}
	writeString(t, vm, 0x2000, link)

	// the result is bounded by bufsiz; bytes past it stay untouched
	if err := vm.mem.Memset(0x3000, 0xEE, 8); err != nil {
		t.Fatal(err)
	}
	if ret := syscall(t, k, vm, 0x55, 0x2000, 0x3000, 5); ret != 0 {
		t.Fatalf("readlink returned %d", ret)
	}
	buf, err := vm.mem.Read(0x3000, 6)
	if err != nil {
		t.Fatal(err)
	}
	if string(buf[:5]) != "targe" {
		t.Fatalf("buffer %q", buf[:5])
	}
	if buf[5] != 0xEE {
		t.Fatalf("byte past bufsiz overwritten: %#x", buf[5])
	}

	// a roomy buffer gets the whole target
	if ret := syscall(t, k, vm, 0x55, 0x2000, 0x3000, 64); ret != 0 {
		t.Fatalf("readlink returned %d", ret)
	}
	buf, err = vm.mem.Read(0x3000, uint32(len("target-file")))
	if err != nil {
		t.Fatal(err)
	}
	if string(buf) != "target-file" {
		t.Fatalf("buffer %q", buf)
	}

	writeString(t, vm, 0x2000, filepath.Join(dir, "missing"))
	if ret := syscall(t, k, vm, 0x55, 0x2000, 0x3000, 64); ret != common.MaxRet {
		t.Fatalf("readlink of missing path returned %d", ret)
	}
}

func TestLlseek(t *testing.T) {
	k, vm := testKernel(t)
	f, err := os.CreateTemp(t.TempDir(), "seek")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.Write(make([]byte, 100)); err != nil {
		t.Fatal(err)
	}
	fd := k.Files.Alloc(f)

	// SEEK_SET to 40: the result record lands at the guest address
	if ret := syscall(t, k, vm, 0x8c, uint32(fd), 0, 40, 0x5000, 0); ret != 0 {
		t.Fatalf("llseek returned %d", ret)
	}
	got, err := vm.mem.ReadUint(0x5000, 4)
	if err != nil {
		t.Fatal(err)
	}
	if got != 40 {
		t.Fatalf("result record %d", got)
	}

	// SEEK_CUR advances from there
	if ret := syscall(t, k, vm, 0x8c, uint32(fd), 0, 10, 0x5000, 1); ret != 0 {
		t.Fatalf("llseek returned %d", ret)
	}
	if got, _ := vm.mem.ReadUint(0x5000, 4); got != 50 {
		t.Fatalf("result record %d", got)
	}

	if ret := syscall(t, k, vm, 0x8c, 99, 0, 0, 0x5000, 0); ret != common.MaxRet {
		t.Fatalf("llseek on bad fd returned %d", ret)
	}
}

func TestIdentity(t *testing.T) {
	k, vm := testKernel(t)
	if ret := syscall(t, k, vm, 0xc7); ret != uint32(os.Getuid()) {
		t.Fatalf("getuid returned %d", ret)
	}
	if ret := syscall(t, k, vm, 0xc9); ret != uint32(os.Geteuid()) {
		t.Fatalf("geteuid returned %d", ret)
	}
	if ret := syscall(t, k, vm, 0xc8); ret != uint32(os.Getgid()) {
		t.Fatalf("getgid returned %d", ret)
	}
	if ret := syscall(t, k, vm, 0xca); ret != uint32(os.Getegid()) {
		t.Fatalf("getegid returned %d", ret)
	}
}

func TestUnlink(t *testing.T) {
	k, vm := testKernel(t)
	path := filepath.Join(t.TempDir(), "victim")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	writeString(t, vm, 0x2000, path)
	if ret := syscall(t, k, vm, 0x0a, 0x2000); ret != 0 {
		t.Fatalf("unlink returned %d", ret)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("file still there: %v", err)
	}
	if ret := syscall(t, k, vm, 0x0a, 0x2000); ret != common.MaxRet {
		t.Fatalf("second unlink returned %d", ret)
	}
}
