package linux

import "github.com/WooZoo86/PyVM/kernel/common"

// initTable builds the syscall dispatch table once at kernel
// construction. Numbers are the IA-32 Linux ABI; the signature string
// declares each handler's fixed arity and per-argument signedness.
func (k *LinuxKernel) initTable() {
	syscalls := []common.Syscall{
		{Num: 0x01, Name: "exit", Sig: "s", NoRet: true, Fn: k.Exit},
		{Num: 0x03, Name: "read", Sig: "uuu", Fn: k.Read},
		{Num: 0x04, Name: "write", Sig: "uuu", Fn: k.Write},
		{Num: 0x05, Name: "open", Sig: "usu", Fn: k.Open},
		{Num: 0x06, Name: "close", Sig: "u", Fn: k.Close},
		{Num: 0x0a, Name: "unlink", Sig: "u", Fn: k.Unlink},
		{Num: 0x2d, Name: "brk", Sig: "u", Fn: k.Brk},
		{Num: 0x36, Name: "ioctl", Sig: "suu", Fn: k.Ioctl},
		{Num: 0x55, Name: "readlink", Sig: "uuu", Fn: k.Readlink},
		{Num: 0x5b, Name: "munmap", Sig: "uu", Fn: k.Munmap},
		{Num: 0x7a, Name: "newuname", Sig: "u", Fn: k.Newuname},
		{Num: 0x7b, Name: "modify_ldt", Sig: "uuu", Fn: k.ModifyLdt},
		{Num: 0x8c, Name: "llseek", Sig: "uuuuu", Fn: k.Llseek},
		{Num: 0x92, Name: "writev", Sig: "sus", Fn: k.Writev},
		{Num: 0xae, Name: "sigaction", Sig: "", Fn: k.Sigaction},
		{Num: 0xaf, Name: "rt_sigprocmask", Sig: "", Fn: k.RtSigprocmask},
		{Num: 0xc0, Name: "mmap_pgoff", Sig: "uusss", Fn: k.MmapPgoff},
		{Num: 0xc7, Name: "getuid", Sig: "", Fn: k.Getuid},
		{Num: 0xc8, Name: "getgid", Sig: "", Fn: k.Getgid},
		{Num: 0xc9, Name: "geteuid", Sig: "", Fn: k.Geteuid},
		{Num: 0xca, Name: "getegid", Sig: "", Fn: k.Getegid},
		{Num: 0xf3, Name: "set_thread_area", Sig: "u", Fn: k.SetThreadArea},
		{Num: 0xfc, Name: "exit_group", Sig: "s", NoRet: true, Fn: k.ExitGroup},
		{Num: 0x102, Name: "set_tid_address", Sig: "u", Fn: k.SetTidAddress},
		{Num: 0x109, Name: "clock_gettime", Sig: "uu", Fn: k.ClockGettime},
		{Num: 0x10e, Name: "tgkill", Sig: "sss", Fn: k.Tgkill},
	}
	k.table = make(map[int]common.Syscall, len(syscalls))
	for _, sys := range syscalls {
		k.table[sys.Num] = sys
	}
}
