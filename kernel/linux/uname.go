package linux

import (
	"github.com/WooZoo86/PyVM/kernel/common"
	"github.com/WooZoo86/PyVM/models"
)

// The guest new_utsname record is six 65-byte fields; padding to that
// width makes the string fields pack as fixed-size slots.
const utsFieldLen = 65

var staticUname = models.Uname{
	Sysname:    "PyVM_Linux",
	Nodename:   "PyVM_Linux",
	Release:    "3.14",
	Version:    "3.14",
	Machine:    "PyVM - Intel IA-32 on Go",
	Domainname: "PyVM_Linux.local",
}

func (k *LinuxKernel) Newuname(args []uint32) uint32 {
	un := staticUname
	un.Pad(utsFieldLen)
	if err := common.NewObuf(k, args[0]).Pack(&un); err != nil {
		return common.MaxRet
	}
	return 0
}
