package posix

// Exit retracts the program break to the end of the loaded image, records
// the exit code and halts the run loop at the next instruction boundary.
func (k *PosixKernel) Exit(args []uint32) uint32 {
	code := int32(args[0])
	k.VM.SetBrk(k.VM.CodeEnd())
	k.Log.Info("process exited", "code", code)
	k.VM.Exit(code)
	return 0
}

func (k *PosixKernel) ExitGroup(args []uint32) uint32 {
	return k.Exit(args[:1])
}
