package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/WooZoo86/PyVM"
	"github.com/WooZoo86/PyVM/models"
)

func main() {
	conf := &models.Config{}

	rootCmd := &cobra.Command{
		Use:           "pyvm",
		Short:         "user-space 32-bit x86 emulator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	runCmd := &cobra.Command{
		Use:   "run <executable>",
		Short: "load a 32-bit Linux ELF executable and run it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			vm, err := pyvm.NewVM(args[0], conf)
			if err != nil {
				return err
			}
			err = vm.Run()
			if status, ok := err.(models.ExitStatus); ok {
				os.Exit(int(status))
			}
			return err
		},
	}
	flags := runCmd.Flags()
	flags.Uint32Var(&conf.MemSize, "mem", models.DefaultMemSize, "guest memory size in bytes")
	flags.BoolVar(&conf.Mode16, "mode16", false, "decode with 16-bit operand and address sizes")
	flags.BoolVar(&conf.TraceExec, "trace", false, "trace each executed instruction")
	flags.BoolVar(&conf.TraceSys, "trace-sys", false, "trace each syscall")
	flags.BoolVar(&conf.Color, "color", false, "colorize trace output")
	flags.BoolVarP(&conf.Verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(runCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "pyvm: %v\n", err)
		os.Exit(1)
	}
}
