package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var bytecodeCmd = &cobra.Command{
	Use:   "bytecode [file]",
	Short: "Compile a script and print its disassembled bytecode",
	Args:  cobra.MaximumNArgs(1),
	RunE:  dumpBytecode,
}

func init() {
	rootCmd.AddCommand(bytecodeCmd)
	bytecodeCmd.Flags().StringVarP(&evalExpr, "eval", "e", "", "compile inline code instead of reading a file")
}

func dumpBytecode(_ *cobra.Command, args []string) error {
	source, filename, err := readSource(args)
	if err != nil {
		return err
	}

	eng, err := newEngine()
	if err != nil {
		return err
	}

	prog, diags, err := eng.Compile(source, filename)
	if len(diags) > 0 {
		fmt.Fprintln(os.Stderr, diags.Format(!noColor))
	}
	if err != nil {
		return &compileError{err: err}
	}

	fmt.Print(prog.Disassemble())
	return nil
}
