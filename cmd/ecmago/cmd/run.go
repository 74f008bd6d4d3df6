package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var evalExpr string

var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Compile and execute a script",
	Long: `Execute an ECMAScript program from a file or an inline expression.

Examples:
  ecmago run script.js
  ecmago run -e "let x = 1 + 2 * 3; x"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScript,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&evalExpr, "eval", "e", "", "evaluate inline code instead of reading a file")
}

func readSource(args []string) (source, filename string, err error) {
	if evalExpr != "" {
		return evalExpr, "<eval>", nil
	}
	if len(args) == 1 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", "", fmt.Errorf("read %s: %w", args[0], err)
		}
		return string(data), args[0], nil
	}
	return "", "", fmt.Errorf("either provide a file path or use -e for inline code")
}

func runScript(_ *cobra.Command, args []string) error {
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

	if verbose {
		fmt.Fprintf(os.Stderr, "compiled %s: %d function(s), %d class(es)\n", filename, len(prog.Functions), len(prog.Classes))
	}

	result, err := eng.Execute(prog)
	if err != nil {
		return err
	}

	fmt.Println(result.String())
	return nil
}
