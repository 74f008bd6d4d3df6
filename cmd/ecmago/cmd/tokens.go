package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ecmago/engine/engine"
	"github.com/ecmago/engine/internal/token"
)

var showPos bool

var tokensCmd = &cobra.Command{
	Use:   "tokens [file]",
	Short: "Tokenize a script and print the resulting token stream",
	Args:  cobra.MaximumNArgs(1),
	RunE:  dumpTokens,
}

func init() {
	rootCmd.AddCommand(tokensCmd)
	tokensCmd.Flags().StringVarP(&evalExpr, "eval", "e", "", "tokenize inline code instead of reading a file")
	tokensCmd.Flags().BoolVar(&showPos, "show-pos", true, "show each token's source span")
}

func dumpTokens(_ *cobra.Command, args []string) error {
	source, filename, err := readSource(args)
	if err != nil {
		return err
	}

	eng := engine.New()
	toks, diags := eng.Tokens(source)
	if len(diags) > 0 {
		fmt.Println(diags.Format(!noColor))
	}

	for _, t := range toks {
		printToken(t)
	}
	if verbose {
		fmt.Printf("-- %d token(s) from %s\n", len(toks), filename)
	}
	return nil
}

func printToken(t token.Token) {
	if t.Literal == "" {
		fmt.Printf("%-14s", t.Kind)
	} else {
		fmt.Printf("%-14s %q", t.Kind, t.Literal)
	}
	if showPos {
		fmt.Printf(" @%s", t.Span.Start)
	}
	fmt.Println()
}
