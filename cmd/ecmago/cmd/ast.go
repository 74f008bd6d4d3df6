package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ecmago/engine/engine"
	astpkg "github.com/ecmago/engine/internal/ast"
)

var sExpr bool

var astCmd = &cobra.Command{
	Use:   "ast [file]",
	Short: "Parse a script and print its AST",
	Args:  cobra.MaximumNArgs(1),
	RunE:  dumpAST,
}

func init() {
	rootCmd.AddCommand(astCmd)
	astCmd.Flags().StringVarP(&evalExpr, "eval", "e", "", "parse inline code instead of reading a file")
	astCmd.Flags().BoolVar(&sExpr, "s-expr", false, "print the reconstructed-source form instead of the indented tree")
}

func dumpAST(_ *cobra.Command, args []string) error {
	source, filename, err := readSource(args)
	if err != nil {
		return err
	}

	eng := engine.New()
	prog, diags := eng.Parse(source, filename)
	if len(diags) > 0 {
		fmt.Println(diags.Format(!noColor))
		if diags.HasBlocking() {
			return &compileError{err: diags}
		}
	}

	if sExpr {
		fmt.Println(prog.String())
		return nil
	}

	dumper := &astDumper{}
	astpkg.Walk(dumper, prog)
	return nil
}

// astDumper prints one indented line per visited node, the shape
// CWBudde-go-dws/cmd/dwscript/cmd/parse.go's dumpASTNode uses, adapted to
// internal/ast's Walk-based Visitor instead of a hand-written type switch
// per node kind.
type astDumper struct {
	depth int
}

func (d *astDumper) Visit(node astpkg.Node) astpkg.Visitor {
	if node == nil {
		return nil
	}
	name := fmt.Sprintf("%T", node)
	name = strings.TrimPrefix(name, "*ast.")
	fmt.Printf("%s%s @%s\n", strings.Repeat("  ", d.depth), name, node.Pos())
	return &astDumper{depth: d.depth + 1}
}
