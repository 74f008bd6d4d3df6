package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scenario pairs an end-to-end script with its expected result, the literal
// input/output table from the language specification's testable-scenarios
// section.
type scenario struct {
	file string
	want string
}

func TestEndToEndScenarios(t *testing.T) {
	scenarios := []scenario{
		{"precedence.js", "7"},
		{"recursion.js", "55"},
		{"array_loop.js", "6"},
		{"object_mutation.js", "2"},
		{"exception_flow.js", "oops"},
		{"closure_capture.js", "3"},
	}

	for _, sc := range scenarios {
		sc := sc
		t.Run(sc.file, func(t *testing.T) {
			source := readScript(t, "scripts", sc.file)
			eng := New()
			result, err := eng.Eval(source)
			require.NoError(t, err)
			assert.Equal(t, sc.want, result.String())
		})
	}
}

func TestGlobbedScriptsAllParse(t *testing.T) {
	matches, err := doublestar.Glob(os.DirFS("../testdata"), "scripts/*.js")
	require.NoError(t, err)
	require.NotEmpty(t, matches)

	for _, m := range matches {
		m := m
		t.Run(m, func(t *testing.T) {
			data, err := os.ReadFile(filepath.Join("../testdata", m))
			require.NoError(t, err)

			eng := New()
			_, diags, err := eng.Compile(string(data), m)
			require.NoError(t, err)
			assert.False(t, diags.HasBlocking())
		})
	}
}

func TestNegativeCases(t *testing.T) {
	cases := []struct {
		file        string
		wantCompile bool // true if the error surfaces before execution
	}{
		{"const_reassignment.js", true},
		{"reference_error.js", false},
		{"type_error.js", false},
		{"stack_overflow.js", false},
		{"unterminated_string.js", true},
	}

	for _, c := range cases {
		c := c
		t.Run(c.file, func(t *testing.T) {
			source := readScript(t, "errors", c.file)
			eng := New()
			prog, diags, err := eng.Compile(source, c.file)
			if c.wantCompile {
				require.Error(t, err)
				assert.True(t, diags.HasBlocking())
				return
			}
			require.NoError(t, err)
			_, runErr := eng.Execute(prog)
			assert.Error(t, runErr)
		})
	}
}

func readScript(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "testdata", dir, name))
	require.NoError(t, err)
	return string(data)
}
