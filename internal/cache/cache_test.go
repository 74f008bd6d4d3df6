package cache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecmago/engine/internal/bytecode"
	"github.com/ecmago/engine/internal/lexer"
	"github.com/ecmago/engine/internal/parser"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "bytecode.db"), false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func compileFixture(t *testing.T, src string) *bytecode.Program {
	t.Helper()
	p := parser.New(lexer.New(src))
	astProg := p.ParseProgram()
	require.Empty(t, p.Errors())
	prog, err := bytecode.CompileProgram(astProg)
	require.NoError(t, err)
	return prog
}

func TestDigestDistinguishesStrictness(t *testing.T) {
	src := `let x = 1; x`
	assert.NotEqual(t, Digest(src, false), Digest(src, true))
	assert.Equal(t, Digest(src, false), Digest(src, false))
	assert.NotEqual(t, Digest(src, false), Digest(src+" ", false))
}

func TestPutGetRoundTrip(t *testing.T) {
	c := openTestCache(t)
	prog := compileFixture(t, `function f(n){ return n + 1; } f(1)`)
	digest := Digest("roundtrip", false)

	_, ok, err := c.Get(digest)
	require.NoError(t, err)
	assert.False(t, ok, "miss before Put")

	require.NoError(t, c.Put(digest, false, prog))

	got, ok, err := c.Get(digest)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, prog.Disassemble(), got.Disassemble())
}

func TestPutOverwritesSameDigest(t *testing.T) {
	c := openTestCache(t)
	digest := Digest("overwrite", false)

	require.NoError(t, c.Put(digest, false, compileFixture(t, `1 + 1`)))
	second := compileFixture(t, `2 * 3`)
	require.NoError(t, c.Put(digest, false, second))

	got, ok, err := c.Get(digest)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, second.Disassemble(), got.Disassemble())

	n, err := c.Count()
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestClear(t *testing.T) {
	c := openTestCache(t)
	require.NoError(t, c.Put(Digest("a", false), false, compileFixture(t, `1`)))
	require.NoError(t, c.Put(Digest("b", false), false, compileFixture(t, `2`)))

	n, err := c.Count()
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	require.NoError(t, c.Clear())
	n, err = c.Count()
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	_, err := Open("", false)
	require.Error(t, err)
}
