package token

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMakePosLineCol(t *testing.T) {
	p := MakePos(3, 7)
	line, col := p.LineCol()
	require.Equal(t, 3, line)
	require.Equal(t, 7, col)
	require.False(t, p.Unknown())
}

func TestPosUnknown(t *testing.T) {
	require.True(t, Pos(0).Unknown())
	require.True(t, MakePos(0, 4).Unknown())
}

func TestFileSet(t *testing.T) {
	fs := NewFileSet()
	f := fs.AddFile("main.dice")
	require.Equal(t, "main.dice", f.Name())
	require.Equal(t, "<input>", (*File)(nil).Name())
}

func TestSpan(t *testing.T) {
	s := NewSpan(MakePos(1, 1), MakePos(1, 5))
	require.Equal(t, MakePos(1, 1), s.Start)
	require.Equal(t, MakePos(1, 5), s.End)
}
