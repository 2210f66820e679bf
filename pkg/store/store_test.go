package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "db.bolt"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCmdHistory(t *testing.T) {
	s := testStore(t)

	next, err := s.NextCmdSeq()
	require.NoError(t, err)
	assert.Equal(t, 1, next)

	seq1, err := s.AddCmd("def double(x) x + x")
	require.NoError(t, err)
	seq2, err := s.AddCmd("double(21)")
	require.NoError(t, err)
	assert.Equal(t, seq1+1, seq2)

	cmds, err := s.Cmds(0, seq2+1)
	require.NoError(t, err)
	require.Len(t, cmds, 2)
	assert.Equal(t, "def double(x) x + x", cmds[0].Text)
	assert.Equal(t, "double(21)", cmds[1].Text)

	// Half-open upper bound.
	cmds, err = s.Cmds(0, seq2)
	require.NoError(t, err)
	assert.Len(t, cmds, 1)
}

func TestOps(t *testing.T) {
	s := testStore(t)

	ops, err := s.Ops()
	require.NoError(t, err)
	assert.Empty(t, ops)

	require.NoError(t, s.SetOp('%', 5))
	require.NoError(t, s.SetOp('|', 30))
	// Overwrite wins.
	require.NoError(t, s.SetOp('%', 50))

	ops, err = s.Ops()
	require.NoError(t, err)
	assert.Equal(t, map[rune]int{'%': 50, '|': 30}, ops)
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.bolt")
	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.AddCmd("1 + 2")
	require.NoError(t, err)
	require.NoError(t, s.SetOp('%', 5))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	next, err := s.NextCmdSeq()
	require.NoError(t, err)
	assert.Equal(t, 2, next)
	ops, err := s.Ops()
	require.NoError(t, err)
	assert.Equal(t, map[rune]int{'%': 5}, ops)
}
