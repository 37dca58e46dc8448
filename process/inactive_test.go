package process

import (
	"testing"

	"github.com/heph-rt/heph/pid"
	"github.com/stretchr/testify/require"
)

func testInactiveSet(t *testing.T, s InactiveSet) {
	t.Helper()

	d := New(pid.ID(42), Normal, RunnableFunc(noopRunnable))
	s.Insert(d)
	require.Equal(t, 1, s.Len())

	got, ok := s.Get(pid.ID(42))
	require.True(t, ok)
	require.Same(t, d, got)

	_, ok = s.Get(pid.ID(99))
	require.False(t, ok)

	removed, ok := s.Remove(pid.ID(42))
	require.True(t, ok)
	require.Same(t, d, removed)
	require.Equal(t, 0, s.Len())

	_, ok = s.Remove(pid.ID(42))
	require.False(t, ok)
}

func TestLocalInactiveSet(t *testing.T) {
	testInactiveSet(t, NewLocalInactiveSet())
}

func TestSharedInactiveSet(t *testing.T) {
	testInactiveSet(t, NewSharedInactiveSet())
}

func TestSharedInactiveSetDisjointShards(t *testing.T) {
	s := NewSharedInactiveSet()
	for i := uint64(0); i < 64; i++ {
		s.Insert(New(pid.ID(i<<2|1), Normal, RunnableFunc(noopRunnable)))
	}
	require.Equal(t, 64, s.Len())
}
