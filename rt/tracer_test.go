package rt

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNopTracerRunsFn(t *testing.T) {
	ran := false
	NopTracer{}.Span("x", func() { ran = true })
	require.True(t, ran)
}

func TestFileTracerWritesNDJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.ndjson")
	ft, err := NewFileTracer(path)
	require.NoError(t, err)

	ft.Span("run_burst", func() {})
	ft.Span("schedule_phase", func() {})
	require.NoError(t, ft.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var names []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		names = append(names, line)
	}
	require.Len(t, names, 2)
	require.True(t, strings.Contains(names[0], `"run_burst"`))
	require.True(t, strings.Contains(names[1], `"schedule_phase"`))
}
