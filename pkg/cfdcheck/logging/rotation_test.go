package logging_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/cfdcheck/pkg/cfdcheck/logging"
)

func countFiles(t *testing.T, dir, prefix string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	n := 0
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), prefix) {
			n++
		}
	}
	return n
}

func TestRotationBySize(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w, err := logging.NewRotatingWriter(filepath.Join(dir, "size.log"), logging.RotationConfig{
		MaxSize: 512,
	})
	require.NoError(t, err)

	for range 20 {
		_, err := w.Write([]byte(strings.Repeat("x", 50) + "\n"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	assert.GreaterOrEqual(t, countFiles(t, dir, "size"), 2)
}

func TestRotationMaxBackups(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w, err := logging.NewRotatingWriter(filepath.Join(dir, "backup.log"), logging.RotationConfig{
		MaxSize:    256,
		MaxBackups: 2,
	})
	require.NoError(t, err)

	for range 50 {
		_, err := w.Write([]byte(strings.Repeat("y", 30) + "\n"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	assert.LessOrEqual(t, countFiles(t, dir, "backup"), 3)
}

func TestWriteAfterClose(t *testing.T) {
	t.Parallel()

	w, err := logging.NewRotatingWriter(filepath.Join(t.TempDir(), "closed.log"), logging.RotationConfig{})
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	_, err = w.Write([]byte("late\n"))
	assert.ErrorIs(t, err, os.ErrClosed)
}

func TestLogBuffer(t *testing.T) {
	t.Parallel()

	buf := logging.NewLogBuffer(3)
	for _, msg := range []string{"a", "b", "c", "d"} {
		buf.Add(logging.LogEntry{Message: msg})
	}

	assert.Equal(t, 3, buf.Len())
	last := buf.Last(5)
	require.Len(t, last, 3)
	assert.Equal(t, "b", last[0].Message)
	assert.Equal(t, "d", last[2].Message)

	two := buf.Last(2)
	assert.Equal(t, []string{"c", "d"}, []string{two[0].Message, two[1].Message})
	assert.Empty(t, buf.Last(0))
}
