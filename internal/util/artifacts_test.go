package util

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteCSVAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.csv")
	require.NoError(t, WriteCSVAtomic(path, []string{"file_name", "q1"}, [][]string{{"a.txt", "x, y"}}))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Equal(t, [][]string{{"file_name", "q1"}, {"a.txt", "x, y"}}, rows)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not be left behind")
}

func TestWriteTextAtomicReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "10.1_x.txt")
	require.NoError(t, WriteTextAtomic(path, "first"))
	require.NoError(t, WriteTextAtomic(path, "second"))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "second", string(b))
}

func TestAppendLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "unavailable.csv")
	require.NoError(t, AppendLine(path, "a,b,"))
	require.NoError(t, AppendLine(path, "c,d,"))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "a,b,\nc,d,\n", string(b))
}

func TestReadFileIfExists(t *testing.T) {
	_, ok, err := ReadFileIfExists(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestFingerprintChunksSeparatesBoundaries(t *testing.T) {
	require.NotEqual(t, FingerprintChunks([]string{"ab", "c"}), FingerprintChunks([]string{"a", "bc"}))
	require.Equal(t, FingerprintChunks([]string{"a"}), FingerprintChunks([]string{"a"}))
}
