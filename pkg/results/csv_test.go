package results

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func readAll(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func sampleRow(run int) Row {
	return Row{
		Run: run, N: 50, P: 0.2, N1: 10, N2: 0,
		Angle1Deg: 0, Angle2Deg: 90,
		DirX: 0.5, DirY: -0.25, BoxAlong: 120.5, BoxPerp: 33,
	}
}

func TestRow_Record(t *testing.T) {
	got := sampleRow(3).Record()
	assert.Equal(t, []string{"3", "50", "0.2", "10", "0", "0", "90", "0.5", "-0.25", "120.5", "33"}, got)
	assert.Len(t, got, len(Header))
}

func TestOpen_WritesHeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.csv")

	w, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, w.WriteRow(sampleRow(1)))
	require.NoError(t, w.Close())

	w, err = Open(path)
	require.NoError(t, err)
	require.NoError(t, w.WriteRow(sampleRow(2)))
	require.NoError(t, w.Close())

	records := readAll(t, path)
	require.Len(t, records, 3)
	assert.Equal(t, Header, records[0])
	assert.Equal(t, "1", records[1][0])
	assert.Equal(t, "2", records[2][0])
}

func TestOpen_EmptyExistingFileGetsHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	w, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	records := readAll(t, path)
	require.Len(t, records, 1)
	assert.Equal(t, Header, records[0])
}

func TestOpen_UnwritableDirectory(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	_, err := Open(filepath.Join(blocker, "out.csv"))
	assert.Error(t, err)
}

func TestWriter_ConcurrentRowsDoNotInterleave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	w, err := Open(path)
	require.NoError(t, err)

	const writers, perWriter = 8, 50
	var eg errgroup.Group
	for g := 0; g < writers; g++ {
		eg.Go(func() error {
			for i := 0; i < perWriter; i++ {
				if err := w.WriteRow(sampleRow(g*perWriter + i)); err != nil {
					return err
				}
			}
			return nil
		})
	}
	require.NoError(t, eg.Wait())
	require.NoError(t, w.Close())

	records := readAll(t, path)
	require.Len(t, records, 1+writers*perWriter)
	seen := make(map[string]bool)
	for _, rec := range records[1:] {
		require.Len(t, rec, len(Header))
		assert.False(t, seen[rec[0]], "run %s written twice", rec[0])
		seen[rec[0]] = true
	}
}

func TestWriter_WriteAfterClose(t *testing.T) {
	w, err := Open(filepath.Join(t.TempDir(), "out.csv"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	assert.ErrorIs(t, w.WriteRow(sampleRow(1)), ErrClosed)
}
