package lumpfile

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recording() []byte {
	data := []byte{109, 4, 1, 1, 0, 0, 0, 0, 0, 1, 0, 0, 0}
	data = append(data, bytes.Repeat([]byte{25, 0xE7, 3, 2}, 500)...)
	return append(data, 0x80)
}

func TestCompressionFromPath(t *testing.T) {
	assert.Equal(t, CompressionNone, CompressionFromPath("demo1.lmp"))
	assert.Equal(t, CompressionZstd, CompressionFromPath("demo1.lmp.zst"))
	assert.Equal(t, CompressionZstd, CompressionFromPath("DEMO1.LMP.ZSTD"))
	assert.Equal(t, CompressionLZ4, CompressionFromPath("/tmp/demo1.lmp.lz4"))
	assert.Equal(t, CompressionNone, CompressionFromPath("noext"))
}

func TestReadWriteRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	data := recording()

	for _, name := range []string{"demo.lmp", "demo.lmp.zst", "nested/dir/demo.lmp.lz4"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(tmpDir, name)

			require.NoError(t, Write(path, data))

			got, err := Read(path)
			require.NoError(t, err)
			assert.Equal(t, data, got)
		})
	}
}

func TestCompressedFilesAreSmaller(t *testing.T) {
	tmpDir := t.TempDir()
	data := recording()

	for _, name := range []string{"demo.lmp.zst", "demo.lmp.lz4"} {
		path := filepath.Join(tmpDir, name)
		require.NoError(t, Write(path, data))

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Less(t, info.Size(), int64(len(data)), name)
	}
}

func TestReadErrors(t *testing.T) {
	tmpDir := t.TempDir()

	_, err := Read(filepath.Join(tmpDir, "missing.lmp"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	corrupt := filepath.Join(tmpDir, "corrupt.lmp.zst")
	require.NoError(t, os.WriteFile(corrupt, []byte("not zstd at all"), 0644))
	_, err = Read(corrupt)
	assert.Error(t, err)
}

func TestTrimCompressionExt(t *testing.T) {
	assert.Equal(t, "demo.json", TrimCompressionExt("demo.json.zst"))
	assert.Equal(t, "out/demo.yaml", TrimCompressionExt("out/demo.yaml.lz4"))
	assert.Equal(t, "demo.lmp", TrimCompressionExt("demo.lmp"))
}
