package hasher

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.bin")
	require.NoError(t, os.WriteFile(path, content, 0644))
	return path
}

func TestQuickSignatureSmallFile(t *testing.T) {
	content := []byte("hello world")
	path := writeTempFile(t, content)

	sig, err := QuickSignature(path, int64(len(content)))
	require.NoError(t, err)
	assert.Contains(t, sig, "11:")

	sig2, err := QuickSignature(path, int64(len(content)))
	require.NoError(t, err)
	assert.Equal(t, sig, sig2)
}

func TestQuickSignatureLargeFileDiffersFromSmall(t *testing.T) {
	small := writeTempFile(t, []byte("short"))
	big := make([]byte, 3*chunkSize)
	for i := range big {
		big[i] = byte(i % 251)
	}
	bigPath := filepath.Join(t.TempDir(), "big.bin")
	require.NoError(t, os.WriteFile(bigPath, big, 0644))

	sigSmall, err := QuickSignature(small, 5)
	require.NoError(t, err)
	sigBig, err := QuickSignature(bigPath, int64(len(big)))
	require.NoError(t, err)

	assert.NotEqual(t, sigSmall, sigBig)
}

func TestFullHashIsDeterministic(t *testing.T) {
	path := writeTempFile(t, []byte("deterministic content"))

	h1, err := FullHash(path)
	require.NoError(t, err)
	h2, err := FullHash(path)
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)
}

func TestFullHashDiffersOnContentChange(t *testing.T) {
	p1 := writeTempFile(t, []byte("content A"))
	p2 := writeTempFile(t, []byte("content B"))

	h1, err := FullHash(p1)
	require.NoError(t, err)
	h2, err := FullHash(p2)
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
}
