package pkg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestGenerateRandomString(t *testing.T) {
	for i := 1; i <= 8; i++ {
		s, err := GenerateRandomString(i * 5)
		require.NoError(t, err)
		assert.Len(t, s, i*5)
	}
}

func TestBytesToString(t *testing.T) {
	want := "test"
	got := BytesToString([]byte{'t', 'e', 's', 't'})
	assert.Equal(t, want, got)
}

func TestPathExists(t *testing.T) {
	tempDir := t.TempDir()

	exists, err := PathExists(tempDir, true)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = PathExists(filepath.Join(tempDir, "nope"), true)
	require.NoError(t, err)
	assert.False(t, exists)

	filePath := filepath.Join(tempDir, "some-file")
	require.NoError(t, os.WriteFile(filePath, []byte("content"), 0600))

	exists, err = PathExists(filePath, false)
	require.NoError(t, err)
	assert.True(t, exists)

	// a file is not a dir
	exists, err = PathExists(filePath, true)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCheckPasswordHash(t *testing.T) {
	hash, err := HashPassword("test-password")
	require.NoError(t, err)
	require.NotEmpty(t, hash)

	assert.True(t, CheckPasswordHash("test-password", hash))
	assert.False(t, CheckPasswordHash("wrong-password", hash))
}
