package data

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".data.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestParseCodes(t *testing.T) {
	assert.Equal(t, []string{"A1", "B2"}, ParseCodes("A1\n\n  B2  \n\n"))
	assert.Equal(t, []string{"A1", "B2"}, ParseCodes("A1\r\nB2\r\n"))
	assert.Empty(t, ParseCodes(" \n\t\n"))
}

func TestLoadCodes(t *testing.T) {
	codes, err := LoadCodes(writeFile(t, "A1\n\n  B2  \n\n"), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "B2"}, codes)
}

func TestLoadCodes_Empty(t *testing.T) {
	for _, content := range []string{"", "   \n\n\t\n"} {
		path := writeFile(t, content)
		_, err := LoadCodes(path, "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no codes found in "+path)
	}
}

func TestLoadCodes_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.txt")
	_, err := LoadCodes(path, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read "+path)
}

func TestLoadCodes_Pattern(t *testing.T) {
	path := writeFile(t, "AB12\nCD34\n")

	codes, err := LoadCodes(path, `^[A-Z]{2}\d{2}$`)
	require.NoError(t, err)
	assert.Len(t, codes, 2)

	_, err = LoadCodes(writeFile(t, "AB12\nnope\n"), `^[A-Z]{2}\d{2}$`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"nope"`)

	_, err = LoadCodes(path, `(?<=`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid code pattern")
}
