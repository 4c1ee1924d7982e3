package bwapi

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectVersionKnown(t *testing.T) {
	dllPath := filepath.Join(t.TempDir(), "BWAPI.dll")
	content := []byte("not a real dll, but a stable hash input")
	require.NoError(t, os.WriteFile(dllPath, content, 0644))

	sum := sha256.Sum256(content)
	digest := hex.EncodeToString(sum[:])
	knownVersions[digest] = Version{Version: "4.4.0", TournamentModule: "TournamentModule.4.4.0.dll"}
	t.Cleanup(func() {
		delete(knownVersions, digest)
	})

	version, ok, err := DetectVersion(dllPath)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "4.4.0", version.Version)
	assert.Equal(t, "TournamentModule.4.4.0.dll", version.TournamentModule)
}

func TestDetectVersionUnknown(t *testing.T) {
	dllPath := filepath.Join(t.TempDir(), "BWAPI.dll")
	require.NoError(t, os.WriteFile(dllPath, []byte("some unreleased build"), 0644))

	_, ok, err := DetectVersion(dllPath)
	require.NoError(t, err)
	assert.False(t, ok, "unreleased binary must not match the table")
}

func TestDetectVersionMissingFile(t *testing.T) {
	_, _, err := DetectVersion(filepath.Join(t.TempDir(), "BWAPI.dll"))
	assert.Error(t, err)
}
