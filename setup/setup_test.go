package setup

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"resty.dev/v3"
)

func buildZip(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range entries {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func TestVerifyHashes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bundle.zip")
	content := []byte("bundle content")
	require.NoError(t, os.WriteFile(path, content, 0644))

	ok, err := verifyHashes(path, []string{sha256Hex(content)})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = verifyHashes(path, []string{sha256Hex([]byte("something else"))})
	require.NoError(t, err)
	assert.False(t, ok)

	// Several accepted digests, the second one matches.
	ok, err = verifyHashes(path, []string{"00", sha256Hex(content)})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyHashesMissingFile(t *testing.T) {
	ok, err := verifyHashes(filepath.Join(t.TempDir(), "nope.zip"), []string{"00"})
	require.NoError(t, err, "a missing file is unverified, not an error")
	assert.False(t, ok)
}

func TestUnzip(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "bundle.zip")
	data := buildZip(t, map[string]string{
		"StarCraft.exe":        "engine",
		"maps/(2)Ruins.scm":    "map data",
		"bwapi-data/BWAPI.dll": "module",
	})
	require.NoError(t, os.WriteFile(archive, data, 0644))

	dest := filepath.Join(t.TempDir(), "scbw")
	require.NoError(t, unzip(archive, dest, false))

	content, err := os.ReadFile(filepath.Join(dest, "StarCraft.exe"))
	require.NoError(t, err)
	assert.Equal(t, "engine", string(content))

	content, err = os.ReadFile(filepath.Join(dest, "maps", "(2)Ruins.scm"))
	require.NoError(t, err)
	assert.Equal(t, "map data", string(content))
}

func TestUnzipStripRoot(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "jre.zip")
	data := buildZip(t, map[string]string{
		"jdk8u362-b09-jre/bin/javaw.exe": "java",
		"jdk8u362-b09-jre/release":       "info",
	})
	require.NoError(t, os.WriteFile(archive, data, 0644))

	dest := filepath.Join(t.TempDir(), "jre")
	require.NoError(t, unzip(archive, dest, true))

	content, err := os.ReadFile(filepath.Join(dest, "bin", "javaw.exe"))
	require.NoError(t, err)
	assert.Equal(t, "java", string(content))
}

func TestUnzipRejectsEscapingEntries(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "evil.zip")
	data := buildZip(t, map[string]string{
		"../outside.txt": "escape",
	})
	require.NoError(t, os.WriteFile(archive, data, 0644))

	err := unzip(archive, filepath.Join(t.TempDir(), "dest"), false)
	assert.Error(t, err)
}

func TestProvideUsesExistingInternalDir(t *testing.T) {
	internal := t.TempDir()
	component := &Component{
		Name:        "engine",
		InternalDir: internal,
		DownloadURL: "http://127.0.0.1:1/unreachable.zip",
	}

	client := resty.New()
	t.Cleanup(func() { _ = client.Close() })

	dir, err := component.Provide(client, t.TempDir())
	require.NoError(t, err, "present component must not hit the network")
	assert.Equal(t, internal, dir)
}

func TestProvideDownloadsVerifiesAndUnpacks(t *testing.T) {
	data := buildZip(t, map[string]string{"tools/bwheadless.exe": "tool"})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(data)
	}))
	t.Cleanup(server.Close)

	root := t.TempDir()
	component := &Component{
		Name:         "tools",
		DownloadName: "tools.zip",
		DownloadURL:  server.URL + "/tools.zip",
		Hashes:       []string{sha256Hex(data)},
		InternalDir:  filepath.Join(root, "tools"),
	}

	client := resty.New()
	t.Cleanup(func() { _ = client.Close() })

	cacheDir := filepath.Join(root, "downloads")
	dir, err := component.Provide(client, cacheDir)
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(dir, "tools", "bwheadless.exe"))
	require.NoError(t, err)
	assert.Equal(t, "tool", string(content))

	// The verified archive stays cached.
	_, err = os.Stat(filepath.Join(cacheDir, "tools.zip"))
	assert.NoError(t, err)
}

func TestProvideRejectsBadHash(t *testing.T) {
	data := buildZip(t, map[string]string{"a.txt": "x"})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(data)
	}))
	t.Cleanup(server.Close)

	root := t.TempDir()
	component := &Component{
		Name:         "tools",
		DownloadName: "tools.zip",
		DownloadURL:  server.URL + "/tools.zip",
		Hashes:       []string{sha256Hex([]byte("tampered"))},
		InternalDir:  filepath.Join(root, "tools"),
	}

	client := resty.New()
	t.Cleanup(func() { _ = client.Close() })

	_, err := component.Provide(client, filepath.Join(root, "downloads"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hash check")
}

func TestComponentDefinitions(t *testing.T) {
	base := "/opt/bwshotgun"

	engine := StarcraftComponent(base)
	assert.Equal(t, filepath.Join(base, "scbw"), engine.InternalDir)
	assert.Len(t, engine.Hashes, 2, "both known repackagings are accepted")
	assert.False(t, engine.StripRoot)

	jre := JavaComponent(base)
	assert.Equal(t, filepath.Join(base, "jre"), jre.InternalDir)
	assert.True(t, jre.StripRoot)
	assert.Equal(t, filepath.Join(base, "jre", "bin", "javaw.exe"),
		JavaExecutable(jre.InternalDir))
}
