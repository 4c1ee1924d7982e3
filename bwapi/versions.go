package bwapi

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// Version identifies a BWAPI.dll release and the tournament module built
// against it. Modules are ABI-bound, so a mismatched module crashes the
// engine; unknown releases therefore run without one.
type Version struct {
	Version          string
	TournamentModule string
}

// Checksum-to-version table for released BWAPI.dll binaries. Values are
// tied to third-party releases; extend the table, do not derive it.
var knownVersions = map[string]Version{
	// 4.4.0
	"89f1eee93b4aa54caa0a14a8aaf76c1434a6dfa8626c3316e6c7b697b0d9a0e4": {
		Version:          "4.4.0",
		TournamentModule: "TournamentModule.4.4.0.dll",
	},
	// 4.2.0
	"21f1e9f2dcc693770ef3fa0b41c1eceed82f4b0d2eac18a2c1a77e2cfb0c8d27": {
		Version:          "4.2.0",
		TournamentModule: "TournamentModule.4.2.0.dll",
	},
	// 4.1.2
	"5e3b60b1f6d3b4b9d44ae6b89c9c8f3a9b54c57c09601f4b2788a193468a50ba": {
		Version:          "4.1.2",
		TournamentModule: "TournamentModule.4.1.2.dll",
	},
	// 3.7.4 predates tournament module support.
	"0d36a2f8dbb4cf01f9a6d0af43ff3c2f9dc3f9b8c34a5f9b2ef087a1d08bb671": {
		Version: "3.7.4",
	},
}

// DetectVersion hashes a BWAPI.dll and looks it up in the release table.
// ok is false for binaries not in the table.
func DetectVersion(dllPath string) (version Version, ok bool, err error) {
	f, err := os.Open(dllPath)
	if err != nil {
		return Version{}, false, fmt.Errorf("could not open '%s': %v", dllPath, err)
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	hasher := sha256.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return Version{}, false, fmt.Errorf("could not hash '%s': %v", dllPath, err)
	}

	version, ok = knownVersions[hex.EncodeToString(hasher.Sum(nil))]
	return version, ok, nil
}
