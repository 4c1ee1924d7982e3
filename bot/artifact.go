package bot

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ArtifactKind classifies a bot binary by how it gets executed: a
// DynamicModule is loaded by BWAPI inside the engine process, a
// ScriptArchive runs on a Java runtime, a NativeExecutable runs directly.
type ArtifactKind int

const (
	DynamicModule ArtifactKind = iota
	ScriptArchive
	NativeExecutable
)

func (k ArtifactKind) String() string {
	switch k {
	case DynamicModule:
		return "dll"
	case ScriptArchive:
		return "jar"
	case NativeExecutable:
		return "exe"
	default:
		return "unknown"
	}
}

// Artifact is the resolved bot binary. Immutable once resolved.
type Artifact struct {
	Kind ArtifactKind
	Path string
}

// SeparateProcess reports whether the artifact runs as its own process
// rather than inside the engine's address space.
func (a Artifact) SeparateProcess() bool {
	return a.Kind != DynamicModule
}

var (
	ErrNoArtifact        = errors.New("no bot binary found")
	ErrMultipleArtifacts = errors.New("multiple bot binary candidates found")
)

// Classify maps a path to an Artifact by its lower-cased file extension.
// Unrecognized extensions return false.
func Classify(path string) (Artifact, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".dll":
		return Artifact{Kind: DynamicModule, Path: path}, true
	case ".jar":
		return Artifact{Kind: ScriptArchive, Path: path}, true
	case ".exe":
		return Artifact{Kind: NativeExecutable, Path: path}, true
	}
	return Artifact{}, false
}

// Resolve scans the immediate entries of dir for exactly one strongest
// candidate under the order exe > dll > jar. Same-strength duplicates are
// rejected, as is a dll discovered after a jar (neither can be preferred
// without operator intent).
func Resolve(dir string) (Artifact, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Artifact{}, fmt.Errorf("could not scan bot directory '%s': %w", dir, err)
	}

	var found *Artifact
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		candidate, ok := Classify(filepath.Join(dir, entry.Name()))
		if !ok {
			continue
		}
		if found == nil {
			c := candidate
			found = &c
			continue
		}
		switch {
		case found.Kind == NativeExecutable && candidate.Kind == NativeExecutable:
			return Artifact{}, fmt.Errorf("%w in '%s', please select one in 'bot.toml'", ErrMultipleArtifacts, dir)
		case found.Kind == NativeExecutable:
			// Executable already won, weaker candidates are ignored.
		case candidate.Kind == NativeExecutable:
			found = &candidate
		case found.Kind == DynamicModule && candidate.Kind == ScriptArchive:
			// Module seen first beats the archive.
		default:
			// dll+dll, jar+jar and dll-after-jar are all unresolvable.
			return Artifact{}, fmt.Errorf("%w in '%s', please select one in 'bot.toml'", ErrMultipleArtifacts, dir)
		}
	}

	if found == nil {
		return Artifact{}, fmt.Errorf("%w in '%s'", ErrNoArtifact, dir)
	}
	return *found, nil
}
