package launch

import (
	"fmt"
	"runtime"
)

// WrapperKind selects the execution wrapper the engine command is run
// through. Builders treat the wrapper as opaque.
type WrapperKind int

const (
	NoWrapper WrapperKind = iota
	// Wine runs the Windows engine binaries on POSIX hosts.
	Wine
	// Sandboxie isolates the engine process in a named box.
	Sandboxie
)

type Wrapper struct {
	Kind       WrapperKind
	Executable string
	BoxName    string
}

// DefaultWrapper picks Wine off Windows, since every launched binary is a
// Windows executable.
func DefaultWrapper() Wrapper {
	if runtime.GOOS == "windows" {
		return Wrapper{Kind: NoWrapper}
	}
	return Wrapper{Kind: Wine}
}

// Wrap decorates program into the actual (program, leading args) pair to
// spawn.
func (w Wrapper) Wrap(program string) (string, []string) {
	switch w.Kind {
	case Sandboxie:
		return w.Executable, []string{
			"/wait",
			"/silent",
			fmt.Sprintf("/box:%s", w.BoxName),
			program,
		}
	case Wine:
		return "wine", []string{program}
	default:
		return program, nil
	}
}
