package match

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// Process wraps a spawned command with a non-blocking exit check. A
// background goroutine reaps the process; everything else polls Exited.
type Process struct {
	cmd     *exec.Cmd
	done    chan struct{}
	waitErr error
}

func startProcess(cmd *exec.Cmd, closeAfterExit ...*os.File) (*Process, error) {
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	p := &Process{
		cmd:  cmd,
		done: make(chan struct{}),
	}
	go func() {
		p.waitErr = cmd.Wait()
		for _, f := range closeAfterExit {
			_ = f.Close()
		}
		close(p.done)
	}()
	return p, nil
}

// Exited reports whether the process has terminated, without blocking.
func (p *Process) Exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the process exits.
func (p *Process) Wait() error {
	<-p.done
	return p.waitErr
}

func (p *Process) Kill() error {
	return p.cmd.Process.Kill()
}

func (p *Process) Pid() int {
	if p.cmd.Process == nil {
		return -1
	}
	return p.cmd.Process.Pid
}

// startLogged spawns program with stdout/stderr redirected to fresh log
// files inside logDir. The extra environment entries extend the inherited
// environment.
func startLogged(
	ctx context.Context,
	program string,
	args []string,
	dir string,
	extraEnv []string,
	logDir string,
	outName string,
	errName string,
) (*Process, error) {
	outLog, err := os.Create(filepath.Join(logDir, outName))
	if err != nil {
		return nil, fmt.Errorf("could not create log file: %v", err)
	}
	errLog, err := os.Create(filepath.Join(logDir, errName))
	if err != nil {
		_ = outLog.Close()
		return nil, fmt.Errorf("could not create log file: %v", err)
	}

	cmd := exec.CommandContext(ctx, program, args...)
	cmd.Dir = dir
	cmd.Stdout = outLog
	cmd.Stderr = errLog
	if len(extraEnv) > 0 {
		cmd.Env = append(os.Environ(), extraEnv...)
	}

	p, err := startProcess(cmd, outLog, errLog)
	if err != nil {
		_ = outLog.Close()
		_ = errLog.Close()
		return nil, err
	}
	return p, nil
}
