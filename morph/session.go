package morph

import (
	"fmt"
	"os/exec"
	"strconv"
)

// session tracks one analysis server process.
type session interface {
	Exited() bool
	Terminate()
}

type daemonSession struct {
	cmd  *exec.Cmd
	done chan struct{}
}

// startDaemon launches the SFST analysis server. Its stderr is discarded;
// several taggers may race to bind the same port, and whichever server wins
// serves them all.
func startDaemon(bin string, port int, model string) (session, error) {
	cmd := exec.Command(bin, strconv.Itoa(port), model)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("analysis server %s: %w", bin, err)
	}
	daemon := &daemonSession{cmd: cmd, done: make(chan struct{})}
	go func() {
		_ = cmd.Wait()
		close(daemon.done)
	}()
	return daemon, nil
}

func (daemon *daemonSession) Exited() bool {
	select {
	case <-daemon.done:
		return true
	default:
		return false
	}
}

func (daemon *daemonSession) Terminate() {
	_ = daemon.cmd.Process.Kill()
}
