package pid

import (
	"os"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/danielhfingal/tesla-powerwall-fingal/internal/errors"
)

const pidFile = "powerwall-exporter.pid"

func path() string {
	return filepath.Join(os.TempDir(), pidFile)
}

// Write writes the current process ID to a PID file, refusing when a
// previous exporter instance still holds it.
func Write() error {
	errFactory := errors.New()

	running, err := otherInstanceRunning()
	if err != nil {
		return err
	}
	if running {
		return errFactory.New(errors.ErrAlreadyRunning)
	}

	if err := os.WriteFile(path(), []byte(strconv.Itoa(os.Getpid())), 0o600); err != nil {
		return errFactory.Wrap(errors.ErrInternal, err)
	}

	return nil
}

// Remove removes the PID file.
func Remove() error {
	if _, err := os.Stat(path()); os.IsNotExist(err) {
		return nil
	}

	if err := os.Remove(path()); err != nil {
		return errors.New().Wrap(errors.ErrInternal, err)
	}

	return nil
}

// otherInstanceRunning checks whether the process named by an existing
// PID file is still alive. A stale file from a crashed run is ignored.
func otherInstanceRunning() (bool, error) {
	errFactory := errors.New()

	raw, err := os.ReadFile(path())
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errFactory.Wrap(errors.ErrInternal, err)
	}

	pid, err := strconv.Atoi(string(raw))
	if err != nil {
		// Unparseable file, treat as stale.
		return false, nil
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false, nil
	}

	return process.Signal(syscall.Signal(0)) == nil, nil
}
