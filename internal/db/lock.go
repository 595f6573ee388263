package db

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
)

// ErrAlreadyRunning means another live process holds the store lock.
var ErrAlreadyRunning = errors.New("store is locked by another running instance")

// instanceLock is a pid file guarding the store against a second process.
// The in-memory model is not safe for concurrent writers, so one process owns
// the file for its whole lifetime.
type instanceLock struct {
	path string
}

func acquireLock(path string) (*instanceLock, error) {
	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			fmt.Fprintf(f, "%d\n", os.Getpid())
			if cerr := f.Close(); cerr != nil {
				os.Remove(path)
				return nil, cerr
			}
			return &instanceLock{path: path}, nil
		}
		if !os.IsExist(err) {
			return nil, err
		}
		if !lockIsStale(path) {
			return nil, ErrAlreadyRunning
		}
		// leftover from a crashed run
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			return nil, rmErr
		}
	}
	return nil, ErrAlreadyRunning
}

func lockIsStale(path string) bool {
	raw, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil || pid <= 0 {
		return true
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return true
	}
	// signal 0 probes liveness without delivering anything
	return proc.Signal(syscall.Signal(0)) != nil
}

func (l *instanceLock) release() {
	os.Remove(l.path)
}
