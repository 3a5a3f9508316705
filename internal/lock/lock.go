// Package lock begrenzt parallele Läufe auf einen aktiven und einen
// wartenden Prozess.
//
// Zuerst wird nicht-blockierend ein Queue-Lock geholt. Ist er belegt, wartet
// bereits ein anderer Lauf und der Aufrufer gibt auf (ErrQueueBusy). Danach
// wird blockierend der Programm-Lock geholt und der Queue-Lock freigegeben.
// Der Kernel gibt beide Locks beim Prozessende frei, auch bei einem Absturz.
package lock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

const (
	QueueFile   = ".queue_lock"
	ProgramFile = ".program_lock"
)

// ErrQueueBusy signalisiert, dass bereits ein Lauf auf den Programm-Lock wartet
var ErrQueueBusy = errors.New("lock queue is busy")

type Lock struct {
	program *os.File
}

// Acquire holt die beiden Locks im Verzeichnis dir. Blockiert, solange ein
// vorheriger Lauf den Programm-Lock hält.
func Acquire(dir string) (*Lock, error) {
	queue, err := openLockFile(filepath.Join(dir, QueueFile))
	if err != nil {
		return nil, err
	}
	defer queue.Close()

	if err := unix.Flock(int(queue.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, ErrQueueBusy
		}
		return nil, fmt.Errorf("lock %s: %w", queue.Name(), err)
	}

	program, err := openLockFile(filepath.Join(dir, ProgramFile))
	if err != nil {
		return nil, err
	}

	if err := flockRetry(program, unix.LOCK_EX); err != nil {
		program.Close()
		return nil, fmt.Errorf("lock %s: %w", program.Name(), err)
	}

	// Platz in der Warteschlange wieder freigeben
	if err := unix.Flock(int(queue.Fd()), unix.LOCK_UN); err != nil {
		program.Close()
		return nil, fmt.Errorf("unlock %s: %w", queue.Name(), err)
	}

	return &Lock{program: program}, nil
}

// Release gibt den Programm-Lock frei
func (l *Lock) Release() error {
	if l == nil || l.program == nil {
		return nil
	}
	defer func() { l.program = nil }()

	if err := unix.Flock(int(l.program.Fd()), unix.LOCK_UN); err != nil {
		l.program.Close()
		return fmt.Errorf("unlock %s: %w", l.program.Name(), err)
	}
	return l.program.Close()
}

func openLockFile(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}
	return f, nil
}

// flockRetry wiederholt den blockierenden Aufruf nach Signal-Unterbrechungen
func flockRetry(f *os.File, how int) error {
	for {
		err := unix.Flock(int(f.Fd()), how)
		if !errors.Is(err, unix.EINTR) {
			return err
		}
	}
}
