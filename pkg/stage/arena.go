package stage

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

// Arena is a private scratch directory for one run. Every artifact the run
// creates lives inside it and is removed by Close.
type Arena struct {
	dir string

	mu     sync.Mutex
	seq    int
	closed bool
}

// NewArena creates a fresh arena below parent ("" means the system temp dir).
func NewArena(parent string) (*Arena, error) {
	dir, err := os.MkdirTemp(parent, "magickfx-*")
	if err != nil {
		return nil, errors.Wrap(err, "creating scratch directory")
	}
	return &Arena{dir: dir}, nil
}

// Dir returns the arena directory.
func (a *Arena) Dir() string {
	return a.dir
}

// Path returns a new, unused file path in the arena with the given prefix
// and extension.
func (a *Arena) Path(prefix, ext string) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.seq++
	return filepath.Join(a.dir, fmt.Sprintf("%s%d%s", prefix, a.seq, ext))
}

// Close removes the arena and everything in it. It is safe to call more
// than once and from a signal path.
func (a *Arena) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	if err := os.RemoveAll(a.dir); err != nil {
		return errors.Wrapf(err, "removing %s", a.dir)
	}
	return nil
}
