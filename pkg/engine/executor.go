package engine

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/milahu/imagemagick-scripts-sub003/pkg/logger"
	"github.com/milahu/imagemagick-scripts-sub003/pkg/pipeline"
	"github.com/milahu/imagemagick-scripts-sub003/pkg/stage"
)

// Executor runs pipelines through an adapter.
type Executor struct {
	adapter   Adapter
	arena     *stage.Arena
	maxTokens int
}

// NewExecutor returns an executor that keeps checkpoints in arena.
func NewExecutor(a Adapter, arena *stage.Arena, maxTokens int) *Executor {
	return &Executor{adapter: a, arena: arena, maxTokens: maxTokens}
}

// Compile translates p for this executor's engine, writing to dest.
func (e *Executor) Compile(p *pipeline.Pipeline, dest string) ([]Batch, error) {
	c := &Compiler{
		Caps:      e.adapter.Capabilities(),
		MaxTokens: e.maxTokens,
		Checkpoint: func(b pipeline.Buffer) string {
			return e.arena.Path("ckpt-"+string(b)+"-", stage.CacheExt)
		},
	}
	return c.Compile(p, dest)
}

// Execute runs p and stores its output at dest. The destination is only
// replaced once every batch has succeeded; on failure it is left as it was.
func (e *Executor) Execute(ctx context.Context, p *pipeline.Pipeline, dest string) error {
	format, path := splitFormat(dest)
	tmpPath, err := reserveOutput(path)
	if err != nil {
		return errors.Wrap(err, "creating output file")
	}
	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpPath)
		}
	}()

	target := tmpPath
	if format != "" {
		target = format + ":" + tmpPath
	}
	batches, err := e.Compile(p, target)
	if err != nil {
		return err
	}
	for i, b := range batches {
		logger.Debugf("%s: batch %d/%d steps %d..%d (%d args)", p.Name(), i+1, len(batches), b.First, b.Last, len(b.Args))
		if err := e.adapter.Run(ctx, b.Args); err != nil {
			return errors.Wrapf(err, "%s: batch %d/%d", p.Name(), i+1, len(batches))
		}
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	committed = true
	return nil
}

// reserveOutput creates the hidden file the engine writes in place of path.
// A new file gets the umask-filtered default mode; an existing destination
// keeps its mode across the rename.
func reserveOutput(path string) (string, error) {
	name := filepath.Join(filepath.Dir(path), ".magickfx-"+uuid.NewString()+filepath.Ext(path))
	f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o666)
	if err != nil {
		return "", err
	}
	f.Close()
	if fi, err := os.Stat(path); err == nil && fi.Mode().IsRegular() {
		if err := os.Chmod(name, fi.Mode().Perm()); err != nil {
			os.Remove(name)
			return "", err
		}
	}
	return name, nil
}

var formatPrefix = regexp.MustCompile(`^([A-Za-z0-9]{2,}):(.+)$`)

// splitFormat separates an explicit "png:out.dat" format prefix from the
// file name. Single letters are left alone so Windows drives survive.
func splitFormat(dest string) (string, string) {
	m := formatPrefix.FindStringSubmatch(dest)
	if m == nil || strings.ContainsAny(m[1], `/\`) {
		return "", dest
	}
	return m[1], m[2]
}
