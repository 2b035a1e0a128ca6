// Package stage validates input files and stages them into a per-run arena
// as cached copies the engine can read quickly.
package stage

import (
	"context"
	"io"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/milahu/imagemagick-scripts-sub003/pkg/fxerr"
	"github.com/milahu/imagemagick-scripts-sub003/pkg/logger"
)

// CacheExt is the format of staged copies.
const CacheExt = ".miff"

// Info describes a staged image.
type Info struct {
	Width, Height int
	Channels      int
	Alpha         bool
	Colorspace    string
	Format        string
}

// Image is a staged input.
type Image struct {
	// Source is the path the user gave.
	Source string
	// Path is the cached copy inside the arena.
	Path string
	Info Info
}

// Engine is what the stager needs from the image engine.
type Engine interface {
	// Cache converts src into the engine-native file dst.
	Cache(ctx context.Context, src, dst string) error
	// Identify reads the metadata of path.
	Identify(ctx context.Context, path string) (Info, error)
}

// Stager stages inputs into an arena.
type Stager struct {
	arena  *Arena
	engine Engine
}

// New returns a stager writing into arena.
func New(arena *Arena, engine Engine) *Stager {
	return &Stager{arena: arena, engine: engine}
}

// Check verifies that path names a readable, non-empty regular file.
func Check(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fxerr.Input(path, errors.New("file does not exist"))
		}
		return fxerr.Input(path, err)
	}
	if !fi.Mode().IsRegular() {
		return fxerr.Input(path, errors.New("not a regular file"))
	}
	if fi.Size() == 0 {
		return fxerr.Input(path, errors.New("file is empty"))
	}
	f, err := os.Open(path)
	if err != nil {
		return fxerr.Input(path, errors.Wrap(err, "file is not readable"))
	}
	defer f.Close()
	var b [1]byte
	if _, err := f.Read(b[:]); err != nil && err != io.EOF {
		return fxerr.Input(path, errors.Wrap(err, "file is not readable"))
	}
	return nil
}

// Stage checks path, caches it into the arena and probes its metadata.
func (s *Stager) Stage(ctx context.Context, path string) (*Image, error) {
	if err := Check(path); err != nil {
		return nil, err
	}
	cached := s.arena.Path("input", CacheExt)
	if err := s.engine.Cache(ctx, path, cached); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fxerr.Input(path, errors.Wrap(err, "file is not a readable image"))
	}
	info, ok := ProbeConfig(path)
	if !ok {
		var err error
		info, err = s.engine.Identify(ctx, cached)
		if err != nil {
			return nil, fxerr.Input(path, errors.Wrap(err, "identifying image"))
		}
	}
	if info.Width <= 0 || info.Height <= 0 {
		return nil, fxerr.Input(path, errors.Errorf("image has no pixels (%dx%d)", info.Width, info.Height))
	}
	logger.Debugf("staged %s as %s (%dx%d %s, %d channels, alpha=%v)",
		path, cached, info.Width, info.Height, info.Format, info.Channels, info.Alpha)
	return &Image{Source: path, Path: cached, Info: info}, nil
}

// StageAll stages every path concurrently and returns the images in the
// order of paths. The first failure cancels the rest.
func (s *Stager) StageAll(ctx context.Context, paths []string) ([]*Image, error) {
	// All checks run before any engine work so a bad second input never
	// leaves the first one half staged.
	for _, p := range paths {
		if err := Check(p); err != nil {
			return nil, err
		}
	}
	images := make([]*Image, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			img, err := s.Stage(gctx, p)
			if err != nil {
				return err
			}
			images[i] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return images, nil
}
