//go:build wand

// Package wand runs ImageMagick in process through the MagickWand API.
// Importing it registers the "wand" engine.
package wand

import (
	"context"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"gopkg.in/gographics/imagick.v3/imagick"

	"github.com/milahu/imagemagick-scripts-sub003/pkg/config"
	"github.com/milahu/imagemagick-scripts-sub003/pkg/engine"
	"github.com/milahu/imagemagick-scripts-sub003/pkg/fxerr"
	"github.com/milahu/imagemagick-scripts-sub003/pkg/logger"
	"github.com/milahu/imagemagick-scripts-sub003/pkg/magickver"
	"github.com/milahu/imagemagick-scripts-sub003/pkg/stage"
)

func init() {
	engine.Register("wand", Open)
}

var initOnce sync.Once

// Adapter is the in-process engine.
type Adapter struct {
	caps engine.Capabilities
	// MagickCommand is not safe for concurrent use.
	mu sync.Mutex
}

// Open initialises the MagickWand environment and detects its version.
func Open(_ context.Context, _ config.Config) (engine.Adapter, error) {
	initOnce.Do(imagick.Initialize)
	banner, _ := imagick.GetVersion()
	v, err := magickver.ParseBanner(banner)
	if err != nil {
		return nil, errors.Wrap(err, "MagickWand version")
	}
	return &Adapter{caps: engine.CapabilitiesFor(v)}, nil
}

func (a *Adapter) Name() string                      { return "wand" }
func (a *Adapter) Capabilities() engine.Capabilities { return a.caps }

// Run executes args as a convert command line.
func (a *Adapter) Run(ctx context.Context, args []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	logger.Debugf("wand convert %s", strings.Join(args, " "))
	if _, err := imagick.ConvertImageCommand(append([]string{"convert"}, args...)); err != nil {
		return fxerr.Execution(errors.New("wand convert failed"), err.Error())
	}
	return nil
}

// Cache writes a repaged copy of src to dst.
func (a *Adapter) Cache(ctx context.Context, src, dst string) error {
	return a.Run(ctx, []string{"-quiet", src, "+repage", dst})
}

// Identify pings path without decoding its pixels.
func (a *Adapter) Identify(ctx context.Context, path string) (stage.Info, error) {
	if err := ctx.Err(); err != nil {
		return stage.Info{}, err
	}
	mw := imagick.NewMagickWand()
	defer mw.Destroy()
	if err := mw.PingImage(path); err != nil {
		return stage.Info{}, errors.Wrapf(err, "ping %s", path)
	}
	mw.SetIteratorIndex(0)
	alpha := "False"
	if mw.GetImageAlphaChannel() {
		alpha = "True"
	}
	return engine.NewInfo(int(mw.GetImageWidth()), int(mw.GetImageHeight()),
		alpha, colorspaceName(mw.GetImageColorspace()), mw.GetImageFormat()), nil
}

func colorspaceName(cs imagick.ColorspaceType) string {
	switch cs {
	case imagick.COLORSPACE_GRAY:
		return "Gray"
	case imagick.COLORSPACE_CMYK:
		return "CMYK"
	case imagick.COLORSPACE_RGB:
		return "RGB"
	}
	return "sRGB"
}
