package engine

import (
	"bytes"
	"context"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/milahu/imagemagick-scripts-sub003/pkg/config"
	"github.com/milahu/imagemagick-scripts-sub003/pkg/fxerr"
	"github.com/milahu/imagemagick-scripts-sub003/pkg/logger"
	"github.com/milahu/imagemagick-scripts-sub003/pkg/magickver"
	"github.com/milahu/imagemagick-scripts-sub003/pkg/stage"
)

// Exec runs ImageMagick command line tools as child processes.
type Exec struct {
	name     string
	convert  []string
	identify []string
	caps     Capabilities
}

// OpenIM7 locates the ImageMagick 7 "magick" tool.
func OpenIM7(ctx context.Context, cfg config.Config) (Adapter, error) {
	magick, err := lookPath(cfg.BinDir, "magick")
	if err != nil {
		return nil, err
	}
	return newExec(ctx, "im7", []string{magick}, []string{magick, "identify"})
}

// OpenIM6 locates the ImageMagick 6 "convert" and "identify" tools.
func OpenIM6(ctx context.Context, cfg config.Config) (Adapter, error) {
	convert, err := lookPath(cfg.BinDir, "convert")
	if err != nil {
		return nil, err
	}
	identify, err := lookPath(cfg.BinDir, "identify")
	if err != nil {
		return nil, err
	}
	return newExec(ctx, "im6", []string{convert}, []string{identify})
}

func newExec(ctx context.Context, name string, convert, identify []string) (Adapter, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, convert[0], "-version")
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, errors.Wrapf(err, "%s -version: %s", convert[0], strings.TrimSpace(stderr.String()))
	}
	v, err := magickver.ParseBanner(stdout.String())
	if err != nil {
		return nil, errors.Wrap(err, convert[0])
	}
	if name == "im7" && v.Major < 7 {
		return nil, errors.Errorf("%s reports ImageMagick %s", convert[0], v)
	}
	return &Exec{name: name, convert: convert, identify: identify, caps: CapabilitiesFor(v)}, nil
}

func lookPath(binDir, prog string) (string, error) {
	if binDir != "" {
		p := filepath.Join(binDir, prog)
		if path, err := exec.LookPath(p); err == nil {
			return path, nil
		}
	}
	path, err := exec.LookPath(prog)
	if err != nil {
		return "", errors.Wrapf(err, "locating %s", prog)
	}
	return path, nil
}

func (e *Exec) Name() string               { return e.name }
func (e *Exec) Capabilities() Capabilities { return e.caps }

// Run executes the convert tool with args.
func (e *Exec) Run(ctx context.Context, args []string) error {
	_, err := e.run(ctx, e.convert, args)
	return err
}

// Cache writes a repaged copy of src to dst.
func (e *Exec) Cache(ctx context.Context, src, dst string) error {
	return e.Run(ctx, []string{"-quiet", src, "+repage", dst})
}

// Identify reads the metadata of the first frame of path.
func (e *Exec) Identify(ctx context.Context, path string) (stage.Info, error) {
	out, err := e.run(ctx, e.identify, []string{"-quiet", "-format", IdentifyFormat, path + "[0]"})
	if err != nil {
		return stage.Info{}, err
	}
	return ParseIdentify(out)
}

func (e *Exec) run(ctx context.Context, prog, args []string) (string, error) {
	argv := append(append([]string(nil), prog[1:]...), args...)
	logger.Debugf("exec %s %s", prog[0], strings.Join(argv, " "))
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, prog[0], argv...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	diag := strings.TrimSpace(stderr.String())
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fxerr.Execution(errors.Wrap(err, filepath.Base(prog[0])), diag)
	}
	if diag != "" {
		logger.Debugf("%s: %s", filepath.Base(prog[0]), diag)
	}
	return stdout.String(), nil
}
