// Package engine drives ImageMagick. It hides which release and which
// binding is installed behind Adapter, compiles pipelines into engine
// arguments and writes the result atomically.
package engine

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/milahu/imagemagick-scripts-sub003/pkg/config"
	"github.com/milahu/imagemagick-scripts-sub003/pkg/fxerr"
	"github.com/milahu/imagemagick-scripts-sub003/pkg/logger"
	"github.com/milahu/imagemagick-scripts-sub003/pkg/stage"
)

// Adapter is one way of reaching ImageMagick.
type Adapter interface {
	// Name identifies the adapter ("im6", "im7", "wand").
	Name() string
	Capabilities() Capabilities
	// Run executes one command line, without the program name.
	Run(ctx context.Context, args []string) error
	// Cache converts src into the engine-native file dst.
	Cache(ctx context.Context, src, dst string) error
	// Identify reads the metadata of the first frame of path.
	Identify(ctx context.Context, path string) (stage.Info, error)
}

// Factory opens an adapter.
type Factory func(ctx context.Context, cfg config.Config) (Adapter, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{
		"im7": OpenIM7,
		"im6": OpenIM6,
	}
	// auto tries these in order; registered adapters go first.
	autoOrder = []string{"im7", "im6"}
)

// Register makes an adapter available under name. Adapters registered
// here are preferred by the "auto" engine.
func Register(name string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	if _, dup := factories[name]; dup {
		panic("engine: Register called twice for " + name)
	}
	factories[name] = f
	autoOrder = append([]string{name}, autoOrder...)
}

// Names returns the registered adapter names.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(factories))
	for n := range factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Open returns the adapter selected by cfg.Engine. "auto" returns the
// first adapter that can be opened.
func Open(ctx context.Context, cfg config.Config) (Adapter, error) {
	mu.RLock()
	snapshot := make(map[string]Factory, len(factories))
	for n, f := range factories {
		snapshot[n] = f
	}
	order := append([]string(nil), autoOrder...)
	mu.RUnlock()

	name := cfg.Engine
	if name == "" || name == "auto" {
		var errs []string
		for _, n := range order {
			a, err := snapshot[n](ctx, cfg)
			if err == nil {
				logger.Debugf("engine %s: %s", a.Name(), a.Capabilities())
				return a, nil
			}
			errs = append(errs, n+": "+err.Error())
		}
		return nil, fxerr.Execution(errors.New("no ImageMagick installation found"), strings.Join(errs, "\n"))
	}
	f, ok := snapshot[name]
	if !ok {
		return nil, fxerr.Execution(errors.Errorf("engine %q is not available in this build", name), "")
	}
	a, err := f(ctx, cfg)
	if err != nil {
		return nil, fxerr.Execution(errors.Wrapf(err, "opening engine %s", name), "")
	}
	logger.Debugf("engine %s: %s", a.Name(), a.Capabilities())
	return a, nil
}

// IdentifyFormat is the identify -format string understood by ParseIdentify.
const IdentifyFormat = "%w %h %A %[colorspace] %m\n"

// ParseIdentify parses the first line of identify output produced with
// IdentifyFormat.
func ParseIdentify(out string) (stage.Info, error) {
	line := strings.TrimSpace(out)
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = strings.TrimSpace(line[:idx])
	}
	f := strings.Fields(line)
	if len(f) != 5 {
		return stage.Info{}, errors.Errorf("unexpected identify output %q", line)
	}
	w, err := strconv.Atoi(f[0])
	if err != nil {
		return stage.Info{}, errors.Wrap(err, "width")
	}
	h, err := strconv.Atoi(f[1])
	if err != nil {
		return stage.Info{}, errors.Wrap(err, "height")
	}
	return NewInfo(w, h, f[2], f[3], f[4]), nil
}

// NewInfo builds stage.Info from identify style attribute values.
func NewInfo(w, h int, alpha, colorspace, format string) stage.Info {
	info := stage.Info{Width: w, Height: h, Colorspace: colorspace, Format: format}
	switch strings.ToLower(alpha) {
	case "", "false", "undefined", "off", "deactivate":
	default:
		info.Alpha = true
	}
	switch strings.ToLower(colorspace) {
	case "gray", "lineargray":
		info.Channels = 1
	case "cmyk":
		info.Channels = 4
	default:
		info.Channels = 3
	}
	if info.Alpha {
		info.Channels++
	}
	return info
}
