// Package effects holds the catalogue of effects. Each effect declares its
// options, derives its numeric parameters and composes a pipeline.
package effects

import (
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/milahu/imagemagick-scripts-sub003/pkg/logger"
	"github.com/milahu/imagemagick-scripts-sub003/pkg/options"
	"github.com/milahu/imagemagick-scripts-sub003/pkg/pipeline"
	"github.com/milahu/imagemagick-scripts-sub003/pkg/stage"
)

// Positionals are the file arguments every effect takes.
var Positionals = []string{"infile", "outfile"}

// Effect describes one command.
type Effect struct {
	Name        string
	Description string
	Options     []options.Decl
	// Check validates combinations of options. It runs before any file is
	// touched and may be nil.
	Check func(options.Set) error
	// Build derives the parameters and composes the pipeline for the
	// staged inputs.
	Build func(options.Set, []*stage.Image) (*pipeline.Pipeline, error)

	once   sync.Once
	parser *options.Parser
}

// Parser returns the option parser of e.
func (e *Effect) Parser() *options.Parser {
	e.once.Do(func() {
		e.parser = options.NewParser(Positionals, e.Options...)
	})
	return e.parser
}

// Parse validates tokens and runs Check.
func (e *Effect) Parse(tokens []string) (options.Result, error) {
	res, err := e.Parser().Parse(tokens)
	if err != nil || res.Help {
		return res, err
	}
	if e.Check != nil {
		if err := e.Check(res.Set); err != nil {
			return options.Result{}, err
		}
	}
	return res, nil
}

// Compose builds and validates the pipeline for images.
func (e *Effect) Compose(set options.Set, images []*stage.Image) (*pipeline.Pipeline, error) {
	if len(images) == 0 {
		return nil, errors.Errorf("%s: no input image", e.Name)
	}
	p, err := e.Build(set, images)
	if err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	logger.Debugf("%s: %d steps", e.Name, p.Len())
	for _, s := range p.Steps() {
		logger.Debugf("  %s", s)
	}
	return p, nil
}

var registry = map[string]*Effect{}

func register(e *Effect) *Effect {
	if _, dup := registry[e.Name]; dup {
		panic("effects: duplicate effect " + e.Name)
	}
	registry[e.Name] = e
	return e
}

// Lookup returns the effect called name.
func Lookup(name string) (*Effect, bool) {
	e, ok := registry[name]
	return e, ok
}

// All returns every effect sorted by name.
func All() []*Effect {
	out := make([]*Effect, 0, len(registry))
	for _, e := range registry {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names returns the sorted effect names.
func Names() []string {
	all := All()
	names := make([]string, len(all))
	for i, e := range all {
		names[i] = e.Name
	}
	return names
}

func source(p *pipeline.Pipeline, img *stage.Image) pipeline.Buffer {
	return p.Add("src", pipeline.Load{Path: img.Path})
}
