// Package pipeline models an effect as an ordered list of typed steps over
// named image buffers.
//
// Every step reads buffers produced by earlier steps and writes exactly one
// new buffer. Buffers are never overwritten, so a step can never disturb an
// image that a later step still depends on.
package pipeline

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrNoSteps         = errors.New("pipeline has no steps")
	ErrNoOutput        = errors.New("pipeline output is not set")
	ErrDuplicateBuffer = errors.New("buffer is already defined")
	ErrUnknownBuffer   = errors.New("buffer is not defined by an earlier step")
	ErrArity           = errors.New("wrong number of inputs")
)

// Buffer names an intermediate image.
type Buffer string

// Step is one operation of the pipeline.
type Step struct {
	Out    Buffer
	In     []Buffer
	Params Params
}

func (s Step) String() string {
	in := make([]string, len(s.In))
	for i, b := range s.In {
		in[i] = string(b)
	}
	return fmt.Sprintf("%s = %s(%s) %+v", s.Out, s.Params.Op(), strings.Join(in, ", "), s.Params)
}

// Pipeline is an ordered list of steps with one designated output buffer.
// Builder methods record the first error; Validate reports it.
type Pipeline struct {
	name   string
	steps  []Step
	output Buffer
	index  map[Buffer]int
	err    error
}

// New creates an empty pipeline. name labels diagnostics and graphs.
func New(name string) *Pipeline {
	return &Pipeline{name: name, index: make(map[Buffer]int)}
}

// Name returns the pipeline label.
func (p *Pipeline) Name() string {
	return p.name
}

// Add appends a step producing out from in and returns out, so that calls
// can be nested into later Add calls.
func (p *Pipeline) Add(out Buffer, params Params, in ...Buffer) Buffer {
	if p.err != nil {
		return out
	}
	step := Step{Out: out, In: append([]Buffer(nil), in...), Params: params}
	if err := p.check(step); err != nil {
		p.err = errors.Wrapf(err, "step %d (%s)", len(p.steps), step.Out)
		return out
	}
	p.index[out] = len(p.steps)
	p.steps = append(p.steps, step)
	return out
}

func (p *Pipeline) check(s Step) error {
	if s.Out == "" {
		return errors.New("empty output buffer name")
	}
	if s.Params == nil {
		return errors.New("nil params")
	}
	if _, dup := p.index[s.Out]; dup {
		return errors.Wrap(ErrDuplicateBuffer, string(s.Out))
	}
	lo, hi := s.Params.Op().arity()
	if len(s.In) < lo || (hi >= 0 && len(s.In) > hi) {
		return errors.Wrapf(ErrArity, "%s takes %d..%d inputs, got %d", s.Params.Op(), lo, hi, len(s.In))
	}
	for _, b := range s.In {
		if _, ok := p.index[b]; !ok {
			return errors.Wrap(ErrUnknownBuffer, string(b))
		}
	}
	return nil
}

// SetOutput designates the buffer written to the destination file.
func (p *Pipeline) SetOutput(b Buffer) {
	p.output = b
}

// Output returns the designated output buffer.
func (p *Pipeline) Output() Buffer {
	return p.output
}

// Steps returns the steps in execution order.
func (p *Pipeline) Steps() []Step {
	return p.steps
}

// Len returns the number of steps.
func (p *Pipeline) Len() int {
	return len(p.steps)
}

// Step returns the step producing b.
func (p *Pipeline) Step(b Buffer) (Step, bool) {
	i, ok := p.index[b]
	if !ok {
		return Step{}, false
	}
	return p.steps[i], true
}

// Validate reports the first builder error, then checks that the output is
// produced. Add already rejects reads of buffers not produced earlier.
func (p *Pipeline) Validate() error {
	if p.err != nil {
		return errors.Wrapf(p.err, "pipeline %s", p.name)
	}
	if len(p.steps) == 0 {
		return errors.Wrapf(ErrNoSteps, "pipeline %s", p.name)
	}
	if p.output == "" {
		return errors.Wrapf(ErrNoOutput, "pipeline %s", p.name)
	}
	if _, ok := p.index[p.output]; !ok {
		return errors.Wrapf(ErrUnknownBuffer, "pipeline %s output %s", p.name, p.output)
	}
	return nil
}

// LastUse maps every buffer to the index of the last step reading it. The
// output buffer is read after the final step.
func (p *Pipeline) LastUse() map[Buffer]int {
	last := make(map[Buffer]int, len(p.steps))
	for i, s := range p.steps {
		for _, b := range s.In {
			last[b] = i
		}
	}
	if p.output != "" {
		last[p.output] = len(p.steps)
	}
	return last
}
