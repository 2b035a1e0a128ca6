// Package runner drives one effect invocation through its states:
// Init, Validating, Staging, Composing, Executing, then Success or Failed.
package runner

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/milahu/imagemagick-scripts-sub003/pkg/config"
	"github.com/milahu/imagemagick-scripts-sub003/pkg/effects"
	"github.com/milahu/imagemagick-scripts-sub003/pkg/engine"
	"github.com/milahu/imagemagick-scripts-sub003/pkg/logger"
	"github.com/milahu/imagemagick-scripts-sub003/pkg/stage"
)

// State is a phase of a run.
type State int

const (
	Init State = iota
	Validating
	Staging
	Composing
	Executing
	Success
	Failed
)

var stateNames = [...]string{"init", "validating", "staging", "composing", "executing", "success", "failed"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Result describes a finished run.
type Result struct {
	// Help is set when usage was requested; nothing else ran.
	Help   bool
	Output string
	Steps  int
}

// Runner executes effects with one configuration.
type Runner struct {
	cfg config.Config
	// Open returns the engine adapter; engine.Open by default.
	Open func(context.Context, config.Config) (engine.Adapter, error)
	// OnTransition, when set, observes every state change.
	OnTransition func(from, to State)

	state State
	log   zerolog.Logger
}

// New returns a runner for cfg.
func New(cfg config.Config) *Runner {
	return &Runner{cfg: cfg, Open: engine.Open}
}

// State returns the current state.
func (r *Runner) State() State {
	return r.state
}

func (r *Runner) enter(s State) {
	r.log.Debug().Stringer("from", r.state).Stringer("to", s).Msg("state")
	if r.OnTransition != nil {
		r.OnTransition(r.state, s)
	}
	r.state = s
}

// Run validates tokens for e, stages the input, composes the pipeline and
// writes the output. Scratch files are removed before Run returns, also
// when the run is interrupted by SIGINT, SIGTERM or SIGHUP.
func (r *Runner) Run(ctx context.Context, e *effects.Effect, tokens []string) (Result, error) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	r.state = Init
	r.log = logger.With("run", uuid.NewString()).With().Str("effect", e.Name).Logger()
	res, err := r.run(ctx, e, tokens)
	if err != nil {
		if ctx.Err() != nil {
			err = errors.Wrap(err, "interrupted")
		}
		r.enter(Failed)
		r.log.Debug().Err(err).Msg("run failed")
		return Result{}, err
	}
	r.enter(Success)
	return res, nil
}

func (r *Runner) run(ctx context.Context, e *effects.Effect, tokens []string) (Result, error) {
	r.enter(Validating)
	parsed, err := e.Parse(tokens)
	if err != nil {
		return Result{}, err
	}
	if parsed.Help {
		return Result{Help: true}, nil
	}
	inputs, output := parsed.Args[:len(parsed.Args)-1], parsed.Args[len(parsed.Args)-1]

	r.enter(Staging)
	for _, in := range inputs {
		if err := stage.Check(in); err != nil {
			return Result{}, err
		}
	}
	adapter, err := r.Open(ctx, r.cfg)
	if err != nil {
		return Result{}, err
	}
	r.log.Debug().Str("engine", adapter.Name()).Stringer("version", adapter.Capabilities().Version).Msg("engine ready")
	arena, err := stage.NewArena(r.cfg.TmpDir)
	if err != nil {
		return Result{}, err
	}
	defer func() {
		if cerr := arena.Close(); cerr != nil {
			r.log.Warn().Err(cerr).Msg("cleanup")
		}
	}()
	images, err := stage.New(arena, adapter).StageAll(ctx, inputs)
	if err != nil {
		return Result{}, err
	}

	r.enter(Composing)
	p, err := e.Compose(parsed.Set, images)
	if err != nil {
		return Result{}, err
	}
	if r.cfg.GraphPath != "" {
		if err := p.DrawDOT(r.cfg.GraphPath); err != nil {
			r.log.Warn().Err(err).Str("path", r.cfg.GraphPath).Msg("writing pipeline graph")
		}
	}

	r.enter(Executing)
	if err := engine.NewExecutor(adapter, arena, r.cfg.MaxTokens).Execute(ctx, p, output); err != nil {
		return Result{}, err
	}
	r.log.Info().Str("output", output).Int("steps", p.Len()).Msg("done")
	return Result{Output: output, Steps: p.Len()}, nil
}
