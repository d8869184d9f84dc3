package scenario

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/chabad360/dawctl/internal/daw"
	"github.com/chabad360/dawctl/internal/report"
	"github.com/chabad360/dawctl/osc"
)

// Remote sends commands to the DAW. *remote.Surface implements it.
type Remote interface {
	Send(ctx context.Context, cmd daw.Command) error
	Request(ctx context.Context, cmd daw.Command) (*osc.Message, error)
}

// Result is the outcome of one test.
type Result struct {
	Test    string
	Passed  bool
	Replies int
	Err     error
}

// Summary is the outcome of a scenario run.
type Summary struct {
	Passed  int
	Failed  int
	Results []Result
}

// OK reports whether every test passed.
func (s Summary) OK() bool {
	return s.Failed == 0
}

// Runner runs scenarios against a Remote.
type Runner struct {
	Remote   Remote
	Reporter *report.Reporter
	Logger   *zap.Logger
	// SkipSettle ignores the settle delays of steps.
	SkipSettle bool
}

// Run runs every test of sc in order. A failing test does not stop the run;
// a done ctx does, and its error is returned.
func (r *Runner) Run(ctx context.Context, sc *Scenario) (Summary, error) {
	log := r.logger().With(zap.String("scenario", sc.Name))
	var sum Summary

	for i, t := range sc.Tests {
		r.Reporter.Test(i+1, t.Title)

		res := r.runTest(ctx, log, t)
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		sum.Results = append(sum.Results, res)

		if res.Passed {
			sum.Passed++
			msg := t.Result
			if msg == "" {
				msg = t.Title
			}
			if res.Replies > 0 {
				msg = fmt.Sprintf("%s (%d replies)", msg, res.Replies)
			}
			r.Reporter.Result(true, "%s", msg)
			for _, n := range t.Notes {
				r.Reporter.Note("%s", n)
			}
		} else {
			sum.Failed++
			r.Reporter.Result(false, "%v", res.Err)
		}
		log.Debug("test done", zap.Int("test", i+1), zap.Bool("passed", res.Passed), zap.Error(res.Err))
	}
	return sum, nil
}

func (r *Runner) runTest(ctx context.Context, log *zap.Logger, t Test) Result {
	res := Result{Test: t.Title}
	var errs []error

	for _, step := range t.Steps {
		cmd, err := step.Build()
		if err != nil {
			errs = append(errs, err)
			continue
		}

		if step.Await {
			reply, err := r.Remote.Request(ctx, cmd)
			if err != nil {
				errs = append(errs, err)
			} else {
				res.Replies++
				log.Debug("reply", zap.String("command", cmd.Name), zap.Stringer("msg", reply))
			}
		} else if err := r.Remote.Send(ctx, cmd); err != nil {
			errs = append(errs, err)
		}

		if ctx.Err() != nil {
			break
		}
		if err := r.settle(ctx, time.Duration(step.Settle)); err != nil {
			break
		}
	}

	res.Err = errors.Join(errs...)
	res.Passed = res.Err == nil
	return res
}

func (r *Runner) settle(ctx context.Context, d time.Duration) error {
	if r.SkipSettle || d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}
