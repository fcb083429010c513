package upgrade

import (
	"context"
	"fmt"
	"strings"

	"github.com/juju/clock"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// RunOptions select and shape one upgrade run.
type RunOptions struct {
	// Version restricts the run to one Ubuntu release, e.g. "18.04". Empty means any.
	Version string
	// Wait follows each conversion to completion and restarts the instance.
	// Without it the conversion is only submitted and the instance stays stopped.
	Wait bool
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithObserver sends progress events to obs.
func WithObserver(obs Observer) Option {
	return func(o *Orchestrator) { o.observer = obs }
}

// WithLogger sets the diagnostics logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(o *Orchestrator) { o.log = log }
}

// WithClock sets the clock used for polling and timing.
func WithClock(clk clock.Clock) Option {
	return func(o *Orchestrator) { o.clock = clk }
}

// Orchestrator runs fetch, eligibility, stop, convert and start for each
// instance. A failure only ends processing of the instance it happened on.
type Orchestrator struct {
	cfg       Config
	fetcher   *MetadataFetcher
	lifecycle *LifecycleController
	converter *Converter
	observer  Observer
	log       logrus.FieldLogger
	clock     clock.Clock
}

func New(p Providers, cfg Config, opts ...Option) (*Orchestrator, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	o := &Orchestrator{
		cfg:      cfg,
		observer: nopObserver{},
		log:      logrus.StandardLogger(),
		clock:    clock.WallClock,
	}
	for _, opt := range opts {
		opt(o)
	}

	o.fetcher = NewMetadataFetcher(p.Compute, p.Inventory, o.log)
	o.lifecycle = NewLifecycleController(p.Compute, cfg.LifecycleTimeout, o.log)
	o.converter = NewConverter(p.License, cfg, o.clock, o.log)
	o.converter.observer = o.observer
	return o, nil
}

// Run processes instanceIDs and returns one Result per ID in input order.
// It always finishes with a run-level "Done" event.
func (o *Orchestrator) Run(ctx context.Context, instanceIDs []string, opts RunOptions) []Result {
	o.emit(Event{Stage: StageRun, Status: StatusStarted, Message: fmt.Sprintf("Processing %d instance(s)", len(instanceIDs))})

	results := make([]Result, len(instanceIDs))
	if o.cfg.Concurrency > 1 && len(instanceIDs) > 1 {
		var g errgroup.Group
		g.SetLimit(o.cfg.Concurrency)
		for i, id := range instanceIDs {
			g.Go(func() error {
				results[i] = o.processUnlessCancelled(ctx, id, opts)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i, id := range instanceIDs {
			results[i] = o.processUnlessCancelled(ctx, id, opts)
		}
	}

	o.emit(Event{Stage: StageRun, Status: StatusSucceeded, Message: "Done"})
	return results
}

func (o *Orchestrator) processUnlessCancelled(ctx context.Context, id string, opts RunOptions) Result {
	if err := ctx.Err(); err != nil {
		o.emit(Event{InstanceID: id, Stage: StageFetch, Status: StatusSkipped, Message: fmt.Sprintf("Skipping instance %s: run cancelled", id), Err: err})
		return Result{InstanceID: id, Outcome: OutcomeSkipped, Stage: StageFetch, Err: err}
	}
	return o.process(ctx, id, opts)
}

func (o *Orchestrator) process(ctx context.Context, id string, opts RunOptions) (res Result) {
	start := o.clock.Now()
	res = Result{InstanceID: id, Stage: StageFetch}
	defer func() {
		if r := recover(); r != nil {
			res.Outcome = OutcomeFailed
			res.Err = fmt.Errorf("%w: %v", ErrProviderFault, r)
			o.log.WithFields(logrus.Fields{"instance": id, "stage": res.Stage}).Errorf("recovered from panic: %v", r)
			o.emit(Event{InstanceID: id, Stage: res.Stage, Status: StatusFailed, Message: fmt.Sprintf("Error getting information for %s", id), Err: res.Err})
		}
		res.Elapsed = o.clock.Now().Sub(start)
	}()

	o.emit(Event{InstanceID: id, Stage: StageFetch, Status: StatusStarted, Message: fmt.Sprintf("Trying instance %s", id)})
	md, err := o.fetcher.Fetch(ctx, id)
	if err != nil {
		res.Outcome = OutcomeSkipped
		res.Err = err
		msg := fmt.Sprintf("Error retrieving metadata for instance %s: is the instance online and managed by SSM?", id)
		if ctx.Err() != nil {
			msg = fmt.Sprintf("Skipping instance %s: run cancelled", id)
		}
		o.emit(Event{InstanceID: id, Stage: StageFetch, Status: StatusSkipped, Message: msg, Err: err})
		return res
	}
	res.Metadata = md

	res.Stage = StageCheck
	if reasons := (Criteria{Version: opts.Version}).Reasons(md); len(reasons) > 0 {
		res.Outcome = OutcomeSkipped
		res.Err = fmt.Errorf("%w: %s", ErrIneligible, strings.Join(reasons, "; "))
		o.emit(Event{InstanceID: id, Stage: StageCheck, Status: StatusSkipped, Metadata: md, Reasons: reasons, Message: fmt.Sprintf("Instance %s doesn't meet the criteria specified", id), Err: res.Err})
		return res
	}
	o.emit(Event{InstanceID: id, Stage: StageCheck, Status: StatusSucceeded, Metadata: md, Message: fmt.Sprintf("Instance %s is eligible (%s %s, %s)", id, md.PlatformName, md.PlatformVersion, md.UsageOperation)})

	res.Stage = StageStop
	o.emit(Event{InstanceID: id, Stage: StageStop, Status: StatusStarted, Message: fmt.Sprintf("Stopping instance %s", id)})
	if err := o.lifecycle.StopAndWait(ctx, id); err != nil {
		return o.fail(res, err, fmt.Sprintf("Error stopping instance %s", id))
	}
	o.emit(Event{InstanceID: id, Stage: StageStop, Status: StatusSucceeded, Message: fmt.Sprintf("Instance %s stopped", id)})

	res.Stage = StageConvert
	o.emit(Event{InstanceID: id, Stage: StageConvert, Status: StatusStarted, Message: fmt.Sprintf("Starting license conversion for instance %s", id)})
	task, err := o.converter.Convert(ctx, id, opts.Wait)
	if task != nil {
		res.TaskID = task.ID
	}
	if err != nil {
		return o.fail(res, err, fmt.Sprintf("Conversion of %s failed", id))
	}
	if !opts.Wait {
		res.Outcome = OutcomeSubmitted
		o.emit(Event{InstanceID: id, Stage: StageConvert, Status: StatusSucceeded, TaskID: task.ID, Message: fmt.Sprintf("Conversion of %s submitted; the instance stays stopped until task %s completes", id, task.ID)})
		return res
	}
	o.emit(Event{InstanceID: id, Stage: StageConvert, Status: StatusSucceeded, TaskID: task.ID, Message: fmt.Sprintf("Instance %s successfully converted", id)})

	res.Stage = StageStart
	o.emit(Event{InstanceID: id, Stage: StageStart, Status: StatusStarted, Message: fmt.Sprintf("Starting instance %s", id)})
	if err := o.lifecycle.StartAndWait(ctx, id); err != nil {
		return o.fail(res, err, fmt.Sprintf("Error starting instance %s", id))
	}
	o.emit(Event{InstanceID: id, Stage: StageStart, Status: StatusSucceeded, Message: fmt.Sprintf("Instance %s started", id)})

	res.Stage = StageDone
	res.Outcome = OutcomeConverted
	o.emit(Event{InstanceID: id, Stage: StageDone, Status: StatusSucceeded, TaskID: res.TaskID, Message: fmt.Sprintf("Instance %s is now running Ubuntu Pro", id)})
	return res
}

func (o *Orchestrator) fail(res Result, err error, msg string) Result {
	res.Outcome = OutcomeFailed
	res.Err = err
	o.emit(Event{InstanceID: res.InstanceID, Stage: res.Stage, Status: StatusFailed, TaskID: res.TaskID, Message: msg, Err: err})
	return res
}

func (o *Orchestrator) emit(e Event) {
	e.Time = o.clock.Now()
	o.observer.Observe(e)
}
