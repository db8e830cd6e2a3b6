package identify

import (
	"context"
	"time"

	"github.com/birdeye-app/birdeye/internal/classifier"
	"github.com/birdeye-app/birdeye/internal/errors"
	"github.com/birdeye-app/birdeye/internal/imaging"
	"github.com/birdeye-app/birdeye/internal/logger"
	"github.com/birdeye-app/birdeye/internal/observability/metrics"
	"github.com/birdeye-app/birdeye/internal/photo"
)

const componentName = "identify"

// State is a step of the identification protocol.
type State int

const (
	AwaitingCandidates State = iota
	AwaitingJudgment
	Done
	FellBack
)

func (s State) String() string {
	switch s {
	case AwaitingCandidates:
		return "awaiting_candidates"
	case AwaitingJudgment:
		return "awaiting_judgment"
	case Done:
		return "done"
	case FellBack:
		return "fallback"
	}
	return "unknown"
}

// Terminal reports whether no further classifier call follows.
func (s State) Terminal() bool {
	return s == Done || s == FellBack
}

// Identification is the full outcome of the protocol for one photo.
type Identification struct {
	Result     Result
	Candidates CandidateSet
	State      State // Done or FellBack
	// Warnings holds non-fatal failures of either phase.
	Warnings []error
}

// Orchestrator runs the two-phase protocol: a candidate shortlist, then a
// final judgment with scoring. It always issues exactly two classifier calls
// unless the context ends first.
type Orchestrator struct {
	classifier classifier.Classifier
	log        logger.Logger
	metrics    *metrics.ClassifierMetrics
}

// NewOrchestrator creates an Orchestrator. Logger and metrics may be nil.
func NewOrchestrator(c classifier.Classifier, log logger.Logger, m *metrics.ClassifierMetrics) *Orchestrator {
	if log == nil {
		log = logger.Global().Module(componentName)
	}
	return &Orchestrator{classifier: c, log: log, metrics: m}
}

// run carries the protocol state between steps.
type run struct {
	ctx     context.Context
	image   string
	context string
	id      Identification
	log     logger.Logger
}

// Identify classifies the image. It never returns an error: an unparseable
// or failed phase 2 yields the fallback result, and a failed phase 1 only
// removes the shortlist from phase 2.
func (o *Orchestrator) Identify(ctx context.Context, img imaging.Payload, info photo.ExifInfo) Identification {
	r := &run{
		ctx:     ctx,
		image:   img.DataURL(),
		context: ContextBlock(info),
		log:     o.log.WithContext(ctx),
	}

	state := AwaitingCandidates
	for !state.Terminal() {
		switch state {
		case AwaitingCandidates:
			state = o.candidates(r)
		case AwaitingJudgment:
			state = o.judgment(r)
		}
	}
	r.id.State = state
	if state == FellBack {
		r.id.Result = Fallback()
		o.metrics.RecordFallback()
	}
	return r.id
}

func (o *Orchestrator) candidates(r *run) State {
	text, elapsed, err := o.call(r, classifier.PhaseCandidates, CandidatesPrompt(r.context))
	if err != nil {
		r.id.Warnings = append(r.id.Warnings, err)
		r.log.Warn("candidate phase failed, judging without shortlist", logger.Error(err))
		return AwaitingJudgment
	}

	set, ok := ParseCandidates(text).Get()
	outcome := metrics.OutcomeParsed
	if !ok {
		outcome = metrics.OutcomeMalformed
		r.log.Debug("candidate answer held no JSON object", logger.Int("chars", len(text)))
	}
	o.metrics.RecordCall(classifier.PhaseCandidates, outcome, elapsed.Seconds())
	r.id.Candidates = set
	return AwaitingJudgment
}

func (o *Orchestrator) judgment(r *run) State {
	text, elapsed, err := o.call(r, classifier.PhaseJudgment, JudgmentPrompt(r.context, r.id.Candidates))
	if err != nil {
		r.id.Warnings = append(r.id.Warnings, err)
		r.log.Warn("judgment phase failed, using fallback result", logger.Error(err))
		return FellBack
	}

	result, ok := ParseJudgment(text).Get()
	if !ok {
		o.metrics.RecordCall(classifier.PhaseJudgment, metrics.OutcomeMalformed, elapsed.Seconds())
		r.log.Warn("judgment answer held no JSON object, using fallback result",
			logger.Int("chars", len(text)))
		return FellBack
	}
	o.metrics.RecordCall(classifier.PhaseJudgment, metrics.OutcomeParsed, elapsed.Seconds())
	r.id.Result = result
	return Done
}

// call performs one classifier exchange. Errors are recorded in metrics
// here; successful calls are recorded by the caller once the answer has
// been parsed.
func (o *Orchestrator) call(r *run, phase, prompt string) (string, time.Duration, error) {
	start := time.Now()
	text, err := o.classifier.Complete(r.ctx, classifier.Request{
		Phase:    phase,
		System:   SystemPrompt,
		Prompt:   prompt,
		ImageURL: r.image,
	})
	elapsed := time.Since(start)
	if err != nil {
		o.metrics.RecordCall(phase, metrics.OutcomeError, elapsed.Seconds())
		return "", elapsed, errors.New(err).
			Component(componentName).
			Category(errors.CategoryClassifier).
			Context("phase", phase).
			Timing(phase, elapsed).
			Build()
	}
	r.log.Debug("classifier answered",
		logger.String("phase", phase),
		logger.Duration("elapsed", elapsed))
	return text, elapsed, nil
}
