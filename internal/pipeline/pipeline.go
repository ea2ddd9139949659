package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/nao1215/anteater/internal/model"
	"github.com/nao1215/anteater/internal/simhash"
	"github.com/nao1215/anteater/internal/tokenize"
)

// Fetcher retrieves a URL. Implementations return a Response for any HTTP
// status and an error only when no response was obtained.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*model.Response, error)
}

// ContentParser extracts text lines, title and raw hrefs from a response.
type ContentParser interface {
	Parse(resp *model.Response) (*model.Content, error)
}

// PageState carries one page through the pipeline. Steps read what earlier
// steps filled in and add their own results.
type PageState struct {
	// URL is the requested URL.
	URL string

	// Depth is the number of hops from the nearest seed.
	Depth int

	// Response is set by the fetcher.
	Response *model.Response

	// Content is set by ParseStep.
	Content *model.Content

	// Tokens are all tokens of the page, stopwords included.
	Tokens []string

	// Table is the frequency table, stopwords removed when configured.
	Table tokenize.Table

	// Fingerprint and Checksum are set by FingerprintStep.
	Fingerprint simhash.Fingerprint
	Checksum    string

	fingerprinted bool

	// Links are the accepted outbound URLs, set by LinkStep.
	Links []string

	// Outcome is how processing ended. Meaningless when Cancelled is set.
	Outcome model.Outcome

	// Cancelled is set when the context ended before the page finished.
	// Such pages are neither counted nor recorded.
	Cancelled bool

	// Err is the error that stopped the page, if any.
	Err error

	// FinishedAt is when processing ended.
	FinishedAt time.Time
}

// NewPageState creates the state for url at depth.
func NewPageState(url string, depth int) *PageState {
	return &PageState{
		URL:   url,
		Depth: depth,
		Links: []string{},
	}
}

// Record summarizes the state for storage.
func (s *PageState) Record() *model.PageRecord {
	rec := &model.PageRecord{
		URL:        s.URL,
		TokenCount: len(s.Tokens),
		Checksum:   s.Checksum,
		Outcome:    s.Outcome,
		Links:      len(s.Links),
		Depth:      s.Depth,
		CrawledAt:  s.FinishedAt,
	}
	if s.Response != nil {
		rec.StatusCode = s.Response.StatusCode
		if s.Response.FinalURL != s.URL {
			rec.FinalURL = s.Response.FinalURL
		}
	}
	if s.Content != nil {
		rec.Title = s.Content.Title
	}
	if s.fingerprinted {
		rec.Fingerprint = s.Fingerprint.String()
	}
	if s.Err != nil {
		rec.Error = s.Err.Error()
	}
	return rec
}

// cancel stops the page because its context ended.
func (s *PageState) cancel(err error) {
	s.Err = err
	s.Cancelled = true
	s.Links = []string{}
}

// fail stops the page with err.
func (s *PageState) fail(err error) {
	s.Err = err
	s.Outcome = Classify(err)
	s.Links = []string{}
}

// Step is one stage of page processing.
type Step interface {
	// Do runs the step. A returned error stops the page.
	Do(ctx context.Context, state *PageState) error

	// Name returns the step's name for logging.
	Name() string
}

// Pipeline runs steps in order until one fails.
type Pipeline struct {
	steps  []Step
	logger *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates an empty Pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends a step.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends several steps.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs the steps on state. Cancellation is checked before each step.
// The first step error stops the page: state.Outcome and state.Err are set,
// state.Links is emptied and the error is returned. A cancelled context sets
// state.Cancelled instead of an outcome.
func (p *Pipeline) Execute(ctx context.Context, state *PageState) error {
	defer func() { state.FinishedAt = time.Now() }()

	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"url", state.URL,
				"reason", err,
			)
			state.cancel(err)
			return err
		}

		if err := step.Do(ctx, state); err != nil {
			if ctx.Err() != nil && isContextErr(err) {
				state.cancel(err)
				return err
			}
			state.fail(err)
			p.logger.Debug("page rejected",
				"step", step.Name(),
				"url", state.URL,
				"outcome", state.Outcome.String(),
				"error", err,
			)
			return err
		}
	}

	state.Outcome = model.OutcomeAccepted
	return nil
}

// StepCount returns the number of steps.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the step names in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
