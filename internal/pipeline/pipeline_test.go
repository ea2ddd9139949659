package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/nao1215/anteater/internal/links"
	"github.com/nao1215/anteater/internal/model"
	"github.com/nao1215/anteater/internal/stats"
	"github.com/nao1215/anteater/internal/tokenize"
)

// mockStep is a test helper that implements the Step interface.
type mockStep struct {
	name      string
	doFunc    func(ctx context.Context, state *PageState) error
	callCount int
}

// Do implements Step.Do.
func (m *mockStep) Do(ctx context.Context, state *PageState) error {
	m.callCount++
	if m.doFunc != nil {
		return m.doFunc(ctx, state)
	}
	return nil
}

// Name implements Step.Name.
func (m *mockStep) Name() string {
	return m.name
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeFetcher serves bodies from memory. URLs without a body return 404;
// URLs in errs fail outright.
type fakeFetcher struct {
	mu     sync.Mutex
	bodies map[string]string
	errs   map[string]error
	calls  map[string]int
}

func newFakeFetcher(bodies map[string]string) *fakeFetcher {
	return &fakeFetcher{
		bodies: bodies,
		errs:   make(map[string]error),
		calls:  make(map[string]int),
	}
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (*model.Response, error) {
	f.mu.Lock()
	f.calls[url]++
	f.mu.Unlock()

	if err, ok := f.errs[url]; ok {
		return nil, err
	}
	body, ok := f.bodies[url]
	if !ok {
		return &model.Response{URL: url, StatusCode: 404}, nil
	}
	return &model.Response{
		URL:         url,
		StatusCode:  200,
		ContentType: "text/html",
		Body:        []byte(body),
	}, nil
}

// lineParser treats every body line as text, except lines starting with
// "link:" which are hrefs and a body starting with "!" which fails.
type lineParser struct{}

func (lineParser) Parse(resp *model.Response) (*model.Content, error) {
	body := string(resp.Body)
	if strings.HasPrefix(body, "!") {
		return nil, errors.New("broken markup")
	}
	c := &model.Content{}
	for _, line := range strings.Split(body, "\n") {
		if href, ok := strings.CutPrefix(line, "link:"); ok {
			c.Links = append(c.Links, strings.TrimSpace(href))
			continue
		}
		c.Lines = append(c.Lines, line)
	}
	return c, nil
}

// page builds a body of words repeated times, followed by link lines.
func page(words string, times int, hrefs ...string) string {
	var b strings.Builder
	for range times {
		b.WriteString(words)
		b.WriteString("\n")
	}
	for _, h := range hrefs {
		fmt.Fprintf(&b, "link:%s\n", h)
	}
	return b.String()
}

const (
	wordsA = "alpha bravo charlie delta echo"
	wordsB = "foxtrot golf hotel india juliet"
	wordsC = "research faculty students courses seminar"
)

// testEnv wires a full page pipeline around fakes.
type testEnv struct {
	stats     *stats.Aggregator
	fetcher   *fakeFetcher
	processor *Processor
	extractor *links.Extractor
}

func newTestEnv(bodies map[string]string) *testEnv {
	logger := quietLogger()
	agg := stats.NewAggregator()
	validator := links.NewValidator(links.WithValidatorLogger(logger))
	extractor := links.NewExtractor(links.WithExtractorLogger(logger))

	p := NewPagePipeline(Components{
		Parser:    lineParser{},
		Tokenizer: tokenize.New(),
		Stats:     agg,
		Extractor: extractor,
		Validator: validator,
		MinTokens: 100,
	}, WithLogger(logger))

	fetcher := newFakeFetcher(bodies)
	return &testEnv{
		stats:     agg,
		fetcher:   fetcher,
		processor: NewProcessor(fetcher, p, agg, WithProcessorLogger(logger)),
		extractor: extractor,
	}
}

// TestPipelineNew tests the Pipeline constructor.
func TestPipelineNew(t *testing.T) {
	t.Parallel()

	p := New()
	if p == nil {
		t.Fatal("expected non-nil pipeline")
	}
	if p.StepCount() != 0 {
		t.Errorf("expected 0 steps, got %d", p.StepCount())
	}
}

// TestPipelineAddStep tests adding steps to the pipeline.
func TestPipelineAddStep(t *testing.T) {
	t.Parallel()

	t.Run("adds multiple steps with AddSteps", func(t *testing.T) {
		t.Parallel()

		p := New()
		p.AddSteps(&mockStep{name: "step-1"}, &mockStep{name: "step-2"}, &mockStep{name: "step-3"})

		if p.StepCount() != 3 {
			t.Errorf("expected 3 steps, got %d", p.StepCount())
		}
	})

	t.Run("standard pipeline has the documented order", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(nil)
		names := env.processor.pipeline.StepNames()

		expected := []string{"status", "parse", "tokenize", "quality", "fingerprint", "aggregate", "links"}
		if len(names) != len(expected) {
			t.Fatalf("got %v, expected %v", names, expected)
		}
		for i, name := range names {
			if name != expected[i] {
				t.Errorf("step %d: got %q, expected %q", i, name, expected[i])
			}
		}
	})
}

// TestPipelineExecute tests pipeline execution.
func TestPipelineExecute(t *testing.T) {
	t.Parallel()

	t.Run("executes all steps in order", func(t *testing.T) {
		t.Parallel()

		executionOrder := make([]string, 0)

		p := New(WithLogger(quietLogger()))
		for _, name := range []string{"step-1", "step-2"} {
			p.AddStep(&mockStep{
				name: name,
				doFunc: func(_ context.Context, _ *PageState) error {
					executionOrder = append(executionOrder, name)
					return nil
				},
			})
		}

		state := NewPageState("https://ics.uci.edu/", 0)
		if err := p.Execute(context.Background(), state); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(executionOrder) != 2 || executionOrder[0] != "step-1" || executionOrder[1] != "step-2" {
			t.Errorf("wrong execution order: %v", executionOrder)
		}
		if state.Outcome != model.OutcomeAccepted {
			t.Errorf("expected accepted outcome, got %v", state.Outcome)
		}
		if state.FinishedAt.IsZero() {
			t.Error("FinishedAt should be set")
		}
	})

	t.Run("stops on first error and classifies it", func(t *testing.T) {
		t.Parallel()

		second := &mockStep{name: "should-not-run"}

		p := New(WithLogger(quietLogger()))
		p.AddStep(&mockStep{
			name: "failing-step",
			doFunc: func(_ context.Context, state *PageState) error {
				state.Links = []string{"https://ics.uci.edu/leak"}
				return fmt.Errorf("%w: test", ErrDuplicateContent)
			},
		})
		p.AddStep(second)

		state := NewPageState("https://ics.uci.edu/", 0)
		err := p.Execute(context.Background(), state)

		if !errors.Is(err, ErrDuplicateContent) {
			t.Errorf("expected ErrDuplicateContent, got %v", err)
		}
		if second.callCount != 0 {
			t.Error("second step should not have been called")
		}
		if state.Outcome != model.OutcomeDuplicate {
			t.Errorf("expected duplicate outcome, got %v", state.Outcome)
		}
		if len(state.Links) != 0 {
			t.Errorf("failed page should have no links, got %v", state.Links)
		}
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		step := &mockStep{name: "should-not-run"}
		p := New(WithLogger(quietLogger()))
		p.AddStep(step)

		state := NewPageState("https://ics.uci.edu/", 0)
		err := p.Execute(ctx, state)

		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if step.callCount != 0 {
			t.Error("step should not have been called")
		}
		if !state.Cancelled {
			t.Error("expected the page to be marked cancelled")
		}
	})
}

// TestClassify tests mapping of errors to outcomes.
func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want model.Outcome
	}{
		{nil, model.OutcomeAccepted},
		{fmt.Errorf("wrapped: %w", ErrFetchFailure), model.OutcomeFetchFailure},
		{ErrParseFailure, model.OutcomeParseFailure},
		{fmt.Errorf("%w: 12 tokens", ErrLowQuality), model.OutcomeLowQuality},
		{ErrDuplicateContent, model.OutcomeDuplicate},
		{errors.New("something else"), model.OutcomeParseFailure},
	}

	for _, tt := range tests {
		if got := Classify(tt.err); got != tt.want {
			t.Errorf("Classify(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

// TestPageStateRecord tests conversion into a page record.
func TestPageStateRecord(t *testing.T) {
	t.Parallel()

	env := newTestEnv(map[string]string{
		"https://www.ics.uci.edu/a": page(wordsA, 25, "/b"),
	})
	state := env.processor.Process(context.Background(), "https://www.ics.uci.edu/a", 2)

	rec := state.Record()
	if rec.URL != "https://www.ics.uci.edu/a" || rec.StatusCode != 200 || rec.Depth != 2 {
		t.Errorf("unexpected record: %+v", rec)
	}
	if rec.TokenCount != 125 || rec.Links != 1 {
		t.Errorf("unexpected counts: %+v", rec)
	}
	if rec.Fingerprint != "0000000005896b3a" {
		t.Errorf("Fingerprint = %q", rec.Fingerprint)
	}
	if len(rec.Checksum) != 64 {
		t.Errorf("Checksum = %q, want 64 hex digits", rec.Checksum)
	}
	if rec.Outcome != model.OutcomeAccepted || rec.Error != "" || rec.FinalURL != "" {
		t.Errorf("unexpected outcome fields: %+v", rec)
	}
}
