package pipeline

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/nao1215/anteater/internal/links"
	"github.com/nao1215/anteater/internal/simhash"
	"github.com/nao1215/anteater/internal/stats"
	"github.com/nao1215/anteater/internal/tokenize"
	"golang.org/x/crypto/blake2b"
)

// DefaultMinTokens is the token count below which a page is low quality.
const DefaultMinTokens = 100

// StatusStep rejects every response whose status is not 200, and responses
// redirected to a URL the validator refuses.
type StatusStep struct {
	validator *links.Validator
}

// NewStatusStep creates a StatusStep. A nil validator skips the redirect
// check.
func NewStatusStep(validator *links.Validator) *StatusStep {
	return &StatusStep{validator: validator}
}

// Name returns the step name.
func (s *StatusStep) Name() string { return "status" }

// Do implements Step.
func (s *StatusStep) Do(_ context.Context, state *PageState) error {
	if state.Response == nil {
		return fmt.Errorf("%w: no response", ErrFetchFailure)
	}
	if !state.Response.OK() {
		return fmt.Errorf("%w: status %d", ErrFetchFailure, state.Response.StatusCode)
	}
	final := state.Response.FinalURL
	if s.validator != nil && final != "" && final != state.URL {
		if err := s.validator.Validate(final); err != nil {
			return fmt.Errorf("%w: redirected to %s: %w", ErrFetchFailure, final, err)
		}
	}
	return nil
}

// ParseStep extracts content from the response. Every page reaching this
// step counts as parsed.
type ParseStep struct {
	parser ContentParser
	stats  *stats.Aggregator
}

// NewParseStep creates a ParseStep.
func NewParseStep(parser ContentParser, agg *stats.Aggregator) *ParseStep {
	return &ParseStep{parser: parser, stats: agg}
}

// Name returns the step name.
func (s *ParseStep) Name() string { return "parse" }

// Do implements Step.
func (s *ParseStep) Do(_ context.Context, state *PageState) error {
	s.stats.RecordParsed()

	content, err := s.parser.Parse(state.Response)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrParseFailure, err)
	}
	state.Content = content
	return nil
}

// TokenizeStep tokenizes the page text and builds its frequency table.
type TokenizeStep struct {
	tokenizer *tokenize.Tokenizer
}

// NewTokenizeStep creates a TokenizeStep.
func NewTokenizeStep(t *tokenize.Tokenizer) *TokenizeStep {
	return &TokenizeStep{tokenizer: t}
}

// Name returns the step name.
func (s *TokenizeStep) Name() string { return "tokenize" }

// Do implements Step.
func (s *TokenizeStep) Do(_ context.Context, state *PageState) error {
	state.Tokens = s.tokenizer.Tokenize(state.Content.Lines)
	state.Table = s.tokenizer.Frequencies(state.Tokens)
	return nil
}

// QualityStep rejects pages with fewer than minTokens tokens, before they
// can reach the fingerprint store.
type QualityStep struct {
	minTokens int
}

// NewQualityStep creates a QualityStep. Non-positive values use
// DefaultMinTokens.
func NewQualityStep(minTokens int) *QualityStep {
	if minTokens <= 0 {
		minTokens = DefaultMinTokens
	}
	return &QualityStep{minTokens: minTokens}
}

// Name returns the step name.
func (s *QualityStep) Name() string { return "quality" }

// Do implements Step.
func (s *QualityStep) Do(_ context.Context, state *PageState) error {
	if n := len(state.Tokens); n < s.minTokens {
		return fmt.Errorf("%w: %d tokens, minimum %d", ErrLowQuality, n, s.minTokens)
	}
	return nil
}

// FingerprintStep computes the simhash and checksum of a page and rejects it
// when a near-duplicate was accepted before.
type FingerprintStep struct {
	stats *stats.Aggregator
}

// NewFingerprintStep creates a FingerprintStep.
func NewFingerprintStep(agg *stats.Aggregator) *FingerprintStep {
	return &FingerprintStep{stats: agg}
}

// Name returns the step name.
func (s *FingerprintStep) Name() string { return "fingerprint" }

// Do implements Step.
func (s *FingerprintStep) Do(_ context.Context, state *PageState) error {
	sum := blake2b.Sum256(state.Response.Body)
	state.Checksum = hex.EncodeToString(sum[:])

	state.Fingerprint = simhash.Compute(state.Table)
	state.fingerprinted = true

	if s.stats.CheckFingerprint(state.Fingerprint) {
		return fmt.Errorf("%w: fingerprint %s", ErrDuplicateContent, state.Fingerprint)
	}
	return nil
}

// AggregateStep adds an accepted page to the crawl statistics. Frequencies
// and the subdomain count are only added the first time a URL is seen.
type AggregateStep struct {
	stats *stats.Aggregator
}

// NewAggregateStep creates an AggregateStep.
func NewAggregateStep(agg *stats.Aggregator) *AggregateStep {
	return &AggregateStep{stats: agg}
}

// Name returns the step name.
func (s *AggregateStep) Name() string { return "aggregate" }

// Do implements Step.
func (s *AggregateStep) Do(_ context.Context, state *PageState) error {
	if s.stats.RecordPage(state.URL, len(state.Tokens)) {
		s.stats.MergeFrequencies(state.Table)
		s.stats.RecordSubdomain(state.URL)
	}
	return nil
}

// LinkStep extracts outbound links and keeps the valid ones.
type LinkStep struct {
	extractor *links.Extractor
	validator *links.Validator
	logger    *slog.Logger
}

// NewLinkStep creates a LinkStep.
func NewLinkStep(extractor *links.Extractor, validator *links.Validator, logger *slog.Logger) *LinkStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &LinkStep{extractor: extractor, validator: validator, logger: logger}
}

// Name returns the step name.
func (s *LinkStep) Name() string { return "links" }

// Do implements Step.
func (s *LinkStep) Do(ctx context.Context, state *PageState) error {
	base := state.Response.EffectiveURL()
	candidates := s.extractor.ExtractLinks(ctx, base, state.Content.Links)
	state.Links = s.validator.Filter(candidates)

	s.logger.Debug("links extracted",
		"url", state.URL,
		"hrefs", len(state.Content.Links),
		"candidates", len(candidates),
		"accepted", len(state.Links),
	)
	return nil
}

// Components are the collaborators of the standard page pipeline.
type Components struct {
	Parser    ContentParser
	Tokenizer *tokenize.Tokenizer
	Stats     *stats.Aggregator
	Extractor *links.Extractor
	Validator *links.Validator
	MinTokens int
}

// NewPagePipeline builds the standard pipeline: status, parse, tokenize,
// quality, fingerprint, aggregate, links.
func NewPagePipeline(c Components, opts ...Option) *Pipeline {
	p := New(opts...)
	if c.Tokenizer == nil {
		c.Tokenizer = tokenize.New()
	}
	p.AddSteps(
		NewStatusStep(c.Validator),
		NewParseStep(c.Parser, c.Stats),
		NewTokenizeStep(c.Tokenizer),
		NewQualityStep(c.MinTokens),
		NewFingerprintStep(c.Stats),
		NewAggregateStep(c.Stats),
		NewLinkStep(c.Extractor, c.Validator, p.logger),
	)
	return p
}
