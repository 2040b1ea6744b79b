// Package extraction runs the CV extraction pipeline: generative attempts with
// linear backoff, then the pattern fallback, then an error record.
package extraction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/cv-extractor/internal/ai"
	"github.com/spigell/cv-extractor/internal/cv"
	"github.com/spigell/cv-extractor/internal/document"
	"github.com/spigell/cv-extractor/internal/fallback"
	"github.com/spigell/cv-extractor/internal/logger"
	"github.com/spigell/cv-extractor/internal/utils"
)

const (
	DefaultMaxAttempts    = 3
	DefaultBaseDelay      = time.Second
	DefaultAttemptTimeout = 60 * time.Second
	DefaultMaxLogLength   = 200
)

// Strategy names the step that produced a record.
type Strategy string

const (
	StrategyGenerative Strategy = "generative"
	StrategyPattern    Strategy = "pattern"
	StrategyNone       Strategy = "none"
)

var errNoGenerator = errors.New("generative backend is not configured")

// Options configures a Pipeline. Zero values select the defaults.
type Options struct {
	Generator ai.Generator
	Settings  *ai.Settings

	// Provider and Model only label log entries.
	Provider string
	Model    string

	MaxAttempts    int
	BaseDelay      time.Duration
	AttemptTimeout time.Duration
	MaxLogLength   int

	Logger *zap.Logger
}

// Request is one uploaded document plus the identifiers the caller passes through.
type Request struct {
	Document    []byte
	AppliedJob  string
	RequesterID int64
	// Source labels the document, usually its file name.
	Source string
}

// Result is the outcome of one extraction run. Record is always populated.
type Result struct {
	ID          string    `json:"id"`
	Source      string    `json:"source,omitempty"`
	AppliedJob  string    `json:"appliedJob,omitempty"`
	RequesterID int64     `json:"requesterId,omitempty"`
	Format      string    `json:"format,omitempty"`
	Pages       int       `json:"pages,omitempty"`
	Strategy    Strategy  `json:"strategy"`
	Attempts    int       `json:"attempts"`
	Warnings    []string  `json:"warnings,omitempty"`
	Record      cv.Record `json:"record"`
}

// Pipeline holds no per-request state and is safe for concurrent use.
type Pipeline struct {
	generator      ai.Generator
	provider       string
	model          string
	settings       ai.Settings
	maxAttempts    int
	baseDelay      time.Duration
	attemptTimeout time.Duration
	maxLogLength   int
	logger         *zap.Logger

	wait     func(ctx context.Context, d time.Duration) error
	fallback func(text string) cv.Candidate
	newID    func() string
}

// attempt is the outcome of one generative try: a candidate or the reason it failed.
type attempt struct {
	candidate cv.Candidate
	warnings  []string
	err       error
}

func New(opts Options) *Pipeline {
	p := &Pipeline{
		generator:      opts.Generator,
		provider:       opts.Provider,
		model:          opts.Model,
		settings:       ai.DefaultSettings(),
		maxAttempts:    opts.MaxAttempts,
		baseDelay:      opts.BaseDelay,
		attemptTimeout: opts.AttemptTimeout,
		maxLogLength:   opts.MaxLogLength,
		logger:         logger.WithFields(opts.Logger),
		wait:           utils.WaitFor,
		fallback:       fallback.Extract,
		newID:          uuid.NewString,
	}

	if opts.Settings != nil {
		p.settings = *opts.Settings
	}
	if p.maxAttempts <= 0 {
		p.maxAttempts = DefaultMaxAttempts
	}
	if p.baseDelay <= 0 {
		p.baseDelay = DefaultBaseDelay
	}
	if p.attemptTimeout <= 0 {
		p.attemptTimeout = DefaultAttemptTimeout
	}
	if p.maxLogLength <= 0 {
		p.maxLogLength = DefaultMaxLogLength
	}

	return p
}

// Process extracts the document text and interprets it. Only text extraction
// failures are returned as errors; every other outcome is a Result.
func (p *Pipeline) Process(ctx context.Context, req Request) (*Result, error) {
	text, err := document.Extract(ctx, req.Document)
	if err != nil {
		return nil, fmt.Errorf("extract text: %w", err)
	}

	res := p.interpret(ctx, text.Content, req)
	res.Format = string(text.Format)
	res.Pages = text.Pages

	return res, nil
}

// Interpret runs the extraction strategies over already extracted text.
func (p *Pipeline) Interpret(ctx context.Context, text string) *Result {
	return p.interpret(ctx, text, Request{})
}

func (p *Pipeline) interpret(ctx context.Context, text string, req Request) *Result {
	res := &Result{
		ID:          p.newID(),
		Source:      req.Source,
		AppliedJob:  req.AppliedJob,
		RequesterID: req.RequesterID,
	}
	log := logger.WithFields(p.logger, logger.RequestFields(res.ID, req.AppliedJob)...)
	log.Info("interpreting document", zap.Int("text_length", len(text)))

	lastErr := p.generate(ctx, text, res, log)
	if lastErr == nil {
		log.Info("generative extraction succeeded",
			zap.Int("attempts", res.Attempts),
			zap.Bool("needs_review", res.Record.NeedsReview()),
		)
		return res
	}

	log.Warn("falling back to pattern extraction", zap.Int("attempts", res.Attempts), zap.Error(lastErr))
	candidate := p.fallback(text)
	if candidate.HasName() {
		res.Strategy = StrategyPattern
		res.Record = candidate.Record(text)
		res.Warnings = append(res.Warnings, "generative extraction failed: "+lastErr.Error())
		log.Info("pattern extraction succeeded",
			zap.Int("skills", len(res.Record.TechnicalSkills)),
			zap.Int("educations", len(res.Record.Educations)),
			zap.Int("experiences", len(res.Record.ProfessionalExperiences)),
		)
		return res
	}

	res.Strategy = StrategyNone
	res.Record = cv.ErrorRecord(text, lastErr.Error())
	log.Error("all extraction strategies failed", zap.Error(lastErr))

	return res
}

// generate runs the bounded retry loop. On success it fills res and returns nil;
// otherwise it returns the last observed error.
func (p *Pipeline) generate(ctx context.Context, text string, res *Result, log *zap.Logger) error {
	if p.generator == nil {
		return errNoGenerator
	}

	log = logger.WithCommonFields(log, p.provider, p.model)
	prompt := BuildPrompt(text)

	var lastErr error
	for n := 1; n <= p.maxAttempts; n++ {
		if n > 1 {
			delay := time.Duration(n-1) * p.baseDelay
			log.Info("waiting before next attempt", zap.Int("attempt", n), zap.Duration("backoff", delay))
			if err := p.wait(ctx, delay); err != nil {
				return fmt.Errorf("stopped before attempt %d: %w (last error: %v)", n, err, lastErr)
			}
		}
		if err := ctx.Err(); err != nil {
			if lastErr == nil {
				return fmt.Errorf("stopped before attempt %d: %w", n, err)
			}
			return fmt.Errorf("stopped before attempt %d: %w (last error: %v)", n, err, lastErr)
		}

		res.Attempts = n
		out := p.try(ctx, prompt, log.With(zap.Int("attempt", n)))
		if out.err == nil {
			res.Strategy = StrategyGenerative
			res.Record = out.candidate.Record(text)
			res.Warnings = append(res.Warnings, out.warnings...)
			return nil
		}

		lastErr = out.err
		log.Warn("generative attempt failed",
			zap.Int("attempt", n),
			zap.Int("max_attempts", p.maxAttempts),
			zap.Error(out.err),
		)
	}

	return lastErr
}

// try runs generate, sanitize, decode and normalize once. Any failure fails the attempt.
func (p *Pipeline) try(ctx context.Context, prompt string, log *zap.Logger) attempt {
	ctx, cancel := context.WithTimeout(ctx, p.attemptTimeout)
	defer cancel()

	raw, err := p.generator.Generate(ctx, prompt, p.settings)
	if err != nil {
		return attempt{err: fmt.Errorf("%w: %w", ErrGeneration, err)}
	}
	log.Debug("generative response received",
		zap.Int("response_length", len(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, p.maxLogLength)),
	)

	payload, err := Sanitize(raw)
	if err != nil {
		return attempt{err: err}
	}

	value, err := cv.Decode([]byte(payload))
	if err != nil {
		return attempt{err: fmt.Errorf("%w: %w", ErrDecode, err)}
	}

	var warnings []string
	if err := cv.CheckResponse(value); err != nil {
		log.Warn("response deviates from contract", zap.Error(err))
		warnings = append(warnings, err.Error())
	}

	candidate := cv.Normalize(value)
	for _, dropped := range candidate.Dropped {
		warnings = append(warnings, "ignored "+dropped)
	}
	if len(candidate.Dropped) > 0 {
		log.Debug("normalizer ignored input", zap.Strings("dropped", candidate.Dropped))
	}

	return attempt{candidate: candidate, warnings: warnings}
}
