// Package pipeline wires the grading stages together: binarize, detect
// bubbles, map them onto the sheet structure, evaluate fills, grade against
// the key and cross-check the handwritten identity digits.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/disintegration/imaging"

	"github.com/raghugoddumuri246-ai/OmrSheet-Evaluation/internal/answerkey"
	"github.com/raghugoddumuri246-ai/OmrSheet-Evaluation/internal/detector"
	"github.com/raghugoddumuri246-ai/OmrSheet-Evaluation/internal/digits"
	"github.com/raghugoddumuri246-ai/OmrSheet-Evaluation/internal/evaluator"
	"github.com/raghugoddumuri246-ai/OmrSheet-Evaluation/internal/grading"
	"github.com/raghugoddumuri246-ai/OmrSheet-Evaluation/internal/mapper"
	"github.com/raghugoddumuri246-ai/OmrSheet-Evaluation/internal/pdfimg"
	"github.com/raghugoddumuri246-ai/OmrSheet-Evaluation/internal/preprocess"
	"github.com/raghugoddumuri246-ai/OmrSheet-Evaluation/internal/template"
	"github.com/raghugoddumuri246-ai/OmrSheet-Evaluation/internal/utils"
)

// Config collects the per-stage tuning knobs plus pipeline-level switches.
type Config struct {
	Detector  detector.Config  `mapstructure:"detector" yaml:"detector" json:"detector"`
	Mapper    mapper.Config    `mapstructure:"mapper" yaml:"mapper" json:"mapper"`
	Evaluator evaluator.Config `mapstructure:"evaluator" yaml:"evaluator" json:"evaluator"`
	Digits    digits.Config    `mapstructure:"digits" yaml:"digits" json:"digits"`

	// RecognizeDigits enables the handwritten identity cross-check. The
	// bubbled roll number is graded either way.
	RecognizeDigits bool `mapstructure:"recognize_digits" yaml:"recognize_digits" json:"recognize_digits"`
}

// DefaultConfig returns the pipeline configuration with stage defaults.
func DefaultConfig() Config {
	return Config{
		Detector:        detector.DefaultConfig(),
		Mapper:          mapper.DefaultConfig(),
		Evaluator:       evaluator.DefaultConfig(),
		Digits:          digits.DefaultConfig(),
		RecognizeDigits: true,
	}
}

// Builder assembles a Pipeline step by step.
type Builder struct {
	cfg     Config
	tpl     *template.Template
	key     *answerkey.Key
	backend digits.Backend
}

// NewBuilder creates a builder with default stage configuration.
func NewBuilder() *Builder { return &Builder{cfg: DefaultConfig()} }

// WithConfig replaces the whole stage configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.cfg = cfg
	return b
}

// WithTemplate sets the sheet template. Required.
func (b *Builder) WithTemplate(tpl *template.Template) *Builder {
	b.tpl = tpl
	return b
}

// WithKey sets the answer key. Required.
func (b *Builder) WithKey(key *answerkey.Key) *Builder {
	b.key = key
	return b
}

// WithBackend overrides the digit recognition backend; mainly for tests.
func (b *Builder) WithBackend(backend digits.Backend) *Builder {
	b.backend = backend
	return b
}

// WithDigitRecognition toggles the handwritten identity cross-check.
func (b *Builder) WithDigitRecognition(enabled bool) *Builder {
	b.cfg.RecognizeDigits = enabled
	return b
}

// Config returns a copy of the current config.
func (b *Builder) Config() Config { return b.cfg }

// Validate checks that the builder holds everything a pipeline needs.
func (b *Builder) Validate() error {
	if b.tpl == nil {
		return errors.New("sheet template is required")
	}
	if err := b.tpl.Validate(); err != nil {
		return fmt.Errorf("invalid template: %w", err)
	}
	if b.key == nil {
		return errors.New("answer key is required")
	}
	if len(b.key.Answers) == 0 {
		return errors.New("answer key is empty")
	}
	return nil
}

// Pipeline grades sheet images. Safe for sequential reuse across sheets; the
// recognition backend is the only stateful component.
type Pipeline struct {
	cfg     Config
	tpl     *template.Template
	key     *answerkey.Key
	backend digits.Backend
}

// Build initializes the pipeline. When digit recognition is enabled and no
// backend was supplied, the compiled-in default backend is used.
func (b *Builder) Build() (*Pipeline, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	p := &Pipeline{cfg: b.cfg, tpl: b.tpl, key: b.key, backend: b.backend}
	// A fill threshold declared by the sheet layout overrides the
	// evaluator's configured default.
	if t := b.tpl.BubbleStyle.FillThreshold; t > 0 {
		p.cfg.Evaluator.FillThreshold = t
	}
	if b.cfg.RecognizeDigits && p.backend == nil {
		backend, err := digits.NewBackend()
		if err != nil {
			return nil, fmt.Errorf("init digit backend: %w", err)
		}
		p.backend = backend
	}
	return p, nil
}

// Template returns the template the pipeline grades against.
func (p *Pipeline) Template() *template.Template { return p.tpl }

// Close releases the recognition backend.
func (p *Pipeline) Close() error {
	if p.backend == nil {
		return nil
	}
	return p.backend.Close()
}

// ProcessImage grades a single sheet image. Decode and binarization
// failures are fatal; everything after that degrades into warnings on
// the result, so a blank or miscalibrated sheet still yields a report.
func (p *Pipeline) ProcessImage(ctx context.Context, source string, img image.Image) (*Result, error) {
	if img == nil {
		return nil, errors.New("nil image")
	}
	start := time.Now()

	// Normalize to template coordinates once so every stage, including
	// digit segmentation, shares the same geometry.
	w, h := p.tpl.PageDimensions[0], p.tpl.PageDimensions[1]
	sheet := imaging.Resize(img, w, h, imaging.Lanczos)

	bin, err := preprocess.Binarize(sheet, p.tpl)
	if err != nil {
		return nil, fmt.Errorf("binarize %s: %w", source, err)
	}

	res := &Result{Source: source, Sheet: sheet}

	cands, err := detector.Detect(bin, p.tpl.Radius(), p.cfg.Detector)
	if err != nil {
		if !errors.Is(err, detector.ErrNoCandidates) {
			return nil, fmt.Errorf("detect bubbles in %s: %w", source, err)
		}
		// No bubble-shaped ink at all points at a blank page or a
		// calibration problem. Grade what is there, which is nothing.
		res.warn(WarnLayout, "no bubble candidates detected")
	}
	slog.Debug("bubbles detected", "source", source, "count", len(cands))

	layout, err := mapper.Map(cands, p.tpl, p.cfg.Mapper)
	if err != nil {
		return nil, fmt.Errorf("map bubbles in %s: %w", source, err)
	}
	for _, warning := range layout.Warnings {
		res.warn(WarnLayout, "%s", warning)
	}

	marks := evaluator.EvaluateAll(bin, layout.Bubbles, p.cfg.Evaluator)
	res.Marks = marks

	res.Questions = grading.GradeQuestions(marks, p.key)
	res.Summary = grading.Summarize(res.Questions)
	for _, q := range res.Questions {
		if q.Status == grading.StatusInvalidMultiple {
			res.warn(WarnAmbiguousMarks, "question %d: %s", q.Number, q.Reason)
		}
	}

	res.BookletCode, res.BookletValid = grading.BookletCode(marks)
	if !res.BookletValid {
		res.warn(WarnAmbiguousMarks, "booklet code has multiple marks: %q", res.BookletCode)
	}

	recognized := p.recognizeIdentity(ctx, sheet, res)

	res.Identity = grading.ReconcileIdentity(marks, recognized)
	if !res.Identity.Valid {
		res.warn(WarnIdentityInvalid, "%s", res.Identity.Reason)
	} else if res.Identity.Mismatch {
		res.warn(WarnIdentityMismatch, "%s", res.Identity.Reason)
	}

	res.Processing = time.Since(start)
	return res, nil
}

// recognizeIdentity runs segmentation and recognition, downgrading every
// failure to a warning. Returns the recognized digit string, or "" when the
// cross-check could not run.
func (p *Pipeline) recognizeIdentity(ctx context.Context, sheet image.Image, res *Result) string {
	if !p.cfg.RecognizeDigits || p.tpl.HeaderBlocks.RollNumber == nil {
		return ""
	}

	strip, err := digits.Segment(sheet, p.tpl, p.cfg.Digits)
	if err != nil {
		res.warn(WarnRecognitionFailed, "identity strip segmentation failed: %v", err)
		return ""
	}
	res.Strip = strip

	rec, err := digits.Recognize(ctx, strip, p.backend)
	if err != nil {
		if errors.Is(err, digits.ErrNoBackend) {
			res.warn(WarnRecognitionUnavailable,
				"no digit recognition backend compiled in, skipping handwriting cross-check")
		} else {
			res.warn(WarnRecognitionFailed, "digit recognition failed: %v", err)
		}
		return ""
	}
	if rec.Failures > 0 {
		res.warn(WarnRecognitionFailed, "%d digit cell(s) unreadable", rec.Failures)
	}
	return rec.Value
}

// ProcessFile grades an image or PDF file. A PDF yields one result per page
// carrying an embedded scan.
func (p *Pipeline) ProcessFile(ctx context.Context, path string) ([]*Result, error) {
	if pdfimg.IsPDF(path) {
		return p.processPDF(ctx, path)
	}

	img, _, err := utils.LoadImage(path)
	if err != nil {
		return nil, err
	}
	res, err := p.ProcessImage(ctx, path, img)
	if err != nil {
		return nil, err
	}
	return []*Result{res}, nil
}

func (p *Pipeline) processPDF(ctx context.Context, path string) ([]*Result, error) {
	pages, err := pdfimg.ExtractPages(path, "")
	if err != nil {
		return nil, err
	}

	results := make([]*Result, 0, len(pages))
	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := p.ProcessImage(ctx, fmt.Sprintf("%s#page=%d", path, page.Number), page.Image)
		if err != nil {
			return results, fmt.Errorf("page %d: %w", page.Number, err)
		}
		res.Page = page.Number
		results = append(results, res)
	}
	return results, nil
}
