// Package probe runs every analyzer over a document set and collects the
// per-page and per-document records of a run.
package probe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/doc-readiness/constants"
	"github.com/joseph-ayodele/doc-readiness/internal/categorize"
	"github.com/joseph-ayodele/doc-readiness/internal/common"
	"github.com/joseph-ayodele/doc-readiness/internal/darkness"
	"github.com/joseph-ayodele/doc-readiness/internal/doctype"
	"github.com/joseph-ayodele/doc-readiness/internal/features"
	"github.com/joseph-ayodele/doc-readiness/internal/ingest"
	"github.com/joseph-ayodele/doc-readiness/internal/metrics"
	"github.com/joseph-ayodele/doc-readiness/internal/pdfio"
	"github.com/joseph-ayodele/doc-readiness/internal/quality"
	"github.com/joseph-ayodele/doc-readiness/internal/raster"
	"github.com/joseph-ayodele/doc-readiness/internal/readiness"
)

// Stage names used in notes and the run error log.
const (
	StageText     = "text"
	StageDarkness = "darkness"
	StageFeatures = "features"
	StageModel    = "model"
	StageTimeout  = "timeout"
)

// PageRecord is the per-page output.
type PageRecord struct {
	DocID         string            `json:"doc_id"`
	PageNum       int               `json:"page_num"`
	TextCharCount int               `json:"text_char_count"`
	HasText       bool              `json:"has_text"`
	Darkness      *darkness.Metrics `json:"darkness,omitempty"`
	Note          string            `json:"note,omitempty"`
}

// StageError is one failure met while processing a document.
type StageError struct {
	Stage   string `json:"stage"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// DocumentResult is the per-document output.
type DocumentResult struct {
	DocID          string                `json:"doc_id"`
	RelPath        string                `json:"rel_path"`
	Path           string                `json:"resolved_file_path"`
	TopLevelFolder string                `json:"top_level_folder"`
	Status         constants.DocStatus   `json:"status"`
	Readiness      readiness.Document    `json:"readiness"`
	Darkness       darkness.Summary      `json:"darkness"`
	Quality        quality.Stats         `json:"quality"`
	Content        categorize.Prediction `json:"content"`
	Features       *features.Vector      `json:"features,omitempty"`
	Model          *doctype.Prediction   `json:"model,omitempty"`
	Decision       doctype.Decision      `json:"decision"`
	Pages          []PageRecord          `json:"pages"`
	Notes          []string              `json:"notes,omitempty"`
	Errors         []StageError          `json:"errors,omitempty"`
	Elapsed        time.Duration         `json:"elapsed"`
}

// NotesString joins the notes the way they are stored.
func (r DocumentResult) NotesString() string {
	return strings.Join(r.Notes, "; ")
}

func (r *DocumentResult) note(stage, msg string) {
	r.Notes = append(r.Notes, stage+": "+msg)
}

func (r *DocumentResult) fail(stage string, err error) {
	r.Errors = append(r.Errors, StageError{Stage: stage, Code: common.ErrorCode(err), Message: err.Error()})
	r.note(stage, err.Error())
}

// Deps are the collaborators a Processor calls. Text is required; a nil
// Renderer disables darkness and raster features; a nil Classifier
// leaves the decision to truth and heuristic.
type Deps struct {
	Text       pdfio.PageTextSource
	Renderer   pdfio.PageRenderer
	Inspector  pdfio.StructureSource
	Detector   quality.LanguageDetector
	Classifier *doctype.Classifier
	Metrics    *metrics.Metrics
}

// Processor runs all analyzers for one document.
type Processor struct {
	cfg        Config
	text       pdfio.PageTextSource
	renderer   pdfio.PageRenderer
	inspector  pdfio.StructureSource
	readiness  *readiness.Classifier
	darkness   *darkness.Analyzer
	quality    *quality.Scorer
	extractor  *features.Extractor
	classifier *doctype.Classifier
	resolver   *doctype.Resolver
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

func NewProcessor(cfg Config, deps Deps, logger *slog.Logger) (*Processor, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Text == nil {
		return nil, common.ConfigError("text source is required")
	}
	rc, err := readiness.NewClassifier(cfg.Readiness)
	if err != nil {
		return nil, err
	}
	da, err := darkness.NewAnalyzer(cfg.Darkness)
	if err != nil {
		return nil, err
	}
	qs, err := quality.NewScorer(cfg.Quality, deps.Detector, logger)
	if err != nil {
		return nil, err
	}
	var renderer pdfio.PageRenderer
	if deps.Renderer != nil {
		renderer = meteredRenderer{inner: deps.Renderer, metrics: deps.Metrics}
	}
	fx, err := features.NewExtractor(cfg.Features, renderer, deps.Inspector, logger)
	if err != nil {
		return nil, err
	}
	return &Processor{
		cfg:        cfg,
		text:       deps.Text,
		renderer:   renderer,
		inspector:  deps.Inspector,
		readiness:  rc,
		darkness:   da,
		quality:    qs,
		extractor:  fx,
		classifier: deps.Classifier,
		resolver:   doctype.NewResolver(cfg.Model),
		metrics:    deps.Metrics,
		logger:     logger,
	}, nil
}

// ProcessDocument never fails as a whole: every stage failure degrades to
// missing values plus a note, and the caller's context bounds the time
// spent.
func (p *Processor) ProcessDocument(ctx context.Context, c ingest.Candidate, truth string) DocumentResult {
	start := time.Now()
	ctx = common.WithDocID(ctx, c.DocID)
	logger := p.logger.With("doc_id", c.DocID, "rel_path", c.RelPath)

	res := DocumentResult{
		DocID:          c.DocID,
		RelPath:        c.RelPath,
		Path:           c.Path,
		TopLevelFolder: c.TopLevelFolder,
	}

	texts, textErr := p.text.PageTexts(ctx, c.Path, p.cfg.Run.MaxPages)
	if textErr != nil {
		logger.Warn("text extraction failed", "error", textErr)
		res.fail(StageText, textErr)
		texts = nil
	}
	res.Readiness = p.readiness.Document(texts)
	res.Quality = p.quality.Score(texts, res.Readiness.PagesWithText)
	res.Content = categorize.Categorize(texts)

	pageCount := p.pageCount(c.Path, res.Readiness.PageCount)
	var dark []*darkness.Metrics
	if !p.cfg.Darkness.Skip && p.renderer != nil && pageCount > 0 {
		dark = p.analyzeDarkness(ctx, c.Path, pageCount, &res)
	}
	res.Darkness = darkness.Aggregate(dark)
	res.Pages = pageRecords(c.DocID, res.Readiness.Pages, dark)

	heuristic := constants.HeuristicLabel(res.Readiness.Classification)
	signals := doctype.NoModel(truth, string(heuristic))
	if s, ok := p.sampling(); ok {
		p.runModel(ctx, c, s, pageCount, textErr == nil, &res, &signals)
	}
	res.Decision = p.resolver.Resolve(signals)

	if err := ctx.Err(); err != nil {
		res.fail(StageTimeout, err)
	}
	res.Status = status(res, textErr)
	res.Elapsed = time.Since(start)

	p.metrics.RecordDocument(string(res.Readiness.Classification), string(res.Status),
		string(res.Quality.Label), string(res.Content.Category), res.Darkness.PagesMostlyBlack, res.Elapsed)
	p.metrics.RecordDecision(string(res.Decision.Source), res.Decision.Final, res.Decision.ModelConfidence)
	for _, e := range res.Errors {
		p.metrics.RecordStageError(e.Stage)
	}
	logger.Info("document processed",
		"status", res.Status,
		"classification", res.Readiness.Classification,
		"quality", res.Quality.Label,
		"content_type", res.Content.Category,
		"doc_type", res.Decision.Final,
		"doc_type_source", res.Decision.Source,
		"elapsed_ms", res.Elapsed.Milliseconds())
	return res
}

// pageCount is the number of pages the page-level analyzers look at: the
// text page count, or the structure page count when text failed.
func (p *Processor) pageCount(path string, textPages int) int {
	n := textPages
	if n == 0 && p.inspector != nil {
		if st, err := p.inspector.Inspect(path); err == nil {
			n = st.PageCount
		}
	}
	if p.cfg.Run.MaxPages > 0 {
		n = min(n, p.cfg.Run.MaxPages)
	}
	return n
}

// analyzeDarkness renders each page and returns one entry per page; nil
// marks a page that could not be checked. A missing render backend stops
// the remaining pages.
func (p *Processor) analyzeDarkness(ctx context.Context, path string, pageCount int, res *DocumentResult) []*darkness.Metrics {
	out := make([]*darkness.Metrics, pageCount)
	pageErrs := make([]error, pageCount)
	var unavailable atomic.Bool

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Features.Workers)
	for i := 0; i < pageCount; i++ {
		g.Go(func() error {
			if unavailable.Load() || gctx.Err() != nil {
				return nil
			}
			gray, err := p.renderer.RenderGray(gctx, path, i, p.cfg.Darkness.RenderDPI)
			if err != nil {
				if common.IsBackendUnavailable(err) {
					unavailable.Store(true)
				}
				pageErrs[i] = err
				return nil
			}
			out[i] = p.analyzePage(gray)
			return nil
		})
	}
	_ = g.Wait()

	if unavailable.Load() {
		res.fail(StageDarkness, common.NewAppError(common.CodeBackend, "page renderer unavailable, darkness not checked", common.ErrBackendUnavailable))
		for i := range out {
			out[i] = nil
		}
		return out
	}
	for i, err := range pageErrs {
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			res.fail(StageDarkness, fmt.Errorf("page %d: %w", i+1, err))
		}
	}
	return out
}

func (p *Processor) analyzePage(g *raster.Gray) *darkness.Metrics {
	if g.Empty() {
		return nil
	}
	m := p.darkness.Analyze(g)
	return &m
}

// runModel extracts the feature vector and, when a model is loaded,
// predicts. An artifact mismatch is fatal for the prediction only.
func (p *Processor) runModel(ctx context.Context, c ingest.Candidate, s features.Sampling, pageCount int, textOK bool, res *DocumentResult, signals *doctype.Signals) {
	fr, err := p.extractor.Extract(ctx, features.Request{
		Path:          c.Path,
		RelPath:       c.RelPath,
		PageCountHint: pageCount,
		Probe:         probeMetrics(res, textOK),
	}, s)
	if err != nil {
		res.fail(StageFeatures, err)
		return
	}
	for _, n := range fr.Notes {
		res.note(StageFeatures, n)
	}
	vec := fr.Vector
	res.Features = &vec

	if p.classifier == nil || !p.cfg.Model.UseModel {
		return
	}
	pred, err := p.classifier.Predict(vec)
	if err != nil {
		if errors.Is(err, common.ErrArtifactMismatch) {
			p.metrics.RecordMismatch()
		}
		res.fail(StageModel, err)
		return
	}
	res.Model = &pred
	signals.ModelLabel = string(pred.Label)
	signals.ModelConfidence = pred.Confidence
}

// probeMetrics exposes readiness and darkness scalars as features.
// Readiness values are missing when text extraction failed.
func probeMetrics(res *DocumentResult, textOK bool) *features.ProbeMetrics {
	pm := &features.ProbeMetrics{}
	if textOK {
		rd := res.Readiness
		pm.PageCount = features.Of(float64(rd.PageCount))
		pm.PagesWithText = features.Of(float64(rd.PagesWithText))
		pm.TextCoveragePct = features.Of(rd.TextCoveragePct)
		pm.AvgTextCharsPerPage = features.Of(rd.AvgTextCharsPerPage)
	}
	if res.Darkness.MostlyBlackPct != nil {
		pm.MostlyBlackPct = features.Of(*res.Darkness.MostlyBlackPct)
	}
	return pm
}

func pageRecords(docID string, text []readiness.PageText, dark []*darkness.Metrics) []PageRecord {
	n := max(len(text), len(dark))
	out := make([]PageRecord, n)
	for i := range out {
		out[i] = PageRecord{DocID: docID, PageNum: i + 1}
		if i < len(text) {
			out[i].TextCharCount = text[i].CharCount
			out[i].HasText = text[i].HasText
		}
		if i < len(dark) {
			out[i].Darkness = dark[i]
			if dark[i] == nil {
				out[i].Note = "darkness not checked"
			}
		}
	}
	return out
}

func status(res DocumentResult, textErr error) constants.DocStatus {
	for _, e := range res.Errors {
		if e.Stage == StageTimeout {
			return constants.DocStatusFailed
		}
	}
	if textErr != nil && res.Darkness.PagesChecked == 0 && res.Features == nil {
		return constants.DocStatusFailed
	}
	if len(res.Errors) > 0 || len(res.Notes) > 0 || res.Darkness.PagesSkipped > 0 {
		return constants.DocStatusPartial
	}
	return constants.DocStatusOK
}

// meteredRenderer records render outcomes and latency.
type meteredRenderer struct {
	inner   pdfio.PageRenderer
	metrics *metrics.Metrics
}

func (m meteredRenderer) RenderGray(ctx context.Context, path string, pageIndex, dpi int) (*raster.Gray, error) {
	start := time.Now()
	g, err := m.inner.RenderGray(ctx, path, pageIndex, dpi)
	m.metrics.RecordRender(err == nil, time.Since(start))
	return g, err
}

func (p *Processor) sampling() (features.Sampling, bool) {
	if p.classifier != nil && p.cfg.Model.UseModel {
		return p.classifier.Sampling(), true
	}
	if p.cfg.Run.ExtractFeatures {
		return p.cfg.Features.Sampling, true
	}
	return features.Sampling{}, false
}
