package probe

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/doc-readiness/internal/common"
	"github.com/joseph-ayodele/doc-readiness/internal/features"
	"github.com/joseph-ayodele/doc-readiness/internal/ingest"
	"github.com/joseph-ayodele/doc-readiness/internal/metrics"
)

// TruthSource returns the truth label for a relative path, or "".
type TruthSource interface {
	Get(relPath string) string
}

type noTruth struct{}

func (noTruth) Get(string) string { return "" }

// Summary counts a run's outcomes.
type Summary struct {
	Documents        int            `json:"documents"`
	Candidates       int            `json:"candidates"`
	Statuses         map[string]int `json:"statuses"`
	Classifications  map[string]int `json:"classifications"`
	QualityLabels    map[string]int `json:"quality_labels"`
	ContentTypes     map[string]int `json:"content_types"`
	DocTypes         map[string]int `json:"doc_types"`
	DocTypeSources   map[string]int `json:"doc_type_sources"`
	PagesChecked     int            `json:"pages_black_checked"`
	PagesMostlyBlack int            `json:"pages_mostly_black"`
	Errors           int            `json:"errors"`
	RuntimeSeconds   float64        `json:"runtime_seconds"`
}

// Run is the complete output of one probe run.
type Run struct {
	ID         string           `json:"run_id"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	ModelID    string           `json:"model_id,omitempty"`
	Config     Config           `json:"config"`
	Documents  []DocumentResult `json:"documents"`
	Errors     []ErrorEntry     `json:"errors"`
	Summary    Summary          `json:"summary"`
}

// Runner dispatches documents to a Processor through a Queue.
type Runner struct {
	proc        *Processor
	cfg         Config
	errorSample int
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

func NewRunner(proc *Processor, errorSample int, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{proc: proc, cfg: proc.cfg, errorSample: errorSample, metrics: proc.metrics, logger: logger}
}

// SelectCandidates applies max_docs with a seeded sample that keeps the
// input order. maxDocs <= 0 keeps everything.
func SelectCandidates(candidates []ingest.Candidate, maxDocs int, seed int64) []ingest.Candidate {
	if maxDocs <= 0 || maxDocs >= len(candidates) {
		return candidates
	}
	idx := features.SamplePages(len(candidates), maxDocs, seed, "")
	out := make([]ingest.Candidate, len(idx))
	for i, j := range idx {
		out[i] = candidates[j]
	}
	return out
}

// Run processes candidates and returns the collected run. A cancelled ctx
// stops dispatch; documents already finished are kept and the
// cancellation is returned alongside the partial run.
func (r *Runner) Run(ctx context.Context, candidates []ingest.Candidate, truth TruthSource) (*Run, error) {
	if truth == nil {
		truth = noTruth{}
	}
	run := &Run{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Config:    r.cfg,
	}
	if r.proc.classifier != nil {
		run.ModelID = r.proc.classifier.Artifact().ModelID
	}
	ctx = common.WithRunID(ctx, run.ID)
	logger := r.logger.With("run_id", run.ID)

	selected := SelectCandidates(candidates, r.cfg.Run.MaxDocs, r.cfg.Run.Seed)
	logger.Info("probe run started", "candidates", len(candidates), "selected", len(selected), "workers", r.cfg.Run.Workers)

	results := make([]DocumentResult, len(selected))
	done := make([]bool, len(selected))
	errs := NewErrorLog(r.errorSample)

	q := NewQueue(ctx, func(jobCtx context.Context, job Job) {
		res := r.proc.ProcessDocument(jobCtx, job.Candidate, job.Truth)
		for _, e := range res.Errors {
			errs.Add(ErrorEntry{DocID: res.DocID, Path: res.Path, Stage: e.Stage, Message: e.Message})
		}
		results[job.Index] = res
		done[job.Index] = true
	}, logger,
		WithWorkers(r.cfg.Run.Workers),
		WithQueueSize(r.cfg.Run.QueueSize),
		WithProcessTimeout(r.cfg.Run.DocTimeout),
	)

	var dispatchErr error
	for i, c := range selected {
		if err := ctx.Err(); err != nil {
			dispatchErr = err
			break
		}
		if err := q.Enqueue(ctx, Job{Index: i, Candidate: c, Truth: truth.Get(c.RelPath)}); err != nil {
			dispatchErr = err
			break
		}
	}
	q.Shutdown(context.Background())

	for i := range results {
		if done[i] {
			run.Documents = append(run.Documents, results[i])
		}
	}
	run.FinishedAt = time.Now().UTC()
	run.Errors = errs.Entries()
	run.Summary = summarize(run.Documents, errs.Total(), run.FinishedAt.Sub(run.StartedAt))
	run.Summary.Candidates = len(candidates)
	r.metrics.RecordRun(run.FinishedAt.Sub(run.StartedAt), errs.Total())

	logger.Info("probe run finished",
		"documents", run.Summary.Documents,
		"errors", run.Summary.Errors,
		"runtime_s", run.Summary.RuntimeSeconds)

	if dispatchErr == nil {
		dispatchErr = ctx.Err()
	}
	if dispatchErr != nil {
		return run, common.NewAppError(common.CodeCancelled, "probe run interrupted", dispatchErr)
	}
	return run, nil
}

func summarize(docs []DocumentResult, errorCount int, elapsed time.Duration) Summary {
	s := Summary{
		Documents:       len(docs),
		Statuses:        map[string]int{},
		Classifications: map[string]int{},
		QualityLabels:   map[string]int{},
		ContentTypes:    map[string]int{},
		DocTypes:        map[string]int{},
		DocTypeSources:  map[string]int{},
		Errors:          errorCount,
		RuntimeSeconds:  elapsed.Seconds(),
	}
	for _, d := range docs {
		s.Statuses[string(d.Status)]++
		s.Classifications[string(d.Readiness.Classification)]++
		s.QualityLabels[string(d.Quality.Label)]++
		s.ContentTypes[string(d.Content.Category)]++
		s.DocTypes[d.Decision.Final]++
		s.DocTypeSources[string(d.Decision.Source)]++
		s.PagesChecked += d.Darkness.PagesChecked
		s.PagesMostlyBlack += d.Darkness.PagesMostlyBlack
	}
	return s
}
