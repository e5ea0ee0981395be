// Package features builds deterministic per-document visual feature
// vectors from a sample of rendered pages and the document structure.
package features

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/doc-readiness/internal/common"
	"github.com/joseph-ayodele/doc-readiness/internal/pdfio"
)

// Extractor renders sampled pages and aggregates their features.
type Extractor struct {
	workers   int
	renderer  pdfio.PageRenderer
	inspector pdfio.StructureSource
	logger    *slog.Logger
}

func NewExtractor(cfg Config, renderer pdfio.PageRenderer, inspector pdfio.StructureSource, logger *slog.Logger) (*Extractor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{workers: cfg.Workers, renderer: renderer, inspector: inspector, logger: logger}, nil
}

// Request identifies one document. PageCountHint is used when the
// structure cannot be read.
type Request struct {
	Path          string
	RelPath       string
	PageCountHint int
	Probe         *ProbeMetrics
}

// Result is a vector plus the per-page problems met while building it.
type Result struct {
	Vector      Vector
	SampledIdx  []int
	PagesFailed int
	Notes       []string
}

// Extract builds the vector for req under sampling s. Sampling is passed
// explicitly so inference can reuse the parameters stored with a model.
// Page failures degrade to missing values; only cancellation is returned
// as an error.
func (e *Extractor) Extract(ctx context.Context, req Request, s Sampling) (Result, error) {
	var res Result
	logger := e.logger.With("rel_path", req.RelPath)

	var structure *pdfio.Structure
	pageCount := req.PageCountHint
	if e.inspector != nil {
		st, err := e.inspector.Inspect(req.Path)
		if err != nil {
			logger.Warn("structure unavailable", "error", err)
			res.Notes = append(res.Notes, fmt.Sprintf("structure: %v", err))
		} else {
			structure = &st
			pageCount = st.PageCount
		}
	}
	if pageCount <= 0 {
		res.Notes = append(res.Notes, "page count unavailable")
		res.Vector = Aggregate(req.RelPath, s, nil, req.Probe)
		return res, nil
	}

	res.SampledIdx = SamplePages(pageCount, s.PagesSampled, s.Seed, req.RelPath)
	pages := make([]map[string]Value, len(res.SampledIdx))
	failed := make([]error, len(res.SampledIdx))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, pageIdx := range res.SampledIdx {
		g.Go(func() error {
			var ps *pdfio.PageStructure
			if structure != nil {
				if p, ok := structure.Page(pageIdx); ok {
					ps = &p
				}
			}
			if e.renderer == nil {
				pages[i] = PageFeatures(ps, nil)
				return nil
			}
			gray, err := e.renderer.RenderGray(gctx, req.Path, pageIdx, s.DPI)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				failed[i] = err
			}
			pages[i] = PageFeatures(ps, gray)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, common.WrapError(err, "feature extraction")
	}

	for i, err := range failed {
		if err == nil {
			continue
		}
		res.PagesFailed++
		res.Notes = append(res.Notes, fmt.Sprintf("render page %d: %v", res.SampledIdx[i]+1, err))
	}
	if res.PagesFailed > 0 {
		logger.Warn("pages failed to render", "failed", res.PagesFailed, "sampled", len(res.SampledIdx))
	}
	res.Vector = Aggregate(req.RelPath, s, pages, req.Probe)
	return res, nil
}
