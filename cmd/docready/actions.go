package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/doc-readiness/constants"
	"github.com/joseph-ayodele/doc-readiness/internal/common"
	"github.com/joseph-ayodele/doc-readiness/internal/doctype"
	"github.com/joseph-ayodele/doc-readiness/internal/export"
	"github.com/joseph-ayodele/doc-readiness/internal/ingest"
	"github.com/joseph-ayodele/doc-readiness/internal/metrics"
	"github.com/joseph-ayodele/doc-readiness/internal/pdfio"
	"github.com/joseph-ayodele/doc-readiness/internal/probe"
	"github.com/joseph-ayodele/doc-readiness/internal/quality"
	"github.com/joseph-ayodele/doc-readiness/internal/repository"
)

// ProbeAction analyzes every candidate and writes run.json, the workbook,
// the database rows and the metrics textfile.
func ProbeAction(c *cli.Context) error {
	env := envFrom(c)
	cfg := *env.analysis
	if c.Bool("features") {
		cfg.Run.ExtractFeatures = true
	}

	candidates, err := loadCandidates(c, env)
	if err != nil {
		return err
	}
	labels, err := loadLabels(c)
	if err != nil {
		return err
	}

	classifier, err := loadClassifier(env, cfg)
	if err != nil {
		return err
	}
	m := metrics.NewMetrics()
	proc, err := newProcessor(env, cfg, classifier, m)
	if err != nil {
		return err
	}

	run, runErr := probe.NewRunner(proc, env.app.Output.ErrorSampleSz, env.logger).Run(c.Context, candidates, labels)
	if run == nil {
		return runErr
	}

	outDir := c.String("out")
	if outDir == "" {
		outDir = filepath.Join(env.app.Output.Root, run.ID)
	}
	if err := writeJSON(filepath.Join(outDir, "run.json"), run); err != nil {
		return fmt.Errorf("failed to write run: %w", err)
	}
	if env.app.Output.XLSX {
		if err := export.NewService(env.logger).WriteFile(run, filepath.Join(outDir, "doc_readiness.xlsx")); err != nil {
			return fmt.Errorf("failed to write workbook: %w", err)
		}
	}
	if !c.Bool("no-db") {
		db, err := repository.Open(c.Context, env.app.Database, env.logger)
		if err != nil {
			return err
		}
		defer repository.Close(db, env.logger)
		if err := repository.NewRunRepository(db, env.logger).SaveRun(c.Context, run); err != nil {
			return err
		}
	}
	if path := env.app.Output.MetricsFile; path != "" {
		if err := m.WriteTextfile(path); err != nil {
			env.logger.Warn("failed to write metrics textfile", "path", path, "error", err)
		}
	}

	out, err := yaml.Marshal(map[string]any{"run_id": run.ID, "output_dir": outDir, "summary": run.Summary})
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	fmt.Fprint(c.App.Writer, string(out))
	return runErr
}

// TrainAction probes the labeled documents for features and fits a model.
func TrainAction(c *cli.Context) error {
	env := envFrom(c)
	cfg := *env.analysis
	cfg.Model.UseModel = false
	cfg.Run.ExtractFeatures = true
	cfg.Run.MaxDocs = 0

	candidates, err := loadCandidates(c, env)
	if err != nil {
		return err
	}
	labels, err := loadLabels(c)
	if err != nil {
		return err
	}
	rec := ingest.Reconcile(candidates, labels)
	var labeled []ingest.Candidate
	for _, cand := range candidates {
		if labels.Get(cand.RelPath) != "" {
			labeled = append(labeled, cand)
		}
	}
	if len(labeled) == 0 {
		return common.NewAppError(common.CodeBadInput, "no labeled documents found", common.ErrInvalidInput)
	}
	env.logger.Info("training set assembled",
		"labeled", len(labeled),
		"orphaned_labels", len(rec.Orphaned),
		"invalid_labels", len(labels.Invalid))

	proc, err := newProcessor(env, cfg, nil, nil)
	if err != nil {
		return err
	}
	run, err := probe.NewRunner(proc, env.app.Output.ErrorSampleSz, env.logger).Run(c.Context, labeled, labels)
	if err != nil {
		return err
	}

	examples := make([]doctype.Example, 0, len(run.Documents))
	for _, d := range run.Documents {
		if d.Features == nil {
			env.logger.Warn("no features, document left out of training", "rel_path", d.RelPath, "notes", d.NotesString())
			continue
		}
		examples = append(examples, doctype.Example{
			RelPath: d.RelPath,
			Vector:  *d.Features,
			Label:   constants.DocType(labels.Get(d.RelPath)),
		})
	}

	trainer, err := doctype.NewTrainer(cfg.Model, env.logger)
	if err != nil {
		return err
	}
	artifact, err := trainer.Train(examples, cfg.Features.Sampling)
	if err != nil {
		return err
	}
	artifact.LabelReconciliation = &doctype.LabelReconciliation{
		LabelsMatched:  len(rec.Matched),
		LabelsOrphaned: len(rec.Orphaned),
		DocsUnlabeled:  len(rec.Unlabeled),
	}

	dir := c.String("model-dir")
	if dir == "" {
		dir = env.app.Output.ModelDir
	}
	card, err := artifact.Save(dir)
	if err != nil {
		return err
	}

	accuracy := "n/a"
	if artifact.Eval.Accuracy != nil {
		accuracy = fmt.Sprintf("%.3f", *artifact.Eval.Accuracy)
	}
	fmt.Fprintf(c.App.Writer, "model_id:      %s\n", artifact.ModelID)
	fmt.Fprintf(c.App.Writer, "model_card:    %s\n", card)
	fmt.Fprintf(c.App.Writer, "training_rows: %d\n", artifact.TrainingRows)
	fmt.Fprintf(c.App.Writer, "eval_rows:     %d\n", artifact.Eval.Rows)
	fmt.Fprintf(c.App.Writer, "accuracy:      %s\n", accuracy)
	return nil
}

// LabelCheckAction prints how the truth labels line up with the documents.
func LabelCheckAction(c *cli.Context) error {
	env := envFrom(c)
	candidates, err := loadCandidates(c, env)
	if err != nil {
		return err
	}
	labels, err := loadLabels(c)
	if err != nil {
		return err
	}
	rec := ingest.Reconcile(candidates, labels)

	w := c.App.Writer
	fmt.Fprintf(w, "documents:        %d\n", len(candidates))
	fmt.Fprintf(w, "labels:           %d\n", len(labels.ByRelPath))
	fmt.Fprintf(w, "labels_matched:   %d\n", len(rec.Matched))
	fmt.Fprintf(w, "labels_orphaned:  %d\n", len(rec.Orphaned))
	fmt.Fprintf(w, "docs_unlabeled:   %d\n", len(rec.Unlabeled))
	fmt.Fprintf(w, "labels_invalid:   %d\n", len(labels.Invalid))
	if c.Bool("list") {
		printList(c, "orphaned", rec.Orphaned)
		printList(c, "unlabeled", rec.Unlabeled)
		printList(c, "invalid", labels.Invalid)
	}
	return nil
}

// RunsAction lists stored runs, newest first.
func RunsAction(c *cli.Context) error {
	env := envFrom(c)
	db, err := repository.Open(c.Context, env.app.Database, env.logger)
	if err != nil {
		return err
	}
	defer repository.Close(db, env.logger)

	runs, err := repository.NewRunRepository(db, env.logger).ListRuns(c.Context, c.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Fprintln(c.App.Writer, "No runs found")
		return nil
	}
	w := c.App.Writer
	fmt.Fprintf(w, "%-36s %-20s %-6s %-6s %-10s %s\n", "Run ID", "Started", "Docs", "Errors", "Runtime", "Model")
	fmt.Fprintln(w, strings.Repeat("-", 110))
	for _, r := range runs {
		runtime := time.Duration(r.Summary.RuntimeSeconds * float64(time.Second)).Round(time.Second)
		fmt.Fprintf(w, "%-36s %-20s %-6d %-6d %-10s %s\n",
			r.RunID, r.StartedAt.Format("2006-01-02 15:04:05"), r.Documents, r.Errors, runtime, r.ModelID)
	}
	return nil
}

// DocumentsAction lists the documents of one stored run.
func DocumentsAction(c *cli.Context) error {
	env := envFrom(c)
	runID := c.Args().First()
	if runID == "" {
		return fmt.Errorf("run id is required")
	}
	db, err := repository.Open(c.Context, env.app.Database, env.logger)
	if err != nil {
		return err
	}
	defer repository.Close(db, env.logger)

	docs, err := repository.NewRunRepository(db, env.logger).ListDocuments(c.Context, runID, strings.ToUpper(c.String("status")))
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}
	w := c.App.Writer
	fmt.Fprintf(w, "%-8s %-11s %-6s %-18s %-10s %s\n", "Status", "Class", "Pages", "Doc type", "Source", "Path")
	fmt.Fprintln(w, strings.Repeat("-", 110))
	for _, d := range docs {
		fmt.Fprintf(w, "%-8s %-11s %-6d %-18s %-10s %s\n",
			d.Status, d.Classification, d.PageCount, d.DocTypeFinal, d.DocTypeSource, d.RelPath)
	}
	fmt.Fprintf(w, "\nTotal: %d documents\n", len(docs))
	return nil
}

func DBHealthAction(c *cli.Context) error {
	env := envFrom(c)
	db, err := repository.Open(c.Context, env.app.Database, env.logger)
	if err != nil {
		return err
	}
	defer repository.Close(db, env.logger)
	if err := repository.HealthCheck(c.Context, db, env.app.Database.DialTimeout, env.logger); err != nil {
		return fmt.Errorf("DB health: FAIL (%w)", err)
	}
	fmt.Fprintf(c.App.Writer, "DB health: OK (%s)\n", db.Dialect)
	return nil
}

func loadCandidates(c *cli.Context, env *appEnv) ([]ingest.Candidate, error) {
	dir, inv := c.String("dir"), c.String("inventory")
	switch {
	case dir != "" && inv != "":
		return nil, common.NewAppError(common.CodeBadInput, "use either --dir or --inventory", common.ErrInvalidInput)
	case inv != "":
		return ingest.LoadInventoryCSV(inv, c.String("root"))
	case dir != "":
		cands, scanErrs, stats, err := ingest.NewFSScanner(env.logger).ScanDirectory(c.Context, dir)
		if err != nil {
			return nil, err
		}
		for _, se := range scanErrs {
			env.logger.Warn("file skipped", "path", se.Path, "error", se.Err)
		}
		env.logger.Info("scan complete",
			"scanned", stats.Scanned,
			"matched", stats.Matched,
			"succeeded", stats.Succeeded,
			"failed", stats.Failed)
		return cands, nil
	}
	return nil, common.NewAppError(common.CodeBadInput, "--dir or --inventory is required", common.ErrInvalidInput)
}

func loadLabels(c *cli.Context) (ingest.Labels, error) {
	if path := c.String("labels"); path != "" {
		return ingest.LoadLabelsCSV(path)
	}
	return ingest.Labels{}, nil
}

// loadClassifier returns nil when the model is disabled or when the LATEST
// pointer does not exist yet; an explicitly named model that cannot be
// loaded stops the run before any document is processed.
func loadClassifier(env *appEnv, cfg probe.Config) (*doctype.Classifier, error) {
	if !cfg.Model.UseModel {
		return nil, nil
	}
	ref := strings.TrimSpace(cfg.Model.ModelRef)
	a, err := doctype.LoadArtifact(env.app.Output.ModelDir, ref)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) && (ref == "" || strings.EqualFold(ref, doctype.LatestRef)) {
			env.logger.Warn("no trained model found, using heuristic doc types", "model_dir", env.app.Output.ModelDir)
			return nil, nil
		}
		return nil, err
	}
	env.logger.Info("model loaded", "model_id", a.ModelID, "features", len(a.Features))
	return doctype.NewClassifier(a, cfg.Model.ReasonTopK, env.logger)
}

func newProcessor(env *appEnv, cfg probe.Config, classifier *doctype.Classifier, m *metrics.Metrics) (*probe.Processor, error) {
	runner := pdfio.ExecRunner{Logger: env.logger}
	deps := probe.Deps{
		Text: pdfio.NewTextExtractor(pdfio.TextConfig{Pdftotext: env.app.Render.Pdftotext}, runner, env.logger),
		Renderer: pdfio.NewRenderer(pdfio.RenderConfig{
			Pdftoppm: env.app.Render.Pdftoppm,
			Format:   env.app.Render.RasterFormat,
			TempDir:  env.app.Render.TempDir,
		}, runner, env.logger),
		Inspector:  pdfio.NewInspector(env.logger),
		Classifier: classifier,
		Metrics:    m,
	}
	if cfg.Quality.DetectLanguage {
		deps.Detector = quality.NewLinguaDetector(cfg.Quality.Languages)
	}
	return probe.NewProcessor(cfg, deps, env.logger)
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func printList(c *cli.Context, name string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(c.App.Writer, "\n%s:\n", name)
	for _, it := range items {
		fmt.Fprintf(c.App.Writer, "  %s\n", it)
	}
}
