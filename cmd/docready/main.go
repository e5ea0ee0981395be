package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/joseph-ayodele/doc-readiness/internal/common"
	"github.com/joseph-ayodele/doc-readiness/internal/probe"
)

// appEnv is the loaded configuration and logger shared by every command.
type appEnv struct {
	app      *common.Config
	analysis *probe.Config
	logger   *slog.Logger
}

const envKey = "env"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		if _, werr := fmt.Fprintf(os.Stderr, "docready: %v\n", err); werr != nil {
			fmt.Printf("docready: %v\n", err)
		}
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "docready",
		Usage: "measure PDF text readiness, darkness, quality and document type",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML config file", EnvVars: []string{"DOCREADY_CONFIG"}},
			&cli.StringFlag{Name: "log-level", Usage: "override log.level"},
		},
		Before: loadEnv,
		Commands: []*cli.Command{
			{
				Name:   "probe",
				Usage:  "analyze a directory or inventory CSV and store the run",
				Action: ProbeAction,
				Flags: append(inputFlags(),
					&cli.StringFlag{Name: "labels", Usage: "truth labels CSV (rel_path,label_raw)"},
					&cli.StringFlag{Name: "out", Usage: "output directory (default output.root/<run_id>)"},
					&cli.BoolFlag{Name: "no-db", Usage: "skip saving the run to the database"},
					&cli.BoolFlag{Name: "features", Usage: "keep feature vectors in the run output"},
				),
			},
			{
				Name:   "train",
				Usage:  "extract features for labeled documents and train the doc type model",
				Action: TrainAction,
				Flags: append(inputFlags(),
					&cli.StringFlag{Name: "labels", Usage: "truth labels CSV (rel_path,label_raw)", Required: true},
					&cli.StringFlag{Name: "model-dir", Usage: "model output directory (default output.model_dir)"},
				),
			},
			{
				Name:   "label-check",
				Usage:  "reconcile truth labels against the document set",
				Action: LabelCheckAction,
				Flags: append(inputFlags(),
					&cli.StringFlag{Name: "labels", Usage: "truth labels CSV (rel_path,label_raw)", Required: true},
					&cli.BoolFlag{Name: "list", Usage: "print orphaned and unlabeled paths"},
				),
			},
			{
				Name:   "runs",
				Usage:  "list stored probe runs",
				Action: RunsAction,
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Value: 20, Usage: "maximum runs to list"},
				},
			},
			{
				Name:      "documents",
				Usage:     "list the documents of a stored run",
				ArgsUsage: "<run_id>",
				Action:    DocumentsAction,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "status", Usage: "filter by status (OK, PARTIAL, FAILED)"},
				},
			},
			{
				Name:   "dbhealth",
				Usage:  "ping the configured database",
				Action: DBHealthAction,
			},
		},
	}
}

func inputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "dir", Usage: "directory to scan for PDFs"},
		&cli.StringFlag{Name: "inventory", Usage: "inventory CSV (rel_path[,resolved_file_path])"},
		&cli.StringFlag{Name: "root", Usage: "root that inventory rel_paths resolve against"},
	}
}

func loadEnv(c *cli.Context) error {
	app, analysis, err := probe.Load(c.String("config"))
	if err != nil {
		return err
	}
	if lvl := c.String("log-level"); lvl != "" {
		app.Log.Level = lvl
	}
	logger := common.NewLogger(app.Log, os.Stderr)
	slog.SetDefault(logger)
	c.App.Metadata = map[string]interface{}{envKey: &appEnv{app: app, analysis: analysis, logger: logger}}
	return nil
}

func envFrom(c *cli.Context) *appEnv {
	return c.App.Metadata[envKey].(*appEnv)
}
