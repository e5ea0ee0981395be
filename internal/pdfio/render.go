package pdfio

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"golang.org/x/image/tiff"

	"github.com/joseph-ayodele/doc-readiness/internal/common"
	"github.com/joseph-ayodele/doc-readiness/internal/raster"
)

// RenderConfig selects the rasterizer binary and its output format.
type RenderConfig struct {
	Pdftoppm string // binary name or absolute path; if empty -> "pdftoppm"
	Format   string // "png" | "tiff"; if empty -> "png"
	TempDir  string // parent for per-call scratch dirs; empty uses os.TempDir
}

// PageRenderer produces a grayscale buffer for one 0-based page.
type PageRenderer interface {
	RenderGray(ctx context.Context, path string, pageIndex, dpi int) (*raster.Gray, error)
}

// Renderer rasterizes single pages with pdftoppm.
type Renderer struct {
	cfg    RenderConfig
	runner Runner
	logger *slog.Logger
}

func NewRenderer(cfg RenderConfig, runner Runner, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Format == "" {
		cfg.Format = "png"
	}
	if runner == nil {
		runner = ExecRunner{Logger: logger}
	}
	return &Renderer{cfg: cfg, runner: runner, logger: logger}
}

// RenderGray rasterizes page pageIndex (0-based) of path at dpi.
func (r *Renderer) RenderGray(ctx context.Context, path string, pageIndex, dpi int) (*raster.Gray, error) {
	if pageIndex < 0 {
		return nil, common.NewAppError(common.CodeBadInput, fmt.Sprintf("page index %d", pageIndex), common.ErrInvalidInput)
	}
	if dpi <= 0 {
		dpi = 72
	}
	tmpDir, err := os.MkdirTemp(r.cfg.TempDir, "docready-pp-*")
	if err != nil {
		return nil, common.NewAppError(common.CodeRender, "create temp dir", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(tmpDir); rmErr != nil {
			r.logger.Warn("failed to remove temp dir", "dir", tmpDir, "error", rmErr)
		}
	}()

	pageNr := strconv.Itoa(pageIndex + 1)
	prefix := filepath.Join(tmpDir, "page")
	formatFlag, ext := "-png", ".png"
	if r.cfg.Format == "tiff" {
		formatFlag, ext = "-tiff", ".tif"
	}
	// pdftoppm -r 72 -gray -f N -l N -singlefile -png <in.pdf> <tmp/page>
	_, errb, err := r.runner.Run(ctx, r.cfg.Pdftoppm,
		"-r", strconv.Itoa(dpi), "-gray", "-f", pageNr, "-l", pageNr, "-singlefile", formatFlag, path, prefix)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, classifyExecErr("pdftoppm", common.ErrRender, common.CodeRender, err, errb)
	}

	data, err := os.ReadFile(prefix + ext)
	if err != nil {
		return nil, common.NewAppError(common.CodeRender, "pdftoppm produced no image", common.ErrRender)
	}
	gray, err := decodeRaster(data, r.cfg.Format)
	if err != nil {
		return nil, common.NewAppError(common.CodeRender, fmt.Sprintf("decode page %s: %v", pageNr, err), common.ErrRender)
	}
	return gray, nil
}

func decodeRaster(data []byte, format string) (*raster.Gray, error) {
	var (
		img image.Image
		err error
	)
	switch format {
	case "tiff":
		img, err = tiff.Decode(bytes.NewReader(data))
	default:
		img, err = png.Decode(bytes.NewReader(data))
	}
	if err != nil {
		return nil, err
	}
	return raster.FromImage(img), nil
}
