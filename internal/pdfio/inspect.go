package pdfio

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/joseph-ayodele/doc-readiness/internal/common"
)

// PageStructure is what the document structure says about one page,
// independent of rendering.
type PageStructure struct {
	FontCount  int
	ImageCount int
}

// Structure summarizes a parsed document.
type Structure struct {
	PageCount int
	Encrypted bool
	Pages     []PageStructure // index 0 is page 1
}

// Page returns the structure of 0-based pageIndex, ok=false when out of range.
func (s Structure) Page(pageIndex int) (PageStructure, bool) {
	if pageIndex < 0 || pageIndex >= len(s.Pages) {
		return PageStructure{}, false
	}
	return s.Pages[pageIndex], true
}

// StructureSource parses a document's object structure.
type StructureSource interface {
	Inspect(path string) (Structure, error)
}

// Inspector reads document structure with pdfcpu.
type Inspector struct {
	logger *slog.Logger
}

func NewInspector(logger *slog.Logger) *Inspector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Inspector{logger: logger}
}

// Inspect parses path and counts fonts and image XObjects per page.
func (i *Inspector) Inspect(path string) (Structure, error) {
	f, err := os.Open(path)
	if err != nil {
		return Structure{}, common.NewAppError(common.CodeExtract, fmt.Sprintf("open %s", path), err)
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(f, conf)
	if err != nil {
		return Structure{}, common.NewAppError(common.CodeExtract, fmt.Sprintf("pdfcpu read: %v", err), common.ErrExtract)
	}

	s := Structure{
		PageCount: ctx.PageCount,
		Encrypted: ctx.Encrypt != nil,
		Pages:     make([]PageStructure, ctx.PageCount),
	}
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		ps := PageStructure{}
		if ctx.Optimize != nil {
			ps.ImageCount = len(pdfcpu.ImageObjNrs(ctx, pageNr))
			if pageNr-1 < len(ctx.Optimize.PageFonts) {
				ps.FontCount = len(ctx.Optimize.PageFonts[pageNr-1])
			}
		}
		s.Pages[pageNr-1] = ps
	}
	i.logger.Debug("pdf structure inspected", "path", path, "pages", s.PageCount, "encrypted", s.Encrypted)
	return s, nil
}
