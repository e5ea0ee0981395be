package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joseph-ayodele/doc-readiness/internal/common"
	"github.com/joseph-ayodele/doc-readiness/internal/readiness"
)

var inventoryHeader = []string{
	"doc_id", "rel_path", "resolved_file_path", "top_level_folder", "size_bytes", "sha256", "modified_time",
}

// LoadInventoryCSV reads candidates from an inventory file. rel_path is
// required; resolved_file_path (or abs_path) defaults to rel_path under
// root; doc_id and top_level_folder are derived when absent.
func LoadInventoryCSV(path, root string) ([]Candidate, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, common.NewAppError(common.CodeNotFound, "open inventory "+path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return nil, common.NewAppError(common.CodeBadInput, "read inventory header", err)
	}
	col := columnIndex(header)
	if _, ok := col["rel_path"]; !ok {
		return nil, common.NewAppError(common.CodeBadInput, "inventory has no rel_path column", common.ErrInvalidInput)
	}

	var out []Candidate
	for line := 2; ; line++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, common.NewAppError(common.CodeBadInput, fmt.Sprintf("inventory line %d", line), err)
		}
		get := func(name string) string {
			if i, ok := col[name]; ok && i < len(rec) {
				return strings.TrimSpace(rec[i])
			}
			return ""
		}
		rel := readiness.NormalizeRelPath(get("rel_path"))
		if rel == "" {
			continue
		}
		c := Candidate{
			DocID:          get("doc_id"),
			RelPath:        rel,
			Path:           firstNonEmpty(get("resolved_file_path"), get("abs_path")),
			TopLevelFolder: get("top_level_folder"),
			SHA256:         firstNonEmpty(get("sha256"), get("hash_value")),
		}
		if c.Path == "" {
			c.Path = filepath.Join(root, filepath.FromSlash(rel))
		} else if !filepath.IsAbs(c.Path) && root != "" {
			c.Path = filepath.Join(root, c.Path)
		}
		if c.TopLevelFolder == "" {
			c.TopLevelFolder = readiness.TopLevelFolder(rel)
		}
		if n, err := strconv.ParseInt(get("size_bytes"), 10, 64); err == nil {
			c.SizeBytes = n
		}
		mod := get("modified_time")
		if t, err := time.Parse(time.RFC3339, mod); err == nil {
			c.ModifiedAt = t.UTC()
		}
		if c.DocID == "" {
			c.DocID = readiness.StableDocID(c.SHA256, rel, c.SizeBytes, mod)
		}
		out = append(out, c)
	}
	return out, nil
}

// WriteInventoryCSV writes candidates in the layout LoadInventoryCSV reads.
func WriteInventoryCSV(path string, candidates []Candidate) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create inventory dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create inventory: %w", err)
	}
	w := csv.NewWriter(f)
	_ = w.Write(inventoryHeader)
	for _, c := range candidates {
		mod := ""
		if !c.ModifiedAt.IsZero() {
			mod = c.ModifiedAt.Format(time.RFC3339)
		}
		_ = w.Write([]string{
			c.DocID, c.RelPath, c.Path, c.TopLevelFolder,
			strconv.FormatInt(c.SizeBytes, 10), c.SHA256, mod,
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("write inventory: %w", err)
	}
	return f.Close()
}

func columnIndex(header []string) map[string]int {
	col := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := col[h]; !dup {
			col[h] = i
		}
	}
	return col
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
