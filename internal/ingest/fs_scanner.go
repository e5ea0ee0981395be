package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/doc-readiness/constants"
	"github.com/joseph-ayodele/doc-readiness/internal/common"
	"github.com/joseph-ayodele/doc-readiness/internal/readiness"
)

// FSScanner reads candidates from the local filesystem.
type FSScanner struct {
	SkipHidden bool
	Hash       bool
	MaxFiles   int
	logger     *slog.Logger
}

func NewFSScanner(logger *slog.Logger) *FSScanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &FSScanner{SkipHidden: true, Hash: true, logger: logger}
}

// ScanPath builds the candidate for one file under root.
func (s *FSScanner) ScanPath(root, path string) (Candidate, error) {
	var out Candidate

	abs, err := filepath.Abs(path)
	if err != nil {
		return out, fmt.Errorf("abs path: %w", err)
	}
	ext := constants.NormalizeExt(filepath.Ext(abs))
	if ext == "" || !AllowedExt(ext) {
		return out, common.NewAppError(common.CodeBadInput, fmt.Sprintf("unsupported or missing extension: %q", ext), common.ErrInvalidInput)
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return out, fmt.Errorf("rel path: %w", err)
	}
	st, err := os.Stat(abs)
	if err != nil {
		return out, fmt.Errorf("stat: %w", err)
	}

	var hashHex string
	if s.Hash {
		if hashHex, err = hashFile(abs); err != nil {
			return out, err
		}
	}

	relPath := readiness.NormalizeRelPath(filepath.ToSlash(rel))
	mod := st.ModTime().UTC()
	out = Candidate{
		DocID:          readiness.StableDocID(hashHex, relPath, st.Size(), mod.Format(time.RFC3339)),
		RelPath:        relPath,
		Path:           abs,
		TopLevelFolder: readiness.TopLevelFolder(relPath),
		SizeBytes:      st.Size(),
		SHA256:         hashHex,
		ModifiedAt:     mod,
	}
	return out, nil
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ScanDirectory walks root, skips hidden entries if requested, and builds
// a candidate for each PDF. Unreadable files are reported, not fatal.
func (s *FSScanner) ScanDirectory(ctx context.Context, root string) ([]Candidate, []ScanError, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, nil, DirStats{}, common.NewAppError(common.CodeBadInput, "root path is required", common.ErrInvalidInput)
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, nil, DirStats{}, fmt.Errorf("abs root: %w", err)
	}

	var results []Candidate
	var failures []ScanError
	var stats DirStats

	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			failures = append(failures, ScanError{Path: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if s.SkipHidden && path != absRoot && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !AllowedExt(filepath.Ext(path)) {
			return nil
		}
		stats.Matched++

		c, err := s.ScanPath(absRoot, path)
		if err != nil {
			s.logger.Warn("scan failed", "path", path, "error", err)
			failures = append(failures, ScanError{Path: path, Err: err.Error()})
			stats.Failed++
			return nil
		}
		results = append(results, c)
		stats.Succeeded++
		if s.MaxFiles > 0 && len(results) >= s.MaxFiles {
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil {
		return results, failures, stats, fmt.Errorf("walk: %w", err)
	}
	s.logger.Info("directory scanned",
		"root", absRoot,
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"failed", stats.Failed)
	return results, failures, stats, nil
}
