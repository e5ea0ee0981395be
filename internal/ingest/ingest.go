// Package ingest discovers candidate documents on disk or from an
// inventory file and loads the human truth labels for them.
package ingest

import (
	"time"
)

// Candidate is one document handed to the probe.
type Candidate struct {
	DocID          string    `json:"doc_id"`
	RelPath        string    `json:"rel_path"`
	Path           string    `json:"resolved_file_path"`
	TopLevelFolder string    `json:"top_level_folder"`
	SizeBytes      int64     `json:"size_bytes"`
	SHA256         string    `json:"sha256,omitempty"`
	ModifiedAt     time.Time `json:"modified_time"`
}

// ScanError is a file the scanner could not read.
type ScanError struct {
	Path string `json:"path"`
	Err  string `json:"error"`
}

// DirStats summarizes a directory scan.
type DirStats struct {
	Scanned   uint32
	Matched   uint32
	Succeeded uint32
	Failed    uint32
}
