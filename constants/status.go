package constants

// DocStatus is the processing outcome stored with each document record.
type DocStatus string

// Stable values (store these exact strings in DB).
const (
	DocStatusOK      DocStatus = "OK"      // every stage ran
	DocStatusPartial DocStatus = "PARTIAL" // some pages or stages failed
	DocStatusFailed  DocStatus = "FAILED"  // nothing usable was produced
)

// Classification is the text-readiness verdict for a document.
type Classification string

const (
	ClassTextBased Classification = "Text-based"
	ClassScanned   Classification = "Scanned"
	ClassMixed     Classification = "Mixed"
	ClassUnknown   Classification = "Unknown"
)

// QualityLabel is the coarse text-quality verdict.
type QualityLabel string

const (
	QualityEmpty QualityLabel = "EMPTY"
	QualityLow   QualityLabel = "LOW"
	QualityGood  QualityLabel = "GOOD"
)

// Provenance records which signal decided a document's final type.
type Provenance string

const (
	SourceTruth     Provenance = "TRUTH"
	SourceModel     Provenance = "MODEL"
	SourceHeuristic Provenance = "HEURISTIC"
)
