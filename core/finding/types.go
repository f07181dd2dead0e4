package finding

// Severity classifies how a single symbol change affects binary compatibility.
type Severity string

const (
	SeverityBreaking         Severity = "breaking"
	SeverityCompatibleChange Severity = "compatible_change"
	SeverityUnchanged        Severity = "unchanged"
	SeverityAdded            Severity = "added"
	SeverityRemoved          Severity = "removed"
)

// SymbolKind identifies which kind-namespace a symbol lives in.
type SymbolKind string

const (
	KindFunction SymbolKind = "function"
	KindStruct   SymbolKind = "struct"
	KindEnum     SymbolKind = "enum"
)

// Finding is a single per-symbol compatibility result between two versions.
type Finding struct {
	Symbol   string     `json:"symbol"`
	Kind     SymbolKind `json:"kind"`
	Severity Severity   `json:"severity"`
	Detail   string     `json:"detail"`
}

// Breaking reports whether this finding invalidates existing compiled callers.
func (f Finding) Breaking() bool {
	return f.Severity == SeverityBreaking
}

// Verdict is the overall classification of a version pair.
type Verdict string

const (
	VerdictCompatible   Verdict = "compatible"
	VerdictIncompatible Verdict = "incompatible"
)

// Report is the full result of one compatibility check: the aggregate verdict
// plus every per-symbol finding, with the breaking subset surfaced separately.
type Report struct {
	Verdict    Verdict   `json:"verdict"`
	OldVersion string    `json:"old_version,omitempty"`
	NewVersion string    `json:"new_version,omitempty"`
	Findings   []Finding `json:"findings"`
	Breaking   []Finding `json:"breaking,omitempty"`
}
