package finding

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestAggregateCompatible(t *testing.T) {
	findings := []Finding{
		{Symbol: "add", Kind: KindFunction, Severity: SeverityUnchanged},
		{Symbol: "subtract", Kind: KindFunction, Severity: SeverityAdded},
		{Symbol: "Color", Kind: KindEnum, Severity: SeverityCompatibleChange},
		{Symbol: "legacy", Kind: KindFunction, Severity: SeverityRemoved},
	}

	rep := Aggregate(findings)
	if rep.Verdict != VerdictCompatible {
		t.Errorf("verdict: got %s, want compatible", rep.Verdict)
	}
	if len(rep.Breaking) != 0 {
		t.Errorf("breaking: got %d findings, want 0", len(rep.Breaking))
	}
	if diff := cmp.Diff(findings, rep.Findings); diff != "" {
		t.Errorf("findings not passed through (-want +got):\n%s", diff)
	}
}

func TestAggregateIncompatible(t *testing.T) {
	findings := []Finding{
		{Symbol: "add", Kind: KindFunction, Severity: SeverityUnchanged},
		{Symbol: "Point", Kind: KindStruct, Severity: SeverityBreaking, Detail: "struct Point: size changed 8 -> 12 bytes"},
		{Symbol: "Color", Kind: KindEnum, Severity: SeverityBreaking, Detail: "enum Color: enumerator BLUE changed value 2 -> 5"},
	}

	rep := Aggregate(findings)
	if rep.Verdict != VerdictIncompatible {
		t.Errorf("verdict: got %s, want incompatible", rep.Verdict)
	}
	if len(rep.Breaking) != 2 {
		t.Fatalf("breaking: got %d findings, want 2", len(rep.Breaking))
	}
	for _, f := range rep.Breaking {
		if !f.Breaking() {
			t.Errorf("non-breaking finding surfaced: %+v", f)
		}
	}
}

func TestAggregateEmpty(t *testing.T) {
	rep := Aggregate(nil)
	if rep.Verdict != VerdictCompatible {
		t.Errorf("verdict: got %s, want compatible for empty input", rep.Verdict)
	}
}
