package finding

// Aggregate reduces a finding list to the overall verdict. The result is
// Incompatible iff at least one finding is breaking; additions and
// layout-safe changes never flip the verdict on their own.
func Aggregate(findings []Finding) Report {
	var breaking []Finding
	for _, f := range findings {
		if f.Breaking() {
			breaking = append(breaking, f)
		}
	}

	verdict := VerdictCompatible
	if len(breaking) > 0 {
		verdict = VerdictIncompatible
	}

	return Report{
		Verdict:  verdict,
		Findings: findings,
		Breaking: breaking,
	}
}
