package domain

type VerdictKind string

const (
	VerdictPass       VerdictKind = "pass"
	VerdictDegraded   VerdictKind = "degraded"
	VerdictNew        VerdictKind = "new"
	VerdictNoBaseline VerdictKind = "no_baseline"
	VerdictSkipped    VerdictKind = "skipped"
)

type PhaseVerdict struct {
	Phase       string
	Kind        VerdictKind
	Policy      string
	Previous    ResultValue
	HasPrevious bool
	Current     ResultValue
	Limit       float64
}

type Comparison struct {
	Verdicts []PhaseVerdict
	Failed   bool
}

func (c Comparison) Degraded() []PhaseVerdict {
	var out []PhaseVerdict
	for _, v := range c.Verdicts {
		if v.Kind == VerdictDegraded {
			out = append(out, v)
		}
	}
	return out
}

// Verdict returns the verdict for phase, if it was evaluated.
func (c Comparison) Verdict(phase string) (PhaseVerdict, bool) {
	for _, v := range c.Verdicts {
		if v.Phase == phase {
			return v, true
		}
	}
	return PhaseVerdict{}, false
}

// Compare checks every outcome against the previous results. It evaluates all
// phases and has no side effects.
func Compare(prev Results, outcomes []PhaseOutcome, sel *Selector) Comparison {
	var cmp Comparison
	for _, o := range outcomes {
		v := PhaseVerdict{Phase: o.Name, Current: ResultFor(o)}
		prevVal, hasPrev := prev.Get(o.Name)
		if hasPrev {
			v.Previous = prevVal
			v.HasPrevious = true
		}

		switch {
		case o.Status != StatusCompleted:
			v.Kind = VerdictSkipped
		case !hasPrev:
			v.Kind = VerdictNew
		case !prevVal.IsNumber():
			v.Kind = VerdictNoBaseline
		default:
			policy := sel.For(o.Name)
			v.Policy = policy.Name()
			v.Limit = policy.Limit(prevVal.Minutes)
			if policy.Degraded(prevVal.Minutes, v.Current.Minutes) {
				v.Kind = VerdictDegraded
				cmp.Failed = true
			} else {
				v.Kind = VerdictPass
			}
		}
		cmp.Verdicts = append(cmp.Verdicts, v)
	}
	return cmp
}
