package annot

import "sort"

// RemapFunc converts a logical byte range in the document-level flattened
// text back into per-run spans. Supplied by the caller so the resolver stays
// independent of the offset map implementation.
type RemapFunc func(start, end int) []RunSpan

// PriorityFunc returns the tie-break rank of an agent. Lower rank wins.
// Agents unknown to the configuration should rank last.
type PriorityFunc func(agentID string) int

// Resolve merges located findings into a deterministic, non-overlapping edit
// plan. Spans are processed in document order; when two regions intersect the
// winner is chosen by severity, then locator confidence, then agent priority.
// The loser keeps any non-overlapping remainder as its own plan entry.
// Adjacent (touching, non-overlapping) regions are never merged.
func Resolve(located []Located, priority PriorityFunc, remap RemapFunc) (EditPlan, []Conflict) {
	work := make([]PlanEntry, 0, len(located))
	for i, l := range located {
		if l.End > l.Start && len(l.Spans) > 0 {
			work = append(work, PlanEntry{
				Finding:    l.Finding,
				Spans:      l.Spans,
				Start:      l.Start,
				End:        l.End,
				Confidence: l.Confidence,
				Origin:     i,
			})
		}
	}
	sort.SliceStable(work, func(i, j int) bool {
		if work[i].Start != work[j].Start {
			return work[i].Start < work[j].Start
		}
		return work[i].End < work[j].End
	})

	var plan []PlanEntry
	var conflicts []Conflict

	for _, entry := range work {
		survivors := settle(entry, &plan, priority, &conflicts)
		plan = append(plan, survivors...)
	}

	sort.SliceStable(plan, func(i, j int) bool { return plan[i].Start < plan[j].Start })
	out := plan[:0]
	for _, entry := range plan {
		// A remainder can shrink to a range with no run text behind it
		// (e.g. only a paragraph boundary); such pieces are dropped.
		entry.Spans = remap(entry.Start, entry.End)
		if len(entry.Spans) > 0 {
			out = append(out, entry)
		}
	}
	return out, conflicts
}

// settle pushes one candidate piece against the accepted plan, trimming
// whichever side loses each pairwise overlap. Returns the surviving pieces
// of the candidate; accepted entries may be trimmed or removed in place.
func settle(cand PlanEntry, plan *[]PlanEntry, priority PriorityFunc, conflicts *[]Conflict) []PlanEntry {
	for i := 0; i < len(*plan); i++ {
		held := (*plan)[i]
		ovStart, ovEnd := maxInt(cand.Start, held.Start), minInt(cand.End, held.End)
		if ovStart >= ovEnd {
			continue
		}

		candWins, rule := beats(cand, held, priority)
		if candWins {
			*conflicts = append(*conflicts, Conflict{
				Winner: cand.Finding.AgentID,
				Loser:  held.Finding.AgentID,
				Rule:   rule,
				Start:  ovStart,
				End:    ovEnd,
			})
			// Trim the held entry; its remainders re-enter the plan.
			remainders := subtract(held, ovStart, ovEnd)
			*plan = append((*plan)[:i], (*plan)[i+1:]...)
			*plan = append(*plan, remainders...)
			i--
			continue
		}

		*conflicts = append(*conflicts, Conflict{
			Winner: held.Finding.AgentID,
			Loser:  cand.Finding.AgentID,
			Rule:   rule,
			Start:  ovStart,
			End:    ovEnd,
		})
		// Trim the candidate and settle each remainder independently.
		var survivors []PlanEntry
		for _, rem := range subtract(cand, ovStart, ovEnd) {
			survivors = append(survivors, settle(rem, plan, priority, conflicts)...)
		}
		return survivors
	}
	return []PlanEntry{cand}
}

// beats reports whether a wins the overlap against b, and which rule decided.
func beats(a, b PlanEntry, priority PriorityFunc) (bool, string) {
	sa, sb := a.Finding.Severity, b.Finding.Severity
	if sa != sb {
		return sa == SeverityMajor, "severity"
	}
	if a.Confidence != b.Confidence {
		return a.Confidence > b.Confidence, "confidence"
	}
	pa, pb := priority(a.Finding.AgentID), priority(b.Finding.AgentID)
	if pa != pb {
		return pa < pb, "agent_priority"
	}
	// Exact tie: the entry already in the plan stays.
	return false, "stable"
}

// subtract removes [ovStart, ovEnd) from an entry, yielding zero, one, or
// two remainder pieces. Spans are recomputed later by the caller's remap.
func subtract(e PlanEntry, ovStart, ovEnd int) []PlanEntry {
	var out []PlanEntry
	if e.Start < ovStart {
		left := e
		left.End = ovStart
		out = append(out, left)
	}
	if ovEnd < e.End {
		right := e
		right.Start = ovEnd
		out = append(out, right)
	}
	return out
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
