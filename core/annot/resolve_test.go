package annot

import "testing"

// identityRemap returns a single synthetic span covering the range so tests
// can assert on logical offsets without an offset map.
func identityRemap(start, end int) []RunSpan {
	return []RunSpan{{Para: 0, Run: 0, Start: start, Length: end - start}}
}

func testPriority(agentID string) int {
	order := map[string]int{
		"technical_reader": 0,
		"grammar_critic":   1,
		"subject_matter":   2,
		"statistics":       3,
		"chairman":         4,
	}
	if rank, ok := order[agentID]; ok {
		return rank
	}
	return 100
}

func located(agent string, sev Severity, start, end int, conf float64) Located {
	return Located{
		Finding:    Finding{AgentID: agent, Severity: sev, LiteralText: "x"},
		Spans:      identityRemap(start, end),
		Start:      start,
		End:        end,
		Confidence: conf,
	}
}

func TestResolveNoOverlap(t *testing.T) {
	plan, conflicts := Resolve([]Located{
		located("grammar_critic", SeverityMinor, 10, 20, 1.0),
		located("statistics", SeverityMinor, 30, 40, 1.0),
	}, testPriority, identityRemap)

	if len(plan) != 2 {
		t.Fatalf("plan length = %d, want 2", len(plan))
	}
	if len(conflicts) != 0 {
		t.Errorf("conflicts = %d, want 0", len(conflicts))
	}
	if plan[0].Start != 10 || plan[1].Start != 30 {
		t.Errorf("plan not in document order: %+v", plan)
	}
}

func TestResolveMajorBeatsMinorFullOverlap(t *testing.T) {
	plan, conflicts := Resolve([]Located{
		located("grammar_critic", SeverityMinor, 10, 20, 1.0),
		located("statistics", SeverityMajor, 10, 20, 0.9),
	}, testPriority, identityRemap)

	if len(plan) != 1 {
		t.Fatalf("plan length = %d, want 1", len(plan))
	}
	if plan[0].Finding.AgentID != "statistics" {
		t.Errorf("winner = %s, want statistics (major wins)", plan[0].Finding.AgentID)
	}
	if len(conflicts) != 1 || conflicts[0].Rule != "severity" {
		t.Errorf("conflicts = %+v, want one severity conflict", conflicts)
	}
}

func TestResolveLoserKeepsRemainder(t *testing.T) {
	plan, _ := Resolve([]Located{
		located("grammar_critic", SeverityMinor, 10, 30, 1.0),
		located("statistics", SeverityMajor, 20, 40, 1.0),
	}, testPriority, identityRemap)

	if len(plan) != 2 {
		t.Fatalf("plan length = %d, want 2: %+v", len(plan), plan)
	}
	// Minor keeps [10,20), major keeps its full [20,40).
	if plan[0].Finding.AgentID != "grammar_critic" || plan[0].Start != 10 || plan[0].End != 20 {
		t.Errorf("remainder entry = %+v, want grammar_critic [10,20)", plan[0])
	}
	if plan[1].Finding.AgentID != "statistics" || plan[1].Start != 20 || plan[1].End != 40 {
		t.Errorf("winner entry = %+v, want statistics [20,40)", plan[1])
	}
}

func TestResolveConfidenceTieBreak(t *testing.T) {
	plan, conflicts := Resolve([]Located{
		located("grammar_critic", SeverityMinor, 10, 20, 0.9),
		located("statistics", SeverityMinor, 10, 20, 1.0),
	}, testPriority, identityRemap)

	if len(plan) != 1 || plan[0].Finding.AgentID != "statistics" {
		t.Fatalf("higher confidence should win: %+v", plan)
	}
	if len(conflicts) != 1 || conflicts[0].Rule != "confidence" {
		t.Errorf("conflict rule = %+v, want confidence", conflicts)
	}
}

func TestResolveAgentPriorityTieBreak(t *testing.T) {
	plan, conflicts := Resolve([]Located{
		located("chairman", SeverityMinor, 10, 20, 1.0),
		located("technical_reader", SeverityMinor, 10, 20, 1.0),
	}, testPriority, identityRemap)

	if len(plan) != 1 || plan[0].Finding.AgentID != "technical_reader" {
		t.Fatalf("rule-based checker should win ties: %+v", plan)
	}
	if len(conflicts) != 1 || conflicts[0].Rule != "agent_priority" {
		t.Errorf("conflict rule = %+v, want agent_priority", conflicts)
	}
}

func TestResolveExactTieIsStable(t *testing.T) {
	plan, conflicts := Resolve([]Located{
		located("grammar_critic", SeverityMinor, 10, 20, 1.0),
		located("grammar_critic", SeverityMinor, 10, 20, 1.0),
	}, testPriority, identityRemap)

	if len(plan) != 1 {
		t.Fatalf("plan length = %d, want 1", len(plan))
	}
	if len(conflicts) != 1 || conflicts[0].Rule != "stable" {
		t.Errorf("conflict rule = %+v, want stable", conflicts)
	}
}

func TestResolveTracksOrigins(t *testing.T) {
	// Two findings with identical agent and literal text: one survives, one
	// is absorbed. Origin must say which, and remainders keep theirs.
	plan, _ := Resolve([]Located{
		located("grammar_critic", SeverityMinor, 10, 20, 1.0),
		located("grammar_critic", SeverityMinor, 10, 20, 1.0),
		located("statistics", SeverityMinor, 30, 50, 1.0),
		located("technical_reader", SeverityMajor, 35, 45, 1.0),
	}, testPriority, identityRemap)

	byOrigin := map[int]int{}
	for _, e := range plan {
		byOrigin[e.Origin]++
	}
	if byOrigin[0] != 1 || byOrigin[1] != 0 {
		t.Errorf("duplicate pair origins = %v, want the first to survive alone", byOrigin)
	}
	// The split loser yields two remainders, both tied to origin 2.
	if byOrigin[2] != 2 || byOrigin[3] != 1 {
		t.Errorf("split origins = %v, want two remainders for 2 and one entry for 3", byOrigin)
	}
}

func TestResolveAdjacentNeverMerged(t *testing.T) {
	plan, conflicts := Resolve([]Located{
		located("grammar_critic", SeverityMinor, 10, 20, 1.0),
		located("statistics", SeverityMinor, 20, 30, 1.0),
	}, testPriority, identityRemap)

	if len(plan) != 2 {
		t.Fatalf("adjacent spans must stay separate: %+v", plan)
	}
	if len(conflicts) != 0 {
		t.Errorf("touching spans are not a conflict: %+v", conflicts)
	}
}

func TestResolveWinnerSplitsLoserInTwo(t *testing.T) {
	plan, _ := Resolve([]Located{
		located("grammar_critic", SeverityMinor, 0, 50, 1.0),
		located("statistics", SeverityMajor, 20, 30, 1.0),
	}, testPriority, identityRemap)

	if len(plan) != 3 {
		t.Fatalf("plan length = %d, want 3 (loser split around winner): %+v", len(plan), plan)
	}
	wantAgents := []string{"grammar_critic", "statistics", "grammar_critic"}
	wantRanges := [][2]int{{0, 20}, {20, 30}, {30, 50}}
	for i, e := range plan {
		if e.Finding.AgentID != wantAgents[i] || e.Start != wantRanges[i][0] || e.End != wantRanges[i][1] {
			t.Errorf("plan[%d] = %s [%d,%d), want %s %v", i, e.Finding.AgentID, e.Start, e.End, wantAgents[i], wantRanges[i])
		}
	}
}

func TestResolveEmptyAndDegenerate(t *testing.T) {
	plan, conflicts := Resolve(nil, testPriority, identityRemap)
	if len(plan) != 0 || len(conflicts) != 0 {
		t.Errorf("empty input should produce empty plan")
	}

	plan, _ = Resolve([]Located{located("grammar_critic", SeverityMinor, 10, 10, 1.0)}, testPriority, identityRemap)
	if len(plan) != 0 {
		t.Errorf("zero-length span should be dropped: %+v", plan)
	}
}

func TestNormalizeSeverity(t *testing.T) {
	tests := []struct {
		in   string
		want Severity
	}{
		{"major", SeverityMajor},
		{"High", SeverityMajor},
		{"CRITICAL", SeverityMajor},
		{"minor", SeverityMinor},
		{"medium", SeverityMinor},
		{"low", SeverityMinor},
		{"", SeverityMinor},
		{"unknown", SeverityMinor},
	}
	for _, tt := range tests {
		if got := NormalizeSeverity(tt.in); got != tt.want {
			t.Errorf("NormalizeSeverity(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
