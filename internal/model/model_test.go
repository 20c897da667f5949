package model

import (
	"testing"
)

func TestRiskLevelString(t *testing.T) {
	tests := []struct {
		level RiskLevel
		want  string
	}{
		{RiskLow, "low"},
		{RiskMedium, "medium"},
		{RiskHigh, "high"},
		{RiskLevel(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.level.String(); got != tt.want {
			t.Errorf("RiskLevel(%d).String() = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestChangeKindStatus(t *testing.T) {
	tests := []struct {
		kind ChangeKind
		want string
	}{
		{KindModified, "M"},
		{KindAdded, "A"},
		{KindDeleted, "D"},
		{KindRenamed, "R"},
	}
	for _, tt := range tests {
		if got := tt.kind.Status(); got != tt.want {
			t.Errorf("%s.Status() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestChangeContent(t *testing.T) {
	c := Change{
		Path:       "a.go",
		Insertions: 2,
		Deletions:  1,
		Hunks: []Hunk{{
			Header: "@@ -1,2 +1,3 @@",
			Lines: []Line{
				{Kind: LineContext, Content: "package a"},
				{Kind: LineRemoved, Content: "var x = 1"},
				{Kind: LineAdded, Content: "var x = 2"},
				{Kind: LineAdded, Content: "var y = 3"},
			},
		}},
	}

	if got := c.AddedContent(); len(got) != 2 || got[1] != "var y = 3" {
		t.Errorf("AddedContent() = %v", got)
	}
	if got := c.RemovedContent(); len(got) != 1 || got[0] != "var x = 1" {
		t.Errorf("RemovedContent() = %v", got)
	}
	if got := c.ChangedContent(); len(got) != 3 || got[0] != "var x = 1" {
		t.Errorf("ChangedContent() = %v", got)
	}
	if c.TotalLines() != 3 {
		t.Errorf("TotalLines() = %d, want 3", c.TotalLines())
	}

	compressed := c.WithHunks(nil)
	if len(c.Hunks) != 1 {
		t.Error("WithHunks must not modify the receiver")
	}
	if compressed.Insertions != 2 || len(compressed.Hunks) != 0 {
		t.Errorf("WithHunks copy = %+v", compressed)
	}
}

func TestStats(t *testing.T) {
	files, added, deleted := Stats([]Change{
		{Insertions: 3, Deletions: 1},
		{Insertions: 2},
	})
	if files != 2 || added != 5 || deleted != 1 {
		t.Errorf("Stats() = %d, %d, %d", files, added, deleted)
	}
}
