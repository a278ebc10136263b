package frameindex

import (
	"testing"

	"github.com/kailas-cloud/wayfinder/internal/domain"
)

func testFrames() []domain.FrameRecord {
	return []domain.FrameRecord{
		{FrameID: 3, Position: domain.Point{X: 5, Y: 1}, ObjectDescriptions: []string{"Red fire extinguisher", "Exit sign"}},
		{FrameID: 1, Position: domain.Point{X: 0, Y: 0}, ObjectDescriptions: []string{"Orange Door: main entrance"}},
		{FrameID: 2, Position: domain.Point{X: 2, Y: 3}, ObjectDescriptions: []string{"Wooden desk", "office door, glass"}},
	}
}

func TestSearch_CaseInsensitiveSubstring(t *testing.T) {
	ix := New(testFrames())

	matches := ix.Search("door")
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	// Ordered by ascending frame id regardless of input order.
	if matches[0].FrameID != 1 || matches[1].FrameID != 2 {
		t.Errorf("unexpected order: %d, %d", matches[0].FrameID, matches[1].FrameID)
	}
	if matches[0].MatchedDescriptions[0] != "Orange Door: main entrance" {
		t.Errorf("expected original-case description, got %q", matches[0].MatchedDescriptions[0])
	}
}

func TestSearch_OnlyMatchedDescriptionsCarried(t *testing.T) {
	ix := New(testFrames())

	matches := ix.Search("exit")
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	if len(matches[0].MatchedDescriptions) != 1 || matches[0].MatchedDescriptions[0] != "Exit sign" {
		t.Errorf("expected only the matching description, got %v", matches[0].MatchedDescriptions)
	}
}

func TestSearch_NoMatches(t *testing.T) {
	ix := New(testFrames())

	if got := ix.Search("elevator"); got != nil {
		t.Errorf("expected nil for no matches, got %v", got)
	}
}

func TestSearch_BlankQueryMatchesNothing(t *testing.T) {
	ix := New(testFrames())

	if got := ix.Search("   "); got != nil {
		t.Errorf("blank query must match nothing, got %v", got)
	}
	if got := ix.Search(""); got != nil {
		t.Errorf("empty query must match nothing, got %v", got)
	}
}

func TestSearch_PositionCarried(t *testing.T) {
	ix := New(testFrames())

	matches := ix.Search("desk")
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	if matches[0].Position.X != 2 || matches[0].Position.Y != 3 {
		t.Errorf("position not carried: %+v", matches[0].Position)
	}
}

func TestNew_EmptyAndLen(t *testing.T) {
	ix := New(nil)
	if ix.Len() != 0 {
		t.Errorf("Len = %d, want 0", ix.Len())
	}
	if got := ix.Search("door"); got != nil {
		t.Errorf("expected nil from empty index, got %v", got)
	}

	if New(testFrames()).Len() != 3 {
		t.Error("Len should count all indexed frames")
	}
}

func TestNew_DoesNotAliasInput(t *testing.T) {
	frames := testFrames()
	ix := New(frames)

	frames[0].FrameID = 999
	if m := ix.Search("extinguisher"); len(m) != 1 || m[0].FrameID != 3 {
		t.Error("index must copy input frames, not alias them")
	}
}
