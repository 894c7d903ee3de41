package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"redline/internal/domain"
	"redline/internal/stage"
)

// scriptedOracle returns a canned reply or error.
type scriptedOracle struct {
	reply string
	err   error
}

func (o *scriptedOracle) Complete(ctx context.Context, system, user string) (string, error) {
	if o.err != nil {
		return "", o.err
	}
	return o.reply, nil
}

func (o *scriptedOracle) Name() string { return "scripted" }

func testStage(t *testing.T) *stage.Definition {
	t.Helper()
	registry, err := stage.NewRegistry()
	if err != nil {
		t.Fatalf("load registry: %v", err)
	}
	def, err := registry.Lookup("copy-editors")
	if err != nil {
		t.Fatalf("lookup stage: %v", err)
	}
	return def
}

func newTestAnalyzer(oracle *scriptedOracle) *Analyzer {
	return NewAnalyzer(oracle, slog.New(slog.DiscardHandler))
}

const validReply = `{
	"results": [
		{"type": "critical", "category": "grammar", "message": "Subject-verb disagreement", "suggestion": "use 'are'", "startIndex": 0, "endIndex": 10, "confidence": 90, "severity": "high"},
		{"type": "warning", "category": "style", "message": "Passive voice", "suggestion": "", "startIndex": 12, "endIndex": 30, "confidence": 70, "severity": "medium"},
		{"type": "verified", "category": "fact", "message": "Date confirmed", "suggestion": "", "startIndex": 5, "endIndex": 8, "confidence": 99, "severity": "low"}
	],
	"confidence": 88,
	"summary": {"critical": 1, "warnings": 1, "suggestions": 0, "verified": 1}
}`

func TestAnalyzerValidReply(t *testing.T) {
	a := newTestAnalyzer(&scriptedOracle{reply: validReply})
	body := strings.Repeat("x", 100)

	analysis, err := a.Run(context.Background(), "Title", body, testStage(t))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if len(analysis.Annotations) != 3 {
		t.Fatalf("got %d annotations, want 3", len(analysis.Annotations))
	}
	if analysis.Confidence != 88 {
		t.Errorf("confidence = %d, want 88", analysis.Confidence)
	}
	if analysis.Dropped != 0 {
		t.Errorf("dropped = %d, want 0", analysis.Dropped)
	}
	if analysis.Summary.Critical != 1 || analysis.Summary.Warnings != 1 || analysis.Summary.Verified != 1 {
		t.Errorf("summary = %+v, want 1 critical, 1 warning, 1 verified", analysis.Summary)
	}

	first := analysis.Annotations[0]
	if first.Type != "critical" || first.StartIndex != 0 || first.EndIndex != 10 {
		t.Errorf("first annotation = %+v", first)
	}
}

func TestAnalyzerFencedReply(t *testing.T) {
	fenced := "Here are my findings:\n```json\n" + validReply + "\n```\nLet me know if you need more."
	a := newTestAnalyzer(&scriptedOracle{reply: fenced})

	analysis, err := a.Run(context.Background(), "Title", strings.Repeat("x", 100), testStage(t))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(analysis.Annotations) != 3 {
		t.Errorf("got %d annotations, want 3", len(analysis.Annotations))
	}
}

func TestAnalyzerMalformedReplies(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{name: "no JSON at all", reply: "I could not analyze this document."},
		{name: "invalid JSON", reply: `{"results": [`},
		{name: "missing results array", reply: `{"confidence": 50}`},
		{name: "results not an array", reply: `{"results": "none"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAnalyzer(&scriptedOracle{reply: tt.reply})
			_, err := a.Run(context.Background(), "Title", "body text", testStage(t))
			if !errors.Is(err, domain.ErrMalformedResponse) {
				t.Errorf("err = %v, want ErrMalformedResponse", err)
			}
		})
	}
}

func TestAnalyzerOracleFailure(t *testing.T) {
	a := newTestAnalyzer(&scriptedOracle{err: errors.New("connection refused")})
	_, err := a.Run(context.Background(), "Title", "body text", testStage(t))
	if !errors.Is(err, domain.ErrOracleUnavailable) {
		t.Errorf("err = %v, want ErrOracleUnavailable", err)
	}
}

func TestAnalyzerDropsInvalidRows(t *testing.T) {
	reply := `{
		"results": [
			{"type": "critical", "category": "grammar", "message": "valid row", "startIndex": 0, "endIndex": 5, "confidence": 90, "severity": "high"},
			{"type": "critical", "category": "grammar", "startIndex": 0, "endIndex": 5, "confidence": 90, "severity": "high"},
			{"type": "bogus", "category": "grammar", "message": "bad type", "startIndex": 0, "endIndex": 5, "confidence": 90, "severity": "high"},
			{"type": "warning", "category": "grammar", "message": "bad severity", "startIndex": 0, "endIndex": 5, "confidence": 90, "severity": "extreme"},
			{"type": "warning", "category": "grammar", "message": "negative start", "startIndex": -3, "endIndex": 5, "confidence": 90, "severity": "low"},
			{"type": "warning", "category": "grammar", "message": "empty message stand-in", "startIndex": 8, "endIndex": 4, "confidence": 90, "severity": "low"}
		],
		"confidence": 75
	}`
	a := newTestAnalyzer(&scriptedOracle{reply: reply})

	analysis, err := a.Run(context.Background(), "Title", "0123456789", testStage(t))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(analysis.Annotations) != 1 {
		t.Fatalf("got %d annotations, want 1 survivor", len(analysis.Annotations))
	}
	if analysis.Dropped != 5 {
		t.Errorf("dropped = %d, want 5", analysis.Dropped)
	}
	// Summary reflects survivors, not the oracle's own tallies
	if analysis.Summary.Critical != 1 || analysis.Summary.Warnings != 0 {
		t.Errorf("summary = %+v, want only 1 critical", analysis.Summary)
	}
}

func TestAnalyzerClampsOffsetsAndConfidence(t *testing.T) {
	body := "short body"
	reply := fmt.Sprintf(`{
		"results": [
			{"type": "warning", "category": "style", "message": "runs past the end", "startIndex": 2, "endIndex": 500, "confidence": 150, "severity": "low"},
			{"type": "warning", "category": "style", "message": "fully out of range", "startIndex": %d, "endIndex": 900, "confidence": 50, "severity": "low"}
		],
		"confidence": -10
	}`, len(body)+5)
	a := newTestAnalyzer(&scriptedOracle{reply: reply})

	analysis, err := a.Run(context.Background(), "Title", body, testStage(t))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(analysis.Annotations) != 1 {
		t.Fatalf("got %d annotations, want 1", len(analysis.Annotations))
	}

	ann := analysis.Annotations[0]
	if ann.EndIndex != len(body) {
		t.Errorf("endIndex = %d, want clamped to %d", ann.EndIndex, len(body))
	}
	if ann.Confidence != 100 {
		t.Errorf("confidence = %d, want clamped to 100", ann.Confidence)
	}
	if analysis.Confidence != 0 {
		t.Errorf("overall confidence = %d, want clamped to 0", analysis.Confidence)
	}
	if analysis.Dropped != 1 {
		t.Errorf("dropped = %d, want 1 (range collapsed after clamping)", analysis.Dropped)
	}
}

func TestAnalyzerZeroFindings(t *testing.T) {
	a := newTestAnalyzer(&scriptedOracle{reply: `{"results": [], "confidence": 95}`})

	analysis, err := a.Run(context.Background(), "Title", "a clean document", testStage(t))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(analysis.Annotations) != 0 {
		t.Errorf("got %d annotations, want 0", len(analysis.Annotations))
	}
	if analysis.Confidence != 95 {
		t.Errorf("confidence = %d, want 95", analysis.Confidence)
	}
}
