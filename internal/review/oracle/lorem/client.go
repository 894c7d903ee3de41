package lorem

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	loremgen "github.com/bozaro/golorem"
)

// Client is a mock oracle that fabricates structured findings from lorem
// ipsum text. Used for development and tests without real API keys.
type Client struct {
	generator *loremgen.Lorem
	delay     time.Duration
}

// NewClient creates a new lorem oracle client. delay simulates the
// round-trip to a real analysis service and may be zero.
func NewClient(delay time.Duration) *Client {
	return &Client{
		generator: loremgen.New(),
		delay:     delay,
	}
}

// Name returns the client name.
func (c *Client) Name() string {
	return "lorem"
}

type fakeResult struct {
	Type       string `json:"type"`
	Category   string `json:"category"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion"`
	StartIndex int    `json:"startIndex"`
	EndIndex   int    `json:"endIndex"`
	Confidence int    `json:"confidence"`
	Severity   string `json:"severity"`
}

type fakeReply struct {
	Results    []fakeResult   `json:"results"`
	Confidence int            `json:"confidence"`
	Summary    map[string]int `json:"summary"`
}

// Complete fabricates a reply in the structured format real oracles are
// instructed to produce. Spans cover the first few sentences of the body so
// offsets are always in range.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	if c.delay > 0 {
		select {
		case <-time.After(c.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	body := extractContent(user)

	types := []string{"critical", "warning", "suggestion", "verified"}
	severities := []string{"high", "medium", "low", "low"}

	reply := fakeReply{
		// Marshals as [] rather than null so short bodies still produce
		// a well-formed reply
		Results:    []fakeResult{},
		Confidence: 80,
		Summary:    map[string]int{"critical": 0, "warnings": 0, "suggestions": 0, "verified": 0},
	}

	// One finding per ~80 characters, capped at 4
	count := len(body) / 80
	if count > 4 {
		count = 4
	}
	for i := 0; i < count; i++ {
		start := i * 80
		end := start + 40
		if end > len(body) {
			end = len(body)
		}
		if start >= end {
			break
		}
		reply.Results = append(reply.Results, fakeResult{
			Type:       types[i%len(types)],
			Category:   "mock-review",
			Message:    c.generator.Sentence(5, 10),
			Suggestion: c.generator.Sentence(3, 8),
			StartIndex: start,
			EndIndex:   end,
			Confidence: 60 + 10*i,
			Severity:   severities[i%len(severities)],
		})
	}
	reply.Summary["critical"] = countType(reply.Results, "critical")
	reply.Summary["warnings"] = countType(reply.Results, "warning")
	reply.Summary["suggestions"] = countType(reply.Results, "suggestion")
	reply.Summary["verified"] = countType(reply.Results, "verified")

	payload, err := json.Marshal(reply)
	if err != nil {
		return "", fmt.Errorf("marshal mock reply: %w", err)
	}

	return string(payload), nil
}

func extractContent(user string) string {
	if _, after, found := strings.Cut(user, "\n\nContent: "); found {
		return after
	}
	return user
}

func countType(results []fakeResult, t string) int {
	n := 0
	for _, r := range results {
		if r.Type == t {
			n++
		}
	}
	return n
}
