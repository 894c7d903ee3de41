package lorem

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestCompleteProducesParseableReply(t *testing.T) {
	c := NewClient(0)
	body := strings.Repeat("filler text for the mock oracle to annotate. ", 10)
	user := "Title: Test\n\nContent: " + body

	raw, err := c.Complete(context.Background(), "directive", user)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	var reply fakeReply
	if err := json.Unmarshal([]byte(raw), &reply); err != nil {
		t.Fatalf("reply is not valid JSON: %v", err)
	}
	if len(reply.Results) == 0 {
		t.Fatal("expected fabricated results for a long body")
	}
	for i, r := range reply.Results {
		if r.StartIndex < 0 || r.EndIndex > len(body) || r.StartIndex >= r.EndIndex {
			t.Errorf("result %d has out-of-range span [%d,%d) for body of %d bytes", i, r.StartIndex, r.EndIndex, len(body))
		}
		if r.Message == "" {
			t.Errorf("result %d has empty message", i)
		}
	}
}

func TestCompleteShortBody(t *testing.T) {
	c := NewClient(0)

	raw, err := c.Complete(context.Background(), "directive", "Title: T\n\nContent: tiny")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	var reply fakeReply
	if err := json.Unmarshal([]byte(raw), &reply); err != nil {
		t.Fatalf("reply is not valid JSON: %v", err)
	}
	if len(reply.Results) != 0 {
		t.Errorf("got %d results for a body shorter than one span, want 0", len(reply.Results))
	}
}

func TestCompleteHonorsContextCancellation(t *testing.T) {
	c := NewClient(time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.Complete(ctx, "directive", "Title: T\n\nContent: body"); err == nil {
		t.Fatal("expected error from canceled context")
	}
}
