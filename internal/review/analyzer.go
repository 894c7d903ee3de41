package review

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tidwall/gjson"

	"redline/internal/domain"
	"redline/internal/domain/models"
	"redline/internal/domain/services"
	"redline/internal/stage"
)

// responseInstructions is appended to every stage directive. It pins the
// oracle to the structured reply format the adapter decodes.
const responseInstructions = `For each issue found, provide:
- Specific text segment with exact character positions
- Clear explanation of the issue
- Actionable suggestion for improvement
- Confidence score (0-100)
- Severity level (low, medium, high, critical)

Return results in JSON format:
{
  "results": [
    {
      "type": "critical|warning|suggestion|verified",
      "category": "specific-category-from-above",
      "message": "Clear explanation of the issue",
      "suggestion": "Specific improvement suggestion",
      "startIndex": 0,
      "endIndex": 10,
      "confidence": 85,
      "severity": "medium"
    }
  ],
  "confidence": 92,
  "summary": {
    "critical": 2,
    "warnings": 1,
    "suggestions": 5,
    "verified": 3
  }
}

Respond with the JSON object only.`

// Analyzer is the oracle adapter: it formats one request per stage run,
// parses the structured reply, and normalizes it into draft annotations.
// It performs no retries; retry policy belongs to the caller.
type Analyzer struct {
	client services.OracleClient
	logger *slog.Logger
}

// NewAnalyzer creates a new analyzer backed by the given oracle client.
func NewAnalyzer(client services.OracleClient, logger *slog.Logger) *Analyzer {
	return &Analyzer{
		client: client,
		logger: logger,
	}
}

// Run sends the document to the oracle under the stage's directive and
// returns the validated analysis.
//
// Transport failures and timeouts surface as ErrOracleUnavailable; a reply
// that cannot be parsed as the expected structure surfaces as
// ErrMalformedResponse. Individually invalid result rows are dropped and
// counted, never fatal.
func (a *Analyzer) Run(ctx context.Context, title, body string, def *stage.Definition) (*models.StageAnalysis, error) {
	system := def.Directive + "\n\n" + responseInstructions
	user := fmt.Sprintf("Title: %s\n\nContent: %s", title, body)

	raw, err := a.client.Complete(ctx, system, user)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrOracleUnavailable, err)
	}

	payload, err := extractJSONObject(raw)
	if err != nil {
		return nil, err
	}

	var resp wireResponse
	if err := json.Unmarshal([]byte(payload), &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}

	analysis := &models.StageAnalysis{
		Annotations: []*models.Annotation{},
	}
	if resp.Confidence != nil {
		analysis.Confidence = clampInt(*resp.Confidence, 0, 100)
	}

	for i, row := range resp.Results {
		ann, ok := row.toAnnotation(len(body))
		if !ok {
			analysis.Dropped++
			a.logger.Debug("dropped invalid annotation",
				"stage", def.Key,
				"index", i,
			)
			continue
		}
		analysis.Annotations = append(analysis.Annotations, ann)
		analysis.Summary.Tally(ann.Type)
	}

	if analysis.Dropped > 0 {
		a.logger.Warn("dropped invalid annotations from oracle reply",
			"stage", def.Key,
			"dropped", analysis.Dropped,
			"kept", len(analysis.Annotations),
			"oracle", a.client.Name(),
		)
	}

	return analysis, nil
}

// extractJSONObject locates the JSON object in the oracle's reply. Models
// occasionally wrap the payload in markdown code fences or prose, so the
// adapter takes the outermost brace pair and validates it before decoding.
func extractJSONObject(raw string) (string, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end <= start {
		return "", fmt.Errorf("%w: no JSON object in reply", domain.ErrMalformedResponse)
	}

	candidate := raw[start : end+1]
	if !gjson.Valid(candidate) {
		return "", fmt.Errorf("%w: invalid JSON", domain.ErrMalformedResponse)
	}

	// The expected structure requires a results array at the top level.
	results := gjson.Get(candidate, "results")
	if !results.Exists() || !results.IsArray() {
		return "", fmt.Errorf("%w: missing results array", domain.ErrMalformedResponse)
	}

	return candidate, nil
}

// wireResponse is the oracle's reply schema. Pointer fields distinguish
// absent from zero-valued so per-row validation can drop incomplete rows.
type wireResponse struct {
	Results    []wireResult `json:"results"`
	Confidence *int         `json:"confidence"`
}

type wireResult struct {
	Type       *string `json:"type"`
	Category   *string `json:"category"`
	Message    *string `json:"message"`
	Suggestion *string `json:"suggestion"`
	StartIndex *int    `json:"startIndex"`
	EndIndex   *int    `json:"endIndex"`
	Confidence *int    `json:"confidence"`
	Severity   *string `json:"severity"`
}

// toAnnotation validates and normalizes one result row. Offsets are
// trusted but clamped to the body; a row whose range collapses after
// clamping is rejected along with rows missing required fields.
func (r *wireResult) toAnnotation(bodyLen int) (*models.Annotation, bool) {
	if r.Type == nil || r.Category == nil || r.Message == nil ||
		r.StartIndex == nil || r.EndIndex == nil || r.Confidence == nil || r.Severity == nil {
		return nil, false
	}
	if *r.Message == "" {
		return nil, false
	}
	if !models.ValidType(*r.Type) || !models.ValidSeverity(*r.Severity) {
		return nil, false
	}

	start := *r.StartIndex
	end := *r.EndIndex
	if start < 0 {
		return nil, false
	}
	if end > bodyLen {
		end = bodyLen
	}
	if start >= end {
		return nil, false
	}

	ann := &models.Annotation{
		Type:       *r.Type,
		Category:   *r.Category,
		Message:    *r.Message,
		StartIndex: start,
		EndIndex:   end,
		Confidence: clampInt(*r.Confidence, 0, 100),
		Severity:   *r.Severity,
	}
	if r.Suggestion != nil {
		ann.Suggestion = *r.Suggestion
	}
	return ann, true
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
