package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"redline/internal/domain"
)

func TestHandleErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "validation", err: fmt.Errorf("title: %w", domain.ErrValidation), wantStatus: http.StatusBadRequest},
		{name: "unknown stage", err: fmt.Errorf("stage %q: %w", "proofreaders", domain.ErrUnknownStage), wantStatus: http.StatusBadRequest},
		{name: "not found", err: fmt.Errorf("document x: %w", domain.ErrNotFound), wantStatus: http.StatusNotFound},
		{name: "unauthorized", err: domain.ErrUnauthorized, wantStatus: http.StatusUnauthorized},
		{name: "forbidden", err: fmt.Errorf("document x: %w", domain.ErrForbidden), wantStatus: http.StatusForbidden},
		{name: "conflict", err: domain.ErrConflict, wantStatus: http.StatusConflict},
		{name: "stage busy", err: fmt.Errorf("stage legal: %w", domain.ErrStageBusy), wantStatus: http.StatusConflict},
		{name: "oracle unavailable", err: fmt.Errorf("%w: timeout", domain.ErrOracleUnavailable), wantStatus: http.StatusBadGateway},
		{name: "malformed reply", err: fmt.Errorf("%w: no JSON", domain.ErrMalformedResponse), wantStatus: http.StatusBadGateway},
		{name: "unexpected", err: fmt.Errorf("disk on fire"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handleError(rec, tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/problem+json" {
				t.Errorf("content-type = %q", ct)
			}

			var problem map[string]interface{}
			if err := json.Unmarshal(rec.Body.Bytes(), &problem); err != nil {
				t.Fatalf("body is not valid JSON: %v", err)
			}
			if int(problem["status"].(float64)) != tt.wantStatus {
				t.Errorf("problem.status = %v, want %d", problem["status"], tt.wantStatus)
			}
		})
	}
}

func TestHandleErrorHidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	handleError(rec, fmt.Errorf("pq: connection reset while talking to 10.0.0.3"))

	var problem map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &problem); err != nil {
		t.Fatalf("body is not valid JSON: %v", err)
	}
	if detail := problem["detail"]; detail != "internal server error" {
		t.Errorf("detail = %q, internal errors must not leak", detail)
	}
}
