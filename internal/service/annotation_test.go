package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"redline/internal/domain"
	"redline/internal/domain/models"
	"redline/internal/domain/repositories"
	"redline/internal/domain/services"
)

func newAnnotationFixture(t *testing.T) (*serviceFixture, *models.Document) {
	t.Helper()
	f := newServiceFixture()
	ctx := context.Background()

	doc := &models.Document{OwnerID: "user-1", Title: "t", Content: "0123456789 0123456789", Status: models.StatusUploaded}
	if err := f.docs.Create(ctx, doc); err != nil {
		t.Fatalf("create document: %v", err)
	}

	err := f.anns.BulkInsert(ctx, doc.ID, "fact-checkers", []*models.Annotation{
		{Type: "warning", Category: "unverified-claim", Message: "check this", StartIndex: 11, EndIndex: 21, Confidence: 60, Severity: "medium"},
		{Type: "verified", Category: "source-reliability", Message: "confirmed", StartIndex: 0, EndIndex: 10, Confidence: 95, Severity: "low"},
	})
	if err != nil {
		t.Fatalf("seed annotations: %v", err)
	}
	return f, doc
}

func newAnnotationSvc(f *serviceFixture) services.AnnotationService {
	return NewAnnotationService(f.anns, f.docs, slog.New(slog.DiscardHandler))
}

func TestListAnnotationsOrderedByStart(t *testing.T) {
	f, doc := newAnnotationFixture(t)
	svc := newAnnotationSvc(f)

	anns, err := svc.ListAnnotations(context.Background(), "user-1", doc.ID, "")
	if err != nil {
		t.Fatalf("ListAnnotations: %v", err)
	}
	if len(anns) != 2 {
		t.Fatalf("got %d annotations, want 2", len(anns))
	}
	if anns[0].StartIndex != 0 || anns[1].StartIndex != 11 {
		t.Errorf("order = [%d, %d], want [0, 11]", anns[0].StartIndex, anns[1].StartIndex)
	}
}

func TestListAnnotationsStageFilter(t *testing.T) {
	f, doc := newAnnotationFixture(t)
	svc := newAnnotationSvc(f)
	ctx := context.Background()

	anns, err := svc.ListAnnotations(ctx, "user-1", doc.ID, "fact-checkers")
	if err != nil {
		t.Fatalf("ListAnnotations: %v", err)
	}
	if len(anns) != 2 {
		t.Errorf("got %d for matching stage, want 2", len(anns))
	}

	anns, err = svc.ListAnnotations(ctx, "user-1", doc.ID, "legal")
	if err != nil {
		t.Fatalf("ListAnnotations: %v", err)
	}
	if len(anns) != 0 {
		t.Errorf("got %d for other stage, want 0", len(anns))
	}
}

func TestListAnnotationsForbidden(t *testing.T) {
	f, doc := newAnnotationFixture(t)
	svc := newAnnotationSvc(f)

	if _, err := svc.ListAnnotations(context.Background(), "user-2", doc.ID, ""); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("err = %v, want ErrForbidden", err)
	}
}

func TestMutateAnnotationFlags(t *testing.T) {
	f, doc := newAnnotationFixture(t)
	svc := newAnnotationSvc(f)
	ctx := context.Background()

	anns, _ := svc.ListAnnotations(ctx, "user-1", doc.ID, "")
	target := anns[0]

	on := true
	updated, err := svc.MutateAnnotation(ctx, "user-1", target.ID, &repositories.AnnotationFlagUpdate{IsResolved: &on})
	if err != nil {
		t.Fatalf("MutateAnnotation: %v", err)
	}
	if !updated.IsResolved {
		t.Error("isResolved not set")
	}
	if updated.IsDismissed || updated.AppliedFix {
		t.Errorf("untouched flags changed: dismissed=%v appliedFix=%v", updated.IsDismissed, updated.AppliedFix)
	}
	// Position fields are immutable through this path
	if updated.StartIndex != target.StartIndex || updated.EndIndex != target.EndIndex {
		t.Errorf("offsets changed: [%d,%d)", updated.StartIndex, updated.EndIndex)
	}
}

func TestMutateAnnotationEmptyUpdate(t *testing.T) {
	f, doc := newAnnotationFixture(t)
	svc := newAnnotationSvc(f)
	ctx := context.Background()

	anns, _ := svc.ListAnnotations(ctx, "user-1", doc.ID, "")

	if _, err := svc.MutateAnnotation(ctx, "user-1", anns[0].ID, &repositories.AnnotationFlagUpdate{}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

func TestMutateAnnotationForbidden(t *testing.T) {
	f, doc := newAnnotationFixture(t)
	svc := newAnnotationSvc(f)
	ctx := context.Background()

	anns, _ := svc.ListAnnotations(ctx, "user-1", doc.ID, "")

	on := true
	if _, err := svc.MutateAnnotation(ctx, "user-2", anns[0].ID, &repositories.AnnotationFlagUpdate{IsDismissed: &on}); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("err = %v, want ErrForbidden", err)
	}
}

func TestMutateAnnotationNotFound(t *testing.T) {
	f, _ := newAnnotationFixture(t)
	svc := newAnnotationSvc(f)

	on := true
	if _, err := svc.MutateAnnotation(context.Background(), "user-1", "missing-id", &repositories.AnnotationFlagUpdate{IsResolved: &on}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
