package services_test

import (
	"context"
	"testing"

	"stemsplit/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithJobID(ctx, "job-123")
	ctx = services.WithOperation(ctx, "separate")

	if id, ok := services.JobIDFromContext(ctx); !ok || id != "job-123" {
		t.Fatalf("unexpected job id: %v %v", id, ok)
	}
	if op, ok := services.OperationFromContext(ctx); !ok || op != "separate" {
		t.Fatalf("unexpected operation: %v %v", op, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithJobID(ctx, "")
	ctx = services.WithOperation(ctx, "")
	if _, ok := services.JobIDFromContext(ctx); ok {
		t.Fatal("expected no job id value")
	}
	if _, ok := services.OperationFromContext(ctx); ok {
		t.Fatal("expected no operation value")
	}
}
