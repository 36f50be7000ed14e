package storage

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestPassKey(t *testing.T) {
	id := uuid.MustParse("3b38ae37-20ee-4ee6-8a93-8b0c08b1b04c")

	tests := []struct {
		name string
		want string
	}{
		{StageInitial + ".png", "passes/3b38ae37-20ee-4ee6-8a93-8b0c08b1b04c/initial.png"},
		{StageFinal + ".png", "passes/3b38ae37-20ee-4ee6-8a93-8b0c08b1b04c/final.png"},
		{"summary.json", "passes/3b38ae37-20ee-4ee6-8a93-8b0c08b1b04c/summary.json"},
	}
	for _, tt := range tests {
		if got := passKey(id, tt.name); got != tt.want {
			t.Errorf("passKey(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestAuditStore_NilSafe(t *testing.T) {
	var s *AuditStore
	ctx := context.Background()
	id := uuid.New()

	if err := s.SaveScreenshot(ctx, id, StageFinal, []byte("png")); err != nil {
		t.Errorf("nil store SaveScreenshot: %v", err)
	}
	if err := s.EnsureBucket(ctx); err != nil {
		t.Errorf("nil store EnsureBucket: %v", err)
	}
	if keys, err := s.ListPassArtifacts(ctx, id); err != nil || keys != nil {
		t.Errorf("nil store ListPassArtifacts = (%v, %v)", keys, err)
	}
	if _, err := s.GetPresignedURL(ctx, "passes/x/final.png"); err == nil {
		t.Error("nil store GetPresignedURL should error")
	}
}
