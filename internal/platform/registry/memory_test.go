package registry

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestMemoryRegistry_ResolveCode(t *testing.T) {
	r := NewMemoryRegistry()
	ctx := context.Background()

	crown, err := r.ResolveCode(ctx, "V31")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if crown.Category != CategoryCrown || crown.Material != "zirconia" {
		t.Errorf("V31 resolved wrong: %+v", crown)
	}

	byID, err := r.Resolve(ctx, crown.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if byID.Code != "V31" {
		t.Errorf("expected V31, got %s", byID.Code)
	}
}

func TestMemoryRegistry_UnknownCode(t *testing.T) {
	r := NewMemoryRegistry()
	if _, err := r.ResolveCode(context.Background(), "Z99"); err == nil {
		t.Error("expected error for unknown code")
	}
	if _, err := r.Resolve(context.Background(), uuid.New()); err == nil {
		t.Error("expected error for unknown id")
	}
}

func TestMemoryRegistry_SeedsFullCatalog(t *testing.T) {
	r := NewMemoryRegistry()
	ctx := context.Background()

	for _, code := range []string{"V30", "H11", "R24", "E61", "S71", "S72", "P81", SentinelDisabled, "A41"} {
		if _, err := r.ResolveCode(ctx, code); err != nil {
			t.Errorf("catalog missing %s: %v", code, err)
		}
	}

	disabled, _ := r.ResolveCode(ctx, SentinelDisabled)
	if disabled.Category != CategoryMarker {
		t.Errorf("disabled sentinel must be a marker, got %s", disabled.Category)
	}
}
