package memory

import (
	"context"
	"testing"

	"fooddrive/internal/core"
)

func TestMemoryStoreAppend(t *testing.T) {
	s := New()
	d := core.Donation{ID: 1, Name: "Alice", Amount: 5, Role: core.Student, House: core.Hyperion}

	ref, err := s.AppendDonation(context.Background(), d)
	if err != nil || ref != "mem:1" {
		t.Fatalf("unexpected append: ref=%q err=%v", ref, err)
	}

	again, err := s.AppendDonation(context.Background(), d)
	if err != nil || again != ref {
		t.Fatalf("repeat append should return the first ref, got %q err=%v", again, err)
	}
	if n := len(s.Rows()); n != 1 {
		t.Fatalf("expected 1 row, got %d", n)
	}
}

func TestMemoryStoreRejectsInvalid(t *testing.T) {
	s := New()
	if _, err := s.AppendDonation(context.Background(), core.Donation{ID: 2, Name: "", Amount: 1, Role: core.Staff}); err == nil {
		t.Fatal("expected validation error")
	}
	if len(s.Rows()) != 0 {
		t.Fatal("invalid donation should not be stored")
	}
}
