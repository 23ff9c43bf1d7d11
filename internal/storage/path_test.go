package storage

import "testing"

func TestBuildRunArchivePath(t *testing.T) {
	key, err := BuildRunArchivePath("shop", "public", "orders", "3f1c")
	if err != nil {
		t.Fatalf("BuildRunArchivePath() error = %v", err)
	}
	want := "runs/shop/public/orders/3f1c.parquet"
	if key != want {
		t.Fatalf("BuildRunArchivePath() = %q, want %q", key, want)
	}
}

func TestBuildRunArchivePathEscapesIdentifiers(t *testing.T) {
	key, err := BuildRunArchivePath("shop", "Sales Data", "a/b", "r1")
	if err != nil {
		t.Fatalf("BuildRunArchivePath() error = %v", err)
	}
	want := "runs/shop/Sales%20Data/a%2Fb/r1.parquet"
	if key != want {
		t.Fatalf("BuildRunArchivePath() = %q, want %q", key, want)
	}
}

func TestBuildRunArchivePathRejectsInvalidComponent(t *testing.T) {
	for _, table := range []string{"", " ", ".", ".."} {
		if _, err := BuildRunArchivePath("shop", "public", table, "r1"); err == nil {
			t.Fatalf("expected invalid component error for %q", table)
		}
	}
}
