package repository_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/okian/fpti/internal/adapters/repository"
)

func newTestArchive(t *testing.T) *repository.SQLiteArchive {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fpti.db")
	archive, err := repository.NewSQLiteArchive(path)
	if err != nil {
		t.Fatalf("NewSQLiteArchive: %v", err)
	}
	t.Cleanup(func() { _ = archive.Close() })
	return archive
}

func TestSaveProfileRoundTrip(t *testing.T) {
	ctx := context.Background()
	archive := newTestArchive(t)

	payload := []byte("version: v1\n")
	if err := archive.SaveProfile(ctx, "v1", "abc123", payload); err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}

	got, checksum, err := archive.ProfilePayload(ctx, "v1")
	if err != nil {
		t.Fatalf("ProfilePayload: %v", err)
	}
	if string(got) != string(payload) {
		t.Errorf("payload = %q, want %q", got, payload)
	}
	if checksum != "abc123" {
		t.Errorf("checksum = %q, want abc123", checksum)
	}
}

func TestSaveProfileIdempotentAndConflict(t *testing.T) {
	ctx := context.Background()
	archive := newTestArchive(t)

	if err := archive.SaveProfile(ctx, "v1", "abc123", []byte("a")); err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}

	// Same version, same checksum: no-op.
	if err := archive.SaveProfile(ctx, "v1", "abc123", []byte("a")); err != nil {
		t.Errorf("idempotent SaveProfile: %v", err)
	}

	// Same version, different checksum: conflict.
	err := archive.SaveProfile(ctx, "v1", "def456", []byte("b"))
	if !errors.Is(err, repository.ErrVersionConflict) {
		t.Errorf("SaveProfile conflict = %v, want ErrVersionConflict", err)
	}
}

func TestProfilePayloadNotFound(t *testing.T) {
	ctx := context.Background()
	archive := newTestArchive(t)

	_, _, err := archive.ProfilePayload(ctx, "missing")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("ProfilePayload = %v, want ErrNotFound", err)
	}
}

func TestSavePopulationRoundTrip(t *testing.T) {
	ctx := context.Background()
	archive := newTestArchive(t)

	payload := []byte(`{"tag":"2024-epl","size":42}`)
	if err := archive.SavePopulation(ctx, "2024-epl", "c0ffee", payload); err != nil {
		t.Fatalf("SavePopulation: %v", err)
	}

	got, checksum, err := archive.PopulationPayload(ctx, "2024-epl")
	if err != nil {
		t.Fatalf("PopulationPayload: %v", err)
	}
	if string(got) != string(payload) {
		t.Errorf("payload = %q, want %q", got, payload)
	}
	if checksum != "c0ffee" {
		t.Errorf("checksum = %q, want c0ffee", checksum)
	}

	_, _, err = archive.PopulationPayload(ctx, "missing")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("PopulationPayload = %v, want ErrNotFound", err)
	}
}

func TestSaveReportImmutable(t *testing.T) {
	ctx := context.Background()
	archive := newTestArchive(t)

	rec := repository.ReportRecord{
		PlayerID:       "p1",
		RecordVersion:  "2024-epl",
		ProfileVersion: "v1",
		Archetype:      "SWIN",
		Verdict:        "complete",
		Payload:        []byte(`{"archetype":"SWIN"}`),
	}
	if err := archive.SaveReport(ctx, rec); err != nil {
		t.Fatalf("SaveReport: %v", err)
	}

	// A second write under the same key is ignored, keeping the first report.
	changed := rec
	changed.Archetype = "FPCO"
	if err := archive.SaveReport(ctx, changed); err != nil {
		t.Fatalf("SaveReport second write: %v", err)
	}

	got, err := archive.Report(ctx, "p1", "2024-epl", "v1")
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if got.Archetype != "SWIN" {
		t.Errorf("archetype = %q, want SWIN (first write wins)", got.Archetype)
	}

	// A different profile version is a distinct report.
	other := rec
	other.ProfileVersion = "v2"
	other.Archetype = "FPCO"
	if err := archive.SaveReport(ctx, other); err != nil {
		t.Fatalf("SaveReport v2: %v", err)
	}
	gotV2, err := archive.Report(ctx, "p1", "2024-epl", "v2")
	if err != nil {
		t.Fatalf("Report v2: %v", err)
	}
	if gotV2.Archetype != "FPCO" {
		t.Errorf("v2 archetype = %q, want FPCO", gotV2.Archetype)
	}
}

func TestReportNotFound(t *testing.T) {
	ctx := context.Background()
	archive := newTestArchive(t)

	_, err := archive.Report(ctx, "p1", "2024-epl", "v1")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Report = %v, want ErrNotFound", err)
	}
}

func TestCounts(t *testing.T) {
	ctx := context.Background()
	archive := newTestArchive(t)

	if err := archive.SaveProfile(ctx, "v1", "a", []byte("a")); err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}
	if err := archive.SavePopulation(ctx, "t1", "b", []byte("b")); err != nil {
		t.Fatalf("SavePopulation: %v", err)
	}
	for _, player := range []string{"p1", "p2", "p3"} {
		err := archive.SaveReport(ctx, repository.ReportRecord{
			PlayerID:       player,
			RecordVersion:  "2024-epl",
			ProfileVersion: "v1",
			Archetype:      "SWIN",
			Verdict:        "complete",
			Payload:        []byte("{}"),
		})
		if err != nil {
			t.Fatalf("SaveReport %s: %v", player, err)
		}
	}

	profiles, populations, reports, err := archive.Counts(ctx)
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	if profiles != 1 || populations != 1 || reports != 3 {
		t.Errorf("Counts = %d/%d/%d, want 1/1/3", profiles, populations, reports)
	}
}
