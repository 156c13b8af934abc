// Package repository persists versioned calibration artifacts and
// classification reports. Profiles and populations are published under
// version tags with content checksums so any report's profile-version field
// stays resolvable to the exact parameters used, even after recalibration.
package repository

import "context"

// Archive provides version-tagged persistence for profiles, reference
// populations and classification reports.
type Archive interface {
	// SaveProfile publishes a profile document under a version tag.
	// Re-publishing identical content is a no-op; different content under an
	// existing version fails with ErrVersionConflict.
	SaveProfile(ctx context.Context, version, checksum string, payload []byte) error

	// ProfilePayload returns the published document and checksum for a version.
	ProfilePayload(ctx context.Context, version string) ([]byte, string, error)

	// SavePopulation publishes a population snapshot under a tag, with the
	// same immutability rules as profiles.
	SavePopulation(ctx context.Context, tag, checksum string, payload []byte) error

	// PopulationPayload returns the published snapshot and checksum for a tag.
	PopulationPayload(ctx context.Context, tag string) ([]byte, string, error)

	// SaveReport archives one classification report, keyed by
	// (player id, record version, profile version). Reports are immutable;
	// saving the same key twice keeps the first row.
	SaveReport(ctx context.Context, rec ReportRecord) error

	// Report returns an archived report payload.
	// Fails with ErrNotFound when the key was never archived.
	Report(ctx context.Context, playerID, recordVersion, profileVersion string) (ReportRecord, error)

	// Counts returns the number of archived profiles, populations and reports.
	Counts(ctx context.Context) (profiles, populations, reports int, err error)

	Close() error
}

// ReportRecord is the archived form of one classification report.
type ReportRecord struct {
	PlayerID       string
	RecordVersion  string
	ProfileVersion string
	PopulationTag  string
	Archetype      string
	Verdict        string
	Payload        []byte // full report JSON
}
