package loadtool

import "time"

// Config holds configuration for the classification load test.
type Config struct {
	BaseURL        string        // Base URL of the service
	NumPlayers     int           // Number of player records to generate
	BatchSize      int           // Records per classification request
	Workers        int           // Number of concurrent workers
	Timeout        time.Duration // HTTP request timeout
	ProfileVersion string        // Calibration profile version to classify with
	OutputFile     string        // Output file for generated records
	Verbose        bool          // Enable verbose logging
}

// Record is the wire shape of one raw stat record.
type Record struct {
	PlayerID      string             `json:"player_id"`
	PlayerName    string             `json:"player_name,omitempty"`
	Position      string             `json:"position"`
	RecordVersion string             `json:"record_version,omitempty"`
	Minutes       float64            `json:"minutes"`
	Stats         map[string]float64 `json:"stats"`
}

// ClassifyRequest is the wire shape for POST /classify.
type ClassifyRequest struct {
	ProfileVersion string   `json:"profile_version"`
	Records        []Record `json:"records"`
}

// Report is the subset of the report wire shape the tool inspects.
type Report struct {
	PlayerID          string  `json:"player_id"`
	Archetype         string  `json:"archetype"`
	Verdict           string  `json:"verdict"`
	OverallConfidence float64 `json:"overall_confidence"`
}

// ClassifyResponse is the wire shape returned by POST /classify.
type ClassifyResponse struct {
	ProfileVersion string   `json:"profile_version"`
	Reports        []Report `json:"reports"`
}

// ErrorResponse is the wire shape of an API error.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Stats holds load test statistics.
type Stats struct {
	PlayersGenerated int
	BatchesSubmitted int
	BatchesFailed    int
	ReportsReceived  int
	VerdictCounts    map[string]int
	ArchetypeCounts  map[string]int
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}
