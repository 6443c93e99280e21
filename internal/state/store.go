// Package state provides run history and dataset snapshot tracking for
// riskline using SQLite.
package state

import "time"

// RunStatus represents the lifecycle state of a pipeline run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// RunKind identifies which pipeline stage a run executed.
type RunKind string

const (
	RunKindIngest RunKind = "ingest"
	RunKindClean  RunKind = "clean"
	RunKindExport RunKind = "export"
	RunKindReport RunKind = "report"
)

// Run is one recorded pipeline execution.
type Run struct {
	ID          string
	Kind        RunKind
	Environment string
	Status      RunStatus
	StartedAt   time.Time
	CompletedAt *time.Time
	Error       string
}

// Snapshot is a content-addressed record of an ingested dataset version.
type Snapshot struct {
	ID         int64
	Hash       string
	SourcePath string
	Table      string
	Rows       int64
	Columns    int64
	CreatedAt  time.Time
}

// Store is the persistence contract for run history and snapshots.
type Store interface {
	Open(path string) error
	Close() error
	Migrate() error

	CreateRun(kind RunKind, env string) (*Run, error)
	GetRun(id string) (*Run, error)
	CompleteRun(id string, status RunStatus, errMsg string) error
	GetLatestRun(env string) (*Run, error)
	ListRuns(limit int) ([]*Run, error)

	RecordSnapshot(snap *Snapshot) (*Snapshot, error)
	GetSnapshotByHash(hash string) (*Snapshot, error)
	ListSnapshots(limit int) ([]*Snapshot, error)
}
