package services

import (
	"context"

	"github.com/google/uuid"
)

// ExecutionResult summarizes one completed run for callers that need the
// counts without re-reading the persisted SyncTask.
type ExecutionResult struct {
	TaskID         uuid.UUID
	AddedSuccess   int
	AddedFail      int
	DeletedSuccess int
	DeletedFail    int
}

// SyncExecutor orchestrates one end-to-end run of a SyncConfig: load
// config+account, list both sides concurrently, filter/rename/diff,
// materialize missing target directories, fan out deletes then transfers,
// and persist a SyncTask plus one SyncTaskItem per attempted unit.
//
// Per-unit failures never abort a run; only a failure before the diff
// (auth, unreadable share, unrecoverable provider error) fails the whole
// task.
type SyncExecutor interface {
	Execute(ctx context.Context, configID uuid.UUID) (ExecutionResult, error)
}
