// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package stages

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"github.com/tarnhelm/bfme2rpt"
	"github.com/tarnhelm/bfme2rpt/model"
)

// WorkerService claims and executes pipeline jobs.
type WorkerService struct {
	store    WorkerStore
	dataDir  string
	workerID string
	fs       afero.Fs
	decoder  bfme2rpt.Decoder
}

// WorkerStore defines the store operations needed by WorkerService.
type WorkerStore interface {
	ClaimWork(ctx context.Context, stage, workerID string) (*model.Work, error)
	FinishWork(ctx context.Context, id int64, status, errorCode, errorMsg string) error
	GetReplayFileByID(ctx context.Context, id int64) (*model.ReplayFile, error)

	// For the decode stage - persist decoded data
	InsertDecode(ctx context.Context, d *model.ReplayDecode) (int64, error)
}

// NewWorkerService creates a new WorkerService.
func NewWorkerService(store WorkerStore, dataDir, workerID string) *WorkerService {
	if workerID == "" {
		hostname, _ := os.Hostname()
		workerID = fmt.Sprintf("%s:%d", hostname, os.Getpid())
	}
	return &WorkerService{
		store:    store,
		dataDir:  dataDir,
		workerID: workerID,
		fs:       afero.NewOsFs(),
	}
}

// SetFS sets the filesystem for testing.
func (w *WorkerService) SetFS(fs afero.Fs) {
	w.fs = fs
}

// WorkResult represents the outcome of executing a job.
type WorkResult struct {
	Success      bool
	ErrorCode    string
	ErrorMessage string
}

// ClaimJob atomically claims a queued job for the given stage.
// Returns nil if no work is available.
func (w *WorkerService) ClaimJob(ctx context.Context, stage string) (*model.Work, error) {
	return w.store.ClaimWork(ctx, stage, w.workerID)
}

// ExecuteDecode reads a replay file, decodes it, and persists the
// decoded summary and roster.
func (w *WorkerService) ExecuteDecode(ctx context.Context, job *model.Work, rf *model.ReplayFile) error {
	fullPath := filepath.Join(w.dataDir, rf.FsPath)

	data, err := afero.ReadFile(w.fs, fullPath)
	if err != nil {
		return &ErrWriteFile{Op: "read", Path: fullPath, Err: err}
	}

	replay, err := w.decoder.Decode(data)
	if err != nil {
		return &ErrNotAReplay{Path: fullPath, Err: err}
	}

	row := DecodeToModel(rf.ID, replay)
	if _, err := w.store.InsertDecode(ctx, row); err != nil {
		return &ErrDatabase{Op: "persist decode result", Err: err}
	}

	return nil
}

// FinishJob marks a job as completed (ok or failed) based on the result.
func (w *WorkerService) FinishJob(ctx context.Context, job *model.Work, result WorkResult) error {
	status := model.WorkStatusOk
	errorCode := ""
	errorMsg := ""

	if !result.Success {
		status = model.WorkStatusFailed
		errorCode = result.ErrorCode
		errorMsg = result.ErrorMessage
	}

	return w.store.FinishWork(ctx, job.ID, status, errorCode, errorMsg)
}

// GetReplayFile retrieves the replay file associated with a job.
func (w *WorkerService) GetReplayFile(ctx context.Context, job *model.Work) (*model.ReplayFile, error) {
	return w.store.GetReplayFileByID(ctx, job.ReplayFileID)
}

// ProcessJob claims, executes, and finishes a single job for the given stage.
// Returns (jobProcessed, error). jobProcessed is true if a job was claimed.
func (w *WorkerService) ProcessJob(ctx context.Context, stage string) (bool, error) {
	job, err := w.ClaimJob(ctx, stage)
	if err != nil {
		return false, fmt.Errorf("claim job: %w", err)
	}
	if job == nil {
		return false, nil
	}

	rf, err := w.GetReplayFile(ctx, job)
	if err != nil {
		w.FinishJob(ctx, job, WorkResult{
			Success:      false,
			ErrorCode:    ErrCodeDatabase,
			ErrorMessage: fmt.Sprintf("get replay file: %v", err),
		})
		return true, fmt.Errorf("get replay file: %w", err)
	}
	if rf == nil {
		w.FinishJob(ctx, job, WorkResult{
			Success:      false,
			ErrorCode:    ErrCodeDatabase,
			ErrorMessage: "replay file not found",
		})
		return true, fmt.Errorf("replay file %d not found", job.ReplayFileID)
	}

	var execErr error
	switch stage {
	case model.WorkStageDecode:
		execErr = w.ExecuteDecode(ctx, job, rf)
	default:
		execErr = fmt.Errorf("unknown stage: %s", stage)
	}

	if execErr != nil {
		w.FinishJob(ctx, job, WorkResult{
			Success:      false,
			ErrorCode:    ErrorCode(execErr),
			ErrorMessage: execErr.Error(),
		})
		return true, execErr
	}

	if err := w.FinishJob(ctx, job, WorkResult{Success: true}); err != nil {
		return true, fmt.Errorf("finish job: %w", err)
	}

	return true, nil
}

// DecodeToModel flattens a decoded replay into its store rows.
func DecodeToModel(replayFileID int64, r *bfme2rpt.Replay) *model.ReplayDecode {
	d := &model.ReplayDecode{
		ReplayFileID:    replayFileID,
		MapName:         r.MapName,
		MapPath:         r.MapPath,
		StartTime:       int64(r.StartTime),
		EndTime:         int64(r.EndTime),
		DurationSecs:    int64(r.DurationSecs),
		MaxTimecode:     int64(r.MaxTimecode),
		Winner:          r.Winner.String(),
		WinnerCertain:   r.Winner.Certain(),
		Resyncs:         r.Diagnostics.Resyncs,
		RecoveredChunks: r.Diagnostics.RecoveredChunks,
		CreatedAt:       time.Now().UTC(),
	}
	for _, p := range r.Players {
		row := &model.ReplayPlayer{
			Name:      p.Name,
			UID:       p.UID,
			Slot:      p.Slot,
			PlayerNum: int(p.PlayerNum),
			Team:      p.TeamRaw,
			ColorID:   p.ColorID,
			Observer:  p.Observer,
			Defeated:  p.Defeated,
		}
		if p.Side != bfme2rpt.SideNone {
			row.Side = p.Side.String()
		}
		if p.Faction != bfme2rpt.FactionUnknown {
			row.Faction = p.Faction.String()
		}
		if p.Position != nil {
			x, y := float64(p.Position.X), float64(p.Position.Y)
			row.PosX, row.PosY = &x, &y
		}
		d.Players = append(d.Players, row)
	}
	return d
}
