// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package model

import "time"

// UploadBatch groups replay files that arrived in one upload.
type UploadBatch struct {
	ID        int64     `json:"id"        db:"id"`
	Token     string    `json:"token"     db:"token"` // uuid handed back to the uploader
	CreatedBy string    `json:"createdBy" db:"created_by"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// ReplayFile is one raw replay document as uploaded, before decoding.
type ReplayFile struct {
	ID        int64     `json:"id"        db:"id"`
	Name      string    `json:"name"      db:"name"` // original filename (sanitized)
	SHA256    string    `json:"sha256"    db:"sha256"`
	Size      int64     `json:"size"      db:"size"`
	FsPath    string    `json:"fsPath"    db:"fs_path"` // relative to the data dir
	BatchID   *int64    `json:"batchId,omitempty" db:"batch_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Work stages and statuses for the decode queue.
const (
	WorkStageDecode = "decode"

	WorkStatusQueued  = "queued"
	WorkStatusRunning = "running"
	WorkStatusOk      = "ok"
	WorkStatusFailed  = "failed"
)

// Work is one queue row: a replay file waiting for (or finished with) a
// pipeline stage.
type Work struct {
	ID           int64      `json:"id"           db:"id"`
	ReplayFileID int64      `json:"replayFileId" db:"replay_file_id"`
	Stage        string     `json:"stage"        db:"stage"`
	Status       string     `json:"status"       db:"status"`
	Attempt      int        `json:"attempt"      db:"attempt"`
	WorkerID     string     `json:"workerId,omitempty"  db:"worker_id"`
	ErrorCode    string     `json:"errorCode,omitempty" db:"error_code"`
	ErrorMsg     string     `json:"errorMsg,omitempty"  db:"error_msg"`
	AvailableAt  time.Time  `json:"availableAt"  db:"available_at"`
	StartedAt    *time.Time `json:"startedAt,omitempty"  db:"started_at"`
	FinishedAt   *time.Time `json:"finishedAt,omitempty" db:"finished_at"`
}

// ReplayDecode is the decoded summary of one replay file.
type ReplayDecode struct {
	ID           int64  `json:"id"           db:"id"`
	ReplayFileID int64  `json:"replayFileId" db:"replay_file_id"`
	MapName      string `json:"mapName"      db:"map_name"`
	MapPath      string `json:"mapPath"      db:"map_path"`
	StartTime    int64  `json:"startTime"    db:"start_time"` // unix seconds
	EndTime      int64  `json:"endTime"      db:"end_time"`
	DurationSecs int64  `json:"durationSecs" db:"duration_secs"`
	MaxTimecode  int64  `json:"maxTimecode"  db:"max_timecode"`

	Winner        string `json:"winner"        db:"winner"`
	WinnerCertain bool   `json:"winnerCertain" db:"winner_certain"`

	Resyncs         int `json:"resyncs"         db:"resyncs"`
	RecoveredChunks int `json:"recoveredChunks" db:"recovered_chunks"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	Players []*ReplayPlayer `json:"players,omitempty"` // for JSON export
}

// ReplayPlayer is one roster entry of a decoded replay.
type ReplayPlayer struct {
	ID       int64 `json:"id"       db:"id"`
	DecodeID int64 `json:"decodeId" db:"decode_id"`

	Name      string `json:"name"      db:"name"`
	UID       string `json:"uid,omitempty" db:"uid"`
	Slot      int    `json:"slot"      db:"slot"`
	PlayerNum int    `json:"playerNum" db:"player_num"`
	Team      int    `json:"team"      db:"team"`
	Side      string `json:"side,omitempty"    db:"side"`
	Faction   string `json:"faction,omitempty" db:"faction"`
	ColorID   int    `json:"colorId"   db:"color_id"`

	// World position, nullable when inference found no build or unit
	// order for the player.
	PosX *float64 `json:"posX,omitempty" db:"pos_x"`
	PosY *float64 `json:"posY,omitempty" db:"pos_y"`

	Observer bool `json:"observer,omitempty" db:"observer"`
	Defeated bool `json:"defeated,omitempty" db:"defeated"`
}
