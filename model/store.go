// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package model

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Store wraps a SQLite database connection for persisting replay data.
type Store struct {
	db *sql.DB
}

// NewStore creates a new Store with the given data source name.
// Use ":memory:" for an in-memory database.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Run the embedded schema
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("exec schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// InsertUploadBatch inserts an UploadBatch and returns its assigned ID.
func (s *Store) InsertUploadBatch(ctx context.Context, b *UploadBatch) (int64, error) {
	const query = `
		INSERT INTO upload_batches (token, created_by, created_at)
		VALUES (?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query,
		b.Token,
		b.CreatedBy,
		b.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("insert upload_batch: %w", err)
	}
	return result.LastInsertId()
}

// GetUploadBatch returns the batch with the given id, or nil.
func (s *Store) GetUploadBatch(ctx context.Context, id int64) (*UploadBatch, error) {
	const query = `SELECT id, token, created_by, created_at FROM upload_batches WHERE id = ?`
	var b UploadBatch
	var createdAt string
	err := s.db.QueryRowContext(ctx, query, id).Scan(&b.ID, &b.Token, &b.CreatedBy, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get upload_batch: %w", err)
	}
	b.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &b, nil
}

// InsertReplayFile inserts a ReplayFile and returns its assigned ID.
func (s *Store) InsertReplayFile(ctx context.Context, rf *ReplayFile) (int64, error) {
	const query = `
		INSERT INTO replay_files (name, sha256, size, fs_path, batch_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	var batchID sql.NullInt64
	if rf.BatchID != nil {
		batchID = sql.NullInt64{Int64: *rf.BatchID, Valid: true}
	}
	result, err := s.db.ExecContext(ctx, query,
		rf.Name,
		rf.SHA256,
		rf.Size,
		rf.FsPath,
		batchID,
		rf.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("insert replay_file: %w", err)
	}
	return result.LastInsertId()
}

// GetReplayFileBySHA256 returns the replay file with the given content
// hash, or nil when the file has never been ingested.
func (s *Store) GetReplayFileBySHA256(ctx context.Context, sha256 string) (*ReplayFile, error) {
	return s.getReplayFile(ctx, `WHERE sha256 = ?`, sha256)
}

// GetReplayFileByID returns the replay file with the given id, or nil.
func (s *Store) GetReplayFileByID(ctx context.Context, id int64) (*ReplayFile, error) {
	return s.getReplayFile(ctx, `WHERE id = ?`, id)
}

func (s *Store) getReplayFile(ctx context.Context, where string, arg any) (*ReplayFile, error) {
	query := `SELECT id, name, sha256, size, fs_path, batch_id, created_at FROM replay_files ` + where
	var rf ReplayFile
	var batchID sql.NullInt64
	var createdAt string
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&rf.ID, &rf.Name, &rf.SHA256, &rf.Size, &rf.FsPath, &batchID, &createdAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get replay_file: %w", err)
	}
	if batchID.Valid {
		rf.BatchID = &batchID.Int64
	}
	rf.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &rf, nil
}

// InsertWork inserts a work row and returns its assigned ID.
func (s *Store) InsertWork(ctx context.Context, w *Work) (int64, error) {
	const query = `
		INSERT INTO work (replay_file_id, stage, status, attempt, available_at)
		VALUES (?, ?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query,
		w.ReplayFileID,
		w.Stage,
		w.Status,
		w.Attempt,
		w.AvailableAt.Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("insert work: %w", err)
	}
	return result.LastInsertId()
}

// ClaimWork atomically claims the oldest queued job for the stage,
// marking it running for the given worker. Returns nil when no work is
// available.
func (s *Store) ClaimWork(ctx context.Context, stage, workerID string) (*Work, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	const update = `
		UPDATE work
		SET status = ?, worker_id = ?, attempt = attempt + 1, started_at = ?
		WHERE id = (
			SELECT id FROM work
			WHERE stage = ? AND status = ? AND available_at <= ?
			ORDER BY available_at, id
			LIMIT 1
		)
		RETURNING id, replay_file_id, stage, status, attempt, worker_id, available_at
	`
	var w Work
	var availableAt string
	var wid sql.NullString
	err := s.db.QueryRowContext(ctx, update,
		WorkStatusRunning, workerID, now,
		stage, WorkStatusQueued, now,
	).Scan(&w.ID, &w.ReplayFileID, &w.Stage, &w.Status, &w.Attempt, &wid, &availableAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claim work: %w", err)
	}
	w.WorkerID = wid.String
	w.AvailableAt, _ = time.Parse(time.RFC3339, availableAt)
	return &w, nil
}

// FinishWork marks a job ok or failed, recording the error code and
// message for failed jobs.
func (s *Store) FinishWork(ctx context.Context, id int64, status, errorCode, errorMsg string) error {
	const query = `
		UPDATE work
		SET status = ?, error_code = ?, error_msg = ?, finished_at = ?
		WHERE id = ?
	`
	_, err := s.db.ExecContext(ctx, query,
		status,
		nullString(errorCode),
		nullString(errorMsg),
		time.Now().UTC().Format(time.RFC3339),
		id,
	)
	if err != nil {
		return fmt.Errorf("finish work: %w", err)
	}
	return nil
}

// ResetFailedWork requeues every failed job for the stage and returns
// the count requeued.
func (s *Store) ResetFailedWork(ctx context.Context, stage string) (int, error) {
	const query = `
		UPDATE work
		SET status = ?, worker_id = NULL, error_code = NULL, error_msg = NULL,
		    started_at = NULL, finished_at = NULL
		WHERE stage = ? AND status = ?
	`
	result, err := s.db.ExecContext(ctx, query, WorkStatusQueued, stage, WorkStatusFailed)
	if err != nil {
		return 0, fmt.Errorf("reset failed work: %w", err)
	}
	n, _ := result.RowsAffected()
	return int(n), nil
}

// GetFailedWork returns the failed jobs for the stage.
func (s *Store) GetFailedWork(ctx context.Context, stage string) ([]Work, error) {
	const query = `
		SELECT id, replay_file_id, stage, status, attempt, error_code, error_msg
		FROM work
		WHERE stage = ? AND status = ?
		ORDER BY id
	`
	rows, err := s.db.QueryContext(ctx, query, stage, WorkStatusFailed)
	if err != nil {
		return nil, fmt.Errorf("get failed work: %w", err)
	}
	defer rows.Close()

	var jobs []Work
	for rows.Next() {
		var w Work
		var code, msg sql.NullString
		if err := rows.Scan(&w.ID, &w.ReplayFileID, &w.Stage, &w.Status, &w.Attempt, &code, &msg); err != nil {
			return nil, fmt.Errorf("scan work: %w", err)
		}
		w.ErrorCode = code.String
		w.ErrorMsg = msg.String
		jobs = append(jobs, w)
	}
	return jobs, rows.Err()
}

// GetWorkSummaryByBatch returns stage -> status -> count for every job
// whose replay file belongs to the batch.
func (s *Store) GetWorkSummaryByBatch(ctx context.Context, batchID int64) (map[string]map[string]int, error) {
	const query = `
		SELECT w.stage, w.status, COUNT(*)
		FROM work w
		JOIN replay_files rf ON rf.id = w.replay_file_id
		WHERE rf.batch_id = ?
		GROUP BY w.stage, w.status
	`
	rows, err := s.db.QueryContext(ctx, query, batchID)
	if err != nil {
		return nil, fmt.Errorf("work summary: %w", err)
	}
	defer rows.Close()

	summary := make(map[string]map[string]int)
	for rows.Next() {
		var stage, status string
		var count int
		if err := rows.Scan(&stage, &status, &count); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		if summary[stage] == nil {
			summary[stage] = make(map[string]int)
		}
		summary[stage][status] = count
	}
	return summary, rows.Err()
}

// InsertDecode inserts a ReplayDecode and its roster rows in a single
// transaction and returns the decode's assigned ID.
func (s *Store) InsertDecode(ctx context.Context, d *ReplayDecode) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin decode tx: %w", err)
	}
	defer tx.Rollback()

	const query = `
		INSERT INTO replay_decodes (
			replay_file_id, map_name, map_path, start_time, end_time,
			duration_secs, max_timecode, winner, winner_certain,
			resyncs, recovered_chunks, created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := tx.ExecContext(ctx, query,
		d.ReplayFileID,
		d.MapName,
		d.MapPath,
		d.StartTime,
		d.EndTime,
		d.DurationSecs,
		d.MaxTimecode,
		d.Winner,
		boolToInt(d.WinnerCertain),
		d.Resyncs,
		d.RecoveredChunks,
		d.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("insert replay_decode: %w", err)
	}
	decodeID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get decode id: %w", err)
	}

	const playerQuery = `
		INSERT INTO replay_players (
			decode_id, name, uid, slot, player_num, team, side, faction,
			color_id, pos_x, pos_y, observer, defeated
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for _, p := range d.Players {
		var posX, posY sql.NullFloat64
		if p.PosX != nil {
			posX = sql.NullFloat64{Float64: *p.PosX, Valid: true}
		}
		if p.PosY != nil {
			posY = sql.NullFloat64{Float64: *p.PosY, Valid: true}
		}
		_, err := tx.ExecContext(ctx, playerQuery,
			decodeID,
			p.Name,
			nullString(p.UID),
			p.Slot,
			p.PlayerNum,
			p.Team,
			nullString(p.Side),
			nullString(p.Faction),
			p.ColorID,
			posX,
			posY,
			boolToInt(p.Observer),
			boolToInt(p.Defeated),
		)
		if err != nil {
			return 0, fmt.Errorf("insert replay_player: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit decode tx: %w", err)
	}
	return decodeID, nil
}

// GetDecodeByID returns a decode with its roster, or nil.
func (s *Store) GetDecodeByID(ctx context.Context, id int64) (*ReplayDecode, error) {
	const query = `
		SELECT id, replay_file_id, map_name, map_path, start_time, end_time,
		       duration_secs, max_timecode, winner, winner_certain,
		       resyncs, recovered_chunks, created_at
		FROM replay_decodes WHERE id = ?
	`
	var d ReplayDecode
	var certain int
	var createdAt string
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&d.ID, &d.ReplayFileID, &d.MapName, &d.MapPath, &d.StartTime, &d.EndTime,
		&d.DurationSecs, &d.MaxTimecode, &d.Winner, &certain,
		&d.Resyncs, &d.RecoveredChunks, &createdAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get replay_decode: %w", err)
	}
	d.WinnerCertain = certain != 0
	d.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

	players, err := s.getDecodePlayers(ctx, d.ID)
	if err != nil {
		return nil, err
	}
	d.Players = players
	return &d, nil
}

func (s *Store) getDecodePlayers(ctx context.Context, decodeID int64) ([]*ReplayPlayer, error) {
	const query = `
		SELECT id, decode_id, name, uid, slot, player_num, team, side, faction,
		       color_id, pos_x, pos_y, observer, defeated
		FROM replay_players WHERE decode_id = ? ORDER BY slot
	`
	rows, err := s.db.QueryContext(ctx, query, decodeID)
	if err != nil {
		return nil, fmt.Errorf("get replay_players: %w", err)
	}
	defer rows.Close()

	var players []*ReplayPlayer
	for rows.Next() {
		var p ReplayPlayer
		var uid, side, faction sql.NullString
		var posX, posY sql.NullFloat64
		var observer, defeated int
		if err := rows.Scan(
			&p.ID, &p.DecodeID, &p.Name, &uid, &p.Slot, &p.PlayerNum, &p.Team,
			&side, &faction, &p.ColorID, &posX, &posY, &observer, &defeated,
		); err != nil {
			return nil, fmt.Errorf("scan replay_player: %w", err)
		}
		p.UID = uid.String
		p.Side = side.String
		p.Faction = faction.String
		if posX.Valid {
			p.PosX = &posX.Float64
		}
		if posY.Valid {
			p.PosY = &posY.Float64
		}
		p.Observer = observer != 0
		p.Defeated = defeated != 0
		players = append(players, &p)
	}
	return players, rows.Err()
}

// ListDecodes returns the newest decodes, roster included, up to limit.
func (s *Store) ListDecodes(ctx context.Context, limit int) ([]*ReplayDecode, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `SELECT id FROM replay_decodes ORDER BY id DESC LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list replay_decodes: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan decode id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var decodes []*ReplayDecode
	for _, id := range ids {
		d, err := s.GetDecodeByID(ctx, id)
		if err != nil {
			return nil, err
		}
		decodes = append(decodes, d)
	}
	return decodes, nil
}

// TableStats returns row counts for all tables.
func (s *Store) TableStats(ctx context.Context) (map[string]int64, error) {
	tables := []string{
		"users",
		"user_roles",
		"upload_batches",
		"replay_files",
		"work",
		"replay_decodes",
		"replay_players",
	}

	stats := make(map[string]int64, len(tables))
	for _, table := range tables {
		var count int64
		query := fmt.Sprintf("SELECT COUNT(*) FROM %s", table)
		if err := s.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
			return nil, fmt.Errorf("count %s: %w", table, err)
		}
		stats[table] = count
	}

	return stats, nil
}

// Helper functions

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
