// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package stages

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/tarnhelm/bfme2rpt/archive"
	"github.com/tarnhelm/bfme2rpt/model"
)

// IngestService handles replay ingestion into the pipeline.
type IngestService struct {
	store   IngestStore
	dataDir string
	fs      afero.Fs
}

// IngestStore defines the store operations needed by IngestService.
type IngestStore interface {
	InsertUploadBatch(ctx context.Context, batch *model.UploadBatch) (int64, error)
	GetUploadBatch(ctx context.Context, id int64) (*model.UploadBatch, error)
	GetReplayFileBySHA256(ctx context.Context, sha256 string) (*model.ReplayFile, error)
	InsertReplayFile(ctx context.Context, rf *model.ReplayFile) (int64, error)
	InsertWork(ctx context.Context, work *model.Work) (int64, error)
}

// NewIngestService creates a new IngestService.
func NewIngestService(store IngestStore, dataDir string) *IngestService {
	return &IngestService{
		store:   store,
		dataDir: dataDir,
		fs:      afero.NewOsFs(),
	}
}

// SetFS sets the filesystem for testing.
func (s *IngestService) SetFS(fs afero.Fs) {
	s.fs = fs
}

// IngestRequest contains the parameters for ingesting one file. Data
// may hold a raw replay or a ZIP archive of replays; archives are
// expanded during batch ingestion.
type IngestRequest struct {
	Filename string // original filename
	Data     []byte // file content
}

// IngestResult contains the result of ingesting one replay.
type IngestResult struct {
	ReplayFileID int64
	WorkID       int64
	Duplicate    bool // true if the replay was already ingested (idempotent no-op)
}

// IngestFile ingests a single replay into the pipeline. Duplicates are
// detected by content hash and return Duplicate=true without creating
// new rows or work.
func (s *IngestService) IngestFile(ctx context.Context, batchID int64, req IngestRequest) (*IngestResult, error) {
	hash := sha256.Sum256(req.Data)
	hashStr := hex.EncodeToString(hash[:])

	existing, err := s.store.GetReplayFileBySHA256(ctx, hashStr)
	if err != nil {
		return nil, fmt.Errorf("check duplicate: %w", err)
	}
	if existing != nil {
		return &IngestResult{
			ReplayFileID: existing.ID,
			Duplicate:    true,
		}, nil
	}

	stdName := formatStandardFilename(hashStr, req.Filename)
	fsPath := filepath.Join("batches", fmt.Sprintf("%d", batchID), stdName)
	fullPath := filepath.Join(s.dataDir, fsPath)

	if err := s.fs.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return nil, &ErrWriteFile{Op: "mkdir", Path: filepath.Dir(fullPath), Err: err}
	}
	if err := afero.WriteFile(s.fs, fullPath, req.Data, 0644); err != nil {
		return nil, &ErrWriteFile{Op: "write", Path: fullPath, Err: err}
	}

	rf := &model.ReplayFile{
		Name:      filepath.Base(req.Filename),
		SHA256:    hashStr,
		Size:      int64(len(req.Data)),
		FsPath:    fsPath,
		BatchID:   &batchID,
		CreatedAt: time.Now().UTC(),
	}
	rfID, err := s.store.InsertReplayFile(ctx, rf)
	if err != nil {
		return nil, &ErrDatabase{Op: "insert replay_file", Err: err}
	}

	work := &model.Work{
		ReplayFileID: rfID,
		Stage:        model.WorkStageDecode,
		Status:       model.WorkStatusQueued,
		Attempt:      0,
		AvailableAt:  time.Now().UTC(),
	}
	workID, err := s.store.InsertWork(ctx, work)
	if err != nil {
		return nil, &ErrDatabase{Op: "insert work", Err: err}
	}

	return &IngestResult{
		ReplayFileID: rfID,
		WorkID:       workID,
		Duplicate:    false,
	}, nil
}

// IngestBatch creates a batch and ingests multiple files. ZIP uploads
// are expanded in place: each extracted replay becomes its own replay
// file under the same batch.
func (s *IngestService) IngestBatch(ctx context.Context, createdBy string, files []IngestRequest) (int64, []IngestResult, error) {
	batch := &model.UploadBatch{
		Token:     uuid.NewString(),
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
	}
	batchID, err := s.store.InsertUploadBatch(ctx, batch)
	if err != nil {
		return 0, nil, &ErrDatabase{Op: "insert batch", Err: err}
	}

	var results []IngestResult
	for _, file := range files {
		expanded, err := s.expand(file)
		if err != nil {
			return batchID, results, err
		}
		for _, f := range expanded {
			result, err := s.IngestFile(ctx, batchID, f)
			if err != nil {
				return batchID, results, err
			}
			results = append(results, *result)
		}
	}

	return batchID, results, nil
}

// expand turns a ZIP upload into its replay members; anything else
// passes through unchanged.
func (s *IngestService) expand(file IngestRequest) ([]IngestRequest, error) {
	if strings.ToLower(filepath.Ext(file.Filename)) != ".zip" {
		return []IngestRequest{file}, nil
	}
	res, err := archive.ExtractZip(file.Data)
	if err != nil {
		return nil, &ErrBadArchive{Path: file.Filename, Err: err}
	}
	var out []IngestRequest
	for _, m := range res.Members {
		out = append(out, IngestRequest{Filename: m.Name, Data: m.Data})
	}
	return out, nil
}

// formatStandardFilename generates the on-disk filename from the
// content hash, keeping the replay extension: <sha12>.BfME2Replay.
func formatStandardFilename(sha, original string) string {
	ext := filepath.Ext(original)
	if ext == "" {
		ext = ".BfME2Replay"
	}
	return fmt.Sprintf("%s%s", sha[:12], ext)
}
