// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package handlers

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/tarnhelm/bfme2rpt/archive"
	"github.com/tarnhelm/bfme2rpt/model"
	"github.com/tarnhelm/bfme2rpt/pipelines/stages"
	"github.com/tarnhelm/bfme2rpt/web/auth"
)

// maxUploadBytes caps one upload request. Replays run a few hundred KB;
// archives of a tournament round stay well under this.
const maxUploadBytes = 550 << 20

type uploadResponse struct {
	BatchID int64                     `json:"batchId"`
	Files   []uploadFileResult        `json:"files"`
	Summary map[string]map[string]int `json:"summary,omitempty"`
}

type uploadFileResult struct {
	ReplayFileID int64 `json:"replayFileId"`
	WorkID       int64 `json:"workId,omitempty"`
	Duplicate    bool  `json:"duplicate,omitempty"`
}

// Upload accepts a multipart form of replay files or ZIP archives,
// ingests them as one batch, and drains the decode queue before
// answering so the caller sees final per-file status.
func (h *Handlers) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	var files []stages.IngestRequest
	for _, headers := range r.MultipartForm.File {
		for _, fh := range headers {
			if !acceptableUpload(fh.Filename) {
				writeError(w, http.StatusBadRequest, "unsupported file type: "+filepath.Base(fh.Filename))
				return
			}
			f, err := fh.Open()
			if err != nil {
				writeError(w, http.StatusBadRequest, "unreadable upload: "+filepath.Base(fh.Filename))
				return
			}
			data, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				writeError(w, http.StatusBadRequest, "unreadable upload: "+filepath.Base(fh.Filename))
				return
			}
			files = append(files, stages.IngestRequest{Filename: fh.Filename, Data: data})
		}
	}
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "no files in upload")
		return
	}

	createdBy := "anonymous"
	if session := auth.GetSessionFromRequest(r, h.sessions); session != nil {
		createdBy = session.User.Handle
	}

	batchID, results, err := h.ingest.IngestBatch(r.Context(), createdBy, files)
	if err != nil {
		var badArchive *stages.ErrBadArchive
		if errors.As(err, &badArchive) {
			writeError(w, http.StatusBadRequest, badArchive.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "ingest failed")
		return
	}

	// Drain the decode queue synchronously. Decode failures are recorded
	// on the work rows, not surfaced as HTTP errors.
	for {
		processed, err := h.worker.ProcessJob(r.Context(), model.WorkStageDecode)
		if err != nil && !processed {
			writeError(w, http.StatusInternalServerError, "decode worker failed")
			return
		}
		if !processed {
			break
		}
	}

	resp := uploadResponse{BatchID: batchID}
	for _, res := range results {
		resp.Files = append(resp.Files, uploadFileResult{
			ReplayFileID: res.ReplayFileID,
			WorkID:       res.WorkID,
			Duplicate:    res.Duplicate,
		})
	}
	if summary, err := h.store.GetWorkSummaryByBatch(r.Context(), batchID); err == nil {
		resp.Summary = summary
	}

	writeJSON(w, http.StatusOK, resp)
}

// acceptableUpload reports whether the filename names a replay or a ZIP
// archive of replays.
func acceptableUpload(name string) bool {
	if archive.IsReplayName(name) {
		return true
	}
	return strings.ToLower(filepath.Ext(name)) == ".zip"
}
