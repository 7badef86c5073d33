// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package stages

import (
	"errors"
	"fmt"

	"github.com/tarnhelm/bfme2rpt"
)

// ErrWriteFile is returned when file I/O operations fail.
type ErrWriteFile struct {
	Op   string // mkdir, write, read
	Path string
	Err  error
}

func (e *ErrWriteFile) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *ErrWriteFile) Unwrap() error {
	return e.Err
}

// ErrDatabase is returned when database operations fail.
type ErrDatabase struct {
	Op  string
	Err error
}

func (e *ErrDatabase) Error() string {
	return fmt.Sprintf("database %s: %v", e.Op, e.Err)
}

func (e *ErrDatabase) Unwrap() error {
	return e.Err
}

// ErrNotAReplay is returned when a file fails the replay signature
// check.
type ErrNotAReplay struct {
	Path string
	Err  error
}

func (e *ErrNotAReplay) Error() string {
	return fmt.Sprintf("not a replay %s: %v", e.Path, e.Err)
}

func (e *ErrNotAReplay) Unwrap() error {
	return e.Err
}

// ErrBadArchive is returned when an uploaded container cannot be read.
type ErrBadArchive struct {
	Path string
	Err  error
}

func (e *ErrBadArchive) Error() string {
	return fmt.Sprintf("bad archive %s: %v", e.Path, e.Err)
}

func (e *ErrBadArchive) Unwrap() error {
	return e.Err
}

// Error code constants for database storage.
const (
	ErrCodeWriteFile  = "WRITE_FILE"
	ErrCodeDatabase   = "DATABASE"
	ErrCodeNotAReplay = "NOT_A_REPLAY"
	ErrCodeBadArchive = "BAD_ARCHIVE"
	ErrCodeUnknown    = "UNKNOWN"
)

// ErrorCode returns the error code string for a given error.
func ErrorCode(err error) string {
	var wf *ErrWriteFile
	var db *ErrDatabase
	var nr *ErrNotAReplay
	var ba *ErrBadArchive
	switch {
	case errors.As(err, &wf):
		return ErrCodeWriteFile
	case errors.As(err, &db):
		return ErrCodeDatabase
	case errors.As(err, &nr), errors.Is(err, bfme2rpt.ErrNotAReplay):
		return ErrCodeNotAReplay
	case errors.As(err, &ba):
		return ErrCodeBadArchive
	default:
		return ErrCodeUnknown
	}
}
