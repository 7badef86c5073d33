// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package archive extracts replay files from uploaded ZIP containers.
// Extraction is capped per member, per request, and per total
// uncompressed size; members beyond a cap are counted, never fatal.
package archive

import (
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/klauspost/compress/zip"
)

const (
	// MaxMemberSize caps one extracted replay.
	MaxMemberSize = 5 << 20 // 5 MB
	// MaxMembers caps how many replays one request may extract.
	MaxMembers = 10
	// MaxTotalSize caps the uncompressed size of the whole archive.
	MaxTotalSize = 500 << 20 // 500 MB
)

// replayExt is the replay file extension, matched case-insensitively.
const replayExt = ".bfme2replay"

// Member is one extracted replay.
type Member struct {
	Name string // base name inside the archive
	Data []byte
}

// Result reports what extraction produced and what it left behind.
type Result struct {
	Members []Member
	// Skipped counts replay members passed over because they were
	// oversized or unreadable.
	Skipped int
	// Omitted counts replay members beyond the per-request member cap.
	Omitted int
}

// IsReplayName reports whether the filename carries the replay
// extension.
func IsReplayName(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), replayExt)
}

// ExtractZip pulls every replay member out of a ZIP archive, honoring
// the caps. Non-replay members are ignored. The error is non-nil only
// when the buffer is not a readable ZIP archive at all.
func ExtractZip(data []byte) (*Result, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}

	var declared uint64
	for _, f := range zr.File {
		declared += f.UncompressedSize64
	}
	if declared > MaxTotalSize {
		return nil, fmt.Errorf("archive declares %d uncompressed bytes, cap is %d", declared, MaxTotalSize)
	}

	res := &Result{}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !IsReplayName(f.Name) {
			continue
		}
		if len(res.Members) >= MaxMembers {
			res.Omitted++
			continue
		}
		if f.UncompressedSize64 > MaxMemberSize {
			res.Skipped++
			continue
		}
		data, err := readMember(f)
		if err != nil {
			res.Skipped++
			continue
		}
		res.Members = append(res.Members, Member{
			Name: path.Base(f.Name),
			Data: data,
		})
	}
	return res, nil
}

// readMember extracts one member, trusting the reader over the declared
// size: a member that inflates past the cap is rejected.
func readMember(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, MaxMemberSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxMemberSize {
		return nil, fmt.Errorf("member %s exceeds %d bytes", f.Name, MaxMemberSize)
	}
	return data, nil
}
