// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package archive

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/klauspost/compress/zip"
)

func zipBytes(t *testing.T, files map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, data := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if _, err := w.Write(data); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func TestIsReplayName(t *testing.T) {
	for name, want := range map[string]bool{
		"game.BfME2Replay":         true,
		"GAME.BFME2REPLAY":         true,
		"nested/dir/a.bfme2replay": true,
		"game.rep":                 false,
		"notes.txt":                false,
	} {
		if got := IsReplayName(name); got != want {
			t.Errorf("IsReplayName(%q): got %v, want %v", name, got, want)
		}
	}
}

func TestExtractZip(t *testing.T) {
	data := zipBytes(t, map[string][]byte{
		"one.BfME2Replay":     []byte("replay one"),
		"sub/two.bfme2replay": []byte("replay two"),
		"readme.txt":          []byte("ignore me"),
		"screenshots/pic.png": {0x89, 0x50},
	})

	res, err := ExtractZip(data)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(res.Members) != 2 {
		t.Fatalf("members: got %d, want 2", len(res.Members))
	}
	if res.Skipped != 0 || res.Omitted != 0 {
		t.Errorf("skipped=%d omitted=%d", res.Skipped, res.Omitted)
	}
	for _, m := range res.Members {
		// Nested paths flatten to base names.
		if m.Name != "one.BfME2Replay" && m.Name != "two.bfme2replay" {
			t.Errorf("unexpected member %q", m.Name)
		}
	}
}

func TestExtractZipMemberCap(t *testing.T) {
	files := make(map[string][]byte)
	for i := 0; i < MaxMembers+3; i++ {
		files[fmt.Sprintf("r%02d.BfME2Replay", i)] = []byte("x")
	}
	res, err := ExtractZip(zipBytes(t, files))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(res.Members) != MaxMembers {
		t.Errorf("members: got %d, want %d", len(res.Members), MaxMembers)
	}
	if res.Omitted != 3 {
		t.Errorf("omitted: got %d, want 3", res.Omitted)
	}
}

func TestExtractZipOversizedMemberSkipped(t *testing.T) {
	data := zipBytes(t, map[string][]byte{
		"big.BfME2Replay":  bytes.Repeat([]byte{0xAA}, MaxMemberSize+1),
		"fine.BfME2Replay": []byte("ok"),
	})
	res, err := ExtractZip(data)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(res.Members) != 1 || res.Members[0].Name != "fine.BfME2Replay" {
		t.Fatalf("members: %+v", res.Members)
	}
	if res.Skipped != 1 {
		t.Errorf("skipped: got %d, want 1", res.Skipped)
	}
}

func TestExtractZipNotAnArchive(t *testing.T) {
	if _, err := ExtractZip([]byte("BFME2RPL definitely not a zip")); err == nil {
		t.Fatal("expected an error for a non-zip buffer")
	}
}
