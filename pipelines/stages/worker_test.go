// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package stages_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/tarnhelm/bfme2rpt/model"
	"github.com/tarnhelm/bfme2rpt/pipelines/stages"
)

// fakeReplay builds a minimal decodable replay: two humans, one defeat
// event that makes the left side the certain winner.
func fakeReplay() []byte {
	var b bytes.Buffer
	b.WriteString("BFME2RPL")
	u32 := func(v uint32) {
		binary.Write(&b, binary.LittleEndian, v)
	}
	u32(1_700_000_000)
	u32(1_700_003_600)
	b.WriteString("M=maps/test.map;S=HAlice,00C0FFEE,8088,TT,0,1,1,0:HBob,DEADBEEF,8088,TT,1,1,0,1:X:X")
	b.WriteByte(0)
	// PlayerDefeated for Bob (player number 4)
	u32(5000)
	u32(1096)
	u32(4)
	b.WriteByte(0)
	return b.Bytes()
}

func seedJob(t *testing.T, store *mockStore, fs afero.Fs, path string, data []byte) *model.Work {
	t.Helper()
	ctx := context.Background()
	if err := afero.WriteFile(fs, "/data/"+path, data, 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	rfID, err := store.InsertReplayFile(ctx, &model.ReplayFile{
		Name: path, SHA256: path, Size: int64(len(data)), FsPath: path,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("insert replay file: %v", err)
	}
	workID, err := store.InsertWork(ctx, &model.Work{
		ReplayFileID: rfID,
		Stage:        model.WorkStageDecode,
		Status:       model.WorkStatusQueued,
		AvailableAt:  time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("insert work: %v", err)
	}
	return store.work[workID]
}

func TestWorkerService_ProcessDecodeJob(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	fs := afero.NewMemMapFs()

	svc := stages.NewWorkerService(store, "/data", "test-worker")
	svc.SetFS(fs)

	seedJob(t, store, fs, "good.BfME2Replay", fakeReplay())

	processed, err := svc.ProcessJob(ctx, model.WorkStageDecode)
	if err != nil {
		t.Fatalf("process job: %v", err)
	}
	if !processed {
		t.Fatal("expected a job to be processed")
	}

	if len(store.decodes) != 1 {
		t.Fatalf("expected 1 decode row, got %d", len(store.decodes))
	}
	var d *model.ReplayDecode
	for _, row := range store.decodes {
		d = row
	}
	if d.MapName != "test.map" {
		t.Errorf("map name: got %q", d.MapName)
	}
	if d.Winner != "left team" || !d.WinnerCertain {
		t.Errorf("winner: %q certain=%v", d.Winner, d.WinnerCertain)
	}
	if len(d.Players) != 2 {
		t.Fatalf("players: got %d", len(d.Players))
	}
	if d.Players[1].Name != "Bob" || !d.Players[1].Defeated {
		t.Errorf("bob: %+v", d.Players[1])
	}

	for _, w := range store.work {
		if w.Status != model.WorkStatusOk {
			t.Errorf("work status: got %q", w.Status)
		}
	}
}

func TestWorkerService_NotAReplayFails(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	fs := afero.NewMemMapFs()

	svc := stages.NewWorkerService(store, "/data", "test-worker")
	svc.SetFS(fs)

	seedJob(t, store, fs, "bad.BfME2Replay", []byte("this is not a replay"))

	processed, err := svc.ProcessJob(ctx, model.WorkStageDecode)
	if !processed {
		t.Fatal("expected a job to be claimed")
	}
	if err == nil {
		t.Fatal("expected a decode error")
	}

	for _, w := range store.work {
		if w.Status != model.WorkStatusFailed {
			t.Errorf("work status: got %q", w.Status)
		}
		if w.ErrorCode != stages.ErrCodeNotAReplay {
			t.Errorf("error code: got %q", w.ErrorCode)
		}
	}
}

func TestWorkerService_NoWorkIsNotAnError(t *testing.T) {
	svc := stages.NewWorkerService(newMockStore(), "/data", "test-worker")
	processed, err := svc.ProcessJob(context.Background(), model.WorkStageDecode)
	if err != nil {
		t.Fatalf("process job: %v", err)
	}
	if processed {
		t.Error("no job should have been processed")
	}
}
