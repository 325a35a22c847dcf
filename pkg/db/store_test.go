package db

import (
	"database/sql"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/japaniel/ramtools/pkg/wordpool"
)

func setupTestDB(t *testing.T) *sql.DB {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	return db
}

func samplePool() *wordpool.WordPool {
	return wordpool.NewWordPool([]*wordpool.WordList{
		wordpool.NewWordList([]string{"BOX", "CAT"}, map[string]string{wordpool.TypeKey: wordpool.TypePractice}),
		wordpool.NewWordList([]string{"ACORN", "ANVIL"}, map[string]string{wordpool.TypeKey: wordpool.TypeNonStim}),
		wordpool.NewWordList([]string{"BEACH", "BELT"}, map[string]string{wordpool.TypeKey: wordpool.TypePS}),
		wordpool.NewWordList([]string{"CABIN", "CLAM"}, map[string]string{wordpool.TypeKey: wordpool.TypeStim}),
	})
}

func TestSaveAndGetPool(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	pool := samplePool()
	summary := PoolSummary{ID: "pool-1", Experiment: "PS4_FR5", Language: "EN", WordsPerList: 2, NumLists: 3, Seed: "42"}
	if err := SavePool(db, summary, pool); err != nil {
		t.Fatalf("save pool: %v", err)
	}

	got, gotPool, err := GetPool(db, "pool-1")
	if err != nil {
		t.Fatalf("get pool: %v", err)
	}
	if got.Experiment != "PS4_FR5" || got.Seed != "42" || got.WordsPerList != 2 {
		t.Fatalf("unexpected summary: %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Fatalf("expected created_at to be set")
	}
	if !reflect.DeepEqual(pool, gotPool) {
		t.Fatalf("round trip mismatch:\nwant %v\ngot  %v", pool, gotPool)
	}
}

func TestSavePoolDuplicateRollsBack(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	summary := PoolSummary{ID: "dup", Language: "EN", WordsPerList: 2, NumLists: 3}
	if err := SavePool(db, summary, samplePool()); err != nil {
		t.Fatalf("save pool: %v", err)
	}
	err := SavePool(db, summary, samplePool())
	if !errors.Is(err, ErrPoolExists) {
		t.Fatalf("expected ErrPoolExists, got %v", err)
	}

	var cnt int
	if err := db.QueryRow(`SELECT COUNT(*) FROM pool_lists WHERE pool_id = ?`, "dup").Scan(&cnt); err != nil {
		t.Fatalf("count: %v", err)
	}
	if cnt != 4 {
		t.Fatalf("expected 4 list rows after failed resave, got %d", cnt)
	}
}

func TestSavePoolValidation(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	if err := SavePool(db, PoolSummary{ID: " "}, samplePool()); err == nil {
		t.Fatalf("expected error for empty id")
	}
	if err := SavePool(db, PoolSummary{ID: "empty"}, wordpool.NewWordPool(nil)); err == nil {
		t.Fatalf("expected error for empty pool")
	}
}

func TestGetPoolMissing(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	if _, _, err := GetPool(db, "nope"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestListPoolsNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for i, id := range []string{"old", "new"} {
		s := PoolSummary{ID: id, Language: "SP", WordsPerList: 2, NumLists: 3, CreatedAt: base.Add(time.Duration(i) * time.Hour)}
		if err := SavePool(db, s, samplePool()); err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}
	pools, err := ListPools(db)
	if err != nil {
		t.Fatalf("list pools: %v", err)
	}
	if len(pools) != 2 || pools[0].ID != "new" || pools[1].ID != "old" {
		t.Fatalf("unexpected order: %+v", pools)
	}
}

func TestRecordAndListUploads(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	now := time.Now().UTC().Truncate(time.Second)

	entries := []Upload{
		{Subject: "R1111M", Experiment: "FR1", Session: 0, Kind: "experiment", Src: "/data/a", Dest: "host:/b", Success: true, StartedAt: now, FinishedAt: now},
		{Subject: "R1111M", Session: -1, Kind: "imaging", Src: "/img", Dest: "host:/img", Success: false, Message: "exit status 23", StartedAt: now, FinishedAt: now},
		{Subject: "R2222J", Session: -1, Kind: "clinical", Src: "/eeg", Dest: "host:/eeg", Success: true, StartedAt: now, FinishedAt: now},
	}
	for _, u := range entries {
		if _, err := RecordUpload(db, u); err != nil {
			t.Fatalf("record upload: %v", err)
		}
	}

	got, err := ListUploads(db, "R1111M")
	if err != nil {
		t.Fatalf("list uploads: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 uploads, got %d", len(got))
	}
	if !got[0].Success || got[0].Session != 0 || got[0].Experiment != "FR1" {
		t.Fatalf("unexpected first upload: %+v", got[0])
	}
	if got[1].Success || got[1].Session != -1 || got[1].Message != "exit status 23" {
		t.Fatalf("unexpected second upload: %+v", got[1])
	}

	all, err := ListUploads(db, "")
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 uploads, got %d", len(all))
	}

	if _, err := RecordUpload(db, Upload{Kind: "host"}); err == nil {
		t.Fatalf("expected error for missing subject")
	}
}
