// Package mapindex keeps a small SQLite ledger next to the map files: one
// row per save or autosave, one row per executed command. The JSON map files
// remain the source of truth; the index exists for tooling and audits.
package mapindex

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"
)

type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool
}

// SaveRecord describes one written map file.
type SaveRecord struct {
	MapID    string
	Name     string
	Path     string
	Tick     uint64
	Entities int
	Digest   string
	Autosave bool
}

// CommandRecord describes one command the world executed, successful or not.
// An empty Code means success.
type CommandRecord struct {
	Tick     uint64 `json:"tick"`
	Agent    string `json:"agent"`
	Command  string `json:"command"`
	Code     string `json:"code,omitempty"`
	EntityID string `json:"entity_id,omitempty"`
	Detail   string `json:"detail,omitempty"`
}

type reqKind int

const (
	reqSave reqKind = iota + 1
	reqCommand
	reqFlush
)

type req struct {
	kind reqKind
	save SaveRecord
	cmd  CommandRecord
	done chan struct{}
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		// Room for bursty command traffic without stalling the tick loop.
		ch: make(chan req, 16384),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	// WAL suits the append-only workload; NORMAL is enough durability for a
	// secondary index.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS saves (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			map_id TEXT NOT NULL,
			name TEXT NOT NULL,
			path TEXT NOT NULL,
			tick INTEGER NOT NULL,
			entities INTEGER NOT NULL,
			digest TEXT NOT NULL,
			autosave INTEGER NOT NULL,
			saved_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_saves_map_tick ON saves(map_id, tick);`,
		`CREATE TABLE IF NOT EXISTS commands (
			tick INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			agent TEXT NOT NULL,
			command TEXT NOT NULL,
			code TEXT,
			entity_id TEXT,
			raw_json TEXT NOT NULL,
			PRIMARY KEY (tick, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_commands_agent_tick ON commands(agent, tick);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	if _, err := db.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// RecordSave enqueues a save row. Non-blocking: if the indexer falls behind
// the row is dropped, the map file on disk is the source of truth.
func (s *SQLiteIndex) RecordSave(rec SaveRecord) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- req{kind: reqSave, save: rec}:
	default:
	}
}

// RecordCommand enqueues an executed-command row. Non-blocking like
// RecordSave.
func (s *SQLiteIndex) RecordCommand(rec CommandRecord) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- req{kind: reqCommand, cmd: rec}:
	default:
	}
}

// Flush blocks until every row enqueued before the call is committed.
// RecordSave and RecordCommand hand rows to a worker goroutine, so a caller
// that reads the index right after writing must flush in between.
func (s *SQLiteIndex) Flush() {
	if s == nil || s.closed.Load() {
		return
	}
	done := make(chan struct{})
	s.ch <- req{kind: reqFlush, done: done}
	<-done
}

// LatestSave returns the most recent save row for a map, or ok=false when
// the map has never been saved. Callers use it to pick a resume file.
func (s *SQLiteIndex) LatestSave(mapID string) (SaveRecord, bool, error) {
	row := s.db.QueryRow(
		`SELECT map_id,name,path,tick,entities,digest,autosave
		 FROM saves WHERE map_id=? ORDER BY seq DESC LIMIT 1`, mapID)
	var (
		rec      SaveRecord
		autosave int
	)
	err := row.Scan(&rec.MapID, &rec.Name, &rec.Path, &rec.Tick, &rec.Entities, &rec.Digest, &autosave)
	if err == sql.ErrNoRows {
		return SaveRecord{}, false, nil
	}
	if err != nil {
		return SaveRecord{}, false, err
	}
	rec.Autosave = autosave != 0
	return rec, true, nil
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertSave, _ := s.db.Prepare(`INSERT INTO saves(map_id,name,path,tick,entities,digest,autosave,saved_at) VALUES(?,?,?,?,?,?,?,?)`)
	insertCmd, _ := s.db.Prepare(`INSERT OR REPLACE INTO commands(tick,seq,agent,command,code,entity_id,raw_json) VALUES(?,?,?,?,?,?,?)`)
	defer func() {
		if insertSave != nil {
			_ = insertSave.Close()
		}
		if insertCmd != nil {
			_ = insertCmd.Close()
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 512
		commitMaxWait = 2 * time.Second

		lastCmdTick uint64
		cmdSeq      int
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	for r := range s.ch {
		if r.kind == reqFlush {
			commit()
			close(r.done)
			continue
		}
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqSave:
			if insertSave == nil {
				continue
			}
			rec := r.save
			auto := 0
			if rec.Autosave {
				auto = 1
			}
			now := time.Now().UTC().Format(time.RFC3339Nano)
			if _, err := tx.Stmt(insertSave).Exec(
				rec.MapID, rec.Name, rec.Path,
				int64(rec.Tick), rec.Entities, rec.Digest,
				auto, now,
			); err != nil {
				rollback()
				continue
			}
			opCount++
			// Saves are rare and callers may query LatestSave right after.
			commit()

		case reqCommand:
			if insertCmd == nil {
				continue
			}
			c := r.cmd
			if c.Tick != lastCmdTick {
				lastCmdTick = c.Tick
				cmdSeq = 0
			}
			seq := cmdSeq
			cmdSeq++
			raw, _ := json.Marshal(c)
			if _, err := tx.Stmt(insertCmd).Exec(
				int64(c.Tick), seq, c.Agent, c.Command, c.Code, c.EntityID, string(raw),
			); err != nil {
				rollback()
				continue
			}
			opCount++
		}

		if tx != nil && (opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait) {
			commit()
		}
	}
	commit()
}
