// Package persistence provides SQLite-based snapshots of a simulation run.
package persistence

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/ss-sim/internal/agents"
	"github.com/talgya/ss-sim/internal/engine"
	"github.com/talgya/ss-sim/internal/health"
	"github.com/talgya/ss-sim/internal/world"
)

// DB wraps a SQLite connection for world state persistence.
type DB struct {
	conn  *sqlx.DB
	runID string
}

// Open opens or creates a SQLite database at the given path. The current
// run id is restored from the database, or minted if this is a new file.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	if id, err := db.GetMeta("run_id"); err == nil && id != "" {
		db.runID = id
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// RunID returns the id of the run this database belongs to, or "" before
// StartRun has been called.
func (db *DB) RunID() string {
	return db.runID
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		started_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS players (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		pos_q INTEGER NOT NULL,
		pos_r INTEGER NOT NULL,
		tick INTEGER NOT NULL,
		health INTEGER NOT NULL,
		cat_resistance INTEGER NOT NULL,
		treatments INTEGER NOT NULL,
		born_tick INTEGER NOT NULL,
		history_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		agent_id INTEGER NOT NULL,
		description TEXT NOT NULL,
		category TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_tick ON events(tick);
	CREATE INDEX IF NOT EXISTS idx_events_agent ON events(agent_id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// StartRun records a new run with a fresh id and makes it current.
func (db *DB) StartRun(seed int64) (string, error) {
	id := uuid.NewString()
	_, err := db.conn.Exec(
		"INSERT INTO runs (id, seed, started_at) VALUES (?, ?, ?)",
		id, seed, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	if err := db.SaveMeta("run_id", id); err != nil {
		return "", err
	}
	if err := db.SaveMeta("seed", strconv.FormatInt(seed, 10)); err != nil {
		return "", err
	}
	db.runID = id
	return id, nil
}

// HasWorldState reports whether a previous run left players behind.
func (db *DB) HasWorldState() bool {
	var n int
	if err := db.conn.Get(&n, "SELECT COUNT(*) FROM players"); err != nil {
		return false
	}
	return n > 0 && db.runID != ""
}

type playerRow struct {
	ID            uint64 `db:"id"`
	Name          string `db:"name"`
	PosQ          int    `db:"pos_q"`
	PosR          int    `db:"pos_r"`
	Tick          uint32 `db:"tick"`
	Health        uint32 `db:"health"`
	CatResistance bool   `db:"cat_resistance"`
	Treatments    uint32 `db:"treatments"`
	BornTick      uint64 `db:"born_tick"`
	HistoryJSON   string `db:"history_json"`
}

// SavePlayers writes all agents to the database (full replace).
func (db *DB) SavePlayers(agentList []agents.Agent) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM players"); err != nil {
		return err
	}

	stmt, err := tx.PrepareNamed(`INSERT INTO players
		(id, name, pos_q, pos_r, tick, health, cat_resistance, treatments, born_tick, history_json)
		VALUES (:id, :name, :pos_q, :pos_r, :tick, :health, :cat_resistance, :treatments, :born_tick, :history_json)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, a := range agentList {
		historyJSON, err := json.Marshal(a.History)
		if err != nil {
			return fmt.Errorf("marshal history %d: %w", a.ID, err)
		}

		row := playerRow{
			ID:            uint64(a.ID),
			Name:          a.Name,
			PosQ:          a.Position.Q,
			PosR:          a.Position.R,
			Tick:          a.Player.Tick,
			Health:        a.Player.Health,
			CatResistance: a.Player.CatResistance,
			Treatments:    a.Treatments,
			BornTick:      a.BornTick,
			HistoryJSON:   string(historyJSON),
		}
		if _, err := stmt.Exec(row); err != nil {
			return fmt.Errorf("insert player %d: %w", a.ID, err)
		}
	}

	return tx.Commit()
}

// LoadPlayers reads every saved agent ordered by id.
func (db *DB) LoadPlayers() ([]*agents.Agent, error) {
	var rows []playerRow
	if err := db.conn.Select(&rows, "SELECT * FROM players ORDER BY id"); err != nil {
		return nil, fmt.Errorf("select players: %w", err)
	}

	out := make([]*agents.Agent, 0, len(rows))
	for _, r := range rows {
		a := &agents.Agent{
			ID:       agents.AgentID(r.ID),
			Name:     r.Name,
			Position: world.HexCoord{Q: r.PosQ, R: r.PosR},
			Player: health.Player{
				Tick:          r.Tick,
				Health:        r.Health,
				CatResistance: r.CatResistance,
			},
			Treatments: r.Treatments,
			BornTick:   r.BornTick,
		}
		if err := json.Unmarshal([]byte(r.HistoryJSON), &a.History); err != nil {
			return nil, fmt.Errorf("decode history %d: %w", r.ID, err)
		}
		out = append(out, a)
	}
	return out, nil
}

// SaveEvents appends events to the database under the current run.
func (db *DB) SaveEvents(events []engine.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range events {
		_, err := tx.Exec(
			"INSERT INTO events (run_id, tick, agent_id, description, category) VALUES (?, ?, ?, ?, ?)",
			db.runID, e.Tick, e.AgentID, e.Description, e.Category,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// SaveMeta stores a key-value pair in world metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM world_meta WHERE key = ?", key)
	return value, err
}

// SaveWorldState performs a full save of all world state.
func (db *DB) SaveWorldState(sim *engine.Simulation) error {
	snapshot := sim.AgentsSnapshot()
	slog.Info("saving world state", "players", len(snapshot), "run", db.runID)

	if err := db.SavePlayers(snapshot); err != nil {
		return fmt.Errorf("save players: %w", err)
	}
	if err := db.SaveEvents(sim.DrainPending()); err != nil {
		return fmt.Errorf("save events: %w", err)
	}
	if err := db.SaveMeta("last_tick", strconv.FormatUint(sim.CurrentTick(), 10)); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}

	slog.Info("world state saved")
	return nil
}

// LastTick returns the tick recorded by the latest save, or 0.
func (db *DB) LastTick() uint64 {
	s, err := db.GetMeta("last_tick")
	if err != nil {
		return 0
	}
	t, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0
	}
	return t
}

// RecentEvents returns the most recent N events of the current run, newest first.
func (db *DB) RecentEvents(limit int) ([]engine.Event, error) {
	var events []engine.Event
	err := db.conn.Select(&events,
		"SELECT tick, agent_id, description, category FROM events WHERE run_id = ? ORDER BY id DESC LIMIT ?",
		db.runID, limit,
	)
	return events, err
}
