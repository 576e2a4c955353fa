package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/6inq/flippr/internal/model"
)

// SQLitePersister keeps the snapshot in a local SQLite database, one row
// per collection keyed by the fixed collection names.
type SQLitePersister struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLitePersister opens (or creates) the database and runs migrations.
func NewSQLitePersister(dbPath string) (*SQLitePersister, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	p := &SQLitePersister{db: db}
	if err := p.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite persister opened: %s", dbPath)
	return p, nil
}

func (p *SQLitePersister) migrate() error {
	_, err := p.db.Exec(`CREATE TABLE IF NOT EXISTS snapshots (
		name       TEXT PRIMARY KEY,
		data       TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	)`)
	return err
}

// Load rehydrates the snapshot. A database with no rows yields (nil, nil).
func (p *SQLitePersister) Load() (*model.Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	rows, err := p.db.Query(`SELECT name, data FROM snapshots`)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	snap := &model.Snapshot{ItemTracking: make(map[string]*model.ItemEntry)}
	found := false
	for rows.Next() {
		var name, data string
		if err := rows.Scan(&name, &data); err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		found = true

		var dst any
		switch name {
		case KeyBuyOrders:
			dst = &snap.BuyOrders
		case KeySellOrders:
			dst = &snap.SellOrders
		case KeyCompletedFlips:
			dst = &snap.CompletedFlips
		case KeyWatchlist:
			dst = &snap.Watchlist
		case KeyStats:
			dst = &snap.Stats
		case KeyItemTracking:
			dst = &snap.ItemTracking
		default:
			log.Printf("[WARN] unknown snapshot collection %q, skipping", name)
			continue
		}
		if err := json.Unmarshal([]byte(data), dst); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", name, err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return snap, nil
}

// Save overwrites every collection in a single transaction.
func (p *SQLitePersister) Save(snap *model.Snapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	collections := map[string]any{
		KeyBuyOrders:      snap.BuyOrders,
		KeySellOrders:     snap.SellOrders,
		KeyCompletedFlips: snap.CompletedFlips,
		KeyWatchlist:      snap.Watchlist,
		KeyStats:          snap.Stats,
		KeyItemTracking:   snap.ItemTracking,
	}

	tx, err := p.db.Begin()
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	now := time.Now().Unix()
	for name, value := range collections {
		data, err := json.Marshal(value)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("marshal %s: %w", name, err)
		}
		if _, err := tx.Exec(
			`INSERT INTO snapshots(name, data, updated_at) VALUES(?,?,?)
			 ON CONFLICT(name) DO UPDATE SET data=excluded.data, updated_at=excluded.updated_at`,
			name, string(data), now,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("upsert %s: %w", name, err)
		}
	}
	return tx.Commit()
}

func (p *SQLitePersister) Close() error {
	log.Println("[INFO] closing sqlite persister")
	return p.db.Close()
}
