package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/artwin/feedback-hub/internal/feedback"
	"github.com/artwin/feedback-hub/internal/notify"
	"github.com/artwin/feedback-hub/internal/sheets"
	"github.com/artwin/feedback-hub/pkg/logger"
)

// Client owns the durable department collections. Each department's
// whole collection is stored as one JSON document in one row, so every
// mutation is a single-row overwrite: readers never observe a partial
// write. Access is single-writer; a multi-client deployment would need
// per-department locking around the read-modify-write cycle.
type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec("PRAGMA journal_mode = WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

// InitSchema creates the tables and seeds an empty collection for every
// department that does not have one yet. Safe to call repeatedly.
func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS department_collections (
		department TEXT PRIMARY KEY,
		table_name TEXT NOT NULL,
		items TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sheet_configs (
		department TEXT PRIMARY KEY,
		sheet_id TEXT NOT NULL,
		tab_name TEXT NOT NULL,
		access_token TEXT NOT NULL DEFAULT '',
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS telegram_config (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		bot_token TEXT NOT NULL,
		chat_id TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`

	_, err := c.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	seed := `INSERT OR IGNORE INTO department_collections (department, table_name, items, updated_at) VALUES (?, ?, '[]', ?)`
	now := time.Now().Unix()
	for _, dept := range feedback.Departments() {
		if _, err := c.db.Exec(seed, string(dept), feedback.DepartmentTables[dept], now); err != nil {
			return fmt.Errorf("failed to seed collection for %s: %w", dept, err)
		}
	}

	logger.Info("SQLite schema initialized")
	return nil
}

func (c *Client) readCollection(dept feedback.Department) ([]feedback.Item, error) {
	var raw string
	err := c.db.QueryRow(`SELECT items FROM department_collections WHERE department = ?`, string(dept)).Scan(&raw)
	if err == sql.ErrNoRows {
		return []feedback.Item{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read collection for %s: %w", dept, err)
	}

	var items []feedback.Item
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("failed to decode collection for %s: %w", dept, err)
	}
	if items == nil {
		items = []feedback.Item{}
	}
	return items, nil
}

func (c *Client) writeCollection(dept feedback.Department, items []feedback.Item) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode collection for %s: %w", dept, err)
	}

	query := `
		INSERT INTO department_collections (department, table_name, items, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(department) DO UPDATE SET
			items = excluded.items,
			updated_at = excluded.updated_at
	`
	_, err = c.db.Exec(query, string(dept), feedback.DepartmentTables[dept], string(raw), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to write collection for %s: %w", dept, err)
	}
	return nil
}

// GetByDepartment returns the department's collection in stored order.
// An uninitialized department yields an empty slice, never an error.
func (c *Client) GetByDepartment(dept feedback.Department) ([]feedback.Item, error) {
	return c.readCollection(dept)
}

// Append inserts the item at the head of its department collection.
// Readers rely on the newest-first convention.
func (c *Client) Append(item feedback.Item) error {
	items, err := c.readCollection(item.Department)
	if err != nil {
		return err
	}

	items = append([]feedback.Item{item}, items...)
	if err := c.writeCollection(item.Department, items); err != nil {
		return err
	}

	logger.Debug("Feedback appended",
		zap.String("id", item.ID),
		zap.String("department", string(item.Department)),
	)
	return nil
}

// UpdateStatus replaces the status of the matching item. Unknown ids are
// a silent no-op.
func (c *Client) UpdateStatus(dept feedback.Department, id string, status feedback.Status) error {
	return c.mutate(dept, id, func(item *feedback.Item) {
		item.Status = status
	})
}

// AppendComment appends to the item's comment thread. Comments are
// append-only; nothing ever edits or removes one. Unknown ids are a
// silent no-op.
func (c *Client) AppendComment(dept feedback.Department, id string, comment feedback.Comment) error {
	return c.mutate(dept, id, func(item *feedback.Item) {
		item.Comments = append(item.Comments, comment)
	})
}

// SetAnalysis stores (or overwrites on re-run) the AI enrichment for the
// matching item. Unknown ids are a silent no-op.
func (c *Client) SetAnalysis(dept feedback.Department, id string, analysis feedback.Analysis) error {
	return c.mutate(dept, id, func(item *feedback.Item) {
		item.Analysis = &analysis
	})
}

func (c *Client) mutate(dept feedback.Department, id string, apply func(*feedback.Item)) error {
	items, err := c.readCollection(dept)
	if err != nil {
		return err
	}

	found := false
	for i := range items {
		if items[i].ID == id {
			apply(&items[i])
			found = true
			break
		}
	}

	if !found {
		logger.Debug("Mutation target not found, skipping",
			zap.String("id", id),
			zap.String("department", string(dept)),
		)
		return nil
	}

	return c.writeCollection(dept, items)
}

// ReplaceAll overwrites the department collection wholesale. Used when a
// remote fetch wins a sync cycle.
func (c *Client) ReplaceAll(dept feedback.Department, items []feedback.Item) error {
	if items == nil {
		items = []feedback.Item{}
	}
	return c.writeCollection(dept, items)
}

// All returns every item across all departments, newest-first.
func (c *Client) All() ([]feedback.Item, error) {
	var all []feedback.Item
	for _, dept := range feedback.Departments() {
		items, err := c.readCollection(dept)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CreatedAt > all[j].CreatedAt
	})
	return all, nil
}

// --- Integration config records ---

func (c *Client) SaveSheetConfig(dept feedback.Department, cfg sheets.Config) error {
	query := `
		INSERT INTO sheet_configs (department, sheet_id, tab_name, access_token, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(department) DO UPDATE SET
			sheet_id = excluded.sheet_id,
			tab_name = excluded.tab_name,
			access_token = excluded.access_token,
			updated_at = excluded.updated_at
	`
	_, err := c.db.Exec(query, string(dept), cfg.SheetID, cfg.TabName, cfg.AccessToken, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to save sheet config for %s: %w", dept, err)
	}
	return nil
}

func (c *Client) GetSheetConfig(dept feedback.Department) (sheets.Config, bool, error) {
	var cfg sheets.Config
	err := c.db.QueryRow(
		`SELECT sheet_id, tab_name, access_token FROM sheet_configs WHERE department = ?`,
		string(dept),
	).Scan(&cfg.SheetID, &cfg.TabName, &cfg.AccessToken)
	if err == sql.ErrNoRows {
		return sheets.Config{}, false, nil
	}
	if err != nil {
		return sheets.Config{}, false, fmt.Errorf("failed to get sheet config for %s: %w", dept, err)
	}
	return cfg, true, nil
}

func (c *Client) DeleteSheetConfig(dept feedback.Department) error {
	_, err := c.db.Exec(`DELETE FROM sheet_configs WHERE department = ?`, string(dept))
	if err != nil {
		return fmt.Errorf("failed to delete sheet config for %s: %w", dept, err)
	}
	return nil
}

func (c *Client) SaveTelegramConfig(cfg notify.Config) error {
	query := `
		INSERT INTO telegram_config (id, bot_token, chat_id, updated_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			bot_token = excluded.bot_token,
			chat_id = excluded.chat_id,
			updated_at = excluded.updated_at
	`
	_, err := c.db.Exec(query, cfg.BotToken, cfg.ChatID, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to save telegram config: %w", err)
	}
	return nil
}

func (c *Client) GetTelegramConfig() (notify.Config, bool, error) {
	var cfg notify.Config
	err := c.db.QueryRow(`SELECT bot_token, chat_id FROM telegram_config WHERE id = 1`).Scan(&cfg.BotToken, &cfg.ChatID)
	if err == sql.ErrNoRows {
		return notify.Config{}, false, nil
	}
	if err != nil {
		return notify.Config{}, false, fmt.Errorf("failed to get telegram config: %w", err)
	}
	return cfg, true, nil
}
