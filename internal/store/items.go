package store

import (
	"database/sql"
	"strings"
)

// Item is one stored output row. Fields mirror the storage columns in
// order: published_utc, source, title, url, summary, score, tags, id.
type Item struct {
	PublishedUTC string
	Source       string
	Title        string
	URL          string
	Summary      string
	Score        int
	Tags         []string
	ID           string
}

// InsertItem appends an item. The store is append-only; there is no update
// or delete path.
func (db *DB) InsertItem(it Item) error {
	_, err := db.conn.Exec(
		`INSERT INTO items (published_utc, source, title, url, summary, score, tags, id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		it.PublishedUTC, it.Source, it.Title, it.URL, it.Summary, it.Score,
		strings.Join(it.Tags, ","), it.ID,
	)
	return err
}

// AllItems returns every stored item in insertion order. Used once per run
// to seed the dedupe index.
func (db *DB) AllItems() ([]Item, error) {
	rows, err := db.conn.Query(
		`SELECT published_utc, source, title, url, summary, score, tags, id
		FROM items ORDER BY rowid`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanItems(rows)
}

// RecentItems returns the most recently added items, newest first.
func (db *DB) RecentItems(limit int) ([]Item, error) {
	rows, err := db.conn.Query(
		`SELECT published_utc, source, title, url, summary, score, tags, id
		FROM items ORDER BY rowid DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanItems(rows)
}

// CountItems returns the number of stored items.
func (db *DB) CountItems() (int, error) {
	var n int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM items").Scan(&n)
	return n, err
}

func scanItems(rows *sql.Rows) ([]Item, error) {
	var items []Item
	for rows.Next() {
		var it Item
		var tags string
		if err := rows.Scan(&it.PublishedUTC, &it.Source, &it.Title, &it.URL,
			&it.Summary, &it.Score, &tags, &it.ID); err != nil {
			return nil, err
		}
		if tags != "" {
			it.Tags = strings.Split(tags, ",")
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
