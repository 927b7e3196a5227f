package plugin

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Catalog is the persistent registry of installed plugins, stored as a
// small SQLite database so external tooling can manage it.
type Catalog struct {
	db *sql.DB
}

// Entry is one catalog row: a plugin's metadata plus where its shared
// object lives and whether it is active.
type Entry struct {
	Metadata
	Path    string
	Enabled bool
}

// OpenCatalog opens (creating if necessary) the catalog database at path.
func OpenCatalog(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("plugin: failed to open catalog %s: %w", path, err)
	}

	const schema = `CREATE TABLE IF NOT EXISTS plugins (
		name        TEXT PRIMARY KEY,
		version     TEXT NOT NULL DEFAULT '',
		author      TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		path        TEXT NOT NULL,
		enabled     INTEGER NOT NULL DEFAULT 1
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("plugin: failed to initialize catalog %s: %w", path, err)
	}

	return &Catalog{db: db}, nil
}

// Close releases the underlying database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Register inserts a plugin entry, enabled by default. Re-registering an
// existing name updates its metadata and path but keeps its enabled state.
func (c *Catalog) Register(meta Metadata, path string) error {
	_, err := c.db.Exec(
		`INSERT INTO plugins (name, version, author, description, path, enabled)
		 VALUES (?, ?, ?, ?, ?, 1)
		 ON CONFLICT(name) DO UPDATE SET
			version = excluded.version,
			author = excluded.author,
			description = excluded.description,
			path = excluded.path`,
		meta.Name, meta.Version, meta.Author, meta.Description, path)
	if err != nil {
		return fmt.Errorf("plugin: failed to register %s: %w", meta.Name, err)
	}
	return nil
}

// SetEnabled toggles a plugin without removing it.
func (c *Catalog) SetEnabled(name string, enabled bool) error {
	res, err := c.db.Exec(`UPDATE plugins SET enabled = ? WHERE name = ?`, enabled, name)
	if err != nil {
		return fmt.Errorf("plugin: failed to update %s: %w", name, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("plugin: %s is not registered", name)
	}
	return nil
}

// Remove deletes a plugin entry.
func (c *Catalog) Remove(name string) error {
	if _, err := c.db.Exec(`DELETE FROM plugins WHERE name = ?`, name); err != nil {
		return fmt.Errorf("plugin: failed to remove %s: %w", name, err)
	}
	return nil
}

// List returns all entries ordered by name.
func (c *Catalog) List() ([]Entry, error) {
	rows, err := c.db.Query(
		`SELECT name, version, author, description, path, enabled FROM plugins ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("plugin: failed to list catalog: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Name, &e.Version, &e.Author, &e.Description, &e.Path, &e.Enabled); err != nil {
			return nil, fmt.Errorf("plugin: failed to scan catalog row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("plugin: failed to list catalog: %w", err)
	}

	return entries, nil
}

// EnabledPaths returns the shared-object paths of all enabled plugins, in
// name order, ready to hand to OpenAll.
func (c *Catalog) EnabledPaths() ([]string, error) {
	entries, err := c.List()
	if err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Enabled {
			paths = append(paths, e.Path)
		}
	}
	return paths, nil
}
