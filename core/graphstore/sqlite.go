package graphstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore backs the Gateway contract with a local sqlite database. It is
// the development stand-in for the production graph database: the same read
// queries, a flat relational schema behind them.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

type SQLiteConfig struct {
	MaxOpen     int
	MaxIdle     int
	MaxLifetime time.Duration
	BusyTimeout time.Duration
	EnableWAL   bool
}

func DefaultSQLiteConfig() SQLiteConfig {
	return SQLiteConfig{
		MaxOpen:     10,
		MaxIdle:     5,
		MaxLifetime: time.Hour,
		BusyTimeout: 30 * time.Second,
		EnableWAL:   true,
	}
}

const schema = `
CREATE TABLE IF NOT EXISTS resources (
	id           TEXT PRIMARY KEY,
	type         TEXT NOT NULL,
	name         TEXT NOT NULL,
	container_id TEXT,
	location     TEXT,
	sku          TEXT,
	tags         TEXT,
	labels       TEXT
);
CREATE INDEX IF NOT EXISTS idx_resources_container ON resources(container_id);
CREATE INDEX IF NOT EXISTS idx_resources_type ON resources(type);

CREATE TABLE IF NOT EXISTS relationships (
	source_id TEXT NOT NULL,
	target_id TEXT NOT NULL,
	kind      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_relationships_source ON relationships(source_id);
CREATE INDEX IF NOT EXISTS idx_relationships_target ON relationships(target_id);
`

// OpenSQLite opens (creating if necessary) the store at path. Use ":memory:"
// for an ephemeral store.
func OpenSQLite(path string, config SQLiteConfig, logger *slog.Logger) (*SQLiteStore, error) {
	if path == "" {
		return nil, ErrInvalidPath
	}
	if logger == nil {
		logger = slog.Default()
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=%d&_foreign_keys=on", path, config.BusyTimeout.Milliseconds())
	if path == ":memory:" {
		// Pooled connections must see the same in-memory database.
		dsn += "&mode=memory&cache=shared"
	} else if config.EnableWAL {
		dsn += "&_journal_mode=WAL"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrQueryFailed, path, err)
	}
	db.SetMaxOpenConns(config.MaxOpen)
	db.SetMaxIdleConns(config.MaxIdle)
	db.SetConnMaxLifetime(config.MaxLifetime)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: create schema: %v", ErrQueryFailed, err)
	}

	return &SQLiteStore{db: db, logger: logger}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// InsertResource adds or replaces a resource record. containerID may be empty
// for top-level resources; labels default to {"Resource"}.
func (s *SQLiteStore) InsertResource(ctx context.Context, r Resource, containerID string, labels ...string) error {
	if len(labels) == 0 {
		labels = []string{"Resource"}
	}
	tagsJSON, err := json.Marshal(r.Tags)
	if err != nil {
		return fmt.Errorf("%w: encode tags for %s: %v", ErrQueryFailed, r.ID, err)
	}
	labelsJSON, err := json.Marshal(labels)
	if err != nil {
		return fmt.Errorf("%w: encode labels for %s: %v", ErrQueryFailed, r.ID, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO resources (id, type, name, container_id, location, sku, tags, labels)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Type, r.Name, containerID, r.Location, r.SKU, string(tagsJSON), string(labelsJSON))
	if err != nil {
		return fmt.Errorf("%w: insert resource %s: %v", ErrQueryFailed, r.ID, err)
	}
	return nil
}

func (s *SQLiteStore) InsertRelationship(ctx context.Context, sourceID, targetID, kind string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO relationships (source_id, target_id, kind) VALUES (?, ?, ?)`,
		sourceID, targetID, kind)
	if err != nil {
		return fmt.Errorf("%w: insert relationship %s-[%s]->%s: %v", ErrQueryFailed, sourceID, kind, targetID, err)
	}
	return nil
}

const relationshipJoin = `
SELECT src.labels, src.type, rel.kind, dst.labels, dst.type
FROM relationships rel
JOIN resources src ON src.id = rel.source_id
JOIN resources dst ON dst.id = rel.target_id
WHERE rel.kind != ?`

func (s *SQLiteStore) AllRelationships(ctx context.Context) ([]RelationshipRow, error) {
	rows, err := s.db.QueryContext(ctx, relationshipJoin, GenericRelationship)
	if err != nil {
		return nil, fmt.Errorf("%w: all relationships: %v", ErrQueryFailed, err)
	}
	defer rows.Close()
	return scanRelationshipRows(rows)
}

func (s *SQLiteStore) RelationshipsAmong(ctx context.Context, ids []string) ([]RelationshipRow, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	query := relationshipJoin +
		" AND rel.source_id IN (" + placeholders + ")" +
		" AND rel.target_id IN (" + placeholders + ")"

	args := make([]any, 0, 1+2*len(ids))
	args = append(args, GenericRelationship)
	for _, id := range ids {
		args = append(args, id)
	}
	for _, id := range ids {
		args = append(args, id)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: relationships among %d ids: %v", ErrQueryFailed, len(ids), err)
	}
	defer rows.Close()
	return scanRelationshipRows(rows)
}

func scanRelationshipRows(rows *sql.Rows) ([]RelationshipRow, error) {
	var out []RelationshipRow
	for rows.Next() {
		var srcLabels, dstLabels string
		var row RelationshipRow
		if err := rows.Scan(&srcLabels, &row.SourceType, &row.RelType, &dstLabels, &row.TargetType); err != nil {
			return nil, fmt.Errorf("%w: scan relationship row: %v", ErrQueryFailed, err)
		}
		row.SourceLabels = decodeLabels(srcLabels)
		row.TargetLabels = decodeLabels(dstLabels)
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate relationship rows: %v", ErrQueryFailed, err)
	}
	return out, nil
}

func decodeLabels(raw string) []string {
	if raw == "" {
		return []string{"Resource"}
	}
	var labels []string
	if err := json.Unmarshal([]byte(raw), &labels); err != nil || len(labels) == 0 {
		return []string{"Resource"}
	}
	return labels
}

func (s *SQLiteStore) ContainmentAndLinks(ctx context.Context, typeFilter map[string]struct{}) (*ContainmentResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, type, name, container_id, location, sku, tags FROM resources`)
	if err != nil {
		return nil, fmt.Errorf("%w: containment scan: %v", ErrQueryFailed, err)
	}
	defer rows.Close()

	result := &ContainmentResult{
		Containers: make(map[string][]Resource),
		Links:      make(map[string][]string),
		ByID:       make(map[string]Resource),
	}
	for rows.Next() {
		var r Resource
		var container, tags sql.NullString
		if err := rows.Scan(&r.ID, &r.Type, &r.Name, &container, &r.Location, &r.SKU, &tags); err != nil {
			return nil, fmt.Errorf("%w: scan resource row: %v", ErrQueryFailed, err)
		}
		if _, ok := typeFilter[SimpleType(r.Type)]; !ok {
			continue
		}
		if tags.Valid && tags.String != "" {
			_ = json.Unmarshal([]byte(tags.String), &r.Tags)
		}
		result.ByID[r.ID] = r
		if container.Valid && container.String != "" {
			result.Containers[container.String] = append(result.Containers[container.String], r)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate resource rows: %v", ErrQueryFailed, err)
	}

	links, err := s.db.QueryContext(ctx,
		`SELECT source_id, target_id FROM relationships WHERE kind != ?`, GenericRelationship)
	if err != nil {
		return nil, fmt.Errorf("%w: link scan: %v", ErrQueryFailed, err)
	}
	defer links.Close()
	for links.Next() {
		var src, dst string
		if err := links.Scan(&src, &dst); err != nil {
			return nil, fmt.Errorf("%w: scan link row: %v", ErrQueryFailed, err)
		}
		_, srcOK := result.ByID[src]
		_, dstOK := result.ByID[dst]
		if !srcOK || !dstOK {
			continue
		}
		result.Links[src] = append(result.Links[src], dst)
		result.Links[dst] = append(result.Links[dst], src)
	}
	if err := links.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate link rows: %v", ErrQueryFailed, err)
	}
	return result, nil
}

func (s *SQLiteStore) ResourcesByContainerForTypes(ctx context.Context, qualifiedTypes []string) (map[string][]Resource, error) {
	if len(qualifiedTypes) == 0 {
		return map[string][]Resource{}, nil
	}
	wanted := make(map[string]struct{}, len(qualifiedTypes))
	for _, t := range qualifiedTypes {
		wanted[strings.ToLower(t)] = struct{}{}
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, type, name, container_id, location, sku, tags FROM resources WHERE container_id IS NOT NULL AND container_id != ''`)
	if err != nil {
		return nil, fmt.Errorf("%w: container scan: %v", ErrQueryFailed, err)
	}
	defer rows.Close()

	groups := make(map[string][]Resource)
	for rows.Next() {
		var r Resource
		var container string
		var tags sql.NullString
		if err := rows.Scan(&r.ID, &r.Type, &r.Name, &container, &r.Location, &r.SKU, &tags); err != nil {
			return nil, fmt.Errorf("%w: scan container row: %v", ErrQueryFailed, err)
		}
		_, exact := wanted[strings.ToLower(r.Type)]
		_, simple := wanted[strings.ToLower(SimpleType(r.Type))]
		if !exact && !simple {
			continue
		}
		if tags.Valid && tags.String != "" {
			_ = json.Unmarshal([]byte(tags.String), &r.Tags)
		}
		groups[container] = append(groups[container], r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate container rows: %v", ErrQueryFailed, err)
	}
	return groups, nil
}

func (s *SQLiteStore) ResourceTypeCounts(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT type, COUNT(*) FROM resources GROUP BY type`)
	if err != nil {
		return nil, fmt.Errorf("%w: type counts: %v", ErrQueryFailed, err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var qualified string
		var n int
		if err := rows.Scan(&qualified, &n); err != nil {
			return nil, fmt.Errorf("%w: scan type count: %v", ErrQueryFailed, err)
		}
		counts[SimpleType(qualified)] += n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate type counts: %v", ErrQueryFailed, err)
	}
	return counts, nil
}
