// Package export writes mapped posts and tags to PostgreSQL. Rows are keyed
// by source and id and upserted, so re-running an archive refreshes scores
// and tags instead of duplicating posts.
package export

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"bugmaschine/booru-mux/logging"
	"bugmaschine/booru-mux/model"

	"github.com/lib/pq" // PostgreSQL driver and array support
)

type Config struct {
	Host     string
	Port     int
	Name     string
	User     string
	Password string
}

func (c Config) dsn() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.Host, c.Port, c.User, c.Password, c.Name,
	)
}

type DB struct {
	db *sql.DB
}

func NewDB(ctx context.Context, c Config) (*DB, error) {
	dbConn, err := sql.Open("postgres", c.dsn())
	if err != nil {
		return nil, err
	}
	if err = dbConn.PingContext(ctx); err != nil {
		dbConn.Close()
		return nil, err
	}
	return &DB{db: dbConn}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS posts (
	source       TEXT   NOT NULL,
	id           BIGINT NOT NULL,
	score        BIGINT NOT NULL,
	rating       TEXT   NOT NULL,
	tags         TEXT[] NOT NULL,
	categories   JSONB,
	hash         TEXT   NOT NULL,
	resource_url TEXT   NOT NULL,
	preview_url  TEXT   NOT NULL,
	archived_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (source, id)
);
CREATE INDEX IF NOT EXISTS posts_tags_idx ON posts USING GIN (tags);

CREATE TABLE IF NOT EXISTS tags (
	source     TEXT   NOT NULL,
	id         BIGINT NOT NULL,
	name       TEXT   NOT NULL,
	post_count BIGINT NOT NULL,
	PRIMARY KEY (source, id)
);
`

// EnsureSchema creates the tables if they do not exist yet.
func (d *DB) EnsureSchema(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

const upsertPost = `
	INSERT INTO posts (
		source, id, score, rating, tags, categories, hash, resource_url, preview_url
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (source, id) DO UPDATE SET
		score = EXCLUDED.score,
		rating = EXCLUDED.rating,
		tags = EXCLUDED.tags,
		categories = EXCLUDED.categories,
		hash = EXCLUDED.hash,
		resource_url = EXCLUDED.resource_url,
		preview_url = EXCLUDED.preview_url,
		archived_at = now()
`

// SavePosts upserts posts in one transaction.
func (d *DB) SavePosts(ctx context.Context, source string, posts []model.Post) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertPost)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range posts {
		args, err := postArgs(source, p)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			logging.Error("Error upserting post %d: %v", p.ID, err)
			return fmt.Errorf("upsert post %d: %w", p.ID, err)
		}
	}
	return tx.Commit()
}

const upsertTag = `
	INSERT INTO tags (source, id, name, post_count)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (source, id) DO UPDATE SET
		name = EXCLUDED.name,
		post_count = EXCLUDED.post_count
`

func (d *DB) SaveTags(ctx context.Context, source string, tags []model.Tag) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertTag)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, t := range tags {
		if _, err := stmt.ExecContext(ctx, tagArgs(source, t)...); err != nil {
			logging.Error("error upserting tag %q: %v", t.Name, err)
			return fmt.Errorf("upsert tag %d: %w", t.ID, err)
		}
	}
	return tx.Commit()
}

// postArgs flattens a post into upsertPost's parameters. Every tag goes into
// the tags array; categorized posts additionally keep the categories as JSON.
func postArgs(source string, p model.Post) ([]any, error) {
	var categories any
	if p.Tags.IsCategorized() {
		raw, err := json.Marshal(p.Tags.Categories)
		if err != nil {
			return nil, fmt.Errorf("post %d: encode categories: %w", p.ID, err)
		}
		categories = string(raw)
	}
	tags := []string(p.Tags.All())
	if tags == nil {
		tags = []string{}
	}
	return []any{
		source, int64(p.ID), p.Score, p.Rating.String(),
		pq.Array(tags), categories,
		p.Hash, p.ResourceURL, p.PreviewURL,
	}, nil
}

func tagArgs(source string, t model.Tag) []any {
	return []any{source, int64(t.ID), t.Name, int64(t.Count)}
}
