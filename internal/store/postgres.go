package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/internal/indexer/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/pkg/postgres"
)

const postingsTable = "ngram_postings"

// PostgresSchema creates the table backing the Postgres store.
var PostgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS ngram_postings (
		doc_id   TEXT  NOT NULL,
		locale   TEXT  NOT NULL DEFAULT '',
		ngram    TEXT  NOT NULL,
		postings JSONB NOT NULL,
		PRIMARY KEY (doc_id, locale, ngram)
	)`,
	`CREATE INDEX IF NOT EXISTS ngram_postings_locale_idx ON ngram_postings (locale, doc_id)`,
}

// Postgres stores one row per (document, locale, n-gram).
type Postgres struct {
	client *postgres.Client
}

// NewPostgres returns a Postgres store. Call EnsureSchema once before use.
func NewPostgres(client *postgres.Client) *Postgres {
	return &Postgres{client: client}
}

// EnsureSchema creates the postings table if it does not exist.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	if err := s.client.Migrate(ctx, PostgresSchema...); err != nil {
		return apperrors.StoreError("postgres schema", err)
	}
	return nil
}

func (s *Postgres) ReadIndex(ctx context.Context, docID, key, locale string) (Lookup, error) {
	var data []byte
	err := s.client.DB.QueryRowContext(ctx,
		`SELECT postings FROM ngram_postings WHERE doc_id = $1 AND locale = $2 AND ngram = $3`,
		docID, locale, key,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return Lookup{}, nil
	}
	if err != nil {
		return Lookup{}, apperrors.StoreError("postgres read", err)
	}
	var pl index.PostingList
	if err := json.Unmarshal(data, &pl); err != nil {
		return Lookup{}, apperrors.StoreError("postgres read", fmt.Errorf("decoding postings for key %q: %w", key, err))
	}
	return Lookup{Postings: pl}, nil
}

// StoreIndex replaces the document's rows in one transaction, bulk loading
// the new postings with COPY.
func (s *Postgres) StoreIndex(ctx context.Context, docID string, idx index.Index, locale string) error {
	err := s.client.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM ngram_postings WHERE doc_id = $1 AND locale = $2`, docID, locale,
		); err != nil {
			return fmt.Errorf("deleting previous postings: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx, pq.CopyIn(postingsTable, "doc_id", "locale", "ngram", "postings"))
		if err != nil {
			return fmt.Errorf("preparing copy: %w", err)
		}
		defer stmt.Close()
		for _, entry := range idx.Entries() {
			data, err := json.Marshal(entry.Postings)
			if err != nil {
				return fmt.Errorf("encoding postings for key %q: %w", entry.Key, err)
			}
			if _, err := stmt.ExecContext(ctx, docID, locale, entry.Key, string(data)); err != nil {
				return fmt.Errorf("copying key %q: %w", entry.Key, err)
			}
		}
		if _, err := stmt.ExecContext(ctx); err != nil {
			return fmt.Errorf("flushing copy: %w", err)
		}
		return nil
	})
	if err != nil {
		return apperrors.StoreError("postgres write", err)
	}
	return nil
}

// Documents lists stored document IDs of locale, sorted.
func (s *Postgres) Documents(ctx context.Context, locale string) ([]string, error) {
	rows, err := s.client.DB.QueryContext(ctx,
		`SELECT DISTINCT doc_id FROM ngram_postings WHERE locale = $1 ORDER BY doc_id`, locale)
	if err != nil {
		return nil, apperrors.StoreError("postgres list", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, apperrors.StoreError("postgres list", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.StoreError("postgres list", err)
	}
	return ids, nil
}
