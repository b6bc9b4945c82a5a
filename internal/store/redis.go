package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/internal/indexer/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/pkg/errors"
	pkgredis "github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/pkg/redis"
)

const redisKeyPrefix = "fsidx:"

// Redis keeps each document index in a hash whose fields are n-gram keys and
// whose values are JSON posting lists.
type Redis struct {
	client *pkgredis.Client
}

// NewRedis returns a Redis store over client.
func NewRedis(client *pkgredis.Client) *Redis {
	return &Redis{client: client}
}

func redisDocKey(docID, locale string) string {
	return redisKeyPrefix + locale + ":" + docID
}

func (s *Redis) ReadIndex(ctx context.Context, docID, key, locale string) (Lookup, error) {
	data, err := s.client.HGet(ctx, redisDocKey(docID, locale), key)
	if err != nil {
		if pkgredis.IsNilError(err) {
			return Lookup{}, nil
		}
		return Lookup{}, apperrors.StoreError("redis read", err)
	}
	var pl index.PostingList
	if err := json.Unmarshal([]byte(data), &pl); err != nil {
		return Lookup{}, apperrors.StoreError("redis read", fmt.Errorf("decoding postings for key %q: %w", key, err))
	}
	return Lookup{Postings: pl}, nil
}

func (s *Redis) StoreIndex(ctx context.Context, docID string, idx index.Index, locale string) error {
	fields := make(map[string]interface{}, len(idx))
	for key, pl := range idx {
		data, err := json.Marshal(pl)
		if err != nil {
			return fmt.Errorf("encoding postings for key %q: %w", key, err)
		}
		fields[key] = data
	}
	if err := s.client.HReplace(ctx, redisDocKey(docID, locale), fields); err != nil {
		return apperrors.StoreError("redis write", err)
	}
	return nil
}

// Documents lists stored document IDs of locale, sorted.
func (s *Redis) Documents(ctx context.Context, locale string) ([]string, error) {
	prefix := redisKeyPrefix + locale + ":"
	keys, err := s.client.ScanKeys(ctx, prefix+"*")
	if err != nil {
		return nil, apperrors.StoreError("redis list", err)
	}
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, strings.TrimPrefix(k, prefix))
	}
	sort.Strings(ids)
	return ids, nil
}
