package persistence

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	boltdb "github.com/andrew-solarstorm/bolt-db"
	"github.com/bytedance/sonic"
	"github.com/rs/zerolog/log"

	"github.com/hxuan190/sol-arbitrage/internal/domain"
)

const (
	AttemptsBucket = "attempts"
	BundlesBucket  = "bundles"
)

var ErrAttemptNotFound = errors.New("attempt not found")

// Journal records arbitrage attempts keyed by attempt id, with a secondary
// index from bundle id to attempt id.
type Journal struct {
	store kvStore
	mu    sync.Mutex
}

func NewJournal(dbPath string) (*Journal, error) {
	store, err := openBolt(dbPath)
	if err != nil {
		return nil, err
	}
	log.Info().Str("path", dbPath).Msg("[Journal] opened database")
	return newJournal(store), nil
}

func newJournal(store kvStore) *Journal {
	return &Journal{store: store}
}

func (j *Journal) Close() error {
	return j.store.Close()
}

// Record writes or overwrites an attempt.
func (j *Journal) Record(a *domain.Attempt) error {
	if a == nil || a.ID == "" {
		return errors.New("attempt without id")
	}
	data, err := sonic.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to marshal attempt %s: %w", a.ID, err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if a.Bundle == nil || a.Bundle.BundleID == "" {
		return j.store.Set(AttemptsBucket, []byte(a.ID), data)
	}

	ops := []*boltdb.WriteOperation{
		setOp(AttemptsBucket, a.ID, data),
		setOp(BundlesBucket, a.Bundle.BundleID, []byte(a.ID)),
	}
	if err := j.store.Apply(ops); err != nil {
		log.Error().Err(err).Str("attempt", a.ID).Msg("[Journal] FAILED to record attempt")
		return err
	}
	return nil
}

// List returns up to limit attempts, most recent first. limit <= 0 returns all.
func (j *Journal) List(limit int) ([]*domain.Attempt, error) {
	data, err := j.store.List(AttemptsBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}

	out := make([]*domain.Attempt, 0, len(data))
	for id, value := range data {
		var a domain.Attempt
		if err := sonic.Unmarshal(value, &a); err != nil {
			log.Warn().Str("id", id).Err(err).Msg("[Journal] failed to unmarshal attempt, skipping")
			continue
		}
		out = append(out, &a)
	}

	sort.Slice(out, func(i, k int) bool {
		if out[i].StartedAt.Equal(out[k].StartedAt) {
			return out[i].ID > out[k].ID
		}
		return out[i].StartedAt.After(out[k].StartedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Get returns the attempt with the given id.
func (j *Journal) Get(id string) (*domain.Attempt, error) {
	data, err := j.store.List(AttemptsBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}
	value, ok := data[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAttemptNotFound, id)
	}
	var a domain.Attempt
	if err := sonic.Unmarshal(value, &a); err != nil {
		return nil, fmt.Errorf("failed to unmarshal attempt %s: %w", id, err)
	}
	return &a, nil
}

// ByBundle resolves the attempt that submitted bundleID.
func (j *Journal) ByBundle(bundleID string) (*domain.Attempt, error) {
	index, err := j.store.List(BundlesBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to list bundles: %w", err)
	}
	id, ok := index[bundleID]
	if !ok {
		return nil, fmt.Errorf("%w: bundle %s", ErrAttemptNotFound, bundleID)
	}
	return j.Get(string(id))
}
