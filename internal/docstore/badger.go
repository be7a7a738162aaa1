package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// BadgerConfig configures a BadgerBackend.
type BadgerConfig struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path string
	// InMemory keeps everything in RAM. Used by tests.
	InMemory bool
	// SyncWrites fsyncs every commit.
	SyncWrites bool
	// Logger receives badger's internal log lines. Nil silences them.
	Logger *slog.Logger
}

// BadgerBackend stores documents in an embedded BadgerDB. Keys have the
// form doc/{user}/{collection}/{id}.
type BadgerBackend struct {
	db *badger.DB
}

var _ Backend = (*BadgerBackend)(nil)

// badgerDoc is the stored value.
type badgerDoc struct {
	Created time.Time       `json:"created"`
	Body    json.RawMessage `json:"body"`
}

type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Infof(format string, args ...any) {
	l.logger.Info(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

// OpenBadger opens (or creates) a badger database.
func OpenBadger(cfg BadgerConfig) (*BadgerBackend, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("badger path is required for a persistent store")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create badger dir %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger.With("component", "badger")})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &BadgerBackend{db: db}, nil
}

func badgerKey(k Key) []byte {
	return []byte("doc/" + k.UserID + "/" + k.Collection + "/" + k.ID)
}

func badgerPrefix(userID, collection string) []byte {
	return []byte("doc/" + userID + "/" + collection + "/")
}

// Insert implements Backend.
func (b *BadgerBackend) Insert(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	val, err := json.Marshal(badgerDoc{Created: rec.Created, Body: rec.Body})
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(badgerKey(rec.Key), val)
	})
}

// Modify implements Backend.
func (b *BadgerBackend) Modify(ctx context.Context, key Key, fn func([]byte) ([]byte, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	k := badgerKey(key)
	return b.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(k)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return notFound("modify document", key)
		}
		if err != nil {
			return err
		}
		var doc badgerDoc
		if err := item.Value(func(v []byte) error { return json.Unmarshal(v, &doc) }); err != nil {
			return fmt.Errorf("decode document: %w", err)
		}
		body, err := fn(doc.Body)
		if err != nil {
			return err
		}
		doc.Body = body
		val, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("encode document: %w", err)
		}
		return txn.Set(k, val)
	})
}

// Delete implements Backend.
func (b *BadgerBackend) Delete(ctx context.Context, key Key) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	k := badgerKey(key)
	return b.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(k); errors.Is(err, badger.ErrKeyNotFound) {
			return notFound("delete document", key)
		} else if err != nil {
			return err
		}
		return txn.Delete(k)
	})
}

// List implements Backend.
func (b *BadgerBackend) List(ctx context.Context, userID, collection string) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	prefix := badgerPrefix(userID, collection)
	var out []Record
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			id := strings.TrimPrefix(string(item.Key()), string(prefix))
			var doc badgerDoc
			if err := item.Value(func(v []byte) error { return json.Unmarshal(v, &doc) }); err != nil {
				return fmt.Errorf("decode document %s: %w", id, err)
			}
			out = append(out, Record{
				Key:     Key{UserID: userID, Collection: collection, ID: id},
				Created: doc.Created,
				Body:    doc.Body,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortRecords(out)
	return out, nil
}

// Close implements Backend.
func (b *BadgerBackend) Close() error {
	return b.db.Close()
}

func sortRecords(recs []Record) {
	sort.SliceStable(recs, func(i, j int) bool {
		if !recs[i].Created.Equal(recs[j].Created) {
			return recs[i].Created.Before(recs[j].Created)
		}
		return recs[i].ID < recs[j].ID
	})
}
