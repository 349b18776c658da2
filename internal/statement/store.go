package statement

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"go.etcd.io/bbolt"
)

const sessionBucketName = "session"

const (
	statementsKey = "statements"
	userKey       = "user"
	apiKeyKey     = "api_key"
)

// SessionStore defines the interface for session persistence. The
// statement collection is mirrored on every mutation and read back at
// construction; corrupt or missing data always loads as empty, never as
// a fatal error.
type SessionStore interface {
	// SaveStatements replaces the persisted statement mirror
	SaveStatements(statements []StatementData) error

	// LoadStatements returns the persisted statement mirror
	LoadStatements() ([]StatementData, error)

	// SaveUser persists the signed-in user profile
	SaveUser(user *UserProfile) error

	// LoadUser returns the signed-in user, or nil when nobody is signed in
	LoadUser() (*UserProfile, error)

	// SaveAPIKey persists the user-entered extraction API key
	SaveAPIKey(key string) error

	// LoadAPIKey returns the persisted extraction API key
	LoadAPIKey() (string, error)

	// Clear wipes the whole session: statements, user, stored key
	Clear() error

	// Close closes the store
	Close() error
}

// BoltStore implements the SessionStore interface using BoltDB
type BoltStore struct {
	db *bbolt.DB
}

// NewBoltStore creates a new BoltStore instance
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(sessionBucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating session bucket: %w", err)
	}

	return &BoltStore{db: db}, nil
}

func (b *BoltStore) put(key string, value []byte) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(sessionBucketName)).Put([]byte(key), value)
	})
}

func (b *BoltStore) get(key string) ([]byte, error) {
	var value []byte
	err := b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(sessionBucketName)).Get([]byte(key))
		if data != nil {
			value = append([]byte(nil), data...)
		}
		return nil
	})
	return value, err
}

// SaveStatements replaces the persisted statement mirror
func (b *BoltStore) SaveStatements(statements []StatementData) error {
	if statements == nil {
		statements = []StatementData{}
	}
	data, err := json.Marshal(statements)
	if err != nil {
		return fmt.Errorf("marshaling statements: %w", err)
	}
	return b.put(statementsKey, data)
}

// LoadStatements returns the persisted statement mirror. Missing or
// corrupt data loads as an empty collection.
func (b *BoltStore) LoadStatements() ([]StatementData, error) {
	data, err := b.get(statementsKey)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return []StatementData{}, nil
	}

	var statements []StatementData
	if err := json.Unmarshal(data, &statements); err != nil {
		slog.Warn("Discarding corrupt session statements", "error", err)
		return []StatementData{}, nil
	}
	return statements, nil
}

// SaveUser persists the signed-in user profile
func (b *BoltStore) SaveUser(user *UserProfile) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshaling user: %w", err)
	}
	return b.put(userKey, data)
}

// LoadUser returns the signed-in user, or nil when nobody is signed in
func (b *BoltStore) LoadUser() (*UserProfile, error) {
	data, err := b.get(userKey)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}

	var user UserProfile
	if err := json.Unmarshal(data, &user); err != nil {
		slog.Warn("Discarding corrupt user profile", "error", err)
		return nil, nil
	}
	return &user, nil
}

// SaveAPIKey persists the user-entered extraction API key
func (b *BoltStore) SaveAPIKey(key string) error {
	return b.put(apiKeyKey, []byte(key))
}

// LoadAPIKey returns the persisted extraction API key
func (b *BoltStore) LoadAPIKey() (string, error) {
	data, err := b.get(apiKeyKey)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Clear wipes the whole session bucket
func (b *BoltStore) Clear() error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket([]byte(sessionBucketName)); err != nil {
			return err
		}
		_, err := tx.CreateBucket([]byte(sessionBucketName))
		return err
	})
}

// Close closes the store
func (b *BoltStore) Close() error {
	return b.db.Close()
}
