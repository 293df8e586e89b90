package main

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/boltdb/bolt"
	"go.uber.org/zap"
)

var _ EventArchiveCloser = (*boltEventArchive)(nil) // ensure boltEventArchive implements EventArchiveCloser.

type boltEventArchive struct {
	logger *zap.Logger
	client *bolt.DB
	config *BoltDBConfig
}

// GetBoltDBClient setup the database and the bucket then provides a ready to use client.
func GetBoltDBClient(config *Config) (*bolt.DB, error) {
	db, err := bolt.Open(config.BoltDB.FilePath, 0o600, &bolt.Options{Timeout: config.BoltDB.Timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open the database, %v", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		if _, errB := tx.CreateBucketIfNotExists([]byte(config.BoltDB.BucketName)); errB != nil {
			return fmt.Errorf("failed to create %s bucket: %v", config.BoltDB.BucketName, errB)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set up bucket: %v", err)
	}
	return db, nil
}

// NewBoltEventArchive provides an instance of bolt-based events archive.
func NewBoltEventArchive(logger *zap.Logger, boltConfig *BoltDBConfig, client *bolt.DB) EventArchiveCloser {
	return &boltEventArchive{
		logger: logger,
		client: client,
		config: boltConfig,
	}
}

// Close shuts down the underlying bolt database.
func (ba *boltEventArchive) Close() error {
	return ba.client.Close()
}

// seqKey encodes a sequence number so that keys sort in insertion order.
func seqKey(seq uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, seq)
	return b
}

// Append stores the event under the next bucket sequence and returns that sequence.
func (ba *boltEventArchive) Append(_ context.Context, event BookEvent) (uint64, error) {
	var seq uint64
	err := ba.client.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(ba.config.BucketName))
		var err error
		seq, err = bucket.NextSequence()
		if err != nil {
			return err
		}
		event.Seq = seq
		eventBytes, err := json.Marshal(event)
		if err != nil {
			return err
		}
		return bucket.Put(seqKey(seq), eventBytes)
	})
	return seq, err
}

// GetAll retrieves all archived events ordered by sequence.
func (ba *boltEventArchive) GetAll(_ context.Context) ([]BookEvent, error) {
	tx, err := ba.client.Begin(false)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	c := tx.Bucket([]byte(ba.config.BucketName)).Cursor()

	events := []BookEvent{}
	for k, v := c.First(); k != nil; k, v = c.Next() {
		var event BookEvent
		if err = json.Unmarshal(v, &event); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, nil
}
