// Package archive keeps an append-only copy of raw endpoint payloads in a
// local bbolt file, one bucket per endpoint keyed by capture time. It is a
// secondary sink next to the relational store; pruning is left to whoever
// owns the file.
package archive

import (
	"bytes"
	"encoding/binary"
	"git.gammaspectra.live/P2Pool/p2pool-stats/stats"
	bolt "go.etcd.io/bbolt"
	"time"
)

type Archive struct {
	db *bolt.DB
}

func NewArchive(path string) (*Archive, error) {
	db, err := bolt.Open(path, 0666, &bolt.Options{Timeout: time.Second * 5})
	if err != nil {
		return nil, err
	}
	if err = db.Update(func(tx *bolt.Tx) error {
		for _, e := range stats.Endpoints() {
			if _, err := tx.CreateBucketIfNotExists([]byte(e.Table())); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Archive{
		db: db,
	}, nil
}

func timeKey(t time.Time) []byte {
	var key [8]byte
	binary.BigEndian.PutUint64(key[:], uint64(t.UnixNano()))
	return key[:]
}

func (a *Archive) Store(e stats.Endpoint, capturedAt time.Time, raw []byte) error {
	return a.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(e.Table())).Put(timeKey(capturedAt), raw)
	})
}

// Latest returns the most recently archived payload for an endpoint.
func (a *Archive) Latest(e stats.Endpoint) (raw []byte, capturedAt time.Time, ok bool) {
	_ = a.db.View(func(tx *bolt.Tx) error {
		k, v := tx.Bucket([]byte(e.Table())).Cursor().Last()
		if k == nil {
			return nil
		}
		raw = append([]byte(nil), v...)
		capturedAt = time.Unix(0, int64(binary.BigEndian.Uint64(k)))
		ok = true
		return nil
	})
	return raw, capturedAt, ok
}

// Range walks archived payloads captured within [start, end] in time order.
// The callback returns false to stop early.
func (a *Archive) Range(e stats.Endpoint, start, end time.Time, f func(capturedAt time.Time, raw []byte) bool) error {
	return a.db.View(func(tx *bolt.Tx) error {
		cursor := tx.Bucket([]byte(e.Table())).Cursor()
		max := timeKey(end)
		for k, v := cursor.Seek(timeKey(start)); k != nil && bytes.Compare(k, max) <= 0; k, v = cursor.Next() {
			if !f(time.Unix(0, int64(binary.BigEndian.Uint64(k))), append([]byte(nil), v...)) {
				return nil
			}
		}
		return nil
	})
}

func (a *Archive) Close() {
	_ = a.db.Close()
}
