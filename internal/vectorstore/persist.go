package vectorstore

import (
	"encoding/binary"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"
)

var (
	bucketVectors = []byte("vectors")
	bucketMeta    = []byte("meta")

	metaDimension = []byte("dimension")
	metaCount     = []byte("count")
)

// Save writes the full index to a bolt database at path, replacing any
// previous snapshot in the file.
func (s *Store) Save(path string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return fmt.Errorf("open vector snapshot: %w", err)
	}
	defer func() {
		_ = db.Close()
	}()

	err = db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket(bucketVectors) != nil {
			if err := tx.DeleteBucket(bucketVectors); err != nil {
				return err
			}
		}
		vb, err := tx.CreateBucket(bucketVectors)
		if err != nil {
			return err
		}
		mb, err := tx.CreateBucketIfNotExists(bucketMeta)
		if err != nil {
			return err
		}

		if err := mb.Put(metaDimension, encodeUint64(uint64(s.dimension))); err != nil {
			return err
		}
		if err := mb.Put(metaCount, encodeUint64(uint64(len(s.vectors)))); err != nil {
			return err
		}

		for id, v := range s.vectors {
			if err := vb.Put(encodeUint64(uint64(id)), encodeVector(v)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("write vector snapshot: %w", err)
	}

	s.logger.Info("saved vector snapshot",
		zap.String("path", path),
		zap.Int("vectors", len(s.vectors)))

	return nil
}

// Load replaces the store contents with the snapshot at path. The snapshot
// dimension must match the store's.
func (s *Store) Load(path string) error {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second, ReadOnly: true})
	if err != nil {
		return fmt.Errorf("open vector snapshot: %w", err)
	}
	defer func() {
		_ = db.Close()
	}()

	var vectors [][]float32

	err = db.View(func(tx *bolt.Tx) error {
		mb := tx.Bucket(bucketMeta)
		vb := tx.Bucket(bucketVectors)
		if mb == nil || vb == nil {
			return fmt.Errorf("snapshot missing buckets")
		}

		dim := binary.BigEndian.Uint64(mb.Get(metaDimension))
		if int(dim) != s.dimension {
			return fmt.Errorf("%w: snapshot dimension %d, store dimension %d",
				ErrDimensionMismatch, dim, s.dimension)
		}

		count := binary.BigEndian.Uint64(mb.Get(metaCount))
		vectors = make([][]float32, count)

		return vb.ForEach(func(k, v []byte) error {
			id := binary.BigEndian.Uint64(k)
			if id >= count {
				return fmt.Errorf("snapshot id %d out of range", id)
			}
			vec, err := decodeVector(v)
			if err != nil {
				return err
			}
			vectors[id] = vec
			return nil
		})
	})
	if err != nil {
		return fmt.Errorf("read vector snapshot: %w", err)
	}

	for id, v := range vectors {
		if v == nil {
			return fmt.Errorf("snapshot missing vector %d", id)
		}
	}

	s.mu.Lock()
	s.vectors = vectors
	s.mu.Unlock()

	s.logger.Info("loaded vector snapshot",
		zap.String("path", path),
		zap.Int("vectors", len(vectors)))

	return nil
}

func encodeUint64(n uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, n)
	return buf
}
