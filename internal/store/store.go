package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/littlstar/lstar/internal/domain"
	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	bucketDownloads = []byte("downloads")
	bucketVideos    = []byte("videos")
	bucketPhotos    = []byte("photos")
	bucketSynced    = []byte("synced")

	allBuckets = [][]byte{bucketDownloads, bucketVideos, bucketPhotos, bucketSynced}
)

// Store persists download records and cached listings in BoltDB.
// It implements domain.DownloadStore and domain.CatalogCache.
type Store struct {
	db *bolt.DB
	mu sync.RWMutex // Protects memory cache

	// Decoded-on-read copies of everything touched this run
	cache map[string][]byte
}

// Open opens the database under dir, namespaced by the service URL so that
// staging and production catalogs never mix. An empty dir keeps
// everything in memory.
func Open(dir, serviceURL string) (*Store, error) {
	if dir == "" {
		return &Store{cache: make(map[string][]byte)}, nil
	}

	if serviceURL != "" {
		dir = filepath.Join(dir, hashServiceURL(serviceURL))
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, domain.StorageError("open store", err)
	}

	db, err := bolt.Open(filepath.Join(dir, "lstar.db"), 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, domain.StorageError("open store", fmt.Errorf("failed to open bolt db: %w", err))
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, domain.StorageError("open store", err)
	}

	return &Store{db: db, cache: make(map[string][]byte)}, nil
}

func hashServiceURL(serviceURL string) string {
	normalized := strings.TrimRight(strings.ToLower(serviceURL), "/")
	hash := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(hash[:6])
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Persistent reports whether writes survive a restart
func (s *Store) Persistent() bool {
	return s.db != nil
}

func cacheKey(bucket []byte, key string) string {
	return string(bucket) + ":" + key
}

func (s *Store) get(bucket []byte, key string, dest any) bool {
	ck := cacheKey(bucket, key)

	s.mu.RLock()
	if data, ok := s.cache[ck]; ok {
		s.mu.RUnlock()
		return json.Unmarshal(data, dest) == nil
	}
	s.mu.RUnlock()

	if s.db == nil {
		return false
	}

	var data []byte
	s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucket).Get([]byte(key)); v != nil {
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if data == nil {
		return false
	}

	s.mu.Lock()
	s.cache[ck] = data
	s.mu.Unlock()

	return json.Unmarshal(data, dest) == nil
}

func (s *Store) set(bucket []byte, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.cache[cacheKey(bucket, key)] = data
	s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Put([]byte(key), data)
	})
}

func (s *Store) delete(bucket []byte, key string) error {
	s.mu.Lock()
	delete(s.cache, cacheKey(bucket, key))
	s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Delete([]byte(key))
	})
}

func (s *Store) deletePrefix(bucket []byte, prefix string) {
	s.mu.Lock()
	cp := cacheKey(bucket, prefix)
	for k := range s.cache {
		if strings.HasPrefix(k, cp) {
			delete(s.cache, k)
		}
	}
	s.mu.Unlock()

	if s.db == nil {
		return
	}
	s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		var keys [][]byte
		c := b.Cursor()
		for k, _ := c.Seek([]byte(prefix)); k != nil && strings.HasPrefix(string(k), prefix); k, _ = c.Next() {
			keys = append(keys, append([]byte(nil), k...))
		}
		for _, k := range keys {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

// values returns every raw value in a bucket, preferring the memory copy
func (s *Store) values(bucket []byte) [][]byte {
	seen := make(map[string][]byte)
	s.mu.RLock()
	prefix := cacheKey(bucket, "")
	for k, v := range s.cache {
		if strings.HasPrefix(k, prefix) {
			seen[strings.TrimPrefix(k, prefix)] = v
		}
	}
	s.mu.RUnlock()

	if s.db != nil {
		s.db.View(func(tx *bolt.Tx) error {
			return tx.Bucket(bucket).ForEach(func(k, v []byte) error {
				if _, ok := seen[string(k)]; !ok {
					seen[string(k)] = append([]byte(nil), v...)
				}
				return nil
			})
		})
	}

	out := make([][]byte, 0, len(seen))
	for _, v := range seen {
		out = append(out, v)
	}
	return out
}

// === Downloads ===

func downloadKey(videoID uint64) string {
	return strconv.FormatUint(videoID, 10)
}

func (s *Store) GetDownload(videoID uint64) (domain.DownloadRecord, bool) {
	var rec domain.DownloadRecord
	ok := s.get(bucketDownloads, downloadKey(videoID), &rec)
	return rec, ok
}

func (s *Store) SaveDownload(rec domain.DownloadRecord) error {
	if err := s.set(bucketDownloads, downloadKey(rec.VideoID), rec); err != nil {
		return domain.StorageError("save download", err)
	}
	return nil
}

func (s *Store) DeleteDownload(videoID uint64) error {
	if err := s.delete(bucketDownloads, downloadKey(videoID)); err != nil {
		return domain.StorageError("delete download", err)
	}
	return nil
}

// ListDownloads returns every record, oldest first
func (s *Store) ListDownloads() ([]domain.DownloadRecord, error) {
	var recs []domain.DownloadRecord
	for _, data := range s.values(bucketDownloads) {
		var rec domain.DownloadRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, domain.StorageError("list downloads", err)
		}
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].CreatedAt.Equal(recs[j].CreatedAt) {
			return recs[i].VideoID < recs[j].VideoID
		}
		return recs[i].CreatedAt.Before(recs[j].CreatedAt)
	})
	return recs, nil
}

// === Catalog cache (keyed by scope string, pages as scope#n) ===

func (s *Store) GetVideos(scope string) ([]*domain.Video, bool) {
	var videos []*domain.Video
	ok := s.get(bucketVideos, scope, &videos)
	return videos, ok
}

// SaveVideos caches a listing. Local download state is not persisted;
// it is reapplied when the listing is read back.
func (s *Store) SaveVideos(scope string, videos []*domain.Video, syncedAt time.Time) error {
	stripped := make([]*domain.Video, len(videos))
	for i, v := range videos {
		c := v.Clone()
		c.DownloadState = domain.NotDownloaded
		c.LocalPath = ""
		stripped[i] = c
	}
	if err := s.set(bucketVideos, scope, stripped); err != nil {
		return domain.StorageError("cache videos", err)
	}
	return s.markSynced(scope, syncedAt)
}

func (s *Store) GetPhotos(scope string) ([]*domain.Photo, bool) {
	var photos []*domain.Photo
	ok := s.get(bucketPhotos, scope, &photos)
	return photos, ok
}

func (s *Store) SavePhotos(scope string, photos []*domain.Photo, syncedAt time.Time) error {
	if err := s.set(bucketPhotos, scope, photos); err != nil {
		return domain.StorageError("cache photos", err)
	}
	return s.markSynced(scope, syncedAt)
}

func (s *Store) markSynced(scope string, at time.Time) error {
	if err := s.set(bucketSynced, scope, at.UnixNano()); err != nil {
		return domain.StorageError("cache timestamp", err)
	}
	return nil
}

// SyncedAt returns when a scope was last written
func (s *Store) SyncedAt(scope string) (time.Time, bool) {
	var ns int64
	if !s.get(bucketSynced, scope, &ns) {
		return time.Time{}, false
	}
	return time.Unix(0, ns), true
}

// InvalidateScope drops a scope's full listing along with its cached pages and searches
func (s *Store) InvalidateScope(scope string) {
	for _, bucket := range [][]byte{bucketVideos, bucketPhotos, bucketSynced} {
		s.delete(bucket, scope)
		s.deletePrefix(bucket, scope+"#")
		s.deletePrefix(bucket, scope+"?")
	}
}

// InvalidateAll drops every cached listing. Download records are kept.
func (s *Store) InvalidateAll() {
	for _, bucket := range [][]byte{bucketVideos, bucketPhotos, bucketSynced} {
		s.deletePrefix(bucket, "")
	}
}
