package domain

import "time"

// DownloadRecord remembers where an offline copy lives
type DownloadRecord struct {
	VideoID   uint64    `json:"video_id"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// DownloadStore persists download records across runs
type DownloadStore interface {
	GetDownload(videoID uint64) (DownloadRecord, bool)
	SaveDownload(rec DownloadRecord) error
	DeleteDownload(videoID uint64) error
	ListDownloads() ([]DownloadRecord, error)
}

// CatalogCache keeps synchronized listings for offline browsing and search
type CatalogCache interface {
	GetVideos(scope string) ([]*Video, bool)
	SaveVideos(scope string, videos []*Video, syncedAt time.Time) error
	GetPhotos(scope string) ([]*Photo, bool)
	SavePhotos(scope string, photos []*Photo, syncedAt time.Time) error
	SyncedAt(scope string) (time.Time, bool)
	InvalidateScope(scope string)
	InvalidateAll()
}
