package storage

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/littlstar/lstar/internal/domain"
)

const partialSuffix = ".part"

// Local keeps offline copies as flat files in one directory.
// Final files are named <id><ext>; in-progress files are hidden
// as .<id>-<uuid>.part until committed.
type Local struct {
	dir string
}

// NewLocal creates the directory if needed
func NewLocal(dir string) (*Local, error) {
	if dir == "" {
		return nil, domain.StorageError("open storage", fmt.Errorf("download directory is not set"))
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, domain.StorageError("open storage", err)
	}
	return &Local{dir: dir}, nil
}

func (l *Local) Dir() string {
	return l.dir
}

// FinalPath returns where the committed file for id lives
func (l *Local) FinalPath(id uint64, ext string) string {
	return filepath.Join(l.dir, strconv.FormatUint(id, 10)+normalizeExt(ext))
}

// Create opens a fresh partial file for id
func (l *Local) Create(id uint64, ext string) (*Partial, error) {
	name := fmt.Sprintf(".%d-%s%s", id, uuid.NewString(), partialSuffix)
	path := filepath.Join(l.dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return nil, domain.StorageError("create partial file", err)
	}
	return &Partial{f: f, path: path, final: l.FinalPath(id, ext)}, nil
}

// Exists reports whether path is a regular file
func (l *Local) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Remove deletes a file. A missing file is reported as ErrLocalFileMissing.
func (l *Local) Remove(path string) error {
	err := os.Remove(path)
	if os.IsNotExist(err) {
		return domain.StorageError("remove", domain.ErrLocalFileMissing)
	}
	if err != nil {
		return domain.StorageError("remove", err)
	}
	return nil
}

// Orphans lists partial files left behind for id
func (l *Local) Orphans(id uint64) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(l.dir, fmt.Sprintf(".%d-*%s", id, partialSuffix)))
	if err != nil {
		return nil, domain.StorageError("list partial files", err)
	}
	return matches, nil
}

// AllOrphans lists every partial file in the directory, keyed by video id
func (l *Local) AllOrphans() (map[uint64][]string, error) {
	matches, err := filepath.Glob(filepath.Join(l.dir, ".*"+partialSuffix))
	if err != nil {
		return nil, domain.StorageError("list partial files", err)
	}
	out := make(map[uint64][]string)
	for _, path := range matches {
		if id, ok := PartialID(path); ok {
			out[id] = append(out[id], path)
		}
	}
	return out, nil
}

// PartialID extracts the video id from a partial file name
func PartialID(path string) (uint64, bool) {
	name := strings.TrimPrefix(filepath.Base(path), ".")
	head, _, ok := strings.Cut(name, "-")
	if !ok || !strings.HasSuffix(name, partialSuffix) {
		return 0, false
	}
	id, err := strconv.ParseUint(head, 10, 64)
	return id, err == nil
}

// URL returns a file:// URL for a local path
func (l *Local) URL(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String()
}

func normalizeExt(ext string) string {
	if ext == "" {
		return ".mp4"
	}
	if !strings.HasPrefix(ext, ".") {
		return "." + ext
	}
	return ext
}

// ExtFromURL guesses a file extension from a media URL
func ExtFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ".mp4"
	}
	ext := strings.ToLower(filepath.Ext(u.Path))
	if ext == "" || len(ext) > 5 {
		return ".mp4"
	}
	return ext
}

// Partial is a file being written. Exactly one of Commit and Discard
// should end its life; Close alone leaves the file for orphan cleanup.
type Partial struct {
	f      *os.File
	path   string
	final  string
	closed bool
}

var _ io.Writer = (*Partial)(nil)

func (p *Partial) Path() string {
	return p.path
}

// FinalPath is where Commit moves the file
func (p *Partial) FinalPath() string {
	return p.final
}

func (p *Partial) Write(b []byte) (int, error) {
	n, err := p.f.Write(b)
	if err != nil {
		return n, domain.StorageError("write", err)
	}
	return n, nil
}

// Close releases the file handle. Safe to call more than once.
func (p *Partial) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	if err := p.f.Close(); err != nil {
		return domain.StorageError("close", err)
	}
	return nil
}

// Discard closes and deletes the partial file
func (p *Partial) Discard() error {
	p.Close()
	if err := os.Remove(p.path); err != nil && !os.IsNotExist(err) {
		return domain.StorageError("discard", err)
	}
	return nil
}

// Commit flushes the data and moves it to its final name
func (p *Partial) Commit() (string, error) {
	if !p.closed {
		if err := p.f.Sync(); err != nil {
			p.Discard()
			return "", domain.StorageError("commit", err)
		}
	}
	if err := p.Close(); err != nil {
		p.Discard()
		return "", err
	}
	if err := os.Rename(p.path, p.final); err != nil {
		p.Discard()
		return "", domain.StorageError("commit", err)
	}
	return p.final, nil
}
