package history

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// FileStore keeps the whole history as one JSON array, most recent first.
// Every mutation rewrites the file while holding mu.
type FileStore struct {
	mu     sync.Mutex
	path   string
	docDir string
	now    func() time.Time
}

// NewFileStore opens the history file at path. docDir is where the
// generated documents live; DeleteAt removes files from there.
func NewFileStore(path, docDir string) *FileStore {
	return &FileStore{path: path, docDir: docDir, now: time.Now}
}

// load reads the file. A missing file is empty; an unreadable or corrupt
// one is reported as empty with corrupt set.
func (s *FileStore) load() (records []Record, corrupt bool) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false
	}
	if err != nil {
		logrus.WithFields(logrus.Fields{"path": s.path, "error": err}).Warn("Failed to read history file, treating as empty")
		return nil, true
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, false
	}
	if err := json.Unmarshal(data, &records); err != nil {
		logrus.WithFields(logrus.Fields{"path": s.path, "error": err}).Warn("History file is corrupt, treating as empty")
		return nil, true
	}
	return records, false
}

// loadForWrite is load for mutations: a corrupt file is moved aside before
// it gets overwritten.
func (s *FileStore) loadForWrite() []Record {
	records, corrupt := s.load()
	if corrupt {
		backup := fmt.Sprintf("%s.corrupt-%d", s.path, s.now().Unix())
		if err := os.Rename(s.path, backup); err != nil {
			logrus.WithFields(logrus.Fields{"path": s.path, "error": err}).Warn("Failed to move corrupt history file aside")
		} else {
			logrus.WithField("backup", backup).Warn("Moved corrupt history file aside")
		}
	}
	return records
}

func (s *FileStore) save(records []Record) error {
	if records == nil {
		records = []Record{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("history: encode: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("history: create dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".history-*.json")
	if err != nil {
		return fmt.Errorf("history: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("history: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("history: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("history: replace %s: %w", s.path, err)
	}
	return nil
}

// positions returns the indexes into records owned by userID, in order.
func positions(records []Record, userID uint) []int {
	var out []int
	for i, r := range records {
		if r.UserID == userID {
			out = append(out, i)
		}
	}
	return out
}

func (s *FileStore) Append(_ context.Context, rec Record) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}
	records := s.loadForWrite()
	records = append([]Record{rec}, records...)
	if err := s.save(records); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (s *FileStore) ListForUser(_ context.Context, userID uint) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, _ := s.load()
	out := make([]Record, 0, len(records))
	for _, i := range positions(records, userID) {
		out = append(out, records[i])
	}
	return out, nil
}

func (s *FileStore) At(_ context.Context, userID uint, index int) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, _ := s.load()
	pos := positions(records, userID)
	if index < 0 || index >= len(pos) {
		return Record{}, ErrNotFound
	}
	return records[pos[index]], nil
}

func (s *FileStore) DeleteAt(_ context.Context, userID uint, index int) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.loadForWrite()
	pos := positions(records, userID)
	if index < 0 || index >= len(pos) {
		return Record{}, ErrNotFound
	}
	i := pos[index]
	rec := records[i]
	records = append(records[:i:i], records[i+1:]...)
	if err := s.save(records); err != nil {
		return Record{}, err
	}
	removeDocument(s.docDir, rec.File)
	return rec, nil
}

func (s *FileStore) MarkDownloaded(_ context.Context, file string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, corrupt := s.load()
	if corrupt {
		return nil
	}
	for i := range records {
		if records[i].File == file {
			records[i].LastDownloaded = at.Format(DownloadLayout)
			return s.save(records)
		}
	}
	return nil
}

func (s *FileStore) FindByFile(_ context.Context, userID uint, file string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, _ := s.load()
	for _, r := range records {
		if r.File == file && r.UserID == userID {
			return r, nil
		}
	}
	return Record{}, ErrNotFound
}

func (s *FileStore) Files(_ context.Context) (map[string]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, corrupt := s.load()
	if corrupt {
		return nil, fmt.Errorf("history: %s is unreadable", s.path)
	}
	out := make(map[string]struct{}, len(records))
	for _, r := range records {
		out[r.File] = struct{}{}
	}
	return out, nil
}
