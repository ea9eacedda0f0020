package history_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"quotation_system/internal/history"
)

func newStore(c *qt.C) (*history.FileStore, string, string) {
	dir := c.TempDir()
	docs := filepath.Join(dir, "static")
	c.Assert(os.MkdirAll(docs, 0o755), qt.IsNil)
	path := filepath.Join(dir, "quotation_history.json")
	return history.NewFileStore(path, docs), path, docs
}

func record(user uint, file string) history.Record {
	return history.Record{
		QuotationNo:  "LSY/001",
		CustomerName: "Acme",
		Date:         "16-10-2026",
		File:         file,
		Total:        118,
		UserID:       user,
		Data: history.Snapshot{
			CustomerName: "Acme",
			ProductName:  []string{"Bolt"},
			Description:  []string{""},
			Quantity:     []float64{2},
			UnitPrice:    []float64{50},
		},
	}
}

func TestAppendAndList(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	s, path, _ := newStore(c)

	first, err := s.Append(ctx, record(1, "a.pdf"))
	c.Assert(err, qt.IsNil)
	c.Assert(first.ID, qt.Not(qt.Equals), "")
	c.Assert(first.CreatedAt.IsZero(), qt.IsFalse)

	_, err = s.Append(ctx, record(1, "b.pdf"))
	c.Assert(err, qt.IsNil)

	list, err := s.ListForUser(ctx, 1)
	c.Assert(err, qt.IsNil)
	c.Assert(list, qt.HasLen, 2)
	c.Assert(list[0].File, qt.Equals, "b.pdf")
	c.Assert(list[1].File, qt.Equals, "a.pdf")
	c.Assert(list[1].Data.Quantity, qt.DeepEquals, []float64{2})

	raw, err := os.ReadFile(path)
	c.Assert(err, qt.IsNil)
	var onDisk []map[string]any
	c.Assert(json.Unmarshal(raw, &onDisk), qt.IsNil)
	c.Assert(onDisk, qt.HasLen, 2)
	for _, key := range []string{"quotation_no", "customer_name", "date", "file", "total", "user_id", "data"} {
		_, ok := onDisk[0][key]
		c.Assert(ok, qt.IsTrue, qt.Commentf("missing key %q", key))
	}
}

func TestIndexesAreScopedToUser(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	s, _, _ := newStore(c)

	for _, r := range []history.Record{record(1, "u1-old.pdf"), record(2, "u2.pdf"), record(1, "u1-new.pdf")} {
		_, err := s.Append(ctx, r)
		c.Assert(err, qt.IsNil)
	}

	got, err := s.At(ctx, 1, 1)
	c.Assert(err, qt.IsNil)
	c.Assert(got.File, qt.Equals, "u1-old.pdf")

	got, err = s.At(ctx, 2, 0)
	c.Assert(err, qt.IsNil)
	c.Assert(got.File, qt.Equals, "u2.pdf")

	_, err = s.At(ctx, 2, 1)
	c.Assert(err, qt.ErrorIs, history.ErrNotFound)
	_, err = s.At(ctx, 1, -1)
	c.Assert(err, qt.ErrorIs, history.ErrNotFound)
	_, err = s.At(ctx, 3, 0)
	c.Assert(err, qt.ErrorIs, history.ErrNotFound)

	list, err := s.ListForUser(ctx, 2)
	c.Assert(err, qt.IsNil)
	c.Assert(list, qt.HasLen, 1)
}

func TestDeleteAtRemovesRecordAndDocument(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	s, _, docs := newStore(c)

	for _, name := range []string{"keep.pdf", "drop.pdf"} {
		c.Assert(os.WriteFile(filepath.Join(docs, name), []byte("%PDF-1.3"), 0o644), qt.IsNil)
	}
	_, err := s.Append(ctx, record(1, "keep.pdf"))
	c.Assert(err, qt.IsNil)
	_, err = s.Append(ctx, record(2, "other.pdf"))
	c.Assert(err, qt.IsNil)
	_, err = s.Append(ctx, record(1, "drop.pdf"))
	c.Assert(err, qt.IsNil)

	// user 2 cannot reach user 1's entries by index
	_, err = s.DeleteAt(ctx, 2, 1)
	c.Assert(err, qt.ErrorIs, history.ErrNotFound)

	deleted, err := s.DeleteAt(ctx, 1, 0)
	c.Assert(err, qt.IsNil)
	c.Assert(deleted.File, qt.Equals, "drop.pdf")

	_, err = os.Stat(filepath.Join(docs, "drop.pdf"))
	c.Assert(os.IsNotExist(err), qt.IsTrue)
	_, err = os.Stat(filepath.Join(docs, "keep.pdf"))
	c.Assert(err, qt.IsNil)

	list, err := s.ListForUser(ctx, 1)
	c.Assert(err, qt.IsNil)
	c.Assert(list, qt.HasLen, 1)
	c.Assert(list[0].File, qt.Equals, "keep.pdf")

	others, err := s.ListForUser(ctx, 2)
	c.Assert(err, qt.IsNil)
	c.Assert(others, qt.HasLen, 1)
}

func TestDeleteAtToleratesMissingDocument(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	s, _, _ := newStore(c)

	_, err := s.Append(ctx, record(1, "gone.pdf"))
	c.Assert(err, qt.IsNil)

	_, err = s.DeleteAt(ctx, 1, 0)
	c.Assert(err, qt.IsNil)
}

func TestMissingAndCorruptFileReadAsEmpty(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	s, path, _ := newStore(c)

	list, err := s.ListForUser(ctx, 1)
	c.Assert(err, qt.IsNil)
	c.Assert(list, qt.HasLen, 0)

	c.Assert(os.WriteFile(path, []byte("{not json"), 0o644), qt.IsNil)

	list, err = s.ListForUser(ctx, 1)
	c.Assert(err, qt.IsNil)
	c.Assert(list, qt.HasLen, 0)
	_, err = s.At(ctx, 1, 0)
	c.Assert(err, qt.ErrorIs, history.ErrNotFound)

	_, err = s.Files(ctx)
	c.Assert(err, qt.IsNotNil)

	// the next write starts a fresh file and keeps the corrupt one aside
	_, err = s.Append(ctx, record(1, "new.pdf"))
	c.Assert(err, qt.IsNil)
	list, err = s.ListForUser(ctx, 1)
	c.Assert(err, qt.IsNil)
	c.Assert(list, qt.HasLen, 1)

	backups, err := filepath.Glob(path + ".corrupt-*")
	c.Assert(err, qt.IsNil)
	c.Assert(backups, qt.HasLen, 1)
}

func TestMarkDownloaded(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	s, _, _ := newStore(c)

	_, err := s.Append(ctx, record(1, "a.pdf"))
	c.Assert(err, qt.IsNil)

	at := time.Date(2026, 10, 16, 14, 30, 0, 0, time.Local)
	c.Assert(s.MarkDownloaded(ctx, "a.pdf", at), qt.IsNil)
	c.Assert(s.MarkDownloaded(ctx, "unknown.pdf", at), qt.IsNil)

	got, err := s.At(ctx, 1, 0)
	c.Assert(err, qt.IsNil)
	c.Assert(got.LastDownloaded, qt.Equals, "16-10-2026 14:30")
}

func TestFindByFileAndFiles(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	s, _, _ := newStore(c)

	_, err := s.Append(ctx, record(1, "a.pdf"))
	c.Assert(err, qt.IsNil)
	_, err = s.Append(ctx, record(2, "b.pdf"))
	c.Assert(err, qt.IsNil)

	got, err := s.FindByFile(ctx, 1, "a.pdf")
	c.Assert(err, qt.IsNil)
	c.Assert(got.UserID, qt.Equals, uint(1))

	_, err = s.FindByFile(ctx, 1, "b.pdf")
	c.Assert(err, qt.ErrorIs, history.ErrNotFound)

	files, err := s.Files(ctx)
	c.Assert(err, qt.IsNil)
	c.Assert(files, qt.DeepEquals, map[string]struct{}{"a.pdf": {}, "b.pdf": {}})
}

func TestConcurrentAppends(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	s, _, _ := newStore(c)

	const n = 20
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			_, err := s.Append(ctx, record(1, "x.pdf"))
			errs <- err
		}()
	}
	for i := 0; i < n; i++ {
		c.Assert(<-errs, qt.IsNil)
	}

	list, err := s.ListForUser(ctx, 1)
	c.Assert(err, qt.IsNil)
	c.Assert(list, qt.HasLen, n)
}
