// Package janitor removes generated documents that no history record
// refers to any more.
package janitor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// FileIndex lists every document name still referenced.
type FileIndex interface {
	Files(ctx context.Context) (map[string]struct{}, error)
}

// Janitor sweeps a document directory.
type Janitor struct {
	dir     string
	grace   time.Duration
	index   FileIndex
	timeout time.Duration
	now     func() time.Time
	running atomic.Bool
}

// New returns a Janitor for dir. Files younger than grace are never removed,
// so a document being written is safe before its record exists.
func New(dir string, grace time.Duration, index FileIndex) *Janitor {
	return &Janitor{dir: dir, grace: grace, index: index, timeout: 5 * time.Minute, now: time.Now}
}

func isDocument(name string) bool {
	return strings.HasPrefix(name, "quotation_") && strings.EqualFold(filepath.Ext(name), ".pdf")
}

// Sweep removes orphaned documents and returns their names.
func (j *Janitor) Sweep(ctx context.Context) ([]string, error) {
	known, err := j.index.Files(ctx)
	if err != nil {
		return nil, fmt.Errorf("janitor: list referenced files: %w", err)
	}
	entries, err := os.ReadDir(j.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("janitor: read %s: %w", j.dir, err)
	}

	cutoff := j.now().Add(-j.grace)
	var removed []string
	for _, e := range entries {
		if ctx.Err() != nil {
			return removed, ctx.Err()
		}
		name := e.Name()
		if !e.Type().IsRegular() || !isDocument(name) {
			continue
		}
		if _, ok := known[name]; ok {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(j.dir, name)); err != nil {
			logrus.WithFields(logrus.Fields{"file": name, "error": err}).Warn("Failed to remove orphaned document")
			continue
		}
		removed = append(removed, name)
	}
	return removed, nil
}

// Run is the scheduled entry point. A run that starts while another is
// still in progress is skipped.
func (j *Janitor) Run() {
	if !j.running.CompareAndSwap(false, true) {
		logrus.Info("Previous document sweep still running, skipping")
		return
	}
	defer j.running.Store(false)

	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	removed, err := j.Sweep(ctx)
	if err != nil {
		logrus.WithField("error", err).Error("Document sweep failed")
		return
	}
	logrus.WithFields(logrus.Fields{"dir": j.dir, "removed": len(removed)}).Info("Document sweep finished")
}

// Schedule registers j on a new cron runner with the given spec. The caller
// starts and stops the returned runner.
func Schedule(spec string, j *Janitor) (*cron.Cron, error) {
	c := cron.New(cron.WithLogger(cron.PrintfLogger(logrus.StandardLogger())))
	if _, err := c.AddFunc(spec, j.Run); err != nil {
		return nil, fmt.Errorf("janitor: schedule %q: %w", spec, err)
	}
	return c, nil
}
