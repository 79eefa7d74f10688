// Package snapshot takes periodic copies of the store file so a bad import
// or an accidental bulk delete can be recovered by hand.
package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"

	appLog "nascal/internal/log"
)

// BackupDirName is the directory, next to the store file, that snapshots
// land in.
const BackupDirName = "backup"

// Runner copies the store file to the backup directory on a cron schedule.
type Runner struct {
	src  string
	dir  string
	cron *cron.Cron
}

// New builds a Runner for the store file at src. Snapshots go to
// <dir-of-src>/backup.
func New(src string) *Runner {
	return &Runner{
		src:  src,
		dir:  filepath.Join(filepath.Dir(src), BackupDirName),
		cron: cron.New(),
	}
}

// Start schedules snapshots with the given cron expression and starts the
// scheduler in the background.
func (r *Runner) Start(spec string) error {
	_, err := r.cron.AddFunc(spec, func() {
		if dst, err := r.TakeSnapshot(); err != nil {
			appLog.Error("snapshot failed", err, "src", r.src)
		} else if dst != "" {
			appLog.Info("snapshot written", "dst", dst)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid snapshot schedule %q: %w", spec, err)
	}
	r.cron.Start()
	appLog.Info("snapshot scheduler started", "schedule", spec, "dir", r.dir)
	return nil
}

// Stop halts the scheduler; a snapshot already running finishes.
func (r *Runner) Stop() {
	r.cron.Stop()
}

// TakeSnapshot copies the store file to the backup directory, named with
// the current unix timestamp. When the store file does not exist yet it
// returns an empty path and no error.
func (r *Runner) TakeSnapshot() (string, error) {
	data, err := os.ReadFile(r.src)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", err
	}

	dst := filepath.Join(r.dir, fmt.Sprintf("%d_%s", time.Now().Unix(), filepath.Base(r.src)))
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return "", err
	}
	return dst, nil
}
