// Package seed loads artifact fixtures from a directory and re-submits them
// through the regular upload path when their content changes. Layout:
// <dir>/contracts/*.json|yaml and <dir>/rulesets/*.json|yaml; the file name
// (without extension) is the artifact name. Re-uploads follow the normal
// reconciliation rules, so only pending entries are replaced; files whose
// content hash has not changed are skipped. This replaces the mock-data
// layer the console ships with in dev mode.
package seed

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"govdesk/pkg/artifact"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// UploadFunc pushes one seed file through the regular upload path.
type UploadFunc func(ctx context.Context, kind artifact.Kind, name, content string) error

var kindDirs = map[string]artifact.Kind{
	"contracts": artifact.KindContract,
	"rulesets":  artifact.KindRuleset,
}

// Loader uploads seed files and remembers their content hashes, so watch
// events for unchanged files do not produce duplicate submissions.
type Loader struct {
	upload UploadFunc
	log    *zap.Logger

	mu   sync.Mutex
	seen map[string]string
}

func New(upload UploadFunc, log *zap.Logger) *Loader {
	return &Loader{
		upload: upload,
		log:    log,
		seen:   map[string]string{},
	}
}

// LoadDir uploads every seed file under dir. Missing kind subdirectories are
// skipped silently; unreadable files are logged and skipped. Files already
// uploaded with identical content are not re-submitted.
func (l *Loader) LoadDir(ctx context.Context, dir string) error {
	for sub, kind := range kindDirs {
		entries, err := os.ReadDir(filepath.Join(dir, sub))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return err
		}
		for _, e := range entries {
			if e.IsDir() || !seedFile(e.Name()) {
				continue
			}
			path := filepath.Join(dir, sub, e.Name())
			uploaded, err := l.uploadFile(ctx, path, kind)
			if err != nil {
				l.log.Warn("seed upload failed", zap.String("path", path), zap.Error(err))
				continue
			}
			if uploaded {
				l.log.Info("seeded artifact", zap.String("path", path), zap.String("kind", string(kind)))
			}
		}
	}
	return nil
}

// Watch re-uploads seed files as they are written. Blocks until ctx is done.
func (l *Loader) Watch(ctx context.Context, dir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	for sub := range kindDirs {
		path := filepath.Join(dir, sub)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := watcher.Add(path); err != nil {
			return err
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 || !seedFile(ev.Name) {
				continue
			}
			kind, ok := kindForPath(ev.Name)
			if !ok {
				continue
			}
			uploaded, err := l.uploadFile(ctx, ev.Name, kind)
			if err != nil {
				l.log.Warn("seed reload failed", zap.String("path", ev.Name), zap.Error(err))
				continue
			}
			if uploaded {
				l.log.Info("reloaded seed artifact", zap.String("path", ev.Name))
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			l.log.Warn("seed watcher error", zap.Error(err))
		}
	}
}

// uploadFile submits a seed file unless its content is unchanged since the
// last upload. Reports whether an upload happened.
func (l *Loader) uploadFile(ctx context.Context, path string, kind artifact.Kind) (bool, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	sum := sha256.Sum256(b)
	hash := hex.EncodeToString(sum[:])

	l.mu.Lock()
	unchanged := l.seen[path] == hash
	l.mu.Unlock()
	if unchanged {
		return false, nil
	}

	if err := l.upload(ctx, kind, nameFor(path), string(b)); err != nil {
		return false, err
	}
	l.mu.Lock()
	l.seen[path] = hash
	l.mu.Unlock()
	return true, nil
}

func nameFor(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func seedFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

func kindForPath(path string) (artifact.Kind, bool) {
	kind, ok := kindDirs[filepath.Base(filepath.Dir(path))]
	return kind, ok
}
