package mdranker

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"fulfilment/internal/app/pkg/logger"
)

// Watcher 监听目录/模型文件变化并原子替换 Ranker 快照
type Watcher struct {
	ranker      *Ranker
	catalogPath string
	modelPath   string
	debounce    time.Duration
	logger      logger.Logger
	watcher     *fsnotify.Watcher
}

// NewWatcher 创建文件监听器，监听文件所在目录（兼容编辑器的 rename 写入）
func NewWatcher(ranker *Ranker, catalogPath, modelPath string, log logger.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher failed: %w", err)
	}

	dirs := map[string]struct{}{}
	for _, p := range []string{catalogPath, modelPath} {
		if p != "" {
			dirs[filepath.Dir(p)] = struct{}{}
		}
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, fmt.Errorf("watch %s failed: %w", dir, err)
		}
	}

	return &Watcher{
		ranker:      ranker,
		catalogPath: catalogPath,
		modelPath:   modelPath,
		debounce:    200 * time.Millisecond,
		logger:      log,
		watcher:     fw,
	}, nil
}

// Reload 重新加载并替换快照；失败时保留旧快照
func (w *Watcher) Reload(ctx context.Context) error {
	snap, err := LoadSnapshot(w.catalogPath, w.modelPath)
	if err != nil {
		w.logger.Warnf(ctx, "ranker reload failed, keeping previous snapshot: %v", err)
		return err
	}
	w.ranker.Swap(snap)

	version := "none"
	if snap.Model != nil {
		version = snap.Model.Version
	}
	w.logger.Infof(ctx, "ranker snapshot reloaded: products=%d, model=%s", snap.Catalog.Len(), version)
	return nil
}

// Run 阻塞运行直到 ctx 取消
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			// 合并短时间内的多次写入
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Errorf(ctx, "ranker watcher error: %v", err)

		case <-fire:
			fire = nil
			_ = w.Reload(ctx)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
		return false
	}
	name := filepath.Clean(event.Name)
	return name == filepath.Clean(w.catalogPath) || name == filepath.Clean(w.modelPath)
}
