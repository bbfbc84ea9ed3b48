// Package scheduler coordinates dataset reloads: an initial load at
// startup, a daily scheduled refresh, and an fsnotify watch on the data
// directory that triggers a reload when dataset files change on disk.
package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron"

	"github.com/remedesfr/remedes-api/interfaces"
	"github.com/remedesfr/remedes-api/logging"
	"github.com/remedesfr/remedes-api/validation"
)

// reloadDebounce coalesces rapid file events (editors write in bursts).
const reloadDebounce = 500 * time.Millisecond

// Compile-time check to ensure Scheduler implements the interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

// Scheduler handles dataset reloads using injected dependencies.
type Scheduler struct {
	dataStore interfaces.DataStore
	parser    interfaces.Parser
	dataDir   string
	scheduler *gocron.Scheduler
	watcher   *fsnotify.Watcher
	done      chan struct{}
	stopOnce  sync.Once
}

// NewScheduler creates a scheduler with injected dependencies. dataDir is
// watched for file changes when Start succeeds.
func NewScheduler(dataStore interfaces.DataStore, parser interfaces.Parser, dataDir string) *Scheduler {
	return &Scheduler{
		dataStore: dataStore,
		parser:    parser,
		dataDir:   dataDir,
		scheduler: gocron.NewScheduler(time.Local),
		done:      make(chan struct{}),
	}
}

// Start performs the initial load, schedules the daily refresh and starts
// the file watcher. A failed initial load is fatal; a failed watcher only
// disables change-driven reloads.
func (s *Scheduler) Start() error {
	if err := s.reload(); err != nil {
		logging.Error("Failed to perform initial dataset load", "error", err)
		return fmt.Errorf("initial dataset load failed: %w", err)
	}

	// Daily refresh at 06:00 picks up out-of-band dataset replacements
	_, err := s.scheduler.Every(1).Days().At("06:00").Do(func() {
		if err := s.reload(); err != nil {
			logging.Error("Failed to reload dataset", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule dataset reloads: %w", err)
	}
	s.scheduler.StartAsync()

	if err := s.startWatcher(); err != nil {
		logging.Warn("Dataset file watching disabled", "error", err)
	}

	return nil
}

// Stop stops the cron scheduler and the file watcher.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
		s.scheduler.Stop()
		if s.watcher != nil {
			if err := s.watcher.Close(); err != nil {
				logging.Warn("Failed to close dataset watcher", "error", err)
			}
		}
	})
}

// startWatcher begins watching the data directory for writes.
func (s *Scheduler) startWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(s.dataDir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", s.dataDir, err)
	}
	s.watcher = watcher

	go func() {
		var timer *time.Timer
		for {
			select {
			case <-s.done:
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Rename) {
					continue
				}
				logging.Info("Dataset file changed", "file", event.Name, "op", event.Op.String())
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(reloadDebounce, func() {
					if err := s.reload(); err != nil {
						logging.Error("Failed to reload dataset after file change", "error", err)
					}
				})
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logging.Warn("Dataset watcher error", "error", err)
			}
		}
	}()

	logging.Info("Watching dataset directory", "dir", s.dataDir)
	return nil
}

// reload parses the dataset into fresh structures and swaps them in.
func (s *Scheduler) reload() error {
	if !s.dataStore.BeginUpdate() {
		logging.Info("Dataset reload already in progress, skipping")
		return nil
	}
	defer s.dataStore.EndUpdate()

	start := time.Now()

	remedies, allergens, synonyms, err := s.parser.ParseAll()
	if err != nil {
		return fmt.Errorf("failed to parse dataset: %w", err)
	}

	validator := validation.NewDataValidator()
	report := validator.ReportDataQuality(remedies, allergens)
	if len(report.DuplicateIDs) > 0 {
		logging.Warn("Duplicate remedy ids detected", "total", len(report.DuplicateIDs), "ids", report.DuplicateIDs)
	}
	if len(report.SlugCollisions) > 0 {
		logging.Warn("Remedy slug collisions detected", "total", len(report.SlugCollisions), "slugs", report.SlugCollisions)
	}
	if report.RemediesWithoutSymptoms > 0 {
		logging.Warn("Remedies without symptoms can never match", "total", report.RemediesWithoutSymptoms)
	}
	if len(report.UnknownAllergenIDs) > 0 {
		logging.Warn("Remedies reference allergens missing from the catalog",
			"total", len(report.UnknownAllergenIDs), "ids", report.UnknownAllergenIDs)
	}

	s.dataStore.UpdateData(remedies, allergens, synonyms)

	logging.Info("Dataset reload completed",
		"duration", time.Since(start).String(),
		"remedy_count", len(remedies),
		"allergen_count", len(allergens),
		"synonym_terms", synonyms.Len(),
	)
	return nil
}
