// Package scheduler coordinates reference-catalog refreshes for the doselog
// API: a cron-based periodic reload, an fsnotify watch on the catalog
// directory for immediate reloads when files change, and a staleness
// monitor. All refreshes go through the catalog store's atomic swap.
package scheduler

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron"

	"github.com/sernyl/doselog-api/interfaces"
	"github.com/sernyl/doselog-api/logging"
	"github.com/sernyl/doselog-api/metrics"
)

// Compile-time check to ensure Scheduler implements the Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

// Scheduler handles catalog refreshes and health monitoring using dependency injection
type Scheduler struct {
	catalogStore interfaces.CatalogStore
	loader       interfaces.CatalogLoader
	catalogDir   string
	scheduler    *gocron.Scheduler
	watcher      *fsnotify.Watcher
	done         chan struct{}
}

// NewScheduler creates a new scheduler instance with injected dependencies
func NewScheduler(catalogStore interfaces.CatalogStore, loader interfaces.CatalogLoader, catalogDir string) *Scheduler {
	return &Scheduler{
		catalogStore: catalogStore,
		loader:       loader,
		catalogDir:   catalogDir,
		scheduler:    gocron.NewScheduler(time.Local),
		done:         make(chan struct{}),
	}
}

// Start performs the initial catalog load, schedules periodic reloads and
// starts the file watcher and staleness monitor.
func (s *Scheduler) Start() error {
	// Initial load
	if err := s.updateCatalogs(); err != nil {
		logging.Error("Failed to perform initial catalog load", "error", err)
		return fmt.Errorf("initial catalog load failed: %w", err)
	}

	// Periodic reloads pick up catalog edits the watcher may have missed
	_, err := s.scheduler.Every(1).Days().At("06:00;18:00").Do(func() {
		if err := s.updateCatalogs(); err != nil {
			logging.Error("Failed to reload catalogs", "error", err)
		}
	})

	if err != nil {
		logging.Error("Failed to schedule catalog reloads", "error", err)
		return fmt.Errorf("failed to schedule catalog reloads: %w", err)
	}

	s.scheduler.StartAsync()

	if err := s.startWatcher(); err != nil {
		// The watcher is best-effort; periodic reloads still run.
		logging.Warn("Catalog file watcher unavailable", "error", err)
	}

	s.startHealthMonitoring()

	return nil
}

// Stop stops the scheduler, the watcher and the monitor
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
	if s.watcher != nil {
		if err := s.watcher.Close(); err != nil {
			logging.Warn("Failed to close catalog watcher", "error", err)
		}
	}
	close(s.done)
}

// startWatcher reloads the catalogs when a catalog file changes on disk.
// Writes are debounced so editors emitting several events per save trigger
// one reload.
func (s *Scheduler) startWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(s.catalogDir); err != nil {
		watcher.Close()
		return err
	}
	s.watcher = watcher

	go func() {
		var debounce *time.Timer
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				if !isCatalogFile(event.Name) {
					continue
				}

				logging.Info("Catalog file changed, scheduling reload", "file", filepath.Base(event.Name))
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(time.Second, func() {
					if err := s.updateCatalogs(); err != nil {
						logging.Error("Failed to reload catalogs after file change", "error", err)
					}
				})

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logging.Warn("Catalog watcher error", "error", err)
			}
		}
	}()

	return nil
}

func isCatalogFile(path string) bool {
	return strings.HasSuffix(path, ".json")
}

// updateCatalogs performs a complete catalog refresh using injected dependencies
func (s *Scheduler) updateCatalogs() error {
	// Prevent concurrent updates
	if !s.catalogStore.BeginUpdate() {
		logging.Info("Catalog update already in progress, skipping...")
		return nil
	}
	defer s.catalogStore.EndUpdate()

	logging.Info("Starting catalog refresh")
	start := time.Now()

	// Load into temporary variables first so current data keeps serving
	tierEntries, tierMap, err := s.loader.LoadTierCatalog()
	if err != nil {
		return fmt.Errorf("tier catalog load failed: %w", err)
	}

	safetyEntries, err := s.loader.LoadSafetyCatalog()
	if err != nil {
		// A missing safety catalog degrades lookups but does not block
		// classification; keep the previous snapshot.
		logging.Warn("Safety catalog load failed, keeping previous snapshot", "error", err)
		safetyEntries = s.catalogStore.GetSafetyEntries()
	}

	// Atomic swap (zero downtime replacement)
	s.catalogStore.UpdateData(tierEntries, tierMap, safetyEntries)

	metrics.CatalogEntries.WithLabelValues("tier").Set(float64(len(tierEntries)))
	metrics.CatalogEntries.WithLabelValues("safety").Set(float64(len(safetyEntries)))

	logging.Info("Catalog refresh completed",
		"duration", time.Since(start).String(),
		"tier_entries", len(tierEntries),
		"safety_entries", len(safetyEntries))

	return nil
}

// startHealthMonitoring warns when the catalogs have not refreshed in over
// 25 hours (one daily cycle plus slack).
func (s *Scheduler) startHealthMonitoring() {
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-s.done:
				return
			case <-ticker.C:
				lastUpdate := s.catalogStore.GetLastUpdated()
				if time.Since(lastUpdate) > 25*time.Hour {
					logging.Warn("Catalogs haven't been refreshed in over 25 hours")
				}
			}
		}
	}()
}
