package archive

import (
	"context"
	"sync"
	"time"

	"github.com/Skryldev/photo-archive/config"
	"github.com/Skryldev/photo-archive/core"
	apperrors "github.com/Skryldev/photo-archive/errors"
	"github.com/Skryldev/photo-archive/layout"
	"github.com/Skryldev/photo-archive/utils"
)

// Coordinator wires the scanner, worker pool, event logger, and record
// store together for one sync run (C6).
type Coordinator struct {
	cfg         config.Config
	archiveBase string
	logger      core.Logger
	store       core.ThumbnailStore
	registry    *SourceRegistry
	records     *RecordStore
}

// NewCoordinator returns a Coordinator rooted at archiveBase.
func NewCoordinator(cfg config.Config, archiveBase string, logger core.Logger, store core.ThumbnailStore) *Coordinator {
	return &Coordinator{
		cfg:         cfg,
		archiveBase: archiveBase,
		logger:      logger,
		store:       store,
		registry:    NewSourceRegistry(archiveBase),
		records:     NewRecordStore(archiveBase),
	}
}

// Handle exposes a running sync's logged-event stream and join point.
type Handle struct {
	Events <-chan core.Event
	join   func()
}

// Join awaits every spawned goroutine. Events must be drained until it
// closes before Join is called.
func (h *Handle) Join() { h.join() }

// ImportSource registers a new source. It fails if the id is already
// registered (spec.md §4.3).
func (c *Coordinator) ImportSource(source core.Source) error {
	return c.registry.WriteEntry(source)
}

// RequireRegistered verifies a source is already registered, as required
// before a "sync existing source" run (spec.md §4.6).
func (c *Coordinator) RequireRegistered(id string) (core.Source, error) {
	src, found, err := c.registry.FindByID(id)
	if err != nil {
		return core.Source{}, err
	}
	if !found {
		return core.Source{}, apperrors.New(apperrors.CategoryConfig, "coordinator.require_registered", apperrors.ErrSourceNotRegistered)
	}
	return src, nil
}

// Sync spawns the scanner, worker pool, record-store writer, event logger,
// and, when enabled, the optional counting pass, for one run against
// sourceBaseDir, and returns a Handle. The caller must drain Handle.Events
// until it closes, then call Handle.Join.
func (c *Coordinator) Sync(ctx context.Context, source core.Source, sourceBaseDir string, deps WorkerDeps) *Handle {
	paths := make(chan string, c.cfg.PathQueue)
	records := make(chan core.PhotoRecord, c.cfg.RecordQueue)

	rawEvents, closeRaw := utils.NewUnboundedChan[core.Event]()
	loggedEvents, closeLogged := utils.NewUnboundedChan[core.Event]()
	emit := func(e core.Event) { rawEvents.In <- e }

	partCRC := layout.PartitionCRC(source.ID)
	template := buildWorkerPipeline(c.cfg, c.archiveBase, deps, emit)

	var workersWG sync.WaitGroup
	workerCount := c.cfg.WorkerCount
	if workerCount <= 0 {
		workerCount = 4
	}
	for i := 0; i < workerCount; i++ {
		workersWG.Add(1)
		go func() {
			defer workersWG.Done()
			runWorker(ctx, template, source.ID, sourceBaseDir, partCRC, paths, records, emit)
		}()
	}

	scannerDone := make(chan struct{})
	go func() {
		defer close(scannerDone)
		Scan(ctx, c.logger, sourceBaseDir, paths)
	}()

	counterDone := make(chan struct{})
	if c.cfg.EnableScanCounter {
		go func() {
			defer close(counterDone)
			CountProgress(ctx, sourceBaseDir, c.cfg.ScanProgressInterval, emit)
		}()
	} else {
		close(counterDone)
	}

	go func() {
		workersWG.Wait()
		close(records)
		<-counterDone
		closeRaw()
	}()

	recordWriterDone := make(chan struct{})
	go func() {
		defer close(recordWriterDone)
		for rec := range records {
			if err := c.records.Append(ctx, rec); err != nil && c.logger != nil {
				c.logger.Error("coordinator.record_append", "source_path", rec.SourcePath, "cause", err.Error())
			}
		}
	}()

	eventLoggerDone := make(chan struct{})
	go func() {
		defer close(eventLoggerDone)
		defer closeLogged()
		if err := RunEventLog(ctx, c.logger, c.archiveBase, source.ID, RunStamp(time.Now()), rawEvents.Out, loggedEvents.In); err != nil && c.logger != nil {
			c.logger.Error("coordinator.event_log", "cause", err.Error())
		}
	}()

	return &Handle{
		Events: loggedEvents.Out,
		join: func() {
			<-scannerDone
			<-counterDone
			workersWG.Wait()
			<-recordWriterDone
			<-eventLoggerDone
		},
	}
}
