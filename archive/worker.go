package archive

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/Skryldev/photo-archive/adapters/decoder"
	"github.com/Skryldev/photo-archive/adapters/encoder"
	"github.com/Skryldev/photo-archive/config"
	"github.com/Skryldev/photo-archive/core"
	apperrors "github.com/Skryldev/photo-archive/errors"
	"github.com/Skryldev/photo-archive/pipeline"
)

// WorkerDeps bundles the collaborators a worker's pipeline needs: an EXIF
// extractor, a thumbnail store, and optionally a dimension prober for the
// FastRejectUndersized optimization.
type WorkerDeps struct {
	Exif   core.ExifExtractor
	Store  core.ThumbnailStore
	Prober core.DimensionProber // nil disables the fast-reject optimization
	Hooks  []core.Hook
}

// buildWorkerPipeline assembles one worker's step sequence per spec.md
// §4.5. emit is called for every Skipped/Ignored/Stored event a step
// produces; Errored events for genuine pipeline failures are emitted by
// the caller (runWorker), not by steps.
func buildWorkerPipeline(cfg config.Config, archiveBase string, deps WorkerDeps, emit pipeline.EventEmitter) *pipeline.Pipeline {
	p := pipeline.New().WithRetry(cfg.MaxRetries, cfg.RetryDelay)

	p.Use(&pipeline.ReadFileStep{MaxBytes: cfg.MaxImageBytes})
	p.Use(&pipeline.ExtractEXIFStep{Extractor: deps.Exif})
	p.Use(&pipeline.ParseTimestampStep{})
	p.Use(&pipeline.BuildPathsStep{ArchiveBase: archiveBase, Store: deps.Store})
	p.Use(&pipeline.IdempotencyGateStep{Store: deps.Store, Emit: emit})
	p.Use(&pipeline.EnsureLinkDirStep{Store: deps.Store})
	if cfg.FastRejectUndersized && deps.Prober != nil {
		p.Use(&pipeline.ProbeSizeGateStep{Prober: deps.Prober, MinEdge: cfg.MinEdge, Emit: emit})
	}
	p.Use(&pipeline.DecodeStep{Decoder: decoder.NewJPEG()})
	p.Use(&pipeline.SizeGateStep{MinEdge: cfg.MinEdge, Emit: emit})
	p.Use(&pipeline.DigestStep{})
	p.Use(&pipeline.ThumbnailStep{Encoder: encoder.NewJPEG(cfg.ThumbnailQuality), Store: deps.Store, Edge: cfg.ThumbnailEdge})
	p.Use(&pipeline.LinkStep{Store: deps.Store})
	p.Use(&pipeline.StoredEventStep{Emit: emit})
	for _, h := range deps.Hooks {
		p.AddHook(h)
	}

	return p
}

// sourceRelative strips the source base directory prefix from an absolute
// path. No further normalization is applied — the remainder keeps the
// platform-native separator, as C1 requires for its CRC input.
func sourceRelative(sourceBaseDir, absPath string) string {
	rel := strings.TrimPrefix(absPath, sourceBaseDir)
	return strings.TrimPrefix(rel, string(filepath.Separator))
}

// runWorker drains paths, runs the per-image pipeline template (cloned so
// retries and hooks stay worker-local), and forwards resulting records and
// events. It returns once paths is closed and drained.
func runWorker(ctx context.Context, template *pipeline.Pipeline, sourceID, sourceBaseDir string, partCRC uint32,
	paths <-chan string, records chan<- core.PhotoRecord, emit pipeline.EventEmitter) {

	p := template.Clone()
	for path := range paths {
		item := &core.ArchiveItem{
			SourceID:       sourceID,
			SourceBaseDir:  sourceBaseDir,
			SourcePath:     path,
			SourceRelative: sourceRelative(sourceBaseDir, path),
			PartitionCRC:   partCRC,
		}

		outcome, err := p.Run(ctx, item)
		switch {
		case err != nil:
			cause := err.Error()
			if pe, ok := asProcessingError(err); ok {
				cause = pe.Err.Error()
			}
			emit(core.ErroredEvent(path, cause))
		case outcome == pipeline.OutcomeStored && item.Record != nil:
			select {
			case records <- *item.Record:
			case <-ctx.Done():
				return
			}
		}
	}
}

func asProcessingError(err error) (*apperrors.ProcessingError, bool) {
	pe, ok := err.(*apperrors.ProcessingError)
	return pe, ok
}
