package archive

import (
	"context"
	"path/filepath"
	"time"

	"github.com/Skryldev/photo-archive/core"
	"github.com/Skryldev/photo-archive/layout"
)

// RetainPredicate decides whether a record should survive a retain run.
type RetainPredicate func(core.PhotoRecord) bool

// Retain walks the record log with pred (C8). Records the predicate drops
// have their link_file removed and their link_dir pruned if left empty;
// their thumbnail is queued for deletion unless another surviving record
// still references it (thumbs_kept rescues it, even if an earlier record
// queued it for removal — order matters, see spec.md §4.8).
func (c *Coordinator) Retain(ctx context.Context, pred RetainPredicate) error {
	thumbsKept := make(map[string]bool)
	thumbsCandidate := make(map[string]bool)

	err := c.records.Retain(ctx, func(record core.PhotoRecord) bool {
		keep := pred(record)

		partCRC := layout.PartitionCRC(record.SourceID)
		paths, buildErr := layout.BuildPaths(c.archiveBase, partCRC, record.SourcePath, record.PhotoTS)
		if buildErr != nil {
			// A record whose path can't be rebuilt is kept as-is; there is
			// nothing on disk to reconcile for it.
			return keep
		}
		basename := layout.BuildFilename(record.PhotoTS, time.Unix(int64(record.FileTS), 0).UTC(), record.Digest)
		thumbPath := filepath.Join(paths.ImgDir, basename)

		if keep {
			delete(thumbsCandidate, thumbPath)
			thumbsKept[thumbPath] = true
			return true
		}

		if !thumbsKept[thumbPath] {
			thumbsCandidate[thumbPath] = true
		}
		if c.store != nil {
			if rmErr := c.store.Remove(ctx, paths.LinkFile); rmErr != nil && c.logger != nil {
				c.logger.Warn("retain.remove_link", "path", paths.LinkFile, "cause", rmErr.Error())
			}
			if rmErr := c.store.RemoveIfEmptyDir(ctx, paths.LinkDir); rmErr != nil && c.logger != nil {
				c.logger.Warn("retain.remove_link_dir", "path", paths.LinkDir, "cause", rmErr.Error())
			}
		}
		return false
	})
	if err != nil {
		return err
	}

	if c.store != nil {
		for thumb := range thumbsCandidate {
			if rmErr := c.store.Remove(ctx, thumb); rmErr != nil && c.logger != nil {
				c.logger.Warn("retain.remove_thumb", "path", thumb, "cause", rmErr.Error())
			}
		}
	}
	return nil
}
