// Package layout implements the archive's path and filename derivation —
// the one pure, filesystem-free component every other piece of the
// pipeline depends on (core.ArchiveItem carries its output, never the
// reverse, so this package imports only core and utils).
package layout

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/Skryldev/photo-archive/core"
	apperrors "github.com/Skryldev/photo-archive/errors"
	"github.com/Skryldev/photo-archive/utils"
)

// NoDateBucket names the year bucket used when a record carries no photo
// timestamp.
const NoDateBucket = "no-date"

// Bucket returns the record-log year bucket for a photo timestamp: the
// four-digit year, or NoDateBucket when ts is nil.
func Bucket(ts *time.Time) string {
	if ts == nil {
		return NoDateBucket
	}
	return fmt.Sprintf("%04d", ts.Year())
}

// BuildPaths derives the archive-relative locations for one image. partCRC
// is the CRC-32C of the source id; sourceRelative is the image's path
// relative to the source's mount root, using platform-native separators.
// sourceRelative must have at least one parent directory component.
func BuildPaths(archiveBase string, partCRC uint32, sourceRelative string, photoTS *time.Time) (core.ArchivedPaths, error) {
	parentDir := filepath.Dir(sourceRelative)
	if parentDir == "." || parentDir == string(filepath.Separator) || parentDir == "" {
		return core.ArchivedPaths{}, apperrors.New(apperrors.CategoryPath, "build_paths", apperrors.ErrNoParentDirectory)
	}

	var dateDir string
	if photoTS != nil {
		dateDir = filepath.Join(archiveBase, fmt.Sprintf("%04d", photoTS.Year()), fmt.Sprintf("%02d.%02d", int(photoTS.Month()), photoTS.Day()))
	} else {
		dateDir = filepath.Join(archiveBase, NoDateBucket)
	}

	dirCRC := utils.CRC32C([]byte(parentDir))
	dirname := filepath.Base(parentDir)
	linkDir := filepath.Join(dateDir, fmt.Sprintf("%08X.%08X.%s", partCRC, dirCRC, dirname))

	return core.ArchivedPaths{
		DateDir:  dateDir,
		ImgDir:   filepath.Join(dateDir, "img"),
		LinkDir:  linkDir,
		LinkFile: filepath.Join(linkDir, filepath.Base(sourceRelative)),
	}, nil
}

// BuildFilename derives the content-addressed thumbnail basename: HHMMSS
// from the photo timestamp when present, else YYYYMMDD-HHMMSS from the
// UTC file modification time.
func BuildFilename(photoTS *time.Time, fileTS time.Time, digest uint32) string {
	if photoTS != nil {
		return fmt.Sprintf("%s_%08X.jpg", photoTS.Format("150405"), digest)
	}
	return fmt.Sprintf("%s_%08X.jpg", fileTS.UTC().Format("20060102-150405"), digest)
}

// LinkTarget returns the relative symlink target a link_file must point to,
// given the thumbnail's basename: "../img/<basename>".
func LinkTarget(thumbBasename string) string {
	return filepath.Join("..", "img", thumbBasename)
}

// PartitionCRC returns the CRC-32C of a source id, used as part of a
// link_dir's name.
func PartitionCRC(sourceID string) uint32 {
	return utils.CRC32C([]byte(sourceID))
}
