// Package partition implements core.PartitionLocator against the Linux
// partition/mount tables — the out-of-scope "OS-specific enumeration of
// mounted partitions and UUID→device mapping" collaborator spec.md §6
// describes only by contract. Ported from original_source/src/common/fs.rs.
package partition

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/Skryldev/photo-archive/core"
	apperrors "github.com/Skryldev/photo-archive/errors"
)

// supportedFilesystems mirrors spec.md §6: "the core consumes only
// supported filesystems (vfat, ntfs3, fuseblk)".
var supportedFilesystems = map[string]bool{
	"vfat":    true,
	"ntfs3":   true,
	"fuseblk": true,
}

// Mounted resolves mounted partitions by reading /proc/mounts and
// cross-referencing /dev/disk/by-uuid, exactly as the original CLI did.
type Mounted struct {
	byUUIDDir  string
	mountsFile string
}

// NewMounted returns a locator reading the standard Linux paths.
func NewMounted() *Mounted {
	return &Mounted{byUUIDDir: "/dev/disk/by-uuid", mountsFile: "/proc/mounts"}
}

func (m *Mounted) ListMounted(ctx context.Context) ([]core.PartitionInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lookup, err := m.devicesByUUID()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryScan, "partition.list", err)
	}

	f, err := os.Open(m.mountsFile)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryScan, "partition.list.open", err)
	}
	defer f.Close()

	var out []core.PartitionInfo
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 3 {
			continue
		}
		device, mountPoint, fsType := fields[0], fields[1], fields[2]
		if !supportedFilesystems[fsType] {
			continue
		}
		if id, ok := lookup[device]; ok {
			out = append(out, core.PartitionInfo{MountPoint: mountPoint, FSType: fsType, PartitionID: id})
		}
	}
	if err := sc.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryScan, "partition.list.scan", err)
	}
	return out, nil
}

func (m *Mounted) ByID(ctx context.Context, id string) (core.PartitionInfo, bool, error) {
	all, err := m.ListMounted(ctx)
	if err != nil {
		return core.PartitionInfo{}, false, err
	}
	for _, p := range all {
		if p.PartitionID == id {
			return p, true, nil
		}
	}
	return core.PartitionInfo{}, false, nil
}

// devicesByUUID maps a resolved device path to its filesystem UUID, by
// following the symlinks under /dev/disk/by-uuid.
func (m *Mounted) devicesByUUID() (map[string]string, error) {
	entries, err := os.ReadDir(m.byUUIDDir)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(entries))
	for _, e := range entries {
		linkPath := filepath.Join(m.byUUIDDir, e.Name())
		target, err := os.Readlink(linkPath)
		if err != nil {
			continue
		}
		resolved, err := filepath.Abs(filepath.Join(m.byUUIDDir, target))
		if err != nil {
			continue
		}
		out[resolved] = e.Name()
	}
	return out, nil
}
