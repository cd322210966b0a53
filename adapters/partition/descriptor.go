package partition

import (
	"context"

	"github.com/BurntSushi/toml"

	"github.com/Skryldev/photo-archive/core"
	apperrors "github.com/Skryldev/photo-archive/errors"
)

// DescriptorFileName is the name of the path-mode source descriptor file
// (spec.md §6).
const DescriptorFileName = ".photo-archive-source"

// ReadDescriptor parses a .photo-archive-source TOML file at path.
func ReadDescriptor(_ context.Context, path string) (core.SourceDescriptor, error) {
	var desc core.SourceDescriptor
	if _, err := toml.DecodeFile(path, &desc); err != nil {
		return core.SourceDescriptor{}, apperrors.Wrap(apperrors.CategoryConfig, "partition.read_descriptor", err)
	}
	return desc, nil
}
