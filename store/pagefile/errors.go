package pagefile

import (
	"errors"

	"github.com/joshuapare/pagestore/pkg/types"
)

// Errors returned by page file operations.
var (
	// ErrShortFile indicates a non-empty file smaller than one chapter.
	ErrShortFile = errors.New("pagefile: file shorter than one chapter")

	// ErrHeaderPage indicates an attempt to write page 0 as a data page.
	ErrHeaderPage = errors.New("pagefile: page 0 holds the file header")
)

// classifyHeaderErr maps a header validation failure onto the public error
// taxonomy. Every failure, a newer version or other geometry included, is
// corruption; format.ErrUnsupported stays reachable through errors.Is.
func classifyHeaderErr(err error) error {
	return types.Errorf(types.ErrKindCorrupt, "pagefile: %w", err)
}
