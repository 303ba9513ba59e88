// Package assets stores image files in a per-user tree partitioned by
// category: <root>/<user_id>/<category>/<filename>. Two backends share the
// Store contract: FSStore on the local disk and S3Store on an S3-compatible
// object store.
package assets

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/dmitrijs2005/closetsync/internal/category"
	"github.com/dmitrijs2005/closetsync/internal/common"
)

// FileInfo describes one stored file.
type FileInfo struct {
	Name     string            `json:"filename"`
	Category category.Category `json:"category"`
	Size     int64             `json:"size"`
	ModTime  time.Time         `json:"modified_at"`
}

// Store is the categorized byte store of a node.
type Store interface {
	// Put writes data under a freshly generated filename and returns it.
	// It never overwrites an existing file.
	Put(ctx context.Context, userID string, c category.Category, data []byte) (string, error)

	// Replace writes data under the given filename, overwriting any previous
	// content. Used when the filename is dictated by a peer.
	Replace(ctx context.Context, userID string, c category.Category, filename string, data []byte) error

	// Get reads filename from the declared category, then from every other
	// category in category.FallbackOrder. It returns the category the file
	// was actually found in, or common.ErrorNotFound.
	Get(ctx context.Context, userID, filename string, declared category.Category) ([]byte, category.Category, error)

	// Delete removes the file. A missing file is logged and tolerated.
	Delete(ctx context.Context, userID, filename string, c category.Category) error

	// ListFileInfo lists the files of one category. A category directory
	// that was never created yields an empty list.
	ListFileInfo(ctx context.Context, userID string, c category.Category) ([]FileInfo, error)
}

var (
	filenamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,254}$`)
	userIDPattern   = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,127}$`)
)

// ValidateFilename rejects anything that is not a single, plain path element.
func ValidateFilename(name string) error {
	if !filenamePattern.MatchString(name) || strings.Contains(name, "..") {
		return common.Validationf("invalid filename %q", name)
	}
	return nil
}

// ValidateUserID rejects user ids that could not safely name a directory.
func ValidateUserID(userID string) error {
	if !userIDPattern.MatchString(userID) {
		return common.Validationf("invalid user id %q", userID)
	}
	return nil
}

func validateDir(userID string, c category.Category) error {
	if err := ValidateUserID(userID); err != nil {
		return err
	}
	if !c.IsValid() {
		return common.Validationf("invalid category %q", c)
	}
	return nil
}

func validatePath(userID string, c category.Category, filename string) error {
	if err := validateDir(userID, c); err != nil {
		return err
	}
	return ValidateFilename(filename)
}

// newFilename returns "<category>_<YYYYMMDD_HHMMSS>_<8 hex>.<ext>".
var newFilename = func(c category.Category, ext string, now time.Time) (string, error) {
	suffix, err := common.MakeRandHexString(4)
	if err != nil {
		return "", fmt.Errorf("random suffix: %w", err)
	}
	return fmt.Sprintf("%s_%s_%s.%s", c, now.Format("20060102_150405"), suffix, ext), nil
}
