package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dmitrijs2005/closetsync/internal/assets"
	"github.com/dmitrijs2005/closetsync/internal/category"
	"github.com/dmitrijs2005/closetsync/internal/client/services"
	"github.com/dmitrijs2005/closetsync/internal/common"
)

// readFile is a test seam for os.ReadFile.
var readFile = os.ReadFile

// List prints one page of the user's images. args may carry a page number
// and a category.
func (a *App) List(ctx context.Context, args []string) error {
	page := 1
	var cat category.Category
	for _, arg := range args {
		if n, err := strconv.Atoi(arg); err == nil {
			page = n
			continue
		}
		c, ok := category.Parse(arg)
		if !ok {
			return common.Validationf("unknown category %q", arg)
		}
		cat = c
	}

	p, err := a.library.List(ctx, a.userID, cat, page, services.DefaultPerPage)
	if err != nil {
		return err
	}
	for _, img := range p.Images {
		synced := " "
		if img.CloudSynced {
			synced = "*"
		}
		fmt.Fprintf(a.out, "%s %s  %-8s %-40s %7d  %s\n",
			synced, img.ID, img.Category, img.Filename, img.FileSize, img.SavedAt.Format("2006-01-02 15:04"))
	}
	fmt.Fprintf(a.out, "page %d of %d, %d images (* = synced)\n", p.Page, p.Pages, p.Total)
	return nil
}

// Add reads an image file from disk and captures it like an upload.
func (a *App) Add(ctx context.Context) error {
	path, err := getSimpleText(a.reader, "Enter path to image file", a.out)
	if err != nil {
		return err
	}
	if !assets.IsAllowedExtension(path) {
		return common.Validationf("unsupported file type, allowed: %v", assets.AllowedExtensions)
	}
	rawCat, err := getSimpleText(a.reader, "Enter category (primary, subject, derived)", a.out)
	if err != nil {
		return err
	}

	data, err := readFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	name := filepath.Base(path)
	res, err := a.capture.Capture(ctx, services.CaptureRequest{
		UserID:      a.userID,
		Data:        data,
		OriginalURL: name,
		PageURL:     services.SourceUpload,
		PageTitle:   "Uploaded file - " + name,
		Category:    rawCat,
		Source:      services.SourceUpload,
		ContextInfo: map[string]any{"original_filename": name},
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Saved %s as %s\n", name, res.Filename)
	printKV(a.out, "image id", res.ImageID, "category", res.Category, "size", res.FileSize,
		"dimensions", fmt.Sprintf("%dx%d", res.Width, res.Height))
	return nil
}

func (a *App) Delete(ctx context.Context) error {
	id, err := getSimpleText(a.reader, "Enter image id to delete", a.out)
	if err != nil {
		return err
	}
	if err := a.library.Delete(ctx, a.userID, id); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Deleted", id)
	return nil
}

func (a *App) BatchDelete(ctx context.Context) error {
	ids, err := GetList(a.reader, "Enter image ids to delete, one per line", a.out)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	res := a.library.BatchDelete(ctx, a.userID, ids)
	for _, m := range res.Messages {
		fmt.Fprintln(a.out, " ", m)
	}
	fmt.Fprintf(a.out, "%d deleted, %d failed\n", res.Succeeded, res.Failed)
	return res.Err()
}

func (a *App) Favorite(ctx context.Context) error {
	id, err := getSimpleText(a.reader, "Enter image id to favorite", a.out)
	if err != nil {
		return err
	}
	added, err := a.library.AddFavorite(ctx, a.userID, id)
	if err != nil {
		return err
	}
	if added {
		fmt.Fprintln(a.out, "Added to favorites")
	} else {
		fmt.Fprintln(a.out, "Already favorited")
	}
	return nil
}

func (a *App) Favorites(ctx context.Context) error {
	favs, err := a.library.Favorites(ctx, a.userID)
	if err != nil {
		return err
	}
	for _, f := range favs {
		fmt.Fprintf(a.out, "%s  %s\n", f.ImageID, f.CreatedAt.Format("2006-01-02 15:04"))
	}
	fmt.Fprintf(a.out, "%d favorites\n", len(favs))
	return nil
}
