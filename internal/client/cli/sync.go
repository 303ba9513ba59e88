package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/closetsync/internal/common"
)

// Sync exports the user's library and waits for the cloud node's answer.
func (a *App) Sync(ctx context.Context) error {
	fmt.Fprintln(a.out, "Syncing...")
	res, err := a.sync.Export(ctx, a.userID)
	if err != nil {
		if common.IsRetryable(err) {
			a.setMode(ModeOffline)
			return fmt.Errorf("%w (try again later)", err)
		}
		return err
	}
	a.setMode(ModeOnline)

	printKV(a.out, "found", res.Found, "missing", res.Missing, "bytes", res.TotalBytes, "marked synced", res.MarkedSynced)
	for _, f := range res.MissingFiles {
		fmt.Fprintln(a.out, "  missing file:", f)
	}
	if res.Remote != nil {
		printKV(a.out,
			"cloud images", fmt.Sprintf("%d synced, %d failed", res.Remote.ImagesSynced, res.Remote.ImagesFailed),
			"cloud history", fmt.Sprintf("%d synced, %d failed", res.Remote.DerivedSynced, res.Remote.DerivedFailed),
			"cloud favs", fmt.Sprintf("%d synced, %d failed", res.Remote.FavoritesSynced, res.Remote.FavoritesFailed),
			"status", res.Remote.Status)
	}
	return nil
}

// History prints the latest export attempts.
func (a *App) History(ctx context.Context) error {
	recs, err := a.sync.History(ctx, a.userID)
	if err != nil {
		return err
	}
	for _, r := range recs {
		fmt.Fprintf(a.out, "%s  %-9s images %d/%d failed  %d bytes  %s\n",
			r.CreatedAt.Format("2006-01-02 15:04:05"), r.Status, r.ImagesSynced, r.ImagesFailed, r.TotalBytes, r.ErrorMessage)
	}
	if len(recs) == 0 {
		fmt.Fprintln(a.out, "No sync attempts yet")
	}
	return nil
}

// Status prints the node totals and whether the cloud node answers.
func (a *App) Status(ctx context.Context) error {
	total, err := a.library.TotalImages(ctx)
	if err != nil {
		return err
	}
	cloud := "unreachable"
	if a.sync.CloudReachable(ctx) {
		cloud = "reachable"
	}
	printKV(a.out, "images", total, "cloud node", cloud)
	return nil
}
