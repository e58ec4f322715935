package engine

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// ReconcileAll reconciles targets with at most workers running at once.
// Results are returned in target order; the first error cancels the rest.
// On error the results of targets that completed are still returned, and the
// entries of failed or cancelled targets are nil.
func (r *DiskReconciler) ReconcileAll(ctx context.Context, targets []Target, workers int) ([]*Result, error) {
	if workers <= 0 {
		workers = 1
	}
	results := make([]*Result, len(targets))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, t := range targets {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			result, err := r.Reconcile(ctx, t)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}
	err := g.Wait()
	return results, err
}
