package translate

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/mtlxport/pkg/source"
)

// TranslateAll translates materials in parallel with at most workers
// concurrent translations (unlimited when workers <= 0). Results are in
// input order; a failed material has a non-nil failed Result and its error
// is joined into the returned error. Cancelling ctx stops materials that
// have not started.
func (t *Translator) TranslateAll(ctx context.Context, materials []source.Material, workers int) ([]*Result, error) {
	results := make([]*Result, len(materials))
	failures := make([]error, len(materials))

	eg, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		eg.SetLimit(workers)
	}
	for i, m := range materials {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			var g source.Accessor
			if m.Graph != nil {
				g = m.Graph
			}
			res, err := t.Translate(g, m.Root, m.Name)
			results[i] = res
			if err != nil {
				failures[i] = fmt.Errorf("material %s: %w", m.Name, err)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return results, err
	}
	return results, errors.Join(failures...)
}
