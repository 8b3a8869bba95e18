// Package batch runs per-region work for a user selection and merges the results in selection order.
package batch

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"bloomwatch/internal/domain/model"
	"bloomwatch/pkg/msg"
)

// Result is the outcome for one position of the selection
type Result[T any] struct {
	ID    string
	Value T
	Err   error
}

// Validate trims ids and checks the selection holds between 1 and maxSize non blank entries.
// Duplicates are kept, they are served once by Run.
func Validate(ids []string, maxSize int) ([]string, error) {
	if len(ids) == 0 {
		return nil, model.InvalidInput("%s", msg.GetMessage("batch.error.empty"))
	}
	cleaned := make([]string, 0, len(ids))
	for i, id := range ids {
		if id = strings.TrimSpace(id); id == "" {
			return nil, model.InvalidInput("%s", msg.GetMessage("batch.error.blank-id", i))
		}
		cleaned = append(cleaned, id)
	}
	if len(cleaned) > maxSize {
		return nil, model.InvalidInput("%s", msg.GetMessage("batch.error.too-many", maxSize))
	}
	return cleaned, nil
}

// Run calls fn once per distinct id with at most concurrency calls in flight.
// The returned slice has one entry per id, in the order of ids. A failing id never aborts the others.
func Run[T any](ctx context.Context, ids []string, concurrency int, fn func(ctx context.Context, id string) (T, error)) []Result[T] {
	if concurrency < 1 {
		concurrency = 1
	}

	distinct := make(map[string]*Result[T], len(ids))
	order := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := distinct[id]; !ok {
			distinct[id] = &Result[T]{ID: id}
			order = append(order, id)
		}
	}

	var g errgroup.Group
	g.SetLimit(concurrency)
	for _, id := range order {
		result := distinct[id]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				result.Err = err
				return nil
			}
			result.Value, result.Err = fn(ctx, result.ID)
			return nil
		})
	}
	_ = g.Wait()

	merged := make([]Result[T], len(ids))
	for i, id := range ids {
		merged[i] = *distinct[id]
	}
	return merged
}
