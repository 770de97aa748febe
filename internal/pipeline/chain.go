package pipeline

import (
	"context"
	"log"

	"github.com/jonathan/autofill-agent/internal/types"
)

// Strategy is one resolver tier in a resolution chain. It receives only
// fields still unresolved by earlier tiers and returns whatever subset
// it could answer.
type Strategy struct {
	Name string
	Run  func(ctx context.Context, fields []types.Field) types.ResultMap
}

// runChain applies strategies in order, first-resolver-wins: each
// strategy's results are merged into the chain output and the resolved
// fields removed before the next strategy runs. A panicking or
// misbehaving strategy is absorbed and logged; the chain continues so
// one failing resolver never aborts the batch.
func runChain(ctx context.Context, fields []types.Field, strategies []Strategy) (types.ResultMap, []types.Field) {
	results := make(types.ResultMap)
	remaining := fields

	for _, strategy := range strategies {
		if len(remaining) == 0 {
			break
		}
		resolved := runStrategy(ctx, strategy, remaining)

		next := remaining[:0:0]
		for _, f := range remaining {
			res, ok := resolved[f.Selector]
			if !ok {
				next = append(next, f)
				continue
			}
			if _, dup := results[f.Selector]; !dup {
				results[f.Selector] = res
			}
		}
		remaining = next
	}
	return results, remaining
}

// runStrategy invokes one strategy with panic isolation.
func runStrategy(ctx context.Context, strategy Strategy, fields []types.Field) (resolved types.ResultMap) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[PIPELINE] strategy %s panicked: %v", strategy.Name, r)
			resolved = make(types.ResultMap)
		}
	}()
	resolved = strategy.Run(ctx, fields)
	if resolved == nil {
		resolved = make(types.ResultMap)
	}
	return resolved
}
