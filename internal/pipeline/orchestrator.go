// Package pipeline orchestrates a full form scan: field enrichment,
// grouped multi-tier resolution, AI fallback, simulated-typing
// execution, and memory write-back.
package pipeline

import (
	"context"
	"log"
	"math/rand"
	"time"

	"github.com/jonathan/autofill-agent/internal/ai"
	"github.com/jonathan/autofill-agent/internal/classify"
	"github.com/jonathan/autofill-agent/internal/composite"
	"github.com/jonathan/autofill-agent/internal/execution"
	"github.com/jonathan/autofill-agent/internal/indexing"
	"github.com/jonathan/autofill-agent/internal/matching"
	"github.com/jonathan/autofill-agent/internal/memory"
	"github.com/jonathan/autofill-agent/internal/profile"
	"github.com/jonathan/autofill-agent/internal/rules"
	"github.com/jonathan/autofill-agent/internal/section"
	"github.com/jonathan/autofill-agent/internal/types"
)

// Jitter bounds for the pause between consecutive fills.
const (
	jitterMin = 30 * time.Millisecond
	jitterMax = 150 * time.Millisecond
)

// Config wires the orchestrator's collaborators. Classifier, Dual, AI
// and Exec are optional; the pipeline degrades gracefully without them.
type Config struct {
	Classifier   classify.Classifier
	Dual         classify.DualClassifier
	Entities     *profile.Store
	Global       *memory.GlobalMemory
	Interactions *memory.InteractionLog
	AI           *ai.Resolver
	Exec         execution.Executor
	Verbose      bool

	// JitterMin and JitterMax override the default pause bounds between
	// fills when JitterMin is positive and JitterMax is at least JitterMin.
	JitterMin time.Duration
	JitterMax time.Duration
}

// Orchestrator runs the scan pipeline end to end.
type Orchestrator struct {
	classifier   classify.Classifier
	dual         classify.DualClassifier
	indexer      *indexing.Service
	entities     *profile.Store
	global       *memory.GlobalMemory
	interactions *memory.InteractionLog
	sections     *section.Controller
	composites   *composite.Manager
	rules        *rules.Engine
	ai           *ai.Resolver
	exec         execution.Executor
	verbose      bool

	// injectable for tests
	sleep  func(time.Duration)
	jitter func() time.Duration
}

// New builds an orchestrator from its collaborators. The section
// controller, composite manager, and rule engine are constructed here so
// callers only wire the stateful stores.
func New(cfg Config) *Orchestrator {
	o := &Orchestrator{
		classifier:   cfg.Classifier,
		dual:         cfg.Dual,
		indexer:      indexing.NewService(),
		entities:     cfg.Entities,
		global:       cfg.Global,
		interactions: cfg.Interactions,
		sections:     section.NewController(cfg.Entities, cfg.Interactions),
		composites:   composite.NewManager(cfg.Entities, cfg.Interactions, cfg.Global, cfg.Exec),
		rules:        rules.New(cfg.Entities.Profile()),
		ai:           cfg.AI,
		exec:         cfg.Exec,
		verbose:      cfg.Verbose,
		sleep:        time.Sleep,
	}
	lo, hi := jitterMin, jitterMax
	if cfg.JitterMin > 0 && cfg.JitterMax >= cfg.JitterMin {
		lo, hi = cfg.JitterMin, cfg.JitterMax
	}
	o.jitter = func() time.Duration {
		if hi <= lo {
			return lo
		}
		return lo + time.Duration(rand.Int63n(int64(hi-lo)))
	}
	return o
}

// ExecutePipeline runs the full scan over the extracted fields and
// returns a resolution for every input selector. It never returns an
// error: resolver failures degrade to ignore decisions so a single bad
// field cannot abort the fill.
func (o *Orchestrator) ExecutePipeline(ctx context.Context, fields []types.Field) types.ResultMap {
	enriched := o.enrich(fields)

	results := make(types.ResultMap, len(enriched))
	memoryGroup, heuristicGroup, multiGroup, generalGroup := splitGroups(enriched)

	chain := o.fastChain()
	resolved, leftovers := runChain(ctx, memoryGroup, chain)
	merge(results, resolved)

	heuristicResolved, heuristicLeft := runChain(ctx, heuristicGroup, chain)
	merge(results, heuristicResolved)
	leftovers = append(leftovers, heuristicLeft...)

	multiResolved, multiLeft := o.resolveMulti(ctx, multiGroup)
	merge(results, multiResolved)
	leftovers = append(leftovers, multiLeft...)

	leftovers = append(leftovers, generalGroup...)
	if o.ai != nil && len(leftovers) > 0 {
		merge(results, o.ai.Resolve(ctx, leftovers, o.entities.Profile()))
	}

	for _, f := range enriched {
		if _, ok := results[f.Selector]; !ok {
			results[f.Selector] = types.Resolution{
				Decision:  types.DecisionIgnore,
				FieldType: f.Type,
				Reason:    "no resolver produced a value",
			}
		}
	}

	o.execute(ctx, enriched, results)
	return results
}

// fastChain is the resolver ordering shared by the memory and heuristic
// groups: remembered answers first, then profile-derived rules, then
// cross-site memory.
func (o *Orchestrator) fastChain() []Strategy {
	return []Strategy{
		{Name: "interaction_cache", Run: o.runInteractionCache},
		{Name: "rule_engine", Run: o.runRules},
		{Name: "global_memory", Run: o.runGlobalMemory},
	}
}

func (o *Orchestrator) runInteractionCache(_ context.Context, fields []types.Field) types.ResultMap {
	results := make(types.ResultMap)
	if o.interactions == nil {
		return results
	}
	for _, f := range fields {
		hit, ok := o.interactions.Lookup(f)
		if !ok || hit.Confidence <= types.CacheAcceptThreshold {
			continue
		}
		value := hit.Value
		if len(f.Options) > 0 {
			best, score := matching.BestOption(value, f.Options)
			if score < types.FuzzyAcceptThreshold {
				continue
			}
			value = best
		}
		results[f.Selector] = types.Resolution{
			Value:      value,
			Confidence: hit.Confidence,
			Source:     types.SourceSelectionCache,
			FieldType:  f.Type,
		}
	}
	return results
}

func (o *Orchestrator) runRules(_ context.Context, fields []types.Field) types.ResultMap {
	resolved, _ := o.rules.Resolve(fields)
	return resolved
}

func (o *Orchestrator) runGlobalMemory(_ context.Context, fields []types.Field) types.ResultMap {
	results := make(types.ResultMap)
	if o.global == nil {
		return results
	}
	for _, f := range fields {
		if f.CacheLabel == "" {
			continue
		}
		hit, ok := o.global.Lookup(f.CacheLabel)
		if !ok {
			continue
		}
		value := hit.Value
		if len(f.Options) > 0 {
			best, score := matching.BestOption(value, f.Options)
			if score < types.FuzzyAcceptThreshold {
				continue
			}
			value = best
		}
		results[f.Selector] = types.Resolution{
			Value:      value,
			Confidence: hit.Confidence,
			Source:     types.SourceGlobalMemory,
			FieldType:  f.Type,
		}
	}
	return results
}

// resolveMulti routes the multi-value group: repeating-section fields go
// through the transactional section controller, everything else (skills
// grids, multi-selects) through the composite manager.
func (o *Orchestrator) resolveMulti(ctx context.Context, fields []types.Field) (types.ResultMap, []types.Field) {
	results := make(types.ResultMap)

	var sectional, compositeFields []types.Field
	for _, f := range fields {
		if f.SectionType == types.SectionWork || f.SectionType == types.SectionEducation {
			sectional = append(sectional, f)
		} else {
			compositeFields = append(compositeFields, f)
		}
	}

	var unresolved []types.Field
	if len(sectional) > 0 {
		resolved, left := o.sections.Resolve(ctx, sectional)
		merge(results, resolved)
		unresolved = append(unresolved, left...)
	}
	if len(compositeFields) > 0 {
		resolved, left := o.composites.Resolve(ctx, compositeFields)
		merge(results, resolved)
		unresolved = append(unresolved, left...)
	}
	return results, unresolved
}

// execute applies resolutions in DOM order with a randomized pause
// between fills, and writes successful fills back to memory.
func (o *Orchestrator) execute(ctx context.Context, fields []types.Field, results types.ResultMap) {
	first := true
	for _, f := range fields {
		res, ok := results[f.Selector]
		if !ok || res.Decision == types.DecisionIgnore || res.SkipExecution {
			continue
		}
		value := res.ValueString()
		if value == "" {
			continue
		}

		applied := true
		if o.exec != nil {
			if !first {
				o.sleep(o.jitter())
			}
			first = false
			var err error
			applied, err = o.exec.Fill(ctx, f.Selector, value, res.Confidence, f)
			if err != nil {
				log.Printf("[PIPELINE] fill failed for %s: %v", f.Selector, err)
				continue
			}
		}
		if applied {
			o.writeBack(ctx, f, res, value)
		}
	}
}

// writeBack persists a successful fill: structured and sectioned answers
// go to the per-site interaction log, generic free-text answers to the
// cross-site global memory.
func (o *Orchestrator) writeBack(ctx context.Context, f types.Field, res types.Resolution, value string) {
	if o.interactions != nil && res.Source != types.SourceSelectionCache {
		if err := o.interactions.Record(ctx, f, value, res.Confidence, res.Source); err != nil {
			log.Printf("[PIPELINE] interaction write-back failed for %s: %v", f.Selector, err)
		}
	}
	if o.global == nil || res.Source == types.SourceGlobalMemory {
		return
	}
	if f.SectionType != types.SectionNone || !isFreeText(f.Type) {
		return
	}
	if !matching.IsCacheableKey(f.CacheLabel) {
		return
	}
	if err := o.global.RememberKey(ctx, f.CacheLabel, value, string(res.Source)); err != nil {
		log.Printf("[PIPELINE] global write-back failed for %s: %v", f.Selector, err)
	}
}

// splitGroups buckets enriched fields for phase 1. Order within each
// bucket follows DOM order.
func splitGroups(fields []types.Field) (memoryGroup, heuristicGroup, multiGroup, generalGroup []types.Field) {
	for _, f := range fields {
		switch {
		case f.IsMultiControl() || f.SectionType != types.SectionNone:
			multiGroup = append(multiGroup, f)
		case isFreeText(f.Type):
			memoryGroup = append(memoryGroup, f)
		case isChoiceOrStructured(f.Type):
			heuristicGroup = append(heuristicGroup, f)
		default:
			generalGroup = append(generalGroup, f)
		}
	}
	return memoryGroup, heuristicGroup, multiGroup, generalGroup
}

func isFreeText(t string) bool {
	switch t {
	case types.TypeText, types.TypeEmail, types.TypeTel, types.TypeURL, types.TypeTextarea, "":
		return true
	}
	return false
}

func isChoiceOrStructured(t string) bool {
	switch t {
	case types.TypeRadio, types.TypeSelect, types.TypeDate, types.TypeNumber:
		return true
	}
	return false
}

func merge(dst, src types.ResultMap) {
	for selector, res := range src {
		if _, ok := dst[selector]; !ok {
			dst[selector] = res
		}
	}
}
