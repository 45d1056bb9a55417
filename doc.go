// Package mimic is a persona-mimicry engine for Go. It observes writing
// samples attributed to a persona, distills them into a behavioral
// signature, and evolves that signature toward a target until generated
// text is hard to tell apart from the person being mimicked.
//
// The engine is built from small composable layers:
//
//   - Core: Signature, Profile, and Action types shared by every layer.
//     A Signature captures measurable style traits (pattern confidences,
//     hedging level, response-length statistics); a Profile carries the
//     persona's identity and versioned style directives.
//
//   - Analysis: the behavior analyzer. Analyze folds one or more samples
//     into a Signature, blending with a prior so observation can run
//     incrementally as samples arrive.
//
//   - Evolution: the convergence tracker. It records similarity scores,
//     estimates drift over a sliding window, moves a persona through the
//     Observing, Refining, Converged, and Regressed phases, and proposes
//     bounded signature deltas that step the current signature toward the
//     target.
//
//   - Entity: the compound persona entity and the ethics gate. Every
//     consequential action (generating text, applying a delta) is checked
//     against the gate before it runs.
//
//   - Generation: deterministic template compilation and rendering. A
//     compiled template set turns a prompt into text that exhibits the
//     signature's traits.
//
//   - Cache: sharded signature cache with an atomically swappable active
//     entry per persona and per-persona key locks.
//
//   - Store: persistence backends (file, sqlite, redis) for persona
//     records.
//
//   - Sources and Datasets: observation feeds (slices, readers, Anthropic
//     elicitation) and bulk corpus loaders (JSONL, Parquet).
//
// Engine ties the layers together. A minimal session:
//
//	import (
//	    "context"
//	    "log"
//
//	    "github.com/XiaoConstantine/mimic-go/pkg/engine"
//	    "github.com/XiaoConstantine/mimic-go/pkg/store"
//	)
//
//	func main() {
//	    eng, err := engine.New(store.NewFileStore("personas"))
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer eng.Close()
//
//	    ctx := context.Background()
//	    res, err := eng.Observe(ctx, "ada", "Perhaps we should start with the smallest fix that could work.")
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    eng.SetTarget("ada", res.Signature)
//	    if _, err := eng.Evolve(ctx, "ada", 10); err != nil {
//	        log.Fatal(err)
//	    }
//
//	    text, err := eng.Generate(ctx, "ada", "Summarize the incident")
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    log.Println(text)
//	}
//
// Configuration can come from YAML or the environment through pkg/config;
// engine.FromConfig builds the full stack, including the storage backend,
// from a Config value. Batch ingestion goes through Engine.ObserveBatch,
// Engine.EvolveBatch, and Engine.Drain, which pumps any sources.Source
// into the analyzer.
//
// All errors carry stable codes (see pkg/errors); logging goes through
// the severity logger in pkg/logging.
package mimic
