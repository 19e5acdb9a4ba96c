// Package metascan indexes structural metadata of a closed universe of units
// (class-equivalents) and answers reverse lookups over it: which types extend
// a type, which carry an annotation, which methods take given parameters or
// return a given type.
//
// # Pipeline
//
// A scan runs in two phases:
//
//  1. Scan: each ref is read through a [Reader] and every configured
//     [Scanner] records facts about the unit in its own category of a
//     [Store]. With parallel scanning enabled, refs are partitioned across
//     workers that fill private Stores.
//
//  2. Merge: the per-worker Stores are unioned into one sealed Store. The
//     result is identical to a single-goroutine scan over the same refs.
//
// Stores can be saved as snapshots (XML, YAML or SQLite) and merged back
// later, so a host can skip scanning when a snapshot is available.
//
// # Usage
//
// Create an Engine, scan, and query:
//
//	e, err := metascan.New(metascan.WithScanners(scanner.All()...))
//	if err != nil { ... }
//
//	res, err := e.Scan(ctx, refs, reader)
//	q := res.Query()
//	impls := q.SubTypesOf("com.acme.Api")
//	handlers := q.MethodsAnnotatedWith("com.acme.Handler")
//
// Host frameworks that select candidate units by filter use [Engine.Resolve],
// which consults snapshots before falling back to a scan.
//
// # Custom scanners
//
// Besides the built-in scanners, a scanner can be written as a Risor script
// that receives the unit as a map and calls emit(key, value) for each fact.
// See the scanner package.
package metascan
