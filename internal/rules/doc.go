// Package rules provides the dynamic automation runtime for Quartz Core.
//
// Automations are stored as structured data, not code: a bounded JSON
// document describes rules that link one input trigger to an ordered list of
// actions. At runtime the document is parsed, validated, resolved against
// the live entity registry, and assembled into executable automation units
// that fire when inputs change.
//
// Pipeline:
//
//	raw document ──▶ ParseDocument ──▶ []Rule ──▶ Runtime.Reload
//	                     │                            │
//	                     │                   buildTrigger/buildAction
//	                     │                   (via Resolver handles)
//	                     ▼                            ▼
//	                Hub events                  live units
//
// # Key Types
//
//   - Rule, Trigger, Action: the plain-data document model
//   - Runtime: assembles and exclusively owns executable automation units
//   - Service: operational entry points (initialize, reload, persist, lookup)
//   - DocumentStore: bounded persistence of the raw document (SQLite impl)
//   - Hub: load-succeeded / load-error event fan-out
//   - Resolver: injected capability for entity lookup, faked in tests
//
// # Containment
//
// The parser and builder make maximum use of a partially valid document:
// individual malformed rules and actions are dropped with diagnostics, and
// only size or top-level shape violations abort a load. A failed load leaves
// the previously active automation set untouched.
//
// # Usage
//
//	store := rules.NewSQLiteStore(db.DB)
//	svc, err := rules.NewService(rules.ServiceDeps{
//	    Store:    store,
//	    Resolver: resolver,
//	    Logger:   log,
//	})
//	if err != nil {
//	    return err
//	}
//	svc.Hub().OnError(func(reason string) { log.Error("rules", "reason", reason) })
//	if err := svc.Initialize(ctx); err != nil {
//	    return err
//	}
package rules
