package rules

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ServiceDeps holds the dependencies required by the Service.
type ServiceDeps struct {
	Store    DocumentStore
	Resolver Resolver
	Logger   Logger // optional
}

// Service is the operational surface of the automation runtime.
//
// It owns the current document and its parsed rule set, drives the runtime's
// clear-then-build cycle, mediates the persistence gateway, and emits load
// lifecycle events through its Hub. All mutation goes through Initialize,
// ReloadFromDocument, and Persist; everything else is read-only.
//
// Thread Safety: all methods are safe for concurrent use, but reloads are
// serialised; a reload always runs to completion before the next begins.
type Service struct {
	store   DocumentStore
	runtime *Runtime
	hub     *Hub
	logger  Logger

	// reloadMu serialises whole reloads. Parse, runtime rebuild, and the
	// document/rules snapshot swap must land as one unit so the live unit
	// set and the reported snapshot never belong to different documents.
	reloadMu sync.Mutex

	mu       sync.RWMutex
	document []byte
	rules    []Rule
	initial  []byte
}

// NewService creates the automation service.
//
// Parameters:
//   - deps: Store and Resolver are required; Logger is optional.
//
// Returns:
//   - *Service: Service ready for Initialize
//   - error: If a required dependency is missing
func NewService(deps ServiceDeps) (*Service, error) {
	if deps.Store == nil {
		return nil, fmt.Errorf("document store is required")
	}
	if deps.Resolver == nil {
		return nil, fmt.Errorf("entity resolver is required")
	}

	logger := deps.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	runtime := NewRuntime(deps.Resolver)
	runtime.SetLogger(logger)

	return &Service{
		store:   deps.Store,
		runtime: runtime,
		hub:     NewHub(),
		logger:  logger,
	}, nil
}

// Hub returns the notification hub for registering event listeners.
func (s *Service) Hub() *Hub {
	return s.hub
}

// Runtime returns the owned automation runtime, for wiring telemetry hooks
// before Initialize.
func (s *Service) Runtime() *Runtime {
	return s.runtime
}

// SetInitialDocument supplies the startup document produced by the
// compile-time configuration layer. When set, Initialize parses it and
// persists it instead of loading from the store.
func (s *Service) SetInitialDocument(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initial = append([]byte(nil), data...)
}

// Initialize performs the first-boot load sequence.
//
// With an initial document configured: parse it, build the automation set,
// and persist it so subsequent boots load from the store. Without one: load
// whatever the store holds; a store miss means zero rules and is not an
// error. Malformed content never fails Initialize; the error event fires
// and the device keeps running with the previous (empty) set.
func (s *Service) Initialize(ctx context.Context) error {
	s.mu.RLock()
	initial := s.initial
	s.mu.RUnlock()

	if len(initial) > 0 {
		s.logger.Debug("parsing initial rule document", "bytes", len(initial))
		if err := s.ReloadFromDocument(ctx, initial); err != nil {
			s.logger.Error("initial document rejected", "error", err)
			return nil
		}
		if err := s.Persist(ctx); err != nil {
			s.logger.Warn("persisting initial document failed", "error", err)
		}
		return nil
	}

	s.logger.Debug("loading rule document from store")
	data, err := s.store.Load(ctx)
	if errors.Is(err, ErrStoreMiss) {
		s.logger.Info("no stored rule document, starting with zero rules")
		return nil
	}
	if err != nil {
		s.hub.emitError(fmt.Sprintf("loading stored document: %v", err))
		s.logger.Error("loading stored document failed", "error", err)
		return nil
	}

	if reloadErr := s.ReloadFromDocument(ctx, data); reloadErr != nil {
		s.logger.Error("stored document rejected", "error", reloadErr)
	}
	return nil
}

// ReloadFromDocument replaces the entire active automation set from a new
// serialized document.
//
// On a document-level failure (size or shape) the previous rule set and
// units stay active, exactly one error event fires, and the error is
// returned. On success the runtime is cleared and rebuilt, the document and
// rule snapshot are replaced, and a loaded event fires with the accepted
// rule count. Per-rule and per-action problems are contained by the parser
// and builder and reported only as diagnostics.
func (s *Service) ReloadFromDocument(ctx context.Context, data []byte) error {
	_ = ctx // parsing and building are synchronous and run to completion

	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	parsed, parseReport, err := ParseDocument(data)
	if err != nil {
		s.hub.emitError(err.Error())
		s.logger.Error("rule document rejected", "error", err, "bytes", len(data))
		return err
	}

	for _, diag := range parseReport.Diagnostics {
		s.logger.Warn("rule document diagnostic", "detail", diag)
	}

	buildReport := s.runtime.Reload(parsed)

	s.mu.Lock()
	s.document = append([]byte(nil), data...)
	s.rules = parsed
	s.mu.Unlock()

	s.logger.Info("rule document loaded",
		"rules", len(parsed),
		"units", buildReport.Built,
		"skipped_rules", parseReport.SkippedRules+buildReport.SkippedRules,
		"dropped_actions", parseReport.DroppedActions+buildReport.DroppedActions,
		"bytes", len(data),
	)
	s.hub.emitLoaded(LoadedEvent{Rules: len(parsed), Bytes: len(data)})
	return nil
}

// Persist writes the current document to the store.
//
// Empty and oversized documents are refused without a write attempt; every
// failure path emits exactly one error event.
func (s *Service) Persist(ctx context.Context) error {
	s.mu.RLock()
	document := s.document
	s.mu.RUnlock()

	if len(document) == 0 {
		s.hub.emitError("cannot persist empty rule document")
		s.logger.Warn("cannot persist empty rule document")
		return ErrEmptyDocument
	}

	if err := s.store.Save(ctx, document); err != nil {
		s.hub.emitError(fmt.Sprintf("persisting rule document: %v", err))
		s.logger.Error("persisting rule document failed", "error", err)
		return err
	}

	s.logger.Debug("rule document persisted", "bytes", len(document))
	return nil
}

// Rules returns a copy of the currently loaded rule set, in document order.
func (s *Service) Rules() []Rule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Rule, len(s.rules))
	copy(out, s.rules)
	return out
}

// RuleByID returns the loaded rule with the given ID. This is a read-only
// diagnostic; execution happens only through trigger firing.
func (s *Service) RuleByID(id string) (Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.rules {
		if r.ID == id {
			return r, nil
		}
	}
	return Rule{}, ErrRuleNotFound
}

// Document returns a copy of the currently accepted raw document.
func (s *Service) Document() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]byte(nil), s.document...)
}

// UnitCount returns the number of live automation units.
func (s *Service) UnitCount() int {
	return s.runtime.UnitCount()
}

// LastBuild returns the report from the most recent build pass.
func (s *Service) LastBuild() BuildReport {
	return s.runtime.LastBuild()
}
