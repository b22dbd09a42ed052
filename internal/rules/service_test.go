package rules

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
)

// memStore is an in-memory DocumentStore with optional fault injection.
type memStore struct {
	mu      sync.Mutex
	data    []byte
	saveErr error
	loadErr error
	saves   int
}

func (m *memStore) Load(context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.data == nil {
		return nil, ErrStoreMiss
	}
	return append([]byte(nil), m.data...), nil
}

func (m *memStore) Save(_ context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.data = append([]byte(nil), data...)
	return nil
}

func newTestService(t *testing.T, store *memStore) (*Service, *fakeResolver) {
	t.Helper()
	res := newFakeResolver()
	res.inputs["btn"] = newFakeInput()
	res.switches["relay"] = &fakeSwitch{}

	svc, err := NewService(ServiceDeps{Store: store, Resolver: res})
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	return svc, res
}

const serviceDoc = `[{
	"id": "toggle",
	"trigger": {"source": "input", "type": "press", "input_id": "btn"},
	"actions": [{"source": "switch", "type": "toggle", "switch_id": "relay"}]
}]`

func TestNewService_RequiredDeps(t *testing.T) {
	res := newFakeResolver()
	if _, err := NewService(ServiceDeps{Resolver: res}); err == nil {
		t.Error("NewService() without store should fail")
	}
	if _, err := NewService(ServiceDeps{Store: &memStore{}}); err == nil {
		t.Error("NewService() without resolver should fail")
	}
}

func TestService_InitializeFromInitialDocument(t *testing.T) {
	store := &memStore{}
	svc, _ := newTestService(t, store)

	var loaded []LoadedEvent
	svc.Hub().OnLoaded(func(ev LoadedEvent) { loaded = append(loaded, ev) })

	svc.SetInitialDocument([]byte(serviceDoc))
	if err := svc.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	if svc.UnitCount() != 1 {
		t.Errorf("UnitCount() = %d, want 1", svc.UnitCount())
	}
	if len(loaded) != 1 || loaded[0].Rules != 1 {
		t.Errorf("loaded events = %+v, want one event with Rules=1", loaded)
	}
	// The initial document is persisted so the next boot loads from store.
	if store.saves != 1 {
		t.Errorf("store saves = %d, want 1", store.saves)
	}
	if !bytes.Equal(store.data, []byte(serviceDoc)) {
		t.Error("persisted document differs from initial document")
	}
}

func TestService_InitializeFromStore(t *testing.T) {
	store := &memStore{data: []byte(serviceDoc)}
	svc, _ := newTestService(t, store)

	if err := svc.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if svc.UnitCount() != 1 {
		t.Errorf("UnitCount() = %d, want 1", svc.UnitCount())
	}
	if len(svc.Rules()) != 1 {
		t.Errorf("Rules() = %v, want one rule", svc.Rules())
	}
}

func TestService_InitializeStoreMiss(t *testing.T) {
	svc, _ := newTestService(t, &memStore{})

	var errs []string
	svc.Hub().OnError(func(reason string) { errs = append(errs, reason) })

	if err := svc.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if svc.UnitCount() != 0 {
		t.Errorf("UnitCount() = %d, want 0", svc.UnitCount())
	}
	// A store miss is a first-boot condition, not a failure.
	if len(errs) != 0 {
		t.Errorf("error events = %v, want none", errs)
	}
}

func TestService_InitializeBadInitialDocumentIsSoft(t *testing.T) {
	svc, _ := newTestService(t, &memStore{})

	var errs []string
	svc.Hub().OnError(func(reason string) { errs = append(errs, reason) })

	svc.SetInitialDocument([]byte(`{"not": "an array"}`))
	if err := svc.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v, want nil for soft failure", err)
	}
	if svc.UnitCount() != 0 {
		t.Errorf("UnitCount() = %d, want 0", svc.UnitCount())
	}
	if len(errs) != 1 {
		t.Errorf("error events = %v, want exactly one", errs)
	}
}

func TestService_ReloadFailureKeepsPriorState(t *testing.T) {
	svc, _ := newTestService(t, &memStore{})
	ctx := context.Background()

	if err := svc.ReloadFromDocument(ctx, []byte(serviceDoc)); err != nil {
		t.Fatalf("ReloadFromDocument() error = %v", err)
	}

	var errs []string
	svc.Hub().OnError(func(reason string) { errs = append(errs, reason) })

	err := svc.ReloadFromDocument(ctx, []byte(`not json`))
	if !errors.Is(err, ErrMalformedDocument) {
		t.Fatalf("ReloadFromDocument() error = %v, want ErrMalformedDocument", err)
	}

	// The previous set must survive the failed reload untouched.
	if svc.UnitCount() != 1 {
		t.Errorf("UnitCount() = %d, want 1", svc.UnitCount())
	}
	if !bytes.Equal(svc.Document(), []byte(serviceDoc)) {
		t.Error("Document() changed after failed reload")
	}
	if len(errs) != 1 {
		t.Errorf("error events = %v, want exactly one", errs)
	}
}

func TestService_ReloadOversizeRejected(t *testing.T) {
	svc, _ := newTestService(t, &memStore{})

	big := bytes.Repeat([]byte("x"), MaxDocumentSize+1)
	err := svc.ReloadFromDocument(context.Background(), big)
	if !errors.Is(err, ErrDocumentTooLarge) {
		t.Errorf("ReloadFromDocument() error = %v, want ErrDocumentTooLarge", err)
	}
}

func TestService_PersistEmptyDocument(t *testing.T) {
	svc, _ := newTestService(t, &memStore{})

	var errs []string
	svc.Hub().OnError(func(reason string) { errs = append(errs, reason) })

	err := svc.Persist(context.Background())
	if !errors.Is(err, ErrEmptyDocument) {
		t.Errorf("Persist() error = %v, want ErrEmptyDocument", err)
	}
	if len(errs) != 1 {
		t.Errorf("error events = %v, want exactly one", errs)
	}
}

func TestService_PersistSaveFailure(t *testing.T) {
	store := &memStore{saveErr: errors.New("disk full")}
	svc, _ := newTestService(t, store)
	ctx := context.Background()

	if err := svc.ReloadFromDocument(ctx, []byte(serviceDoc)); err != nil {
		t.Fatalf("ReloadFromDocument() error = %v", err)
	}

	var errs []string
	svc.Hub().OnError(func(reason string) { errs = append(errs, reason) })

	if err := svc.Persist(ctx); err == nil {
		t.Error("Persist() should surface the store failure")
	}
	if len(errs) != 1 {
		t.Errorf("error events = %v, want exactly one", errs)
	}
}

func TestService_RuleByID(t *testing.T) {
	svc, _ := newTestService(t, &memStore{})
	if err := svc.ReloadFromDocument(context.Background(), []byte(serviceDoc)); err != nil {
		t.Fatalf("ReloadFromDocument() error = %v", err)
	}

	rule, err := svc.RuleByID("toggle")
	if err != nil {
		t.Fatalf("RuleByID() error = %v", err)
	}
	if rule.Trigger.InputID != "btn" {
		t.Errorf("rule = %+v", rule)
	}

	if _, err := svc.RuleByID("ghost"); !errors.Is(err, ErrRuleNotFound) {
		t.Errorf("RuleByID(ghost) error = %v, want ErrRuleNotFound", err)
	}
}

func TestService_ConcurrentReloadsStayConsistent(t *testing.T) {
	svc, res := newTestService(t, &memStore{})
	res.switches["relay-2"] = &fakeSwitch{}

	docOne := []byte(serviceDoc)
	docTwo := []byte(`[
		{"id": "a",
		 "trigger": {"source": "input", "type": "press", "input_id": "btn"},
		 "actions": [{"source": "switch", "type": "toggle", "switch_id": "relay"}]},
		{"id": "b",
		 "trigger": {"source": "input", "type": "release", "input_id": "btn"},
		 "actions": [{"source": "switch", "type": "toggle", "switch_id": "relay-2"}]}
	]`)

	ctx := context.Background()
	var wg sync.WaitGroup
	for _, doc := range [][]byte{docOne, docTwo} {
		doc := doc
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				if err := svc.ReloadFromDocument(ctx, doc); err != nil {
					t.Errorf("ReloadFromDocument() error = %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	// Whichever reload landed last, the live unit set, the rule snapshot,
	// the stored document, and the attached watchers must all describe the
	// same document.
	rulesNow := svc.Rules()
	if got := svc.UnitCount(); got != len(rulesNow) {
		t.Errorf("UnitCount() = %d, Rules() has %d", got, len(rulesNow))
	}
	parsed, _, err := ParseDocument(svc.Document())
	if err != nil {
		t.Fatalf("ParseDocument(Document()) error = %v", err)
	}
	if len(parsed) != len(rulesNow) {
		t.Errorf("Document() holds %d rules, Rules() has %d", len(parsed), len(rulesNow))
	}
	if got := res.inputs["btn"].watcherCount(); got != len(rulesNow) {
		t.Errorf("watcherCount() = %d, want %d", got, len(rulesNow))
	}
}

func TestService_EndToEnd(t *testing.T) {
	store := &memStore{}
	svc, res := newTestService(t, store)

	svc.SetInitialDocument([]byte(serviceDoc))
	if err := svc.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	sw := res.switches["relay"]
	res.inputs["btn"].press()
	waitFor(t, func() bool { return sw.state() })

	res.inputs["btn"].press()
	waitFor(t, func() bool { return !sw.state() })
}
