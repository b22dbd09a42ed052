package rules

import (
	"context"
	"errors"
	"sync"
)

// Logger defines the logging interface used by the rules package.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// unit is one live automation: an attached trigger plus its ordered steps.
// The runtime exclusively owns every unit; dropping a unit detaches its
// trigger watcher and cancels any action chain still running, but never
// destroys the borrowed entity handles behind the steps.
type unit struct {
	id     string
	name   string
	steps  []step
	detach func()
}

// BuildReport summarises one BuildAll pass. Per-rule and per-action failures
// are contained, counted here, and logged; they never abort the batch.
type BuildReport struct {
	// Built is the number of units constructed and attached.
	Built int

	// SkippedDisabled counts rules skipped because they are disabled.
	// This is a pass-through filter, not an error path.
	SkippedDisabled int

	// SkippedRules counts rules skipped because trigger construction failed
	// (unsupported kind or unresolvable input).
	SkippedRules int

	// DroppedActions counts individual actions that failed construction
	// inside otherwise successful rules.
	DroppedActions int
}

// Runtime assembles validated rules into executable automation units and
// owns their lifecycle.
//
// The rebuild cycle is clear-then-build: Reload destroys every current unit
// before constructing the new set, under a single lock, so external readers
// never observe a partially cleared or partially built registry. There is no
// incremental add/remove of a single rule.
type Runtime struct {
	resolver Resolver
	logger   Logger

	// onFired is an optional telemetry hook invoked when a unit fires.
	// Must be set before the first build; it is read without the lock from
	// entity callbacks.
	onFired func(ruleID string)

	mu     sync.Mutex
	units  []*unit
	report BuildReport
	ctx    context.Context
	cancel context.CancelFunc
}

// NewRuntime creates an empty automation runtime. Entity handles are
// resolved through the given resolver, fresh on every build.
func NewRuntime(resolver Resolver) *Runtime {
	return &Runtime{
		resolver: resolver,
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the runtime.
func (r *Runtime) SetLogger(logger Logger) {
	r.logger = logger
}

// SetOnFired registers a hook invoked with the rule ID each time an
// automation fires. Call before the first build.
func (r *Runtime) SetOnFired(fn func(ruleID string)) {
	r.onFired = fn
}

// Clear destroys every currently held automation unit: trigger watchers are
// detached and in-flight action chains cancelled. Safe to call when already
// empty.
func (r *Runtime) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clearLocked()
}

// Reload replaces the entire active automation set: clear, then build all.
// This is the only way rules are re-materialised.
func (r *Runtime) Reload(ruleSet []Rule) BuildReport {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clearLocked()
	return r.buildAllLocked(ruleSet)
}

// BuildAll constructs units for every enabled rule in input order.
//
// A trigger construction failure skips the whole rule and continues with the
// next; one bad rule never aborts the batch. Action construction failures
// drop that action only; the unit keeps the survivors in original order and
// is registered once its trigger built, regardless of the final action count.
func (r *Runtime) BuildAll(ruleSet []Rule) BuildReport {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buildAllLocked(ruleSet)
}

func (r *Runtime) clearLocked() {
	if len(r.units) > 0 {
		r.logger.Debug("clearing automation units", "count", len(r.units))
	}
	for _, u := range r.units {
		u.detach()
	}
	r.units = nil
	if r.cancel != nil {
		r.cancel()
		r.ctx, r.cancel = nil, nil
	}
}

func (r *Runtime) buildAllLocked(ruleSet []Rule) BuildReport {
	if r.cancel != nil {
		// A build without an intervening clear must not orphan the previous
		// generation's cancel; its in-flight delay chains end here.
		r.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	r.ctx, r.cancel = ctx, cancel

	var rep BuildReport
	for _, rule := range ruleSet {
		if !rule.Enabled {
			rep.SkippedDisabled++
			r.logger.Debug("skipping disabled rule", "rule_id", rule.ID)
			continue
		}

		binding, err := buildTrigger(rule.Trigger, r.resolver)
		if err != nil {
			rep.SkippedRules++
			r.logger.Warn("skipping rule: trigger construction failed",
				"rule_id", rule.ID, "error", err)
			continue
		}

		u := &unit{id: rule.ID, name: rule.Name}
		for i, a := range rule.Actions {
			st, buildErr := buildAction(a, r.resolver)
			if buildErr != nil {
				rep.DroppedActions++
				r.logger.Warn("dropping action: construction failed",
					"rule_id", rule.ID, "action", i, "error", buildErr)
				continue
			}
			u.steps = append(u.steps, st)
		}
		if len(u.steps) == 0 {
			// The data-model invariant guarantees at least one valid action,
			// but entity resolution can still empty the list at build time.
			r.logger.Warn("rule built with no runnable actions", "rule_id", rule.ID)
		}

		u.detach = binding.attach(func() { r.fire(ctx, u) })
		r.units = append(r.units, u)
		rep.Built++

		r.logger.Debug("automation built",
			"rule_id", rule.ID, "actions", len(u.steps))
	}

	r.report = rep
	r.logger.Info("automation set built",
		"units", rep.Built,
		"skipped_disabled", rep.SkippedDisabled,
		"skipped_rules", rep.SkippedRules,
		"dropped_actions", rep.DroppedActions,
	)
	return rep
}

// fire runs a unit's action chain. The chain executes sequentially on its
// own goroutine so the input dispatch path never blocks on a delay; ctx is
// the build generation's context, cancelled by the next clear.
//
// fire must not take r.mu: it is invoked from entity watcher callbacks while
// Reload may hold the lock to detach those same watchers.
func (r *Runtime) fire(ctx context.Context, u *unit) {
	if r.onFired != nil {
		r.onFired(u.id)
	}
	r.logger.Debug("automation fired", "rule_id", u.id)

	go func() {
		for _, st := range u.steps {
			if ctx.Err() != nil {
				return
			}
			if err := st.run(ctx); err != nil {
				if errors.Is(err, context.Canceled) {
					return
				}
				r.logger.Warn("automation action failed",
					"rule_id", u.id, "error", err)
			}
		}
	}()
}

// UnitCount returns the number of live automation units.
func (r *Runtime) UnitCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.units)
}

// ActionCount returns the number of runnable actions held by the unit built
// from the given rule, and whether such a unit exists.
func (r *Runtime) ActionCount(ruleID string) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.units {
		if u.id == ruleID {
			return len(u.steps), true
		}
	}
	return 0, false
}

// LastBuild returns the report from the most recent build pass.
func (r *Runtime) LastBuild() BuildReport {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.report
}
