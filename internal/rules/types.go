package rules

import "strings"

// MaxDocumentSize is the upper bound for a serialized rule document, in bytes.
// The limit is flash-budget driven: the document is persisted verbatim into a
// single store slot on devices with limited write endurance, so both the
// parser and the persistence gateway enforce it before doing any work.
const MaxDocumentSize = 4096

// TriggerSource identifies the category of entity a trigger observes.
type TriggerSource int

const (
	TriggerSourceUnknown TriggerSource = iota
	TriggerSourceInput
)

// TriggerType identifies the specific input transition a trigger fires on.
type TriggerType int

const (
	TriggerTypeUnknown TriggerType = iota
	TriggerTypePress
	TriggerTypeRelease
)

// ActionSource identifies the category of effect an action performs.
type ActionSource int

const (
	ActionSourceUnknown ActionSource = iota
	ActionSourceSwitch
	ActionSourceLight
	ActionSourceDelay
)

// ActionType identifies the operation applied to the action's target.
// Delay actions carry a duration instead and leave the type Unknown.
type ActionType int

const (
	ActionTypeUnknown ActionType = iota
	ActionTypeTurnOn
	ActionTypeTurnOff
	ActionTypeToggle
)

// ParseTriggerSource maps serialized text to a TriggerSource.
// Matching is case-insensitive; unrecognized text maps to Unknown rather
// than erroring, so validity is judged by the rule-level invariant.
func ParseTriggerSource(s string) TriggerSource {
	if strings.EqualFold(s, "input") {
		return TriggerSourceInput
	}
	return TriggerSourceUnknown
}

// ParseTriggerType maps serialized text to a TriggerType, case-insensitively.
func ParseTriggerType(s string) TriggerType {
	switch {
	case strings.EqualFold(s, "press"):
		return TriggerTypePress
	case strings.EqualFold(s, "release"):
		return TriggerTypeRelease
	default:
		return TriggerTypeUnknown
	}
}

// ParseActionSource maps serialized text to an ActionSource, case-insensitively.
func ParseActionSource(s string) ActionSource {
	switch {
	case strings.EqualFold(s, "switch"):
		return ActionSourceSwitch
	case strings.EqualFold(s, "light"):
		return ActionSourceLight
	case strings.EqualFold(s, "delay"):
		return ActionSourceDelay
	default:
		return ActionSourceUnknown
	}
}

// ParseActionType maps serialized text to an ActionType, case-insensitively.
func ParseActionType(s string) ActionType {
	switch {
	case strings.EqualFold(s, "turn_on"):
		return ActionTypeTurnOn
	case strings.EqualFold(s, "turn_off"):
		return ActionTypeTurnOff
	case strings.EqualFold(s, "toggle"):
		return ActionTypeToggle
	default:
		return ActionTypeUnknown
	}
}

// String returns the canonical serialized form of the trigger source.
func (s TriggerSource) String() string {
	if s == TriggerSourceInput {
		return "input"
	}
	return "unknown"
}

// String returns the canonical serialized form of the trigger type.
func (t TriggerType) String() string {
	switch t {
	case TriggerTypePress:
		return "press"
	case TriggerTypeRelease:
		return "release"
	default:
		return "unknown"
	}
}

// String returns the canonical serialized form of the action source.
func (s ActionSource) String() string {
	switch s {
	case ActionSourceSwitch:
		return "switch"
	case ActionSourceLight:
		return "light"
	case ActionSourceDelay:
		return "delay"
	default:
		return "unknown"
	}
}

// String returns the canonical serialized form of the action type.
func (t ActionType) String() string {
	switch t {
	case ActionTypeTurnOn:
		return "turn_on"
	case ActionTypeTurnOff:
		return "turn_off"
	case ActionTypeToggle:
		return "toggle"
	default:
		return "unknown"
	}
}

// Trigger is the condition descriptor of a rule: which input to watch and
// which transition fires the rule. The zero value is Unknown/Unknown/"" and
// is never valid.
type Trigger struct {
	Source  TriggerSource `json:"source"`
	Type    TriggerType   `json:"type"`
	InputID string        `json:"input_id"`
}

// Valid reports whether the trigger descriptor is usable: a recognized
// source and type, and a non-empty input identifier.
func (t Trigger) Valid() bool {
	return t.Source != TriggerSourceUnknown &&
		t.Type != TriggerTypeUnknown &&
		t.InputID != ""
}

// Action is a single effect descriptor within a rule. Switch and Light
// actions operate on TargetID; Delay actions carry DelaySeconds instead.
type Action struct {
	Source       ActionSource `json:"source"`
	Type         ActionType   `json:"type"`
	TargetID     string       `json:"target_id,omitempty"`
	DelaySeconds uint32       `json:"delay_s,omitempty"`
}

// Valid reports whether the action descriptor is usable. A delay needs a
// positive duration; switch and light actions need a recognized operation
// and a target identifier.
func (a Action) Valid() bool {
	if a.Source == ActionSourceDelay {
		return a.DelaySeconds > 0
	}
	if a.Source == ActionSourceSwitch || a.Source == ActionSourceLight {
		return a.Type != ActionTypeUnknown && a.TargetID != ""
	}
	return false
}

// Rule is one automation: a trigger condition paired with an ordered list of
// actions. Rules are plain data; the factory and runtime turn them into live
// behavior objects.
type Rule struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Enabled bool     `json:"enabled"`
	Trigger Trigger  `json:"trigger"`
	Actions []Action `json:"actions"`
}
