package rules

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
)

func TestParseDocument_Valid(t *testing.T) {
	doc := []byte(`[
		{
			"id": "hall_toggle",
			"name": "Hall toggle",
			"trigger": {"source": "input", "type": "press", "input_id": "btn-1"},
			"actions": [
				{"source": "switch", "type": "toggle", "switch_id": "relay-1"}
			]
		},
		{
			"id": "porch_off",
			"enabled": false,
			"trigger": {"source": "input", "type": "release", "input_id": "btn-2"},
			"actions": [
				{"source": "delay", "delay_s": 5},
				{"source": "light", "type": "turn_off", "switch_id": "porch"}
			]
		}
	]`)

	rules, report, err := ParseDocument(doc)
	if err != nil {
		t.Fatalf("ParseDocument() error = %v", err)
	}
	if report.Accepted != 2 || report.SkippedRules != 0 || report.DroppedActions != 0 {
		t.Fatalf("report = %+v, want 2 accepted, nothing dropped", report)
	}

	first := rules[0]
	if first.ID != "hall_toggle" || first.Name != "Hall toggle" || !first.Enabled {
		t.Errorf("first rule = %+v", first)
	}
	if first.Trigger.Source != TriggerSourceInput || first.Trigger.Type != TriggerTypePress {
		t.Errorf("first trigger = %+v", first.Trigger)
	}

	second := rules[1]
	if second.Name != "porch_off" {
		t.Errorf("name should default to id, got %q", second.Name)
	}
	if second.Enabled {
		t.Error("explicit enabled=false not honored")
	}
	if len(second.Actions) != 2 {
		t.Fatalf("len(actions) = %d, want 2", len(second.Actions))
	}
	if second.Actions[0].Source != ActionSourceDelay || second.Actions[0].DelaySeconds != 5 {
		t.Errorf("delay action = %+v", second.Actions[0])
	}
	if second.Actions[1].Source != ActionSourceLight || second.Actions[1].TargetID != "porch" {
		t.Errorf("light action = %+v", second.Actions[1])
	}
}

func TestParseDocument_DocumentErrors(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{
			name:    "oversized document",
			data:    bytes.Repeat([]byte("x"), MaxDocumentSize+1),
			wantErr: ErrDocumentTooLarge,
		},
		{
			name:    "top-level object",
			data:    []byte(`{"id": "r1"}`),
			wantErr: ErrMalformedDocument,
		},
		{
			name:    "top-level string",
			data:    []byte(`"rules"`),
			wantErr: ErrMalformedDocument,
		},
		{
			name:    "truncated array",
			data:    []byte(`[{"id": "r1"`),
			wantErr: ErrMalformedDocument,
		},
		{
			name:    "empty input",
			data:    nil,
			wantErr: ErrMalformedDocument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseDocument(tt.data)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ParseDocument() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseDocument_ExactSizeBoundary(t *testing.T) {
	// A document of exactly MaxDocumentSize bytes is accepted.
	pad := MaxDocumentSize - len(`[]`)
	doc := append([]byte{'['}, bytes.Repeat([]byte(" "), pad)...)
	doc = append(doc, ']')
	if len(doc) != MaxDocumentSize {
		t.Fatalf("test setup: len = %d", len(doc))
	}

	_, report, err := ParseDocument(doc)
	if err != nil {
		t.Fatalf("ParseDocument() error = %v", err)
	}
	if report.Accepted != 0 {
		t.Errorf("accepted = %d, want 0", report.Accepted)
	}
}

func TestParseDocument_SkipsAndDrops(t *testing.T) {
	tests := []struct {
		name           string
		doc            string
		wantAccepted   int
		wantSkipped    int
		wantDropped    int
		wantDiagnostic bool
	}{
		{
			name:           "missing id",
			doc:            `[{"trigger": {"source": "input", "type": "press", "input_id": "b"}, "actions": [{"source": "switch", "type": "toggle", "switch_id": "s"}]}]`,
			wantSkipped:    1,
			wantDiagnostic: true,
		},
		{
			name:           "empty id",
			doc:            `[{"id": "", "trigger": {"source": "input", "type": "press", "input_id": "b"}, "actions": [{"source": "switch", "type": "toggle", "switch_id": "s"}]}]`,
			wantSkipped:    1,
			wantDiagnostic: true,
		},
		{
			name:           "missing trigger",
			doc:            `[{"id": "r1", "actions": [{"source": "switch", "type": "toggle", "switch_id": "s"}]}]`,
			wantSkipped:    1,
			wantDiagnostic: true,
		},
		{
			name:           "missing actions",
			doc:            `[{"id": "r1", "trigger": {"source": "input", "type": "press", "input_id": "b"}}]`,
			wantSkipped:    1,
			wantDiagnostic: true,
		},
		{
			name:           "unknown trigger source",
			doc:            `[{"id": "r1", "trigger": {"source": "timer", "type": "press", "input_id": "b"}, "actions": [{"source": "switch", "type": "toggle", "switch_id": "s"}]}]`,
			wantSkipped:    1,
			wantDiagnostic: true,
		},
		{
			name:           "zero-length delay dropped, rule survives on other action",
			doc:            `[{"id": "r1", "trigger": {"source": "input", "type": "press", "input_id": "b"}, "actions": [{"source": "delay", "delay_s": 0}, {"source": "switch", "type": "toggle", "switch_id": "s"}]}]`,
			wantAccepted:   1,
			wantDropped:    1,
			wantDiagnostic: true,
		},
		{
			name:           "all actions invalid drops the rule",
			doc:            `[{"id": "r1", "trigger": {"source": "input", "type": "press", "input_id": "b"}, "actions": [{"source": "delay", "delay_s": 0}]}]`,
			wantSkipped:    1,
			wantDropped:    1,
			wantDiagnostic: true,
		},
		{
			name: "bad element does not poison the rest",
			doc: `[
				{"id": "bad"},
				{"id": "good", "trigger": {"source": "input", "type": "press", "input_id": "b"}, "actions": [{"source": "switch", "type": "toggle", "switch_id": "s"}]}
			]`,
			wantAccepted:   1,
			wantSkipped:    1,
			wantDiagnostic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules, report, err := ParseDocument([]byte(tt.doc))
			if err != nil {
				t.Fatalf("ParseDocument() error = %v", err)
			}
			if len(rules) != tt.wantAccepted {
				t.Errorf("accepted rules = %d, want %d", len(rules), tt.wantAccepted)
			}
			if report.SkippedRules != tt.wantSkipped {
				t.Errorf("skipped = %d, want %d", report.SkippedRules, tt.wantSkipped)
			}
			if report.DroppedActions != tt.wantDropped {
				t.Errorf("dropped = %d, want %d", report.DroppedActions, tt.wantDropped)
			}
			if tt.wantDiagnostic && len(report.Diagnostics) == 0 {
				t.Error("expected at least one diagnostic")
			}
		})
	}
}

func TestParseDocument_CaseInsensitiveEnums(t *testing.T) {
	doc := []byte(`[{
		"id": "r1",
		"trigger": {"source": "INPUT", "type": "Press", "input_id": "b"},
		"actions": [{"source": "Switch", "type": "TOGGLE", "switch_id": "s"}]
	}]`)

	rules, report, err := ParseDocument(doc)
	if err != nil {
		t.Fatalf("ParseDocument() error = %v", err)
	}
	if report.Accepted != 1 {
		t.Fatalf("accepted = %d, want 1", report.Accepted)
	}
	if rules[0].Trigger.Source != TriggerSourceInput || rules[0].Trigger.Type != TriggerTypePress {
		t.Errorf("trigger = %+v", rules[0].Trigger)
	}
	if rules[0].Actions[0].Source != ActionSourceSwitch || rules[0].Actions[0].Type != ActionTypeToggle {
		t.Errorf("action = %+v", rules[0].Actions[0])
	}
}

func TestParseDocument_EmptyArray(t *testing.T) {
	rules, report, err := ParseDocument([]byte(`[]`))
	if err != nil {
		t.Fatalf("ParseDocument() error = %v", err)
	}
	if len(rules) != 0 || report.Accepted != 0 {
		t.Errorf("rules = %v, report = %+v, want empty", rules, report)
	}
}

func TestParseDocument_ActionOrderPreserved(t *testing.T) {
	doc := []byte(`[{
		"id": "seq",
		"trigger": {"source": "input", "type": "press", "input_id": "b"},
		"actions": [
			{"source": "switch", "type": "turn_on", "switch_id": "s"},
			{"source": "delay", "delay_s": 2},
			{"source": "switch", "type": "turn_off", "switch_id": "s"}
		]
	}]`)

	rules, _, err := ParseDocument(doc)
	if err != nil {
		t.Fatalf("ParseDocument() error = %v", err)
	}
	got := rules[0].Actions
	want := []struct {
		source ActionSource
		typ    ActionType
	}{
		{ActionSourceSwitch, ActionTypeTurnOn},
		{ActionSourceDelay, ActionTypeUnknown},
		{ActionSourceSwitch, ActionTypeTurnOff},
	}
	if len(got) != len(want) {
		t.Fatalf("len(actions) = %d, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].Source != w.source || got[i].Type != w.typ {
			t.Errorf("action[%d] = %s/%s, want %s/%s",
				i, got[i].Source, got[i].Type, w.source, w.typ)
		}
	}
}

func TestEnumParsing(t *testing.T) {
	if ParseTriggerSource("bogus") != TriggerSourceUnknown {
		t.Error("unrecognized trigger source should map to Unknown")
	}
	if ParseTriggerType("bogus") != TriggerTypeUnknown {
		t.Error("unrecognized trigger type should map to Unknown")
	}
	if ParseActionSource("bogus") != ActionSourceUnknown {
		t.Error("unrecognized action source should map to Unknown")
	}
	if ParseActionType("bogus") != ActionTypeUnknown {
		t.Error("unrecognized action type should map to Unknown")
	}

	roundtrips := []string{"input", "press", "release", "switch", "light", "delay", "turn_on", "turn_off", "toggle"}
	for _, s := range roundtrips {
		t.Run(fmt.Sprintf("roundtrip_%s", s), func(t *testing.T) {
			var got string
			switch s {
			case "input":
				got = ParseTriggerSource(s).String()
			case "press", "release":
				got = ParseTriggerType(s).String()
			case "switch", "light", "delay":
				got = ParseActionSource(s).String()
			default:
				got = ParseActionType(s).String()
			}
			if got != s {
				t.Errorf("String() = %q, want %q", got, s)
			}
		})
	}
}
