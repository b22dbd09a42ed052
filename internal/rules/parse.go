package rules

import (
	"encoding/json"
	"fmt"
)

// ParseReport summarises what a parse accepted and what it dropped.
// Diagnostics identify each skipped rule and dropped action by position and
// reason, so a partially valid document can be debugged without a debugger.
type ParseReport struct {
	Accepted       int
	SkippedRules   int
	DroppedActions int
	Diagnostics    []string
}

// ruleDoc is the wire shape of one automation object.
// Pointer fields distinguish "absent" from "zero" for required-field checks.
type ruleDoc struct {
	ID      *string      `json:"id"`
	Name    string       `json:"name"`
	Enabled *bool        `json:"enabled"`
	Trigger *triggerDoc  `json:"trigger"`
	Actions *[]actionDoc `json:"actions"`
}

// triggerDoc is the wire shape of a trigger descriptor.
type triggerDoc struct {
	Source  string `json:"source"`
	Type    string `json:"type"`
	InputID string `json:"input_id"`
}

// actionDoc is the wire shape of an action descriptor. The target field is
// named switch_id on the wire for every target kind, lights included; the
// format predates light support and is kept for compatibility.
type actionDoc struct {
	Source   string `json:"source"`
	Type     string `json:"type"`
	SwitchID string `json:"switch_id"`
	DelayS   uint32 `json:"delay_s"`
}

// ParseDocument turns a raw serialized rule document into a validated rule
// list.
//
// Document-level contract:
//   - Documents larger than MaxDocumentSize are rejected outright with
//     ErrDocumentTooLarge; no partial parse is attempted.
//   - The top-level value must be a JSON array; anything else fails with
//     ErrMalformedDocument.
//
// Element-level contract (never fatal):
//   - Elements missing id, trigger, or actions are skipped with a diagnostic.
//   - Enumeration text matches case-insensitively; unrecognized values map to
//     Unknown and are judged by the rule invariants, not the parser.
//   - A rule is kept only if its trigger is valid; invalid actions are
//     dropped individually, and a rule with no surviving actions is dropped.
//
// Returns the accepted rules, a report describing skips and drops, and an
// error only for the two document-level violations above.
func ParseDocument(data []byte) ([]Rule, ParseReport, error) {
	var report ParseReport

	if len(data) > MaxDocumentSize {
		return nil, report, fmt.Errorf("%w: %d bytes (max %d)",
			ErrDocumentTooLarge, len(data), MaxDocumentSize)
	}

	// Decode the top level into raw elements first so a single malformed
	// element can be skipped without aborting the rest of the document.
	var elements []json.RawMessage
	if err := json.Unmarshal(data, &elements); err != nil {
		return nil, report, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}

	rules := make([]Rule, 0, len(elements))
	for i, raw := range elements {
		var doc ruleDoc
		if err := json.Unmarshal(raw, &doc); err != nil {
			report.skipRule(fmt.Sprintf("rule[%d]: malformed object: %v", i, err))
			continue
		}

		if doc.ID == nil || *doc.ID == "" || doc.Trigger == nil || doc.Actions == nil {
			report.skipRule(fmt.Sprintf("rule[%d]: missing required field (id, trigger, actions)", i))
			continue
		}

		rule := Rule{
			ID:      *doc.ID,
			Name:    doc.Name,
			Enabled: true,
			Trigger: Trigger{
				Source:  ParseTriggerSource(doc.Trigger.Source),
				Type:    ParseTriggerType(doc.Trigger.Type),
				InputID: doc.Trigger.InputID,
			},
		}
		if rule.Name == "" {
			rule.Name = rule.ID
		}
		if doc.Enabled != nil {
			rule.Enabled = *doc.Enabled
		}

		if !rule.Trigger.Valid() {
			report.skipRule(fmt.Sprintf("rule[%d] %q: invalid trigger descriptor", i, rule.ID))
			continue
		}

		for j, a := range *doc.Actions {
			action := Action{
				Source:       ParseActionSource(a.Source),
				Type:         ParseActionType(a.Type),
				TargetID:     a.SwitchID,
				DelaySeconds: a.DelayS,
			}
			if !action.Valid() {
				report.DroppedActions++
				report.Diagnostics = append(report.Diagnostics,
					fmt.Sprintf("rule[%d] %q: dropping invalid action[%d]", i, rule.ID, j))
				continue
			}
			rule.Actions = append(rule.Actions, action)
		}

		if len(rule.Actions) == 0 {
			report.skipRule(fmt.Sprintf("rule[%d] %q: no valid actions", i, rule.ID))
			continue
		}

		rules = append(rules, rule)
	}

	report.Accepted = len(rules)
	return rules, report, nil
}

func (r *ParseReport) skipRule(diag string) {
	r.SkippedRules++
	r.Diagnostics = append(r.Diagnostics, diag)
}
