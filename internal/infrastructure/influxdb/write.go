package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteRulesLoaded records a successful rule document load.
//
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - rules: Number of rules accepted from the document
//   - bytes: Size of the raw document in bytes
func (c *Client) WriteRulesLoaded(rules, bytes int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"rules_loaded",
		nil,
		map[string]interface{}{
			"rules": rules,
			"bytes": bytes,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteRulesError records a rule pipeline failure (parse or persist).
//
// Parameters:
//   - reason: Short failure category, e.g. "malformed document"
func (c *Client) WriteRulesError(reason string) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"rules_error",
		map[string]string{
			"reason": reason,
		},
		map[string]interface{}{
			"count": 1,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteAutomationFired records one trigger firing for a rule.
//
// Parameters:
//   - ruleID: Identifier of the rule whose trigger fired
func (c *Client) WriteAutomationFired(ruleID string) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"automation_fired",
		map[string]string{
			"rule_id": ruleID,
		},
		map[string]interface{}{
			"count": 1,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteInputEvent records an observed input transition.
//
// Parameters:
//   - inputID: Identifier of the binary input
//   - pressed: The new state
func (c *Client) WriteInputEvent(inputID string, pressed bool) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"input_event",
		map[string]string{
			"input_id": inputID,
		},
		map[string]interface{}{
			"pressed": pressed,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
//
// Example:
//
//	client.WritePoint("system_stats",
//	    map[string]string{"host": "quartz-01"},
//	    map[string]interface{}{"cpu_percent": 45.2, "memory_mb": 512})
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// WritePointWithTime writes a custom point with a specific timestamp.
//
// Use this when the timestamp is not "now" (e.g., delayed data).
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
