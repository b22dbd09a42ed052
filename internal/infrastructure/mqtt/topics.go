package mqtt

import "fmt"

// Topic prefixes for the Quartz MQTT hierarchy.
//
// All topics live under a single root: quartz/{category}/...
const (
	// TopicPrefix is the root of all Quartz topics.
	TopicPrefix = "quartz"

	// TopicPrefixSystem is the base for system lifecycle topics.
	TopicPrefixSystem = "quartz/system"

	// TopicPrefixRules is the base for automation rule document topics.
	TopicPrefixRules = "quartz/rules"
)

// Topics provides builders for Quartz MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	cmdTopic := topics.Command("switch", "relay-1")
//	// Returns: "quartz/command/switch/relay-1"
type Topics struct{}

// InputEvent returns the topic a bridge publishes input state on.
//
// Example: quartz/event/input/wall-button-1
func (Topics) InputEvent(inputID string) string {
	return fmt.Sprintf("%s/event/input/%s", TopicPrefix, inputID)
}

// AllInputEvents returns a pattern matching every input event.
//
// Pattern: quartz/event/input/+
func (Topics) AllInputEvents() string {
	return fmt.Sprintf("%s/event/input/+", TopicPrefix)
}

// Command returns the topic outbound entity commands are published on.
//
// Example: quartz/command/light/hall-lamp
func (Topics) Command(kind, entityID string) string {
	return fmt.Sprintf("%s/command/%s/%s", TopicPrefix, kind, entityID)
}

// AllCommands returns a pattern matching every outbound command.
//
// Pattern: quartz/command/+/+
func (Topics) AllCommands() string {
	return fmt.Sprintf("%s/command/+/+", TopicPrefix)
}

// RulesSet returns the topic a new rule document is received on.
//
// Example: quartz/rules/set
func (Topics) RulesSet() string {
	return fmt.Sprintf("%s/set", TopicPrefixRules)
}

// RulesStatus returns the topic rule load results are reported on.
//
// Example: quartz/rules/status
func (Topics) RulesStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixRules)
}

// AutomationFired returns the topic announcing that a rule's actions ran.
//
// Example: quartz/automation/night-light/fired
func (Topics) AutomationFired(ruleID string) string {
	return fmt.Sprintf("%s/automation/%s/fired", TopicPrefix, ruleID)
}

// SystemStatus returns the system status topic, also used for the LWT.
//
// Example: quartz/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// AllTopics returns a pattern matching all Quartz topics.
// Use with caution - this receives ALL traffic.
//
// Pattern: quartz/#
func (Topics) AllTopics() string {
	return "quartz/#"
}
