package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/quartzhome/quartz-core/internal/entity"
	"github.com/quartzhome/quartz-core/internal/infrastructure/config"
	"github.com/quartzhome/quartz-core/internal/infrastructure/influxdb"
	"github.com/quartzhome/quartz-core/internal/infrastructure/logging"
	"github.com/quartzhome/quartz-core/internal/infrastructure/mqtt"
	"github.com/quartzhome/quartz-core/internal/rules"
)

// resolverAdapter exposes the entity registry through the rules package's
// resolver interface. The registry returns concrete entity types; the runtime
// wants narrow behavioral handles.
type resolverAdapter struct {
	registry *entity.Registry
}

// BinaryInput implements rules.Resolver.
func (a resolverAdapter) BinaryInput(id string) (rules.BinaryInput, bool) {
	in, ok := a.registry.BinaryInput(id)
	if !ok {
		return nil, false
	}
	return in, true
}

// Switch implements rules.Resolver.
func (a resolverAdapter) Switch(id string) (rules.Switch, bool) {
	sw, ok := a.registry.Switch(id)
	if !ok {
		return nil, false
	}
	return sw, true
}

// Light implements rules.Resolver.
func (a resolverAdapter) Light(id string) (rules.Light, bool) {
	l, ok := a.registry.Light(id)
	if !ok {
		return nil, false
	}
	return l, true
}

// mqttCommandSink publishes entity commands to the protocol bridge over MQTT.
type mqttCommandSink struct {
	client *mqtt.Client
	qos    byte
}

// Send implements entity.CommandSink.
func (s *mqttCommandSink) Send(cmd entity.Command) error {
	payload, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("encoding command: %w", err)
	}

	topic := mqtt.Topics{}.Command(string(cmd.Kind), cmd.EntityID)
	if err := s.client.Publish(topic, payload, s.qos, false); err != nil {
		return fmt.Errorf("publishing command: %w", err)
	}
	return nil
}

// inputEventPayload is the wire shape of a bridge-reported input state.
type inputEventPayload struct {
	Pressed bool `json:"pressed"`
}

// rulesStatusPayload is published on the rules status topic after every load
// attempt, retained so late subscribers see the last outcome.
type rulesStatusPayload struct {
	Status    string `json:"status"` // "loaded" or "error"
	Rules     int    `json:"rules,omitempty"`
	Bytes     int    `json:"bytes,omitempty"`
	Units     int    `json:"units,omitempty"`
	Reason    string `json:"reason,omitempty"`
	Timestamp string `json:"timestamp"`
}

// firedPayload announces one automation execution.
type firedPayload struct {
	RuleID    string `json:"rule_id"`
	Timestamp string `json:"timestamp"`
}

// wireTelemetry attaches the load lifecycle and firing hooks to MQTT and
// InfluxDB. Either client may be nil; hooks degrade to logging only.
func wireTelemetry(svc *rules.Service, mqttClient *mqtt.Client, influxClient *influxdb.Client, cfg *config.Config, log *logging.Logger) {
	topics := mqtt.Topics{}
	qos := byte(cfg.MQTT.QoS)

	svc.Runtime().SetOnFired(func(ruleID string) {
		log.Info("automation fired", "rule_id", ruleID)
		if influxClient != nil {
			influxClient.WriteAutomationFired(ruleID)
		}
		if mqttClient != nil {
			payload, _ := json.Marshal(firedPayload{
				RuleID:    ruleID,
				Timestamp: time.Now().UTC().Format(time.RFC3339),
			})
			if err := mqttClient.Publish(topics.AutomationFired(ruleID), payload, qos, false); err != nil {
				log.Warn("publishing fired event failed", "rule_id", ruleID, "error", err)
			}
		}
	})

	svc.Hub().OnLoaded(func(ev rules.LoadedEvent) {
		if influxClient != nil {
			influxClient.WriteRulesLoaded(ev.Rules, ev.Bytes)
		}
		if mqttClient != nil {
			publishRulesStatus(mqttClient, qos, rulesStatusPayload{
				Status:    "loaded",
				Rules:     ev.Rules,
				Bytes:     ev.Bytes,
				Units:     svc.UnitCount(),
				Timestamp: time.Now().UTC().Format(time.RFC3339),
			}, log)
		}
	})

	svc.Hub().OnError(func(reason string) {
		if influxClient != nil {
			influxClient.WriteRulesError(reason)
		}
		if mqttClient != nil {
			publishRulesStatus(mqttClient, qos, rulesStatusPayload{
				Status:    "error",
				Reason:    reason,
				Timestamp: time.Now().UTC().Format(time.RFC3339),
			}, log)
		}
	})
}

func publishRulesStatus(client *mqtt.Client, qos byte, status rulesStatusPayload, log *logging.Logger) {
	payload, err := json.Marshal(status)
	if err != nil {
		log.Error("encoding rules status failed", "error", err)
		return
	}
	if err := client.Publish(mqtt.Topics{}.RulesStatus(), payload, qos, true); err != nil {
		log.Warn("publishing rules status failed", "error", err)
	}
}

// subscribeBridge wires the inbound broker topics: input state events from
// the protocol bridge and rule document updates from provisioning tools.
func subscribeBridge(client *mqtt.Client, registry *entity.Registry, svc *rules.Service, influxClient *influxdb.Client, cfg *config.Config, log *logging.Logger) error {
	topics := mqtt.Topics{}
	qos := byte(cfg.MQTT.QoS)

	err := client.Subscribe(topics.AllInputEvents(), qos, func(topic string, payload []byte) error {
		inputID := topic[strings.LastIndexByte(topic, '/')+1:]
		if inputID == "" {
			return fmt.Errorf("input event with empty identifier: %q", topic)
		}

		var ev inputEventPayload
		if err := json.Unmarshal(payload, &ev); err != nil {
			return fmt.Errorf("decoding input event for %q: %w", inputID, err)
		}

		registry.ApplyInputState(inputID, ev.Pressed)
		if influxClient != nil {
			influxClient.WriteInputEvent(inputID, ev.Pressed)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("subscribing to input events: %w", err)
	}

	err = client.Subscribe(topics.RulesSet(), qos, func(_ string, payload []byte) error {
		log.Info("rule document received over MQTT", "bytes", len(payload))
		if reloadErr := svc.ReloadFromDocument(context.Background(), payload); reloadErr != nil {
			// The error event has already fired; the previous set stays live.
			return reloadErr
		}
		if persistErr := svc.Persist(context.Background()); persistErr != nil {
			return persistErr
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("subscribing to rule documents: %w", err)
	}

	log.Info("broker subscriptions established",
		"input_events", topics.AllInputEvents(),
		"rules_set", topics.RulesSet(),
	)
	return nil
}
