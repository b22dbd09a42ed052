// Package entity provides the live hardware entity registry for Quartz Core.
//
// Entities are the hardware-backed objects automations observe and act on:
// binary inputs (buttons, contacts), switches, and lights. Each is
// registered under a stable string identifier and addressable by the FNV-1
// object key of that identifier.
//
// Input state arrives from protocol bridges via Registry.ApplyInputState and
// fans out to watchers as press/release transitions. Switch and light
// operations update locally tracked state and forward a Command to the
// injected CommandSink (MQTT in production, a capture fake in tests).
//
// The registry exclusively owns its entities. Automations hold borrowed
// references; the registry must outlive every automation referencing them,
// which the wiring in cmd/quartz guarantees by tearing the runtime down
// first.
package entity
