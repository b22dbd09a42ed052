// Package mqtt provides MQTT client connectivity for Quartz Core.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// Quartz uses MQTT as the message bus connecting the runtime to hardware
// bridges. Input state arrives on quartz/event/input/+, entity commands go
// out on quartz/command/{kind}/{id}, and rule documents are received on
// quartz/rules/set. The broker decouples the runtime from protocol-specific
// implementations.
//
//	Quartz Core ↔ MQTT Broker ↔ Hardware Bridges
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Subscribe to all input events
//	err = client.Subscribe(mqtt.Topics{}.AllInputEvents(), 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("Received: %s = %s", topic, payload)
//	        return nil
//	    })
//
//	// Publish command
//	topic := mqtt.Topics{}.Command("switch", "relay-1")
//	client.Publish(topic, []byte(`{"on":true}`), 1, false)
package mqtt
