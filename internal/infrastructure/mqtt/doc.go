// Package mqtt wraps paho for the Home Assistant side of the bridge.
//
// A Client tracks its subscriptions and re-issues them after paho
// reconnects. It also owns one retained status topic, which is the Last Will
// while connected and is set to offline on Close. Topics builds the
// econext/<uid>/... topic tree.
//
// The bridge reaches Home Assistant only through the broker:
//
//	ecoNET controller ⇄ HTTP ⇄ bridge ⇄ MQTT broker ⇄ Home Assistant
//
// # Usage
//
//	topics := mqtt.NewTopics(cfg.HomeAssistant.TopicPrefix, uid)
//	client, err := mqtt.Connect(cfg.MQTT, mqtt.Availability{
//	    Topic:   topics.BridgeStatus(),
//	    Online:  mqtt.PayloadOnline,
//	    Offline: mqtt.PayloadOffline,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	err = client.Subscribe(topics.AllCommands(), 1,
//	    func(topic string, payload []byte) error {
//	        key, _ := topics.CommandKey(topic)
//	        log.Printf("set %s = %s", key, payload)
//	        return nil
//	    })
package mqtt
