// Package homeassistant exposes controller entities to Home Assistant using
// MQTT discovery.
//
// # Architecture
//
//	┌──────────────┐  HTTP  ┌─────────────┐ listener ┌──────────────┐  MQTT  ┌────────────────┐
//	│  ecoNET      │◄──────►│ coordinator │─────────►│    Bridge    │◄──────►│ Home Assistant │
//	│  controller  │        └─────────────┘          │  (this pkg)  │        └────────────────┘
//	└──────────────┘               ▲                 └──────┬───────┘
//	                               └───── entity writes ────┘
//
// # Topics
//
// Discovery configs are retained under
// <discovery_prefix>/<component>/<uid>/<key>/config. Entity state,
// availability and commands live under <topic_prefix>/<uid>/<key>/, and the
// bridge availability (also the MQTT Last Will) is <topic_prefix>/<uid>/status.
// Every entity is available only while both the bridge and its own
// availability topic report "online".
//
// # Devices
//
// The controller is one Home Assistant device. Hot water and heat pump
// entities hang off sub-devices "<uid>_dhw" and "<uid>_heatpump" linked
// with via_device.
//
// # Change detection
//
// The bridge remembers the last payload sent per topic and publishes only
// differences. Home Assistant's birth message clears the cache and
// republishes everything.
package homeassistant
