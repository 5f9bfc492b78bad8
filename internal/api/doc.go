// Package api implements the local HTTP REST API and WebSocket server.
//
// This package provides:
//   - Read access to the controller identity, the raw parameter snapshot
//     and the derived entities
//   - Raw parameter writes and entity commands
//   - A WebSocket hub relaying coordinator updates to subscribed clients
//   - The Prometheus endpoint and a health summary
//   - Middleware stack (request ID, logging, recovery, CORS, body limit)
//
// # Routes
//
//	GET  /api/v1/health
//	GET  /api/v1/metrics
//	GET  /api/v1/device
//	POST /api/v1/refresh
//	GET  /api/v1/params
//	GET  /api/v1/params/{id}
//	PUT  /api/v1/params/{id}             {"value": 24}
//	GET  /api/v1/entities[?device=dhw]
//	GET  /api/v1/entities/{key}
//	POST /api/v1/entities/{key}/command  {"payload": "ON"}
//	GET  /api/v1/controllers
//	GET  /api/v1/ws
//
// # WebSocket
//
// Clients send {"type":"subscribe","payload":{"channels":[...]}} for
// "snapshot.updated" and "entity.state_changed" and receive "event"
// messages on those channels.
//
// The API has no authentication; bind it to a trusted interface.
package api
