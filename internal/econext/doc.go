// Package econext is the client for the local HTTP API of ecoNET Next /
// ecoNEXT heating controllers.
//
// The controller exposes two endpoints, both plain GET with HTTP Basic auth:
//
//	/econet/allParams   full parameter snapshot
//	/econet/newParam    write one parameter (newParamIndex|newParamName, newParamValue)
//
// Every error returned by a Client call wraps ErrAPI and exactly one of
// ErrAuthRejected, ErrUnexpectedStatus, ErrConnectionFailed or
// ErrMalformedPayload. The client does not retry.
//
// Usage:
//
//	client, err := econext.NewClient(econext.Config{Host: "192.168.1.50", Username: "admin", Password: pw})
//	snap, err := client.FetchAll(ctx)
//	v, ok := snap.Value("68")
package econext
