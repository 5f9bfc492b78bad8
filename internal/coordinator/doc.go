// Package coordinator polls one ecoNET controller and holds its last-known
// parameter snapshot.
//
// Entities, the Home Assistant bridge, the API and metrics all read from
// the coordinator; none of them talk to the controller for reads. Writes go
// through Set, after which the caller either patches the snapshot
// optimistically (Patch) or asks for a refresh (RequestRefresh).
//
// Refresh failures never discard data: the previous snapshot stays in
// place and LastUpdateSuccess reports false until the next good fetch.
package coordinator
