// Package controller keeps the registry of paired ecoNET controllers.
//
// Pairing checks a host with the wire client's connection test, refuses a
// controller whose UID is already registered, and stores the result in the
// controllers table. The service touches the record after every successful
// refresh so last_seen_at tracks the last good poll.
//
// # Layers
//
//   - Repository: persistence interface, with SQLiteRepository as the
//     production implementation.
//   - Registry: thread-safe in-memory cache in front of a Repository.
//   - Pair: the pairing flow, returning a *PairError with a stable Reason
//     code on failure.
package controller
