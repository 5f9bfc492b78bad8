// Package entity derives typed entities from controller parameters.
//
// A Table of descriptions says which parameters become sensors, numbers,
// switches, selects or buttons, and which logical device (controller, hot
// water, heat pump) each belongs to. Build binds the table to a Source,
// normally the polling coordinator, keeping only descriptions whose
// parameter exists and whose device group is present.
//
// Entities never cache parameter values. Bounds, enum labels and
// availability are resolved against the current snapshot on every read:
//
//   - ResolveMin/ResolveMax pick a dynamic bound (sibling parameter or the
//     controller's minvDP/maxvDP pointer), then the static minv/maxv, then
//     the description fallback, then 0/100.
//   - Temperature sensors reporting 999 are unavailable.
//   - The DHW group needs parameter 61 with a real reading; the heat pump
//     group needs parameter 1133.
//
// Writes go through the Source. Numbers, switches and selects patch the
// snapshot after a successful write; buttons request a refresh instead.
package entity
