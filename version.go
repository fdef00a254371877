// Package roost compiles YAML route definitions into a route snapshot and
// loads them into a routing table.
package roost

// Version is the current roost release.
const Version = "0.1.0"
