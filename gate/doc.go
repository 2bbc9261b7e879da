// Package gate controls which sessions may run agent turns.
//
// Admission combines two checks: an operator-managed feature flag read from
// etcd, and an optional CEL rule evaluated over session attributes. Rules
// are compiled once at startup; flags are read fresh on every check.
package gate
