// Package policy defines the versioned deal-routing policy configuration:
// default thresholds, per-segment overrides, rule weights, the escalation
// order, and priority cutoffs.
//
// A Config is an immutable snapshot. It is validated exactly once, when it
// is loaded or overlaid, so the per-deal evaluation path never fails on
// configuration grounds. Hot reload swaps a complete new snapshot into the
// Store; callers always observe either the prior or the next config, never
// a partially updated one.
package policy
