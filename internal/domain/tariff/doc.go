// Package tariff implements progressive (tiered) electricity pricing and the
// apportioning of a building-wide bill across rooms.
//
// A Schedule is an ordered list of tiers. Each tier prices the units between
// the previous tier's upper bound and its own; the last tier is unbounded.
// Schedules are validated on construction and never silently repaired.
//
// Apportion distributes a bill proportionally to usage with largest-remainder
// rounding, so the per-room amounts always add up to the bill.
package tariff
