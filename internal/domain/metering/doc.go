// Package metering holds the electric meter bounded context.
//
// A MeterReading is the cumulative meter value recorded for one room in one
// calendar month. Readings are unique per (room, month); recording the same key
// again is a correction that overwrites the value.
//
// Usage for a month is the difference between the month's reading and the most
// recent reading strictly before it. A decreasing meter (replacement, rollover,
// miskeyed value) yields negative usage, reported as ErrInvalidUsage and never
// clamped.
package metering
