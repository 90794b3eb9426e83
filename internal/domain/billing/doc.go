// Package billing turns meter readings into a monthly electricity bill.
//
// Compute is a pure function over a reading snapshot: for each room it finds
// the month's reading and the most recent earlier one, derives usage, prices
// the building total with a tariff.Schedule and apportions the bill back to the
// rooms. Rooms missing either reading are reported as insufficient data; rooms
// whose meter went backwards are reported as invalid usage. Neither aborts the
// computation. A malformed tariff does, before any result is produced.
package billing
