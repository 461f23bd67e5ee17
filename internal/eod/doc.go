// Package eod implements the end-of-day price Lookup Service.
//
// A lookup is an exact match on (ticker, recorded_at). The store is asked for at
// most two rows so a duplicated key surfaces as corruption instead of a guess.
package eod
