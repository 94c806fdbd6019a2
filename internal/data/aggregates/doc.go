// Package aggregates implements the write boundaries declared in
// internal/domain/aggregates over gorm.
//
// Every write runs through executeWrite, which opens the transaction via a
// TxRunner, maps driver errors to aggregate codes, records a span and reports
// to Hooks. Repos and the attribute registry only ever see the caller's Tx.
package aggregates
