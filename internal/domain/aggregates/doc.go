// Package aggregates defines the write boundaries of the pipelines domain.
//
// A contract here names which entities must change together and which error
// codes callers can branch on. Persistence lives in internal/data/aggregates.
package aggregates
