package aggregates

import "slices"

// Contract names the tables an aggregate writes in one transaction and the
// tables it reaches afterwards, row by row, outside that transaction.
type Contract struct {
	Name     string
	Tables   []string
	Cascades []string
}

// Aggregate is implemented by every write boundary.
type Aggregate interface {
	Contract() Contract
}

// Atomic reports whether table is written inside the aggregate transaction.
func (c Contract) Atomic(table string) bool {
	return slices.Contains(c.Tables, table)
}

// CascadesTo reports whether table is touched after commit.
func (c Contract) CascadesTo(table string) bool {
	return slices.Contains(c.Cascades, table)
}
