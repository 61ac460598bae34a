package problem

import "github.com/criyle/ts-judge/types"

// Catalog provides read-only access to problems loaded once at startup
type Catalog interface {
	// Get returns the problem with the id
	Get(id string) (types.Problem, bool)
	// All returns problems in catalog order
	All() []types.Problem
	// Adjacent returns ids of the previous and next problem in catalog
	// order, empty at either end
	Adjacent(id string) (prev, next string)
}
