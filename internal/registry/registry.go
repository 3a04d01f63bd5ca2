package registry

import "context"

// Owner is the resolution result for a plate. Unregistered plates get a
// zero Owner with Registered false.
type Owner struct {
	Name       string `json:"name"`
	Registered bool   `json:"registered"`
}

// Gateway resolves a plate to its registration record. Implementations
// must honor the context deadline; callers treat any error as
// "unregistered" and move on.
type Gateway interface {
	Resolve(ctx context.Context, plate string) (Owner, error)
}
