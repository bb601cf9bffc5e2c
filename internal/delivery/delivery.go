// Package delivery defines the contract every transport entry point implements.
package delivery

import "context"

// Delivery is a serving surface (HTTP today) started by the
// composition root and stopped through its lifecycle hooks.
type Delivery interface {
	Serve(ctx context.Context) error
}
