// Package delivery defines the contract every transport front end
// implements, so main can start them uniformly.
package delivery

import "context"

// Delivery is a transport front end such as an HTTP server.
type Delivery interface {
	// Serve blocks until the delivery stops or fails.
	Serve(ctx context.Context) error
}
