package application

import "context"

type Link interface {
	// Connect blocks until the network link is usable or ctx is done.
	Connect(ctx context.Context) error
	Connected() bool
	LocalAddress() string
	Hostname() string
}
