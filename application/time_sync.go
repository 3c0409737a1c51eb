package application

import "time"

type TimeSync interface {
	// Update refreshes the clock when its update interval has elapsed.
	Update() error
	ForceUpdate() error
	Now() time.Time
}
