package adapters

import "fmt"

var (
	ErrSensorNotInitialized = fmt.Errorf("sensor not initialized")
	ErrClockNotSynced       = fmt.Errorf("clock not synced")
	ErrLinkDown             = fmt.Errorf("network link down")
	ErrLineClosed           = fmt.Errorf("line closed")
)
