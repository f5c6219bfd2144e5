package deliver

import "errors"

// ErrDeliveryPanic marks a destination result whose send goroutine panicked.
var ErrDeliveryPanic = errors.New("delivery panicked")
