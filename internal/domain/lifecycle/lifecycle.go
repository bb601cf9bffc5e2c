// Package lifecycle holds shared timeouts for application start and stop.
package lifecycle

import "time"

// DefaultTimeout bounds lifecycle hook operations such as database
// pings and graceful shutdown.
const DefaultTimeout = 10 * time.Second
