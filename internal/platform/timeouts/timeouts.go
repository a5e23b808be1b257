// Package timeouts holds the durations shared by the web process.
package timeouts

import "time"

const (
	// BackendRequest caps one HTTP round trip to the backend.
	BackendRequest = 5 * time.Second
	// ResourceLoad caps one collection load, cache read included.
	ResourceLoad = 8 * time.Second
	// RenderWait is how long a full page waits for its lists before
	// rendering the ones still loading as placeholders.
	RenderWait = 1500 * time.Millisecond

	// ReadHeader bounds how long the server waits for request headers.
	ReadHeader = 5 * time.Second
	// Shutdown bounds graceful drain of in-flight requests.
	Shutdown = 5 * time.Second
)
