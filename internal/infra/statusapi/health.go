package statusapi

import "time"

// healthResponse is the body returned by GET /health. Grounded on
// health.go's liveness/readiness split, trimmed to the single signal a
// standalone control-core process can usefully report: how long it has
// been up. The status is always "healthy"; the event loop and driver
// connection are not checked.
type healthResponse struct {
	Status    string  `json:"status"`
	UptimeSec float64 `json:"uptime_seconds"`
}

func newHealthResponse(startedAt time.Time) healthResponse {
	return healthResponse{
		Status:    "healthy",
		UptimeSec: time.Since(startedAt).Seconds(),
	}
}
