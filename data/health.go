package data

import (
	"context"
	"time"
)

// Health reports the state of every configured store.
func (d *Data) Health(ctx context.Context) map[string]any {
	services := map[string]any{}
	healthy := true

	d.mu.RLock()
	db, client := d.db, d.mongo
	d.mu.RUnlock()

	if db != nil {
		start := time.Now()
		err := db.PingContext(ctx)
		services["database"] = serviceHealth(d.dbDriver, start, err)
		healthy = healthy && err == nil
	}

	if client != nil {
		start := time.Now()
		err := client.Ping(ctx, nil)
		services["mongodb"] = serviceHealth("mongodb", start, err)
		healthy = healthy && err == nil
	}

	status := "healthy"
	if !healthy {
		status = "degraded"
	}
	return map[string]any{
		"status":    status,
		"timestamp": time.Now(),
		"services":  services,
	}
}

func serviceHealth(driver string, start time.Time, err error) map[string]any {
	return map[string]any{
		"driver":      driver,
		"healthy":     err == nil,
		"response_ms": time.Since(start).Milliseconds(),
		"error":       getErrorString(err),
	}
}

func getErrorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
