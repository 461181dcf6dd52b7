package ws

import (
	"context"
	"time"

	"github.com/google/uuid"

	"chat-backend/internal/observability"
)

func newConnID() string {
	return uuid.NewString()
}

func publishWSEvent(ctx context.Context, name string, info ConnInfo, reason string) {
	observability.IncWSEvent(name)
	payload := map[string]interface{}{
		"ws": map[string]interface{}{
			"event":       name,
			"conn_id":     info.ConnID,
			"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
			"reason":      reason,
		},
		"identity": map[string]interface{}{
			"user_id":   info.UserID,
			"device_id": info.DeviceID,
			"ip":        info.IP,
		},
	}
	_ = observability.PublishEvent(ctx, observability.RoutingKeyWSEvents,
		observability.NewEnvelope("ws_events", name, payload),
		observability.BuildHeaders(info.RequestID, info.TraceID))
}
