package telemetry

import (
	"context"

	"loftbase/identity/internal/telemetry/domain"
)

// EventEmitter emits auth events (e.g. to Kafka or OTel Logs). Best-effort;
// callers log and ignore errors.
type EventEmitter interface {
	Emit(ctx context.Context, event *domain.Event) error
}
