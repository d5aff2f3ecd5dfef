package rest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/frahmantamala/bizanalytics/internal"
	"github.com/frahmantamala/bizanalytics/internal/company"
	"github.com/frahmantamala/bizanalytics/internal/core/events"
	"github.com/frahmantamala/bizanalytics/internal/transport"
	"github.com/frahmantamala/bizanalytics/pkg/logger"
)

type EventSource interface {
	SubscribeChan(topic string, buffer int) (<-chan events.Event, func())
	SubscriberCount(topic string) int
}

// EventStreamHandler relays a company's broadcast topic as server-sent events.
type EventStreamHandler struct {
	*transport.BaseHandler
	source    EventSource
	heartbeat time.Duration
	buffer    int
}

func NewEventStreamHandler(base *transport.BaseHandler, source EventSource) *EventStreamHandler {
	return &EventStreamHandler{BaseHandler: base, source: source, heartbeat: 25 * time.Second, buffer: 32}
}

// Stream handles GET /companies/{companyId}/events
func (h *EventStreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	c, ok := company.FromContext(r.Context())
	if !ok {
		h.HandleServiceError(w, r, internal.ErrCompanyNotFound)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		h.HandleServiceError(w, r, internal.NewInternalError("streaming unsupported", nil))
		return
	}

	// the server write timeout would otherwise end long-lived streams
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	topic := events.CompanyTopic(c.ID)
	ch, unsubscribe := h.source.SubscribeChan(topic, h.buffer)
	defer unsubscribe()
	lg := logger.From(r.Context())
	lg.Debug("event stream opened", "topic", topic, "subscribers", h.source.SubscriberCount(topic))
	defer lg.Debug("event stream closed", "topic", topic)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case evt, open := <-ch:
			if !open {
				return
			}
			data, err := json.Marshal(evt.Payload())
			if err != nil {
				h.Logger.Warn("Stream: failed to encode event", "event_type", evt.EventType(), "error", err)
				continue
			}
			fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", evt.EventID(), evt.EventType(), data)
			flusher.Flush()
		}
	}
}
