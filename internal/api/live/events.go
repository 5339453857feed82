// Package live pushes data-change notifications to connected map
// clients over SSE. Clients refetch the snapshot on notification
// instead of polling on a timer.
package live

import (
	"context"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/Rock-n-Donuts/infovelo-web/internal/service"
	"github.com/Rock-n-Donuts/infovelo-web/internal/templates"
)

// EventHandler streams resource change events from the service bus.
type EventHandler struct {
	bus      *service.EventBus
	snapshot *service.SnapshotService
	renderer *templates.Renderer
}

// NewEventHandler creates an event handler over the given bus. The
// renderer is optional; without it only signals are pushed.
func NewEventHandler(bus *service.EventBus, snapshot *service.SnapshotService, renderer *templates.Renderer) *EventHandler {
	return &EventHandler{bus: bus, snapshot: snapshot, renderer: renderer}
}

func (h *EventHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/events", h.Events,
		huma.OperationTags("map"),
	)
}

func (h *EventHandler) Events(ctx context.Context, input *struct{}) (*huma.StreamResponse, error) {
	return &huma.StreamResponse{
		Body: func(humaCtx huma.Context) {
			r, w := humago.Unwrap(humaCtx)
			sse := datastar.NewSSE(w, r)

			ch := h.bus.Subscribe()
			defer h.bus.Unsubscribe(ch)

			for {
				select {
				case <-ctx.Done():
					return
				case ev := <-ch:
					// The client reacts by refetching /api/v1/map with
					// its last snapshot date.
					sse.MarshalAndPatchSignals(map[string]any{
						"dataStale": true,
					})
					if ev.Resource == "contributions" {
						h.patchFeed(ctx, sse)
					}
					sse.DispatchCustomEvent("data-changed", map[string]any{
						"resource": ev.Resource,
						"action":   ev.Action,
						"id":       ev.ID,
					})
				}
			}
		},
	}, nil
}

// patchFeed re-renders the contribution feed fragment and replaces it
// in place on connected clients.
func (h *EventHandler) patchFeed(ctx context.Context, sse *datastar.ServerSentEventGenerator) {
	if h.renderer == nil || h.snapshot == nil {
		return
	}
	snap, err := h.snapshot.Snapshot(ctx, time.Time{})
	if err != nil {
		return
	}
	html, err := h.renderer.Render("contribution-feed", snap.Contributions)
	if err != nil {
		return
	}
	sse.PatchElements(html,
		datastar.WithSelector("#contribution-feed"),
		datastar.WithModeInner(),
	)
}
