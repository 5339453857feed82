// Package api defines the Huma API routes and handlers.
package api

import (
	"context"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/Rock-n-Donuts/infovelo-web/internal/mapview"
	"github.com/Rock-n-Donuts/infovelo-web/internal/service"
)

// Services holds the service dependencies for API handlers.
type Services struct {
	Segment      *service.SegmentService
	Contribution *service.ContributionService
	Snapshot     *service.SnapshotService
	Photo        *service.PhotoService
}

// Types

type IDInput struct {
	ID string `path:"id" doc:"Segment ID" example:"rachel_est"`
}

type SegmentOutput struct {
	Body service.Segment
}

type SegmentsOutput struct {
	Body []service.Segment
}

type MessageBody struct {
	Message string `json:"message" doc:"Result message"`
}

type HealthBody struct {
	Status  string `json:"status" doc:"Health status" example:"ok"`
	Version string `json:"version" doc:"API version" example:"1.0.0"`
}

// MapBody is one poll of the map data: the raw records plus the
// render-ready groups the map engine consumes directly.
type MapBody struct {
	Date          time.Time              `json:"date" doc:"Server time, echo back as the next since"`
	Segments      []service.Segment      `json:"segments" doc:"Trail segment inventory"`
	Contributions []service.Contribution `json:"contributions" doc:"Contributions newer than since"`
	Lines         []mapview.LineGroup    `json:"lines" doc:"Render-ready segment line groups"`
	Markers       []mapview.MarkerGroup  `json:"markers" doc:"Render-ready contribution marker groups"`
}

// APIHandler holds all REST API handlers. Methods named Register* are
// auto-discovered by huma.AutoRegister.
type APIHandler struct {
	svc *Services
}

func NewAPIHandler(svc *Services) *APIHandler {
	return &APIHandler{svc: svc}
}

// RegisterRoutes wires the full API surface onto a Huma API.
func RegisterRoutes(api huma.API, svc *Services) {
	huma.AutoRegister(api, NewAPIHandler(svc))
}

// RegisterHealth registers health check routes.
func (h *APIHandler) RegisterHealth(api huma.API) {
	huma.Get(api, "/health", h.GetHealth, huma.OperationTags("health"))
}

// RegisterMap registers the map snapshot route.
func (h *APIHandler) RegisterMap(api huma.API) {
	huma.Get(api, "/api/v1/map", h.GetMap, huma.OperationTags("map"))
}

// RegisterSegments registers segment CRUD routes.
func (h *APIHandler) RegisterSegments(api huma.API) {
	huma.Get(api, "/api/v1/segments", h.GetSegments, huma.OperationTags("segments"))
	huma.Post(api, "/api/v1/segments", h.CreateSegment, huma.OperationTags("segments"))
	huma.Get(api, "/api/v1/segments/{id}", h.GetSegment, huma.OperationTags("segments"))
	huma.Put(api, "/api/v1/segments/{id}", h.PutSegment, huma.OperationTags("segments"))
	huma.Put(api, "/api/v1/segments/{id}/status", h.PutSegmentStatus, huma.OperationTags("segments"))
	huma.Delete(api, "/api/v1/segments/{id}", h.DeleteSegment, huma.OperationTags("segments"))
}

// RegisterContributions registers contribution routes.
func (h *APIHandler) RegisterContributions(api huma.API) {
	huma.Get(api, "/api/v1/contributions", h.GetContributions, huma.OperationTags("contributions"))
	huma.Post(api, "/api/v1/contributions", h.CreateContribution, huma.OperationTags("contributions"))
}

// Handlers

func (h *APIHandler) GetHealth(ctx context.Context, input *struct{}) (*struct{ Body HealthBody }, error) {
	return &struct{ Body HealthBody }{Body: HealthBody{Status: "ok", Version: "1.0.0"}}, nil
}

type MapInput struct {
	Since time.Time `query:"since" doc:"Return contributions newer than this time" required:"false"`
}

func (h *APIHandler) GetMap(ctx context.Context, input *MapInput) (*struct{ Body MapBody }, error) {
	if h.svc == nil || h.svc.Snapshot == nil {
		return nil, huma.Error503ServiceUnavailable("snapshot service not available")
	}
	snap, err := h.svc.Snapshot.Snapshot(ctx, input.Since)
	if err != nil {
		return nil, huma.Error500InternalServerError("assemble snapshot", err)
	}
	lines, markers := service.MapGroups(snap.Segments, snap.Contributions)
	return &struct{ Body MapBody }{Body: MapBody{
		Date:          snap.Date,
		Segments:      snap.Segments,
		Contributions: snap.Contributions,
		Lines:         lines,
		Markers:       markers,
	}}, nil
}

func (h *APIHandler) GetSegments(ctx context.Context, input *struct{}) (*SegmentsOutput, error) {
	if h.svc == nil || h.svc.Segment == nil {
		return &SegmentsOutput{Body: []service.Segment{}}, nil
	}
	return &SegmentsOutput{Body: h.svc.Segment.List()}, nil
}

func (h *APIHandler) GetSegment(ctx context.Context, input *IDInput) (*SegmentOutput, error) {
	if h.svc == nil || h.svc.Segment == nil {
		return nil, huma.Error404NotFound("service not available")
	}
	seg, ok := h.svc.Segment.Get(input.ID)
	if !ok {
		return nil, huma.Error404NotFound("segment not found")
	}
	return &SegmentOutput{Body: seg}, nil
}

func (h *APIHandler) CreateSegment(ctx context.Context, input *struct{ Body service.Segment }) (*SegmentOutput, error) {
	if h.svc == nil || h.svc.Segment == nil {
		return nil, huma.Error400BadRequest("service not available")
	}
	created, err := h.svc.Segment.Create(input.Body)
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}
	return &SegmentOutput{Body: created}, nil
}

func (h *APIHandler) PutSegment(ctx context.Context, input *struct {
	IDInput
	Body service.Segment
}) (*SegmentOutput, error) {
	if h.svc == nil || h.svc.Segment == nil {
		return nil, huma.Error400BadRequest("service not available")
	}
	updated, err := h.svc.Segment.Update(input.ID, input.Body)
	if err != nil {
		return nil, huma.Error404NotFound(err.Error())
	}
	return &SegmentOutput{Body: updated}, nil
}

type StatusInput struct {
	IDInput
	Body struct {
		Status string `json:"status" required:"true" enum:"cleared,snowy,icy,unknown" doc:"New surface status"`
	}
}

func (h *APIHandler) PutSegmentStatus(ctx context.Context, input *StatusInput) (*SegmentOutput, error) {
	if h.svc == nil || h.svc.Segment == nil {
		return nil, huma.Error400BadRequest("service not available")
	}
	updated, err := h.svc.Segment.SetStatus(input.ID, input.Body.Status)
	if err != nil {
		return nil, huma.Error404NotFound(err.Error())
	}
	return &SegmentOutput{Body: updated}, nil
}

func (h *APIHandler) DeleteSegment(ctx context.Context, input *IDInput) (*struct{ Body MessageBody }, error) {
	if h.svc == nil || h.svc.Segment == nil {
		return nil, huma.Error400BadRequest("service not available")
	}
	if err := h.svc.Segment.Delete(input.ID); err != nil {
		return nil, huma.Error404NotFound(err.Error())
	}
	return &struct{ Body MessageBody }{Body: MessageBody{Message: "Segment deleted"}}, nil
}

type ContributionsInput struct {
	Since time.Time `query:"since" doc:"Return contributions newer than this time" required:"false"`
}

func (h *APIHandler) GetContributions(ctx context.Context, input *ContributionsInput) (*struct {
	Body []service.Contribution
}, error) {
	if h.svc == nil || h.svc.Contribution == nil {
		return nil, huma.Error503ServiceUnavailable("contribution store not available")
	}
	out, err := h.svc.Contribution.ListSince(ctx, input.Since)
	if err != nil {
		return nil, huma.Error500InternalServerError("list contributions", err)
	}
	if out == nil {
		out = []service.Contribution{}
	}
	return &struct{ Body []service.Contribution }{Body: out}, nil
}

func (h *APIHandler) CreateContribution(ctx context.Context, input *struct {
	Body service.Contribution
}) (*struct{ Body service.Contribution }, error) {
	if h.svc == nil || h.svc.Contribution == nil {
		return nil, huma.Error503ServiceUnavailable("contribution store not available")
	}
	created, err := h.svc.Contribution.Add(ctx, input.Body)
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}
	return &struct{ Body service.Contribution }{Body: created}, nil
}
