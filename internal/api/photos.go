package api

import (
	"bytes"
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/Rock-n-Donuts/infovelo-web/internal/geo"
	"github.com/Rock-n-Donuts/infovelo-web/internal/photo"
)

// PhotoUploadInput takes the raw photo bytes. The filename hints at
// the image type and the stored name.
type PhotoUploadInput struct {
	Filename    string `query:"filename" required:"true" doc:"Original file name" example:"pothole.jpg"`
	ContentType string `header:"Content-Type"`
	RawBody     []byte
}

// PhotoUploadBody reports the stored name and, when the photo carries
// EXIF GPS tags, its embedded position. Clients place the
// contribution marker there instead of asking the user.
type PhotoUploadBody struct {
	Name    string     `json:"name" doc:"Stored photo name, record it on the contribution"`
	Located bool       `json:"located" doc:"Whether the photo carried a GPS position"`
	Coords  *geo.Point `json:"coords,omitempty" doc:"EXIF GPS position, when present"`
}

// RegisterPhotos registers the photo upload route.
func (h *APIHandler) RegisterPhotos(api huma.API) {
	huma.Post(api, "/api/v1/photos", h.UploadPhoto, huma.OperationTags("photos"))
}

func (h *APIHandler) UploadPhoto(ctx context.Context, input *PhotoUploadInput) (*struct{ Body PhotoUploadBody }, error) {
	if h.svc == nil || h.svc.Photo == nil {
		return nil, huma.Error503ServiceUnavailable("photo store not available")
	}
	if len(input.RawBody) == 0 {
		return nil, huma.Error400BadRequest("empty photo")
	}

	name, err := h.svc.Photo.Save(input.Filename, input.RawBody)
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}

	body := PhotoUploadBody{Name: name}
	coords, err := photo.Coords(bytes.NewReader(input.RawBody))
	if err == nil {
		body.Located = true
		body.Coords = &coords
	} else {
		var noLoc *photo.ErrNoLocation
		if !errors.As(err, &noLoc) {
			return nil, huma.Error500InternalServerError("read photo location", err)
		}
	}
	return &struct{ Body PhotoUploadBody }{Body: body}, nil
}
