package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"lintang/bmssp/pkg/engine/aggregator"
	"lintang/bmssp/pkg/engine/routingalgorithm"
	"lintang/bmssp/pkg/geo"
	"lintang/bmssp/pkg/server"
	"lintang/bmssp/pkg/server/rest/service"
	"lintang/bmssp/pkg/util"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
)

type SSSPService interface {
	Distances(ctx context.Context, q service.DistanceQuery) (service.DistanceResult, error)
	GraphInfo() (service.GraphInfo, error)
}

type SSSPHandler struct {
	svc SSSPService
}

func SSSPRouter(r chi.Router, svc SSSPService) {
	handler := &SSSPHandler{svc}

	r.Group(func(r chi.Router) {
		r.Route("/api/sssp", func(r chi.Router) {
			r.Post("/distances", handler.Distances)
			r.Get("/graph", handler.Graph)
		})
	})
}

// DistancesRequest request body single source shortest path. source vertex atau lat/lon.
type DistancesRequest struct {
	Source             *int32   `json:"source" validate:"required_without_all=Lat Lon,omitempty,gte=0"`
	Lat                *float64 `json:"lat" validate:"required_without=Source,omitempty,lt=90,gt=-90"`
	Lon                *float64 `json:"lon" validate:"required_without=Source,omitempty,lt=180,gt=-180"`
	Algorithm          string   `json:"algorithm" validate:"omitempty,oneof=dijkstra bmssp"`
	IncludeUnreachable bool     `json:"include_unreachable"`
	Order              string   `json:"order" validate:"omitempty,oneof=vertex distance"`
	Limit              int      `json:"limit" validate:"gte=0"`
}

func (s *DistancesRequest) Bind(r *http.Request) error {
	if s.Source == nil && (s.Lat == nil) != (s.Lon == nil) {
		return errors.New("lat and lon must be given together")
	}
	return nil
}

// DistanceRecord distance_m null untuk vertex yang tidak reachable.
type DistanceRecord struct {
	Vertex   int32    `json:"vertex"`
	NodeID   int64    `json:"node_id"`
	Distance *float64 `json:"distance_m"`
}

type SummaryResponse struct {
	NodeCount      int     `json:"node_count"`
	ReachableCount int     `json:"reachable_count"`
	MaxDistance    float64 `json:"max_distance_m"`
}

type DistancesResponse struct {
	Algorithm     string           `json:"algorithm"`
	Source        int32            `json:"source"`
	SourceNodeID  int64            `json:"source_node_id"`
	SnapDistance  float64          `json:"snap_distance_m,omitempty"`
	Cached        bool             `json:"cached"`
	Relaxations   int64            `json:"relaxations"`
	DurationMilli float64          `json:"duration_ms"`
	Summary       SummaryResponse  `json:"summary"`
	Distances     []DistanceRecord `json:"distances"`
}

func NewDistancesResponse(res service.DistanceResult) *DistancesResponse {
	records := make([]DistanceRecord, 0, len(res.Records))
	for _, rec := range res.Records {
		dr := DistanceRecord{Vertex: rec.VertexID, NodeID: rec.NodeID}
		if rec.Reached() {
			d := rec.Distance
			dr.Distance = &d
		}
		records = append(records, dr)
	}
	return &DistancesResponse{
		Algorithm:     string(res.Algorithm),
		Source:        res.Source,
		SourceNodeID:  res.SourceNodeID,
		SnapDistance:  util.RoundFloat(res.SnapDistance, 2),
		Cached:        res.Cached,
		Relaxations:   res.Stats.Relaxations,
		DurationMilli: util.RoundFloat(float64(res.Stats.Duration.Microseconds())/1000.0, 3),
		Summary: SummaryResponse{
			NodeCount:      res.Summary.NodeCount,
			ReachableCount: res.Summary.ReachableCount,
			MaxDistance:    res.Summary.MaxDistance,
		},
		Distances: records,
	}
}

// Distances
//
//	@Summary		jarak shortest path dari satu source ke semua vertex.
//	@Description	source berupa vertex id atau koordinat yang di-snap ke vertex terdekat. algorithm dijkstra atau bmssp.
//	@Tags			sssp
//	@Param			body	body	DistancesRequest	true	"request body single source shortest path"
//	@Accept			application/json
//	@Produce		application/json
//	@Router			/sssp/distances [post]
//	@Success		200	{object}	DistancesResponse
//	@Failure		400	{object}	ErrResponse
//	@Failure		500	{object}	ErrResponse
func (h *SSSPHandler) Distances(w http.ResponseWriter, r *http.Request) {
	data := &DistancesRequest{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	validate := validator.New()
	if err := validate.Struct(*data); err != nil {
		english := en.New()
		uni := ut.New(english, english)
		trans, _ := uni.GetTranslator("en")
		_ = enTranslations.RegisterDefaultTranslations(validate, trans)
		vv := translateError(err, trans)
		render.Render(w, r, ErrValidation(err, vv))
		return
	}

	alg := routingalgorithm.AlgorithmBMSSP
	if data.Algorithm != "" {
		alg = routingalgorithm.Algorithm(data.Algorithm)
	}
	order, err := aggregator.ParseOrder(data.Order)
	if err != nil {
		render.Render(w, r, ErrChi(err))
		return
	}

	q := service.DistanceQuery{
		Source:    data.Source,
		Algorithm: alg,
		Options: aggregator.Options{
			IncludeUnreachable: data.IncludeUnreachable,
			Order:              order,
			Limit:              data.Limit,
		},
	}
	if data.Source == nil {
		c := geo.NewCoordinate(*data.Lat, *data.Lon)
		q.Coord = &c
	}

	res, err := h.svc.Distances(r.Context(), q)
	if err != nil {
		render.Render(w, r, ErrChi(err))
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, NewDistancesResponse(res))
}

type GraphResponse struct {
	Name           string `json:"name"`
	VertexCount    int    `json:"vertex_count"`
	EdgeCount      int    `json:"edge_count"`
	K              int    `json:"k"`
	T              int    `json:"t"`
	PivotThreshold int    `json:"pivot_threshold"`
	MaxLevel       int    `json:"max_level"`
	HasCoords      bool   `json:"has_coordinates"`
}

func (h *SSSPHandler) Graph(w http.ResponseWriter, r *http.Request) {
	info, err := h.svc.GraphInfo()
	if err != nil {
		render.Render(w, r, ErrChi(err))
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, &GraphResponse{
		Name:           info.Name,
		VertexCount:    info.VertexCount,
		EdgeCount:      info.EdgeCount,
		K:              info.Params.K,
		T:              info.Params.T,
		PivotThreshold: info.Params.PivotThreshold,
		MaxLevel:       info.Params.MaxLevel,
		HasCoords:      info.HasCoords,
	})
}

// ErrResponse model info
//
//	@Description	model untuk error response
type ErrResponse struct {
	Err            error `json:"-"` // low-level runtime error
	HTTPStatusCode int   `json:"-"` // http response status code

	StatusText    string   `json:"status"`          // user-level status message
	AppCode       int64    `json:"code,omitempty"`  // application-specific error code
	ErrorText     string   `json:"error,omitempty"` // application-level error message, for debugging
	ErrValidation []string `json:"validation,omitempty"`
}

func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

func ErrValidation(err error, errV []error) render.Renderer {
	vv := []string{}
	for _, v := range errV {
		vv = append(vv, v.Error())
	}
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: 400,
		StatusText:     "Invalid request.",
		ErrorText:      err.Error(),
		ErrValidation:  vv,
	}
}

func ErrInvalidRequest(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: 400,
		StatusText:     "Invalid request.",
		ErrorText:      err.Error(),
	}
}

func ErrChi(err error) render.Renderer {
	statusText := ""
	switch getStatusCode(err) {
	case http.StatusNotFound:
		statusText = "Resource not found."
	case http.StatusInternalServerError:
		statusText = "Internal server error."
	case http.StatusRequestTimeout:
		statusText = "Request cancelled."
	case http.StatusBadRequest:
		statusText = "Bad request."
	default:
		statusText = "Error."
	}

	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: getStatusCode(err),
		StatusText:     statusText,
		ErrorText:      err.Error(),
	}
}

func getStatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var ierr *server.Error
	if !errors.As(err, &ierr) {
		return http.StatusInternalServerError
	}
	switch ierr.Code() {
	case server.ErrBadParamInput, server.ErrInvalidWeight, server.ErrVertexOutOfRange, server.ErrEmptyGraph:
		return http.StatusBadRequest
	case server.ErrNotFound:
		return http.StatusNotFound
	case server.ErrCancelled:
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

func translateError(err error, trans ut.Translator) (errs []error) {
	if err == nil {
		return nil
	}
	var validatorErrs validator.ValidationErrors
	if !errors.As(err, &validatorErrs) {
		return []error{err}
	}
	for _, e := range validatorErrs {
		errs = append(errs, fmt.Errorf("%s", e.Translate(trans)))
	}
	return errs
}
