package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"toll-engine/internal/engine"
	"toll-engine/internal/http/middleware"
	"toll-engine/internal/ledger"
	"toll-engine/internal/model"
	"toll-engine/internal/repository"
	"toll-engine/internal/service"
	"toll-engine/internal/stream"
)

const defaultTripPageSize = 100

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type Handler struct {
	manager  *engine.Manager
	topology *service.TopologyService
	trips    *ledger.Ledger
	feed     *stream.Hub
	log      zerolog.Logger
}

func NewHandler(
	manager *engine.Manager,
	topology *service.TopologyService,
	trips *ledger.Ledger,
	feed *stream.Hub,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		manager:  manager,
		topology: topology,
		trips:    trips,
		feed:     feed,
		log:      log,
	}
}

func (h *Handler) Register(r *gin.Engine, authMiddleware gin.HandlerFunc) {
	api := r.Group("/api")

	// Read side is open; dashboards poll trips and hold the feed socket.
	api.GET("/trips", h.listTrips)
	api.GET("/trips/feed", h.tripFeed)
	api.GET("/zones", h.listZones)

	protected := api.Group("/")
	protected.Use(authMiddleware)
	{
		protected.POST("/anpr/sighting", h.submitSighting)
		protected.POST("/zones", h.createZone)
		protected.POST("/zones/:id/cameras", h.registerCamera)
		protected.PUT("/zones/:id/pathways", h.setPathways)
	}
}

func (h *Handler) submitSighting(c *gin.Context) {
	operator, ok := middleware.MustOperator(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing operator identity"))
		return
	}

	var req struct {
		Plate      string  `json:"plate" binding:"required"`
		CameraCode string  `json:"camera_code"`
		Confidence float64 `json:"confidence"`
		DetectedAt string  `json:"detected_at"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	cameraCode := strings.TrimSpace(req.CameraCode)
	if cameraCode == "" {
		cameraCode = operator.CameraCode
	}
	if cameraCode == "" {
		c.JSON(http.StatusBadRequest, errorResponse("camera code missing from body and token"))
		return
	}

	detectedAt := time.Now().UTC()
	if raw := strings.TrimSpace(req.DetectedAt); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("detected_at must be RFC3339"))
			return
		}
		detectedAt = parsed.UTC()
	}

	result, err := h.manager.Submit(c.Request.Context(), model.PlateDetectionEvent{
		Plate:      req.Plate,
		CameraCode: strings.ToUpper(cameraCode),
		OperatorID: operator.OperatorID,
		Confidence: req.Confidence,
		DetectedAt: detectedAt,
	})
	if err != nil {
		h.handleSubmitError(c, err)
		return
	}

	response := gin.H{
		"accepted":  result.Accepted,
		"duplicate": result.Duplicate,
	}
	if result.Trip != nil {
		response["trip"] = result.Trip
	}
	c.JSON(http.StatusOK, successResponse(response))
}

func (h *Handler) listTrips(c *gin.Context) {
	filter := repository.TripFilter{Limit: defaultTripPageSize}

	if plate := strings.TrimSpace(c.Query("plate")); plate != "" {
		filter.Plate = plate
	}
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			c.JSON(http.StatusBadRequest, errorResponse("limit must be a positive integer"))
			return
		}
		filter.Limit = limit
	}

	trips, err := h.trips.Query(c.Request.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("trip query failed")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
		return
	}
	c.JSON(http.StatusOK, successResponse(trips))
}

func (h *Handler) tripFeed(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("feed upgrade failed")
		return
	}

	client := stream.NewClient(h.feed, conn, c.Request.RemoteAddr)
	h.feed.Register(client)
	go client.WritePump()
	go client.ReadPump()
}

func (h *Handler) listZones(c *gin.Context) {
	zones, err := h.topology.ListZones(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(zones))
}

func (h *Handler) createZone(c *gin.Context) {
	var req struct {
		Name         string         `json:"name" binding:"required"`
		Vertices     []model.LatLng `json:"vertices" binding:"required"`
		MaxDistanceM float64        `json:"max_distance_m"`
		FlatRate     float64        `json:"flat_rate"`
		RatePerMeter float64        `json:"rate_per_meter"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	zone, err := h.topology.CreateZone(c.Request.Context(), service.CreateZoneInput{
		Name:         req.Name,
		Vertices:     req.Vertices,
		MaxDistanceM: req.MaxDistanceM,
		FlatRate:     req.FlatRate,
		RatePerMeter: req.RatePerMeter,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, successResponse(zone))
}

func (h *Handler) registerCamera(c *gin.Context) {
	zoneID, ok := h.zoneIDParam(c)
	if !ok {
		return
	}

	var req struct {
		Code string  `json:"code" binding:"required"`
		Role string  `json:"role"`
		Lat  float64 `json:"lat"`
		Lng  float64 `json:"lng"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	camera, err := h.topology.RegisterCamera(c.Request.Context(), service.RegisterCameraInput{
		ZoneID: zoneID,
		Code:   req.Code,
		Role:   model.CameraRole(strings.ToUpper(strings.TrimSpace(req.Role))),
		Lat:    req.Lat,
		Lng:    req.Lng,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, successResponse(camera))
}

func (h *Handler) setPathways(c *gin.Context) {
	zoneID, ok := h.zoneIDParam(c)
	if !ok {
		return
	}

	var req struct {
		Pathways [][]string `json:"pathways" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	pathways, err := h.topology.SetPathways(c.Request.Context(), zoneID, req.Pathways)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(pathways))
}

func (h *Handler) zoneIDParam(c *gin.Context) (uuid.UUID, bool) {
	zoneID, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid zone id"))
		return uuid.Nil, false
	}
	return zoneID, true
}

func (h *Handler) handleSubmitError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, engine.ErrInvalidPlate):
		c.JSON(http.StatusBadRequest, errorResponse("plate is empty after normalization"))
	case errors.Is(err, engine.ErrUnknownCamera):
		c.JSON(http.StatusNotFound, errorResponse("camera is not registered"))
	case errors.Is(err, engine.ErrUnknownZone):
		c.JSON(http.StatusNotFound, errorResponse("zone is not registered"))
	default:
		h.log.Error().Err(err).Msg("sighting submit failed")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
	}
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse(err.Error()))
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, errorResponse(err.Error()))
	default:
		h.log.Error().Err(err).Msg("handler error")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
	}
}

func successResponse(data interface{}) gin.H {
	return gin.H{
		"data": data,
	}
}

func errorResponse(message string) gin.H {
	return gin.H{
		"error": message,
	}
}
