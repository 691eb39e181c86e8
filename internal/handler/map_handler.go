package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skainet/concentration-map/internal/models"
	"github.com/skainet/concentration-map/internal/service"
	"github.com/skainet/concentration-map/pkg/response"
)

// MapHandler handles HTTP requests for the rendered map
type MapHandler struct {
	mapService *service.MapService
}

// NewMapHandler creates a new map handler
func NewMapHandler(mapService *service.MapService) *MapHandler {
	return &MapHandler{
		mapService: mapService,
	}
}

// GetMarkers handles GET /api/v1/map/markers
// Returns a bare GeoJSON FeatureCollection so map libraries can load it directly.
func (h *MapHandler) GetMarkers(c *gin.Context) {
	fc := h.mapService.Markers()
	raw, err := fc.MarshalJSON()
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}
	c.Data(http.StatusOK, "application/geo+json", raw)
}

// SetViewport handles PUT /api/v1/map/viewport
func (h *MapHandler) SetViewport(c *gin.Context) {
	var req models.ViewportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid zoom parameter")
		return
	}

	zoom := h.mapService.SetViewport(*req.Zoom)
	response.Accepted(c, gin.H{"zoom": zoom})
}

// GetStatus handles GET /api/v1/map/status
func (h *MapHandler) GetStatus(c *gin.Context) {
	response.Success(c, h.mapService.Status())
}

// Refresh handles POST /api/v1/map/refresh
func (h *MapHandler) Refresh(c *gin.Context) {
	h.mapService.Refresh()
	response.Accepted(c, gin.H{"status": "scheduled"})
}
