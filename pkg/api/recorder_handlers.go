package api

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	customlog "github.com/open-teleop/waypoint-recorder/pkg/log"
	"github.com/open-teleop/waypoint-recorder/pkg/processing"
	"github.com/open-teleop/waypoint-recorder/services"
)

// RecorderHandler serves recorder status, recorded waypoints and topic stats.
type RecorderHandler struct {
	status    StatusSource
	waypoints *services.WaypointService
	topics    *processing.TopicRegistry
	logger    customlog.Logger
}

// RegisterRecorderRoutes registers the recorder API endpoints with the Fiber app.
func RegisterRecorderRoutes(
	app *fiber.App,
	status StatusSource,
	waypoints *services.WaypointService,
	topics *processing.TopicRegistry,
	logger customlog.Logger,
) {
	h := &RecorderHandler{
		status:    status,
		waypoints: waypoints,
		topics:    topics,
		logger:    logger,
	}

	v1 := app.Group("/api/v1")
	v1.Get("/recorder/status", h.handleStatus)
	v1.Get("/waypoints", h.handleListWaypoints)
	v1.Get("/waypoints/csv", h.handleWaypointsCSV)
	v1.Get("/topics", h.handleTopics)

	logger.Infof("Registered recorder API endpoints under /api/v1")
}

func (h *RecorderHandler) handleStatus(c *fiber.Ctx) error {
	return c.JSON(h.status.Status())
}

func (h *RecorderHandler) handleListWaypoints(c *fiber.Ctx) error {
	wps, err := h.waypoints.ListWaypoints()
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(ErrorResponse{Error: err.Error()})
	}
	return c.JSON(WaypointListResponse{Count: len(wps), Waypoints: wps})
}

func (h *RecorderHandler) handleWaypointsCSV(c *fiber.Ctx) error {
	data, err := h.waypoints.GetWaypointsCSV()
	if err != nil {
		h.logger.Errorf("Failed to read waypoints CSV: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(ErrorResponse{Error: err.Error()})
	}
	c.Set(fiber.HeaderContentType, "text/csv")
	return c.Send(data)
}

func (h *RecorderHandler) handleTopics(c *fiber.Ctx) error {
	return c.JSON(TopicListResponse{Topics: h.topics.GetTopicStats()})
}
