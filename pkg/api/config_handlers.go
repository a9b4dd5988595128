package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"

	customlog "github.com/open-teleop/waypoint-recorder/pkg/log"
	"github.com/open-teleop/waypoint-recorder/services"
)

// ConfigHandler holds dependencies for configuration API endpoints.
type ConfigHandler struct {
	configService services.TopicConfigService
	logger        customlog.Logger
}

// NewConfigHandler creates a new handler for configuration endpoints.
func NewConfigHandler(configService services.TopicConfigService, logger customlog.Logger) *ConfigHandler {
	if configService == nil {
		panic("ConfigService cannot be nil in NewConfigHandler")
	}
	if logger == nil {
		panic("Logger cannot be nil in NewConfigHandler")
	}
	return &ConfigHandler{
		configService: configService,
		logger:        logger,
	}
}

// RegisterConfigRoutes registers the configuration API endpoints with the Fiber app.
func RegisterConfigRoutes(app *fiber.App, configService services.TopicConfigService, logger customlog.Logger) {
	h := NewConfigHandler(configService, logger)

	apiGroup := app.Group("/api/v1/config")
	apiGroup.Get("/topics", h.handleGetTopicConfig)
	apiGroup.Put("/topics", h.handleUpdateTopicConfig)

	logger.Infof("Registered topic configuration API endpoints under /api/v1/config")
}

// handleGetTopicConfig returns the topic configuration as YAML.
func (h *ConfigHandler) handleGetTopicConfig(c *fiber.Ctx) error {
	yamlData, err := h.configService.GetCurrentConfigYAML()
	if err != nil {
		h.logger.Errorf("Failed to get topic config YAML: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(ErrorResponse{
			Error: fmt.Sprintf("Failed to retrieve configuration: %v", err),
		})
	}

	c.Set(fiber.HeaderContentType, "application/x-yaml")
	return c.Send(yamlData)
}

// handleUpdateTopicConfig replaces the topic configuration file.
func (h *ConfigHandler) handleUpdateTopicConfig(c *fiber.Ctx) error {
	switch ct := c.Get(fiber.HeaderContentType); ct {
	case "application/x-yaml", "application/yaml", "text/yaml":
	default:
		h.logger.Warnf("Received PUT request with Content-Type %q, parsing as YAML anyway", ct)
	}

	newConfigYAML := c.Body()
	if len(newConfigYAML) == 0 {
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{Error: "Request body cannot be empty."})
	}

	if err := h.configService.UpdateConfig(newConfigYAML); err != nil {
		h.logger.Errorf("Failed to update topic configuration: %v", err)
		switch {
		case errors.Is(err, services.ErrInvalidConfig):
			return c.Status(http.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
		case errors.Is(err, services.ErrReadOnlyConfig):
			return c.Status(http.StatusConflict).JSON(ErrorResponse{Error: err.Error()})
		default:
			return c.Status(http.StatusInternalServerError).JSON(ErrorResponse{Error: err.Error()})
		}
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"message": "Topic configuration updated. Restart the recorder to apply new routing.",
	})
}
