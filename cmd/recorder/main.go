package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"

	"github.com/open-teleop/waypoint-recorder/domain/teleop"
	"github.com/open-teleop/waypoint-recorder/domain/waypoint"
	"github.com/open-teleop/waypoint-recorder/pkg/api"
	"github.com/open-teleop/waypoint-recorder/pkg/config"
	customlog "github.com/open-teleop/waypoint-recorder/pkg/log"
	"github.com/open-teleop/waypoint-recorder/pkg/processing"
	"github.com/open-teleop/waypoint-recorder/pkg/rosparser"
	"github.com/open-teleop/waypoint-recorder/pkg/zeromq"
	"github.com/open-teleop/waypoint-recorder/services"
)

const (
	configDirEnv     = "WAYPOINT_RECORDER_CONFIG_DIR"
	defaultConfigDir = "config"
	shutdownTimeout  = 5 * time.Second
)

func main() {
	configDir := os.Getenv(configDirEnv)
	if configDir == "" {
		configDir = defaultConfigDir
	}

	bootstrapCfg, err := config.LoadBootstrapConfig(configDir)
	if err != nil {
		log.Fatalf("Failed to load bootstrap config: %v", err)
	}

	appLogger, err := customlog.NewLogrusLogger(bootstrapCfg.Logging.Level, bootstrapCfg.Logging.LogPath)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	rosparser.SetLogger(appLogger)

	topicCfgPath := bootstrapCfg.TopicConfigPath(configDir)
	topicCfg := config.DefaultConfig()
	if topicCfgPath != "" {
		if topicCfg, err = config.LoadConfig(topicCfgPath); err != nil {
			appLogger.Fatalf("Failed to load topic config: %v", err)
		}
	}
	if bootstrapCfg.Recorder.RobotID != "" {
		topicCfg.RobotID = bootstrapCfg.Recorder.RobotID
	}

	if err := os.MkdirAll(filepath.Dir(bootstrapCfg.WaypointsPath()), 0o755); err != nil {
		appLogger.Warnf("Could not create waypoint directory: %v", err)
	}

	registry := processing.NewTopicRegistry(appLogger)
	registry.LoadFromConfig(topicCfg)
	appLogger.Infof("Bridging topics: %s", strings.Join(registry.GetAllTopics(), ", "))

	zmqService, err := zeromq.NewZeroMQService(bootstrapCfg.ZeroMQ, appLogger)
	if err != nil {
		appLogger.Fatalf("Failed to create ZeroMQ service: %v", err)
	}

	rosPublisher, err := processing.NewRosPublisher(topicCfg, appLogger, zmqService, registry, clock.New())
	if err != nil {
		appLogger.Fatalf("Failed to create ROS publisher: %v", err)
	}

	teleopService := teleop.NewTeleopService(rosPublisher, teleop.AxisMapping{
		LinearAxis:  bootstrapCfg.Recorder.LinearAxis,
		AngularAxis: bootstrapCfg.Recorder.AngularAxis,
	}, topicCfg.RobotID)

	notifier := zeromq.NewNotifier(zmqService, topicCfg, appLogger)
	store := waypoint.NewCSVStore(bootstrapCfg.WaypointsPath())
	sessionID := uuid.NewString()

	recorder, err := waypoint.NewRecorder(waypoint.Options{
		SessionID:    sessionID,
		SaveButton:   bootstrapCfg.Recorder.SaveButton,
		Driver:       teleopService,
		Markers:      rosPublisher,
		Store:        store,
		Listener:     notifier,
		Period:       bootstrapCfg.Recorder.Period(),
		InboxSize:    bootstrapCfg.Recorder.InboxSize,
		MarkerPolicy: waypoint.MarkerPolicy(bootstrapCfg.Recorder.MarkerPolicy),
		MarkerStyle: &waypoint.MarkerStyle{
			FrameID:   bootstrapCfg.Marker.FrameID,
			Namespace: bootstrapCfg.Marker.Namespace,
			Scale:     waypoint.DefaultMarkerStyle.Scale,
			Color:     waypoint.DefaultMarkerStyle.Color,
		},
		Logger: appLogger,
	})
	if err != nil {
		appLogger.Fatalf("Failed to create recorder: %v", err)
	}

	processor := processing.NewEventProcessor(appLogger, registry)
	inbound := zeromq.NewInboundHandler(processor, recorder, appLogger)
	var inboundTopics []string
	for _, m := range topicCfg.GetTopicMappingsByDirection(config.DirectionInbound) {
		inboundTopics = append(inboundTopics, m.OttTopic)
	}
	if err := zeromq.RegisterInboundHandlers(zmqService, inboundTopics, inbound, appLogger); err != nil {
		appLogger.Fatalf("Failed to register inbound handlers: %v", err)
	}
	if err := zmqService.Start(); err != nil {
		appLogger.Fatalf("Failed to start ZeroMQ service: %v", err)
	}
	// Gateways that connect later get the config from the announcer below.
	if err := notifier.PublishConfigUpdate(topicCfg); err != nil {
		appLogger.Warnf("Failed to publish topic configuration: %v", err)
	}

	configService, err := services.NewTopicConfigService(topicCfgPath, topicCfg, appLogger)
	if err != nil {
		appLogger.Fatalf("Failed to create topic config service: %v", err)
	}
	configService.SetPublisher(notifier)

	controlInput, err := api.NewControlInput(topicCfg, processor, recorder, appLogger)
	if err != nil {
		appLogger.Fatalf("Failed to create control input: %v", err)
	}

	app := fiber.New(fiber.Config{
		AppName:      "Open-Teleop Waypoint Recorder",
		ErrorHandler: customErrorHandler,
	})
	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":     "online",
			"service":    "open-teleop waypoint recorder",
			"session_id": sessionID,
		})
	})
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})

	api.RegisterRecorderRoutes(app, recorder, services.NewWaypointService(store, appLogger), registry, appLogger)
	api.RegisterConfigRoutes(app, configService, appLogger)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/control", websocket.New(func(conn *websocket.Conn) {
		api.ControlWebSocketHandler(conn, controlInput)
	}))

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := recorder.Run(ctx); err != nil {
			appLogger.Errorf("Recorder stopped with error: %v", err)
		}
	}()
	go func() {
		defer wg.Done()
		notifier.RunAnnouncer(ctx, clock.New(), bootstrapCfg.ZeroMQ.ConfigAnnounceInterval())
	}()

	go func() {
		addr := fmt.Sprintf(":%d", bootstrapCfg.Server.HTTPPort)
		appLogger.Infof("Server starting on %s (session %s)", addr, sessionID)
		if err := app.Listen(addr); err != nil {
			appLogger.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Infof("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		appLogger.Errorf("Server forced to shutdown: %v", err)
	}

	cancel()
	wg.Wait()
	zmqService.Stop()

	appLogger.Infof("Recorder exited properly")
}

// Custom error handler
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	return c.Status(code).JSON(api.ErrorResponse{Error: err.Error()})
}
