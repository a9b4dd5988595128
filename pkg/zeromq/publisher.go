package zeromq

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/open-teleop/waypoint-recorder/domain/waypoint"
	"github.com/open-teleop/waypoint-recorder/pkg/config"
	customlog "github.com/open-teleop/waypoint-recorder/pkg/log"
)

// Notification topics and message types
const (
	TopicWaypointSaved  = "recorder.waypoint.saved"
	TopicConfigUpdate   = "configuration.update"
	MsgTypeWaypointSave = "WAYPOINT_SAVED"
	MsgTypeConfigUpdate = "CONFIG_RESPONSE"
)

// JSONPublisher publishes JSON envelopes. *ZeroMQService implements it.
type JSONPublisher interface {
	PublishJSON(topic string, messageType string, data interface{}) error
}

// Notifier publishes recorder notifications to gateways and other listeners.
// It remembers the last announced topic configuration so it can repeat it.
type Notifier struct {
	publisher JSONPublisher
	logger    customlog.Logger

	mu     sync.Mutex
	config *config.Config
}

// NewNotifier creates a notifier that announces cfg until told otherwise
func NewNotifier(publisher JSONPublisher, cfg *config.Config, logger customlog.Logger) *Notifier {
	return &Notifier{
		publisher: publisher,
		config:    cfg,
		logger:    logger,
	}
}

// PublishConfigUpdate publishes cfg so gateways know which ROS topics to
// bridge, and makes it the configuration repeated by RunAnnouncer.
func (n *Notifier) PublishConfigUpdate(cfg *config.Config) error {
	n.mu.Lock()
	n.config = cfg
	n.mu.Unlock()

	n.logger.Infof("Publishing topic configuration (ID: %s)", cfg.ConfigID)
	return n.publisher.PublishJSON(TopicConfigUpdate, MsgTypeConfigUpdate, cfg)
}

// CurrentConfig returns the last announced configuration.
func (n *Notifier) CurrentConfig() *config.Config {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.config
}

// RunAnnouncer republishes the current topic configuration every interval
// until ctx is cancelled. PUB sockets drop messages for subscribers that
// have not connected yet, so a single announcement at startup is usually lost.
func (n *Notifier) RunAnnouncer(ctx context.Context, clk clock.Clock, interval time.Duration) {
	if interval <= 0 {
		return
	}
	if clk == nil {
		clk = clock.New()
	}
	ticker := clk.Ticker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cfg := n.CurrentConfig()
			n.logger.Debugf("Re-announcing topic configuration (ID: %s)", cfg.ConfigID)
			if err := n.publisher.PublishJSON(TopicConfigUpdate, MsgTypeConfigUpdate, cfg); err != nil {
				n.logger.Warnf("Failed to re-announce topic configuration: %v", err)
			}
		}
	}
}

// WaypointSaved implements waypoint.SaveListener. Publish errors are logged.
func (n *Notifier) WaypointSaved(rec waypoint.SaveRecord) {
	if err := n.publisher.PublishJSON(TopicWaypointSaved, MsgTypeWaypointSave, rec); err != nil {
		n.logger.Warnf("Failed to publish waypoint notification: %v", err)
	}
}
