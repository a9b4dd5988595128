package processing

import (
	"sort"
	"sync"

	"github.com/open-teleop/waypoint-recorder/pkg/config"
	customlog "github.com/open-teleop/waypoint-recorder/pkg/log"
)

// TopicInfo holds metadata for a topic
type TopicInfo struct {
	OttTopic     string `json:"ott"`
	RosTopic     string `json:"ros_topic"`
	MessageType  string `json:"message_type"`
	Direction    string `json:"direction"`
	SourceType   string `json:"source_type"`
	StatCount    int64  `json:"count"`
	ErrorCount   int64  `json:"errors"`
	LastActivity int64  `json:"last_activity_ns"`
}

// TopicRegistry maintains information about topics
type TopicRegistry struct {
	logger customlog.Logger
	topics map[string]*TopicInfo
	mu     sync.RWMutex
}

// NewTopicRegistry creates a new topic registry
func NewTopicRegistry(logger customlog.Logger) *TopicRegistry {
	return &TopicRegistry{
		logger: logger,
		topics: make(map[string]*TopicInfo),
	}
}

// LoadFromConfig loads topic information from the config
func (r *TopicRegistry) LoadFromConfig(cfg *config.Config) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.topics = make(map[string]*TopicInfo)

	for _, direction := range []string{config.DirectionInbound, config.DirectionOutbound} {
		for _, mapping := range cfg.GetTopicMappingsByDirection(direction) {
			r.topics[mapping.OttTopic] = &TopicInfo{
				OttTopic:    mapping.OttTopic,
				RosTopic:    mapping.RosTopic,
				MessageType: mapping.MessageType,
				Direction:   mapping.Direction,
				SourceType:  mapping.SourceType,
			}
		}
	}

	r.logger.Infof("Loaded %d topics into registry", len(r.topics))
}

// GetTopicInfo gets information for a topic
func (r *TopicRegistry) GetTopicInfo(topic string) (TopicInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	info, exists := r.topics[topic]
	if !exists {
		return TopicInfo{}, false
	}
	return *info, true
}

// UpdateTopicStats records one message handled on topic. Unknown topics are
// not added.
func (r *TopicRegistry) UpdateTopicStats(topic string, timestamp int64, failed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	info, exists := r.topics[topic]
	if !exists {
		return
	}
	info.StatCount++
	if failed {
		info.ErrorCount++
	}
	info.LastActivity = timestamp
}

// GetAllTopics returns all registered topics in sorted order
func (r *TopicRegistry) GetAllTopics() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	topics := make([]string, 0, len(r.topics))
	for topic := range r.topics {
		topics = append(topics, topic)
	}
	sort.Strings(topics)
	return topics
}

// GetTopicStats returns a copy of every topic's info, sorted by OTT topic
func (r *TopicRegistry) GetTopicStats() []TopicInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := make([]TopicInfo, 0, len(r.topics))
	for _, info := range r.topics {
		stats = append(stats, *info)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].OttTopic < stats[j].OttTopic })
	return stats
}
