package waypoint

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/open-teleop/waypoint-recorder/domain/teleop"
	"github.com/open-teleop/waypoint-recorder/pkg/log"
)

// ErrInboxFull is returned by Enqueue when the inbox has no free slot.
var ErrInboxFull = errors.New("recorder inbox full")

// MarkerPolicy decides whether a marker follows a failed write.
type MarkerPolicy string

const (
	// MarkerPolicyAlways publishes a marker and consumes an id on every save
	// attempt, whether or not the record reached the file.
	MarkerPolicyAlways MarkerPolicy = "always"
	// MarkerPolicyOnSuccess publishes only for records that were written.
	MarkerPolicyOnSuccess MarkerPolicy = "on_success"
)

const (
	DefaultPeriod     = 100 * time.Millisecond
	DefaultInboxSize  = 256
	DefaultSaveButton = 2
)

// VelocityDriver converts gamepad axes into a published velocity command.
type VelocityDriver interface {
	Drive(axes []float32) (teleop.Command, error)
}

// MarkerPublisher sends visualization markers.
type MarkerPublisher interface {
	PublishMarker(m Marker) error
}

// SaveListener is told about every save attempt.
type SaveListener interface {
	WaypointSaved(rec SaveRecord)
}

// Options configures a Recorder. Zero values select the defaults.
type Options struct {
	SessionID    string
	SaveButton   int
	Driver       VelocityDriver
	Markers      MarkerPublisher
	Store        Store
	Listener     SaveListener
	Clock        clock.Clock
	Period       time.Duration
	InboxSize    int
	MarkerPolicy MarkerPolicy
	MarkerStyle  *MarkerStyle
	Logger       log.Logger
}

// Status is a point-in-time view of the recorder.
type Status struct {
	SessionID     string      `json:"session_id"`
	Pose          Pose        `json:"pose"`
	Yaw           float64     `json:"yaw"`
	Saved         int         `json:"saved"`
	Failed        int         `json:"failed"`
	NextMarkerID  int32       `json:"next_marker_id"`
	EventsHandled uint64      `json:"events_handled"`
	EventsDropped uint64      `json:"events_dropped"`
	Queued        int         `json:"queued"`
	LastSave      *SaveRecord `json:"last_save,omitempty"`
}

// Recorder owns the current pose, the save flag and the marker id counter.
// All three are only touched by the goroutine calling SpinOnce or Run;
// other goroutines interact through Enqueue and Status.
type Recorder struct {
	sessionID  string
	saveButton int
	driver     VelocityDriver
	markers    MarkerPublisher
	store      Store
	listener   SaveListener
	clock      clock.Clock
	period     time.Duration
	policy     MarkerPolicy
	style      MarkerStyle
	logger     log.Logger

	inbox   chan Event
	dropped atomic.Uint64

	pose         Pose
	savePending  bool
	nextMarkerID int32
	saved        int
	failed       int
	handled      uint64
	lastSave     *SaveRecord

	mu     sync.RWMutex
	status Status
}

// NewRecorder creates a recorder. Store and Logger are required.
func NewRecorder(opts Options) (*Recorder, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("recorder requires a waypoint store")
	}
	if opts.Logger == nil {
		return nil, fmt.Errorf("recorder requires a logger")
	}
	if opts.SaveButton < 0 {
		return nil, fmt.Errorf("invalid save button index %d", opts.SaveButton)
	}

	r := &Recorder{
		sessionID:  opts.SessionID,
		saveButton: opts.SaveButton,
		driver:     opts.Driver,
		markers:    opts.Markers,
		store:      opts.Store,
		listener:   opts.Listener,
		clock:      opts.Clock,
		period:     opts.Period,
		policy:     opts.MarkerPolicy,
		style:      DefaultMarkerStyle,
		pose:       InitialPose,
	}
	if r.sessionID == "" {
		r.sessionID = uuid.NewString()
	}
	if r.clock == nil {
		r.clock = clock.New()
	}
	if r.period <= 0 {
		r.period = DefaultPeriod
	}
	switch r.policy {
	case "":
		r.policy = MarkerPolicyAlways
	case MarkerPolicyAlways, MarkerPolicyOnSuccess:
	default:
		return nil, fmt.Errorf("unknown marker policy %q", opts.MarkerPolicy)
	}
	if opts.MarkerStyle != nil {
		r.style = *opts.MarkerStyle
	}
	inboxSize := opts.InboxSize
	if inboxSize <= 0 {
		inboxSize = DefaultInboxSize
	}
	r.inbox = make(chan Event, inboxSize)
	r.logger = opts.Logger.WithField("session_id", r.sessionID)

	r.publishStatus()
	return r, nil
}

// SessionID identifies this recorder instance.
func (r *Recorder) SessionID() string {
	return r.sessionID
}

// Enqueue places an event in the inbox without blocking. Only GamepadEvent
// and PoseEvent values are accepted. Safe for concurrent use.
func (r *Recorder) Enqueue(ev Event) error {
	switch ev.(type) {
	case GamepadEvent, PoseEvent:
	default:
		return fmt.Errorf("unsupported event %T", ev)
	}
	select {
	case r.inbox <- ev:
		return nil
	default:
		n := r.dropped.Add(1)
		r.logger.Warnf("Inbox full, dropping %T (%d dropped so far)", ev, n)
		return ErrInboxFull
	}
}

// Run processes a cycle every period until ctx is cancelled.
func (r *Recorder) Run(ctx context.Context) error {
	ticker := r.clock.Ticker(r.period)
	defer ticker.Stop()

	r.logger.Infof("Waypoint recorder running at %v per cycle (save button %d, marker policy %s)",
		r.period, r.saveButton, r.policy)

	for {
		r.SpinOnce()
		select {
		case <-ctx.Done():
			r.logger.Infof("Waypoint recorder stopped after %d saves (%d failed)", r.saved, r.failed)
			return nil
		case <-ticker.C:
		}
	}
}

// SpinOnce runs one cycle: it handles the events queued when the cycle
// starts, in order, and then performs at most one save.
// It must not be called concurrently with itself or Run.
func (r *Recorder) SpinOnce() {
	n := len(r.inbox)
	for i := 0; i < n; i++ {
		r.handle(<-r.inbox)
	}

	if r.savePending {
		r.save()
	}
	r.publishStatus()
}

func (r *Recorder) handle(ev Event) {
	r.handled++
	switch e := ev.(type) {
	case PoseEvent:
		r.logger.Debugf("Pose update: position=(%f, %f) yaw=%f",
			e.Pose.Position.X, e.Pose.Position.Y, Yaw(e.Pose.Orientation))
		r.pose = e.Pose
	case GamepadEvent:
		r.handleGamepad(e)
	default:
		r.logger.Warnf("Ignoring unknown event type %T", ev)
	}
}

func (r *Recorder) handleGamepad(ev GamepadEvent) {
	if r.saveButton < len(ev.Buttons) {
		if ev.Buttons[r.saveButton] == 1 {
			r.savePending = true
		}
	} else {
		r.logger.Warnf("Gamepad event has %d buttons, save button %d treated as released",
			len(ev.Buttons), r.saveButton)
	}

	if r.driver == nil {
		return
	}
	if _, err := r.driver.Drive(ev.Axes); err != nil {
		if errors.Is(err, teleop.ErrAxisOutOfRange) {
			r.logger.Warnf("No velocity command sent: %v", err)
			return
		}
		r.logger.Errorf("Velocity command failed: %v", err)
	}
}

func (r *Recorder) save() {
	pose := r.pose
	now := r.clock.Now()
	wp := FromPose(pose)

	r.logger.Infof("Saving waypoint: position=(%f, %f, %f) orientation=(%f, %f, %f, %f)",
		pose.Position.X, pose.Position.Y, pose.Position.Z,
		pose.Orientation.Imag, pose.Orientation.Jmag, pose.Orientation.Kmag, pose.Orientation.Real)

	rec := SaveRecord{
		SessionID: r.sessionID,
		Waypoint:  wp,
		MarkerID:  -1,
		Time:      now,
	}

	if err := r.store.Append(wp); err != nil {
		r.failed++
		r.logger.Errorf("Failed to save waypoint: %v", err)
	} else {
		r.saved++
		rec.Written = true
		r.logger.Infof("Saved waypoint x=%f y=%f yaw=%f", wp.X, wp.Y, wp.Yaw)
	}

	if rec.Written || r.policy == MarkerPolicyAlways {
		rec.MarkerID = r.nextMarkerID
		marker := NewArrowMarker(r.nextMarkerID, pose, now, r.style)
		r.nextMarkerID++
		if r.markers != nil {
			if err := r.markers.PublishMarker(marker); err != nil {
				r.logger.Errorf("Failed to publish marker %d: %v", marker.ID, err)
			} else {
				rec.MarkerPublished = true
			}
		}
	}

	r.savePending = false
	r.lastSave = &rec
	if r.listener != nil {
		r.listener.WaypointSaved(rec)
	}
}

func (r *Recorder) publishStatus() {
	s := Status{
		SessionID:     r.sessionID,
		Pose:          r.pose,
		Yaw:           Yaw(r.pose.Orientation),
		Saved:         r.saved,
		Failed:        r.failed,
		NextMarkerID:  r.nextMarkerID,
		EventsHandled: r.handled,
	}
	if r.lastSave != nil {
		last := *r.lastSave
		s.LastSave = &last
	}

	r.mu.Lock()
	r.status = s
	r.mu.Unlock()
}

// Status returns the state as of the last completed cycle. Safe for concurrent use.
func (r *Recorder) Status() Status {
	r.mu.RLock()
	s := r.status
	r.mu.RUnlock()

	s.EventsDropped = r.dropped.Load()
	s.Queued = len(r.inbox)
	return s
}
