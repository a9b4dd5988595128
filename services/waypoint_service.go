package services

import (
	"errors"
	"fmt"
	"os"

	"github.com/open-teleop/waypoint-recorder/domain/waypoint"
	customlog "github.com/open-teleop/waypoint-recorder/pkg/log"
)

// WaypointReader reads back recorded waypoints. *waypoint.CSVStore implements it.
type WaypointReader interface {
	Path() string
	ReadAll() ([]waypoint.Waypoint, error)
}

// WaypointService exposes the recorded waypoint file.
type WaypointService struct {
	store  WaypointReader
	logger customlog.Logger
}

// NewWaypointService creates a new waypoint service.
func NewWaypointService(store WaypointReader, logger customlog.Logger) *WaypointService {
	return &WaypointService{store: store, logger: logger}
}

// ListWaypoints returns every recorded waypoint in file order.
func (s *WaypointService) ListWaypoints() ([]waypoint.Waypoint, error) {
	wps, err := s.store.ReadAll()
	if err != nil {
		s.logger.Errorf("Failed to read waypoints: %v", err)
		return nil, err
	}
	return wps, nil
}

// GetWaypointsCSV returns the raw file contents. A missing file is empty.
func (s *WaypointService) GetWaypointsCSV() ([]byte, error) {
	data, err := os.ReadFile(s.store.Path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []byte{}, nil
		}
		return nil, fmt.Errorf("error reading waypoints file '%s': %w", s.store.Path(), err)
	}
	return data, nil
}
