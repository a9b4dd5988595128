package waypoint

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
)

// Store persists waypoints.
type Store interface {
	Append(wp Waypoint) error
}

// CSVStore appends waypoints to a headerless x,y,yaw CSV file.
// The file is opened and closed on every append and never truncated.
type CSVStore struct {
	path string
}

// NewCSVStore creates a store backed by path.
func NewCSVStore(path string) *CSVStore {
	return &CSVStore{path: path}
}

// Path returns the file the store writes to.
func (s *CSVStore) Path() string {
	return s.path
}

// FormatRecord renders a waypoint the way it is written to disk.
func FormatRecord(wp Waypoint) []string {
	return []string{
		strconv.FormatFloat(wp.X, 'f', 6, 64),
		strconv.FormatFloat(wp.Y, 'f', 6, 64),
		strconv.FormatFloat(wp.Yaw, 'f', 6, 64),
	}
}

// Append writes one record to the end of the file, creating it if needed.
func (s *CSVStore) Append(wp Waypoint) error {
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open waypoints file %s: %w", s.path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(FormatRecord(wp)); err != nil {
		f.Close()
		return fmt.Errorf("failed to write waypoint: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("failed to write waypoint: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close waypoints file: %w", err)
	}
	return nil
}

// ReadAll parses every record in the file. A missing file yields no waypoints.
func (s *CSVStore) ReadAll() ([]Waypoint, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Waypoint{}, nil
		}
		return nil, fmt.Errorf("failed to open waypoints file %s: %w", s.path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 3
	waypoints := []Waypoint{}
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read waypoints file: %w", err)
		}
		wp, err := parseRecord(rec)
		if err != nil {
			line, _ := r.FieldPos(0)
			return nil, fmt.Errorf("invalid waypoint on line %d: %w", line, err)
		}
		waypoints = append(waypoints, wp)
	}
	return waypoints, nil
}

func parseRecord(rec []string) (Waypoint, error) {
	var vals [3]float64
	for i, field := range rec {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return Waypoint{}, err
		}
		vals[i] = v
	}
	return Waypoint{X: vals[0], Y: vals[1], Yaw: vals[2]}, nil
}
