package storage

import (
	"errors"
	"fmt"
	"sync"
)

const (
	// DefaultStationCount is used until a caller configures another value.
	DefaultStationCount = 3
	// MaxStations bounds the station count a caller may configure.
	MaxStations = 1000
)

var (
	// ErrInvalidStationCount indicates the provided station count is outside 1..MaxStations.
	ErrInvalidStationCount = errors.New("station count must be between 1 and 1000")
)

// Storage provides access to the station count used when a partition request does not name one.
type Storage interface {
	GetStationCount() (int, error)
	SetStationCount(count int) error
}

// MemoryStorage keeps the station count in-memory and guards access with a RWMutex.
type MemoryStorage struct {
	mu       sync.RWMutex
	stations int
}

// NewMemoryStorage initialises storage with DefaultStationCount.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		stations: DefaultStationCount,
	}
}

// GetStationCount returns the currently configured station count.
func (s *MemoryStorage) GetStationCount() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.stations, nil
}

// SetStationCount validates and stores the provided station count.
func (s *MemoryStorage) SetStationCount(count int) error {
	if err := ValidateStationCount(count); err != nil {
		return err
	}

	s.mu.Lock()
	s.stations = count
	s.mu.Unlock()

	return nil
}

// ValidateStationCount returns ErrInvalidStationCount when count is outside 1..MaxStations.
func ValidateStationCount(count int) error {
	if count < 1 || count > MaxStations {
		return fmt.Errorf("%w, got %d", ErrInvalidStationCount, count)
	}
	return nil
}
