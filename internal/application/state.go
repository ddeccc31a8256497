package application

import (
	"sync"

	"lego-house/internal/domain"
)

// InstallationState is the process-wide state of the installation. It is
// created once at startup and handed to every component that needs it.
type InstallationState struct {
	mu      sync.Mutex
	mode    domain.Mode
	volume  int
	house   domain.HouseRequest
	tracked domain.TrackedPointSet
	ticks   uint64
}

// StateSnapshot is a read-only copy of InstallationState.
type StateSnapshot struct {
	Mode         string `json:"mode"`
	Volume       int    `json:"volume"`
	HouseRequest string `json:"house_request"`
	TrackedCount int    `json:"tracked_points"`
	Ticks        uint64 `json:"ticks"`
}

func NewInstallationState(mode domain.Mode, volume int) *InstallationState {
	return &InstallationState{
		mode:   mode,
		volume: volume,
		house:  domain.HouseRequestNone,
	}
}

func (s *InstallationState) Mode() domain.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

func (s *InstallationState) Volume() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

func (s *InstallationState) HouseRequest() domain.HouseRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.house
}

// RequestHouse records a pending house request. An unconsumed request is
// overwritten.
func (s *InstallationState) RequestHouse(r domain.HouseRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.house = r
}

// TakeHouseRequest returns the pending request and resets it to none.
func (s *InstallationState) TakeHouseRequest() domain.HouseRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.house
	s.house = domain.HouseRequestNone
	return r
}

func (s *InstallationState) Tracked() domain.TrackedPointSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracked
}

func (s *InstallationState) setTracked(t domain.TrackedPointSet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracked = t
	s.ticks++
}

func (s *InstallationState) setMode(m domain.Mode) (changed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode == m {
		return false
	}
	s.mode = m
	return true
}

func (s *InstallationState) setVolume(v int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volume = v
}

func (s *InstallationState) Snapshot() StateSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return StateSnapshot{
		Mode:         s.mode.String(),
		Volume:       s.volume,
		HouseRequest: s.house.String(),
		TrackedCount: s.tracked.Len(),
		Ticks:        s.ticks,
	}
}
