package usecase

import (
	"podium/internal/domain"
	"podium/internal/ports"
)

// activeBroadcast bundles the resources of one running broadcast. The
// orchestrator detaches it from `current` before any teardown so late room
// events cannot resurrect state.
type activeBroadcast struct {
	session domain.Session
	room    ports.RoomHandle

	// done is closed once the room event consumer has drained.
	done chan struct{}
}
