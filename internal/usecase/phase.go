package usecase

import "podium/internal/domain"

// roomTransition is an input to the pure phase machine. Start/stop flows are
// sequenced imperatively by the orchestrator; everything driven by remote
// participant presence goes through nextPhase.
type roomTransition int

const (
	transitionAgentJoined roomTransition = iota
	transitionAgentLeft
	transitionRoomClosed
)

// nextPhase returns the phase that follows transition in the given phase and
// whether the transition is meaningful there. Transitions reported as not ok
// must be ignored by the caller, never treated as errors; stale room events
// can legitimately arrive in any phase.
func nextPhase(phase domain.SessionPhase, transition roomTransition) (domain.SessionPhase, bool) {
	switch transition {
	case transitionAgentJoined:
		switch phase {
		case domain.PhaseWaitingAgent, domain.PhaseAgentReconnecting:
			return domain.PhaseLive, true
		case domain.PhaseLive:
			// A second agent joining changes nothing.
			return domain.PhaseLive, true
		}
	case transitionAgentLeft:
		switch phase {
		case domain.PhaseLive:
			return domain.PhaseAgentReconnecting, true
		case domain.PhaseWaitingAgent, domain.PhaseAgentReconnecting:
			return phase, true
		}
	case transitionRoomClosed:
		if phase != domain.PhaseIdle {
			return domain.PhaseIdle, true
		}
	}
	return phase, false
}
