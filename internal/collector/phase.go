package collector

// Phase names one state of a volume's collection loop.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseReading
	PhaseRecovering
	PhaseNormalizing
	PhaseRecording
	PhaseCheckpointing
	PhaseSleeping
	PhaseStopped
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseReading:
		return "reading"
	case PhaseRecovering:
		return "recovering"
	case PhaseNormalizing:
		return "normalizing"
	case PhaseRecording:
		return "recording"
	case PhaseCheckpointing:
		return "checkpointing"
	case PhaseSleeping:
		return "sleeping"
	case PhaseStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
