package loader

// Phase is the one-way load phase of the native subsystem.
type Phase int

const (
	PhaseUnloaded Phase = iota
	PhaseLoaded
	PhaseInitialized
)

func (p Phase) String() string {
	switch p {
	case PhaseUnloaded:
		return "unloaded"
	case PhaseLoaded:
		return "loaded"
	case PhaseInitialized:
		return "initialized"
	default:
		return "unknown"
	}
}

// State is a read-only snapshot of the coordinator switches.
// CommandLineSwitched may flip before or after PhaseInitialized but never
// before PhaseLoaded.
type State struct {
	Phase               Phase
	CommandLineSwitched bool
}

func (s State) Loaded() bool {
	return s.Phase >= PhaseLoaded
}

func (s State) Initialized() bool {
	return s.Phase >= PhaseInitialized
}

// advance moves the phase forward and ignores backward moves.
func (s *State) advance(p Phase) {
	if p > s.Phase {
		s.Phase = p
	}
}

// Telemetry holds the one-way switches describing what the load attempted.
// They describe what was tried, so failed attempts do not roll them back.
type Telemetry struct {
	UsedSharedRelocationSharing bool
	FixedAddressLoadFailed      bool
	ArchiveDirectLoadSupported  bool
	UsedWorkaroundLoader        bool
}
