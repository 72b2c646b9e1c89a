package process

// ProcessSignal is a signal the launcher may send to the language server
type ProcessSignal int

const (
	SignalTerminate ProcessSignal = iota // SIGTERM
	SignalInterrupt                      // SIGINT
	SignalKill                           // SIGKILL
)

func (s ProcessSignal) String() string {
	switch s {
	case SignalTerminate:
		return "terminate"
	case SignalInterrupt:
		return "interrupt"
	case SignalKill:
		return "kill"
	default:
		return "unknown"
	}
}
