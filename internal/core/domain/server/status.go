package server

// InstallationStatus is reported to the host while the server is being resolved
type InstallationStatus string

const (
	StatusNone              InstallationStatus = "none"
	StatusCheckingForUpdate InstallationStatus = "checking-for-update"
	StatusFailed            InstallationStatus = "failed"
)

// DiscoveryState remembers whether the server has been found before.
// It is owned by a single extension instance.
type DiscoveryState struct {
	Found bool
}

// MarkFound records a confirmed successful resolution
func (s *DiscoveryState) MarkFound() {
	s.Found = true
}
