package fabric

import "fmt"

// ErrDuplicateRegistration is returned when an endpoint id is registered
// twice without an intervening KILL_PIPE_NETWORK.
type ErrDuplicateRegistration struct {
	EndpointID string
}

func (e *ErrDuplicateRegistration) Error() string {
	return fmt.Sprintf("fabric: endpoint %q already registered", e.EndpointID)
}
