package docker

// BridgeNetwork is the only network whose address is ever surfaced
const BridgeNetwork = "bridge"

// StatusRunning is the State.Status value of a running container
const StatusRunning = "running"

// ContainerState is the partial view of an inspect document the resolver needs
type ContainerState struct {
	ID       string  // Container ID
	Name     string  // Container name without the leading "/"
	Status   string  // State.Status, empty when absent
	BridgeIP *string // NetworkSettings.Networks.bridge.IPAddress, nil when absent
}

// Running reports whether the container is in the running state
func (s ContainerState) Running() bool {
	return s.Status == StatusRunning
}

// inspectDocument mirrors GET /containers/{id}/json. Every field is a
// pointer so a missing key can be told apart from an empty value.
type inspectDocument struct {
	ID              *string          `json:"Id"`
	Name            *string          `json:"Name"`
	State           *stateDocument   `json:"State"`
	NetworkSettings *networkSettings `json:"NetworkSettings"`
}

type stateDocument struct {
	Status *string `json:"Status"`
}

type networkSettings struct {
	Networks map[string]*endpointSettings `json:"Networks"`
}

type endpointSettings struct {
	IPAddress *string `json:"IPAddress"`
}
