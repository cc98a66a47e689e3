package docker

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// ErrDecode is returned when an inspect document is malformed or lacks Id/Name
var ErrDecode = errors.New("invalid container document")

// Decode extracts a ContainerState from a raw inspect document.
// Missing State or network objects are not errors: they yield an empty
// status and a nil bridge address.
func Decode(raw []byte) (ContainerState, error) {
	var doc inspectDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return ContainerState{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	if doc.ID == nil {
		return ContainerState{}, fmt.Errorf("%w: missing field Id", ErrDecode)
	}
	if doc.Name == nil {
		return ContainerState{}, fmt.Errorf("%w: missing field Name", ErrDecode)
	}

	state := ContainerState{
		ID:       *doc.ID,
		Name:     strings.TrimPrefix(*doc.Name, "/"),
		BridgeIP: doc.bridgeIP(),
	}
	if doc.State != nil && doc.State.Status != nil {
		state.Status = *doc.State.Status
	}

	return state, nil
}

func (d *inspectDocument) bridgeIP() *string {
	if d.NetworkSettings == nil {
		return nil
	}

	ep := d.NetworkSettings.Networks[BridgeNetwork]
	if ep == nil {
		return nil
	}

	return ep.IPAddress
}
