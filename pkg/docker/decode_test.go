package docker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	raw := `{"Id":"abc","Name":"/cache","State":{"Status":"running"},"NetworkSettings":{"Networks":{"bridge":{"IPAddress":"10.0.0.5"}}}}`

	state, err := Decode([]byte(raw))
	require.NoError(t, err)

	assert.Equal(t, "abc", state.ID)
	assert.Equal(t, "cache", state.Name)
	assert.Equal(t, "running", state.Status)
	assert.True(t, state.Running())
	require.NotNil(t, state.BridgeIP)
	assert.Equal(t, "10.0.0.5", *state.BridgeIP)
}

func TestDecodeOptionalFields(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		status string
		noIP   bool
	}{
		{"no state", `{"Id":"a","Name":"/a"}`, "", true},
		{"state without status", `{"Id":"a","Name":"/a","State":{}}`, "", true},
		{"null state", `{"Id":"a","Name":"/a","State":null}`, "", true},
		{"no network settings", `{"Id":"a","Name":"/a","State":{"Status":"exited"}}`, "exited", true},
		{"no networks", `{"Id":"a","Name":"/a","NetworkSettings":{}}`, "", true},
		{"other network only", `{"Id":"a","Name":"/a","NetworkSettings":{"Networks":{"app":{"IPAddress":"10.1.0.2"}}}}`, "", true},
		{"bridge without address", `{"Id":"a","Name":"/a","NetworkSettings":{"Networks":{"bridge":{}}}}`, "", true},
		{"bridge null", `{"Id":"a","Name":"/a","NetworkSettings":{"Networks":{"bridge":null}}}`, "", true},
		{"empty address", `{"Id":"a","Name":"/a","NetworkSettings":{"Networks":{"bridge":{"IPAddress":""}}}}`, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state, err := Decode([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.status, state.Status)
			assert.Equal(t, tt.noIP, state.BridgeIP == nil)
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty body", ``},
		{"syntax error", `{"Id":`},
		{"not an object", `[1,2,3]`},
		{"null document", `null`},
		{"missing id", `{"Name":"/a","State":{"Status":"running"}}`},
		{"missing name", `{"Id":"a","State":{"Status":"running"}}`},
		{"null id", `{"Id":null,"Name":"/a"}`},
		{"id not a string", `{"Id":12,"Name":"/a"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.raw))
			assert.ErrorIs(t, err, ErrDecode)
		})
	}
}

func TestDecodeNameWithoutSlash(t *testing.T) {
	state, err := Decode([]byte(`{"Id":"a","Name":"web"}`))
	require.NoError(t, err)
	assert.Equal(t, "web", state.Name)
}
