package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatcherMatch(t *testing.T) {
	m := Matcher{Suffix: DefaultSuffix}

	tests := []struct {
		name string
		want bool
	}{
		{"web.docker", true},
		{"a.docker", true},
		{"my.app.docker", true},
		{".docker", false},
		{"docker", false},
		{"", false},
		{"web.docker.", false},
		{"web.Docker", false},
		{"web.DOCKER", false},
		{"web.dockers", false},
		{"example.com", false},
		{"webdocker", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, m.Match(tt.name), "Match(%q)", tt.name)
	}
}

func TestMatcherKey(t *testing.T) {
	m := Matcher{Suffix: DefaultSuffix}

	assert.Equal(t, "web", m.Key("web.docker"))
	assert.Equal(t, "a", m.Key("a.docker"))
	assert.Equal(t, "my.app", m.Key("my.app.docker"))
}

func TestMatcherCustomSuffix(t *testing.T) {
	m := Matcher{Suffix: ".containers.local"}

	assert.True(t, m.Match("db.containers.local"))
	assert.False(t, m.Match("db.docker"))
	assert.False(t, m.Match(".containers.local"))
	assert.Equal(t, "db", m.Key("db.containers.local"))
}
