package featureflags

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnabled_BooleanValues(t *testing.T) {
	m := NewManager("a=on,b=off,c=true,d=false,e=1,f=0")

	for _, name := range []string{"a", "c", "e"} {
		assert.True(t, m.Enabled(name, 1), name)
	}
	for _, name := range []string{"b", "d", "f", "missing"} {
		assert.False(t, m.Enabled(name, 1), name)
	}
}

func TestEnabled_Rollout(t *testing.T) {
	m := NewManager("always=100%,never=0%,canary=25%")

	assert.True(t, m.Enabled("always", 1))
	assert.True(t, m.On("always"))
	assert.False(t, m.Enabled("never", 1))
	assert.False(t, m.Enabled("canary", 0), "anonymous callers are outside partial rollouts")

	first := m.Enabled("canary", 42)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, m.Enabled("canary", 42))
	}

	hits := 0
	for id := uint(1); id <= 1000; id++ {
		if m.Enabled("canary", id) {
			hits++
		}
	}
	assert.InDelta(t, 250, hits, 80)
}

func TestNewManager_SkipsMalformedPairs(t *testing.T) {
	m := NewManager(" bad ,x=on, Y = 20% ,z=off,w=maybe,=on")

	raw := m.Raw()
	assert.Equal(t, map[string]string{"x": "on", "y": "20%", "z": "off"}, raw)
	assert.Len(t, m.Snapshot(123), 3)

	raw["x"] = "off"
	assert.True(t, m.Enabled("x", 1), "Raw must return a copy")
}

func TestSet(t *testing.T) {
	m := NewManager("")
	assert.False(t, m.On(PublishClassifier))

	require.NoError(t, m.Set("Publish_Classifier", "ON"))
	assert.True(t, m.On(PublishClassifier))

	assert.Error(t, m.Set(PublishClassifier, "sometimes"))
	assert.Error(t, m.Set(" ", "on"))
	assert.True(t, m.On(PublishClassifier))
}

func TestSet_Concurrent(t *testing.T) {
	m := NewManager("f=off")
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_ = m.Set("f", "on")
			}
			_ = m.Enabled("f", uint(i+1))
			_ = m.Snapshot(uint(i + 1))
		}(i)
	}
	wg.Wait()
	assert.True(t, m.On("f"))
}

func TestNilManager(t *testing.T) {
	var m *Manager
	assert.False(t, m.Enabled(PublishClassifier, 1))
	assert.Empty(t, m.Raw())
	assert.Empty(t, m.Snapshot(1))
	assert.Error(t, m.Set("x", "on"))
}
