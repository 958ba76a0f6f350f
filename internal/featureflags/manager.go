package featureflags

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
	"sync"
)

// Manager evaluates flags configured as a comma separated key=value list,
// for example "publish_classifier=on,reconcile_ticker=off,new_editor=25%".
// Values can be overridden at runtime through Set.
type Manager struct {
	mu    sync.RWMutex
	flags map[string]string
}

// NewManager parses raw. Malformed pairs are skipped.
func NewManager(raw string) *Manager {
	out := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			continue
		}
		key, value = normalize(key), normalize(value)
		if key == "" || !validValue(value) {
			continue
		}
		out[key] = value
	}
	return &Manager{flags: out}
}

// Enabled reports whether name is on for userID. Values:
//   - on/true/1 and off/false/0
//   - N% rolls out to a stable N percent of users; anonymous callers
//     (userID 0) are excluded
//
// Unknown flags are off. A nil Manager has every flag off.
func (m *Manager) Enabled(name string, userID uint) bool {
	if m == nil {
		return false
	}
	m.mu.RLock()
	value, ok := m.flags[normalize(name)]
	m.mu.RUnlock()
	if !ok {
		return false
	}
	return evaluate(name, value, userID)
}

// On reports whether a global flag is switched on. Percentage rollouts
// count only when they cover everyone.
func (m *Manager) On(name string) bool {
	return m.Enabled(name, 0)
}

// Set overrides a flag until the process restarts.
func (m *Manager) Set(name, value string) error {
	if m == nil {
		return fmt.Errorf("feature flags are not configured")
	}
	name, value = normalize(name), normalize(value)
	if name == "" {
		return fmt.Errorf("flag name is required")
	}
	if !validValue(value) {
		return fmt.Errorf("invalid value %q for flag %s", value, name)
	}
	m.mu.Lock()
	m.flags[name] = value
	m.mu.Unlock()
	return nil
}

// Raw returns a copy of the configured values.
func (m *Manager) Raw() map[string]string {
	out := map[string]string{}
	if m == nil {
		return out
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for k, v := range m.flags {
		out[k] = v
	}
	return out
}

// Snapshot evaluates every configured flag for one user.
func (m *Manager) Snapshot(userID uint) map[string]bool {
	out := map[string]bool{}
	for name, value := range m.Raw() {
		out[name] = evaluate(name, value, userID)
	}
	return out
}

func evaluate(name, value string, userID uint) bool {
	switch value {
	case "on", "true", "1":
		return true
	case "off", "false", "0":
		return false
	}
	pct, ok := percent(value)
	if !ok || pct <= 0 {
		return false
	}
	if pct >= 100 {
		return true
	}
	if userID == 0 {
		return false
	}
	return rolloutBucket(name, userID) < pct
}

func percent(value string) (int, bool) {
	raw, ok := strings.CutSuffix(value, "%")
	if !ok {
		return 0, false
	}
	pct, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return pct, true
}

func validValue(value string) bool {
	switch value {
	case "on", "true", "1", "off", "false", "0":
		return true
	}
	_, ok := percent(value)
	return ok
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func rolloutBucket(name string, userID uint) int {
	h := fnv.New32a()
	_, _ = fmt.Fprintf(h, "%s:%d", normalize(name), userID)
	return int(h.Sum32() % 100)
}
