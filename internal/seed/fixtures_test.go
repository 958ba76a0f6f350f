package seed

import (
	"testing"

	"scribe/internal/moderation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFixtures(t *testing.T) {
	f, err := LoadFixtures()
	require.NoError(t, err)

	assert.NotEmpty(t, f.Categories)
	assert.NotEmpty(t, f.Communities)
	assert.Equal(t, []string{"busy", "minimal", "standard"}, f.PresetNames())
	assert.Equal(t, 5, f.Presets["minimal"].Users)
}

func TestParseFixtures_Rejects(t *testing.T) {
	_, err := ParseFixtures([]byte("categories: [a]\npresets:\n  bad:\n    users: 0\n"))
	assert.ErrorContains(t, err, "preset bad")

	_, err = ParseFixtures([]byte("presets: {}\n"))
	assert.ErrorContains(t, err, "no categories")

	_, err = ParseFixtures([]byte("categories: [\n"))
	assert.Error(t, err)
}

func TestFactory_Post(t *testing.T) {
	f := NewFactory(1)

	in := f.Post(3, 9, false)
	assert.Equal(t, uint(3), in.AuthorID)
	require.NotNil(t, in.CategoryID)
	assert.Equal(t, uint(9), *in.CategoryID)
	assert.NotEmpty(t, in.Title)
	assert.NotEmpty(t, in.Description)
	assert.NotEmpty(t, in.Banner)
	assert.True(t, moderation.HasContent(in.Content))
	assert.NotEmpty(t, moderation.ExtractText(in.Content))

	draft := f.Post(3, 9, true)
	assert.True(t, draft.Draft)
	assert.Empty(t, draft.Banner)
}

func TestFactory_Deterministic(t *testing.T) {
	a, b := NewFactory(99), NewFactory(99)
	assert.Equal(t, a.User(1), b.User(1))
	assert.Equal(t, a.Comment(), b.Comment())

	u := a.User(5)
	assert.Contains(t, u.Email, ".5@example.com")
	assert.Equal(t, DefaultPassword, u.Password)
}
