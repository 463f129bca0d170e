package fallback

import (
	"encoding/json"
	"testing"

	"github.com/stemacademy/site-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSections_AllPassShapeValidation(t *testing.T) {
	for key, build := range Sections() {
		t.Run(key, func(t *testing.T) {
			payload := build()
			require.NoError(t, models.ValidateSection(payload))
			assert.False(t, models.IsEmptySection(payload))
		})
	}
}

func TestSections_ReturnFreshValues(t *testing.T) {
	first := Activities()
	first[0].Title = "changed"

	assert.NotEqual(t, "changed", Activities()[0].Title)
}

func TestAboutBackground_Title(t *testing.T) {
	assert.Equal(t, "Background Information", AboutBackground().Title)
}

// A live payload and the fallback record must satisfy the same validator.
func TestAboutBackground_SameShapeAsLivePayload(t *testing.T) {
	live := []byte(`{
		"id": "rec123",
		"title": "Who We Are",
		"subtitle": "Our story",
		"description": "A community STEM initiative.",
		"highlights": [{"icon": "star", "title": "Hands-on"}],
		"metrics": [{"label": "Volunteers", "value": "40"}],
		"is_published": true,
		"order": 1
	}`)

	var section models.AboutSection
	require.NoError(t, json.Unmarshal(live, &section))

	assert.NoError(t, models.ValidateSection(section))
	assert.NoError(t, models.ValidateSection(AboutBackground()))

	fallbackKeys := jsonKeys(t, AboutBackground())
	liveKeys := jsonKeys(t, section)
	assert.ElementsMatch(t, liveKeys, fallbackKeys)
}

func TestPosts_HaveSlugs(t *testing.T) {
	for _, p := range Posts() {
		assert.NotEmpty(t, p.Slug)
	}
}

func jsonKeys(t *testing.T, v any) []string {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &m))
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
