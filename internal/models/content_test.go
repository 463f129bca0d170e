package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishedSorted(t *testing.T) {
	in := []Activity{
		{ID: "c", Order: 3, IsPublished: true},
		{ID: "hidden", Order: 0, IsPublished: false},
		{ID: "a", Order: 1, IsPublished: true},
		{ID: "b1", Order: 2, IsPublished: true},
		{ID: "b2", Order: 2, IsPublished: true},
	}

	out := PublishedSorted(in)

	ids := make([]string, 0, len(out))
	for _, a := range out {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []string{"a", "b1", "b2", "c"}, ids)
	assert.Len(t, in, 5, "input must not be modified")
}

func TestValidateSection(t *testing.T) {
	valid := Activity{ID: "1", Title: "Robotics", Description: "Build robots", IsPublished: true}

	tests := []struct {
		name    string
		payload any
		wantErr bool
		empty   bool
	}{
		{name: "single record", payload: AboutSection{ID: "bg", Title: "Background", Description: "d"}},
		{name: "pointer record", payload: &HeroSection{ID: "hero", Title: "Hi"}},
		{name: "list", payload: []Activity{valid}},
		{name: "nil", payload: nil, wantErr: true, empty: true},
		{name: "nil pointer", payload: (*HeroSection)(nil), wantErr: true, empty: true},
		{name: "empty list", payload: []Activity{}, wantErr: true, empty: true},
		{name: "missing title", payload: HeroSection{ID: "hero"}, wantErr: true},
		{name: "invalid list element", payload: []Activity{valid, {ID: "2"}}, wantErr: true},
		{name: "invalid nested highlight", payload: AboutSection{
			ID: "bg", Title: "t", Description: "d", Highlights: []Highlight{{Icon: "x"}},
		}, wantErr: true},
		{name: "invalid nested metric", payload: Outcome{
			ID: "o", Title: "t", Description: "d", Metric: &Metric{Label: "Students"},
		}, wantErr: true},
		{name: "bad social url", payload: TeamMember{
			ID: "m", Name: "n", Role: "r", Socials: Socials{GitHub: "not a url"},
		}, wantErr: true},
		{name: "unsupported kind", payload: "text", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSection(tt.payload)
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			if tt.empty {
				assert.ErrorIs(t, err, ErrEmptySection)
			}
		})
	}
}

func TestIsEmptySection(t *testing.T) {
	assert.True(t, IsEmptySection(nil))
	assert.True(t, IsEmptySection([]TeamMember{}))
	assert.True(t, IsEmptySection(HeroSection{}))
	assert.True(t, IsEmptySection((*HeroSection)(nil)))
	assert.False(t, IsEmptySection([]TeamMember{{ID: "1"}}))
	assert.False(t, IsEmptySection(HeroSection{ID: "hero"}))
}
