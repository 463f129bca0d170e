package slug

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Robotics Day 2024", "robotics-day-2024"},
		{"  Science Fair: Results!  ", "science-fair-results"},
		{"Año Nuevo en el Club", "ano-nuevo-en-el-club"},
		{"C++ & Python---Basics", "c-python-basics"},
		{"!!!", ""},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, Generate(tt.title))
		})
	}
}

func TestGenerate_TruncatesLongTitles(t *testing.T) {
	s := Generate(strings.Repeat("word ", 40))
	assert.LessOrEqual(t, len(s), maxLength)
	assert.False(t, strings.HasSuffix(s, "-"))
	assert.True(t, IsValid(s))
}

func TestGenerateUnique(t *testing.T) {
	taken := map[string]bool{"robotics-day": true, "robotics-day-2": true}

	got := GenerateUnique("Robotics Day", func(s string) bool { return taken[s] })
	assert.Equal(t, "robotics-day-3", got)

	assert.Equal(t, "post", GenerateUnique("???", func(string) bool { return false }))
}

func TestIsValid(t *testing.T) {
	assert.True(t, IsValid("robotics-day-2024"))
	assert.False(t, IsValid("Robotics"))
	assert.False(t, IsValid("double--dash"))
	assert.False(t, IsValid("-leading"))
	assert.False(t, IsValid(""))
}
