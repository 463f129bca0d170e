package slug

import (
	"fmt"
	"regexp"
	"strings"
)

// accentsToASCII folds common accented letters so titles keep readable slugs
var accentsToASCII = map[rune]string{
	'à': "a", 'á': "a", 'â': "a", 'ã': "a", 'ä': "a", 'å': "a",
	'æ': "ae", 'ç': "c",
	'è': "e", 'é': "e", 'ê': "e", 'ë': "e",
	'ì': "i", 'í': "i", 'î': "i", 'ï': "i",
	'ñ': "n",
	'ò': "o", 'ó': "o", 'ô': "o", 'õ': "o", 'ö': "o", 'ø': "o",
	'ù': "u", 'ú': "u", 'û': "u", 'ü': "u",
	'ý': "y", 'ÿ': "y",
	'ß': "ss",
}

var (
	nonAlnumRegex = regexp.MustCompile(`[^a-z0-9]+`)
	validRegex    = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
)

const maxLength = 80

// Generate builds a URL-friendly slug from a title.
// Example: "Robotics Day: Año 2024!" -> "robotics-day-ano-2024"
func Generate(title string) string {
	var result strings.Builder
	for _, char := range strings.ToLower(title) {
		if ascii, exists := accentsToASCII[char]; exists {
			result.WriteString(ascii)
		} else {
			result.WriteRune(char)
		}
	}

	slug := nonAlnumRegex.ReplaceAllString(result.String(), "-")
	slug = strings.Trim(slug, "-")

	if len(slug) > maxLength {
		slug = strings.TrimRight(slug[:maxLength], "-")
	}

	return slug
}

// GenerateUnique returns Generate(title), suffixed -2, -3, ... until taken reports false
func GenerateUnique(title string, taken func(string) bool) string {
	base := Generate(title)
	if base == "" {
		base = "post"
	}
	candidate := base
	for i := 2; taken(candidate); i++ {
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
	return candidate
}

// IsValid reports whether s is already a well-formed slug
func IsValid(s string) bool {
	return len(s) <= maxLength && validRegex.MatchString(s)
}
