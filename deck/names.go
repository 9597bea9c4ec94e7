package deck

import (
	"fmt"
	"strings"
)

// collectionNames maps (from, to) language codes to human deck names.
// Pairs outside the table get a generated fallback name.
var collectionNames = map[string]map[string]string{
	"es": {
		"en": "Español → Inglés",
		"fr": "Español → Francés",
		"pt": "Español → Portugués",
		"de": "Español → Alemán",
		"it": "Español → Italiano",
		"ru": "Español → Ruso",
		"ja": "Español → Japonés",
		"zh": "Español → Chino",
	},
	"en": {
		"es": "English → Spanish",
		"fr": "English → French",
		"de": "English → German",
		"ja": "English → Japanese",
	},
}

// ResolveName returns the collection name for a language pair. Total over
// all non-empty pairs: unmapped pairs yield "DuoFlash (FROM → TO)".
func ResolveName(from, to string) string {
	if m, ok := collectionNames[from]; ok {
		if name, ok := m[to]; ok {
			return name
		}
	}
	return fmt.Sprintf("DuoFlash (%s → %s)", strings.ToUpper(from), strings.ToUpper(to))
}
