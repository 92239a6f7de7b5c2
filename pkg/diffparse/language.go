package diffparse

import (
	"path"

	"github.com/src-d/enry/v2"
)

// detectLanguage returns a language hint derived from the file name only;
// content is never inspected. It returns "" when no language matches.
func detectLanguage(filePath string) string {
	if filePath == "" {
		return ""
	}

	return enry.GetLanguage(path.Base(filePath), nil)
}
