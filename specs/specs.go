// Package specs turns a user-supplied spec selector into the concrete list
// of spec files a filtered test bundle should include.
//
// A selector may be an absolute-style path, a path relative to the source
// root, or a glob, with or without the .spec suffix. Normalize canonicalizes
// the selector; Resolve expands it against the source tree.
package specs

import (
	"os"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"

	"github.com/bundler-infra/specrun/types"
)

const (
	// specMarker is the conventional infix of test-definition files.
	specMarker = ".spec"

	// defaultExt is appended when the selector carries no extension.
	defaultExt = ".ts"
)

// sourceExts are the extensions step 2 of Normalize rewrites into their
// spec-suffixed form.
var sourceExts = []string{".ts", ".tsx"}

// Normalize canonicalizes a spec selector into a glob relative to the
// source root. Pure string transformation, no error conditions. Glob
// metacharacters elsewhere in the selector do not change the suffix logic;
// only the trailing text matters.
func Normalize(pattern, sourceRoot string) string {
	if sourceRoot != "" {
		pattern = strings.TrimPrefix(pattern, sourceRoot+"/")
	}

	if strings.Contains(pattern, specMarker) {
		return pattern
	}

	for _, ext := range sourceExts {
		if strings.HasSuffix(pattern, ext) {
			return strings.TrimSuffix(pattern, ext) + specMarker + ext
		}
	}

	return pattern + specMarker + defaultExt
}

// Resolve expands a canonical pattern against baseDir and returns the
// matching paths relative to baseDir, in stable lexical order. A pattern
// matching zero files is user error (typo in the selector) and returns
// types.ErrNoMatch; it is never silently ignored.
func Resolve(pattern, baseDir string) ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(baseDir), pattern)
	if err != nil {
		return nil, errors.Wrapf(err, "expanding spec glob %q", pattern)
	}
	if len(matches) == 0 {
		return nil, types.ErrNoMatch
	}

	sort.Strings(matches)
	return matches, nil
}
