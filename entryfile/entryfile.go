// Package entryfile rewrites a bundle entry template so that it pulls in an
// explicit list of spec files instead of a dynamic require context.
//
// The template conventionally contains:
//
//	declare const require: any;
//	const context = require.context('./', true, /\.spec\.ts$/);
//	context.keys().map(context);
//
// Synthesize strips the ambient require declaration, swaps the context call
// for an inert stub, and appends one static import per selected spec file.
// The output is a build artifact, fully overwritten on every run.
package entryfile

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// generatedInfix is inserted before the template's extension to derive the
// generated file path, so repeated runs overwrite the same file.
const generatedInfix = ".specrun"

// requireDeclPattern matches the ambient require declaration line.
var requireDeclPattern = regexp.MustCompile(`declare const require: any;\r?\n?`)

// contextCallPattern matches the first dynamic context invocation through
// the end of its statement.
var contextCallPattern = regexp.MustCompile(`require\.context\([^;]*;`)

// contextStub replaces the dynamic context call. It exposes the same
// keys()/map() shape the bundler API provides so the surrounding template
// code stays valid, but resolves no modules.
const contextStub = "{ keys: () => ({ map: () => { } }) };"

// sourceExts are stripped from spec paths when emitting import statements.
var sourceExts = []string{".ts", ".tsx"}

// GeneratedPath derives the output path for a template deterministically,
// inserting a fixed infix before the extension.
func GeneratedPath(templatePath string) string {
	ext := filepath.Ext(templatePath)
	return strings.TrimSuffix(templatePath, ext) + generatedInfix + ext
}

// ImportStatements renders one static import line per spec file, in input
// order, each path relative to the template's directory with its source
// extension stripped.
func ImportStatements(resolvedSpecs []string) []string {
	imports := make([]string, 0, len(resolvedSpecs))
	for _, spec := range resolvedSpecs {
		spec = filepath.ToSlash(spec)
		for _, ext := range sourceExts {
			if strings.HasSuffix(spec, ext) {
				spec = strings.TrimSuffix(spec, ext)
				break
			}
		}
		imports = append(imports, "import './"+spec+"';")
	}
	return imports
}

// Synthesize reads the entry template, applies the two rewrites and writes
// the result to outputPath, fully overwriting any existing content. Output
// is deterministic for identical template content and spec ordering. A
// template without a context call is rewritten as-is; only the missing
// template itself is an error.
func Synthesize(templatePath string, resolvedSpecs []string, outputPath string) error {
	source, err := os.ReadFile(templatePath)
	if err != nil {
		return errors.Wrap(err, "reading entry template")
	}

	text := requireDeclPattern.ReplaceAllString(string(source), "")

	if loc := contextCallPattern.FindStringIndex(text); loc != nil {
		replacement := contextStub + "\n" + strings.Join(ImportStatements(resolvedSpecs), "\n")
		text = text[:loc[0]] + replacement + text[loc[1]:]
	}

	if err := os.WriteFile(outputPath, []byte(text), 0o644); err != nil {
		return errors.Wrap(err, "writing generated entry file")
	}
	return nil
}
