// Package assets provides the files uebuild ships inside its binary so that
// `uebuild init` works even when the build root has no Templates directory.
package assets

import (
	"embed"
	"io/fs"
)

//go:embed templates/*.json
var templateFiles embed.FS

// ConfigTemplateName is the file name of the build config template, both
// embedded and under <BuildRoot>/Templates.
const ConfigTemplateName = "BuildConfig.template.json"

// GetTemplatesFS returns the embedded templates with the "templates/" prefix
// stripped.
func GetTemplatesFS() fs.FS {
	sub, err := fs.Sub(templateFiles, "templates")
	if err != nil {
		panic("failed to get templates subdirectory: " + err.Error())
	}
	return sub
}

// ConfigTemplate returns the embedded build config template.
func ConfigTemplate() []byte {
	data, err := fs.ReadFile(GetTemplatesFS(), ConfigTemplateName)
	if err != nil {
		panic("embedded config template missing: " + err.Error())
	}
	return data
}
