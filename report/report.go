package report

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/greynewell/intentbench/errors"
	"github.com/greynewell/intentbench/eval"
)

// Report formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Formats lists the accepted format names.
var Formats = []string{FormatText, FormatJSON, FormatYAML}

// Write renders st in the given format.
func Write(w io.Writer, format string, st *eval.Statistics) error {
	switch format {
	case FormatText, "":
		return Text(w, st)
	case FormatJSON:
		return JSON(w, st)
	case FormatYAML:
		return YAML(w, st)
	default:
		return errors.Newf(errors.CodeValidation, "unknown report format %q", format)
	}
}

// FormatFor picks a format from a file extension, defaulting to text.
func FormatFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatText
	}
}

// WriteFile writes the report to path in the format its extension names.
func WriteFile(path string, st *eval.Statistics) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(errors.CodeValidation, err, "create report %s", path)
	}
	if err := Write(f, FormatFor(path), st); err != nil {
		f.Close()
		return errors.Wrapf(errors.CodeInternal, err, "write report %s", path)
	}
	return f.Close()
}
