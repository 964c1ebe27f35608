// Package dataset reads labeled evaluation data: one utterance and its
// expected label per line, tab-separated, no header.
package dataset

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/greynewell/intentbench/errors"
)

// Row is one labeled example.
type Row struct {
	Query string
	Label string
}

// Load reads rows from the file at path. "-" reads standard input.
func Load(path string) ([]Row, error) {
	if path == "-" {
		return Read(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(errors.CodeNotFound, err, "dataset %s", path)
		}
		return nil, errors.Wrapf(errors.CodeValidation, err, "dataset %s", path)
	}
	defer f.Close()
	return Read(f)
}

// Read parses tab-separated rows from r, one row per line. A field that
// opens with a quote is read up to its closing quote, so it may contain
// tabs, and a doubled quote inside it is a literal quote. Text after the
// closing quote is kept, as are quotes elsewhere in a field. Quoting never
// spans lines. Every non-blank line must have exactly two fields.
func Read(r io.Reader) ([]Row, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)

	var rows []Row
	for line := 1; sc.Scan(); line++ {
		text := strings.TrimSuffix(sc.Text(), "\r")
		if text == "" {
			continue
		}
		fields := splitFields(text)
		if len(fields) != 2 {
			return nil, errors.Newf(errors.CodeValidation, "dataset line %d: want 2 tab-separated fields, got %d", line, len(fields))
		}
		rows = append(rows, Row{Query: fields[0], Label: fields[1]})
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(errors.CodeValidation, err, "parse dataset")
	}
	return rows, nil
}

// maxLine bounds a single dataset line.
const maxLine = 1 << 20

func splitFields(line string) []string {
	var (
		fields []string
		field  strings.Builder
		quoted bool
		start  = true
	)
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case quoted && c == '"':
			if i+1 < len(line) && line[i+1] == '"' {
				field.WriteByte('"')
				i++
			} else {
				quoted = false
			}
		case quoted:
			field.WriteByte(c)
		case c == '\t':
			fields = append(fields, field.String())
			field.Reset()
			start = true
			continue
		case c == '"' && start:
			quoted = true
		default:
			field.WriteByte(c)
		}
		start = false
	}
	return append(fields, field.String())
}

// Labels returns the distinct expected labels in first-seen order.
func Labels(rows []Row) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range rows {
		if !seen[r.Label] {
			seen[r.Label] = true
			out = append(out, r.Label)
		}
	}
	return out
}
