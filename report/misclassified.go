package report

import (
	"bufio"
	"io"
	"os"

	"github.com/greynewell/intentbench/errors"
	"github.com/greynewell/intentbench/eval"
)

// Misclassified writes one "predicted\tcorrect\tquery" line per item.
func Misclassified(w io.Writer, items []eval.Misclassified) error {
	bw := bufio.NewWriter(w)
	for _, m := range items {
		bw.WriteString(m.Predicted)
		bw.WriteByte('\t')
		bw.WriteString(m.Correct)
		bw.WriteByte('\t')
		bw.WriteString(m.Query)
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// Open returns the destination for path, where "-" is stdout. Closing the
// stdout writer is a no-op.
func Open(path string, stdout io.Writer) (io.WriteCloser, error) {
	if path == "-" {
		return nopCloser{stdout}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(errors.CodeValidation, err, "open output %s", path)
	}
	return f, nil
}

// Destination names an output path for messages.
func Destination(path string) string {
	if path == "-" {
		return "<stdout>"
	}
	return path
}
