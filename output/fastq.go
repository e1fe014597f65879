package output

import (
	"io"

	"github.com/relion-bio/fqproc/readstore"
)

var (
	atSign   = []byte{'@'}
	plusSign = []byte{'+'}
	newline  = []byte{'\n'}
)

// writeFASTQRecord serializes one read as a four-line FASTQ record,
// emitting '\n' line endings only (spec.md §6 "FASTQ on-the-wire"). Writing
// straight from the WrappedRead's byte-range accessors keeps this on the
// zero-copy path all the way to the wire for unmutated reads.
func writeFASTQRecord(w io.Writer, r readstore.WrappedRead) error {
	if _, err := w.Write(atSign); err != nil {
		return err
	}
	if _, err := w.Write(r.Name()); err != nil {
		return err
	}
	if _, err := w.Write(newline); err != nil {
		return err
	}
	if _, err := w.Write(r.Sequence()); err != nil {
		return err
	}
	if _, err := w.Write(newline); err != nil {
		return err
	}
	if _, err := w.Write(plusSign); err != nil {
		return err
	}
	if _, err := w.Write(newline); err != nil {
		return err
	}
	if _, err := w.Write(r.Quality()); err != nil {
		return err
	}
	_, err := w.Write(newline)
	return err
}
