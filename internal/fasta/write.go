package fasta

import (
	"io"
	"strings"
)

// Writer writes Records as FASTA with sequence lines wrapped at a fixed width.
type Writer struct {
	w     io.Writer
	width int
	buf   []byte
}

// NewWriter returns a Writer. A width <= 0 writes each sequence on one line.
func NewWriter(w io.Writer, width int) *Writer {
	return &Writer{w: w, width: width}
}

// Write a single record.
func (w *Writer) Write(rec *Record) error {
	w.buf = w.buf[:0]
	w.buf = append(w.buf, '>')
	w.buf = append(w.buf, title(rec)...)
	w.buf = append(w.buf, '\n')

	s := rec.Seq
	if w.width <= 0 {
		if len(s) > 0 {
			w.buf = append(w.buf, s...)
			w.buf = append(w.buf, '\n')
		}
	} else {
		for len(s) > 0 {
			n := w.width
			if n > len(s) {
				n = len(s)
			}
			w.buf = append(w.buf, s[:n]...)
			w.buf = append(w.buf, '\n')
			s = s[n:]
		}
	}

	_, err := w.w.Write(w.buf)
	return err
}

// title is the header line. The description is used as is when it
// already starts with the ID, otherwise the ID is prepended.
func title(rec *Record) string {
	if rec.Description == "" {
		return rec.ID
	}

	first := rec.Description
	if fields := strings.Fields(rec.Description); len(fields) > 0 {
		first = fields[0]
	}
	if first == rec.ID {
		return rec.Description
	}
	return rec.ID + " " + rec.Description
}
