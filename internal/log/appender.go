package log

import (
	"errors"
	"io"
)

// MultiWriter fans a log line out to every writer. Unlike io.MultiWriter it
// does not stop at the first failure: a broken log file must not silence
// the console, so every writer gets the line and the errors are joined.
type MultiWriter struct {
	writers []io.Writer
}

func (m *MultiWriter) Write(p []byte) (int, error) {
	var errs []error
	for _, w := range m.writers {
		n, err := w.Write(p)
		if err == nil && n < len(p) {
			err = io.ErrShortWrite
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return len(p), errors.Join(errs...)
}

func (m *MultiWriter) Add(writer io.Writer) *MultiWriter {
	m.writers = append(m.writers, writer)
	return m
}

func NewMultiWriter() *MultiWriter {
	return &MultiWriter{}
}
