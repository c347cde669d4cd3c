package progress

import "io"

// ProgressReader reports the cumulative bytes read through it
type ProgressReader struct {
	reader      io.Reader
	reporter    Reporter
	transferred int64
}

// NewProgressReader wraps r. A nil reporter disables reporting.
func NewProgressReader(r io.Reader, reporter Reporter) *ProgressReader {
	return &ProgressReader{reader: r, reporter: reporter}
}

func (pr *ProgressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	if n > 0 {
		pr.transferred += int64(n)
		if pr.reporter != nil {
			pr.reporter.Update(pr.transferred)
		}
	}
	return n, err
}

// Transferred returns the bytes read so far
func (pr *ProgressReader) Transferred() int64 {
	return pr.transferred
}

// ProgressWriter reports the cumulative bytes written through it
type ProgressWriter struct {
	writer      io.Writer
	reporter    Reporter
	transferred int64
}

// NewProgressWriter wraps w. A nil reporter disables reporting.
func NewProgressWriter(w io.Writer, reporter Reporter) *ProgressWriter {
	return &ProgressWriter{writer: w, reporter: reporter}
}

func (pw *ProgressWriter) Write(p []byte) (int, error) {
	n, err := pw.writer.Write(p)
	if n > 0 {
		pw.transferred += int64(n)
		if pw.reporter != nil {
			pw.reporter.Update(pw.transferred)
		}
	}
	return n, err
}

// Transferred returns the bytes written so far
func (pw *ProgressWriter) Transferred() int64 {
	return pw.transferred
}
