package diag

import (
	"fmt"
	"io"

	"stitch/internal/source"
)

// Report writes one line per diagnostic:
//
//	path:line:col: severity: message [code]
//
// Spans are resolved against fs; a zero span prints without coordinates.
func Report(w io.Writer, fs *source.FileSet, b *Bag) error {
	for _, d := range b.Items() {
		var err error
		if int(d.Primary.File) >= fs.Len() {
			_, err = fmt.Fprintf(w, "%s: %s [%s]\n", d.Severity, d.Message, d.Code)
		} else if d.Primary.Empty() && d.Primary.Start == 0 {
			f := fs.Get(d.Primary.File)
			_, err = fmt.Fprintf(w, "%s: %s: %s [%s]\n", f.DisplayPath(fs.BaseDir()), d.Severity, d.Message, d.Code)
		} else {
			f := fs.Get(d.Primary.File)
			begin, _ := fs.ResolveBounds(d.Primary)
			_, err = fmt.Fprintf(w, "%s:%d:%d: %s: %s [%s]\n", f.DisplayPath(fs.BaseDir()), begin.Line, begin.Col, d.Severity, d.Message, d.Code)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
