package main

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// tracked is an open dump whose reads drive a progress bar on stderr
// when stderr is a terminal.
type tracked struct {
	io.Reader
	file *os.File
	size int64
	bar  *progressbar.ProgressBar
}

func openTracked(path, desc string) (*tracked, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	t := &tracked{Reader: f, file: f, size: -1}
	if info, err := f.Stat(); err == nil {
		t.size = info.Size()
	}
	if isatty.IsTerminal(os.Stderr.Fd()) {
		t.bar = progressbar.NewOptions64(t.size,
			progressbar.OptionSetDescription(desc),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowBytes(true),
			progressbar.OptionClearOnFinish(),
		)
		t.Reader = io.TeeReader(f, t.bar)
	}
	return t, nil
}

// finish clears the bar; the file stays open until Close.
func (t *tracked) finish() {
	if t.bar != nil {
		t.bar.Finish()
	}
}

func (t *tracked) Close() error {
	return t.file.Close()
}
