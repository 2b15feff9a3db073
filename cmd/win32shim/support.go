package main

import (
	"bufio"
	"io"
	"os"

	"github.com/tsawler/win32shim/internal/host"
)

// newTraceHost returns the host backend the CLI drives scenarios against:
// a reference host whose writes are also echoed to stdout.
func newTraceHost() *host.StdioHost {
	return host.NewStdioHost(os.Stdout)
}

func newLineScanner(r io.Reader) *bufio.Scanner {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return s
}
