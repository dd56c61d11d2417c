package build

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

const consoleMarker = "**************************"

// Renders container command output as a simulated console: a header line
// before the stream, the raw output line by line, and a closing marker
// after it.
//
// Writes are line buffered. A chunk that does not end on a line boundary
// is held back until the next chunk or the closing marker, so interleaved
// daemon chunks never split a line.
type console struct {
	out    io.Writer
	header string
	buf    bytes.Buffer
}

func newConsole(out io.Writer, header string) *console {
	return &console{out: out, header: header}
}

// Prints the header line.
func (c *console) begin() {
	fmt.Fprintf(c.out, "%s %s %s\n", consoleMarker, c.header, consoleMarker)
}

// Buffers the chunk and emits any complete lines it closes.
func (c *console) Write(p []byte) (int, error) {
	c.buf.Write(p)

	data := c.buf.Bytes()
	last := bytes.LastIndexByte(data, '\n')
	if last < 0 {
		return len(p), nil
	}

	if _, err := c.out.Write(data[:last+1]); err != nil {
		return len(p), err
	}

	rest := append([]byte(nil), data[last+1:]...)
	c.buf.Reset()
	c.buf.Write(rest)

	return len(p), nil
}

// Flushes any buffered partial line and prints the closing marker.
func (c *console) end() {
	if c.buf.Len() > 0 {
		fmt.Fprintf(c.out, "%s\n", c.buf.Bytes())
		c.buf.Reset()
	}
	fmt.Fprintln(c.out, consoleMarker+strings.Repeat("*", len(c.header)+2)+consoleMarker)
}
