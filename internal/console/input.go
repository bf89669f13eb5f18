package console

import (
	"bufio"
	stderrors "errors"
	"io"
	"strings"
)

// MaxLineLength is the number of bytes of an input line that are kept.
const MaxLineLength = 255

// readLine reads one line and keeps at most MaxLineLength bytes of it. The
// line terminator is stripped. A final line without terminator is returned
// before io.EOF.
func readLine(r *bufio.Reader) (string, error) {
	var buf []byte
	for {
		frag, isPrefix, err := r.ReadLine()
		if err != nil {
			return "", err
		}
		if room := MaxLineLength - len(buf); room > 0 {
			if len(frag) > room {
				frag = frag[:room]
			}
			buf = append(buf, frag...)
		}
		if !isPrefix {
			break
		}
	}
	return strings.TrimRight(string(buf), "\r"), nil
}

func (c *Console) readLines(lines chan<- string, stop <-chan struct{}) {
	defer close(lines)
	if c.in == nil {
		return
	}
	r := bufio.NewReader(c.in)
	for {
		line, err := readLine(r)
		if err != nil {
			if !stderrors.Is(err, io.EOF) {
				c.logger.Debug("input closed", c.logger.Args("error", err.Error()))
			}
			return
		}
		select {
		case lines <- line:
		case <-stop:
			return
		}
	}
}
