package procio

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	readBytesPrefix  = "read_bytes: "
	writeBytesPrefix = "write_bytes: "
)

// ErrInvalidIOFormat is wrapped by every parse failure of an io file.
var ErrInvalidIOFormat = errors.New("invalid io file format")

// ParseIOCounters parses the content of a /proc/<pid>/io file.
//
// Only the read_bytes and write_bytes lines are used. Each must appear
// exactly once and carry an unsigned 64-bit value; other lines are ignored.
// The returned counters have zero rates.
func ParseIOCounters(content string) (IoCounters, error) {
	var (
		read, write         uint64
		haveRead, haveWrite bool
	)

	for _, line := range strings.Split(content, "\n") {
		switch {
		case strings.HasPrefix(line, readBytesPrefix):
			if haveRead {
				return IoCounters{}, fmt.Errorf("%w: duplicate read_bytes", ErrInvalidIOFormat)
			}
			v, err := strconv.ParseUint(line[len(readBytesPrefix):], 10, 64)
			if err != nil {
				return IoCounters{}, fmt.Errorf("%w: read_bytes: %v", ErrInvalidIOFormat, err)
			}
			read, haveRead = v, true
		case strings.HasPrefix(line, writeBytesPrefix):
			if haveWrite {
				return IoCounters{}, fmt.Errorf("%w: duplicate write_bytes", ErrInvalidIOFormat)
			}
			v, err := strconv.ParseUint(line[len(writeBytesPrefix):], 10, 64)
			if err != nil {
				return IoCounters{}, fmt.Errorf("%w: write_bytes: %v", ErrInvalidIOFormat, err)
			}
			write, haveWrite = v, true
		}
	}

	if !haveRead {
		return IoCounters{}, fmt.Errorf("%w: missing read_bytes", ErrInvalidIOFormat)
	}
	if !haveWrite {
		return IoCounters{}, fmt.Errorf("%w: missing write_bytes", ErrInvalidIOFormat)
	}

	return IoCounters{
		TotalReadBytes:  read,
		TotalWriteBytes: write,
	}, nil
}
