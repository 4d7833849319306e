package logtail

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
)

// maxLineBytes bounds a single line; longer lines are split.
const maxLineBytes = 1024 * 1024

// Tail returns at most maxLines complete lines from the end of the file at
// path, and the byte offset just past the last complete line. A non-positive
// maxLines returns every line. A missing file returns nil, 0, nil.
func Tail(path string, maxLines int) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	var (
		ring   []string
		idx    int
		count  int
		offset int64
	)
	if maxLines > 0 {
		ring = make([]string, maxLines)
	}
	err = scanComplete(file, func(line string, n int) {
		offset += int64(n)
		if maxLines <= 0 {
			ring = append(ring, line)
			count++
			return
		}
		ring[idx] = line
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	})
	if err != nil {
		return nil, 0, fmt.Errorf("read log: %w", err)
	}

	if maxLines <= 0 || count < maxLines {
		return ring[:count], offset, nil
	}
	lines := make([]string, count)
	for i := 0; i < count; i++ {
		lines[i] = ring[(idx+i)%maxLines]
	}
	return lines, offset, nil
}

// Chunk is the result of ReadFrom.
type Chunk struct {
	Lines     []string
	Offset    int64 // where the next read should resume
	Truncated bool  // the file shrank below the previous offset
}

// ReadFrom returns the complete lines written after offset. A trailing line
// without a newline is left for the next call. When the file is smaller than
// offset it was truncated or replaced, and reading restarts at zero.
func ReadFrom(path string, offset int64) (Chunk, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Chunk{Offset: offset}, nil
		}
		return Chunk{Offset: offset}, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return Chunk{Offset: offset}, fmt.Errorf("stat log: %w", err)
	}

	chunk := Chunk{Offset: offset}
	if info.Size() < offset {
		chunk.Offset = 0
		chunk.Truncated = true
	}
	if info.Size() == chunk.Offset {
		return chunk, nil
	}
	if _, err := file.Seek(chunk.Offset, io.SeekStart); err != nil {
		return Chunk{Offset: offset}, fmt.Errorf("seek log: %w", err)
	}

	err = scanComplete(io.LimitReader(file, info.Size()-chunk.Offset), func(line string, n int) {
		chunk.Lines = append(chunk.Lines, line)
		chunk.Offset += int64(n)
	})
	if err != nil {
		return Chunk{Offset: offset}, fmt.Errorf("read log: %w", err)
	}
	return chunk, nil
}

// scanComplete calls fn for every newline-terminated line in r with the line
// text (without line ending) and the number of bytes it consumed.
func scanComplete(r io.Reader, fn func(line string, n int)) error {
	reader := bufio.NewReaderSize(r, 64*1024)
	var pending []byte
	for {
		frag, err := reader.ReadSlice('\n')
		switch {
		case err == nil:
			if len(pending) > 0 {
				frag = append(pending, frag...)
				pending = pending[:0]
			}
			n := len(frag)
			fn(string(bytes.TrimRight(frag, "\r\n")), n)
		case errors.Is(err, bufio.ErrBufferFull):
			pending = append(pending, frag...)
			if len(pending) >= maxLineBytes {
				fn(string(pending), len(pending))
				pending = pending[:0]
			}
		case errors.Is(err, io.EOF):
			return nil
		default:
			return err
		}
	}
}
