package ingest

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Cursor yields the ledger indexes still to be ingested. Progress is
// monotonic: once Next returns an index, the cursor never yields it
// again within the run, regardless of how the driver disposed of it.
type Cursor interface {
	// Next returns the next ledger index, or false when exhausted.
	Next() (uint64, bool)
}

// RangeCursor walks an inclusive [start, end] range in increasing order.
type RangeCursor struct {
	next uint64
	end  uint64
	done bool
}

// NewRangeCursor creates a cursor over [start, end], inclusive.
func NewRangeCursor(start, end uint64) (*RangeCursor, error) {
	if end < start {
		return nil, fmt.Errorf("invalid range [%d, %d]", start, end)
	}
	return &RangeCursor{next: start, end: end}, nil
}

func (c *RangeCursor) Next() (uint64, bool) {
	if c.done || c.next > c.end {
		return 0, false
	}
	idx := c.next
	if c.next == c.end {
		c.done = true // guard against wrap at MaxUint64
	} else {
		c.next++
	}
	return idx, true
}

// ListCursor consumes an externally supplied ordered list of indexes.
type ListCursor struct {
	ids []uint64
	pos int
}

// NewListCursor creates a cursor over an explicit index list.
func NewListCursor(ids []uint64) *ListCursor {
	return &ListCursor{ids: ids}
}

func (c *ListCursor) Next() (uint64, bool) {
	if c.pos >= len(c.ids) {
		return 0, false
	}
	idx := c.ids[c.pos]
	c.pos++
	return idx, true
}

// ReadLedgerList parses a newline-separated list of ledger indexes.
// Blank lines and lines starting with '#' are ignored.
func ReadLedgerList(r io.Reader) ([]uint64, error) {
	var ids []uint64
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		id, err := strconv.ParseUint(text, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid ledger index %q", line, text)
		}
		ids = append(ids, id)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read ledger list: %w", err)
	}
	return ids, nil
}
