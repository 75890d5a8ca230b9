package activity

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// maxLineBytes bounds one batch-log line. Paths cap out far below this.
const maxLineBytes = 1 << 20

// EncodeLine serializes one event as a batch-log line, newline included.
func EncodeLine(ev Event) ([]byte, error) {
	b, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("activity: encode event %s: %w", ev.EventID, err)
	}
	return append(b, '\n'), nil
}

// DecodeLine parses one batch-log line and checks the fields the
// recorder cannot work without.
func DecodeLine(line []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(line, &ev); err != nil {
		return Event{}, fmt.Errorf("activity: decode line: %w", err)
	}
	if ev.EventID == "" {
		return Event{}, fmt.Errorf("activity: line missing event_id")
	}
	if ev.Volume == "" {
		return Event{}, fmt.Errorf("activity: line missing volume")
	}
	if ev.Ops == nil {
		ev.Ops = []Op{}
	}
	return ev, nil
}

// ReadLog streams a batch log, invoking fn per event. Blank lines are
// skipped. Decode failures carry the line number; fn errors abort the
// scan and propagate unchanged.
func ReadLog(r io.Reader, fn func(Event) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		ev, err := DecodeLine(line)
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
		if err := fn(ev); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("activity: read batch log: %w", err)
	}
	return nil
}
