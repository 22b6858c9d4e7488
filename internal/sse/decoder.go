// Copyright (c) 2025-2026 Voyantic Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package sse decodes server-sent event streams into logical records.
//
// Both streaming protocols in this client (the chat response stream and the
// push-update subscription) deliver text frames of the form
//
//	event: <name>\n
//	data: <json>\n
//	\n
//
// with chunks arriving at arbitrary byte boundaries. The decoder buffers
// incomplete trailing fragments across feeds, so the decoded event sequence
// is identical for every chunking of the same byte stream.
package sse

import (
	"bufio"
	"bytes"
	"io"
	"strings"
)

// DoneSentinel is the payload that terminates a stream. It is never decoded
// as a domain event.
const DoneSentinel = "[DONE]"

// MaxEventSize is the maximum allowed size for a single buffered event (64KB).
const MaxEventSize = 64 * 1024

// =============================================================================
// EVENT TYPE
// =============================================================================

// Event is one complete logical record from the stream. Name is the value of
// the preceding "event:" line, or empty for unnamed records. Data is the
// joined payload of the record's "data:" lines.
type Event struct {
	Name string
	Data string
}

// IsDone reports whether the event is the end-of-stream sentinel.
func (e Event) IsDone() bool {
	return e.Data == DoneSentinel
}

// =============================================================================
// INCREMENTAL DECODER
// =============================================================================

// Decoder accumulates raw chunks and yields complete events. The zero value
// is ready to use.
type Decoder struct {
	buf       []byte
	eventName string
	dataLines []string
}

// Feed appends a chunk of raw bytes and returns all events completed by it.
// Partial trailing text is retained and prefixed onto the next chunk; it is
// never dropped and never processed twice.
func (d *Decoder) Feed(chunk []byte) []Event {
	d.buf = append(d.buf, chunk...)

	var events []Event
	for {
		idx := bytes.IndexByte(d.buf, '\n')
		if idx < 0 {
			// A line with no boundary within MaxEventSize is discarded to
			// bound memory on a misbehaving server.
			if len(d.buf) > MaxEventSize {
				d.buf = nil
				d.reset()
			}
			break
		}
		line := d.buf[:idx]
		d.buf = d.buf[idx+1:]

		if event, ok := d.consumeLine(line); ok {
			events = append(events, event)
		}
	}
	return events
}

// Flush returns the event assembled from any pending data lines. Call it at
// end of stream so a final record without a trailing blank line is not lost.
func (d *Decoder) Flush() (Event, bool) {
	// A final line the stream never terminated with \n still counts.
	if len(d.buf) > 0 {
		line := d.buf
		d.buf = nil
		if event, ok := d.consumeLine(line); ok {
			return event, true
		}
	}
	if len(d.dataLines) == 0 {
		return Event{}, false
	}
	event := d.pendingEvent()
	d.reset()
	return event, true
}

// consumeLine processes one complete line and reports whether it finished an
// event.
func (d *Decoder) consumeLine(line []byte) (Event, bool) {
	line = bytes.TrimRight(line, "\r")

	// Blank line signals end of event. A dispatch boundary with no data
	// lines produces nothing, but still discards any pending event name so
	// it cannot leak onto the next record.
	if len(line) == 0 {
		if len(d.dataLines) == 0 {
			d.reset()
			return Event{}, false
		}
		event := d.pendingEvent()
		d.reset()
		return event, true
	}

	switch {
	case bytes.HasPrefix(line, []byte("data:")):
		data := bytes.TrimPrefix(line, []byte("data:"))
		if len(data) > 0 && data[0] == ' ' {
			data = data[1:]
		}
		d.dataLines = append(d.dataLines, string(data))
	case bytes.HasPrefix(line, []byte("event:")):
		d.eventName = string(bytes.TrimSpace(line[6:]))
	}
	// Ignore other fields (id:, retry:, comments starting with :)

	return Event{}, false
}

func (d *Decoder) pendingEvent() Event {
	return Event{
		Name: d.eventName,
		Data: strings.Join(d.dataLines, "\n"),
	}
}

func (d *Decoder) reset() {
	d.eventName = ""
	d.dataLines = nil
}

// =============================================================================
// STREAM READER
// =============================================================================

// Reader parses events from an io.Reader, one call per event.
type Reader struct {
	reader  *bufio.Reader
	decoder Decoder
	queue   []Event
}

// NewReader creates a Reader over the given stream.
func NewReader(r io.Reader) *Reader {
	return &Reader{reader: bufio.NewReader(r)}
}

// ReadEvent returns the next complete event from the stream. It returns
// io.EOF when the stream ends; a final record without a terminating blank
// line is returned before EOF.
func (r *Reader) ReadEvent() (Event, error) {
	for {
		if len(r.queue) > 0 {
			event := r.queue[0]
			r.queue = r.queue[1:]
			return event, nil
		}

		chunk := make([]byte, 4096)
		n, err := r.reader.Read(chunk)
		if n > 0 {
			r.queue = r.decoder.Feed(chunk[:n])
		}
		if err != nil {
			if len(r.queue) > 0 {
				continue
			}
			if err == io.EOF {
				if event, ok := r.decoder.Flush(); ok {
					return event, nil
				}
			}
			return Event{}, err
		}
	}
}
