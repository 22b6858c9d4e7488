// Copyright (c) 2025-2026 Voyantic Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package sse

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleStream = "event: connected\n" +
	"data: {\"status\":\"ok\"}\n" +
	"\n" +
	": keep-alive comment\n" +
	"data: {\"type\":\"content\",\"content\":\"Hi \"}\n" +
	"\n" +
	"data: {\"type\":\"content\",\"content\":\"there!\"}\n" +
	"\n" +
	"retry: 3000\n" +
	"data: [DONE]\n" +
	"\n"

func decodeAll(t *testing.T, stream string, chunkSizes []int) []Event {
	t.Helper()

	var decoder Decoder
	var events []Event

	rest := []byte(stream)
	i := 0
	for len(rest) > 0 {
		size := chunkSizes[i%len(chunkSizes)]
		i++
		if size > len(rest) {
			size = len(rest)
		}
		events = append(events, decoder.Feed(rest[:size])...)
		rest = rest[size:]
	}
	if event, ok := decoder.Flush(); ok {
		events = append(events, event)
	}
	return events
}

// TestDecoder_SplitInvariance verifies that the decoded event sequence is
// identical for every chunking of the same byte stream, including delivery
// one byte at a time.
func TestDecoder_SplitInvariance(t *testing.T) {
	reference := decodeAll(t, sampleStream, []int{len(sampleStream)})
	require.Len(t, reference, 4)

	splits := [][]int{
		{1},
		{2},
		{3, 5},
		{7, 1, 13},
		{64},
		{1, len(sampleStream)},
	}

	for _, split := range splits {
		events := decodeAll(t, sampleStream, split)
		assert.Equal(t, reference, events, "chunk sizes %v", split)
	}
}

func TestDecoder_NamedEvents(t *testing.T) {
	events := decodeAll(t, sampleStream, []int{len(sampleStream)})
	require.Len(t, events, 4)

	assert.Equal(t, "connected", events[0].Name)
	assert.Equal(t, `{"status":"ok"}`, events[0].Data)

	// Unnamed data records carry no name
	assert.Equal(t, "", events[1].Name)
	assert.Equal(t, `{"type":"content","content":"Hi "}`, events[1].Data)

	assert.True(t, events[3].IsDone())
}

func TestDecoder_PartialTrailingFragmentRetained(t *testing.T) {
	var decoder Decoder

	events := decoder.Feed([]byte("data: {\"a\":"))
	assert.Empty(t, events)

	events = decoder.Feed([]byte("1}\n\n"))
	require.Len(t, events, 1)
	assert.Equal(t, `{"a":1}`, events[0].Data)
}

func TestDecoder_CRLFAndNoSpaceAfterColon(t *testing.T) {
	var decoder Decoder

	events := decoder.Feed([]byte("data:{\"a\":1}\r\n\r\n"))
	require.Len(t, events, 1)
	assert.Equal(t, `{"a":1}`, events[0].Data)
}

func TestDecoder_MultiLineData(t *testing.T) {
	var decoder Decoder

	events := decoder.Feed([]byte("data: first\ndata: second\n\n"))
	require.Len(t, events, 1)
	assert.Equal(t, "first\nsecond", events[0].Data)
}

func TestDecoder_IgnoresNonDataLines(t *testing.T) {
	var decoder Decoder

	events := decoder.Feed([]byte("id: 42\n: comment\nretry: 100\n\n"))
	assert.Empty(t, events)
}

func TestReader_FinalEventWithoutBlankLine(t *testing.T) {
	r := NewReader(strings.NewReader("data: tail\n"))

	event, err := r.ReadEvent()
	require.NoError(t, err)
	assert.Equal(t, "tail", event.Data)

	_, err = r.ReadEvent()
	assert.Equal(t, io.EOF, err)
}

func TestReader_FinalLineWithoutNewline(t *testing.T) {
	// The stream ends mid-line: no \n at all after the last record.
	r := NewReader(strings.NewReader("data: tail"))

	event, err := r.ReadEvent()
	require.NoError(t, err)
	assert.Equal(t, "tail", event.Data)

	_, err = r.ReadEvent()
	assert.Equal(t, io.EOF, err)
}

func TestDecoder_EventNameDoesNotLeakAcrossDispatch(t *testing.T) {
	var decoder Decoder

	// A named event with no data lines dispatches nothing, and its name
	// must not attach to the next unrelated record.
	events := decoder.Feed([]byte("event: price_update\n\n"))
	assert.Empty(t, events)

	events = decoder.Feed([]byte("data: x\n\n"))
	require.Len(t, events, 1)
	assert.Equal(t, "", events[0].Name)
	assert.Equal(t, "x", events[0].Data)
}

func TestReader_SequentialEvents(t *testing.T) {
	r := NewReader(strings.NewReader(sampleStream))

	var datas []string
	for {
		event, err := r.ReadEvent()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		datas = append(datas, event.Data)
	}

	require.Len(t, datas, 4)
	assert.Equal(t, "[DONE]", datas[3])
}
