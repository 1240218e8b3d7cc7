// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"

	applog "github.com/zfurman56/live-spectrum/internal/log"
	"github.com/zfurman56/live-spectrum/internal/transport"
)

/*
UDP Packet Structure (BigEndian)

+------------------------------------------------------------------------------+
| Field             | Data Type      | Size (Bytes) | Description              |
|-------------------|----------------|--------------|--------------------------|
| Sequence Number   | uint32         | 4            | Monotonically increasing |
| Timestamp         | int64          | 8            | Nanoseconds since epoch  |
| Sample Rate       | float32        | 4            | Capture rate in Hz       |
| Envelope Count    | uint16         | 2            | Number of floats (N)     |
| Envelope          | []float32      | N * 4        | Smoothed spectrum values |
+------------------------------------------------------------------------------+

Visual Layout:

|<-- 4 Bytes -->|<---- 8 Bytes ---->|<-- 4 Bytes -->|<- 2 Bytes ->|<-- N * 4 Bytes -->|
+---------------+-------------------+---------------+-------------+-------------------+
|   Sequence    |     Timestamp     |  Sample Rate  |  Envelope   |     Envelope      |
|    Number     |      (int64)      |   (float32)   |    Count    |   (N * float32)   |
|   (uint32)    |                   |               |  (uint16)   |                   |
+---------------+-------------------+---------------+-------------+-------------------+
*/

// Transport packs spectrum frames into the binary packet format above and
// sends them through a Sender. It is driven by the publisher goroutine, so
// no internal locking is needed beyond what Sender provides.
type Transport struct {
	sender      *Sender
	sequenceNum uint32

	// Pre-allocated buffers to reduce allocations in the hot path (Send).
	f32Buffer    []float32     // float32 envelope values for binary packing
	packetBuffer *bytes.Buffer // reusable buffer for constructing the packet
}

// NewTransport creates a Transport that sends packed frames with the
// given Sender. binsHint pre-sizes the packing buffers.
func NewTransport(sender *Sender, binsHint int) (*Transport, error) {
	if sender == nil {
		return nil, fmt.Errorf("udp transport: sender cannot be nil")
	}
	if binsHint < 0 {
		binsHint = 0
	}

	return &Transport{
		sender:       sender,
		f32Buffer:    make([]float32, binsHint),
		packetBuffer: new(bytes.Buffer),
	}, nil
}

// Send packs the frame's envelope spectrum into a binary packet and
// transmits it. Only the envelope goes over UDP; renderers that want the
// raw spectrum use the WebSocket transport.
func (t *Transport) Send(frame transport.Frame) error {
	if len(frame.Envelope) > len(t.f32Buffer) {
		t.f32Buffer = make([]float32, len(frame.Envelope))
	}
	f32 := t.f32Buffer[:len(frame.Envelope)]
	for i, v := range frame.Envelope {
		f32[i] = float32(v)
	}

	t.sequenceNum++
	timestamp := time.Now().UnixNano()

	t.packetBuffer.Reset()

	err := binary.Write(t.packetBuffer, binary.BigEndian, t.sequenceNum)
	if err == nil {
		err = binary.Write(t.packetBuffer, binary.BigEndian, timestamp)
	}
	if err == nil {
		err = binary.Write(t.packetBuffer, binary.BigEndian, float32(frame.SampleRate))
	}
	if err == nil {
		err = binary.Write(t.packetBuffer, binary.BigEndian, uint16(len(f32)))
	}
	if err == nil {
		err = binary.Write(t.packetBuffer, binary.BigEndian, f32)
	}
	if err != nil {
		return fmt.Errorf("udp transport: packing frame: %w", err)
	}

	packetBytes := t.packetBuffer.Bytes()
	if err := t.sender.Send(packetBytes); err != nil {
		return err
	}

	applog.Debugf("UDP Transport: Sent packet %d (%d bytes)", t.sequenceNum, len(packetBytes))
	return nil
}

// Close closes the underlying sender.
func (t *Transport) Close() error {
	return t.sender.Close()
}

var _ transport.Transport = (*Transport)(nil)
