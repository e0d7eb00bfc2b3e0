// SPDX-License-Identifier: MIT
package transport

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"net"
	"time"

	"audiovis/internal/analyzer"
	applog "audiovis/internal/log"
)

/*
UDP snapshot packet layout (BigEndian):

	+------------------+---------+----------------------------------------+
	| Field            | Type    | Description                            |
	+------------------+---------+----------------------------------------+
	| Sequence number  | uint32  | Monotonically increasing per packet    |
	| Timestamp        | int64   | Snapshot time, nanoseconds since epoch |
	| RMS level        | float32 | Window loudness proxy                  |
	| Peak level       | float32 | Max absolute sample in window          |
	| Band count       | uint16  | Number of bands (N)                    |
	| Magnitudes       | N f32   | Smoothed per-band values               |
	| Peak holds       | N f32   | Peak-hold per-band values              |
	+------------------+---------+----------------------------------------+
*/

// UDP ships binary snapshot packets to a fixed target address, one packet
// per Send. Pacing comes from the caller's frame loop.
type UDP struct {
	conn   *net.UDPConn
	seq    uint32
	packet bytes.Buffer // reused across sends
	closed bool
}

// NewUDP creates a publisher targeting addr in "host:port" form.
func NewUDP(addr string) (*UDP, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve UDP target %q: %w", addr, err)
	}
	conn, err := net.DialUDP("udp", nil, udpAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial UDP target %q: %w", addr, err)
	}

	applog.Infof("Transport: UDP publishing to %s", conn.RemoteAddr())
	return &UDP{conn: conn}, nil
}

// Send packs the snapshot and transmits it as a single datagram.
func (u *UDP) Send(snap analyzer.Snapshot) error {
	if u.closed {
		return fmt.Errorf("UDP transport is closed")
	}

	u.seq++
	u.packet.Reset()

	binary.Write(&u.packet, binary.BigEndian, u.seq)
	binary.Write(&u.packet, binary.BigEndian, snap.Timestamp.UnixNano())
	binary.Write(&u.packet, binary.BigEndian, float32(snap.RMS))
	binary.Write(&u.packet, binary.BigEndian, float32(snap.Peak))
	binary.Write(&u.packet, binary.BigEndian, uint16(len(snap.Magnitudes)))
	for _, v := range snap.Magnitudes {
		binary.Write(&u.packet, binary.BigEndian, float32(v))
	}
	for _, v := range snap.Peaks {
		binary.Write(&u.packet, binary.BigEndian, float32(v))
	}

	if _, err := u.conn.Write(u.packet.Bytes()); err != nil {
		return fmt.Errorf("failed to send UDP packet: %w", err)
	}
	return nil
}

// Close closes the underlying connection.
func (u *UDP) Close() error {
	if u.closed {
		return nil
	}
	u.closed = true
	return u.conn.Close()
}

var _ Transport = (*UDP)(nil)

// DecodePacket parses a snapshot packet, the inverse of Send's layout. Used
// by receivers and tests.
func DecodePacket(data []byte) (seq uint32, snap analyzer.Snapshot, err error) {
	r := bytes.NewReader(data)

	var ts int64
	var rms, peak float32
	var count uint16
	if err = binary.Read(r, binary.BigEndian, &seq); err == nil {
		err = binary.Read(r, binary.BigEndian, &ts)
	}
	if err == nil {
		err = binary.Read(r, binary.BigEndian, &rms)
	}
	if err == nil {
		err = binary.Read(r, binary.BigEndian, &peak)
	}
	if err == nil {
		err = binary.Read(r, binary.BigEndian, &count)
	}
	if err != nil {
		return 0, snap, fmt.Errorf("short snapshot packet: %w", err)
	}

	mags := make([]float32, count)
	peaks := make([]float32, count)
	if err = binary.Read(r, binary.BigEndian, mags); err == nil {
		err = binary.Read(r, binary.BigEndian, peaks)
	}
	if err != nil {
		return 0, snap, fmt.Errorf("truncated snapshot packet: %w", err)
	}

	snap.Timestamp = time.Unix(0, ts)
	snap.RMS = float64(rms)
	snap.Peak = float64(peak)
	snap.Magnitudes = make([]float64, count)
	snap.Peaks = make([]float64, count)
	for i := range mags {
		snap.Magnitudes[i] = float64(mags[i])
		snap.Peaks[i] = float64(peaks[i])
	}
	return seq, snap, nil
}
