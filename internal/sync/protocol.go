// Package sync implements the UDP tempo-broadcast transport: a lightweight
// wire protocol for sharing tempo estimates and downbeat phase across
// devices on a multicast group. Peer discovery is intentionally not
// implemented; peers are learned passively from packets observed on the
// wire.
package sync

import (
	"encoding/binary"
	"errors"
	"math"
	"time"
)

// packetKind tags the wire format of a broadcast packet.
type packetKind uint8

const (
	kindTempo packetKind = iota + 1
	kindPresence
	kindRealign
)

const wireVersion uint8 = 1

// tempoPacket carries a tempo estimate and, on a drop, a beat offset used
// to realign peers' downbeats.
type tempoPacket struct {
	deviceID   uint32
	bpm        float64
	isDrop     bool
	beatOffset time.Duration
}

// presencePacket announces a device is alive on the group; it carries no
// tempo state and never triggers discovery of new capture devices.
type presencePacket struct {
	deviceID uint32
}

// realignPacket requests peers realign their downbeat to the given
// absolute time.
type realignPacket struct {
	deviceID  uint32
	downbeat  int64 // UnixNano
}

var errShortPacket = errors.New("sync: packet too short")
var errBadVersion = errors.New("sync: unsupported wire version")
var errUnknownKind = errors.New("sync: unknown packet kind")

// encodeTempo serialises a tempoPacket to its wire form:
// [version][kind][deviceID(4)][bpm(8)][isDrop(1)][beatOffsetNanos(8)]
func encodeTempo(p tempoPacket) []byte {
	buf := make([]byte, 2+4+8+1+8)
	buf[0] = wireVersion
	buf[1] = byte(kindTempo)
	binary.BigEndian.PutUint32(buf[2:6], p.deviceID)
	binary.BigEndian.PutUint64(buf[6:14], math.Float64bits(p.bpm))
	if p.isDrop {
		buf[14] = 1
	}
	binary.BigEndian.PutUint64(buf[15:23], uint64(p.beatOffset.Nanoseconds()))
	return buf
}

func encodePresence(p presencePacket) []byte {
	buf := make([]byte, 2+4)
	buf[0] = wireVersion
	buf[1] = byte(kindPresence)
	binary.BigEndian.PutUint32(buf[2:6], p.deviceID)
	return buf
}

func encodeRealign(p realignPacket) []byte {
	buf := make([]byte, 2+4+8)
	buf[0] = wireVersion
	buf[1] = byte(kindRealign)
	binary.BigEndian.PutUint32(buf[2:6], p.deviceID)
	binary.BigEndian.PutUint64(buf[6:14], uint64(p.downbeat))
	return buf
}

// decoded is the union of packet types recognised on the wire.
type decoded struct {
	kind     packetKind
	tempo    tempoPacket
	presence presencePacket
	realign  realignPacket
}

func decode(buf []byte) (decoded, error) {
	if len(buf) < 2 {
		return decoded{}, errShortPacket
	}
	if buf[0] != wireVersion {
		return decoded{}, errBadVersion
	}
	kind := packetKind(buf[1])
	switch kind {
	case kindTempo:
		if len(buf) < 23 {
			return decoded{}, errShortPacket
		}
		return decoded{kind: kind, tempo: tempoPacket{
			deviceID:   binary.BigEndian.Uint32(buf[2:6]),
			bpm:        math.Float64frombits(binary.BigEndian.Uint64(buf[6:14])),
			isDrop:     buf[14] == 1,
			beatOffset: time.Duration(binary.BigEndian.Uint64(buf[15:23])),
		}}, nil
	case kindPresence:
		if len(buf) < 6 {
			return decoded{}, errShortPacket
		}
		return decoded{kind: kind, presence: presencePacket{
			deviceID: binary.BigEndian.Uint32(buf[2:6]),
		}}, nil
	case kindRealign:
		if len(buf) < 14 {
			return decoded{}, errShortPacket
		}
		return decoded{kind: kind, realign: realignPacket{
			deviceID: binary.BigEndian.Uint32(buf[2:6]),
			downbeat: int64(binary.BigEndian.Uint64(buf[6:14])),
		}}, nil
	default:
		return decoded{}, errUnknownKind
	}
}
