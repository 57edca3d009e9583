package sync

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"
)

// Clock is the tempo-broadcast collaborator used by the processing
// goroutine: it applies accepted estimates and, on a drop, schedules a
// downbeat realignment for peers.
type Clock interface {
	UpdateTempo(bpm float64, isDrop bool, beatOffset time.Duration)
	PeerCount() int
}

const (
	tempoChangeThreshold = 0.1
	realignCooldown      = 10 * time.Second
	beatsPerBar          = 4
)

// UDPClock broadcasts tempo and realignment packets to a multicast group
// and learns peers passively from Presence packets it observes there. It
// never advertises itself via zeroconf/mDNS; discovery is out of scope.
type UDPClock struct {
	deviceID uint32
	group    *net.UDPAddr
	conn     *net.UDPConn
	clock    func() time.Time

	mu          sync.Mutex
	currentBPM  float64
	lastRealign time.Time
	peers       map[uint32]time.Time
	peerTimeout time.Duration
}

// Config configures a UDPClock.
type Config struct {
	DeviceID      uint32
	MulticastAddr string // e.g. "239.0.1.10:51234"
	Clock         func() time.Time
	PeerTimeout   time.Duration
}

// NewUDPClock opens a multicast UDP socket for the configured group and
// starts a background reader that updates peer bookkeeping. Call Close when
// done, or cancel ctx.
func NewUDPClock(ctx context.Context, cfg Config) (*UDPClock, error) {
	groupAddr, err := net.ResolveUDPAddr("udp4", cfg.MulticastAddr)
	if err != nil {
		return nil, fmt.Errorf("sync: resolve multicast addr: %w", err)
	}
	conn, err := net.ListenMulticastUDP("udp4", nil, groupAddr)
	if err != nil {
		return nil, fmt.Errorf("sync: listen multicast: %w", err)
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	peerTimeout := cfg.PeerTimeout
	if peerTimeout == 0 {
		peerTimeout = 30 * time.Second
	}

	c := &UDPClock{
		deviceID:    cfg.DeviceID,
		group:       groupAddr,
		conn:        conn,
		clock:       clock,
		peers:       make(map[uint32]time.Time),
		peerTimeout: peerTimeout,
	}

	go c.readLoop(ctx)
	go c.presenceLoop(ctx)

	return c, nil
}

// Close releases the underlying socket.
func (c *UDPClock) Close() error {
	return c.conn.Close()
}

// UpdateTempo applies a new estimate, broadcasting it only when it differs
// from the last broadcast tempo by more than the change threshold, and
// schedules a downbeat realignment on a drop if the cooldown has elapsed.
// The realign packet carries only the downbeat time (now - beatOffset);
// beatsPerBar is not sent and no bar position is computed.
func (c *UDPClock) UpdateTempo(bpm float64, isDrop bool, beatOffset time.Duration) {
	now := c.clock()

	c.mu.Lock()
	changed := tempoChanged(c.currentBPM, bpm)
	if changed {
		c.currentBPM = bpm
	}
	shouldRealign := dueForRealign(c.lastRealign, now, isDrop)
	if shouldRealign {
		c.lastRealign = now
	}
	c.mu.Unlock()

	if changed {
		c.send(encodeTempo(tempoPacket{deviceID: c.deviceID, bpm: bpm, isDrop: isDrop, beatOffset: beatOffset}))
	}
	if shouldRealign {
		downbeat := now.Add(-beatOffset)
		c.send(encodeRealign(realignPacket{deviceID: c.deviceID, downbeat: downbeat.UnixNano()}))
	}
}

// PeerCount returns the number of distinct devices seen on the group within
// the last peerTimeout.
func (c *UDPClock) PeerCount() int {
	now := c.clock()
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, last := range c.peers {
		if now.Sub(last) <= c.peerTimeout {
			n++
		}
	}
	return n
}

func (c *UDPClock) send(buf []byte) {
	_, _ = c.conn.WriteToUDP(buf, c.group)
}

func (c *UDPClock) readLoop(ctx context.Context) {
	buf := make([]byte, 64)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		n, _, err := c.conn.ReadFromUDP(buf)
		if err != nil {
			return
		}
		msg, err := decode(buf[:n])
		if err != nil {
			continue
		}
		c.observe(msg)
	}
}

func (c *UDPClock) observe(msg decoded) {
	now := c.clock()
	var id uint32
	switch msg.kind {
	case kindTempo:
		id = msg.tempo.deviceID
	case kindPresence:
		id = msg.presence.deviceID
	case kindRealign:
		id = msg.realign.deviceID
	default:
		return
	}
	if id == c.deviceID {
		return
	}
	c.mu.Lock()
	c.peers[id] = now
	c.mu.Unlock()
}

// presenceLoop periodically announces this device so peers can count it,
// without advertising it for active discovery by any other protocol.
func (c *UDPClock) presenceLoop(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.send(encodePresence(presencePacket{deviceID: c.deviceID}))
		}
	}
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// tempoChanged reports whether newBPM differs from current by more than
// the broadcast change threshold.
func tempoChanged(current, newBPM float64) bool {
	return absFloat(newBPM-current) > tempoChangeThreshold
}

// dueForRealign reports whether a drop should trigger a downbeat
// realignment broadcast given the cooldown since the last one.
func dueForRealign(lastRealign, now time.Time, isDrop bool) bool {
	return isDrop && now.Sub(lastRealign) >= realignCooldown
}
