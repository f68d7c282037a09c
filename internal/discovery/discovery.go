// Package discovery lets pouch instances find each other on a local
// network. A node announces {node_id, tcp_addr} over UDP and records
// the announcements it hears in a peer table. Discovery is opaque to
// the engine: peers are never consulted for reads, writes or
// replication.
package discovery

import (
	"context"
	"encoding/json"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"
)

// announcement is the one datagram type peers exchange.
type announcement struct {
	NodeID  string `json:"node_id"`
	TCPAddr string `json:"tcp_addr"`
}

// Peer is one known remote instance.
type Peer struct {
	NodeID   string
	TCPAddr  string
	LastSeen time.Time
}

// Beacon listens for peer announcements and, when a seed peer address
// is configured, announces itself to it at boot and on a slow tick.
type Beacon struct {
	log       *zap.Logger
	nodeID    string
	advertise string // TCP address announced to peers
	listen    string
	seed      string // optional peer to dial first

	mu    sync.Mutex
	peers map[string]Peer
}

func New(log *zap.Logger, nodeID, listen, advertise, seed string) *Beacon {
	return &Beacon{
		log:       log.Named("discovery"),
		nodeID:    nodeID,
		advertise: advertise,
		listen:    listen,
		seed:      seed,
		peers:     make(map[string]Peer),
	}
}

// Run serves the UDP socket until the context is cancelled.
func (b *Beacon) Run(ctx context.Context) error {
	addr, err := net.ResolveUDPAddr("udp", b.listen)
	if err != nil {
		return err
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return err
	}
	b.log.Info("discovery listener started", zap.String("addr", b.listen))

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	if b.seed != "" {
		go b.announceLoop(ctx)
	}

	buf := make([]byte, 1024)
	for {
		n, remote, err := conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			continue
		}
		b.handlePacket(conn, remote, buf[:n])
	}
}

// announceLoop sends our announcement to the seed peer at boot and
// every 30 seconds after, so a restarted seed relearns us.
func (b *Beacon) announceLoop(ctx context.Context) {
	t := time.NewTicker(30 * time.Second)
	defer t.Stop()
	for {
		if err := b.announce(); err != nil {
			b.log.Warn("announce failed", zap.String("peer", b.seed), zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

func (b *Beacon) announce() error {
	conn, err := net.Dial("udp", b.seed)
	if err != nil {
		return err
	}
	defer conn.Close()

	data, err := json.Marshal(announcement{NodeID: b.nodeID, TCPAddr: b.advertise})
	if err != nil {
		return err
	}
	_, err = conn.Write(data)
	return err
}

// handlePacket records the sender and answers with our own
// announcement so a single datagram introduces both sides.
func (b *Beacon) handlePacket(conn *net.UDPConn, remote *net.UDPAddr, data []byte) {
	var ann announcement
	if err := json.Unmarshal(data, &ann); err != nil || ann.NodeID == "" || ann.NodeID == b.nodeID {
		return
	}

	b.mu.Lock()
	_, known := b.peers[ann.NodeID]
	b.peers[ann.NodeID] = Peer{NodeID: ann.NodeID, TCPAddr: ann.TCPAddr, LastSeen: time.Now()}
	b.mu.Unlock()

	if !known {
		b.log.Info("peer discovered",
			zap.String("node_id", ann.NodeID), zap.String("tcp_addr", ann.TCPAddr))
		reply, err := json.Marshal(announcement{NodeID: b.nodeID, TCPAddr: b.advertise})
		if err == nil {
			conn.WriteToUDP(reply, remote)
		}
	}
}

// Peers returns a snapshot of the peer table.
func (b *Beacon) Peers() []Peer {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Peer, 0, len(b.peers))
	for _, p := range b.peers {
		out = append(out, p)
	}
	return out
}
