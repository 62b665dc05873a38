// Package heartbeat adapts fcheck/fcheck.go's UDP heartbeat/ack
// protocol from its original job - a coordinator watching a worker for
// failure - to the reverse direction: a worker pinging its conductor so
// the conductor can distinguish "worker crashed" from "worker still
// mid-superstep" during the 90s completion-report timeout (spec.md
// §4.G's completion-POST failure semantics leave that ambiguity
// otherwise unresolved).
package heartbeat

import (
	"bytes"
	"encoding/gob"
	"log"
	"net"
	"time"
)

// beat mirrors fcheck's HBeatMessage: an epoch nonce plus a sequence
// number so a receiver can distinguish stale acks from a previous
// monitoring session.
type beat struct {
	EpochNonce uint64
	SeqNum     uint64
}

// ack mirrors fcheck's AckMessage.
type ack struct {
	EpochNonce uint64
	SeqNum     uint64
}

// MissedThreshold is the number of consecutive un-acked heartbeats
// before Monitor reports the conductor as unreachable, mirroring
// fcheck's LostMsgThresh field.
const MissedThreshold = 3

const interval = 5 * time.Second
const ackWait = 3 * time.Second

// Monitor sends periodic UDP heartbeats to a conductor's ack address
// and reports on Missed when consecutive acks fail to arrive.
type Monitor struct {
	conn   *net.UDPConn
	nonce  uint64
	stop   chan struct{}
	Missed chan struct{}
	logger *log.Logger
}

// Start dials the conductor's heartbeat listener and begins sending
// heartbeats every interval. epochNonce should be unique per worker
// process start, matching fcheck's per-epoch ack-matching contract.
func Start(conductorHeartbeatAddr string, epochNonce uint64, logger *log.Logger) (*Monitor, error) {
	remoteAddr, err := net.ResolveUDPAddr("udp", conductorHeartbeatAddr)
	if err != nil {
		return nil, err
	}
	conn, err := net.DialUDP("udp", nil, remoteAddr)
	if err != nil {
		return nil, err
	}

	m := &Monitor{
		conn:   conn,
		nonce:  epochNonce,
		stop:   make(chan struct{}),
		Missed: make(chan struct{}, 1),
		logger: logger,
	}
	go m.run()
	return m, nil
}

// Stop closes the heartbeat connection and ends the send loop.
func (m *Monitor) Stop() {
	close(m.stop)
	m.conn.Close()
}

func (m *Monitor) run() {
	seq := uint64(0)
	missed := 0
	readAck := make(chan ack, 1)
	go m.readLoop(readAck)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			if err := m.send(seq); err != nil {
				m.logger.Printf("heartbeat: send: %v", err)
				continue
			}
			select {
			case a := <-readAck:
				if a.EpochNonce == m.nonce && a.SeqNum == seq {
					missed = 0
				}
			case <-time.After(ackWait):
				missed++
				if missed >= MissedThreshold {
					select {
					case m.Missed <- struct{}{}:
					default:
					}
				}
			}
			seq++
		}
	}
}

func (m *Monitor) send(seq uint64) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(beat{EpochNonce: m.nonce, SeqNum: seq}); err != nil {
		return err
	}
	_, err := m.conn.Write(buf.Bytes())
	return err
}

func (m *Monitor) readLoop(out chan<- ack) {
	buf := make([]byte, 512)
	for {
		if err := m.conn.SetReadDeadline(time.Now().Add(ackWait)); err != nil {
			return
		}
		n, err := m.conn.Read(buf)
		if err != nil {
			select {
			case <-m.stop:
				return
			default:
				continue
			}
		}
		var a ack
		if err := gob.NewDecoder(bytes.NewReader(buf[:n])).Decode(&a); err != nil {
			continue
		}
		select {
		case out <- a:
		default:
		}
	}
}
