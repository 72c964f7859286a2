package face

import (
	"fmt"
	"time"

	enc "github.com/ndn-go/ndnkit/encoding"
)

// DummyFace is a face held in memory for testing. Packets sent by the
// engine are queued for Consume, and FeedPacket injects inbound packets.
type DummyFace struct {
	baseFace
	sendPkts []enc.Buffer
}

func NewDummyFace() *DummyFace {
	return &DummyFace{
		baseFace: newBaseFace(true),
		sendPkts: make([]enc.Buffer, 0),
	}
}

func (f *DummyFace) String() string {
	return "dummy-face"
}

func (f *DummyFace) Open() error {
	if f.onError == nil || f.onPkt == nil {
		return fmt.Errorf("face callbacks are not set")
	}
	if f.IsRunning() {
		return fmt.Errorf("face is already running")
	}
	f.setStateUp()
	return nil
}

func (f *DummyFace) Close() error {
	if !f.setStateClosed() {
		return fmt.Errorf("face is not running")
	}
	return nil
}

func (f *DummyFace) Send(pkt enc.Wire) error {
	if !f.IsRunning() {
		return fmt.Errorf("face is not running")
	}
	if len(pkt) == 1 {
		f.sendPkts = append(f.sendPkts, pkt[0])
	} else if len(pkt) >= 2 {
		f.sendPkts = append(f.sendPkts, pkt.Join())
	}
	return nil
}

// FeedPacket feeds a packet for the engine to consume
func (f *DummyFace) FeedPacket(pkt enc.Buffer) error {
	if !f.IsRunning() {
		return fmt.Errorf("face is not running")
	}
	f.onPkt(pkt)

	// hack: yield to give engine time to process the packet
	time.Sleep(10 * time.Millisecond)
	return nil
}

// Consume consumes a packet sent by the engine
func (f *DummyFace) Consume() (enc.Buffer, error) {
	if !f.IsRunning() {
		return nil, fmt.Errorf("face is not running")
	}

	// hack: yield to wait for packet to arrive
	time.Sleep(10 * time.Millisecond)

	if len(f.sendPkts) == 0 {
		return nil, fmt.Errorf("no packet to consume")
	}
	pkt := f.sendPkts[0]
	f.sendPkts = f.sendPkts[1:]
	return pkt, nil
}
