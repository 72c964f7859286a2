// Package basic gives a default implementation of the Engine interface,
// connecting to a forwarder over a single face.
package basic

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	enc "github.com/ndn-go/ndnkit/encoding"
	"github.com/ndn-go/ndnkit/log"
	"github.com/ndn-go/ndnkit/ndn"
	spec "github.com/ndn-go/ndnkit/ndn/spec_2022"
	sig "github.com/ndn-go/ndnkit/security/signer"
	"github.com/ndn-go/ndnkit/types/optional"
)

const DefaultInterestLife = 4 * time.Second
const TimeoutMargin = 10 * time.Millisecond

type fibEntry struct {
	handler ndn.InterestHandler
	// checker overrides the engine wide Interest checker when set.
	checker ndn.SigChecker
}

type pendInt struct {
	callback    ndn.ExpressCallbackFunc
	deadline    time.Time
	canBePrefix bool
	// mustBeFresh is kept for completeness; freshness is enforced by
	// the cache or forwarder, not by us.
	mustBeFresh bool
	impSha256   []byte
	// checker overrides the engine wide Data checker when set.
	checker       ndn.SigChecker
	timeoutCancel func() error
}

type pitEntry = []*pendInt

var _ ndn.Engine = (*Engine)(nil)

type Engine struct {
	face  ndn.Face
	timer ndn.Timer

	// fib contains the attached Interest handlers.
	fib *NameTrie[fibEntry]
	// pit contains pending outgoing Interests.
	pit *NameTrie[pitEntry]

	// Since there is only one main goroutine, no need for RW locks.
	fibLock sync.Mutex
	pitLock sync.Mutex

	// intChecker validates signed inbound Interests.
	intChecker ndn.SigChecker
	// dataChecker validates inbound Data against pending Interests.
	dataChecker ndn.SigChecker

	// inQueue is the incoming packet queue.
	// The face will be blocked when the queue is full.
	inQueue chan []byte
	// taskQueue is the task queue for the main goroutine.
	taskQueue chan func()
	// close is the channel to signal the main goroutine to stop.
	close chan struct{}
	// running is the flag to indicate if the engine is running.
	running atomic.Bool
}

func NewEngine(face ndn.Face, timer ndn.Timer) *Engine {
	if face == nil || timer == nil {
		return nil
	}
	return &Engine{
		face:  face,
		timer: timer,

		fib: NewNameTrie[fibEntry](),
		pit: NewNameTrie[pitEntry](),

		intChecker:  sig.CheckAlwaysPass,
		dataChecker: sig.CheckAlwaysPass,

		inQueue:   make(chan []byte, 256),
		taskQueue: make(chan func(), 512),
		close:     make(chan struct{}),
	}
}

func (e *Engine) String() string {
	return "basic-engine"
}

func (e *Engine) EngineTrait() ndn.Engine {
	return e
}

func (*Engine) Spec() ndn.Spec {
	return spec.Spec{}
}

func (e *Engine) Timer() ndn.Timer {
	return e.timer
}

func (e *Engine) Face() ndn.Face {
	return e.face
}

func (e *Engine) AttachHandler(prefix enc.Name, handler ndn.InterestHandler) error {
	return e.AttachHandlerWithChecker(prefix, handler, nil)
}

// AttachHandlerWithChecker attaches a handler along with a signature
// checker applied to signed Interests under this prefix.
func (e *Engine) AttachHandlerWithChecker(
	prefix enc.Name, handler ndn.InterestHandler, checker ndn.SigChecker,
) error {
	e.fibLock.Lock()
	defer e.fibLock.Unlock()

	n := e.fib.MatchAlways(prefix)
	if n.Value().handler != nil {
		return fmt.Errorf("%w: %s", ndn.ErrMultipleHandlers, prefix)
	}
	n.SetValue(fibEntry{handler: handler, checker: checker})
	return nil
}

func (e *Engine) DetachHandler(prefix enc.Name) error {
	e.fibLock.Lock()
	defer e.fibLock.Unlock()

	n := e.fib.ExactMatch(prefix)
	if n == nil || n.Value().handler == nil {
		return ndn.ErrInvalidValue{Item: "prefix", Value: prefix}
	}
	n.SetValue(fibEntry{})
	n.PruneIf(func(fe fibEntry) bool { return fe.handler == nil })
	return nil
}

// SetSigCheckers replaces the engine wide signature checkers for
// inbound Interests and Data. A nil checker accepts everything.
func (e *Engine) SetSigCheckers(intChecker, dataChecker ndn.SigChecker) {
	if intChecker == nil {
		intChecker = sig.CheckAlwaysPass
	}
	if dataChecker == nil {
		dataChecker = sig.CheckAlwaysPass
	}
	e.intChecker = intChecker
	e.dataChecker = dataChecker
}

func (e *Engine) onPacket(frame []byte) {
	reader := enc.NewBufferView(frame)

	var nackReason uint64 = spec.NackReasonNone
	var pitToken []byte = nil
	var incomingFaceId optional.Optional[uint64]
	var raw enc.Wire = nil

	if log.HasTrace() {
		log.Trace(e, "Received packet bytes", "wire", hex.EncodeToString(frame))
	}

	// Parse the outer packet, either L2 or L3.
	pkt, sigCovered, err := spec.ReadPacket(reader)
	if err != nil {
		// Recoverable error. Should continue.
		log.Error(e, "Failed to parse packet", "err", err)
		return
	}

	if pkt.LpPacket != nil {
		lpPkt := pkt.LpPacket
		if lpPkt.FragIndex.IsSet() || lpPkt.FragCount.IsSet() {
			log.Warn(e, "Fragmented link packets are not supported - DROP")
			return
		}

		// Parse the inner packet.
		raw = lpPkt.Fragment
		pkt, sigCovered, err = spec.ReadPacket(enc.NewWireView(raw))
		if err != nil || (pkt.Data == nil) == (pkt.Interest == nil) {
			log.Error(e, "Failed to parse packet in LpPacket", "err", err)
			return
		}

		if lpPkt.Nack != nil {
			nackReason = lpPkt.Nack.Reason
		}
		pitToken = lpPkt.PitToken
		incomingFaceId = lpPkt.IncomingFaceId
	} else {
		raw = reader.Range(0, reader.Length())
	}

	switch {
	case nackReason != spec.NackReasonNone:
		if pkt.Interest == nil {
			log.Error(e, "Nack received for non-Interest", "reason", nackReason)
			return
		}
		log.Trace(e, "Nack received", "reason", nackReason, "name", pkt.Interest.Name())
		e.onNack(pkt.Interest.NameV, nackReason)
	case pkt.Interest != nil:
		log.Trace(e, "Interest received", "name", pkt.Interest.Name())
		e.onInterest(ndn.InterestHandlerArgs{
			Interest:       pkt.Interest,
			RawInterest:    raw,
			SigCovered:     sigCovered,
			PitToken:       pitToken,
			IncomingFaceId: incomingFaceId,
		})
	case pkt.Data != nil:
		log.Trace(e, "Data received", "name", pkt.Data.Name())
		e.onData(pkt.Data, sigCovered, raw)
	}
}

func (e *Engine) onInterest(args ndn.InterestHandlerArgs) {
	name := args.Interest.Name()

	args.Deadline = e.timer.Now().Add(
		args.Interest.Lifetime().GetOr(DefaultInterestLife))

	// Longest prefix match on the registration table.
	entry := func() fibEntry {
		e.fibLock.Lock()
		defer e.fibLock.Unlock()

		n := e.fib.PrefixMatch(name)
		for n != nil && n.Value().handler == nil {
			n = n.Parent()
		}
		if n != nil {
			return n.Value()
		}
		return fibEntry{}
	}()
	if entry.handler == nil {
		log.Warn(e, "No handler for interest", "name", name)
		return
	}

	// Signed Interests must pass the checker before dispatch.
	if args.Interest.Signature().SigType() != ndn.SignatureNone {
		checker := entry.checker
		if checker == nil {
			checker = e.intChecker
		}
		if !checker(name, args.SigCovered, args.Interest.Signature()) {
			log.Warn(e, "Interest signature check failed - DROP", "name", name)
			return
		}
	}

	args.Reply = e.newDataReplyFunc(args.PitToken)

	// Call the handler. The handler should create a goroutine to avoid
	// blocking. Do not `go` here because if Data is ready at hand,
	// creating a goroutine is slower.
	entry.handler(args)
}

func (e *Engine) newDataReplyFunc(pitToken []byte) ndn.WireReplyFunc {
	return func(dataWire enc.Wire) error {
		if dataWire == nil {
			return nil
		}
		if !e.IsRunning() || !e.face.IsRunning() {
			return ndn.ErrFaceDown
		}

		outWire := dataWire
		if pitToken != nil {
			lpPkt := &spec.LpPacket{
				PitToken: pitToken,
				Fragment: dataWire,
			}
			outWire = lpPkt.Encode()
		}
		return e.face.Send(outWire)
	}
}

type dataMatch struct {
	entry       *pendInt
	prefixMatch bool
}

// onDataMatch pops every pending Interest satisfied by the Data.
// Waiters whose signature checker rejects the Data are left pending.
func (e *Engine) onDataMatch(pkt *spec.Data, sigCovered enc.Wire, raw enc.Wire) []dataMatch {
	e.pitLock.Lock()
	defer e.pitLock.Unlock()

	name := pkt.NameV
	n := e.pit.PrefixMatch(name)

	ret := make([]dataMatch, 0, 4)
	for cur := n; cur != nil; cur = cur.Parent() {
		entries := cur.Value()
		for i := 0; i < len(entries); i++ {
			entry := entries[i]

			// We don't check MustBeFresh; freshness is decided by the
			// cache, not us.
			if cur.Depth() < len(name) && !entry.canBePrefix {
				continue
			}

			if entry.impSha256 != nil {
				h := sha256.New()
				for _, buf := range raw {
					h.Write(buf)
				}
				if !bytes.Equal(entry.impSha256, h.Sum(nil)) {
					continue
				}
			}

			checker := entry.checker
			if checker == nil {
				checker = e.dataChecker
			}
			if !checker(name, sigCovered, pkt.Signature()) {
				// The entry may be satisfied later or time out.
				continue
			}

			// pop entry
			entries[i] = entries[len(entries)-1]
			entries = entries[:len(entries)-1]
			i-- // recheck the current index
			ret = append(ret, dataMatch{
				entry:       entry,
				prefixMatch: cur.Depth() < len(name),
			})
		}
		cur.SetValue(entries)
	}

	n.PruneIf(func(lst pitEntry) bool { return len(lst) == 0 })
	return ret
}

func (e *Engine) onData(pkt *spec.Data, sigCovered enc.Wire, raw enc.Wire) {
	matches := e.onDataMatch(pkt, sigCovered, raw)
	if len(matches) == 0 {
		log.Warn(e, "Received data for no pending interest - DROP", "name", pkt.Name())
		return
	}

	for _, m := range matches {
		m.entry.timeoutCancel()
		m.entry.callback(ndn.ExpressCallbackArgs{
			Result:      ndn.InterestResultData,
			Data:        pkt,
			RawData:     raw,
			SigCovered:  sigCovered,
			NackReason:  spec.NackReasonNone,
			PrefixMatch: m.prefixMatch,
		})
	}
}

func (e *Engine) onNack(name enc.Name, reason uint64) {
	// PIT nodes are keyed with the implicit digest stripped.
	if name.At(-1).Typ == enc.TypeImplicitSha256DigestComponent {
		name = name.Prefix(-1)
	}

	entries := func() pitEntry {
		e.pitLock.Lock()
		defer e.pitLock.Unlock()

		n := e.pit.ExactMatch(name)
		if n == nil {
			log.Warn(e, "Received Nack for an unknown interest - DROP", "name", name)
			return nil
		}

		ret := n.Value()
		n.SetValue(nil)
		n.Prune()
		return ret
	}()

	for _, entry := range entries {
		entry.timeoutCancel()
		entry.callback(ndn.ExpressCallbackArgs{
			Result:     ndn.InterestResultNack,
			NackReason: reason,
		})
	}
}

func (e *Engine) Start() error {
	if e.face.IsRunning() {
		return fmt.Errorf("face is already running")
	}

	e.face.OnPacket(func(frame []byte) {
		// Copy received buffer from face so face can reuse it
		frameCopy := make([]byte, len(frame))
		copy(frameCopy, frame)
		e.inQueue <- frameCopy
	})
	e.face.OnError(func(err error) {
		log.Error(e, "Error on face", "err", err, "face", e.face)
		e.Stop()
	})

	err := e.face.Open()
	if err != nil {
		return err
	}

	e.running.Store(true)
	go func() {
		defer e.face.Close()
		defer e.running.Store(false)

		for {
			select {
			case frame := <-e.inQueue:
				e.onPacket(frame)
			case <-e.close:
				return
			case task := <-e.taskQueue:
				task()
			}
		}
	}()

	return nil
}

func (e *Engine) Stop() error {
	if !e.IsRunning() {
		return fmt.Errorf("engine is not running")
	}

	e.dropAllPending()
	e.close <- struct{}{} // closes face too
	return nil
}

// dropAllPending resolves every pending Interest with a cancellation
// result so no waiter is stranded across a shutdown.
func (e *Engine) dropAllPending() {
	dropped := func() []*pendInt {
		e.pitLock.Lock()
		defer e.pitLock.Unlock()

		ret := make([]*pendInt, 0)
		e.pit.Walk(func(n *NameTrie[pitEntry]) {
			ret = append(ret, n.Value()...)
			n.SetValue(nil)
		})
		return ret
	}()

	for _, entry := range dropped {
		entry.timeoutCancel()
		entry.callback(ndn.ExpressCallbackArgs{Result: ndn.InterestCancelled})
	}
}

func (e *Engine) IsRunning() bool {
	return e.running.Load()
}

func (e *Engine) onExpressTimeout(n *NameTrie[pitEntry]) {
	now := e.timer.Now()

	expired := func() []*pendInt {
		e.pitLock.Lock()
		defer e.pitLock.Unlock()

		ret := make([]*pendInt, 0, 4)
		entries := n.Value()
		for i := 0; i < len(entries); i++ {
			entry := entries[i]
			if entry.deadline.After(now) {
				continue
			}

			// pop entry
			entries[i] = entries[len(entries)-1]
			entries = entries[:len(entries)-1]
			i-- // recheck the current index
			ret = append(ret, entry)
		}

		n.SetValue(entries)
		n.PruneIf(func(lst pitEntry) bool { return len(lst) == 0 })

		return ret
	}()

	for _, entry := range expired {
		entry.callback(ndn.ExpressCallbackArgs{
			Result:     ndn.InterestResultTimeout,
			NackReason: spec.NackReasonNone,
		})
	}
}

func (e *Engine) Express(interest *ndn.EncodedInterest, callback ndn.ExpressCallbackFunc) (func(), error) {
	return e.ExpressWithChecker(interest, nil, callback)
}

// ExpressWithChecker expresses an Interest whose matching Data must
// pass the given checker instead of the engine wide one.
//
// Identical pending Interests are aggregated: only the first waiter
// puts the packet on the wire. The returned cancel function resolves
// this waiter alone with InterestCancelled.
func (e *Engine) ExpressWithChecker(
	interest *ndn.EncodedInterest, checker ndn.SigChecker, callback ndn.ExpressCallbackFunc,
) (func(), error) {
	var impSha256 []byte = nil

	finalName := interest.FinalName
	nodeName := interest.FinalName

	if callback == nil {
		callback = func(ndn.ExpressCallbackArgs) {}
	}

	// Strip the implicit digest into the waiter.
	if len(finalName) <= 0 {
		return nil, ndn.ErrInvalidValue{Item: "finalName", Value: finalName}
	}
	lastComp := finalName[len(finalName)-1]
	if lastComp.Typ == enc.TypeImplicitSha256DigestComponent {
		impSha256 = lastComp.Val
		nodeName = finalName[:len(finalName)-1]
	}

	lifetime := interest.Config.Lifetime.GetOr(DefaultInterestLife)
	deadline := e.timer.Now().Add(lifetime)

	var node *NameTrie[pitEntry]
	var entry *pendInt
	aggregated := func() bool {
		e.pitLock.Lock()
		defer e.pitLock.Unlock()

		node = e.pit.MatchAlways(nodeName)
		// Aggregate only with waiters for the identical Interest; a
		// different CanBePrefix or MustBeFresh encodes differently and
		// must go out on its own.
		existing := false
		for _, w := range node.Value() {
			if w.canBePrefix == interest.Config.CanBePrefix &&
				w.mustBeFresh == interest.Config.MustBeFresh {
				existing = true
				break
			}
		}
		entry = &pendInt{
			callback:    callback,
			deadline:    deadline,
			canBePrefix: interest.Config.CanBePrefix,
			mustBeFresh: interest.Config.MustBeFresh,
			impSha256:   impSha256,
			checker:     checker,
			timeoutCancel: e.timer.Schedule(lifetime+TimeoutMargin, func() {
				e.onExpressTimeout(node)
			}),
		}
		node.SetValue(append(node.Value(), entry))
		return existing
	}()

	cancel := func() { e.cancelPending(node, entry) }

	if aggregated {
		// An identical Interest is already in flight.
		log.Trace(e, "Interest aggregated", "name", finalName)
		return cancel, nil
	}

	// Wrap the interest in a link packet if needed.
	wire := interest.Wire
	if nextHop, ok := interest.Config.NextHopId.Get(); ok {
		lpPkt := &spec.LpPacket{
			Fragment: wire,
		}
		lpPkt.NextHopFaceId.Set(nextHop)
		wire = lpPkt.Encode()
	}

	err := e.face.Send(wire)
	if err != nil {
		log.Error(e, "Failed to send interest", "err", err)
		// The caller gets the error synchronously; unwind the waiter so
		// it is not also reported as a timeout later.
		e.removeWaiter(node, entry)
		entry.timeoutCancel()
		return nil, err
	}

	log.Trace(e, "Interest sent", "name", finalName)
	return cancel, nil
}

// removeWaiter unlinks a waiter from its PIT node, reporting whether it
// was still pending.
func (e *Engine) removeWaiter(node *NameTrie[pitEntry], target *pendInt) bool {
	e.pitLock.Lock()
	defer e.pitLock.Unlock()

	entries := node.Value()
	for i, entry := range entries {
		if entry != target {
			continue
		}
		entries[i] = entries[len(entries)-1]
		node.SetValue(entries[:len(entries)-1])
		node.PruneIf(func(lst pitEntry) bool { return len(lst) == 0 })
		return true
	}
	return false
}

// cancelPending resolves a single waiter with InterestCancelled.
// Does nothing if the waiter was already resolved.
func (e *Engine) cancelPending(node *NameTrie[pitEntry], target *pendInt) {
	if e.removeWaiter(node, target) {
		target.timeoutCancel()
		target.callback(ndn.ExpressCallbackArgs{Result: ndn.InterestCancelled})
	}
}

// PutData sends an encoded Data packet to the face unsolicited.
func (e *Engine) PutData(data *ndn.EncodedData) error {
	if data == nil {
		return ndn.ErrInvalidValue{Item: "data", Value: nil}
	}
	return e.SendRawPacket(data.Wire)
}

// SendRawPacket sends an already encoded packet to the face.
func (e *Engine) SendRawPacket(wire enc.Wire) error {
	if !e.IsRunning() || !e.face.IsRunning() {
		return ndn.ErrFaceDown
	}
	return e.face.Send(wire)
}

func (e *Engine) Post(task func()) {
	select {
	case e.taskQueue <- task:
	default:
		// Do not block in case this is being called from the
		// main goroutine itself - ideally this never happens.
		go func() { e.taskQueue <- task }()
	}
}
