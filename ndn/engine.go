package ndn

import (
	"time"

	enc "github.com/ndn-go/ndnkit/encoding"
	"github.com/ndn-go/ndnkit/types/optional"
)

// Engine represents a running NDN client engine.
type Engine interface {
	// String is the instance log identifier.
	String() string
	// EngineTrait is the type trait of the NDN engine.
	EngineTrait() Engine
	// Spec returns an NDN packet specification.
	Spec() Spec
	// Timer returns a Timer managed by the engine.
	Timer() Timer
	// Face returns the face of the engine.
	Face() Face

	// Start processing packets.
	// If the engine is attached to a face, this will attempt
	// to open the face, and may block until the face is up.
	Start() error
	// Stops processing packets.
	Stop() error
	// Checks if the engine is running.
	IsRunning() bool

	// AttachHandler attaches an Interest handler to the namespace of prefix.
	AttachHandler(prefix enc.Name, handler InterestHandler) error
	// AttachHandlerWithChecker attaches an Interest handler with a
	// signature checker for signed Interests under the prefix.
	AttachHandlerWithChecker(prefix enc.Name, handler InterestHandler, checker SigChecker) error
	// DetachHandler detaches an Interest handler from the namespace of prefix.
	DetachHandler(prefix enc.Name) error

	// Express expresses an Interest, with callback called when there is result.
	// To simplify the implementation, finalName needs to be the final Interest name given by MakeInterest.
	// The callback should create go routine or channel back to another routine to avoid blocking the main thread.
	// The returned cancel function resolves this waiter with InterestCancelled.
	Express(interest *EncodedInterest, callback ExpressCallbackFunc) (cancel func(), err error)
	// ExpressWithChecker is Express with a signature checker for the
	// fetched Data, overriding the engine default for this Interest only.
	ExpressWithChecker(interest *EncodedInterest, checker SigChecker, callback ExpressCallbackFunc) (cancel func(), err error)

	// PutData encodes nothing; it sends an already encoded Data packet
	// to the face, e.g. to answer an Interest out of band.
	PutData(data *EncodedData) error
	// SendRawPacket sends a raw encoded packet to the face.
	SendRawPacket(wire enc.Wire) error

	// SetSigCheckers sets the default signature checkers for inbound
	// Interests and fetched Data. Either may be nil to keep the current one.
	SetSigCheckers(intChecker SigChecker, dataChecker SigChecker)

	// Post a task to the engine goroutine (internal usage only).
	// Be careful not to deadlock the engine.
	Post(func())
}

type Timer interface {
	// Now returns current time.
	Now() time.Time
	// Sleep sleeps for the duration.
	Sleep(time.Duration)
	// Schedule schedules the callback function to be called after the duration,
	// and returns a cancel callback to cancel the scheduled function.
	Schedule(time.Duration, func()) func() error
	// Nonce generates a random nonce.
	Nonce() []byte
}

// ExpressCallbackFunc represents the callback function for Interest expression.
type ExpressCallbackFunc func(args ExpressCallbackArgs)

// ExpressCallbackArgs represents the arguments passed to the ExpressCallbackFunc.
type ExpressCallbackArgs struct {
	// Result of the Interest expression.
	// If the result is not InterestResultData, Data fields are invalid.
	Result InterestResult
	// Data fetched.
	Data Data
	// Raw Data wire.
	RawData enc.Wire
	// Signature covered part of the Data.
	SigCovered enc.Wire
	// NACK reason code, if the result is InterestResultNack.
	NackReason uint64
	// Error, if the result is InterestResultError.
	Error error
	// PrefixMatch indicates the Data name strictly extends the Interest
	// name (CanBePrefix match) rather than matching it exactly.
	PrefixMatch bool
}

// InterestHandler represents the callback function for an Interest handler.
// It should create a go routine to avoid blocking the main thread, if either
// 1) Data is not ready to send; or
// 2) Validation is required.
type InterestHandler func(args InterestHandlerArgs)

// Extra information passed to the InterestHandler
type InterestHandlerArgs struct {
	// Decoded interest packet
	Interest Interest
	// Function to reply to the Interest
	Reply WireReplyFunc
	// Raw Interest packet wire
	RawInterest enc.Wire
	// Signature covered part of the Interest
	SigCovered enc.Wire
	// Deadline of the Interest
	Deadline time.Time
	// PIT token
	PitToken []byte
	// Incoming face ID (if available)
	IncomingFaceId optional.Optional[uint64]
}

// WireReplyFunc represents the callback function to reply for an Interest.
type WireReplyFunc func(wire enc.Wire) error
