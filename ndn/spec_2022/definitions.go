package spec_2022

import (
	"time"

	enc "github.com/ndn-go/ndnkit/encoding"
	"github.com/ndn-go/ndnkit/types/optional"
)

// TLV type numbers of the NDN packet format, 2022 edition.
const (
	TypeInterest                enc.TLNum = 0x05
	TypeData                    enc.TLNum = 0x06
	TypeCanBePrefix             enc.TLNum = 0x21
	TypeMustBeFresh             enc.TLNum = 0x12
	TypeForwardingHint          enc.TLNum = 0x1e
	TypeNonce                   enc.TLNum = 0x0a
	TypeInterestLifetime        enc.TLNum = 0x0c
	TypeHopLimit                enc.TLNum = 0x22
	TypeApplicationParameters   enc.TLNum = 0x24
	TypeInterestSignatureInfo   enc.TLNum = 0x2c
	TypeInterestSignatureValue  enc.TLNum = 0x2e
	TypeMetaInfo                enc.TLNum = 0x14
	TypeContentType             enc.TLNum = 0x18
	TypeFreshnessPeriod         enc.TLNum = 0x19
	TypeFinalBlockId            enc.TLNum = 0x1a
	TypeContent                 enc.TLNum = 0x15
	TypeDataSignatureInfo       enc.TLNum = 0x16
	TypeDataSignatureValue      enc.TLNum = 0x17
	TypeSignatureType           enc.TLNum = 0x1b
	TypeKeyLocator              enc.TLNum = 0x1c
	TypeKeyDigest               enc.TLNum = 0x1d
	TypeSignatureNonce          enc.TLNum = 0x26
	TypeSignatureTime           enc.TLNum = 0x28
	TypeSignatureSeqNum         enc.TLNum = 0x2a
	TypeValidityPeriod          enc.TLNum = 0xfd
	TypeNotBefore               enc.TLNum = 0xfe
	TypeNotAfter                enc.TLNum = 0xff
	TypeLpPacket                enc.TLNum = 0x64
	TypeLpSequence              enc.TLNum = 0x51
	TypeLpFragIndex             enc.TLNum = 0x52
	TypeLpFragCount             enc.TLNum = 0x53
	TypeLpPitToken              enc.TLNum = 0x62
	TypeLpNack                  enc.TLNum = 0x0320
	TypeLpNackReason            enc.TLNum = 0x0321
	TypeLpIncomingFaceId        enc.TLNum = 0x032c
	TypeLpNextHopFaceId         enc.TLNum = 0x0330
	TypeLpCachePolicy           enc.TLNum = 0x0334
	TypeLpCachePolicyType       enc.TLNum = 0x0335
	TypeLpCongestionMark        enc.TLNum = 0x0340
	TypeLpFragment              enc.TLNum = 0x50
)

const (
	NackReasonNone       = uint64(0)
	NackReasonCongestion = uint64(50)
	NackReasonDuplicate  = uint64(100)
	NackReasonNoRoute    = uint64(150)
)

type Interest struct {
	NameV                 enc.Name
	CanBePrefixV          bool
	MustBeFreshV          bool
	ForwardingHintV       *Links
	NonceV                optional.Optional[uint32]
	InterestLifetimeV     optional.Optional[time.Duration]
	HopLimitV             *byte
	ApplicationParameters enc.Wire
	SignatureInfo         *SignatureInfo
	SignatureValue        enc.Wire
}

type Links struct {
	Names []enc.Name
}

type Data struct {
	NameV          enc.Name
	MetaInfo       *MetaInfo
	ContentV       enc.Wire
	SignatureInfo  *SignatureInfo
	SignatureValue enc.Wire
}

type MetaInfo struct {
	ContentType     optional.Optional[uint64]
	FreshnessPeriod optional.Optional[time.Duration]
	FinalBlockID    []byte
}

type SignatureInfo struct {
	SignatureType   uint64
	KeyLocator      *KeyLocator
	SignatureNonce  []byte
	SignatureTime   optional.Optional[time.Duration]
	SignatureSeqNum optional.Optional[uint64]
	ValidityPeriod  *ValidityPeriod
}

type KeyLocator struct {
	Name      enc.Name
	KeyDigest []byte
}

type ValidityPeriod struct {
	NotBefore string
	NotAfter  string
}

type LpPacket struct {
	Sequence       optional.Optional[uint64]
	FragIndex      optional.Optional[uint64]
	FragCount      optional.Optional[uint64]
	PitToken       []byte
	Nack           *NetworkNack
	IncomingFaceId optional.Optional[uint64]
	NextHopFaceId  optional.Optional[uint64]
	CachePolicy    *CachePolicy
	CongestionMark optional.Optional[uint64]
	Fragment       enc.Wire
}

type NetworkNack struct {
	Reason uint64
}

type CachePolicy struct {
	CachePolicyType uint64
}

// Packet is the union of the three top level packet types.
type Packet struct {
	Interest *Interest
	Data     *Data
	LpPacket *LpPacket
}
