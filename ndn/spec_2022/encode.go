package spec_2022

import (
	"encoding/binary"
	"time"

	enc "github.com/ndn-go/ndnkit/encoding"
)

// Append helpers for TLV fields. All lengths fit the minimal TLNum width.

func appendTL(buf []byte, t enc.TLNum, l int) []byte {
	tmp := make([]byte, t.EncodingLength()+enc.TLNum(l).EncodingLength())
	p := t.EncodeInto(tmp)
	enc.TLNum(l).EncodeInto(tmp[p:])
	return append(buf, tmp...)
}

func appendNatField(buf []byte, t enc.TLNum, v uint64) []byte {
	val := enc.Nat(v).Bytes()
	buf = appendTL(buf, t, len(val))
	return append(buf, val...)
}

func appendBoolField(buf []byte, t enc.TLNum, set bool) []byte {
	if !set {
		return buf
	}
	return appendTL(buf, t, 0)
}

func appendBinField(buf []byte, t enc.TLNum, val []byte) []byte {
	buf = appendTL(buf, t, len(val))
	return append(buf, val...)
}

func appendStrField(buf []byte, t enc.TLNum, val string) []byte {
	buf = appendTL(buf, t, len(val))
	return append(buf, val...)
}

func appendFixed32Field(buf []byte, t enc.TLNum, v uint32) []byte {
	buf = appendTL(buf, t, 4)
	tmp := make([]byte, 4)
	binary.BigEndian.PutUint32(tmp, v)
	return append(buf, tmp...)
}

func appendFixed64Field(buf []byte, t enc.TLNum, v uint64) []byte {
	buf = appendTL(buf, t, 8)
	tmp := make([]byte, 8)
	binary.BigEndian.PutUint64(tmp, v)
	return append(buf, tmp...)
}

func appendTimeMsField(buf []byte, t enc.TLNum, d time.Duration) []byte {
	return appendNatField(buf, t, uint64(d/time.Millisecond))
}

func appendNameField(buf []byte, n enc.Name) []byte {
	buf = appendTL(buf, enc.TypeName, n.EncodingLength())
	return append(buf, n.BytesInner()...)
}

func (l *Links) encode(buf []byte) []byte {
	inner := []byte{}
	for _, n := range l.Names {
		inner = appendNameField(inner, n)
	}
	buf = appendTL(buf, TypeForwardingHint, len(inner))
	return append(buf, inner...)
}

func (m *MetaInfo) encode(buf []byte) []byte {
	inner := []byte{}
	if ct, ok := m.ContentType.Get(); ok {
		inner = appendNatField(inner, TypeContentType, ct)
	}
	if fp, ok := m.FreshnessPeriod.Get(); ok {
		inner = appendTimeMsField(inner, TypeFreshnessPeriod, fp)
	}
	if m.FinalBlockID != nil {
		inner = appendBinField(inner, TypeFinalBlockId, m.FinalBlockID)
	}
	buf = appendTL(buf, TypeMetaInfo, len(inner))
	return append(buf, inner...)
}

func (k *KeyLocator) encode(buf []byte) []byte {
	inner := []byte{}
	if k.Name != nil {
		inner = appendNameField(inner, k.Name)
	}
	if k.KeyDigest != nil {
		inner = appendBinField(inner, TypeKeyDigest, k.KeyDigest)
	}
	buf = appendTL(buf, TypeKeyLocator, len(inner))
	return append(buf, inner...)
}

func (v *ValidityPeriod) encode(buf []byte) []byte {
	inner := []byte{}
	inner = appendStrField(inner, TypeNotBefore, v.NotBefore)
	inner = appendStrField(inner, TypeNotAfter, v.NotAfter)
	buf = appendTL(buf, TypeValidityPeriod, len(inner))
	return append(buf, inner...)
}

// encode writes the SignatureInfo TLV with the given outer type,
// TypeDataSignatureInfo or TypeInterestSignatureInfo.
func (s *SignatureInfo) encode(buf []byte, t enc.TLNum) []byte {
	inner := []byte{}
	inner = appendNatField(inner, TypeSignatureType, s.SignatureType)
	if s.KeyLocator != nil {
		inner = s.KeyLocator.encode(inner)
	}
	if s.SignatureNonce != nil {
		inner = appendBinField(inner, TypeSignatureNonce, s.SignatureNonce)
	}
	if st, ok := s.SignatureTime.Get(); ok {
		inner = appendTimeMsField(inner, TypeSignatureTime, st)
	}
	if sn, ok := s.SignatureSeqNum.Get(); ok {
		inner = appendNatField(inner, TypeSignatureSeqNum, sn)
	}
	if s.ValidityPeriod != nil {
		inner = s.ValidityPeriod.encode(inner)
	}
	buf = appendTL(buf, t, len(inner))
	return append(buf, inner...)
}

// Encode assembles an LpPacket frame. The fragment buffers are chained
// into the result without copying.
func (lp *LpPacket) Encode() enc.Wire {
	fields := []byte{}
	if seq, ok := lp.Sequence.Get(); ok {
		fields = appendFixed64Field(fields, TypeLpSequence, seq)
	}
	if fi, ok := lp.FragIndex.Get(); ok {
		fields = appendNatField(fields, TypeLpFragIndex, fi)
	}
	if fc, ok := lp.FragCount.Get(); ok {
		fields = appendNatField(fields, TypeLpFragCount, fc)
	}
	if lp.PitToken != nil {
		fields = appendBinField(fields, TypeLpPitToken, lp.PitToken)
	}
	if lp.Nack != nil {
		inner := appendNatField([]byte{}, TypeLpNackReason, lp.Nack.Reason)
		fields = appendBinField(fields, TypeLpNack, inner)
	}
	if id, ok := lp.IncomingFaceId.Get(); ok {
		fields = appendNatField(fields, TypeLpIncomingFaceId, id)
	}
	if id, ok := lp.NextHopFaceId.Get(); ok {
		fields = appendNatField(fields, TypeLpNextHopFaceId, id)
	}
	if lp.CachePolicy != nil {
		inner := appendNatField([]byte{}, TypeLpCachePolicyType, lp.CachePolicy.CachePolicyType)
		fields = appendBinField(fields, TypeLpCachePolicy, inner)
	}
	if cm, ok := lp.CongestionMark.Get(); ok {
		fields = appendNatField(fields, TypeLpCongestionMark, cm)
	}

	fragLen := 0
	if lp.Fragment != nil {
		fragLen = int(lp.Fragment.Length())
		fields = appendTL(fields, TypeLpFragment, fragLen)
	}

	hdr := appendTL([]byte{}, TypeLpPacket, len(fields)+fragLen)
	wire := enc.Wire{hdr, fields}
	return append(wire, lp.Fragment...)
}
