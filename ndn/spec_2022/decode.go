package spec_2022

import (
	"io"
	"time"

	enc "github.com/ndn-go/ndnkit/encoding"
	"github.com/ndn-go/ndnkit/types/optional"
)

// isCritical implements the TLV evolvability rule: an unrecognized
// field aborts parsing iff its type is critical.
func isCritical(t enc.TLNum) bool {
	return t <= 31 || t&1 == 1
}

func readTL(v *enc.WireView) (enc.TLNum, int, error) {
	typ, err := v.ReadTLNum()
	if err != nil {
		return 0, 0, err
	}
	l, err := v.ReadTLNum()
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return 0, 0, err
	}
	return typ, int(l), nil
}

// delegate carves out the value of the current TLV as a sub view.
func delegate(v *enc.WireView, l int) (enc.WireView, error) {
	if l > v.Length()-v.Pos() {
		return enc.WireView{}, enc.ErrBufferOverflow
	}
	return v.Delegate(l), nil
}

// readNat reads a natural number value of the current TLV.
// Lenient: any width up to 8 bytes is accepted.
func readNat(v *enc.WireView, l int) (uint64, error) {
	if l > 8 {
		return 0, enc.ErrFormat{Msg: "natural number too long"}
	}
	buf, err := v.ReadBuf(l)
	if err != nil {
		return 0, err
	}
	x := uint64(0)
	for _, b := range buf {
		x = (x << 8) | uint64(b)
	}
	return x, nil
}

func readName(v *enc.WireView, l int) (enc.Name, error) {
	d, err := delegate(v, l)
	if err != nil {
		return nil, err
	}
	return d.ReadName()
}

// fieldWalk enforces the declared field order of a TLV struct.
// rank returns a positive rank for known types and 0 for unknown ones.
type fieldWalk struct {
	last int
}

func (w *fieldWalk) check(typ enc.TLNum, rank int) error {
	if rank == 0 {
		if isCritical(typ) {
			return enc.ErrUnrecognizedField{TypeNum: typ}
		}
		return nil
	}
	if rank <= w.last {
		return enc.ErrFormat{Msg: "TLV field is duplicate or out of order"}
	}
	w.last = rank
	return nil
}

func readLinks(v *enc.WireView, l int) (*Links, error) {
	d, err := delegate(v, l)
	if err != nil {
		return nil, err
	}
	ret := &Links{}
	for !d.IsEOF() {
		typ, fl, err := readTL(&d)
		if err != nil {
			return nil, err
		}
		if typ != enc.TypeName {
			if isCritical(typ) {
				return nil, enc.ErrUnrecognizedField{TypeNum: typ}
			}
			if err := d.Skip(fl); err != nil {
				return nil, err
			}
			continue
		}
		name, err := readName(&d, fl)
		if err != nil {
			return nil, err
		}
		ret.Names = append(ret.Names, name)
	}
	return ret, nil
}

func readMetaInfo(v *enc.WireView, l int) (*MetaInfo, error) {
	d, err := delegate(v, l)
	if err != nil {
		return nil, err
	}
	ret := &MetaInfo{}
	walk := fieldWalk{}
	for !d.IsEOF() {
		typ, fl, err := readTL(&d)
		if err != nil {
			return nil, err
		}
		rank := 0
		switch typ {
		case TypeContentType:
			rank = 1
		case TypeFreshnessPeriod:
			rank = 2
		case TypeFinalBlockId:
			rank = 3
		}
		if err := walk.check(typ, rank); err != nil {
			return nil, err
		}
		switch typ {
		case TypeContentType:
			x, err := readNat(&d, fl)
			if err != nil {
				return nil, err
			}
			ret.ContentType = optional.Some(x)
		case TypeFreshnessPeriod:
			x, err := readNat(&d, fl)
			if err != nil {
				return nil, err
			}
			ret.FreshnessPeriod = optional.Some(time.Duration(x) * time.Millisecond)
		case TypeFinalBlockId:
			buf, err := d.ReadBuf(fl)
			if err != nil {
				return nil, err
			}
			ret.FinalBlockID = buf
		default:
			if err := d.Skip(fl); err != nil {
				return nil, err
			}
		}
	}
	return ret, nil
}

func readKeyLocator(v *enc.WireView, l int) (*KeyLocator, error) {
	d, err := delegate(v, l)
	if err != nil {
		return nil, err
	}
	ret := &KeyLocator{}
	walk := fieldWalk{}
	for !d.IsEOF() {
		typ, fl, err := readTL(&d)
		if err != nil {
			return nil, err
		}
		rank := 0
		switch typ {
		case enc.TypeName:
			rank = 1
		case TypeKeyDigest:
			rank = 2
		}
		if err := walk.check(typ, rank); err != nil {
			return nil, err
		}
		switch typ {
		case enc.TypeName:
			ret.Name, err = readName(&d, fl)
			if err != nil {
				return nil, err
			}
		case TypeKeyDigest:
			ret.KeyDigest, err = d.ReadBuf(fl)
			if err != nil {
				return nil, err
			}
		default:
			if err := d.Skip(fl); err != nil {
				return nil, err
			}
		}
	}
	return ret, nil
}

func readValidityPeriod(v *enc.WireView, l int) (*ValidityPeriod, error) {
	d, err := delegate(v, l)
	if err != nil {
		return nil, err
	}
	ret := &ValidityPeriod{}
	walk := fieldWalk{}
	for !d.IsEOF() {
		typ, fl, err := readTL(&d)
		if err != nil {
			return nil, err
		}
		rank := 0
		switch typ {
		case TypeNotBefore:
			rank = 1
		case TypeNotAfter:
			rank = 2
		}
		if err := walk.check(typ, rank); err != nil {
			return nil, err
		}
		switch typ {
		case TypeNotBefore, TypeNotAfter:
			buf, err := d.ReadBuf(fl)
			if err != nil {
				return nil, err
			}
			if typ == TypeNotBefore {
				ret.NotBefore = string(buf)
			} else {
				ret.NotAfter = string(buf)
			}
		default:
			if err := d.Skip(fl); err != nil {
				return nil, err
			}
		}
	}
	return ret, nil
}

func readSignatureInfo(v *enc.WireView, l int) (*SignatureInfo, error) {
	d, err := delegate(v, l)
	if err != nil {
		return nil, err
	}
	ret := &SignatureInfo{}
	walk := fieldWalk{}
	for !d.IsEOF() {
		typ, fl, err := readTL(&d)
		if err != nil {
			return nil, err
		}
		rank := 0
		switch typ {
		case TypeSignatureType:
			rank = 1
		case TypeKeyLocator:
			rank = 2
		case TypeSignatureNonce:
			rank = 3
		case TypeSignatureTime:
			rank = 4
		case TypeSignatureSeqNum:
			rank = 5
		case TypeValidityPeriod:
			rank = 6
		}
		if err := walk.check(typ, rank); err != nil {
			return nil, err
		}
		switch typ {
		case TypeSignatureType:
			ret.SignatureType, err = readNat(&d, fl)
			if err != nil {
				return nil, err
			}
		case TypeKeyLocator:
			ret.KeyLocator, err = readKeyLocator(&d, fl)
			if err != nil {
				return nil, err
			}
		case TypeSignatureNonce:
			ret.SignatureNonce, err = d.ReadBuf(fl)
			if err != nil {
				return nil, err
			}
		case TypeSignatureTime:
			x, err := readNat(&d, fl)
			if err != nil {
				return nil, err
			}
			ret.SignatureTime = optional.Some(time.Duration(x) * time.Millisecond)
		case TypeSignatureSeqNum:
			x, err := readNat(&d, fl)
			if err != nil {
				return nil, err
			}
			ret.SignatureSeqNum = optional.Some(x)
		case TypeValidityPeriod:
			ret.ValidityPeriod, err = readValidityPeriod(&d, fl)
			if err != nil {
				return nil, err
			}
		default:
			if err := d.Skip(fl); err != nil {
				return nil, err
			}
		}
	}
	return ret, nil
}

// readInterestValue parses the value of an Interest TLV.
// Returns the Interest, the signature covered wire and the params
// digest covered wire.
func readInterestValue(v *enc.WireView) (*Interest, enc.Wire, enc.Wire, error) {
	ret := &Interest{}
	walk := fieldWalk{}

	nameInnerStart, nameInnerEnd := 0, 0
	appRegionStart := -1
	sigInfoEnd := -1
	appRegionEnd := -1

	for !v.IsEOF() {
		tlvStart := v.Pos()
		typ, fl, err := readTL(v)
		if err != nil {
			return nil, nil, nil, err
		}
		rank := 0
		switch typ {
		case enc.TypeName:
			rank = 1
		case TypeCanBePrefix:
			rank = 2
		case TypeMustBeFresh:
			rank = 3
		case TypeForwardingHint:
			rank = 4
		case TypeNonce:
			rank = 5
		case TypeInterestLifetime:
			rank = 6
		case TypeHopLimit:
			rank = 7
		case TypeApplicationParameters:
			rank = 8
		case TypeInterestSignatureInfo:
			rank = 9
		case TypeInterestSignatureValue:
			rank = 10
		}
		if err := walk.check(typ, rank); err != nil {
			return nil, nil, nil, err
		}
		switch typ {
		case enc.TypeName:
			nameInnerStart = v.Pos()
			ret.NameV, err = readName(v, fl)
			if err != nil {
				return nil, nil, nil, err
			}
			nameInnerEnd = v.Pos()
		case TypeCanBePrefix:
			ret.CanBePrefixV = true
			if err := v.Skip(fl); err != nil {
				return nil, nil, nil, err
			}
		case TypeMustBeFresh:
			ret.MustBeFreshV = true
			if err := v.Skip(fl); err != nil {
				return nil, nil, nil, err
			}
		case TypeForwardingHint:
			ret.ForwardingHintV, err = readLinks(v, fl)
			if err != nil {
				return nil, nil, nil, err
			}
		case TypeNonce:
			x, err := readNat(v, fl)
			if err != nil {
				return nil, nil, nil, err
			}
			ret.NonceV = optional.Some(uint32(x))
		case TypeInterestLifetime:
			x, err := readNat(v, fl)
			if err != nil {
				return nil, nil, nil, err
			}
			ret.InterestLifetimeV = optional.Some(time.Duration(x) * time.Millisecond)
		case TypeHopLimit:
			x, err := readNat(v, fl)
			if err != nil {
				return nil, nil, nil, err
			}
			hl := byte(x)
			ret.HopLimitV = &hl
		case TypeApplicationParameters:
			appRegionStart = tlvStart
			ret.ApplicationParameters, err = v.ReadWire(fl)
			if err != nil {
				return nil, nil, nil, err
			}
			appRegionEnd = v.Pos()
		case TypeInterestSignatureInfo:
			if appRegionStart < 0 {
				appRegionStart = tlvStart
			}
			ret.SignatureInfo, err = readSignatureInfo(v, fl)
			if err != nil {
				return nil, nil, nil, err
			}
			sigInfoEnd = v.Pos()
			appRegionEnd = v.Pos()
		case TypeInterestSignatureValue:
			if appRegionStart < 0 {
				appRegionStart = tlvStart
			}
			ret.SignatureValue, err = v.ReadWire(fl)
			if err != nil {
				return nil, nil, nil, err
			}
			appRegionEnd = v.Pos()
		default:
			if err := v.Skip(fl); err != nil {
				return nil, nil, nil, err
			}
		}
	}

	// Signature covers the name without the params digest component,
	// then ApplicationParameters through InterestSignatureInfo.
	sigCovered := enc.Wire(nil)
	if ret.SignatureInfo != nil {
		nameCovEnd := nameInnerEnd
		if last := ret.NameV.At(-1); last.Typ == enc.TypeParametersSha256DigestComponent {
			nameCovEnd -= last.EncodingLength()
		}
		sigCovered = v.Range(nameInnerStart, nameCovEnd)
		if appRegionStart >= 0 && sigInfoEnd > appRegionStart {
			sigCovered = append(sigCovered, v.Range(appRegionStart, sigInfoEnd)...)
		}
	}

	// The params digest covers ApplicationParameters through
	// InterestSignatureValue.
	digestCovered := enc.Wire(nil)
	if ret.ApplicationParameters != nil && appRegionEnd > appRegionStart {
		digestCovered = v.Range(appRegionStart, appRegionEnd)
	}

	return ret, sigCovered, digestCovered, nil
}

// readDataValue parses the value of a Data TLV.
// Returns the Data and the signature covered wire.
func readDataValue(v *enc.WireView) (*Data, enc.Wire, error) {
	ret := &Data{}
	walk := fieldWalk{}
	sigInfoEnd := -1

	for !v.IsEOF() {
		typ, fl, err := readTL(v)
		if err != nil {
			return nil, nil, err
		}
		rank := 0
		switch typ {
		case enc.TypeName:
			rank = 1
		case TypeMetaInfo:
			rank = 2
		case TypeContent:
			rank = 3
		case TypeDataSignatureInfo:
			rank = 4
		case TypeDataSignatureValue:
			rank = 5
		}
		if err := walk.check(typ, rank); err != nil {
			return nil, nil, err
		}
		switch typ {
		case enc.TypeName:
			ret.NameV, err = readName(v, fl)
			if err != nil {
				return nil, nil, err
			}
		case TypeMetaInfo:
			ret.MetaInfo, err = readMetaInfo(v, fl)
			if err != nil {
				return nil, nil, err
			}
		case TypeContent:
			ret.ContentV, err = v.ReadWire(fl)
			if err != nil {
				return nil, nil, err
			}
		case TypeDataSignatureInfo:
			ret.SignatureInfo, err = readSignatureInfo(v, fl)
			if err != nil {
				return nil, nil, err
			}
			sigInfoEnd = v.Pos()
		case TypeDataSignatureValue:
			ret.SignatureValue, err = v.ReadWire(fl)
			if err != nil {
				return nil, nil, err
			}
		default:
			if err := v.Skip(fl); err != nil {
				return nil, nil, err
			}
		}
	}

	// Signature covers Name through SignatureInfo, whole TLVs.
	sigCovered := enc.Wire(nil)
	if ret.SignatureInfo != nil && sigInfoEnd > 0 {
		sigCovered = v.Range(0, sigInfoEnd)
	}
	return ret, sigCovered, nil
}

func readNetworkNack(v *enc.WireView, l int) (*NetworkNack, error) {
	d, err := delegate(v, l)
	if err != nil {
		return nil, err
	}
	ret := &NetworkNack{}
	for !d.IsEOF() {
		typ, fl, err := readTL(&d)
		if err != nil {
			return nil, err
		}
		switch typ {
		case TypeLpNackReason:
			ret.Reason, err = readNat(&d, fl)
			if err != nil {
				return nil, err
			}
		default:
			if isCritical(typ) {
				return nil, enc.ErrUnrecognizedField{TypeNum: typ}
			}
			if err := d.Skip(fl); err != nil {
				return nil, err
			}
		}
	}
	return ret, nil
}

func readCachePolicy(v *enc.WireView, l int) (*CachePolicy, error) {
	d, err := delegate(v, l)
	if err != nil {
		return nil, err
	}
	ret := &CachePolicy{}
	for !d.IsEOF() {
		typ, fl, err := readTL(&d)
		if err != nil {
			return nil, err
		}
		switch typ {
		case TypeLpCachePolicyType:
			ret.CachePolicyType, err = readNat(&d, fl)
			if err != nil {
				return nil, err
			}
		default:
			if isCritical(typ) {
				return nil, enc.ErrUnrecognizedField{TypeNum: typ}
			}
			if err := d.Skip(fl); err != nil {
				return nil, err
			}
		}
	}
	return ret, nil
}

// readLpValue parses the value of an LpPacket TLV. Lp headers may
// appear in any order.
func readLpValue(v *enc.WireView) (*LpPacket, error) {
	ret := &LpPacket{}
	for !v.IsEOF() {
		typ, fl, err := readTL(v)
		if err != nil {
			return nil, err
		}
		switch typ {
		case TypeLpSequence:
			x, err := readNat(v, fl)
			if err != nil {
				return nil, err
			}
			ret.Sequence = optional.Some(x)
		case TypeLpFragIndex:
			x, err := readNat(v, fl)
			if err != nil {
				return nil, err
			}
			ret.FragIndex = optional.Some(x)
		case TypeLpFragCount:
			x, err := readNat(v, fl)
			if err != nil {
				return nil, err
			}
			ret.FragCount = optional.Some(x)
		case TypeLpPitToken:
			ret.PitToken, err = v.ReadBuf(fl)
			if err != nil {
				return nil, err
			}
		case TypeLpNack:
			ret.Nack, err = readNetworkNack(v, fl)
			if err != nil {
				return nil, err
			}
		case TypeLpIncomingFaceId:
			x, err := readNat(v, fl)
			if err != nil {
				return nil, err
			}
			ret.IncomingFaceId = optional.Some(x)
		case TypeLpNextHopFaceId:
			x, err := readNat(v, fl)
			if err != nil {
				return nil, err
			}
			ret.NextHopFaceId = optional.Some(x)
		case TypeLpCachePolicy:
			ret.CachePolicy, err = readCachePolicy(v, fl)
			if err != nil {
				return nil, err
			}
		case TypeLpCongestionMark:
			x, err := readNat(v, fl)
			if err != nil {
				return nil, err
			}
			ret.CongestionMark = optional.Some(x)
		case TypeLpFragment:
			ret.Fragment, err = v.ReadWire(fl)
			if err != nil {
				return nil, err
			}
		default:
			if isCritical(typ) {
				return nil, enc.ErrUnrecognizedField{TypeNum: typ}
			}
			if err := v.Skip(fl); err != nil {
				return nil, err
			}
		}
	}
	return ret, nil
}
