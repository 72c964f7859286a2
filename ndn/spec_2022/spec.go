package spec_2022

import (
	"bytes"
	"crypto/sha256"
	"time"

	enc "github.com/ndn-go/ndnkit/encoding"
	"github.com/ndn-go/ndnkit/ndn"
	"github.com/ndn-go/ndnkit/types/optional"
	"github.com/ndn-go/ndnkit/utils"
)

const TimeFmt = "20060102T150405" // ISO 8601 time format

func _() {
	// Trait for Signature of Data
	var _ ndn.Signature = &Data{}
	// Trait for Signature of Interest
	var _ ndn.Signature = &Interest{}
	// Trait for Data of Data
	var _ ndn.Data = &Data{}
	// Trait for Interest of Interest
	var _ ndn.Interest = &Interest{}
}

// Spec implements ndn.Spec with the NDN packet format, 2022 edition.
type Spec struct{}

func (d *Data) SigType() ndn.SigType {
	if d.SignatureInfo == nil {
		return ndn.SignatureNone
	} else {
		return ndn.SigType(d.SignatureInfo.SignatureType)
	}
}

func (d *Data) KeyName() enc.Name {
	if d.SignatureInfo == nil || d.SignatureInfo.KeyLocator == nil {
		return nil
	} else {
		return d.SignatureInfo.KeyLocator.Name
	}
}

func (d *Data) SigNonce() []byte {
	return nil
}

func (d *Data) SigTime() *time.Time {
	return nil
}

func (d *Data) SigSeqNum() *uint64 {
	return nil
}

func (d *Data) Validity() (notBefore, notAfter *time.Time) {
	if d.SignatureInfo != nil && d.SignatureInfo.ValidityPeriod != nil {
		nbVal, err := time.Parse(TimeFmt, d.SignatureInfo.ValidityPeriod.NotBefore)
		if err != nil {
			return
		}
		naVal, err := time.Parse(TimeFmt, d.SignatureInfo.ValidityPeriod.NotAfter)
		if err != nil {
			return
		}
		return &nbVal, &naVal
	}
	return
}

func (d *Data) SigValue() []byte {
	if d.SignatureValue == nil {
		return nil
	} else {
		return d.SignatureValue.Join()
	}
}

func (d *Data) Signature() ndn.Signature {
	return d
}

func (d *Data) Name() enc.Name {
	return d.NameV
}

func (d *Data) ContentType() (val optional.Optional[ndn.ContentType]) {
	if d.MetaInfo != nil {
		return optional.CastInt[uint64, ndn.ContentType](d.MetaInfo.ContentType)
	}
	return val
}

func (d *Data) Freshness() (val optional.Optional[time.Duration]) {
	if d.MetaInfo != nil {
		return d.MetaInfo.FreshnessPeriod
	}
	return val
}

func (d *Data) FinalBlockID() (val optional.Optional[enc.Component]) {
	if d.MetaInfo != nil && d.MetaInfo.FinalBlockID != nil {
		reader := enc.NewBufferView(d.MetaInfo.FinalBlockID)
		if ret, err := reader.ReadComponent(); err == nil {
			return optional.Some(ret)
		}
	}
	return val
}

func (d *Data) Content() enc.Wire {
	return d.ContentV
}

func (t *Interest) SigType() ndn.SigType {
	if t.SignatureInfo == nil {
		return ndn.SignatureNone
	} else {
		return ndn.SigType(t.SignatureInfo.SignatureType)
	}
}

func (t *Interest) KeyName() enc.Name {
	if t.SignatureInfo == nil || t.SignatureInfo.KeyLocator == nil {
		return nil
	} else {
		return t.SignatureInfo.KeyLocator.Name
	}
}

func (t *Interest) SigNonce() []byte {
	if t.SignatureInfo != nil {
		return t.SignatureInfo.SignatureNonce
	} else {
		return nil
	}
}

func (t *Interest) SigTime() *time.Time {
	if t.SignatureInfo != nil && t.SignatureInfo.SignatureTime.IsSet() {
		return utils.IdPtr(time.UnixMilli(t.SignatureInfo.SignatureTime.Unwrap().Milliseconds()))
	} else {
		return nil
	}
}

func (t *Interest) SigSeqNum() *uint64 {
	if t.SignatureInfo != nil && t.SignatureInfo.SignatureSeqNum.IsSet() {
		return utils.IdPtr(t.SignatureInfo.SignatureSeqNum.Unwrap())
	} else {
		return nil
	}
}

func (t *Interest) Validity() (notBefore, notAfter *time.Time) {
	return
}

func (t *Interest) SigValue() []byte {
	return t.SignatureValue.Join()
}

func (t *Interest) Signature() ndn.Signature {
	return t
}

func (t *Interest) Name() enc.Name {
	return t.NameV
}

func (t *Interest) CanBePrefix() bool {
	return t.CanBePrefixV
}

func (t *Interest) MustBeFresh() bool {
	return t.MustBeFreshV
}

func (t *Interest) ForwardingHint() []enc.Name {
	if t.ForwardingHintV == nil {
		return nil
	}
	return t.ForwardingHintV.Names
}

func (t *Interest) Nonce() optional.Optional[uint32] {
	return t.NonceV
}

func (t *Interest) Lifetime() optional.Optional[time.Duration] {
	return t.InterestLifetimeV
}

func (t *Interest) HopLimit() *uint {
	if t.HopLimitV == nil {
		return nil
	} else {
		return utils.IdPtr(uint(*t.HopLimitV))
	}
}

func (t *Interest) AppParam() enc.Wire {
	return t.ApplicationParameters
}

// MakeData encodes an NDN Data.
// The signature is computed before assembly, so the signature value
// length is always exact.
func (Spec) MakeData(name enc.Name, config *ndn.DataConfig, content enc.Wire, signer ndn.Signer) (*ndn.EncodedData, error) {
	if name == nil {
		return nil, ndn.ErrInvalidValue{Item: "Data.Name", Value: nil}
	}
	if config == nil {
		return nil, ndn.ErrInvalidValue{Item: "Data.DataConfig", Value: nil}
	}
	finalBlock := []byte(nil)
	if fbid, ok := config.FinalBlockID.Get(); ok {
		finalBlock = fbid.Bytes()
	}
	meta := &MetaInfo{
		ContentType:     optional.CastInt[ndn.ContentType, uint64](config.ContentType),
		FreshnessPeriod: config.Freshness,
		FinalBlockID:    finalBlock,
	}

	signing := signer != nil && signer.Type() != ndn.SignatureNone
	var sigInfo *SignatureInfo
	if signing {
		sigInfo = &SignatureInfo{
			SignatureType: uint64(signer.Type()),
		}
		if key := signer.KeyName(); key != nil {
			sigInfo.KeyLocator = &KeyLocator{Name: key}
		}
		if config.SigNotBefore.IsSet() && config.SigNotAfter.IsSet() {
			sigInfo.ValidityPeriod = &ValidityPeriod{
				NotBefore: config.SigNotBefore.Unwrap().UTC().Format(TimeFmt),
				NotAfter:  config.SigNotAfter.Unwrap().UTC().Format(TimeFmt),
			}
		}
	}

	inner := []byte{}
	inner = appendNameField(inner, name)
	inner = meta.encode(inner)
	if content != nil {
		inner = appendBinField(inner, TypeContent, content.Join())
	}
	if signing {
		inner = sigInfo.encode(inner, TypeDataSignatureInfo)
	}
	sigInfoEnd := len(inner)

	if signing {
		sigVal, err := signer.Sign(enc.Wire{inner[:sigInfoEnd]})
		if err != nil {
			return nil, err
		}
		inner = appendBinField(inner, TypeDataSignatureValue, sigVal)
	}

	hdr := appendTL([]byte{}, TypeData, len(inner))
	sigCovered := enc.Wire(nil)
	if signing {
		sigCovered = enc.Wire{inner[:sigInfoEnd]}
	}
	return &ndn.EncodedData{
		Wire:       enc.Wire{hdr, inner},
		SigCovered: sigCovered,
		Config:     config,
	}, nil
}

// ReadData parses a Data from the reader.
// Precondition: reader contains only one TLV.
func (Spec) ReadData(reader enc.WireView) (ndn.Data, enc.Wire, error) {
	typ, l, err := readTL(&reader)
	if err != nil {
		return nil, nil, err
	}
	if typ != TypeData {
		return nil, nil, ndn.ErrWrongType
	}
	v, err := delegate(&reader, l)
	if err != nil {
		return nil, nil, err
	}
	ret, sigCovered, err := readDataValue(&v)
	if err != nil {
		return nil, nil, err
	}
	if ret.NameV == nil {
		return nil, nil, ndn.ErrInvalidValue{Item: "Data.Name", Value: nil}
	}
	return ret, sigCovered, nil
}

// MakeInterest encodes an NDN Interest.
// When application parameters are present, the params digest name
// component is computed and appended (or filled in) automatically.
func (Spec) MakeInterest(name enc.Name, config *ndn.InterestConfig, appParam enc.Wire, signer ndn.Signer) (*ndn.EncodedInterest, error) {
	if name == nil {
		return nil, ndn.ErrInvalidValue{Item: "Interest.Name", Value: nil}
	}
	if config == nil {
		return nil, ndn.ErrInvalidValue{Item: "Interest.InterestConfig", Value: nil}
	}

	needDigest := appParam != nil
	signing := signer != nil && signer.Type() != ndn.SignatureNone
	if signing && !needDigest {
		return nil, ndn.ErrInvalidValue{Item: "Interest.ApplicationParameters", Value: nil}
	}

	finalName := name
	if needDigest {
		if last := name.At(-1); last.Typ == enc.TypeParametersSha256DigestComponent {
			if len(last.Val) != sha256.Size {
				return nil, ndn.ErrInvalidValue{Item: "Interest.Name", Value: last.Val}
			}
		} else {
			finalName = name.Append(enc.Component{
				Typ: enc.TypeParametersSha256DigestComponent,
				Val: make([]byte, sha256.Size),
			})
		}
	}

	var sigInfo *SignatureInfo
	if signing {
		sigInfo = &SignatureInfo{
			SignatureType:   uint64(signer.Type()),
			SignatureNonce:  config.SigNonce,
			SignatureTime:   config.SigTime,
			SignatureSeqNum: config.SigSeqNo,
		}
		if key := signer.KeyName(); key != nil {
			sigInfo.KeyLocator = &KeyLocator{Name: key}
		}
	}

	inner := []byte{}
	inner = appendNameField(inner, finalName)
	nameInnerEnd := len(inner)
	nameInnerStart := nameInnerEnd - finalName.EncodingLength()

	inner = appendBoolField(inner, TypeCanBePrefix, config.CanBePrefix)
	inner = appendBoolField(inner, TypeMustBeFresh, config.MustBeFresh)
	if config.ForwardingHint != nil {
		links := &Links{Names: config.ForwardingHint}
		inner = links.encode(inner)
	}
	if nonce, ok := config.Nonce.Get(); ok {
		inner = appendFixed32Field(inner, TypeNonce, nonce)
	}
	if lt, ok := config.Lifetime.Get(); ok {
		inner = appendTimeMsField(inner, TypeInterestLifetime, lt)
	}
	if config.HopLimit != nil {
		inner = appendBinField(inner, TypeHopLimit, []byte{*config.HopLimit})
	}

	appRegionStart := len(inner)
	if appParam != nil {
		inner = appendBinField(inner, TypeApplicationParameters, appParam.Join())
	}
	if signing {
		inner = sigInfo.encode(inner, TypeInterestSignatureInfo)
	}
	sigInfoEnd := len(inner)

	if signing {
		// Covered: name components without the digest, then
		// ApplicationParameters through InterestSignatureInfo.
		digestCompLen := finalName.At(-1).EncodingLength()
		sigCov := enc.Wire{
			inner[nameInnerStart : nameInnerEnd-digestCompLen],
			inner[appRegionStart:sigInfoEnd],
		}
		sigVal, err := signer.Sign(sigCov)
		if err != nil {
			return nil, err
		}
		inner = appendBinField(inner, TypeInterestSignatureValue, sigVal)
	}

	if needDigest {
		h := sha256.New()
		h.Write(inner[appRegionStart:])
		digest := h.Sum(nil)
		digestValOff := nameInnerEnd - sha256.Size
		copy(inner[digestValOff:nameInnerEnd], digest)
		finalName[len(finalName)-1].Val = inner[digestValOff:nameInnerEnd]
	}

	hdr := appendTL([]byte{}, TypeInterest, len(inner))
	sigCovered := enc.Wire(nil)
	if signing {
		digestCompLen := finalName.At(-1).EncodingLength()
		sigCovered = enc.Wire{
			inner[nameInnerStart : nameInnerEnd-digestCompLen],
			inner[appRegionStart:sigInfoEnd],
		}
	}
	return &ndn.EncodedInterest{
		Wire:       enc.Wire{hdr, inner},
		SigCovered: sigCovered,
		FinalName:  finalName,
		Config:     config,
	}, nil
}

// checkInterest verifies the structural invariants of a parsed
// Interest, in particular the params digest component.
func checkInterest(val *Interest, digestCovered enc.Wire) error {
	if val.NameV == nil {
		return ndn.ErrInvalidValue{Item: "Interest.Name", Value: nil}
	}
	if val.SignatureValue != nil && val.ApplicationParameters == nil {
		return enc.ErrIncorrectDigest
	}
	if val.ApplicationParameters != nil {
		name := val.NameV
		if len(name) == 0 || name.At(-1).Typ != enc.TypeParametersSha256DigestComponent {
			return enc.ErrIncorrectDigest
		}
		h := sha256.New()
		for _, buf := range digestCovered {
			h.Write(buf)
		}
		if !bytes.Equal(name.At(-1).Val, h.Sum(nil)) {
			return enc.ErrIncorrectDigest
		}
	}
	return nil
}

// ReadInterest parses an Interest from the reader.
// Precondition: reader contains only one TLV.
func (Spec) ReadInterest(reader enc.WireView) (ndn.Interest, enc.Wire, error) {
	typ, l, err := readTL(&reader)
	if err != nil {
		return nil, nil, err
	}
	if typ != TypeInterest {
		return nil, nil, ndn.ErrWrongType
	}
	v, err := delegate(&reader, l)
	if err != nil {
		return nil, nil, err
	}
	ret, sigCovered, digestCovered, err := readInterestValue(&v)
	if err != nil {
		return nil, nil, err
	}
	if err := checkInterest(ret, digestCovered); err != nil {
		return nil, nil, err
	}
	return ret, sigCovered, nil
}

// ReadPacket parses a packet from the reader.
//
//	Precondition: reader contains only one TLV.
//	Postcondition: exactly one of Interest, Data, or LpPacket is returned.
//
// The second return value is the signature covered part of the
// contained Interest or Data, nil for link packets.
func ReadPacket(reader enc.WireView) (*Packet, enc.Wire, error) {
	typ, l, err := readTL(&reader)
	if err != nil {
		return nil, nil, err
	}
	v, err := delegate(&reader, l)
	if err != nil {
		return nil, nil, err
	}

	switch typ {
	case TypeInterest:
		ret, sigCovered, digestCovered, err := readInterestValue(&v)
		if err != nil {
			return nil, nil, err
		}
		if err := checkInterest(ret, digestCovered); err != nil {
			return nil, nil, err
		}
		return &Packet{Interest: ret}, sigCovered, nil
	case TypeData:
		ret, sigCovered, err := readDataValue(&v)
		if err != nil {
			return nil, nil, err
		}
		if ret.NameV == nil {
			return nil, nil, ndn.ErrInvalidValue{Item: "Data.Name", Value: nil}
		}
		return &Packet{Data: ret}, sigCovered, nil
	case TypeLpPacket:
		ret, err := readLpValue(&v)
		if err != nil {
			return nil, nil, err
		}
		// As a client we shouldn't receive IDLE packets
		if ret.Fragment == nil {
			return nil, nil, ndn.ErrInvalidValue{Item: "LpPacket.Fragment", Value: nil}
		}
		return &Packet{LpPacket: ret}, nil, nil
	default:
		return nil, nil, ndn.ErrWrongType
	}
}
