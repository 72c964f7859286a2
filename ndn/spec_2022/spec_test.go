package spec_2022_test

import (
	"testing"
	"time"

	enc "github.com/ndn-go/ndnkit/encoding"
	"github.com/ndn-go/ndnkit/ndn"
	"github.com/ndn-go/ndnkit/ndn/spec_2022"
	sig "github.com/ndn-go/ndnkit/security/signer"
	"github.com/ndn-go/ndnkit/types/optional"
	"github.com/ndn-go/ndnkit/utils"
	tu "github.com/ndn-go/ndnkit/utils/testutils"
	"github.com/stretchr/testify/require"
)

var spec = spec_2022.Spec{}

func TestMakeInterestBasic(t *testing.T) {
	tu.SetT(t)

	name := tu.NoErr(enc.NameFromStr("/example/testApp/randomData/t=1570430517101"))
	interest := tu.NoErr(spec.MakeInterest(name, &ndn.InterestConfig{
		MustBeFresh: true,
		Lifetime:    optional.Some(6 * time.Second),
	}, nil, nil))
	require.Equal(t, enc.Buffer(
		"\x050\x07(\x08\x07example\x08\x07testApp\x08\nrandomData"+
			"\x38\x08\x00\x00\x01m\xa4\xf3\xffm\x12\x00\x0c\x02\x17p"),
		interest.Wire.Join())
	require.True(t, interest.FinalName.Equal(name))

	name = tu.NoErr(enc.NameFromStr("/localhost/nfd/faces/events"))
	interest = tu.NoErr(spec.MakeInterest(name, &ndn.InterestConfig{
		MustBeFresh: true,
		CanBePrefix: true,
		Lifetime:    optional.Some(1 * time.Second),
	}, nil, nil))
	require.Equal(t, enc.Buffer(
		"\x05)\x07\x1f\x08\tlocalhost\x08\x03nfd\x08\x05faces\x08\x06events"+
			"\x21\x00\x12\x00\x0c\x02\x03\xe8"),
		interest.Wire.Join())

	name = tu.NoErr(enc.NameFromStr("/local/ndn/prefix"))
	interest = tu.NoErr(spec.MakeInterest(name, &ndn.InterestConfig{
		MustBeFresh: true,
		CanBePrefix: true,
		Nonce:       optional.Some[uint32](0x01020304),
		Lifetime:    optional.Some(4 * time.Second),
		HopLimit:    utils.IdPtr[byte](1),
	}, nil, nil))
	require.Equal(t, enc.Buffer(
		"\x05\x27\x07\x14\x08\x05local\x08\x03ndn\x08\x06prefix"+
			"\x21\x00\x12\x00\x0a\x04\x01\x02\x03\x04\x0c\x02\x0f\xa0\x22\x01\x01"),
		interest.Wire.Join())
}

func TestMakeInterestAppParam(t *testing.T) {
	tu.SetT(t)

	digest := []byte(
		"\x47\x75\x6f\x21\xfe\x0e\xe2\x65\x14\x9a\xa2\xbe\x3c\x63\xc5\x38" +
			"\xa7\x23\x78\xe9\xb0\xa5\x8b\x39\xc5\x91\x63\x67\xd3\x5b\xda\x10")
	expected := append(append(enc.Buffer(
		"\x05\x3e\x07\x36\x08\x05local\x08\x03ndn\x08\x06prefix\x02\x20"),
		digest...), "\x24\x04\x01\x02\x03\x04"...)

	name := tu.NoErr(enc.NameFromStr("/local/ndn/prefix"))
	interest := tu.NoErr(spec.MakeInterest(
		name, &ndn.InterestConfig{}, enc.Wire{[]byte{1, 2, 3, 4}}, nil))
	require.Equal(t, expected, interest.Wire.Join())
	require.Equal(t, len(name)+1, len(interest.FinalName))
	require.Equal(t, enc.TypeParametersSha256DigestComponent, interest.FinalName.At(-1).Typ)
	require.Equal(t, digest, interest.FinalName.At(-1).Val)

	// A trailing zero digest component is filled in place.
	placeholder := name.Append(enc.Component{
		Typ: enc.TypeParametersSha256DigestComponent,
		Val: make([]byte, 32),
	})
	interest = tu.NoErr(spec.MakeInterest(
		placeholder, &ndn.InterestConfig{}, enc.Wire{[]byte{1, 2, 3, 4}}, nil))
	require.Equal(t, expected, interest.Wire.Join())

	// A digest component of the wrong size is rejected.
	bad := name.Append(enc.Component{
		Typ: enc.TypeParametersSha256DigestComponent,
		Val: make([]byte, 16),
	})
	_, err := spec.MakeInterest(bad, &ndn.InterestConfig{}, enc.Wire{[]byte{1, 2, 3, 4}}, nil)
	require.Error(t, err)

	// Signing requires application parameters.
	_, err = spec.MakeInterest(name, &ndn.InterestConfig{}, nil, sig.NewSha256Signer())
	require.Error(t, err)
}

func TestReadInterestBasic(t *testing.T) {
	tu.SetT(t)

	wire := enc.Buffer(
		"\x050\x07(\x08\x07example\x08\x07testApp\x08\nrandomData" +
			"\x38\x08\x00\x00\x01m\xa4\xf3\xffm\x12\x00\x0c\x02\x17p")
	interest, sigCovered, err := spec.ReadInterest(enc.NewBufferView(wire))
	require.NoError(t, err)
	require.Nil(t, sigCovered)
	require.True(t, interest.Name().Equal(
		tu.NoErr(enc.NameFromStr("/example/testApp/randomData/t=1570430517101"))))
	require.False(t, interest.CanBePrefix())
	require.True(t, interest.MustBeFresh())
	require.Equal(t, 6*time.Second, interest.Lifetime().Unwrap())
	require.False(t, interest.Nonce().IsSet())
	require.Nil(t, interest.HopLimit())
	require.Nil(t, interest.AppParam())
	require.Equal(t, ndn.SignatureNone, interest.Signature().SigType())

	// Not an Interest.
	_, _, err = spec.ReadInterest(enc.NewBufferView(enc.Buffer("\x06\x04\x07\x02\x08\x00")))
	require.Equal(t, ndn.ErrWrongType, err)
}

func TestReadInterestParamsDigest(t *testing.T) {
	tu.SetT(t)

	name := tu.NoErr(enc.NameFromStr("/local/ndn/prefix"))
	made := tu.NoErr(spec.MakeInterest(
		name, &ndn.InterestConfig{}, enc.Wire{[]byte{1, 2, 3, 4}}, nil))
	interest, _, err := spec.ReadInterest(enc.NewBufferView(made.Wire.Join()))
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3, 4}, interest.AppParam().Join())
	require.True(t, interest.Name().Equal(made.FinalName))

	// Corrupting the parameters must break the digest.
	wire := made.Wire.Join()
	wire[len(wire)-1] ^= 0xff
	_, _, err = spec.ReadInterest(enc.NewBufferView(wire))
	require.Equal(t, enc.ErrIncorrectDigest, err)
}

func TestSignedInterest(t *testing.T) {
	tu.SetT(t)

	name := tu.NoErr(enc.NameFromStr("/local/ndn/prefix"))
	sigTime := time.Duration(1570430517101) * time.Millisecond
	made := tu.NoErr(spec.MakeInterest(name, &ndn.InterestConfig{
		SigNonce: []byte{1, 2, 3, 4, 5, 6, 7, 8},
		SigTime:  optional.Some(sigTime),
		SigSeqNo: optional.Some[uint64](42),
	}, enc.Wire{[]byte("params")}, sig.NewSha256Signer()))
	require.Equal(t, 2, len(made.SigCovered))

	interest, sigCovered, err := spec.ReadInterest(enc.NewBufferView(made.Wire.Join()))
	require.NoError(t, err)
	signature := interest.Signature()
	require.Equal(t, ndn.SignatureDigestSha256, signature.SigType())
	require.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, signature.SigNonce())
	require.Equal(t, time.UnixMilli(1570430517101), *signature.SigTime())
	require.Equal(t, uint64(42), *signature.SigSeqNum())
	require.True(t, sig.CheckDigestSha256(interest.Name(), sigCovered, signature))

	// Both covered views describe the same bytes.
	require.Equal(t, made.SigCovered.Join(), sigCovered.Join())
}

func TestMakeDataBasic(t *testing.T) {
	tu.SetT(t)

	name := tu.NoErr(enc.NameFromStr("/example/testApp/randomData/t=1570430517101"))
	data := tu.NoErr(spec.MakeData(name, &ndn.DataConfig{
		ContentType: optional.Some(ndn.ContentTypeBlob),
		Freshness:   optional.Some(1 * time.Second),
	}, enc.Wire{[]byte("Hello, world!")}, nil))
	require.Equal(t, enc.Buffer(
		"\x06B\x07(\x08\x07example\x08\x07testApp\x08\nrandomData"+
			"\x38\x08\x00\x00\x01m\xa4\xf3\xffm\x14\x07\x18\x01\x00\x19\x02\x03\xe8"+
			"\x15\rHello, world!"),
		data.Wire.Join())
	require.Nil(t, data.SigCovered)
}

func TestMakeDataSigned(t *testing.T) {
	tu.SetT(t)

	name := tu.NoErr(enc.NameFromStr("/local/ndn/prefix"))
	data := tu.NoErr(spec.MakeData(name, &ndn.DataConfig{
		ContentType: optional.Some(ndn.ContentTypeBlob),
	}, enc.Wire{[]byte{1, 2, 3, 4}}, sig.NewSha256Signer()))
	require.Equal(t, append(enc.Buffer(
		"\x06\x48\x07\x14\x08\x05local\x08\x03ndn\x08\x06prefix"+
			"\x14\x03\x18\x01\x00\x15\x04\x01\x02\x03\x04\x16\x03\x1b\x01\x00\x17\x20"),
		"\x35\xec\xb6\xe4\x0d\x8c\x47\x7d\x13\x12\x7c\xfb\x44\xc5\x9c\x32"+
			"\x5b\x75\xd0\x48\x4f\x94\x1f\xa1\xf0\x75\x94\x74\x98\xd0\x6d\x04"...),
		data.Wire.Join())

	parsed, sigCovered, err := spec.ReadData(enc.NewBufferView(data.Wire.Join()))
	require.NoError(t, err)
	require.True(t, parsed.Name().Equal(name))
	require.Equal(t, ndn.ContentTypeBlob, parsed.ContentType().Unwrap())
	require.Equal(t, []byte{1, 2, 3, 4}, parsed.Content().Join())
	require.Equal(t, ndn.SignatureDigestSha256, parsed.Signature().SigType())
	require.True(t, sig.CheckDigestSha256(parsed.Name(), sigCovered, parsed.Signature()))
	require.Equal(t, data.SigCovered.Join(), sigCovered.Join())
}

func TestDataMetaInfo(t *testing.T) {
	tu.SetT(t)

	name := tu.NoErr(enc.NameFromStr("/local/ndn/prefix/seg=0"))
	data := tu.NoErr(spec.MakeData(name, &ndn.DataConfig{
		FinalBlockID: optional.Some(enc.NewSegmentComponent(5)),
	}, nil, nil))

	parsed, _, err := spec.ReadData(enc.NewBufferView(data.Wire.Join()))
	require.NoError(t, err)
	require.True(t, parsed.Name().Equal(name))
	require.False(t, parsed.ContentType().IsSet())
	require.False(t, parsed.Freshness().IsSet())
	require.Equal(t, enc.NewSegmentComponent(5), parsed.FinalBlockID().Unwrap())
	require.Nil(t, parsed.Content())
}

func TestLpPacketEncode(t *testing.T) {
	tu.SetT(t)

	frag := enc.Buffer("\x05\x15\x07\x10\x08\x03not\x08\timportant\x0c\x01\x05")
	lp := &spec_2022.LpPacket{
		PitToken: []byte{1, 2, 3, 4},
		Fragment: enc.Wire{frag},
	}
	require.Equal(t, append(enc.Buffer(
		"\x64\x1f\x62\x04\x01\x02\x03\x04\x50\x17"), frag...),
		lp.Encode().Join())
}

func TestReadPacket(t *testing.T) {
	tu.SetT(t)

	// Nack against an expressed Interest.
	wire := enc.Buffer(
		"\x64\x36\xfd\x03\x20\x05\xfd\x03\x21\x01\x96" +
			"\x50\x2b\x05)\x07\x1f\x08\tlocalhost\x08\x03nfd\x08\x05faces\x08\x06events" +
			"\x21\x00\x12\x00\x0c\x02\x03\xe8")
	pkt, sigCovered, err := spec_2022.ReadPacket(enc.NewBufferView(wire))
	require.NoError(t, err)
	require.Nil(t, sigCovered)
	require.NotNil(t, pkt.LpPacket)
	require.NotNil(t, pkt.LpPacket.Nack)
	require.Equal(t, spec_2022.NackReasonNoRoute, pkt.LpPacket.Nack.Reason)

	inner, _, err := spec_2022.ReadPacket(enc.NewWireView(pkt.LpPacket.Fragment))
	require.NoError(t, err)
	require.NotNil(t, inner.Interest)
	require.True(t, inner.Interest.Name().Equal(
		tu.NoErr(enc.NameFromStr("/localhost/nfd/faces/events"))))

	// Bare Data.
	pkt, _, err = spec_2022.ReadPacket(enc.NewBufferView(enc.Buffer(
		"\x06\x1d\x07\x10\x08\x03not\x08\timportant\x14\x03\x18\x01\x00\x15\x04test")))
	require.NoError(t, err)
	require.NotNil(t, pkt.Data)
	require.Equal(t, []byte("test"), pkt.Data.Content().Join())

	// Idle link packets carry no fragment and are rejected.
	_, _, err = spec_2022.ReadPacket(enc.NewBufferView(enc.Buffer("\x64\x06\x62\x04\x01\x02\x03\x04")))
	require.Error(t, err)
}
