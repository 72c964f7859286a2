package encoding_test

import (
	"testing"

	enc "github.com/ndn-go/ndnkit/encoding"
	tu "github.com/ndn-go/ndnkit/utils/testutils"
	"github.com/stretchr/testify/require"
)

func TestTLNumEncode(t *testing.T) {
	tu.SetT(t)

	cases := []struct {
		v enc.TLNum
		b []byte
	}{
		{0x00, []byte{0x00}},
		{0x01, []byte{0x01}},
		{0xfc, []byte{0xfc}},
		{0xfd, []byte{0xfd, 0x00, 0xfd}},
		{0xff, []byte{0xfd, 0x00, 0xff}},
		{0x0100, []byte{0xfd, 0x01, 0x00}},
		{0xffff, []byte{0xfd, 0xff, 0xff}},
		{0x010000, []byte{0xfe, 0x00, 0x01, 0x00, 0x00}},
		{0xffffffff, []byte{0xfe, 0xff, 0xff, 0xff, 0xff}},
		{0x0100000000, []byte{0xff, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00}},
	}

	for _, c := range cases {
		require.Equal(t, len(c.b), c.v.EncodingLength())
		require.Equal(t, c.b, c.v.Bytes())

		v, p := enc.ParseTLNum(c.b)
		require.Equal(t, c.v, v)
		require.Equal(t, len(c.b), p)

		r := enc.NewBufferView(c.b)
		require.Equal(t, c.v, tu.NoErr(r.ReadTLNum()))
		require.True(t, r.IsEOF())
	}
}

func TestNatEncode(t *testing.T) {
	tu.SetT(t)

	cases := []struct {
		v enc.Nat
		b []byte
	}{
		{0x00, []byte{0x00}},
		{0xff, []byte{0xff}},
		{0x0100, []byte{0x01, 0x00}},
		{0xffff, []byte{0xff, 0xff}},
		{0x010000, []byte{0x00, 0x01, 0x00, 0x00}},
		{0xffffffff, []byte{0xff, 0xff, 0xff, 0xff}},
		{0x0100000000, []byte{0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00}},
		{0xffffffffffffffff, []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}},
	}

	for _, c := range cases {
		require.Equal(t, len(c.b), c.v.EncodingLength())
		require.Equal(t, c.b, c.v.Bytes())

		v, p, err := enc.ParseNat(c.b)
		require.NoError(t, err)
		require.Equal(t, c.v, v)
		require.Equal(t, len(c.b), p)
	}

	// Widths other than 1, 2, 4 or 8 bytes are rejected.
	_, _, err := enc.ParseNat([]byte{0x01, 0x02, 0x03})
	require.Error(t, err)
}
