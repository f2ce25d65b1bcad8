package natpmp_test

import (
	"encoding/binary"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zl21st/natpmpc/natpmp"
)

func TestEncodePublicAddressRequest(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []byte{0, 0}, natpmp.EncodePublicAddressRequest())
}

func TestEncodePortMappingRequest(t *testing.T) {
	t.Parallel()

	b := natpmp.EncodePortMappingRequest(natpmp.UDP, 0x1234, 0xABCD, 0x01020304)
	assert.Equal(t, []byte{
		0, 1, 0, 0,
		0x12, 0x34,
		0xAB, 0xCD,
		0x01, 0x02, 0x03, 0x04,
	}, b)

	b = natpmp.EncodePortMappingRequest(natpmp.TCP, 80, 8080, 3600)
	require.Len(t, b, 12)
	assert.Equal(t, byte(2), b[1])
}

func TestPortMappingRequestRoundTrip(t *testing.T) {
	t.Parallel()

	cases := []struct {
		proto    natpmp.Protocol
		private  uint16
		public   uint16
		lifetime uint32
	}{
		{natpmp.UDP, 0, 0, 0},
		{natpmp.UDP, 5000, 0, 7200},
		{natpmp.TCP, 65535, 65535, 0xFFFFFFFF},
		{natpmp.TCP, 22, 2222, 60},
	}
	for _, tc := range cases {
		b := natpmp.EncodePortMappingRequest(tc.proto, tc.private, tc.public, tc.lifetime)
		require.Len(t, b, 12)

		req, err := natpmp.DecodeRequest(b)
		require.NoError(t, err)
		assert.Equal(t, tc.proto, req.Protocol)
		assert.Equal(t, tc.private, req.PrivatePort)
		assert.Equal(t, tc.public, req.PublicPort)
		assert.Equal(t, tc.lifetime, req.Lifetime)
	}
}

func TestDecodeGatewayResponse(t *testing.T) {
	t.Parallel()

	b := []byte{
		0, 128, 0, 0,
		0, 0, 0x0E, 0x10, // epoch 3600
		203, 0, 113, 7,
	}
	res, err := natpmp.DecodeResponse(b)
	require.NoError(t, err)

	gr, ok := res.(*natpmp.GatewayResponse)
	require.True(t, ok)
	assert.Equal(t, uint32(3600), gr.Epoch)
	assert.True(t, gr.PublicAddress.Equal(net.IPv4(203, 0, 113, 7)))
}

func TestDecodeMappingResponse(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		opcode byte
		proto  natpmp.Protocol
	}{
		{129, natpmp.UDP},
		{130, natpmp.TCP},
	} {
		b := make([]byte, 16)
		b[1] = tc.opcode
		binary.BigEndian.PutUint32(b[4:8], 42)
		binary.BigEndian.PutUint16(b[8:10], 5000)
		binary.BigEndian.PutUint16(b[10:12], 40000)
		binary.BigEndian.PutUint32(b[12:16], 7200)

		res, err := natpmp.DecodeResponse(b)
		require.NoError(t, err)

		mr, ok := res.(*natpmp.MappingResponse)
		require.True(t, ok)
		assert.Equal(t, tc.proto, mr.Protocol)
		assert.Equal(t, uint32(42), mr.Epoch)
		assert.Equal(t, uint16(5000), mr.PrivatePort)
		assert.Equal(t, uint16(40000), mr.PublicPort)
		assert.Equal(t, 7200*time.Second, mr.Lifetime)
	}
}

func TestDecodeResultCodes(t *testing.T) {
	t.Parallel()

	cases := map[uint16]error{
		1:      natpmp.ErrUnsupportedVersion,
		2:      natpmp.ErrNotAuthorized,
		3:      natpmp.ErrNetworkFailure,
		4:      natpmp.ErrOutOfResources,
		5:      natpmp.ErrUnsupportedOpcode,
		6:      natpmp.ErrUndefined,
		0x0100: natpmp.ErrUndefined,
		0xFFFF: natpmp.ErrUndefined,
	}
	for code, want := range cases {
		for _, op := range []byte{128, 129, 130} {
			b := make([]byte, 16)
			b[1] = op
			binary.BigEndian.PutUint16(b[2:4], code)

			res, err := natpmp.DecodeResponse(b)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, want, "code %d opcode %d", code, op)
		}
	}

	assert.NoError(t, natpmp.ResultCodeError(0))
}

func TestDecodeUnsupportedVersion(t *testing.T) {
	t.Parallel()

	for _, v := range []byte{1, 2, 0x80, 0xFF} {
		for _, op := range []byte{0, 128, 130, 200} {
			b := make([]byte, 16)
			b[0] = v
			b[1] = op
			binary.BigEndian.PutUint16(b[2:4], 2)

			_, err := natpmp.DecodeResponse(b)
			assert.ErrorIs(t, err, natpmp.ErrUnsupportedVersion)
		}
	}
}

func TestDecodeUnsupportedOpcode(t *testing.T) {
	t.Parallel()

	for _, op := range []byte{0, 1, 2, 127, 131, 255} {
		b := make([]byte, 16)
		b[1] = op

		_, err := natpmp.DecodeResponse(b)
		assert.ErrorIs(t, err, natpmp.ErrUnsupportedOpcode, "opcode %d", op)
	}
}

func TestDecodeShortDatagram(t *testing.T) {
	t.Parallel()

	res, err := natpmp.DecodeResponse([]byte{0, 129, 0, 0, 0, 0, 0, 1})
	require.NoError(t, err)

	mr := res.(*natpmp.MappingResponse)
	assert.Equal(t, uint32(1), mr.Epoch)
	assert.Zero(t, mr.PrivatePort)
	assert.Zero(t, mr.Lifetime)
}

func TestDecodeRequestErrors(t *testing.T) {
	t.Parallel()

	_, err := natpmp.DecodeRequest([]byte{0})
	assert.ErrorIs(t, err, natpmp.ErrUnsupportedOpcode)

	_, err = natpmp.DecodeRequest([]byte{1, 0})
	assert.ErrorIs(t, err, natpmp.ErrUnsupportedVersion)

	_, err = natpmp.DecodeRequest([]byte{0, 3})
	assert.ErrorIs(t, err, natpmp.ErrUnsupportedOpcode)

	_, err = natpmp.DecodeRequest([]byte{0, 1, 0, 0})
	assert.ErrorIs(t, err, natpmp.ErrUnsupportedOpcode)
}

func TestEncodeReplies(t *testing.T) {
	t.Parallel()

	b := natpmp.EncodePublicAddressReply(0, 9, net.IPv4(10, 0, 0, 1))
	assert.Equal(t, []byte{0, 128, 0, 0, 0, 0, 0, 9, 10, 0, 0, 1}, b)

	b = natpmp.EncodeMappingReply(natpmp.TCP, 4, 9, 1, 2, 3)
	assert.Equal(t, []byte{0, 130, 0, 4, 0, 0, 0, 9, 0, 1, 0, 2, 0, 0, 0, 3}, b)
}
