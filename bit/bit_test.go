package bit

import (
	"testing"

	"github.com/pattyshack/gt/testing/expect"
	"github.com/pattyshack/gt/testing/suite"
)

type BitSuite struct{}

func TestBit(t *testing.T) {
	suite.RunTests(t, &BitSuite{})
}

func (BitSuite) TestAsBytesAliases(t *testing.T) {
	value := uint32(0x04030201)

	data := AsBytes(&value)
	expect.Equal(t, 4, len(data))
	expect.Equal(t, 0x01, data[0])
	expect.Equal(t, 0x04, data[3])

	data[0] = 0xff
	expect.Equal(t, 0x040302ff, value)
}

func (BitSuite) TestFromBytesRoundTrip(t *testing.T) {
	type snapshot struct {
		A uint64
		B uint16
		C [3]byte
	}

	original := snapshot{
		A: 0x0102030405060708,
		B: 0xcafe,
		C: [3]byte{1, 2, 3},
	}

	restored := FromBytes[snapshot](AsBytes(&original))
	expect.Equal(t, original, restored)
}

func (BitSuite) TestFromBytesIgnoresTrailingBytes(t *testing.T) {
	data := []byte{0x78, 0x56, 0x34, 0x12, 0xff, 0xff}

	expect.Equal(t, 0x12345678, FromBytes[uint32](data))
}

func (BitSuite) TestToByte128(t *testing.T) {
	widened := ToByte128([]byte{0xfe, 0xca})

	expect.Equal(t, 0xfe, widened[0])
	expect.Equal(t, 0xca, widened[1])
	for _, b := range widened[2:] {
		expect.Equal(t, 0, b)
	}
}
