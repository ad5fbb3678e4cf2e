package privacy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type MaskSuite struct {
	suite.Suite
}

func TestMaskSuite(t *testing.T) {
	suite.Run(t, new(MaskSuite))
}

func (s *MaskSuite) TestToken_DeterministicPerKey() {
	m1 := NewMasker([]byte("key-one"))
	m2 := NewMasker([]byte("key-two"))

	tok := m1.Token("8001015009087")
	s.Equal(tok, m1.Token("8001015009087"), "same key and value must tokenize identically")
	s.NotEqual(tok, m2.Token("8001015009087"), "different keys must not collide")
	s.NotEqual(tok, m1.Token("8001015009088"))
	s.True(len(tok) == len("tok_")+16, "token is tok_ plus 16 hex chars")
	s.Contains(tok, "tok_")
}

func (s *MaskSuite) TestLastN() {
	s.Equal("•••••••••6789", LastN("8001015006789", 4))
	s.Equal("••••", LastN("1234", 4), "value no longer than the window is fully hidden")
	s.Equal("", LastN("", 4))
}

func (s *MaskSuite) TestNames() {
	s.Equal("J. v. D.", Initials("Jane van Dyk"))
	s.Equal("Jane D.", GivenNameOnly("Jane van Dyk"))
	s.Equal("Jane", GivenNameOnly("Jane"))
	s.Equal("", Initials("   "))
}

func (s *MaskSuite) TestAddressAndText() {
	s.Equal("Khayelitsha", LastSegment("12 Main Rd, Site B, Khayelitsha"))
	s.Equal("Cape Town", LastSegment("Cape Town"))
	s.Equal("confidential n…", Truncate("confidential note about case", 14))
	s.Equal("short", Truncate("short", 14))
}

func (s *MaskSuite) TestRoundAmount() {
	s.InDelta(12300.0, RoundAmount(12345.67, 100), 0.001)
	s.InDelta(12345.67, RoundAmount(12345.67, 0), 0.001)
}

func (s *MaskSuite) TestAnonymizeIP() {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"ipv4 zeroes last octet", "192.168.1.47", "192.168.1.0"},
		{"ipv6 keeps 48-bit prefix", "2001:0db8:85a3:0000:0000:8a2e:0370:7334", "2001:0db8:85a3::"},
		{"empty", "", "unknown"},
		{"garbage", "not-an-ip", "invalid"},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			assert.Equal(s.T(), tt.want, AnonymizeIP(tt.in))
		})
	}
}
