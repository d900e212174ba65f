package transport

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type PortTableTestSuite struct {
	suite.Suite

	table *PortTable
}

func TestPortTableTestSuite(t *testing.T) {
	suite.Run(t, new(PortTableTestSuite))
}

func (s *PortTableTestSuite) SetupTest() {
	var err error
	s.table, err = NewPortTable(DefaultEphemeralPortOptions)
	s.Require().NoError(err)
}

func (s *PortTableTestSuite) TestNewPortTable() {
	testcases := []struct {
		desc    string
		opts    EphemeralPortOptions
		wantErr bool
	}{
		{desc: "default", opts: DefaultEphemeralPortOptions},
		{desc: "empty range", opts: EphemeralPortOptions{Range: [2]uint16{5, 5}, Rand: func() uint16 { return 0 }}, wantErr: true},
		{desc: "no rand", opts: EphemeralPortOptions{Range: [2]uint16{1, 5}}, wantErr: true},
	}
	for _, tc := range testcases {
		s.Run(tc.desc, func() {
			_, err := NewPortTable(tc.opts)
			if tc.wantErr {
				s.Error(err)
				return
			}
			s.NoError(err)
		})
	}
}

func (s *PortTableTestSuite) TestOccupy() {
	port := uint16(100)

	result, release, err := s.table.Occupy(port)
	s.Require().NoError(err)
	s.Require().Equal(port, result)

	_, _, err = s.table.Occupy(port)
	s.Require().ErrorIs(err, ErrAddrAlreadyInUse)

	release()
	release()
	s.Zero(s.table.InUse())

	result, _, err = s.table.Occupy(port)
	s.Require().NoError(err)
	s.Equal(port, result)
}

func (s *PortTableTestSuite) TestOccupyEphemeral() {
	table, err := NewPortTable(EphemeralPortOptions{
		Range:  [2]uint16{1, 2}, // only result in 1
		Rand:   func() uint16 { return 7 },
		MaxTry: 1,
	})
	s.Require().NoError(err)

	result, release, err := table.Occupy(0)
	s.Require().NoError(err)
	s.Require().Equal(uint16(1), result)

	_, _, err = table.Occupy(0)
	s.Require().ErrorIs(err, ErrPortsExhausted)

	release()

	result, _, err = table.Occupy(0)
	s.Require().NoError(err)
	s.Equal(uint16(1), result)
}

func (s *PortTableTestSuite) TestOccupyEphemeralRange() {
	for range 100 {
		port, _, err := s.table.Occupy(0)
		s.Require().NoError(err)
		s.GreaterOrEqual(port, uint16(49152))
		s.Less(port, uint16(65535))
	}
	s.Equal(100, s.table.InUse())
}
