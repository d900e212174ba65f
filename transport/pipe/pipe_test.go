package pipe

import (
	"testing"

	"http-client/transport"
	"http-client/transport/test"

	"github.com/stretchr/testify/suite"
)

var (
	addrA = transport.Addr{Transport: "tcp", Host: "a", Port: 1}
	addrB = transport.Addr{Transport: "tcp", Host: "b", Port: 2}
)

type PipeTestSuite struct {
	test.ConnTestSuite
}

func TestPipeTestSuite(t *testing.T) {
	suite.Run(t, new(PipeTestSuite))
}

func (s *PipeTestSuite) SetupTest() {
	s.ConnTestSuite.SetupTest()
	s.C1, s.C2 = Pipe(addrA, addrB, s.Clock)
}
