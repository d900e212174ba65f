package test

import (
	"bytes"
	"io"
	"sync"

	"http-client/transport"
)

type BufferedConnTestSuite struct {
	ConnTestSuite
}

func (s *BufferedConnTestSuite) TestBothWrite() {
	c1 := s.C1.(transport.BufferedConn)
	c2 := s.C2.(transport.BufferedConn)
	size1, size2 := int(c1.ReadBufSize()), int(c2.ReadBufSize())

	var wg sync.WaitGroup
	wg.Add(2)
	defer wg.Wait()

	go func() {
		defer wg.Done()
		b := make([]byte, size2)

		// Write as much as c2 can handle.
		n, err := s.C1.Write(b)
		s.Require().NoError(err)
		s.Equal(size2, n)

		n, err = io.ReadFull(s.C1, make([]byte, size1))
		s.Require().NoError(err)
		s.Equal(size1, n)
	}()

	go func() {
		defer wg.Done()
		b := make([]byte, size1)

		// Write as much as c1 can handle.
		n, err := s.C2.Write(b)
		s.Require().NoError(err)
		s.Equal(size1, n)

		n, err = io.ReadFull(s.C2, make([]byte, size2))
		s.Require().NoError(err)
		s.Equal(size2, n)
	}()
}

func (s *BufferedConnTestSuite) TestReadAfterClose() {
	c1 := s.C1.(transport.BufferedConn)
	c2 := s.C2.(transport.BufferedConn)
	size1 := int(c1.ReadBufSize())

	n, err := c2.Write(make([]byte, size1))
	s.Require().NoError(err)
	s.Require().Equal(size1, n)

	s.Require().NoError(c2.Close())

	n, err = c1.Read(make([]byte, size1))
	s.Require().NoError(err)
	s.Equal(size1, n)

	n, err = c1.Read(make([]byte, 1))
	s.ErrorIs(err, io.EOF)
	s.Zero(n)
}

// A message head read byte by byte leaves the rest of the stream intact.
func (s *BufferedConnTestSuite) TestByteWiseRead() {
	const msg = "HTTP/1.1 204\r\n\r\nOK"

	var wg sync.WaitGroup
	wg.Add(1)
	defer wg.Wait()

	go func() {
		defer wg.Done()
		_, err := s.C2.Write([]byte(msg))
		s.NoError(err)
		s.NoError(s.C2.Close())
	}()

	var head []byte
	one := make([]byte, 1)
	for !bytes.HasSuffix(head, []byte("\r\n\r\n")) {
		n, err := s.C1.Read(one)
		s.Require().NoError(err)
		s.Require().Equal(1, n)
		head = append(head, one[0])
	}
	s.Equal("HTTP/1.1 204\r\n\r\n", string(head))

	rest, err := io.ReadAll(s.C1)
	s.Require().NoError(err)
	s.Equal("OK", string(rest))
}
