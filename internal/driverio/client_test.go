package driverio_test

import (
	"encoding/binary"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harmelin-systems/elevator-core/internal/domain"
	"github.com/harmelin-systems/elevator-core/internal/driverio"
)

// fakeDriverServer speaks just enough of the frame protocol to exercise
// Client: it echoes a fixed floor-sensor reading and records every frame
// it receives.
type fakeDriverServer struct {
	ln      net.Listener
	received chan []byte
}

func startFakeDriver(t *testing.T) (*fakeDriverServer, string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := &fakeDriverServer{ln: ln, received: make(chan []byte, 64)}
	go s.serve(t)
	return s, ln.Addr().String()
}

func (s *fakeDriverServer) serve(t *testing.T) {
	conn, err := s.ln.Accept()
	if err != nil {
		return
	}
	defer conn.Close()

	for {
		header := make([]byte, 3)
		if _, err := io.ReadFull(conn, header); err != nil {
			return
		}
		cmd := header[0]
		length := binary.BigEndian.Uint16(header[1:])
		payload := make([]byte, length)
		if length > 0 {
			if _, err := io.ReadFull(conn, payload); err != nil {
				return
			}
		}

		frame := append([]byte{cmd}, payload...)
		s.received <- frame

		if cmd == 4 { // cmdFloorSensor
			resp := make([]byte, 3)
			resp[0] = 4
			binary.BigEndian.PutUint16(resp[1:], 2)
			if _, err := conn.Write(resp); err != nil {
				return
			}
			if _, err := conn.Write([]byte{1, 3}); err != nil { // calibrated, floor 3
				return
			}
		}
	}
}

func (s *fakeDriverServer) close() { s.ln.Close() }

func TestDialFailureReturnsExternalDomainError(t *testing.T) {
	_, err := driverio.Dial("127.0.0.1:1", 4, nil)
	require.Error(t, err)

	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.ErrTypeExternal, domainErr.Type)
}

func TestMotorDirectionWritesFrame(t *testing.T) {
	server, addr := startFakeDriver(t)
	defer server.close()

	c, err := driverio.Dial(addr, 4, nil)
	require.NoError(t, err)
	defer c.Close()

	c.MotorDirection(domain.DirectionUp)

	select {
	case frame := <-server.received:
		assert.Equal(t, byte(1), frame[0])
		assert.Equal(t, byte(1), frame[1])
	case <-time.After(time.Second):
		t.Fatal("no frame received")
	}
}

func TestFloorSensorDecodesResponse(t *testing.T) {
	server, addr := startFakeDriver(t)
	defer server.close()

	c, err := driverio.Dial(addr, 4, nil)
	require.NoError(t, err)
	defer c.Close()

	floor, ok := c.FloorSensor()
	require.True(t, ok)
	assert.Equal(t, domain.Floor(3), floor)
}
