package adapters

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/speedwagon-io/weatherflux/internal/lib/logger/sl"
)

const (
	DefaultAddress = "0.0.0.0:50222"

	readBufferSize   = 64 * 1024
	socketBufferSize = 2 * 1024 * 1024
	readDeadline     = 100 * time.Millisecond
)

// UDPSource receives hub broadcasts on a UDP socket.
type UDPSource struct {
	log     *slog.Logger
	address string

	mu   sync.Mutex
	conn *net.UDPConn
}

func NewUDPSource(log *slog.Logger, address string) *UDPSource {
	if address == "" {
		address = DefaultAddress
	}
	return &UDPSource{
		log:     log,
		address: address,
	}
}

func (s *UDPSource) Name() string {
	return "udp"
}

// Listen binds the socket. Run calls it when it has not been called yet.
func (s *UDPSource) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil {
		return nil
	}

	addr, err := net.ResolveUDPAddr("udp", s.address)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", s.address, err)
	}

	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.address, err)
	}

	if err := conn.SetReadBuffer(socketBufferSize); err != nil {
		s.log.Warn("failed to set socket buffer size",
			slog.Int("requested", socketBufferSize),
			sl.Err(err),
		)
	}

	s.conn = conn
	s.log.Info("listening for hub broadcasts", slog.String("address", conn.LocalAddr().String()))
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *UDPSource) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	return s.conn.LocalAddr()
}

func (s *UDPSource) Run(ctx context.Context, handle func(payload []byte)) error {
	if err := s.Listen(); err != nil {
		return err
	}

	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()

	buf := make([]byte, readBufferSize)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		_ = conn.SetReadDeadline(time.Now().Add(readDeadline))

		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.log.Error("failed to read datagram", sl.Err(err))
			continue
		}

		if n == 0 {
			continue
		}
		handle(buf[:n])
	}
}

func (s *UDPSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}
