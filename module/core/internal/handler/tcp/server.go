package tcp

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/paulmach/orb"
	"github.com/rs/zerolog"

	"github.com/nandanugg/geotrack/module/core/domain"
	"github.com/nandanugg/geotrack/module/core/internal/metrics"
)

const (
	DefaultAddr        = ":4554"
	DefaultIdleTimeout = 5 * time.Minute
	ingestTimeout      = 5 * time.Second
)

type recordService interface {
	Ingest(ctx context.Context, source string, records ...domain.Record) (int, error)
}

// Server accepts tracker connections, one goroutine each.
type Server struct {
	addr        string
	idleTimeout time.Duration
	recordSvc   recordService
	log         zerolog.Logger
	wg          sync.WaitGroup
}

func NewServer(addr string, idleTimeout time.Duration, recordSvc recordService, log zerolog.Logger) *Server {
	if addr == "" {
		addr = DefaultAddr
	}
	return &Server{
		addr:        addr,
		idleTimeout: idleTimeout,
		recordSvc:   recordSvc,
		log:         log.With().Str("component", "tcp").Logger(),
	}
}

func (s *Server) ListenAndServe(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts on ln until ctx is cancelled, then closes open connections
// and waits for their handlers. It returns nil on cancellation.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()
	defer s.wg.Wait()

	s.log.Info().Str("addr", ln.Addr().String()).Msg("listening")
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			return err
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(ctx, conn)
		}()
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer func() { _ = conn.Close() }()
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	log := s.log.With().Str("remote", conn.RemoteAddr().String()).Logger()
	r := bufio.NewReader(conn)

	s.extendDeadline(conn)
	imei, err := ReadIMEI(r)
	if err != nil {
		log.Debug().Err(err).Msg("handshake failed")
		return
	}
	if !ValidIMEI(imei) {
		_, _ = conn.Write([]byte{0x00})
		log.Warn().Str("imei", imei).Msg("rejected device")
		return
	}
	if _, err := conn.Write([]byte{0x01}); err != nil {
		return
	}
	log = log.With().Str("imei", imei).Logger()
	log.Debug().Msg("device connected")

	for {
		s.extendDeadline(conn)
		pkt, err := ReadPacket(r)
		if err != nil {
			if errors.Is(err, ErrInvalidPacket) {
				log.Warn().Err(err).Msg("dropping packet")
				if writeAck(conn, 0) != nil {
					return
				}
				continue
			}
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				log.Debug().Err(err).Msg("connection closed")
			}
			return
		}

		n, err := s.ingest(ctx, imei, pkt)
		if err != nil {
			log.Warn().Err(err).Int("records", len(pkt.Records)).Msg("ingest failed")
		}
		if writeAck(conn, n) != nil {
			return
		}
	}
}

func (s *Server) ingest(ctx context.Context, imei string, pkt *Packet) (int, error) {
	records := make([]domain.Record, len(pkt.Records))
	for i, avl := range pkt.Records {
		records[i] = domain.Record{
			DeviceID:   imei,
			Location:   orb.Point{avl.Longitude, avl.Latitude},
			Time:       avl.Time,
			Angle:      float64(avl.Angle),
			Speed:      float64(avl.Speed),
			Altitude:   float64(avl.Altitude),
			Satellites: int(avl.Satellites),
		}
	}

	ctx, cancel := context.WithTimeout(ctx, ingestTimeout)
	defer cancel()
	return s.recordSvc.Ingest(ctx, metrics.SourceTCP, records...)
}

func (s *Server) extendDeadline(conn net.Conn) {
	if s.idleTimeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(s.idleTimeout))
	}
}

// writeAck reports the number of accepted records as a big-endian uint32.
func writeAck(w io.Writer, n int) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(n))
	_, err := w.Write(buf[:])
	return err
}
