package sync

import (
	"bufio"
	"context"
	"net"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"lipidlibrarian/pkg/logger"
)

// Server streams query progress as JSON lines to plain TCP subscribers.
type Server struct {
	Addr string
	Hub  *Hub
	log  *zap.SugaredLogger
}

func NewServer(addr string, hub *Hub, log *zap.SugaredLogger) *Server {
	return &Server{Addr: addr, Hub: hub, log: logger.Or(log, "tcp-progress")}
}

// Run accepts subscribers until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return errors.Wrapf(err, "listen %s", s.Addr)
	}
	return s.Serve(ctx, ln)
}

func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.log.Infow("progress stream listening", "addr", ln.Addr().String())
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.log.Debugw("accept failed", logger.FieldError, err)
			continue
		}

		s.Hub.Add(conn)
		s.Hub.Welcome(conn)
		s.log.Debugw("client connected", "remote", conn.RemoteAddr().String())

		go func(c net.Conn) {
			defer func() {
				s.Hub.Remove(c)
				s.log.Debugw("client disconnected", "remote", c.RemoteAddr().String())
			}()

			// incoming lines are ignored; reading detects the disconnect
			sc := bufio.NewScanner(c)
			for sc.Scan() {
			}
		}(conn)
	}
}
