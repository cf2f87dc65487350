/*
 * Copyright 2019-2020 by Nedim Sabic Sabic
 * https://www.fibratus.io
 * All Rights Reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package broker

import (
	"context"
	"errors"
	"expvar"
	"io"
	"net"
	"sync"

	kerrors "github.com/rabbitstack/objexp/pkg/errors"
	"github.com/rabbitstack/objexp/pkg/util/ntstatus"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

var (
	connCount   = expvar.NewInt("broker.conns")
	deniedCount = expvar.NewInt("broker.conns.denied")
)

// Identifier resolves the process on the other end of the connection.
type Identifier func(net.Conn) (Caller, error)

// Server serves broker requests over stream connections. Right after the
// connection is accepted, the server writes the open-status frame that tells
// the client whether the control channel was granted.
type Server struct {
	broker *Broker
	gate   *Gate
	limit  rate.Limit
	burst  int

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
	wg       sync.WaitGroup
}

// NewServer creates the server that throttles each client to the given
// number of requests per second.
func NewServer(b *Broker, g *Gate, rps, burst int) *Server {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	if burst <= 0 {
		burst = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		broker: b,
		gate:   g,
		limit:  limit,
		burst:  burst,
		ctx:    ctx,
		cancel: cancel,
		conns:  make(map[net.Conn]struct{}),
	}
}

// Serve accepts connections on the listener until the server is closed.
func (s *Server) Serve(l net.Listener, identify Identifier) error {
	s.mu.Lock()
	s.listener = l
	s.mu.Unlock()

	for {
		conn, err := l.Accept()
		if err != nil {
			select {
			case <-s.ctx.Done():
				return nil
			default:
			}
			return err
		}
		caller, err := identify(conn)
		if err != nil {
			log.Warnf("couldn't identify broker client: %v", err)
			_ = conn.Close()
			continue
		}
		go func() {
			if err := s.ServeConn(conn, caller); err != nil {
				log.WithField("pid", caller.Pid).Debugf("broker connection terminated: %v", err)
			}
		}()
	}
}

// ServeConn runs the request loop for the connection established by the caller.
// The identity gate is consulted once, before any request is read.
func (s *Server) ServeConn(conn net.Conn, c Caller) error {
	if !s.track(conn) {
		_ = conn.Close()
		return net.ErrClosed
	}
	defer s.untrack(conn)

	connCount.Add(1)
	if !s.gate.Allow(c.Image) {
		deniedCount.Add(1)
		log.WithFields(log.Fields{"pid": c.Pid, "image": c.Image}).Warn("control channel denied")
		return WriteResponse(conn, Response{Status: ntstatus.AccessDenied})
	}
	if err := WriteResponse(conn, Response{Status: ntstatus.Success}); err != nil {
		return err
	}
	log.WithFields(log.Fields{"pid": c.Pid, "image": c.Image}).Debug("control channel opened")

	limiter := rate.NewLimiter(s.limit, s.burst)
	for {
		req, err := ReadRequest(conn)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if errors.Is(err, kerrors.ErrSizeMismatch) {
				_ = WriteResponse(conn, Response{Status: ntstatus.InvalidParameter})
			}
			return err
		}
		if err := limiter.Wait(s.ctx); err != nil {
			return nil
		}
		out, status := s.broker.Dispatch(c, req.Code, req.Payload, req.OutLen)
		if err := WriteResponse(conn, Response{Status: status, Payload: out}); err != nil {
			return err
		}
	}
}

// Close stops accepting connections, terminates the active ones and waits
// for their request loops to finish. Connections tracked after Close are
// refused.
func (s *Server) Close() error {
	s.cancel()
	s.mu.Lock()
	var err error
	if s.listener != nil {
		err = s.listener.Close()
	}
	for conn := range s.conns {
		_ = conn.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
	return err
}

func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.ctx.Done():
		return false
	default:
	}
	s.conns[conn] = struct{}{}
	s.wg.Add(1)
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, conn)
	_ = conn.Close()
	s.wg.Done()
}
