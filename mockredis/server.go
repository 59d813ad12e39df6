// Package mockredis is an in-process, pure-Go stand-in for a real
// redis-server process, used by this module's own tests. It is grounded on
// the teacher's testbed package (testbed/server.go spawns a real
// redis-server binary and testbed/conn.go speaks to it with a throwaway
// client) but replaces the external process with a net.Listener loop,
// since this module must be testable without a Redis install and without
// running any external binary.
package mockredis

import (
	"bufio"
	"net"
	"sync"

	"github.com/kvstream/rediswire/resp"
)

// Handler decides the reply for one decoded command. verb is the first
// bulk string, args the rest. Returning IsNull()==true with Type
// TypeNullBulkString/TypeNullArray, or any other resp.Value, is encoded
// back to the client verbatim — including error replies built with
// resp.Err, which is how tests inject MOVED/ASK/WRONGTYPE scenarios.
type Handler func(verb string, args [][]byte) resp.Value

// Server is a minimal single-process RESP server: it accepts any number of
// connections, decodes a stream of command arrays from each, and answers
// every command through Handler.
type Server struct {
	ln net.Listener

	mu      sync.Mutex
	handler Handler
	conns   map[net.Conn]struct{}
	closed  bool
}

// Start opens a TCP listener on 127.0.0.1:0 (OS-assigned port) and begins
// serving with handler.
func Start(handler Handler) (*Server, error) {
	return StartOn("127.0.0.1:0", handler)
}

// StartOn opens a TCP listener on addr and begins serving with handler.
// Used by tests that need to restart a server on the exact address a
// Connection is configured to reconnect to.
func StartOn(addr string, handler Handler) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	s := &Server{ln: ln, handler: handler, conns: map[net.Conn]struct{}{}}
	go s.acceptLoop()
	return s, nil
}

// Addr is the "host:port" string new connections should dial.
func (s *Server) Addr() string { return s.ln.Addr().String() }

// SetHandler swaps the active handler, letting a test reconfigure mid-run
// behavior (e.g. switch from "always MOVED" to "serve normally" after
// asserting a redirect was followed).
func (s *Server) SetHandler(h Handler) {
	s.mu.Lock()
	s.handler = h
	s.mu.Unlock()
}

// Close stops accepting new connections and severs every connection
// currently open, simulating the abrupt peer-close of spec.md §8 test 5
// ("Reconnect": "after an induced mid-stream socket close...").
func (s *Server) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	conns := make([]net.Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	s.ln.Close()
	for _, c := range conns {
		c.Close()
	}
}

func (s *Server) acceptLoop() {
	for {
		c, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		s.conns[c] = struct{}{}
		s.mu.Unlock()
		go s.serve(c)
	}
}

func (s *Server) serve(c net.Conn) {
	defer func() {
		s.mu.Lock()
		delete(s.conns, c)
		s.mu.Unlock()
		c.Close()
	}()

	r := bufio.NewReader(c)
	w := bufio.NewWriter(c)
	dec := resp.NewDecoder(r)
	for {
		v, err := dec.Decode()
		if err != nil {
			return
		}
		if v.Type != resp.TypeArray || len(v.Array) == 0 {
			continue
		}
		if v.Array[0].Type != resp.TypeBulkString {
			continue
		}
		verb := string(v.Array[0].Bulk)
		args := make([][]byte, 0, len(v.Array)-1)
		for _, a := range v.Array[1:] {
			args = append(args, a.Bulk)
		}
		s.mu.Lock()
		h := s.handler
		s.mu.Unlock()
		reply := h(verb, args)
		w.Write(resp.Encode(nil, reply))
		if err := w.Flush(); err != nil {
			return
		}
	}
}
