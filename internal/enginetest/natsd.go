package enginetest

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// NATSServer is a single-node NATS server with exact-subject routing.
type NATSServer struct {
	ln net.Listener

	mu   sync.Mutex
	subs map[string][]natsSub // subject -> subscriptions
}

type natsSub struct {
	c   *natsConn
	sid string
}

type natsConn struct {
	net.Conn
	wmu sync.Mutex
}

func (c *natsConn) send(s string) {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	_, _ = io.WriteString(c, s)
}

// NewNATSServer listens on a loopback port until the test ends.
func NewNATSServer(t testing.TB) *NATSServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	s := &NATSServer{ln: ln, subs: make(map[string][]natsSub)}
	go s.accept()
	t.Cleanup(func() { _ = ln.Close() })
	return s
}

// URL is the nats:// address clients connect to.
func (s *NATSServer) URL() string { return "nats://" + s.ln.Addr().String() }

// Subscribers counts live subscriptions on subject.
func (s *NATSServer) Subscribers(subject string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs[subject])
}

// Publish delivers payload to every subscriber of subject.
func (s *NATSServer) Publish(subject string, payload []byte) {
	s.mu.Lock()
	subs := append([]natsSub(nil), s.subs[subject]...)
	s.mu.Unlock()
	for _, sub := range subs {
		sub.c.send(fmt.Sprintf("MSG %s %s %d\r\n%s\r\n", subject, sub.sid, len(payload), payload))
	}
}

func (s *NATSServer) accept() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		go s.serve(&natsConn{Conn: conn})
	}
}

func (s *NATSServer) serve(c *natsConn) {
	defer s.drop(c)
	defer c.Close()

	c.send(`INFO {"server_id":"enginetest","version":"2.0.0","go":"go","host":"127.0.0.1","port":4222,"max_payload":1048576,"proto":1}` + "\r\n")
	r := bufio.NewReader(c)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		f := strings.Fields(line)
		if len(f) == 0 {
			continue
		}
		switch strings.ToUpper(f[0]) {
		case "CONNECT", "PONG":
		case "PING":
			c.send("PONG\r\n")
		case "SUB":
			if len(f) < 3 {
				return
			}
			s.mu.Lock()
			s.subs[f[1]] = append(s.subs[f[1]], natsSub{c: c, sid: f[len(f)-1]})
			s.mu.Unlock()
		case "UNSUB":
			if len(f) >= 2 {
				s.unsub(c, f[1])
			}
		case "PUB":
			if len(f) < 3 {
				return
			}
			n, err := strconv.Atoi(f[len(f)-1])
			if err != nil {
				return
			}
			payload := make([]byte, n+2)
			if _, err := io.ReadFull(r, payload); err != nil {
				return
			}
			s.Publish(f[1], payload[:n])
		default:
			c.send("-ERR 'Unknown Protocol Operation'\r\n")
		}
	}
}

func (s *NATSServer) unsub(c *natsConn, sid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for subject, subs := range s.subs {
		kept := subs[:0]
		for _, sub := range subs {
			if sub.c != c || sub.sid != sid {
				kept = append(kept, sub)
			}
		}
		s.subs[subject] = kept
	}
}

func (s *NATSServer) drop(c *natsConn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for subject, subs := range s.subs {
		kept := subs[:0]
		for _, sub := range subs {
			if sub.c != c {
				kept = append(kept, sub)
			}
		}
		s.subs[subject] = kept
	}
}
