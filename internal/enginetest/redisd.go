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

// RedisServer answers PING, PUBLISH and the pub/sub commands over RESP2.
// Everything else, HELLO included, gets an error so clients fall back to
// RESP2 and skip optional handshakes.
type RedisServer struct {
	ln net.Listener

	mu   sync.Mutex
	subs map[string][]*redisConn // channel -> subscribers
}

type redisConn struct {
	net.Conn
	wmu sync.Mutex
}

func (c *redisConn) send(s string) {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	_, _ = io.WriteString(c, s)
}

func NewRedisServer(t testing.TB) *RedisServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	s := &RedisServer{ln: ln, subs: make(map[string][]*redisConn)}
	go s.accept()
	t.Cleanup(func() { _ = ln.Close() })
	return s
}

// Addr is the host:port clients dial.
func (s *RedisServer) Addr() string { return s.ln.Addr().String() }

func (s *RedisServer) Subscribers(channel string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs[channel])
}

// Publish pushes payload to every subscriber of channel and reports how many
// received it.
func (s *RedisServer) Publish(channel string, payload []byte) int {
	s.mu.Lock()
	subs := append([]*redisConn(nil), s.subs[channel]...)
	s.mu.Unlock()
	for _, c := range subs {
		c.send(array(bulk("message"), bulk(channel), bulk(string(payload))))
	}
	return len(subs)
}

func (s *RedisServer) accept() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		go s.serve(&redisConn{Conn: conn})
	}
}

func (s *RedisServer) serve(c *redisConn) {
	defer s.drop(c)
	defer c.Close()

	r := bufio.NewReader(c)
	for {
		args, err := readCommand(r)
		if err != nil {
			return
		}
		if len(args) == 0 {
			continue
		}
		switch strings.ToUpper(args[0]) {
		case "PING":
			if s.subscribed(c) {
				c.send(array(bulk("pong"), bulk("")))
			} else {
				c.send("+PONG\r\n")
			}
		case "SUBSCRIBE":
			for _, ch := range args[1:] {
				s.mu.Lock()
				s.subs[ch] = append(s.subs[ch], c)
				n := s.countLocked(c)
				s.mu.Unlock()
				c.send(array(bulk("subscribe"), bulk(ch), integer(n)))
			}
		case "UNSUBSCRIBE":
			s.drop(c)
			for _, ch := range args[1:] {
				c.send(array(bulk("unsubscribe"), bulk(ch), integer(0)))
			}
		case "PUBLISH":
			if len(args) != 3 {
				c.send("-ERR wrong number of arguments for 'publish' command\r\n")
				continue
			}
			c.send(integer(s.Publish(args[1], []byte(args[2]))))
		default:
			c.send(fmt.Sprintf("-ERR unknown command '%s'\r\n", args[0]))
		}
	}
}

func (s *RedisServer) subscribed(c *redisConn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countLocked(c) > 0
}

func (s *RedisServer) countLocked(c *redisConn) int {
	n := 0
	for _, subs := range s.subs {
		for _, sc := range subs {
			if sc == c {
				n++
			}
		}
	}
	return n
}

func (s *RedisServer) drop(c *redisConn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch, subs := range s.subs {
		kept := subs[:0]
		for _, sc := range subs {
			if sc != c {
				kept = append(kept, sc)
			}
		}
		s.subs[ch] = kept
	}
}

// readCommand reads one RESP array of bulk strings.
func readCommand(r *bufio.Reader) ([]string, error) {
	line, err := readLine(r)
	if err != nil {
		return nil, err
	}
	if len(line) == 0 || line[0] != '*' {
		return strings.Fields(line), nil // inline command
	}
	n, err := strconv.Atoi(line[1:])
	if err != nil {
		return nil, err
	}
	args := make([]string, 0, n)
	for i := 0; i < n; i++ {
		hdr, err := readLine(r)
		if err != nil {
			return nil, err
		}
		if len(hdr) == 0 || hdr[0] != '$' {
			return nil, fmt.Errorf("expected bulk string, got %q", hdr)
		}
		size, err := strconv.Atoi(hdr[1:])
		if err != nil {
			return nil, err
		}
		buf := make([]byte, size+2)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, err
		}
		args = append(args, string(buf[:size]))
	}
	return args, nil
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func bulk(s string) string { return "$" + strconv.Itoa(len(s)) + "\r\n" + s + "\r\n" }

func integer(n int) string { return ":" + strconv.Itoa(n) + "\r\n" }

func array(items ...string) string {
	return "*" + strconv.Itoa(len(items)) + "\r\n" + strings.Join(items, "")
}
