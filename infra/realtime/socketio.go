package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	corerealtime "github.com/kilianp07/kmrl-dash/core/realtime"
	"github.com/kilianp07/kmrl-dash/infra/logger"
)

// Engine.IO packet types.
const (
	eioOpen    = '0'
	eioClose   = '1'
	eioPing    = '2'
	eioPong    = '3'
	eioMessage = '4'
)

// Socket.IO packet types, carried inside Engine.IO messages.
const (
	sioConnect      = '0'
	sioDisconnect   = '1'
	sioEvent        = '2'
	sioConnectError = '4'
)

// SocketIOConfig configures the Socket.IO transport.
type SocketIOConfig struct {
	URL              string            `json:"url"`
	Path             string            `json:"path"`
	Namespace        string            `json:"namespace"`
	Headers          map[string]string `json:"headers"`
	ReconnectDelay   time.Duration     `json:"reconnect_delay"`
	HandshakeTimeout time.Duration     `json:"handshake_timeout"`
}

func (c *SocketIOConfig) setDefaults() {
	if c.Path == "" {
		c.Path = "/socket.io/"
	}
	if c.Namespace == "" {
		c.Namespace = "/"
	}
	if c.ReconnectDelay <= 0 {
		c.ReconnectDelay = DefaultReconnectDelay
	}
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = 10 * time.Second
	}
}

// SocketIO speaks Engine.IO v4 over a websocket.
type SocketIO struct {
	cfg      SocketIOConfig
	endpoint string
	header   http.Header
	dialer   *websocket.Dialer
	log      logger.Logger
}

// NewSocketIO validates cfg and builds the transport.
func NewSocketIO(cfg SocketIOConfig, log logger.Logger) (*SocketIO, error) {
	cfg.setDefaults()
	endpoint, err := socketIOEndpoint(cfg.URL, cfg.Path)
	if err != nil {
		return nil, err
	}
	h := http.Header{}
	for k, v := range cfg.Headers {
		h.Set(k, v)
	}
	return &SocketIO{
		cfg:      cfg,
		endpoint: endpoint,
		header:   h,
		dialer:   &websocket.Dialer{HandshakeTimeout: cfg.HandshakeTimeout, Proxy: http.ProxyFromEnvironment},
		log:      logger.OrNop(log),
	}, nil
}

// Endpoint returns the websocket URL that is dialed.
func (s *SocketIO) Endpoint() string { return s.endpoint }

func socketIOEndpoint(raw, path string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("socketio url: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("socketio url %q: unsupported scheme", raw)
	}
	if u.Host == "" {
		return "", fmt.Errorf("socketio url %q: missing host", raw)
	}
	u.Path = path
	q := u.Query()
	q.Set("EIO", "4")
	q.Set("transport", "websocket")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Run implements core/realtime.Channel.
func (s *SocketIO) Run(ctx context.Context, out chan<- corerealtime.Event) error {
	return redial(ctx, out, s.cfg.ReconnectDelay, s.log, s.session)
}

func (s *SocketIO) nsPrefix() string {
	if s.cfg.Namespace == "/" {
		return ""
	}
	return s.cfg.Namespace + ","
}

func (s *SocketIO) session(ctx context.Context, out chan<- corerealtime.Event) (bool, error) {
	conn, _, err := s.dialer.DialContext(ctx, s.endpoint, s.header)
	if err != nil {
		return false, fmt.Errorf("dial %s: %w", s.endpoint, err)
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	established := false
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return established, err
		}
		if len(msg) == 0 {
			continue
		}
		switch msg[0] {
		case eioOpen:
			if err := conn.WriteMessage(websocket.TextMessage, []byte(string(eioMessage)+string(sioConnect)+s.nsPrefix())); err != nil {
				return established, fmt.Errorf("socketio connect: %w", err)
			}
		case eioPing:
			if err := conn.WriteMessage(websocket.TextMessage, []byte{eioPong}); err != nil {
				return established, fmt.Errorf("socketio pong: %w", err)
			}
		case eioClose:
			return established, errors.New("server closed the session")
		case eioMessage:
			ok, err := s.handlePacket(ctx, out, string(msg[1:]), &established)
			if err != nil || !ok {
				return established, err
			}
		}
	}
}

// handlePacket processes one Socket.IO packet. It returns false when the
// session must end.
func (s *SocketIO) handlePacket(ctx context.Context, out chan<- corerealtime.Event, pkt string, established *bool) (bool, error) {
	if pkt == "" {
		return true, nil
	}
	switch pkt[0] {
	case sioConnect:
		*established = true
		return corerealtime.Emit(ctx, out, corerealtime.Connected{}), nil
	case sioDisconnect:
		return false, errors.New("server disconnected the namespace")
	case sioConnectError:
		return false, fmt.Errorf("socketio connect refused: %s", pkt[1:])
	case sioEvent:
		name, data, err := parseEventPacket(pkt[1:])
		if err != nil {
			s.log.Warnf("socketio: %v", err)
			return true, nil
		}
		ev, err := corerealtime.Decode(name, data)
		if err != nil {
			s.log.Debugf("socketio: skipping event: %v", err)
			return true, nil
		}
		return corerealtime.Emit(ctx, out, ev), nil
	}
	return true, nil
}

// parseEventPacket splits `[/ns,][ackID]["name",data]` into the event name
// and its first argument.
func parseEventPacket(body string) (string, []byte, error) {
	if strings.HasPrefix(body, "/") {
		i := strings.IndexByte(body, ',')
		if i < 0 {
			return "", nil, fmt.Errorf("malformed namespace in %q", body)
		}
		body = body[i+1:]
	}
	body = strings.TrimLeft(body, "0123456789")
	var args []json.RawMessage
	if err := json.Unmarshal([]byte(body), &args); err != nil {
		return "", nil, fmt.Errorf("decode event packet: %w", err)
	}
	if len(args) == 0 {
		return "", nil, errors.New("event packet without name")
	}
	var name string
	if err := json.Unmarshal(args[0], &name); err != nil {
		return "", nil, fmt.Errorf("event name: %w", err)
	}
	if len(args) < 2 {
		return name, nil, nil
	}
	return name, args[1], nil
}
