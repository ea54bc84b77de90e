package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	corerealtime "github.com/kilianp07/kmrl-dash/core/realtime"
	"github.com/kilianp07/kmrl-dash/infra/logger"
)

// WebsocketConfig configures the plain websocket transport.
type WebsocketConfig struct {
	URL              string            `json:"url"`
	Headers          map[string]string `json:"headers"`
	ReconnectDelay   time.Duration     `json:"reconnect_delay"`
	HandshakeTimeout time.Duration     `json:"handshake_timeout"`
}

// Envelope is the frame carried by the websocket transport.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Websocket reads Envelope frames from a websocket server.
type Websocket struct {
	cfg    WebsocketConfig
	header http.Header
	dialer *websocket.Dialer
	log    logger.Logger
}

// NewWebsocket builds the transport.
func NewWebsocket(cfg WebsocketConfig, log logger.Logger) (*Websocket, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("websocket: url required")
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = DefaultReconnectDelay
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = 10 * time.Second
	}
	h := http.Header{}
	for k, v := range cfg.Headers {
		h.Set(k, v)
	}
	return &Websocket{
		cfg:    cfg,
		header: h,
		dialer: &websocket.Dialer{HandshakeTimeout: cfg.HandshakeTimeout, Proxy: http.ProxyFromEnvironment},
		log:    logger.OrNop(log),
	}, nil
}

// Run implements core/realtime.Channel.
func (w *Websocket) Run(ctx context.Context, out chan<- corerealtime.Event) error {
	return redial(ctx, out, w.cfg.ReconnectDelay, w.log, w.session)
}

func (w *Websocket) session(ctx context.Context, out chan<- corerealtime.Event) (bool, error) {
	conn, _, err := w.dialer.DialContext(ctx, w.cfg.URL, w.header)
	if err != nil {
		return false, fmt.Errorf("dial %s: %w", w.cfg.URL, err)
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if !corerealtime.Emit(ctx, out, corerealtime.Connected{}) {
		return true, nil
	}
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return true, err
		}
		var env Envelope
		if err := json.Unmarshal(msg, &env); err != nil {
			w.log.Warnf("websocket: bad frame: %v", err)
			continue
		}
		ev, err := corerealtime.Decode(env.Event, env.Data)
		if err != nil {
			w.log.Debugf("websocket: skipping frame: %v", err)
			continue
		}
		if !corerealtime.Emit(ctx, out, ev) {
			return true, nil
		}
	}
}
