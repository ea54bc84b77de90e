package config

import "github.com/kilianp07/kmrl-dash/core/factory"

// RealtimeNone disables the realtime channel.
const RealtimeNone = "none"

// RealtimeConfig selects the realtime transport by its registered type name.
type RealtimeConfig struct {
	factory.ModuleConfig `json:",squash"`
}

// SetDefaults selects the Socket.IO transport against the backend when no
// transport is configured, and points a Socket.IO or websocket transport
// without a URL at the backend.
func (c *RealtimeConfig) SetDefaults(baseURL string) {
	if c.Type == "" {
		c.Type = "socketio"
	}
	if c.Type != "socketio" && c.Type != "websocket" {
		return
	}
	if c.Conf == nil {
		c.Conf = map[string]any{}
	}
	if u, ok := c.Conf["url"].(string); !ok || u == "" {
		c.Conf["url"] = baseURL
	}
}

// Enabled reports whether a transport should be started.
func (c RealtimeConfig) Enabled() bool { return c.Type != RealtimeNone }
