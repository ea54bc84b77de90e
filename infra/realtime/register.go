package realtime

import (
	"github.com/kilianp07/kmrl-dash/core/factory"
	corerealtime "github.com/kilianp07/kmrl-dash/core/realtime"
	"github.com/kilianp07/kmrl-dash/infra/logger"
)

// Transport names accepted in configuration.
const (
	TypeSocketIO  = "socketio"
	TypeWebsocket = "websocket"
	TypeMQTT      = "mqtt"
)

func init() {
	must(corerealtime.RegisterChannel(TypeSocketIO, func(conf map[string]any) (corerealtime.Channel, error) {
		var cfg SocketIOConfig
		if err := factory.Decode(conf, &cfg); err != nil {
			return nil, err
		}
		return NewSocketIO(cfg, logger.New("realtime_socketio"))
	}))
	must(corerealtime.RegisterChannel(TypeWebsocket, func(conf map[string]any) (corerealtime.Channel, error) {
		var cfg WebsocketConfig
		if err := factory.Decode(conf, &cfg); err != nil {
			return nil, err
		}
		return NewWebsocket(cfg, logger.New("realtime_websocket"))
	}))
	must(corerealtime.RegisterChannel(TypeMQTT, func(conf map[string]any) (corerealtime.Channel, error) {
		var cfg MQTTConfig
		if err := factory.Decode(conf, &cfg); err != nil {
			return nil, err
		}
		return NewMQTT(cfg, logger.New("realtime_mqtt"))
	}))
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
