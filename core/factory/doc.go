// Package factory provides the generic registry used to pick pluggable modules
// (realtime transports, metrics sinks) from configuration. A module is named by
// a type string and configured with a map of raw settings that its factory
// decodes into a typed struct.
//
//	reg := factory.NewRegistry[realtime.Channel]()
//	_ = reg.Register("mqtt", func(conf map[string]any) (realtime.Channel, error) {
//	    var c struct{ Broker string `json:"broker"` }
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return newMQTTChannel(c.Broker), nil
//	})
package factory
