// Package realtime provides the transports behind core/realtime.Channel:
// a Socket.IO client for Flask-SocketIO backends, a plain websocket client
// speaking a JSON envelope and an MQTT subscriber. Importing the package
// registers all three with the channel registry.
package realtime
