// Package infra contains technical adapters such as realtime transports,
// metrics exporters and rendering targets. These packages should depend only
// on the interfaces defined in the core packages.
package infra
