// Package infra contains technical adapters such as the MQTT notifier,
// metrics exporters, the redis schedule cache and the mongo stores. These
// packages should depend only on the interfaces defined in the core packages.
package infra
