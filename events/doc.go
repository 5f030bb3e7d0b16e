// Package events publishes health transitions to Kafka so other services
// can react to this process becoming ready or not ready.
package events
