package mqtt

import "errors"

var (
	// ErrNotConnected is returned when publishing or subscribing on a
	// disconnected client.
	ErrNotConnected = errors.New("mqtt: client not connected")

	ErrConnectionFailed = errors.New("mqtt: connection failed")

	ErrPublishFailed = errors.New("mqtt: publish failed")

	ErrSubscribeFailed = errors.New("mqtt: subscribe failed")

	ErrInvalidTopic = errors.New("mqtt: topic cannot be empty")
)
