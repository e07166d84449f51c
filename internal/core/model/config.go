package model

import "time"

// ClientConfig contains runtime settings for talking to the backend.
type ClientConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
}
