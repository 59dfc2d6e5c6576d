package rpc

import "errors"

// Sentinel errors returned inside connect errors by the server.
var (
	ErrEmptyMessage = errors.New("message is empty")
	ErrRateLimited  = errors.New("post rate exceeded")
	ErrNoMessage    = errors.New("no message posted")
)
