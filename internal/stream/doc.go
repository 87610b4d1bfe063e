// Package stream follows new withdrawals over the OKX private websocket.
//
// A Client logs in, subscribes to the withdrawal-info channel and hands each
// pushed batch of records to a handler. OKX drops connections that stay
// silent for 30 seconds, so the client sends a text "ping" after a quiet
// PingInterval and expects "pong" back.
package stream
