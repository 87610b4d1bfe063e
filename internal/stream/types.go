package stream

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rickgao/okx-withdrawals/internal/model"
)

// Channel is the private channel carrying withdrawal updates.
const Channel = "withdrawal-info"

// Errors
var (
	ErrNotConnected    = errors.New("not connected")
	ErrAlreadyClosed   = errors.New("already closed")
	ErrStaleConnection = errors.New("connection stale (no pong)")
)

// request is an operation sent to the server.
type request struct {
	Op   string `json:"op"`
	Args []any  `json:"args"`
}

// SubscribeArg selects a channel and an optional currency.
type SubscribeArg struct {
	Channel string `json:"channel"`
	Ccy     string `json:"ccy,omitempty"`
	UID     string `json:"uid,omitempty"`
}

// message is any frame received from the server: an event reply or a data
// push.
type message struct {
	Event  string          `json:"event"`
	Code   string          `json:"code"`
	Msg    string          `json:"msg"`
	ConnID string          `json:"connId"`
	Arg    *SubscribeArg   `json:"arg"`
	Data   []*model.Record `json:"data"`
}

func parseMessage(data []byte) (*message, error) {
	var m message
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}
	return &m, nil
}

// EventError is an "error" event, or a login/subscribe reply with a non-zero
// code.
type EventError struct {
	Op   string
	Code string
	Msg  string
}

func (e *EventError) Error() string {
	return fmt.Sprintf("okx websocket %s error: code=%s msg=%s", e.Op, e.Code, e.Msg)
}
