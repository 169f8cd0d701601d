package pvpchan

import "strings"

// Subscriber is one live connection interested in a game. Send must not block; it
// reports false when the payload was dropped (closed or saturated connection).
type Subscriber interface {
	ID() string
	Send(payload []byte) bool
}

const updatesPrefix = "choss:updates:"

func updatesChannel(gameID string) string { return updatesPrefix + strings.TrimSpace(gameID) }

var (
	ErrInvalidArgs = errf("invalid arguments")
	ErrRelayClosed = errf("relay closed")
)

type staticErr string

func (e staticErr) Error() string { return string(e) }
func errf(s string) error         { return staticErr(s) }
