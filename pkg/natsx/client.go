// Package natsx connects to the NATS server that receives run events.
package natsx

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/IronClad1607/research-agent/pkg/slogx"
	"github.com/nats-io/nats.go"
)

// ClientName identifies research-agent connections on the server.
const ClientName = "research-agent"

// DefaultOptions name the connection, compress traffic and log connection
// state changes.
func DefaultOptions() []nats.Option {
	lg := slog.Default().With(slogx.LoggerName("natsx"))
	return []nats.Option{
		nats.Name(ClientName),
		nats.Compression(true),
		nats.Timeout(5 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				lg.Warn("disconnected", slogx.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			lg.Info("reconnected", slog.String("url", c.ConnectedUrl()))
		}),
	}
}

// Connect dials url. DefaultOptions apply when opts is empty.
func Connect(url string, opts ...nats.Option) (*nats.Conn, error) {
	if url == "" {
		return nil, errors.New("nats url is required")
	}
	if len(opts) == 0 {
		opts = DefaultOptions()
	}
	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to nats at %s: %w", url, err)
	}
	return conn, nil
}
