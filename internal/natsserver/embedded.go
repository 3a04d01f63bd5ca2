// Package natsserver runs an in-process NATS server so the trip feed
// needs no external broker.
package natsserver

import (
	"fmt"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
)

type Embedded struct {
	server *server.Server
	conn   *nats.Conn
	port   int
}

// New starts the embedded server and opens the internal client
// connection used by the ledger and the feed hub.
func New(port int) (*Embedded, error) {
	opts := &server.Options{
		Host:   "127.0.0.1",
		Port:   port,
		NoLog:  true,
		NoSigs: true,
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create NATS server: %w", err)
	}

	go ns.Start()
	if !ns.ReadyForConnections(5 * time.Second) {
		return nil, fmt.Errorf("NATS server not ready after 5 seconds")
	}

	nc, err := nats.Connect(
		fmt.Sprintf("nats://127.0.0.1:%d", port),
		nats.Name("toll-engine-internal"),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		ns.Shutdown()
		return nil, fmt.Errorf("failed to connect to embedded NATS: %w", err)
	}

	return &Embedded{server: ns, conn: nc, port: port}, nil
}

// Conn returns the internal client connection.
func (e *Embedded) Conn() *nats.Conn {
	return e.conn
}

func (e *Embedded) Shutdown() {
	if e.conn != nil {
		e.conn.Close()
	}
	if e.server != nil {
		e.server.Shutdown()
	}
}
