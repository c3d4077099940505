// Package sway wraps the sway IPC socket behind the narrow surface the rest
// of the tool needs: running commands and streaming window lifecycle events.
package sway

import (
	"context"
	"fmt"

	"github.com/joshuarubin/go-sway"
)

// Client runs commands against the compositor.
type Client interface {
	RunCommand(ctx context.Context, command string) error
}

type client struct {
	conn sway.Client
}

// Connect opens a connection to the sway IPC socket (located via SWAYSOCK).
func Connect(ctx context.Context) (Client, error) {
	conn, err := sway.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("connect to sway socket: %w", err)
	}
	return &client{conn: conn}, nil
}

// RunCommand sends the command to sway and fails if sway reports an error for
// any of its statements.
func (c *client) RunCommand(ctx context.Context, command string) error {
	replies, err := c.conn.RunCommand(ctx, command)
	if err != nil {
		return err
	}
	for _, reply := range replies {
		if !reply.Success {
			return fmt.Errorf("sway rejected command: %s", reply.Error)
		}
	}
	return nil
}
