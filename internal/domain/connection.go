package domain

import (
	"net"
	"strconv"
	"time"
)

// DefaultFTPPort is used when a connection does not specify a port.
const DefaultFTPPort = 21

// Connection identifies a remote FTP endpoint together with the credentials
// used to open sessions against it. The gateway treats connections as
// read-only configuration; they are created and deleted through the
// connection management endpoints.
type Connection struct {
	ID        string    `json:"id"`
	Label     string    `json:"label,omitempty"`
	Host      string    `json:"host"`
	Port      int       `json:"port"`
	Username  string    `json:"username"`
	Password  string    `json:"-"`
	RootDir   string    `json:"rootDir,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Addr returns the dial address for the connection.
func (c *Connection) Addr() string {
	port := c.Port
	if port == 0 {
		port = DefaultFTPPort
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(port))
}

// Redacted returns a copy of the connection with the password cleared.
// Every payload leaving the gateway goes through this.
func (c Connection) Redacted() Connection {
	c.Password = ""
	return c
}
