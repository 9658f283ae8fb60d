package ports

// Transport defines the interface for a message transport that accepts
// grocery lists and replies with footprint reports
type Transport interface {
	// Start starts the transport
	Start() error

	// Stop stops the transport
	Stop() error
}
