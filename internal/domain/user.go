package domain

// User represents a registered chat participant. The ID is the opaque
// connection id assigned by the transport when the socket was accepted,
// so one user maps to exactly one live connection.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}
