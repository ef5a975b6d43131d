package sparklr

// User is a Sparklr account. Users are created only by the client's factory
// and are identity-cached: within one client there is at most one live User
// per id, shared by every post, comment and notification that references it.
type User struct {
	conn    *client
	id      int64
	name    string
	network string
}

// ID returns the user's identifier.
func (u *User) ID() int64 { return u.id }

// Name returns the user's display name.
func (u *User) Name() string { return u.name }

// Network returns the network the user belongs to.
func (u *User) Network() string { return u.network }
