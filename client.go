package sparklr

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"unicode/utf8"
)

// MaxMessageLength is the longest message SubmitPost accepts, in characters.
// A message of exactly this length is allowed.
const MaxMessageLength = 500

// Client is a Sparklr API client. It owns the HTTP transport and the entity
// cache, so two clients never share instances and tests get isolation for
// free. All methods are safe for concurrent use.
//
// Example:
//
//	client, err := sparklr.New(sparklr.DefaultConfig().
//	    WithBaseURL("https://api.sparklr.example"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	post, err := client.Post(ctx, 42)
//	if sparklr.IsNoData(err) {
//	    // nothing to display
//	}
type Client interface {
	// Post returns the post with the given id. The lookup is cache-first;
	// a miss fetches from the API and caches the result. Fails with a
	// NoData error when the API reports a non-success status.
	Post(ctx context.Context, id int64) (*Post, error)

	// User returns the user with the given id, cache-first like Post.
	User(ctx context.Context, id int64) (*User, error)

	// Notifications fetches the notifications feed. The result preserves
	// response order; from and to users are resolved through the user
	// cache, from before to for each notification. The operation is
	// all-or-nothing: any failure returns no notifications at all.
	Notifications(ctx context.Context) ([]*Notification, error)

	// SubmitPost publishes a message to the caller's default network.
	// Messages over 500 characters are rejected with a validation error
	// before any network activity. The returned bool is the server's
	// accepted/rejected verdict.
	SubmitPost(ctx context.Context, message string) (bool, error)

	// SubmitPostTo is SubmitPost targeting a specific network. Validation
	// is identical; only the network context differs.
	SubmitPostTo(ctx context.Context, message, network string) (bool, error)

	// Ping checks connectivity to the Sparklr API.
	Ping(ctx context.Context) error

	// ResetCache drops all cached posts and users. Later lookups build
	// fresh instances.
	ResetCache()

	// Close releases the client's resources. Safe to call multiple times.
	Close() error
}

// client is the concrete implementation of the Client interface.
type client struct {
	transport *httpTransport
	config    *Config
	store     *entityStore
	mu        sync.RWMutex
	closed    bool
}

// New creates a Sparklr client with the provided configuration. If cfg is
// nil, defaults are used.
func New(cfg *Config) (Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	transport, err := newHTTPTransport(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create transport: %w", err)
	}

	store, err := newEntityStore(cfg.EntityCacheSize, cfg.Observer)
	if err != nil {
		return nil, err
	}

	return &client{
		transport: transport,
		config:    cfg,
		store:     store,
	}, nil
}

// Post implements Client.
func (c *client) Post(ctx context.Context, id int64) (*Post, error) {
	if err := c.checkClosed(); err != nil {
		return nil, err
	}
	return c.store.resolvePost(ctx, id, func() (*Post, error) {
		return c.fetchPost(ctx, id)
	})
}

// User implements Client.
func (c *client) User(ctx context.Context, id int64) (*User, error) {
	if err := c.checkClosed(); err != nil {
		return nil, err
	}
	return c.store.resolveUser(ctx, id, func() (*User, error) {
		return c.fetchUser(ctx, id)
	})
}

// Notifications implements Client.
func (c *client) Notifications(ctx context.Context) ([]*Notification, error) {
	if err := c.checkClosed(); err != nil {
		return nil, err
	}

	var payloads []notificationPayload
	if err := c.transport.get(ctx, "/notifications", &payloads); err != nil {
		return nil, readError(err, "notifications")
	}

	notifications := make([]*Notification, 0, len(payloads))
	for i := range payloads {
		payload := &payloads[i]

		from, err := c.User(ctx, payload.From)
		if err != nil {
			return nil, err
		}
		to, err := c.User(ctx, payload.To)
		if err != nil {
			return nil, err
		}

		notifications = append(notifications, &Notification{
			id:     payload.ID,
			from:   from,
			to:     to,
			ntype:  notificationTypeFromWire(payload.Type),
			time:   payload.Time,
			body:   payload.Body,
			action: payload.Action,
		})
	}
	return notifications, nil
}

// SubmitPost implements Client.
func (c *client) SubmitPost(ctx context.Context, message string) (bool, error) {
	return c.submit(ctx, submitRequest{Message: message})
}

// SubmitPostTo implements Client.
func (c *client) SubmitPostTo(ctx context.Context, message, network string) (bool, error) {
	return c.submit(ctx, submitRequest{Message: message, Network: network})
}

func (c *client) submit(ctx context.Context, req submitRequest) (bool, error) {
	if err := c.checkClosed(); err != nil {
		return false, err
	}
	if utf8.RuneCountInString(req.Message) > MaxMessageLength {
		return false, NewError(ErrorTypeValidation,
			fmt.Sprintf("message exceeds %d characters", MaxMessageLength), ErrMessageTooLong)
	}

	var accepted bool
	if err := c.transport.post(ctx, "/submitpost", req, &accepted); err != nil {
		return false, err
	}
	return accepted, nil
}

// Ping implements Client.
func (c *client) Ping(ctx context.Context) error {
	if err := c.checkClosed(); err != nil {
		return err
	}

	var resp struct {
		Status string `json:"status"`
	}
	if err := c.transport.get(ctx, "/health", &resp); err != nil {
		return err
	}
	if resp.Status != "ok" {
		return fmt.Errorf("server is not healthy: %s", resp.Status)
	}
	return nil
}

// ResetCache implements Client.
func (c *client) ResetCache() {
	c.store.reset()
}

// Close implements Client.
func (c *client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	return c.transport.close()
}

func (c *client) checkClosed() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return ErrClosed
	}
	return nil
}

// fetchPost fetches one post and runs it through the factory.
func (c *client) fetchPost(ctx context.Context, id int64) (*Post, error) {
	var payload postPayload
	path := buildPath("/post/{0}", strconv.FormatInt(id, 10))
	if err := c.transport.get(ctx, path, &payload); err != nil {
		return nil, readError(err, fmt.Sprintf("post %d", id))
	}
	return c.instantiatePost(ctx, &payload)
}

// fetchUser fetches one user and runs it through the factory.
func (c *client) fetchUser(ctx context.Context, id int64) (*User, error) {
	var payload userPayload
	path := buildPath("/user/{0}", strconv.FormatInt(id, 10))
	if err := c.transport.get(ctx, path, &payload); err != nil {
		return nil, readError(err, fmt.Sprintf("user %d", id))
	}
	return c.instantiateUser(&payload), nil
}

// fetchComments fetches a post's comments. Invoked once per post instance
// by Post.Comments, which memoizes the result.
func (c *client) fetchComments(ctx context.Context, postID int64) ([]*Comment, error) {
	var payloads []commentPayload
	path := buildPath("/comments/{0}", strconv.FormatInt(postID, 10))
	if err := c.transport.get(ctx, path, &payloads); err != nil {
		return nil, readError(err, fmt.Sprintf("comments for post %d", postID))
	}

	comments := make([]*Comment, 0, len(payloads))
	for i := range payloads {
		payload := &payloads[i]
		comments = append(comments, &Comment{
			id:        payload.ID,
			author:    c.instantiateUser(&payload.From),
			content:   payload.Message,
			timestamp: payload.Time,
		})
	}
	return comments, nil
}

// instantiatePost converts a wire payload into the canonical Post for its
// id. Nested references are resolved first, in document order: the author
// from the embedded user object, then the via user by id over the network.
// A failed nested resolution aborts the whole instantiation and caches
// nothing. The cache is consulted up front so a hit skips nested fetches;
// under a race the insert still applies first-writer-wins.
func (c *client) instantiatePost(ctx context.Context, payload *postPayload) (*Post, error) {
	if existing, ok := c.store.peekPost(payload.ID); ok {
		return existing, nil
	}

	author := c.instantiateUser(&payload.From)

	var via *User
	if payload.Via != nil {
		u, err := c.User(ctx, *payload.Via)
		if err != nil {
			return nil, err
		}
		via = u
	}

	post := &Post{
		conn:         c,
		id:           payload.ID,
		author:       author,
		network:      payload.Network,
		postType:     PostType(payload.Type),
		meta:         payload.Meta,
		timestamp:    payload.Time,
		public:       payload.isPublic(),
		content:      payload.Message,
		via:          via,
		commentCount: payload.commentCount(),
		modified:     payload.modified(),
	}
	if payload.OrigID != nil {
		post.hasOriginal = true
		post.originalID = *payload.OrigID
	}
	return c.store.insertPost(post), nil
}

// instantiateUser converts an embedded user payload into the canonical User
// for its id. No network access: the payload already carries every field.
func (c *client) instantiateUser(payload *userPayload) *User {
	if existing, ok := c.store.peekUser(payload.ID); ok {
		return existing
	}
	return c.store.insertUser(&User{
		conn:    c,
		id:      payload.ID,
		name:    payload.Name,
		network: payload.Network,
	})
}

// readError applies the read-path error rule: a non-success API status
// becomes a NoData error, while transport faults pass through unchanged.
func readError(err error, what string) error {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return NewError(ErrorTypeNoData, "no data found for "+what, err)
	}
	return err
}
