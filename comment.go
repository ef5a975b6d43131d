package sparklr

// Comment is a reply attached to a Post. Comments are not identity-cached;
// they live inside their post's memoized comment list, fetched once and
// reused for the lifetime of the post instance. Their authors are canonical
// cached users.
type Comment struct {
	id        int64
	author    *User
	content   string
	timestamp int64
}

// ID returns the comment's identifier.
func (c *Comment) ID() int64 { return c.id }

// Author returns the user who wrote the comment.
func (c *Comment) Author() *User { return c.author }

// Content returns the comment text.
func (c *Comment) Content() string { return c.content }

// Timestamp returns the origin-assigned display-order timestamp.
func (c *Comment) Timestamp() int64 { return c.timestamp }
