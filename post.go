package sparklr

import (
	"context"
	"sort"
	"sync"
)

// neverModified is the ModifiedTimestamp sentinel for posts the server has
// never updated.
const neverModified int64 = -1

// PostType is the raw post-kind integer the API reports. The SDK treats it
// as opaque.
type PostType int

// Post is a Sparklr post. Posts are created only by the client's factory
// and identity-cached: within one client there is at most one live Post per
// id, and later construction attempts for a cached id are discarded.
//
// All identity fields are immutable after construction. The comment list
// and the original post are lazily resolved on first access and memoized on
// the instance; staleness is accepted, there is no invalidation.
type Post struct {
	conn         *client
	id           int64
	author       *User
	network      string
	postType     PostType
	meta         string
	timestamp    int64
	public       bool
	content      string
	originalID   int64
	hasOriginal  bool
	via          *User
	commentCount int
	modified     int64

	// commentsMu doubles as the in-flight marker: a second caller during
	// the first fetch blocks and then reads the memoized result.
	commentsMu       sync.Mutex
	commentsResolved bool
	comments         []*Comment

	originalMu       sync.Mutex
	originalResolved bool
	original         *Post
}

// ID returns the post's identifier.
func (p *Post) ID() int64 { return p.id }

// Author returns the post's author.
func (p *Post) Author() *User { return p.author }

// Network returns the network the post was published on.
func (p *Post) Network() string { return p.network }

// Type returns the raw post type.
func (p *Post) Type() PostType { return p.postType }

// Meta returns the post's metadata string.
func (p *Post) Meta() string { return p.meta }

// SetMeta replaces the post's metadata string. The change is visible to
// every holder of the instance.
func (p *Post) SetMeta(meta string) { p.meta = meta }

// Timestamp returns the origin-assigned display-order timestamp. It is
// separate from identity; two posts may share a timestamp.
func (p *Post) Timestamp() int64 { return p.timestamp }

// SetTimestamp reassigns the display-order timestamp. Identity is unchanged;
// collections holding the post must be re-sorted to reflect the new order.
func (p *Post) SetTimestamp(ts int64) { p.timestamp = ts }

// Public reports whether the post is visible. Only an explicit public flag
// of 1 on the wire counts as visible.
func (p *Post) Public() bool { return p.public }

// Content returns the post's message text.
func (p *Post) Content() string { return p.content }

// HasOriginalPost reports whether this post is a repost of another post.
func (p *Post) HasOriginalPost() bool { return p.hasOriginal }

// OriginalPostID returns the reposted post's id, or 0 when HasOriginalPost
// is false.
func (p *Post) OriginalPostID() int64 { return p.originalID }

// Via returns the user the repost was attributed through, or nil.
func (p *Post) Via() *User { return p.via }

// CommentCount returns the comment count the server reported when the post
// was fetched. It is not derived from the loaded comment list.
func (p *Post) CommentCount() int { return p.commentCount }

// ModifiedTimestamp returns when the post was last modified, or -1 if never.
func (p *Post) ModifiedTimestamp() int64 { return p.modified }

// Comments returns the post's comments, most recent first. The first call
// fetches them from the API and memoizes the sorted list on the instance;
// every later call returns the same list without network access, even if
// server-side comments have changed since.
func (p *Post) Comments(ctx context.Context) ([]*Comment, error) {
	p.commentsMu.Lock()
	defer p.commentsMu.Unlock()

	if p.commentsResolved {
		return p.comments, nil
	}

	comments, err := p.conn.fetchComments(ctx, p.id)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(comments, func(i, j int) bool {
		return comments[i].timestamp > comments[j].timestamp
	})

	p.comments = comments
	p.commentsResolved = true
	return p.comments, nil
}

// OriginalPost resolves the post this post reposts. It returns nil
// immediately, without network access, when HasOriginalPost is false;
// otherwise the original is resolved through the client's cache-first post
// lookup and memoized on the instance.
func (p *Post) OriginalPost(ctx context.Context) (*Post, error) {
	if !p.hasOriginal {
		return nil, nil
	}

	p.originalMu.Lock()
	defer p.originalMu.Unlock()

	if p.originalResolved {
		return p.original, nil
	}

	original, err := p.conn.Post(ctx, p.originalID)
	if err != nil {
		return nil, err
	}

	p.original = original
	p.originalResolved = true
	return original, nil
}

// ToggleLike is declared by the Sparklr API but not supported by the SDK.
// It always returns an error satisfying IsNotImplemented.
func (p *Post) ToggleLike(ctx context.Context) error {
	return NewError(ErrorTypeUnsupported, "toggling likes is not supported", ErrNotImplemented)
}

// AddComment is declared by the Sparklr API but not supported by the SDK.
// It always returns an error satisfying IsNotImplemented.
func (p *Post) AddComment(ctx context.Context, message string) error {
	return NewError(ErrorTypeUnsupported, "commenting is not supported", ErrNotImplemented)
}

// Posts is the default ordering for post collections: timestamp descending,
// most recent first. Equal timestamps keep their insertion order.
//
//	posts := sparklr.Posts{a, b, c}
//	posts.Sort()
type Posts []*Post

// Len implements sort.Interface.
func (p Posts) Len() int { return len(p) }

// Less implements sort.Interface: newer posts sort first.
func (p Posts) Less(i, j int) bool { return p[i].timestamp > p[j].timestamp }

// Swap implements sort.Interface.
func (p Posts) Swap(i, j int) { p[i], p[j] = p[j], p[i] }

// Sort sorts the collection in place, stably, newest first.
func (p Posts) Sort() {
	sort.Stable(p)
}
