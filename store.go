package sparklr

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// entityStore is the per-client identity cache for posts and users. It
// guarantees at most one live instance per id and kind: once an id is
// cached, later construction attempts return the existing instance and
// their data is discarded (first-writer-wins).
//
// The store is owned by a client, never global, so every client (and every
// test) gets isolated cache state. Capacity is bounded per kind with LRU
// eviction; an evicted entity is simply re-fetched as a fresh instance on
// next access.
type entityStore struct {
	posts    *lru.Cache[int64, *Post]
	users    *lru.Cache[int64, *User]
	flight   singleflight.Group
	observer Observer
}

func newEntityStore(size int, observer Observer) (*entityStore, error) {
	posts, err := lru.New[int64, *Post](size)
	if err != nil {
		return nil, fmt.Errorf("post cache: %w", err)
	}
	users, err := lru.New[int64, *User](size)
	if err != nil {
		return nil, fmt.Errorf("user cache: %w", err)
	}
	return &entityStore{
		posts:    posts,
		users:    users,
		observer: observer,
	}, nil
}

// post looks up a cached post, notifying the observer of the outcome.
func (s *entityStore) post(id int64) (*Post, bool) {
	p, ok := s.posts.Get(id)
	if ok {
		s.observer.OnEntityHit("post", id)
	} else {
		s.observer.OnEntityMiss("post", id)
	}
	return p, ok
}

// user looks up a cached user, notifying the observer of the outcome.
func (s *entityStore) user(id int64) (*User, bool) {
	u, ok := s.users.Get(id)
	if ok {
		s.observer.OnEntityHit("user", id)
	} else {
		s.observer.OnEntityMiss("user", id)
	}
	return u, ok
}

// peekPost looks up a cached post without notifying the observer or
// touching recency. For internal rechecks; caller-facing lookups go through
// post so hit/miss accounting stays one event per logical lookup.
func (s *entityStore) peekPost(id int64) (*Post, bool) {
	return s.posts.Peek(id)
}

// peekUser is peekPost's analogue for users.
func (s *entityStore) peekUser(id int64) (*User, bool) {
	return s.users.Peek(id)
}

// insertPost caches p unless its id is already present, in which case the
// existing instance is returned and p is discarded.
func (s *entityStore) insertPost(p *Post) *Post {
	if existing, ok, _ := s.posts.PeekOrAdd(p.id, p); ok {
		return existing
	}
	return p
}

// insertUser caches u unless its id is already present, in which case the
// existing instance is returned and u is discarded.
func (s *entityStore) insertUser(u *User) *User {
	if existing, ok, _ := s.users.PeekOrAdd(u.id, u); ok {
		return existing
	}
	return u
}

// resolvePost returns the cached post for id or builds it via fetch.
// Concurrent callers for the same id share a single in-flight fetch, so a
// burst of lookups produces exactly one network call and one instance.
// fetch must cache its result through insertPost before returning.
func (s *entityStore) resolvePost(ctx context.Context, id int64, fetch func() (*Post, error)) (*Post, error) {
	if p, ok := s.post(id); ok {
		return p, nil
	}

	v, err, _ := s.flight.Do(fmt.Sprintf("post/%d", id), func() (interface{}, error) {
		// Recheck under the flight: another caller may have finished first.
		if p, ok := s.posts.Get(id); ok {
			return p, nil
		}
		return fetch()
	})
	if err != nil {
		return nil, err
	}
	return v.(*Post), nil
}

// resolveUser is resolvePost's analogue for users.
func (s *entityStore) resolveUser(ctx context.Context, id int64, fetch func() (*User, error)) (*User, error) {
	if u, ok := s.user(id); ok {
		return u, nil
	}

	v, err, _ := s.flight.Do(fmt.Sprintf("user/%d", id), func() (interface{}, error) {
		if u, ok := s.users.Get(id); ok {
			return u, nil
		}
		return fetch()
	})
	if err != nil {
		return nil, err
	}
	return v.(*User), nil
}

// reset drops all cached entities. Fresh instances are built on next access.
func (s *entityStore) reset() {
	s.posts.Purge()
	s.users.Purge()
}

// len reports cached entities per kind, for tests and metrics.
func (s *entityStore) len() (posts, users int) {
	return s.posts.Len(), s.users.Len()
}
