// Package sparklr provides a Go client for the Sparklr social network API.
//
// The client converts the API's JSON responses into typed domain entities
// (Post, User, Comment, Notification) and maintains a per-client identity
// cache so that any given post or user id maps to at most one live instance.
// Repeated lookups, nested references inside posts, and concurrent fetches
// for the same id all return the same pointer, which makes equality checks
// and in-place state sharing work the way callers expect.
//
// Basic usage:
//
//	client, err := sparklr.New(sparklr.DefaultConfig().
//	    WithBaseURL("https://api.sparklr.example").
//	    WithTimeout(10 * time.Second))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	ctx := context.Background()
//
//	post, err := client.Post(ctx, 42)
//	if err != nil {
//	    if sparklr.IsNoData(err) {
//	        // the post does not exist or is not visible
//	    }
//	    return err
//	}
//
//	comments, err := post.Comments(ctx)
//
// Expensive relations are lazy: Post.Comments and Post.OriginalPost fetch on
// first call and memoize the result for the lifetime of the instance.
//
// Errors follow a small taxonomy. Read operations that come back without
// data fail with ErrNoData; oversized submissions fail with
// ErrMessageTooLong before any network activity; operations the API does
// not support yet fail with ErrNotImplemented. All of these are matchable
// with errors.Is, and the helpers IsNoData, IsValidation, IsNotImplemented
// and IsRetryable cover the common checks.
//
// The client retries transient failures with exponential backoff and can
// optionally wrap requests in a circuit breaker. An Observer receives hooks
// for requests, retries, breaker transitions and cache activity;
// MetricsCollector and LogObserver are ready-made implementations.
package sparklr
