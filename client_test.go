package sparklr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient spins up an httptest server around handler and returns a
// client pointed at it. Retries are disabled so failure tests stay fast.
func newTestClient(t *testing.T, handler http.HandlerFunc) Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(DefaultConfig().
		WithBaseURL(server.URL).
		WithRetryStrategy(&NoRetryStrategy{}))
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return client
}

func TestNew(t *testing.T) {
	t.Run("nil config uses defaults", func(t *testing.T) {
		client, err := New(nil)
		require.NoError(t, err)
		defer client.Close()
		assert.NotNil(t, client)
	})

	t.Run("empty base URL", func(t *testing.T) {
		_, err := New(&Config{})
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("malformed base URL", func(t *testing.T) {
		_, err := New(DefaultConfig().WithBaseURL("not-a-url"))
		assert.Error(t, err)
	})
}

func TestPing(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/health", r.URL.Path)
			fmt.Fprint(w, `{"status":"ok"}`)
		})
		assert.NoError(t, client.Ping(context.Background()))
	})

	t.Run("unhealthy", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"status":"degraded"}`)
		})
		assert.Error(t, client.Ping(context.Background()))
	})
}

func TestSubmitPost(t *testing.T) {
	t.Run("accepted", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/submitpost", r.URL.Path)
			body, _ := io.ReadAll(r.Body)
			assert.JSONEq(t, `{"message":"hello world"}`, string(body))
			fmt.Fprint(w, `true`)
		})

		accepted, err := client.SubmitPost(context.Background(), "hello world")
		require.NoError(t, err)
		assert.True(t, accepted)
	})

	t.Run("rejected by server", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `false`)
		})

		accepted, err := client.SubmitPost(context.Background(), "hello")
		require.NoError(t, err)
		assert.False(t, accepted)
	})

	t.Run("targets a network", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			assert.JSONEq(t, `{"message":"hi","network":"twitter"}`, string(body))
			fmt.Fprint(w, `true`)
		})

		accepted, err := client.SubmitPostTo(context.Background(), "hi", "twitter")
		require.NoError(t, err)
		assert.True(t, accepted)
	})
}

func TestSubmitPostValidation(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		fmt.Fprint(w, `true`)
	})

	t.Run("over the limit fails before the network", func(t *testing.T) {
		_, err := client.SubmitPost(context.Background(), strings.Repeat("a", MaxMessageLength+1))
		assert.True(t, IsValidation(err))
		assert.ErrorIs(t, err, ErrMessageTooLong)
		assert.Zero(t, atomic.LoadInt32(&calls))
	})

	t.Run("exactly at the limit is allowed", func(t *testing.T) {
		accepted, err := client.SubmitPost(context.Background(), strings.Repeat("a", MaxMessageLength))
		require.NoError(t, err)
		assert.True(t, accepted)
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})

	t.Run("length counts characters, not bytes", func(t *testing.T) {
		// 500 three-byte runes: well over 500 bytes, still a legal message.
		accepted, err := client.SubmitPost(context.Background(), strings.Repeat("世", MaxMessageLength))
		require.NoError(t, err)
		assert.True(t, accepted)
	})
}

func TestNotifications(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/notifications":
			fmt.Fprint(w, `[
				{"id":1,"from":5,"to":9,"type":1,"time":2000,"body":"liked your post","action":"/post/42"},
				{"id":2,"from":5,"to":9,"type":2,"time":1000,"body":"commented","action":"/post/42"}
			]`)
		case "/user/5":
			fmt.Fprint(w, `{"id":5,"name":"alice","network":"sparklr"}`)
		case "/user/9":
			fmt.Fprint(w, `{"id":9,"name":"bob","network":"sparklr"}`)
		default:
			http.NotFound(w, r)
		}
	})

	notifications, err := client.Notifications(context.Background())
	require.NoError(t, err)
	require.Len(t, notifications, 2)

	// Response order is preserved as-is.
	assert.Equal(t, int64(1), notifications[0].ID())
	assert.Equal(t, int64(2), notifications[1].ID())

	assert.Equal(t, NotificationLike, notifications[0].Type())
	assert.Equal(t, NotificationComment, notifications[1].Type())
	assert.Equal(t, "alice", notifications[0].From().Name())
	assert.Equal(t, "bob", notifications[0].To().Name())

	// Both notifications reference the same users, so they share instances.
	assert.Same(t, notifications[0].From(), notifications[1].From())
	assert.Same(t, notifications[0].To(), notifications[1].To())

	// Distinct fetches never share Notification instances.
	again, err := client.Notifications(context.Background())
	require.NoError(t, err)
	assert.NotSame(t, notifications[0], again[0])
	assert.Same(t, notifications[0].From(), again[0].From())
}

func TestNotificationsNoData(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	notifications, err := client.Notifications(context.Background())
	assert.Nil(t, notifications)
	assert.True(t, IsNoData(err))
	assert.ErrorIs(t, err, ErrNoData)
}

func TestNotificationsAllOrNothing(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/notifications":
			fmt.Fprint(w, `[
				{"id":1,"from":5,"to":9,"type":1,"time":2000,"body":"","action":""},
				{"id":2,"from":6,"to":9,"type":1,"time":1000,"body":"","action":""}
			]`)
		case "/user/5":
			fmt.Fprint(w, `{"id":5,"name":"alice","network":"sparklr"}`)
		case "/user/9":
			fmt.Fprint(w, `{"id":9,"name":"bob","network":"sparklr"}`)
		default:
			// user 6 is broken: the whole operation must fail
			http.Error(w, `{"message":"boom"}`, http.StatusInternalServerError)
		}
	})

	notifications, err := client.Notifications(context.Background())
	assert.Error(t, err)
	assert.Nil(t, notifications)
}

func TestPostNoData(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusForbidden, http.StatusGone} {
		t.Run(fmt.Sprintf("status %d", status), func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, `{"message":"nope"}`, status)
			})

			post, err := client.Post(context.Background(), 1)
			assert.Nil(t, post)
			assert.True(t, IsNoData(err))
			assert.ErrorIs(t, err, ErrNoData)
		})
	}
}

func TestNetworkFailurePassesThrough(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	client, err := New(DefaultConfig().
		WithBaseURL(server.URL).
		WithRetryStrategy(&NoRetryStrategy{}))
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Post(context.Background(), 1)
	require.Error(t, err)
	assert.False(t, IsNoData(err), "transport faults must not masquerade as missing data")
}

func TestRetryOnServerError(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			http.Error(w, `{"message":"try again"}`, http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"status":"ok"}`)
	}))
	defer server.Close()

	client, err := New(DefaultConfig().
		WithBaseURL(server.URL).
		WithRetryStrategy(&ConstantBackoffStrategy{
			Interval: time.Millisecond,
			Budget:   RetryBudget{MaxAttempts: 5},
		}))
	require.NoError(t, err)
	defer client.Close()

	assert.NoError(t, client.Ping(context.Background()))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestNoRetryOnNoData(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.NotFound(w, r)
	}))
	defer server.Close()

	client, err := New(DefaultConfig().
		WithBaseURL(server.URL).
		WithRetryStrategy(&ConstantBackoffStrategy{
			Interval: time.Millisecond,
			Budget:   RetryBudget{MaxAttempts: 5},
		}))
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Post(context.Background(), 1)
	assert.True(t, IsNoData(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestContextCancellation(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Post(ctx, 1)
	assert.Error(t, err)
}

func TestClosedClient(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"ok"}`)
	})
	require.NoError(t, client.Close())

	_, err := client.Post(context.Background(), 1)
	assert.ErrorIs(t, err, ErrClosed)

	_, err = client.Notifications(context.Background())
	assert.ErrorIs(t, err, ErrClosed)

	_, err = client.SubmitPost(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrClosed)

	assert.ErrorIs(t, client.Ping(context.Background()), ErrClosed)

	// Close is idempotent.
	assert.NoError(t, client.Close())
}

func TestRequestHeaders(t *testing.T) {
	var gotToken, gotRequestID, gotUserAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Session-Token")
		gotRequestID = r.Header.Get("X-Request-ID")
		gotUserAgent = r.Header.Get("User-Agent")
		fmt.Fprint(w, `{"status":"ok"}`)
	}))
	defer server.Close()

	client, err := New(DefaultConfig().
		WithBaseURL(server.URL).
		WithHeader("X-Session-Token", "s3cret"))
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Ping(context.Background()))
	assert.Equal(t, "s3cret", gotToken)
	assert.NotEmpty(t, gotRequestID)
	assert.Equal(t, "go-sparklr/1.0", gotUserAgent)
}

func TestClientIsolation(t *testing.T) {
	handler := func(name string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintf(w, `{"id":5,"name":%q,"network":"sparklr"}`, name)
		}
	}

	a := newTestClient(t, handler("alice"))
	b := newTestClient(t, handler("bob"))

	ua, err := a.User(context.Background(), 5)
	require.NoError(t, err)
	ub, err := b.User(context.Background(), 5)
	require.NoError(t, err)

	// Caches are per client: same id, different clients, different instances.
	assert.NotSame(t, ua, ub)
	assert.Equal(t, "alice", ua.Name())
	assert.Equal(t, "bob", ub.Name())
}

func TestErrorsAreNotSwallowed(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"db down","code":"DB_DOWN"}`, http.StatusInternalServerError)
	})

	err := client.Ping(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "db down", apiErr.Message)
	assert.Equal(t, "DB_DOWN", apiErr.Code)
}
