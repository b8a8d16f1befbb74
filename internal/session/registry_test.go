package session_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpwn/mockchat/internal/session"
	"github.com/hpwn/mockchat/internal/session/sessiontest"
)

func TestRegisterAcrossEndpointsMerges(t *testing.T) {
	reg := session.NewRegistry(nil)
	plain := sessiontest.NewConn()
	secure := sessiontest.NewConn()
	bot := sessiontest.NewConn()

	reg.Register(session.EndpointPlain, plain, session.RoleBrowser)
	reg.Register(session.EndpointTLS, secure, session.RoleBrowser)
	reg.Register(session.EndpointPlain, bot, session.RoleBot)

	assert.ElementsMatch(t, []session.Conn{plain, secure}, reg.Browsers())
	assert.ElementsMatch(t, []session.Conn{bot}, reg.Bots())
	assert.Equal(t, 1, reg.Count(session.RoleBrowser, session.EndpointTLS))
	assert.Equal(t, 1, reg.Count(session.RoleBrowser, session.EndpointPlain))
	assert.Equal(t, 0, reg.Count(session.RoleBot, session.EndpointTLS))
}

func TestUnregisterIsIdempotent(t *testing.T) {
	reg := session.NewRegistry(nil)
	c := sessiontest.NewConn()
	reg.Register(session.EndpointPlain, c, session.RoleBrowser)

	assert.True(t, reg.Unregister(c))
	assert.False(t, reg.Unregister(c))
	assert.False(t, reg.Unregister(sessiontest.NewConn()))
	assert.False(t, reg.Unregister(nil))
	assert.Empty(t, reg.Browsers())
}

func TestSnapshotIsNotAView(t *testing.T) {
	reg := session.NewRegistry(nil)
	a := sessiontest.NewConn()
	b := sessiontest.NewConn()
	reg.Register(session.EndpointPlain, a, session.RoleBrowser)
	reg.Register(session.EndpointPlain, b, session.RoleBrowser)

	snap := reg.Browsers()
	reg.Unregister(a)

	assert.Len(t, snap, 2)
	assert.ElementsMatch(t, []session.Conn{b}, reg.Browsers())
}

func TestChangeHookBalances(t *testing.T) {
	var mu sync.Mutex
	totals := map[session.Role]int{}
	reg := session.NewRegistry(func(e session.Entry, delta int) {
		mu.Lock()
		totals[e.Role] += delta
		mu.Unlock()
	})

	c := sessiontest.NewConn()
	reg.Register(session.EndpointPlain, c, session.RoleBrowser)
	reg.Register(session.EndpointTLS, c, session.RoleBrowser)
	require.Equal(t, 1, totals[session.RoleBrowser])

	reg.Unregister(c)
	reg.Unregister(c)
	assert.Equal(t, 0, totals[session.RoleBrowser])
}

func TestConcurrentRegisterUnregister(t *testing.T) {
	reg := session.NewRegistry(nil)
	keep := sessiontest.NewConn()
	reg.Register(session.EndpointTLS, keep, session.RoleBot)

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c := sessiontest.NewConn()
			ep := session.EndpointPlain
			if i%2 == 0 {
				ep = session.EndpointTLS
			}
			reg.Register(ep, c, session.RoleBrowser)
			_ = reg.Browsers()
			reg.Unregister(c)
		}(i)
	}
	wg.Wait()

	assert.Empty(t, reg.Browsers())
	assert.ElementsMatch(t, []session.Conn{keep}, reg.Bots())
}
