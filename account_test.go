package twitter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAccounts(t *testing.T) {
	accounts := ParseAccounts("alice:tok:ct0, bob:t:c:socks5://u:p@host:1080,,carol, dave:onlytoken, :x:y")
	require.Len(t, accounts, 3)

	alice := accounts[0]
	assert.Equal(t, "alice", alice.Username)
	assert.Equal(t, "tok", alice.AuthToken)
	assert.Equal(t, "ct0", alice.CT0)
	assert.Empty(t, alice.Proxy)
	assert.True(t, alice.IsActive())
	assert.True(t, alice.HasSession())
	assert.NotEmpty(t, alice.UserAgent)
	assert.Less(t, alice.CT0Age(), time.Minute)

	bob := accounts[1]
	assert.Equal(t, "socks5://u:p@host:1080", bob.Proxy)

	carol := accounts[2]
	assert.Equal(t, "carol", carol.Username)
	assert.False(t, carol.HasSession())
	assert.Equal(t, 24*time.Hour, carol.CT0Age())
}

func TestAccountCT0(t *testing.T) {
	acc := &Account{Username: "alice", AuthToken: "tok", CT0: "old"}
	acc.RotateCT0()
	_, ct0, _ := acc.Credentials()
	assert.Len(t, ct0, 64)
	assert.NotEqual(t, "old", ct0)

	acc.SetCT0("fromserver")
	_, ct0, _ = acc.Credentials()
	assert.Equal(t, "fromserver", ct0)
}

func TestGenerateCT0(t *testing.T) {
	a, b := GenerateCT0(), GenerateCT0()
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}

func TestExtractCT0FromHeaders(t *testing.T) {
	tests := []struct {
		name   string
		cookie string
		want   string
	}{
		{"first", "ct0=abc123; Max-Age=21600; Path=/; Domain=.twitter.com", "abc123"},
		{"later", "guest_id=v1%3A1; ct0=def; Secure", "def"},
		{"empty value", "ct0=; Path=/", ""},
		{"absent", "guest_id=v1%3A1", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractCT0FromHeaders(map[string]string{"set-cookie": tt.cookie}))
		})
	}
	assert.Empty(t, extractCT0FromHeaders(nil))
}

func TestAccountProxyUsable(t *testing.T) {
	acc := &Account{Username: "alice"}
	now := time.Now()
	assert.True(t, acc.proxyUsable(now))

	acc.proxyBackoff = now.Add(time.Minute)
	assert.False(t, acc.proxyUsable(now))
	assert.True(t, acc.proxyUsable(now.Add(2*time.Minute)))
}

func TestAccountWithoutLimiter(t *testing.T) {
	acc := &Account{Username: "alice"}
	assert.True(t, acc.AllowRequest("Followers"))
	acc.MarkEndpointRateLimited("Followers", time.Now().Add(time.Minute))
	assert.False(t, acc.IsEndpointRateLimited("Followers"))
	assert.True(t, acc.EndpointAvailableAt("Followers").IsZero())
}

func TestIsProxyError(t *testing.T) {
	assert.False(t, isProxyError(nil))
	assert.True(t, isProxyError(testErr("proxyconnect tcp: dial tcp 10.0.0.1:8080: connection refused")))
	assert.True(t, isProxyError(testErr("socks connect: SOCKS5 handshake failed")))
	assert.False(t, isProxyError(testErr("unexpected EOF")))
}

type testErr string

func (e testErr) Error() string { return string(e) }
