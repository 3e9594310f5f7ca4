package scan

import (
	"io"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addrs(t *testing.T, ss ...string) []netip.Addr {
	t.Helper()
	out := make([]netip.Addr, 0, len(ss))
	for _, s := range ss {
		out = append(out, netip.MustParseAddr(s))
	}
	return out
}

func TestExpand(t *testing.T) {
	tests := []struct {
		name    string
		targets []string
		want    []netip.Addr
	}{
		{"single ipv4", []string{"127.0.0.1"}, addrs(t, "127.0.0.1")},
		{"single ipv6", []string{"::1"}, addrs(t, "::1")},
		{"slash 32 keeps the address", []string{"10.0.0.7/32"}, addrs(t, "10.0.0.7")},
		{"slash 31 keeps both edges", []string{"10.0.0.0/31"}, addrs(t, "10.0.0.0", "10.0.0.1")},
		{"slash 30 drops network and broadcast", []string{"10.0.0.0/30"}, addrs(t, "10.0.0.1", "10.0.0.2")},
		{"host bits are masked", []string{"10.0.0.2/30"}, addrs(t, "10.0.0.1", "10.0.0.2")},
		{"ipv6 slash 127 keeps both", []string{"2001:db8::/127"}, addrs(t, "2001:db8::", "2001:db8::1")},
		{"ipv6 slash 126 drops anycast", []string{"2001:db8::/126"}, addrs(t, "2001:db8::1", "2001:db8::2", "2001:db8::3")},
		{"union is sorted and deduplicated", []string{"10.0.0.2", "10.0.0.0/30", "10.0.0.1"}, addrs(t, "10.0.0.1", "10.0.0.2")},
		{"ipv4 sorts before ipv6", []string{"::1", "127.0.0.1"}, addrs(t, "127.0.0.1", "::1")},
		{"mapped ipv4 is unmapped", []string{"::ffff:192.168.1.1"}, addrs(t, "192.168.1.1")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Expand(tt.targets...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExpandSlash24(t *testing.T) {
	got, err := Expand("192.168.1.0/24")
	require.NoError(t, err)
	require.Len(t, got, 254)
	assert.Equal(t, netip.MustParseAddr("192.168.1.1"), got[0])
	assert.Equal(t, netip.MustParseAddr("192.168.1.254"), got[253])
}

func TestExpandInvalid(t *testing.T) {
	for _, target := range []string{"not-an-ip", "", "   ", "10.0.0.0/33", "10.0.0.300", "example.com", "10.0.0.0/8", "2001:db8::/64", "fe80::1%eth0"} {
		t.Run(target, func(t *testing.T) {
			_, err := Expand(target)
			require.Error(t, err)
			assert.True(t, IsCode(err, CodeTargetInvalid), "got %v", err)
			assert.True(t, IsInputError(err))
		})
	}

	_, err := Expand()
	assert.True(t, IsCode(err, CodeTargetInvalid))
}

func TestTargetIterator(t *testing.T) {
	ti, err := NewTargetIterator("10.1.2.0/29")
	require.NoError(t, err)
	assert.True(t, ti.IsCIDR())

	var got []netip.Addr
	for {
		ip, err := ti.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, ip)
	}
	assert.Len(t, got, 6)
	assert.Equal(t, netip.MustParseAddr("10.1.2.1"), got[0])
	assert.Equal(t, netip.MustParseAddr("10.1.2.6"), got[5])

	_, err = ti.Next()
	assert.Equal(t, io.EOF, err)
}

func TestTargetIteratorTopOfAddressSpace(t *testing.T) {
	got, err := Expand("255.255.255.254/31")
	require.NoError(t, err)
	assert.Equal(t, addrs(t, "255.255.255.254", "255.255.255.255"), got)
}
