package scan

import (
	"math/rand"
	"net"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tcpRecords() []record {
	a := netip.MustParseAddr("10.0.0.1")
	b := netip.MustParseAddr("10.0.0.2")
	return []record{
		{ip: a, port: 22, outcome: Open()},
		{ip: a, port: 80, outcome: Closed()},
		{ip: a, port: 443, outcome: Filtered()},
		{ip: a, port: 8080, outcome: Open()},
		{ip: b, port: 22, outcome: Closed()},
		{ip: b, port: 80, outcome: Filtered()},
		{ip: b, port: 443, outcome: Open()},
		{ip: b, port: 8080, outcome: Closed()},
	}
}

func TestMergeIsOrderIndependent(t *testing.T) {
	records := tcpRecords()

	build := func(rs []record) *Result {
		frag := newFragment(ScanTCP)
		for _, r := range rs {
			frag.add(r)
		}
		return Merge(*frag)
	}
	want := build(records)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 50; i++ {
		shuffled := append([]record(nil), records...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		assert.Equal(t, want, build(shuffled))
	}

	// 同样的结果拆成多个片段,以任意顺序合并
	fragA, fragB := newFragment(ScanTCP), newFragment(ScanTCP)
	for i, r := range records {
		if i%2 == 0 {
			fragA.add(r)
		} else {
			fragB.add(r)
		}
	}
	assert.Equal(t, want, Merge(*fragA, *fragB))
	assert.Equal(t, want, Merge(*fragB, *fragA))
}

func TestMergeConflictIsDeterministic(t *testing.T) {
	ip := netip.MustParseAddr("10.0.0.1")
	x := Fragment{Type: ScanICMP, Hosts: map[netip.Addr]Outcome{ip: Down()}}
	y := Fragment{Type: ScanICMP, Hosts: map[netip.Addr]Outcome{ip: Up()}}
	z := Fragment{Type: ScanICMP, Hosts: map[netip.Addr]Outcome{ip: {State: StateError, Err: "boom"}}}

	assert.Equal(t, Up(), Merge(x, y, z).ICMP[ip])
	assert.Equal(t, Up(), Merge(z, y, x).ICMP[ip])
	assert.Equal(t, Up(), Merge(y, z, x).ICMP[ip])

	assert.Equal(t, Down(), x.Hosts[ip], "inputs must not be mutated")
}

func TestOpenPortsInvariant(t *testing.T) {
	frag := newFragment(ScanTCP)
	for _, r := range tcpRecords() {
		frag.add(r)
	}
	r := Merge(*frag)

	require.Len(t, r.OpenPorts, 2)
	assert.Equal(t, []uint16{22, 8080}, r.OpenPorts[netip.MustParseAddr("10.0.0.1")])
	assert.Equal(t, []uint16{443}, r.OpenPorts[netip.MustParseAddr("10.0.0.2")])

	for ip, ports := range r.TCP {
		var want []uint16
		for port, o := range ports {
			if o.State == StateOpen {
				want = append(want, port)
			}
		}
		assert.ElementsMatch(t, want, r.OpenPorts[ip])
		assert.IsIncreasing(t, r.OpenPorts[ip])
	}
}

func TestOpenPortsEmptyForClosedHost(t *testing.T) {
	ip := netip.MustParseAddr("127.0.0.1")
	open := OpenPorts(map[netip.Addr]map[uint16]Outcome{ip: {22: Closed(), 80: Closed()}})
	assert.NotNil(t, open[ip])
	assert.Empty(t, open[ip])
}

func TestMergeARP(t *testing.T) {
	a := netip.MustParseAddr("192.168.1.10")
	b := netip.MustParseAddr("192.168.1.2")
	macA, _ := net.ParseMAC("aa:bb:cc:00:00:01")
	macA2, _ := net.ParseMAC("aa:bb:cc:00:00:02")
	macB, _ := net.ParseMAC("aa:bb:cc:00:00:03")

	f1 := Fragment{Type: ScanARP, ARP: []ARPEntry{{IP: a, MAC: macA2}, {IP: b, MAC: macB}}}
	f2 := Fragment{Type: ScanARP, ARP: []ARPEntry{{IP: a, MAC: macA}}}

	want := []ARPEntry{{IP: b, MAC: macB}, {IP: a, MAC: macA}}
	assert.Equal(t, want, Merge(f1, f2).ARP)
	assert.Equal(t, want, Merge(f2, f1).ARP)
}

func TestMergeARPError(t *testing.T) {
	r := Merge(Fragment{Type: ScanARP, ARP: []ARPEntry{{Err: "no privilege", Code: CodePermission}}})
	require.Len(t, r.ARP, 1)
	assert.True(t, r.ARP[0].IsError())
	assert.True(t, r.PrivilegeFault())

	assert.Nil(t, r.ICMP)
	assert.Nil(t, r.TCP)
	assert.Nil(t, r.OpenPorts)
}

func TestMergeARPErrorTieOnCode(t *testing.T) {
	a := Fragment{Type: ScanARP, ARP: []ARPEntry{{Err: "pcap failed", Code: CodeTransport}}}
	b := Fragment{Type: ScanARP, ARP: []ARPEntry{{Err: "pcap failed", Code: CodePermission}}}

	want := []ARPEntry{{Err: "pcap failed", Code: CodePermission}}
	assert.Equal(t, want, Merge(a, b).ARP)
	assert.Equal(t, want, Merge(b, a).ARP)
}

func TestMergeEmptySweep(t *testing.T) {
	r := Merge(Fragment{Type: ScanARP})
	assert.NotNil(t, r.ARP)
	assert.Empty(t, r.ARP)
}
