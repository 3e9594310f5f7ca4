package scan

import (
	"net"
	"net/netip"

	"github.com/mostlygeek/arp"
)

// NeighborTable 系统的邻居(ARP)缓存
type NeighborTable interface {
	Lookup(ip netip.Addr) (net.HardwareAddr, bool)
}

// SystemNeighbors 内核ARP表的快照,创建时读取一次
type SystemNeighbors struct {
	table arp.ArpTable
}

func NewSystemNeighbors() *SystemNeighbors {
	return &SystemNeighbors{table: arp.Table()}
}

// Lookup 未完成的条目(全零MAC)视为不存在
func (n *SystemNeighbors) Lookup(ip netip.Addr) (net.HardwareAddr, bool) {
	macStr, ok := n.table[ip.String()]
	if !ok || macStr == "" || macStr == "00:00:00:00:00:00" {
		return nil, false
	}
	mac, err := net.ParseMAC(macStr)
	if err != nil {
		return nil, false
	}
	return mac, true
}

// enrichNeighbors 为有响应但没有出现在ARP扫描结果中的主机补充MAC
func enrichNeighbors(r *Result, table NeighborTable) {
	if table == nil {
		return
	}
	fromSweep := make(map[netip.Addr]struct{}, len(r.ARP))
	for _, e := range r.ARP {
		if !e.IsError() {
			fromSweep[e.IP] = struct{}{}
		}
	}
	for _, host := range r.Hosts {
		if _, ok := fromSweep[host]; ok || !r.IsHostUp(host) {
			continue
		}
		if mac, ok := table.Lookup(host); ok {
			if r.Neighbors == nil {
				r.Neighbors = make(map[netip.Addr]net.HardwareAddr)
			}
			r.Neighbors[host] = mac
		}
	}
}
