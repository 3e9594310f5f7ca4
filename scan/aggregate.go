package scan

import (
	"net/netip"
	"sort"
)

// Fragment 某一种扫描类型的部分结果,可能来自不同的协程
type Fragment struct {
	Type  ScanType
	Hosts map[netip.Addr]Outcome            //icmp
	Ports map[netip.Addr]map[uint16]Outcome //tcp
	ARP   []ARPEntry                        //arp
}

func newFragment(t ScanType) *Fragment {
	f := &Fragment{Type: t}
	switch t {
	case ScanICMP:
		f.Hosts = make(map[netip.Addr]Outcome)
	case ScanTCP:
		f.Ports = make(map[netip.Addr]map[uint16]Outcome)
	}
	return f
}

// add 由收集协程调用
func (f *Fragment) add(r record) {
	switch f.Type {
	case ScanICMP:
		f.Hosts[r.ip] = pick(f.Hosts, r.ip, r.outcome)
	case ScanTCP:
		ports, ok := f.Ports[r.ip]
		if !ok {
			ports = make(map[uint16]Outcome)
			f.Ports[r.ip] = ports
		}
		ports[r.port] = pick(ports, r.port, r.outcome)
	}
}

func pick[K comparable](m map[K]Outcome, k K, o Outcome) Outcome {
	if prev, ok := m[k]; ok && !outranks(o, prev) {
		return prev
	}
	return o
}

var statePrecedence = map[State]int{
	StateOpen:     6,
	StateUp:       5,
	StateClosed:   4,
	StateFiltered: 3,
	StateDown:     2,
	StateError:    1,
}

// outranks 同一个键出现两个结果时的确定性取舍,与到达顺序无关
func outranks(a, b Outcome) bool {
	pa, pb := statePrecedence[a.State], statePrecedence[b.State]
	if pa != pb {
		return pa > pb
	}
	if a.Err != b.Err {
		return a.Err < b.Err
	}
	return a.Code < b.Code
}

// Merge 按 扫描类型 -> 主机 -> 端口 合并所有片段,结果与片段顺序无关,不修改输入
func Merge(fragments ...Fragment) *Result {
	r := &Result{}
	var arp map[netip.Addr]ARPEntry
	var arpErr *ARPEntry
	arpSeen := false

	for _, f := range fragments {
		switch f.Type {
		case ScanICMP:
			if r.ICMP == nil {
				r.ICMP = make(map[netip.Addr]Outcome)
			}
			for ip, o := range f.Hosts {
				r.ICMP[ip] = pick(r.ICMP, ip, o)
			}
		case ScanTCP:
			if r.TCP == nil {
				r.TCP = make(map[netip.Addr]map[uint16]Outcome)
			}
			for ip, ports := range f.Ports {
				merged, ok := r.TCP[ip]
				if !ok {
					merged = make(map[uint16]Outcome, len(ports))
					r.TCP[ip] = merged
				}
				for port, o := range ports {
					merged[port] = pick(merged, port, o)
				}
			}
		case ScanARP:
			arpSeen = true
			if arp == nil {
				arp = make(map[netip.Addr]ARPEntry)
			}
			for _, e := range f.ARP {
				if e.IsError() {
					if arpErr == nil || e.Err < arpErr.Err || (e.Err == arpErr.Err && e.Code < arpErr.Code) {
						e := e
						arpErr = &e
					}
					continue
				}
				if prev, ok := arp[e.IP]; ok && prev.MAC.String() <= e.MAC.String() {
					continue
				}
				arp[e.IP] = ARPEntry{IP: e.IP, MAC: append([]byte(nil), e.MAC...)}
			}
		}
	}

	if r.TCP != nil {
		r.OpenPorts = OpenPorts(r.TCP)
	}
	if arpSeen {
		r.ARP = make([]ARPEntry, 0, len(arp)+1)
		if arpErr != nil {
			r.ARP = append(r.ARP, *arpErr)
		}
		entries := make([]ARPEntry, 0, len(arp))
		for _, e := range arp {
			entries = append(entries, e)
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].IP.Less(entries[j].IP) })
		r.ARP = append(r.ARP, entries...)
	}
	return r
}

// OpenPorts 从详细结果中提取每个主机开放端口的升序列表;没有开放端口的主机值为空切片
func OpenPorts(tcp map[netip.Addr]map[uint16]Outcome) map[netip.Addr][]uint16 {
	open := make(map[netip.Addr][]uint16, len(tcp))
	for ip, ports := range tcp {
		list := []uint16{}
		for port, o := range ports {
			if o.State == StateOpen {
				list = append(list, port)
			}
		}
		sort.Slice(list, func(i, j int) bool { return list[i] < list[j] })
		open[ip] = list
	}
	return open
}
