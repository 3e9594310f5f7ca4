package scan

import (
	"context"
	"net/netip"
	"time"

	log "github.com/sirupsen/logrus"
)

// ARPSweeper 对整个目标块做一次ARP广播扫描
type ARPSweeper struct {
	transport Transport
}

func NewARPSweeper(transport Transport) *ARPSweeper {
	return &ARPSweeper{transport: transport}
}

// Sweep 收集超时时间内的所有应答;底层故障只产生一条Error记录,不会按主机逐个报错
func (s *ARPSweeper) Sweep(ctx context.Context, hosts []netip.Addr, timeout time.Duration) []ARPEntry {
	log.Debugf("开始ARP扫描,共%d个地址", len(hosts))
	neighbors, err := s.transport.ARP(ctx, hosts, timeout)
	if err != nil {
		log.Debugf("ARP扫描失败: %v", err)
		o := Failed(err)
		return []ARPEntry{{Err: o.Err, Code: o.Code}}
	}

	entries := make([]ARPEntry, 0, len(neighbors))
	for _, n := range neighbors {
		entries = append(entries, ARPEntry{IP: n.IP, MAC: n.MAC})
	}
	log.Debugf("ARP扫描完成,收到%d个应答", len(entries))
	return entries
}
