package scan

import (
	"context"
	"net"
	"net/netip"
	"sync/atomic"
	"time"

	"github.com/google/gopacket"
)

//go:generate mockgen -source=transport.go -destination=mock_transport_test.go -package=scan

// Transport 原始报文收发能力,ICMP和ARP探测都通过它发包
// 权限不足时返回Code为CodePermission的ScanError,其他故障为CodeTransport
type Transport interface {
	// Echo 发送一个ICMP echo请求,在timeout内收到匹配的应答返回true
	// 超时没有应答不是错误
	Echo(ctx context.Context, dst netip.Addr, timeout time.Duration) (bool, error)
	// ARP 对每个地址广播一个ARP请求,收集timeout内的所有应答
	ARP(ctx context.Context, dsts []netip.Addr, timeout time.Duration) ([]Neighbor, error)
}

// Neighbor 一条ARP应答
type Neighbor struct {
	IP  netip.Addr
	MAC net.HardwareAddr
}

// RawTransport 基于原始套接字(ICMP)和pcap(ARP)的实现,需要root或CAP_NET_RAW
type RawTransport struct {
	id               int
	seq              atomic.Uint32
	readTimeout      time.Duration //pcap每次读取的超时,用于周期性检查截止时间
	serializeOptions gopacket.SerializeOptions
}

func NewRawTransport() *RawTransport {
	return &RawTransport{
		id:          int(time.Now().UnixNano() & 0xffff),
		readTimeout: 100 * time.Millisecond,
		serializeOptions: gopacket.SerializeOptions{
			FixLengths:       true,
			ComputeChecksums: true,
		},
	}
}

// probeDeadline 单次探测的截止时间取 timeout 和 ctx 截止时间中较早的一个
func probeDeadline(ctx context.Context, timeout time.Duration) time.Time {
	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		return d
	}
	return deadline
}
