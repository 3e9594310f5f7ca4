package scan

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
)

const (
	protocolICMP     = 1
	protocolICMPv6   = 58
	icmpPayload      = "netscan-echo"
	maxICMPReplySize = 1500
)

// Echo 每次探测单独打开一个原始套接字,返回前关闭
func (t *RawTransport) Echo(ctx context.Context, dst netip.Addr, timeout time.Duration) (bool, error) {
	network, laddr, proto := "ip4:icmp", "0.0.0.0", protocolICMP
	var reqType, replyType icmp.Type = ipv4.ICMPTypeEcho, ipv4.ICMPTypeEchoReply
	if dst.Is6() {
		network, laddr, proto = "ip6:ipv6-icmp", "::", protocolICMPv6
		reqType, replyType = ipv6.ICMPTypeEchoRequest, ipv6.ICMPTypeEchoReply
	}

	conn, err := icmp.ListenPacket(network, laddr)
	if err != nil {
		if isPermissionErr(err) {
			return false, ErrPermission("icmp socket", err)
		}
		return false, ErrTransport("icmp socket", err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(probeDeadline(ctx, timeout)); err != nil {
		return false, ErrTransport("icmp deadline", err)
	}
	//ctx被取消时让阻塞中的读取立即返回
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()

	seq := int(t.seq.Add(1) & 0xffff)
	msg := icmp.Message{
		Type: reqType,
		Code: 0,
		Body: &icmp.Echo{ID: t.id, Seq: seq, Data: []byte(icmpPayload)},
	}
	wb, err := msg.Marshal(nil)
	if err != nil {
		return false, ErrTransport("icmp marshal", err)
	}
	if _, err := conn.WriteTo(wb, &net.IPAddr{IP: dst.AsSlice()}); err != nil {
		if isPermissionErr(err) {
			return false, ErrPermission("icmp send", err)
		}
		return false, ErrTransport("icmp send", err)
	}

	rb := make([]byte, maxICMPReplySize)
	for {
		n, peer, err := conn.ReadFrom(rb)
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				if ctx.Err() != nil {
					return false, ctx.Err()
				}
				return false, nil
			}
			return false, ErrTransport("icmp receive", err)
		}

		rm, err := icmp.ParseMessage(proto, rb[:n])
		if err != nil || rm.Type != replyType {
			continue
		}
		echo, ok := rm.Body.(*icmp.Echo)
		if !ok || echo.ID != t.id || echo.Seq != seq {
			continue
		}
		if from, ok := peerAddr(peer); !ok || from != dst {
			log.Debugf("%s: echo reply from unexpected peer %v", dst, peer)
			continue
		}
		return true, nil
	}
}

func peerAddr(a net.Addr) (netip.Addr, bool) {
	ipAddr, ok := a.(*net.IPAddr)
	if !ok {
		return netip.Addr{}, false
	}
	addr, ok := netip.AddrFromSlice(ipAddr.IP)
	return addr.Unmap(), ok
}
