package scan

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"sort"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
	"github.com/google/gopacket/routing"
	log "github.com/sirupsen/logrus"
)

var broadcastMAC = net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

// ARP 在目标所在的网卡上打开pcap,先开始监听再逐个发送广播请求
func (t *RawTransport) ARP(ctx context.Context, dsts []netip.Addr, timeout time.Duration) ([]Neighbor, error) {
	var targets []netip.Addr
	for _, ip := range dsts {
		if ip.Is4() {
			targets = append(targets, ip)
		}
	}
	if len(targets) == 0 {
		return nil, ErrTransport("arp", errors.New("arp requires IPv4 targets"))
	}

	//-------------------------选择网卡--------------------------------
	router, err := routing.New()
	if err != nil {
		return nil, ErrTransport("route lookup", err)
	}
	networkInterface, _, srcIP, err := router.Route(targets[0].AsSlice())
	if err != nil {
		return nil, ErrTransport("route lookup", err)
	}
	srcIP = srcIP.To4()
	if srcIP == nil {
		return nil, ErrTransport("arp", fmt.Errorf("interface %s has no IPv4 address", networkInterface.Name))
	}
	if len(networkInterface.HardwareAddr) != 6 {
		return nil, ErrTransport("arp", fmt.Errorf("interface %s is not an ethernet interface", networkInterface.Name))
	}

	handle, err := pcap.OpenLive(networkInterface.Name, 65536, true, t.readTimeout)
	if err != nil {
		if isPermissionErr(err) {
			return nil, ErrPermission("pcap on "+networkInterface.Name, err)
		}
		return nil, ErrTransport("pcap on "+networkInterface.Name, err)
	}
	defer handle.Close()

	if err := handle.SetBPFFilter("arp"); err != nil {
		return nil, ErrTransport("bpf filter", err)
	}

	want := make(map[netip.Addr]struct{}, len(targets))
	for _, ip := range targets {
		want[ip] = struct{}{}
	}

	deadline := probeDeadline(ctx, timeout)
	replies := make(map[netip.Addr]net.HardwareAddr)
	listenChan := make(chan struct{})

	go func() { //监听应答,截止时间到了退出
		defer close(listenChan)
		for time.Now().Before(deadline) && ctx.Err() == nil {
			data, _, err := handle.ReadPacketData()
			if err == pcap.NextErrorTimeoutExpired {
				continue
			} else if err != nil {
				log.Debugf("arp read error on %s: %v", networkInterface.Name, err)
				return
			}

			packet := gopacket.NewPacket(data, layers.LayerTypeEthernet, gopacket.NoCopy)
			arpLayer := packet.Layer(layers.LayerTypeARP)
			if arpLayer == nil {
				continue
			}
			arp := arpLayer.(*layers.ARP)
			if arp.Operation != layers.ARPReply || len(arp.SourceProtAddress) != 4 {
				continue
			}
			ip := netip.AddrFrom4([4]byte(arp.SourceProtAddress))
			if _, ok := want[ip]; !ok {
				continue
			}
			if _, seen := replies[ip]; !seen {
				replies[ip] = append(net.HardwareAddr(nil), arp.SourceHwAddress...)
			}
		}
	}()

	// Construct all the network layers we need.
	eth := layers.Ethernet{
		SrcMAC:       networkInterface.HardwareAddr,
		DstMAC:       broadcastMAC,
		EthernetType: layers.EthernetTypeARP,
	}
	req := layers.ARP{
		AddrType:          layers.LinkTypeEthernet,
		Protocol:          layers.EthernetTypeIPv4,
		HwAddressSize:     6,
		ProtAddressSize:   4,
		Operation:         layers.ARPRequest,
		SourceHwAddress:   []byte(networkInterface.HardwareAddr),
		SourceProtAddress: []byte(srcIP),
		DstHwAddress:      []byte{0, 0, 0, 0, 0, 0},
	}

	var sendErr error
	for _, ip := range targets {
		if ctx.Err() != nil {
			break
		}
		dst := ip.As4()
		req.DstProtAddress = dst[:]
		if err := t.send(handle, &eth, &req); err != nil {
			sendErr = err
			break
		}
	}

	<-listenChan

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if sendErr != nil {
		if isPermissionErr(sendErr) {
			return nil, ErrPermission("arp send", sendErr)
		}
		return nil, ErrTransport("arp send", sendErr)
	}

	neighbors := make([]Neighbor, 0, len(replies))
	for ip, mac := range replies {
		neighbors = append(neighbors, Neighbor{IP: ip, MAC: mac})
	}
	sort.Slice(neighbors, func(i, j int) bool {
		return neighbors[i].IP.Less(neighbors[j].IP)
	})
	return neighbors, nil
}

// send sends the given layers as a single packet on the network.
func (t *RawTransport) send(handle *pcap.Handle, l ...gopacket.SerializableLayer) error {
	buf := gopacket.NewSerializeBuffer()
	if err := gopacket.SerializeLayers(buf, t.serializeOptions, l...); err != nil {
		return err
	}
	return handle.WritePacketData(buf.Bytes())
}
