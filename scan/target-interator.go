package scan

import (
	"errors"
	"fmt"
	"io"
	"net/netip"
	"strings"

	"go4.org/netipx"
)

// MaxHostsPerTarget 单个目标最多展开的地址数量,相当于IPv4的/16
const MaxHostsPerTarget = 1 << 16

// TargetIterator 按顺序产出一个目标(单个IP或者CIDR)里的所有主机地址
type TargetIterator struct {
	target string
	isCIDR bool
	done   bool
	ip     netip.Addr   //下一个要返回的地址
	last   netip.Addr   //最后一个可用地址(包含)
	prefix netip.Prefix //CIDR时有效
}

// NewTargetIterator 10.0.0.5/30 -> 10.0.0.1 ... 10.0.0.2,网络地址和广播地址被跳过
func NewTargetIterator(target string) (*TargetIterator, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, ErrInvalidTarget(target, errors.New("empty target"))
	}
	ti := &TargetIterator{target: target}

	if strings.Contains(target, "/") {
		prefix, err := netip.ParsePrefix(target)
		if err != nil {
			return nil, ErrInvalidTarget(target, err)
		}
		prefix = prefix.Masked() //主机位清零
		hostBits := prefix.Addr().BitLen() - prefix.Bits()
		if hostBits > 16 {
			return nil, ErrInvalidTarget(target,
				fmt.Errorf("block larger than %d addresses", MaxHostsPerTarget))
		}
		ti.isCIDR = true
		ti.prefix = prefix
		ti.ip, ti.last = usableRange(prefix)
		return ti, nil
	}

	addr, err := netip.ParseAddr(target)
	if err != nil {
		return nil, ErrInvalidTarget(target, err)
	}
	if addr.Zone() != "" {
		return nil, ErrInvalidTarget(target, errors.New("zoned addresses are not supported"))
	}
	ti.ip = addr.Unmap()
	ti.last = ti.ip
	return ti, nil
}

// usableRange 计算块内的首尾主机地址
// IPv4: /31 /32 全部保留,其余去掉网络地址和广播地址
// IPv6: /127 /128 全部保留,其余去掉第一个地址(subnet-router anycast)
func usableRange(prefix netip.Prefix) (first, last netip.Addr) {
	r := netipx.RangeOfPrefix(prefix)
	first, last = r.From(), r.To()
	hostBits := prefix.Addr().BitLen() - prefix.Bits()
	if hostBits <= 1 {
		return first, last
	}
	first = first.Next()
	if prefix.Addr().Is4() {
		last = last.Prev()
	}
	return first, last
}

// Next 返回下一个地址,没有更多地址时返回io.EOF
func (ti *TargetIterator) Next() (netip.Addr, error) {
	if ti.done {
		return netip.Addr{}, io.EOF
	}
	ip := ti.ip
	if ip == ti.last {
		ti.done = true
	} else {
		ti.ip = ti.ip.Next()
	}
	return ip, nil
}

func (ti *TargetIterator) IsCIDR() bool {
	return ti.isCIDR
}

func (ti *TargetIterator) String() string {
	return ti.target
}

// Expand 把一个或多个目标展开成升序、去重后的地址列表
// 任何一个目标格式错误都会在发包之前返回ErrInvalidTarget
func Expand(targets ...string) ([]netip.Addr, error) {
	if len(targets) == 0 {
		return nil, ErrInvalidTarget("", errors.New("no target given"))
	}

	var b netipx.IPSetBuilder
	for _, target := range targets {
		ti, err := NewTargetIterator(target)
		if err != nil {
			return nil, err
		}
		for {
			ip, err := ti.Next()
			if err == io.EOF {
				break
			}
			b.Add(ip)
		}
	}

	set, err := b.IPSet()
	if err != nil {
		return nil, ErrInvalidTarget(strings.Join(targets, ","), err)
	}

	var hosts []netip.Addr
	for _, r := range set.Ranges() {
		for ip := r.From(); ; ip = ip.Next() {
			hosts = append(hosts, ip)
			if ip == r.To() {
				break
			}
		}
	}
	return hosts, nil
}
