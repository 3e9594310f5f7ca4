package scan

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"strings"
	"time"
)

// ScanType 扫描方式
type ScanType string

const (
	ScanICMP ScanType = "icmp"
	ScanTCP  ScanType = "tcp"
	ScanARP  ScanType = "arp"
)

// AllTypes 也是引擎执行各类型扫描的固定顺序
var AllTypes = []ScanType{ScanICMP, ScanTCP, ScanARP}

// ParseScanType 解析命令行的 all/icmp/tcp/arp
func ParseScanType(s string) ([]ScanType, error) {
	switch t := ScanType(strings.ToLower(strings.TrimSpace(s))); t {
	case "all", "":
		return append([]ScanType(nil), AllTypes...), nil
	case ScanICMP, ScanTCP, ScanARP:
		return []ScanType{t}, nil
	}
	return nil, ErrValidation(fmt.Errorf("unknown scan type %q, must be one of all, icmp, tcp, arp", s))
}

// State 单次探测的结论
type State uint8

const (
	StateUnknown State = iota
	StateUp
	StateDown
	StateOpen
	StateClosed
	StateFiltered
	StateError
)

var stateNames = map[State]string{
	StateUnknown:  "unknown",
	StateUp:       "up",
	StateDown:     "down",
	StateOpen:     "open",
	StateClosed:   "closed",
	StateFiltered: "filtered",
	StateError:    "error",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "unknown"
}

// Outcome 是一次探测的不可变结果,Err/Code只在StateError时有值
type Outcome struct {
	State State
	Err   string
	Code  ErrorCode
}

func Up() Outcome       { return Outcome{State: StateUp} }
func Down() Outcome     { return Outcome{State: StateDown} }
func Open() Outcome     { return Outcome{State: StateOpen} }
func Closed() Outcome   { return Outcome{State: StateClosed} }
func Filtered() Outcome { return Outcome{State: StateFiltered} }

// Failed 把一个本地故障转换成Error结果,ScanError的Code被保留下来
func Failed(err error) Outcome {
	return Outcome{State: StateError, Err: err.Error(), Code: GetCode(err)}
}

func (o Outcome) IsError() bool {
	return o.State == StateError
}

// NeedsPrivilege 该结果是否因为缺少原始套接字权限而失败
func (o Outcome) NeedsPrivilege() bool {
	return o.State == StateError && o.Code == CodePermission
}

func (o Outcome) String() string {
	if o.State == StateError {
		return "error: " + o.Err
	}
	return o.State.String()
}

// MarshalText json/yaml 中以 "closed" / "error: ..." 的形式输出
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// ARPEntry 一条ARP应答;整个扫描失败时只有一条Err不为空的记录
type ARPEntry struct {
	IP   netip.Addr
	MAC  net.HardwareAddr
	Err  string
	Code ErrorCode
}

func (e ARPEntry) IsError() bool {
	return e.Err != ""
}

// HostProber ICMP存活探测
type HostProber interface {
	ProbeHost(ctx context.Context, host netip.Addr, timeout time.Duration) Outcome
}

// PortProber TCP端口探测
type PortProber interface {
	ProbePort(ctx context.Context, host netip.Addr, port uint16, timeout time.Duration) Outcome
}

// Sweeper 对一组地址做一次ARP广播扫描
type Sweeper interface {
	Sweep(ctx context.Context, hosts []netip.Addr, timeout time.Duration) []ARPEntry
}

// Result 一次扫描的汇总结果,未请求的扫描类型为nil
type Result struct {
	ScanID string
	Target string
	Types  []ScanType
	Hosts  []netip.Addr //展开后的目标,升序
	Ports  []uint16     //实际扫描的TCP端口

	ICMP      map[netip.Addr]Outcome
	TCP       map[netip.Addr]map[uint16]Outcome
	OpenPorts map[netip.Addr][]uint16
	ARP       []ARPEntry

	Neighbors map[netip.Addr]net.HardwareAddr //来自系统ARP缓存的MAC
	Elapsed   time.Duration
}

// IsHostUp ICMP有应答,或者有开放端口,或者有ARP应答
func (r *Result) IsHostUp(host netip.Addr) bool {
	if o, ok := r.ICMP[host]; ok && o.State == StateUp {
		return true
	}
	if len(r.OpenPorts[host]) > 0 {
		return true
	}
	for _, e := range r.ARP {
		if !e.IsError() && e.IP == host {
			return true
		}
	}
	return false
}

// MAC 优先使用ARP扫描结果,其次是系统缓存
func (r *Result) MAC(host netip.Addr) net.HardwareAddr {
	for _, e := range r.ARP {
		if !e.IsError() && e.IP == host {
			return e.MAC
		}
	}
	return r.Neighbors[host]
}

// PrivilegeFault 是否有任意一项因为权限不足失败
func (r *Result) PrivilegeFault() bool {
	for _, o := range r.ICMP {
		if o.NeedsPrivilege() {
			return true
		}
	}
	for _, e := range r.ARP {
		if e.Code == CodePermission {
			return true
		}
	}
	return false
}
