package scan

//go:generate go run ../tools/update.go -o known.go

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const (
	MinPort = 1
	MaxPort = 65535
)

// DefaultPorts 未指定端口而又需要TCP扫描时使用
var DefaultPorts = []uint16{22, 80, 443, 3389, 8080}

// ParsePorts 解析 "22,80,1000-1024" 形式的端口列表,返回升序去重后的结果
// 超出[1,65535]的值被直接丢弃,反向的范围(10-1)不产生任何端口;
// 只有无法解析成整数的片段才会返回错误
func ParsePorts(selection string) ([]uint16, error) {
	selection = strings.TrimSpace(selection)
	if selection == "" {
		return nil, nil
	}

	seen := make(map[int]struct{})
	for _, r := range strings.Split(selection, ",") {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		if strings.Contains(r, "-") { //分别解析起始结束端口
			parts := strings.SplitN(r, "-", 2)
			p1, err := parsePortNumber(parts[0])
			if err != nil {
				return nil, ErrInvalidPorts(selection, fmt.Errorf("invalid port number %q", parts[0]))
			}
			p2, err := parsePortNumber(parts[1])
			if err != nil {
				return nil, ErrInvalidPorts(selection, fmt.Errorf("invalid port number %q", parts[1]))
			}
			//只遍历与合法区间的交集,避免 1-999999999 这种输入
			if p1 < MinPort {
				p1 = MinPort
			}
			if p2 > MaxPort {
				p2 = MaxPort
			}
			for i := p1; i <= p2; i++ {
				seen[i] = struct{}{}
			}
			continue
		}

		port, err := parsePortNumber(r)
		if err != nil {
			return nil, ErrInvalidPorts(selection, fmt.Errorf("invalid port number %q", r))
		}
		if port < MinPort || port > MaxPort {
			continue
		}
		seen[port] = struct{}{}
	}

	ports := make([]int, 0, len(seen))
	for p := range seen {
		ports = append(ports, p)
	}
	sort.Ints(ports)

	out := make([]uint16, 0, len(ports))
	for _, p := range ports {
		out = append(out, uint16(p))
	}
	return out, nil
}

// parsePortNumber 超出int范围的整数不算格式错误,按方向换成区间外的值,
// 由调用方丢弃或截断
func parsePortNumber(s string) (int, error) {
	s = strings.TrimSpace(s)
	n, err := strconv.Atoi(s)
	if errors.Is(err, strconv.ErrRange) {
		if strings.HasPrefix(s, "-") {
			return MinPort - 1, nil
		}
		return MaxPort + 1, nil
	}
	return n, err
}

// ResolvePorts 是引擎使用的版本:空字符串使用默认端口,非空但没有可用端口则报错
func ResolvePorts(selection string) ([]uint16, error) {
	if strings.TrimSpace(selection) == "" {
		return append([]uint16(nil), DefaultPorts...), nil
	}
	ports, err := ParsePorts(selection)
	if err != nil {
		return nil, err
	}
	if len(ports) == 0 {
		return nil, ErrInvalidPorts(selection, errors.New("no port in range 1-65535"))
	}
	return ports, nil
}

// DescribePort 返回端口的服务名
func DescribePort(port uint16) string {
	if s, ok := knownPorts[int(port)]; ok {
		return s
	}
	return ""
}
