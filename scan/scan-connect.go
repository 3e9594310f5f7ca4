package scan

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
)

// Dialer net.Dialer 满足该接口,测试中可以替换
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// ConnectProber 是TCP连接扫描器,完成三次握手即认为端口开放
type ConnectProber struct {
	dialer Dialer
}

// NewConnectProber dialer为nil时使用默认的net.Dialer
func NewConnectProber(dialer Dialer) *ConnectProber {
	if dialer == nil {
		dialer = &net.Dialer{}
	}
	return &ConnectProber{dialer: dialer}
}

// ProbePort 发起tcp连接,并分类
// 连接成功: Open; 被拒绝: Closed; 超时: Filtered;
// 其他错误也按Closed处理,只记录debug日志
func (c *ConnectProber) ProbePort(ctx context.Context, host netip.Addr, port uint16, timeout time.Duration) Outcome {
	addr := net.JoinHostPort(host.String(), strconv.Itoa(int(port)))
	log.Debugf("开始扫描%s", addr)

	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn, err := c.dialer.DialContext(dialCtx, "tcp", addr)
	if err != nil {
		state := classifyDialErr(err)
		log.Debugf("%s :连接失败(%s):%v", addr, state, err)
		if state == StateFiltered {
			return Filtered()
		}
		return Closed()
	}
	conn.Close()
	log.Debugf("%s is OPEN!", addr)
	return Open()
}

func classifyDialErr(err error) State {
	if isConnRefusedErr(err) {
		return StateClosed
	}
	if isTimeoutErr(err) {
		return StateFiltered
	}
	return StateClosed
}

func isConnRefusedErr(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	return strings.Contains(err.Error(), "refused")
}

func isTimeoutErr(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
