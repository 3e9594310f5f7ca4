package scan

import (
	"context"
	"net/netip"
	"time"

	log "github.com/sirupsen/logrus"
)

// ICMPProber 通过Transport发送一个echo请求判断主机是否存活
type ICMPProber struct {
	transport Transport
}

func NewICMPProber(transport Transport) *ICMPProber {
	return &ICMPProber{transport: transport}
}

// ProbeHost 有应答为Up,超时为Down,发包失败为Error
func (p *ICMPProber) ProbeHost(ctx context.Context, host netip.Addr, timeout time.Duration) Outcome {
	log.Debugf("开始ping %s", host)
	replied, err := p.transport.Echo(ctx, host, timeout)
	if err != nil {
		log.Debugf("%s: ping失败: %v", host, err)
		return Failed(err)
	}
	if !replied {
		log.Debugf("%s: 无应答", host)
		return Down()
	}
	log.Debugf("%s is UP!", host)
	return Up()
}
