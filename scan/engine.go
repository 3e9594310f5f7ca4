package scan

import (
	"context"
	"net/netip"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultTimeout     = 2 * time.Second
	DefaultConcurrency = 100
)

// Phase 一次扫描的状态
type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhaseExpanding   Phase = "expanding"
	PhaseDispatching Phase = "dispatching"
	PhaseCollecting  Phase = "collecting"
	PhaseCompleted   Phase = "completed"
)

// Request 一次扫描请求;Ports为空且需要TCP扫描时使用DefaultPorts
type Request struct {
	Targets     []string      `validate:"required,min=1"`
	Types       []ScanType    `validate:"required,min=1,dive,oneof=icmp tcp arp"`
	Ports       string        `validate:"-"`
	Timeout     time.Duration `validate:"gt=0"`
	Concurrency int           `validate:"min=1"`
}

// Engine 调度三种探测,控制并发,汇总结果
type Engine struct {
	ICMP      HostProber
	TCP       PortProber
	ARP       Sweeper
	Neighbors NeighborTable //为nil时不做MAC补充

	validate *validator.Validate
}

// NewEngine ICMP和ARP通过transport发包,TCP使用普通的连接
func NewEngine(transport Transport) *Engine {
	return &Engine{
		ICMP:     NewICMPProber(transport),
		TCP:      NewConnectProber(nil),
		ARP:      NewARPSweeper(transport),
		validate: validator.New(),
	}
}

// plan 校验通过后的扫描计划
type plan struct {
	hosts []netip.Addr
	ports []uint16
	types []ScanType
}

// Plan 只做校验和展开,不发送任何报文(用于--dry-run)
// 返回的端口列表在未指定端口时为nil
func (e *Engine) Plan(req Request) ([]netip.Addr, []uint16, error) {
	if err := e.validateRequest(req); err != nil {
		return nil, nil, err
	}
	hosts, err := Expand(req.Targets...)
	if err != nil {
		return nil, nil, err
	}
	ports, err := ParsePorts(req.Ports)
	if err != nil {
		return nil, nil, err
	}
	if strings.TrimSpace(req.Ports) != "" && len(ports) == 0 {
		return nil, nil, ErrInvalidPorts(req.Ports, nil)
	}
	return hosts, ports, nil
}

func (e *Engine) validateRequest(req Request) error {
	if e.validate == nil {
		e.validate = validator.New()
	}
	if err := e.validate.Struct(req); err != nil {
		return ErrValidation(err)
	}
	return nil
}

// prepare 在发包之前完成所有校验: 请求参数,目标,端口
func (e *Engine) prepare(req Request) (*plan, error) {
	if err := e.validateRequest(req); err != nil {
		return nil, err
	}
	hosts, err := Expand(req.Targets...)
	if err != nil {
		return nil, err
	}

	p := &plan{hosts: hosts}
	requested := make(map[ScanType]bool, len(req.Types))
	for _, t := range req.Types {
		requested[t] = true
	}
	for _, t := range AllTypes { //固定顺序 icmp -> tcp -> arp
		if requested[t] {
			p.types = append(p.types, t)
		}
	}

	if requested[ScanTCP] {
		if p.ports, err = ResolvePorts(req.Ports); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Run 执行一次完整的扫描. 参数错误在发包前返回;
// 单个探测的失败记录在结果里,不影响其他探测;
// ctx被取消时返回错误而不是不完整的结果
func (e *Engine) Run(ctx context.Context, req Request) (*Result, error) {
	scanID := uuid.NewString()
	logger := log.WithFields(log.Fields{"scan_id": scanID, "target": strings.Join(req.Targets, ",")})
	phase := func(p Phase, fields log.Fields) {
		logger.WithField("phase", p).WithFields(fields).Debug("scan phase")
	}
	start := time.Now()

	phase(PhaseIdle, nil)
	phase(PhaseExpanding, nil)
	p, err := e.prepare(req)
	if err != nil {
		logger.WithError(err).Debug("request rejected")
		return nil, err
	}

	fragments := make([]Fragment, 0, len(p.types))
	for _, t := range p.types {
		typeLog := logger.WithField("type", t)
		frag := newFragment(t)

		switch t {
		case ScanICMP:
			n := len(p.hosts)
			phase(PhaseDispatching, log.Fields{"type": t, "jobs": n})
			err = fanOut(ctx, min(req.Concurrency, n), hostJobs(p.hosts), func(ctx context.Context, j portJob) Outcome {
				return e.ICMP.ProbeHost(ctx, j.ip, req.Timeout)
			}, frag.add)
		case ScanTCP:
			n := len(p.hosts) * len(p.ports)
			phase(PhaseDispatching, log.Fields{"type": t, "jobs": n})
			err = fanOut(ctx, min(req.Concurrency, n), portJobs(p.hosts, p.ports), func(ctx context.Context, j portJob) Outcome {
				return e.TCP.ProbePort(ctx, j.ip, j.port, req.Timeout)
			}, frag.add)
		case ScanARP:
			phase(PhaseDispatching, log.Fields{"type": t, "jobs": 1})
			frag.ARP = e.ARP.Sweep(ctx, p.hosts, req.Timeout)
			err = ctx.Err()
		}
		if err != nil {
			typeLog.WithError(err).Warn("scan interrupted")
			return nil, &ScanError{Code: CodeCanceled, Message: "scan interrupted", Target: string(t), Cause: err}
		}
		phase(PhaseCollecting, log.Fields{"type": t})
		fragments = append(fragments, *frag)
		typeLog.Debugf("%s scan finished", t)
	}

	result := Merge(fragments...)
	result.ScanID = scanID
	result.Target = strings.Join(req.Targets, " ")
	result.Types = p.types
	result.Hosts = p.hosts
	result.Ports = p.ports
	enrichNeighbors(result, e.Neighbors)
	result.Elapsed = time.Since(start)

	phase(PhaseCompleted, log.Fields{"hosts": len(p.hosts), "elapsed": result.Elapsed.String()})
	return result, nil
}
