package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"netscan/scan"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// version 构建时通过 -ldflags "-X netscan/cmd.version=..." 设置
var version = "dev"

// 退出码
const (
	exitOK        = 0
	exitFailure   = 1
	exitPrivilege = 2
	exitInput     = 3
)

const privilegeHint = "Permission error: ICMP and ARP probes need raw sockets. " +
	"Run with sudo (or grant CAP_NET_RAW) on *nix, or as Administrator on Windows."

// options 命令行参数,只来自flag
type options struct {
	scanType    string
	ports       string
	timeout     float64 //秒
	concurrency int
	output      string
	dryRun      bool
	upOnly      bool
	verbose     bool
	logFormat   string
	maxDuration time.Duration
}

// exitError 携带进程退出码;err为nil时说明信息已经输出过了
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func newRootCmd() *cobra.Command {
	opts := &options{
		scanType:    "all",
		timeout:     scan.DefaultTimeout.Seconds(),
		concurrency: scan.DefaultConcurrency,
		output:      "text",
		logFormat:   "text",
	}

	cmd := &cobra.Command{
		Use:           "netscan [flags] <target> [target...]",
		Short:         "ICMP / TCP / ARP network scanner",
		Long:          "netscan discovers live hosts and open TCP ports on an IP address or CIDR block\nusing ICMP echo, TCP connect and ARP probes.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error { //主要的执行函数
			return run(cmd, opts, args)
		},
	}

	addFlags(cmd.Flags(), opts)

	//flag本身解析失败也属于输入错误
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &exitError{code: exitInput, err: err}
	})
	return cmd
}

// addFlags 带P的表示同时可接收缩写选项
func addFlags(flags *pflag.FlagSet, opts *options) {
	flags.StringVarP(&opts.scanType, "type", "t", opts.scanType, "Scan type. Must be one of all, icmp, tcp, arp")
	flags.StringVarP(&opts.ports, "ports", "p", opts.ports, "Ports to scan. Comma separated, can use hyphens e.g. 22,80,443,8080-8090 (default common ports)")
	flags.Float64VarP(&opts.timeout, "timeout", "T", opts.timeout, "Per-probe timeout in seconds")
	flags.IntVarP(&opts.concurrency, "concurrency", "c", opts.concurrency, "Max concurrent probes")
	flags.StringVarP(&opts.output, "output", "o", opts.output, "Output format. Must be one of text, json, yaml")
	flags.BoolVar(&opts.dryRun, "dry-run", opts.dryRun, "Validate targets and ports without sending packets")
	flags.BoolVarP(&opts.upOnly, "up-only", "u", opts.upOnly, "Omit output for hosts which are not up")
	flags.BoolVarP(&opts.verbose, "verbose", "v", opts.verbose, "Enable verbose logging")
	flags.StringVar(&opts.logFormat, "log-format", opts.logFormat, "Log format. Must be one of text, json")
	flags.DurationVar(&opts.maxDuration, "max-duration", opts.maxDuration, "Abort the whole scan after this long (0 = no limit)")
}

// setupLogging 日志输出到stderr,结果输出到stdout
func setupLogging(w io.Writer, opts *options) {
	log.SetOutput(w)
	if opts.logFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{})
	}
	if opts.verbose {
		log.SetLevel(log.DebugLevel) //设置日志级别
	} else {
		log.SetLevel(log.InfoLevel)
	}
}

// checkOptions 校验engine不关心的展示类参数
func checkOptions(opts *options) error {
	switch opts.output {
	case "text", "json", "yaml":
	default:
		return scan.ErrValidation(fmt.Errorf("unknown output format %q, must be one of text, json, yaml", opts.output))
	}
	switch opts.logFormat {
	case "text", "json":
	default:
		return scan.ErrValidation(fmt.Errorf("unknown log format %q, must be one of text, json", opts.logFormat))
	}
	if opts.maxDuration < 0 {
		return scan.ErrValidation(errors.New("max-duration must not be negative"))
	}
	return nil
}

func run(cmd *cobra.Command, opts *options, args []string) error {
	setupLogging(cmd.ErrOrStderr(), opts)
	if err := checkOptions(opts); err != nil {
		return err
	}
	//检查是否输入目标
	if len(args) == 0 {
		return scan.ErrInvalidTarget("", errors.New("at least one target IP or CIDR is required"))
	}
	types, err := scan.ParseScanType(opts.scanType)
	if err != nil {
		return err
	}

	req := scan.Request{
		Targets:     args,
		Types:       types,
		Ports:       opts.ports,
		Timeout:     time.Duration(opts.timeout * float64(time.Second)),
		Concurrency: opts.concurrency,
	}
	engine := scan.NewEngine(scan.NewRawTransport())

	if opts.dryRun {
		return dryRun(cmd.OutOrStdout(), engine, req, opts)
	}

	//设置一个主动取消的机制
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if opts.maxDuration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.maxDuration)
		defer cancel()
	}

	engine.Neighbors = scan.NewSystemNeighbors()
	log.WithFields(log.Fields{"targets": len(args), "types": types}).Debug("开始扫描")
	result, err := engine.Run(ctx, req)
	if err != nil {
		return err
	}

	if err := render(cmd.OutOrStdout(), result, opts.output, opts.upOnly); err != nil {
		return err
	}
	if result.PrivilegeFault() {
		fmt.Fprintln(cmd.ErrOrStderr(), privilegeHint)
		return &exitError{code: exitPrivilege}
	}
	return nil
}

// dryRun 只做校验和展开,不发送任何报文
func dryRun(w io.Writer, engine *scan.Engine, req scan.Request, opts *options) error {
	hosts, ports, err := engine.Plan(req)
	if err != nil {
		return err
	}

	portText := "default common ports"
	if len(ports) > 0 {
		portText = formatPorts(ports)
	}
	rawSockets := "available"
	if !scan.CanOpenRawSocket() {
		rawSockets = "unavailable (icmp and arp need root or CAP_NET_RAW)"
	}

	fmt.Fprintln(w, "Dry run: targets and options validated.")
	fmt.Fprintf(w, "Target: %s\n", strings.Join(req.Targets, " "))
	fmt.Fprintf(w, "Scan type: %s\n", opts.scanType)
	fmt.Fprintf(w, "Ports: %s\n", portText)
	fmt.Fprintf(w, "Hosts: %d\n", len(hosts))
	fmt.Fprintf(w, "Raw sockets: %s\n", rawSockets)
	return nil
}

func formatPorts(ports []uint16) string {
	parts := make([]string, 0, len(ports))
	for _, p := range ports {
		parts = append(parts, fmt.Sprint(p))
	}
	return strings.Join(parts, ",")
}

// exitCode 把错误映射成进程退出码
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	if scan.IsInputError(err) {
		return exitInput
	}
	switch scan.GetCode(err) {
	case scan.CodePermission, scan.CodeTransport:
		return exitPrivilege
	}
	return exitFailure
}

func execute(args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	code := exitCode(err)
	if err == nil {
		return code
	}

	var ee *exitError
	if errors.As(err, &ee) && ee.err == nil {
		return code
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	if code == exitPrivilege {
		fmt.Fprintln(stderr, privilegeHint)
	}
	return code
}

// Execute 由main调用
func Execute() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}
