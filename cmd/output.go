package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/netip"

	"netscan/scan"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"
)

// document json/yaml 输出的结构,地址和端口都转换成字符串或数字
type document struct {
	ScanID    string                       `json:"scan_id" yaml:"scan_id"`
	Target    string                       `json:"target" yaml:"target"`
	Types     []scan.ScanType              `json:"types" yaml:"types"`
	Hosts     []string                     `json:"hosts" yaml:"hosts"`
	Ports     []uint16                     `json:"ports,omitempty" yaml:"ports,omitempty"`
	ICMP      map[string]string            `json:"icmp,omitempty" yaml:"icmp,omitempty"`
	TCP       map[string]map[uint16]string `json:"tcp,omitempty" yaml:"tcp,omitempty"`
	OpenPorts map[string][]uint16          `json:"open_ports,omitempty" yaml:"open_ports,omitempty"`
	ARP       *[]arpDocument               `json:"arp,omitempty" yaml:"arp,omitempty"` //请求了ARP但没有应答时输出空列表
	Neighbors map[string]string            `json:"neighbors,omitempty" yaml:"neighbors,omitempty"`
	Elapsed   string                       `json:"elapsed" yaml:"elapsed"`
}

type arpDocument struct {
	IP    string `json:"ip,omitempty" yaml:"ip,omitempty"`
	MAC   string `json:"mac,omitempty" yaml:"mac,omitempty"`
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

func newDocument(r *scan.Result) document {
	doc := document{
		ScanID:  r.ScanID,
		Target:  r.Target,
		Types:   r.Types,
		Hosts:   make([]string, 0, len(r.Hosts)),
		Ports:   r.Ports,
		Elapsed: r.Elapsed.String(),
	}
	for _, h := range r.Hosts {
		doc.Hosts = append(doc.Hosts, h.String())
	}
	if r.ICMP != nil {
		doc.ICMP = make(map[string]string, len(r.ICMP))
		for ip, o := range r.ICMP {
			doc.ICMP[ip.String()] = o.String()
		}
	}
	if r.TCP != nil {
		doc.TCP = make(map[string]map[uint16]string, len(r.TCP))
		for ip, ports := range r.TCP {
			states := make(map[uint16]string, len(ports))
			for port, o := range ports {
				states[port] = o.String()
			}
			doc.TCP[ip.String()] = states
		}
		doc.OpenPorts = make(map[string][]uint16, len(r.OpenPorts))
		for ip, ports := range r.OpenPorts {
			doc.OpenPorts[ip.String()] = ports
		}
	}
	if r.ARP != nil {
		entries := make([]arpDocument, 0, len(r.ARP))
		for _, e := range r.ARP {
			if e.IsError() {
				entries = append(entries, arpDocument{Error: e.Err})
				continue
			}
			entries = append(entries, arpDocument{IP: e.IP.String(), MAC: e.MAC.String()})
		}
		doc.ARP = &entries
	}
	if len(r.Neighbors) > 0 {
		doc.Neighbors = make(map[string]string, len(r.Neighbors))
		for ip, mac := range r.Neighbors {
			doc.Neighbors[ip.String()] = mac.String()
		}
	}
	return doc
}

// render 按格式输出结果;upOnly只影响text格式
func render(w io.Writer, r *scan.Result, format string, upOnly bool) error {
	switch format {
	case "json":
		b, err := json.MarshalIndent(newDocument(r), "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(newDocument(r)); err != nil {
			return err
		}
		return enc.Close()
	default:
		return renderText(w, r, upOnly)
	}
}

func renderText(w io.Writer, r *scan.Result, upOnly bool) error {
	fmt.Fprintf(w, "Scan result for %s (%d hosts)\n", r.Target, len(r.Hosts))

	visible := make([]netip.Addr, 0, len(r.Hosts))
	for _, h := range r.Hosts {
		if !upOnly || r.IsHostUp(h) {
			visible = append(visible, h)
		}
	}

	if r.ICMP != nil {
		fmt.Fprintln(w, "\nICMP results:")
		table := tablewriter.NewWriter(w)
		table.Header("Host", "State", "MAC")
		for _, h := range visible {
			o, ok := r.ICMP[h]
			if !ok {
				continue
			}
			if err := table.Append([]string{h.String(), o.String(), macString(r, h)}); err != nil {
				return err
			}
		}
		if err := table.Render(); err != nil {
			return err
		}
	}

	if r.TCP != nil {
		fmt.Fprintln(w, "\nTCP port scan results:")
		for _, h := range visible {
			ports, ok := r.TCP[h]
			if !ok {
				continue
			}
			fmt.Fprintf(w, "  %s:\n", h)
			table := tablewriter.NewWriter(w)
			table.Header("Port", "State", "Service")
			for _, port := range r.Ports {
				o, ok := ports[port]
				if !ok {
					continue
				}
				if err := table.Append([]string{fmt.Sprintf("%d/tcp", port), o.String(), scan.DescribePort(port)}); err != nil {
					return err
				}
			}
			if err := table.Render(); err != nil {
				return err
			}
		}

		fmt.Fprintln(w, "\nOpen ports:")
		for _, h := range visible {
			if open := r.OpenPorts[h]; len(open) > 0 {
				fmt.Fprintf(w, "  %s\t%s\n", h, formatPorts(open))
			}
		}
	}

	if r.ARP != nil {
		fmt.Fprintln(w, "\nARP scan results (IP -> MAC):")
		table := tablewriter.NewWriter(w)
		table.Header("IP", "MAC")
		for _, e := range r.ARP {
			if e.IsError() {
				if err := table.Append([]string{"error", e.Err}); err != nil {
					return err
				}
				continue
			}
			if err := table.Append([]string{e.IP.String(), e.MAC.String()}); err != nil {
				return err
			}
		}
		if err := table.Render(); err != nil {
			return err
		}
	}

	fmt.Fprintf(w, "\n扫描完毕 耗时:%v\n", r.Elapsed)
	return nil
}

func macString(r *scan.Result, h netip.Addr) string {
	if mac := r.MAC(h); mac != nil {
		return mac.String()
	}
	return "-"
}
