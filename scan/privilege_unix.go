//go:build !windows

package scan

import (
	"errors"
	"os"
	"strings"
	"syscall"
)

// CanOpenRawSocket 粗略判断当前进程能否打开原始套接字
// 非root但拥有CAP_NET_RAW的情况这里返回false,实际以打开套接字的结果为准
func CanOpenRawSocket() bool {
	return os.Geteuid() == 0
}

// isPermissionErr 打开原始套接字/pcap失败是否因为权限不足
// pcap返回的是字符串错误,只能按文本判断
func isPermissionErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, syscall.EPERM) || errors.Is(err, syscall.EACCES) || errors.Is(err, os.ErrPermission) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "operation not permitted") ||
		strings.Contains(msg, "permission denied") ||
		strings.Contains(msg, "you don't have permission")
}
