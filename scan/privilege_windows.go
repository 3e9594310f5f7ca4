//go:build windows

package scan

import (
	"errors"
	"os"
	"strings"
)

// Windows下原始套接字需要管理员权限,这里不做判断
func CanOpenRawSocket() bool {
	return false
}

func isPermissionErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, os.ErrPermission) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "access is denied") || strings.Contains(msg, "permission")
}
