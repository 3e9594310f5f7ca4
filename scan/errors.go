package scan

import (
	"errors"
	"fmt"
)

// ErrorCode 错误分类
type ErrorCode string

const (
	CodeUnknown       ErrorCode = "UNKNOWN"
	CodeTargetInvalid ErrorCode = "TARGET_INVALID"
	CodePortInvalid   ErrorCode = "PORT_INVALID"
	CodeValidation    ErrorCode = "VALIDATION"
	CodePermission    ErrorCode = "PERMISSION"
	CodeTransport     ErrorCode = "TRANSPORT"
	CodeCanceled      ErrorCode = "CANCELED"
)

// ScanError 是扫描器对外暴露的错误类型,Code用于调用方区分退出码
type ScanError struct {
	Code    ErrorCode
	Message string
	Target  string
	Cause   error
}

func (e *ScanError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Target != "" {
		msg = fmt.Sprintf("%s (target: %s)", msg, e.Target)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *ScanError) Unwrap() error {
	return e.Cause
}

// ErrInvalidTarget 目标既不是IP也不是CIDR
func ErrInvalidTarget(target string, cause error) *ScanError {
	return &ScanError{Code: CodeTargetInvalid, Message: "invalid target specification", Target: target, Cause: cause}
}

// ErrInvalidPorts 端口格式错误,或者解析后没有可用端口
func ErrInvalidPorts(spec string, cause error) *ScanError {
	return &ScanError{Code: CodePortInvalid, Message: "invalid port specification", Target: spec, Cause: cause}
}

// ErrValidation 请求参数不合法
func ErrValidation(cause error) *ScanError {
	return &ScanError{Code: CodeValidation, Message: "invalid scan request", Cause: cause}
}

// ErrPermission 打开原始套接字/pcap需要root或CAP_NET_RAW
func ErrPermission(op string, cause error) *ScanError {
	return &ScanError{Code: CodePermission, Message: op + " requires elevated privileges", Cause: cause}
}

// ErrTransport 其余的底层收发故障
func ErrTransport(op string, cause error) *ScanError {
	return &ScanError{Code: CodeTransport, Message: op + " failed", Cause: cause}
}

// GetCode 取出错误链上第一个ScanError的Code
func GetCode(err error) ErrorCode {
	var se *ScanError
	if errors.As(err, &se) {
		return se.Code
	}
	return CodeUnknown
}

func IsCode(err error, code ErrorCode) bool {
	return err != nil && GetCode(err) == code
}

// IsInputError 输入校验类错误,在发包之前就会返回
func IsInputError(err error) bool {
	switch GetCode(err) {
	case CodeTargetInvalid, CodePortInvalid, CodeValidation:
		return true
	}
	return false
}
