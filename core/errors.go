package core

import (
	"errors"
	"fmt"
)

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 支持错误检查函数（IsXXX），可穿透 fmt.Errorf("%w") 包装
//
// 使用场景：
//   - dataset：缺少必需列、数值列无法解析
//   - graph / model：空图、维度不一致
//   - store：集合不存在、TopK 非法
//   - recommend：歌单不存在、节点编号越界
type DomainError struct {
	Code    string // 错误代码（如 "NOT_FOUND", "INVALID_INPUT"）
	Message string // 错误消息
	Module  string // 模块名称（如 "dataset", "graph", "store"）
}

func (e *DomainError) Error() string {
	return e.Message
}

// IsDomainError 检查错误链中是否存在 DomainError
func IsDomainError(err error) bool {
	return GetDomainError(err) != nil
}

// GetDomainError 获取错误链中的 DomainError，如果不存在则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// InvalidInput 是 INVALID_INPUT 错误的快捷构造，message 支持格式化。
func InvalidInput(module, format string, args ...any) *DomainError {
	return NewDomainError(module, ErrorCodeInvalidInput, fmt.Sprintf(format, args...))
}

// NotFound 是 NOT_FOUND 错误的快捷构造，message 支持格式化。
func NotFound(module, format string, args ...any) *DomainError {
	return NewDomainError(module, ErrorCodeNotFound, fmt.Sprintf(format, args...))
}

// 错误代码常量
const (
	// 通用错误代码
	ErrorCodeNotFound      = "NOT_FOUND"      // 资源不存在
	ErrorCodeNotSupported  = "NOT_SUPPORTED"  // 操作不支持
	ErrorCodeUnavailable   = "UNAVAILABLE"    // 服务不可用
	ErrorCodeInvalidInput  = "INVALID_INPUT"  // 输入无效
	ErrorCodeInternalError = "INTERNAL_ERROR" // 内部错误
)

// 模块名称常量
const (
	ModuleStore     = "store"     // 存储模块
	ModuleVector    = "vector"    // 向量模块
	ModuleDataset   = "dataset"   // CSV 读取
	ModuleGraph     = "graph"     // 索引分配与建图
	ModuleFeature   = "feature"   // 特征矩阵
	ModuleModel     = "model"     // GCN 与训练
	ModuleRecommend = "recommend" // 推荐服务
)

// 通用错误检查函数

func hasCode(err error, code string) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == code
	}
	return false
}

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool {
	return hasCode(err, ErrorCodeNotFound)
}

// IsNotSupported 检查错误是否为 NOT_SUPPORTED
func IsNotSupported(err error) bool {
	return hasCode(err, ErrorCodeNotSupported)
}

// IsUnavailable 检查错误是否为 UNAVAILABLE
func IsUnavailable(err error) bool {
	return hasCode(err, ErrorCodeUnavailable)
}

// IsInvalidInput 检查错误是否为 INVALID_INPUT
func IsInvalidInput(err error) bool {
	return hasCode(err, ErrorCodeInvalidInput)
}
