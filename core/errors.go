package core

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 支持错误检查函数（IsXXX）
//
// 使用场景：
//   - 训练错误：INVALID_HYPERPARAMETER, EMPTY_MATRIX
//   - 模型加载错误：MODEL_NOT_FOUND, CORRUPT_MODEL, UNSUPPORTED_VERSION
//   - 查询错误：UNKNOWN_USER, UNKNOWN_ITEM
//   - 存储错误：NOT_FOUND, NOT_SUPPORTED
type DomainError struct {
	Code    string // 错误代码（如 "UNKNOWN_USER", "CORRUPT_MODEL"）
	Message string // 错误消息
	Module  string // 模块名称（如 "als", "model", "recommend"）
}

func (e *DomainError) Error() string {
	return e.Message
}

// IsDomainError 检查错误是否为 DomainError 类型
func IsDomainError(err error) bool {
	if err == nil {
		return false
	}
	_, ok := err.(*DomainError)
	return ok
}

// GetDomainError 获取 DomainError，如果不是则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	if domainErr, ok := err.(*DomainError); ok {
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

// 错误代码常量
const (
	// 摄取错误代码
	ErrorCodeInvalidRecord = "INVALID_RECORD" // 交互记录无效（逐行跳过并计数）

	// 训练错误代码
	ErrorCodeInvalidHyperparameter = "INVALID_HYPERPARAMETER" // 超参数无效
	ErrorCodeEmptyMatrix           = "EMPTY_MATRIX"           // 交互矩阵无非零元素

	// 模型加载错误代码
	ErrorCodeModelNotFound      = "MODEL_NOT_FOUND"     // 模型文件不存在
	ErrorCodeCorruptModel       = "CORRUPT_MODEL"       // 模型文件损坏（形状与载荷不一致）
	ErrorCodeUnsupportedVersion = "UNSUPPORTED_VERSION" // 模型格式版本不支持

	// 查询错误代码
	ErrorCodeUnknownUser = "UNKNOWN_USER" // 用户 ID 超出模型范围
	ErrorCodeUnknownItem = "UNKNOWN_ITEM" // 物品 ID 超出模型范围

	// 通用错误代码
	ErrorCodeNotFound      = "NOT_FOUND"      // 资源不存在
	ErrorCodeInvalidInput  = "INVALID_INPUT"  // 输入无效
	ErrorCodeInternalError = "INTERNAL_ERROR" // 内部错误
)

// 模块名称常量
const (
	ModuleDataset   = "dataset"   // 摄取模块
	ModuleALS       = "als"       // 分解引擎模块
	ModuleModel     = "model"     // 模型存储模块
	ModuleRecommend = "recommend" // 推荐服务模块
	ModuleStore     = "store"     // 存储模块
)

// 通用错误检查函数

// IsInvalidRecord 检查错误是否为 INVALID_RECORD
func IsInvalidRecord(err error) bool {
	return hasCode(err, ErrorCodeInvalidRecord)
}

// IsInvalidHyperparameter 检查错误是否为 INVALID_HYPERPARAMETER
func IsInvalidHyperparameter(err error) bool {
	return hasCode(err, ErrorCodeInvalidHyperparameter)
}

// IsEmptyMatrix 检查错误是否为 EMPTY_MATRIX
func IsEmptyMatrix(err error) bool {
	return hasCode(err, ErrorCodeEmptyMatrix)
}

// IsModelNotFound 检查错误是否为 MODEL_NOT_FOUND
func IsModelNotFound(err error) bool {
	return hasCode(err, ErrorCodeModelNotFound)
}

// IsCorruptModel 检查错误是否为 CORRUPT_MODEL
func IsCorruptModel(err error) bool {
	return hasCode(err, ErrorCodeCorruptModel)
}

// IsUnsupportedVersion 检查错误是否为 UNSUPPORTED_VERSION
func IsUnsupportedVersion(err error) bool {
	return hasCode(err, ErrorCodeUnsupportedVersion)
}

// IsUnknownUser 检查错误是否为 UNKNOWN_USER
func IsUnknownUser(err error) bool {
	return hasCode(err, ErrorCodeUnknownUser)
}

// IsUnknownItem 检查错误是否为 UNKNOWN_ITEM
func IsUnknownItem(err error) bool {
	return hasCode(err, ErrorCodeUnknownItem)
}

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool {
	return hasCode(err, ErrorCodeNotFound)
}

func hasCode(err error, code string) bool {
	if err == nil {
		return false
	}
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == code
	}
	return false
}
