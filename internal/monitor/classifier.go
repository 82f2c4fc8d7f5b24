package monitor

import "strings"

// ErrorKind 错误分类
type ErrorKind string

const (
	ErrorNetwork      ErrorKind = "network"       // 网络错误
	ErrorParsing      ErrorKind = "parsing"       // 解析错误
	ErrorValidation   ErrorKind = "validation"    // 验证错误
	ErrorTimeout      ErrorKind = "timeout"       // 超时错误
	ErrorRateLimit    ErrorKind = "rate_limit"    // 限流错误
	ErrorAuth         ErrorKind = "auth"          // 认证错误
	ErrorBotChallenge ErrorKind = "bot_challenge" // 人机验证错误
	ErrorUnknown      ErrorKind = "unknown"       // 未知错误
)

// AllErrorKinds 全部错误分类(闭合枚举)
var AllErrorKinds = []ErrorKind{
	ErrorNetwork,
	ErrorParsing,
	ErrorValidation,
	ErrorTimeout,
	ErrorRateLimit,
	ErrorAuth,
	ErrorBotChallenge,
	ErrorUnknown,
}

// 分类关键词组,按优先级排列
// 注意: 顺序决定分类结果(首个匹配的组获胜),例如同时包含
// "timeout"和"rate limit"的消息被分类为timeout。
// 不要调整顺序,调整会改变歧义消息的分类结果。
var classifyRules = []struct {
	kind     ErrorKind
	keywords []string
}{
	{ErrorTimeout, []string{"timeout", "timed out"}},
	{ErrorNetwork, []string{"network", "connection"}},
	{ErrorRateLimit, []string{"rate limit", "429"}},
	{ErrorBotChallenge, []string{"captcha", "recaptcha"}},
	{ErrorAuth, []string{"authentication", "401", "403"}},
	{ErrorParsing, []string{"parse", "parsing"}},
	{ErrorValidation, []string{"validation"}},
}

// Classify 根据错误消息分类错误类型
// 纯函数: 大小写不敏感的子串匹配,无副作用,结果确定
func Classify(message string) ErrorKind {
	lower := strings.ToLower(message)
	for _, rule := range classifyRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.kind
			}
		}
	}
	return ErrorUnknown
}

// ClassifyErr 分类error值,nil返回unknown
func ClassifyErr(err error) ErrorKind {
	if err == nil {
		return ErrorUnknown
	}
	return Classify(err.Error())
}
