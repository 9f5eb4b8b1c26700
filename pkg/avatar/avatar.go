// Package avatar builds gravatar URLs. No network access happens here.
package avatar

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
)

// BaseURL gravatar 服务地址
const BaseURL = "http://www.gravatar.com/avatar/"

// DefaultImage 未注册邮箱时使用的占位图（mystery man）
const DefaultImage = "mm"

// URL 按邮箱原文（不做大小写归一）计算 md5，拼出头像地址
func URL(email string, size int) string {
	sum := md5.Sum([]byte(email))
	return fmt.Sprintf("%s%s?d=%s&s=%d", BaseURL, hex.EncodeToString(sum[:]), DefaultImage, size)
}
