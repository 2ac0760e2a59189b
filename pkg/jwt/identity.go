package jwt

import (
	"errors"
	"strings"
)

// ErrOwnerClaimMissing Token 中没有可用作 owner 的身份声明
var ErrOwnerClaimMissing = errors.New("unable to determine user identity from token")

// OwnerClaimKeys owner 标识的候选声明，按优先级排列
var OwnerClaimKeys = []string{
	"oid",
	"http://schemas.microsoft.com/identity/claims/objectidentifier",
	"sub",
	"http://schemas.xmlsoap.org/ws/2005/05/identity/claims/nameidentifier",
}

// ResolveOwnerID 按优先级取第一个非空的身份声明
func ResolveOwnerID(claims map[string]string) (string, error) {
	for _, key := range OwnerClaimKeys {
		if v := strings.TrimSpace(claims[key]); v != "" {
			return v, nil
		}
	}
	return "", ErrOwnerClaimMissing
}
