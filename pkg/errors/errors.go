package errors

import "errors"

// ErrLockNotAcquired 在等待时间内未能获得用户级打卡锁
var ErrLockNotAcquired = errors.New("另一个打卡操作正在进行，请稍后重试")
