// Package timefmt 提供会话列表展示用的时间格式化
// 近期时间显示为相对描述（"5 minutes ago"），超过 30 天显示为绝对日期
package timefmt

import (
	"fmt"
	"time"
)

// absoluteLayout 绝对时间格式，如 "Dec 30, 2024 at 3:04 PM"
const absoluteLayout = "Jan 2, 2006 at 3:04 PM"

// FormatAbsolute 格式化为绝对日期+时间字符串
func FormatAbsolute(t time.Time) string {
	return t.Format(absoluteLayout)
}

// FormatRelative 将时间格式化为相对描述
// 分桶规则：
//
//	< 1 分钟          -> "Just now"
//	< 60 分钟         -> "N minutes ago"
//	< 24 小时         -> "N hours ago"
//	恰好 1 天         -> "1 day ago"
//	2 ~ 29 天         -> "N days ago"
//	>= 30 天          -> 绝对日期+时间
func FormatRelative(t time.Time, now time.Time) string {
	diff := now.Sub(t)
	minutes := int(diff.Minutes())
	hours := int(diff.Hours())
	days := int(diff.Hours() / 24)

	switch {
	case days >= 30:
		return FormatAbsolute(t)
	case days == 1:
		return "1 day ago"
	case days > 1:
		return fmt.Sprintf("%d days ago", days)
	case hours >= 1:
		return fmt.Sprintf("%d hours ago", hours)
	case minutes >= 1:
		return fmt.Sprintf("%d minutes ago", minutes)
	default:
		return "Just now"
	}
}
