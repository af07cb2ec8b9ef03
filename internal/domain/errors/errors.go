package errors

import (
	"errors"
	"fmt"
)

var ErrDuplicatePermalink = errors.New("duplicate permalink")

// Kind 标记一条校验问题的类别：可恢复的跳过 vs 致命冲突
type Kind string

const (
	KindMissingRequiredField Kind = "missing_required_field"
	KindMalformedDate        Kind = "malformed_date"
	KindDuplicatePermalink   Kind = "duplicate_permalink"
)

// PermalinkConflict 是唯一的致命错误：两个来源算出同一个 permalink,
// 不中止的话会静默丢掉其中一篇。
type PermalinkConflict struct {
	Permalink string
	FirstPath string
	OtherPath string
}

func (e *PermalinkConflict) Error() string {
	return fmt.Sprintf("duplicate permalink %q: %s and %s", e.Permalink, e.FirstPath, e.OtherPath)
}

func (e *PermalinkConflict) Is(target error) bool {
	return target == ErrDuplicatePermalink
}
