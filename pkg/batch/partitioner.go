package batch

import (
	"fmt"
	"strings"
	"time"
)

// KeyPartitioner evaluates a strftime-style template against a UTC
// timestamp to produce a partition key, e.g. the Archives sink's
// "/dt=%Y%m%d/hour=%H/" layout.
type KeyPartitioner struct {
	template string
}

// NewKeyPartitioner compiles template for later evaluation. Only the
// substitution codes this codebase's templates actually use are
// supported: %Y %m %d %H %M %S.
func NewKeyPartitioner(template string) KeyPartitioner {
	return KeyPartitioner{template: template}
}

// Key evaluates the partitioner's template against ts, always
// interpreted in UTC.
func (p KeyPartitioner) Key(ts time.Time) string {
	ts = ts.UTC()
	r := strings.NewReplacer(
		"%Y", fmt.Sprintf("%04d", ts.Year()),
		"%m", fmt.Sprintf("%02d", int(ts.Month())),
		"%d", fmt.Sprintf("%02d", ts.Day()),
		"%H", fmt.Sprintf("%02d", ts.Hour()),
		"%M", fmt.Sprintf("%02d", ts.Minute()),
		"%S", fmt.Sprintf("%02d", ts.Second()),
	)
	return r.Replace(p.template)
}
