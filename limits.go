package yang

import (
	"cmp"
	"fmt"
)

const (
	defaultMaxDepth   = 256
	defaultMaxNesting = 256
	defaultMaxNodes   = 1 << 16
)

type parseLimits struct {
	maxDepth   int
	maxNesting int
	maxNodes   int
}

func resolveParseLimits(maxDepth, maxNesting, maxNodes int) (parseLimits, error) {
	if maxDepth < 0 {
		return parseLimits{}, fmt.Errorf("max depth must be >= 0")
	}
	if maxNesting < 0 {
		return parseLimits{}, fmt.Errorf("schema max nesting must be >= 0")
	}
	if maxNodes < 0 {
		return parseLimits{}, fmt.Errorf("schema max nodes must be >= 0")
	}
	return parseLimits{
		maxDepth:   cmp.Or(maxDepth, defaultMaxDepth),
		maxNesting: cmp.Or(maxNesting, defaultMaxNesting),
		maxNodes:   cmp.Or(maxNodes, defaultMaxNodes),
	}, nil
}

// cacheKey prefixes schema text with the limits that shaped its compile, so
// the same text compiled under different limits never shares an entry.
func (l parseLimits) cacheKey(text string) string {
	return fmt.Sprintf("%d:%d\x00", l.maxNesting, l.maxNodes) + text
}
