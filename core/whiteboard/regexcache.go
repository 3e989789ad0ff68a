package whiteboard

import (
	"regexp"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
)

const DefaultRegexCacheSize = 512

type (
	// regexCache memoizes case-insensitive compiled patterns, invalid ones included. Spec patterns are
	// authored per lesson step, so the same few patterns are compiled for every student.
	regexCache struct {
		cache *lru.Cache[string, compiledRegex]
	}

	compiledRegex struct {
		re  *regexp.Regexp
		err error // set for invalid patterns
	}
)

func newRegexCache(size int) *regexCache {
	if size <= 0 {
		size = DefaultRegexCacheSize
	}
	cache, _ := lru.New[string, compiledRegex](size) // only errors on size <= 0
	return &regexCache{cache: cache}
}

func (rc *regexCache) compile(pattern string) (*regexp.Regexp, error) {
	if c, ok := rc.cache.Get(pattern); ok {
		return c.re, c.err
	}
	var c compiledRegex
	if c.re, c.err = regexp.Compile("(?i)" + pattern); c.err != nil {
		c.re, c.err = nil, errors.Wrapf(c.err, "compiling %q", pattern)
	}
	rc.cache.Add(pattern, c)
	return c.re, c.err
}

// matchAny reports whether pattern matches any of texts. Invalid patterns match nothing.
func (rc *regexCache) matchAny(pattern string, texts ...string) bool {
	re, err := rc.compile(pattern)
	if err != nil {
		return false
	}
	for _, s := range texts {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}
