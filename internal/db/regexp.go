package db

import (
	"database/sql/driver"
	"fmt"
	"regexp"

	lru "github.com/hashicorp/golang-lru/v2"
	"modernc.org/sqlite"
)

// patternCacheSize bounds the compiled patterns kept for REGEXP.
const patternCacheSize = 512

var patternCache, _ = lru.New[string, *regexp.Regexp](patternCacheSize)

func init() {
	// Enables `value REGEXP pattern`, which SQLite rewrites to regexp(pattern, value).
	sqlite.MustRegisterDeterministicScalarFunction("regexp", 2, sqliteRegexp)
}

func sqliteRegexp(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	pattern, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("regexp: pattern must be text, got %T", args[0])
	}

	var subject string
	switch v := args[1].(type) {
	case nil:
		return int64(0), nil
	case string:
		subject = v
	case []byte:
		subject = string(v)
	default:
		subject = fmt.Sprint(v)
	}

	re, err := compilePattern(pattern)
	if err != nil {
		return nil, err
	}
	if re.MatchString(subject) {
		return int64(1), nil
	}
	return int64(0), nil
}

func compilePattern(pattern string) (*regexp.Regexp, error) {
	if re, ok := patternCache.Get(pattern); ok {
		return re, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("regexp: %w", err)
	}
	patternCache.Add(pattern, re)
	return re, nil
}

// caseInsensitive turns pattern into a case-insensitive RE2 pattern.
func caseInsensitive(pattern string) string {
	return "(?i)" + pattern
}
