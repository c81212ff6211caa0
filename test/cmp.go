package test

import (
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// CmpRows compares result rows loosely: nil and empty slices and maps are
// equal, and integer cells compare by value regardless of width.
var CmpRows = cmp.Options{
	cmpopts.EquateEmpty(),
	cmp.FilterValues(bothIntegers, cmp.Transformer("Int64", toInt64)),
}

func bothIntegers(a, b any) bool {
	_, ok := asInt64(a)
	_, ok2 := asInt64(b)
	return ok && ok2
}

func toInt64(v any) int64 {
	n, _ := asInt64(v)
	return n
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	}
	return 0, false
}
