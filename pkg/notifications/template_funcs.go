package notifications

import (
	"fmt"
	"reflect"
	"strings"
	"text/template"
	"time"
)

var templateFuncs = template.FuncMap{
	"iso8601":    func(t time.Time) string { return t.Format(time.RFC3339) },
	"join":       strings.Join,
	"replace":    strings.Replace,
	"trim":       strings.Trim,
	"trimPrefix": strings.TrimPrefix,
	"trimSuffix": strings.TrimSuffix,
	"trimSpace":  strings.TrimSpace,
	"short":      short,
	"last":       last,
}

func short(rev string) string {
	if len(rev) <= 7 {
		return rev
	}
	return rev[:7]
}

func last(i int, a interface{}) (bool, error) {
	v := reflect.ValueOf(a)
	switch v.Kind() {
	case reflect.Array, reflect.Chan, reflect.Map, reflect.Slice, reflect.String:
		return i == v.Len()-1, nil
	}
	return false, fmt.Errorf("unsupported type: %T", a)
}
