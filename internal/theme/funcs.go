package theme

import (
	"fmt"
	"html/template"
	"path"
	"strconv"
	"strings"
	"time"
)

// baseFuncs are available to every template.
var baseFuncs = template.FuncMap{
	"join": func(args ...any) (string, error) {
		s := make([]string, len(args))
		for i, v := range args {
			switch v := v.(type) {
			case string:
				s[i] = v
			case int:
				s[i] = strconv.Itoa(v)
			default:
				return "", fmt.Errorf("not a string or number: %#v", v)
			}
		}
		return path.Join(s...), nil
	},
	"list": func(args ...any) []any { return args },
	"map": func(keyvalue ...any) (map[string]any, error) {
		if len(keyvalue)%2 != 0 {
			return nil, fmt.Errorf("odd number of arguments passed in")
		}
		m := make(map[string]any, len(keyvalue)/2)
		for i := 0; i+1 < len(keyvalue); i += 2 {
			key, ok := keyvalue[i].(string)
			if !ok {
				return nil, fmt.Errorf("key is not a string: %#v", keyvalue[i])
			}
			m[key] = keyvalue[i+1]
		}
		return m, nil
	},
	"safeHTML": func(x any) template.HTML {
		switch x := x.(type) {
		case nil:
			return ""
		case string:
			return template.HTML(x)
		case template.HTML:
			return x
		default:
			return template.HTML(fmt.Sprint(x))
		}
	},
	"formatTime": func(t time.Time, layout string) string {
		if t.IsZero() {
			return ""
		}
		return t.Format(layout)
	},
	"upper": strings.ToUpper,
	"lower": strings.ToLower,
}
