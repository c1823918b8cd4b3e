package preview

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/Masterminds/sprig/v3"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/auditdoc/auditdoc/pkg/syntax"
)

// helper is a value helper callable from a mustache or a subexpression.
type helper func(args []any) (any, error)

var errArity = errors.New("wrong number of arguments")

// Functions borrowed from sprig's generic function map.
var (
	funcs      = sprig.GenericFuncMap()
	toUpper    = sprigFunc[func(string) string]("upper")
	toLower    = sprigFunc[func(string) string]("lower")
	trimSpace  = sprigFunc[func(string) string]("trim")
	joinList   = sprigFunc[func(string, any) string]("join")
	sprigDflt  = sprigFunc[func(any, ...any) any]("default")
	toString   = sprigFunc[func(any) string]("toString")
	dateLayout = strings.NewReplacer(
		"YYYY", "2006",
		"YY", "06",
		"MM", "01",
		"DD", "02",
		"HH", "15",
		"mm", "04",
		"ss", "05",
	)
)

func sprigFunc[T any](name string) T {
	f, ok := funcs[name].(T)
	if !ok {
		panic(fmt.Sprintf("preview: sprig function %q has type %T", name, funcs[name]))
	}
	return f
}

// inputLayouts are the date shapes accepted by formatDate.
var inputLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

func parseDate(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		for _, layout := range inputLayouts {
			if ts, err := time.Parse(layout, t); err == nil {
				return ts, true
			}
		}
	}
	return time.Time{}, false
}

// FormatDate renders v with a DD/MM/YYYY style layout. Values that are not
// dates are returned unchanged.
func FormatDate(v any, layout string) string {
	if layout == "" {
		layout = syntax.DateLayout
	}
	ts, ok := parseDate(v)
	if !ok {
		return stringify(v)
	}
	return ts.Format(dateLayout.Replace(layout))
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	}
	return 0, false
}

// money formats amounts in one currency for one locale.
type money struct {
	unit    currency.Unit
	printer *message.Printer
}

func newMoney(code, locale string) (money, error) {
	tag := language.English
	if locale != "" {
		t, err := language.Parse(locale)
		if err != nil {
			return money{}, fmt.Errorf("preview: locale %q: %w", locale, err)
		}
		tag = t
	}

	var unit currency.Unit
	if code != "" {
		u, err := currency.ParseISO(code)
		if err != nil {
			return money{}, fmt.Errorf("preview: currency %q: %w", code, err)
		}
		unit = u
	} else {
		u, conf := currency.FromTag(tag)
		if conf == language.No {
			return money{}, fmt.Errorf("preview: no currency for locale %q", tag)
		}
		unit = u
	}
	return money{unit: unit, printer: message.NewPrinter(tag)}, nil
}

func (m money) format(v any) (string, bool) {
	f, ok := toFloat(v)
	if !ok {
		return "", false
	}
	return m.printer.Sprint(currency.Symbol(m.unit.Amount(f))), true
}

func (r *Renderer) helpers() map[string]helper {
	return map[string]helper{
		"formatDate": func(args []any) (any, error) {
			switch len(args) {
			case 1:
				return FormatDate(args[0], ""), nil
			case 2:
				return FormatDate(args[0], stringify(args[1])), nil
			}
			return nil, errArity
		},
		"uppercase": stringHelper(toUpper),
		"lowercase": stringHelper(toLower),
		"trim":      stringHelper(trimSpace),
		"formatCurrency": func(args []any) (any, error) {
			if len(args) != 1 {
				return nil, errArity
			}
			if args[0] == nil {
				return "", nil
			}
			s, ok := r.money.format(args[0])
			if !ok {
				return stringify(args[0]), nil
			}
			return s, nil
		},
		"eq": func(args []any) (any, error) {
			if len(args) != 2 {
				return nil, errArity
			}
			return stringify(args[0]) == stringify(args[1]), nil
		},
		"ne": func(args []any) (any, error) {
			if len(args) != 2 {
				return nil, errArity
			}
			return stringify(args[0]) != stringify(args[1]), nil
		},
		"not": func(args []any) (any, error) {
			if len(args) != 1 {
				return nil, errArity
			}
			return !truthy(args[0]), nil
		},
		"default": func(args []any) (any, error) {
			if len(args) != 2 {
				return nil, errArity
			}
			return sprigDflt(args[1], args[0]), nil
		},
		"join": func(args []any) (any, error) {
			if len(args) != 2 {
				return nil, errArity
			}
			return joinList(stringify(args[1]), args[0]), nil
		},
		"length": func(args []any) (any, error) {
			if len(args) != 1 {
				return nil, errArity
			}
			if args[0] == nil {
				return 0, nil
			}
			rv := reflect.ValueOf(args[0])
			switch rv.Kind() {
			case reflect.Slice, reflect.Array, reflect.Map, reflect.String:
				return rv.Len(), nil
			}
			return 0, nil
		},
	}
}

func stringHelper(fn func(string) string) helper {
	return func(args []any) (any, error) {
		if len(args) != 1 {
			return nil, errArity
		}
		return fn(stringify(args[0])), nil
	}
}

var (
	blockHelpers = map[string]bool{"each": true, "if": true, "unless": true, "with": true}
	valueHelpers = func() map[string]bool {
		m := map[string]bool{}
		for name := range (&Renderer{}).helpers() {
			m[name] = true
		}
		return m
	}()
)

// IsHelper reports whether name is a helper the renderer implements, as a
// block helper when block is set.
func IsHelper(name string, block bool) bool {
	if block {
		return blockHelpers[name]
	}
	return valueHelpers[name]
}
