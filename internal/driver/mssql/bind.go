package mssql

import (
	"database/sql/driver"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	sqldriver "github.com/johndauphine/sqlsrv-adapter/internal/driver"
)

// bindArgs converts params positionally using types. A nil types slice
// passes every value through with only Stringer coercion.
func bindArgs(params []any, types []sqldriver.BindType) ([]any, error) {
	if types != nil && len(types) < len(params) {
		return nil, fmt.Errorf("%w: %d values, %d bind types", sqldriver.ErrBindTypeMismatch, len(params), len(types))
	}
	args := make([]any, len(params))
	for i, v := range params {
		var err error
		if types == nil {
			args[i] = normalize(v)
			continue
		}
		if args[i], err = bindValue(v, types[i]); err != nil {
			return nil, fmt.Errorf("binding parameter %d: %w", i+1, err)
		}
	}
	return args, nil
}

// normalize stringifies values the SQL driver cannot encode on its own.
func normalize(v any) any {
	switch x := v.(type) {
	case nil, driver.Valuer, time.Time, []byte:
		return v
	case fmt.Stringer:
		return x.String()
	}
	return v
}

// bindValue coerces v to the Go type matching t. Nil always binds as NULL.
func bindValue(v any, t sqldriver.BindType) (any, error) {
	v = normalize(v)
	if v == nil || t == sqldriver.BindNull {
		return nil, nil
	}
	if _, ok := v.(driver.Valuer); ok {
		return v, nil
	}

	switch t {
	case sqldriver.BindInt:
		n, err := toInt64(v)
		if err != nil {
			return nil, err
		}
		return n, nil
	case sqldriver.BindDecimal:
		s, err := toDecimalString(v)
		if err != nil {
			return nil, err
		}
		return s, nil
	case sqldriver.BindBool:
		b, err := toBool(v)
		if err != nil {
			return nil, err
		}
		return b, nil
	case sqldriver.BindBlob:
		switch x := v.(type) {
		case []byte:
			return x, nil
		case string:
			return []byte(x), nil
		}
		return nil, fmt.Errorf("%w: cannot bind %T as blob", sqldriver.ErrArgument, v)
	default:
		switch x := v.(type) {
		case string:
			return x, nil
		case []byte:
			return string(x), nil
		case time.Time:
			return x, nil
		}
		return fmt.Sprint(v), nil
	}
}

func toInt64(v any) (int64, error) {
	switch x := v.(type) {
	case int:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int64:
		return x, nil
	case uint:
		return int64(x), nil
	case uint8:
		return int64(x), nil
	case uint16:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case uint64:
		if x > math.MaxInt64 {
			return 0, fmt.Errorf("%w: %d overflows int64", sqldriver.ErrArgument, x)
		}
		return int64(x), nil
	case float32:
		return int64(x), nil
	case float64:
		return int64(x), nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not an integer", sqldriver.ErrArgument, x)
		}
		return n, nil
	case []byte:
		return toInt64(string(x))
	}
	return 0, fmt.Errorf("%w: cannot bind %T as int", sqldriver.ErrArgument, v)
}

func toDecimalString(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x), nil
	case []byte:
		return strings.TrimSpace(string(x)), nil
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	}
	n, err := toInt64(v)
	if err != nil {
		return "", fmt.Errorf("%w: cannot bind %T as decimal", sqldriver.ErrArgument, v)
	}
	return strconv.FormatInt(n, 10), nil
}

func toBool(v any) (bool, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(x))
		if err != nil {
			return false, fmt.Errorf("%w: %q is not a boolean", sqldriver.ErrArgument, x)
		}
		return b, nil
	}
	n, err := toInt64(v)
	if err != nil {
		return false, fmt.Errorf("%w: cannot bind %T as bool", sqldriver.ErrArgument, v)
	}
	return n != 0, nil
}
