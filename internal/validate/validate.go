package validate

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"boutique/internal/domain"
)

var (
	reEmail = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	reQ     = regexp.MustCompile(`^[\p{L}\p{N} _'.&/-]{1,60}$`)
	reID    = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	reSKU   = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,63}$`)
)

const (
	MaxQuantity = 100000
	maxMoney    = 100000000
)

var (
	once sync.Once
	v    *validator.Validate
)

func engine() *validator.Validate {
	once.Do(func() {
		v = validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
		v.RegisterCustomTypeFunc(func(f reflect.Value) any {
			if d, ok := f.Interface().(decimal.Decimal); ok {
				return d.InexactFloat64()
			}
			return nil
		}, decimal.Decimal{})
		_ = v.RegisterValidation("sku", func(fl validator.FieldLevel) bool { return reSKU.MatchString(fl.Field().String()) })
		_ = v.RegisterValidation("rid", func(fl validator.FieldLevel) bool { return reID.MatchString(fl.Field().String()) })
		_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool { return Password(fl.Field().String()) })
		_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool { return domain.Role(fl.Field().String()).Valid() })
	})
	return v
}

// Struct checks the validate tags on s. The first failing field is
// reported as a domain.ErrInvalid error naming the JSON field.
func Struct(s any) error {
	err := engine().Struct(s)
	if err == nil {
		return nil
	}
	var fe validator.ValidationErrors
	if errors.As(err, &fe) && len(fe) > 0 {
		f := fe[0]
		switch f.Tag() {
		case "required":
			return domain.Invalidf("%s is required", f.Field())
		case "gt", "gte", "min", "max", "lte":
			return domain.Invalidf("%s is out of range", f.Field())
		default:
			return domain.Invalidf("%s is not valid", f.Field())
		}
	}
	return domain.Invalidf("%v", err)
}

func Email(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) == 0 || len(s) > 254 {
		return "", false
	}
	return s, reEmail.MatchString(s)
}

// Q validates a search query: trims, enforces allowed characters and max length.
// An empty query is valid and means no filter.
func Q(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", true
	}
	if len([]rune(s)) > 60 {
		s = string([]rune(s)[:60])
	}
	return s, reQ.MatchString(s)
}

// Quantity accepts whole units from 1 to MaxQuantity.
func Quantity(n int) error {
	if n <= 0 {
		return domain.ErrInvalidQuantity
	}
	if n > MaxQuantity {
		return domain.Invalidf("quantity above %d", MaxQuantity)
	}
	return nil
}

// Money accepts non-negative amounts with at most two decimal places.
func Money(d decimal.Decimal) bool {
	return !d.IsNegative() && d.Equal(d.Round(2)) && d.LessThan(decimal.NewFromInt(maxMoney))
}

// ID validates a simple resource identifier (product/category ids).
func ID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reID.MatchString(s)
}

// Name validates a displayable name with a reasonable max length.
func Name(s string, max int) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len([]rune(s)) > max {
		return "", false
	}
	return s, true
}

// Password requires 8 to 64 characters mixing lower, upper, digit and symbol.
func Password(s string) bool {
	l := len(s)
	if l < 8 || l > 64 {
		return false
	}
	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range s {
		switch {
		case 'a' <= r && r <= 'z':
			hasLower = true
		case 'A' <= r && r <= 'Z':
			hasUpper = true
		case '0' <= r && r <= '9':
			hasDigit = true
		default:
			hasSymbol = true
		}
	}
	return hasLower && hasUpper && hasDigit && hasSymbol
}
