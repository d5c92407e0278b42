package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

// ValidateStruct validates a struct based on validate tags.
//
// Supported rules: required, email, min=N, max=N and oneof=a b c. min and max
// bound the length of strings and slices and the value of numbers. Rules
// other than required skip empty values. Errors name the field by its json
// tag.
func ValidateStruct(s any) error {
	v := reflect.ValueOf(s)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return errors.New("not a struct")
	}

	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("validate")
		if tag == "" || !field.IsExported() {
			continue
		}

		value := v.Field(i)
		if value.Kind() == reflect.Ptr && !value.IsNil() {
			value = value.Elem()
		}

		name := fieldName(field)
		for _, rule := range strings.Split(tag, ",") {
			if err := validateField(name, value, rule); err != nil {
				return err
			}
		}
	}

	return nil
}

func fieldName(f reflect.StructField) string {
	if tag := f.Tag.Get("json"); tag != "" && tag != "-" {
		name, _, _ := strings.Cut(tag, ",")
		if name != "" {
			return name
		}
	}
	return f.Name
}

// validateField validates a single field based on a rule
func validateField(name string, value reflect.Value, rule string) error {
	rule, arg, _ := strings.Cut(rule, "=")

	if rule == "required" {
		if isZero(value) {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
	if isZero(value) {
		return nil
	}

	switch rule {
	case "email":
		if value.Kind() == reflect.String && ValidateEmail(value.String()) != nil {
			return fmt.Errorf("%s must be a valid email", name)
		}
	case "min", "max":
		limit, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return fmt.Errorf("invalid %s rule on %s", rule, name)
		}
		n, isLength := measure(value)
		if rule == "min" && n < limit {
			if isLength {
				return fmt.Errorf("%s must be at least %s characters", name, arg)
			}
			return fmt.Errorf("%s must be at least %s", name, arg)
		}
		if rule == "max" && n > limit {
			if isLength {
				return fmt.Errorf("%s must be at most %s characters", name, arg)
			}
			return fmt.Errorf("%s must be at most %s", name, arg)
		}
	case "oneof":
		if value.Kind() == reflect.String {
			allowed := strings.Fields(arg)
			for _, a := range allowed {
				if value.String() == a {
					return nil
				}
			}
			return fmt.Errorf("%s must be one of: %s", name, strings.Join(allowed, ", "))
		}
	}
	return nil
}

// measure returns the length of strings and slices, or the numeric value
func measure(v reflect.Value) (float64, bool) {
	switch v.Kind() {
	case reflect.String:
		return float64(len([]rune(v.String()))), true
	case reflect.Slice, reflect.Array, reflect.Map:
		return float64(v.Len()), false
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), false
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), false
	case reflect.Float32, reflect.Float64:
		return v.Float(), false
	}
	return 0, false
}

// isZero checks if a value is zero/empty
func isZero(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.String:
		return strings.TrimSpace(v.String()) == ""
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Slice, reflect.Map:
		return v.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return v.IsNil()
	case reflect.Struct:
		return v.IsZero()
	default:
		return false
	}
}

// ValidateEmail validates an email address
func ValidateEmail(email string) error {
	if email == "" {
		return errors.New("email is required")
	}
	if !emailRegex.MatchString(email) {
		return errors.New("invalid email format")
	}
	return nil
}

// SanitizeString removes null bytes and surrounding whitespace
func SanitizeString(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")
	return strings.TrimSpace(s)
}

// SanitizeEmail sanitizes an email address
func SanitizeEmail(email string) string {
	return strings.ToLower(SanitizeString(email))
}
