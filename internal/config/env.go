package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
)

// lookupFunc matches os.LookupEnv
type lookupFunc func(key string) (string, bool)

// applyEnv overrides every field carrying an env tag whose variable is set.
// Config sections are nested structs and are walked recursively.
func applyEnv(v reflect.Value, lookup lookupFunc) error {
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}

	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field, meta := v.Field(i), t.Field(i)

		if field.Kind() == reflect.Struct {
			if err := applyEnv(field, lookup); err != nil {
				return err
			}
			continue
		}

		key := meta.Tag.Get("env")
		if key == "" {
			continue
		}
		raw, ok := lookup(key)
		if !ok {
			continue
		}
		if err := setField(field, raw); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	return nil
}

func setField(field reflect.Value, raw string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(raw)
	case reflect.Int:
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("invalid integer %q", raw)
		}
		field.SetInt(int64(n))
	case reflect.Bool:
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("invalid boolean %q", raw)
		}
		field.SetBool(b)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported list type %s", field.Type())
		}
		// comma separated, blanks dropped
		items := []string{}
		for _, item := range strings.Split(raw, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		field.Set(reflect.ValueOf(items))
	default:
		return fmt.Errorf("unsupported field type %s", field.Kind())
	}
	return nil
}

// loadFromEnv overrides configuration with environment variables
func loadFromEnv(config *Config) error {
	return applyEnv(reflect.ValueOf(config), os.LookupEnv)
}
