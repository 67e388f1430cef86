package config

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kballard/go-shellquote"

	"github.com/teranos/buildergen/errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// report fields by their config key
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return errors.Wrap(err, "failed to validate config")
		}
		first := verrs[0]
		key := strings.TrimPrefix(first.Namespace(), "Config.")
		return errors.WithHint(
			errors.Wrapf(errors.ErrInvalidConfig, "%s fails %q (got %v)", key, first.Tag(), first.Value()),
			hintFor(key))
	}

	if _, err := shellquote.Split(c.BuildFlags); err != nil {
		return errors.WithHint(
			errors.Wrapf(errors.ErrInvalidConfig, "build_flags %q: %v", c.BuildFlags, err),
			"quote flag values the way a shell would, e.g. -tags \"a b\"")
	}
	return nil
}

func hintFor(key string) string {
	switch key {
	case "mode":
		return "mode is overwrite or merge"
	case "log.verbosity":
		return "verbosity ranges from 0 (warnings) to 3 (trace)"
	case "history.path":
		return "set history.path or disable history with history.enabled = false"
	case "watch.debounce_ms":
		return "debounce is a non-negative number of milliseconds"
	default:
		return "see 'buildergen config show' for the effective values"
	}
}
