// Package config holds the benchmark settings and loads them from a YAML
// file and prefixed environment variables. Command-line flags are applied
// on top by the caller, giving flag > env > file > default.
package config

import (
	"bytes"
	"io"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/greynewell/intentbench/errors"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "INTENTS"

// Config is the full set of run settings.
type Config struct {
	URL           string        `yaml:"url" env:"URL" validate:"required,url"`
	ModelIndex    int           `yaml:"model_index" env:"MODEL_INDEX" validate:"min=0"`
	Jobs          int           `yaml:"jobs" env:"JOBS" validate:"min=1,max=4096"`
	Output        string        `yaml:"output" env:"OUTPUT"`
	RetryInterval time.Duration `yaml:"retry_interval" env:"RETRY_INTERVAL" validate:"gt=0"`
	Timeout       time.Duration `yaml:"timeout" env:"TIMEOUT" validate:"gt=0"`
	Rate          float64       `yaml:"rate" env:"RATE" validate:"gte=0"`
	Format        string        `yaml:"format" env:"FORMAT" validate:"oneof=text json yaml"`
	ReportFile    string        `yaml:"report_file" env:"REPORT_FILE"`
	MetricsAddr   string        `yaml:"metrics_addr" env:"METRICS_ADDR"`
	TraceFile     string        `yaml:"trace_file" env:"TRACE_FILE"`
	LogLevel      string        `yaml:"log_level" env:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	LogFormat     string        `yaml:"log_format" env:"LOG_FORMAT" validate:"oneof=text json"`
	NoProgress    bool          `yaml:"no_progress" env:"NO_PROGRESS"`
}

// Default returns the built-in settings. URL has no default.
func Default() Config {
	return Config{
		Jobs:          4,
		RetryInterval: 5 * time.Second,
		Timeout:       10 * time.Second,
		Format:        "text",
		LogLevel:      "info",
		LogFormat:     "text",
	}
}

// Load starts from Default, overlays the YAML file at path when path is
// not empty, then applies PREFIX_* environment variables.
func Load(path, envPrefix string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return cfg, errors.Wrapf(errors.CodeNotFound, err, "config file %s", path)
			}
			return cfg, errors.Wrapf(errors.CodeValidation, err, "read config %s", path)
		}
		if err := Decode(bytes.NewReader(data), &cfg); err != nil {
			return cfg, errors.Wrapf(errors.CodeValidation, err, "config %s", path)
		}
	}

	if envPrefix != "" {
		if err := ApplyEnv(envPrefix, &cfg, os.LookupEnv); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

// Decode reads YAML into cfg. Unknown keys are rejected.
func Decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return err
	}
	return nil
}

// ApplyEnv overrides fields of the struct pointed to by v from variables
// named PREFIX_<env tag>, falling back to the upper-cased field name.
// lookup is usually os.LookupEnv.
func ApplyEnv(prefix string, v any, lookup func(string) (string, bool)) error {
	rv := reflect.ValueOf(v).Elem()
	rt := rv.Type()
	prefix = strings.ToUpper(prefix)

	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		fv := rv.Field(i)
		if !fv.CanSet() {
			continue
		}

		name := field.Tag.Get("env")
		if name == "-" {
			continue
		}
		if name == "" {
			name = strings.ToUpper(field.Name)
		}
		envKey := prefix + "_" + name
		envVal, ok := lookup(envKey)
		if !ok {
			continue
		}

		if err := setFromString(fv, envVal); err != nil {
			return errors.Wrapf(errors.CodeValidation, err, "%s=%q", envKey, envVal)
		}
	}
	return nil
}

var durationType = reflect.TypeOf(time.Duration(0))

func setFromString(fv reflect.Value, s string) error {
	if fv.Type() == durationType {
		d, err := time.ParseDuration(s)
		if err != nil {
			return err
		}
		fv.SetInt(int64(d))
		return nil
	}

	switch fv.Kind() {
	case reflect.String:
		fv.SetString(s)
	case reflect.Int, reflect.Int64:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return err
		}
		fv.SetInt(n)
	case reflect.Float64:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		fv.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return err
		}
		fv.SetBool(b)
	default:
		return errors.Newf(errors.CodeInternal, "unsupported kind %s", fv.Kind())
	}
	return nil
}
