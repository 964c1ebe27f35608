package client

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/greynewell/intentbench/errors"
)

//go:embed info.schema.json
var infoSchema string

var compiledInfoSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(infoSchema))
})

// Model describes one model served by the intent service.
type Model struct {
	Key  string `json:"key,omitempty" yaml:"key,omitempty"`
	Name string `json:"name" yaml:"name"`
	Path string `json:"path" yaml:"path"`
}

// Info is the served-model metadata. Services exposing a single model are
// normalized into a one-element Models list.
type Info struct {
	Models  []Model `json:"models" yaml:"models"`
	Version string  `json:"version,omitempty" yaml:"version,omitempty"`
}

// Model returns the model at index i, or false when i is out of range.
func (in *Info) Model(i int) (Model, bool) {
	if in == nil || i < 0 || i >= len(in.Models) {
		return Model{}, false
	}
	return in.Models[i], true
}

type rawModel struct {
	Key  json.RawMessage `json:"key"`
	Name *string         `json:"name"`
	Path *string         `json:"path"`
}

type rawInfo struct {
	Models  []rawModel `json:"models"`
	Model   *rawModel  `json:"model"`
	Version *string    `json:"version"`
}

func parseInfo(body []byte) (*Info, error) {
	schema, err := compiledInfoSchema()
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "compile /info schema")
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return nil, errors.Wrap(errors.CodeProtocol, err, "GET /info: invalid JSON")
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, errors.Newf(errors.CodeProtocol, "GET /info: %s", strings.Join(msgs, "; "))
	}

	var raw rawInfo
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, errors.Wrap(errors.CodeProtocol, err, "GET /info: decode")
	}

	models := raw.Models
	if len(models) == 0 && raw.Model != nil {
		models = []rawModel{*raw.Model}
	}

	info := &Info{Models: make([]Model, len(models))}
	for i, m := range models {
		info.Models[i] = Model{
			Key:  rawKey(m.Key, i),
			Name: deref(m.Name),
			Path: deref(m.Path),
		}
	}
	if raw.Version != nil {
		info.Version = *raw.Version
	}
	return info, nil
}

// rawKey accepts string or numeric keys and falls back to the list index.
func rawKey(raw json.RawMessage, i int) string {
	if len(raw) == 0 || string(raw) == "null" {
		return fmt.Sprint(i)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
