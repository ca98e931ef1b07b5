package definition

import (
	"context"
	"fmt"
	"reflect"

	"github.com/go-viper/mapstructure/v2"
	"gopkg.in/yaml.v3"

	"github.com/olusolaa/better-aws/internal/core/domain"
	"github.com/olusolaa/better-aws/internal/core/ports"
	"github.com/olusolaa/better-aws/internal/errors"
)

const SourceTypeYAML = "yaml"

type YAMLSource struct {
	logger   ports.Logger
	defaults Defaults
}

func NewYAMLSource(logger ports.Logger, opts ...Option) *YAMLSource {
	return &YAMLSource{logger: logger, defaults: applyOptions(opts)}
}

func (s *YAMLSource) Type() string { return SourceTypeYAML }

func (s *YAMLSource) Extensions() []string { return []string{".yaml", ".yml"} }

// Load reads a YAML definition. Scalar parameter and tag values of any type
// are accepted and rendered as strings.
func (s *YAMLSource) Load(ctx context.Context, path string) (*domain.StackDefinition, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.WrapUserFacing(err, errors.CodeDefinitionParseError,
			fmt.Sprintf("failed to parse YAML definition %s", path), "Check the file for YAML syntax errors.")
	}
	if raw == nil {
		return nil, errors.NewUserFacing(errors.CodeDefinitionParseError,
			fmt.Sprintf("YAML definition %s is empty", path), "Add at least a name and a template.")
	}

	var spec fileSpec
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       scalarToStringHook,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &spec,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to build definition decoder")
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, errors.WrapUserFacing(err, errors.CodeDefinitionParseError,
			fmt.Sprintf("invalid YAML definition %s", path), "Check field names and value types.")
	}

	s.logger.Debugf(ctx, "Loaded YAML definition %s for stack %q", path, spec.Name)
	return spec.toDomain(ctx, path, s.defaults)
}

// scalarToStringHook renders scalars bound for string fields the way they read
// in the file, so `true` stays "true" rather than the weak-decode "1".
func scalarToStringHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to.Kind() != reflect.String {
		return data, nil
	}
	switch from.Kind() {
	case reflect.Bool, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return fmt.Sprint(data), nil
	}
	return data, nil
}
