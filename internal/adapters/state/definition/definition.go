// Package definition loads stack definitions from YAML or HCL files.
package definition

import (
	"context"
	stderrs "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/olusolaa/better-aws/internal/core/domain"
	"github.com/olusolaa/better-aws/internal/core/ports"
	"github.com/olusolaa/better-aws/internal/errors"
)

// fileSpec is the on-disk shape shared by both formats.
type fileSpec struct {
	Name                   string            `mapstructure:"name"`
	TemplateFile           string            `mapstructure:"template_file"`
	TemplateBody           string            `mapstructure:"template_body"`
	TemplateURL            string            `mapstructure:"template_url"`
	Parameters             map[string]string `mapstructure:"parameters"`
	Capabilities           []string          `mapstructure:"capabilities"`
	Tags                   map[string]string `mapstructure:"tags"`
	UseChangeSets          *bool             `mapstructure:"use_change_sets"`
	DeleteRollbackComplete *bool             `mapstructure:"delete_rollback_complete"`
}

// Defaults supplies the deploy flags for definitions that leave them unset.
// A value written in the file, including false, always wins.
type Defaults struct {
	UseChangeSets          bool
	DeleteRollbackComplete bool
}

type Option func(*Defaults)

func WithDefaults(d Defaults) Option {
	return func(o *Defaults) { *o = d }
}

func applyOptions(opts []Option) Defaults {
	var d Defaults
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

var (
	_ ports.DefinitionSource = (*YAMLSource)(nil)
	_ ports.DefinitionSource = (*HCLSource)(nil)
)

// toDomain resolves template_file against the definition's directory, fills
// unset deploy flags from defaults and validates the result.
func (s fileSpec) toDomain(ctx context.Context, path string, defaults Defaults) (*domain.StackDefinition, error) {
	sources := 0
	for _, v := range []string{s.TemplateFile, s.TemplateBody, s.TemplateURL} {
		if v != "" {
			sources++
		}
	}
	if sources > 1 {
		return nil, errors.NewUserFacing(errors.CodeDefinitionInvalid,
			fmt.Sprintf("definition %s sets more than one of template_file, template_body, template_url", path),
			"Keep exactly one template source.")
	}

	def := &domain.StackDefinition{
		Name:                     s.Name,
		TemplateBody:             s.TemplateBody,
		TemplateURL:              s.TemplateURL,
		Parameters:               s.Parameters,
		Capabilities:             s.Capabilities,
		Tags:                     s.Tags,
		UseChangeSets:            boolOr(s.UseChangeSets, defaults.UseChangeSets),
		DeleteIfRollbackComplete: boolOr(s.DeleteRollbackComplete, defaults.DeleteRollbackComplete),
	}

	if s.TemplateFile != "" {
		templatePath := s.TemplateFile
		if !filepath.IsAbs(templatePath) {
			templatePath = filepath.Join(filepath.Dir(path), templatePath)
		}
		body, err := os.ReadFile(templatePath)
		if err != nil {
			return nil, errors.WrapUserFacing(err, errors.CodeDefinitionReadError,
				fmt.Sprintf("failed to read template file %s", templatePath),
				"template_file is resolved relative to the definition file.")
		}
		def.TemplateBody = string(body)
	}

	if err := validate(ctx, def); err != nil {
		return nil, err
	}
	return def, nil
}

func validate(ctx context.Context, def *domain.StackDefinition) error {
	err := validator.New().StructCtx(ctx, def)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !stderrs.As(err, &validationErrors) {
		return errors.Wrap(err, errors.CodeDefinitionInvalid, "stack definition validation failed")
	}
	var details strings.Builder
	details.WriteString("Stack definition validation failed:")
	for _, fe := range validationErrors {
		details.WriteString(fmt.Sprintf("\n - Field '%s': Failed on '%s' validation (value: '%v')", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return errors.NewUserFacing(errors.CodeDefinitionInvalid, details.String(), "Please check the stack definition file.")
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapUserFacing(err, errors.CodeDefinitionReadError,
			fmt.Sprintf("failed to read stack definition %s", path), "Check the --file path.")
	}
	return data, nil
}

func boolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}
