package definition

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/olusolaa/better-aws/internal/core/domain"
	"github.com/olusolaa/better-aws/internal/core/ports"
	"github.com/olusolaa/better-aws/internal/errors"
)

const SourceTypeHCL = "hcl"

type hclFile struct {
	Stacks []hclStack `hcl:"stack,block"`
}

type hclStack struct {
	Name                   string            `hcl:"name,label"`
	TemplateFile           *string           `hcl:"template_file,optional"`
	TemplateBody           *string           `hcl:"template_body,optional"`
	TemplateURL            *string           `hcl:"template_url,optional"`
	Parameters             map[string]string `hcl:"parameters,optional"`
	Capabilities           []string          `hcl:"capabilities,optional"`
	Tags                   map[string]string `hcl:"tags,optional"`
	UseChangeSets          *bool             `hcl:"use_change_sets,optional"`
	DeleteRollbackComplete *bool             `hcl:"delete_rollback_complete,optional"`
}

// HCLSource reads a single `stack "<name>" { ... }` block. Expressions can
// reference process environment variables as env.NAME and call the cty
// standard functions.
type HCLSource struct {
	logger   ports.Logger
	environ  func() []string
	defaults Defaults
}

func NewHCLSource(logger ports.Logger, opts ...Option) *HCLSource {
	return &HCLSource{logger: logger, environ: os.Environ, defaults: applyOptions(opts)}
}

func (s *HCLSource) Type() string { return SourceTypeHCL }

func (s *HCLSource) Extensions() []string { return []string{".hcl"} }

func (s *HCLSource) Load(ctx context.Context, path string) (*domain.StackDefinition, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, path)
	if diags.HasErrors() {
		return nil, errors.WrapUserFacing(diags, errors.CodeDefinitionParseError,
			fmt.Sprintf("failed to parse HCL definition %s", path), "Check the file for HCL syntax errors.")
	}

	var parsed hclFile
	diags = gohcl.DecodeBody(file.Body, s.evalContext(), &parsed)
	if diags.HasErrors() {
		return nil, errors.WrapUserFacing(diags, errors.CodeDefinitionParseError,
			fmt.Sprintf("failed to evaluate HCL definition %s", path), "Check attribute names, env references and function calls.")
	}
	if len(parsed.Stacks) != 1 {
		return nil, errors.NewUserFacing(errors.CodeDefinitionInvalid,
			fmt.Sprintf("HCL definition %s must contain exactly one stack block, found %d", path, len(parsed.Stacks)),
			"Split multiple stacks into separate files.")
	}

	st := parsed.Stacks[0]
	s.logger.Debugf(ctx, "Loaded HCL definition %s for stack %q", path, st.Name)
	return fileSpec{
		Name:                   st.Name,
		TemplateFile:           deref(st.TemplateFile),
		TemplateBody:           deref(st.TemplateBody),
		TemplateURL:            deref(st.TemplateURL),
		Parameters:             st.Parameters,
		Capabilities:           st.Capabilities,
		Tags:                   st.Tags,
		UseChangeSets:          st.UseChangeSets,
		DeleteRollbackComplete: st.DeleteRollbackComplete,
	}.toDomain(ctx, path, s.defaults)
}

func (s *HCLSource) evalContext() *hcl.EvalContext {
	env := make(map[string]cty.Value)
	for _, kv := range s.environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			continue
		}
		env[name] = cty.StringVal(value)
	}
	envVal := cty.EmptyObjectVal
	if len(env) > 0 {
		envVal = cty.ObjectVal(env)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"env": envVal},
		Functions: standardFunctions(),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
