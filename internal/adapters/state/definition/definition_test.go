package definition

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olusolaa/better-aws/internal/core/domain"
	"github.com/olusolaa/better-aws/internal/core/ports"
	"github.com/olusolaa/better-aws/internal/errors"
	"github.com/olusolaa/better-aws/internal/log"
)

const testTemplate = "Resources:\n  Bucket:\n    Type: AWS::S3::Bucket\n"

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestYAMLSource_Load(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "templates/bucket.yaml", testTemplate)
	path := writeFile(t, dir, "stack.yaml", `
name: my-stack
template_file: templates/bucket.yaml
parameters:
  Env: prod
  Count: 3
  Enabled: true
capabilities: [CAPABILITY_IAM]
tags:
  team: platform
use_change_sets: true
delete_rollback_complete: true
`)

	def, err := NewYAMLSource(log.Discard()).Load(context.Background(), path)
	require.NoError(t, err)

	want := &domain.StackDefinition{
		Name:                     "my-stack",
		TemplateBody:             testTemplate,
		Parameters:               map[string]string{"Env": "prod", "Count": "3", "Enabled": "true"},
		Capabilities:             []string{"CAPABILITY_IAM"},
		Tags:                     map[string]string{"team": "platform"},
		UseChangeSets:            true,
		DeleteIfRollbackComplete: true,
	}
	if diff := cmp.Diff(want, def); diff != "" {
		t.Errorf("definition mismatch (-want +got):\n%s", diff)
	}
}

func TestYAMLSource_Errors(t *testing.T) {
	testCases := []struct {
		name     string
		content  string
		wantCode errors.Code
	}{
		{"syntax", "name: [unterminated", errors.CodeDefinitionParseError},
		{"empty", "", errors.CodeDefinitionParseError},
		{"unknown field", "name: a\ntemplate_body: x\ncolour: blue\n", errors.CodeDefinitionParseError},
		{"missing name", "template_body: x\n", errors.CodeDefinitionInvalid},
		{"no template", "name: a\n", errors.CodeDefinitionInvalid},
		{"two templates", "name: a\ntemplate_body: x\ntemplate_url: https://example.com/t.yaml\n", errors.CodeDefinitionInvalid},
		{"bad capability", "name: a\ntemplate_body: x\ncapabilities: [CAPABILITY_ROOT]\n", errors.CodeDefinitionInvalid},
		{"missing template file", "name: a\ntemplate_file: nope.yaml\n", errors.CodeDefinitionReadError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "stack.yaml", tc.content)
			_, err := NewYAMLSource(log.Discard()).Load(context.Background(), path)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.wantCode), "got %v", err)
		})
	}
}

func TestYAMLSource_MissingFile(t *testing.T) {
	_, err := NewYAMLSource(log.Discard()).Load(context.Background(), filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeDefinitionReadError))
}

func TestHCLSource_Load(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bucket.yaml", testTemplate)
	path := writeFile(t, dir, "stack.hcl", `
stack "app" {
  template_file = "bucket.yaml"
  parameters = {
    Env      = upper(env.STAGE)
    Replicas = max(2, 3)
  }
  tags = merge({ team = "platform" }, { stage = env.STAGE })
  use_change_sets = true
}
`)
	src := NewHCLSource(log.Discard())
	src.environ = func() []string { return []string{"STAGE=dev", "MALFORMED"} }

	def, err := src.Load(context.Background(), path)

	require.NoError(t, err)
	assert.Equal(t, "app", def.Name)
	assert.Equal(t, testTemplate, def.TemplateBody)
	assert.Equal(t, map[string]string{"Env": "DEV", "Replicas": "3"}, def.Parameters)
	assert.Equal(t, map[string]string{"team": "platform", "stage": "dev"}, def.Tags)
	assert.True(t, def.UseChangeSets)
	assert.False(t, def.DeleteIfRollbackComplete)
}

func TestSources_DefaultsFillOnlyUnsetFlags(t *testing.T) {
	defaults := WithDefaults(Defaults{UseChangeSets: true, DeleteRollbackComplete: true})
	testCases := []struct {
		name        string
		file        string
		content     string
		wantCS      bool
		wantRecycle bool
	}{
		{"yaml unset", "s.yaml", "name: app\ntemplate_body: '{}'\n", true, true},
		{"yaml explicit false", "s.yaml", "name: app\ntemplate_body: '{}'\nuse_change_sets: false\ndelete_rollback_complete: false\n", false, false},
		{"hcl unset", "s.hcl", "stack \"app\" {\n  template_body = \"{}\"\n}\n", true, true},
		{"hcl explicit false", "s.hcl", "stack \"app\" {\n  template_body = \"{}\"\n  use_change_sets = false\n}\n", false, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), tc.file, tc.content)
			var src ports.DefinitionSource = NewYAMLSource(log.Discard(), defaults)
			if filepath.Ext(tc.file) == ".hcl" {
				src = NewHCLSource(log.Discard(), defaults)
			}

			def, err := src.Load(context.Background(), path)

			require.NoError(t, err)
			assert.Equal(t, tc.wantCS, def.UseChangeSets)
			assert.Equal(t, tc.wantRecycle, def.DeleteIfRollbackComplete)
		})
	}
}

func TestHCLSource_Errors(t *testing.T) {
	testCases := []struct {
		name     string
		content  string
		wantCode errors.Code
	}{
		{"syntax", `stack "a" {`, errors.CodeDefinitionParseError},
		{"unknown env", `stack "a" { template_body = env.MISSING }`, errors.CodeDefinitionParseError},
		{"unknown attribute", `stack "a" { colour = "blue" }`, errors.CodeDefinitionParseError},
		{"no stacks", ``, errors.CodeDefinitionInvalid},
		{"two stacks", "stack \"a\" { template_body = \"x\" }\nstack \"b\" { template_body = \"x\" }\n", errors.CodeDefinitionInvalid},
		{"no template", `stack "a" {}`, errors.CodeDefinitionInvalid},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "stack.hcl", tc.content)
			src := NewHCLSource(log.Discard())
			src.environ = func() []string { return nil }
			_, err := src.Load(context.Background(), path)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.wantCode), "got %v", err)
		})
	}
}

func TestSources_TypeAndExtensions(t *testing.T) {
	assert.Equal(t, SourceTypeYAML, NewYAMLSource(log.Discard()).Type())
	assert.Equal(t, []string{".yaml", ".yml"}, NewYAMLSource(log.Discard()).Extensions())
	assert.Equal(t, SourceTypeHCL, NewHCLSource(log.Discard()).Type())
	assert.Equal(t, []string{".hcl"}, NewHCLSource(log.Discard()).Extensions())
}
