package service

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/olusolaa/better-aws/internal/core/ports"
	"github.com/olusolaa/better-aws/internal/errors"
)

type ComponentRegistry struct {
	mu                sync.RWMutex
	definitionSources map[string]ports.DefinitionSource
	byExtension       map[string]string
	reporters         map[string]ports.Reporter
}

func NewComponentRegistry() *ComponentRegistry {
	return &ComponentRegistry{
		definitionSources: make(map[string]ports.DefinitionSource),
		byExtension:       make(map[string]string),
		reporters:         make(map[string]ports.Reporter),
	}
}

func (r *ComponentRegistry) RegisterDefinitionSource(source ports.DefinitionSource) error {
	if source == nil {
		return errors.New(errors.CodeInternal, "attempted to register nil definition source")
	}
	sourceType := source.Type()
	if sourceType == "" {
		return errors.New(errors.CodeInternal, "definition source type cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.definitionSources[sourceType]; exists {
		return errors.New(errors.CodeInternal, fmt.Sprintf("definition source type '%s' already registered", sourceType))
	}
	for _, ext := range source.Extensions() {
		if owner, taken := r.byExtension[strings.ToLower(ext)]; taken {
			return errors.New(errors.CodeInternal, fmt.Sprintf("extension '%s' already handled by '%s'", ext, owner))
		}
	}
	for _, ext := range source.Extensions() {
		r.byExtension[strings.ToLower(ext)] = sourceType
	}
	r.definitionSources[sourceType] = source
	return nil
}

func (r *ComponentRegistry) GetDefinitionSource(sourceType string) (ports.DefinitionSource, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	source, exists := r.definitionSources[sourceType]
	if !exists {
		return nil, errors.New(errors.CodeConfigValidation, fmt.Sprintf("definition source type '%s' not found", sourceType))
	}
	return source, nil
}

// DefinitionSourceFor picks the source registered for path's extension.
func (r *ComponentRegistry) DefinitionSourceFor(path string) (ports.DefinitionSource, error) {
	ext := strings.ToLower(filepath.Ext(path))

	r.mu.RLock()
	sourceType, ok := r.byExtension[ext]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.NewUserFacing(errors.CodeDefinitionReadError,
			fmt.Sprintf("no definition reader for '%s'", path),
			"Use a .yaml, .yml or .hcl stack definition file.")
	}
	return r.GetDefinitionSource(sourceType)
}

func (r *ComponentRegistry) RegisterReporter(name string, reporter ports.Reporter) error {
	if reporter == nil {
		return errors.New(errors.CodeInternal, "attempted to register nil reporter")
	}
	if name == "" {
		return errors.New(errors.CodeInternal, "reporter name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.reporters[name]; exists {
		return errors.New(errors.CodeInternal, fmt.Sprintf("reporter '%s' already registered", name))
	}
	r.reporters[name] = reporter
	return nil
}

func (r *ComponentRegistry) GetReporter(name string) (ports.Reporter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reporter, exists := r.reporters[name]
	if !exists {
		return nil, errors.NewUserFacing(errors.CodeConfigValidation,
			fmt.Sprintf("unsupported reporter type: %s", name), "Supported: text, json")
	}
	return reporter, nil
}
