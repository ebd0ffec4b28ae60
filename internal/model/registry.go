// Package model maps model identifiers to backend descriptors.
package model

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"netxlate/internal/core"

	"github.com/bytedance/sonic"
)

// Registry is an ordered, read-only set of model descriptors.
type Registry struct {
	models    []core.ModelDescriptor
	byID      map[string]int
	defaultID string
	degraded  bool
}

// ModelsFile is the models.json object form.
type ModelsFile struct {
	Default string                 `json:"default"`
	Models  []core.ModelDescriptor `json:"models"`
}

// fallbackModels keeps the workflow usable when the registry cannot be loaded.
var fallbackModels = []core.ModelDescriptor{
	{
		ID:               "gemini-1.5-flash-002",
		DisplayName:      "Gemini 1.5 Flash (002) - Recommended",
		Description:      "Latest stable version of Gemini 1.5 Flash",
		EndpointTemplate: core.GeminiEndpointTemplate,
	},
	{
		ID:               "gemini-1.5-pro-002",
		DisplayName:      "Gemini 1.5 Pro (002) - Latest Stable",
		Description:      "Latest stable version of Gemini 1.5 Pro",
		EndpointTemplate: core.GeminiEndpointTemplate,
	},
}

// New builds a registry. defaultID falls back to the first entry when unknown.
func New(models []core.ModelDescriptor, defaultID string) (*Registry, error) {
	if len(models) == 0 {
		return nil, fmt.Errorf("model registry is empty")
	}

	r := &Registry{byID: make(map[string]int, len(models))}
	for i, m := range models {
		m.ID = strings.TrimSpace(m.ID)
		if m.ID == "" {
			return nil, fmt.Errorf("model #%d has no id", i+1)
		}
		if _, dup := r.byID[m.ID]; dup {
			return nil, fmt.Errorf("model %q declared twice", m.ID)
		}
		if m.EndpointTemplate == "" {
			m.EndpointTemplate = core.GeminiEndpointTemplate
		}
		if m.DisplayName == "" {
			m.DisplayName = m.ID
		}
		r.byID[m.ID] = len(r.models)
		r.models = append(r.models, m)
	}

	r.defaultID = r.models[0].ID
	if _, ok := r.byID[defaultID]; ok {
		r.defaultID = defaultID
	}
	return r, nil
}

// Fallback returns the hardcoded two-entry registry, flagged as degraded.
func Fallback(defaultID string) *Registry {
	r, err := New(fallbackModels, defaultID)
	if err != nil {
		panic("model: invalid fallback registry: " + err.Error())
	}
	r.degraded = true
	return r
}

// Load reads models.json from path. preferredDefault, when present in the
// file, wins over the file's own default.
func Load(path, preferredDefault string) (*Registry, error) {
	file, err := ReadModelsFile(path)
	if err != nil {
		return nil, err
	}

	defaultID := file.Default
	if preferredDefault != "" && slices.ContainsFunc(file.Models, func(m core.ModelDescriptor) bool {
		return m.ID == preferredDefault
	}) {
		defaultID = preferredDefault
	}

	r, err := New(file.Models, defaultID)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", path, err)
	}
	return r, nil
}

// LoadOrFallback is Load that degrades to Fallback on any failure: a missing,
// unreadable, unparseable, invalid or empty file.
func LoadOrFallback(path, preferredDefault string, logger core.Logger) *Registry {
	r, err := Load(path, preferredDefault)
	if err != nil {
		logger.Warn("Model registry unavailable (%v), using %d fallback models", err, len(fallbackModels))
		return Fallback(preferredDefault)
	}
	logger.Info("Loaded %d models from %s (default %s)", r.Len(), path, r.Default())
	return r
}

// ReadModelsFile parses the object form, or the legacy array-of-ids form
// where every id uses the standard endpoint template.
func ReadModelsFile(path string) (ModelsFile, error) {
	var file ModelsFile

	data, err := os.ReadFile(path) //nolint:gosec // G304: path from config, not user input
	if err != nil {
		return file, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := sonic.Unmarshal(data, &file); err != nil {
		var modelIDs []string
		if err := sonic.Unmarshal(data, &modelIDs); err != nil {
			return file, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		file.Models = make([]core.ModelDescriptor, 0, len(modelIDs))
		for _, id := range modelIDs {
			file.Models = append(file.Models, core.ModelDescriptor{
				ID:               id,
				DisplayName:      id,
				EndpointTemplate: core.GeminiEndpointTemplate,
			})
		}
	}

	return file, nil
}

// Resolve looks up a model id.
func (r *Registry) Resolve(modelID string) (core.ModelDescriptor, *core.Error) {
	i, ok := r.byID[modelID]
	if !ok {
		return core.ModelDescriptor{}, core.ErrUnknownModel(modelID)
	}
	return r.models[i], nil
}

// List returns the selectable models in declared order.
func (r *Registry) List() []core.ModelInfo {
	out := make([]core.ModelInfo, len(r.models))
	for i, m := range r.models {
		out[i] = core.ModelInfo{ID: m.ID, DisplayName: m.DisplayName, Description: m.Description}
	}
	return out
}

// ModelList returns the listing response.
func (r *Registry) ModelList() core.ModelList {
	return core.ModelList{Default: r.defaultID, Degraded: r.degraded, Data: r.List()}
}

// Description returns the description of modelID, or "" when unknown.
func (r *Registry) Description(modelID string) string {
	if i, ok := r.byID[modelID]; ok {
		return r.models[i].Description
	}
	return ""
}

func (r *Registry) Default() string { return r.defaultID }

func (r *Registry) Degraded() bool { return r.degraded }

func (r *Registry) Len() int { return len(r.models) }
