package capabilities

import "gopkg.in/yaml.v3"

// ModelInfo is the catalog entry for one completion model.
type ModelInfo struct {
	// Model identifier, set from the YAML map key.
	ID string `yaml:"-" json:"id"`

	DisplayName string `yaml:"display_name" json:"display_name"`
	Description string `yaml:"description" json:"description"`

	// SupportsStreaming is false for the rare model that only answers in
	// one shot; stream requests for it fall back to single-shot relay.
	SupportsStreaming bool `yaml:"supports_streaming" json:"supports_streaming"`

	ContextWindow int `yaml:"context_window" json:"context_window"`
	MaxOutput     int `yaml:"max_output" json:"max_output"`
}

// ProviderModels is the catalog for one provider.
type ProviderModels struct {
	Provider string      `yaml:"provider" json:"provider"`
	Models   []ModelInfo `yaml:"-" json:"models"`
}

// UnmarshalYAML keeps the models in file order so catalog listings match the
// YAML, with the map key becoming each model's ID.
func (p *ProviderModels) UnmarshalYAML(node *yaml.Node) error {
	for i := 0; i < len(node.Content); i += 2 {
		if node.Content[i].Value == "provider" {
			p.Provider = node.Content[i+1].Value
			break
		}
	}

	type modelsOnly struct {
		Models map[string]ModelInfo `yaml:"models"`
	}
	var m modelsOnly
	if err := node.Decode(&m); err != nil {
		return err
	}

	for i := 0; i < len(node.Content); i += 2 {
		if node.Content[i].Value != "models" {
			continue
		}
		modelsNode := node.Content[i+1]
		for j := 0; j < len(modelsNode.Content); j += 2 {
			id := modelsNode.Content[j].Value
			if model, ok := m.Models[id]; ok {
				model.ID = id
				p.Models = append(p.Models, model)
			}
		}
		break
	}

	return nil
}
