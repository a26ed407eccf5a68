package chat

import (
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/samcore/pkg/model"
	"gopkg.in/yaml.v3"
)

// LoadPersona reads a persona definition from a YAML file. Fields left empty
// in the file keep the built-in defaults, so a file can swap just the
// preamble without restating labels or fallback text.
func LoadPersona(path string) (model.Persona, error) {
	persona := DefaultPersona()

	data, err := os.ReadFile(path)
	if err != nil {
		return persona, goerr.Wrap(err, "failed to read persona file", goerr.V("path", path))
	}

	var loaded model.Persona
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return persona, goerr.Wrap(err, "failed to parse persona file", goerr.V("path", path))
	}

	if loaded.Name != "" {
		persona.Name = loaded.Name
	}
	if loaded.AssistantLabel != "" {
		persona.AssistantLabel = loaded.AssistantLabel
	}
	if loaded.Preamble != "" {
		persona.Preamble = loaded.Preamble
	}
	if loaded.Fallback != "" {
		persona.Fallback = loaded.Fallback
	}

	return persona, nil
}
