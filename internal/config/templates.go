package config

import (
	"fmt"
	"os"
)

func Template(format Format) (string, error) {
	switch format {
	case FormatYAML:
		return yamlTemplate, nil
	case FormatTOML:
		return tomlTemplate, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrFormat, format)
	}
}

func WriteTemplate(path string, format Format, overwrite bool) error {
	template, err := Template(format)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const yamlTemplate = `# Desired port connections. src names output ports, dst names input ports.
# One {a,b} or {N..M} group per pattern; both sides must expand to the same count.
links:
  - src: "Built-in Audio Analog Stereo:capture_{FL,FR}"
    dst: "recorder:input_{1..2}"
  - src: "player:output_FL"
    dst: "Built-in Audio Analog Stereo:playback_FL"
`

const tomlTemplate = `# Desired port connections. src names output ports, dst names input ports.
# One {a,b} or {N..M} group per pattern; both sides must expand to the same count.
[[links]]
src = "Built-in Audio Analog Stereo:capture_{FL,FR}"
dst = "recorder:input_{1..2}"

[[links]]
src = "player:output_FL"
dst = "Built-in Audio Analog Stereo:playback_FL"
`
