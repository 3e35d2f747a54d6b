package output

import (
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"
)

const indentWidth = 4

func encodeJSON(w io.Writer, payload any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	return enc.Encode(payload)
}

func encodeYAML(w io.Writer, payload any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(indentWidth)
	if err := enc.Encode(payload); err != nil {
		return err
	}
	return enc.Close()
}
