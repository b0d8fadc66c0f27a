package export

import "encoding/json"

// JSONFormatter renders the Document as indented JSON.
type JSONFormatter struct{}

// NewJSONFormatter creates a new JSONFormatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

func (f *JSONFormatter) Extension() string { return ".json" }

func (f *JSONFormatter) Format(doc *Document) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}
