package rawcore

import (
	"encoding/json"
	"fmt"
	"os"
)

// JsonDumps serialises v to a compact JSON string.
func JsonDumps(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("json marshal: %w", err)
	}
	return string(b), nil
}

// JsonIndentDumps serialises v to an indented JSON string, used for the
// inspection CLI's human-readable metadata dumps.
func JsonIndentDumps(v any) (string, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("json marshal: %w", err)
	}
	return string(b), nil
}

// WriteJson writes v as indented JSON to path, returning the bytes written.
// Mirrors the teacher's json.go: a thin wrapper so the CLI doesn't
// repeat file-open/marshal/close boilerplate at every call site.
func WriteJson(path string, v any) (int, error) {
	jsn, err := JsonIndentDumps(v)
	if err != nil {
		return 0, err
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	n, err := f.WriteString(jsn)
	if err != nil {
		return n, fmt.Errorf("writing %s: %w", path, err)
	}

	return n, nil
}
