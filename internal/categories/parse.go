package categories

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"foldersort/internal/errkind"
)

// LoadFile reads a category catalog from path, auto-detecting CSV vs JSON
// by the first non-whitespace byte ('{' or '[' means JSON; anything else
// is treated as CSV), matching the source tool's format-sniffing loader.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading categories file %s: %w: %w", path, errkind.Config, err)
	}

	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return NewCatalog(), nil
	}
	if trimmed[0] == '{' || trimmed[0] == '[' {
		return ParseJSON(data)
	}
	return ParseCSV(strings.NewReader(string(data)))
}

// ParseCSV reads "category/path,template" rows. Lines beginning with '#'
// (after leading whitespace) and blank lines are ignored. A row whose
// path is exactly DefaultTemplateKey sets the catalog-wide default
// template instead of inserting a node.
func ParseCSV(r io.Reader) (*Catalog, error) {
	cat := NewCatalog()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		pathStr, tmplStr := splitCSVRow(line)
		pathStr = strings.TrimSpace(pathStr)
		if pathStr == "" {
			continue
		}

		var tmpl *Template
		if tmplStr != "" {
			tmpl = ParseTemplate(tmplStr)
		}

		if pathStr == DefaultTemplateKey {
			if tmpl != nil {
				cat.SetDefaultTemplate(tmpl)
			}
			continue
		}

		path, ok := ParsePath(pathStr)
		if !ok {
			return nil, fmt.Errorf("categories file line %d: invalid category path %q: %w", lineNo, pathStr, errkind.Parse)
		}
		if err := cat.Insert(path, tmpl); err != nil {
			return nil, fmt.Errorf("categories file line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning categories file: %w: %w", errkind.Parse, err)
	}
	return cat, nil
}

// splitCSVRow splits a row on the first comma; the template
// field is free-form (it may itself contain '/'), so only the first
// comma is treated as the column separator.
func splitCSVRow(line string) (path, template string) {
	idx := strings.IndexByte(line, ',')
	if idx < 0 {
		return line, ""
	}
	return line[:idx], strings.TrimSpace(line[idx+1:])
}

// ParseJSON reads a nested-tree catalog. Each JSON object key is a
// category segment; a nested object recurses into children, an object
// key literally named "_template" sets that node's template string, a
// string value is shorthand for "leaf node whose template is this
// string", and a list of strings enumerates known leaf children with no
// template of their own.
func ParseJSON(data []byte) (*Catalog, error) {
	var root map[string]interface{}
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parsing categories JSON: %w: %w", errkind.Parse, err)
	}

	cat := NewCatalog()
	if tmpl, ok := root[DefaultTemplateKey]; ok {
		if s, ok := tmpl.(string); ok {
			cat.SetDefaultTemplate(ParseTemplate(s))
		}
		delete(root, DefaultTemplateKey)
	}
	if err := parseJSONObject(cat, nil, root); err != nil {
		return nil, err
	}
	return cat, nil
}

func parseJSONObject(cat *Catalog, prefix CategoryPath, obj map[string]interface{}) error {
	for key, val := range obj {
		if key == "_template" {
			continue
		}
		childPath := append(append(CategoryPath{}, prefix...), key)

		switch v := val.(type) {
		case map[string]interface{}:
			var tmpl *Template
			if raw, ok := v["_template"]; ok {
				if s, ok := raw.(string); ok {
					tmpl = ParseTemplate(s)
				}
			}
			if err := cat.Insert(childPath, tmpl); err != nil {
				return err
			}
			if err := parseJSONObject(cat, childPath, v); err != nil {
				return err
			}
		case []interface{}:
			if err := cat.Insert(childPath, nil); err != nil {
				return err
			}
			for _, leaf := range v {
				s, ok := leaf.(string)
				if !ok || s == "" {
					continue
				}
				leafPath := append(append(CategoryPath{}, childPath...), s)
				if err := cat.Insert(leafPath, nil); err != nil {
					return err
				}
			}
		case string:
			if err := cat.Insert(childPath, ParseTemplate(v)); err != nil {
				return err
			}
		case nil:
			if err := cat.Insert(childPath, nil); err != nil {
				return err
			}
		default:
			return fmt.Errorf("categories JSON: unexpected value for %q: %w", strings.Join(childPath, "/"), errkind.Parse)
		}
	}
	return nil
}
