package slotmark

import (
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// frontmatterDelimiter is a line of exactly three dashes (surrounding
// whitespace tolerated).
var frontmatterDelimiter = regexp.MustCompile(`^\s*---\s*$`)

var yamlLineError = regexp.MustCompile(`line (\d+):`)

// SplitFrontmatter separates a document's frontmatter from its body.
//
// Text that does not open with a --- line is returned unchanged with empty
// metadata. A present but empty header also yields empty metadata. A header
// that fails strict YAML parsing is recovered line by line; the malformed
// header is never fatal. The returned Document carries the raw header text
// for diagnostics.
func SplitFrontmatter(text string, logger Logger) (*Metadata, *Document) {
	if logger == nil {
		logger = NopLogger{}
	}

	doc := &Document{Body: text}
	meta := NewMetadata()

	if !strings.HasPrefix(strings.TrimLeft(text, " \t\r\n"), "---") {
		return meta, doc
	}

	lines := strings.SplitAfter(text, "\n")
	openIdx := -1
	for i, line := range lines {
		trimmed := strings.TrimRight(line, "\n")
		if strings.TrimSpace(trimmed) == "" {
			continue
		}
		if frontmatterDelimiter.MatchString(trimmed) {
			openIdx = i
		}
		break
	}
	if openIdx < 0 {
		return meta, doc
	}

	closeIdx := -1
	for i := openIdx + 1; i < len(lines); i++ {
		if frontmatterDelimiter.MatchString(strings.TrimRight(lines[i], "\n")) {
			closeIdx = i
			break
		}
	}
	if closeIdx < 0 {
		// A --- line with no closing delimiter is not a header.
		return meta, doc
	}

	header := strings.Join(lines[openIdx+1:closeIdx], "")
	doc.RawMetadata = header
	doc.Body = strings.Join(lines[closeIdx+1:], "")

	if strings.TrimSpace(header) == "" {
		return meta, doc
	}

	if parsed, err := parseHeaderYAML(header); err == nil {
		return parsed, doc
	} else {
		logger.Warn("frontmatter: strict parse failed, recovering line by line",
			"line", yamlErrorLine(err), "error", err.Error())
	}

	return recoverHeader(header), doc
}

// parseHeaderYAML parses the header strictly, preserving key order. Keys that
// contain more than one colon are dropped; they come from degenerate headers
// and cannot be trusted.
func parseHeaderYAML(header string) (*Metadata, error) {
	var node yaml.Node
	if err := yaml.Unmarshal([]byte(header), &node); err != nil {
		return nil, err
	}
	if len(node.Content) == 0 {
		return NewMetadata(), nil
	}
	root := node.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, &ParseError{Line: root.Line, Message: "frontmatter is not a mapping"}
	}

	meta := NewMetadata()
	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode, valNode := root.Content[i], root.Content[i+1]
		key := keyNode.Value
		if strings.Count(key, ":") > 1 {
			continue
		}
		var value any
		if err := valNode.Decode(&value); err != nil {
			return nil, err
		}
		if value == nil {
			continue
		}
		meta.Set(key, value)
	}
	return meta, nil
}

// recoverHeader salvages key/value pairs from a header that failed strict
// parsing. Each non-blank, non-comment line is split at its first colon;
// lines with no colon before any value, or an empty key, are dropped.
func recoverHeader(header string) *Metadata {
	meta := NewMetadata()
	for _, line := range strings.Split(header, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		idx := strings.Index(trimmed, ":")
		if idx <= 0 {
			continue
		}
		key := strings.TrimSpace(trimmed[:idx])
		if key == "" || strings.ContainsAny(key, " \t") {
			continue
		}
		value, present := convertValue(trimmed[idx+1:])
		if !present {
			continue
		}
		meta.Set(key, value)
	}
	return meta
}

// convertValue coerces a raw scalar string to its natural type. The second
// return value is false for explicit nulls and empty values, which are
// treated as absent keys.
func convertValue(raw string) (any, bool) {
	v := strings.TrimSpace(raw)

	if len(v) >= 2 {
		if (v[0] == '"' && v[len(v)-1] == '"') || (v[0] == '\'' && v[len(v)-1] == '\'') {
			return v[1 : len(v)-1], true
		}
	}

	if strings.HasPrefix(v, "[") && strings.HasSuffix(v, "]") {
		var items []string
		for _, part := range strings.Split(v[1:len(v)-1], ",") {
			if item := strings.Trim(part, " \t\"'"); item != "" {
				items = append(items, item)
			}
		}
		return items, true
	}

	switch strings.ToLower(v) {
	case "true", "yes":
		return true, true
	case "false", "no":
		return false, true
	case "null", "~", "":
		return nil, false
	}

	if n, err := strconv.Atoi(v); err == nil {
		return n, true
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f, true
	}
	return v, true
}

// yamlErrorLine pulls the 1-indexed line number out of a yaml.v3 error
// message, falling back to 1.
func yamlErrorLine(err error) int {
	if pe, ok := err.(*ParseError); ok && pe.Line > 0 {
		return pe.Line
	}
	if m := yamlLineError.FindStringSubmatch(err.Error()); m != nil {
		if n, convErr := strconv.Atoi(m[1]); convErr == nil {
			return n
		}
	}
	return 1
}
