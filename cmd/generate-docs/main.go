// Copyright 2025 Andrew Khoury
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// generate-docs generates rotacheck's config reference from the config structs
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/drew/rotacheck/internal/config"
)

// FieldDoc represents documentation for a single field
type FieldDoc struct {
	Name        string
	Type        string
	Default     string
	Description string
	ValidValues []string
}

// SectionDoc represents documentation for a config section
type SectionDoc struct {
	Name        string
	Description string
	Fields      []FieldDoc
}

// flagDoc is one row of a CLI flag table
type flagDoc struct {
	Flag        string
	Description string
	Default     string
}

var (
	persistentFlags = []flagDoc{
		{"--config <path>", "Path to config file", "`" + config.DefaultConfigFile + "`"},
		{"--prefs <path>", "Path to the preferences database", "user config dir"},
		{"--verbose", "Verbose logging (always written to pipeline.log)", "`false`"},
		{"--color <mode>", "Colored output: `auto`, `always`, `never`", "`auto`"},
	}
	runFlags = []flagDoc{
		{"--report <file|url>", "Report page to annotate: a saved HTML file or an http(s) URL", "-"},
		{"--browser <url>", "Annotate the report open at this URL inside Chrome", "-"},
		{"--control-url <url>", "DevTools URL of a running Chrome", "launch one"},
		{"--headless", "Launch Chrome headless", "`false`"},
		{"--threshold <mins>", "Minute threshold (overrides the stored preference)", "stored, then config"},
		{"--ui <mode>", "UI mode: `basic`, `full`", "config"},
		{"--on-fetch-error <policy>", "On a failed detail fetch: `mark` or `halt`", "config"},
		{"--output <dir>", "Directory for run outputs", "config"},
		{"--no-panel", "Do not inject the control panel into annotated.html", "`false`"},
		{"--fail-on-red", "Exit non-zero when any row is red", "`false`"},
	}
	commands = []flagDoc{
		{"rotacheck [run flags]", "Same as `rotacheck run`", ""},
		{"rotacheck run", "Annotate a report once and store the run", ""},
		{"rotacheck serve --report <file|url> [--addr host:port]", "Annotate once, then serve the report with a live control panel", ""},
		{"rotacheck threshold get", "Print the threshold the next run will use and where it comes from", ""},
		{"rotacheck threshold set <mins>", "Store a new threshold", ""},
		{"rotacheck theme get", "Print the current appearance", ""},
		{"rotacheck theme toggle", "Switch between light and dark", ""},
		{"rotacheck validate [config-file...]", "Validate config files", ""},
		{"rotacheck init", "Write a starter " + config.DefaultConfigFile, ""},
	}
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "--help" {
		fmt.Println("Usage: generate-docs [output-dir]")
		fmt.Println("Generates documentation from config structs:")
		fmt.Println("  - rotacheck.example.toml")
		fmt.Println("  - rotacheck.schema.json")
		fmt.Println("  - docs/configuration.md")
		fmt.Println("  - docs/cli-reference.md")
		return
	}

	outDir := "."
	if len(os.Args) > 1 {
		outDir = os.Args[1]
	}

	docs := buildDocumentation()

	steps := []struct {
		name string
		fn   func() error
	}{
		{"rotacheck.example.toml", func() error { return generateExampleTOML(outDir, docs) }},
		{"rotacheck.schema.json", func() error { return generateJSONSchema(outDir, docs) }},
		{"docs/configuration.md", func() error { return generateMarkdownDocs(outDir, docs) }},
		{"docs/cli-reference.md", func() error { return generateCLIDocs(outDir) }},
	}
	for _, s := range steps {
		if err := s.fn(); err != nil {
			fmt.Fprintf(os.Stderr, "Error generating %s: %v\n", s.name, err)
			os.Exit(1)
		}
		fmt.Printf("✓ Generated %s\n", s.name)
	}
}

func buildDocumentation() []SectionDoc {
	defaults := config.GetDefaults()

	return []SectionDoc{
		extractSection("defaults", "Run defaults", defaults.Defaults),
		extractSection("portal", "Where detail documents are fetched from", defaults.Portal),
		extractSection("tasks", "Task lists used by the classifier", defaults.Tasks),
		extractSection("colors", "Row background colors", defaults.Colors),
	}
}

// extractSection reads field docs from struct tags; values come from the defaults
func extractSection(name, description string, value interface{}) SectionDoc {
	section := SectionDoc{Name: name, Description: description}

	t := reflect.TypeOf(value)
	v := reflect.ValueOf(value)

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		docTag := field.Tag.Get("doc")
		tomlTag := field.Tag.Get("toml")
		if docTag == "" || tomlTag == "" {
			continue
		}

		fieldDoc := FieldDoc{
			Name:        tomlTag,
			Type:        getFieldType(field.Type),
			Default:     getDefaultValue(v.Field(i)),
			Description: docTag,
		}
		if enumTag := field.Tag.Get("enum"); enumTag != "" {
			fieldDoc.ValidValues = strings.Split(enumTag, ",")
		}

		section.Fields = append(section.Fields, fieldDoc)
	}

	return section
}

func getFieldType(t reflect.Type) string {
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "int"
	case reflect.Bool:
		return "bool"
	case reflect.Slice:
		return "[]" + getFieldType(t.Elem())
	case reflect.Ptr:
		return getFieldType(t.Elem())
	default:
		return t.String()
	}
}

// getDefaultValue renders v as a TOML literal, or "" when unset
func getDefaultValue(v reflect.Value) string {
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return ""
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.String:
		if v.String() == "" {
			return ""
		}
		return strconv.Quote(v.String())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10)
	case reflect.Bool:
		return strconv.FormatBool(v.Bool())
	case reflect.Slice:
		items := make([]string, v.Len())
		for i := range items {
			items[i] = getDefaultValue(v.Index(i))
		}
		return "[" + strings.Join(items, ", ") + "]"
	default:
		return ""
	}
}

func writeOut(outDir, name, content string) error {
	path := filepath.Join(outDir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0644)
}

func generateExampleTOML(outDir string, docs []SectionDoc) error {
	var sb strings.Builder

	sb.WriteString(`# =============================================================================
# rotacheck Configuration Reference
# =============================================================================
# Every option with its default. Copy what you need into rotacheck.toml,
# or run "rotacheck init" for a starter file.
# =============================================================================

`)

	for _, section := range docs {
		sb.WriteString("# -----------------------------------------------------------------------------\n")
		sb.WriteString(fmt.Sprintf("# [%s] - %s\n", section.Name, section.Description))
		sb.WriteString("# -----------------------------------------------------------------------------\n")
		sb.WriteString(fmt.Sprintf("[%s]\n", section.Name))

		for _, field := range section.Fields {
			sb.WriteString(fmt.Sprintf("# %s\n", field.Description))
			if len(field.ValidValues) > 0 {
				sb.WriteString(fmt.Sprintf("# Valid values: %s\n", strings.Join(field.ValidValues, ", ")))
			}
			if field.Default == "" {
				sb.WriteString(fmt.Sprintf("# %s = \n\n", field.Name))
			} else {
				sb.WriteString(fmt.Sprintf("%s = %s\n\n", field.Name, field.Default))
			}
		}
		sb.WriteString("\n")
	}

	sb.WriteString(groupsExample())

	return writeOut(outDir, "rotacheck.example.toml", sb.String())
}

// groupsExample lists the built-in alias table as a [tasks.groups] block
func groupsExample() string {
	groups := config.GetDefaults().Tasks.Groups
	aliases := make([]string, 0, len(groups))
	for a := range groups {
		aliases = append(aliases, a)
	}
	sort.Strings(aliases)

	var sb strings.Builder
	sb.WriteString("# -----------------------------------------------------------------------------\n")
	sb.WriteString("# [tasks.groups] - Aliases folded into one canonical task before aggregation\n")
	sb.WriteString("# -----------------------------------------------------------------------------\n")
	sb.WriteString("[tasks.groups]\n")
	for _, a := range aliases {
		sb.WriteString(fmt.Sprintf("%s = %s\n", strconv.Quote(a), strconv.Quote(groups[a])))
	}
	return sb.String()
}

func jsonType(fieldType string) map[string]interface{} {
	switch {
	case fieldType == "string":
		return map[string]interface{}{"type": "string"}
	case fieldType == "int":
		return map[string]interface{}{"type": "integer"}
	case fieldType == "bool":
		return map[string]interface{}{"type": "boolean"}
	case strings.HasPrefix(fieldType, "[]"):
		return map[string]interface{}{"type": "array", "items": jsonType(strings.TrimPrefix(fieldType, "[]"))}
	default:
		return map[string]interface{}{}
	}
}

func generateJSONSchema(outDir string, docs []SectionDoc) error {
	properties := map[string]interface{}{}
	schema := map[string]interface{}{
		"$schema":     "http://json-schema.org/draft-07/schema#",
		"title":       "rotacheck Configuration",
		"description": "Configuration schema for the rotacheck report annotator",
		"type":        "object",
		"properties":  properties,
	}

	for _, section := range docs {
		fields := map[string]interface{}{}
		for _, field := range section.Fields {
			fieldSchema := jsonType(field.Type)
			fieldSchema["description"] = field.Description
			if field.Default != "" {
				var def interface{}
				if err := json.Unmarshal([]byte(field.Default), &def); err == nil {
					fieldSchema["default"] = def
				}
			}
			if len(field.ValidValues) > 0 {
				fieldSchema["enum"] = field.ValidValues
			}
			fields[field.Name] = fieldSchema
		}

		if section.Name == "tasks" {
			fields["groups"] = map[string]interface{}{
				"type":                 "object",
				"description":          "Alias to canonical task name",
				"additionalProperties": map[string]interface{}{"type": "string"},
			}
		}

		properties[section.Name] = map[string]interface{}{
			"type":                 "object",
			"description":          section.Description,
			"properties":           fields,
			"additionalProperties": false,
		}
	}

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return err
	}
	return writeOut(outDir, "rotacheck.schema.json", string(data)+"\n")
}

func generateMarkdownDocs(outDir string, docs []SectionDoc) error {
	var sb strings.Builder

	sb.WriteString("# Configuration\n\n")
	sb.WriteString("rotacheck reads `" + config.DefaultConfigFile + "` from the working directory, or the file given with `--config`.\n")
	sb.WriteString("Every field is optional; missing fields take the defaults below.\n\n")
	sb.WriteString("The minute threshold is resolved in this order: `--threshold`, the stored preference (`rotacheck threshold set`), `defaults.threshold`.\n\n")

	for _, section := range docs {
		sb.WriteString("### `[" + section.Name + "]`\n\n")
		sb.WriteString(section.Description + "\n\n")
		sb.WriteString("| Field | Type | Default | Description |\n")
		sb.WriteString("|-------|------|---------|-------------|\n")

		for _, field := range section.Fields {
			defaultVal := field.Default
			if defaultVal == "" {
				defaultVal = "-"
			}
			if len(defaultVal) > 60 {
				defaultVal = defaultVal[:57] + "..."
			}
			desc := field.Description
			if len(field.ValidValues) > 0 {
				desc += fmt.Sprintf(" (valid: `%s`)", strings.Join(field.ValidValues, "`, `"))
			}
			sb.WriteString(fmt.Sprintf("| `%s` | %s | `%s` | %s |\n", field.Name, field.Type, defaultVal, desc))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("### `[tasks.groups]`\n\n")
	sb.WriteString("Maps an alias to its canonical task. Entries are merged over the built-in table,\n")
	sb.WriteString("then over every file matched by `tasks.aliasFiles`, in match order.\n")
	sb.WriteString("See `rotacheck.example.toml` for the built-in table.\n")

	return writeOut(outDir, "docs/configuration.md", sb.String())
}

func flagTable(sb *strings.Builder, rows []flagDoc) {
	sb.WriteString("| Flag | Description | Default |\n")
	sb.WriteString("|------|-------------|---------|\n")
	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("| `%s` | %s | %s |\n", r.Flag, r.Description, r.Default))
	}
	sb.WriteString("\n")
}

func generateCLIDocs(outDir string) error {
	var sb strings.Builder

	sb.WriteString("# CLI Reference\n\n")
	sb.WriteString("### Commands\n\n")
	sb.WriteString("| Command | Description |\n")
	sb.WriteString("|---------|-------------|\n")
	for _, c := range commands {
		sb.WriteString(fmt.Sprintf("| `%s` | %s |\n", c.Flag, c.Description))
	}
	sb.WriteString("\n")

	sb.WriteString("### Global Flags\n\n")
	flagTable(&sb, persistentFlags)

	sb.WriteString("### Run Flags\n\n")
	sb.WriteString("Accepted by `rotacheck` and `rotacheck run`. `--report` and `--browser` are mutually exclusive.\n\n")
	flagTable(&sb, runFlags)

	sb.WriteString("### Exit Codes\n\n")
	sb.WriteString("| Code | Meaning |\n")
	sb.WriteString("|------|---------|\n")
	sb.WriteString("| 0 | Run stored (rows may still be red unless `--fail-on-red`) |\n")
	sb.WriteString("| 1 | Usage or config error, report could not be read, or `--fail-on-red` with red rows |\n")
	sb.WriteString("\n")

	sb.WriteString("### Examples\n\n")
	sb.WriteString("```sh\n")
	sb.WriteString("rotacheck --report ~/Downloads/labor-report.html\n")
	sb.WriteString("rotacheck run --browser 'https://portal.example.com/reports/labor?date=2024-05-14' --control-url ws://127.0.0.1:9222/devtools/browser/abc\n")
	sb.WriteString("rotacheck threshold set 180\n")
	sb.WriteString("rotacheck serve --report report.html --addr 127.0.0.1:8080\n")
	sb.WriteString("```\n")

	return writeOut(outDir, "docs/cli-reference.md", sb.String())
}
