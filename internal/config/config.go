// Package config holds the sorter configuration model and its persistence.
//
// The sorter rules live in a JSON document with a fixed external schema
// (German keys, see ParseDocument). The package validates documents into a
// strongly-typed SorterConfig, degrading invalid entries to defaults instead
// of failing, and persists edits back atomically. Application-level settings
// (directories, operation, watch mode) live in a separate YAML file, see
// settings.go.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"dateisort/internal/log"
)

// JSON document keys. The schema is a fixed external interface; the keys are
// kept verbatim so existing configuration files remain readable.
const (
	keyCategories         = "Kategorien"
	keyDefaultCategory    = "StandardKategorie"
	keyExcludedExtensions = "AusgeschlosseneEndungen"
	keyExcludedFolders    = "AusgeschlosseneOrdner"
)

// DefaultCategoryName is the sentinel bucket for unmapped extensions.
const DefaultCategoryName = "_Unsortiert"

// LogFunc receives human-readable warnings emitted while parsing or saving.
type LogFunc func(format string, args ...interface{})

// Category is one named bucket of file extensions. Order matters: the
// extension map is built in the order categories appear in the document.
type Category struct {
	Name       string
	Extensions []string
}

// SorterConfig is the validated in-memory sorter configuration.
//
// Extensions are stored lower-cased with their leading dot. ExcludedFolders
// holds lower-cased directory base names without path separators.
type SorterConfig struct {
	Categories         []Category
	DefaultCategory    string
	ExcludedExtensions map[string]struct{}
	ExcludedFolders    map[string]struct{}
}

// NewSorterConfig returns an empty but valid configuration.
func NewSorterConfig() *SorterConfig {
	return &SorterConfig{
		DefaultCategory:    DefaultCategoryName,
		ExcludedExtensions: make(map[string]struct{}),
		ExcludedFolders:    make(map[string]struct{}),
	}
}

// ParseDocument validates a raw JSON document into a SorterConfig.
//
// Unknown or missing keys fall back to defaults. Invalid entries are dropped
// with a warning through logf, never an error: a category whose extension
// list is not a list is ignored entirely, an extension not starting with "."
// or shorter than two characters is dropped, and a folder name that is empty
// after trimming is dropped. Only a document that is not valid JSON at the
// top level yields an error.
func ParseDocument(data []byte, logf LogFunc) (*SorterConfig, error) {
	if logf == nil {
		logf = log.Info
	}

	var doc struct {
		Categories         json.RawMessage `json:"Kategorien"`
		DefaultCategory    json.RawMessage `json:"StandardKategorie"`
		ExcludedExtensions json.RawMessage `json:"AusgeschlosseneEndungen"`
		ExcludedFolders    json.RawMessage `json:"AusgeschlosseneOrdner"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	cfg := NewSorterConfig()
	cfg.Categories = parseCategories(doc.Categories, logf)
	cfg.DefaultCategory = parseDefaultCategory(doc.DefaultCategory, logf)
	cfg.ExcludedExtensions = parseExcludedExtensions(doc.ExcludedExtensions, logf)
	cfg.ExcludedFolders = parseExcludedFolders(doc.ExcludedFolders, logf)

	warnDuplicateExtensions(cfg.Categories, logf)
	return cfg, nil
}

// parseCategories decodes the category object token by token so the document
// order of categories is preserved. Determinism of the extension map depends
// on this order.
func parseCategories(raw json.RawMessage, logf LogFunc) []Category {
	if len(raw) == 0 {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil || tok != json.Delim('{') {
		logf("warning: %q is not an object, ignoring categories", keyCategories)
		return nil
	}

	var categories []Category
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			logf("warning: truncated %q object: %v", keyCategories, err)
			return categories
		}
		name, _ := tok.(string)

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			logf("warning: truncated %q object: %v", keyCategories, err)
			return categories
		}

		if strings.TrimSpace(name) == "" {
			logf("warning: ignoring category with empty name")
			continue
		}

		var entries []interface{}
		if err := json.Unmarshal(value, &entries); err != nil {
			logf("warning: invalid extension list for category %q, ignoring", name)
			continue
		}

		var valid []string
		for _, entry := range entries {
			ext, ok := entry.(string)
			if !ok || !strings.HasPrefix(ext, ".") || len(ext) < 2 {
				logf("warning: ignoring invalid extension %v in category %q", entry, name)
				continue
			}
			valid = append(valid, strings.ToLower(ext))
		}

		// A category with no surviving extensions is omitted entirely.
		if len(valid) > 0 {
			categories = append(categories, Category{Name: name, Extensions: valid})
		}
	}
	return categories
}

func parseDefaultCategory(raw json.RawMessage, logf LogFunc) string {
	if len(raw) == 0 {
		return DefaultCategoryName
	}
	var name string
	if err := json.Unmarshal(raw, &name); err != nil || strings.TrimSpace(name) == "" {
		logf("warning: %q empty or invalid, using %q", keyDefaultCategory, DefaultCategoryName)
		return DefaultCategoryName
	}
	return name
}

func parseExcludedExtensions(raw json.RawMessage, logf LogFunc) map[string]struct{} {
	excluded := make(map[string]struct{})
	if len(raw) == 0 {
		return excluded
	}
	var entries []interface{}
	if err := json.Unmarshal(raw, &entries); err != nil {
		logf("warning: %q is not a list, ignoring", keyExcludedExtensions)
		return excluded
	}
	for _, entry := range entries {
		ext, ok := entry.(string)
		if !ok || !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			logf("warning: ignoring invalid excluded extension %v", entry)
			continue
		}
		excluded[strings.ToLower(ext)] = struct{}{}
	}
	return excluded
}

func parseExcludedFolders(raw json.RawMessage, logf LogFunc) map[string]struct{} {
	excluded := make(map[string]struct{})
	if len(raw) == 0 {
		return excluded
	}
	var entries []interface{}
	if err := json.Unmarshal(raw, &entries); err != nil {
		logf("warning: %q is not a list, ignoring", keyExcludedFolders)
		return excluded
	}
	for _, entry := range entries {
		folder, ok := entry.(string)
		if !ok || strings.TrimSpace(folder) == "" {
			logf("warning: ignoring invalid excluded folder %v", entry)
			continue
		}
		excluded[strings.ToLower(strings.TrimSpace(folder))] = struct{}{}
	}
	return excluded
}

func warnDuplicateExtensions(categories []Category, logf LogFunc) {
	seen := make(map[string]string)
	for _, cat := range categories {
		for _, ext := range cat.Extensions {
			if prev, ok := seen[ext]; ok && prev != cat.Name {
				logf("warning: extension %s declared in %q and %q, %q wins", ext, prev, cat.Name, cat.Name)
			}
			seen[ext] = cat.Name
		}
	}
}

// categoryList marshals categories as a JSON object in stored order.
type categoryList []Category

func (c categoryList) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, cat := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(cat.Name)
		if err != nil {
			return nil, err
		}
		exts := cat.Extensions
		if exts == nil {
			exts = []string{}
		}
		list, err := json.Marshal(exts)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(list)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalDocument serializes the configuration to the external JSON schema:
// categories in stored order, both exclusion sets sorted for deterministic
// file output, pretty-printed for human editing.
func MarshalDocument(cfg *SorterConfig) ([]byte, error) {
	doc := struct {
		Categories         categoryList `json:"Kategorien"`
		DefaultCategory    string       `json:"StandardKategorie"`
		ExcludedExtensions []string     `json:"AusgeschlosseneEndungen"`
		ExcludedFolders    []string     `json:"AusgeschlosseneOrdner"`
	}{
		Categories:         categoryList(cfg.Categories),
		DefaultCategory:    cfg.DefaultCategory,
		ExcludedExtensions: sortedKeys(cfg.ExcludedExtensions),
		ExcludedFolders:    sortedKeys(cfg.ExcludedFolders),
	}
	return json.MarshalIndent(doc, "", "    ")
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ExtensionMap flattens the categories into an extension-to-category lookup.
// Categories are visited in stored order and later declarations overwrite
// earlier ones, so repeated builds of the same configuration always yield
// the same mapping.
func (c *SorterConfig) ExtensionMap() map[string]string {
	m := make(map[string]string)
	for _, cat := range c.Categories {
		for _, ext := range cat.Extensions {
			m[strings.ToLower(ext)] = cat.Name
		}
	}
	return m
}

// Clone returns a deep copy. Settings editors work on a copy and only the
// store commits a new version to disk.
func (c *SorterConfig) Clone() *SorterConfig {
	clone := NewSorterConfig()
	clone.DefaultCategory = c.DefaultCategory
	clone.Categories = make([]Category, len(c.Categories))
	for i, cat := range c.Categories {
		clone.Categories[i] = Category{
			Name:       cat.Name,
			Extensions: append([]string(nil), cat.Extensions...),
		}
	}
	for ext := range c.ExcludedExtensions {
		clone.ExcludedExtensions[ext] = struct{}{}
	}
	for folder := range c.ExcludedFolders {
		clone.ExcludedFolders[folder] = struct{}{}
	}
	return clone
}

// CategoryNames returns the category names in stored order.
func (c *SorterConfig) CategoryNames() []string {
	names := make([]string, len(c.Categories))
	for i, cat := range c.Categories {
		names[i] = cat.Name
	}
	return names
}

// FindCategory returns the index of the named category, or -1.
func (c *SorterConfig) FindCategory(name string) int {
	for i, cat := range c.Categories {
		if cat.Name == name {
			return i
		}
	}
	return -1
}

// AddCategory appends an empty category. Adding an existing name is a no-op.
func (c *SorterConfig) AddCategory(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("category name must not be empty")
	}
	if c.FindCategory(name) >= 0 {
		return nil
	}
	c.Categories = append(c.Categories, Category{Name: name})
	return nil
}

// RemoveCategory drops the named category and its extensions.
func (c *SorterConfig) RemoveCategory(name string) error {
	i := c.FindCategory(name)
	if i < 0 {
		return fmt.Errorf("unknown category %q", name)
	}
	c.Categories = append(c.Categories[:i], c.Categories[i+1:]...)
	return nil
}

// AddExtension attaches an extension to the named category, creating the
// category if needed.
func (c *SorterConfig) AddExtension(category, ext string) error {
	normalized, err := NormalizeExtension(ext)
	if err != nil {
		return err
	}
	if err := c.AddCategory(category); err != nil {
		return err
	}
	i := c.FindCategory(strings.TrimSpace(category))
	for _, existing := range c.Categories[i].Extensions {
		if existing == normalized {
			return nil
		}
	}
	c.Categories[i].Extensions = append(c.Categories[i].Extensions, normalized)
	return nil
}

// RemoveExtension detaches an extension from the named category.
func (c *SorterConfig) RemoveExtension(category, ext string) error {
	normalized, err := NormalizeExtension(ext)
	if err != nil {
		return err
	}
	i := c.FindCategory(category)
	if i < 0 {
		return fmt.Errorf("unknown category %q", category)
	}
	for j, existing := range c.Categories[i].Extensions {
		if existing == normalized {
			c.Categories[i].Extensions = append(c.Categories[i].Extensions[:j], c.Categories[i].Extensions[j+1:]...)
			return nil
		}
	}
	return fmt.Errorf("extension %s not in category %q", normalized, category)
}

// AddExcludedExtension adds an extension to the exclusion set.
func (c *SorterConfig) AddExcludedExtension(ext string) error {
	normalized, err := NormalizeExtension(ext)
	if err != nil {
		return err
	}
	c.ExcludedExtensions[normalized] = struct{}{}
	return nil
}

// RemoveExcludedExtension removes an extension from the exclusion set.
func (c *SorterConfig) RemoveExcludedExtension(ext string) error {
	normalized, err := NormalizeExtension(ext)
	if err != nil {
		return err
	}
	delete(c.ExcludedExtensions, normalized)
	return nil
}

// AddExcludedFolder adds a folder base name to the exclusion set.
func (c *SorterConfig) AddExcludedFolder(name string) error {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return fmt.Errorf("folder name must not be empty")
	}
	if strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("folder exclusion %q must be a base name without path separators", name)
	}
	c.ExcludedFolders[name] = struct{}{}
	return nil
}

// RemoveExcludedFolder removes a folder base name from the exclusion set.
func (c *SorterConfig) RemoveExcludedFolder(name string) {
	delete(c.ExcludedFolders, strings.ToLower(strings.TrimSpace(name)))
}

// SetDefaultCategory replaces the fallback bucket name. Blank input falls
// back to the sentinel.
func (c *SorterConfig) SetDefaultCategory(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultCategoryName
	}
	c.DefaultCategory = name
}

// ExcludedExtensionList returns the sorted extension exclusions.
func (c *SorterConfig) ExcludedExtensionList() []string {
	return sortedKeys(c.ExcludedExtensions)
}

// ExcludedFolderList returns the sorted folder exclusions.
func (c *SorterConfig) ExcludedFolderList() []string {
	return sortedKeys(c.ExcludedFolders)
}

// NormalizeExtension lower-cases an extension and checks the schema rules:
// leading dot, at least one character after it.
func NormalizeExtension(ext string) (string, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if len(ext) < 2 {
		return "", fmt.Errorf("invalid extension %q", ext)
	}
	return ext, nil
}
