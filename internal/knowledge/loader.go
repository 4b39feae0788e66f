package knowledge

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults/*.yaml
var defaultsFS embed.FS

var packExtensions = []string{".yaml", ".yml", ".json"}

// LoadEmbedded returns the built-in knowledge set.
func LoadEmbedded() (*Packs, error) {
	sub, err := fs.Sub(defaultsFS, "defaults")
	if err != nil {
		return nil, fmt.Errorf("open embedded packs: %w", err)
	}
	return LoadFS(sub)
}

// LoadDir reads every pack document from a directory on disk.
func LoadDir(dir string) (*Packs, error) {
	return LoadFS(os.DirFS(dir))
}

// LoadFS reads every pack document from fsys. Each document may be yaml or
// json; the first existing extension in .yaml, .yml, .json order is used.
func LoadFS(fsys fs.FS) (*Packs, error) {
	docs, err := ReadDocuments(fsys)
	if err != nil {
		return nil, err
	}
	return FromDocuments(docs)
}

// ReadDocuments returns the raw body of every pack in fsys, keyed by pack
// name, without decoding them.
func ReadDocuments(fsys fs.FS) (map[string][]byte, error) {
	docs := make(map[string][]byte, len(PackNames))
	for _, name := range PackNames {
		raw, err := readPack(fsys, name)
		if err != nil {
			return nil, err
		}
		docs[name] = raw
	}
	return docs, nil
}

func readPack(fsys fs.FS, name string) ([]byte, error) {
	for _, ext := range packExtensions {
		raw, err := fs.ReadFile(fsys, name+ext)
		if err == nil {
			return raw, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read pack %s%s: %w", name, ext, err)
		}
	}
	return nil, fmt.Errorf("read pack %s: %w", name, fs.ErrNotExist)
}

// FromDocuments decodes and validates a complete set of raw pack documents
// keyed by pack name.
func FromDocuments(docs map[string][]byte) (*Packs, error) {
	var packs Packs
	for _, name := range PackNames {
		raw, ok := docs[name]
		if !ok {
			return nil, fmt.Errorf("%w: missing document %s", ErrInvalidPack, name)
		}
		if err := Decode(name, raw, &packs); err != nil {
			return nil, err
		}
	}
	if err := packs.Validate(); err != nil {
		return nil, err
	}
	return &packs, nil
}

// Decode parses one pack document into the matching field of packs.
func Decode(name string, raw []byte, packs *Packs) error {
	var err error
	switch name {
	case PackRules:
		packs.Rules, err = decodeRules(raw)
	case PackCertifications:
		err = yaml.Unmarshal(raw, &packs.Certifications)
	case PackCategories:
		packs.Categories, err = decodeCategories(raw)
	case PackCarbon:
		err = yaml.Unmarshal(raw, &packs.Carbon)
	default:
		return fmt.Errorf("%w: unknown document %s", ErrInvalidPack, name)
	}
	if err != nil {
		return fmt.Errorf("decode pack %s: %w", name, err)
	}
	return nil
}

// decodeRules accepts either a bare list of rules or a {rules: [...]} wrapper.
func decodeRules(raw []byte) ([]Rule, error) {
	var list []Rule
	if err := yaml.Unmarshal(raw, &list); err == nil {
		return list, nil
	}

	var wrapped struct {
		Rules []Rule `yaml:"rules"`
	}
	if err := yaml.Unmarshal(raw, &wrapped); err != nil {
		return nil, err
	}
	return wrapped.Rules, nil
}

// keyedCategoryModel is the keyed category layout: detection hints and
// profiles as maps from category id, with optional display labels.
type keyedCategoryModel struct {
	Hints    yaml.Node          `yaml:"category_detection_hints"`
	Profiles map[string]Profile `yaml:"profiles"`
	Labels   map[string]string  `yaml:"labels"`
}

// decodeCategories accepts either the ordered {categories: [...]} list or the
// keyed layout. In the keyed layout the hint map's key order is the category
// order, and profiles without hints follow in their own key order.
func decodeCategories(raw []byte) (CategoryModel, error) {
	var model CategoryModel
	if err := yaml.Unmarshal(raw, &model); err != nil {
		return CategoryModel{}, err
	}
	if len(model.Categories) > 0 {
		return model, nil
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return CategoryModel{}, err
	}
	var keyed keyedCategoryModel
	if err := yaml.Unmarshal(raw, &keyed); err != nil {
		return CategoryModel{}, err
	}
	if keyed.Hints.Kind == 0 && len(keyed.Profiles) == 0 {
		return model, nil
	}
	if keyed.Hints.Kind != 0 && keyed.Hints.Kind != yaml.MappingNode {
		return CategoryModel{}, fmt.Errorf("category_detection_hints must be a mapping, line %d", keyed.Hints.Line)
	}

	seen := make(map[string]bool)
	add := func(id string, keywords []string) {
		seen[id] = true
		label := keyed.Labels[id]
		if label == "" {
			label = id
		}
		model.Categories = append(model.Categories, Category{
			ID:       id,
			Label:    label,
			Keywords: keywords,
			Profile:  keyed.Profiles[id],
		})
	}

	for i := 0; i+1 < len(keyed.Hints.Content); i += 2 {
		var keywords []string
		if err := keyed.Hints.Content[i+1].Decode(&keywords); err != nil {
			return CategoryModel{}, fmt.Errorf("hints for %s: %w", keyed.Hints.Content[i].Value, err)
		}
		add(keyed.Hints.Content[i].Value, keywords)
	}
	for _, id := range mappingKeys(&doc, "profiles") {
		if !seen[id] {
			add(id, nil)
		}
	}
	return model, nil
}

// mappingKeys returns the keys of the top-level mapping named field, in
// document order.
func mappingKeys(doc *yaml.Node, field string) []string {
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value != field || root.Content[i+1].Kind != yaml.MappingNode {
			continue
		}
		var keys []string
		node := root.Content[i+1]
		for j := 0; j+1 < len(node.Content); j += 2 {
			keys = append(keys, node.Content[j].Value)
		}
		return keys
	}
	return nil
}
