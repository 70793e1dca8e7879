package outline

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Props are the properties carried by one node of the nested source.
type Props struct {
	Title string   `yaml:"title"`
	Tags  []string `yaml:"tags"`
	Level int      `yaml:"level"`
}

// Source is the externally parsed outline in its nested form:
//
//	[type, props, child, child, ...]
//
// where every child has the same shape. This is what org-mode parsers emit
// when serialized to JSON; YAML flow or block sequences work as well.
type Source struct {
	Type     string
	Props    Props
	Children []Source
}

// UnmarshalYAML decodes the [type, props, ...children] sequence form.
func (s *Source) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.SequenceNode {
		return fmt.Errorf("outline: line %d: node must be a sequence", value.Line)
	}
	if len(value.Content) == 0 {
		return fmt.Errorf("outline: line %d: node is empty", value.Line)
	}

	if err := value.Content[0].Decode(&s.Type); err != nil {
		return fmt.Errorf("outline: line %d: node type: %w", value.Line, err)
	}

	if len(value.Content) > 1 {
		props := value.Content[1]
		// Root nodes may carry a null or empty props slot.
		if props.Kind == yaml.MappingNode {
			if err := props.Decode(&s.Props); err != nil {
				return fmt.Errorf("outline: line %d: props: %w", props.Line, err)
			}
		}
	}

	if len(value.Content) > 2 {
		s.Children = make([]Source, 0, len(value.Content)-2)
		for _, c := range value.Content[2:] {
			var child Source
			if err := c.Decode(&child); err != nil {
				return err
			}
			s.Children = append(s.Children, child)
		}
	}
	return nil
}

// Decode reads one outline source document (JSON or YAML) from r.
func Decode(r io.Reader) (Source, error) {
	var src Source
	if err := yaml.NewDecoder(r).Decode(&src); err != nil {
		if errors.Is(err, io.EOF) {
			return Source{}, errors.New("outline: empty document")
		}
		return Source{}, err
	}
	return src, nil
}

// LoadFile reads an outline source from path.
func LoadFile(path string) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return Source{}, err
	}
	defer f.Close()

	src, err := Decode(f)
	if err != nil {
		return Source{}, fmt.Errorf("%s: %w", path, err)
	}
	return src, nil
}
