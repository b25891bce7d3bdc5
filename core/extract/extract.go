// Package extract converts FeatureIDE-style feature model XML into an ordered
// sequence of (name, parent) node pairs for coverage scoring.
package extract

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"

	"github.com/siherrmann/fmcover/model"
)

// FormatError is returned when the document violates the minimal structural
// contract of a feature model file
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid feature model: %v", e.Reason)
}

// element is a generic XML element keeping the name attribute and all child
// elements in document order
type element struct {
	XMLName  xml.Name
	Name     string    `xml:"name,attr"`
	Children []element `xml:",any"`
}

type structElement struct {
	Children []element `xml:",any"`
}

type featureModel struct {
	XMLName xml.Name       `xml:"featureModel"`
	Struct  *structElement `xml:"struct"`
}

// groupTags are the element tags that carry named feature model nodes.
// Unnamed or unknown wrappers are transparent for parent linkage.
var groupTags = map[string]bool{
	"and":     true,
	"or":      true,
	"alt":     true,
	"feature": true,
}

// Extract reads a feature model document and returns all named nodes with
// their nearest named ancestor, depth-first in document order.
func Extract(r io.Reader) ([]model.Node, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read feature model: %w", err)
	}

	var doc featureModel
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse feature model: %w", err)
	}

	if doc.Struct == nil {
		return nil, &FormatError{Reason: "<struct> not found"}
	}

	var nodes []model.Node
	for _, child := range doc.Struct.Children {
		walk(child, "", &nodes)
	}

	return nodes, nil
}

// ExtractFile extracts nodes from a feature model file on disk
func ExtractFile(path string) ([]model.Node, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open feature model %v: %w", path, err)
	}
	defer file.Close()

	return Extract(file)
}

func walk(el element, parent string, nodes *[]model.Node) {
	current := parent
	if groupTags[el.XMLName.Local] && el.Name != "" {
		*nodes = append(*nodes, model.Node{Name: el.Name, Parent: parent})
		current = el.Name
	}

	for _, child := range el.Children {
		walk(child, current, nodes)
	}
}
