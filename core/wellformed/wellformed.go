// Package wellformed checks feature model XML files against the structural
// rules the coverage engine assumes but does not enforce.
package wellformed

import (
	"encoding/xml"
	"fmt"
	"os"
	"regexp"
	"strings"
)

var nameRegexp = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

// Result represents the outcome of a well-formedness check
type Result struct {
	OK     bool     `json:"ok"`
	Errors []string `json:"errors,omitempty"`
}

type element struct {
	XMLName  xml.Name
	Name     string    `xml:"name,attr"`
	Children []element `xml:",any"`
}

// Validate checks the raw document content. It collects all violations
// instead of stopping at the first one.
func Validate(data []byte) *Result {
	var errs []string

	text := string(data)
	if !strings.HasPrefix(strings.TrimLeft(text, " \t\r\n"), "<?xml") {
		errs = append(errs, "missing or misplaced XML declaration before content")
	}
	if !strings.HasSuffix(strings.TrimRight(text, " \t\r\n"), "</featureModel>") {
		errs = append(errs, "content found after closing </featureModel> tag")
	}

	var root element
	if err := xml.Unmarshal(data, &root); err != nil {
		errs = append(errs, fmt.Sprintf("XML parse error: %v", err))
		return &Result{OK: false, Errors: errs}
	}

	if root.XMLName.Local != "featureModel" {
		errs = append(errs, fmt.Sprintf("root tag is '%v', expected 'featureModel'", root.XMLName.Local))
	}

	var structEl *element
	for i := range root.Children {
		if root.Children[i].XMLName.Local == "struct" {
			structEl = &root.Children[i]
			break
		}
	}
	if structEl == nil {
		errs = append(errs, "missing <struct> element")
	}

	// Name syntax and duplicate checks over all named nodes
	var names []string
	if structEl != nil {
		for _, child := range structEl.Children {
			collectNames(child, &names)
		}
	}

	for _, name := range names {
		if !nameRegexp.MatchString(name) {
			errs = append(errs, fmt.Sprintf("invalid feature/group name '%v' (must match %v)", name, nameRegexp.String()))
		}
	}

	seen := make(map[string]bool)
	for _, name := range names {
		if seen[name] {
			errs = append(errs, fmt.Sprintf("duplicate feature/group name '%v'", name))
		}
		seen[name] = true
	}

	return &Result{OK: len(errs) == 0, Errors: errs}
}

// ValidateFile checks a feature model file on disk
func ValidateFile(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read feature model %v: %w", path, err)
	}
	return Validate(data), nil
}

func collectNames(el element, names *[]string) {
	if el.Name != "" {
		*names = append(*names, el.Name)
	}
	for _, child := range el.Children {
		collectNames(child, names)
	}
}
