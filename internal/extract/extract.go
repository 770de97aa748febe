// Package extract parses form markup into the ordered field list the
// pipeline resolves. Radio and checkbox groups sharing a name collapse
// into one logical field carrying the group's options.
package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/autofill-agent/internal/types"
)

// ParseError represents a failure to parse form markup
type ParseError struct {
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("form parse error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("form parse error: %s", e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// skippedInputTypes are control types that never receive answers.
var skippedInputTypes = map[string]bool{
	"submit": true,
	"button": true,
	"reset":  true,
	"image":  true,
	"hidden": true,
}

// Fields extracts fillable form controls from HTML in document order.
func Fields(htmlContent string) ([]types.Field, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, &ParseError{Message: "failed to parse HTML", Cause: err}
	}

	var fields []types.Field
	// group name -> position in fields, for radio/checkbox collapsing
	groups := make(map[string]int)
	anonymous := 0

	doc.Find("input, select, textarea").Each(func(_ int, s *goquery.Selection) {
		tag := goquery.NodeName(s)
		controlType := controlTypeFor(tag, s)
		if controlType == "" {
			return
		}

		name := s.AttrOr("name", "")
		id := s.AttrOr("id", "")

		if controlType == types.TypeRadio || controlType == types.TypeCheckbox {
			if name != "" {
				if pos, ok := groups[name]; ok {
					fields[pos].Options = append(fields[pos].Options, optionLabel(doc, s))
					return
				}
			}
			f := types.Field{
				Selector: groupSelector(tag, controlType, name, id, &anonymous),
				Name:     name,
				ID:       id,
				Type:     controlType,
				Label:    groupLabel(doc, s),
				Options:  []string{optionLabel(doc, s)},
			}
			if name != "" {
				groups[name] = len(fields)
			}
			fields = append(fields, f)
			return
		}

		f := types.Field{
			Selector: selectorFor(tag, name, id, &anonymous),
			Name:     name,
			ID:       id,
			Type:     controlType,
			Label:    labelFor(doc, s),
		}
		if tag == "select" {
			f.Options = selectOptions(s)
		}
		fields = append(fields, f)
	})

	return fields, nil
}

// controlTypeFor maps a DOM node onto the pipeline's control type
// vocabulary, or empty for controls that are never filled.
func controlTypeFor(tag string, s *goquery.Selection) string {
	switch tag {
	case "textarea":
		return types.TypeTextarea
	case "select":
		if _, multiple := s.Attr("multiple"); multiple {
			return types.TypeMultiSelect
		}
		return types.TypeSelect
	case "input":
		t := strings.ToLower(s.AttrOr("type", "text"))
		if skippedInputTypes[t] {
			return ""
		}
		switch t {
		case "email":
			return types.TypeEmail
		case "tel":
			return types.TypeTel
		case "url":
			return types.TypeURL
		case "number":
			return types.TypeNumber
		case "date", "month":
			return types.TypeDate
		case "radio":
			return types.TypeRadio
		case "checkbox":
			return types.TypeCheckbox
		case "file":
			return types.TypeFile
		default:
			return types.TypeText
		}
	}
	return ""
}

// selectorFor synthesizes a stable CSS selector: id first, then name,
// then a positional fallback for anonymous controls.
func selectorFor(tag, name, id string, anonymous *int) string {
	if id != "" {
		return "#" + id
	}
	if name != "" {
		return fmt.Sprintf(`%s[name="%s"]`, tag, name)
	}
	*anonymous++
	return fmt.Sprintf("%s:nth-of-type(%d)", tag, *anonymous)
}

// groupSelector addresses a radio/checkbox group by shared name so one
// fill targets the whole group.
func groupSelector(tag, controlType, name, id string, anonymous *int) string {
	if name != "" {
		t := "radio"
		if controlType == types.TypeCheckbox {
			t = "checkbox"
		}
		return fmt.Sprintf(`input[type="%s"][name="%s"]`, t, name)
	}
	return selectorFor(tag, name, id, anonymous)
}

// labelFor resolves the human-readable question text for a control:
// explicit label element, wrapping label, aria-label, then placeholder.
func labelFor(doc *goquery.Document, s *goquery.Selection) string {
	if id := s.AttrOr("id", ""); id != "" {
		if text := cleanText(doc.Find(fmt.Sprintf(`label[for="%s"]`, id)).First().Text()); text != "" {
			return text
		}
	}
	if wrapped := s.Closest("label"); wrapped.Length() > 0 {
		if text := cleanText(wrapped.Text()); text != "" {
			return text
		}
	}
	if aria := s.AttrOr("aria-label", ""); aria != "" {
		return cleanText(aria)
	}
	return cleanText(s.AttrOr("placeholder", ""))
}

// groupLabel finds the question text for a radio/checkbox group: the
// enclosing fieldset legend, else the first option's own label stripped
// back to the group context via aria-label.
func groupLabel(doc *goquery.Document, s *goquery.Selection) string {
	if fieldset := s.Closest("fieldset"); fieldset.Length() > 0 {
		if text := cleanText(fieldset.Find("legend").First().Text()); text != "" {
			return text
		}
	}
	if aria := s.AttrOr("aria-label", ""); aria != "" {
		return cleanText(aria)
	}
	return labelFor(doc, s)
}

// optionLabel resolves the display text of one radio/checkbox choice:
// its own label, falling back to the value attribute.
func optionLabel(doc *goquery.Document, s *goquery.Selection) string {
	if text := labelFor(doc, s); text != "" {
		return text
	}
	return s.AttrOr("value", "")
}

// selectOptions collects option display texts, skipping empty
// placeholder entries.
func selectOptions(s *goquery.Selection) []string {
	var options []string
	s.Find("option").Each(func(_ int, opt *goquery.Selection) {
		text := cleanText(opt.Text())
		if text == "" {
			text = opt.AttrOr("value", "")
		}
		if text == "" {
			return
		}
		options = append(options, text)
	})
	return options
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
