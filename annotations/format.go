package annotations

import (
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"brainbox/models"
)

// Formatter Renders a bound value for display
type Formatter func(value gjson.Result) string

// Parser Turns edited cell text into the value written back to the record
type Parser func(text string) (interface{}, error)

var formatters = map[string]Formatter{
	"text": func(value gjson.Result) string {
		return value.String()
	},
	"date": func(value gjson.Result) string {
		t, err := time.Parse(time.RFC3339Nano, value.String())
		if err != nil {
			return value.String()
		}
		return t.UTC().Format("2006-01-02 15:04")
	},
	"upper": func(value gjson.Result) string {
		return strings.ToUpper(value.String())
	},
}

var parsers = map[string]Parser{
	"text": func(text string) (interface{}, error) {
		return strings.TrimSpace(text), nil
	},
	"access": func(text string) (interface{}, error) {
		text = strings.TrimSpace(text)
		for _, access := range models.Accesses {
			if strings.EqualFold(text, string(access)) {
				return string(access), nil
			}
		}
		return nil, fmt.Errorf("unknown access %q", text)
	},
	"type": func(text string) (interface{}, error) {
		text = strings.TrimSpace(text)
		for _, kind := range models.AnnotationTypes {
			if strings.EqualFold(text, string(kind)) {
				return string(kind), nil
			}
		}
		return nil, fmt.Errorf("unknown annotation type %q", text)
	},
}

// formatter Look up a formatter by name, plain text when unknown
func formatter(name string) Formatter {
	if f, ok := formatters[name]; ok {
		return f
	}
	return formatters["text"]
}

// parser Look up a parser by name, plain text when unknown
func parser(name string) Parser {
	if p, ok := parsers[name]; ok {
		return p
	}
	return parsers["text"]
}
