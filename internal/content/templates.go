// Package content renders the campaign email from Liquid templates.
package content

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Templates holds the Liquid sources for one campaign email.
type Templates struct {
	Subject string `yaml:"subject"`
	HTML    string `yaml:"html"`
	Text    string `yaml:"text"`
}

const defaultSubject = `{{ first_name | default: "Hi there" }}, your next road trip is waiting`

const defaultHTML = `<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #222;">
  <p>Hi {{ first_name | default: "there" | escape }},</p>
  <p>New cars were listed near you this week. Book before the weekend and pick the one you like best.</p>
  <p><a href="{{ click_url }}" style="background:#0a7cff;color:#fff;padding:10px 18px;text-decoration:none;border-radius:4px;">Browse cars</a></p>
  <p>See you on the road,<br>{{ sender_name | escape }}</p>
  <img src="{{ open_url }}" width="1" height="1" alt="" style="display:none;">
</body>
</html>
`

const defaultText = `Hi {{ first_name | default: "there" }},

New cars were listed near you this week. Book before the weekend and pick the one you like best.

Browse cars: {{ click_url }}

See you on the road,
{{ sender_name }}
`

func DefaultTemplates() Templates {
	return Templates{
		Subject: defaultSubject,
		HTML:    defaultHTML,
		Text:    defaultText,
	}
}

// LoadTemplates reads a YAML template file. Fields missing from the file keep
// their default.
func LoadTemplates(path string) (Templates, error) {
	t := DefaultTemplates()
	if path == "" {
		return t, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Templates{}, fmt.Errorf("read template file %s: %w", path, err)
	}

	var override Templates
	if err := yaml.Unmarshal(data, &override); err != nil {
		return Templates{}, fmt.Errorf("parse template file %s: %w", path, err)
	}

	if override.Subject != "" {
		t.Subject = override.Subject
	}
	if override.HTML != "" {
		t.HTML = override.HTML
	}
	if override.Text != "" {
		t.Text = override.Text
	}
	return t, nil
}
