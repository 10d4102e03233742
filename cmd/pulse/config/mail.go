package config

import (
	"github.com/fatih/structs"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/devspacehq/pulse"
	"github.com/devspacehq/pulse/internal/utils"
)

// mailConf configures the optional SMTP transport. Leaving host empty
// disables email entirely; notifications then stay in-app only.
type mailConf struct {
	Host      string                      `yaml:"host"`
	Port      int                         `yaml:"port"`
	Username  string                      `yaml:"username"`
	Password  string                      `yaml:"password"`
	From      string                      `yaml:"from"`
	Templates map[string]mailTemplateConf `yaml:"templates"`
}

// Enabled reports whether an SMTP transport is configured.
func (c mailConf) Enabled() bool {
	return c.Host != ""
}

// mailTemplateConf holds the templates of one mail type. Any additional keys
// under the template are collected as extra template fields and handed to
// the dispatcher.
type mailTemplateConf struct {
	Subject string         `yaml:"subject"`
	Body    string         `yaml:"body"`
	Extras  map[string]any `yaml:"-"`
}

// UnmarshalYAML implements the yaml.Unmarshaler interface
func (t *mailTemplateConf) UnmarshalYAML(node *yaml.Node) error {
	type plainTemplate struct {
		Subject string `yaml:"subject"`
		Body    string `yaml:"body"`
	}
	var p plainTemplate
	if err := node.Decode(&p); err != nil {
		return errors.WithStack(err)
	}
	extra := make(map[string]interface{})
	if err := node.Decode(&extra); err != nil {
		return errors.WithStack(err)
	}
	s := structs.New(p)
	for _, tag := range utils.FieldTagNames(s.Fields(), "yaml") {
		delete(extra, tag)
	}
	if len(extra) == 0 {
		extra = nil
	}
	t.Subject = p.Subject
	t.Body = p.Body
	t.Extras = extra
	return nil
}

func (c *mailConf) validate() error {
	if !c.Enabled() {
		return nil
	}
	if c.From == "" {
		return errors.New("error in mail conf: from must be specified")
	}
	for name, t := range defaultMailConf.Templates {
		if _, ok := c.Templates[name]; !ok {
			if c.Templates == nil {
				c.Templates = make(map[string]mailTemplateConf)
			}
			c.Templates[name] = t
		}
	}
	return nil
}

// TemplateExtras merges the extra fields of all configured templates.
func (c mailConf) TemplateExtras() map[string]any {
	var extras map[string]any
	for _, t := range c.Templates {
		extras = utils.MergeMaps(true, extras, t.Extras)
	}
	return extras
}

var defaultMailConf = mailConf{
	Port: 587,
	Templates: map[string]mailTemplateConf{
		pulse.EmailTemplateCommit: {
			Subject: "New commit in {{.subject_name}}",
			Body: "{{.commit_author}} pushed a new commit to {{.subject_name}}:\n\n" +
				"{{.summary}}\n\n{{.commit_url}}\n",
		},
		pulse.EmailTemplateStale: {
			Subject: "Time to post an update on {{.subject_name}}",
			Body: "{{.subject_name}} has had no journal activity for a while.\n" +
				"Post an update to keep your followers in the loop.\n",
		},
	},
}
