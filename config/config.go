// Package config reads and writes a git config file ("<gitdir>/config"),
// the subset checkout needs: a flat "[section]"/"[section \"sub\"]"
// key-value store plus a typed Branch view for branch.<name>.remote
// and branch.<name>.merge.
package config

import (
	"bytes"
	"fmt"

	"github.com/go-git/gcfg"
)

// Branch is the tracking information for a local branch, matching
// spec.md §4.7's remote-tracking bootstrap: branch.<name>.remote and
// branch.<name>.merge.
type Branch struct {
	Name   string
	Remote string
	Merge  string
}

// option is a single "key = value" pair inside a section/subsection.
type option struct {
	key, value string
}

type section struct {
	name    string
	sub     string
	options []option
}

// Config is the parsed contents of a git config file, plus the typed
// Branches view checkout reads and writes.
type Config struct {
	Sections []*section
	Branches map[string]*Branch
}

// NewConfig returns an empty Config.
func NewConfig() *Config {
	return &Config{Branches: make(map[string]*Branch)}
}

func (c *Config) section(name, sub string) *section {
	for _, s := range c.Sections {
		if s.name == name && s.sub == sub {
			return s
		}
	}

	s := &section{name: name, sub: sub}
	c.Sections = append(c.Sections, s)
	return s
}

func (s *section) set(key, value string) {
	for i, o := range s.options {
		if o.key == key {
			s.options[i].value = value
			return
		}
	}

	s.options = append(s.options, option{key, value})
}

// Unmarshal decodes b, a byte slice holding the INI-ish git config
// format, via gcfg's low-level callback reader — the same entry point
// the teacher's plumbing/format/config.Decoder uses internally
// (gcfg.ReadWithCallback), rather than gcfg's struct-tag unmarshalling,
// since section names ("branch", a remote's name, ...) are dynamic.
func Unmarshal(b []byte) (*Config, error) {
	c := NewConfig()

	cb := func(s, ss, k, v string, _ bool) error {
		if k == "" {
			c.section(s, ss)
			return nil
		}

		c.section(s, ss).set(k, v)

		if s == "branch" && ss != "" {
			br := c.Branches[ss]
			if br == nil {
				br = &Branch{Name: ss}
				c.Branches[ss] = br
			}

			switch k {
			case "remote":
				br.Remote = v
			case "merge":
				br.Merge = v
			}
		}

		return nil
	}

	if err := gcfg.ReadWithCallback(bytes.NewReader(b), cb); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return c, nil
}

// SetBranch upserts a branch stanza (creating the section if needed)
// and keeps the typed Branches map in sync.
func (c *Config) SetBranch(b *Branch) {
	c.Branches[b.Name] = b

	s := c.section("branch", b.Name)
	if b.Remote != "" {
		s.set("remote", b.Remote)
	}
	if b.Merge != "" {
		s.set("merge", b.Merge)
	}
}

// Marshal renders the config back to its on-disk text form. Sections
// are written in the order they were first touched.
func (c *Config) Marshal() []byte {
	var buf bytes.Buffer

	for _, s := range c.Sections {
		if len(s.options) == 0 {
			continue
		}

		if s.sub == "" {
			fmt.Fprintf(&buf, "[%s]\n", s.name)
		} else {
			fmt.Fprintf(&buf, "[%s %q]\n", s.name, s.sub)
		}

		for _, o := range s.options {
			fmt.Fprintf(&buf, "\t%s = %s\n", o.key, o.value)
		}
	}

	return buf.Bytes()
}
