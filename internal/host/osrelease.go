package host

import (
	"codeberg.org/mutker/sysreport/internal/errors"
	"gopkg.in/ini.v1"
)

// OSRelease holds the identification fields of /etc/os-release.
type OSRelease struct {
	ID         string
	Name       string
	PrettyName string
	Version    string
	VersionID  string
	Variant    string
}

// Edition returns the most specific edition label available.
func (r OSRelease) Edition() string {
	switch {
	case r.Variant != "":
		return r.Variant
	case r.PrettyName != "":
		return r.PrettyName
	case r.Name != "":
		return r.Name
	}

	return r.ID
}

func (p *Provider) OSRelease() (OSRelease, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:       true,
		UnescapeValueDoubleQuotes: true,
	}, p.etc("os-release"))
	if err != nil {
		return OSRelease{}, errors.New().Wrap(ErrSensorUnavailable, err)
	}

	sec := cfg.Section(ini.DefaultSection)
	return OSRelease{
		ID:         unquote(sec.Key("ID").String()),
		Name:       unquote(sec.Key("NAME").String()),
		PrettyName: unquote(sec.Key("PRETTY_NAME").String()),
		Version:    unquote(sec.Key("VERSION").String()),
		VersionID:  unquote(sec.Key("VERSION_ID").String()),
		Variant:    unquote(sec.Key("VARIANT").String()),
	}, nil
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}

	return s
}
