package source

import (
	"net/url"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Source describes one upstream stats API. Sources are tried in list
// order; the first one is the most trusted.
type Source struct {
	Name    string `yaml:"name"`
	BaseURL string `yaml:"base_url"`
	Path    string `yaml:"path"`   // contains a {username} placeholder
	Parser  string `yaml:"parser"` // alfa, stats or faisal
}

// URL builds the request URL for a username, path-escaping it.
func (s Source) URL(username string) string {
	p := strings.ReplaceAll(s.Path, "{username}", url.PathEscape(username))
	return strings.TrimRight(s.BaseURL, "/") + p
}

// Host returns the hostname of the source's base URL, used to key
// per-host rate limits and connection caps.
func (s Source) Host() string {
	u, err := url.Parse(s.BaseURL)
	if err != nil {
		return s.BaseURL
	}
	return u.Host
}

// Defaults is the built-in priority-ordered source list. The two alfa
// deployments expose the same API on different free hosts, so one being
// asleep or rate-limited does not take out the other.
func Defaults() []Source {
	return []Source{
		{Name: "alfa-vercel", BaseURL: "https://alfa-leetcode-api.vercel.app", Path: "/{username}/solved", Parser: "alfa"},
		{Name: "alfa-render", BaseURL: "https://alfa-leetcode-api.onrender.com", Path: "/{username}/solved", Parser: "alfa"},
		{Name: "faisal", BaseURL: "https://leetcode-api-faisalshohag.vercel.app", Path: "/{username}", Parser: "faisal"},
		{Name: "stats-heroku", BaseURL: "https://leetcode-stats-api.herokuapp.com", Path: "/{username}", Parser: "stats"},
	}
}

// Load reads a source list from a YAML file, replacing the built-in
// list. An empty path returns Defaults.
func Load(path string) ([]Source, error) {
	if path == "" {
		return Defaults(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "source: read %s", path)
	}

	var wrapper struct {
		Sources []Source `yaml:"sources"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrapf(err, "source: parse %s", path)
	}
	if len(wrapper.Sources) == 0 {
		return nil, eris.Errorf("source: %s defines no sources", path)
	}

	for i, s := range wrapper.Sources {
		if s.Name == "" || s.BaseURL == "" || s.Path == "" {
			return nil, eris.Errorf("source: entry %d is missing name, base_url or path", i)
		}
		if !strings.Contains(s.Path, "{username}") {
			return nil, eris.Errorf("source: %s path %q has no {username} placeholder", s.Name, s.Path)
		}
		if !KnownParser(s.Parser) {
			return nil, eris.Errorf("source: %s names unknown parser %q", s.Name, s.Parser)
		}
	}
	return wrapper.Sources, nil
}
