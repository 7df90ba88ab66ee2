package scheduler

import (
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// League is one entry of the weekly sweep.
type League struct {
	Name     string `yaml:"name"`
	URL      string `yaml:"url"`
	MaxTeams int    `yaml:"max_teams"`
}

type leaguesFile struct {
	Leagues []League `yaml:"leagues"`
}

// DefaultLeagues is the sweep list used when no leagues file is configured.
func DefaultLeagues() []League {
	return []League{
		{Name: "NA3HL", URL: "https://www.eliteprospects.com/league/na3hl"},
		{Name: "USPHL Premier", URL: "https://www.eliteprospects.com/league/usphl-premier"},
		{Name: "USPHL Elite", URL: "https://www.eliteprospects.com/league/usphl-elite"},
		{Name: "EHL", URL: "https://www.eliteprospects.com/league/ehl"},
		{Name: "EHLP", URL: "https://www.eliteprospects.com/league/ehlp"},
		{Name: "NCDC", URL: "https://www.eliteprospects.com/league/ncdc"},
		{Name: "NAHL", URL: "https://www.eliteprospects.com/league/nahl"},
	}
}

// LoadLeagues reads a YAML leagues file. An empty path yields DefaultLeagues.
//
//	leagues:
//	  - name: NA3HL
//	    url: https://www.eliteprospects.com/league/na3hl
//	    max_teams: 4
func LoadLeagues(path string) ([]League, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultLeagues(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read leagues file")
	}
	return ParseLeagues(raw)
}

func ParseLeagues(raw []byte) ([]League, error) {
	var file leaguesFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, errors.Wrap(err, "parse leagues file")
	}
	if len(file.Leagues) == 0 {
		return nil, errors.New("leagues file lists no leagues")
	}
	for i, l := range file.Leagues {
		if strings.TrimSpace(l.URL) == "" {
			return nil, errors.Newf("league %d (%q) has no url", i+1, l.Name)
		}
		if l.MaxTeams < 0 {
			return nil, errors.Newf("league %q: max_teams must be >= 0", l.Name)
		}
	}
	return file.Leagues, nil
}
