// Package export writes finished sweeps to disk and renders console summaries.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/fortuna/rinkscout/internal/domain"
)

const (
	latestFile = "latest.json"
	indexFile  = "index.json"

	jsonPrefix = "scraped_data_"
	csvPrefix  = "hockey_stats_"
)

// ErrNoExport reports a missing or non-export file in a data directory.
var ErrNoExport = errors.New("export: no such file")

// Leagues maps a league name to its scraped teams.
type Leagues = map[string][]domain.TeamResult

// Index lists every dated export in a data directory.
type Index struct {
	LastUpdated  string   `json:"last_updated"`
	TotalScrapes int      `json:"total_scrapes"`
	Files        []string `json:"files"`
}

// Timestamp formats t the way export file names expect.
func Timestamp(t time.Time) string {
	return t.Format("20060102_150405")
}

// WriteJSON stores data as scraped_data_<ts>.json, refreshes latest.json and
// rebuilds index.json. It returns the dated file path.
func WriteJSON(dir, ts string, data Leagues) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, "create data dir")
	}

	payload, err := sonic.ConfigStd.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "encode leagues")
	}

	dated := filepath.Join(dir, jsonPrefix+ts+".json")
	for _, path := range []string{dated, filepath.Join(dir, latestFile)} {
		if err := os.WriteFile(path, payload, 0o644); err != nil {
			return "", errors.Wrapf(err, "write %s", path)
		}
	}

	if err := writeIndex(dir, ts); err != nil {
		return "", err
	}
	return dated, nil
}

func writeIndex(dir, ts string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return errors.Wrap(err, "list data dir")
	}
	idx := Index{LastUpdated: ts, Files: []string{}}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") || name == latestFile || name == indexFile {
			continue
		}
		idx.Files = append(idx.Files, name)
	}
	sort.Strings(idx.Files)
	idx.TotalScrapes = len(idx.Files)

	payload, err := sonic.ConfigStd.MarshalIndent(idx, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode index")
	}
	return errors.Wrap(os.WriteFile(filepath.Join(dir, indexFile), payload, 0o644), "write index")
}

// ReadJSON loads an export written by WriteJSON.
func ReadJSON(path string) (Leagues, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	var data Leagues
	if err := sonic.Unmarshal(raw, &data); err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	return data, nil
}

// ReadLatest loads latest.json from dir.
func ReadLatest(dir string) (Leagues, error) {
	data, err := ReadJSON(filepath.Join(dir, latestFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, errors.Wrap(ErrNoExport, latestFile)
	}
	return data, err
}

// FileInfo describes one dated export file.
type FileInfo struct {
	Filename string    `json:"filename"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
	Type     string    `json:"type"`
}

// ListFiles returns the dated JSON and CSV exports in dir, newest first. A
// missing directory has no files.
func ListFiles(dir string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return []FileInfo{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "list data dir")
	}

	files := []FileInfo{}
	for _, e := range entries {
		kind, ok := exportType(e.Name())
		if !ok || e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{Filename: e.Name(), Size: info.Size(), Modified: info.ModTime(), Type: kind})
	}
	sort.Slice(files, func(i, j int) bool {
		if !files[i].Modified.Equal(files[j].Modified) {
			return files[i].Modified.After(files[j].Modified)
		}
		return files[i].Filename > files[j].Filename
	})
	return files, nil
}

// Resolve returns the path of the export called name inside dir. Names that
// are not plain export file names are rejected with ErrNoExport.
func Resolve(dir, name string) (string, error) {
	if name != filepath.Base(name) || (name != latestFile && !isExport(name)) {
		return "", errors.Wrapf(ErrNoExport, "%q", name)
	}
	path := filepath.Join(dir, name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", errors.Wrapf(ErrNoExport, "%q", name)
	}
	return path, nil
}

func isExport(name string) bool {
	_, ok := exportType(name)
	return ok
}

func exportType(name string) (string, bool) {
	switch {
	case strings.HasPrefix(name, jsonPrefix) && strings.HasSuffix(name, ".json"):
		return "json", true
	case strings.HasPrefix(name, csvPrefix) && strings.HasSuffix(name, ".csv"):
		return "csv", true
	}
	return "", false
}

var csvHeader = []string{
	"Name", "Jersey", "Position", "Shoots", "Age", "Birth Year", "Height", "Weight", "Hometown",
	"GP", "G", "A", "P", "PPG", "PIM", "Team", "League", "Season", "Profile URL",
}

// WriteCSV writes one hockey_stats_<ts>_<league>.csv per league with players
// and returns the paths in league order.
func WriteCSV(dir, ts string, data Leagues) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create data dir")
	}

	var paths []string
	for _, league := range sortedLeagues(data) {
		teams := data[league]
		if domain.CountPlayers(teams) == 0 {
			continue
		}
		path := filepath.Join(dir, fmt.Sprintf("%s%s_%s.csv", csvPrefix, ts, fileSafe(league)))
		f, err := os.Create(path)
		if err != nil {
			return paths, errors.Wrapf(err, "create %s", path)
		}
		err = RenderCSV(f, league, teams)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return paths, errors.Wrapf(err, "write %s", path)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// RenderCSV writes the flattened player rows of one league as RFC 4180 CSV.
func RenderCSV(w io.Writer, league string, teams []domain.TeamResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return errors.Wrap(err, "write header")
	}
	for _, team := range teams {
		for _, p := range team.Players {
			row := []string{
				p.Name, p.Jersey, p.Position, p.Shoots, strconv.Itoa(p.Age), strconv.Itoa(p.BirthYear),
				p.Height, p.Weight, p.Hometown,
				strconv.Itoa(p.Games), strconv.Itoa(p.Goals), strconv.Itoa(p.Assists), strconv.Itoa(p.Points),
				fmt.Sprintf("%.2f", p.PPG), strconv.Itoa(p.PIM),
				team.Name, league, p.Season, p.ProfileURL,
			}
			if err := cw.Write(row); err != nil {
				return errors.Wrapf(err, "write %s", p.Name)
			}
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flush csv")
}

// Summary renders a per-league table of team and player counts.
func Summary(w io.Writer, data Leagues) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"League", "Teams", "Players"})

	teams, players := 0, 0
	for _, league := range sortedLeagues(data) {
		n, p := len(data[league]), domain.CountPlayers(data[league])
		teams += n
		players += p
		t.AppendRow(table.Row{league, n, p})
	}
	t.AppendFooter(table.Row{"Total", teams, players})
	t.Render()
}

func sortedLeagues(data Leagues) []string {
	names := make([]string, 0, len(data))
	for name := range data {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func fileSafe(name string) string {
	return strings.NewReplacer(" ", "_", "/", "-").Replace(name)
}
