// Package iofind locates a day's raw RPFITS files in the ATOA archive.
// It runs ADQL queries against the archive's TAP service, drops the
// leading calibration-only scans, and writes the day's download list.
// With download enabled it also fetches the files through an
// authenticated session.
package iofind

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cheggaaa/pb/v3"
	"github.com/dustin/go-humanize"
	"github.com/gnames/gn"
	"github.com/joho/godotenv"
	"github.com/ktjameson/magmo-HI/pkg/config"
	"github.com/ktjameson/magmo-HI/pkg/registry"
	"github.com/ktjameson/magmo-HI/pkg/votable"
)

// calibrators are the flux and polarisation calibrators observed before
// the science fields. A scan containing only these is not a day's data.
var calibrators = map[string]bool{
	"1934-638": true,
	"0823-500": true,
}

// Credentials hold an ATOA archive login.
type Credentials struct {
	User     string
	Password string
}

// LoadCredentials reads ATOA_USER and ATOA_PASSWORD from the process
// environment, falling back to a .env file when one exists.
func LoadCredentials(envFile string) (Credentials, error) {
	if envFile == "" {
		envFile = ".env"
	}

	var fromFile map[string]string
	// A missing .env file is fine, the variables may be set directly.
	if _, err := os.Stat(envFile); err == nil {
		fromFile, err = godotenv.Read(envFile)
		if err != nil {
			return Credentials{}, CredentialsError(envFile, err)
		}
	}

	pick := func(key string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return fromFile[key]
	}

	return Credentials{
		User:     pick("ATOA_USER"),
		Password: pick("ATOA_PASSWORD"),
	}, nil
}

// Finder implements the archive lookup stage.
type Finder struct {
	cfg    *config.Config
	creds  Credentials
	client *http.Client
}

// New creates a Finder. The HTTP client carries a cookie jar because the
// download service authenticates through a login session.
func New(cfg *config.Config, creds Credentials) *Finder {
	jar, _ := cookiejar.New(nil)
	return &Finder{
		cfg:    cfg,
		creds:  creds,
		client: &http.Client{Jar: jar},
	}
}

// Observation is one archived scan.
type Observation struct {
	ObsID     string
	AccessURL string
}

// Find queries the archive for the day's observations and writes
// filelist/day<d>.txt with one download URL per line. Zero matching
// files is a warning, not an error, so the remaining days keep going.
func (f *Finder) Find(ctx context.Context, day registry.Day) error {
	obs, err := f.queryDay(ctx, day)
	if err != nil {
		return err
	}

	// The first scans of a session are often calibrator-only pointings
	// taken before the science fields; they carry no day data.
	for len(obs) > 0 {
		calOnly, err := f.isCalOnly(ctx, obs[0].ObsID)
		if err != nil {
			return err
		}
		if !calOnly {
			break
		}
		slog.Info("Skipping calibration-only observation",
			"day", day.ID, "obs_id", obs[0].ObsID)
		obs = obs[1:]
	}

	if len(obs) == 0 {
		gn.Warn("No archive files matched day %s patterns %v",
			day.ID, day.Patterns)
		return nil
	}

	listDir := filepath.Join(f.cfg.Data.DataDir, "filelist")
	if err := os.MkdirAll(listDir, 0755); err != nil {
		return QueryError(day.ID, err)
	}
	listPath := filepath.Join(listDir, "day"+day.ID+".txt")

	var sb strings.Builder
	for _, o := range obs {
		sb.WriteString(o.AccessURL)
		sb.WriteString("\n")
	}
	if err := os.WriteFile(listPath, []byte(sb.String()), 0644); err != nil {
		return QueryError(day.ID, err)
	}

	gn.Info("Day %s: %d observation files listed in <em>%s</em>",
		day.ID, len(obs), listPath)
	return nil
}

// queryDay runs the day's ADQL query and returns the observations
// ordered by obs_id.
func (f *Finder) queryDay(ctx context.Context, day registry.Day) ([]Observation, error) {
	var clauses []string
	for _, p := range day.Patterns {
		like := strings.ReplaceAll(p, "*", "%")
		clauses = append(clauses,
			fmt.Sprintf("filename like '%s'", like))
	}

	query := "SELECT distinct obs_id, access_url " +
		"FROM ivoa.obscore WHERE obs_collection = '" +
		f.cfg.Archive.ProjectCode + "' " +
		"and frequency in (1421.0, 1420.5) and data_flag < 999 " +
		"and (" + strings.Join(clauses, " or ") + ")"

	table, err := f.adql(ctx, query)
	if err != nil {
		return nil, QueryError(day.ID, err)
	}

	ids, err := table.Strings("obs_id")
	if err != nil {
		return nil, QueryError(day.ID, err)
	}
	urls, err := table.Strings("access_url")
	if err != nil {
		return nil, QueryError(day.ID, err)
	}

	obs := make([]Observation, len(ids))
	for i := range ids {
		obs[i] = Observation{ObsID: ids[i], AccessURL: urls[i]}
	}
	sort.Slice(obs, func(i, j int) bool { return obs[i].ObsID < obs[j].ObsID })
	return obs, nil
}

// isCalOnly reports whether an observation contains nothing but
// calibrator pointings.
func (f *Finder) isCalOnly(ctx context.Context, obsID string) (bool, error) {
	query := "SELECT distinct target_name FROM ivoa.obscore " +
		"WHERE obs_id = '" + obsID + "'"

	table, err := f.adql(ctx, query)
	if err != nil {
		return false, QueryError(obsID, err)
	}
	targets, err := table.Strings("target_name")
	if err != nil {
		return false, QueryError(obsID, err)
	}

	if len(targets) == 0 {
		return false, nil
	}
	for _, target := range targets {
		if !calibrators[strings.TrimSpace(target)] {
			return false, nil
		}
	}
	return true, nil
}

// adql posts one query to the TAP sync endpoint and parses the VOTable
// response.
func (f *Finder) adql(ctx context.Context, query string) (*votable.Table, error) {
	form := url.Values{
		"query":   {query},
		"request": {"doQuery"},
		"lang":    {"ADQL"},
		"format":  {"votable"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		f.cfg.Archive.TapURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("TAP query returned %s", resp.Status)
	}

	vot, err := votable.Parse(resp.Body)
	if err != nil {
		return nil, err
	}
	return vot.FirstTable()
}

// Login opens an authenticated archive session for downloads.
func (f *Finder) Login(ctx context.Context) error {
	if f.creds.User == "" || f.creds.Password == "" {
		return CredentialsMissingError()
	}

	form := url.Values{
		"j_username": {f.creds.User},
		"j_password": {f.creds.Password},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		f.cfg.Archive.LoginURL, strings.NewReader(form.Encode()))
	if err != nil {
		return LoginError(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := f.client.Do(req)
	if err != nil {
		return LoginError(err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return LoginError(fmt.Errorf("login returned %s", resp.Status))
	}
	return nil
}

// Download fetches every file of the day's list into the raw data
// directory. Files already present with a non-zero size are kept.
func (f *Finder) Download(ctx context.Context, day registry.Day) error {
	listPath := filepath.Join(f.cfg.Data.DataDir, "filelist",
		"day"+day.ID+".txt")
	data, err := os.ReadFile(listPath)
	if err != nil {
		return QueryError(day.ID, err)
	}

	urls := strings.Fields(string(data))
	if len(urls) == 0 {
		gn.Warn("Day %s download list is empty", day.ID)
		return nil
	}

	rawDir := f.cfg.Data.RawDir
	if !filepath.IsAbs(rawDir) {
		rawDir = filepath.Join(f.cfg.Data.DataDir, rawDir)
	}
	if err := os.MkdirAll(rawDir, 0755); err != nil {
		return QueryError(day.ID, err)
	}

	if err := f.Login(ctx); err != nil {
		return err
	}

	bar := pb.Full.Start(len(urls))
	bar.Set(pb.CleanOnFinish, true)
	defer bar.Finish()

	var fetched int
	for _, fileURL := range urls {
		name := path(fileURL)
		dest := filepath.Join(rawDir, name)
		if info, err := os.Stat(dest); err == nil && info.Size() > 0 {
			slog.Info("Raw file already present", "file", name)
			bar.Increment()
			continue
		}

		size, err := f.fetch(ctx, fileURL, dest)
		if err != nil {
			return err
		}
		slog.Info("Downloaded raw file",
			"file", name, "size", humanize.Bytes(uint64(size)))
		fetched++
		bar.Increment()
	}

	gn.Info("Day %s: downloaded %d of %d files into <em>%s</em>",
		day.ID, fetched, len(urls), rawDir)
	return nil
}

func (f *Finder) fetch(ctx context.Context, fileURL, dest string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return 0, DownloadError(fileURL, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, DownloadError(fileURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, DownloadError(fileURL,
			fmt.Errorf("download returned %s", resp.Status))
	}

	out, err := os.Create(dest)
	if err != nil {
		return 0, DownloadError(fileURL, err)
	}
	defer out.Close()

	size, err := io.Copy(out, resp.Body)
	if err != nil {
		os.Remove(dest)
		return 0, DownloadError(fileURL, err)
	}
	return size, nil
}

// path extracts the file name from a download URL, tolerating the
// query-string form the retrieval service uses.
func path(fileURL string) string {
	u, err := url.Parse(fileURL)
	if err != nil {
		return filepath.Base(fileURL)
	}
	if file := u.Query().Get("file"); file != "" {
		return filepath.Base(file)
	}
	return filepath.Base(u.Path)
}
