// Package artifacts writes what a run leaves behind: failure screenshots and
// JSON files under the results directory.
package artifacts

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	json "github.com/json-iterator/go"
	"github.com/spf13/afero"
)

const (
	timestampLayout = "20060102_150405"
	day             = 24 * time.Hour
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Screenshotter is anything that can capture the page it shows as PNG.
type Screenshotter interface {
	Screenshot() ([]byte, error)
}

type Store struct {
	ScreenshotDir string
	ResultsDir    string

	Fs     afero.Fs
	Logger *slog.Logger
	Now    func() time.Time
}

// NewStore returns a store on the OS filesystem.
func NewStore(screenshotDir, resultsDir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{
		ScreenshotDir: screenshotDir,
		ResultsDir:    resultsDir,
		Fs:            afero.NewOsFs(),
		Logger:        logger,
		Now:           time.Now,
	}
}

// SaveScreenshot captures page and writes it as FAILED_<test>_<timestamp>.png,
// returning the path written.
func (s *Store) SaveScreenshot(page Screenshotter, testName string) (string, error) {
	png, err := page.Screenshot()
	if err != nil {
		s.Logger.Error("failed to take failure screenshot", "test", testName, "error", err)
		return "", fmt.Errorf("failed to take screenshot: %w", err)
	}

	if err := s.Fs.MkdirAll(s.ScreenshotDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create screenshot directory: %w", err)
	}

	name := fmt.Sprintf("FAILED_%s_%s.png", sanitize(testName), s.Now().Format(timestampLayout))
	path := filepath.Join(s.ScreenshotDir, name)
	if err := afero.WriteFile(s.Fs, path, png, 0o644); err != nil {
		return "", fmt.Errorf("failed to write screenshot: %w", err)
	}

	s.Logger.Info("failure screenshot saved", "path", path)
	return path, nil
}

// CleanOld removes screenshots older than maxAge and reports how many it
// removed. Ages count whole days, so with a seven day maxAge a screenshot
// taken seven days and some hours ago is kept. A missing directory has
// nothing to clean.
func (s *Store) CleanOld(maxAge time.Duration) (int, error) {
	exists, err := afero.DirExists(s.Fs, s.ScreenshotDir)
	if err != nil || !exists {
		return 0, err
	}

	paths, err := afero.Glob(s.Fs, filepath.Join(s.ScreenshotDir, "*.png"))
	if err != nil {
		return 0, err
	}

	now := s.Now()
	deleted := 0
	for _, path := range paths {
		info, err := s.Fs.Stat(path)
		if err != nil {
			s.Logger.Warn("failed to stat screenshot", "path", path, "error", err)
			continue
		}
		if now.Sub(info.ModTime()).Truncate(day) <= maxAge {
			continue
		}
		if err := s.Fs.Remove(path); err != nil {
			return deleted, fmt.Errorf("failed to remove %s: %w", path, err)
		}
		deleted++
	}

	if deleted > 0 {
		s.Logger.Info("cleaned old screenshots", "count", deleted, "dir", s.ScreenshotDir)
	}
	return deleted, nil
}

// SaveJSON writes v, indented, to name under the results directory.
func (s *Store) SaveJSON(name string, v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode %s: %w", name, err)
	}

	path := filepath.Join(s.ResultsDir, name)
	if err := s.Fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create results directory: %w", err)
	}
	if err := afero.WriteFile(s.Fs, path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}

	s.Logger.Info("test data saved", "path", path)
	return path, nil
}

// LoadJSON decodes name under the results directory into v. A missing file
// is reported with an error wrapping fs.ErrNotExist.
func (s *Store) LoadJSON(name string, v any) error {
	path := filepath.Join(s.ResultsDir, name)

	data, err := afero.ReadFile(s.Fs, path)
	if err != nil {
		s.Logger.Warn("test data file not found", "path", path)
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}

	s.Logger.Info("test data loaded", "path", path)
	return nil
}

func sanitize(name string) string {
	name = unsafeChars.ReplaceAllString(strings.TrimSpace(name), "_")
	if name == "" {
		return "unnamed"
	}
	return name
}
