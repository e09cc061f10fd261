// Package version - метаданные сборки сервера. Значения подставляются через
// -ldflags "-X isekai-server/internal/version.Version=...".
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"time"
)

const (
	Name = "isekai-server"
	// Protocol - версия JSON-протокола поверх websocket
	Protocol = 1
)

var (
	Version   = "dev"
	Commit    string
	BuildDate string // YYYY-MM-DD (UTC)
)

// releaseEpoch - день первого релиза, от него считается номер билда
var releaseEpoch = time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)

// Info - то, что отдает /version
type Info struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Protocol  int    `json:"protocol"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date,omitempty"`
	BuildID   int    `json:"build_id"`
	Go        string `json:"go"`
}

// buildIDFor - дней от releaseEpoch до даты сборки
func buildIDFor(date string) (int, error) {
	t, err := time.ParseInLocation("2006-01-02", date, time.UTC)
	if err != nil {
		return 0, fmt.Errorf("invalid build date %q: %w", date, err)
	}
	if t.Before(releaseEpoch) {
		return 0, fmt.Errorf("build date %s is before %s", date, releaseEpoch.Format("2006-01-02"))
	}
	return int(t.Sub(releaseEpoch).Hours() / 24), nil
}

// vcsRevision - коммит из метаданных go build, если ldflags его не задали
func vcsRevision() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range bi.Settings {
		if s.Key == "vcs.revision" && len(s.Value) >= 7 {
			return s.Value[:7]
		}
	}
	return ""
}

// Current собирает Info. Без даты сборки BuildID равен 0.
func Current() Info {
	info := Info{
		Name:      Name,
		Version:   Version,
		Protocol:  Protocol,
		Commit:    Commit,
		BuildDate: BuildDate,
		Go:        runtime.Version(),
	}
	if info.Commit == "" {
		info.Commit = vcsRevision()
	}
	if info.Commit == "" {
		info.Commit = "unknown"
	}
	if BuildDate != "" {
		if id, err := buildIDFor(BuildDate); err == nil {
			info.BuildID = id
		}
	}
	return info
}

func (i Info) String() string {
	s := fmt.Sprintf("%s %s (protocol %d, commit %s, %s)", i.Name, i.Version, i.Protocol, i.Commit, i.Go)
	if i.BuildID > 0 {
		s += fmt.Sprintf(" build %d", i.BuildID)
	}
	return s
}

// String - строка для логов и подкоманды version
func String() string {
	return Current().String()
}
