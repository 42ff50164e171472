package entity

import (
	"regexp"
	"strings"
)

// ModelArtifact — каталог обученной модели с версией-временной меткой.
type ModelArtifact struct {
	DirName string // имя каталога, например model_..._20240615_120000
	Version string // последние два сегмента имени: YYYYMMDD_HHMMSS
}

var versionPattern = regexp.MustCompile(`^\d{8}_\d{6}$`)

// VersionFromDirName извлекает версию из имени каталога модели:
// последние два сегмента, разделённые подчёркиванием.
func VersionFromDirName(name string) (string, bool) {
	parts := strings.Split(name, "_")
	if len(parts) < 2 {
		return name, false
	}
	version := strings.Join(parts[len(parts)-2:], "_")
	return version, versionPattern.MatchString(version)
}

// LatestArtifact выбирает артефакт с наибольшей версией.
// Формат метки фиксированной ширины, поэтому лексикографический
// порядок совпадает с хронологическим.
func LatestArtifact(artifacts []ModelArtifact) (ModelArtifact, bool) {
	var latest ModelArtifact
	found := false
	for _, a := range artifacts {
		if !found || a.Version > latest.Version {
			latest = a
			found = true
		}
	}
	return latest, found
}
