package resolve

import (
	"fmt"
	"strings"

	"modpack-downloader/catalog"
	"modpack-downloader/modpack"

	"github.com/Masterminds/semver/v3"
)

// NotFound is returned by Resolve when no candidate matches.
const NotFound = -1

// Strategy decides whether a candidate fits the target version and loader.
type Strategy func(c catalog.Candidate, version, loader string) bool

// Exact requires the exact game version and loader tags.
func Exact(c catalog.Candidate, version, loader string) bool {
	return c.HasGameVersion(version) && c.HasLoader(loader)
}

// MinorFallback is Exact, except that a major.minor.patch target also
// accepts candidates tagged only with major.minor. Tags are compared
// lower-cased.
func MinorFallback(c catalog.Candidate, version, loader string) bool {
	version = strings.ToLower(version)
	loader = strings.ToLower(loader)
	if !c.HasLoader(loader) {
		return false
	}
	if c.HasGameVersion(version) {
		return true
	}
	minor, ok := minorVersion(version)
	return ok && c.HasGameVersion(minor)
}

// minorVersion returns "major.minor" for a strict three-component version.
func minorVersion(version string) (string, bool) {
	v, err := semver.StrictNewVersion(version)
	if err != nil {
		return "", false
	}
	return fmt.Sprintf("%d.%d", v.Major(), v.Minor()), true
}

// StrategyFor returns the matching rule for a catalog.
func StrategyFor(p modpack.Provider) Strategy {
	if p == modpack.ProviderCurseForge {
		return MinorFallback
	}
	return Exact
}

// Resolve returns the index of the first candidate accepted by match, or
// NotFound. Quilt runs fabric mods, so a quilt target that finds nothing is
// scanned again as fabric.
func Resolve(candidates []catalog.Candidate, version string, loader modpack.Loader, match Strategy) int {
	if i := scan(candidates, version, string(loader), match); i != NotFound {
		return i
	}
	if loader == modpack.LoaderQuilt {
		return scan(candidates, version, string(modpack.LoaderFabric), match)
	}
	return NotFound
}

func scan(candidates []catalog.Candidate, version, loader string, match Strategy) int {
	for i, c := range candidates {
		if match(c, version, loader) {
			return i
		}
	}
	return NotFound
}
