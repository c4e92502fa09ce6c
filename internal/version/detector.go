package version

import (
	"runtime/debug"
	"strings"
)

const (
	unknownVersionFallbackConstant = "unknown"
	buildInfoDevelVersionValue     = "(devel)"
	vcsRevisionSettingKeyConstant  = "vcs.revision"
	vcsModifiedSettingKeyConstant  = "vcs.modified"
	vcsModifiedTrueValueConstant   = "true"
	dirtySuffixConstant            = "-dirty"
	shortRevisionLengthConstant    = 12
)

// linkedVersion is populated at build time with -ldflags "-X github.com/tyemirov/chores/internal/version.linkedVersion=v1.2.3".
var linkedVersion string

// BuildInfoProvider exposes runtime build metadata.
type BuildInfoProvider interface {
	Read() (*debug.BuildInfo, bool)
}

// Detector resolves application version strings.
type Detector struct {
	buildInfoProvider BuildInfoProvider
	linkedVersion     string
}

// Dependencies describes the collaborators required for version detection.
type Dependencies struct {
	BuildInfoProvider BuildInfoProvider
	LinkedVersion     string
}

// NewDetector constructs a Detector with the supplied dependencies or sensible defaults.
func NewDetector(dependencies Dependencies) *Detector {
	provider := dependencies.BuildInfoProvider
	if provider == nil {
		provider = runtimeBuildInfoProvider{}
	}

	resolvedLinkedVersion := strings.TrimSpace(dependencies.LinkedVersion)
	if len(resolvedLinkedVersion) == 0 {
		resolvedLinkedVersion = strings.TrimSpace(linkedVersion)
	}

	return &Detector{
		buildInfoProvider: provider,
		linkedVersion:     resolvedLinkedVersion,
	}
}

// Detect resolves the application version using the supplied dependencies.
func Detect(dependencies Dependencies) string {
	return NewDetector(dependencies).Version()
}

// Version returns the linker-provided version, then the module version, then
// the VCS revision recorded by the toolchain, and finally "unknown".
func (detector *Detector) Version() string {
	if detector == nil {
		return unknownVersionFallbackConstant
	}

	if len(detector.linkedVersion) > 0 {
		return detector.linkedVersion
	}

	if detector.buildInfoProvider == nil {
		return unknownVersionFallbackConstant
	}

	buildInfo, available := detector.buildInfoProvider.Read()
	if !available || buildInfo == nil {
		return unknownVersionFallbackConstant
	}

	if moduleVersion := versionFromModule(buildInfo); len(moduleVersion) > 0 {
		return moduleVersion
	}

	if revision := revisionFromSettings(buildInfo); len(revision) > 0 {
		return revision
	}

	return unknownVersionFallbackConstant
}

func versionFromModule(buildInfo *debug.BuildInfo) string {
	trimmedVersion := strings.TrimSpace(buildInfo.Main.Version)
	if len(trimmedVersion) == 0 || strings.EqualFold(trimmedVersion, buildInfoDevelVersionValue) {
		return ""
	}
	return trimmedVersion
}

func revisionFromSettings(buildInfo *debug.BuildInfo) string {
	revision := ""
	modified := false
	for _, setting := range buildInfo.Settings {
		switch setting.Key {
		case vcsRevisionSettingKeyConstant:
			revision = strings.TrimSpace(setting.Value)
		case vcsModifiedSettingKeyConstant:
			modified = setting.Value == vcsModifiedTrueValueConstant
		}
	}
	if len(revision) == 0 {
		return ""
	}
	if len(revision) > shortRevisionLengthConstant {
		revision = revision[:shortRevisionLengthConstant]
	}
	if modified {
		revision += dirtySuffixConstant
	}
	return revision
}

type runtimeBuildInfoProvider struct{}

func (runtimeBuildInfoProvider) Read() (*debug.BuildInfo, bool) {
	return debug.ReadBuildInfo()
}
