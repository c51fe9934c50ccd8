// Package version holds build information, set at link time:
//
//	go build -ldflags "-X github.com/information-sharing-networks/https-app/internal/version.version=1.2.0 ..."
package version

var (
	version   = "dev"
	buildDate = "unknown"
	gitCommit = "unknown"
)

type Info struct {
	Version   string
	BuildDate string
	GitCommit string
}

func Get() Info {
	return Info{
		Version:   version,
		BuildDate: buildDate,
		GitCommit: gitCommit,
	}
}
