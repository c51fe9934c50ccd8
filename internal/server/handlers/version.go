package handlers

import (
	"net/http"

	"github.com/information-sharing-networks/https-app/internal/response"
	"github.com/information-sharing-networks/https-app/internal/version"
)

// HandleVersion returns the build information of the running binary in the response envelope.
func HandleVersion(info version.Info) http.HandlerFunc {
	// Pre-create the response to avoid allocating on every request
	resp := response.OK(VersionResponse{
		Version:   info.Version,
		BuildDate: info.BuildDate,
		GitCommit: info.GitCommit,
		Service:   "https-server",
	})

	return func(w http.ResponseWriter, r *http.Request) {
		response.RespondWithJSONPayload(w, http.StatusOK, resp)
	}
}

type VersionResponse struct {
	Version   string `json:"version"`
	BuildDate string `json:"build_date"`
	GitCommit string `json:"git_commit"`
	Service   string `json:"service"`
}
