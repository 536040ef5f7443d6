package ai

import (
	"net/http"

	"github.com/avencic/storycircle/internal/modules/core"
)

type healthResponse struct {
	Status string `json:"status"`
	Model  string `json:"model,omitempty"`
}

// HandleHealth reports whether AI choice generation is configured.
func HandleHealth(generator *GeminiChoiceGenerator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if generator == nil {
			core.WriteResponse(w, r, http.StatusServiceUnavailable, healthResponse{Status: "disabled"})
			return
		}

		core.WriteOK(w, r, healthResponse{Status: "ok", Model: generator.Model()})
	}
}
