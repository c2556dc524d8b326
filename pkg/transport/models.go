package transport

import (
	"net/http"
	"time"
)

type modelList struct {
	Object string      `json:"object"`
	Data   []modelInfo `json:"data"`
}

type modelInfo struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	OwnedBy string `json:"owned_by"`
}

// handleModels serves GET /models, proxying the backend's model listing.
// The backend does not report creation times, so created is stamped at
// serve time.
func (g *Gateway) handleModels(w http.ResponseWriter, r *http.Request) {
	models, err := g.client(r).GetModels(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	now := time.Now().Unix()
	out := modelList{Object: "list", Data: make([]modelInfo, 0, len(models))}
	for _, m := range models {
		ownedBy := m.OwnedBy
		if ownedBy == "" {
			ownedBy = "organization"
		}
		out.Data = append(out.Data, modelInfo{
			ID:      m.ID,
			Object:  "model",
			Created: now,
			OwnedBy: ownedBy,
		})
	}
	writeJSON(w, http.StatusOK, out)
}
