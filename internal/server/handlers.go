package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/koustreak/sqlgate/internal/connection"
	"github.com/koustreak/sqlgate/internal/endpoint"
	"github.com/koustreak/sqlgate/internal/schema"
)

type handlers struct {
	conns     *connection.Service
	published *endpoint.Service
}

func (h *handlers) routes(r chi.Router) {
	r.Post("/add-database", h.addDatabase)
	r.Get("/databases/{userId}", h.listDatabases)

	r.Route("/database/{id}", func(r chi.Router) {
		r.Get("/", h.describeDatabase)
		r.Get("/table/{name}/data", h.tableData)
		r.Post("/query", h.runQuery)
		r.Post("/ai-query", h.suggestQuery)
		r.Post("/generate-api", h.generateAPI)
		r.Post("/publish-api", h.publishAPI)
		r.Get("/apis", h.listAPIs)
	})

	for _, method := range []string{
		http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch,
	} {
		r.Method(method, "/{connectionId}/*", http.HandlerFunc(h.servePublished))
	}
}

func (h *handlers) addDatabase(w http.ResponseWriter, r *http.Request) {
	var req connection.RegisterRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	conn, err := h.conns.Register(r.Context(), &req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, conn)
}

func (h *handlers) listDatabases(w http.ResponseWriter, r *http.Request) {
	conns, err := h.conns.List(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, conns)
}

func (h *handlers) describeDatabase(w http.ResponseWriter, r *http.Request) {
	sc, err := h.conns.Introspect(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, []*schema.Schema{sc})
}

func (h *handlers) tableData(w http.ResponseWriter, r *http.Request) {
	records, err := h.conns.TableData(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

type queryRequest struct {
	Query string `json:"query"`
}

func (h *handlers) runQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.conns.Query(r.Context(), chi.URLParam(r, "id"), req.Query)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type promptRequest struct {
	Prompt  string         `json:"prompt"`
	Options map[string]any `json:"options"`
}

func (h *handlers) suggestQuery(w http.ResponseWriter, r *http.Request) {
	var req promptRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s, err := h.conns.SuggestQuery(r.Context(), chi.URLParam(r, "id"), req.Prompt)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *handlers) generateAPI(w http.ResponseWriter, r *http.Request) {
	var req promptRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	ep, err := h.conns.GenerateEndpoint(r.Context(), chi.URLParam(r, "id"), req.Prompt, req.Options)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ep)
}

type publishRequest struct {
	ID string `json:"id"`
}

type publishResponse struct {
	PublishedURL string `json:"publishedUrl"`
}

// publishAPI accepts the endpoint definition as returned by generate-api;
// only its id is used.
func (h *handlers) publishAPI(w http.ResponseWriter, r *http.Request) {
	var req publishRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	url, err := h.conns.Publish(r.Context(), chi.URLParam(r, "id"), req.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, publishResponse{PublishedURL: url})
}

func (h *handlers) listAPIs(w http.ResponseWriter, r *http.Request) {
	eps, err := h.conns.Endpoints(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, eps)
}

func (h *handlers) servePublished(w http.ResponseWriter, r *http.Request) {
	resp, err := h.published.Serve(r.Context(),
		chi.URLParam(r, "connectionId"), r.Method, chi.URLParam(r, "*"), r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
