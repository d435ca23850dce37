package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"studyhub/internal/app"
	"studyhub/internal/extract"
	"studyhub/internal/security"
	"studyhub/pkg/domain"
)

func (s *Server) handleResources(w http.ResponseWriter, r *http.Request, user domain.User) {
	switch r.Method {
	case http.MethodGet:
		if !s.allowRate(w, r, "api") {
			return
		}
		resources, err := s.app.ListResources(user.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": resources, "count": len(resources)})
	case http.MethodPost:
		if !s.allowRate(w, r, "upload") {
			return
		}
		s.handleResourceUpload(w, r, user)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleResourceUpload(w http.ResponseWriter, r *http.Request, user domain.User) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "upload too large or malformed")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "read upload failed")
		return
	}

	var tags []string
	if raw := r.FormValue("tags"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &tags); err != nil {
			writeError(w, http.StatusBadRequest, "tags must be a JSON string array")
			return
		}
	}

	resource, err := s.app.UploadResource(r.Context(), user.ID, app.UploadInput{
		FileName: header.Filename,
		MimeType: header.Header.Get("Content-Type"),
		Size:     int64(len(data)),
		Title:    r.FormValue("title"),
		Tags:     tags,
		Data:     data,
	})
	if err != nil {
		s.audit(r, "upload", "fail", "file", header.Filename)
		writeAppError(w, err)
		return
	}
	s.audit(r, "upload", "success", "user_id", user.ID, "resource_id", resource.ID)
	writeJSON(w, http.StatusCreated, resource)
}

func (s *Server) handleResourceByID(w http.ResponseWriter, r *http.Request, user domain.User) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/resources/")
	if rest == "" {
		http.NotFound(w, r)
		return
	}
	if id, found := strings.CutSuffix(rest, "/download"); found {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		url, err := s.app.ResourceDownloadURL(r.Context(), user.ID, id)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"url": url})
		return
	}
	if strings.Contains(rest, "/") {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodDelete {
		methodNotAllowed(w)
		return
	}
	if err := s.app.DeleteResource(r.Context(), user.ID, rest); err != nil {
		writeAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleFileProcess extracts text from an uploaded document. Extraction
// never hard-fails: malformed documents produce a fallback block so the
// client always gets usable text.
func (s *Server) handleFileProcess(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, security.MaxProcessSize)
	if err := r.ParseMultipartForm(security.MaxProcessSize); err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "upload too large or malformed")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "read upload failed")
		return
	}
	mimeType := header.Header.Get("Content-Type")

	text, err := s.extractor.Extract(header.Filename, mimeType, data)
	if err != nil {
		s.audit(r, "file_process", "fail", "file", header.Filename, "error", err.Error())
		text = extract.FallbackMessage(header.Filename, mimeType, err)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"fileName": header.Filename,
		"fileType": mimeType,
		"fileSize": len(data),
		"content":  text,
	})
}
