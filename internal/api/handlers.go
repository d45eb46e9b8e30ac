package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"saudemental.app/nusam/internal/clinic"
)

// API bundles the repositories and the persistence service behind the
// HTTP surface. Handlers only read and mutate through the repositories.
type API struct {
	Patients    *clinic.PatientRepository
	Documents   *clinic.DocumentRepository
	Persistence *clinic.Persistence
}

// NewAPI creates the HTTP surface over the given repositories
func NewAPI(patients *clinic.PatientRepository, documents *clinic.DocumentRepository, persistence *clinic.Persistence) *API {
	return &API{
		Patients:    patients,
		Documents:   documents,
		Persistence: persistence,
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeRepoError maps the repository error taxonomy onto HTTP statuses
func writeRepoError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, clinic.ErrNotFound):
		writeError(w, http.StatusNotFound, "record not found")
	case clinic.IsValidation(err):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// mutationResponse wraps a mutated record with the persistence outcome.
// A false persisted flag means the durable write failed and the change
// currently lives only in memory.
func mutationResponse(record interface{}, persisted bool) map[string]interface{} {
	resp := map[string]interface{}{
		"record":    record,
		"persisted": persisted,
	}
	if !persisted {
		resp["warning"] = "change kept in memory only, durable storage rejected the write"
	}
	return resp
}

func pathID(r *http.Request) (int, error) {
	return strconv.Atoi(mux.Vars(r)["id"])
}

// HealthHandler reports service liveness
func (a *API) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListPatientsHandler handles GET /patients with optional filters
func (a *API) ListPatientsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := clinic.PatientFilter{
		Search: q.Get("search"),
		Status: q.Get("status"),
		Unit:   q.Get("unit"),
		ACS:    q.Get("acs"),
	}

	patients := a.Patients.Filter(filter)

	log.Debug().
		Str("search", filter.Search).
		Str("status", filter.Status).
		Int("matched", len(patients)).
		Msg("Patients listed")

	writeJSON(w, http.StatusOK, patients)
}

// CreatePatientHandler handles POST /patients
func (a *API) CreatePatientHandler(w http.ResponseWriter, r *http.Request) {
	var fields clinic.PatientFields
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		log.Error().Err(err).Msg("Failed to decode patient payload")
		writeError(w, http.StatusBadRequest, "invalid JSON format")
		return
	}

	patient, persisted, err := a.Patients.Create(r.Context(), fields)
	if err != nil {
		writeRepoError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, mutationResponse(patient, persisted))
}

// GetPatientHandler handles GET /patients/{id}
func (a *API) GetPatientHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	patient, err := a.Patients.Get(id)
	if err != nil {
		writeRepoError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, patient)
}

// UpdatePatientHandler handles PUT /patients/{id}
func (a *API) UpdatePatientHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var fields clinic.PatientFields
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		log.Error().Err(err).Msg("Failed to decode patient payload")
		writeError(w, http.StatusBadRequest, "invalid JSON format")
		return
	}

	patient, persisted, err := a.Patients.Update(r.Context(), id, fields)
	if err != nil {
		writeRepoError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, mutationResponse(patient, persisted))
}

// DeletePatientHandler handles DELETE /patients/{id}. The delete does
// not cascade: documents referencing the patient are left in place.
func (a *API) DeletePatientHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	persisted, err := a.Patients.Delete(r.Context(), id)
	if err != nil {
		writeRepoError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, mutationResponse(id, persisted))
}

// PatientDocumentsHandler handles GET /patients/{id}/documents
func (a *API) PatientDocumentsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	writeJSON(w, http.StatusOK, a.Documents.ByPatient(id))
}

// ACSSuggestionsHandler handles GET /patients/acs-suggestions
func (a *API) ACSSuggestionsHandler(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("term")
	writeJSON(w, http.StatusOK, a.Patients.ACSSuggestions(term))
}

// ListDocumentsHandler handles GET /documents with optional filters
func (a *API) ListDocumentsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := clinic.DocumentFilter{Search: q.Get("search")}
	if raw := q.Get("patient"); raw != "" {
		patientID, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid patient filter")
			return
		}
		filter.PatientID = patientID
	}

	writeJSON(w, http.StatusOK, a.Documents.Filter(filter))
}

// UploadDocumentHandler handles POST /documents as a multipart upload.
// Size and MIME type are validated before any mutation occurs.
func (a *API) UploadDocumentHandler(w http.ResponseWriter, r *http.Request) {
	// One extra MiB of headroom for the non-file form fields.
	r.Body = http.MaxBytesReader(w, r.Body, clinic.MaxUploadSize+1024*1024)
	if err := r.ParseMultipartForm(clinic.MaxUploadSize); err != nil {
		log.Warn().Err(err).Msg("Upload rejected while parsing multipart body")
		writeError(w, http.StatusRequestEntityTooLarge, "file exceeds the 16 MB limit")
		return
	}

	patientID, err := strconv.Atoi(r.FormValue("patientId"))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "patientId: required field missing")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "file: required field missing")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		log.Error().Err(err).Msg("Failed to read uploaded file")
		writeError(w, http.StatusInternalServerError, "failed to read uploaded file")
		return
	}

	upload := clinic.Upload{
		PatientID:   patientID,
		Title:       r.FormValue("title"),
		FileName:    header.Filename,
		MimeType:    header.Header.Get("Content-Type"),
		Description: r.FormValue("description"),
		Content:     content,
	}
	if upload.Title == "" {
		upload.Title = header.Filename
	}

	document, persisted, err := a.Documents.Create(r.Context(), upload)
	if err != nil {
		writeRepoError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, mutationResponse(document, persisted))
}

// GetDocumentHandler handles GET /documents/{id}
func (a *API) GetDocumentHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	document, err := a.Documents.Get(id)
	if err != nil {
		writeRepoError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, document)
}

// DocumentContentHandler handles GET /documents/{id}/content, serving
// the decoded file bytes under their original MIME type and filename.
func (a *API) DocumentContentHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	content, mimeType, err := a.Documents.Content(id)
	if err != nil {
		if errors.Is(err, clinic.ErrNotFound) {
			writeRepoError(w, err)
			return
		}
		log.Error().Err(err).Int("id", id).Msg("Stored file content could not be decoded")
		writeError(w, http.StatusInternalServerError, "stored file content could not be decoded")
		return
	}

	document, _ := a.Documents.Get(id)
	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+document.FileName+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(content)
}

// DeleteDocumentHandler handles DELETE /documents/{id}
func (a *API) DeleteDocumentHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	persisted, err := a.Documents.Delete(r.Context(), id)
	if err != nil {
		writeRepoError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, mutationResponse(id, persisted))
}

// GetSettingsHandler handles GET /settings. Served from the in-memory
// mirror so the response stays consistent with what PUT acknowledged,
// even after a soft storage failure.
func (a *API) GetSettingsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.Persistence.Settings())
}

// UpdateSettingsHandler handles PUT /settings, overwriting the
// configuration wholesale after validation.
func (a *API) UpdateSettingsHandler(w http.ResponseWriter, r *http.Request) {
	var settings clinic.UnitSettings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		log.Error().Err(err).Msg("Failed to decode settings payload")
		writeError(w, http.StatusBadRequest, "invalid JSON format")
		return
	}

	settings.TelefoneContato = clinic.FormatPhone(settings.TelefoneContato)
	if err := clinic.ValidateSettings(settings); err != nil {
		writeRepoError(w, err)
		return
	}

	persisted := true
	if err := a.Persistence.SaveSettings(r.Context(), settings); err != nil {
		persisted = false
	} else {
		a.Persistence.Snapshot(r.Context())
	}

	writeJSON(w, http.StatusOK, mutationResponse(settings, persisted))
}

// StatsHandler handles GET /stats: persistence counters plus the
// dashboard figures derived from the patient collection.
func (a *API) StatsHandler(w http.ResponseWriter, r *http.Request) {
	stats := a.Persistence.Stats()
	statusCounts := a.Patients.StatusCounts()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"totalPacientes":          stats.TotalPacientes,
		"totalDocumentos":         stats.TotalDocumentos,
		"ultimaAtualizacao":       stats.UltimaAtualizacao,
		"backupDisponivel":        stats.BackupDisponivel,
		"emAcompanhamento":        statusCounts["Em acompanhamento"],
		"melhoraSignificativa":    statusCounts["Melhora significativa"],
		"distribuicaoStatus":      statusCounts,
		"armazenamentoDocumentos": clinic.FormatSize(a.Documents.StoredBytes()),
	})
}

// BackupHandler handles POST /backup, capturing a snapshot of the
// three collections. Only the latest capture is retained.
func (a *API) BackupHandler(w http.ResponseWriter, r *http.Request) {
	backup := a.Persistence.Snapshot(r.Context())

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"timestamp":  backup.Timestamp,
		"pacientes":  len(backup.Pacientes),
		"documentos": len(backup.Documentos),
	})
}
