package clinic

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/vincent-petithory/dataurl"

	"saudemental.app/nusam/internal/metrics"
)

// MaxUploadSize caps uploads at 16 MiB. Enforced at the upload entry
// point only; stored records carry whatever was accepted at the time.
const MaxUploadSize = 16 * 1024 * 1024

// AllowedMimeTypes is the fixed set of accepted upload content types.
var AllowedMimeTypes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
}

// Upload describes one file being attached to a patient.
type Upload struct {
	PatientID   int
	Title       string
	FileName    string
	MimeType    string
	Description string
	Content     []byte
}

// DocumentRepository owns the in-memory document collection. Documents
// are append-and-delete only; a stored record is never updated in
// place and its content blob is immutable.
type DocumentRepository struct {
	mu          sync.Mutex
	documents   []Document
	patients    *PatientRepository
	persistence *Persistence
}

// NewDocumentRepository creates a document repository seeded from the
// persisted collection.
func NewDocumentRepository(persistence *Persistence, patients *PatientRepository) *DocumentRepository {
	return &DocumentRepository{
		documents:   persistence.LoadDocuments(context.Background()),
		patients:    patients,
		persistence: persistence,
	}
}

// ValidateUpload applies the upload entry-point contract: required
// fields, the 16 MiB cap and the accepted MIME types. It runs before
// any mutation.
func ValidateUpload(up Upload) error {
	if strings.TrimSpace(up.Title) == "" {
		return newValidationError("title", "required field missing")
	}
	if up.FileName == "" {
		return newValidationError("file", "required field missing")
	}
	if len(up.Content) > MaxUploadSize {
		return newValidationError("file", "file exceeds the 16 MB limit")
	}
	if !AllowedMimeTypes[up.MimeType] {
		return newValidationError("file", "unsupported file type, use PDF, DOC, DOCX, JPG or PNG")
	}
	return nil
}

// Create encodes the file content into a self-contained data URL and
// appends the document. The owning patient must exist; its display name
// is captured now and never refreshed afterwards.
func (r *DocumentRepository) Create(ctx context.Context, up Upload) (Document, bool, error) {
	if err := ValidateUpload(up); err != nil {
		metrics.RecordUpload("validation_failed")
		return Document{}, false, err
	}

	patient, err := r.patients.Get(up.PatientID)
	if err != nil {
		metrics.RecordUpload("unknown_patient")
		return Document{}, false, newValidationError("patientId", "patient "+strconv.Itoa(up.PatientID)+" does not exist")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	document := Document{
		ID:            nextDocumentID(r.documents),
		PatientID:     patient.ID,
		PatientName:   patient.Nome,
		Title:         up.Title,
		FileName:      up.FileName,
		FileType:      FileTypeLabel(up.MimeType),
		FileExtension: FileExtension(up.FileName),
		MimeType:      up.MimeType,
		Description:   up.Description,
		UploadDate:    Today(),
		Size:          UploadSize(len(up.Content)),
		FileContent:   dataurl.New(up.Content, up.MimeType).String(),
	}
	r.documents = append(r.documents, document)

	persisted := r.persist(ctx)
	metrics.RecordUpload("success")
	log.Info().
		Int("id", document.ID).
		Int("patientId", document.PatientID).
		Str("title", document.Title).
		Msg("Document uploaded")
	return document, persisted, nil
}

// Delete removes a document.
func (r *DocumentRepository) Delete(ctx context.Context, id int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOf(id)
	if idx < 0 {
		return false, ErrNotFound
	}

	r.documents = append(r.documents[:idx], r.documents[idx+1:]...)

	persisted := r.persist(ctx)
	log.Info().Int("id", id).Msg("Document deleted")
	return persisted, nil
}

// Get returns one document by identifier.
func (r *DocumentRepository) Get(id int) (Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOf(id)
	if idx < 0 {
		return Document{}, ErrNotFound
	}
	return r.documents[idx], nil
}

// Content decodes the stored data URL back into the original bytes and
// their MIME type.
func (r *DocumentRepository) Content(id int) ([]byte, string, error) {
	doc, err := r.Get(id)
	if err != nil {
		return nil, "", err
	}

	decoded, err := dataurl.DecodeString(doc.FileContent)
	if err != nil {
		return nil, "", err
	}
	return decoded.Data, doc.MimeType, nil
}

// All returns a copy of the collection in insertion order.
func (r *DocumentRepository) All() []Document {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Document(nil), r.documents...)
}

// DocumentFilter is the predicate set for Filter. Empty constraints do
// not restrict; supplied constraints are combined with AND.
type DocumentFilter struct {
	Search    string // case-insensitive substring over title, patient name, description
	PatientID int    // 0 means any patient
}

// Filter returns the documents matching every supplied constraint, in
// source order.
func (r *DocumentRepository) Filter(f DocumentFilter) []Document {
	r.mu.Lock()
	defer r.mu.Unlock()

	search := strings.ToLower(f.Search)

	matched := []Document{}
	for _, d := range r.documents {
		matchesSearch := search == "" ||
			strings.Contains(strings.ToLower(d.Title), search) ||
			strings.Contains(strings.ToLower(d.PatientName), search) ||
			strings.Contains(strings.ToLower(d.Description), search)
		matchesPatient := f.PatientID == 0 || d.PatientID == f.PatientID

		if matchesSearch && matchesPatient {
			matched = append(matched, d)
		}
	}
	return matched
}

// ByPatient returns every document attached to one patient, in
// insertion order. Dangling references left by a patient delete are
// still returned.
func (r *DocumentRepository) ByPatient(patientID int) []Document {
	return r.Filter(DocumentFilter{PatientID: patientID})
}

// StoredBytes sums the decoded size of every stored content blob.
func (r *DocumentRepository) StoredBytes() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	var total int64
	for _, d := range r.documents {
		if decoded, err := dataurl.DecodeString(d.FileContent); err == nil {
			total += int64(len(decoded.Data))
		}
	}
	return total
}

func nextDocumentID(documents []Document) int {
	maxID := 0
	for _, d := range documents {
		if d.ID > maxID {
			maxID = d.ID
		}
	}
	return maxID + 1
}

func (r *DocumentRepository) indexOf(id int) int {
	for i, d := range r.documents {
		if d.ID == id {
			return i
		}
	}
	return -1
}

func (r *DocumentRepository) persist(ctx context.Context) bool {
	if err := r.persistence.SaveDocuments(ctx, r.documents); err != nil {
		log.Warn().Err(err).Msg("Document collection not persisted")
		return false
	}
	r.persistence.Snapshot(ctx)
	return true
}
