package clinic

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// PatientRepository owns the in-memory patient collection and is its
// sole writer. Every mutation is followed by a full-collection persist
// before control returns to the caller; the persist outcome is reported
// explicitly so the presentation layer can surface a warning without the
// mutation itself failing.
type PatientRepository struct {
	mu          sync.Mutex
	patients    []Patient
	persistence *Persistence
}

// NewPatientRepository creates a patient repository seeded from the
// persisted collection.
func NewPatientRepository(persistence *Persistence) *PatientRepository {
	return &PatientRepository{
		patients:    persistence.LoadPatients(context.Background()),
		persistence: persistence,
	}
}

// nextID recomputes the identifier as max(existing)+1. Acceptable for a
// single writer; the repository mutex serializes all mutations.
func nextPatientID(patients []Patient) int {
	maxID := 0
	for _, p := range patients {
		if p.ID > maxID {
			maxID = p.ID
		}
	}
	return maxID + 1
}

// Create validates and appends a new patient, stamping the registration
// and last-edit dates with today.
func (r *PatientRepository) Create(ctx context.Context, fields PatientFields) (Patient, bool, error) {
	if strings.TrimSpace(fields.Nome) == "" {
		return Patient{}, false, newValidationError("nome", "required field missing")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	today := Today()
	patient := Patient{
		ID:                    nextPatientID(r.patients),
		Nome:                  fields.Nome,
		Idade:                 fields.Idade,
		Sexo:                  fields.Sexo,
		Telefone:              FormatPhone(fields.Telefone),
		Endereco:              fields.Endereco,
		PostoSaude:            fields.PostoSaude,
		ACSResponsavel:        strings.TrimSpace(fields.ACSResponsavel),
		QueixaPrincipal:       fields.QueixaPrincipal,
		HistoricoFamiliar:     fields.HistoricoFamiliar,
		HistoricoSaudeMental:  fields.HistoricoSaudeMental,
		TratamentosAnteriores: fields.TratamentosAnteriores,
		FatoresRisco:          fields.FatoresRisco,
		FatoresProtecao:       fields.FatoresProtecao,
		Evolucao:              fields.Evolucao,
		Conduta:               fields.Conduta,
		Observacoes:           fields.Observacoes,
		Status:                fields.Status,
		DataCadastro:          today,
		DataUltimaEdicao:      today,
	}
	r.patients = append(r.patients, patient)

	persisted := r.persist(ctx)
	log.Info().Int("id", patient.ID).Str("nome", patient.Nome).Msg("Patient created")
	return patient, persisted, nil
}

// Update replaces every editable field with the submitted values and
// refreshes the last-edit date. An emptied field is cleared, the same
// way saving the full record form does; only the identifier and the
// registration date are immutable.
func (r *PatientRepository) Update(ctx context.Context, id int, fields PatientFields) (Patient, bool, error) {
	if strings.TrimSpace(fields.Nome) == "" {
		return Patient{}, false, newValidationError("nome", "required field missing")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOf(id)
	if idx < 0 {
		return Patient{}, false, ErrNotFound
	}

	p := &r.patients[idx]
	p.Nome = fields.Nome
	p.Idade = fields.Idade
	p.Sexo = fields.Sexo
	p.Telefone = FormatPhone(fields.Telefone)
	p.Endereco = fields.Endereco
	p.PostoSaude = fields.PostoSaude
	p.ACSResponsavel = strings.TrimSpace(fields.ACSResponsavel)
	p.QueixaPrincipal = fields.QueixaPrincipal
	p.HistoricoFamiliar = fields.HistoricoFamiliar
	p.HistoricoSaudeMental = fields.HistoricoSaudeMental
	p.TratamentosAnteriores = fields.TratamentosAnteriores
	p.FatoresRisco = fields.FatoresRisco
	p.FatoresProtecao = fields.FatoresProtecao
	p.Evolucao = fields.Evolucao
	p.Conduta = fields.Conduta
	p.Observacoes = fields.Observacoes
	p.Status = fields.Status
	p.DataUltimaEdicao = Today()

	persisted := r.persist(ctx)
	log.Info().Int("id", id).Msg("Patient updated")
	return *p, persisted, nil
}

// Delete removes a patient. Documents referencing it are left in place;
// the delete does not cascade.
func (r *PatientRepository) Delete(ctx context.Context, id int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOf(id)
	if idx < 0 {
		return false, ErrNotFound
	}

	r.patients = append(r.patients[:idx], r.patients[idx+1:]...)

	persisted := r.persist(ctx)
	log.Info().Int("id", id).Msg("Patient deleted")
	return persisted, nil
}

// Get returns one patient by identifier.
func (r *PatientRepository) Get(id int) (Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOf(id)
	if idx < 0 {
		return Patient{}, ErrNotFound
	}
	return r.patients[idx], nil
}

// All returns a copy of the collection in insertion order.
func (r *PatientRepository) All() []Patient {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Patient(nil), r.patients...)
}

// PatientFilter is the predicate set for Filter. Empty constraints do
// not restrict; supplied constraints are combined with AND.
type PatientFilter struct {
	Search string // case-insensitive substring over name, phone, address
	Status string // exact follow-up status
	Unit   string // exact health post
	ACS    string // case-insensitive substring over the responsible ACS
}

// Filter returns the patients matching every supplied constraint, in
// source order. Pure: the stored collection and its order are untouched.
func (r *PatientRepository) Filter(f PatientFilter) []Patient {
	r.mu.Lock()
	defer r.mu.Unlock()

	search := strings.ToLower(f.Search)
	acs := strings.ToLower(f.ACS)

	matched := []Patient{}
	for _, p := range r.patients {
		matchesSearch := search == "" ||
			strings.Contains(strings.ToLower(p.Nome), search) ||
			strings.Contains(p.Telefone, search) ||
			strings.Contains(strings.ToLower(p.Endereco), search)
		matchesStatus := f.Status == "" || p.Status == f.Status
		matchesUnit := f.Unit == "" || p.PostoSaude == f.Unit
		matchesACS := acs == "" || strings.Contains(strings.ToLower(p.ACSResponsavel), acs)

		if matchesSearch && matchesStatus && matchesUnit && matchesACS {
			matched = append(matched, p)
		}
	}
	return matched
}

// ACSSuggestions returns the distinct ACS names containing term,
// sorted. Used by the patient form autocomplete.
func (r *PatientRepository) ACSSuggestions(term string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	term = strings.ToLower(term)
	seen := map[string]bool{}
	suggestions := []string{}
	for _, p := range r.patients {
		if p.ACSResponsavel == "" || seen[p.ACSResponsavel] {
			continue
		}
		if strings.Contains(strings.ToLower(p.ACSResponsavel), term) {
			seen[p.ACSResponsavel] = true
			suggestions = append(suggestions, p.ACSResponsavel)
		}
	}
	sort.Strings(suggestions)
	return suggestions
}

// StatusCounts returns how many patients hold each follow-up status.
func (r *PatientRepository) StatusCounts() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()

	counts := map[string]int{}
	for _, status := range FollowUpStatuses {
		counts[status] = 0
	}
	for _, p := range r.patients {
		counts[p.Status]++
	}
	return counts
}

func (r *PatientRepository) indexOf(id int) int {
	for i, p := range r.patients {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// persist writes the whole collection through the persistence service
// and refreshes the rolling backup. A false return means durability was
// lost for this mutation; the in-memory collection still reflects it.
func (r *PatientRepository) persist(ctx context.Context) bool {
	if err := r.persistence.SavePatients(ctx, r.patients); err != nil {
		log.Warn().Err(err).Msg("Patient collection not persisted")
		return false
	}
	r.persistence.Snapshot(ctx)
	return true
}
