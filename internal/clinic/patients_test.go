package clinic

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saudemental.app/nusam/internal/storage"
)

func newTestPatients(t *testing.T) *PatientRepository {
	t.Helper()
	return NewPatientRepository(NewPersistence(storage.NewMemoryStore()))
}

func TestPatientCreate(t *testing.T) {
	repo := newTestPatients(t)

	patient, persisted, err := repo.Create(context.Background(), PatientFields{
		Nome:            "Maria Silva",
		Idade:           34,
		Sexo:            "Feminino",
		Telefone:        "88999887766",
		PostoSaude:      "SITIO SAQUINHO",
		ACSResponsavel:  "  Carlos Lima  ",
		QueixaPrincipal: "Ansiedade",
		Status:          "Em acompanhamento",
	})
	require.NoError(t, err)
	assert.True(t, persisted)

	assert.Equal(t, 1, patient.ID)
	assert.Equal(t, "(88) 99988-7766", patient.Telefone)
	assert.Equal(t, "Carlos Lima", patient.ACSResponsavel)
	assert.Equal(t, Today(), patient.DataCadastro)
	assert.Equal(t, Today(), patient.DataUltimaEdicao)
}

func TestPatientCreateRequiresName(t *testing.T) {
	repo := newTestPatients(t)

	_, _, err := repo.Create(context.Background(), PatientFields{Nome: "   "})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.Empty(t, repo.All())
}

func TestPatientIDsAreMonotonic(t *testing.T) {
	ctx := context.Background()
	repo := newTestPatients(t)

	first, _, err := repo.Create(ctx, PatientFields{Nome: "Maria Silva"})
	require.NoError(t, err)
	second, _, err := repo.Create(ctx, PatientFields{Nome: "João Santos"})
	require.NoError(t, err)
	third, _, err := repo.Create(ctx, PatientFields{Nome: "Ana Costa"})
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3}, []int{first.ID, second.ID, third.ID})

	// Deleting the highest id frees it for reuse.
	_, err = repo.Delete(ctx, third.ID)
	require.NoError(t, err)
	reused, _, err := repo.Create(ctx, PatientFields{Nome: "Pedro Rocha"})
	require.NoError(t, err)
	assert.Equal(t, 3, reused.ID)
}

func TestPatientUpdateOverwritesEditableFields(t *testing.T) {
	ctx := context.Background()
	repo := newTestPatients(t)

	created, _, err := repo.Create(ctx, PatientFields{
		Nome:        "Maria Silva",
		Idade:       34,
		Endereco:    "Rua das Flores, 12",
		Observacoes: "Retornar em 30 dias",
		Status:      "Em acompanhamento",
	})
	require.NoError(t, err)

	updated, persisted, err := repo.Update(ctx, created.ID, PatientFields{
		Nome:     "Maria Silva",
		Telefone: "88911223344",
		Status:   "Melhora significativa",
	})
	require.NoError(t, err)
	assert.True(t, persisted)

	// The whole editable record takes the submitted values; an emptied
	// field is cleared, not preserved.
	assert.Equal(t, "Melhora significativa", updated.Status)
	assert.Equal(t, "(88) 91122-3344", updated.Telefone)
	assert.Equal(t, "", updated.Observacoes)
	assert.Equal(t, "", updated.Endereco)
	assert.Equal(t, 0, updated.Idade)

	// Identity and registration date are immutable.
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, created.DataCadastro, updated.DataCadastro)
}

func TestPatientUpdateRequiresName(t *testing.T) {
	ctx := context.Background()
	repo := newTestPatients(t)

	created, _, err := repo.Create(ctx, PatientFields{Nome: "Maria Silva", Status: "Em acompanhamento"})
	require.NoError(t, err)

	_, _, err = repo.Update(ctx, created.ID, PatientFields{Status: "Faltoso"})
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	// The rejected update left the record untouched.
	got, err := repo.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Maria Silva", got.Nome)
	assert.Equal(t, "Em acompanhamento", got.Status)
}

func TestPatientUpdateUnknownID(t *testing.T) {
	repo := newTestPatients(t)

	_, _, err := repo.Update(context.Background(), 99, PatientFields{Nome: "X"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPatientMutationRefreshesBackup(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	persistence := NewPersistence(store)
	repo := NewPatientRepository(persistence)

	assert.False(t, persistence.Stats().BackupDisponivel)

	created, _, err := repo.Create(ctx, PatientFields{Nome: "Maria Silva"})
	require.NoError(t, err)
	assert.True(t, persistence.Stats().BackupDisponivel)

	// Each mutation leaves a fresh persisted capture behind.
	_, _, err = repo.Update(ctx, created.ID, PatientFields{Nome: "Maria Souza"})
	require.NoError(t, err)

	raw, err := store.Get(ctx, KeyBackup)
	require.NoError(t, err)
	assert.Contains(t, raw, "Maria Souza")
}

func TestPatientDelete(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	persistence := NewPersistence(store)
	repo := NewPatientRepository(persistence)

	created, _, err := repo.Create(ctx, PatientFields{Nome: "Maria Silva"})
	require.NoError(t, err)

	persisted, err := repo.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, persisted)

	_, err = repo.Get(created.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// The delete reached storage too.
	assert.Empty(t, NewPersistence(store).LoadPatients(ctx))
}

func TestPatientDeleteUnknownID(t *testing.T) {
	repo := newTestPatients(t)

	_, err := repo.Delete(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPatientMutationSurvivesStorageFailure(t *testing.T) {
	ctx := context.Background()
	repo := NewPatientRepository(NewPersistence(&brokenStore{inner: storage.NewMemoryStore()}))

	patient, persisted, err := repo.Create(ctx, PatientFields{Nome: "Maria Silva"})
	require.NoError(t, err)
	assert.False(t, persisted)

	// The record exists in memory despite the failed write.
	got, err := repo.Get(patient.ID)
	require.NoError(t, err)
	assert.Equal(t, "Maria Silva", got.Nome)
}

func seedFilterPatients(t *testing.T, repo *PatientRepository) {
	t.Helper()
	ctx := context.Background()
	seed := []PatientFields{
		{Nome: "Maria Silva", Telefone: "88999887766", Endereco: "Rua das Flores, 12", PostoSaude: "SITIO SAQUINHO", ACSResponsavel: "Carlos Lima", Status: "Em acompanhamento"},
		{Nome: "João Santos", Endereco: "Avenida Central, 200", PostoSaude: "DOUTOR SHIGUEO NAKAMURA", ACSResponsavel: "Fernanda Sousa", Status: "Alta terapêutica"},
		{Nome: "Ana Costa", Endereco: "Rua das Flores, 80", PostoSaude: "SITIO SAQUINHO", ACSResponsavel: "Carlos Lima", Status: "Alta terapêutica"},
	}
	for _, fields := range seed {
		_, _, err := repo.Create(ctx, fields)
		require.NoError(t, err)
	}
}

func TestPatientFilter(t *testing.T) {
	repo := newTestPatients(t)
	seedFilterPatients(t, repo)

	tests := []struct {
		name     string
		filter   PatientFilter
		expected []string
	}{
		{
			name:     "empty filter returns everyone",
			filter:   PatientFilter{},
			expected: []string{"Maria Silva", "João Santos", "Ana Costa"},
		},
		{
			name:     "search matches name case-insensitively",
			filter:   PatientFilter{Search: "maria"},
			expected: []string{"Maria Silva"},
		},
		{
			name:     "search matches address",
			filter:   PatientFilter{Search: "rua das flores"},
			expected: []string{"Maria Silva", "Ana Costa"},
		},
		{
			name:     "search matches phone",
			filter:   PatientFilter{Search: "99988"},
			expected: []string{"Maria Silva"},
		},
		{
			name:     "status is exact",
			filter:   PatientFilter{Status: "Alta terapêutica"},
			expected: []string{"João Santos", "Ana Costa"},
		},
		{
			name:     "unit is exact",
			filter:   PatientFilter{Unit: "SITIO SAQUINHO"},
			expected: []string{"Maria Silva", "Ana Costa"},
		},
		{
			name:     "acs is substring",
			filter:   PatientFilter{ACS: "carlos"},
			expected: []string{"Maria Silva", "Ana Costa"},
		},
		{
			name:     "constraints combine with AND",
			filter:   PatientFilter{Status: "Alta terapêutica", Unit: "SITIO SAQUINHO"},
			expected: []string{"Ana Costa"},
		},
		{
			name:     "no match",
			filter:   PatientFilter{Search: "inexistente"},
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matched := repo.Filter(tt.filter)
			names := []string{}
			for _, p := range matched {
				names = append(names, p.Nome)
			}
			assert.Equal(t, tt.expected, names)
		})
	}
}

func TestPatientFilterDoesNotMutateCollection(t *testing.T) {
	repo := newTestPatients(t)
	seedFilterPatients(t, repo)

	repo.Filter(PatientFilter{Search: "ana"})

	all := repo.All()
	require.Len(t, all, 3)
	assert.Equal(t, "Maria Silva", all[0].Nome)
	assert.Equal(t, "João Santos", all[1].Nome)
	assert.Equal(t, "Ana Costa", all[2].Nome)
}

func TestACSSuggestions(t *testing.T) {
	repo := newTestPatients(t)
	seedFilterPatients(t, repo)

	// Distinct and sorted.
	assert.Equal(t, []string{"Carlos Lima", "Fernanda Sousa"}, repo.ACSSuggestions(""))
	assert.Equal(t, []string{"Carlos Lima"}, repo.ACSSuggestions("carlos"))
	assert.Equal(t, []string{}, repo.ACSSuggestions("zeca"))
}

func TestStatusCounts(t *testing.T) {
	repo := newTestPatients(t)
	seedFilterPatients(t, repo)

	counts := repo.StatusCounts()
	assert.Equal(t, 1, counts["Em acompanhamento"])
	assert.Equal(t, 2, counts["Alta terapêutica"])
	assert.Equal(t, 0, counts["Faltoso"])
}
