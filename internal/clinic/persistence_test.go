package clinic

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saudemental.app/nusam/internal/storage"
)

// brokenStore fails every write while reads pass through to an inner
// memory store. Used to exercise the soft-failure contract.
type brokenStore struct {
	inner *storage.MemoryStore
}

func (s *brokenStore) Get(ctx context.Context, key string) (string, error) {
	return s.inner.Get(ctx, key)
}

func (s *brokenStore) Put(ctx context.Context, key string, value string) error {
	return errors.New("bucket unavailable")
}

func (s *brokenStore) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, key)
}

func TestPersistenceRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	p := NewPersistence(store)

	patients := []Patient{
		{ID: 1, Nome: "Maria Silva", Status: "Em acompanhamento", DataCadastro: "2025-01-10"},
		{ID: 2, Nome: "João Santos", Status: "Estável", DataCadastro: "2025-02-03"},
	}
	require.NoError(t, p.SavePatients(ctx, patients))

	// A fresh service over the same store sees the same records.
	reloaded := NewPersistence(store).LoadPatients(ctx)
	require.Len(t, reloaded, 2)
	assert.Equal(t, patients, reloaded)
}

func TestPersistenceSettingsRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	p := NewPersistence(store)

	settings := DefaultUnitSettings()
	settings.EmailContato = "nusam@alcantaras.ce.gov.br"
	require.NoError(t, p.SaveSettings(ctx, settings))

	assert.Equal(t, settings, NewPersistence(store).LoadSettings(ctx))
}

func TestPersistenceCorruptCollectionFallsBackToEmpty(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	store.Put(ctx, KeyPacientes, "{not json")

	p := NewPersistence(store)
	assert.Empty(t, p.LoadPatients(ctx))
}

func TestPersistenceSaveFailureIsSoft(t *testing.T) {
	ctx := context.Background()
	p := NewPersistence(&brokenStore{inner: storage.NewMemoryStore()})

	err := p.SavePatients(ctx, []Patient{{ID: 1, Nome: "Maria Silva"}})
	require.Error(t, err)

	// The mirror keeps the record even though the write failed.
	assert.Equal(t, 1, p.Stats().TotalPacientes)
}

func TestSettingsMirrorSurvivesStorageFailure(t *testing.T) {
	ctx := context.Background()
	p := NewPersistence(&brokenStore{inner: storage.NewMemoryStore()})

	custom := UnitSettings{NomeUnidade: "CAPS Regional", ResponsavelTecnico: "Dra. Ana", EnderecoUnidade: "Rua A, 1"}
	require.Error(t, p.SaveSettings(ctx, custom))

	// The mirror serves the accepted record even though the write failed.
	assert.Equal(t, custom, p.Settings())
}

func TestInitializeDefaultsSeedsEmptyStore(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	p := NewPersistence(store)

	p.InitializeDefaults(ctx, []Patient{}, []Document{}, DefaultUnitSettings())

	settings := p.LoadSettings(ctx)
	assert.Equal(t, "Núcleo de Saúde Mental - Alcântaras/CE", settings.NomeUnidade)

	// The patients key now exists, holding the empty collection.
	raw, err := store.Get(ctx, KeyPacientes)
	require.NoError(t, err)
	assert.Equal(t, "[]", raw)
}

func TestInitializeDefaultsDoesNotOverwriteExistingData(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	p := NewPersistence(store)

	require.NoError(t, p.SavePatients(ctx, []Patient{{ID: 1, Nome: "Maria Silva"}}))
	custom := UnitSettings{NomeUnidade: "CAPS Regional", ResponsavelTecnico: "Dra. Ana", EnderecoUnidade: "Rua A, 1"}
	require.NoError(t, p.SaveSettings(ctx, custom))

	p.InitializeDefaults(ctx, []Patient{}, []Document{}, DefaultUnitSettings())

	patients := p.LoadPatients(ctx)
	require.Len(t, patients, 1)
	assert.Equal(t, "Maria Silva", patients[0].Nome)
	assert.Equal(t, custom, p.LoadSettings(ctx))
}

func TestSnapshotCapturesAllCollections(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	p := NewPersistence(store)

	require.NoError(t, p.SavePatients(ctx, []Patient{{ID: 1, Nome: "Maria Silva"}}))
	require.NoError(t, p.SaveDocuments(ctx, []Document{{ID: 1, PatientID: 1, Title: "Laudo"}}))

	assert.False(t, p.Stats().BackupDisponivel)

	backup := p.Snapshot(ctx)
	assert.NotEmpty(t, backup.Timestamp)
	assert.Len(t, backup.Pacientes, 1)
	assert.Len(t, backup.Documentos, 1)
	assert.True(t, p.Stats().BackupDisponivel)

	// The snapshot is durable and visible to a fresh service.
	assert.True(t, NewPersistence(store).Stats().BackupDisponivel)
}

func TestSnapshotKeepsOnlyLatestCapture(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	p := NewPersistence(store)

	require.NoError(t, p.SavePatients(ctx, []Patient{{ID: 1, Nome: "Maria Silva"}}))
	first := p.Snapshot(ctx)

	require.NoError(t, p.SavePatients(ctx, []Patient{
		{ID: 1, Nome: "Maria Silva"},
		{ID: 2, Nome: "João Santos"},
	}))
	second := p.Snapshot(ctx)

	assert.Len(t, first.Pacientes, 1)
	assert.Len(t, second.Pacientes, 2)

	raw, err := store.Get(ctx, KeyBackup)
	require.NoError(t, err)
	assert.Contains(t, raw, "João Santos")
}

func TestStatsCountsCollections(t *testing.T) {
	ctx := context.Background()
	p := NewPersistence(storage.NewMemoryStore())

	require.NoError(t, p.SavePatients(ctx, []Patient{{ID: 1}, {ID: 2}, {ID: 3}}))
	require.NoError(t, p.SaveDocuments(ctx, []Document{{ID: 1}}))

	stats := p.Stats()
	assert.Equal(t, 3, stats.TotalPacientes)
	assert.Equal(t, 1, stats.TotalDocumentos)
	assert.NotEmpty(t, stats.UltimaAtualizacao)
	assert.False(t, stats.BackupDisponivel)
}
