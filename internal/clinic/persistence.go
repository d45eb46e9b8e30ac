package clinic

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"saudemental.app/nusam/internal/metrics"
	"saudemental.app/nusam/internal/storage"
)

// Storage keys, one per collection plus the derived bookkeeping values.
// KeyUsuarios is reserved in the key set but not used by the service.
const (
	KeyPacientes         = "saudemental_pacientes"
	KeyDocumentos        = "saudemental_documentos"
	KeyConfiguracoes     = "saudemental_configuracoes"
	KeyUsuarios          = "saudemental_usuarios"
	KeyBackup            = "saudemental_backup"
	KeyUltimaAtualizacao = "saudemental_ultima_atualizacao"
)

// Persistence mirrors the three record collections into the key-value
// store. Every save re-serializes the whole collection; there are no
// partial writes. Storage failures are soft: they are logged, counted
// and returned, but the in-memory mirror remains the source of truth
// for the rest of the session.
type Persistence struct {
	store storage.Store

	mu                sync.Mutex
	pacientes         []Patient
	documentos        []Document
	configuracoes     UnitSettings
	backup            *Backup
	ultimaAtualizacao string
}

// NewPersistence creates the persistence service and loads whatever the
// store already holds into the mirror.
func NewPersistence(store storage.Store) *Persistence {
	p := &Persistence{
		store:             store,
		pacientes:         []Patient{},
		documentos:        []Document{},
		ultimaAtualizacao: time.Now().UTC().Format(time.RFC3339),
	}
	p.loadAll(context.Background())
	return p
}

func (p *Persistence) loadAll(ctx context.Context) {
	p.pacientes = p.LoadPatients(ctx)
	p.documentos = p.LoadDocuments(ctx)
	p.configuracoes = p.LoadSettings(ctx)

	if raw, err := p.store.Get(ctx, KeyUltimaAtualizacao); err == nil {
		p.ultimaAtualizacao = raw
	}
	if raw, err := p.store.Get(ctx, KeyBackup); err == nil {
		var b Backup
		if err := json.Unmarshal([]byte(raw), &b); err == nil {
			p.backup = &b
		}
	}

	log.Info().
		Int("patients", len(p.pacientes)).
		Int("documents", len(p.documentos)).
		Msg("Collections loaded from storage")
}

// LoadPatients returns the persisted patient collection, or an empty
// list when the key is absent or its contents cannot be decoded.
func (p *Persistence) LoadPatients(ctx context.Context) []Patient {
	patients := []Patient{}
	p.loadCollection(ctx, KeyPacientes, &patients)
	return patients
}

// LoadDocuments returns the persisted document collection, or an empty
// list when the key is absent or its contents cannot be decoded.
func (p *Persistence) LoadDocuments(ctx context.Context) []Document {
	documents := []Document{}
	p.loadCollection(ctx, KeyDocumentos, &documents)
	return documents
}

// LoadSettings returns the persisted unit settings, or the zero record
// when the key is absent or its contents cannot be decoded.
func (p *Persistence) LoadSettings(ctx context.Context) UnitSettings {
	var settings UnitSettings
	p.loadCollection(ctx, KeyConfiguracoes, &settings)
	return settings
}

// loadCollection deserializes one key into out. Absence and corruption
// both leave out at its empty default; the caller never sees a hard
// failure.
func (p *Persistence) loadCollection(ctx context.Context, key string, out interface{}) {
	raw, err := p.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, storage.ErrKeyNotFound) {
			log.Warn().Err(err).Str("key", key).Msg("Failed to read collection from storage")
			metrics.RecordStorageFailure("read")
		}
		return
	}

	if err := json.Unmarshal([]byte(raw), out); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Stored collection is not valid JSON, using empty default")
		return
	}
}

// SavePatients replaces the patient mirror and persists it. The returned
// error is a soft signal for the caller; the mirror is updated first and
// stays authoritative either way.
func (p *Persistence) SavePatients(ctx context.Context, patients []Patient) error {
	p.mu.Lock()
	p.pacientes = append([]Patient(nil), patients...)
	p.mu.Unlock()

	err := p.saveCollection(ctx, KeyPacientes, patients)
	if err == nil {
		log.Info().Int("count", len(patients)).Msg("Patients saved to storage")
	}
	metrics.SetRecordCount("pacientes", len(patients))
	return err
}

// SaveDocuments replaces the document mirror and persists it.
func (p *Persistence) SaveDocuments(ctx context.Context, documents []Document) error {
	p.mu.Lock()
	p.documentos = append([]Document(nil), documents...)
	p.mu.Unlock()

	err := p.saveCollection(ctx, KeyDocumentos, documents)
	if err == nil {
		log.Info().Int("count", len(documents)).Msg("Documents saved to storage")
	}
	metrics.SetRecordCount("documentos", len(documents))
	return err
}

// SaveSettings replaces the settings mirror and persists it.
func (p *Persistence) SaveSettings(ctx context.Context, settings UnitSettings) error {
	p.mu.Lock()
	p.configuracoes = settings
	p.mu.Unlock()

	err := p.saveCollection(ctx, KeyConfiguracoes, settings)
	if err == nil {
		log.Info().Msg("Unit settings saved to storage")
	}
	return err
}

// saveCollection serializes data under key and refreshes the global
// last-updated stamp. Write failures are logged and counted; the caller
// receives them as a soft return value.
func (p *Persistence) saveCollection(ctx context.Context, key string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		// Records are plain data; marshalling them cannot realistically
		// fail, but the contract stays soft regardless.
		log.Warn().Err(err).Str("key", key).Msg("Failed to serialize collection")
		return err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	p.mu.Lock()
	p.ultimaAtualizacao = now
	p.mu.Unlock()

	if err := p.store.Put(ctx, key, string(payload)); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to write collection to storage")
		metrics.RecordStorageFailure("write")
		return err
	}
	if err := p.store.Put(ctx, KeyUltimaAtualizacao, now); err != nil {
		log.Warn().Err(err).Msg("Failed to write last-updated stamp")
		metrics.RecordStorageFailure("write")
	}
	return nil
}

// Snapshot captures a backup of the three mirrored collections and
// attempts to persist it. Only the latest capture is retained. A
// persistence failure of the backup itself is non-fatal.
func (p *Persistence) Snapshot(ctx context.Context) Backup {
	p.mu.Lock()
	backup := Backup{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Pacientes:     append([]Patient(nil), p.pacientes...),
		Documentos:    append([]Document(nil), p.documentos...),
		Configuracoes: p.configuracoes,
	}
	p.backup = &backup
	p.mu.Unlock()

	payload, err := json.Marshal(backup)
	if err == nil {
		err = p.store.Put(ctx, KeyBackup, string(payload))
	}
	if err != nil {
		log.Warn().Err(err).Msg("Failed to persist backup snapshot")
		metrics.RecordStorageFailure("write")
	} else {
		log.Info().Str("timestamp", backup.Timestamp).Msg("Backup snapshot persisted")
	}

	return backup
}

// InitializeDefaults seeds the store with the provided defaults when no
// patients have ever been persisted. Otherwise existing storage wins and
// the mirror is reloaded from it, which makes first-run seeding
// idempotent and storage-authoritative thereafter.
func (p *Persistence) InitializeDefaults(ctx context.Context, patients []Patient, documents []Document, settings UnitSettings) {
	_, err := p.store.Get(ctx, KeyPacientes)
	if errors.Is(err, storage.ErrKeyNotFound) {
		log.Info().Msg("No persisted data found, seeding defaults")
		p.SavePatients(ctx, patients)
		p.SaveDocuments(ctx, documents)
		p.SaveSettings(ctx, settings)
		return
	}

	log.Info().Msg("Persisted data already present, reloading from storage")
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loadAllLocked(ctx)
}

func (p *Persistence) loadAllLocked(ctx context.Context) {
	// Loads do not touch the mutex themselves, so holding it here is safe.
	p.pacientes = p.LoadPatients(ctx)
	p.documentos = p.LoadDocuments(ctx)
	p.configuracoes = p.LoadSettings(ctx)
}

// Settings returns the mirrored unit settings. Reads go through the
// mirror, not the store, so a soft-failed save still serves the record
// the caller was told was accepted.
func (p *Persistence) Settings() UnitSettings {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.configuracoes
}

// Stats reports current dataset counters. Pure read, no side effect.
func (p *Persistence) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		TotalPacientes:    len(p.pacientes),
		TotalDocumentos:   len(p.documentos),
		UltimaAtualizacao: p.ultimaAtualizacao,
		BackupDisponivel:  p.backup != nil,
	}
}
