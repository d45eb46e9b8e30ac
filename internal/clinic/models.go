package clinic

// Patient represents one clinic attendee. Field names mirror the stored
// JSON shape; dates are YYYY-MM-DD strings.
type Patient struct {
	ID                    int    `json:"id"`
	Nome                  string `json:"nome"`
	Idade                 int    `json:"idade"`
	Sexo                  string `json:"sexo"`
	Telefone              string `json:"telefone"`
	Endereco              string `json:"endereco"`
	PostoSaude            string `json:"posto_saude"`
	ACSResponsavel        string `json:"acs_responsavel"`
	QueixaPrincipal       string `json:"queixa_principal"`
	HistoricoFamiliar     string `json:"historico_familiar"`
	HistoricoSaudeMental  string `json:"historico_saude_mental"`
	TratamentosAnteriores string `json:"tratamentos_anteriores"`
	FatoresRisco          string `json:"fatores_risco"`
	FatoresProtecao       string `json:"fatores_protecao"`
	Evolucao              string `json:"evolucao"`
	Conduta               string `json:"conduta"`
	Observacoes           string `json:"observacoes"`
	Status                string `json:"status"`
	DataCadastro          string `json:"data_cadastro"`
	DataUltimaEdicao      string `json:"data_ultima_edicao"`
}

// PatientFields carries the editable attributes of a patient. Both
// Create and Update consume the full set; Update replaces the stored
// values with them wholesale.
type PatientFields struct {
	Nome                  string `json:"nome"`
	Idade                 int    `json:"idade"`
	Sexo                  string `json:"sexo"`
	Telefone              string `json:"telefone"`
	Endereco              string `json:"endereco"`
	PostoSaude            string `json:"posto_saude"`
	ACSResponsavel        string `json:"acs_responsavel"`
	QueixaPrincipal       string `json:"queixa_principal"`
	HistoricoFamiliar     string `json:"historico_familiar"`
	HistoricoSaudeMental  string `json:"historico_saude_mental"`
	TratamentosAnteriores string `json:"tratamentos_anteriores"`
	FatoresRisco          string `json:"fatores_risco"`
	FatoresProtecao       string `json:"fatores_protecao"`
	Evolucao              string `json:"evolucao"`
	Conduta               string `json:"conduta"`
	Observacoes           string `json:"observacoes"`
	Status                string `json:"status"`
}

// Document represents one file attached to a patient. FileContent is a
// self-describing data URL embedding both the MIME type and the payload.
// PatientName is captured at upload time and never refreshed afterwards.
type Document struct {
	ID            int    `json:"id"`
	PatientID     int    `json:"patientId"`
	PatientName   string `json:"patientName"`
	Title         string `json:"title"`
	FileName      string `json:"fileName"`
	FileType      string `json:"fileType"`
	FileExtension string `json:"fileExtension"`
	MimeType      string `json:"mimeType"`
	Description   string `json:"description"`
	UploadDate    string `json:"uploadDate"`
	Size          string `json:"size"`
	FileContent   string `json:"fileContent"`
}

// UnitSettings is the singleton clinic configuration, overwritten
// wholesale on save.
type UnitSettings struct {
	NomeUnidade        string `json:"nomeUnidade"`
	ResponsavelTecnico string `json:"responsavelTecnico"`
	CRPResponsavel     string `json:"crpResponsavel"`
	TelefoneContato    string `json:"telefoneContato"`
	EnderecoUnidade    string `json:"enderecoUnidade"`
	EmailContato       string `json:"emailContato"`
}

// Backup is a point-in-time copy of the three collections. At most one
// is retained; each capture overwrites the previous one. Capture-only.
type Backup struct {
	Timestamp     string       `json:"timestamp"`
	Pacientes     []Patient    `json:"pacientes"`
	Documentos    []Document   `json:"documentos"`
	Configuracoes UnitSettings `json:"configuracoes"`
}

// Stats summarizes the persisted dataset.
type Stats struct {
	TotalPacientes    int    `json:"totalPacientes"`
	TotalDocumentos   int    `json:"totalDocumentos"`
	UltimaAtualizacao string `json:"ultimaAtualizacao"`
	BackupDisponivel  bool   `json:"backupDisponivel"`
}
