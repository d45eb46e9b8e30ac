package clinic

// HealthPosts is the fixed set of originating health facilities a
// patient can be assigned to.
var HealthPosts = []string{
	"FRANCISCO MACHADO ALCANTARA",
	"DOUTOR SHIGUEO NAKAMURA",
	"JOAQUIM XIMENES CARVALHO",
	"HOSPITAL ANTONIO ROCHA FREIRE",
	"SITIO SAQUINHO",
	"RAIMUNDO NONATO - Carmolândia",
	"VEREADOR JOSE REINALDO",
	"RAIMUNDO NONATO - Bonfim",
}

// FollowUpStatuses is the fixed set of follow-up states.
var FollowUpStatuses = []string{
	"Em acompanhamento",
	"Melhora significativa",
	"Alta terapêutica",
	"Estável",
	"Em recuperação",
	"Faltoso",
	"Encaminhado para CAPS",
}

// DefaultUnitSettings returns the clinic configuration used when no
// settings have ever been persisted.
func DefaultUnitSettings() UnitSettings {
	return UnitSettings{
		NomeUnidade:        "Núcleo de Saúde Mental - Alcântaras/CE",
		ResponsavelTecnico: "Sarah Jayane",
		CRPResponsavel:     "11/12345",
		TelefoneContato:    "(85) 3366-1234",
		EnderecoUnidade:    "Rua da Saúde, 100 - Centro, Alcântaras/CE",
		EmailContato:       "saudemental@alcantaras.ce.gov.br",
	}
}
