package clinic

import "strings"

// ValidateSettings applies the unit-settings form contract: required
// fields, the Brazilian phone mask and a plausible e-mail. Phone and
// e-mail are only checked when supplied.
func ValidateSettings(s UnitSettings) error {
	if strings.TrimSpace(s.NomeUnidade) == "" {
		return newValidationError("nomeUnidade", "required field missing")
	}
	if strings.TrimSpace(s.ResponsavelTecnico) == "" {
		return newValidationError("responsavelTecnico", "required field missing")
	}
	if strings.TrimSpace(s.EnderecoUnidade) == "" {
		return newValidationError("enderecoUnidade", "required field missing")
	}
	if phone := strings.TrimSpace(s.TelefoneContato); phone != "" && !ValidPhoneMask(phone) {
		return newValidationError("telefoneContato", "invalid phone format, use (85) 3366-1234")
	}
	if email := strings.TrimSpace(s.EmailContato); email != "" && !ValidEmail(email) {
		return newValidationError("emailContato", "invalid email format")
	}
	return nil
}
