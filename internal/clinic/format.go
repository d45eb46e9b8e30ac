package clinic

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"
)

var (
	nonDigitRe  = regexp.MustCompile(`\D`)
	mobileRe    = regexp.MustCompile(`^(\d{2})(\d{5})(\d{4})$`)
	phoneMaskRe = regexp.MustCompile(`^\(\d{2}\)\s\d{4,5}-\d{4}$`)
	emailRe     = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// FormatPhone normalizes an eleven-digit Brazilian number to the
// "(xx) xxxxx-xxxx" display format. Anything else passes through as-is.
func FormatPhone(phone string) string {
	cleaned := nonDigitRe.ReplaceAllString(phone, "")
	if m := mobileRe.FindStringSubmatch(cleaned); m != nil {
		return fmt.Sprintf("(%s) %s-%s", m[1], m[2], m[3])
	}
	return phone
}

// ValidPhoneMask reports whether the value already carries the display
// mask, e.g. "(85) 3366-1234".
func ValidPhoneMask(phone string) bool {
	return phoneMaskRe.MatchString(phone)
}

// ValidEmail reports whether the value looks like an e-mail address.
func ValidEmail(email string) bool {
	return emailRe.MatchString(email)
}

// FileTypeLabel derives the coarse file-type label from a MIME type.
func FileTypeLabel(mimeType string) string {
	switch {
	case strings.Contains(mimeType, "pdf"):
		return "PDF"
	case strings.Contains(mimeType, "image"):
		return "Imagem"
	default:
		return "Documento"
	}
}

// FileExtension extracts the upper-cased extension from a filename.
func FileExtension(fileName string) string {
	idx := strings.LastIndex(fileName, ".")
	if idx < 0 || idx == len(fileName)-1 {
		return ""
	}
	return strings.ToUpper(fileName[idx+1:])
}

// UploadSize renders a byte count the way stored document records carry
// it: whole kilobytes, e.g. "2 KB". Halves round away from zero, so
// 2560 bytes is "3 KB".
func UploadSize(bytes int) string {
	return fmt.Sprintf("%.0f KB", math.Round(float64(bytes)/1024))
}

// FormatSize renders a byte count with a unit scaled to its magnitude.
func FormatSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}
	const k = 1024
	sizes := []string{"Bytes", "KB", "MB", "GB"}
	i := int(math.Floor(math.Log(float64(bytes)) / math.Log(k)))
	if i >= len(sizes) {
		i = len(sizes) - 1
	}
	return fmt.Sprintf("%v %s", math.Round(float64(bytes)/math.Pow(k, float64(i))*100)/100, sizes[i])
}

// Today returns the current date as a YYYY-MM-DD string, the format all
// record dates are stored in.
func Today() string {
	return time.Now().UTC().Format("2006-01-02")
}
