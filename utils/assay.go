package utils

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ywy929/assay-dashboard-backend/models"
)

// FormatFinalResult renders the numeric result for certificates and
// responses. Negative sentinels map to their status codes.
func FormatFinalResult(value float64) string {
	switch value {
	case models.FinalResultRejected:
		return "REJ"
	case models.FinalResultRedo:
		return "REDO"
	case models.FinalResultLow:
		return "LOW"
	case 0:
		return ""
	default:
		return fmt.Sprintf("%.1f", value)
	}
}

var invalidFilenameChars = regexp.MustCompile(`[/\\:*?"<>|]`)

// SanitizeFilename replaces characters that are invalid in filenames.
func SanitizeFilename(name string) string {
	sanitized := invalidFilenameChars.ReplaceAllString(name, "_")
	return strings.Trim(sanitized, ". ")
}

// BuildPDFFilename builds CustomerName_A1_A2.pdf from a customer name and
// the item codes on the certificate.
func BuildPDFFilename(customerName string, itemCodes []string) string {
	namePart := SanitizeFilename(customerName)
	if namePart == "" {
		namePart = "assay"
	}
	codes := make([]string, 0, len(itemCodes))
	for _, code := range itemCodes {
		if code != "" {
			codes = append(codes, SanitizeFilename(code))
		}
	}
	if len(codes) == 0 {
		return namePart + ".pdf"
	}
	return namePart + "_" + strings.Join(codes, "_") + ".pdf"
}
