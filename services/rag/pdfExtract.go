package rag

import (
	"eduquiz/config"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/go-resty/resty/v2"
)

// \s in Go regexp is ASCII-only; \p{Zs} picks up no-break spaces and the
// other Unicode space separators common in Tika output
var whitespaceRe = regexp.MustCompile(`[\s\p{Zs}]+`)

// NormalizeWhitespace collapses runs of whitespace into single spaces
func NormalizeWhitespace(text string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}

// ExtractPDFText sends PDF bytes to the configured Apache Tika server and
// returns the extracted plain text, whitespace-normalized.
func ExtractPDFText(data []byte) (string, error) {
	client := resty.New()
	resp, err := client.R().
		SetHeader("Content-Type", "application/pdf").
		SetHeader("Accept", "text/plain").
		SetBody(data).
		Put(config.AppConfig.TikaURL + "/tika")
	if err != nil {
		return "", fmt.Errorf("tika request failed: %w", err)
	}
	if resp.StatusCode() != 200 {
		return "", fmt.Errorf("tika returned status %d: %s", resp.StatusCode(), resp.String())
	}

	text := NormalizeWhitespace(resp.String())
	log.Printf("Extracted %d characters from PDF via Tika", len(text))
	return text, nil
}
