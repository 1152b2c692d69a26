package fasta

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedHeader is for headers without an accession field.
var ErrMalformedHeader = errors.New("malformed header")

// strainCleaner strips characters that break downstream tree tools
var strainCleaner = strings.NewReplacer(" ", "", "'", "-", ",", "")

// Accession returns the second '|' delimited field of a GISAID header,
// ex: "hCoV-19/X/2023|EPI_ISL_1|2023-08-01" -> "EPI_ISL_1"
func Accession(header string) (string, error) {
	fields := strings.Split(header, "|")
	if len(fields) < 2 {
		return "", fmt.Errorf("%w: no accession in %q", ErrMalformedHeader, header)
	}
	return fields[1], nil
}

// StrainName normalizes the strain path in the first field of a header.
// The leading virus name is dropped and spaces, apostrophes and commas
// are cleaned up, ex: "hCoV-19/Cote d'Ivoire/A,1/2023|..." -> "Coted-Ivoire/A1/2023"
func StrainName(header string) string {
	name := strings.SplitN(header, "|", 2)[0]

	parts := strings.Split(name, "/")
	return strainCleaner.Replace(strings.Join(parts[1:], "/"))
}
