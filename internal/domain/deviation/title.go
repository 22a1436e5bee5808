package deviation

import (
	"strings"
	"time"
)

// Category labels derived from the raw alert code embedded in a title.
const (
	CategoryInformational = "Informational Alert"
	CategoryEscalationN1  = "Escalation N1"
	CategoryEscalationN2  = "Escalation N2"
	CategoryEscalationN3  = "Escalation N3"
	CategoryEscalationN4  = "Escalation N4"
)

var categoryByCode = map[string]string{
	"Informativo": CategoryInformational,
	"N1":          CategoryEscalationN1,
	"N2":          CategoryEscalationN2,
	"N3":          CategoryEscalationN3,
	"N4":          CategoryEscalationN4,
}

// poiByCode maps known POI codes to friendly names. Matching is by substring
// containment against the upper-cased raw segment, because the feed prefixes
// and suffixes the code with route qualifiers.
var poiByCode = map[string]string{
	"PAAGUACLARA":            "P.A. Água Clara",
	"CARREGAMENTOFABRICARRP": "Fábrica RRP",
	"OFICINAJSL":             "Oficina JSL",
	"TERMINALINOCENCIA":      "Terminal Inocência",
}

const titleTimestampLayout = "02012006_150405"

// TitleInfo is the decoded form of a deviation title string.
// Category and POI are pure functions of the title and never change after parse.
type TitleInfo struct {
	Raw          string
	Category     string
	POI          string
	DisplayTime  string
	EnteredAt    time.Time
	HasEnteredAt bool
	Valid        bool
}

// ParseTitle decodes an underscore-delimited deviation title. It never fails:
// a malformed title yields TitleInfo with Valid=false and empty string fields.
//
// Expected shape, at least five segments:
//
//	<prefix>_<poi>_..._<category>_<ddMMyyyy>_<HHmmss>
func ParseTitle(title string) TitleInfo {
	info := TitleInfo{Raw: title}

	parts := strings.Split(title, "_")
	if len(parts) < 5 {
		return info
	}

	rawCategory := parts[len(parts)-3]
	rawPOI := strings.ToUpper(parts[1])
	dateStr := parts[len(parts)-2]
	timeStr := parts[len(parts)-1]

	info.Category = rawCategory
	if friendly, ok := categoryByCode[rawCategory]; ok {
		info.Category = friendly
	}

	info.POI = titleCase(rawPOI)
	for code, friendly := range poiByCode {
		if strings.Contains(rawPOI, code) {
			info.POI = friendly
			break
		}
	}

	if entered, err := time.ParseInLocation(titleTimestampLayout, dateStr+"_"+timeStr, ReferenceLocation()); err == nil {
		info.EnteredAt = entered
		info.HasEnteredAt = true
		// The feed emits titles on the hour, so the display drops minutes.
		info.DisplayTime = entered.Format("02/01 15") + ":00"
	} else {
		info.DisplayTime = dateStr + " " + timeStr
	}

	info.Valid = true
	return info
}

func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range strings.ToLower(s) {
		if !prevLetter && r >= 'a' && r <= 'z' {
			b.WriteRune(r - ('a' - 'A'))
		} else {
			b.WriteRune(r)
		}
		prevLetter = r >= 'a' && r <= 'z' || r >= '0' && r <= '9'
	}
	return b.String()
}
