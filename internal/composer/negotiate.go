package composer

import (
	"strconv"
	"strings"
)

type Format int

const (
	FormatJSON Format = iota
	FormatGeoJSON
)

const (
	contentTypeJSON    = "application/json"
	contentTypeGeoJSON = "application/geo+json"
)

func (f Format) String() string {
	if f == FormatGeoJSON {
		return "geojson"
	}
	return "json"
}

type NegotiationInput struct {
	AcceptHeader  string
	OutputFormat  string
	DefaultFormat Format
}

type Negotiation struct {
	Format      Format
	ContentType string
}

func negotiation(f Format) Negotiation {
	if f == FormatGeoJSON {
		return Negotiation{Format: FormatGeoJSON, ContentType: contentTypeGeoJSON}
	}
	return Negotiation{Format: FormatJSON, ContentType: contentTypeJSON}
}

// NegotiateFormat picks the response format. An explicit format parameter
// wins over the Accept header, which is ranked by q value.
func NegotiateFormat(in NegotiationInput) Negotiation {
	of := strings.ToLower(strings.TrimSpace(in.OutputFormat))
	switch {
	case of == "geojson", strings.HasPrefix(of, contentTypeGeoJSON):
		return negotiation(FormatGeoJSON)
	case of == "json", strings.HasPrefix(of, contentTypeJSON):
		return negotiation(FormatJSON)
	}

	bestQ := -1.0
	best := Negotiation{}
	for part := range strings.SplitSeq(strings.ToLower(in.AcceptHeader), ",") {
		token := strings.TrimSpace(part)
		if token == "" {
			continue
		}
		mt := token
		params := ""
		if i := strings.Index(token, ";"); i >= 0 {
			mt = strings.TrimSpace(token[:i])
			params = token[i+1:]
		}
		q := 1.0
		for p := range strings.SplitSeq(params, ";") {
			p = strings.TrimSpace(p)
			if after, ok := strings.CutPrefix(p, "q="); ok {
				if v, err := strconv.ParseFloat(after, 64); err == nil {
					q = v
				}
			}
		}

		var cand Negotiation
		switch {
		case mt == "*/*" || mt == "application/*":
			cand = negotiation(in.DefaultFormat)
		case mt == contentTypeGeoJSON:
			cand = negotiation(FormatGeoJSON)
		case mt == contentTypeJSON:
			cand = negotiation(FormatJSON)
		default:
			continue
		}
		if q > bestQ {
			bestQ = q
			best = cand
		}
	}
	if bestQ >= 0 {
		return best
	}
	return negotiation(in.DefaultFormat)
}
