package llm

import (
	"math"
	"strings"

	"github.com/go-faster/jx"
	fastererrors "github.com/go-faster/errors"
)

// parseResponse decodes the model's strict-JSON reply. It tries the full
// body first, then falls back to extracting the first brace-delimited
// object, matching the two-stage parse strategy. Entries whose
// name is not in knownServices are dropped; scores are clamped to [0,1]
// (NaN/±Inf treated as 0) and rounded to 4 decimals.
func parseResponse(raw string, knownServices []string) (map[string]float64, error) {
	body := extractJSONObject(raw)
	if body == "" {
		return nil, fastererrors.New("no JSON object found in response")
	}

	known := make(map[string]bool, len(knownServices))
	for _, s := range knownServices {
		known[s] = true
	}

	scores := make(map[string]float64)
	d := jx.DecodeStr(body)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		if key != "services" {
			return d.Skip()
		}
		return d.Arr(func(d *jx.Decoder) error {
			var name string
			var score float64
			err := d.Obj(func(d *jx.Decoder, key string) error {
				var err error
				switch key {
				case "name":
					name, err = d.Str()
				case "score":
					score, err = d.Float64()
				default:
					err = d.Skip()
				}
				return err
			})
			if err != nil {
				return err
			}
			if known[name] {
				scores[name] = clampRound(score)
			}
			return nil
		})
	})
	if err != nil {
		return nil, fastererrors.Wrap(err, "decode llm response")
	}

	return scores, nil
}

func clampRound(score float64) float64 {
	if math.IsNaN(score) || math.IsInf(score, 0) {
		score = 0
	}
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return math.Round(score*10000) / 10000
}

// extractJSONObject returns the trimmed raw text if it starts with '{' and
// ends with '}' (without parsing it); else it scans for the first '{'
// through its matching '}'.
func extractJSONObject(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}") {
		return trimmed
	}

	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	for i := start; i < len(raw); i++ {
		switch raw[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return raw[start : i+1]
			}
		}
	}
	return ""
}
