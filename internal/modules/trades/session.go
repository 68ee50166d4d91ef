package trades

import "time"

// Session boundaries in UTC hours. Crypto trades 24/7 so every hour maps to
// a session; the labels match what the journal UI offers as choices.
const (
	asiaStart    = 0
	londonStart  = 7
	nyOpenStart  = 12
	nyCloseStart = 17
	lateStart    = 21
)

// ClassifySession maps a timestamp to the trading session it falls in.
func ClassifySession(t time.Time) string {
	switch hour := t.UTC().Hour(); {
	case hour >= lateStart:
		return "Late NY"
	case hour >= nyCloseStart:
		return "NY PM"
	case hour >= nyOpenStart:
		return "NY Open"
	case hour >= londonStart:
		return "London"
	default:
		return "Asia"
	}
}
