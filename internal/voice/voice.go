// Package voice turns a dictated vitals transcript into a vitals form.
//
// A transcript is split into phrases on commas, periods, semicolons and
// the word "and". Each phrase must name one measurement; anything the parser
// does not recognise is reported back rather than guessed.
package voice

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/ehr/hms/internal/domain/nursing"
)

// FahrenheitThreshold is the temperature above which a reading without a
// unit is taken as Fahrenheit. No living patient has a core temperature
// above 45°C.
const FahrenheitThreshold = 45.0

// Result is a parsed transcript. Vitals has PatientID unset.
type Result struct {
	Vitals     nursing.RecordRequest
	Recognized []string
	Unknown    []string
}

var (
	splitPattern   = regexp.MustCompile(`\s*(?:[,;]|\.(?:\s|$)|\band\b)\s*`)
	decimalPattern = regexp.MustCompile(`(\d+)\s+point\s+(\d+)`)

	bpPattern     = regexp.MustCompile(`^(?:blood pressure|bp)\s+(?:is\s+)?(\d{2,3})\s*(?:over|/)\s*(\d{2,3})$`)
	pulsePattern  = regexp.MustCompile(`^(?:pulse(?: rate)?|heart rate|hr)\s+(?:is\s+)?(\d{2,3})(?:\s*(?:bpm|beats per minute))?$`)
	tempPattern   = regexp.MustCompile(`^(?:temperature|temp)\s+(?:is\s+)?(\d{2,3}(?:\.\d+)?)(?:\s*(?:degrees?))?(?:\s*(celsius|centigrade|fahrenheit|c|f))?$`)
	spo2Pattern   = regexp.MustCompile(`^(?:oxygen(?: saturation)?|o2(?: sat(?:uration)?)?|spo2|sats?|saturation)\s+(?:is\s+)?(\d{2,3})(?:\s*(?:percent|%))?$`)
	respPattern   = regexp.MustCompile(`^(?:respiratory rate|respiration(?: rate)?|respirations|resp(?: rate)?|breathing rate|rr)\s+(?:is\s+)?(\d{1,2})(?:\s*(?:per minute|breaths per minute))?$`)
	weightPattern = regexp.MustCompile(`^weight\s+(?:is\s+)?(\d{1,3}(?:\.\d+)?)(?:\s*(kg|kilos?|kilograms?|lbs?|pounds?))?$`)
	heightPattern = regexp.MustCompile(`^height\s+(?:is\s+)?(\d{1,3}(?:\.\d+)?)(?:\s*(cm|centimet(?:er|re)s?|in|inches))?$`)
)

// Parse reads every measurement in transcript. A later phrase for the same
// measurement overrides an earlier one.
func Parse(transcript string) Result {
	var res Result
	text := strings.ToLower(transcript)
	text = decimalPattern.ReplaceAllString(text, "$1.$2")

	for _, phrase := range splitPattern.Split(text, -1) {
		phrase = strings.Join(strings.Fields(phrase), " ")
		if phrase == "" {
			continue
		}
		if name, ok := apply(&res.Vitals, phrase); ok {
			res.Recognized = append(res.Recognized, name)
		} else {
			res.Unknown = append(res.Unknown, phrase)
		}
	}
	return res
}

func apply(v *nursing.RecordRequest, phrase string) (string, bool) {
	if m := bpPattern.FindStringSubmatch(phrase); m != nil {
		v.SystolicBP, v.DiastolicBP = intp(m[1]), intp(m[2])
		return "blood_pressure", true
	}
	if m := pulsePattern.FindStringSubmatch(phrase); m != nil {
		v.PulseRate = intp(m[1])
		return "pulse_rate", true
	}
	if m := tempPattern.FindStringSubmatch(phrase); m != nil {
		t, _ := strconv.ParseFloat(m[1], 64)
		unit := m[2]
		if unit == "fahrenheit" || unit == "f" || (unit == "" && t > FahrenheitThreshold) {
			t = (t - 32) * 5 / 9
		}
		t = round1(t)
		v.TemperatureC = &t
		return "temperature_c", true
	}
	if m := spo2Pattern.FindStringSubmatch(phrase); m != nil {
		v.OxygenSaturation = intp(m[1])
		return "oxygen_saturation", true
	}
	if m := respPattern.FindStringSubmatch(phrase); m != nil {
		v.RespiratoryRate = intp(m[1])
		return "respiratory_rate", true
	}
	if m := weightPattern.FindStringSubmatch(phrase); m != nil {
		w, _ := strconv.ParseFloat(m[1], 64)
		if strings.HasPrefix(m[2], "lb") || strings.HasPrefix(m[2], "pound") {
			w *= 0.45359237
		}
		w = round1(w)
		v.WeightKg = &w
		return "weight_kg", true
	}
	if m := heightPattern.FindStringSubmatch(phrase); m != nil {
		h, _ := strconv.ParseFloat(m[1], 64)
		if m[2] == "in" || m[2] == "inches" {
			h *= 2.54
		}
		h = round1(h)
		v.HeightCm = &h
		return "height_cm", true
	}
	return "", false
}

func intp(s string) *int {
	n, _ := strconv.Atoi(s)
	return &n
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}
