package sandbox

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/hms/internal/domain/patient"
)

var (
	firstNamesMale = []string{
		"James", "Robert", "John", "Michael", "David", "William", "Richard",
		"Joseph", "Thomas", "Daniel", "Matthew", "Anthony", "Mark", "Paul",
		"Andrew", "Kevin", "Brian", "George", "Samuel", "Patrick",
	}
	firstNamesFemale = []string{
		"Mary", "Patricia", "Jennifer", "Linda", "Elizabeth", "Susan",
		"Jessica", "Sarah", "Karen", "Nancy", "Margaret", "Emily", "Michelle",
		"Amanda", "Rebecca", "Laura", "Anna", "Emma", "Rachel", "Maria",
	}
	lastNames = []string{
		"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller",
		"Davis", "Rodriguez", "Martinez", "Lopez", "Wilson", "Anderson",
		"Taylor", "Moore", "Jackson", "Martin", "Lee", "Thompson", "White",
		"Harris", "Clark", "Lewis", "Walker", "Young", "Allen", "King",
		"Wright", "Scott", "Nguyen", "Hill", "Green", "Adams", "Baker",
	}
	streets = []string{
		"123 Main St", "456 Oak Ave", "789 Elm St", "321 Pine Rd",
		"654 Maple Dr", "987 Cedar Ln", "147 Birch Blvd", "258 Walnut Way",
	}
	cities      = []string{"Springfield", "Riverton", "Lakeside", "Fairview", "Harbor City"}
	bloodGroups = []string{"A+", "A-", "B+", "B-", "AB+", "O+", "O-"}

	visitReasons = []string{
		"Annual physical", "Follow-up visit", "Chest pain", "Persistent cough",
		"Diabetes review", "Hypertension check", "Back pain", "Medication review",
		"Headache", "Post-operative check",
	}
	labTestTypes = []string{
		"Complete Blood Count", "Basic Metabolic Panel", "Lipid Panel",
		"Hemoglobin A1c", "Thyroid Stimulating Hormone", "Urinalysis",
		"Troponin I", "Liver Function Panel", "Blood Culture", "D-Dimer",
	}
	medications = []struct{ name, dosage, frequency, route string }{
		{"Metformin", "500 mg", "twice daily", "oral"},
		{"Lisinopril", "10 mg", "once daily", "oral"},
		{"Atorvastatin", "20 mg", "once daily at night", "oral"},
		{"Amoxicillin", "500 mg", "every 8 hours", "oral"},
		{"Omeprazole", "20 mg", "once daily before breakfast", "oral"},
		{"Ceftriaxone", "1 g", "once daily", "iv"},
		{"Enoxaparin", "40 mg", "once daily", "subcutaneous"},
		{"Salbutamol", "100 mcg", "as needed", "inhalation"},
	}
	wards = []string{"General Ward", "ICU", "Maternity", "Pediatrics"}
)

// generator produces deterministic synthetic records. The same seed
// yields the same ids and values.
type generator struct {
	rng *rand.Rand
}

func newGenerator(seed int64) *generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &generator{rng: rand.New(rand.NewSource(seed))}
}

func (g *generator) id() uuid.UUID {
	id, err := uuid.NewRandomFromReader(g.rng)
	if err != nil {
		return uuid.New()
	}
	return id
}

func (g *generator) pick(pool []string) string {
	return pool[g.rng.Intn(len(pool))]
}

func (g *generator) intn(n int) int {
	return g.rng.Intn(n)
}

func (g *generator) randomDate(minYear, maxYear int) string {
	y := minYear + g.rng.Intn(maxYear-minYear+1)
	m := 1 + g.rng.Intn(12)
	d := 1 + g.rng.Intn(28)
	return fmt.Sprintf("%04d-%02d-%02d", y, m, d)
}

func (g *generator) randomPhone() string {
	return fmt.Sprintf("+1 %03d-%03d-%04d", 200+g.rng.Intn(800), 200+g.rng.Intn(800), g.rng.Intn(10000))
}

func (g *generator) patient() patient.Input {
	first, gender := g.pick(firstNamesMale), "male"
	if g.rng.Intn(2) == 0 {
		first, gender = g.pick(firstNamesFemale), "female"
	}
	last := g.pick(lastNames)
	return patient.Input{
		FirstName:             first,
		LastName:              last,
		DateOfBirth:           g.randomDate(1940, 2015),
		Gender:                gender,
		Phone:                 g.randomPhone(),
		Email:                 fmt.Sprintf("%s.%s@example.com", strings.ToLower(first), strings.ToLower(last)),
		Address:               g.pick(streets) + ", " + g.pick(cities),
		BloodGroup:            g.pick(bloodGroups),
		EmergencyContactName:  g.pick(firstNamesFemale) + " " + last,
		EmergencyContactPhone: g.randomPhone(),
	}
}
