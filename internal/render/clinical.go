package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ehr/hms/internal/domain/diagnostics"
	"github.com/ehr/hms/internal/domain/medication"
	"github.com/ehr/hms/internal/domain/nursing"
	"github.com/ehr/hms/internal/domain/scheduling"
	"github.com/ehr/hms/internal/pages"
)

func Patients(w io.Writer, v pages.PatientsView) {
	title := fmt.Sprintf("Patients (%d)", v.Total)
	if v.Query != "" {
		title = fmt.Sprintf("Patients matching %q (%d of %d)", v.Query, len(v.Patients), v.Total)
	} else if len(v.Patients) < v.Total {
		title = fmt.Sprintf("Patients (showing %d of %d)", len(v.Patients), v.Total)
	}
	heading(w, title)
	if State(w, v.Status, len(v.Patients) == 0) {
		tw := table(w)
		row(tw, "MRN", "NAME", "DOB", "GENDER", "PHONE", "ID")
		for _, p := range v.Patients {
			row(tw, p.MRN, p.FullName(), p.DateOfBirth, p.Gender, orDash(p.Phone), p.ID)
		}
		tw.Flush()
	}
	Form(w, v.FormState)
}

func appointmentRows(w io.Writer, list []scheduling.Appointment) {
	tw := table(w)
	row(tw, "TIME", "PATIENT", "DOCTOR", "STATUS", "REASON", "ID")
	for _, a := range list {
		row(tw, clock(a.ScheduledAt), orDash(a.PatientName), orDash(a.DoctorName), a.Status, orDash(a.Reason), a.ID)
	}
	tw.Flush()
}

func Appointments(w io.Writer, v pages.AppointmentsView) {
	title := "Appointments " + v.Date
	if v.StatusFilter != "" && v.StatusFilter != "all" {
		title += " (" + v.StatusFilter + ")"
	}
	heading(w, title)
	if v.Loaded {
		Counts(w, "By status", v.Counts)
	}
	if State(w, v.Status, len(v.Appointments) == 0) {
		appointmentRows(w, v.Appointments)
	}
	Notice(w, v.Notice)
}

func prescriptionRows(w io.Writer, list []medication.Prescription) {
	tw := table(w)
	row(tw, "MEDICATION", "DOSAGE", "FREQUENCY", "ROUTE", "STATUS", "PATIENT", "DOSES", "ID")
	for _, rx := range list {
		row(tw, rx.Medication, rx.Dosage, rx.Frequency, rx.Route, rx.Status,
			orDash(rx.PatientName), len(rx.Administrations), rx.ID)
	}
	tw.Flush()
}

func Prescriptions(w io.Writer, v pages.PrescriptionsView) {
	heading(w, "Prescriptions")
	if v.Loaded {
		Counts(w, "By status", v.Counts)
	}
	if State(w, v.Status, len(v.Prescriptions) == 0) {
		prescriptionRows(w, v.Prescriptions)
	}
	Notice(w, v.Notice)
	Form(w, v.FormState)
}

func labRows(w io.Writer, list []diagnostics.LabTest) {
	tw := table(w)
	row(tw, "URGENCY", "TEST", "PATIENT", "STATUS", "ORDERED", "RESULT", "ID")
	for _, t := range list {
		result := "-"
		if t.Status == diagnostics.StatusCompleted {
			result = "available"
		}
		row(tw, strings.ToUpper(t.Urgency), t.TestType, orDash(t.PatientName), t.Status, stamp(t.CreatedAt), result, t.ID)
	}
	tw.Flush()
}

func LabTests(w io.Writer, v pages.LabTestsView) {
	heading(w, "Lab worklist")
	if v.Loaded {
		Counts(w, "By status", v.Counts)
	}
	if State(w, v.Status, len(v.Tests) == 0) {
		labRows(w, v.Tests)
	}
	Notice(w, v.Notice)
	Form(w, v.FormState)
}

func Vitals(w io.Writer, v pages.VitalsView) {
	heading(w, "Vitals for patient "+v.PatientID)
	if v.Heard != nil {
		if len(v.Heard.Recognized) > 0 {
			fmt.Fprintf(w, "Heard: %s\n", strings.Join(v.Heard.Recognized, ", "))
		}
		if len(v.Heard.Unknown) > 0 {
			warnColor.Fprintf(w, "Not understood: %s\n", strings.Join(v.Heard.Unknown, "; "))
		}
	}
	if State(w, v.Status, len(v.History) == 0) {
		if v.Latest != nil {
			fmt.Fprintf(w, "Latest (%s): %s\n", stamp(v.Latest.RecordedAt), summary(v.Latest))
		}
		for _, f := range v.Findings {
			c := warnColor
			if f.Severity == "critical" {
				c = errorColor
			}
			c.Fprintf(w, "  %s: %s\n", strings.ToUpper(f.Severity), f.Message)
		}
		tw := table(w)
		row(tw, "RECORDED", "BP", "PULSE", "TEMP °C", "RESP", "SPO2", "WEIGHT", "HEIGHT")
		for i := range v.History {
			x := &v.History[i]
			row(tw, stamp(x.RecordedAt), bp(x), intOr(x.PulseRate), floatOr(x.TemperatureC), intOr(x.RespiratoryRate),
				intOr(x.OxygenSaturation), floatOr(x.WeightKg), floatOr(x.HeightCm))
		}
		tw.Flush()
	}
	Form(w, v.FormState)
}

func summary(v *nursing.Vitals) string {
	var parts []string
	if s := bp(v); s != "-" {
		parts = append(parts, "BP "+s)
	}
	if v.PulseRate != nil {
		parts = append(parts, "pulse "+strconv.Itoa(*v.PulseRate))
	}
	if v.TemperatureC != nil {
		parts = append(parts, floatOr(v.TemperatureC)+"°C")
	}
	if v.OxygenSaturation != nil {
		parts = append(parts, "SpO2 "+strconv.Itoa(*v.OxygenSaturation)+"%")
	}
	if v.RespiratoryRate != nil {
		parts = append(parts, "resp "+strconv.Itoa(*v.RespiratoryRate))
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ", ")
}

func bp(v *nursing.Vitals) string {
	if v.SystolicBP == nil || v.DiastolicBP == nil {
		return "-"
	}
	return fmt.Sprintf("%d/%d", *v.SystolicBP, *v.DiastolicBP)
}

func intOr(p *int) string {
	if p == nil {
		return "-"
	}
	return strconv.Itoa(*p)
}

func floatOr(p *float64) string {
	if p == nil {
		return "-"
	}
	return strconv.FormatFloat(*p, 'f', 1, 64)
}

// Clinical draws the nurse or doctor dashboard.
func Clinical(w io.Writer, title string, v pages.ClinicalView) {
	heading(w, title)
	if !State(w, v.Status, false) {
		return
	}
	fmt.Fprintf(w, "Waiting: %d   Open lab tests: %d   Medications due: %d\n", v.Waiting, v.PendingLabs, v.ActivePrescription)
	Counts(w, "Appointments", v.AppointmentCounts)
	Counts(w, "Lab tests", v.LabCounts)

	section(w, "Next appointments", len(v.Next), func() { appointmentRows(w, v.Next) })
	section(w, "Urgent lab tests", len(v.UrgentLabs), func() { labRows(w, v.UrgentLabs) })
	section(w, "Recent results", len(v.RecentResults), func() { labRows(w, v.RecentResults) })
	section(w, "Medications", len(v.Medications), func() { prescriptionRows(w, v.Medications) })
}

func section(w io.Writer, title string, n int, draw func()) {
	fmt.Fprintln(w)
	headColor.Fprintln(w, title)
	if n == 0 {
		fmt.Fprintln(w, emptyText)
		return
	}
	draw()
}
