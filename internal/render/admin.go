package render

import (
	"fmt"
	"io"

	"github.com/ehr/hms/internal/alerts"
	"github.com/ehr/hms/internal/domain/organization"
	"github.com/ehr/hms/internal/pages"
	"github.com/ehr/hms/internal/session"
)

func Hospital(w io.Writer, v pages.HospitalView) {
	heading(w, "Hospital overview")
	if !State(w, v.Status, v.Analytics == nil) {
		return
	}
	a := v.Analytics
	fmt.Fprintf(w, "%s\n", orDash(a.HospitalName))
	fmt.Fprintf(w, "Patients: %d   Active prescriptions: %d\n", a.Patients, a.ActivePrescriptions)
	fmt.Fprintf(w, "Beds: %d occupied of %d (%.0f%%)\n", a.Occupancy.Occupied, a.Occupancy.Beds, v.OccupancyPercent)
	Counts(w, "Appointments", v.AppointmentCounts)
	Counts(w, "Lab tests", v.LabCounts)
}

func branding(w io.Writer, b organization.Branding) {
	tw := table(w)
	row(tw, "Primary color", orDash(b.PrimaryColor))
	row(tw, "Secondary color", orDash(b.SecondaryColor))
	row(tw, "Accent color", orDash(b.AccentColor))
	row(tw, "Logo", orDash(b.LogoURL))
	row(tw, "Banner", orDash(b.BannerURL))
	row(tw, "Tagline", orDash(b.Tagline))
	row(tw, "Contact email", orDash(b.ContactEmail))
	row(tw, "Contact phone", orDash(b.ContactPhone))
	row(tw, "Website", orDash(b.Website))
	tw.Flush()
}

func Branding(w io.Writer, v pages.BrandingView) {
	heading(w, "Branding for hospital "+orDash(v.HospitalID))
	if State(w, v.Status, false) {
		branding(w, v.Saved)
	}
	Form(w, v.FormState)
}

func Regional(w io.Writer, v pages.RegionalView) {
	heading(w, "Regional overview")
	if State(w, v.Status, v.Analytics == nil) {
		a := v.Analytics
		fmt.Fprintf(w, "%s: %d hospitals, %d patients\n", orDash(a.RegionName), a.Hospitals, a.Patients)
		Counts(w, "Appointments", v.AppointmentCounts)
		section(w, "Top hospitals", len(v.TopHospitals), func() {
			tw := table(w)
			row(tw, "#", "HOSPITAL", "PATIENTS")
			for i, h := range v.TopHospitals {
				row(tw, i+1, h.Name, h.Patients)
			}
			tw.Flush()
		})
		fmt.Fprintln(w)
		headColor.Fprintln(w, "Region branding")
		branding(w, v.Branding)
	}
	Form(w, v.FormState)
}

func Regions(w io.Writer, v pages.RegionsView) {
	heading(w, "Regions")
	if State(w, v.Status, len(v.Regions) == 0) {
		tw := table(w)
		row(tw, "REGION", "CODE", "HOSPITAL", "CODE", "BEDS", "ID")
		for _, r := range v.Regions {
			row(tw, r.Region.Name, r.Region.Code, "", "", "", r.Region.ID)
			for _, h := range r.Hospitals {
				row(tw, "", "", h.Name, h.Code, h.BedCapacity, h.ID)
			}
		}
		tw.Flush()
	}
	Form(w, v.FormState)
}

func Staffing(w io.Writer, v pages.StaffingView) {
	heading(w, "Beds and shifts")
	if !State(w, v.Status, false) {
		return
	}
	fmt.Fprintf(w, "Occupied: %d of %d\n", v.Occupied, v.TotalBeds)
	Counts(w, "By status", v.StatusCounts)
	Counts(w, "By ward", v.WardCounts)

	section(w, "Beds", len(v.Beds), func() {
		tw := table(w)
		row(tw, "WARD", "BED", "STATUS", "PATIENT", "ID")
		for _, b := range v.Beds {
			row(tw, b.Ward, b.Number, b.Status, orDash(shortRef(b.PatientID)), b.ID)
		}
		tw.Flush()
	})
	section(w, "On duty", len(v.OnDuty), func() {
		tw := table(w)
		row(tw, "NAME", "ROLE", "WARD", "UNTIL")
		for _, s := range v.OnDuty {
			row(tw, s.StaffName, s.Role, orDash(s.Ward), clock(s.EndsAt))
		}
		tw.Flush()
	})
	section(w, "Later today", len(v.Later), func() {
		tw := table(w)
		row(tw, "NAME", "ROLE", "WARD", "FROM")
		for _, s := range v.Later {
			row(tw, s.StaffName, s.Role, orDash(s.Ward), clock(s.StartsAt))
		}
		tw.Flush()
	})
}

// Identity draws the signed-in user.
func Identity(w io.Writer, id session.Identity) {
	tw := table(w)
	row(tw, "Name", orDash(id.Name))
	row(tw, "Email", orDash(id.Email))
	row(tw, "Role", id.Role)
	row(tw, "Hospital", orDash(id.HospitalID))
	row(tw, "Region", orDash(id.RegionID))
	tw.Flush()
}

// Alert draws one real-time alert as a single line.
func Alert(w io.Writer, a alerts.Alert) {
	c := warnColor
	if a.Severity == "critical" {
		c = errorColor
	}
	c.Fprintf(w, "[%s] %-8s ", clock(a.CreatedAt), a.Severity)
	fmt.Fprintf(w, "%s", a.Message)
	if a.PatientID != "" {
		fmt.Fprintf(w, " (patient %s)", short(a.PatientID))
	}
	fmt.Fprintln(w)
}
