package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ehr/hms/internal/apperr"
	"github.com/ehr/hms/internal/domain/diagnostics"
	"github.com/ehr/hms/internal/domain/medication"
	"github.com/ehr/hms/internal/domain/nursing"
	"github.com/ehr/hms/internal/domain/patient"
	"github.com/ehr/hms/internal/pages"
	"github.com/ehr/hms/internal/render"
)

func patientsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "patients", Short: "Patient register"}

	var query string
	list := &cobra.Command{
		Use:   "list",
		Short: "List patients",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := pages.NewPatientsPage(a.sessions, a.client, a.logger)
			p.SetQuery(query)
			return a.view(cmd.Context(), p, nil, func(w io.Writer) { render.Patients(w, p.View()) })
		},
	}
	list.Flags().StringVarP(&query, "search", "s", "", "filter by name, MRN or phone")

	var in patient.Input
	add := &cobra.Command{
		Use:   "add",
		Short: "Register a patient",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := pages.NewPatientsPage(a.sessions, a.client, a.logger)
			p.SetForm(in)
			return a.view(cmd.Context(), p, func(ctx context.Context) error {
				_, err := p.Submit(ctx)
				return err
			}, func(w io.Writer) { render.Patients(w, p.View()) })
		},
	}
	f := add.Flags()
	f.StringVar(&in.FirstName, "first", "", "first name")
	f.StringVar(&in.LastName, "last", "", "last name")
	f.StringVar(&in.DateOfBirth, "dob", "", "date of birth, YYYY-MM-DD")
	f.StringVar(&in.Gender, "gender", "", "male, female or other")
	f.StringVar(&in.Phone, "phone", "", "phone number")
	f.StringVar(&in.Email, "email", "", "email address")
	f.StringVar(&in.Address, "address", "", "postal address")
	f.StringVar(&in.BloodGroup, "blood-group", "", "e.g. O+")
	f.StringVar(&in.EmergencyContactName, "emergency-name", "", "emergency contact")
	f.StringVar(&in.EmergencyContactPhone, "emergency-phone", "", "emergency contact phone")

	cmd.AddCommand(list, add)
	return cmd
}

func (a *app) showAppointments(cmd *cobra.Command, date, status string) error {
	return a.appointmentIntent(cmd, date, status, nil)
}

func (a *app) appointmentIntent(cmd *cobra.Command, date, status string, intent func(ctx context.Context, p *pages.AppointmentsPage) error) error {
	p := pages.NewAppointmentsPage(a.sessions, a.client, a.logger)
	if err := p.SetDate(date); err != nil {
		return err
	}
	p.SetStatus(status)
	var run func(ctx context.Context) error
	if intent != nil {
		run = func(ctx context.Context) error { return intent(ctx, p) }
	}
	return a.view(cmd.Context(), p, run, func(w io.Writer) { render.Appointments(w, p.View()) })
}

func appointmentsCmd(a *app) *cobra.Command {
	var date, status string
	cmd := &cobra.Command{Use: "appointments", Aliases: []string{"appt"}, Short: "Appointments for a day"}
	cmd.PersistentFlags().StringVar(&date, "date", "", "day to show, YYYY-MM-DD (default today)")
	cmd.PersistentFlags().StringVar(&status, "status", "", "status filter")

	list := &cobra.Command{
		Use:   "list",
		Short: "List appointments",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.showAppointments(cmd, date, status)
		},
	}

	var reason string
	cancel := &cobra.Command{
		Use:   "cancel ID",
		Short: "Cancel an appointment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.appointmentIntent(cmd, date, status, func(ctx context.Context, p *pages.AppointmentsPage) error {
				return p.Cancel(ctx, args[0], reason)
			})
		},
	}
	cancel.Flags().StringVar(&reason, "reason", "", "cancellation reason")

	var manual string
	checkin := &cobra.Command{
		Use:   "checkin [QR]",
		Short: "Check a patient in from a scanned QR code",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.appointmentIntent(cmd, date, status, func(ctx context.Context, p *pages.AppointmentsPage) error {
				if manual != "" {
					return p.CheckInManually(ctx, manual)
				}
				if len(args) == 0 {
					return apperr.Validation("appointments.checkin", "qr", "scan a QR code or pass --id")
				}
				return p.CheckIn(ctx, args[0])
			})
		},
	}
	checkin.Flags().StringVar(&manual, "id", "", "check in by appointment id without a QR code")

	step := func(use, short string, fn func(p *pages.AppointmentsPage, ctx context.Context, id string) error) *cobra.Command {
		return &cobra.Command{
			Use:   use + " ID",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.appointmentIntent(cmd, date, status, func(ctx context.Context, p *pages.AppointmentsPage) error {
					return fn(p, ctx, args[0])
				})
			},
		}
	}
	cmd.AddCommand(list, cancel, checkin,
		step("start", "Start the consultation", (*pages.AppointmentsPage).Start),
		step("complete", "Complete the appointment", (*pages.AppointmentsPage).Complete),
		step("no-show", "Mark the patient as not attending", (*pages.AppointmentsPage).MarkNoShow),
	)
	return cmd
}

func prescriptionsCmd(a *app) *cobra.Command {
	var patientID, status string
	cmd := &cobra.Command{Use: "prescriptions", Aliases: []string{"rx"}, Short: "Prescriptions and medication rounds"}
	cmd.PersistentFlags().StringVar(&patientID, "patient", "", "only this patient")
	cmd.PersistentFlags().StringVar(&status, "status", "", "status filter")

	with := func(cmd *cobra.Command, intent func(ctx context.Context, p *pages.PrescriptionsPage) error) error {
		p := pages.NewPrescriptionsPage(a.sessions, a.client, a.logger)
		p.SetPatient(patientID)
		p.SetStatus(status)
		var run func(ctx context.Context) error
		if intent != nil {
			run = func(ctx context.Context) error { return intent(ctx, p) }
		}
		return a.view(cmd.Context(), p, run, func(w io.Writer) { render.Prescriptions(w, p.View()) })
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List prescriptions",
		RunE:  func(cmd *cobra.Command, args []string) error { return with(cmd, nil) },
	}

	var req medication.CreateRequest
	prescribe := &cobra.Command{
		Use:   "prescribe",
		Short: "Write a prescription",
		RunE: func(cmd *cobra.Command, args []string) error {
			req.PatientID = patientID
			return with(cmd, func(ctx context.Context, p *pages.PrescriptionsPage) error {
				_, err := p.Prescribe(ctx, req)
				return err
			})
		},
	}
	f := prescribe.Flags()
	f.StringVar(&req.Medication, "medication", "", "drug name")
	f.StringVar(&req.Dosage, "dosage", "", "e.g. 500mg")
	f.StringVar(&req.Frequency, "frequency", "", "e.g. twice daily")
	f.StringVar(&req.Route, "route", "oral", "oral, iv, im, subcutaneous, topical, inhalation or other")
	f.IntVar(&req.DurationDays, "days", 7, "duration in days")
	f.StringVar(&req.Instructions, "instructions", "", "patient instructions")
	f.StringVar(&req.AppointmentID, "appointment", "", "related appointment")

	step := func(use, short string, fn func(p *pages.PrescriptionsPage, ctx context.Context, id string) error) *cobra.Command {
		return &cobra.Command{
			Use:   use + " ID",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return with(cmd, func(ctx context.Context, p *pages.PrescriptionsPage) error { return fn(p, ctx, args[0]) })
			},
		}
	}

	var notes string
	administer := &cobra.Command{
		Use:   "administer ID",
		Short: "Record a dose given",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return with(cmd, func(ctx context.Context, p *pages.PrescriptionsPage) error {
				return p.Administer(ctx, args[0], notes)
			})
		},
	}
	administer.Flags().StringVar(&notes, "notes", "", "administration notes")

	cmd.AddCommand(list, prescribe, administer,
		step("dispense", "Mark as dispensed by pharmacy", (*pages.PrescriptionsPage).Dispense),
		step("discontinue", "Stop the prescription", (*pages.PrescriptionsPage).Discontinue),
		step("complete", "Close a finished course", (*pages.PrescriptionsPage).Complete),
	)
	return cmd
}

func (a *app) showLabTests(cmd *cobra.Command, status, urgency string) error {
	return a.labIntent(cmd, status, urgency, nil)
}

func (a *app) labIntent(cmd *cobra.Command, status, urgency string, intent func(ctx context.Context, p *pages.LabTestsPage) error) error {
	p := pages.NewLabTestsPage(a.sessions, a.client, a.logger)
	p.SetStatus(status)
	p.SetUrgency(urgency)
	var run func(ctx context.Context) error
	if intent != nil {
		run = func(ctx context.Context) error { return intent(ctx, p) }
	}
	return a.view(cmd.Context(), p, run, func(w io.Writer) { render.LabTests(w, p.View()) })
}

func labsCmd(a *app) *cobra.Command {
	var status, urgency string
	cmd := &cobra.Command{Use: "labs", Short: "Laboratory worklist"}
	cmd.PersistentFlags().StringVar(&status, "status", "", "status filter")
	cmd.PersistentFlags().StringVar(&urgency, "urgency", "", "routine, urgent or stat")

	list := &cobra.Command{
		Use:   "list",
		Short: "List lab tests, most urgent first",
		RunE:  func(cmd *cobra.Command, args []string) error { return a.showLabTests(cmd, status, urgency) },
	}

	var order diagnostics.OrderRequest
	orderCmd := &cobra.Command{
		Use:   "order",
		Short: "Order a lab test",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.labIntent(cmd, status, urgency, func(ctx context.Context, p *pages.LabTestsPage) error {
				_, err := p.Order(ctx, order)
				return err
			})
		},
	}
	orderCmd.Flags().StringVar(&order.PatientID, "patient", "", "patient id")
	orderCmd.Flags().StringVar(&order.TestType, "test", "", "test type, e.g. Lipid Panel")
	orderCmd.Flags().StringVar(&order.Urgency, "priority", diagnostics.UrgencyRoutine, "routine, urgent or stat")
	orderCmd.Flags().StringVar(&order.Notes, "notes", "", "clinical notes")

	step := func(use, short string, fn func(p *pages.LabTestsPage, ctx context.Context, id string) error) *cobra.Command {
		return &cobra.Command{
			Use:   use + " ID",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.labIntent(cmd, status, urgency, func(ctx context.Context, p *pages.LabTestsPage) error { return fn(p, ctx, args[0]) })
			},
		}
	}

	var results []string
	var fileURL string
	complete := &cobra.Command{
		Use:   "complete ID",
		Short: "Submit the result of a test",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := parseResult(results)
			if err != nil {
				return err
			}
			return a.labIntent(cmd, status, urgency, func(ctx context.Context, p *pages.LabTestsPage) error {
				return p.Complete(ctx, args[0], result, fileURL)
			})
		},
	}
	complete.Flags().StringArrayVar(&results, "result", nil, "result value as name=value, repeatable")
	complete.Flags().StringVar(&fileURL, "file-url", "", "link to the report file")

	var outPath string
	download := &cobra.Command{
		Use:   "download ID",
		Short: "Save the result report of a completed test",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := pages.NewLabTestsPage(a.sessions, a.client, a.logger)
			defer p.Close()
			path := outPath
			if path == "" {
				path = "lab-result-" + args[0] + ".txt"
			}
			file, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("create %s: %w", path, err)
			}
			if err := p.Download(cmd.Context(), args[0], file); err != nil {
				file.Close()
				os.Remove(path)
				return err
			}
			if err := file.Close(); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			fmt.Fprintf(a.out, "Saved %s\n", path)
			return nil
		},
	}
	download.Flags().StringVarP(&outPath, "out", "o", "", "output file")

	cmd.AddCommand(list, orderCmd, complete, download,
		step("start", "Start processing a sample", (*pages.LabTestsPage).Start),
		step("cancel", "Cancel a test", (*pages.LabTestsPage).Cancel),
	)
	return cmd
}

// parseResult turns name=value pairs into a result payload. Numeric values
// are kept as numbers.
func parseResult(pairs []string) (map[string]interface{}, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]interface{}, len(pairs))
	for _, kv := range pairs {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, apperr.Validation("labs.complete", "result", fmt.Sprintf("result %q must look like name=value", kv))
		}
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			out[strings.TrimSpace(k)] = n
			continue
		}
		out[strings.TrimSpace(k)] = v
	}
	return out, nil
}

func vitalsCmd(a *app) *cobra.Command {
	var visit string
	cmd := &cobra.Command{Use: "vitals", Short: "Patient vitals"}
	cmd.PersistentFlags().StringVar(&visit, "visit", "", "appointment the observations belong to")

	with := func(cmd *cobra.Command, patientID string, intent func(ctx context.Context, p *pages.VitalsPage) error) error {
		p := pages.NewVitalsPage(a.sessions, a.client, a.logger, patientID)
		p.SetVisit(visit)
		var run func(ctx context.Context) error
		if intent != nil {
			run = func(ctx context.Context) error { return intent(ctx, p) }
		}
		return a.view(cmd.Context(), p, run, func(w io.Writer) { render.Vitals(w, p.View()) })
	}

	show := &cobra.Command{
		Use:   "show PATIENT",
		Short: "Show a patient's vitals history",
		Args:  cobra.ExactArgs(1),
		RunE:  func(cmd *cobra.Command, args []string) error { return with(cmd, args[0], nil) },
	}

	var bp string
	var req nursing.RecordRequest
	var pulse, resp, spo2 int
	var temp, weight, height float64
	record := &cobra.Command{
		Use:   "record PATIENT",
		Short: "Record a set of vitals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if bp != "" {
				sys, dia, err := parseBP(bp)
				if err != nil {
					return err
				}
				req.SystolicBP, req.DiastolicBP = &sys, &dia
			}
			flags := cmd.Flags()
			if flags.Changed("pulse") {
				req.PulseRate = &pulse
			}
			if flags.Changed("resp") {
				req.RespiratoryRate = &resp
			}
			if flags.Changed("spo2") {
				req.OxygenSaturation = &spo2
			}
			if flags.Changed("temp") {
				req.TemperatureC = &temp
			}
			if flags.Changed("weight") {
				req.WeightKg = &weight
			}
			if flags.Changed("height") {
				req.HeightCm = &height
			}
			return with(cmd, args[0], func(ctx context.Context, p *pages.VitalsPage) error {
				_, err := p.Record(ctx, req)
				return err
			})
		},
	}
	f := record.Flags()
	f.StringVar(&bp, "bp", "", "blood pressure, e.g. 120/80")
	f.IntVar(&pulse, "pulse", 0, "pulse rate, bpm")
	f.IntVar(&resp, "resp", 0, "respiratory rate, breaths/min")
	f.IntVar(&spo2, "spo2", 0, "oxygen saturation, %")
	f.Float64Var(&temp, "temp", 0, "temperature, °C")
	f.Float64Var(&weight, "weight", 0, "weight, kg")
	f.Float64Var(&height, "height", 0, "height, cm")
	f.StringVar(&req.Notes, "notes", "", "notes")

	dictate := &cobra.Command{
		Use:   "dictate PATIENT TRANSCRIPT...",
		Short: "Record vitals from a spoken transcript",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args[1:], " ")
			return with(cmd, args[0], func(ctx context.Context, p *pages.VitalsPage) error {
				_, _, err := p.RecordFromTranscript(ctx, text)
				return err
			})
		},
	}

	cmd.AddCommand(show, record, dictate)
	return cmd
}

func parseBP(s string) (int, int, error) {
	sys, dia, ok := strings.Cut(s, "/")
	a, err1 := strconv.Atoi(strings.TrimSpace(sys))
	b, err2 := strconv.Atoi(strings.TrimSpace(dia))
	if !ok || err1 != nil || err2 != nil {
		return 0, 0, apperr.Validation("vitals.record", "bp", "blood pressure must look like 120/80")
	}
	return a, b, nil
}

func (a *app) showNurseDashboard(cmd *cobra.Command) error {
	d := pages.NewNurseDashboard(a.sessions, a.client, a.logger)
	return a.view(cmd.Context(), d, nil, func(w io.Writer) { render.Clinical(w, "Nurse dashboard", d.View()) })
}

func (a *app) showDoctorDashboard(cmd *cobra.Command) error {
	d := pages.NewDoctorDashboard(a.sessions, a.client, a.logger)
	return a.view(cmd.Context(), d, nil, func(w io.Writer) { render.Clinical(w, "Doctor dashboard", d.View()) })
}
