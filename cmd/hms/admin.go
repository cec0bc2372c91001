package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ehr/hms/internal/domain/organization"
	"github.com/ehr/hms/internal/pages"
	"github.com/ehr/hms/internal/render"
)

func (a *app) showHospital(cmd *cobra.Command) error {
	d := pages.NewHospitalDashboard(a.sessions, a.client, a.logger)
	return a.view(cmd.Context(), d, nil, func(w io.Writer) { render.Hospital(w, d.View()) })
}

func hospitalCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "hospital",
		Short: "Hospital overview for managers",
		RunE:  func(cmd *cobra.Command, args []string) error { return a.showHospital(cmd) },
	}
}

// brandingFlags binds the branding fields to flags; apply copies only the
// flags that were set onto b.
type brandingFlags struct {
	values organization.Branding
}

func (bf *brandingFlags) register(f *pflag.FlagSet) {
	f.StringVar(&bf.values.PrimaryColor, "primary", "", "primary color, #RRGGBB")
	f.StringVar(&bf.values.SecondaryColor, "secondary", "", "secondary color, #RRGGBB")
	f.StringVar(&bf.values.AccentColor, "accent", "", "accent color, #RRGGBB")
	f.StringVar(&bf.values.LogoURL, "logo", "", "logo URL")
	f.StringVar(&bf.values.BannerURL, "banner", "", "banner URL")
	f.StringVar(&bf.values.Tagline, "tagline", "", "tagline")
	f.StringVar(&bf.values.ContactEmail, "contact-email", "", "contact email")
	f.StringVar(&bf.values.ContactPhone, "contact-phone", "", "contact phone")
	f.StringVar(&bf.values.Website, "website", "", "website URL")
}

func brandingFields(b *organization.Branding) map[string]*string {
	return map[string]*string{
		"primary": &b.PrimaryColor, "secondary": &b.SecondaryColor, "accent": &b.AccentColor,
		"logo": &b.LogoURL, "banner": &b.BannerURL, "tagline": &b.Tagline,
		"contact-email": &b.ContactEmail, "contact-phone": &b.ContactPhone, "website": &b.Website,
	}
}

func (bf *brandingFlags) apply(f *pflag.FlagSet, b organization.Branding) organization.Branding {
	src := brandingFields(&bf.values)
	for name, dst := range brandingFields(&b) {
		if f.Changed(name) {
			*dst = *src[name]
		}
	}
	return b
}

func brandingCmd(a *app) *cobra.Command {
	var hospitalID string
	cmd := &cobra.Command{Use: "branding", Short: "Hospital branding"}
	cmd.PersistentFlags().StringVar(&hospitalID, "hospital", "", "hospital id (super admins)")

	with := func(cmd *cobra.Command, intent func(ctx context.Context, p *pages.BrandingPage) error) error {
		p := pages.NewBrandingPage(a.sessions, a.client, a.logger)
		p.SetHospital(hospitalID)
		var run func(ctx context.Context) error
		if intent != nil {
			run = func(ctx context.Context) error { return intent(ctx, p) }
		}
		return a.view(cmd.Context(), p, run, func(w io.Writer) { render.Branding(w, p.View()) })
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show the saved branding",
		RunE:  func(cmd *cobra.Command, args []string) error { return with(cmd, nil) },
	}

	var bf brandingFlags
	set := &cobra.Command{
		Use:   "set",
		Short: "Change branding fields; unset flags keep their value",
		RunE: func(cmd *cobra.Command, args []string) error {
			return with(cmd, func(ctx context.Context, p *pages.BrandingPage) error {
				p.SetForm(bf.apply(cmd.Flags(), p.View().Form))
				return p.Save(ctx)
			})
		},
	}
	bf.register(set.Flags())

	cmd.AddCommand(show, set)
	return cmd
}

func (a *app) showRegional(cmd *cobra.Command) error {
	p := pages.NewRegionalAnalyticsPage(a.sessions, a.client, a.logger)
	return a.view(cmd.Context(), p, nil, func(w io.Writer) { render.Regional(w, p.View()) })
}

func regionalCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "regional",
		Short: "Regional analytics for regional admins",
		RunE:  func(cmd *cobra.Command, args []string) error { return a.showRegional(cmd) },
	}
	var bf brandingFlags
	brand := &cobra.Command{
		Use:   "branding",
		Short: "Change the region branding",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := pages.NewRegionalAnalyticsPage(a.sessions, a.client, a.logger)
			return a.view(cmd.Context(), p, func(ctx context.Context) error {
				return p.SaveBranding(ctx, bf.apply(cmd.Flags(), p.View().Branding))
			}, func(w io.Writer) { render.Regional(w, p.View()) })
		},
	}
	bf.register(brand.Flags())
	cmd.AddCommand(brand)
	return cmd
}

func (a *app) showRegions(cmd *cobra.Command) error {
	p := pages.NewRegionsPage(a.sessions, a.client, a.logger)
	return a.view(cmd.Context(), p, nil, func(w io.Writer) { render.Regions(w, p.View()) })
}

func regionsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "regions", Short: "Regions and hospitals for super admins"}
	list := &cobra.Command{
		Use:   "list",
		Short: "List regions with their hospitals",
		RunE:  func(cmd *cobra.Command, args []string) error { return a.showRegions(cmd) },
	}

	var region organization.CreateRegionRequest
	addRegion := &cobra.Command{
		Use:   "add-region",
		Short: "Create a region",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := pages.NewRegionsPage(a.sessions, a.client, a.logger)
			return a.view(cmd.Context(), p, func(ctx context.Context) error {
				_, err := p.CreateRegion(ctx, region)
				return err
			}, func(w io.Writer) { render.Regions(w, p.View()) })
		},
	}
	addRegion.Flags().StringVar(&region.Name, "name", "", "region name")
	addRegion.Flags().StringVar(&region.Code, "code", "", "short alphanumeric code")

	var hospital organization.CreateHospitalRequest
	addHospital := &cobra.Command{
		Use:   "add-hospital REGION",
		Short: "Create a hospital in a region",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := pages.NewRegionsPage(a.sessions, a.client, a.logger)
			return a.view(cmd.Context(), p, func(ctx context.Context) error {
				_, err := p.CreateHospital(ctx, args[0], hospital)
				return err
			}, func(w io.Writer) { render.Regions(w, p.View()) })
		},
	}
	hf := addHospital.Flags()
	hf.StringVar(&hospital.Name, "name", "", "hospital name")
	hf.StringVar(&hospital.Code, "code", "", "short alphanumeric code")
	hf.StringVar(&hospital.Address, "address", "", "address")
	hf.StringVar(&hospital.Phone, "phone", "", "phone")
	hf.StringVar(&hospital.Email, "email", "", "email")
	hf.IntVar(&hospital.BedCapacity, "beds", 0, "bed capacity")

	cmd.AddCommand(list, addRegion, addHospital)
	return cmd
}

func bedsCmd(a *app) *cobra.Command {
	var ward, status string
	cmd := &cobra.Command{Use: "beds", Aliases: []string{"staffing"}, Short: "Bed board and today's shifts"}
	cmd.PersistentFlags().StringVar(&ward, "ward", "", "ward filter")
	cmd.PersistentFlags().StringVar(&status, "status", "", "bed status filter")

	with := func(cmd *cobra.Command, intent func(ctx context.Context, p *pages.StaffingPage) error) error {
		p := pages.NewStaffingPage(a.sessions, a.client, a.logger)
		p.SetWard(ward)
		p.SetStatus(status)
		var run func(ctx context.Context) error
		if intent != nil {
			run = func(ctx context.Context) error { return intent(ctx, p) }
		}
		return a.view(cmd.Context(), p, run, func(w io.Writer) { render.Staffing(w, p.View()) })
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "Show beds and shifts",
		RunE:  func(cmd *cobra.Command, args []string) error { return with(cmd, nil) },
	}

	var patientID string
	set := &cobra.Command{
		Use:   "set ID STATUS",
		Short: "Change a bed's status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return with(cmd, func(ctx context.Context, p *pages.StaffingPage) error {
				return p.SetBedStatus(ctx, args[0], args[1], patientID)
			})
		},
	}
	set.Flags().StringVar(&patientID, "patient", "", "patient occupying the bed")

	cmd.AddCommand(list, set)
	return cmd
}
