package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"mistportal/internal/clock"
	"mistportal/internal/config"
	"mistportal/internal/forecasts"
	"mistportal/internal/misting"
	"mistportal/internal/schedule"
	"mistportal/internal/types"
)

func newClockCmd(a *app) *cobra.Command {
	var once bool
	cmd := &cobra.Command{
		Use:         "clock",
		Short:       "Show the live clock",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationNoAuth: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if once {
				a.render.Clock(clock.Format(a.now()), false)
				return nil
			}
			clock.Run(cmd.Context(), clock.DefaultInterval, a.now, func(frame string) {
				a.render.Clock(frame, true)
			})
			fmt.Fprintln(a.out)
			return nil
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "print the time once and exit")
	return cmd
}

func newThemeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "theme [on|off|toggle]",
		Short:       "Show or change the dark-mode preference",
		Args:        cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs:   []string{"on", "off", "toggle"},
		Annotations: map[string]string{annotationNoAuth: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				dark bool
				err  error
			)
			switch {
			case len(args) == 0:
				dark, err = a.prefs.DarkMode()
			case args[0] == "toggle":
				dark, err = a.prefs.Toggle()
			default:
				dark = args[0] == "on"
				err = a.prefs.SetDarkMode(dark)
			}
			if err != nil {
				return err
			}
			a.render.Theme(dark)
			return nil
		},
	}
}

func newScheduleCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Show or edit the weekly misting schedule",
	}
	cmd.AddCommand(newScheduleShowCmd(a), newScheduleSetCmd(a))
	return cmd
}

// loadEditor fetches the device schedule into a fresh editor.
func (a *app) loadEditor(cmd *cobra.Command) (*schedule.Editor, *types.PortalConfig, error) {
	pc, err := a.portal.GetConfig(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	editor := schedule.NewEditor(a.cfg.Schedule.SlotsPerDay)
	editor.Populate(pc.Schedule)
	return editor, pc, nil
}

func newScheduleShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the schedule stored on the device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			editor, _, err := a.loadEditor(cmd)
			if err != nil {
				return err
			}
			a.render.Schedule(editor.Sections())
			return nil
		},
	}
}

func newScheduleSetCmd(a *app) *cobra.Command {
	var (
		day   string
		times []string
		off   []string
		on    []string
	)
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change the schedule and save it to the device",
		Long: `Loads the current schedule, applies the changes and saves the result.

--day with one or more --time values replaces that day's times and checks it.
--off unchecks a day without forgetting its times; --on checks it again.`,
		Example: `  mistctl schedule set --day mon --time "8:00 AM" --time "8:00 PM"
  mistctl schedule set --off sat --off sun`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if day == "" && len(off) == 0 && len(on) == 0 {
				return types.NewAppError(types.ErrCodeValidationInvalidWeekday,
					"nothing to change; pass --day, --off or --on", nil)
			}
			if day == "" && len(times) > 0 {
				return types.NewAppError(types.ErrCodeValidationInvalidWeekday, "--time needs --day", nil)
			}

			editor, _, err := a.loadEditor(cmd)
			if err != nil {
				return err
			}
			if err := applyScheduleEdits(editor, day, times, off, on); err != nil {
				return err
			}

			gathered, err := editor.Gather()
			if err == nil {
				err = a.portal.SaveSchedule(cmd.Context(), gathered)
			}
			a.render.ScheduleSaved(err)
			if err != nil {
				return err
			}
			a.render.Schedule(editor.Sections())
			return nil
		},
	}
	cmd.Flags().StringVar(&day, "day", "", "day to set times for (sun..sat)")
	cmd.Flags().StringArrayVar(&times, "time", nil, `time for --day, e.g. "8:00 AM"; repeat for more rows`)
	cmd.Flags().StringArrayVar(&off, "off", nil, "uncheck a day (repeatable)")
	cmd.Flags().StringArrayVar(&on, "on", nil, "check a day (repeatable)")
	return cmd
}

func applyScheduleEdits(editor *schedule.Editor, day string, times, off, on []string) error {
	for _, name := range on {
		d, err := types.ParseWeekday(name)
		if err != nil {
			return err
		}
		if err := editor.SetDay(d, true); err != nil {
			return err
		}
	}
	if day != "" {
		d, err := types.ParseWeekday(day)
		if err != nil {
			return err
		}
		sels := make([]schedule.TimeSlotSelection, 0, len(times))
		for _, t := range times {
			sel, err := schedule.ParseSelection(t)
			if err != nil {
				return err
			}
			sels = append(sels, sel)
		}
		if err := editor.SetTimes(d, sels); err != nil {
			return err
		}
	}
	for _, name := range off {
		d, err := types.ParseWeekday(name)
		if err != nil {
			return err
		}
		if err := editor.SetDay(d, false); err != nil {
			return err
		}
	}
	return nil
}

func newMistCmd(a *app) *cobra.Command {
	var active, enabled bool
	cmd := &cobra.Command{
		Use:   "mist",
		Short: "Show or change the manual and automatic misting switches",
		Example: `  mistctl mist --active
  mistctl mist --enabled --active=false`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			logger := types.LoggerFromContext(ctx)
			controller := misting.NewController(a.portal, logger)

			// A failed load leaves both switches off, as the portal page does.
			if pc, err := a.portal.GetConfig(ctx); err != nil {
				logger.WarnContext(ctx, "failed to load config", "error", err)
			} else {
				controller.Load(*pc)
			}

			state := controller.State()
			activeChanged := cmd.Flags().Changed("active")
			enabledChanged := cmd.Flags().Changed("enabled")
			if !activeChanged && !enabledChanged {
				a.render.Misting(state, misting.Advise(state))
				return nil
			}
			if activeChanged {
				state.Active = active
			}
			if enabledChanged {
				state.Enabled = enabled
			}

			advisory, err := controller.Set(ctx, state)
			a.render.Misting(controller.State(), advisory)
			return err
		},
	}
	cmd.Flags().BoolVar(&active, "active", false, "run the mister manually now")
	cmd.Flags().BoolVar(&enabled, "enabled", false, "let the schedule run the mister")
	return cmd
}

func newForecastCmd(a *app) *cobra.Command {
	var lat, lon string
	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Look up the forecast, record it in the device log and show the log",
		Long: `Looks up the weather.gov forecast for a coordinate, shows the first seven
periods and warns when automation will skip misting for rain. The result is
appended to the device's weather log, which is then shown.

The coordinate defaults to WEATHER_LAT/WEATHER_LON, then to the location the
device reports.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			coords, err := a.forecastCoordinates(cmd, lat, lon)
			if err != nil {
				return err
			}

			svc := forecasts.NewService(a.weather, a.portal, types.LoggerFromContext(ctx))
			report, err := svc.Lookup(ctx, coords)
			if err != nil {
				return err
			}
			a.render.Forecast(report)

			entries, err := svc.Record(ctx, report, a.now())
			if err != nil {
				// Already logged by the service; the lookup itself succeeded.
				return nil
			}
			a.render.WeatherLog(entries)
			return nil
		},
	}
	cmd.Flags().StringVar(&lat, "lat", "", "latitude, e.g. 33.4484")
	cmd.Flags().StringVar(&lon, "lon", "", "longitude, e.g. -112.0740")
	return cmd
}

// forecastCoordinates picks the lookup coordinate: flags, then config, then
// the location stored on the device.
func (a *app) forecastCoordinates(cmd *cobra.Command, lat, lon string) (forecasts.Coordinates, error) {
	if lat != "" || lon != "" {
		return forecasts.Coordinates{Lat: lat, Lon: lon}, nil
	}
	if a.cfg.Weather.Lat != "" {
		return forecasts.Coordinates{Lat: a.cfg.Weather.Lat, Lon: a.cfg.Weather.Lon}, nil
	}
	pc, err := a.portal.GetConfig(cmd.Context())
	if err != nil {
		return forecasts.Coordinates{}, err
	}
	if !pc.Location.Known() {
		return forecasts.Coordinates{}, types.NewAppError(types.ErrCodeValidationInvalidLat,
			"no coordinate given; pass --lat and --lon or set WEATHER_LAT and WEATHER_LON", nil)
	}
	return forecasts.Coordinates{
		Lat: strconv.FormatFloat(*pc.Location.Lat, 'f', -1, 64),
		Lon: strconv.FormatFloat(*pc.Location.Lon, 'f', -1, 64),
	}, nil
}

func newLogCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "log",
		Short: "Show the weather log stored on the device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc := forecasts.NewService(a.weather, a.portal, types.LoggerFromContext(cmd.Context()))
			entries, err := svc.History(cmd.Context())
			if err != nil {
				return err
			}
			a.render.WeatherLog(entries)
			return nil
		},
	}
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show switches, schedule and weather log",
		Long: `Loads the device config and weather log together and shows whatever
loaded. A load that fails is logged and its section is left out; only an
expired session fails the command.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := types.LoggerFromContext(cmd.Context())
			var (
				pc      *types.PortalConfig
				entries []types.WeatherLogEntry
			)
			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				var err error
				pc, err = a.portal.GetConfig(ctx)
				if err != nil && !isAuthError(err) {
					logger.WarnContext(ctx, "failed to load config", "error", err)
					pc = nil
					return nil
				}
				return err
			})
			g.Go(func() error {
				var err error
				entries, err = a.portal.GetWeatherLog(ctx)
				if err != nil && !isAuthError(err) {
					logger.WarnContext(ctx, "failed to load weather log", "error", err)
					entries = nil
					return nil
				}
				return err
			})
			if err := g.Wait(); err != nil {
				return err
			}

			if pc != nil {
				controller := misting.NewController(a.portal, logger)
				controller.Load(*pc)
				state := controller.State()
				a.render.Misting(state, misting.Advise(state))

				editor := schedule.NewEditor(a.cfg.Schedule.SlotsPerDay)
				editor.Populate(pc.Schedule)
				a.render.Schedule(editor.Sections())
			}

			if entries != nil {
				a.render.WeatherLog(entries)
			}
			return nil
		},
	}
}

// isAuthError reports whether err means the portal session is gone.
func isAuthError(err error) bool {
	var appErr *types.AppError
	return errors.As(err, &appErr) && appErr.ExitCode() == types.ExitAuth
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Annotations: map[string]string{
			annotationNoAuth:   "true",
			annotationNoConfig: "true",
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintf(a.out, "mistctl %s\n", config.NewBuildInfo())
			return nil
		},
	}
}

