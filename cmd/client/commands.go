package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"bikeshare/internal/entities"
	apperrors "bikeshare/internal/errors"
	"bikeshare/internal/service"

	"go.uber.org/zap"
)

func (a *app) stations(ctx context.Context, args []string) error {
	fs := newFlagSet("stations")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.catalog.Load(ctx); err != nil {
		return errors.New(a.catalog.Err())
	}
	printStations(a.catalog.Stations())
	return nil
}

func printStations(stations []entities.Station) {
	if len(stations) == 0 {
		fmt.Println("No stations available.")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATION\tDEMAND\tBIKES\tLOCATION")
	for _, st := range stations {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.4f,%.4f\n", st.ID, st.Name, st.DemandLevel, st.AvailableBikes, st.Lat, st.Lng)
	}
	w.Flush()
}

func (a *app) price(args []string) error {
	fs := newFlagSet("price")
	demand := fs.String("demand", "", "demand level: Low, Medium or High")
	slot := fs.String("slot", "", "time slot: Morning, Afternoon, Evening or Night")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *demand == "" && *slot == "" {
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "DEMAND\tSLOT\tBASE\tSURCHARGE\tPRICE")
		for _, q := range service.PriceGrid() {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\n", q.Demand, q.TimeSlot.Label(), q.Base, q.Surcharge, q.Price)
		}
		return w.Flush()
	}

	d, err := entities.ParseDemandLevel(*demand)
	if err != nil {
		return err
	}
	t, err := entities.ParseTimeSlot(*slot)
	if err != nil {
		return err
	}
	fmt.Printf("%s demand, %s: %d\n", d, t.Label(), service.Price(d, t))
	return nil
}

func (a *app) reserve(ctx context.Context, args []string) error {
	fs := newFlagSet("reserve")
	station := fs.String("station", "", "station id")
	date := fs.String("date", "", "date as YYYY-MM-DD")
	slot := fs.String("slot", "", "time slot")
	fromStation := fs.String("from-station", "", "station handed over from the station list")
	fromDemand := fs.String("from-demand", "", "demand level handed over with -from-station")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.requireUser(); err != nil {
		return err
	}

	if err := a.catalog.Load(ctx); err != nil {
		a.logger.Warn("continuing without station data", zap.String("reason", a.catalog.Err()))
	}

	var handoff *entities.Handoff
	if *fromStation != "" {
		handoff = &entities.Handoff{StationID: *fromStation, Demand: entities.DemandLevel(*fromDemand)}
	}
	view := service.NewReservationView(a.catalog, handoff)
	view.Render()
	if *station != "" {
		view.SelectStation(*station)
	}
	if *date != "" {
		d, err := entities.ParseDate(*date)
		if err != nil {
			return err
		}
		view.SelectDate(d)
	}
	if *slot != "" {
		t, err := entities.ParseTimeSlot(*slot)
		if err != nil {
			return err
		}
		view.SelectTimeSlot(t)
	}

	if price, ok := view.QuotedPrice(); ok {
		fmt.Printf("Estimated price: %d (%s demand)\n", price, view.Demand())
	}

	attempt := service.NewAttempt(view.Form())
	res, err := a.reservations.Create(ctx, attempt, a.cfg.UserEmail)
	if err != nil {
		return errors.New(attempt.Err())
	}
	fmt.Println("Reservation confirmed.")
	printReservation(*res)
	return nil
}

func (a *app) list(ctx context.Context, args []string) error {
	fs := newFlagSet("list")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.requireUser(); err != nil {
		return err
	}
	// A failed read is logged by Refresh; the held list is shown as is.
	list, _ := a.reservations.Refresh(ctx, a.cfg.UserEmail)
	printReservations(list)
	return nil
}

func (a *app) edit(ctx context.Context, args []string) error {
	fs := newFlagSet("edit")
	id := fs.String("id", "", "reservation id")
	station := fs.String("station", "", "new station id")
	date := fs.String("date", "", "new date as YYYY-MM-DD")
	slot := fs.String("slot", "", "new time slot")
	if err := fs.Parse(args); err != nil {
		return err
	}
	attempt, err := a.attemptFor(ctx, *id)
	if err != nil {
		return err
	}
	if err := attempt.Edit(); err != nil {
		return err
	}

	form := attempt.Form()
	if *station != "" {
		form.StationID = *station
	}
	if *date != "" {
		if form.Date, err = entities.ParseDate(*date); err != nil {
			return err
		}
	}
	if *slot != "" {
		if form.TimeSlot, err = entities.ParseTimeSlot(*slot); err != nil {
			return err
		}
	}
	if err := attempt.SetForm(form); err != nil {
		return err
	}

	if err := a.reservations.Update(ctx, attempt, a.cfg.UserEmail); err != nil {
		return errors.New(attempt.Err())
	}
	fmt.Println("Reservation updated.")
	printReservation(*attempt.Reservation())
	return nil
}

func (a *app) cancel(ctx context.Context, args []string) error {
	fs := newFlagSet("cancel")
	id := fs.String("id", "", "reservation id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	attempt, err := a.attemptFor(ctx, *id)
	if err != nil {
		return err
	}
	if err := a.reservations.Cancel(ctx, attempt, a.cfg.UserEmail); err != nil {
		return errors.New(attempt.Err())
	}
	fmt.Println("Reservation cancelled.")
	printReservations(a.reservations.Reservations())
	return nil
}

// attemptFor loads the user's list and wraps the reservation with id.
func (a *app) attemptFor(ctx context.Context, id string) (*service.Attempt, error) {
	if id == "" {
		return nil, errors.New("-id is required")
	}
	if err := a.requireUser(); err != nil {
		return nil, err
	}
	if _, err := a.reservations.Refresh(ctx, a.cfg.UserEmail); err != nil {
		return nil, errors.New(apperrors.Message(err, "Failed to load reservations."))
	}
	res, ok := a.reservations.Find(id)
	if !ok {
		return nil, fmt.Errorf("no reservation %q for %s", id, a.cfg.UserEmail)
	}
	return service.AttemptFor(res), nil
}

func (a *app) latest(args []string) error {
	fs := newFlagSet("latest")
	if err := fs.Parse(args); err != nil {
		return err
	}
	printSnapshot(a.snapshots.Get())
	return nil
}

func (a *app) contact(ctx context.Context, args []string) error {
	fs := newFlagSet("contact")
	name := fs.String("name", "", "your name")
	message := fs.String("message", "", "message text")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.requireUser(); err != nil {
		return err
	}
	err := a.client.SendContact(ctx, entities.ContactRequest{
		Name:    *name,
		Email:   a.cfg.UserEmail,
		Message: *message,
	})
	if err != nil {
		return errors.New(apperrors.Message(err, "Failed to send message. Please try again."))
	}
	fmt.Println("Message sent.")
	return nil
}

func (a *app) watch(ctx context.Context, args []string) error {
	fs := newFlagSet("watch")
	schedule := fs.String("schedule", a.cfg.RefreshSchedule, "cron schedule for refreshes")
	if err := fs.Parse(args); err != nil {
		return err
	}

	unsubscribe := a.snapshots.Subscribe(func(s *entities.LatestReservationSnapshot) {
		printSnapshot(s)
	})
	defer unsubscribe()

	jobs := service.NewJobService(a.catalog, a.reservations, a.cfg.UserEmail, a.logger)
	jobs.RefreshAll(ctx)
	printStations(a.catalog.Stations())
	if err := jobs.Start(*schedule); err != nil {
		return err
	}
	defer jobs.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	a.logger.Info("watch stopped")
	return nil
}

func (a *app) requireUser() error {
	if a.cfg.UserEmail == "" {
		return errors.New("USER_EMAIL is not set")
	}
	return nil
}

func printReservation(r entities.Reservation) {
	fmt.Printf("  Code:     %s\n", r.ID)
	fmt.Printf("  Station:  %s\n", r.StationName)
	fmt.Printf("  Date:     %s\n", r.Date)
	fmt.Printf("  Slot:     %s\n", r.TimeSlot.Label())
	fmt.Printf("  Price:    %d\n", r.Price)
	fmt.Printf("  Status:   %s\n", r.Status)
}

func printReservations(list []entities.Reservation) {
	if len(list) == 0 {
		fmt.Println("You have no reservations.")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CODE\tSTATION\tDATE\tSLOT\tDEMAND\tPRICE\tSTATUS")
	for _, r := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			r.ID, r.StationName, r.Date, r.TimeSlot, r.Demand, r.Price, r.Status)
	}
	w.Flush()
}

func printSnapshot(s *entities.LatestReservationSnapshot) {
	if s == nil {
		fmt.Println("No recent reservation.")
		return
	}
	fmt.Println("Latest reservation:")
	fmt.Printf("  Code:     %s\n", s.ReservationID)
	fmt.Printf("  Station:  %s\n", s.StationName)
	fmt.Printf("  Date:     %s\n", s.Date)
	fmt.Printf("  Slot:     %s\n", s.TimeSlot.Label())
	fmt.Printf("  Price:    %d\n", s.Price)
	fmt.Printf("  Status:   %s\n", s.Status)
}
