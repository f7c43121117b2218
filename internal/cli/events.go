package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/afisha/events/internal/models"
)

func (a *App) eventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "List, inspect and manage events",
	}
	cmd.AddCommand(
		a.listCmd(),
		a.showCmd(),
		a.createCmd(),
		a.attendanceCmd("attend", "Mark that you will attend an event", true),
		a.attendanceCmd("unattend", "Withdraw your attendance", false),
		a.likeCmd(),
	)
	return cmd
}

func (a *App) listCmd() *cobra.Command {
	var from, to, category, city string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List events, optionally filtered",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, err := buildFilter(from, to, category, city)
			if err != nil {
				return err
			}
			res, err := a.events.List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if asJSON {
				return a.printJSON(res)
			}
			a.printList(res.Events)
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "earliest date (YYYY-MM-DD or RFC 3339)")
	cmd.Flags().StringVar(&to, "to", "", "latest date (YYYY-MM-DD or RFC 3339)")
	cmd.Flags().StringVar(&category, "category", "", "concert, theater, exhibition, sport or other")
	cmd.Flags().StringVar(&city, "city", "", "Копейск or Челябинск")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print raw JSON")
	return cmd
}

func (a *App) showCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ev, err := a.events.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return a.printJSON(ev)
			}
			a.printEvent(ev)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print raw JSON")
	return cmd
}

func (a *App) createCmd() *cobra.Command {
	var req models.CreateEventRequest
	var date, category, city string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Publish a new event (administrators only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !a.session.IsAdmin() {
				return errNotAdmin
			}
			req.Category = models.Category(category)
			req.City = models.City(city)
			if date != "" {
				d, err := parseDate(date)
				if err != nil {
					return &models.FieldError{Field: "date", Message: "must be YYYY-MM-DD, YYYY-MM-DD HH:MM or RFC 3339"}
				}
				req.Date = d
			}
			if err := models.Validate(req); err != nil {
				return err
			}
			created, err := a.events.Create(cmd.Context(), req, a.session.Token())
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Event published.")
			return a.refresh(cmd.Context(), created.ID)
		},
	}
	cmd.Flags().StringVar(&req.Title, "title", "", "event title")
	cmd.Flags().StringVar(&req.Description, "description", "", "event description")
	cmd.Flags().StringVar(&req.Image, "image", "", "image URL")
	cmd.Flags().StringVar(&date, "date", "", "start time (YYYY-MM-DD HH:MM or RFC 3339)")
	cmd.Flags().StringVar(&category, "category", "", "concert, theater, exhibition, sport or other")
	cmd.Flags().StringVar(&city, "city", "", "Копейск or Челябинск")
	return cmd
}

func (a *App) attendanceCmd(use, short string, attending bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.session.IsAuthenticated() {
				return errSignInAttend
			}
			if _, err := a.events.SetAttendance(cmd.Context(), args[0], attending, a.session.Token()); err != nil {
				return err
			}
			if attending {
				fmt.Fprintln(a.out, "You are going.")
			} else {
				fmt.Fprintln(a.out, "You are no longer going.")
			}
			return a.refresh(cmd.Context(), args[0])
		},
	}
}

func (a *App) likeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "like <id>",
		Short: "Like an event, or take the like back",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.session.IsAuthenticated() {
				return errSignInLike
			}
			res, err := a.events.ToggleLike(cmd.Context(), args[0], a.session.Token())
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Likes: %d\n", res.Likes)
			return a.refresh(cmd.Context(), args[0])
		},
	}
}

// refresh re-reads an event after a mutation and prints it.
func (a *App) refresh(ctx context.Context, id string) error {
	ev, err := a.events.Get(ctx, id)
	if err != nil {
		return err
	}
	a.printEvent(ev)
	return nil
}

func buildFilter(from, to, category, city string) (*models.Filter, error) {
	f := &models.Filter{
		Category: models.Category(category),
		City:     models.City(city),
	}
	var err error
	if from != "" {
		if f.StartDate, err = parseDate(from); err != nil {
			return nil, &models.FieldError{Field: "from", Message: "must be YYYY-MM-DD or RFC 3339"}
		}
	}
	if to != "" {
		if f.EndDate, err = parseDate(to); err != nil {
			return nil, &models.FieldError{Field: "to", Message: "must be YYYY-MM-DD or RFC 3339"}
		}
	}
	if f.Category != "" && !f.Category.Valid() {
		return nil, &models.FieldError{Field: "category", Message: "unknown category"}
	}
	if f.City != "" && !f.City.Valid() {
		return nil, &models.FieldError{Field: "city", Message: "unknown city"}
	}
	return f, nil
}

// parseDate accepts RFC 3339 or a local date with optional HH:MM.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, layout := range []string{"2006-01-02 15:04", "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

func (a *App) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *App) printList(evs []models.Event) {
	if len(evs) == 0 {
		fmt.Fprintln(a.out, "No events found.")
		return
	}
	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tCITY\tCATEGORY\tLIKES\tTITLE")
	for _, ev := range evs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
			ev.ID, ev.Date.Local().Format("2006-01-02 15:04"), ev.City, ev.Category, ev.Likes, ev.Title)
	}
	tw.Flush()
}

func (a *App) printEvent(ev *models.Event) {
	fmt.Fprintf(a.out, "%s\n", ev.Title)
	fmt.Fprintf(a.out, "  id:        %s\n", ev.ID)
	fmt.Fprintf(a.out, "  when:      %s\n", ev.Date.Local().Format("2006-01-02 15:04"))
	fmt.Fprintf(a.out, "  where:     %s\n", ev.City)
	fmt.Fprintf(a.out, "  category:  %s\n", ev.Category)
	fmt.Fprintf(a.out, "  likes:     %d\n", ev.Likes)
	fmt.Fprintf(a.out, "  attendees: %d\n", len(ev.Attendees))
	if u := a.session.User(); u != nil && ev.IsAttending(u.ID) {
		fmt.Fprintln(a.out, "  you are going")
	}
	if ev.Image != "" {
		fmt.Fprintf(a.out, "  image:     %s\n", ev.Image)
	}
	fmt.Fprintf(a.out, "\n%s\n", ev.Description)
}
