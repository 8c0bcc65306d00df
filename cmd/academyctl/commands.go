package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/jrsteele09/academy-storefront/backend"
	"github.com/jrsteele09/academy-storefront/internal/errors"
	"github.com/jrsteele09/academy-storefront/internal/utils"
	"github.com/jrsteele09/academy-storefront/session"
	"golang.org/x/term"
)

type app struct {
	store  *session.Store
	api    *backend.API
	getenv func(string) string
	in     io.Reader
	out    io.Writer
}

func (a *app) dispatch(ctx context.Context, command string, args []string) error {
	switch command {
	case "login":
		return a.login(ctx, args)
	case "signup":
		return a.signup(ctx, args)
	case "logout":
		return a.logout(ctx)
	case "whoami":
		return a.whoami()
	case "courses":
		return a.courses(ctx, args)
	case "enrollments":
		return a.enrollments(ctx)
	case "enroll":
		return a.enroll(ctx, args)
	}
	return fmt.Errorf("unknown command %q", command)
}

func (a *app) login(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("login", flag.ContinueOnError)
	email := flags.String("email", "", "account email")
	password := flags.String("password", "", "account password (ACADEMY_PASSWORD)")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		return errors.New("-email is required")
	}
	pw, err := a.password(*password)
	if err != nil {
		return err
	}

	if err := a.store.Login(ctx, *email, pw); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Logged in as %s\n", a.store.State().User.FullName())
	return nil
}

func (a *app) signup(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("signup", flag.ContinueOnError)
	var in session.SignupInput
	flags.StringVar(&in.FirstName, "first", "", "first name")
	flags.StringVar(&in.LastName, "last", "", "last name")
	flags.StringVar(&in.Email, "email", "", "account email")
	flags.StringVar(&in.Phone, "phone", "", "phone number")
	password := flags.String("password", "", "account password (ACADEMY_PASSWORD)")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if in.Email == "" || in.FirstName == "" || in.LastName == "" {
		return errors.New("-first, -last and -email are required")
	}
	pw, err := a.password(*password)
	if err != nil {
		return err
	}
	in.Password = pw

	if err := a.store.Signup(ctx, in); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Welcome, %s. Your student account is ready.\n", in.FirstName)
	return nil
}

func (a *app) logout(ctx context.Context) error {
	if !a.store.State().IsAuthenticated {
		fmt.Fprintln(a.out, "Not logged in")
		return nil
	}
	_ = a.store.Logout(ctx)
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *app) whoami() error {
	state := a.store.State()
	if !state.IsAuthenticated {
		return errors.ErrNotAuthenticated
	}
	u := state.User
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Name\t%s\n", u.FullName())
	fmt.Fprintf(w, "Email\t%s\n", u.Email)
	fmt.Fprintf(w, "Role\t%s\n", u.Role)
	if phone := utils.Value(u.Phone); phone != "" {
		fmt.Fprintf(w, "Phone\t%s\n", phone)
	}
	return w.Flush()
}

func (a *app) courses(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("courses", flag.ContinueOnError)
	category := flags.Int("category", 0, "category id, 0 for all")
	search := flags.String("q", "", "search titles and descriptions")
	if err := flags.Parse(args); err != nil {
		return err
	}

	catalogue, err := a.api.Catalogue(ctx)
	if err != nil {
		return errors.Classify(err, false)
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tCATEGORY\tPRICE")
	for _, group := range catalogue {
		for _, c := range backend.FilterCourses(group.Courses, *category, *search) {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", c.ID, c.Title, group.Name, c.Price)
		}
	}
	return w.Flush()
}

func (a *app) enrollments(ctx context.Context) error {
	if !a.store.State().IsAuthenticated {
		return errors.ErrNotAuthenticated
	}
	enrollments, err := a.api.Enrollments(ctx)
	if err != nil {
		return errors.Classify(err, false)
	}
	if len(enrollments) == 0 {
		fmt.Fprintln(a.out, "You haven't enrolled in any courses yet.")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "COURSE\tTITLE\tENROLLED")
	for _, e := range enrollments {
		title := "-"
		if e.Course.Course != nil {
			title = e.Course.Course.Title
		}
		fmt.Fprintf(w, "%d\t%s\t%s\n", e.Course.ID, title, e.EnrolledAt)
	}
	return w.Flush()
}

func (a *app) enroll(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("enroll", flag.ContinueOnError)
	courseID := flags.Int("course", 0, "course id")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *courseID == 0 && flags.NArg() > 0 {
		id, err := strconv.Atoi(flags.Arg(0))
		if err != nil {
			return fmt.Errorf("course id %q is not a number", flags.Arg(0))
		}
		*courseID = id
	}
	if *courseID <= 0 {
		return errors.New("a course id is required")
	}
	if !a.store.State().IsAuthenticated {
		return errors.ErrNotAuthenticated
	}

	if _, err := a.api.Enroll(ctx, *courseID); err != nil {
		return errors.Classify(err, false)
	}
	fmt.Fprintf(a.out, "Enrolled in course %d\n", *courseID)
	return nil
}

// password resolves the password from the flag, ACADEMY_PASSWORD, a terminal prompt or
// the first line of stdin, in that order.
func (a *app) password(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if env := a.getenv("ACADEMY_PASSWORD"); env != "" {
		return env, nil
	}
	if f, ok := a.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(a.out, "Password: ")
		pw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(a.out)
		if err != nil {
			return "", errors.Wrapf(err, "read password")
		}
		return string(pw), nil
	}
	line, err := bufio.NewReader(a.in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", errors.Wrapf(err, "read password")
	}
	if line = strings.TrimRight(line, "\r\n"); line == "" {
		return "", errors.New("a password is required")
	}
	return line, nil
}

// describe renders errors the way the backend phrased them.
func describe(err error) string {
	var validationErr *errors.ValidationError
	var authErr *errors.AuthenticationError
	switch {
	case errors.As(err, &validationErr):
		if len(validationErr.Fields) > 0 {
			return errors.FieldSummary(validationErr.Fields)
		}
		return validationErr.Error()
	case errors.As(err, &authErr):
		return authErr.Error()
	case errors.Is(err, errors.ErrNotAuthenticated), errors.Is(err, errors.ErrRefreshFailed):
		return "not logged in, run academyctl login"
	}
	return err.Error()
}
