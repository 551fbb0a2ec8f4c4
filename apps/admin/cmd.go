package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"
	"text/tabwriter"

	"github.com/go-playground/validator/v10"
	"golang.org/x/term"

	"github.com/tdvu/courtside/core/academy"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

// adminClient is what the CLI needs from the backend client.
type adminClient interface {
	academy.Client
	Stats(ctx context.Context) (academy.Stats, error)
}

type commandLine struct {
	client   adminClient
	validate *validator.Validate
	out      io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  stats                                          - print platform-wide totals")
	fmt.Fprintln(cli.out, "  listusers [-search NAME]                       - list accounts, optionally filtered by name")
	fmt.Fprintln(cli.out, "  addcourse -name NAME -desc DESC -level LEVEL -fee FEE - create a course")
	fmt.Fprintln(cli.out, "  resetpassword -username USERNAME               - reset an account's password")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	listUsersCmd := flag.NewFlagSet("listusers", flag.ExitOnError)
	listUsersSearch := listUsersCmd.String("search", "", "Filter accounts by (partial) full name.")

	addCourseCmd := flag.NewFlagSet("addcourse", flag.ExitOnError)
	addCourseName := addCourseCmd.String("name", "", "The course name.")
	addCourseDesc := addCourseCmd.String("desc", "", "The course description.")
	addCourseLevel := addCourseCmd.String("level", academy.LevelBeginner, "BEGINNER|INTERMEDIATE|ADVANCED.")
	addCourseFee := addCourseCmd.Float64("fee", 0, "The course fee in thousands of VND.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ExitOnError)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The account's username. The password will be prompted next.")

	ctx := context.Background()

	switch args[1] {
	case "stats":
		return cli.stats(ctx)
	case "listusers":
		if err := listUsersCmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.listUsers(ctx, *listUsersSearch)
	case "addcourse":
		if err := addCourseCmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.addCourse(ctx, academy.NewCourse{
			CourseName:  *addCourseName,
			Description: *addCourseDesc,
			Level:       *addCourseLevel,
			Fee:         *addCourseFee,
		})
	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		fmt.Fprint(cli.out, "Enter password:")
		pwd, err := readPasswordFunc(syscall.Stdin)
		fmt.Fprintln(cli.out)
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(ctx, *resetPasswordUname, string(pwd))
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) stats(ctx context.Context) error {
	stats, err := cli.client.Stats(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Total revenue:  %.0f VND\n", stats.TotalRevenue)
	fmt.Fprintf(cli.out, "Total students: %d\n", stats.TotalStudents)
	fmt.Fprintf(cli.out, "Total courses:  %d\n", stats.TotalCourses)
	return nil
}

func (cli *commandLine) listUsers(ctx context.Context, search string) error {
	var accts []academy.Account
	var err error
	if search != "" {
		accts, err = cli.client.SearchAccounts(ctx, search)
	} else {
		accts, err = cli.client.Accounts(ctx)
	}
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cli.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSERNAME\tFULL NAME\tEMAIL\tROLE\tVERIFIED")
	for _, acct := range accts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%t\n",
			acct.ID, acct.Username, acct.FullName, acct.Email, acct.Role, acct.Verified)
	}
	return w.Flush()
}

func (cli *commandLine) addCourse(ctx context.Context, nc academy.NewCourse) error {
	if err := nc.Validate(cli.validate); err != nil {
		return err
	}
	course, err := cli.client.CreateCourse(ctx, nc)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Course %q created with ID %s\n", course.CourseName, course.ID)
	return nil
}

func (cli *commandLine) resetPassword(ctx context.Context, uname, pwd string) error {
	acct, err := cli.client.AccountByUsername(ctx, uname)
	if err != nil {
		return err
	}
	if err = academy.ValidPassword(pwd, acct.Username, acct.FullName, acct.Email); err != nil {
		return err
	}
	return cli.client.ChangePassword(ctx, acct.ID, pwd)
}
