package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/user"
)

var errNotStudent = fmt.Errorf("user is not a student")

// gpa prints the per-course breakdown and the GPA of a student.
func (cli *commandLine) gpa(email string) error {
	ctx := context.Background()
	usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{Email: core.CleanString(email, true /* lower */)})
	if err != nil {
		return err
	}
	if !usr.IsStudent() {
		return errNotStudent
	}

	report, err := cli.gradeSvc.StudentReport(ctx, usr.ID)
	if err != nil {
		return err
	}

	fmt.Fprintf(cli.out, "%s <%s>\n", usr.Name, usr.Email)
	w := tabwriter.NewWriter(cli.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "COURSE\tCREDITS\tSCORE\tGRADE\tPOINTS")
	for _, cr := range report.Courses {
		fmt.Fprintf(w, "%s\t%d\t%.2f%%\t%s\t%.1f\n", cr.CourseID, cr.Credits, cr.Percentage, cr.Letter, cr.Points)
	}
	if err = w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "GPA: %.2f (%s)\n", report.GPA, report.Class)
	return nil
}
