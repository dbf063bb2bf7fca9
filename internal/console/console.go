// Package console renders the operator-facing summary of a seeding run.
// It is the only place a plaintext password is ever written.
package console

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"adminseed/internal/seeder"

	"github.com/fatih/color"
)

const boxWidth = 64

type Reporter struct {
	out       io.Writer
	errOut    io.Writer
	quiet     bool
	highlight *color.Color
	warn      *color.Color
	fail      *color.Color
}

func New(out, errOut io.Writer, quiet, noColor bool) *Reporter {
	r := &Reporter{
		out:       out,
		errOut:    errOut,
		quiet:     quiet,
		highlight: color.New(color.FgWhite, color.BgBlack, color.Bold),
		warn:      color.New(color.FgYellow),
		fail:      color.New(color.FgRed, color.Bold),
	}
	if noColor {
		r.highlight.DisableColor()
		r.warn.DisableColor()
		r.fail.DisableColor()
	}
	return r
}

// Report describes a successful run.
type Report struct {
	AppName string
	Result  seeder.Result
	// Password is the plaintext that was hashed. It is shown on creation,
	// and on reset only when it was generated for this run.
	Password          string
	PasswordGenerated bool
}

func (r *Reporter) Success(rep Report) {
	if r.quiet {
		return
	}

	showPassword := rep.Result.Outcome == seeder.OutcomeCreated || rep.PasswordGenerated

	title := "SUPER ADMIN CREATED"
	if rep.Result.Outcome == seeder.OutcomeReset {
		title = "ADMIN PASSWORD RESET"
	}

	r.border('╔', '╗')
	r.centered(title)
	r.border('╠', '╣')
	if rep.AppName != "" {
		r.field("Product:", rep.AppName, nil)
	}
	r.field("Email:", rep.Result.Email, nil)
	if rep.Result.Account != nil {
		r.field("Role:", rep.Result.Account.Role, nil)
	}
	if showPassword {
		r.field("Password:", rep.Password, r.highlight)
	} else {
		r.field("Password:", "(configured value, not shown)", nil)
	}
	r.border('╠', '╣')
	if rep.PasswordGenerated {
		r.line("This password will NOT be shown again!", r.warn)
	}
	if showPassword {
		r.line("IMPORTANT: Change this password after first login!", r.warn)
		r.line("Go to: Settings -> Account -> Change Password", nil)
	} else {
		r.line("Password reset to the configured default.", nil)
	}
	r.border('╚', '╝')
}

func (r *Reporter) Failure(email string, err error) {
	msg := fmt.Sprintf("Error seeding administrator %s", email)
	if reason := seeder.ReasonOf(err); reason != "" {
		msg += fmt.Sprintf(" (%s)", reason)
	}
	fmt.Fprintln(r.errOut, r.fail.Sprint(msg+": ")+err.Error())
}

func (r *Reporter) border(left, right rune) {
	fmt.Fprintf(r.out, "%c%s%c\n", left, strings.Repeat("═", boxWidth), right)
}

func (r *Reporter) centered(text string) {
	pad := boxWidth - utf8.RuneCountInString(text)
	if pad < 0 {
		pad = 0
	}
	left := pad / 2
	fmt.Fprintf(r.out, "║%s%s%s║\n", strings.Repeat(" ", left), text, strings.Repeat(" ", pad-left))
}

func (r *Reporter) field(label, value string, c *color.Color) {
	r.row(fmt.Sprintf("%-10s ", label), value, c)
}

func (r *Reporter) line(text string, c *color.Color) {
	r.row("", text, c)
}

// row writes prefix and value padded to the box width; only value is colored.
func (r *Reporter) row(prefix, value string, c *color.Color) {
	pad := boxWidth - 4 - utf8.RuneCountInString(prefix+value)
	if pad < 0 {
		pad = 0
	}
	if c != nil {
		value = c.Sprint(value)
	}
	fmt.Fprintf(r.out, "║  %s%s%s  ║\n", prefix, value, strings.Repeat(" ", pad))
}
