package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"xfollowers/pkg/models"
)

// maxReasonableCap is the point past which a requested cap gets a warning.
const maxReasonableCap = 10000

// Prompter asks the interactive questions a command is missing answers for.
// Reader and writer are injectable so prompts can be tested with scripted
// input.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPrompter creates a prompter over stdin/stdout.
func NewPrompter() *Prompter {
	return &Prompter{
		in:  bufio.NewReader(os.Stdin),
		out: os.Stdout,
	}
}

// NewPrompterWithIO creates a prompter over the given streams.
func NewPrompterWithIO(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{
		in:  bufio.NewReader(in),
		out: out,
	}
}

// Handle asks for the subject handle until a non-empty one is given. The
// leading @ is stripped.
func (p *Prompter) Handle() (string, error) {
	for {
		fmt.Fprint(p.out, "Whose followers should be collected? @")
		line, err := p.readLine()
		if err != nil {
			return "", err
		}

		handle := strings.TrimPrefix(strings.TrimSpace(line), "@")
		if handle != "" {
			return handle, nil
		}
		fmt.Fprintln(p.out, Yellow("A handle is required."))
	}
}

// MaxFollowers asks for an optional cap. Empty input means no cap (0).
// Non-positive or non-numeric input is rejected and asked again; unusually
// large caps get a warning but are accepted.
func (p *Prompter) MaxFollowers() (int, error) {
	for {
		fmt.Fprint(p.out, "Maximum followers to collect (empty for all): ")
		line, err := p.readLine()
		if err != nil {
			return 0, err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			return 0, nil
		}

		n, err := strconv.Atoi(line)
		if err != nil || n <= 0 {
			fmt.Fprintln(p.out, Yellow("Enter a positive number, or leave empty for no cap."))
			continue
		}

		if n > maxReasonableCap {
			fmt.Fprintln(p.out, Yellow(fmt.Sprintf("Collecting %d followers may take a very long time.", n)))
		}
		return n, nil
	}
}

// OutputFormat asks which files to write. Empty input means both.
func (p *Prompter) OutputFormat() (string, error) {
	for {
		fmt.Fprint(p.out, "Output format [text/json/both] (default both): ")
		line, err := p.readLine()
		if err != nil {
			return "", err
		}

		format := strings.ToLower(strings.TrimSpace(line))
		switch format {
		case "":
			return "both", nil
		case "text", "json", "both":
			return format, nil
		}
		fmt.Fprintln(p.out, Yellow("Choose text, json or both."))
	}
}

// Ask prints a free-form question and returns the trimmed answer. Empty
// answers are allowed.
func (p *Prompter) Ask(question string) (string, error) {
	fmt.Fprint(p.out, question)
	line, err := p.readLine()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Confirm asks a yes/no question, defaulting to no.
func (p *Prompter) Confirm(question string) (bool, error) {
	fmt.Fprintf(p.out, "%s [y/N]: ", question)
	line, err := p.readLine()
	if err != nil {
		return false, err
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

// Password reads a secret without echoing when attached to a terminal,
// falling back to a plain read otherwise.
func (p *Prompter) Password(label string) (string, error) {
	fmt.Fprint(p.out, label+": ")

	if fd := int(os.Stdin.Fd()); term.IsTerminal(fd) {
		secret, err := term.ReadPassword(fd)
		fmt.Fprintln(p.out)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(secret), nil
	}

	line, err := p.readLine()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (p *Prompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("input closed: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// PrintPreview prints the top entries of a ranked result set.
func PrintPreview(rs *models.ResultSet, n int) {
	if quiet || rs.Total() == 0 {
		return
	}

	top := rs.Top(n)
	fmt.Println()
	PrintHighlight(fmt.Sprintf("Top %d of %d followers of @%s:", len(top), rs.Total(), rs.Subject))
	for i, f := range top {
		line := fmt.Sprintf("%4d. @%-20s %10d followers", i+1, f.Username, f.FollowerCount)
		if f.Verified {
			line += " ✓"
		}
		fmt.Println(line)
	}
	fmt.Println()
}
