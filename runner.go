package formflow

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hificopy/formflow/pkg/domain"
)

// Runner walks a Session from a line-oriented input, one answer per line.
// This allows for easy testing and integration with different frontends (CLI, TUI, etc).
type Runner struct {
	Input    io.Reader
	Output   io.Writer
	Headless bool
	Renderer ContentRenderer
}

// ContentRenderer is a function that transforms the content before outputting it.
// This allows for TUI rendering (markdown to ANSI) without coupling the core package.
type ContentRenderer func(string) (string, error)

// Run asks questions until the session ends, the input is exhausted, or the
// respondent types "exit". Invalid answers are reported and asked again.
// "back" returns to the previous question.
func (r *Runner) Run(ctx context.Context, s *Session) error {
	if r.Input == nil {
		return fmt.Errorf("input reader must be set (use os.Stdin)")
	}
	if r.Output == nil {
		return fmt.Errorf("output writer must be set (use os.Stdout)")
	}
	reader := bufio.NewReader(r.Input)
	w := r.Output

	if !r.Headless {
		fmt.Fprintf(w, "--- %s ---\n", flowTitle(s.Flow()))
	}

	lastShown := -1
	for !s.Done() {
		if err := ctx.Err(); err != nil {
			return err
		}
		q := s.Current()
		if idx := s.Index(); idx != lastShown {
			if err := r.print(questionMarkdown(q)); err != nil {
				return err
			}
			lastShown = idx
		}

		if !r.Headless {
			fmt.Fprint(w, "> ")
		}
		line, err := reader.ReadString('\n')
		if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("read input: %w", err)
		}
		line = strings.TrimSpace(line)

		switch strings.ToLower(line) {
		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return nil
		case "back":
			if s.Back() {
				lastShown = -1
			}
			continue
		}

		if _, err := s.Answer(ctx, ParseAnswer(q, line)); err != nil {
			var verr *domain.ValidationError
			if errors.As(err, &verr) {
				fmt.Fprintf(w, "! %s\n", verr.Message)
				continue
			}
			if errors.Is(err, ErrFinished) {
				continue
			}
			return err
		}
	}

	return r.print(closingMarkdown(s))
}

func (r *Runner) print(md string) error {
	out := md
	if r.Renderer != nil {
		rendered, err := r.Renderer(md)
		if err != nil {
			return fmt.Errorf("render error: %w", err)
		}
		out = rendered
	}
	_, err := fmt.Fprintln(r.Output, strings.TrimRight(out, "\n"))
	return err
}

// ParseAnswer converts a typed line into the answer value for q.
// Multi-choice answers are comma separated; numeric types become float64.
// A blank line is no answer.
func ParseAnswer(q *domain.Question, line string) any {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	switch q.Type {
	case domain.QuestionMultiChoice:
		var picked []any
		for _, part := range strings.Split(line, ",") {
			if p := strings.TrimSpace(part); p != "" {
				picked = append(picked, p)
			}
		}
		return picked
	case domain.QuestionNumber, domain.QuestionRating:
		if n, err := strconv.ParseFloat(line, 64); err == nil {
			return n
		}
	case domain.QuestionSingleChoice:
		// Accept the option number as shown in the prompt.
		if n, err := strconv.Atoi(line); err == nil && n >= 1 && n <= len(q.Options) && !q.HasOption(line) {
			return q.Options[n-1]
		}
	}
	return line
}

func flowTitle(f *domain.Flow) string {
	if f.Name != "" {
		return f.Name
	}
	return f.ID
}

func questionMarkdown(q *domain.Question) string {
	var b strings.Builder
	b.WriteString("## " + q.Title)
	if q.Required {
		b.WriteString(" *")
	}
	b.WriteString("\n")
	if q.Description != "" {
		b.WriteString("\n" + q.Description + "\n")
	}
	switch q.Type {
	case domain.QuestionSingleChoice, domain.QuestionMultiChoice:
		b.WriteString("\n")
		for i, opt := range q.Options {
			fmt.Fprintf(&b, "%d. %s\n", i+1, opt)
		}
		if q.Type == domain.QuestionMultiChoice {
			b.WriteString("\n_Separate choices with commas._\n")
		}
	case domain.QuestionRating:
		fmt.Fprintf(&b, "\n_Rate from %d to %d._\n", domain.RatingMin, domain.RatingMax)
	}
	return b.String()
}

func closingMarkdown(s *Session) string {
	d := s.Decision()
	if d.Action == domain.NavDisqualify {
		return "## Thanks for your interest\n\n" + d.Message + "\n"
	}
	if e := s.Ending(); e != nil {
		md := "## " + e.Title + "\n"
		if e.Message != "" {
			md += "\n" + e.Message + "\n"
		}
		return md
	}
	if qs := s.Flow().Questions; s.Index() < len(qs) {
		if q := qs[s.Index()]; q.Terminal() && q.ThankYouTitle != "" {
			return "## " + q.ThankYouTitle + "\n\n" + q.ThankYouMessage + "\n"
		}
	}
	return "## Thank you!\n\nYour answers were submitted.\n"
}
