package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Sjoeborg/krona/internal/model"
	"github.com/Sjoeborg/krona/internal/service"
)

// Prompter implements the interactive suggestion review over a
// reader/writer pair. Commands: (a)ccept, (d)ecline, (t)oggle, (e)dit
// take a single ID or a dash-separated range; (n)ew adds a manual
// mapping; (f)inish ends the batch.
type Prompter struct {
	reader *bufio.Reader
	writer io.Writer
}

var _ service.Decider = (*Prompter)(nil)

// NewPrompter creates a prompter. Nil reader/writer default to
// stdin/stdout.
func NewPrompter(reader io.Reader, writer io.Writer) *Prompter {
	if reader == nil {
		reader = os.Stdin
	}
	if writer == nil {
		writer = os.Stdout
	}
	return &Prompter{
		reader: bufio.NewReader(reader),
		writer: writer,
	}
}

// Review implements service.Decider.
func (p *Prompter) Review(ctx context.Context, suggestions []*model.Suggestion, preAccepted bool) ([]service.ManualMapping, error) {
	if preAccepted {
		fmt.Fprintln(p.writer, SuccessStyle.Render("High-confidence suggestions (pre-accepted; override as needed)"))
	} else {
		fmt.Fprintln(p.writer, WarningStyle.Render("Low-confidence suggestions (require explicit decisions)"))
	}

	var manual []service.ManualMapping
	for {
		select {
		case <-ctx.Done():
			return manual, ctx.Err()
		default:
		}

		fmt.Fprintln(p.writer, RenderSuggestions(suggestions))
		fmt.Fprintln(p.writer, SubtleStyle.Render(
			"Commands: (a)ccept <id>, (d)ecline <id>, (t)oggle <id>, (e)dit <id>, (n)ew, (f)inish — id may be a range like 1-3"))
		fmt.Fprint(p.writer, "> ")

		line, err := p.reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return manual, nil
			}
			return manual, fmt.Errorf("failed to read command: %w", err)
		}

		fields := strings.Fields(strings.ToLower(strings.TrimSpace(line)))
		if len(fields) == 0 {
			continue
		}

		switch {
		case fields[0] == "f":
			return manual, nil
		case fields[0] == "a" && len(fields) == 2:
			p.setRange(suggestions, fields[1], model.StatusAccepted)
		case fields[0] == "d" && len(fields) == 2:
			p.setRange(suggestions, fields[1], model.StatusDeclined)
		case fields[0] == "t" && len(fields) == 2:
			p.toggleRange(suggestions, fields[1])
		case fields[0] == "e" && len(fields) == 2:
			if err := p.editRange(suggestions, fields[1]); err != nil {
				return manual, err
			}
		case fields[0] == "n":
			mapping, err := p.promptManualMapping()
			if err != nil {
				return manual, err
			}
			if mapping.Source != "" && mapping.Target != "" {
				manual = append(manual, mapping)
				fmt.Fprintln(p.writer, SuccessStyle.Render(
					fmt.Sprintf("Added new mapping: %s -> %s", mapping.Source, mapping.Target)))
			}
		default:
			fmt.Fprintln(p.writer, ErrorStyle.Render("Invalid command"))
		}
	}
}

func (p *Prompter) setRange(suggestions []*model.Suggestion, idOrRange string, status model.SuggestionStatus) {
	start, end, err := parseIDOrRange(idOrRange)
	if err != nil {
		fmt.Fprintln(p.writer, ErrorStyle.Render(err.Error()))
		return
	}
	for i := start; i <= end && i < len(suggestions); i++ {
		if i >= 0 {
			suggestions[i].Status = status
		}
	}
}

func (p *Prompter) toggleRange(suggestions []*model.Suggestion, idOrRange string) {
	start, end, err := parseIDOrRange(idOrRange)
	if err != nil {
		fmt.Fprintln(p.writer, ErrorStyle.Render(err.Error()))
		return
	}
	for i := start; i <= end && i < len(suggestions); i++ {
		if i < 0 {
			continue
		}
		if suggestions[i].Status == model.StatusAccepted {
			suggestions[i].Status = model.StatusDeclined
		} else {
			suggestions[i].Status = model.StatusAccepted
		}
	}
}

// editRange prompts for a new target symbol, then accepts.
func (p *Prompter) editRange(suggestions []*model.Suggestion, idOrRange string) error {
	start, end, err := parseIDOrRange(idOrRange)
	if err != nil {
		fmt.Fprintln(p.writer, ErrorStyle.Render(err.Error()))
		return nil
	}
	for i := start; i <= end && i < len(suggestions); i++ {
		if i < 0 {
			continue
		}
		fmt.Fprintf(p.writer, "Enter new target for %q: ", suggestions[i].SourceSymbol)
		line, err := p.reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read target: %w", err)
		}
		target := strings.TrimSpace(line)
		if target == "" {
			continue
		}
		suggestions[i].TargetSymbol = target
		suggestions[i].Status = model.StatusAccepted
	}
	return nil
}

func (p *Prompter) promptManualMapping() (service.ManualMapping, error) {
	fmt.Fprint(p.writer, "Enter source symbol: ")
	source, err := p.reader.ReadString('\n')
	if err != nil {
		return service.ManualMapping{}, fmt.Errorf("failed to read source: %w", err)
	}
	fmt.Fprint(p.writer, "Enter target symbol: ")
	target, err := p.reader.ReadString('\n')
	if err != nil {
		return service.ManualMapping{}, fmt.Errorf("failed to read target: %w", err)
	}
	return service.ManualMapping{
		Source: strings.TrimSpace(source),
		Target: strings.TrimSpace(target),
	}, nil
}

// parseIDOrRange parses "3" or "1-3" into an inclusive index range.
func parseIDOrRange(s string) (int, int, error) {
	if start, end, ok := strings.Cut(s, "-"); ok {
		from, err1 := strconv.Atoi(start)
		to, err2 := strconv.Atoi(end)
		if err1 != nil || err2 != nil || from > to {
			return 0, 0, fmt.Errorf("invalid range %q: use a single ID or a range like 1-3", s)
		}
		return from, to, nil
	}
	id, err := strconv.Atoi(s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid ID %q: use a single ID or a range like 1-3", s)
	}
	return id, id, nil
}
