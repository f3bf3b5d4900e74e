package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/Olprog59/go-deliverables/internal/domain"
	"github.com/Olprog59/go-deliverables/internal/dto"
	"github.com/Olprog59/go-deliverables/internal/service"
	"github.com/Olprog59/go-deliverables/internal/view"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

var listHeaders = []string{"ID", "Name", "Lead", "Coordinating staff", "Field", "Start", "End", "Keywords", "Created"}

func parseFormat(s string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(s)); f {
	case formatTable, formatJSON, formatYAML:
		return f, nil
	case "yml":
		return formatYAML, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want table, json or yaml)", s)
	}
}

func newTable() *table.Table {
	header := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)

	return table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})
}

func writeList(w io.Writer, format string, res service.ListResult) error {
	items := dto.DeliverablesToDTO(res.Items)

	switch format {
	case formatJSON:
		return writeJSON(w, dto.ListResponse{Items: items, Count: len(items), Error: res.Error})
	case formatYAML:
		return yaml.NewEncoder(w).Encode(items)
	}

	if len(items) == 0 {
		_, err := fmt.Fprintln(w, view.MsgNoData)
		return err
	}

	t := newTable().Headers(listHeaders...)
	for _, d := range items {
		t.Row(d.ID, d.Name, d.Lead, d.CoordinatingStaff, d.Field, d.StartDate, d.EndDate, d.Keywords, d.CreatedAt)
	}
	_, err := fmt.Fprintf(w, "%s\n%d deliverable(s)\n", t.String(), len(items))
	return err
}

func writeRecord(w io.Writer, format string, d domain.Deliverable) error {
	rec := dto.DeliverableToDTO(d)

	switch format {
	case formatJSON:
		return writeJSON(w, rec)
	case formatYAML:
		return yaml.NewEncoder(w).Encode(rec)
	}

	t := newTable().Headers("Field", "Value").Rows(
		[]string{"ID", rec.ID},
		[]string{"Name", rec.Name},
		[]string{"Lead", rec.Lead},
		[]string{"Coordinating staff", rec.CoordinatingStaff},
		[]string{"Field", rec.Field},
		[]string{"Start", rec.StartDate},
		[]string{"End", rec.EndDate},
		[]string{"Description", rec.Description},
		[]string{"Keywords", rec.Keywords},
		[]string{"Storage link", rec.StorageLink},
		[]string{"Created", rec.CreatedAt},
	)
	_, err := fmt.Fprintln(w, t.String())
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
