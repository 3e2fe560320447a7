package annotations

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/killallgit/diagram-annotator/internal/models"
	"go.uber.org/zap"
)

// ExportHeader is the first CSV row of every export
var ExportHeader = []string{
	"id", "sample_id", "task_id", "annotator", "language", "code", "repo",
	"path", "query", "diagram", "version", "text_answer", "nodes", "notes",
	"status", "is_template",
}

// lineBreaks turns embedded line breaks into their two-character escapes so
// every record stays on one physical line
var lineBreaks = strings.NewReplacer("\r", `\r`, "\n", `\n`)

func escapeLine(s string) string {
	return lineBreaks.Replace(s)
}

// exportRow renders one record in ExportHeader order
func exportRow(r *models.AnnotationRecord) ([]string, error) {
	nodes, err := json.Marshal(r.Nodes)
	if err != nil {
		return nil, fmt.Errorf("encoding nodes of record %d: %w", r.ID, err)
	}

	return []string{
		strconv.FormatUint(uint64(r.ID), 10),
		escapeLine(r.SampleID),
		strconv.FormatUint(uint64(r.TaskID), 10),
		escapeLine(r.Annotator),
		escapeLine(r.Language),
		escapeLine(r.Code),
		escapeLine(r.Repo),
		escapeLine(r.Path),
		escapeLine(r.Query),
		escapeLine(r.Diagram),
		escapeLine(r.Version),
		escapeLine(r.TextAnswer),
		escapeLine(string(nodes)),
		escapeLine(r.Notes),
		string(r.Status),
		strconv.FormatBool(r.IsTemplate),
	}, nil
}

// Export writes the header and then every record, templates and instances
// alike, one line each
func (s *ServiceImpl) Export(ctx context.Context, w io.Writer, taskID *uint) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return fmt.Errorf("writing export header: %w", err)
	}

	rows := 0
	err := s.repository.EachRecord(ctx, taskID, func(r *models.AnnotationRecord) error {
		row, err := exportRow(r)
		if err != nil {
			return err
		}
		rows++
		return cw.Write(row)
	})
	if err != nil {
		return err
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing export: %w", err)
	}
	s.logger.Info("annotations exported", zap.Int("rows", rows))
	return nil
}
