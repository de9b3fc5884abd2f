package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pterm/pterm"

	"github.com/zatekoja/articleforge/internal/application/services"
	"github.com/zatekoja/articleforge/internal/domain/entities"
	"github.com/zatekoja/articleforge/internal/evaluation"
)

func renderBatchSummary(summary *entities.BatchSummary) {
	pterm.DefaultSection.Println("Batch summary")

	td := pterm.TableData{{"Term", "Slug", "Status", "Failed stage", "Error", "Soft skips"}}
	for _, o := range summary.Terms {
		errText := o.ErrorKind
		if o.Reason != "" {
			errText += ":" + o.Reason
		}
		td = append(td, []string{
			o.Term,
			o.Slug,
			statusStyle(o.Status).Sprint(string(o.Status)),
			string(o.FailedStage),
			errText,
			joinStages(o.SoftSkips),
		})
	}
	_ = pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(td).Render()

	line := fmt.Sprintf("%d terms: %d completed, %d failed, %d with soft skips (%s mode)",
		summary.Total, summary.Successful, summary.Failed, summary.SoftSkips, summary.Mode)
	switch {
	case summary.Failed == 0:
		pterm.Success.Println(line)
	case summary.Successful == 0:
		pterm.Error.Println(line)
	default:
		pterm.Warning.Println(line)
	}
}

func renderRun(run *entities.WorkflowRun) {
	pterm.DefaultSection.Printf("%s (%s)\n", run.Term.Raw, run.Term.Slug)
	pterm.Info.Printf("workflow %s is %s, updated %s\n", run.ID, run.Status, run.UpdatedAt.Format("2006-01-02 15:04:05"))

	td := pterm.TableData{{"Stage", "Status", "Attempts", "Cached", "Detail"}}
	for _, s := range entities.Stages {
		st := run.Stage(s)
		detail := st.SkipReason
		if st.Error != nil {
			detail = st.Error.Kind + ": " + st.Error.Message
		}
		td = append(td, []string{
			string(s),
			stageStyle(st.Status).Sprint(string(st.Status)),
			fmt.Sprint(st.Attempts),
			fmt.Sprint(st.Cached),
			detail,
		})
	}
	_ = pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(td).Render()
}

func renderExport(files []services.ExportedFile) {
	td := pterm.TableData{{"Slug", "Path", "Bytes"}}
	for _, f := range files {
		td = append(td, []string{f.Slug, f.Path, fmt.Sprint(f.Bytes)})
	}
	_ = pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(td).Render()
	pterm.Success.Printf("exported %d articles\n", len(files))
}

func renderAudit(summary *evaluation.AuditSummary) {
	pterm.DefaultSection.Println("Content audit")

	td := pterm.TableData{{"Slug", "Words", "Headings", "FAQ", "Density", "Related", "PAA", "Findings"}}
	for _, r := range summary.Results {
		td = append(td, []string{
			r.Slug,
			fmt.Sprint(r.WordCount),
			fmt.Sprint(r.HeadingCount),
			fmt.Sprint(r.FAQCount),
			fmt.Sprintf("%.4f", r.Density),
			fmt.Sprintf("%.2f", r.RelatedCoverage),
			fmt.Sprintf("%.2f", r.FAQCoverage),
			findingCodes(r.Findings),
		})
	}
	_ = pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(td).Render()

	if len(summary.ByFinding) > 0 {
		codes := make([]string, 0, len(summary.ByFinding))
		for code := range summary.ByFinding {
			codes = append(codes, code)
		}
		sort.Strings(codes)
		counts := pterm.TableData{{"Finding", "Count"}}
		for _, code := range codes {
			counts = append(counts, []string{code, fmt.Sprint(summary.ByFinding[code])})
		}
		_ = pterm.DefaultTable.WithHasHeader().WithData(counts).Render()
	}

	line := fmt.Sprintf("%d of %d articles passed", summary.Passed, summary.Total)
	if summary.Passed == summary.Total {
		pterm.Success.Println(line)
	} else {
		pterm.Warning.Println(line)
	}
}

func statusStyle(s entities.RunStatus) *pterm.Style {
	switch s {
	case entities.RunCompleted:
		return pterm.NewStyle(pterm.FgGreen)
	case entities.RunFailed:
		return pterm.NewStyle(pterm.FgRed)
	default:
		return pterm.NewStyle(pterm.FgYellow)
	}
}

func stageStyle(s entities.StageStatus) *pterm.Style {
	switch s {
	case entities.StatusCompleted:
		return pterm.NewStyle(pterm.FgGreen)
	case entities.StatusFailed:
		return pterm.NewStyle(pterm.FgRed)
	case entities.StatusSkipped:
		return pterm.NewStyle(pterm.FgGray)
	default:
		return pterm.NewStyle(pterm.FgYellow)
	}
}

func joinStages(stages []entities.Stage) string {
	names := make([]string, 0, len(stages))
	for _, s := range stages {
		names = append(names, string(s))
	}
	return strings.Join(names, ",")
}

func findingCodes(findings []evaluation.Finding) string {
	codes := make([]string, 0, len(findings))
	for _, f := range findings {
		codes = append(codes, f.Code)
	}
	return strings.Join(codes, ",")
}
