package orchestrator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"foldersort/internal/config"
)

func writeTestFixtures(t *testing.T, dir string) (categoriesPath, rulesPath string) {
	t.Helper()
	categoriesPath = filepath.Join(dir, "categories.csv")
	require.NoError(t, os.WriteFile(categoriesPath, []byte(
		"Documents,{suffix}\n__default__,{suffix}\n"), 0o644))

	rulesPath = filepath.Join(dir, "rules.csv")
	require.NoError(t, os.WriteFile(rulesPath, []byte(
		"*,application/pdf,Documents,,final\n"), 0o644))
	return categoriesPath, rulesPath
}

func TestManualModeScanClassifyReportEndToEnd(t *testing.T) {
	workDir := t.TempDir()
	sourceRoot := filepath.Join(workDir, "source")
	require.NoError(t, os.MkdirAll(sourceRoot, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(sourceRoot, "invoice.pdf"), []byte("%PDF-1.4 fake"), 0o644))

	categoriesPath, rulesPath := writeTestFixtures(t, workDir)

	cfg := config.Default()
	cfg.SourceRoots = []string{sourceRoot}
	cfg.TargetRoot = filepath.Join(workDir, "target")
	cfg.ReportDir = filepath.Join(workDir, "report")
	cfg.DBPath = filepath.Join(workDir, "catalog.db")
	cfg.CategoriesPath = categoriesPath
	cfg.RulesPath = rulesPath
	cfg.Classifier = config.ClassifierManual

	o, err := Build(t.Context(), cfg)
	require.NoError(t, err)
	defer o.Close()

	inserted, err := o.RunScan(t.Context())
	require.NoError(t, err)
	require.Equal(t, 1, inserted)

	classified, err := o.RunClassify(t.Context())
	require.NoError(t, err)
	require.Equal(t, 1, classified)

	require.NoError(t, o.RunReport(t.Context(), cfg.ReportDir))

	cleanup, err := os.ReadFile(filepath.Join(cfg.ReportDir, "cleanup.psv"))
	require.NoError(t, err)
	require.Contains(t, string(cleanup), "invoice.pdf")
	require.Contains(t, string(cleanup), "Documents")

	script, err := os.ReadFile(filepath.Join(cfg.ReportDir, "move_plan.sh"))
	require.NoError(t, err)
	require.Contains(t, string(script), "rsync -a --partial --append-verify")

	stats, err := o.Summarize(t.Context())
	require.NoError(t, err)
	require.Equal(t, 1, stats.Total)
	require.Equal(t, 1, stats.Planned)
}
