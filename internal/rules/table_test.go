package rules

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadSkipsCommentsAndBlankLines(t *testing.T) {
	csv := strings.TrimSpace(`
# a comment

\.git$,*,Software/Source_Code,keep_parent,final
`)
	tbl, err := Load(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, tbl.Rules(), 1)
	require.True(t, tbl.EnsureAvailable())
}

func TestLegacyActionAliases(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want FolderAction
	}{
		{"keep", Keep},
		{"KEEP_PARENT", KeepParent},
		{"move_as_unit", KeepExcept},
		{"unit", KeepExcept},
		{"keep_except", KeepExcept},
		{"strip", Disaggregate},
		{"disaggregate", Disaggregate},
	} {
		got, ok := ParseFolderAction(tc.in)
		require.True(t, ok, tc.in)
		require.Equal(t, tc.want, got, tc.in)
	}
}

func TestParseFolderActionRejectsUnknown(t *testing.T) {
	_, ok := ParseFolderAction("vaporize")
	require.False(t, ok)
}

func TestMatchFirstRuleWins(t *testing.T) {
	csv := strings.TrimSpace(`
.*\.pdf$,*,Documents/General,disaggregate,final
.*invoice.*\.pdf$,*,Documents/Finance,disaggregate,final
`)
	tbl, err := Load(strings.NewReader(csv))
	require.NoError(t, err)

	info := tbl.Match("Invoices/2023/invoice.pdf", "application/pdf")
	require.NotNil(t, info)
	require.Equal(t, "Documents/General", info.Rule.Category.String())
}

func TestMatchAnyWildcard(t *testing.T) {
	csv := "\\.git$,*,Software/Source_Code,keep_parent,final"
	tbl, err := Load(strings.NewReader(csv))
	require.NoError(t, err)

	info := tbl.Match(".git", "inode/directory")
	require.NotNil(t, info)
	require.Equal(t, KeepParent, info.Rule.FolderAction)
}

func TestBadRowAccumulatesDiagnosticWithoutFailingLoad(t *testing.T) {
	csv := strings.TrimSpace(`
(unterminated,*,Documents,keep,final
\.pdf$,*,Documents,keep,final
`)
	tbl, err := Load(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, tbl.Rules(), 1)
	require.Len(t, tbl.Diagnostics(), 1)
	require.False(t, tbl.EnsureAvailable())
}

func TestRemovingPrecedingRuleChangesWinner(t *testing.T) {
	full := strings.TrimSpace(`
.*invoice.*\.pdf$,*,Documents/Finance,disaggregate,final
.*\.pdf$,*,Documents/General,disaggregate,final
`)
	tblFull, err := Load(strings.NewReader(full))
	require.NoError(t, err)
	info := tblFull.Match("invoice.pdf", "application/pdf")
	require.Equal(t, "Documents/Finance", info.Rule.Category.String())

	withoutFirst := ".*\\.pdf$,*,Documents/General,disaggregate,final"
	tblShort, err := Load(strings.NewReader(withoutFirst))
	require.NoError(t, err)
	info2 := tblShort.Match("invoice.pdf", "application/pdf")
	require.Equal(t, "Documents/General", info2.Rule.Category.String())
}
