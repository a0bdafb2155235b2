package stage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyperifyio/gorate/internal/filter"
	"github.com/hyperifyio/gorate/internal/table"
)

func fixture() *table.Table {
	return &table.Table{
		Columns: []string{"Date", "Purchase price", "Per sq. M.", "Type of document", "Survey No.", "Notes"},
		Rows: [][]string{
			{"2021-01-01", "500000", "50", "Sale deed", "12/3", `quote " and '`},
			{"2019-01-01", "0", "5", "Conveyance deed", "7", ""},
			{"2022-06-01", "300000", "300", "Sale deed", "123", "x"},
			{"2022-06-02", "1", "300", "Sale deed", "44", "y"},
			{"2022-06-03", "250000", "4.5", "Sale deed", "45", "z"},
			{"2022-06-04", "250000", "250", "Gift", "12", "w"},
			{"2022-06-05", "NA", "", "Contract", "99/1", "v"},
			{"2022-06-06", "800000", "800", "Sale deed", "०१२/४", "u"},
		},
	}
}

func TestEngine_MatchesInMemoryPipeline(t *testing.T) {
	tb := fixture()
	s, err := filter.ResolveSchema(tb, filter.DefaultNames())
	require.NoError(t, err)

	criteria := []filter.Criteria{
		filter.DefaultCriteria(),
		filter.DefaultCriteria().WithSurveys("12"),
		func() filter.Criteria {
			c := filter.DefaultCriteria().WithSurveys("44 45")
			c.Override = &filter.OverrideRule{DeedType: "Gift", Price: 1}
			return c
		}(),
	}
	for _, c := range criteria {
		want, wantRep := filter.Pipeline{}.Apply(tb, s, c)
		got, gotRep, err := Engine{}.Filter(context.Background(), tb, s, c)
		require.NoError(t, err)
		require.Equal(t, want.Columns, got.Columns)
		require.Equal(t, want.Rows, got.Rows)
		require.Equal(t, wantRep, gotRep)
	}
}

func TestEngine_ExcludesSurveyPrefixOnly(t *testing.T) {
	tb := fixture()
	s, err := filter.ResolveSchema(tb, filter.DefaultNames())
	require.NoError(t, err)

	got, _, err := Engine{}.Filter(context.Background(), tb, s, filter.DefaultCriteria().WithSurveys("12"))
	require.NoError(t, err)
	require.Equal(t, []string{"123"}, got.Column("Survey No."))
}

func TestEngine_EmptyTable(t *testing.T) {
	tb := table.New([]string{"Date", "Purchase price", "Per sq. M.", "Type of document", "Survey No."})
	s, err := filter.ResolveSchema(tb, filter.DefaultNames())
	require.NoError(t, err)

	got, rep, err := Engine{}.Filter(context.Background(), tb, s, filter.DefaultCriteria())
	require.NoError(t, err)
	require.Equal(t, 0, got.Len())
	require.Len(t, rep.Stages, len(filter.DefaultStages))
}

func TestEngine_LenientSchemaSkipsStages(t *testing.T) {
	tb := &table.Table{
		Columns: []string{"Date"},
		Rows:    [][]string{{"2021-01-01"}, {"2010-01-01"}},
	}
	s, missing := filter.ResolveSchemaLenient(tb, filter.DefaultNames())
	require.Len(t, missing, 4)

	got, rep, err := Engine{}.Filter(context.Background(), tb, s, filter.DefaultCriteria())
	require.NoError(t, err)
	require.Equal(t, [][]string{{"2021-01-01"}}, got.Rows)
	require.NotEmpty(t, rep.Warnings)
}
