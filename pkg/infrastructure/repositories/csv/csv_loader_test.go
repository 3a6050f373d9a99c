package csv

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/fgplan/pkg/infrastructure/tables"
)

func TestReadTable(t *testing.T) {
	input := "\ufeffRM Code,Quantity\n7,10\n\n,\nAB1,2.5,extra\n"

	table, err := ReadTable(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"RM Code", "Quantity"}, table.Header)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "AB1", table.Rows[1][0])

	lines, err := tables.ParseStock(table)
	require.NoError(t, err)
	assert.Equal(t, "00000007", lines[0].RMCode.String())
}

func TestReadTable_Empty(t *testing.T) {
	_, err := ReadTable(strings.NewReader(""))
	assert.EqualError(t, err, "CSV must have a header row")
}
