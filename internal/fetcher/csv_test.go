package fetcher

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectRows(t *testing.T, rowCh <-chan []string, errCh <-chan error) ([][]string, error) {
	t.Helper()
	var rows [][]string
	for row := range rowCh {
		rows = append(rows, row)
	}
	for err := range errCh {
		if err != nil {
			return rows, err
		}
	}
	return rows, nil
}

func TestStreamCSV_Basic(t *testing.T) {
	input := "행정구역,비율\n서울특별시 강남구,12.5\n부산광역시 중구,20.1\n"
	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{})
	rows, err := collectRows(t, rowCh, errCh)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"행정구역", "비율"}, rows[0])
	assert.Equal(t, []string{"부산광역시 중구", "20.1"}, rows[2])
}

func TestStreamCSV_WithHeader(t *testing.T) {
	input := "주소,종별\n서울 강남구 역삼동,의원\n"
	headerCh := make(chan []string, 1)

	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{
		HasHeader: true,
		HeaderCh:  headerCh,
	})
	rows, err := collectRows(t, rowCh, errCh)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"서울 강남구 역삼동", "의원"}, rows[0])
	assert.Equal(t, []string{"주소", "종별"}, <-headerCh)
}

func TestStreamCSV_TrimSpace(t *testing.T) {
	input := " a , b \n 1 , 2 \n"
	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{TrimSpace: true})
	rows, err := collectRows(t, rowCh, errCh)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "b"}, {"1", "2"}}, rows)
}

func TestStreamCSV_LazyQuotes(t *testing.T) {
	input := "a,b\n1,\"서울 \"강남\" 구\"\n"
	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{LazyQuotes: true})
	rows, err := collectRows(t, rowCh, errCh)
	require.NoError(t, err)
	require.Len(t, rows, 2)
}

func TestStreamCSV_Malformed(t *testing.T) {
	input := "a,b\n1,\"unterminated\n"
	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{})
	_, err := collectRows(t, rowCh, errCh)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "csv: read row")
}

func TestStreamCSV_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rowCh, errCh := StreamCSV(ctx, strings.NewReader("a,b\n1,2\n"), CSVOptions{})
	_, err := collectRows(t, rowCh, errCh)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "context cancelled")
}

func TestSniffDelimiter(t *testing.T) {
	assert.Equal(t, ',', SniffDelimiter("a,b,c\n1,2,3"))
	assert.Equal(t, '\t', SniffDelimiter("a\tb\tc\n"))
	assert.Equal(t, ';', SniffDelimiter("\n\na;b;c\n"))
	assert.Equal(t, '|', SniffDelimiter("a|b"))
	assert.Equal(t, ',', SniffDelimiter("single"))
	assert.Equal(t, ',', SniffDelimiter(""))
}

func TestReadCSV_Semicolon(t *testing.T) {
	rows, err := ReadCSV(context.Background(), "지역;비율\n 강남구 ; 10 \n")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"지역", "비율"}, {"강남구", "10"}}, rows)
}
