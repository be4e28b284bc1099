package google

import (
	"fmt"
	"strconv"
	"strings"

	"orcamento/internal/core"
)

// valuesToMatrix converts an UNFORMATTED_VALUE response into text cells.
// Numbers use the shortest representation that parses back to the same
// float, so 1000000 stays "1000000" instead of "1e+06".
func valuesToMatrix(values [][]interface{}) [][]string {
	out := make([][]string, len(values))
	for i, row := range values {
		out[i] = toStrings(row)
	}
	return out
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		switch x := v.(type) {
		case nil:
			out[i] = ""
		case float64:
			out[i] = strconv.FormatFloat(x, 'f', -1, 64)
		case bool:
			out[i] = strings.ToUpper(strconv.FormatBool(x))
		default:
			out[i] = fmt.Sprint(x)
		}
	}
	return out
}

// quoteSheet returns an A1 range covering the whole sheet.
func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

func sheetByIndex(titles []string, idx int) (string, error) {
	if idx < 0 || idx >= len(titles) {
		return "", fmt.Errorf("%w: sheet index %d out of range (spreadsheet has %d sheets)", core.ErrRead, idx, len(titles))
	}
	return titles[idx], nil
}
