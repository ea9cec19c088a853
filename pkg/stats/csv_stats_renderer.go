package stats

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type StatsRenderer interface {
	RenderStats(stats StatsSummary) (string, error)
}

type CsvStatsRendererImpl struct {
}

func NewCsvStatsRenderer() *CsvStatsRendererImpl {
	return &CsvStatsRendererImpl{}
}

// RenderStats writes one row per month with a column per counted type, followed by the
// totals and the budget figures.
func (t *CsvStatsRendererImpl) RenderStats(stats StatsSummary) (string, error) {
	header := make([]string, 0, len(stats.Types)+2)
	header = append(header, "Month")
	header = append(header, stats.Types...)
	header = append(header, "SUM")

	data := make([][]string, 0, len(stats.Months)+5)
	data = append(data, header)

	typeTotals := make([]decimal.Decimal, len(stats.Types))
	for _, month := range stats.Months {
		row := make([]string, 0, len(header))
		row = append(row, fmt.Sprintf("%02d/%d", int(month.Month), stats.Year))
		for i, name := range stats.Types {
			days := month.ByType[name]
			typeTotals[i] = typeTotals[i].Add(days)
			row = append(row, daysToString(days))
		}
		row = append(row, daysToString(month.Days))
		data = append(data, row)
	}

	totalRow := make([]string, 0, len(header))
	totalRow = append(totalRow, "Total")
	for _, total := range typeTotals {
		totalRow = append(totalRow, daysToString(total))
	}
	totalRow = append(totalRow, daysToString(stats.InYear))
	data = append(data, totalRow,
		[]string{"Budget", daysToString(stats.Budget)},
		[]string{"Planned", daysToString(stats.Planned)},
		[]string{"Remaining", daysToString(stats.Remaining)},
	)

	var b bytes.Buffer
	writer := csv.NewWriter(&b)
	for _, row := range data {
		err := writer.Write(row)
		if err != nil {
			log.Errorf("Error writing to csv: %v", err)
			return "", err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		log.Errorf("Error writing to csv: %v", err)
		return "", err
	}

	return b.String(), nil
}

func daysToString(days decimal.Decimal) string {
	return days.StringFixed(1)
}
